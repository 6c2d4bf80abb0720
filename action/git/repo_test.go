package git_test

import (
	"context"
	"io"
	"os"
	oe "os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/byte4ever/actionkit/action/exec"
	"github.com/byte4ever/actionkit/action/git"
	"github.com/byte4ever/actionkit/action/logger"
	"github.com/byte4ever/actionkit/action/version"
)

func newRealHelper(opts ...git.Option) *git.Helper {
	lg := logger.New(io.Discard)

	return git.New(exec.NewRunner(lg), lg, opts...)
}

func TestHelper_real_commit(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	initGitRepo(t, dir)

	fp := filepath.Join(dir, "tracked.txt")
	require.NoError(t, os.WriteFile(fp, []byte("v1\n"), 0o600))
	gitCmd(t, dir, "add", "tracked.txt")
	gitCmd(t, dir, "commit", "-m", "add tracked")

	h := newRealHelper()
	ctx := context.Background()

	ok, err := h.Commit(ctx, dir, "nothing", git.CommitOptions{})
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, os.WriteFile(fp, []byte("v2\n"), 0o600))

	files, err := h.GetDiff(ctx, dir)
	require.NoError(t, err)
	assert.Empty(t, files, "unstaged changes are not reported before add")

	ok, err = h.Commit(ctx, dir, "update tracked", git.CommitOptions{})
	require.NoError(t, err)
	assert.True(t, ok)

	out := gitOutput(t, dir, "log", "-1", "--pretty=%B")
	assert.Contains(t, out, "update tracked")
}

func TestHelper_real_branch(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	initGitRepo(t, dir)

	h := newRealHelper()
	ctx := context.Background()

	branch, err := h.CurrentBranch(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, "main", branch)

	require.NoError(t, h.CreateBranch(ctx, dir, "topic"))

	branch, err = h.CurrentBranch(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, "topic", branch)

	branch, err = h.CurrentBranch(ctx, t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, branch)
}

func TestHelper_real_versions(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	initGitRepo(t, dir)

	h := newRealHelper()
	ctx := context.Background()

	last, err := h.LastTag(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, version.Default, last)

	for _, tag := range []string{"v1.2.3", "1.10", "latest", "v1.9.0"} {
		require.NoError(t, h.AddLocalTag(ctx, dir, tag, ""))
	}

	last, err = h.LastTag(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, "v1.10.0", last)

	patch, err := h.NewPatchVersion(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, "v1.10.1", patch)

	minor, err := h.NewMinorVersion(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, "v1.11.0", minor)

	major, err := h.NewMajorVersion(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, "v2.0.0", major)

	require.NoError(t, h.DeleteLocalTag(ctx, dir, []string{"refs/tags/1.10", "missing"}, 0))

	tags, err := h.GetTags(ctx, dir)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"v1.2.3", "latest", "v1.9.0"}, tags)
}

func TestHelper_real_init_and_config(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "fresh")

	h := newRealHelper()
	ctx := context.Background()

	require.NoError(t, h.GitInit(ctx, dir, "gh-pages"))
	assert.True(t, h.IsCloned(dir))

	require.NoError(t, h.Config(ctx, dir, "Bot", "bot@example.com"))
	assert.Equal(t, "Bot", strings.TrimSpace(gitOutput(t, dir, "config", "user.name")))
}

// initGitRepo creates a git repository with one
// initial commit. Git hooks are disabled to avoid
// interference from pre-commit hooks.
func initGitRepo(tb testing.TB, dir string) {
	tb.Helper()

	cmds := [][]string{
		{"init", "-b", "main"},
		{"config", "user.email", "test@test.com"},
		{"config", "user.name", "Test"},
		{"config", "core.hooksPath", "/dev/null"},
		{"config", "tag.gpgSign", "false"},
		{"config", "commit.gpgSign", "false"},
		{"commit", "--allow-empty", "-m", "initial"},
	}

	for _, args := range cmds {
		gitCmd(tb, dir, args...)
	}
}

// gitCmd runs a git command in the given directory.
func gitCmd(tb testing.TB, dir string, args ...string) {
	tb.Helper()

	gitOutput(tb, dir, args...)
}

func gitOutput(tb testing.TB, dir string, args ...string) string {
	tb.Helper()

	//nolint:gosec // test helper
	cmd := oe.CommandContext(context.Background(), "git", args...)
	cmd.Dir = dir

	out, err := cmd.CombinedOutput()
	if err != nil {
		tb.Fatalf("git %v failed: %s: %v", args, string(out), err)
	}

	return string(out)
}
