package git

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strconv"

	"github.com/byte4ever/actionkit/action/exec"
	"github.com/byte4ever/actionkit/action/refs"
)

// CommitOptions tunes Commit and MakeCommit.
type CommitOptions struct {
	// AllowEmpty commits even without changes.
	AllowEmpty bool
	// Count is the number of files listed by the
	// summary; zero means 10.
	Count int
	// Args are extra "git commit" arguments.
	Args []string
}

// PushOptions tunes Push.
type PushOptions struct {
	WithTag bool
	Force   bool
	Args    []string
}

var statusLineRe = regexp.MustCompile(`^[MDA]\s+`)

// Clone checks out d into dir. It does nothing when dir
// is already a repository. Branches are cloned
// directly, pull request refs are fetched onto a clone
// of the default branch, other refs are fetched into
// an empty repository and checked out at d.SHA.
func (h *Helper) Clone(
	ctx context.Context,
	dir string,
	d refs.Descriptor,
) error {
	const errCtx = "cloning repository"

	if h.IsCloned(dir) {
		return nil
	}

	if err := d.Validate(); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("%s: create dir: %w", errCtx, err)
	}

	var cmds []exec.Command

	switch d.Kind {
	case refs.KindBranch:
		c := h.remoteCmd(dir, d, func(r string) []string {
			args := []string{"clone", "--branch=" + refs.Branch(d.Ref, true)}
			args = append(args, h.depthArgs()...)

			return append(args, r, ".")
		})
		c.SuppressError = true

		cmds = append(cmds, c)

	case refs.KindPullRequestHead, refs.KindPullRequestMerge:
		cmds = append(cmds,
			h.remoteCmd(dir, d, func(r string) []string {
				args := append([]string{"clone"}, h.depthArgs()...)

				return append(args, r, ".")
			}),
			h.remoteCmd(dir, d, func(r string) []string {
				return []string{"fetch", r, "+" + d.Ref}
			}),
			gitCmd(dir, "checkout", "-qf", "FETCH_HEAD"),
		)

	default:
		cmds = append(cmds, gitCmd(dir, "init", "."))

		if h.origin == "" {
			add := h.remoteCmd(dir, d, func(r string) []string {
				return []string{"remote", "add", "origin", r}
			})
			add.Quiet = true
			add.SuppressError = true

			cmds = append(cmds, add)
		}

		cmds = append(cmds,
			h.remoteCmd(dir, d, func(r string) []string {
				return []string{"fetch", "--no-tags", r, d.Ref + ":" + d.Ref}
			}),
			gitCmd(dir, "checkout", "-qf", d.SHA),
		)
	}

	if _, err := h.runAll(ctx, cmds...); err != nil {
		return fmt.Errorf("%s: %s: %w", errCtx, d.Ref, err)
	}

	return nil
}

// GitInit recreates dir as an empty repository whose
// first commit will land on branch.
func (h *Helper) GitInit(
	ctx context.Context,
	dir string,
	branch string,
) error {
	const errCtx = "initializing repository"

	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("%s: remove dir: %w", errCtx, err)
	}

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("%s: create dir: %w", errCtx, err)
	}

	if _, err := h.runAll(ctx,
		gitCmd(dir, "init", "."),
		gitCmd(dir, "checkout", "--orphan", branch),
	); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

// AddOrigin registers the remote of d as "origin",
// initializing dir first when needed. An existing
// origin is left as is.
func (h *Helper) AddOrigin(
	ctx context.Context,
	dir string,
	d refs.Descriptor,
) error {
	const errCtx = "adding origin"

	var cmds []exec.Command

	if !h.IsCloned(dir) {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("%s: create dir: %w", errCtx, err)
		}

		cmds = append(cmds, gitCmd(dir, "init", "."))
	}

	add := h.remoteCmd(dir, d, func(r string) []string {
		return []string{"remote", "add", "origin", r}
	})
	add.Quiet = true
	add.SuppressError = true

	if _, err := h.runAll(ctx, append(cmds, add)...); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

// Config sets the committer identity of dir.
func (h *Helper) Config(
	ctx context.Context,
	dir string,
	name string,
	email string,
) error {
	const errCtx = "configuring user"

	if _, err := h.runAll(ctx,
		gitCmd(dir, "config", "user.name", name),
		gitCmd(dir, "config", "user.email", email),
	); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

// FetchOrigin fetches refspecs from the remote of d.
func (h *Helper) FetchOrigin(
	ctx context.Context,
	dir string,
	d refs.Descriptor,
	options []string,
	refspecs []string,
) error {
	const errCtx = "fetching origin"

	c := h.remoteCmd(dir, d, func(r string) []string {
		args := append([]string{"fetch"}, options...)
		args = append(args, r)

		return append(args, refspecs...)
	})

	if _, err := h.runner.Run(ctx, c); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

// FetchBranch fetches branch into its remote-tracking
// ref. A missing branch is not an error.
func (h *Helper) FetchBranch(
	ctx context.Context,
	dir string,
	branch string,
	d refs.Descriptor,
) error {
	const errCtx = "fetching branch"

	c := h.remoteCmd(dir, d, func(r string) []string {
		args := []string{"fetch", "--prune", "--no-recurse-submodules"}
		args = append(args, h.depthArgs()...)

		return append(args, r, fmt.Sprintf(
			"+refs/heads/%s:refs/remotes/origin/%s", branch, branch,
		))
	})
	c.SuppressError = true

	if _, err := h.runner.Run(ctx, c); err != nil {
		return fmt.Errorf("%s: %s: %w", errCtx, branch, err)
	}

	return nil
}

// CreateBranch creates branch from HEAD and checks it
// out.
func (h *Helper) CreateBranch(
	ctx context.Context,
	dir string,
	branch string,
) error {
	const errCtx = "creating branch"

	if _, err := h.runner.Run(
		ctx, gitCmd(dir, "checkout", "-b", branch),
	); err != nil {
		return fmt.Errorf("%s: %s: %w", errCtx, branch, err)
	}

	return nil
}

// SwitchBranch checks out branch, tracking
// origin/branch when it was fetched.
func (h *Helper) SwitchBranch(
	ctx context.Context,
	dir string,
	branch string,
) error {
	const errCtx = "switching branch"

	track := gitCmd(dir, "checkout", "-b", branch, "origin/"+branch)
	track.SuppressError = true

	plain := gitCmd(dir, "checkout", branch)
	plain.SuppressError = true

	if _, err := h.runAll(ctx, track, plain); err != nil {
		return fmt.Errorf("%s: %s: %w", errCtx, branch, err)
	}

	return nil
}

// CurrentBranch returns the checked out branch name,
// or "" when dir is not a repository.
func (h *Helper) CurrentBranch(
	ctx context.Context,
	dir string,
) (string, error) {
	const errCtx = "reading current branch"

	if !h.IsCloned(dir) {
		return "", nil
	}

	c := gitCmd(dir, "rev-parse", "--abbrev-ref", "HEAD")
	c.SuppressOutput = true

	res, err := h.runner.Run(ctx, c)
	if err != nil {
		return "", fmt.Errorf("%s: %w", errCtx, err)
	}

	if len(res.Stdout) == 0 {
		return "", nil
	}

	return res.Stdout[0], nil
}

// GetDiff returns the tracked files that are modified,
// added or deleted, restricted by the filter.
func (h *Helper) GetDiff(
	ctx context.Context,
	dir string,
) ([]string, error) {
	const errCtx = "reading diff"

	c := gitCmd(dir, "status", "--short", "-uno")
	c.SuppressOutput = true

	res, err := h.runner.Run(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	return parseStatus(res.Stdout, h.filter), nil
}

// CheckDiff reports whether GetDiff finds anything.
func (h *Helper) CheckDiff(
	ctx context.Context,
	dir string,
) (bool, error) {
	files, err := h.GetDiff(ctx, dir)
	if err != nil {
		return false, err
	}

	return len(files) > 0, nil
}

// Commit stages everything and commits it. It returns
// false without committing when no qualifying change
// exists, unless opts.AllowEmpty.
func (h *Helper) Commit(
	ctx context.Context,
	dir string,
	message string,
	opts CommitOptions,
) (bool, error) {
	const errCtx = "committing"

	if _, err := h.runner.Run(
		ctx, gitCmd(dir, "add", "--all"),
	); err != nil {
		return false, fmt.Errorf("%s: %w", errCtx, err)
	}

	if !opts.AllowEmpty {
		has, err := h.CheckDiff(ctx, dir)
		if err != nil {
			return false, fmt.Errorf("%s: %w", errCtx, err)
		}

		if !has {
			h.logger.Info("There is no diff.")

			return false, nil
		}
	}

	if err := h.MakeCommit(ctx, dir, message, opts); err != nil {
		return false, err
	}

	return true, nil
}

// MakeCommit commits the index and prints a short
// summary of the new commit.
func (h *Helper) MakeCommit(
	ctx context.Context,
	dir string,
	message string,
	opts CommitOptions,
) error {
	const errCtx = "making commit"

	count := opts.Count
	if count <= 0 {
		count = 10
	}

	args := []string{"commit"}
	if opts.AllowEmpty {
		args = append(args, "--allow-empty")
	}

	args = append(args, opts.Args...)
	args = append(args, "-qm", message)

	if _, err := h.runAll(ctx,
		gitCmd(dir, args...),
		gitCmd(dir, "show", "--stat-count="+strconv.Itoa(count), "HEAD"),
	); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

// GetRefDiff lists files differing between base and
// compare. dot is "..." (default) or "..";
// diffFilter is passed to --diff-filter when set.
func (h *Helper) GetRefDiff(
	ctx context.Context,
	dir string,
	base string,
	compare string,
	diffFilter string,
	dot string,
) ([]string, error) {
	const errCtx = "reading ref diff"

	if dot == "" {
		dot = "..."
	}

	args := []string{"diff", base + dot + compare, "--name-only"}
	if diffFilter != "" {
		args = append(args, "--diff-filter="+diffFilter)
	}

	c := gitCmd(dir, args...)
	c.SuppressOutput = true

	res, err := h.runner.Run(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	var files []string

	for _, f := range res.Stdout {
		if f == "" || (h.filter != nil && !h.filter(f)) {
			continue
		}

		files = append(files, f)
	}

	return files, nil
}

// Push pushes branch to the remote of d.
func (h *Helper) Push(
	ctx context.Context,
	dir string,
	branch string,
	d refs.Descriptor,
	opts PushOptions,
) error {
	const errCtx = "pushing"

	c := h.remoteCmd(dir, d, func(r string) []string {
		args := []string{"push"}
		if opts.WithTag {
			args = append(args, "--tags")
		}

		if opts.Force {
			args = append(args, "--force")
		}

		args = append(args, opts.Args...)

		return append(args, r, branch+":refs/heads/"+branch)
	})

	if _, err := h.runner.Run(ctx, c); err != nil {
		return fmt.Errorf("%s: %s: %w", errCtx, branch, err)
	}

	return nil
}

// ForcePush is Push with Force set.
func (h *Helper) ForcePush(
	ctx context.Context,
	dir string,
	branch string,
	d refs.Descriptor,
) error {
	return h.Push(ctx, dir, branch, d, PushOptions{Force: true})
}

// parseStatus extracts paths from "git status --short"
// lines that start with M, D or A.
func parseStatus(lines []string, filter func(string) bool) []string {
	var files []string

	for _, line := range lines {
		loc := statusLineRe.FindStringIndex(line)
		if loc == nil {
			continue
		}

		path := line[loc[1]:]
		if filter != nil && !filter(path) {
			continue
		}

		files = append(files, path)
	}

	return files
}
