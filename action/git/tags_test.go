package git_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/byte4ever/actionkit/action/git"
	"github.com/byte4ever/actionkit/action/refs"
)

func TestDeleteTag_chunks(t *testing.T) {
	t.Parallel()

	tags := make([]string, 0, 45)
	for i := range 45 {
		tags = append(tags, fmt.Sprintf("refs/tags/v0.0.%d", i))
	}

	fr := &fakeRunner{}
	h, _ := newHelper(t, fr)
	d := refs.NewDescriptor("refs/heads/main", "sha", "octo", "repo")

	require.NoError(t, h.DeleteTag(context.Background(), "/w", tags, d, 20))

	require.Len(t, fr.calls, 6)

	wantSizes := []int{20, 20, 5}

	for i, c := range fr.calls[:3] {
		assert.Equal(t, "push", c.Args[0])
		assert.Equal(t, "--delete", c.Args[2])
		assert.Len(t, c.Args[3:], wantSizes[i])
		assert.True(t, c.SuppressError)
	}

	for i, c := range fr.calls[3:] {
		assert.Equal(t, []string{"tag", "-d"}, c.Args[:2])
		assert.Len(t, c.Args[2:], wantSizes[i])
	}

	assert.Equal(t, "v0.0.0", fr.calls[0].Args[3])
}

func TestFetchTags(t *testing.T) {
	t.Parallel()

	fr := &fakeRunner{outputs: map[string][]string{
		"tag": {"v1", "v2", "v3"},
	}}
	h, _ := newHelper(t, fr)
	d := refs.NewDescriptor("refs/heads/main", "sha", "octo", "repo")

	require.NoError(t, h.FetchTags(context.Background(), "/w", d, 2))

	assert.Equal(t, []string{
		"git tag",
		"git tag -d v1 v2",
		"git tag -d v3",
		"git fetch --tags https://github.com/octo/repo.git",
	}, fr.displayed())
}

func TestCopyTag(t *testing.T) {
	t.Parallel()

	fr := &fakeRunner{}
	h, _ := newHelper(t, fr)
	h.UseOrigin("origin", true)

	d := refs.NewDescriptor("refs/heads/main", "sha", "octo", "repo")

	require.NoError(t, h.CopyTag(context.Background(), "/w", "v1", "v1.2.3", d))

	assert.Equal(t, []string{
		"git push origin --delete v1",
		"git tag -d v1",
		"git tag v1 v1.2.3",
		"git push origin refs/tags/v1",
	}, fr.displayed())
	assert.True(t, fr.calls[3].Quiet)
}

func TestTagNames(t *testing.T) {
	t.Parallel()

	assert.Equal(
		t,
		[]string{"v1", "v2", "v3"},
		git.TagNamesForTest([]string{"refs/tags/v1", "tags/v2", "v3"}),
	)
}

func TestLastTag_not_a_repository(t *testing.T) {
	t.Parallel()

	fr := &fakeRunner{}
	h, _ := newHelper(t, fr)

	_, err := h.LastTag(context.Background(), t.TempDir())
	require.ErrorIs(t, err, git.ErrNotRepository)

	_, err = h.NewPatchVersion(context.Background(), t.TempDir())
	require.ErrorIs(t, err, git.ErrNotRepository)
	assert.Empty(t, fr.calls)
}
