package git

import (
	"context"
	"fmt"
	"strings"

	"github.com/byte4ever/actionkit/action/batch"
	"github.com/byte4ever/actionkit/action/refs"
	"github.com/byte4ever/actionkit/action/version"
)

// GetTags lists the local tags of dir.
func (h *Helper) GetTags(
	ctx context.Context,
	dir string,
) ([]string, error) {
	const errCtx = "listing tags"

	c := gitCmd(dir, "tag")
	c.SuppressOutput = true

	res, err := h.runner.Run(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	tags := make([]string, 0, len(res.Stdout))

	for _, t := range res.Stdout {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}

	return tags, nil
}

// FetchTags replaces the local tags with those of the
// remote. Local tags are deleted in chunks of size.
func (h *Helper) FetchTags(
	ctx context.Context,
	dir string,
	d refs.Descriptor,
	size int,
) error {
	const errCtx = "fetching tags"

	tags, err := h.GetTags(ctx, dir)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	for _, chunk := range batch.Chunk(tags, size) {
		c := gitCmd(dir, append([]string{"tag", "-d"}, chunk...)...)
		c.Quiet = true

		if _, err := h.runner.Run(ctx, c); err != nil {
			return fmt.Errorf("%s: %w", errCtx, err)
		}
	}

	fetch := h.remoteCmd(dir, d, func(r string) []string {
		return []string{"fetch", "--tags", r}
	})

	if _, err := h.runner.Run(ctx, fetch); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

// DeleteTag deletes tags on the remote of d, then
// locally. Tags may be given as names or refs. Missing
// tags are ignored.
func (h *Helper) DeleteTag(
	ctx context.Context,
	dir string,
	tags []string,
	d refs.Descriptor,
	size int,
) error {
	const errCtx = "deleting tags"

	names := tagNames(tags)

	for _, chunk := range batch.Chunk(names, size) {
		c := h.remoteCmd(dir, d, func(r string) []string {
			return append([]string{"push", r, "--delete"}, chunk...)
		})
		c.SuppressError = true

		if _, err := h.runner.Run(ctx, c); err != nil {
			return fmt.Errorf("%s: %w", errCtx, err)
		}
	}

	return h.DeleteLocalTag(ctx, dir, names, size)
}

// DeleteLocalTag deletes tags from dir in chunks of
// size. Missing tags are ignored.
func (h *Helper) DeleteLocalTag(
	ctx context.Context,
	dir string,
	tags []string,
	size int,
) error {
	const errCtx = "deleting local tags"

	for _, chunk := range batch.Chunk(tagNames(tags), size) {
		c := gitCmd(dir, append([]string{"tag", "-d"}, chunk...)...)
		c.SuppressError = true

		if _, err := h.runner.Run(ctx, c); err != nil {
			return fmt.Errorf("%s: %w", errCtx, err)
		}
	}

	return nil
}

// AddLocalTag creates tag at from, or at HEAD when from
// is empty.
func (h *Helper) AddLocalTag(
	ctx context.Context,
	dir string,
	tag string,
	from string,
) error {
	const errCtx = "adding local tag"

	args := []string{"tag", tag}
	if from != "" {
		args = append(args, from)
	}

	if _, err := h.runner.Run(ctx, gitCmd(dir, args...)); err != nil {
		return fmt.Errorf("%s: %s: %w", errCtx, tag, err)
	}

	return nil
}

// CopyTag points newTag at fromTag, locally and on the
// remote, replacing any previous newTag.
func (h *Helper) CopyTag(
	ctx context.Context,
	dir string,
	newTag string,
	fromTag string,
	d refs.Descriptor,
) error {
	const errCtx = "copying tag"

	if err := h.DeleteTag(ctx, dir, []string{newTag}, d, 0); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	if err := h.AddLocalTag(ctx, dir, newTag, fromTag); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	push := h.remoteCmd(dir, d, func(r string) []string {
		return []string{"push", r, "refs/tags/" + newTag}
	})

	if _, err := h.runner.Run(ctx, push); err != nil {
		return fmt.Errorf("%s: %s: %w", errCtx, newTag, err)
	}

	return nil
}

// LastTag returns the highest version tag of dir as
// "vX.Y.Z", or version.Default when there is none.
func (h *Helper) LastTag(
	ctx context.Context,
	dir string,
) (string, error) {
	const errCtx = "reading last tag"

	if !h.IsCloned(dir) {
		return "", fmt.Errorf("%s: %s: %w", errCtx, dir, ErrNotRepository)
	}

	tags, err := h.GetTags(ctx, dir)
	if err != nil {
		return "", fmt.Errorf("%s: %w", errCtx, err)
	}

	return version.Latest(tags), nil
}

// NewPatchVersion returns the last tag with its patch
// component bumped.
func (h *Helper) NewPatchVersion(
	ctx context.Context,
	dir string,
) (string, error) {
	return h.nextVersion(ctx, dir, version.NextPatch)
}

// NewMinorVersion returns the last tag with its minor
// component bumped.
func (h *Helper) NewMinorVersion(
	ctx context.Context,
	dir string,
) (string, error) {
	return h.nextVersion(ctx, dir, version.NextMinor)
}

// NewMajorVersion returns the last tag with its major
// component bumped.
func (h *Helper) NewMajorVersion(
	ctx context.Context,
	dir string,
) (string, error) {
	return h.nextVersion(ctx, dir, version.NextMajor)
}

func (h *Helper) nextVersion(
	ctx context.Context,
	dir string,
	bump func(string) (string, error),
) (string, error) {
	last, err := h.LastTag(ctx, dir)
	if err != nil {
		return "", err
	}

	return bump(last)
}

func tagNames(tags []string) []string {
	names := make([]string, 0, len(tags))

	for _, t := range tags {
		t = strings.TrimPrefix(t, "refs/")
		names = append(names, strings.TrimPrefix(t, "tags/"))
	}

	return names
}
