package github

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	gh "github.com/google/go-github/v68/github"
	"golang.org/x/sync/errgroup"

	"github.com/byte4ever/actionkit/action/refs"
)

// blobConcurrency bounds parallel blob uploads.
const blobConcurrency = 8

// Blob is an uploaded file content.
type Blob struct {
	Path string
	SHA  string
}

// CommitSHA returns the commit the helper builds on:
// the pull request head on pull request runs,
// otherwise the run SHA.
func (h *Helper) CommitSHA() string {
	return h.wc.CommitSHA()
}

// RefForUpdate returns the ref moved by Commit, in the
// "heads/name" form.
func (h *Helper) RefForUpdate() string {
	if h.refForUpdate != "" {
		return h.refForUpdate
	}

	if h.wc.IsPR() && h.wc.Payload.PullRequest != nil {
		return "heads/" + h.wc.Payload.PullRequest.Head.Ref
	}

	return refs.ForUpdate(h.wc.Ref)
}

// Commit creates a commit holding files (relative to
// rootDir) on top of CommitSHA and moves RefForUpdate
// to it. It returns false without calling the API when
// files is empty.
//
// A ref update rejected by required status checks is
// logged as a warning when WithSuppressBPError is set;
// Commit still reports true in that case.
func (h *Helper) Commit(
	ctx context.Context,
	rootDir string,
	message string,
	files []string,
) (bool, error) {
	const errCtx = "committing through api"

	if len(files) == 0 {
		h.logger.Info("There is no diff.")

		return false, nil
	}

	defer h.logger.EndProcess()

	h.logger.StartProcess("Creating blobs...")

	blobs, err := h.FilesToBlobs(ctx, rootDir, files)
	if err != nil {
		return false, fmt.Errorf("%s: %w", errCtx, err)
	}

	h.logger.StartProcess("Creating tree...")

	tree, err := h.CreateTree(ctx, blobs)
	if err != nil {
		return false, fmt.Errorf("%s: %w", errCtx, err)
	}

	h.logger.StartProcess("Creating commit... [%s]", tree.GetSHA())

	commit, err := h.CreateCommit(ctx, message, tree)
	if err != nil {
		return false, fmt.Errorf("%s: %w", errCtx, err)
	}

	ref := h.RefForUpdate()

	h.logger.StartProcess(
		"Updating ref... [%s] [%s]", ref, commit.GetSHA(),
	)

	if _, err := h.UpdateRef(ctx, commit.GetSHA(), ref, false); err != nil {
		return false, fmt.Errorf("%s: %w", errCtx, err)
	}

	return true, nil
}

// FilesToBlobs uploads files in parallel and returns
// their blobs in input order.
func (h *Helper) FilesToBlobs(
	ctx context.Context,
	rootDir string,
	files []string,
) ([]Blob, error) {
	blobs := make([]Blob, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(blobConcurrency)

	for i, file := range files {
		g.Go(func() error {
			b, err := h.CreateBlob(gctx, rootDir, file)
			if err != nil {
				return err
			}

			blobs[i] = b

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return blobs, nil
}

// CreateBlob uploads the content of rootDir/path as a
// base64 blob.
func (h *Helper) CreateBlob(
	ctx context.Context,
	rootDir string,
	path string,
) (Blob, error) {
	const errCtx = "creating blob"

	data, err := os.ReadFile(filepath.Join(rootDir, path))
	if err != nil {
		return Blob{}, fmt.Errorf("%s: %s: %w", errCtx, path, err)
	}

	owner, repo := h.repo()

	blob, _, err := h.client.Git.CreateBlob(
		ctx, owner, repo, &gh.Blob{
			Content:  gh.Ptr(base64.StdEncoding.EncodeToString(data)),
			Encoding: gh.Ptr("base64"),
		},
	)
	if err != nil {
		return Blob{}, fmt.Errorf("%s: %s: %w", errCtx, path, err)
	}

	return Blob{
		Path: filepath.ToSlash(path),
		SHA:  blob.GetSHA(),
	}, nil
}

// CreateTree creates a tree of blobs on top of the
// tree of CommitSHA.
func (h *Helper) CreateTree(
	ctx context.Context,
	blobs []Blob,
) (*gh.Tree, error) {
	const errCtx = "creating tree"

	owner, repo := h.repo()

	base, _, err := h.client.Git.GetCommit(
		ctx, owner, repo, h.CommitSHA(),
	)
	if err != nil {
		return nil, fmt.Errorf(
			"%s: getting base commit: %w", errCtx, err,
		)
	}

	entries := make([]*gh.TreeEntry, 0, len(blobs))

	for _, b := range blobs {
		entries = append(entries, &gh.TreeEntry{
			Path: gh.Ptr(b.Path),
			Type: gh.Ptr("blob"),
			Mode: gh.Ptr("100644"),
			SHA:  gh.Ptr(b.SHA),
		})
	}

	tree, _, err := h.client.Git.CreateTree(
		ctx, owner, repo, base.GetTree().GetSHA(), entries,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	return tree, nil
}

// CreateCommit creates a commit of tree whose parent is
// CommitSHA.
func (h *Helper) CreateCommit(
	ctx context.Context,
	message string,
	tree *gh.Tree,
) (*gh.Commit, error) {
	const errCtx = "creating commit"

	owner, repo := h.repo()

	commit, _, err := h.client.Git.CreateCommit(
		ctx, owner, repo, &gh.Commit{
			Message: gh.Ptr(message),
			Tree:    &gh.Tree{SHA: tree.SHA},
			Parents: []*gh.Commit{
				{SHA: gh.Ptr(h.CommitSHA())},
			},
		}, nil,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	return commit, nil
}

// UpdateRef moves ref ("heads/name") to sha. On success
// GITHUB_SHA is exported and the helper context follows
// the new commit. It returns false when a branch
// protection rejection was suppressed.
func (h *Helper) UpdateRef(
	ctx context.Context,
	sha string,
	ref string,
	force bool,
) (bool, error) {
	const errCtx = "updating ref"

	owner, repo := h.repo()

	_, _, err := h.client.Git.UpdateRef(
		ctx, owner, repo, &gh.Reference{
			Ref:    gh.Ptr(refs.ForUpdate(ref)),
			Object: &gh.GitObject{SHA: gh.Ptr(sha)},
		}, force,
	)
	if err != nil {
		if h.suppressBPError && isProtectedBranchError(err) {
			h.logger.Warn("Branch is protected.")

			return false, nil
		}

		return false, fmt.Errorf("%s: %s: %w", errCtx, ref, err)
	}

	h.wc.SHA = sha

	if err := h.exporter.Export("GITHUB_SHA", sha); err != nil {
		return true, fmt.Errorf("%s: %w", errCtx, err)
	}

	return true, nil
}

// GetRef returns ref ("heads/name"), or nil when it
// does not exist.
func (h *Helper) GetRef(
	ctx context.Context,
	ref string,
) (*gh.Reference, error) {
	const errCtx = "getting ref"

	owner, repo := h.repo()

	r, _, err := h.client.Git.GetRef(
		ctx, owner, repo, refs.ForUpdate(ref),
	)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("%s: %s: %w", errCtx, ref, err)
	}

	return r, nil
}

// CreateRef creates ref ("heads/name") pointing at sha.
func (h *Helper) CreateRef(
	ctx context.Context,
	sha string,
	ref string,
) error {
	const errCtx = "creating ref"

	owner, repo := h.repo()

	_, _, err := h.client.Git.CreateRef(
		ctx, owner, repo, &gh.Reference{
			Ref:    gh.Ptr("refs/" + refs.ForUpdate(ref)),
			Object: &gh.GitObject{SHA: gh.Ptr(sha)},
		},
	)
	if err != nil {
		return fmt.Errorf("%s: %s: %w", errCtx, ref, err)
	}

	return nil
}

// DeleteRef deletes ref ("heads/name"). A ref that is
// already gone is not an error.
func (h *Helper) DeleteRef(ctx context.Context, ref string) error {
	const errCtx = "deleting ref"

	owner, repo := h.repo()

	_, err := h.client.Git.DeleteRef(
		ctx, owner, repo, refs.ForUpdate(ref),
	)
	if err != nil {
		if isMissingRefError(err) {
			slog.Debug("ref already deleted", "ref", ref)

			return nil
		}

		return fmt.Errorf("%s: %s: %w", errCtx, ref, err)
	}

	return nil
}

// BranchInfo names a branch in the forms used by the
// API.
type BranchInfo struct {
	// Name is the bare branch name.
	Name string
	// Head is "heads/<name>".
	Head string
	// Ref is "refs/heads/<name>".
	Ref string
}

// GetBranchInfo accepts "name", "heads/name" or
// "refs/heads/name".
func GetBranchInfo(branch string) BranchInfo {
	name := strings.TrimPrefix(branch, "refs/")
	name = strings.TrimPrefix(name, "heads/")

	return BranchInfo{
		Name: name,
		Head: "heads/" + name,
		Ref:  "refs/heads/" + name,
	}
}
