package github

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	gh "github.com/google/go-github/v68/github"

	"github.com/byte4ever/actionkit/action/git"
)

// ErrNoPullRequest is returned by GetPR outside of a
// pull request run.
var ErrNoPullRequest = errors.New("not a pull request run")

// PRDetail holds the fields of a pull request to
// create or update.
type PRDetail struct {
	Title string
	Body  string
	// Base is the target branch. It defaults to the
	// branch of RefForUpdate.
	Base string
}

// PRResult is the outcome of PullsCreateOrUpdate and
// PullsCreateOrComment.
type PRResult struct {
	PullRequest *gh.PullRequest
	// Created is true when a new pull request was
	// opened.
	Created bool
	// Commented is true when a comment was added to an
	// existing pull request.
	Commented bool
}

// GetPR returns the pull request of the run. Results
// are cached by number.
func (h *Helper) GetPR(ctx context.Context) (*gh.PullRequest, error) {
	const errCtx = "getting pull request"

	number := h.wc.PRNumber()
	if number == 0 {
		return nil, fmt.Errorf("%s: %w", errCtx, ErrNoPullRequest)
	}

	if pr, ok := h.prs.get(number); ok {
		return pr, nil
	}

	owner, repo := h.repo()

	pr, _, err := h.client.PullRequests.Get(ctx, owner, repo, number)
	if err != nil {
		return nil, fmt.Errorf("%s: #%d: %w", errCtx, number, err)
	}

	h.prs.put(number, pr)

	return pr, nil
}

// PullsList returns every pull request matching opts,
// following pagination.
func (h *Helper) PullsList(
	ctx context.Context,
	opts *gh.PullRequestListOptions,
) ([]*gh.PullRequest, error) {
	const errCtx = "listing pull requests"

	if opts == nil {
		opts = &gh.PullRequestListOptions{}
	}

	owner, repo := h.repo()

	var all []*gh.PullRequest

	for {
		page, resp, err := h.client.PullRequests.List(
			ctx, owner, repo, opts,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", errCtx, err)
		}

		all = append(all, page...)

		if resp == nil || resp.NextPage == 0 {
			return all, nil
		}

		opts.Page = resp.NextPage
	}
}

// FindPullRequest returns the open pull request whose
// head is branch, or nil.
func (h *Helper) FindPullRequest(
	ctx context.Context,
	branch string,
) (*gh.PullRequest, error) {
	owner, _ := h.repo()

	prs, err := h.PullsList(ctx, &gh.PullRequestListOptions{
		Head:  owner + ":" + GetBranchInfo(branch).Name,
		State: "open",
	})
	if err != nil {
		return nil, err
	}

	if len(prs) == 0 {
		return nil, nil
	}

	return prs[0], nil
}

// PullsCreate opens a pull request from branch.
func (h *Helper) PullsCreate(
	ctx context.Context,
	branch string,
	detail PRDetail,
) (*gh.PullRequest, error) {
	const errCtx = "creating pull request"

	owner, repo := h.repo()

	pr, _, err := h.client.PullRequests.Create(
		ctx, owner, repo, &gh.NewPullRequest{
			Title: gh.Ptr(detail.Title),
			Body:  gh.Ptr(detail.Body),
			Head:  gh.Ptr(GetBranchInfo(branch).Name),
			Base:  gh.Ptr(h.base(detail)),
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	return pr, nil
}

// PullsUpdate edits pull request number and reopens it.
func (h *Helper) PullsUpdate(
	ctx context.Context,
	number int,
	detail PRDetail,
) (*gh.PullRequest, error) {
	const errCtx = "updating pull request"

	owner, repo := h.repo()

	edit := &gh.PullRequest{
		Title: gh.Ptr(detail.Title),
		Body:  gh.Ptr(detail.Body),
		State: gh.Ptr("open"),
	}

	if detail.Base != "" {
		edit.Base = &gh.PullRequestBranch{
			Ref: gh.Ptr(GetBranchInfo(detail.Base).Name),
		}
	}

	pr, _, err := h.client.PullRequests.Edit(
		ctx, owner, repo, number, edit,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: #%d: %w", errCtx, number, err)
	}

	return pr, nil
}

// PullsCreateOrUpdate updates the open pull request of
// branch, or opens one.
func (h *Helper) PullsCreateOrUpdate(
	ctx context.Context,
	branch string,
	detail PRDetail,
) (PRResult, error) {
	existing, err := h.FindPullRequest(ctx, branch)
	if err != nil {
		return PRResult{}, err
	}

	if existing != nil {
		pr, err := h.PullsUpdate(ctx, existing.GetNumber(), detail)
		if err != nil {
			return PRResult{}, err
		}

		return PRResult{PullRequest: pr}, nil
	}

	pr, err := h.PullsCreate(ctx, branch, detail)
	if err != nil {
		return PRResult{}, err
	}

	return PRResult{PullRequest: pr, Created: true}, nil
}

// PullsCreateOrComment comments detail.Body on the open
// pull request of branch, or opens one.
func (h *Helper) PullsCreateOrComment(
	ctx context.Context,
	branch string,
	detail PRDetail,
) (PRResult, error) {
	existing, err := h.FindPullRequest(ctx, branch)
	if err != nil {
		return PRResult{}, err
	}

	if existing != nil {
		if err := h.comment(ctx, existing.GetNumber(), detail.Body); err != nil {
			return PRResult{}, err
		}

		return PRResult{PullRequest: existing, Commented: true}, nil
	}

	pr, err := h.PullsCreate(ctx, branch, detail)
	if err != nil {
		return PRResult{}, err
	}

	return PRResult{PullRequest: pr, Created: true}, nil
}

// CreateCommentToPR comments on the open pull request
// of branch. It returns false when there is none.
func (h *Helper) CreateCommentToPR(
	ctx context.Context,
	branch string,
	body string,
) (bool, error) {
	pr, err := h.FindPullRequest(ctx, branch)
	if err != nil {
		return false, err
	}

	if pr == nil {
		return false, nil
	}

	if err := h.comment(ctx, pr.GetNumber(), body); err != nil {
		return false, err
	}

	return true, nil
}

// ClosePR closes the open pull request of branch, with
// an optional comment, then deletes the branch.
func (h *Helper) ClosePR(
	ctx context.Context,
	branch string,
	message string,
) error {
	const errCtx = "closing pull request"

	info := GetBranchInfo(branch)

	h.logger.StartProcess("Closing PullRequest... [%s]", info.Name)

	pr, err := h.FindPullRequest(ctx, info.Name)
	if err != nil {
		h.logger.EndProcess()

		return fmt.Errorf("%s: %w", errCtx, err)
	}

	if pr == nil {
		h.logger.Info("There is no PullRequest named [%s]", info.Name)
	} else {
		if message != "" {
			if err := h.comment(ctx, pr.GetNumber(), message); err != nil {
				h.logger.EndProcess()

				return fmt.Errorf("%s: %w", errCtx, err)
			}
		}

		owner, repo := h.repo()

		_, _, err := h.client.PullRequests.Edit(
			ctx, owner, repo, pr.GetNumber(),
			&gh.PullRequest{State: gh.Ptr("closed")},
		)
		if err != nil {
			h.logger.EndProcess()

			return fmt.Errorf("%s: #%d: %w", errCtx, pr.GetNumber(), err)
		}
	}

	h.logger.StartProcess("Deleting reference... [%s]", info.Ref)
	defer h.logger.EndProcess()

	if err := h.DeleteRef(ctx, info.Head); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

// OpenPR opens a pull request from "from" into "to", or
// updates the one already open.
func (h *Helper) OpenPR(
	ctx context.Context,
	from string,
	to string,
	title string,
	body string,
) (git.PullRequest, error) {
	const errCtx = "opening github pull request"

	if body == "" {
		body = title
	}

	res, err := h.PullsCreateOrUpdate(ctx, from, PRDetail{
		Title: title,
		Body:  body,
		Base:  to,
	})
	if err != nil {
		return git.PullRequest{}, fmt.Errorf("%s: %w", errCtx, err)
	}

	if res.Created {
		slog.Info(
			"created pull request",
			"url", res.PullRequest.GetHTMLURL(),
		)
	} else {
		slog.Info(
			"reusing existing pull request",
			"number", res.PullRequest.GetNumber(),
		)
	}

	return git.PullRequest{
		Number:  res.PullRequest.GetNumber(),
		URL:     res.PullRequest.GetHTMLURL(),
		Created: res.Created,
	}, nil
}

func (h *Helper) comment(
	ctx context.Context,
	number int,
	body string,
) error {
	const errCtx = "commenting pull request"

	owner, repo := h.repo()

	_, _, err := h.client.Issues.CreateComment(
		ctx, owner, repo, number,
		&gh.IssueComment{Body: gh.Ptr(body)},
	)
	if err != nil {
		return fmt.Errorf("%s: #%d: %w", errCtx, number, err)
	}

	return nil
}

func (h *Helper) base(detail PRDetail) string {
	if detail.Base != "" {
		return GetBranchInfo(detail.Base).Name
	}

	return strings.TrimPrefix(h.RefForUpdate(), "heads/")
}
