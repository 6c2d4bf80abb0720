package git

import "context"

// PullRequest is the outcome of opening a pull request.
type PullRequest struct {
	Number  int
	URL     string
	Created bool
}

// PullRequestOpener opens a pull request from branch
// "from" into "to", or updates the one already open.
type PullRequestOpener interface {
	OpenPR(
		ctx context.Context,
		from string,
		to string,
		title string,
		body string,
	) (PullRequest, error)
}

// PullRequestCloser closes the pull request of branch
// and removes the branch.
type PullRequestCloser interface {
	ClosePR(ctx context.Context, branch string, message string) error
}

// PullRequester opens and closes pull requests on a git
// hosting platform.
type PullRequester interface {
	PullRequestOpener
	PullRequestCloser
}

// OpenerFunc adapts a plain function to
// PullRequestOpener. When body is empty the title is
// used as body.
type OpenerFunc func(
	ctx context.Context,
	from string,
	to string,
	title string,
	body string,
) (PullRequest, error)

// OpenPR delegates to the wrapped function. If body is
// empty, title is substituted.
func (f OpenerFunc) OpenPR(
	ctx context.Context,
	from string,
	to string,
	title string,
	body string,
) (PullRequest, error) {
	if body == "" {
		body = title
	}

	return f(ctx, from, to, title, body)
}
