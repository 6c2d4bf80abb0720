package github

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"

	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"
	gh "github.com/google/go-github/v68/github"
	"github.com/gregjones/httpcache"

	"github.com/byte4ever/actionkit/action/git"
	"github.com/byte4ever/actionkit/action/logger"
	"github.com/byte4ever/actionkit/action/refs"
	"github.com/byte4ever/actionkit/action/workflow"
)

// Config holds the settings needed to talk to the
// GitHub API.
type Config struct {
	// AccessToken is the GITHUB_TOKEN or a personal
	// access token.
	AccessToken string
	// EnterpriseHost is an optional GitHub Enterprise
	// hostname (e.g. "git.corp.example.com"). Leave
	// empty for github.com.
	EnterpriseHost string
}

// Helper runs commit and pull request workflows for
// the repository of a workflow context.
type Helper struct {
	client          *gh.Client
	wc              workflow.Context
	logger          *logger.Logger
	refForUpdate    string
	sender          string
	suppressBPError bool
	exporter        workflow.Exporter
	prs             *prCache
}

var _ git.PullRequester = (*Helper)(nil)

// Option configures a Helper.
type Option func(*Helper)

// WithLogger narrates progress through lg.
func WithLogger(lg *logger.Logger) Option {
	return func(h *Helper) {
		h.logger = lg
	}
}

// WithRefForUpdate sets the ref moved by Commit, e.g.
// "heads/feature". It defaults to the context ref, or
// the pull request head branch.
func WithRefForUpdate(ref string) Option {
	return func(h *Helper) {
		h.refForUpdate = refs.ForUpdate(ref)
	}
}

// WithSender sets the login returned by User. It
// defaults to the event sender, then the actor.
func WithSender(login string) Option {
	return func(h *Helper) {
		h.sender = login
	}
}

// WithSuppressBPError downgrades ref updates rejected
// by branch protection to a warning.
func WithSuppressBPError(suppress bool) Option {
	return func(h *Helper) {
		h.suppressBPError = suppress
	}
}

// WithExporter sets where the new commit SHA is
// exported. It defaults to workflow.NewEnvExporter().
func WithExporter(ex workflow.Exporter) Option {
	return func(h *Helper) {
		h.exporter = ex
	}
}

// New validates cfg and wc and returns a Helper using
// the following transport stack:
//  1. httpcache (ETag-based conditional request caching)
//  2. go-github-ratelimit (sleeps on secondary limits)
//  3. go-github with token auth
func New(
	cfg Config,
	wc workflow.Context,
	opts ...Option,
) (*Helper, error) {
	const errCtx = "creating github helper"

	if cfg.AccessToken == "" {
		return nil, fmt.Errorf(
			"%s: access token must be set", errCtx,
		)
	}

	cacheTransport := httpcache.NewMemoryCacheTransport()
	rateLimitClient := github_ratelimit.NewClient(cacheTransport)
	client := gh.NewClient(rateLimitClient).
		WithAuthToken(cfg.AccessToken)

	if cfg.EnterpriseHost != "" {
		baseURL := "https://" +
			cfg.EnterpriseHost + "/api/v3/"
		uploadURL := "https://" +
			cfg.EnterpriseHost + "/api/uploads/"

		var err error

		client, err = client.WithEnterpriseURLs(
			baseURL, uploadURL,
		)
		if err != nil {
			return nil, fmt.Errorf(
				"%s: enterprise urls: %w",
				errCtx, err,
			)
		}
	}

	return newHelper(client, wc, opts)
}

// NewWithHTTPClient returns a Helper talking to
// baseURL through httpClient. It is meant for tests
// against an httptest server.
func NewWithHTTPClient(
	httpClient *http.Client,
	baseURL string,
	wc workflow.Context,
	opts ...Option,
) (*Helper, error) {
	const errCtx = "creating github helper"

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf(
			"%s: parsing base URL: %w", errCtx, err,
		)
	}

	client := gh.NewClient(httpClient)
	client.BaseURL = u

	return newHelper(client, wc, opts)
}

func newHelper(
	client *gh.Client,
	wc workflow.Context,
	opts []Option,
) (*Helper, error) {
	const errCtx = "creating github helper"

	if wc.Owner == "" {
		return nil, fmt.Errorf(
			"%s: repo owner must be set", errCtx,
		)
	}

	if wc.Repo == "" {
		return nil, fmt.Errorf(
			"%s: repo must be set", errCtx,
		)
	}

	h := &Helper{
		client: client,
		wc:     wc,
		logger: logger.New(io.Discard),
		prs:    newPRCache(),
	}

	for _, opt := range opts {
		opt(h)
	}

	if h.exporter == nil {
		h.exporter = workflow.NewEnvExporter()
	}

	return h, nil
}

// Context returns the workflow context of the helper.
// Its SHA follows successful Commit calls.
func (h *Helper) Context() workflow.Context {
	return h.wc
}

var (
	protectedBranchRe = regexp.MustCompile(
		`(?i)required status checks?.* (is|are) expected`,
	)
	missingRefRe = regexp.MustCompile(
		`(?i)reference does not exist`,
	)
)

// isProtectedBranchError reports whether err is a ref
// update rejected by required status checks.
func isProtectedBranchError(err error) bool {
	var er *gh.ErrorResponse
	if errors.As(err, &er) && protectedBranchRe.MatchString(er.Message) {
		return true
	}

	return protectedBranchRe.MatchString(err.Error())
}

// isMissingRefError reports whether err means the ref
// did not exist.
func isMissingRefError(err error) bool {
	var er *gh.ErrorResponse
	if errors.As(err, &er) {
		if er.Response != nil &&
			er.Response.StatusCode == http.StatusNotFound {
			return true
		}

		if missingRefRe.MatchString(er.Message) {
			return true
		}
	}

	return missingRefRe.MatchString(err.Error())
}

func isNotFound(err error) bool {
	var er *gh.ErrorResponse

	return errors.As(err, &er) &&
		er.Response != nil &&
		er.Response.StatusCode == http.StatusNotFound
}

func (h *Helper) repo() (string, string) {
	return h.wc.Owner, h.wc.Repo
}
