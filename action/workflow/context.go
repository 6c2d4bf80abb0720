package workflow

import (
	"fmt"
	"os"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/byte4ever/actionkit/action/refs"
)

// Context describes the workflow run triggering the
// step.
type Context struct {
	EventName string
	Ref       string
	SHA       string
	Actor     string
	Workflow  string
	Action    string
	RunID     string
	Owner     string
	Repo      string
	Payload   Payload
}

// Payload is the subset of the webhook event payload
// used by the helpers.
type Payload struct {
	Action      string       `json:"action"`
	Number      int          `json:"number"`
	PullRequest *PullRequest `json:"pull_request"`
	Sender      *Sender      `json:"sender"`
}

// PullRequest is the pull_request object of a payload.
type PullRequest struct {
	ID      int64  `json:"id"`
	Number  int    `json:"number"`
	Title   string `json:"title"`
	HTMLURL string `json:"html_url"`
	Head    Branch `json:"head"`
	Base    Branch `json:"base"`
}

// Branch is a head or base reference of a pull
// request.
type Branch struct {
	Ref string `json:"ref"`
	SHA string `json:"sha"`
}

// Sender is the account that triggered the event.
type Sender struct {
	Login string `json:"login"`
	Type  string `json:"type"`
}

// FromEnv loads the context from the process
// environment.
func FromEnv() (Context, error) {
	return FromLookup(os.Getenv)
}

// FromLookup loads the context using getenv to resolve
// variables. The event payload is read from the file
// named by GITHUB_EVENT_PATH when set.
func FromLookup(getenv func(string) string) (Context, error) {
	const errCtx = "loading workflow context"

	wc := Context{
		EventName: getenv("GITHUB_EVENT_NAME"),
		Ref:       getenv("GITHUB_REF"),
		SHA:       getenv("GITHUB_SHA"),
		Actor:     getenv("GITHUB_ACTOR"),
		Workflow:  getenv("GITHUB_WORKFLOW"),
		Action:    getenv("GITHUB_ACTION"),
		RunID:     getenv("GITHUB_RUN_ID"),
	}

	if full := getenv("GITHUB_REPOSITORY"); full != "" {
		owner, repo, ok := strings.Cut(full, "/")
		if !ok {
			return Context{}, fmt.Errorf(
				"%s: GITHUB_REPOSITORY %q is not owner/repo",
				errCtx, full,
			)
		}

		wc.Owner, wc.Repo = owner, repo
	}

	if path := getenv("GITHUB_EVENT_PATH"); path != "" {
		p, err := ReadPayload(path)
		if err != nil {
			return Context{}, fmt.Errorf("%s: %w", errCtx, err)
		}

		wc.Payload = p
	}

	return wc, nil
}

// ReadPayload decodes the event payload file at path.
func ReadPayload(path string) (Payload, error) {
	const errCtx = "reading event payload"

	data, err := os.ReadFile(path) //nolint:gosec // path set by the runner
	if err != nil {
		return Payload{}, fmt.Errorf("%s: %w", errCtx, err)
	}

	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return Payload{}, fmt.Errorf(
			"%s: parse json: %w", errCtx, err,
		)
	}

	return p, nil
}

// Descriptor returns the ref descriptor of the run.
func (c Context) Descriptor() refs.Descriptor {
	return refs.NewDescriptor(c.Ref, c.SHA, c.Owner, c.Repo)
}

// IsPR reports whether the run was triggered for a
// pull request ref.
func (c Context) IsPR() bool {
	return refs.IsPrRef(c.Ref)
}

// PRNumber returns the pull request number from the
// payload, falling back to the ref.
func (c Context) PRNumber() int {
	switch {
	case c.Payload.Number != 0:
		return c.Payload.Number
	case c.Payload.PullRequest != nil:
		return c.Payload.PullRequest.Number
	}

	n, _ := refs.PrNumber(c.Ref)

	return n
}

// CommitSHA returns the head commit of the pull request
// on pull request runs, otherwise SHA.
func (c Context) CommitSHA() string {
	if c.IsPR() && c.Payload.PullRequest != nil {
		return c.Payload.PullRequest.Head.SHA
	}

	return c.SHA
}

// SenderLogin returns the login of the user who
// triggered the event, or "" for bots and apps.
func (c Context) SenderLogin() string {
	s := c.Payload.Sender
	if s == nil || s.Type != "User" {
		return ""
	}

	return s.Login
}

// Input returns the action input name as exposed by
// the runner (INPUT_<NAME>), trimmed.
func Input(name string) string {
	return InputFrom(os.LookupEnv, name)
}

// InputFrom is Input reading variables through lookup.
func InputFrom(
	lookup func(string) (string, bool),
	name string,
) string {
	key := "INPUT_" + strings.ToUpper(
		strings.ReplaceAll(name, " ", "_"),
	)

	v, _ := lookup(key)

	return strings.TrimSpace(v)
}
