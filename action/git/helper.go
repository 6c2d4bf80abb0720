package git

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/byte4ever/actionkit/action/exec"
	"github.com/byte4ever/actionkit/action/logger"
	"github.com/byte4ever/actionkit/action/refs"
)

// ErrNotRepository is returned by operations that need
// an existing repository.
var ErrNotRepository = errors.New("not a git repository")

// Runner executes a command. *exec.Runner satisfies it.
type Runner interface {
	Run(ctx context.Context, c exec.Command) (*exec.Result, error)
}

// Helper runs git porcelain sequences in a working
// directory.
type Helper struct {
	runner      Runner
	logger      *logger.Logger
	depth       int
	filter      func(path string) bool
	token       string
	host        string
	origin      string
	quietOrigin bool
}

// Option configures a Helper.
type Option func(*Helper)

// WithDepth limits clones and branch fetches to depth
// commits. Zero means full history.
func WithDepth(depth int) Option {
	return func(h *Helper) {
		h.depth = depth
	}
}

// WithFilter keeps only the changed paths accepted by
// fn in GetDiff and GetRefDiff.
func WithFilter(fn func(path string) bool) Option {
	return func(h *Helper) {
		h.filter = fn
	}
}

// WithToken authenticates remote operations.
func WithToken(token string) Option {
	return func(h *Helper) {
		h.token = token
	}
}

// WithHost sets the git host, "github.com" by default.
func WithHost(host string) Option {
	return func(h *Helper) {
		h.host = host
	}
}

// New returns a Helper running commands with runner
// and narrating through lg.
func New(runner Runner, lg *logger.Logger, opts ...Option) *Helper {
	h := &Helper{
		runner: runner,
		logger: lg,
		host:   "github.com",
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// UseOrigin makes remote operations target the
// configured remote name instead of the authenticated
// URL. With quiet, failures against it are reported
// without their raw output. An empty name restores the
// URL.
func (h *Helper) UseOrigin(name string, quiet bool) {
	h.origin = name
	h.quietOrigin = quiet
}

// IsCloned reports whether dir already holds a
// repository.
func (h *Helper) IsCloned(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ".git"))

	return err == nil
}

// remote returns the remote to use for d and the form
// shown in logs.
func (h *Helper) remote(d refs.Descriptor) (string, string) {
	if h.origin != "" {
		return h.origin, h.origin
	}

	path := fmt.Sprintf("%s/%s/%s.git", h.host, d.Owner, d.Repo)

	if h.token == "" {
		return "https://" + path, "https://" + path
	}

	return "https://x-access-token:" + h.token + "@" + path,
		"https://x-access-token:***@" + path
}

func (h *Helper) isQuiet() bool {
	return h.origin == "" || h.quietOrigin
}

func gitCmd(dir string, args ...string) exec.Command {
	return exec.Command{Dir: dir, Name: "git", Args: args}
}

// remoteCmd builds a git command whose arguments embed
// the remote. The displayed form never carries the
// token.
func (h *Helper) remoteCmd(
	dir string,
	d refs.Descriptor,
	build func(remote string) []string,
) exec.Command {
	url, shown := h.remote(d)

	c := gitCmd(dir, build(url)...)
	c.Display = gitCmd(dir, build(shown)...).String()
	c.Quiet = h.isQuiet()

	return c
}

func (h *Helper) depthArgs() []string {
	if h.depth <= 0 {
		return nil
	}

	return []string{fmt.Sprintf("--depth=%d", h.depth)}
}

func (h *Helper) runAll(
	ctx context.Context,
	cmds ...exec.Command,
) ([]*exec.Result, error) {
	results := make([]*exec.Result, 0, len(cmds))

	for _, c := range cmds {
		res, err := h.runner.Run(ctx, c)
		if err != nil {
			return results, err
		}

		results = append(results, res)
	}

	return results, nil
}

// RunCommands runs cmds in dir one after the other and
// stops at the first failure. Commands without a Dir
// run in dir.
func (h *Helper) RunCommands(
	ctx context.Context,
	dir string,
	cmds []exec.Command,
) ([]*exec.Result, error) {
	const errCtx = "running commands"

	prepared := make([]exec.Command, len(cmds))

	for i, c := range cmds {
		if c.Dir == "" {
			c.Dir = dir
		}

		prepared[i] = c
	}

	results, err := h.runAll(ctx, prepared...)
	if err != nil {
		return results, fmt.Errorf("%s: %w", errCtx, err)
	}

	return results, nil
}
