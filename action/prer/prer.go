package prer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/byte4ever/actionkit/action/exec"
	"github.com/byte4ever/actionkit/action/git"
	"github.com/byte4ever/actionkit/action/refs"
	"github.com/byte4ever/actionkit/action/workflow"
	"github.com/byte4ever/actionkit/templating"
)

// ErrNoBaseBranch is returned when the pull request
// target cannot be derived from the run.
var ErrNoBaseBranch = errors.New("cannot determine base branch")

// Repo is the local git side of the pipeline.
// *git.Helper implements it.
type Repo interface {
	Clone(ctx context.Context, dir string, d refs.Descriptor) error
	Config(ctx context.Context, dir, name, email string) error
	CreateBranch(ctx context.Context, dir, branch string) error
	RunCommands(
		ctx context.Context,
		dir string,
		cmds []exec.Command,
	) ([]*exec.Result, error)
	Commit(
		ctx context.Context,
		dir string,
		message string,
		opts git.CommitOptions,
	) (bool, error)
	ForcePush(
		ctx context.Context,
		dir string,
		branch string,
		d refs.Descriptor,
	) error
}

var _ Repo = (*git.Helper)(nil)

// Config holds all settings for a pipeline run. Text
// fields accept ${NAME} placeholders (see
// templating.ContextVars); BRANCH_NAME and BASE_BRANCH
// are also available to the commit message and the
// pull request texts.
type Config struct {
	// WorkDir receives the clone.
	WorkDir string

	// Context describes the run whose repository and
	// ref are cloned.
	Context workflow.Context

	// BranchName is the working branch.
	BranchName string

	// BaseBranch is the pull request target. It
	// defaults to the pull request base on pull
	// request runs, else the branch of the run ref.
	BaseBranch string

	// Commands are shell command lines run in WorkDir
	// with "sh -c".
	Commands []string

	// CommitMessage is the commit subject.
	CommitMessage string

	// CommitName and CommitEmail set the committer
	// when CommitName is not empty.
	CommitName  string
	CommitEmail string

	// PRTitle and PRBody describe the pull request.
	// An empty body takes the title.
	PRTitle string
	PRBody  string

	// CloseMessage is commented on the pull request
	// closed when there is no diff.
	CloseMessage string

	// DryRun stops after the commit.
	DryRun bool

	// Vars are extra template variables. They
	// override the run variables.
	Vars templating.Vars

	// Now is the clock used for DATE. Defaults to
	// time.Now.
	Now func() time.Time

	// Repo runs the local git operations.
	Repo Repo

	// Provider opens and closes pull requests.
	Provider git.PullRequester
}

// Result reports what a run did.
type Result struct {
	Branch      string
	Base        string
	Committed   bool
	Closed      bool
	Pushed      bool
	PullRequest git.PullRequest
}

// Run executes the pipeline described by cfg.
func Run(ctx context.Context, cfg Config) (Result, error) {
	const errCtx = "running create pull request"

	if err := cfg.validate(); err != nil {
		return Result{}, fmt.Errorf("%s: %w", errCtx, err)
	}

	vars := cfg.vars()
	branch := templating.Expand(cfg.BranchName, vars)

	base := cfg.baseBranch(vars)
	if base == "" {
		return Result{}, fmt.Errorf("%s: %w", errCtx, ErrNoBaseBranch)
	}

	vars = templating.Merge(vars, templating.Vars{
		"BRANCH_NAME": branch,
		"BASE_BRANCH": base,
	})

	res := Result{Branch: branch, Base: base}
	desc := cfg.Context.Descriptor()

	// Step 1: Clone and prepare the working branch.
	if err := cfg.Repo.Clone(ctx, cfg.WorkDir, desc); err != nil {
		return res, fmt.Errorf("%s: %w", errCtx, err)
	}

	if cfg.CommitName != "" {
		if err := cfg.Repo.Config(
			ctx, cfg.WorkDir, cfg.CommitName, cfg.CommitEmail,
		); err != nil {
			return res, fmt.Errorf("%s: %w", errCtx, err)
		}
	}

	if err := cfg.Repo.CreateBranch(ctx, cfg.WorkDir, branch); err != nil {
		return res, fmt.Errorf("%s: %w", errCtx, err)
	}

	// Step 2: Run the commands.
	if _, err := cfg.Repo.RunCommands(
		ctx, cfg.WorkDir, shellCommands(cfg.Commands),
	); err != nil {
		return res, fmt.Errorf("%s: %w", errCtx, err)
	}

	// Step 3: Commit.
	committed, err := cfg.Repo.Commit(
		ctx, cfg.WorkDir,
		commitMessage(
			templating.Expand(cfg.CommitMessage, vars), cfg.Commands,
		),
		git.CommitOptions{},
	)
	if err != nil {
		return res, fmt.Errorf("%s: %w", errCtx, err)
	}

	res.Committed = committed

	if cfg.DryRun {
		slog.Info(
			"dry run: skipping push and pull request",
			"branch", branch,
			"committed", committed,
		)

		return res, nil
	}

	// Step 4: No diff closes the stale pull request.
	if !committed {
		if err := cfg.Provider.ClosePR(
			ctx, branch, templating.Expand(cfg.CloseMessage, vars),
		); err != nil {
			return res, fmt.Errorf("%s: %w", errCtx, err)
		}

		res.Closed = true

		return res, nil
	}

	// Step 5: Push and open the pull request.
	if err := cfg.Repo.ForcePush(ctx, cfg.WorkDir, branch, desc); err != nil {
		return res, fmt.Errorf("%s: %w", errCtx, err)
	}

	res.Pushed = true

	pr, err := cfg.Provider.OpenPR(
		ctx, branch, base,
		templating.Expand(cfg.PRTitle, vars),
		templating.Expand(cfg.PRBody, vars),
	)
	if err != nil {
		return res, fmt.Errorf(
			"%s: open pull request for %s: %w", errCtx, branch, err,
		)
	}

	res.PullRequest = pr

	return res, nil
}

func (cfg Config) validate() error {
	switch {
	case cfg.Repo == nil:
		return errors.New("repo must be set")
	case cfg.Provider == nil:
		return errors.New("provider must be set")
	case cfg.WorkDir == "":
		return errors.New("work dir must be set")
	case cfg.BranchName == "":
		return errors.New("branch name must be set")
	case len(cfg.Commands) == 0:
		return errors.New("at least one command must be set")
	}

	return nil
}

func (cfg Config) vars() templating.Vars {
	now := time.Now
	if cfg.Now != nil {
		now = cfg.Now
	}

	return templating.Merge(
		templating.ContextVars(cfg.Context, now()), cfg.Vars,
	)
}

func (cfg Config) baseBranch(vars templating.Vars) string {
	if cfg.BaseBranch != "" {
		return templating.Expand(cfg.BaseBranch, vars)
	}

	if pr := cfg.Context.Payload.PullRequest; pr != nil && pr.Base.Ref != "" {
		return pr.Base.Ref
	}

	return refs.Branch(cfg.Context.Ref, true)
}

// shellCommands wraps command lines into "sh -c"
// invocations.
func shellCommands(lines []string) []exec.Command {
	cmds := make([]exec.Command, 0, len(lines))

	for _, l := range lines {
		cmds = append(cmds, exec.Command{
			Name:    "sh",
			Args:    []string{"-c", l},
			Display: l,
		})
	}

	return cmds
}
