package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/byte4ever/actionkit/action/config"
	"github.com/byte4ever/actionkit/action/exec"
	"github.com/byte4ever/actionkit/action/git"
	"github.com/byte4ever/actionkit/action/git/github"
	"github.com/byte4ever/actionkit/action/logger"
	"github.com/byte4ever/actionkit/action/workflow"
)

// app holds what every subcommand shares once the
// persistent flags are parsed.
type app struct {
	configPath string
	verbose    bool

	cfg config.Config
	lg  *logger.Logger
	wc  workflow.Context
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:          "actionkit",
		Short:        "GitHub Actions helpers",
		Long:         "Clone, commit, tag and manage pull requests from a workflow step.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	root.PersistentFlags().StringVarP(
		&a.configPath, "config", "c", "",
		"YAML config file (env ACTIONKIT_CONFIG)",
	)
	root.PersistentFlags().BoolVarP(
		&a.verbose, "verbose", "v", false,
		"Emit debug annotations",
	)

	root.AddCommand(
		newCreatePRCmd(a),
		newClosePRCmd(a),
		newCommitCmd(a),
		newNextVersionCmd(a),
		newExpandCmd(a),
	)

	return root
}

// setup loads the config and the workflow context and
// routes slog through the CI logger.
func (a *app) setup(cmd *cobra.Command) error {
	const errCtx = "setting up"

	path := a.configPath
	if path == "" {
		path = lookupEnv("ACTIONKIT_CONFIG")
	}

	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	wc, err := workflow.FromEnv()
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	opts := []logger.Option{
		logger.WithReplacer(logger.Mask(cfg.Token)),
		logger.WithColor(!cfg.NoColor),
	}

	if cfg.LegacySyntax {
		opts = append(opts, logger.WithSyntax(logger.Legacy))
	}

	a.cfg = cfg
	a.wc = wc
	a.lg = logger.New(cmd.OutOrStdout(), opts...)

	level := slog.LevelInfo
	if a.verbose {
		level = slog.LevelDebug
	}

	slog.SetDefault(slog.New(logger.NewHandler(a.lg, level)))

	return nil
}

func (a *app) gitHelper() *git.Helper {
	opts := []git.Option{
		git.WithToken(a.cfg.Token),
		git.WithDepth(a.cfg.Depth),
	}

	if a.cfg.EnterpriseHost != "" {
		opts = append(opts, git.WithHost(a.cfg.EnterpriseHost))
	}

	return git.New(exec.NewRunner(a.lg), a.lg, opts...)
}

func (a *app) githubHelper(opts ...github.Option) (*github.Helper, error) {
	opts = append([]github.Option{
		github.WithLogger(a.lg),
		github.WithSuppressBPError(a.cfg.SuppressBPError),
	}, opts...)

	return github.New(github.Config{
		AccessToken:    a.cfg.Token,
		EnterpriseHost: a.cfg.EnterpriseHost,
	}, a.wc, opts...)
}
