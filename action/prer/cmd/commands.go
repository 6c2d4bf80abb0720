package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/byte4ever/actionkit/action/git/github"
	"github.com/byte4ever/actionkit/action/prer"
	"github.com/byte4ever/actionkit/action/workflow"
	"github.com/byte4ever/actionkit/templating"
)

func newCreatePRCmd(a *app) *cobra.Command {
	var (
		commands []string
		branch   string
		base     string
		dryRun   bool
	)

	cmd := &cobra.Command{
		Use:   "create-pr",
		Short: "Run commands and open a pull request with the result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			const errCtx = "creating pull request"

			cfg := a.cfg
			if len(commands) > 0 {
				cfg.Commands = commands
			}

			if branch != "" {
				cfg.BranchName = branch
			}

			if base != "" {
				cfg.BaseBranch = base
			}

			cfg.DryRun = cfg.DryRun || dryRun

			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("%s: %w", errCtx, err)
			}

			body := cfg.PRBody
			if cfg.PRBodyFile != "" {
				var err error

				body, err = templating.Engine{}.ExpandFile(
					cfg.PRBodyFile, cfg.TemplateVars(),
				)
				if err != nil {
					return fmt.Errorf("%s: %w", errCtx, err)
				}
			}

			gh, err := a.githubHelper()
			if err != nil {
				return fmt.Errorf("%s: %w", errCtx, err)
			}

			res, err := prer.Run(cmd.Context(), prer.Config{
				WorkDir:       cfg.WorkDir,
				Context:       a.wc,
				BranchName:    cfg.BranchName,
				BaseBranch:    cfg.BaseBranch,
				Commands:      cfg.Commands,
				CommitMessage: cfg.CommitMessage,
				CommitName:    cfg.CommitName,
				CommitEmail:   cfg.CommitEmail,
				PRTitle:       cfg.PRTitle,
				PRBody:        body,
				CloseMessage:  cfg.CloseMessage,
				DryRun:        cfg.DryRun,
				Vars:          cfg.TemplateVars(),
				Now:           time.Now,
				Repo:          a.gitHelper(),
				Provider:      gh,
			})
			if err != nil {
				return err
			}

			if res.PullRequest.Number != 0 {
				a.lg.Info("Pull request #%d [%s]", res.PullRequest.Number, res.PullRequest.URL)
			}

			return export(map[string]string{
				"PR_BRANCH": res.Branch,
				"PR_NUMBER": fmt.Sprint(res.PullRequest.Number),
			})
		},
	}

	cmd.Flags().StringArrayVar(
		&commands, "run", nil,
		"Command line to run (repeatable)",
	)
	cmd.Flags().StringVar(&branch, "branch", "", "Working branch name")
	cmd.Flags().StringVar(&base, "base", "", "Pull request target branch")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Stop after the commit")

	return cmd
}

func newClosePRCmd(a *app) *cobra.Command {
	var message string

	cmd := &cobra.Command{
		Use:   "close-pr BRANCH",
		Short: "Close the pull request of a branch and delete the branch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			const errCtx = "closing pull request"

			if err := a.cfg.Validate(); err != nil {
				return fmt.Errorf("%s: %w", errCtx, err)
			}

			gh, err := a.githubHelper()
			if err != nil {
				return fmt.Errorf("%s: %w", errCtx, err)
			}

			if message == "" {
				message = a.cfg.CloseMessage
			}

			vars := templating.Merge(
				templating.ContextVars(a.wc, time.Now()),
				a.cfg.TemplateVars(),
			)

			return gh.ClosePR(
				cmd.Context(), args[0], templating.Expand(message, vars),
			)
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "Comment posted before closing")

	return cmd
}

func newCommitCmd(a *app) *cobra.Command {
	var (
		message string
		root    string
		ref     string
	)

	cmd := &cobra.Command{
		Use:   "commit [FILE...]",
		Short: "Commit files through the API on the ref of the run",
		Long: "Commit files through the git data API. Without FILE " +
			"arguments the files staged in the root " +
			"directory are committed.",
		RunE: func(cmd *cobra.Command, args []string) error {
			const errCtx = "committing"

			if a.cfg.Token == "" {
				return fmt.Errorf("%s: github token must be set", errCtx)
			}

			var opts []github.Option
			if ref != "" {
				opts = append(opts, github.WithRefForUpdate(ref))
			}

			gh, err := a.githubHelper(opts...)
			if err != nil {
				return fmt.Errorf("%s: %w", errCtx, err)
			}

			files := args
			if len(files) == 0 {
				files, err = a.gitHelper().GetDiff(cmd.Context(), root)
				if err != nil {
					return fmt.Errorf("%s: %w", errCtx, err)
				}
			}

			if message == "" {
				message = a.cfg.CommitMessage
			}

			vars := templating.Merge(
				templating.ContextVars(a.wc, time.Now()),
				a.cfg.TemplateVars(),
			)

			_, err = gh.Commit(
				cmd.Context(), root,
				templating.Expand(message, vars), files,
			)

			return err
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "Commit message")
	cmd.Flags().StringVar(&root, "root", ".", "Directory the files are relative to")
	cmd.Flags().StringVar(&ref, "ref", "", "Ref to update (default: ref of the run)")

	return cmd
}

func newNextVersionCmd(a *app) *cobra.Command {
	var (
		level string
		dir   string
	)

	cmd := &cobra.Command{
		Use:   "next-version",
		Short: "Print the next release version from the tags of a clone",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			const errCtx = "computing next version"

			h := a.gitHelper()

			bump := map[string]func() (string, error){
				"patch": func() (string, error) { return h.NewPatchVersion(cmd.Context(), dir) },
				"minor": func() (string, error) { return h.NewMinorVersion(cmd.Context(), dir) },
				"major": func() (string, error) { return h.NewMajorVersion(cmd.Context(), dir) },
			}

			fn, ok := bump[level]
			if !ok {
				return fmt.Errorf("%s: unknown level %q", errCtx, level)
			}

			next, err := fn()
			if err != nil {
				return fmt.Errorf("%s: %w", errCtx, err)
			}

			a.lg.Log(next)

			return export(map[string]string{"NEXT_VERSION": next})
		},
	}

	cmd.Flags().StringVar(&level, "level", "patch", "Component to bump: patch, minor or major")
	cmd.Flags().StringVar(&dir, "dir", ".", "Repository directory")

	return cmd
}

func newExpandCmd(a *app) *cobra.Command {
	var (
		vars     []string
		output   string
		startTag string
		endTag   string
	)

	cmd := &cobra.Command{
		Use:   "expand [TEMPLATE]",
		Short: "Expand ${NAME} placeholders of a template file (stdin when omitted)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			const errCtx = "expanding template"

			extra, err := templating.ParseVars(vars)
			if err != nil {
				return fmt.Errorf("%s: %w", errCtx, err)
			}

			path := ""
			if len(args) == 1 {
				path = args[0]
			}

			en := templating.Engine{StartTag: startTag, EndTag: endTag}

			out, err := en.ExpandFile(path, templating.Merge(
				templating.ContextVars(a.wc, time.Now()),
				a.cfg.TemplateVars(),
				extra,
			))
			if err != nil {
				return fmt.Errorf("%s: %w", errCtx, err)
			}

			if output == "" {
				_, err = fmt.Fprint(cmd.OutOrStdout(), out)

				return err
			}

			if err := os.MkdirAll(filepath.Dir(output), 0o750); err != nil {
				return fmt.Errorf("%s: %w", errCtx, err)
			}

			//nolint:gosec // path from CLI flag
			if err := os.WriteFile(output, []byte(out), 0o644); err != nil {
				return fmt.Errorf("%s: %w", errCtx, err)
			}

			return nil
		},
	}

	cmd.Flags().StringArrayVar(&vars, "var", nil, "Variable NAME=VALUE (repeatable)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (stdout when empty)")
	cmd.Flags().StringVar(&startTag, "start-tag", "${", "Placeholder start tag")
	cmd.Flags().StringVar(&endTag, "end-tag", "}", "Placeholder end tag")

	return cmd
}

// export publishes values to the following steps.
func export(values map[string]string) error {
	ex := workflow.NewEnvExporter()

	for name, value := range values {
		if err := ex.Export(name, value); err != nil {
			return err
		}
	}

	return nil
}

func lookupEnv(name string) string {
	return os.Getenv(name)
}
