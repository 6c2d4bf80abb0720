// Package config loads the settings of the actionkit
// commands: defaults, then an optional YAML file, then
// the action inputs found in the environment.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/byte4ever/actionkit/action/workflow"
	"github.com/byte4ever/actionkit/templating"
)

// Defaults.
const (
	DefaultWorkDir       = ".actionkit"
	DefaultBranchName    = "actionkit/update"
	DefaultCommitMessage = "chore: update files"
	DefaultCloseMessage  = "There is no diff now. Closing this pull request."
)

// ErrMissing is returned by Validate for a required
// setting left empty.
var ErrMissing = errors.New("missing setting")

// Config holds the settings shared by the commands.
// Text settings accept ${NAME} placeholders.
type Config struct {
	Token           string            `yaml:"-"`
	EnterpriseHost  string            `yaml:"enterprise_host"`
	WorkDir         string            `yaml:"work_dir"`
	Depth           int               `yaml:"depth"`
	BranchName      string            `yaml:"branch_name"`
	BaseBranch      string            `yaml:"base_branch"`
	Commands        []string          `yaml:"commands"`
	CommitMessage   string            `yaml:"commit_message"`
	CommitName      string            `yaml:"commit_name"`
	CommitEmail     string            `yaml:"commit_email"`
	PRTitle         string            `yaml:"pr_title"`
	PRBody          string            `yaml:"pr_body"`
	PRBodyFile      string            `yaml:"pr_body_file"`
	CloseMessage    string            `yaml:"close_message"`
	DryRun          bool              `yaml:"dry_run"`
	SuppressBPError bool              `yaml:"suppress_bp_error"`
	LegacySyntax    bool              `yaml:"legacy_syntax"`
	NoColor         bool              `yaml:"no_color"`
	Vars            map[string]string `yaml:"vars"`
}

// Default returns a Config holding the defaults.
func Default() Config {
	return Config{
		WorkDir:       DefaultWorkDir,
		BranchName:    DefaultBranchName,
		CommitMessage: DefaultCommitMessage,
		PRTitle:       DefaultCommitMessage,
		CloseMessage:  DefaultCloseMessage,
	}
}

// Load returns the defaults overridden by the YAML file
// at path (skipped when empty) and by the environment.
func Load(path string) (Config, error) {
	return LoadWith(path, os.LookupEnv)
}

// LoadWith is Load resolving variables with lookup.
//
// Inputs are read as INPUT_<NAME> (e.g. INPUT_DRY_RUN).
// The token falls back to GITHUB_TOKEN. INPUT_COMMANDS
// and INPUT_VARS hold one entry per line.
func LoadWith(
	path string,
	lookup func(string) (string, bool),
) (Config, error) {
	const errCtx = "loading config"

	cfg := Default()

	if path != "" {
		if err := cfg.readFile(path); err != nil {
			return Config{}, fmt.Errorf("%s: %w", errCtx, err)
		}
	}

	if err := cfg.applyEnv(lookup); err != nil {
		return Config{}, fmt.Errorf("%s: %w", errCtx, err)
	}

	return cfg, nil
}

// Validate checks the settings needed to open or close
// a pull request.
func (c Config) Validate() error {
	switch {
	case c.Token == "":
		return fmt.Errorf("%w: github token", ErrMissing)
	case c.BranchName == "":
		return fmt.Errorf("%w: branch name", ErrMissing)
	}

	return nil
}

// TemplateVars returns Vars as templating variables.
func (c Config) TemplateVars() templating.Vars {
	return templating.Vars(c.Vars)
}

func (c *Config) readFile(path string) error {
	const errCtx = "reading config file"

	data, err := os.ReadFile(path) //nolint:gosec // path from CLI flag
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	dec := yaml.NewDecoder(
		bytes.NewReader(data), yaml.DisallowUnknownField(),
	)

	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%s: %s: %w", errCtx, path, err)
	}

	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	input := func(name string) (string, bool) {
		v := workflow.InputFrom(lookup, name)

		return v, v != ""
	}

	if v, ok := input("GITHUB_TOKEN"); ok {
		c.Token = v
	} else if v, ok := lookup("GITHUB_TOKEN"); ok {
		c.Token = v
	}

	strs := map[string]*string{
		"ENTERPRISE_HOST": &c.EnterpriseHost,
		"WORK_DIR":        &c.WorkDir,
		"BRANCH_NAME":     &c.BranchName,
		"BASE_BRANCH":     &c.BaseBranch,
		"COMMIT_MESSAGE":  &c.CommitMessage,
		"COMMIT_NAME":     &c.CommitName,
		"COMMIT_EMAIL":    &c.CommitEmail,
		"PR_TITLE":        &c.PRTitle,
		"PR_BODY":         &c.PRBody,
		"PR_BODY_FILE":    &c.PRBodyFile,
		"CLOSE_MESSAGE":   &c.CloseMessage,
	}

	for name, dst := range strs {
		if v, ok := input(name); ok {
			*dst = v
		}
	}

	bools := map[string]*bool{
		"DRY_RUN":           &c.DryRun,
		"SUPPRESS_BP_ERROR": &c.SuppressBPError,
		"LEGACY_SYNTAX":     &c.LegacySyntax,
		"NO_COLOR":          &c.NoColor,
	}

	for name, dst := range bools {
		v, ok := input(name)
		if !ok {
			continue
		}

		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("INPUT_%s has invalid bool %q: %w", name, v, err)
		}

		*dst = b
	}

	if v, ok := input("DEPTH"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("INPUT_DEPTH has invalid int %q: %w", v, err)
		}

		c.Depth = n
	}

	if v, ok := input("COMMANDS"); ok {
		c.Commands = nonEmptyLines(v)
	}

	if v, ok := input("VARS"); ok {
		vars, err := templating.ParseVars(nonEmptyLines(v))
		if err != nil {
			return err
		}

		c.Vars = templating.Merge(c.TemplateVars(), vars)
	}

	return nil
}

func nonEmptyLines(s string) []string {
	var out []string

	for _, l := range strings.Split(s, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}

	return out
}
