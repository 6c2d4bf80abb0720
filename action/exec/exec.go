// Package exec runs external commands for the action
// helpers and reports their output through a Logger.
package exec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/byte4ever/actionkit/action/logger"
)

// Command describes a single process invocation. Args
// are passed to the process as-is; no shell is
// involved.
type Command struct {
	// Dir is the working directory. Empty means the
	// current directory.
	Dir string
	// Name is the program to run.
	Name string
	// Args are the program arguments.
	Args []string
	// Env is appended to the current environment.
	Env []string
	// Display replaces the command line shown in logs
	// and errors, e.g. to hide credentials.
	Display string
	// Quiet discards both output streams and drops the
	// raw message from failures.
	Quiet bool
	// SuppressError turns a non-zero exit into a
	// successful result.
	SuppressError bool
	// SuppressOutput hides the command and its output
	// from the log.
	SuppressOutput bool
	// StderrToStdout merges standard error into the
	// standard output lines of the result.
	StderrToStdout bool
}

// Result holds the captured output of a command. Each
// stream is trimmed of trailing whitespace and split
// into lines.
type Result struct {
	Command string
	Stdout  []string
	Stderr  []string
}

// ExitError reports a command that exited with a
// non-zero status.
type ExitError struct {
	// Command is the displayed command line; empty when
	// it was not shown.
	Command string
	// Code is the process exit code.
	Code int
	// Message is the raw failure output.
	Message string
	// Quiet omits Message from the error text.
	Quiet bool

	err error
}

// Error composes the failure message.
func (e *ExitError) Error() string {
	var sb strings.Builder

	sb.WriteString("command")

	if e.Command != "" {
		fmt.Fprintf(&sb, " [%s]", e.Command)
	}

	fmt.Fprintf(&sb, " exited with code %d.", e.Code)

	if !e.Quiet {
		fmt.Fprintf(&sb, " message: %s", e.Message)
	}

	return sb.String()
}

// Unwrap returns the underlying *exec.ExitError.
func (e *ExitError) Unwrap() error {
	return e.err
}

// Runner executes commands and narrates them through a
// Logger.
type Runner struct {
	logger *logger.Logger
}

// NewRunner returns a Runner logging to lg.
func NewRunner(lg *logger.Logger) *Runner {
	return &Runner{logger: lg}
}

// Run executes c and waits for it to finish. Unless
// SuppressOutput is set, the command line and any
// captured output are written to the logger before Run
// returns, whether the command failed or not.
func (r *Runner) Run(ctx context.Context, c Command) (*Result, error) {
	const errCtx = "executing command"

	display := c.String()

	if shown := c.shown(); shown != "" && !c.SuppressOutput {
		r.logger.DisplayCommand(shown)
	}

	//nolint:gosec // commands are assembled by the helpers
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir

	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}

	var stdout, stderr bytes.Buffer

	if !c.Quiet {
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
	}

	runErr := cmd.Run()

	res := &Result{
		Command: display,
		Stdout:  splitLines(stdout.String()),
		Stderr:  splitLines(stderr.String()),
	}

	if c.StderrToStdout {
		res.Stdout = append(res.Stdout, res.Stderr...)
		res.Stderr = nil
	}

	if !c.SuppressOutput {
		if len(res.Stdout) > 0 {
			r.logger.DisplayStdout(logger.Lines(res.Stdout))
		}

		if len(res.Stderr) > 0 {
			r.logger.DisplayStderr(logger.Lines(res.Stderr))
		}

		if err := r.logger.Err(); err != nil {
			return res, fmt.Errorf("%s: %w", errCtx, err)
		}
	}

	if runErr == nil {
		return res, nil
	}

	var ee *exec.ExitError
	if !errors.As(runErr, &ee) {
		return res, fmt.Errorf(
			"%s: %s: %w", errCtx, display, runErr,
		)
	}

	if c.SuppressError {
		return res, nil
	}

	return res, newExitError(c, ee, stderr.String())
}

// String returns the command line shown in logs.
func (c Command) String() string {
	if c.Display != "" {
		return c.Display
	}

	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, c.Name)

	for _, a := range c.Args {
		parts = append(parts, quoteArg(a))
	}

	return strings.Join(parts, " ")
}

// shown returns the command line for logs and errors.
// It is empty for a Quiet command without Display.
func (c Command) shown() string {
	if c.Display == "" && c.Quiet {
		return ""
	}

	return c.String()
}

func newExitError(
	c Command,
	ee *exec.ExitError,
	stderr string,
) *ExitError {
	shown := c.shown()

	msg := strings.TrimSpace(stderr)
	if msg == "" {
		msg = ee.Error()
	}

	return &ExitError{
		Command: shown,
		Code:    ee.ExitCode(),
		Message: msg,
		Quiet:   c.Quiet,
		err:     ee,
	}
}

func splitLines(s string) []string {
	s = strings.TrimRight(s, " \t\r\n")
	if s == "" {
		return nil
	}

	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, "\r")
	}

	return lines
}

func quoteArg(a string) string {
	if a == "" {
		return "''"
	}

	if !strings.ContainsAny(a, " \t\n'\"") {
		return a
	}

	return "'" + strings.ReplaceAll(a, "'", `'\''`) + "'"
}
