package workflow

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
)

// Exporter publishes a variable to the current process
// and to later steps.
type Exporter interface {
	Export(name, value string) error
}

// ExporterFunc adapts a function to Exporter.
type ExporterFunc func(name, value string) error

// Export calls f.
func (f ExporterFunc) Export(name, value string) error {
	return f(name, value)
}

// EnvExporter sets process environment variables and
// appends them to File, the runner's GITHUB_ENV file.
type EnvExporter struct {
	File string
}

// NewEnvExporter returns an EnvExporter targeting the
// file named by GITHUB_ENV.
func NewEnvExporter() EnvExporter {
	return EnvExporter{File: os.Getenv("GITHUB_ENV")}
}

// Export sets name for this process and, when File is
// set, for the following steps.
func (e EnvExporter) Export(name, value string) error {
	const errCtx = "exporting variable"

	if err := os.Setenv(name, value); err != nil {
		return fmt.Errorf("%s: %s: %w", errCtx, name, err)
	}

	if e.File == "" {
		return nil
	}

	entry, err := envEntry(name, value)
	if err != nil {
		return fmt.Errorf("%s: %s: %w", errCtx, name, err)
	}

	//nolint:gosec // path set by the runner
	f, err := os.OpenFile(
		e.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644,
	)
	if err != nil {
		return fmt.Errorf("%s: %s: %w", errCtx, name, err)
	}

	if _, err := f.WriteString(entry); err != nil {
		_ = f.Close()

		return fmt.Errorf("%s: %s: %w", errCtx, name, err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("%s: %s: %w", errCtx, name, err)
	}

	return nil
}

// envEntry formats a GITHUB_ENV line, using a heredoc
// delimiter for multi-line values.
func envEntry(name, value string) (string, error) {
	if !strings.ContainsAny(value, "\r\n") {
		return name + "=" + value + "\n", nil
	}

	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("delimiter: %w", err)
	}

	delim := "ghadelimiter_" + hex.EncodeToString(buf)

	return fmt.Sprintf(
		"%s<<%s\n%s\n%s\n", name, delim, value, delim,
	), nil
}
