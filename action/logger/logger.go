package logger

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"
)

// Syntax selects the workflow command convention used
// for annotations and groups.
type Syntax int

const (
	// Workflow emits "::warning::" style commands.
	Workflow Syntax = iota
	// Legacy emits "##[warning]" style commands.
	Legacy
)

// Logger formats messages for a CI runner log. It is
// safe for concurrent use; the group state belongs to
// the instance.
type Logger struct {
	mu       sync.Mutex
	out      io.Writer
	replacer func(string) string
	syntax   Syntax
	color    bool
	noGroup  bool
	inGroup  bool
	err      error
}

// Option configures a Logger.
type Option func(*Logger)

// WithReplacer applies fn to every output line and to
// every string argument, typically to mask secrets.
func WithReplacer(fn func(string) string) Option {
	return func(l *Logger) {
		l.replacer = fn
	}
}

// WithSyntax selects the workflow command convention.
func WithSyntax(s Syntax) Option {
	return func(l *Logger) {
		l.syntax = s
	}
}

// WithColor forces coloured output on or off,
// regardless of terminal detection.
func WithColor(enabled bool) Option {
	return func(l *Logger) {
		l.color = enabled
	}
}

// WithoutGroup disables group markers. StartProcess
// then prints its title as an info line.
func WithoutGroup() Option {
	return func(l *Logger) {
		l.noGroup = true
	}
}

// New returns a Logger writing to out.
func New(out io.Writer, opts ...Option) *Logger {
	l := &Logger{
		out:   out,
		color: true,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Log writes each line of message unchanged.
func (l *Logger) Log(message string, args ...any) {
	l.output(plain, message, args)
}

// Info writes each line of message prefixed by "> ".
func (l *Logger) Info(message string, args ...any) {
	l.output(prefixed("> "), message, args)
}

// Warn writes each line as a warning annotation.
func (l *Logger) Warn(message string, args ...any) {
	l.output(prefixed(l.command("warning")), message, args)
}

// Debug writes each line as a debug annotation.
func (l *Logger) Debug(message string, args ...any) {
	l.output(prefixed(l.command("debug")), message, args)
}

// Error writes each line as an error annotation.
func (l *Logger) Error(message string, args ...any) {
	l.output(prefixed(l.command("error")), message, args)
}

// DisplayCommand writes a command line about to be
// executed.
func (l *Logger) DisplayCommand(message string, args ...any) {
	l.output(func(line string) string {
		return "[command]" + l.C(line, color.FgHiCyan)
	}, message, args)
}

// DisplayStdout writes captured standard output.
func (l *Logger) DisplayStdout(message string, args ...any) {
	l.output(prefixed("  >> "), message, args)
}

// DisplayStderr writes captured standard error as
// warnings.
func (l *Logger) DisplayStderr(message string, args ...any) {
	l.output(
		prefixed(l.command("warning")+"  >> "),
		message, args,
	)
}

// StartProcess opens an output group titled by
// message. A group still open is closed first.
func (l *Logger) StartProcess(message string, args ...any) {
	l.EndProcess()

	l.mu.Lock()
	defer l.mu.Unlock()

	title := strings.Join(
		splitMessage(l.format(message, l.replaceArgs(args))),
		" ",
	)

	if l.noGroup {
		l.write("> " + title)

		return
	}

	l.write(l.command("group") + title)
	l.inGroup = true
}

// EndProcess closes the open group. It does nothing
// when no group is open.
func (l *Logger) EndProcess() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.inGroup {
		return
	}

	l.write(l.command("endgroup"))
	l.inGroup = false
}

// InGroup reports whether an output group is open.
func (l *Logger) InGroup() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.inGroup
}

// C colours text with the given attributes when colour
// is enabled on the logger.
func (l *Logger) C(text string, attrs ...color.Attribute) string {
	c := color.New(attrs...)
	if l.color {
		c.EnableColor()
	} else {
		c.DisableColor()
	}

	return c.Sprint(text)
}

// Err returns the first error met while writing.
// Once set, further output is dropped.
func (l *Logger) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.err
}

// Lines joins an array message so it can be passed to
// any output method.
func Lines(lines []string) string {
	return strings.Join(lines, "\n")
}

// Mask returns a replacer hiding every non-empty
// secret behind "***".
func Mask(secrets ...string) func(string) string {
	var pairs []string

	for _, s := range secrets {
		if s != "" {
			pairs = append(pairs, s, "***")
		}
	}

	if len(pairs) == 0 {
		return func(s string) string { return s }
	}

	r := strings.NewReplacer(pairs...)

	return r.Replace
}

func (l *Logger) output(
	decorate func(string) string,
	message string,
	args []any,
) {
	l.mu.Lock()
	defer l.mu.Unlock()

	text := l.format(message, l.replaceArgs(args))

	for _, line := range splitMessage(text) {
		l.write(decorate(line))
	}
}

// format masks the format string, then applies args,
// which the caller has already masked.
func (l *Logger) format(message string, args []any) string {
	message = l.replace(message)
	if len(args) == 0 {
		return message
	}

	return fmt.Sprintf(message, args...)
}

func (l *Logger) replace(s string) string {
	if l.replacer == nil {
		return s
	}

	return l.replacer(s)
}

func (l *Logger) replaceArgs(args []any) []any {
	if l.replacer == nil || len(args) == 0 {
		return args
	}

	out := make([]any, len(args))

	for i, a := range args {
		if s, ok := a.(string); ok {
			out[i] = l.replacer(s)

			continue
		}

		out[i] = a
	}

	return out
}

func (l *Logger) command(name string) string {
	if l.syntax == Legacy {
		return "##[" + name + "]"
	}

	return "::" + name + "::"
}

// write must be called with l.mu held.
func (l *Logger) write(line string) {
	if l.err != nil {
		return
	}

	if _, err := io.WriteString(l.out, line+"\n"); err != nil {
		l.err = fmt.Errorf("writing log output: %w", err)
	}
}

func splitMessage(message string) []string {
	message = strings.ReplaceAll(message, "\r\n", "\n")
	message = strings.TrimSuffix(message, "\n")

	return strings.Split(message, "\n")
}

func plain(line string) string {
	return line
}

func prefixed(prefix string) func(string) string {
	return func(line string) string {
		return prefix + line
	}
}
