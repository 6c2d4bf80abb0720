package templating

import (
	"fmt"
	"io"
	"maps"
	"os"
	"strings"

	"github.com/valyala/fasttemplate"
)

// Vars maps placeholder names to their values.
type Vars map[string]string

// Merge returns a new Vars holding every entry of vs.
// Later entries win.
func Merge(vs ...Vars) Vars {
	out := make(Vars)

	for _, v := range vs {
		maps.Copy(out, v)
	}

	return out
}

// ParseVars reads NAME=VALUE pairs.
func ParseVars(pairs []string) (Vars, error) {
	const errCtx = "parsing variables"

	out := make(Vars, len(pairs))

	for _, p := range pairs {
		name, value, ok := strings.Cut(p, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf(
				"%s: variable must be NAME=value, got %s",
				errCtx, p,
			)
		}

		out[name] = value
	}

	return out, nil
}

// Engine expands templates with a pair of delimiters.
type Engine struct {
	StartTag string
	EndTag   string
}

// Expand substitutes every known placeholder of format.
// A format with an unterminated placeholder is returned
// unchanged.
func (en Engine) Expand(format string, vars Vars) string {
	startTag, endTag := en.tags()

	out, err := fasttemplate.ExecuteFuncStringWithErr(
		format, startTag, endTag,
		func(w io.Writer, tag string) (int, error) {
			if v, ok := vars[tag]; ok {
				return io.WriteString(w, v)
			}

			return io.WriteString(w, startTag+tag+endTag)
		},
	)
	if err != nil {
		return format
	}

	return out
}

// ExpandFile reads the template at path and expands it.
// An empty path reads standard input.
func (en Engine) ExpandFile(path string, vars Vars) (string, error) {
	const errCtx = "expanding template file"

	content, err := readTemplate(path)
	if err != nil {
		return "", fmt.Errorf("%s: %w", errCtx, err)
	}

	return en.Expand(string(content), vars), nil
}

// Expand substitutes ${NAME} placeholders of format.
func Expand(format string, vars Vars) string {
	return Engine{}.Expand(format, vars)
}

// tags returns the configured start/end tags, falling
// back to "${" and "}".
func (en Engine) tags() (string, string) {
	startTag := en.StartTag
	if startTag == "" {
		startTag = "${"
	}

	endTag := en.EndTag
	if endTag == "" {
		endTag = "}"
	}

	return startTag, endTag
}

func readTemplate(path string) ([]byte, error) {
	const errCtx = "reading template"

	if path != "" {
		content, err := os.ReadFile(path) //nolint:gosec // paths from CLI flags
		if err != nil {
			return nil, fmt.Errorf("%s: %w", errCtx, err)
		}

		return content, nil
	}

	content, err := io.ReadAll(os.Stdin)
	if err != nil {
		return nil, fmt.Errorf(
			"%s: reading stdin: %w", errCtx, err,
		)
	}

	return content, nil
}
