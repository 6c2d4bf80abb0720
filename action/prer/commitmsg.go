package prer

import "strings"

const (
	commandsBegin = "--- actionkit commands begin ---"
	commandsEnd   = "--- actionkit commands end ---"
)

// commitMessage appends the commands that produced the
// change to subject, between marker lines.
func commitMessage(subject string, commands []string) string {
	var sb strings.Builder

	sb.WriteString(strings.TrimRight(subject, "\n"))
	sb.WriteString("\n\n")
	sb.WriteString(commandsBegin)
	sb.WriteByte('\n')

	for _, c := range commands {
		sb.WriteString(c)
		sb.WriteByte('\n')
	}

	sb.WriteString(commandsEnd)
	sb.WriteByte('\n')

	return sb.String()
}
