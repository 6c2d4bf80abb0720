// Package logger writes human-readable progress to a GitHub Actions runner
// log. Messages are split per line, optionally masked, and decorated with
// the workflow command syntax the runner understands (annotations and
// collapsible groups). Handler adapts a Logger to log/slog.
package logger
