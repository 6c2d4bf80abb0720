package prer

// CommitMessageForTest exposes commitMessage.
var CommitMessageForTest = commitMessage

// ShellCommandsForTest exposes shellCommands.
var ShellCommandsForTest = shellCommands
