package workflow

// EnvEntryForTest exposes envEntry.
var EnvEntryForTest = envEntry
