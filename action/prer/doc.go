// Package prer runs the "create pull request" pipeline
// of an action: it clones the repository of the run,
// creates a working branch, runs commands that change
// files, commits the result, force-pushes the branch
// and opens (or refreshes) a pull request through a
// git.PullRequester. When the commands leave no diff,
// the pull request of the branch is closed and the
// branch deleted.
//
// The main entry point is Run, which accepts a Config
// struct with all parameters for the workflow.
package prer
