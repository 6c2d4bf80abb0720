// Package git drives the git command line to check out, commit, tag and
// push on behalf of an action, and declares the strategy interface used to
// open pull requests on a hosting platform.
//
// Helper sequences exec.Runner invocations. Clone picks a command sequence
// from the shape of the ref (branch, pull request or tag/other) and does
// nothing when the directory is already a repository. Remote operations use
// an authenticated HTTPS URL that is masked in logs and errors, unless
// UseOrigin substitutes a configured remote name.
//
// PullRequester abstracts opening and closing pull requests; the github
// sub-package implements it. OpenerFunc lets plain functions satisfy the
// opening half.
package git
