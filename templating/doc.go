// Package templating expands ${NAME} placeholders in
// branch names, commit messages and pull request texts.
// It uses valyala/fasttemplate with configurable
// delimiters (default "${" and "}").
//
// Unknown names are left untouched so a template can be
// expanded in several passes. ContextVars and
// PullRequestVars build the variables describing a
// workflow run.
package templating
