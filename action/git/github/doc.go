// Package github implements the REST side of an action: committing files
// through the git data API (blob, tree, commit, ref update) and the pull
// request lifecycle (find, create or update, comment, close). It also
// implements git.PullRequester.
//
// The client is go-github behind an ETag cache and secondary rate limit
// middleware. Set EnterpriseHost in Config for GitHub Enterprise.
package github
