// Package workflow reads the context a GitHub Actions runner hands to a step:
// the GITHUB_* environment, the event payload file and action inputs. It also
// exports variables to later steps through the GITHUB_ENV file.
package workflow
