// Package refs classifies git reference names and
// converts them between the forms used by git and the
// GitHub API.
package refs

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Kind is the shape of a ref.
type Kind int

const (
	// KindOther is any ref that is not one of the
	// shapes below.
	KindOther Kind = iota
	// KindBranch is refs/heads/<name>.
	KindBranch
	// KindTag is refs/tags/<name>.
	KindTag
	// KindPullRequestHead is refs/pull/<n>/head.
	KindPullRequestHead
	// KindPullRequestMerge is refs/pull/<n>/merge.
	KindPullRequestMerge
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindBranch:
		return "branch"
	case KindTag:
		return "tag"
	case KindPullRequestHead:
		return "pull-request-head"
	case KindPullRequestMerge:
		return "pull-request-merge"
	default:
		return "other"
	}
}

// IsPullRequest reports whether k is either pull
// request ref.
func (k Kind) IsPullRequest() bool {
	return k == KindPullRequestHead || k == KindPullRequestMerge
}

const (
	headsPrefix   = "refs/heads/"
	tagsPrefix    = "refs/tags/"
	remotesPrefix = "refs/remotes/origin/"
)

var prRefRe = regexp.MustCompile(`^refs/pull/(\d+)/(merge|head)$`)

// ErrInvalidRef is returned for an unusable ref
// descriptor.
var ErrInvalidRef = errors.New("invalid ref")

// Classify returns the shape of ref. Every ref has
// exactly one kind.
func Classify(ref string) Kind {
	switch {
	case strings.HasPrefix(ref, headsPrefix):
		return KindBranch
	case strings.HasPrefix(ref, tagsPrefix):
		return KindTag
	}

	if m := prRefRe.FindStringSubmatch(ref); m != nil {
		if m[2] == "head" {
			return KindPullRequestHead
		}

		return KindPullRequestMerge
	}

	return KindOther
}

// IsBranch reports whether ref is refs/heads/*.
func IsBranch(ref string) bool {
	return Classify(ref) == KindBranch
}

// IsTagRef reports whether ref is refs/tags/*.
func IsTagRef(ref string) bool {
	return Classify(ref) == KindTag
}

// IsPrRef reports whether ref is refs/pull/<n>/merge or
// refs/pull/<n>/head.
func IsPrRef(ref string) bool {
	return Classify(ref).IsPullRequest()
}

// IsRemoteBranch reports whether ref is
// refs/remotes/origin/*.
func IsRemoteBranch(ref string) bool {
	return strings.HasPrefix(ref, remotesPrefix)
}

// Branch returns the branch name of a local or remote
// branch ref. For other refs it returns "" when
// defaultIsEmpty, else the ref without "refs/".
func Branch(ref string, defaultIsEmpty bool) string {
	switch {
	case IsBranch(ref):
		return strings.TrimPrefix(ref, headsPrefix)
	case IsRemoteBranch(ref):
		return strings.TrimPrefix(ref, remotesPrefix)
	case defaultIsEmpty:
		return ""
	default:
		return strings.TrimPrefix(ref, "refs/")
	}
}

// Tag returns the tag name of a tag ref, or "".
func Tag(ref string) string {
	if !IsTagRef(ref) {
		return ""
	}

	return strings.TrimPrefix(ref, tagsPrefix)
}

// PrNumber returns the pull request number of a pull
// request ref.
func PrNumber(ref string) (int, bool) {
	m := prRefRe.FindStringSubmatch(ref)
	if m == nil {
		return 0, false
	}

	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}

	return n, true
}

// PrMergeRef rewrites a pull request ref to its merge
// form. Other refs are returned unchanged.
func PrMergeRef(ref string) string {
	return prRefRe.ReplaceAllString(ref, "refs/pull/$1/merge")
}

// PrHeadRef rewrites a pull request ref to its head
// form. Other refs are returned unchanged.
func PrHeadRef(ref string) string {
	return prRefRe.ReplaceAllString(ref, "refs/pull/$1/head")
}

// Refspec returns the fetch refspec for ref on remote.
func Refspec(ref string, remote string) string {
	if IsBranch(ref) {
		name := Branch(ref, true)

		return fmt.Sprintf(
			"%s:refs/remotes/%s/%s", ref, remote, name,
		)
	}

	return ref + ":" + ref
}

// ForUpdate returns ref in the form expected by the
// git refs API (without the "refs/" prefix).
func ForUpdate(ref string) string {
	return strings.TrimPrefix(ref, "refs/")
}

// Descriptor identifies what to check out or update: a
// ref, the commit it points at, and its repository.
type Descriptor struct {
	Ref   string
	SHA   string
	Owner string
	Repo  string
	Kind  Kind
}

// NewDescriptor classifies ref once and returns the
// descriptor.
func NewDescriptor(ref, sha, owner, repo string) Descriptor {
	return Descriptor{
		Ref:   ref,
		SHA:   sha,
		Owner: owner,
		Repo:  repo,
		Kind:  Classify(ref),
	}
}

// Validate checks the descriptor carries what a
// checkout needs. Branch and pull request refs can be
// resolved without a SHA; other refs cannot.
func (d Descriptor) Validate() error {
	switch {
	case d.Ref == "":
		return fmt.Errorf("%w: empty ref", ErrInvalidRef)
	case d.Owner == "" || d.Repo == "":
		return fmt.Errorf(
			"%w: missing repository for %s",
			ErrInvalidRef, d.Ref,
		)
	case d.SHA == "" && (d.Kind == KindTag || d.Kind == KindOther):
		return fmt.Errorf(
			"%w: empty sha for %s", ErrInvalidRef, d.Ref,
		)
	}

	return nil
}

// FullName returns "owner/repo".
func (d Descriptor) FullName() string {
	return d.Owner + "/" + d.Repo
}
