// Package version compares and bumps "vMAJOR.MINOR.PATCH"
// tag names.
package version

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Default is the version reported when no tag exists.
const Default = "v0.0.0"

// ErrInvalidVersion is returned for a version whose
// components are not numeric.
var ErrInvalidVersion = errors.New("invalid version")

var (
	tagNameRe = regexp.MustCompile(`^v?\d+(\.\d+)*$`)
	semverRe  = regexp.MustCompile(
		`^v?(0|[1-9]\d*)\.(0|[1-9]\d*)\.(0|[1-9]\d*)` +
			`(-[0-9A-Za-z-]+(\.[0-9A-Za-z-]+)*)?` +
			`(\+[0-9A-Za-z-]+(\.[0-9A-Za-z-]+)*)?$`,
	)
	leadingDigitsRe = regexp.MustCompile(`^\d+`)
)

// Compare orders two versions component by component.
// A missing component counts as zero, so "v1" equals
// "v1.0.0". It returns -1, 0 or 1.
func Compare(a, b string) int {
	return compare(split(a), split(b), false)
}

// ComparePrefix compares only the components both
// versions have, so "v1" equals "v1.2.0".
func ComparePrefix(a, b string) int {
	return compare(split(a), split(b), true)
}

// Equal reports whether a and b are the same version.
func Equal(a, b string) bool {
	return Compare(a, b) == 0
}

// IsTagName reports whether s looks like a version tag
// such as "v1", "1.2" or "v1.2.3".
func IsTagName(s string) bool {
	return tagNameRe.MatchString(s)
}

// IsValid reports whether s is a semantic version with
// an optional "v" prefix.
func IsValid(s string) bool {
	return semverRe.MatchString(s)
}

// Normalize returns s as "vX.Y.Z". Missing components
// become zero and extra ones are dropped.
func Normalize(s string) (string, error) {
	fr, err := fragments(s)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("v%d.%d.%d", fr[0], fr[1], fr[2]), nil
}

// NextPatch returns v with the patch component
// incremented.
func NextPatch(v string) (string, error) {
	return next(v, 2)
}

// NextMinor returns v with the minor component
// incremented and patch reset.
func NextMinor(v string) (string, error) {
	return next(v, 1)
}

// NextMajor returns v with the major component
// incremented and the others reset.
func NextMajor(v string) (string, error) {
	return next(v, 0)
}

// Latest returns the highest version tag among tags in
// normalized form, or Default when none qualifies.
func Latest(tags []string) string {
	best := ""

	for _, t := range tags {
		if !IsTagName(t) {
			continue
		}

		if best == "" || Compare(t, best) > 0 {
			best = t
		}
	}

	if best == "" {
		return Default
	}

	n, err := Normalize(best)
	if err != nil {
		return Default
	}

	return n
}

func next(v string, level int) (string, error) {
	const errCtx = "generating next version"

	fr, err := fragments(v)
	if err != nil {
		return "", fmt.Errorf("%s: %w", errCtx, err)
	}

	if fr[level] == math.MaxInt {
		return "", fmt.Errorf(
			"%s: %q: component overflows: %w",
			errCtx, v, ErrInvalidVersion,
		)
	}

	fr[level]++

	for i := level + 1; i < len(fr); i++ {
		fr[i] = 0
	}

	return fmt.Sprintf("v%d.%d.%d", fr[0], fr[1], fr[2]), nil
}

// fragments parses the first three components of v.
// Pre-release and build suffixes are ignored.
func fragments(v string) ([3]int, error) {
	var fr [3]int

	s := strings.TrimSpace(v)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "v"), "V")

	if i := strings.IndexAny(s, "-+"); i >= 0 {
		s = s[:i]
	}

	parts := strings.Split(s, ".")

	for i := 0; i < len(fr) && i < len(parts); i++ {
		n, err := strconv.Atoi(parts[i])
		if err != nil || n < 0 {
			return fr, fmt.Errorf("%w: %q", ErrInvalidVersion, v)
		}

		fr[i] = n
	}

	return fr, nil
}

func split(v string) []string {
	return strings.Split(strings.TrimPrefix(v, "v"), ".")
}

func compare(a, b []string, commonOnly bool) int {
	n := max(len(a), len(b))
	if commonOnly {
		n = min(len(a), len(b))
	}

	for i := range n {
		x, y := component(a, i), component(b, i)

		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
	}

	return 0
}

// component returns the numeric prefix of parts[i], or
// zero when it is missing or not numeric.
func component(parts []string, i int) int {
	if i >= len(parts) {
		return 0
	}

	n, err := strconv.Atoi(leadingDigitsRe.FindString(parts[i]))
	if err != nil {
		return 0
	}

	return n
}
