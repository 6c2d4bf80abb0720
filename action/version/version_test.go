package version_test

import (
	"math"
	"sort"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/byte4ever/actionkit/action/version"
)

func TestCompare(t *testing.T) {
	t.Parallel()

	tests := []struct {
		a, b string
		want int
	}{
		{a: "v1.2.3", b: "v1.2.4", want: -1},
		{a: "v1.2.3", b: "v1.2.3", want: 0},
		{a: "v1.10.0", b: "v1.9.9", want: 1},
		{a: "v1", b: "v1.0.0", want: 0},
		{a: "v1", b: "v1.2.0", want: -1},
		{a: "2.0", b: "v1.99.99", want: 1},
		{a: "v1.2.3-beta", b: "v1.2.3", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_"+tt.b, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, version.Compare(tt.a, tt.b))
			assert.Equal(t, -tt.want, version.Compare(tt.b, tt.a))
		})
	}
}

func TestComparePrefix(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, version.ComparePrefix("v1", "v1.2.0"))
	assert.Equal(t, -1, version.ComparePrefix("v1.1", "v1.2.0"))
	assert.Equal(t, 1, version.ComparePrefix("v2.0.0", "v1"))
}

func TestCompare_sorts(t *testing.T) {
	t.Parallel()

	tags := []string{"v1.10.0", "v1.2.0", "v0.9", "v1.2"}

	sort.SliceStable(tags, func(i, j int) bool {
		return version.Compare(tags[i], tags[j]) < 0
	})

	assert.Equal(t, []string{"v0.9", "v1.2.0", "v1.2", "v1.10.0"}, tags)
	assert.True(t, version.Equal("v1.2", "v1.2.0"))
}

func TestNext(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		fn   func(string) (string, error)
		in   string
		want string
	}{
		{name: "patch", fn: version.NextPatch, in: "v1.2.3", want: "v1.2.4"},
		{name: "minor", fn: version.NextMinor, in: "v1.2.3", want: "v1.3.0"},
		{name: "major", fn: version.NextMajor, in: "v1.2.3", want: "v2.0.0"},
		{name: "patch no prefix", fn: version.NextPatch, in: "1.2", want: "v1.2.1"},
		{name: "patch prerelease", fn: version.NextPatch, in: "v1.2.3-rc.1", want: "v1.2.4"},
		{name: "minor extra parts", fn: version.NextMinor, in: "v1.2.3.4", want: "v1.3.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := tt.fn(tt.in)

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNext_invalid(t *testing.T) {
	t.Parallel()

	for _, fn := range []func(string) (string, error){
		version.NextPatch, version.NextMinor, version.NextMajor,
	} {
		_, err := fn("test")
		assert.ErrorIs(t, err, version.ErrInvalidVersion)

		_, err = fn("v1.x.0")
		assert.ErrorIs(t, err, version.ErrInvalidVersion)
	}
}

func TestNext_overflow(t *testing.T) {
	t.Parallel()

	huge := strconv.Itoa(math.MaxInt)

	_, err := version.NextMajor("v" + huge + ".0.0")
	require.ErrorIs(t, err, version.ErrInvalidVersion)

	_, err = version.NextPatch("v1.2." + huge)
	require.ErrorIs(t, err, version.ErrInvalidVersion)

	got, err := version.NextMinor("v" + huge + ".0.0")
	require.NoError(t, err)
	assert.Equal(t, "v"+huge+".1.0", got)
}

func TestTagNames(t *testing.T) {
	t.Parallel()

	assert.True(t, version.IsTagName("v1"))
	assert.True(t, version.IsTagName("1.2.3"))
	assert.False(t, version.IsTagName("release-1"))
	assert.True(t, version.IsValid("v1.2.3-beta.1+build"))
	assert.False(t, version.IsValid("v1.2"))
}

func TestLatest(t *testing.T) {
	t.Parallel()

	assert.Equal(t, version.Default, version.Latest(nil))
	assert.Equal(t, version.Default, version.Latest([]string{"latest"}))
	assert.Equal(
		t,
		"v1.10.0",
		version.Latest([]string{"v1.2.3", "1.10", "latest", "v1.9.9"}),
	)
}
