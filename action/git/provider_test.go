package git_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/byte4ever/actionkit/action/git"
)

func TestOpenerFunc_passes_args(t *testing.T) {
	t.Parallel()

	var got []string

	fn := git.OpenerFunc(
		func(
			_ context.Context,
			from string,
			to string,
			title string,
			body string,
		) (git.PullRequest, error) {
			got = []string{from, to, title, body}

			return git.PullRequest{Number: 8, Created: true}, nil
		},
	)

	pr, err := fn.OpenPR(
		t.Context(), "feature/x", "main", "my title", "my body",
	)

	require.NoError(t, err)
	assert.Equal(t, git.PullRequest{Number: 8, Created: true}, pr)
	assert.Equal(t,
		[]string{"feature/x", "main", "my title", "my body"}, got,
	)
}

func TestOpenerFunc_empty_body_uses_title(t *testing.T) {
	t.Parallel()

	var gotBody string

	fn := git.OpenerFunc(
		func(
			_ context.Context,
			_ string,
			_ string,
			_ string,
			body string,
		) (git.PullRequest, error) {
			gotBody = body

			return git.PullRequest{}, nil
		},
	)

	_, err := fn.OpenPR(t.Context(), "a", "b", "the title", "")

	require.NoError(t, err)
	assert.Equal(t, "the title", gotBody)
}

func TestOpenerFunc_propagates_error(t *testing.T) {
	t.Parallel()

	errBoom := errors.New("boom")

	fn := git.OpenerFunc(
		func(
			context.Context, string, string, string, string,
		) (git.PullRequest, error) {
			return git.PullRequest{}, errBoom
		},
	)

	_, err := fn.OpenPR(t.Context(), "a", "b", "t", "x")

	require.ErrorIs(t, err, errBoom)
}
