package github_test

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/byte4ever/actionkit/action/git"
	"github.com/byte4ever/actionkit/action/git/github"
	"github.com/byte4ever/actionkit/action/workflow"
)

var _ git.PullRequester = (*github.Helper)(nil)

type pullsServer struct {
	t        *testing.T
	existing []map[string]any
	created  map[string]any
	edits    []map[string]any
	comments []string
	deleted  []string
	delete   int
}

func (s *pullsServer) mux() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET "+repoPath+"/pulls",
		func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(s.t, "octo:feature", r.URL.Query().Get("head"))
			assert.Equal(s.t, "open", r.URL.Query().Get("state"))

			list := s.existing
			if list == nil {
				list = []map[string]any{}
			}

			writeJSON(w, http.StatusOK, list)
		})

	mux.HandleFunc("POST "+repoPath+"/pulls",
		func(w http.ResponseWriter, r *http.Request) {
			assert.NoError(s.t, json.NewDecoder(r.Body).Decode(&s.created))
			writeJSON(w, http.StatusCreated, map[string]any{
				"number":   9,
				"html_url": "https://github.com/octo/repo/pull/9",
			})
		})

	mux.HandleFunc("PATCH "+repoPath+"/pulls/{number}",
		func(w http.ResponseWriter, r *http.Request) {
			var edit map[string]any
			assert.NoError(s.t, json.NewDecoder(r.Body).Decode(&edit))
			edit["number"] = r.PathValue("number")
			s.edits = append(s.edits, edit)

			writeJSON(w, http.StatusOK, map[string]any{
				"number":   5,
				"html_url": "https://github.com/octo/repo/pull/5",
			})
		})

	mux.HandleFunc("POST "+repoPath+"/issues/{number}/comments",
		func(w http.ResponseWriter, r *http.Request) {
			var c struct {
				Body string `json:"body"`
			}
			assert.NoError(s.t, json.NewDecoder(r.Body).Decode(&c))
			s.comments = append(s.comments, r.PathValue("number")+":"+c.Body)

			writeJSON(w, http.StatusCreated, map[string]any{"id": 1})
		})

	mux.HandleFunc("DELETE "+repoPath+"/git/refs/heads/feature",
		func(w http.ResponseWriter, r *http.Request) {
			s.deleted = append(s.deleted, r.URL.Path)

			if s.delete == 0 {
				w.WriteHeader(http.StatusNoContent)

				return
			}

			msg := "Reference does not exist"
			if s.delete >= http.StatusInternalServerError {
				msg = "Server Error"
			}

			writeJSON(w, s.delete, map[string]string{"message": msg})
		})

	return mux
}

func TestOpenPR_creates(t *testing.T) {
	t.Parallel()

	s := &pullsServer{t: t}
	f := newFixture(t, s.mux(), branchContext())

	pr, err := f.helper.OpenPR(t.Context(), "feature", "main", "Title", "")

	require.NoError(t, err)
	assert.Equal(t, git.PullRequest{
		Number:  9,
		URL:     "https://github.com/octo/repo/pull/9",
		Created: true,
	}, pr)
	assert.Equal(t, "feature", s.created["head"])
	assert.Equal(t, "main", s.created["base"])
	assert.Equal(t, "Title", s.created["body"])
	assert.Empty(t, s.edits)
}

func TestOpenPR_updates_existing(t *testing.T) {
	t.Parallel()

	s := &pullsServer{
		t:        t,
		existing: []map[string]any{{"number": 5}},
	}
	f := newFixture(t, s.mux(), branchContext())

	pr, err := f.helper.OpenPR(
		t.Context(), "feature", "main", "Title", "Body",
	)

	require.NoError(t, err)
	assert.Equal(t, 5, pr.Number)
	assert.False(t, pr.Created)
	assert.Nil(t, s.created)
	require.Len(t, s.edits, 1)
	assert.Equal(t, "5", s.edits[0]["number"])
	assert.Equal(t, "open", s.edits[0]["state"])
	assert.Equal(t, "Body", s.edits[0]["body"])
}

func TestPullsCreateOrComment(t *testing.T) {
	t.Parallel()

	t.Run("comments existing", func(t *testing.T) {
		t.Parallel()

		s := &pullsServer{
			t:        t,
			existing: []map[string]any{{"number": 5}},
		}
		f := newFixture(t, s.mux(), branchContext())

		res, err := f.helper.PullsCreateOrComment(
			t.Context(), "refs/heads/feature",
			github.PRDetail{Title: "T", Body: "again"},
		)

		require.NoError(t, err)
		assert.True(t, res.Commented)
		assert.False(t, res.Created)
		assert.Equal(t, []string{"5:again"}, s.comments)
	})

	t.Run("creates missing", func(t *testing.T) {
		t.Parallel()

		s := &pullsServer{t: t}
		f := newFixture(t, s.mux(), branchContext())

		res, err := f.helper.PullsCreateOrComment(
			t.Context(), "feature",
			github.PRDetail{Title: "T", Body: "B"},
		)

		require.NoError(t, err)
		assert.True(t, res.Created)
		assert.Equal(t, 9, res.PullRequest.GetNumber())
		assert.Equal(t, "main", s.created["base"])
		assert.Empty(t, s.comments)
	})
}

func TestCreateCommentToPR_without_pr(t *testing.T) {
	t.Parallel()

	s := &pullsServer{t: t}
	f := newFixture(t, s.mux(), branchContext())

	ok, err := f.helper.CreateCommentToPR(t.Context(), "feature", "hi")

	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, s.comments)
}

func TestClosePR(t *testing.T) {
	t.Parallel()

	s := &pullsServer{
		t:        t,
		existing: []map[string]any{{"number": 5}},
		delete:   http.StatusUnprocessableEntity,
	}
	f := newFixture(t, s.mux(), branchContext())

	err := f.helper.ClosePR(t.Context(), "feature", "no more changes")

	require.NoError(t, err)
	assert.Equal(t, []string{"5:no more changes"}, s.comments)
	require.Len(t, s.edits, 1)
	assert.Equal(t, "closed", s.edits[0]["state"])
	assert.Equal(t,
		[]string{repoPath + "/git/refs/heads/feature"}, s.deleted,
	)
	assert.Equal(t,
		"::group::Closing PullRequest... [feature]\n"+
			"::endgroup::\n"+
			"::group::Deleting reference... [refs/heads/feature]\n"+
			"::endgroup::\n",
		f.out.String(),
	)
}

func TestClosePR_without_pr(t *testing.T) {
	t.Parallel()

	s := &pullsServer{t: t}
	f := newFixture(t, s.mux(), branchContext())

	err := f.helper.ClosePR(t.Context(), "heads/feature", "")

	require.NoError(t, err)
	assert.Empty(t, s.edits)
	assert.Len(t, s.deleted, 1)
	assert.Equal(t,
		"::group::Closing PullRequest... [feature]\n"+
			"> There is no PullRequest named [feature]\n"+
			"::endgroup::\n"+
			"::group::Deleting reference... [refs/heads/feature]\n"+
			"::endgroup::\n",
		f.out.String(),
	)
}

func TestClosePR_delete_failure(t *testing.T) {
	t.Parallel()

	s := &pullsServer{t: t, delete: http.StatusInternalServerError}
	f := newFixture(t, s.mux(), branchContext())

	err := f.helper.ClosePR(t.Context(), "feature", "")

	require.Error(t, err)
	assert.ErrorContains(t, err, "deleting ref")
}

func TestGetPR_cached(t *testing.T) {
	t.Parallel()

	var gets atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("GET "+repoPath+"/pulls/7",
		func(w http.ResponseWriter, _ *http.Request) {
			gets.Add(1)
			writeJSON(w, http.StatusOK, map[string]any{
				"number": 7,
				"title":  "Seven",
			})
		})

	wc := branchContext()
	wc.Ref = "refs/pull/7/merge"

	f := newFixture(t, mux, wc)

	for range 2 {
		pr, err := f.helper.GetPR(t.Context())
		require.NoError(t, err)
		assert.Equal(t, "Seven", pr.GetTitle())
	}

	assert.Equal(t, int32(1), gets.Load())
}

func TestGetPR_not_a_pr(t *testing.T) {
	t.Parallel()

	f := newFixture(t, http.NewServeMux(), branchContext())

	_, err := f.helper.GetPR(t.Context())

	require.ErrorIs(t, err, github.ErrNoPullRequest)
}

func TestUser(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /users/bob",
		func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{
				"login": "bob",
				"id":    42,
			})
		})

	wc := branchContext()
	wc.Payload.Sender = &workflow.Sender{Login: "bob", Type: "User"}

	f := newFixture(t, mux, wc)

	u, err := f.helper.User(t.Context())

	require.NoError(t, err)
	assert.Equal(t, github.User{
		Login: "bob",
		Name:  "bob",
		Email: "42+bob@users.noreply.github.com",
		ID:    42,
	}, u)
}

func TestSender_fallbacks(t *testing.T) {
	t.Parallel()

	bot := branchContext()
	bot.Payload.Sender = &workflow.Sender{
		Login: "dependabot[bot]", Type: "Bot",
	}

	h, err := github.NewWithHTTPClient(
		http.DefaultClient, "http://127.0.0.1/", bot,
	)
	require.NoError(t, err)
	assert.Equal(t, "actor", h.Sender())

	h, err = github.NewWithHTTPClient(
		http.DefaultClient, "http://127.0.0.1/", bot,
		github.WithSender("alice"),
	)
	require.NoError(t, err)
	assert.Equal(t, "alice", h.Sender())
}

func TestDefaultBranch(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("GET "+repoPath,
		func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{
				"default_branch": "trunk",
			})
		})

	f := newFixture(t, mux, branchContext())

	branch, err := f.helper.DefaultBranch(t.Context())

	require.NoError(t, err)
	assert.Equal(t, "trunk", branch)
}

func TestGetRef_missing(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("GET "+repoPath+"/git/ref/heads/gone",
		func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusNotFound, map[string]string{
				"message": "Not Found",
			})
		})

	f := newFixture(t, mux, branchContext())

	ref, err := f.helper.GetRef(t.Context(), "refs/heads/gone")

	require.NoError(t, err)
	assert.Nil(t, ref)
}

func TestCreateRef(t *testing.T) {
	t.Parallel()

	var body struct {
		Ref string `json:"ref"`
		SHA string `json:"sha"`
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST "+repoPath+"/git/refs",
		func(w http.ResponseWriter, r *http.Request) {
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			writeJSON(w, http.StatusCreated, map[string]any{
				"ref":    body.Ref,
				"object": map[string]string{"sha": body.SHA},
			})
		})

	f := newFixture(t, mux, branchContext())

	require.NoError(t, f.helper.CreateRef(t.Context(), "abc123", "refs/heads/new"))
	assert.Equal(t, "refs/heads/new", body.Ref)
	assert.Equal(t, "abc123", body.SHA)

	require.NoError(t, f.helper.CreateRef(t.Context(), "def456", "heads/other"))
	assert.Equal(t, "refs/heads/other", body.Ref)
	assert.Equal(t, "def456", body.SHA)
}

func TestCreateRef_already_exists(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("POST "+repoPath+"/git/refs",
		func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
				"message": "Reference already exists",
			})
		})

	f := newFixture(t, mux, branchContext())

	err := f.helper.CreateRef(t.Context(), "abc123", "heads/main")

	require.Error(t, err)
	assert.ErrorContains(t, err, "creating ref: heads/main")
	assert.ErrorContains(t, err, "Reference already exists")
}
