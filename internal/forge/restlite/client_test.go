package restlite

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diamond-stack/diamond/internal/forge"
)

func TestRestPRToPullRequestMapsState(t *testing.T) {
	r := restPR{Number: 7, Title: "t", State: "declined"}
	pr := r.toPullRequest()
	assert.Equal(t, forge.PRStateClosed, pr.State)
	assert.Equal(t, int64(7), pr.Number)
}

func TestFindPRQueriesGiteaEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/repos/org/repo/pulls", r.URL.Path)
		assert.Equal(t, "feature", r.URL.Query().Get("head"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]restPR{{Number: 3, Title: "feature PR", Head: struct {
			Ref string `json:"ref"`
		}{Ref: "feature"}}})
	}))
	defer srv.Close()

	c, err := New(HostGitea, "tok", srv.URL, "org/repo", nil)
	require.NoError(t, err)

	pr, err := c.GetPRInfo(context.Background(), "feature")
	require.NoError(t, err)
	assert.Equal(t, "feature PR", pr.Title)
	assert.Equal(t, int64(3), pr.Number)
}

func TestPRExistsFalseWhenNoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]restPR{})
	}))
	defer srv.Close()

	c, err := New(HostBitbucket, "tok", srv.URL, "org/repo", nil)
	require.NoError(t, err)

	exists, err := c.PRExists(context.Background(), "feature")
	require.NoError(t, err)
	assert.False(t, exists)
}
