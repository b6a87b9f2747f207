package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/threadtally/threadtally/internal/config"
	"github.com/threadtally/threadtally/internal/store"
)

func newTestServer(t *testing.T) (*Server, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st, err := store.Open(filepath.Join(t.TempDir(), "tally.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	s := NewServer(config.Default(), st)
	return s, s.SetupRouter()
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), "body: %s", w.Body.String())
	return w.Code, out
}

const threadPayload = `[{
	"id": "t1",
	"title": "Best bookshelf speakers?",
	"body": "The KEF Q150 is great, much better than the kef-q150 I had",
	"score": 10,
	"comments": [
		{"id": "c1", "parent_id": "t1", "body": "Agreed, KEF Q150 > ELAC B6.2", "score": 5}
	]
}]`

func TestImportThreads(t *testing.T) {
	_, r := newTestServer(t)

	code, body := doJSON(t, r, http.MethodPost, "/threads", threadPayload)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), body["imported"])
	assert.Equal(t, float64(0), body["duplicates"])

	// Same payload again: everything is a duplicate.
	code, body = doJSON(t, r, http.MethodPost, "/threads", threadPayload)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(0), body["imported"])
	assert.Equal(t, float64(1), body["duplicates"])
}

func TestImportThreadsSkipsMalformedDocuments(t *testing.T) {
	_, r := newTestServer(t)

	payload := `[
		{"id": "t1", "body": "fine", "score": 1},
		{"id": "t2", "body": "broken", "score": "ten"}
	]`
	code, body := doJSON(t, r, http.MethodPost, "/threads", payload)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), body["imported"])
	assert.Equal(t, float64(1), body["skipped"])
}

func TestImportThreadsRejectsBadPayload(t *testing.T) {
	_, r := newTestServer(t)

	code, body := doJSON(t, r, http.MethodPost, "/threads", "not json")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, body, "error")
}

func TestImportRunLeaderboardFlow(t *testing.T) {
	_, r := newTestServer(t)

	code, _ := doJSON(t, r, http.MethodPost, "/threads", threadPayload)
	require.Equal(t, http.StatusOK, code)

	code, body := doJSON(t, r, http.MethodPost, "/run", "")
	require.Equal(t, http.StatusOK, code)
	assert.NotEmpty(t, body["run_id"])
	assert.Equal(t, float64(1), body["docs_processed"])
	assert.Equal(t, float64(2), body["records"])
	assert.Equal(t, float64(2), body["entities"])

	code, body = doJSON(t, r, http.MethodGet, "/leaderboard", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "v2", body["variant"])

	rows, ok := body["rows"].([]any)
	require.True(t, ok)
	require.Len(t, rows, 2)

	top := rows[0].(map[string]any)
	assert.Equal(t, float64(1), top["rank"])
	assert.Equal(t, "KEF Q150", top["canonical_model"])
	assert.Equal(t, float64(3), top["mentions"])
	assert.Equal(t, float64(15), top["vote_score"])
}

func TestLeaderboardQueryParams(t *testing.T) {
	_, r := newTestServer(t)

	code, _ := doJSON(t, r, http.MethodPost, "/threads", threadPayload)
	require.Equal(t, http.StatusOK, code)
	code, _ = doJSON(t, r, http.MethodPost, "/run", "")
	require.Equal(t, http.StatusOK, code)

	// n=0 clamps to Top-1.
	code, body := doJSON(t, r, http.MethodGet, "/leaderboard?n=0", "")
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["rows"].([]any), 1)

	// n beyond the cap returns everything available.
	code, body = doJSON(t, r, http.MethodGet, "/leaderboard?n=500", "")
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["rows"].([]any), 2)

	code, body = doJSON(t, r, http.MethodGet, "/leaderboard?variant=v1", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "v1", body["variant"])
}

func TestLeaderboardBeforeAnyRun(t *testing.T) {
	_, r := newTestServer(t)

	code, body := doJSON(t, r, http.MethodGet, "/leaderboard", "")
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, body["run_id"])
	assert.Empty(t, body["rows"])
}

func TestRunOnEmptyStore(t *testing.T) {
	_, r := newTestServer(t)

	code, body := doJSON(t, r, http.MethodPost, "/run", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(0), body["docs_processed"])
	assert.Equal(t, float64(0), body["entities"])
}

func TestCandidates(t *testing.T) {
	_, r := newTestServer(t)

	payload := `[{"id": "t1", "body": "Thoughts on the KEF Q150?", "score": 1,
		"comments": [{"id": "c1", "body": "The R300 arrived today", "score": 1}]}]`
	code, _ := doJSON(t, r, http.MethodPost, "/threads", payload)
	require.Equal(t, http.StatusOK, code)
	code, _ = doJSON(t, r, http.MethodPost, "/run", "")
	require.Equal(t, http.StatusOK, code)

	code, body := doJSON(t, r, http.MethodGet, "/candidates", "")
	require.Equal(t, http.StatusOK, code)

	cands, ok := body["candidates"].([]any)
	require.True(t, ok)
	require.Len(t, cands, 1)
	assert.Equal(t, "R300", cands[0].(map[string]any)["token"])
}
