package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asynkron/liveview/internal/store"
)

func TestContentReturnsMergedViewAndFileList(t *testing.T) {
	h, st, _ := newTestHandler(t)

	_, err := st.CreateWithID("a.md", "# One")
	require.NoError(t, err)
	_, err = st.CreateWithID("b.md", "# Two")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.Content(rec, httptest.NewRequest(http.MethodGet, "/api/content", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp ContentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Content, "# One")
	assert.Contains(t, resp.Content, "# Two")
	assert.Contains(t, resp.Content, store.ContentSeparator)

	require.Len(t, resp.Files, 2)
	for _, f := range resp.Files {
		assert.Equal(t, uint64(1), f.Revision)
		assert.NotZero(t, f.Size)
		assert.NotZero(t, f.Created)
	}
}

func TestContentEmptyStoreReturnsFallback(t *testing.T) {
	h, _, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.Content(rec, httptest.NewRequest(http.MethodGet, "/api/content", nil))

	var resp ContentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, store.FallbackContent, resp.Content)
	assert.Empty(t, resp.Files)
}

func TestFileReturnsSingleDocument(t *testing.T) {
	h, st, _ := newTestHandler(t)

	_, err := st.CreateWithID("a.md", "# Body")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.File(rec, httptest.NewRequest(http.MethodGet, "/api/file?id=a.md", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp FileResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "a.md", resp.ID)
	assert.Equal(t, "# Body", resp.Content)
	assert.Equal(t, uint64(1), resp.Revision)
}

func TestFileRequiresID(t *testing.T) {
	h, _, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.File(rec, httptest.NewRequest(http.MethodGet, "/api/file", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFileUnknownIDIs404(t *testing.T) {
	h, _, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.File(rec, httptest.NewRequest(http.MethodGet, "/api/file?id=missing.md", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteRemovesDocument(t *testing.T) {
	h, st, _ := newTestHandler(t)

	_, err := st.CreateWithID("a.md", "# A")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.Delete(rec, httptest.NewRequest(http.MethodPost, "/api/delete", strings.NewReader(`{"fileId":"a.md"}`)))

	assert.Equal(t, http.StatusOK, rec.Code)
	_, err = st.Get("a.md")
	assert.ErrorIs(t, err, store.ErrNotFound)

	// Deleting twice is a 404, not an error.
	rec = httptest.NewRecorder()
	h.Delete(rec, httptest.NewRequest(http.MethodPost, "/api/delete", strings.NewReader(`{"fileId":"a.md"}`)))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteValidatesBody(t *testing.T) {
	h, _, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.Delete(rec, httptest.NewRequest(http.MethodPost, "/api/delete", strings.NewReader(`not json`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.Delete(rec, httptest.NewRequest(http.MethodPost, "/api/delete", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRawServesMergedMarkdown(t *testing.T) {
	h, st, _ := newTestHandler(t)

	_, err := st.CreateWithID("a.md", "# Raw body")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.Raw(rec, httptest.NewRequest(http.MethodGet, "/raw", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/markdown; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "# Raw body", rec.Body.String())
}

func TestHealthReportsCounts(t *testing.T) {
	h, st, _ := newTestHandler(t)

	_, err := st.CreateWithID("a.md", "# A")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, 1, resp.Documents)
	assert.Contains(t, resp.Subscribers, "content")
	assert.Contains(t, resp.Subscribers, "chat")
}
