package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crateview/docquery/internal/core/domain"
	"github.com/crateview/docquery/internal/core/ports/driven"
	"github.com/crateview/docquery/internal/core/ports/driving"
)

// mockIngest scripts the write path.
type mockIngest struct {
	results    []driving.IngestResult
	reindexN   int
	reindexErr error
	deleteErr  error
	gotUploads []driving.Upload
	deletedID  string
}

func (m *mockIngest) IngestBatch(_ context.Context, uploads []driving.Upload) ([]driving.IngestResult, error) {
	m.gotUploads = uploads
	return m.results, nil
}

func (m *mockIngest) Reindex(_ context.Context, _ string) (int, error) {
	return m.reindexN, m.reindexErr
}

func (m *mockIngest) Delete(_ context.Context, id string) error {
	m.deletedID = id
	return m.deleteErr
}

// mockQuery scripts the read path.
type mockQuery struct {
	result *driving.QueryResult
	err    error
	gotQ   string
	gotOpt driving.QueryOptions
}

func (m *mockQuery) Answer(_ context.Context, query string, opts driving.QueryOptions) (*driving.QueryResult, error) {
	m.gotQ = query
	m.gotOpt = opts
	return m.result, m.err
}

// mockDocuments scripts document reads.
type mockDocuments struct {
	docs    []domain.Document
	doc     *domain.Document
	content []byte
	err     error
}

func (m *mockDocuments) List(context.Context) ([]domain.Document, error) {
	return m.docs, m.err
}

func (m *mockDocuments) Get(context.Context, string) (*domain.Document, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.doc, nil
}

func (m *mockDocuments) Content(context.Context, string) (*domain.Document, []byte, error) {
	if m.err != nil {
		return nil, nil, m.err
	}
	return m.doc, m.content, nil
}

// mockHistory serves scripted sessions.
type mockHistory struct {
	sessions []driven.SessionSummary
	turns    []driven.Turn
}

func (m *mockHistory) AppendTurn(context.Context, string, driven.Turn) error { return nil }
func (m *mockHistory) GetSession(context.Context, string) ([]driven.Turn, error) {
	return m.turns, nil
}
func (m *mockHistory) ListSessions(context.Context) ([]driven.SessionSummary, error) {
	return m.sessions, nil
}

func newTestServer(ingest *mockIngest, query *mockQuery, documents *mockDocuments, history driven.HistoryStore) http.Handler {
	if ingest == nil {
		ingest = &mockIngest{}
	}
	if query == nil {
		query = &mockQuery{result: &driving.QueryResult{}}
	}
	if documents == nil {
		documents = &mockDocuments{}
	}
	return NewServer(ingest, query, documents, history, nil).Handler()
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	h := newTestServer(nil, nil, nil, nil)
	rec := doJSON(t, h, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
}

func TestUpload(t *testing.T) {
	ingest := &mockIngest{results: []driving.IngestResult{
		{Document: domain.Document{ID: "doc1", OriginalName: "a.csv"}, ChunksIndexed: 4},
		{Err: domain.ErrUnsupportedType},
	}}
	h := newTestServer(ingest, nil, nil, nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("files", "a.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte("name\nwidget\n"))
	require.NoError(t, err)
	part, err = mw.CreateFormFile("files", "b.mp4")
	require.NoError(t, err)
	_, err = part.Write([]byte("binary"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/files/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Files []uploadResult `json:"files"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Files, 2)

	assert.Equal(t, "doc1", resp.Files[0].FileID)
	assert.Equal(t, "a.csv", resp.Files[0].FileName)
	assert.Equal(t, "indexed", resp.Files[0].Status)
	assert.Equal(t, 4, resp.Files[0].ChunksIndexed)

	assert.Equal(t, "failed", resp.Files[1].Status)
	assert.NotEmpty(t, resp.Files[1].Error)

	require.Len(t, ingest.gotUploads, 2)
	assert.Equal(t, []byte("name\nwidget\n"), ingest.gotUploads[0].Data)
}

func TestUploadNoFiles(t *testing.T) {
	h := newTestServer(nil, nil, nil, nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("other", "value"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/files/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListFiles(t *testing.T) {
	now := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	documents := &mockDocuments{docs: []domain.Document{
		{ID: "doc1", OriginalName: "a.csv", ContentType: "text/csv", Size: 10, UploadedAt: now},
	}}
	h := newTestServer(nil, nil, documents, nil)

	rec := doJSON(t, h, http.MethodGet, "/api/files/", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Files []fileView `json:"files"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Files, 1)
	assert.Equal(t, "doc1", resp.Files[0].ID)
	assert.Equal(t, "a.csv", resp.Files[0].Name)
}

func TestDownload(t *testing.T) {
	documents := &mockDocuments{
		doc:     &domain.Document{ID: "doc1", OriginalName: "report.pdf", ContentType: "application/pdf"},
		content: []byte("%PDF-1.4"),
	}
	h := newTestServer(nil, nil, documents, nil)

	rec := doJSON(t, h, http.MethodGet, "/api/files/doc1/download", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "report.pdf")
	assert.Equal(t, "%PDF-1.4", rec.Body.String())
}

func TestDownloadNotFound(t *testing.T) {
	documents := &mockDocuments{err: domain.ErrNotFound}
	h := newTestServer(nil, nil, documents, nil)

	rec := doJSON(t, h, http.MethodGet, "/api/files/nope/download", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReindex(t *testing.T) {
	ingest := &mockIngest{reindexN: 7}
	h := newTestServer(ingest, nil, nil, nil)

	rec := doJSON(t, h, http.MethodPost, "/api/files/doc1/reindex", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"chunks_indexed":7`)
}

func TestDeleteFile(t *testing.T) {
	ingest := &mockIngest{}
	h := newTestServer(ingest, nil, nil, nil)

	rec := doJSON(t, h, http.MethodDelete, "/api/files/doc1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "doc1", ingest.deletedID)
}

func TestDeleteFileNotFound(t *testing.T) {
	ingest := &mockIngest{deleteErr: domain.ErrNotFound}
	h := newTestServer(ingest, nil, nil, nil)

	rec := doJSON(t, h, http.MethodDelete, "/api/files/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestChat(t *testing.T) {
	query := &mockQuery{result: &driving.QueryResult{
		Answer: domain.StructuredAnswer{
			Answer:     "widgets cost 9.99",
			Confidence: 0.9,
			Citations: []domain.Citation{{
				ChunkID:      "doc1:0",
				DocumentID:   "doc1",
				DocumentName: "inventory.csv",
				Locator:      "row 0",
				Snippet:      "price: 9.99",
				Confidence:   0.95,
			}},
		},
	}}
	h := newTestServer(nil, query, nil, nil)

	rec := doJSON(t, h, http.MethodPost, "/api/chat", chatRequest{
		Query:     "how much is a widget?",
		TopK:      3,
		FileIDs:   []string{"doc1"},
		SessionID: "sess1",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp chatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "widgets cost 9.99", resp.Answer)
	assert.InDelta(t, 0.9, resp.Confidence, 1e-9)
	assert.False(t, resp.Degraded)
	require.Len(t, resp.Citations, 1)
	assert.Equal(t, "doc1", resp.Citations[0].FileID)
	assert.Equal(t, "inventory.csv", resp.Citations[0].FileName)
	assert.Equal(t, "row 0", resp.Citations[0].Locator)

	assert.Equal(t, "how much is a widget?", query.gotQ)
	assert.Equal(t, 3, query.gotOpt.TopK)
	assert.Equal(t, []string{"doc1"}, query.gotOpt.DocumentIDs)
	assert.Equal(t, "sess1", query.gotOpt.SessionID)
}

func TestChatInvalidJSON(t *testing.T) {
	h := newTestServer(nil, nil, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatEmptyQuery(t *testing.T) {
	query := &mockQuery{err: domain.ErrInvalidInput}
	h := newTestServer(nil, query, nil, nil)

	rec := doJSON(t, h, http.MethodPost, "/api/chat", chatRequest{Query: ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListSessions(t *testing.T) {
	history := &mockHistory{sessions: []driven.SessionSummary{
		{SessionID: "sess1", TurnCount: 2, LastQuery: "latest"},
	}}
	h := newTestServer(nil, nil, nil, history)

	rec := doJSON(t, h, http.MethodGet, "/api/history/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"sess1"`)
	assert.Contains(t, rec.Body.String(), `"turn_count":2`)
}

func TestGetSession(t *testing.T) {
	history := &mockHistory{turns: []driven.Turn{
		{Query: "q1", Answer: domain.StructuredAnswer{Answer: "a1"}},
	}}
	h := newTestServer(nil, nil, nil, history)

	rec := doJSON(t, h, http.MethodGet, "/api/history/sess1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		SessionID string     `json:"session_id"`
		Turns     []turnView `json:"turns"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "sess1", resp.SessionID)
	require.Len(t, resp.Turns, 1)
	assert.Equal(t, "q1", resp.Turns[0].Query)
	assert.Equal(t, "a1", resp.Turns[0].Answer)
}

func TestHistoryWithoutStore(t *testing.T) {
	h := newTestServer(nil, nil, nil, nil)

	rec := doJSON(t, h, http.MethodGet, "/api/history/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"sessions":[]`)

	rec = doJSON(t, h, http.MethodGet, "/api/history/sess1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"turns":[]`)
}
