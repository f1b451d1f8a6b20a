package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/crateview/docquery/internal/core/domain"
	"github.com/crateview/docquery/internal/core/ports/driving"
)

// maxUploadBytes caps one upload request.
const maxUploadBytes = 128 << 20

// errorResponse is the common error payload.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// respondJSON writes a JSON response.
func respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// respondError writes an error JSON response.
func respondError(w http.ResponseWriter, statusCode int, code, message string) {
	respondJSON(w, statusCode, errorResponse{Error: code, Message: message})
}

// respondDomainError maps domain errors onto HTTP statuses.
func respondDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		respondError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domain.ErrInvalidInput):
		respondError(w, http.StatusBadRequest, "invalid_input", err.Error())
	case errors.Is(err, domain.ErrUnsupportedType):
		respondError(w, http.StatusUnsupportedMediaType, "unsupported_type", err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "internal", err.Error())
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ==================== Files ====================

// fileView is the document representation served by the API.
type fileView struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

func toFileView(doc domain.Document) fileView {
	return fileView{
		ID:          doc.ID,
		Name:        doc.OriginalName,
		ContentType: doc.ContentType,
		Size:        doc.Size,
		UploadedAt:  doc.UploadedAt,
	}
}

// uploadResult is the per-file outcome of an upload batch.
type uploadResult struct {
	FileID        string `json:"file_id,omitempty"`
	FileName      string `json:"file_name"`
	Status        string `json:"status"`
	ChunksIndexed int    `json:"chunks_indexed"`
	Error         string `json:"error,omitempty"`
}

// handleUpload accepts a multipart batch under the "files" field and
// ingests every part. One bad file never fails the batch.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_multipart", err.Error())
		return
	}
	defer r.MultipartForm.RemoveAll() //nolint:errcheck

	fileHeaders := r.MultipartForm.File["files"]
	if len(fileHeaders) == 0 {
		respondError(w, http.StatusBadRequest, "no_files", "multipart field 'files' is empty")
		return
	}

	uploads := make([]driving.Upload, 0, len(fileHeaders))
	for _, fh := range fileHeaders {
		f, err := fh.Open()
		if err != nil {
			respondError(w, http.StatusBadRequest, "unreadable_file", fmt.Sprintf("%s: %v", fh.Filename, err))
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			respondError(w, http.StatusBadRequest, "unreadable_file", fmt.Sprintf("%s: %v", fh.Filename, err))
			return
		}
		uploads = append(uploads, driving.Upload{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}

	results, err := s.ingest.IngestBatch(r.Context(), uploads)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	out := make([]uploadResult, len(results))
	for i, res := range results {
		out[i] = uploadResult{
			FileID:        res.Document.ID,
			FileName:      uploads[i].Filename,
			ChunksIndexed: res.ChunksIndexed,
			Status:        "indexed",
		}
		if res.Err != nil {
			out[i].Status = "failed"
			out[i].Error = res.Err.Error()
		}
	}
	respondJSON(w, http.StatusOK, map[string]any{"files": out})
}

func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	docs, err := s.documents.List(r.Context())
	if err != nil {
		respondDomainError(w, err)
		return
	}
	views := make([]fileView, len(docs))
	for i, doc := range docs {
		views[i] = toFileView(doc)
	}
	respondJSON(w, http.StatusOK, map[string]any{"files": views})
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	doc, data, err := s.documents.Content(r.Context(), id)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.OriginalName))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleReindex(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	count, err := s.ingest.Reindex(r.Context(), id)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"file_id": id, "chunks_indexed": count})
}

func (s *Server) handleDeleteFile(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.ingest.Delete(r.Context(), id); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"file_id": id, "deleted": true})
}

// ==================== Chat ====================

// chatRequest is the question payload.
type chatRequest struct {
	Query     string   `json:"query"`
	TopK      int      `json:"top_k,omitempty"`
	FileIDs   []string `json:"file_ids,omitempty"`
	SessionID string   `json:"session_id,omitempty"`
}

// citationView is the citation representation served by the API.
type citationView struct {
	ChunkID    string  `json:"chunk_id"`
	FileID     string  `json:"file_id"`
	FileName   string  `json:"file_name"`
	Locator    string  `json:"locator,omitempty"`
	Snippet    string  `json:"snippet"`
	Confidence float64 `json:"confidence"`
}

// chatResponse is the answer payload.
type chatResponse struct {
	Answer     string         `json:"answer"`
	Citations  []citationView `json:"citations"`
	Confidence float64        `json:"confidence"`
	Degraded   bool           `json:"degraded"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	result, err := s.query.Answer(r.Context(), req.Query, driving.QueryOptions{
		TopK:        req.TopK,
		DocumentIDs: req.FileIDs,
		SessionID:   req.SessionID,
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}

	citations := make([]citationView, len(result.Answer.Citations))
	for i, c := range result.Answer.Citations {
		citations[i] = citationView{
			ChunkID:    c.ChunkID,
			FileID:     c.DocumentID,
			FileName:   c.DocumentName,
			Locator:    c.Locator,
			Snippet:    c.Snippet,
			Confidence: c.Confidence,
		}
	}
	respondJSON(w, http.StatusOK, chatResponse{
		Answer:     result.Answer.Answer,
		Citations:  citations,
		Confidence: result.Answer.Confidence,
		Degraded:   result.Degraded,
	})
}

// ==================== History ====================

type sessionView struct {
	SessionID string    `json:"session_id"`
	TurnCount int       `json:"turn_count"`
	LastQuery string    `json:"last_query"`
	UpdatedAt time.Time `json:"updated_at"`
}

type turnView struct {
	Query     string    `json:"query"`
	Answer    string    `json:"answer"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		respondJSON(w, http.StatusOK, map[string]any{"sessions": []sessionView{}})
		return
	}
	sessions, err := s.history.ListSessions(r.Context())
	if err != nil {
		respondDomainError(w, err)
		return
	}
	views := make([]sessionView, len(sessions))
	for i, sess := range sessions {
		views[i] = sessionView{
			SessionID: sess.SessionID,
			TurnCount: sess.TurnCount,
			LastQuery: sess.LastQuery,
			UpdatedAt: sess.UpdatedAt,
		}
	}
	respondJSON(w, http.StatusOK, map[string]any{"sessions": views})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if s.history == nil {
		respondJSON(w, http.StatusOK, map[string]any{"session_id": id, "turns": []turnView{}})
		return
	}
	turns, err := s.history.GetSession(r.Context(), id)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	views := make([]turnView, len(turns))
	for i, turn := range turns {
		views[i] = turnView{
			Query:     turn.Query,
			Answer:    turn.Answer.Answer,
			CreatedAt: turn.CreatedAt,
		}
	}
	respondJSON(w, http.StatusOK, map[string]any{"session_id": id, "turns": views})
}
