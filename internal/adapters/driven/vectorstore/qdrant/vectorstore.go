// Package qdrant provides a vector store backed by a Qdrant server via
// its REST API. Each document gets its own collection; cosine distance
// is configured at collection creation.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/crateview/docquery/internal/core/ports/driven"
)

// Ensure VectorStore implements the interface.
var _ driven.VectorStore = (*VectorStore)(nil)

// Default configuration values.
const (
	DefaultBaseURL          = "http://localhost:6333"
	DefaultTimeout          = 15 * time.Second
	DefaultCollectionPrefix = "doc_"
)

// pointNamespace seeds deterministic point UUIDs so re-indexing a
// chunk overwrites its previous point instead of duplicating it.
var pointNamespace = uuid.MustParse("7f5f23a1-9d66-4d41-9a71-2c1b0f4c8e55")

// Config holds configuration for the Qdrant vector store.
type Config struct {
	// BaseURL is the Qdrant REST endpoint (default: http://localhost:6333).
	BaseURL string

	// APIKey authenticates requests when the server requires it.
	APIKey string

	// CollectionPrefix namespaces this application's collections
	// (default: "doc_").
	CollectionPrefix string

	// Dimensions is the embedding vector size (required).
	Dimensions int

	// Timeout is the request timeout (default: 15s).
	Timeout time.Duration
}

// VectorStore talks to a Qdrant server over REST.
type VectorStore struct {
	client     *http.Client
	baseURL    string
	apiKey     string
	prefix     string
	dimensions int
}

// NewVectorStore creates a Qdrant-backed vector store.
func NewVectorStore(cfg Config) (*VectorStore, error) {
	if cfg.Dimensions <= 0 {
		return nil, fmt.Errorf("qdrant: dimensions must be positive")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.CollectionPrefix == "" {
		cfg.CollectionPrefix = DefaultCollectionPrefix
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &VectorStore{
		client:     &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		prefix:     cfg.CollectionPrefix,
		dimensions: cfg.Dimensions,
	}, nil
}

// collection maps a document ID to its Qdrant collection name.
func (s *VectorStore) collection(documentID string) string {
	return s.prefix + documentID
}

// pointID derives a stable UUID for a chunk. Qdrant only accepts UUID
// or integer point IDs, so the chunk ID is hashed into one.
func pointID(chunkID string) string {
	return uuid.NewSHA1(pointNamespace, []byte(chunkID)).String()
}

// Upsert inserts or replaces entries in the document's collection,
// creating the collection on first use.
func (s *VectorStore) Upsert(ctx context.Context, documentID string, entries []driven.VectorEntry) error {
	if len(entries) == 0 {
		return nil
	}

	if err := s.ensureCollection(ctx, documentID); err != nil {
		return err
	}

	points := make([]map[string]any, len(entries))
	for i, entry := range entries {
		points[i] = map[string]any{
			"id":     pointID(entry.ChunkID),
			"vector": entry.Vector,
			"payload": map[string]any{
				"chunk_id":    entry.ChunkID,
				"document_id": documentID,
				"text":        entry.Text,
				"locator":     entry.Locator,
			},
		}
	}

	url := fmt.Sprintf("%s/collections/%s/points?wait=true", s.baseURL, s.collection(documentID))
	if err := s.do(ctx, http.MethodPut, url, map[string]any{"points": points}, nil); err != nil {
		return fmt.Errorf("upserting points: %w", err)
	}
	return nil
}

// Search returns up to k entries ranked by descending cosine
// similarity. An unknown document yields an empty result.
func (s *VectorStore) Search(ctx context.Context, documentID string, query []float32, k int) ([]driven.VectorHit, error) {
	if k <= 0 {
		return nil, nil
	}

	exists, err := s.collectionExists(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}

	reqBody := map[string]any{
		"vector":       query,
		"limit":        k,
		"with_payload": true,
	}
	var resp struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	url := fmt.Sprintf("%s/collections/%s/points/search", s.baseURL, s.collection(documentID))
	if err := s.do(ctx, http.MethodPost, url, reqBody, &resp); err != nil {
		return nil, fmt.Errorf("searching points: %w", err)
	}

	hits := make([]driven.VectorHit, 0, len(resp.Result))
	for _, r := range resp.Result {
		hit := driven.VectorHit{
			DocumentID: documentID,
			Similarity: r.Score,
		}
		if v, ok := r.Payload["chunk_id"].(string); ok {
			hit.ChunkID = v
		}
		if v, ok := r.Payload["text"].(string); ok {
			hit.Text = v
		}
		if v, ok := r.Payload["locator"].(string); ok {
			hit.Locator = v
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

// Collections lists document IDs that currently have a collection.
func (s *VectorStore) Collections(ctx context.Context) ([]string, error) {
	var resp struct {
		Result struct {
			Collections []struct {
				Name string `json:"name"`
			} `json:"collections"`
		} `json:"result"`
	}
	if err := s.do(ctx, http.MethodGet, s.baseURL+"/collections", nil, &resp); err != nil {
		return nil, fmt.Errorf("listing collections: %w", err)
	}

	var ids []string //nolint:prealloc // other applications' collections are filtered out
	for _, c := range resp.Result.Collections {
		if strings.HasPrefix(c.Name, s.prefix) {
			ids = append(ids, strings.TrimPrefix(c.Name, s.prefix))
		}
	}
	return ids, nil
}

// Drop removes the document's collection. Unknown IDs are a no-op.
func (s *VectorStore) Drop(ctx context.Context, documentID string) error {
	url := fmt.Sprintf("%s/collections/%s", s.baseURL, s.collection(documentID))
	err := s.do(ctx, http.MethodDelete, url, nil, nil)
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("dropping collection: %w", err)
	}
	return nil
}

// Count returns the number of entries in the document's collection.
func (s *VectorStore) Count(ctx context.Context, documentID string) (int, error) {
	exists, err := s.collectionExists(ctx, documentID)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, nil
	}

	var resp struct {
		Result struct {
			Count int `json:"count"`
		} `json:"result"`
	}
	url := fmt.Sprintf("%s/collections/%s/points/count", s.baseURL, s.collection(documentID))
	if err := s.do(ctx, http.MethodPost, url, map[string]any{"exact": true}, &resp); err != nil {
		return 0, fmt.Errorf("counting points: %w", err)
	}
	return resp.Result.Count, nil
}

// Close releases resources.
func (s *VectorStore) Close() error {
	return nil
}

// ensureCollection creates the document's collection if missing.
// Qdrant returns 200 for an existing collection with the same schema.
func (s *VectorStore) ensureCollection(ctx context.Context, documentID string) error {
	body := map[string]any{
		"vectors": map[string]any{
			"size":     s.dimensions,
			"distance": "Cosine",
		},
	}
	url := fmt.Sprintf("%s/collections/%s", s.baseURL, s.collection(documentID))
	if err := s.do(ctx, http.MethodPut, url, body, nil); err != nil && !isConflict(err) {
		return fmt.Errorf("creating collection: %w", err)
	}
	return nil
}

func (s *VectorStore) collectionExists(ctx context.Context, documentID string) (bool, error) {
	url := fmt.Sprintf("%s/collections/%s/exists", s.baseURL, s.collection(documentID))
	var resp struct {
		Result struct {
			Exists bool `json:"exists"`
		} `json:"result"`
	}
	if err := s.do(ctx, http.MethodGet, url, nil, &resp); err != nil {
		return false, fmt.Errorf("checking collection: %w", err)
	}
	return resp.Result.Exists, nil
}

// statusError carries the HTTP status of a failed Qdrant call.
type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("qdrant returned status %d: %s", e.status, e.body)
}

func isNotFound(err error) bool {
	var se *statusError
	return errors.As(err, &se) && se.status == http.StatusNotFound
}

func isConflict(err error) bool {
	var se *statusError
	return errors.As(err, &se) && se.status == http.StatusConflict
}

// do performs one REST call, optionally decoding the response.
func (s *VectorStore) do(ctx context.Context, method, url string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return &statusError{status: resp.StatusCode, body: strings.TrimSpace(string(respBody))}
	}
	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
