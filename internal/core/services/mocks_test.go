package services

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/crateview/docquery/internal/core/domain"
	"github.com/crateview/docquery/internal/core/ports/driven"
)

// mockSplitter cuts one chunk per record.
type mockSplitter struct{}

func (mockSplitter) Split(documentID string, records []domain.Record) []domain.Chunk {
	var chunks []domain.Chunk
	for _, rec := range records {
		if rec.Text == "" {
			continue
		}
		chunks = append(chunks, domain.Chunk{
			ID:         domain.ChunkID(documentID, len(chunks)),
			DocumentID: documentID,
			Text:       rec.Text,
			Locator:    rec.Locator,
		})
	}
	return chunks
}

// mockEmbedder returns fixed-size vectors and counts calls. failAfter
// fails every EmbedBatch call beyond that count (1-based; 0 disables).
type mockEmbedder struct {
	mu         sync.Mutex
	batchCalls int
	failAfter  int
	embedErr   error
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	vecs, err := m.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (m *mockEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.batchCalls++
	calls := m.batchCalls
	m.mu.Unlock()

	if m.failAfter > 0 && calls > m.failAfter {
		return nil, domain.ErrEmbeddingUnavailable
	}
	vecs := make([][]float32, len(texts))
	for i := range texts {
		vecs[i] = []float32{1, 0, 0}
	}
	return vecs, nil
}

func (m *mockEmbedder) Dimensions() int   { return 3 }
func (m *mockEmbedder) ModelName() string { return "mock" }
func (m *mockEmbedder) Close() error      { return nil }

// mockVectorStore is a map-backed vector store with scripted scores
// and failure injection.
type mockVectorStore struct {
	mu        sync.Mutex
	entries   map[string][]driven.VectorEntry
	scores    map[string]float64 // similarity per chunk ID
	upsertErr error
	searchErr error
	dropErr   error
	collErr   error
	dropped   []string
}

func newMockVectorStore() *mockVectorStore {
	return &mockVectorStore{
		entries: make(map[string][]driven.VectorEntry),
		scores:  make(map[string]float64),
	}
}

func (m *mockVectorStore) Upsert(_ context.Context, documentID string, entries []driven.VectorEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.upsertErr != nil {
		return m.upsertErr
	}
	for _, e := range entries {
		replaced := false
		for i, old := range m.entries[documentID] {
			if old.ChunkID == e.ChunkID {
				m.entries[documentID][i] = e
				replaced = true
				break
			}
		}
		if !replaced {
			m.entries[documentID] = append(m.entries[documentID], e)
		}
	}
	return nil
}

func (m *mockVectorStore) Search(_ context.Context, documentID string, _ []float32, k int) ([]driven.VectorHit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	var hits []driven.VectorHit
	for _, e := range m.entries[documentID] {
		hits = append(hits, driven.VectorHit{
			ChunkID:    e.ChunkID,
			DocumentID: documentID,
			Text:       e.Text,
			Locator:    e.Locator,
			Similarity: m.scores[e.ChunkID],
		})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Similarity != hits[j].Similarity {
			return hits[i].Similarity > hits[j].Similarity
		}
		return hits[i].ChunkID < hits[j].ChunkID
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func (m *mockVectorStore) Collections(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.collErr != nil {
		return nil, m.collErr
	}
	ids := make([]string, 0, len(m.entries))
	for id := range m.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *mockVectorStore) Drop(_ context.Context, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dropErr != nil {
		return m.dropErr
	}
	delete(m.entries, documentID)
	m.dropped = append(m.dropped, documentID)
	return nil
}

func (m *mockVectorStore) Count(_ context.Context, documentID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries[documentID]), nil
}

func (m *mockVectorStore) Close() error { return nil }

// add seeds an entry with a scripted similarity score.
func (m *mockVectorStore) add(documentID, chunkID, text, locator string, score float64) {
	m.entries[documentID] = append(m.entries[documentID], driven.VectorEntry{
		ChunkID: chunkID,
		Text:    text,
		Locator: locator,
	})
	m.scores[chunkID] = score
}

// mockDocStore is a map-backed document store.
type mockDocStore struct {
	mu      sync.Mutex
	docs    map[string]domain.Document
	saveErr error
	getErr  error
}

func newMockDocStore() *mockDocStore {
	return &mockDocStore{docs: make(map[string]domain.Document)}
}

func (m *mockDocStore) SaveDocument(_ context.Context, doc *domain.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.docs[doc.ID] = *doc
	return nil
}

func (m *mockDocStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	doc, ok := m.docs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

func (m *mockDocStore) ListDocuments(_ context.Context) ([]domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.docs))
	for id := range m.docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	docs := make([]domain.Document, 0, len(ids))
	for _, id := range ids {
		docs = append(docs, m.docs[id])
	}
	return docs, nil
}

func (m *mockDocStore) DeleteDocument(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, id)
	return nil
}

// mockFileStore is a map-backed file store.
type mockFileStore struct {
	mu        sync.Mutex
	files     map[string][]byte
	saveErr   error
	deleteErr error
	deleted   []string
}

func newMockFileStore() *mockFileStore {
	return &mockFileStore{files: make(map[string][]byte)}
}

func (m *mockFileStore) Save(_ context.Context, storedName string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.files[storedName] = data
	return nil
}

func (m *mockFileStore) Load(_ context.Context, storedName string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[storedName]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return data, nil
}

func (m *mockFileStore) Delete(_ context.Context, storedName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, ok := m.files[storedName]; !ok {
		return domain.ErrNotFound
	}
	delete(m.files, storedName)
	m.deleted = append(m.deleted, storedName)
	return nil
}

// mockLLM replays a scripted response and records the last prompt.
type mockLLM struct {
	mu       sync.Mutex
	response string
	err      error
	prompts  []string
	lastOpts driven.GenerateOptions
}

func (m *mockLLM) Generate(_ context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = append(m.prompts, prompt)
	m.lastOpts = opts
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

func (m *mockLLM) ModelName() string { return "mock-llm" }
func (m *mockLLM) Close() error      { return nil }

// mockExtractor returns canned records.
type mockExtractor struct {
	mimes    []string
	priority int
	records  []domain.Record
	err      error
}

func (m *mockExtractor) SupportedMIMETypes() []string { return m.mimes }
func (m *mockExtractor) Priority() int                { return m.priority }
func (m *mockExtractor) Extract(context.Context, string, []byte) ([]domain.Record, error) {
	return m.records, m.err
}

// mockRegistry resolves a fixed extractor per MIME type.
type mockRegistry struct {
	extractors map[string]driven.Extractor
}

func newMockRegistry() *mockRegistry {
	return &mockRegistry{extractors: make(map[string]driven.Extractor)}
}

func (m *mockRegistry) ForMIMEType(mimeType string) (driven.Extractor, error) {
	e, ok := m.extractors[mimeType]
	if !ok {
		return nil, domain.ErrUnsupportedType
	}
	return e, nil
}

func (m *mockRegistry) ResolveMIMEType(filename, contentType string) string {
	if contentType != "" {
		return contentType
	}
	switch {
	case len(filename) > 4 && filename[len(filename)-4:] == ".csv":
		return "text/csv"
	case len(filename) > 4 && filename[len(filename)-4:] == ".txt":
		return "text/plain"
	}
	return "application/octet-stream"
}

// mockIndexer records Index and Remove calls.
type mockIndexer struct {
	mu        sync.Mutex
	indexed   map[string]int
	indexErr  error
	removeErr error
	removed   []string
	count     int
}

func newMockIndexer() *mockIndexer {
	return &mockIndexer{indexed: make(map[string]int), count: 3}
}

func (m *mockIndexer) Index(_ context.Context, doc *domain.Document, records []domain.Record) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.indexErr != nil {
		return 0, m.indexErr
	}
	n := m.count
	if n == 0 {
		n = len(records)
	}
	m.indexed[doc.ID] = n
	return n, nil
}

func (m *mockIndexer) Remove(_ context.Context, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.removeErr != nil {
		return m.removeErr
	}
	m.removed = append(m.removed, documentID)
	return nil
}

// mockRetriever replays scripted evidence.
type mockRetriever struct {
	evidence []domain.Evidence
	err      error

	gotQuery string
	gotDocs  []string
	gotTopK  int
}

func (m *mockRetriever) Retrieve(_ context.Context, query string, documentIDs []string, topK int) ([]domain.Evidence, error) {
	m.gotQuery = query
	m.gotDocs = documentIDs
	m.gotTopK = topK
	return m.evidence, m.err
}

// mockComposer replays a scripted answer.
type mockComposer struct {
	answer   domain.StructuredAnswer
	degraded bool
	err      error
}

func (m *mockComposer) Compose(_ context.Context, _ string, _ []domain.Evidence) (domain.StructuredAnswer, bool, error) {
	return m.answer, m.degraded, m.err
}

// mockHistory records appended turns.
type mockHistory struct {
	mu        sync.Mutex
	turns     map[string][]driven.Turn
	appendErr error
}

func newMockHistory() *mockHistory {
	return &mockHistory{turns: make(map[string][]driven.Turn)}
}

func (m *mockHistory) AppendTurn(_ context.Context, sessionID string, turn driven.Turn) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendErr != nil {
		return m.appendErr
	}
	m.turns[sessionID] = append(m.turns[sessionID], turn)
	return nil
}

func (m *mockHistory) GetSession(_ context.Context, sessionID string) ([]driven.Turn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.turns[sessionID], nil
}

func (m *mockHistory) ListSessions(_ context.Context) ([]driven.SessionSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []driven.SessionSummary
	for id, turns := range m.turns {
		out = append(out, driven.SessionSummary{
			SessionID: id,
			TurnCount: len(turns),
			LastQuery: turns[len(turns)-1].Query,
		})
	}
	return out, nil
}

// sequentialIDs yields doc1, doc2, ... for deterministic ingestion.
func sequentialIDs() func() string {
	n := 0
	var mu sync.Mutex
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("doc%d", n)
	}
}
