package memory

import (
	"context"
	"sync"

	"github.com/crateview/docquery/internal/core/domain"
	"github.com/crateview/docquery/internal/core/ports/driven"
)

// Ensure FileStore implements the interface.
var _ driven.FileStore = (*FileStore)(nil)

// FileStore keeps uploaded blobs in a map.
type FileStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewFileStore creates an empty in-memory file store.
func NewFileStore() *FileStore {
	return &FileStore{blobs: make(map[string][]byte)}
}

// Save writes the file bytes under the stored name.
func (s *FileStore) Save(_ context.Context, storedName string, data []byte) error {
	if storedName == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	buf := make([]byte, len(data))
	copy(buf, data)
	s.blobs[storedName] = buf
	return nil
}

// Load reads the file bytes back.
func (s *FileStore) Load(_ context.Context, storedName string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.blobs[storedName]
	if !ok {
		return nil, domain.ErrNotFound
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	return buf, nil
}

// Delete removes the stored file.
func (s *FileStore) Delete(_ context.Context, storedName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.blobs[storedName]; !ok {
		return domain.ErrNotFound
	}
	delete(s.blobs, storedName)
	return nil
}
