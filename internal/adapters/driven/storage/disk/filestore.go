// Package disk provides a file store that writes uploaded blobs to a
// directory on the local filesystem.
package disk

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/crateview/docquery/internal/core/domain"
	"github.com/crateview/docquery/internal/core/ports/driven"
)

// Ensure FileStore implements the interface.
var _ driven.FileStore = (*FileStore)(nil)

// FileStore persists uploaded files under a root directory.
type FileStore struct {
	root string
}

// NewFileStore creates a file store rooted at dir, creating it if
// needed.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("file store: directory is required")
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("creating upload directory: %w", err)
	}
	return &FileStore{root: dir}, nil
}

// Save writes the file bytes under the stored name.
func (s *FileStore) Save(_ context.Context, storedName string, data []byte) error {
	path, err := s.resolve(storedName)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	return nil
}

// Load reads the file bytes back.
func (s *FileStore) Load(_ context.Context, storedName string) ([]byte, error) {
	path, err := s.resolve(storedName)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return data, nil
}

// Delete removes the stored file.
func (s *FileStore) Delete(_ context.Context, storedName string) error {
	path, err := s.resolve(storedName)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("deleting file: %w", err)
	}
	return nil
}

// resolve joins the stored name to the root, rejecting names that
// would escape it.
func (s *FileStore) resolve(storedName string) (string, error) {
	if storedName == "" || strings.Contains(storedName, "/") ||
		strings.Contains(storedName, "\\") || storedName != filepath.Base(storedName) {
		return "", fmt.Errorf("invalid stored name %q: %w", storedName, domain.ErrInvalidInput)
	}
	return filepath.Join(s.root, storedName), nil
}
