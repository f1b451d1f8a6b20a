package driven

import "context"

// FileStore persists raw uploaded file bytes. The core writes a file
// before extraction and deletes it after the vector index entries for
// the document are gone.
type FileStore interface {
	// Save writes the file bytes under the stored name.
	Save(ctx context.Context, storedName string, data []byte) error

	// Load reads the file bytes back.
	Load(ctx context.Context, storedName string) ([]byte, error)

	// Delete removes the stored file. Deleting a missing file returns
	// domain.ErrNotFound.
	Delete(ctx context.Context, storedName string) error
}
