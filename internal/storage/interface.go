package storage

import (
	"context"
	"errors"
)

// ErrFileExists is returned by StoreFile when the target already exists.
// Artifacts are never overwritten.
var ErrFileExists = errors.New("storage: file already exists")

// StorageClient defines the interface for artifact storage operations.
// Names are flat object names relative to the client's root.
type StorageClient interface {
	// Close closes the storage client
	Close() error

	// FileExists checks if a file exists under name
	FileExists(ctx context.Context, name string) (bool, error)

	// StoreFile creates name with data, failing with ErrFileExists if it is present
	StoreFile(ctx context.Context, name string, data []byte) error

	// GetFile retrieves the contents of name
	GetFile(ctx context.Context, name string) ([]byte, error)

	// ListFiles lists the names stored under the client's root, sorted
	ListFiles(ctx context.Context) ([]string, error)

	// Location describes where files are stored, for logging
	Location() string
}
