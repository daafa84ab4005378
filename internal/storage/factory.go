package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"solarharvest/internal/config"
)

// StorageMode selects the artifact storage backend
type StorageMode string

const (
	StorageLocal StorageMode = "local"
	StorageGCS   StorageMode = "gcs"
	StorageBlob  StorageMode = "blob"
)

// NewStorageClient creates a storage client for the configured mode
func NewStorageClient(ctx context.Context, mode StorageMode, cfg *config.Config) (StorageClient, error) {
	if cfg == nil {
		return nil, errors.New("storage: nil config")
	}

	switch StorageMode(strings.ToLower(string(mode))) {
	case StorageLocal:
		localClient, err := NewLocalStorageClient(cfg.OutputDir)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize local storage client: %w", err)
		}
		return localClient, nil

	case StorageGCS:
		gcsClient, err := NewGCSClient(ctx, cfg.GCSBucket, cfg.GCSPrefix)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize GCS client: %w", err)
		}
		return gcsClient, nil

	case StorageBlob:
		blobClient, err := NewBlobStorageClient(ctx, cfg.BlobURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize blob storage client: %w", err)
		}
		return blobClient, nil

	default:
		return nil, fmt.Errorf("unsupported storage mode: %s", mode)
	}
}
