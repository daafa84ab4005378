package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
)

// GCSClient stores artifacts as objects in a Google Cloud Storage bucket
type GCSClient struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewGCSClient creates a new GCS client. prefix is prepended to every object name.
func NewGCSClient(ctx context.Context, bucketName, prefix string) (*GCSClient, error) {
	if bucketName == "" {
		return nil, errors.New("gcs storage requires a bucket name")
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}

	return &GCSClient{
		client: client,
		bucket: bucketName,
		prefix: normalizePrefix(prefix),
	}, nil
}

// Close closes the GCS client
func (g *GCSClient) Close() error {
	return g.client.Close()
}

// Location returns the gs:// URL of the artifact prefix
func (g *GCSClient) Location() string {
	return fmt.Sprintf("gs://%s/%s", g.bucket, g.prefix)
}

// FileExists checks if the object exists
func (g *GCSClient) FileExists(ctx context.Context, name string) (bool, error) {
	_, err := g.client.Bucket(g.bucket).Object(g.prefix + name).Attrs(ctx)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, storage.ErrObjectNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("failed to stat gs://%s/%s%s: %w", g.bucket, g.prefix, name, err)
}

// StoreFile uploads data with a does-not-exist precondition
func (g *GCSClient) StoreFile(ctx context.Context, name string, data []byte) error {
	objectPath := g.prefix + name
	obj := g.client.Bucket(g.bucket).Object(objectPath).If(storage.Conditions{DoesNotExist: true})

	writer := obj.NewWriter(ctx)
	writer.ContentType = GetContentType(name)

	if _, err := writer.Write(data); err != nil {
		writer.Close()
		return fmt.Errorf("failed to write file to GCS: %w", err)
	}

	if err := writer.Close(); err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusPreconditionFailed {
			return ErrFileExists
		}
		return fmt.Errorf("failed to finalize GCS upload of %s: %w", objectPath, err)
	}

	return nil
}

// GetFile retrieves an object from GCS
func (g *GCSClient) GetFile(ctx context.Context, name string) ([]byte, error) {
	reader, err := g.client.Bucket(g.bucket).Object(g.prefix + name).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create reader for file %s: %w", name, err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", name, err)
	}
	return data, nil
}

// ListFiles lists the objects directly under the prefix
func (g *GCSClient) ListFiles(ctx context.Context) ([]string, error) {
	it := g.client.Bucket(g.bucket).Objects(ctx, &storage.Query{
		Prefix:    g.prefix,
		Delimiter: "/",
	})

	var names []string
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", err)
		}
		if attrs.Name == "" {
			continue // synthetic directory entry
		}
		names = append(names, strings.TrimPrefix(attrs.Name, g.prefix))
	}

	sort.Strings(names)
	return names, nil
}
