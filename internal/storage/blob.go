package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/memblob"
	_ "gocloud.dev/blob/s3blob"
	"gocloud.dev/gcerrors"
)

// BlobStorageClient stores artifacts in any bucket reachable through a
// gocloud.dev URL (file://, mem://, s3://, gs://)
type BlobStorageClient struct {
	bucket *blob.Bucket
	url    string
}

// NewBlobStorageClient opens the bucket at bucketURL
func NewBlobStorageClient(ctx context.Context, bucketURL string) (*BlobStorageClient, error) {
	if bucketURL == "" {
		return nil, errors.New("blob storage requires a bucket URL")
	}

	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open bucket %s: %w", bucketURL, err)
	}

	return &BlobStorageClient{bucket: bucket, url: bucketURL}, nil
}

// NewBlobStorageClientFromBucket wraps an already opened bucket
func NewBlobStorageClientFromBucket(bucket *blob.Bucket, location string) *BlobStorageClient {
	return &BlobStorageClient{bucket: bucket, url: location}
}

// Close closes the underlying bucket
func (b *BlobStorageClient) Close() error {
	return b.bucket.Close()
}

// Location returns the bucket URL
func (b *BlobStorageClient) Location() string {
	return b.url
}

// FileExists checks if the key exists
func (b *BlobStorageClient) FileExists(ctx context.Context, name string) (bool, error) {
	exists, err := b.bucket.Exists(ctx, name)
	if err != nil {
		return false, fmt.Errorf("failed to check %s: %w", name, err)
	}
	return exists, nil
}

// StoreFile writes data under name unless the key already exists
func (b *BlobStorageClient) StoreFile(ctx context.Context, name string, data []byte) error {
	exists, err := b.FileExists(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		return ErrFileExists
	}

	opts := &blob.WriterOptions{ContentType: GetContentType(name)}
	if err := b.bucket.WriteAll(ctx, name, data, opts); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

// GetFile reads the key
func (b *BlobStorageClient) GetFile(ctx context.Context, name string) ([]byte, error) {
	data, err := b.bucket.ReadAll(ctx, name)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, fmt.Errorf("file %s not found: %w", name, err)
		}
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return data, nil
}

// ListFiles lists top-level keys in the bucket
func (b *BlobStorageClient) ListFiles(ctx context.Context) ([]string, error) {
	iter := b.bucket.List(&blob.ListOptions{Delimiter: "/"})

	var names []string
	for {
		obj, err := iter.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list bucket: %w", err)
		}
		if obj.IsDir || strings.HasSuffix(obj.Key, "/") {
			continue
		}
		names = append(names, obj.Key)
	}

	sort.Strings(names)
	return names, nil
}
