package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/docforge/uploader/pkg/logger"
	"github.com/docforge/uploader/pkg/storage/minio"
	"github.com/docforge/uploader/pkg/storage/s3"
)

// StorageType selects a concrete object store.
type StorageType string

const (
	StorageTypeS3    StorageType = "s3"
	StorageTypeMinio StorageType = "minio"
)

// Storage is the object store used for upload content and ingest results.
type Storage interface {
	// Store writes an object and returns its key.
	Store(ctx context.Context, reader io.Reader, key string) (string, error)
	// Get opens an object for reading.
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes an object.
	Delete(ctx context.Context, key string) error
	// CleanupBefore removes objects last modified before the threshold.
	CleanupBefore(ctx context.Context, threshold time.Time) error
}

// NewStorage is the factory for concrete stores.
func NewStorage(storageType StorageType, log logger.Logger) (Storage, error) {
	switch storageType {
	case StorageTypeS3:
		return s3.GetClient(log)
	case StorageTypeMinio:
		return minio.GetClient(log)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}
}
