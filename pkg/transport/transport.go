// Package transport defines the upload service port: the contract between
// the orchestrator and whatever actually moves the bytes. Adapters are
// chosen at construction time through the factory; the orchestrator never
// inspects which one it was given.
package transport

import (
	"context"
	"fmt"

	"github.com/docforge/uploader/internal/models"
	"github.com/docforge/uploader/pkg/logger"
	"github.com/docforge/uploader/pkg/storage"
	"github.com/docforge/uploader/pkg/transport/local"
	"github.com/docforge/uploader/pkg/transport/objectstore"
	"github.com/docforge/uploader/pkg/transport/remote"
	"github.com/docforge/uploader/pkg/transport/simulated"
)

// AdapterType selects a concrete transport adapter.
type AdapterType string

const (
	AdapterRemote      AdapterType = "remote"
	AdapterSimulated   AdapterType = "simulated"
	AdapterLocal       AdapterType = "local"
	AdapterObjectStore AdapterType = "objectstore"
)

// Service is the port every adapter implements.
type Service interface {
	// Upload transfers one entity. It may block for the duration of the
	// transfer and must honor cancellation of the given context.
	Upload(ctx context.Context, upload models.Upload) (*models.UploadResult, error)
	// GetProgress resolves the progress of a job. Unrecognized identifiers
	// fail with models.ErrUnknownJob.
	GetProgress(ctx context.Context, jobID string) (*models.UploadProgress, error)
	// CancelUpload aborts an in-flight job. Cancelling a finished or
	// unknown job is a no-op, not an error.
	CancelUpload(ctx context.Context, jobID string) error
}

// New is the adapter factory.
func New(adapterType AdapterType, log logger.Logger) (Service, error) {
	switch adapterType {
	case AdapterRemote:
		return remote.GetClient(log)
	case AdapterSimulated:
		return simulated.GetClient(log)
	case AdapterLocal:
		return local.GetClient(log)
	case AdapterObjectStore:
		return objectstore.GetClient(storage.StorageTypeMinio, log)
	default:
		return nil, fmt.Errorf("unsupported transport adapter: %s", adapterType)
	}
}
