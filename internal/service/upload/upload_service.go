package upload

import (
	"context"

	"github.com/docforge/uploader/internal/models"
)

// Uploader drives the upload pipeline: build entity, validate, hand off to
// the transport, track status, emit events. Submit and SubmitBatch always
// settle with a Result; expected failures never surface as errors.
type Uploader interface {
	Submit(ctx context.Context, source models.FileSource, metadata models.UploadMetadata) *models.UploadResult
	SubmitBatch(ctx context.Context, sources []models.FileSource, metadata models.UploadMetadata) []*models.UploadResult
	GetProgress(ctx context.Context, jobID string) (*models.UploadProgress, error)
	Cancel(ctx context.Context, jobID string) error
}
