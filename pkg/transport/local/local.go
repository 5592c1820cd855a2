// Package local implements the durable metadata adapter. It persists the
// file descriptor and metadata (never the content) into a redis keyed
// store, so a submission survives the process without any remote backend.
//
// Known limitation: this adapter cannot abort an in-flight write, so
// CancelUpload reports cancellation as unsupported instead of silently
// ignoring it.
package local

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	cfg "github.com/docforge/uploader/config"
	"github.com/docforge/uploader/internal/models"
	"github.com/docforge/uploader/pkg/logger"
)

const keyPrefix = "uploader:descriptor:"

// descriptorRecord is what gets persisted: descriptor fields minus the
// content handle, plus the submission metadata.
type descriptorRecord struct {
	ID       string                `json:"id"`
	Name     string                `json:"name"`
	Size     int64                 `json:"size"`
	MimeType string                `json:"mimeType"`
	Category models.Category       `json:"category"`
	Metadata models.UploadMetadata `json:"metadata"`
	StoredAt time.Time             `json:"storedAt"`
}

// LocalService implements transport.Service over a redis keyed store.
type LocalService struct {
	client *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

// NewLocalService builds an adapter from the shared redis configuration.
func NewLocalService(log logger.Logger) (*LocalService, error) {
	rc := cfg.GetRedisConfig()
	client := redis.NewClient(&redis.Options{
		Addr:     rc.Addr,
		Password: rc.Password,
		DB:       rc.DB,
	})

	return &LocalService{
		client: client,
		ttl:    0, // descriptors are kept until deleted
		logger: log,
	}, nil
}

func GetClient(log logger.Logger) (*LocalService, error) {
	return NewLocalService(log)
}

// Upload implements transport.Service. Only descriptor metadata is written;
// the job identifier doubles as the store key suffix.
func (s *LocalService) Upload(ctx context.Context, upload models.Upload) (*models.UploadResult, error) {
	record := descriptorRecord{
		ID:       upload.File.ID,
		Name:     upload.File.Name,
		Size:     upload.File.Size,
		MimeType: upload.File.MimeType,
		Category: upload.File.Category,
		Metadata: upload.Metadata,
		StoredAt: time.Now().UTC(),
	}

	data, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal descriptor: %w", err)
	}

	jobID := upload.File.ID
	if err := s.client.Set(ctx, keyPrefix+jobID, data, s.ttl).Err(); err != nil {
		return nil, fmt.Errorf("failed to persist descriptor: %w", err)
	}

	s.logger.Info("Descriptor persisted locally",
		logger.String("documentId", upload.File.ID),
		logger.String("filename", upload.File.Name),
	)

	return models.SuccessResult(upload.File.ID, jobID, upload.File.Name, "Descriptor stored locally"), nil
}

// GetProgress implements transport.Service. A persisted descriptor is by
// definition settled.
func (s *LocalService) GetProgress(ctx context.Context, jobID string) (*models.UploadProgress, error) {
	err := s.client.Get(ctx, keyPrefix+jobID).Err()
	if err == redis.Nil {
		return nil, fmt.Errorf("job %s: %w", jobID, models.ErrUnknownJob)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read descriptor: %w", err)
	}

	return &models.UploadProgress{
		Percent: 100,
		Message: "Descriptor stored locally",
		Status:  models.StatusSuccess,
	}, nil
}

// CancelUpload implements transport.Service. Unsupported here; the error is
// explicit so callers don't mistake it for a successful cancel.
func (s *LocalService) CancelUpload(ctx context.Context, jobID string) error {
	return fmt.Errorf("local adapter: %w", models.ErrCancellationUnsupported)
}
