// Package objectstore implements a transport adapter that keeps everything
// on infrastructure we run ourselves: content goes into an object store,
// an ingest task goes onto the queue, and progress is answered from the
// queue's durable status records.
package objectstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/docforge/uploader/internal/models"
	"github.com/docforge/uploader/pkg/logger"
	"github.com/docforge/uploader/pkg/queue"
	"github.com/docforge/uploader/pkg/storage"
)

// ObjectStoreService implements transport.Service over pkg/storage and
// pkg/queue.
type ObjectStoreService struct {
	store  storage.Storage
	queue  queue.Queue
	logger logger.Logger
}

// NewObjectStoreService wires an adapter from explicit collaborators.
func NewObjectStoreService(store storage.Storage, q queue.Queue, log logger.Logger) (*ObjectStoreService, error) {
	if store == nil || q == nil {
		return nil, fmt.Errorf("objectstore transport requires a store and a queue")
	}
	return &ObjectStoreService{store: store, queue: q, logger: log}, nil
}

// GetClient builds the adapter against the configured store and queue.
func GetClient(storageType storage.StorageType, log logger.Logger) (*ObjectStoreService, error) {
	store, err := storage.NewStorage(storageType, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	q, err := queue.GetQueue()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize queue: %w", err)
	}

	return NewObjectStoreService(store, q, log)
}

// Upload implements transport.Service: store content and descriptor record,
// then enqueue the ingest task. The content and metadata writes share the
// caller's context, so cancellation aborts both.
func (s *ObjectStoreService) Upload(ctx context.Context, upload models.Upload) (*models.UploadResult, error) {
	jobID := uuid.New().String()
	objectKey := fmt.Sprintf("content/%s/%s", jobID, upload.File.Name)

	record := map[string]interface{}{
		"documentId": upload.File.ID,
		"jobId":      jobID,
		"name":       upload.File.Name,
		"size":       upload.File.Size,
		"mimeType":   upload.File.MimeType,
		"category":   upload.File.Category,
		"metadata":   upload.Metadata,
	}
	recordJSON, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal descriptor record: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := s.store.Store(gctx, upload.File.Content, objectKey)
		return err
	})
	g.Go(func() error {
		_, err := s.store.Store(gctx, bytes.NewReader(recordJSON), "meta/"+jobID)
		return err
	})
	if err := g.Wait(); err != nil {
		if ctx.Err() == context.Canceled {
			return nil, fmt.Errorf("upload of %s: %w", upload.File.Name, models.ErrCancelled)
		}
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}

	task := &queue.Task{
		ID:       jobID,
		Type:     queue.TaskTypeDocumentIngest,
		Priority: 2,
		Payload: map[string]interface{}{
			"objectKey":  objectKey,
			"documentId": upload.File.ID,
			"filename":   upload.File.Name,
			"size":       upload.File.Size,
			"category":   string(upload.File.Category),
		},
		Metadata: map[string]string{
			"filename": upload.File.Name,
			"category": string(upload.File.Category),
		},
		CreatedAt: time.Now(),
	}
	if err := s.queue.Enqueue(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to enqueue ingest task: %w", err)
	}

	if err := s.queue.SaveStatus(ctx, &queue.TaskStatus{
		TaskID:    jobID,
		Status:    "pending",
		StartedAt: time.Now(),
	}); err != nil {
		s.logger.Warn("Failed to save initial task status",
			logger.String("jobId", jobID),
			logger.Error(err),
		)
	}

	s.logger.Info("Upload stored and queued for ingest",
		logger.String("jobId", jobID),
		logger.String("objectKey", objectKey),
	)

	return models.SuccessResult(upload.File.ID, jobID, upload.File.Name, "Upload queued for ingest"), nil
}

// GetProgress implements transport.Service by translating queue status
// records into upload progress.
func (s *ObjectStoreService) GetProgress(ctx context.Context, jobID string) (*models.UploadProgress, error) {
	status, err := s.queue.GetTaskStatus(ctx, jobID)
	if err != nil {
		return nil, err
	}

	progress := &models.UploadProgress{
		Percent: int(status.Progress * 100),
		Message: status.Error,
	}

	switch status.Status {
	case "pending":
		progress.Status = models.StatusIdle
		progress.Message = "Waiting for ingest"
	case "processing":
		progress.Status = models.StatusProcessing
		progress.Message = "Ingest in progress"
	case "completed":
		progress.Status = models.StatusSuccess
		progress.Message = "Ingest completed"
	case "failed":
		progress.Status = models.StatusError
	default:
		progress.Status = models.StatusIdle
	}

	return progress, nil
}

// CancelUpload implements transport.Service; the queue delete is already
// idempotent.
func (s *ObjectStoreService) CancelUpload(ctx context.Context, jobID string) error {
	return s.queue.CancelTask(ctx, jobID)
}
