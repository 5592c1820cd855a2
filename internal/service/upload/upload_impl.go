package upload

import (
	"context"
	"fmt"
	"strings"

	cfg "github.com/docforge/uploader/config"
	"github.com/docforge/uploader/internal/models"
	"github.com/docforge/uploader/internal/utils/validator"
	"github.com/docforge/uploader/pkg/logger"
	"github.com/docforge/uploader/pkg/transport"
)

// UploadService is the orchestrator over a transport adapter.
type UploadService struct {
	transport transport.Service
	validator *validator.UploadValidator
	emitter   Emitter
	logger    logger.Logger
}

// NewService wires an orchestrator. The transport and logger are required;
// a nil validator selects the default limits and a nil emitter is a no-op.
func NewService(t transport.Service, v *validator.UploadValidator, emitter Emitter, log logger.Logger) (Uploader, error) {
	if t == nil {
		return nil, fmt.Errorf("upload service requires a transport")
	}
	if log == nil {
		return nil, fmt.Errorf("upload service requires a logger")
	}
	if v == nil {
		v = validator.New(nil)
	}
	if emitter == nil {
		emitter = NopEmitter{}
	}

	return &UploadService{
		transport: t,
		validator: v,
		emitter:   emitter,
		logger:    log,
	}, nil
}

// GetService builds an orchestrator against the configured adapter, with a
// log-backed event observer.
func GetService(log logger.Logger) (Uploader, error) {
	ac := cfg.GetAppConfig()

	t, err := transport.New(transport.AdapterType(ac.Adapter), log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize transport: %w", err)
	}

	v := validator.New(&validator.Config{
		MaxFileSize:       ac.MaxFileSize,
		AllowedExtensions: ac.AllowedExtensions,
	})

	return NewService(t, v, NewLogEmitter(log), log)
}

// Submit runs one attempt end to end and always settles with a Result.
func (s *UploadService) Submit(ctx context.Context, source models.FileSource, metadata models.UploadMetadata) *models.UploadResult {
	entity := models.NewUpload(models.NewFileDescriptor(source), metadata)

	s.logger.Info("Starting upload",
		logger.String("documentId", entity.File.ID),
		logger.String("filename", entity.File.Name),
		logger.Int64("size", entity.File.Size),
		logger.String("category", string(entity.File.Category)),
	)

	entity = entity.WithStatus(models.StatusValidating, "Validating file")
	res := s.validator.Validate(entity.File)
	if !res.IsValid {
		message := strings.Join(res.Messages(), "; ")
		entity = entity.WithStatus(models.StatusError, message)

		s.logger.Warn("Upload rejected by validation",
			logger.String("documentId", entity.File.ID),
			logger.Any("errors", res.Messages()),
		)
		s.emitter.Emit(models.UploadEvent{
			Kind:       models.EventFailed,
			DocumentID: entity.File.ID,
			Payload: map[string]interface{}{
				"filename": entity.File.Name,
				"errors":   res.Messages(),
			},
		})
		return models.FailureResult(message)
	}

	entity = entity.WithStatus(models.StatusUploading, "Uploading "+entity.File.Name)
	s.emitter.Emit(models.UploadEvent{
		Kind:       models.EventStarted,
		DocumentID: entity.File.ID,
		Payload: map[string]interface{}{
			"filename": entity.File.Name,
			"size":     entity.File.Size,
		},
	})

	result, err := s.transport.Upload(ctx, entity)
	if err != nil || result == nil || !result.Success {
		message := "upload failed"
		switch {
		case err != nil:
			message = err.Error()
		case result != nil && result.Error != "":
			message = result.Error
		}
		entity = entity.WithStatus(models.StatusError, message)

		s.logger.Error("Upload failed",
			logger.String("documentId", entity.File.ID),
			logger.String("filename", entity.File.Name),
			logger.Error(err),
		)
		s.emitter.Emit(models.UploadEvent{
			Kind:       models.EventFailed,
			DocumentID: entity.File.ID,
			Payload: map[string]interface{}{
				"filename": entity.File.Name,
				"error":    message,
			},
		})
		return models.FailureResult(message)
	}

	entity = entity.WithStatus(models.StatusSuccess, "Upload completed")

	s.logger.Info("Upload completed",
		logger.String("documentId", entity.File.ID),
		logger.String("jobId", result.JobID),
	)
	s.emitter.Emit(models.UploadEvent{
		Kind:       models.EventCompleted,
		DocumentID: result.DocumentID,
		Payload: map[string]interface{}{
			"jobId":    result.JobID,
			"filename": result.Filename,
		},
	})

	return result
}

// SubmitBatch processes files strictly sequentially in input order. A
// failure at one position never blocks the next; the output is one result
// per input, order preserved.
func (s *UploadService) SubmitBatch(ctx context.Context, sources []models.FileSource, metadata models.UploadMetadata) []*models.UploadResult {
	results := make([]*models.UploadResult, 0, len(sources))
	for _, source := range sources {
		results = append(results, s.Submit(ctx, source, metadata))
	}
	return results
}

// GetProgress delegates to the transport.
func (s *UploadService) GetProgress(ctx context.Context, jobID string) (*models.UploadProgress, error) {
	progress, err := s.transport.GetProgress(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to get progress: %w", err)
	}
	return progress, nil
}

// Cancel delegates to the transport. Cancelling a finished or unknown job
// is a no-op.
func (s *UploadService) Cancel(ctx context.Context, jobID string) error {
	if err := s.transport.CancelUpload(ctx, jobID); err != nil {
		return fmt.Errorf("failed to cancel upload: %w", err)
	}

	s.logger.Info("Upload cancelled", logger.String("jobId", jobID))
	return nil
}
