package upload

import (
	"github.com/docforge/uploader/internal/models"
	"github.com/docforge/uploader/pkg/logger"
)

// Emitter receives upload events. It is an optional capability handed in at
// construction; a nil emitter is replaced by NopEmitter, so absence is a
// safe no-op.
type Emitter interface {
	Emit(event models.UploadEvent)
}

// NopEmitter discards every event.
type NopEmitter struct{}

func (NopEmitter) Emit(models.UploadEvent) {}

// LogEmitter writes events to the structured log.
type LogEmitter struct {
	logger logger.Logger
}

func NewLogEmitter(log logger.Logger) *LogEmitter {
	return &LogEmitter{logger: log.Named("events")}
}

func (e *LogEmitter) Emit(event models.UploadEvent) {
	e.logger.Info("Upload event",
		logger.String("kind", string(event.Kind)),
		logger.String("documentId", event.DocumentID),
		logger.Any("payload", event.Payload),
	)
}
