package handlers

import (
	"github.com/docforge/uploader/internal/service/upload"
	"github.com/docforge/uploader/pkg/logger"
)

type Handlers struct {
	Upload *UploadHandler
}

func NewHandlers(uploadService upload.Uploader, log logger.Logger) *Handlers {
	return &Handlers{
		Upload: NewUploadHandler(uploadService, log),
	}
}
