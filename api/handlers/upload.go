package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"

	"github.com/docforge/uploader/internal/models"
	"github.com/docforge/uploader/internal/service/upload"
	"github.com/docforge/uploader/pkg/logger"
)

type UploadHandler struct {
	service upload.Uploader
	logger  logger.Logger
}

// ErrorResponse is the error shape returned to clients.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func NewUploadHandler(service upload.Uploader, log logger.Logger) *UploadHandler {
	return &UploadHandler{
		service: service,
		logger:  log,
	}
}

// Upload handles a single document submission. The pipeline itself never
// fails the request; a rejected file comes back as a failed result with
// status 200.
func (h *UploadHandler) Upload(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		h.handleError(c, http.StatusBadRequest, "Invalid file upload", err)
		return
	}
	defer file.Close()

	source, err := h.buildSource(file, header)
	if err != nil {
		h.handleError(c, http.StatusBadRequest, "Cannot read uploaded file", err)
		return
	}

	result := h.service.Submit(c.Request.Context(), source, parseMetadata(c))
	c.JSON(http.StatusOK, result)
}

// UploadBatch handles a sequential multi-file submission.
func (h *UploadHandler) UploadBatch(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		h.handleError(c, http.StatusBadRequest, "Invalid form data", err)
		return
	}

	files := form.File["files"]
	if len(files) == 0 {
		h.handleError(c, http.StatusBadRequest, "No files provided", nil)
		return
	}

	metadata := parseMetadata(c)
	sources := make([]models.FileSource, 0, len(files))
	var open []multipart.File
	defer func() {
		for _, f := range open {
			f.Close()
		}
	}()

	for _, header := range files {
		f, err := header.Open()
		if err != nil {
			h.handleError(c, http.StatusBadRequest, "Cannot open uploaded file", err)
			return
		}
		open = append(open, f)

		source, err := h.buildSource(f, header)
		if err != nil {
			h.handleError(c, http.StatusBadRequest, "Cannot read uploaded file", err)
			return
		}
		sources = append(sources, source)
	}

	results := h.service.SubmitBatch(c.Request.Context(), sources, metadata)
	c.JSON(http.StatusOK, gin.H{"results": results})
}

// GetProgress polls one job.
func (h *UploadHandler) GetProgress(c *gin.Context) {
	jobID := c.Param("jobId")
	if jobID == "" {
		h.handleError(c, http.StatusBadRequest, "Job ID is required", nil)
		return
	}

	progress, err := h.service.GetProgress(c.Request.Context(), jobID)
	if err != nil {
		if errors.Is(err, models.ErrUnknownJob) {
			h.handleError(c, http.StatusNotFound, "Unknown job", err)
			return
		}
		h.handleError(c, http.StatusInternalServerError, "Failed to get progress", err)
		return
	}

	c.JSON(http.StatusOK, progress)
}

// Cancel aborts one job; repeating the call is harmless.
func (h *UploadHandler) Cancel(c *gin.Context) {
	jobID := c.Param("jobId")
	if jobID == "" {
		h.handleError(c, http.StatusBadRequest, "Job ID is required", nil)
		return
	}

	if err := h.service.Cancel(c.Request.Context(), jobID); err != nil {
		if errors.Is(err, models.ErrCancellationUnsupported) {
			h.handleError(c, http.StatusNotImplemented, "Cancellation not supported by the configured adapter", err)
			return
		}
		h.handleError(c, http.StatusInternalServerError, "Failed to cancel upload", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Upload cancelled",
		"jobId":   jobID,
	})
}

// buildSource turns a multipart part into a FileSource, sniffing the MIME
// type when the client didn't declare one.
func (h *UploadHandler) buildSource(file multipart.File, header *multipart.FileHeader) (models.FileSource, error) {
	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		if detected, err := mimetype.DetectReader(file); err == nil {
			mimeType = detected.String()
		}
		if _, err := file.Seek(0, 0); err != nil {
			return models.FileSource{}, err
		}
	}

	return models.FileSource{
		Name:     header.Filename,
		Size:     header.Size,
		MimeType: mimeType,
		Content:  file,
	}, nil
}

// parseMetadata reads the metadata form fields: tags (comma separated),
// description, collection_id, and custom[...] pairs.
func parseMetadata(c *gin.Context) models.UploadMetadata {
	metadata := models.UploadMetadata{
		Description:  c.PostForm("description"),
		CollectionID: c.PostForm("collection_id"),
	}

	if raw := c.PostForm("tags"); raw != "" {
		for _, tag := range strings.Split(raw, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				metadata.Tags = append(metadata.Tags, tag)
			}
		}
	}

	if custom := c.PostFormMap("custom"); len(custom) > 0 {
		metadata.Custom = custom
	}

	return metadata
}

func (h *UploadHandler) handleError(c *gin.Context, status int, message string, err error) {
	h.logger.Error(message,
		logger.String("path", c.Request.URL.Path),
		logger.Error(err),
	)

	response := ErrorResponse{Message: message}
	if err != nil {
		response.Error = err.Error()
	}

	c.JSON(status, response)
}
