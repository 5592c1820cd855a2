// Package remote implements the transport adapter that talks to the real
// storage/vectorization backend over HTTP multipart.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sync"
	"time"

	cfg "github.com/docforge/uploader/config"
	"github.com/docforge/uploader/internal/models"
	"github.com/docforge/uploader/pkg/logger"
)

// RemoteService uploads to the backend described by config.BackendConfig.
//
// A cancellation handle is registered under the entity's identifier before
// the transfer starts and removed on every exit path, so the registry never
// retains stale handles.
type RemoteService struct {
	client  *http.Client
	baseURL string
	apiKey  string
	timeout time.Duration
	logger  logger.Logger

	mu       sync.Mutex
	inflight map[string]context.CancelFunc
}

// NewRemoteService builds an adapter from the shared backend configuration.
func NewRemoteService(log logger.Logger) (*RemoteService, error) {
	bc := cfg.GetBackendConfig()
	return NewRemoteServiceWith(bc.BaseURL, bc.APIKey, bc.UploadTimeout, log)
}

// NewRemoteServiceWith builds an adapter against an explicit backend. Tests
// point this at an httptest server.
func NewRemoteServiceWith(baseURL, apiKey string, timeout time.Duration, log logger.Logger) (*RemoteService, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("remote transport requires a backend URL")
	}
	if timeout <= 0 {
		timeout = 300 * time.Second
	}

	return &RemoteService{
		client:   &http.Client{},
		baseURL:  baseURL,
		apiKey:   apiKey,
		timeout:  timeout,
		logger:   log,
		inflight: make(map[string]context.CancelFunc),
	}, nil
}

func GetClient(log logger.Logger) (*RemoteService, error) {
	return NewRemoteService(log)
}

// uploadEnvelope is the backend's standard response wrapper.
type uploadEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    struct {
		DocumentID string `json:"document_id"`
		JobID      string `json:"job_id"`
		Filename   string `json:"filename"`
	} `json:"data"`
}

type progressEnvelope struct {
	Status   string `json:"status"`
	Progress int    `json:"progress"`
	Message  string `json:"message"`
}

// Upload implements transport.Service.
func (s *RemoteService) Upload(ctx context.Context, upload models.Upload) (*models.UploadResult, error) {
	callCtx, cancel := context.WithCancel(ctx)
	s.register(upload.File.ID, cancel)
	defer s.unregister(upload.File.ID)
	defer cancel()

	reqCtx, timeoutCancel := context.WithTimeout(callCtx, s.timeout)
	defer timeoutCancel()

	body, contentType, err := buildMultipartBody(upload)
	if err != nil {
		return nil, fmt.Errorf("failed to build upload request: %w", err)
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, s.baseURL+"/api/documents/upload", body)
	if err != nil {
		return nil, fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	s.authorize(req)

	resp, err := s.client.Do(req)
	if err != nil {
		if callCtx.Err() == context.Canceled {
			return nil, fmt.Errorf("upload of %s: %w", upload.File.Name, models.ErrCancelled)
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("upload of %s timed out after %s: %w", upload.File.Name, s.timeout, err)
		}
		return nil, fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload response: %w", err)
	}

	var envelope uploadEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, &models.EnvelopeError{Reason: "upload response is not valid JSON", Err: err}
	}

	if !envelope.Success {
		if envelope.Message == "" {
			if resp.StatusCode >= 400 {
				return nil, fmt.Errorf("backend rejected upload with status %d", resp.StatusCode)
			}
			return nil, &models.EnvelopeError{Reason: "failure envelope carries no message"}
		}
		return models.FailureResult(envelope.Message), nil
	}

	if envelope.Data.DocumentID == "" || envelope.Data.JobID == "" {
		return nil, &models.EnvelopeError{Reason: "success envelope missing document or job identifier"}
	}

	s.logger.Info("Upload accepted by backend",
		logger.String("documentId", envelope.Data.DocumentID),
		logger.String("jobId", envelope.Data.JobID),
		logger.String("filename", envelope.Data.Filename),
	)

	return models.SuccessResult(
		envelope.Data.DocumentID,
		envelope.Data.JobID,
		envelope.Data.Filename,
		envelope.Message,
	), nil
}

// GetProgress implements transport.Service. The backend only distinguishes
// pending/processing/completed/failed, so its processing phase maps onto the
// local uploading status; the local processing status is never produced from
// a backend poll.
func (s *RemoteService) GetProgress(ctx context.Context, jobID string) (*models.UploadProgress, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/api/documents/progress/"+jobID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create progress request: %w", err)
	}
	s.authorize(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("progress request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("job %s: %w", jobID, models.ErrUnknownJob)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("progress query returned status %d", resp.StatusCode)
	}

	var envelope progressEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, &models.EnvelopeError{Reason: "progress response is not valid JSON", Err: err}
	}

	return &models.UploadProgress{
		Percent: clampPercent(envelope.Progress),
		Message: envelope.Message,
		Status:  mapBackendStatus(envelope.Status),
	}, nil
}

// CancelUpload implements transport.Service. The local cancellation handle,
// if one is still registered, is tripped first; the backend delete is
// idempotent and an unknown job is not an error.
func (s *RemoteService) CancelUpload(ctx context.Context, jobID string) error {
	if cancel := s.take(jobID); cancel != nil {
		cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, s.baseURL+"/api/documents/jobs/"+jobID, nil)
	if err != nil {
		return fmt.Errorf("failed to create cancel request: %w", err)
	}
	s.authorize(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("cancel request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		// already finished or never existed
		return nil
	default:
		return fmt.Errorf("cancel returned status %d", resp.StatusCode)
	}
}

// InflightCount reports how many cancellation handles are registered.
func (s *RemoteService) InflightCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.inflight)
}

func (s *RemoteService) authorize(req *http.Request) {
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}
}

func (s *RemoteService) register(id string, cancel context.CancelFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inflight[id] = cancel
}

func (s *RemoteService) unregister(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, id)
}

func (s *RemoteService) take(id string) context.CancelFunc {
	s.mu.Lock()
	defer s.mu.Unlock()
	cancel := s.inflight[id]
	delete(s.inflight, id)
	return cancel
}

// buildMultipartBody assembles the file part plus the JSON metadata part.
// Custom fields are flattened into the metadata object next to tags and
// description.
func buildMultipartBody(upload models.Upload) (io.Reader, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	filePart, err := writer.CreateFormFile("file", upload.File.Name)
	if err != nil {
		return nil, "", err
	}
	if upload.File.Content != nil {
		if _, err := io.Copy(filePart, upload.File.Content); err != nil {
			return nil, "", err
		}
	}

	meta := map[string]interface{}{
		"tags":        upload.Metadata.Tags,
		"description": upload.Metadata.Description,
	}
	if upload.Metadata.CollectionID != "" {
		meta["collection_id"] = upload.Metadata.CollectionID
	}
	for k, v := range upload.Metadata.Custom {
		meta[k] = v
	}

	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return nil, "", err
	}
	if err := writer.WriteField("metadata", string(metaJSON)); err != nil {
		return nil, "", err
	}

	if err := writer.Close(); err != nil {
		return nil, "", err
	}

	return &buf, writer.FormDataContentType(), nil
}

func mapBackendStatus(status string) models.UploadStatus {
	switch status {
	case "pending":
		return models.StatusIdle
	case "processing":
		return models.StatusUploading
	case "completed":
		return models.StatusSuccess
	case "failed":
		return models.StatusError
	default:
		return models.StatusIdle
	}
}

func clampPercent(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
