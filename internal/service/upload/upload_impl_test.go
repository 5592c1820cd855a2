package upload

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docforge/uploader/internal/models"
	"github.com/docforge/uploader/pkg/logger"
	"github.com/docforge/uploader/pkg/transport/simulated"
)

// recordingEmitter captures emitted events for assertions.
type recordingEmitter struct {
	mu     sync.Mutex
	events []models.UploadEvent
}

func (r *recordingEmitter) Emit(event models.UploadEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingEmitter) kinds() []models.EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]models.EventKind, 0, len(r.events))
	for _, e := range r.events {
		kinds = append(kinds, e.Kind)
	}
	return kinds
}

func (r *recordingEmitter) count(kind models.EventKind) int {
	n := 0
	for _, k := range r.kinds() {
		if k == kind {
			n++
		}
	}
	return n
}

// stubTransport scripts the port for failure-path tests.
type stubTransport struct {
	mu        sync.Mutex
	uploads   int
	uploadErr error
	result    *models.UploadResult
	cancelErr error
}

func (s *stubTransport) Upload(ctx context.Context, up models.Upload) (*models.UploadResult, error) {
	s.mu.Lock()
	s.uploads++
	s.mu.Unlock()
	if s.uploadErr != nil {
		return nil, s.uploadErr
	}
	if s.result != nil {
		return s.result, nil
	}
	return models.SuccessResult(up.File.ID, "job-1", up.File.Name, "ok"), nil
}

func (s *stubTransport) GetProgress(ctx context.Context, jobID string) (*models.UploadProgress, error) {
	return nil, models.ErrUnknownJob
}

func (s *stubTransport) CancelUpload(ctx context.Context, jobID string) error {
	return s.cancelErr
}

func (s *stubTransport) uploadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.uploads
}

func newSimulatedService(t *testing.T, failureRate float64, emitter Emitter) Uploader {
	t.Helper()
	sim := simulated.NewSimulatedService(simulated.Config{
		Delay:       0,
		FailureRate: failureRate,
		Seed:        42,
	}, logger.NewTestLogger())

	svc, err := NewService(sim, nil, emitter, logger.NewTestLogger())
	require.NoError(t, err)
	return svc
}

func source(name string, size int64) models.FileSource {
	return models.FileSource{
		Name:    name,
		Size:    size,
		Content: strings.NewReader("content"),
	}
}

func TestSubmitSuccess(t *testing.T) {
	emitter := &recordingEmitter{}
	svc := newSimulatedService(t, 0, emitter)

	result := svc.Submit(context.Background(), source("report.md", 2048), models.UploadMetadata{
		Tags:        []string{"reports"},
		Description: "weekly report",
	})

	require.True(t, result.Success)
	assert.NotEmpty(t, result.DocumentID)
	assert.NotEmpty(t, result.JobID)
	assert.Equal(t, "report.md", result.Filename)
	assert.Empty(t, result.Error)

	assert.Equal(t, []models.EventKind{models.EventStarted, models.EventCompleted}, emitter.kinds())
}

func TestSubmitAlwaysFailingTransport(t *testing.T) {
	emitter := &recordingEmitter{}
	svc := newSimulatedService(t, 1, emitter)

	result := svc.Submit(context.Background(), source("report.md", 2048), models.UploadMetadata{})

	require.False(t, result.Success)
	assert.NotEmpty(t, result.Error)
	assert.Equal(t, 1, emitter.count(models.EventFailed))
	assert.Equal(t, 0, emitter.count(models.EventCompleted))
}

func TestSubmitValidationFailureSkipsTransport(t *testing.T) {
	emitter := &recordingEmitter{}
	stub := &stubTransport{}
	svc, err := NewService(stub, nil, emitter, logger.NewTestLogger())
	require.NoError(t, err)

	result := svc.Submit(context.Background(), source("image.exe", 1024), models.UploadMetadata{})

	require.False(t, result.Success)
	assert.Contains(t, result.Error, ".exe")
	assert.Equal(t, 0, stub.uploadCount())
	assert.Equal(t, []models.EventKind{models.EventFailed}, emitter.kinds())
}

func TestSubmitReportsEveryValidationError(t *testing.T) {
	svc, err := NewService(&stubTransport{}, nil, nil, logger.NewTestLogger())
	require.NoError(t, err)

	// oversized and unsupported at once
	result := svc.Submit(context.Background(), source("dump.bin", 20*1024*1024), models.UploadMetadata{})

	require.False(t, result.Success)
	assert.Contains(t, result.Error, "exceeds maximum")
	assert.Contains(t, result.Error, "not supported")
}

func TestSubmitTransportErrorBecomesFailureResult(t *testing.T) {
	emitter := &recordingEmitter{}
	stub := &stubTransport{uploadErr: errors.New("connection reset")}
	svc, err := NewService(stub, nil, emitter, logger.NewTestLogger())
	require.NoError(t, err)

	result := svc.Submit(context.Background(), source("report.md", 2048), models.UploadMetadata{})

	require.False(t, result.Success)
	assert.Contains(t, result.Error, "connection reset")
	assert.Equal(t, 1, emitter.count(models.EventFailed))
}

func TestSubmitBatchPreservesOrderAndIsolatesFailures(t *testing.T) {
	svc := newSimulatedService(t, 0, nil)

	results := svc.SubmitBatch(context.Background(), []models.FileSource{
		source("a.txt", 100),
		source("b.exe", 100),
		source("c.md", 100),
	}, models.UploadMetadata{})

	require.Len(t, results, 3)
	assert.True(t, results[0].Success)
	assert.Equal(t, "a.txt", results[0].Filename)
	assert.False(t, results[1].Success)
	assert.NotEmpty(t, results[1].Error)
	assert.True(t, results[2].Success)
	assert.Equal(t, "c.md", results[2].Filename)
}

func TestSubmitBatchEmpty(t *testing.T) {
	svc := newSimulatedService(t, 0, nil)
	results := svc.SubmitBatch(context.Background(), nil, models.UploadMetadata{})
	assert.Empty(t, results)
}

func TestGetProgressUnknownJob(t *testing.T) {
	svc := newSimulatedService(t, 0, nil)

	_, err := svc.GetProgress(context.Background(), "no-such-job")
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrUnknownJob))
}

func TestGetProgressAfterUpload(t *testing.T) {
	svc := newSimulatedService(t, 0, nil)

	result := svc.Submit(context.Background(), source("report.md", 2048), models.UploadMetadata{})
	require.True(t, result.Success)

	progress, err := svc.GetProgress(context.Background(), result.JobID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSuccess, progress.Status)
	assert.Equal(t, 100, progress.Percent)
}

func TestCancelIsIdempotent(t *testing.T) {
	svc := newSimulatedService(t, 0, nil)

	result := svc.Submit(context.Background(), source("report.md", 2048), models.UploadMetadata{})
	require.True(t, result.Success)

	// cancelling a completed job, twice, and an unknown job: all no-ops
	assert.NoError(t, svc.Cancel(context.Background(), result.JobID))
	assert.NoError(t, svc.Cancel(context.Background(), result.JobID))
	assert.NoError(t, svc.Cancel(context.Background(), "no-such-job"))
}

func TestNewServiceRequiresTransport(t *testing.T) {
	_, err := NewService(nil, nil, nil, logger.NewTestLogger())
	require.Error(t, err)

	_, err = NewService(&stubTransport{}, nil, nil, nil)
	require.Error(t, err)
}
