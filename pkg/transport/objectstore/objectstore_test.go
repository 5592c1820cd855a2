package objectstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docforge/uploader/internal/models"
	"github.com/docforge/uploader/pkg/logger"
	"github.com/docforge/uploader/pkg/queue"
)

// fakeStore keeps objects in memory.
type fakeStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: make(map[string][]byte)}
}

func (f *fakeStore) Store(ctx context.Context, reader io.Reader, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var data []byte
	if reader != nil {
		var err error
		data, err = io.ReadAll(reader)
		if err != nil {
			return "", err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = data
	return key, nil
}

func (f *fakeStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[key]
	if !ok {
		return nil, errors.New("object not found")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeStore) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	return nil
}

func (f *fakeStore) CleanupBefore(ctx context.Context, threshold time.Time) error {
	return nil
}

func (f *fakeStore) keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	keys := make([]string, 0, len(f.objects))
	for k := range f.objects {
		keys = append(keys, k)
	}
	return keys
}

// fakeQueue records tasks and statuses in memory.
type fakeQueue struct {
	mu       sync.Mutex
	tasks    map[string]*queue.Task
	statuses map[string]*queue.TaskStatus
}

func newFakeQueue() *fakeQueue {
	return &fakeQueue{
		tasks:    make(map[string]*queue.Task),
		statuses: make(map[string]*queue.TaskStatus),
	}
}

func (f *fakeQueue) Enqueue(ctx context.Context, task *queue.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks[task.ID] = task
	return nil
}

func (f *fakeQueue) GetTaskStatus(ctx context.Context, taskID string) (*queue.TaskStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	status, ok := f.statuses[taskID]
	if !ok {
		return nil, models.ErrUnknownJob
	}
	return status, nil
}

func (f *fakeQueue) CancelTask(ctx context.Context, taskID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.tasks, taskID)
	return nil
}

func (f *fakeQueue) SaveStatus(ctx context.Context, status *queue.TaskStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses[status.TaskID] = status
	return nil
}

func entity(name string) models.Upload {
	return models.NewUpload(models.NewFileDescriptor(models.FileSource{
		Name:    name,
		Size:    7,
		Content: strings.NewReader("content"),
	}), models.UploadMetadata{Tags: []string{"t"}})
}

func TestUploadStoresContentAndEnqueues(t *testing.T) {
	store := newFakeStore()
	q := newFakeQueue()
	svc, err := NewObjectStoreService(store, q, logger.NewTestLogger())
	require.NoError(t, err)

	result, err := svc.Upload(context.Background(), entity("report.md"))
	require.NoError(t, err)
	require.True(t, result.Success)
	require.NotEmpty(t, result.JobID)

	// content object, metadata record, queued task, pending status
	keys := store.keys()
	assert.Contains(t, keys, "content/"+result.JobID+"/report.md")
	assert.Contains(t, keys, "meta/"+result.JobID)
	assert.Contains(t, q.tasks, result.JobID)
	assert.Equal(t, queue.TaskTypeDocumentIngest, q.tasks[result.JobID].Type)
	assert.Equal(t, "pending", q.statuses[result.JobID].Status)
}

func TestGetProgressTranslatesQueueStatus(t *testing.T) {
	store := newFakeStore()
	q := newFakeQueue()
	svc, err := NewObjectStoreService(store, q, logger.NewTestLogger())
	require.NoError(t, err)

	tests := []struct {
		queueStatus string
		want        models.UploadStatus
	}{
		{"pending", models.StatusIdle},
		{"processing", models.StatusProcessing},
		{"completed", models.StatusSuccess},
		{"failed", models.StatusError},
	}

	for _, tt := range tests {
		t.Run(tt.queueStatus, func(t *testing.T) {
			require.NoError(t, q.SaveStatus(context.Background(), &queue.TaskStatus{
				TaskID: "job-x",
				Status: tt.queueStatus,
			}))

			progress, err := svc.GetProgress(context.Background(), "job-x")
			require.NoError(t, err)
			assert.Equal(t, tt.want, progress.Status)
		})
	}
}

func TestGetProgressUnknownJob(t *testing.T) {
	svc, err := NewObjectStoreService(newFakeStore(), newFakeQueue(), logger.NewTestLogger())
	require.NoError(t, err)

	_, err = svc.GetProgress(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrUnknownJob))
}

func TestUploadCancelledContext(t *testing.T) {
	svc, err := NewObjectStoreService(newFakeStore(), newFakeQueue(), logger.NewTestLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = svc.Upload(ctx, entity("report.md"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrCancelled))
}

func TestCancelUploadIdempotent(t *testing.T) {
	store := newFakeStore()
	q := newFakeQueue()
	svc, err := NewObjectStoreService(store, q, logger.NewTestLogger())
	require.NoError(t, err)

	result, err := svc.Upload(context.Background(), entity("report.md"))
	require.NoError(t, err)

	assert.NoError(t, svc.CancelUpload(context.Background(), result.JobID))
	assert.NoError(t, svc.CancelUpload(context.Background(), result.JobID))
	assert.NoError(t, svc.CancelUpload(context.Background(), "missing"))
}

func TestNewObjectStoreServiceRequiresCollaborators(t *testing.T) {
	_, err := NewObjectStoreService(nil, newFakeQueue(), logger.NewTestLogger())
	require.Error(t, err)

	_, err = NewObjectStoreService(newFakeStore(), nil, logger.NewTestLogger())
	require.Error(t, err)
}
