package simulated

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docforge/uploader/internal/models"
	"github.com/docforge/uploader/pkg/logger"
)

func upload(name string) models.Upload {
	return models.NewUpload(models.NewFileDescriptor(models.FileSource{
		Name:    name,
		Size:    1024,
		Content: strings.NewReader("content"),
	}), models.UploadMetadata{})
}

func TestUploadSucceedsWithZeroFailureRate(t *testing.T) {
	svc := NewSimulatedService(Config{Seed: 1}, logger.NewTestLogger())

	result, err := svc.Upload(context.Background(), upload("a.txt"))
	require.NoError(t, err)
	require.True(t, result.Success)
	assert.NotEmpty(t, result.JobID)
	assert.Equal(t, "a.txt", result.Filename)
}

func TestUploadAlwaysFails(t *testing.T) {
	svc := NewSimulatedService(Config{FailureRate: 1, Seed: 1}, logger.NewTestLogger())

	result, err := svc.Upload(context.Background(), upload("a.txt"))
	require.NoError(t, err)
	require.False(t, result.Success)
	assert.NotEmpty(t, result.Error)
}

func TestSeededRunsAreDeterministic(t *testing.T) {
	run := func() []bool {
		svc := NewSimulatedService(Config{FailureRate: 0.5, Seed: 99}, logger.NewTestLogger())
		outcomes := make([]bool, 0, 10)
		for i := 0; i < 10; i++ {
			result, err := svc.Upload(context.Background(), upload("a.txt"))
			require.NoError(t, err)
			outcomes = append(outcomes, result.Success)
		}
		return outcomes
	}

	assert.Equal(t, run(), run())
}

func TestUploadHonorsCancellation(t *testing.T) {
	svc := NewSimulatedService(Config{Delay: time.Minute, Seed: 1}, logger.NewTestLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Upload(ctx, upload("a.txt"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrCancelled))
}

func TestGetProgressUnknownJob(t *testing.T) {
	svc := NewSimulatedService(Config{Seed: 1}, logger.NewTestLogger())

	_, err := svc.GetProgress(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrUnknownJob))
}

func TestGetProgressAfterSuccess(t *testing.T) {
	svc := NewSimulatedService(Config{Seed: 1}, logger.NewTestLogger())

	result, err := svc.Upload(context.Background(), upload("a.txt"))
	require.NoError(t, err)

	progress, err := svc.GetProgress(context.Background(), result.JobID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSuccess, progress.Status)
	assert.Equal(t, 100, progress.Percent)
}

func TestCancelUploadIsIdempotent(t *testing.T) {
	svc := NewSimulatedService(Config{Seed: 1}, logger.NewTestLogger())

	result, err := svc.Upload(context.Background(), upload("a.txt"))
	require.NoError(t, err)

	// settled job: cancel is a no-op, repeatedly
	assert.NoError(t, svc.CancelUpload(context.Background(), result.JobID))
	assert.NoError(t, svc.CancelUpload(context.Background(), result.JobID))

	// still reported as settled, not cancelled
	progress, err := svc.GetProgress(context.Background(), result.JobID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSuccess, progress.Status)

	// unknown job: also a no-op
	assert.NoError(t, svc.CancelUpload(context.Background(), "missing"))
}
