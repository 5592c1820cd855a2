// Package simulated provides an in-memory transport adapter with a
// configurable delay and failure ratio. Seeded, it behaves deterministically
// and serves as the test double for the orchestrator.
package simulated

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	cfg "github.com/docforge/uploader/config"
	"github.com/docforge/uploader/internal/models"
	"github.com/docforge/uploader/pkg/logger"
)

// Config tunes the simulation.
type Config struct {
	// Delay is the artificial transfer duration.
	Delay time.Duration
	// FailureRate is the probability in [0,1] that an upload fails.
	FailureRate float64
	// Seed fixes the random sequence; zero seeds from the clock.
	Seed int64
}

type jobState struct {
	progress models.UploadProgress
}

// SimulatedService implements transport.Service in memory.
type SimulatedService struct {
	config Config
	logger logger.Logger

	mu   sync.Mutex
	rng  *rand.Rand
	jobs map[string]*jobState
}

// NewSimulatedService creates an adapter with the given simulation settings.
func NewSimulatedService(config Config, log logger.Logger) *SimulatedService {
	seed := config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &SimulatedService{
		config: config,
		logger: log,
		rng:    rand.New(rand.NewSource(seed)),
		jobs:   make(map[string]*jobState),
	}
}

func GetClient(log logger.Logger) (*SimulatedService, error) {
	ac := cfg.GetAppConfig()
	return NewSimulatedService(Config{
		Delay:       ac.Simulated.Delay,
		FailureRate: ac.Simulated.FailureRate,
		Seed:        ac.Simulated.Seed,
	}, log), nil
}

// Upload implements transport.Service. The artificial delay races the
// caller's context; a tripped context settles as a cancellation.
func (s *SimulatedService) Upload(ctx context.Context, upload models.Upload) (*models.UploadResult, error) {
	jobID := uuid.New().String()

	s.setJob(jobID, models.UploadProgress{
		Percent: 0,
		Message: "Simulated transfer in progress",
		Status:  models.StatusUploading,
	})

	if s.config.Delay > 0 {
		timer := time.NewTimer(s.config.Delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			s.setJob(jobID, models.UploadProgress{
				Percent: 0,
				Message: "Upload cancelled",
				Status:  models.StatusError,
			})
			return nil, fmt.Errorf("simulated upload of %s: %w", upload.File.Name, models.ErrCancelled)
		}
	}

	if s.roll() < s.config.FailureRate {
		s.setJob(jobID, models.UploadProgress{
			Percent: 0,
			Message: "Simulated upload failure",
			Status:  models.StatusError,
		})
		return models.FailureResult("simulated upload failure"), nil
	}

	s.setJob(jobID, models.UploadProgress{
		Percent: 100,
		Message: "Upload completed",
		Status:  models.StatusSuccess,
	})

	return models.SuccessResult(upload.File.ID, jobID, upload.File.Name, "Upload completed"), nil
}

// GetProgress implements transport.Service.
func (s *SimulatedService) GetProgress(ctx context.Context, jobID string) (*models.UploadProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return nil, fmt.Errorf("job %s: %w", jobID, models.ErrUnknownJob)
	}

	progress := job.progress
	return &progress, nil
}

// CancelUpload implements transport.Service. Unknown and already-settled
// jobs are no-ops.
func (s *SimulatedService) CancelUpload(ctx context.Context, jobID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok || job.progress.Status.IsTerminal() {
		return nil
	}

	job.progress = models.UploadProgress{
		Percent: 0,
		Message: "Upload cancelled",
		Status:  models.StatusError,
	}
	return nil
}

func (s *SimulatedService) setJob(jobID string, progress models.UploadProgress) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok {
		job = &jobState{}
		s.jobs[jobID] = job
	}
	// settled jobs stay settled
	if job.progress.Status.IsTerminal() {
		return
	}
	job.progress = progress
}

// rand.Rand is not safe for concurrent use, so rolls go through the mutex.
func (s *SimulatedService) roll() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}
