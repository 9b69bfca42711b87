package service

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sekundarstufe/stundenplan-core/internal/domain"
	"github.com/sekundarstufe/stundenplan-core/internal/dto"
	"github.com/sekundarstufe/stundenplan-core/pkg/config"
	appErrors "github.com/sekundarstufe/stundenplan-core/pkg/errors"
	"github.com/sekundarstufe/stundenplan-core/pkg/jobs"
)

// Job lifecycle states.
const (
	JobStateQueued  = "queued"
	JobStateRunning = "running"
	JobStateDone    = "done"
	JobStateFailed  = "failed"
)

type solvePayload struct {
	data *domain.SchoolData
	pins []domain.PinnedLesson
	opts SolveOptions
}

// SolveJobService runs solves on the background queue so the HTTP surface
// can acknowledge immediately and let clients poll for the result.
type SolveJobService struct {
	solver *SolveService
	queue  *jobs.Queue
	logger *zap.Logger

	mu      sync.RWMutex
	results map[string]*dto.JobStatusResponse
}

// NewSolveJobService constructs the service and its backing queue.
func NewSolveJobService(solver *SolveService, cfg config.JobsConfig, logger *zap.Logger) *SolveJobService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &SolveJobService{
		solver:  solver,
		logger:  logger,
		results: map[string]*dto.JobStatusResponse{},
	}
	s.queue = jobs.NewQueue("solve", s.handle, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: 1, // a failed solve is not retried; the input won't change
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return s
}

// Start launches the queue workers.
func (s *SolveJobService) Start(ctx context.Context) { s.queue.Start(ctx) }

// Stop drains the queue workers.
func (s *SolveJobService) Stop() { s.queue.Stop() }

// Enqueue submits a solve and returns its job ID.
func (s *SolveJobService) Enqueue(data *domain.SchoolData, pins []domain.PinnedLesson, opts SolveOptions) (string, error) {
	jobID := uuid.NewString()
	s.setStatus(&dto.JobStatusResponse{JobID: jobID, State: JobStateQueued})

	err := s.queue.Enqueue(jobs.Job{
		ID:      jobID,
		Type:    jobs.TypeSolve,
		Payload: solvePayload{data: data, pins: pins, opts: opts},
	})
	if err != nil {
		s.dropStatus(jobID)
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue solve")
	}
	return jobID, nil
}

// Status reports a job's current state.
func (s *SolveJobService) Status(jobID string) (*dto.JobStatusResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	status, ok := s.results[jobID]
	if !ok {
		return nil, appErrors.ErrNotFound
	}
	return status, nil
}

func (s *SolveJobService) handle(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(solvePayload)
	if !ok {
		s.setStatus(&dto.JobStatusResponse{JobID: job.ID, State: JobStateFailed, Error: "malformed job payload"})
		return nil
	}
	s.setStatus(&dto.JobStatusResponse{JobID: job.ID, State: JobStateRunning})

	resp, err := s.solver.Solve(ctx, payload.data, payload.pins, payload.opts)
	if err != nil {
		s.setStatus(&dto.JobStatusResponse{JobID: job.ID, State: JobStateFailed, Error: err.Error(), Response: resp})
		return nil
	}
	s.setStatus(&dto.JobStatusResponse{JobID: job.ID, State: JobStateDone, Response: resp})
	return nil
}

func (s *SolveJobService) setStatus(status *dto.JobStatusResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[status.JobID] = status
}

func (s *SolveJobService) dropStatus(jobID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.results, jobID)
}
