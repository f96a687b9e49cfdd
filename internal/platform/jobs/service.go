package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"zenpayroll/internal/platform/kv"
	"zenpayroll/internal/platform/metrics"
)

const (
	JobSessionSweep = "session_sweep"

	maxKeptRuns = 200
)

// Run is the persisted outcome of one job execution.
type Run struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Status      string    `json:"status"`
	Details     any       `json:"details,omitempty"`
	Error       string    `json:"error,omitempty"`
	StartedAt   time.Time `json:"startedAt"`
	CompletedAt time.Time `json:"completedAt"`
}

type Func func(context.Context) (any, error)

type Service struct {
	runs    *kv.Collection[Run]
	metrics *metrics.Collector
	queue   chan job
	now     func() time.Time
}

type job struct {
	Type string
	Run  Func
}

// New returns a runner that records every run in the job-runs namespace.
// collector may be nil.
func New(store kv.Store, collector *metrics.Collector) *Service {
	return &Service{
		runs:    kv.NewCollection(store, kv.NSJobRuns, func(r Run) string { return r.ID }, nil),
		metrics: collector,
		queue:   make(chan job, 128),
		now:     time.Now,
	}
}

// Start runs the worker until ctx is done.
func (s *Service) Start(ctx context.Context) {
	go s.worker(ctx)
}

// Every enqueues run once per interval until ctx is done.
func (s *Service) Every(ctx context.Context, interval time.Duration, jobType string, run Func) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Enqueue(jobType, run)
			}
		}
	}()
}

func (s *Service) Enqueue(jobType string, run Func) {
	select {
	case s.queue <- job{Type: jobType, Run: run}:
	default:
		slog.Warn("job queue full", "jobType", jobType)
	}
}

func (s *Service) RunNow(ctx context.Context, jobType string, run Func) (Run, error) {
	return s.runJob(ctx, job{Type: jobType, Run: run})
}

// Recent returns the recorded runs, newest first.
func (s *Service) Recent(ctx context.Context) ([]Run, error) {
	runs, err := s.runs.List(ctx)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(runs)-1; i < j; i, j = i+1, j-1 {
		runs[i], runs[j] = runs[j], runs[i]
	}
	return runs, nil
}

func (s *Service) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			if _, err := s.runJob(ctx, j); err != nil {
				slog.Warn("job run failed", "jobType", j.Type, "err", err)
			}
		}
	}
}

func (s *Service) runJob(ctx context.Context, j job) (Run, error) {
	started := s.now().UTC()
	run := Run{Type: j.Type, Status: "completed", StartedAt: started}

	details, err := j.Run(ctx)
	run.Details = details
	run.CompletedAt = s.now().UTC()
	if err != nil {
		run.Status = "failed"
		run.Error = err.Error()
	}
	if s.metrics != nil {
		s.metrics.RecordJob(err != nil)
	}

	stored, addErr := s.runs.AddUnique(ctx, func(attempt int) Run {
		run.ID = fmt.Sprintf("JOB%d", started.UnixMilli()+int64(attempt))
		return run
	})
	if addErr != nil {
		slog.Warn("job run record failed", "jobType", j.Type, "err", addErr)
	} else {
		run = stored
		s.trim(ctx)
	}
	return run, err
}

// trim keeps the newest maxKeptRuns records.
func (s *Service) trim(ctx context.Context) {
	runs, err := s.runs.List(ctx)
	if err != nil || len(runs) <= maxKeptRuns {
		return
	}
	for _, old := range runs[:len(runs)-maxKeptRuns] {
		if err := s.runs.Remove(ctx, old.ID); err != nil {
			slog.Warn("job run trim failed", "id", old.ID, "err", err)
			return
		}
	}
}
