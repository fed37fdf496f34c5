package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"rx-logistics/internal/logger"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"
)

type Schedule int

const (
	Hourly Schedule = iota
	Daily           // 02:00 UTC
)

// Job is a task run by the scheduler.
type Job interface {
	Name() string
	Schedule() Schedule
	Execute(ctx context.Context) error
}

// Scheduler runs registered jobs in the background until stopped.
type Scheduler struct {
	scheduler *gocron.Scheduler
	jobs      []Job
	started   bool
	mu        sync.Mutex
	ctx       context.Context
	cancel    context.CancelFunc
}

func New() *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		ctx:       ctx,
		cancel:    cancel,
	}
}

func (s *Scheduler) AddJob(job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	switch job.Schedule() {
	case Hourly:
		_, err = s.scheduler.Every(1).Hour().Do(s.run, job)
	case Daily:
		_, err = s.scheduler.Every(1).Day().At("02:00").Do(s.run, job)
	default:
		err = fmt.Errorf("unknown schedule %d", job.Schedule())
	}
	if err != nil {
		return fmt.Errorf("failed to register job %s: %w", job.Name(), err)
	}

	s.jobs = append(s.jobs, job)
	logger.Info("Job registered", zap.String("job", job.Name()))
	return nil
}

func (s *Scheduler) run(job Job) {
	start := time.Now()
	if err := job.Execute(s.ctx); err != nil {
		logger.Error("Scheduled job failed",
			zap.String("job", job.Name()),
			zap.Error(err),
		)
		return
	}
	logger.Debug("Scheduled job completed",
		zap.String("job", job.Name()),
		zap.Duration("duration", time.Since(start)),
	)
}

func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started || len(s.jobs) == 0 {
		return
	}

	s.scheduler.StartAsync()
	s.started = true

	logger.Info("Scheduler started", zap.Int("jobs", len(s.jobs)))
}

// Stop cancels running jobs and waits for the scheduler to halt.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.cancel()
	s.scheduler.Stop()
	s.started = false

	logger.Info("Scheduler stopped")
}

func (s *Scheduler) JobCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}
