// Package scheduler runs background maintenance jobs on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/agenthands/cognivault/internal/logger"
)

type Job interface {
	Name() string
	Schedule() string
	Run(ctx context.Context) error
}

// FuncJob adapts a function to Job.
type FuncJob struct {
	JobName string
	Cron    string
	Func    func(ctx context.Context) error
}

func (f FuncJob) Name() string                  { return f.JobName }
func (f FuncJob) Schedule() string              { return f.Cron }
func (f FuncJob) Run(ctx context.Context) error { return f.Func(ctx) }

// Scheduler never runs two ticks of the same job at once; a tick that finds
// the previous one still running is skipped.
type Scheduler struct {
	mu     sync.Mutex
	cron   *cron.Cron
	jobs   []Job
	locks  map[string]*sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
}

func New() *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		locks:  make(map[string]*sync.Mutex),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Register adds a job. It must be called before Start.
func (s *Scheduler) Register(j Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.locks[j.Name()]; exists {
		return fmt.Errorf("scheduler: duplicate job name %q", j.Name())
	}
	s.locks[j.Name()] = &sync.Mutex{}
	s.jobs = append(s.jobs, j)
	return nil
}

// Start validates every schedule and begins ticking.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	s.cron = cron.New(cron.WithParser(parser))

	for _, j := range s.jobs {
		job := j
		if _, err := s.cron.AddFunc(job.Schedule(), func() { s.tick(job) }); err != nil {
			return fmt.Errorf("scheduler: invalid schedule for job %q: %w", job.Name(), err)
		}
	}

	s.cron.Start()
	logger.Info("Scheduler started", "jobs", len(s.jobs))
	return nil
}

// tick runs one execution of job and reports whether it ran.
func (s *Scheduler) tick(job Job) bool {
	lock := s.locks[job.Name()]
	if !lock.TryLock() {
		logger.Warn("job still running, skipping tick", "job", job.Name())
		return false
	}
	defer lock.Unlock()

	logger.Debug("job started", "job", job.Name())
	if err := job.Run(s.ctx); err != nil {
		logger.Error("job failed", "job", job.Name(), "error", err)
	} else {
		logger.Debug("job completed", "job", job.Name())
	}
	return true
}

// Stop cancels running jobs and waits for them to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancel()
	if s.cron != nil {
		<-s.cron.Stop().Done()
		logger.Info("Scheduler stopped")
	}
}
