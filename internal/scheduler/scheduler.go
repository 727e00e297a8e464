package scheduler

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-co-op/gocron/v2"
)

// ErrJobNotFound is returned for unknown job ids.
var ErrJobNotFound = errors.New("job not found")

// JobStatus represents the status of a job.
type JobStatus string

const (
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusScheduled JobStatus = "scheduled"
)

// JobInfo contains information about a scheduled job.
type JobInfo struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Status      JobStatus `json:"status"`
	LastRun     time.Time `json:"lastRun"`
	NextRun     time.Time `json:"nextRun"`
	Schedule    string    `json:"schedule"`
	RunCount    int       `json:"runCount"`
	ErrorCount  int       `json:"errorCount"`
	LastError   string    `json:"lastError,omitempty"`
	LastResult  string    `json:"lastResult,omitempty"`
	Singleton   bool      `json:"singleton"`
}

// JobFunc is the work done by a job. The returned string is kept as the job's last result.
type JobFunc func(ctx context.Context) (string, error)

type job struct {
	info   JobInfo
	fn     JobFunc
	gocron gocron.Job
}

// Scheduler manages scheduled jobs.
type Scheduler struct {
	gocron gocron.Scheduler
	mu     sync.RWMutex
	jobs   map[string]*job
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a new scheduler.
func New() (*Scheduler, error) {
	gocronScheduler, err := gocron.NewScheduler(gocron.WithLogger(newLogger()))
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		gocron: gocronScheduler,
		jobs:   make(map[string]*job),
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

// Start starts the scheduler.
func (s *Scheduler) Start() {
	log.Info("Starting job scheduler")
	s.gocron.Start()

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, j := range s.jobs {
		if nextRun, err := j.gocron.NextRun(); err == nil {
			j.info.NextRun = nextRun
			log.Debug("Next run time for job", "id", id, "nextRun", nextRun)
		}
	}
}

// Stop stops the scheduler and cancels running jobs.
func (s *Scheduler) Stop() error {
	log.Info("Stopping job scheduler")
	s.cancel()
	return s.gocron.Shutdown()
}

// AddSingletonJob adds a job that never runs concurrently with itself.
// A run that would overlap is rescheduled.
func (s *Scheduler) AddSingletonJob(id, name, description, schedule string, jobDef gocron.JobDefinition, fn JobFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[id]; exists {
		return fmt.Errorf("job %s already exists", id)
	}

	j := &job{
		info: JobInfo{
			ID:          id,
			Name:        name,
			Description: description,
			Status:      JobStatusScheduled,
			Schedule:    schedule,
			Singleton:   true,
		},
		fn: fn,
	}

	gj, err := s.gocron.NewJob(
		jobDef,
		gocron.NewTask(s.wrapJobFunc(j)),
		gocron.WithName(id),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to create job %s: %w", id, err)
	}
	j.gocron = gj

	s.jobs[id] = j
	log.Info("Added job to scheduler", "id", id, "name", name, "schedule", schedule)
	return nil
}

// RunJobNow triggers a job immediately, outside of its schedule.
func (s *Scheduler) RunJobNow(id string) error {
	s.mu.RLock()
	j, exists := s.jobs[id]
	s.mu.RUnlock()
	if !exists {
		return fmt.Errorf("%s: %w", id, ErrJobNotFound)
	}

	log.Info("Manually triggering job", "id", id)
	if err := j.gocron.RunNow(); err != nil {
		return fmt.Errorf("failed to trigger job %s: %w", id, err)
	}
	return nil
}

// GetJobs returns a snapshot of all jobs ordered by id.
func (s *Scheduler) GetJobs() []JobInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobs := make([]JobInfo, 0, len(s.jobs))
	for _, j := range s.jobs {
		jobs = append(jobs, j.info)
	}
	slices.SortFunc(jobs, func(a, b JobInfo) int { return cmp.Compare(a.ID, b.ID) })
	return jobs
}

// GetJob returns a snapshot of a single job.
func (s *Scheduler) GetJob(id string) (JobInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	j, exists := s.jobs[id]
	if !exists {
		return JobInfo{}, fmt.Errorf("%s: %w", id, ErrJobNotFound)
	}
	return j.info, nil
}

// wrapJobFunc wraps a job function to update job statistics.
func (s *Scheduler) wrapJobFunc(j *job) func() {
	return func() {
		s.mu.Lock()
		id, name := j.info.ID, j.info.Name
		j.info.Status = JobStatusRunning
		j.info.LastRun = time.Now()
		j.info.RunCount++
		s.mu.Unlock()

		log.Info("Starting job", "id", id, "name", name)
		result, err := j.fn(s.ctx)

		s.mu.Lock()
		defer s.mu.Unlock()
		if j.gocron != nil {
			if nextRun, nerr := j.gocron.NextRun(); nerr == nil {
				j.info.NextRun = nextRun
			}
		}
		if err != nil {
			log.Error("Job failed", "id", id, "name", name, "error", err)
			j.info.Status = JobStatusFailed
			j.info.ErrorCount++
			j.info.LastError = err.Error()
			return
		}
		log.Info("Job completed", "id", id, "name", name, "result", result)
		j.info.Status = JobStatusCompleted
		j.info.LastError = ""
		j.info.LastResult = result
	}
}
