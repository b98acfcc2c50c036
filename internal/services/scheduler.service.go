package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
	"warrantyhub/internal/constants"
	"warrantyhub/internal/types"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/go-co-op/gocron"
	"github.com/google/uuid"
)

var (
	ErrJobNotFound      = errors.New("job not found")
	ErrJobAlreadyExists = errors.New("job already registered")
	ErrJobRunning       = errors.New("job is already running")
)

type ScheduleInterval int

const (
	Hourly ScheduleInterval = iota
	Daily
)

// Schedule describes when a job runs. At is "HH:MM" in the scheduler's
// location and only applies to daily jobs.
type Schedule struct {
	Interval ScheduleInterval
	At       string
}

func DailyAt(at string) Schedule {
	return Schedule{Interval: Daily, At: at}
}

func (s Schedule) String() string {
	if s.Interval == Daily {
		return "daily at " + s.At
	}
	return "hourly"
}

// Job is a unit of scheduled work. Execute returns how many items it
// processed.
type Job interface {
	Name() string
	Schedule() Schedule
	Execute(ctx context.Context) (int, error)
}

// SchedulerService owns the process-wide cron scheduler. It is created once
// at startup and shared by the HTTP layer.
type SchedulerService struct {
	scheduler  *gocron.Scheduler
	location   *time.Location
	jobs       map[string]Job
	jobOrder   []string
	cronJobs   map[string]*gocron.Job
	running    map[string]bool
	lastRuns   map[string]types.JobRun
	history    []types.JobRun
	historyCap int
	started    bool
	mu         sync.Mutex
	ctx        context.Context
	cancel     context.CancelFunc
	Now        Clock
	log        logger.Logger
}

func NewSchedulerService(location *time.Location) *SchedulerService {
	if location == nil {
		location = time.UTC
	}

	scheduler := gocron.NewScheduler(location)
	scheduler.SingletonModeAll()

	ctx, cancel := context.WithCancel(context.Background())

	return &SchedulerService{
		scheduler:  scheduler,
		location:   location,
		jobs:       make(map[string]Job),
		cronJobs:   make(map[string]*gocron.Job),
		running:    make(map[string]bool),
		lastRuns:   make(map[string]types.JobRun),
		historyCap: constants.SchedulerHistoryLimit,
		ctx:        ctx,
		cancel:     cancel,
		Now:        time.Now,
		log:        logger.New("scheduler"),
	}
}

// AddJob registers a job with the cron scheduler. Names must be unique.
func (s *SchedulerService) AddJob(job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := s.log.Function("AddJob")

	if _, exists := s.jobs[job.Name()]; exists {
		return log.Err("job already registered", ErrJobAlreadyExists, "job", job.Name())
	}

	task := func() {
		_, _ = s.runJob(s.ctx, job, types.JobTriggerScheduled)
	}

	var cronJob *gocron.Job
	var err error
	schedule := job.Schedule()
	switch schedule.Interval {
	case Daily:
		cronJob, err = s.scheduler.Every(1).Day().At(schedule.At).Do(task)
	case Hourly:
		cronJob, err = s.scheduler.Every(1).Hour().Do(task)
	default:
		err = fmt.Errorf("unsupported schedule interval %d", schedule.Interval)
	}
	if err != nil {
		return log.Err("failed to register job with scheduler", err, "job", job.Name())
	}

	s.jobs[job.Name()] = job
	s.jobOrder = append(s.jobOrder, job.Name())
	s.cronJobs[job.Name()] = cronJob
	log.Info("Job registered", "job", job.Name(), "schedule", schedule.String())

	return nil
}

// EnsureInitialized starts the scheduler once; later calls are no-ops.
func (s *SchedulerService) EnsureInitialized(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := s.log.TraceFromContext(ctx).Function("EnsureInitialized")

	if s.started {
		return nil
	}

	if len(s.jobs) == 0 {
		log.Info("No jobs registered, scheduler will not start")
		return nil
	}

	s.scheduler.StartAsync()
	s.started = true

	for _, name := range s.jobOrder {
		log.Info("Job scheduled", "job", name, "nextRun", s.cronJobs[name].NextRun())
	}
	log.Info("Scheduler started", "jobCount", len(s.jobs), "timezone", s.location.String())
	return nil
}

func (s *SchedulerService) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

// GetStatus returns registered jobs and the run history, newest first.
func (s *SchedulerService) GetStatus() types.SchedulerStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := types.SchedulerStatus{
		Running:  s.started,
		Timezone: s.location.String(),
		Jobs:     make([]types.JobStatus, 0, len(s.jobOrder)),
		History:  make([]types.JobRun, 0, len(s.history)),
	}

	for _, name := range s.jobOrder {
		jobStatus := types.JobStatus{
			Name:     name,
			Schedule: s.jobs[name].Schedule().String(),
			Running:  s.running[name],
		}
		if s.started {
			if next := s.cronJobs[name].NextRun(); !next.IsZero() {
				jobStatus.NextRun = &next
			}
		}
		if last, ok := s.lastRuns[name]; ok {
			jobStatus.LastRun = &last
		}
		status.Jobs = append(status.Jobs, jobStatus)
	}

	for i := len(s.history) - 1; i >= 0; i-- {
		status.History = append(status.History, s.history[i])
	}

	return status
}

// TriggerJob runs a registered job now, on the caller's goroutine, and
// records it in the history. The returned error is the job's own error.
func (s *SchedulerService) TriggerJob(ctx context.Context, name string) (types.JobRun, error) {
	log := s.log.TraceFromContext(ctx).Function("TriggerJob")

	s.mu.Lock()
	job, ok := s.jobs[name]
	s.mu.Unlock()

	if !ok {
		return types.JobRun{}, log.Err("job not found", ErrJobNotFound, "job", name)
	}

	log.Info("Manually triggering job", "job", name)
	return s.runJob(ctx, job, types.JobTriggerManual)
}

func (s *SchedulerService) runJob(
	ctx context.Context,
	job Job,
	trigger types.JobTrigger,
) (types.JobRun, error) {
	log := s.log.TraceFromContext(ctx).Function("runJob")

	s.mu.Lock()
	if s.running[job.Name()] {
		s.mu.Unlock()
		log.Warn("Job already running, skipping", "job", job.Name(), "trigger", trigger)
		return types.JobRun{}, ErrJobRunning
	}
	s.running[job.Name()] = true
	s.mu.Unlock()

	run := types.JobRun{
		ID:        uuid.New(),
		Job:       job.Name(),
		Trigger:   trigger,
		StartedAt: s.Now(),
	}

	processed, err := s.execute(ctx, job)

	run.FinishedAt = s.Now()
	run.DurationMs = run.FinishedAt.Sub(run.StartedAt).Milliseconds()
	run.Processed = processed
	run.Success = err == nil
	if err != nil {
		run.Error = err.Error()
		log.Er("Job execution failed", err, "job", job.Name(), "trigger", trigger)
	} else {
		log.Info("Job completed", "job", job.Name(), "trigger", trigger, "processed", processed)
	}

	s.mu.Lock()
	s.running[job.Name()] = false
	s.lastRuns[job.Name()] = run
	s.history = append(s.history, run)
	if len(s.history) > s.historyCap {
		s.history = s.history[len(s.history)-s.historyCap:]
	}
	s.mu.Unlock()

	return run, err
}

func (s *SchedulerService) execute(ctx context.Context, job Job) (processed int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return job.Execute(ctx)
}

// Stop halts the cron loop and cancels the context handed to scheduled runs.
func (s *SchedulerService) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := s.log.TraceFromContext(ctx).Function("Stop")

	if s.cancel != nil {
		s.cancel()
	}

	if !s.started {
		return nil
	}

	s.scheduler.Stop()
	s.started = false
	log.Info("Scheduler stopped")
	return nil
}
