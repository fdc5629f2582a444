package scheduler

import (
	"context"
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Job is a unit of background work. An empty schedule registers the job for
// on-demand runs only.
type Job interface {
	GetName() string
	GetSchedule() string
	Execute(ctx context.Context) error
}

type Scheduler struct {
	cron   *cron.Cron
	zone   string
	jobs   []Job
	logger zerolog.Logger
}

// NewScheduler evaluates every schedule in zone unless the schedule carries
// its own CRON_TZ prefix.
func NewScheduler(zone string, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		zone:   zone,
		jobs:   make([]Job, 0),
		logger: logger,
	}
}

func (s *Scheduler) Register(job Job) error {
	schedule := job.GetSchedule()
	if schedule == "" {
		s.jobs = append(s.jobs, job)
		s.logger.Info().Str("job", job.GetName()).Msg("registered as on-demand job")
		return nil
	}

	spec := s.withZone(schedule)
	if _, err := s.cron.AddFunc(spec, func() { s.run(context.Background(), job) }); err != nil {
		return fmt.Errorf("schedule %s: %w", job.GetName(), err)
	}
	s.jobs = append(s.jobs, job)

	s.logger.Info().Str("job", job.GetName()).Str("cron", spec).Msg("job scheduled")
	return nil
}

func (s *Scheduler) withZone(schedule string) string {
	if s.zone == "" || strings.HasPrefix(schedule, "CRON_TZ=") || strings.HasPrefix(schedule, "TZ=") {
		return schedule
	}
	return "CRON_TZ=" + s.zone + " " + schedule
}

func (s *Scheduler) run(ctx context.Context, job Job) {
	s.logger.Debug().Str("job", job.GetName()).Msg("starting scheduled job")
	if err := job.Execute(ctx); err != nil {
		s.logger.Error().Err(err).Str("job", job.GetName()).Msg("job failed")
		return
	}
	s.logger.Debug().Str("job", job.GetName()).Msg("job completed")
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info().Int("jobs", len(s.jobs)).Msg("scheduler started")
}

// Stop halts new runs and returns a context that is done once running jobs
// have finished.
func (s *Scheduler) Stop() context.Context {
	ctx := s.cron.Stop()
	s.logger.Info().Msg("scheduler stopped")
	return ctx
}

// RunByName executes a registered job immediately.
func (s *Scheduler) RunByName(ctx context.Context, name string) error {
	for _, job := range s.jobs {
		if job.GetName() == name {
			return job.Execute(ctx)
		}
	}
	return fmt.Errorf("job %q not registered", name)
}

func (s *Scheduler) JobNames() []string {
	names := make([]string, len(s.jobs))
	for i, job := range s.jobs {
		names[i] = job.GetName()
	}
	return names
}
