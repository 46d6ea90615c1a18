// Package scheduler runs the server's periodic jobs on gocron.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Job is a periodic task. The context is cancelled when the scheduler stops.
type Job func(ctx context.Context) error

// Scheduler wraps a gocron scheduler running in UTC with slog logging.
type Scheduler struct {
	scheduler gocron.Scheduler
	ctx       context.Context
	cancel    context.CancelFunc
}

// New creates a scheduler. Jobs do not run until Start is called.
func New() (*Scheduler, error) {
	s, err := gocron.NewScheduler(
		gocron.WithLocation(time.UTC),
		gocron.WithLogger(&gocronLogAdapter{}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{scheduler: s, ctx: ctx, cancel: cancel}, nil
}

// AddCronJob schedules job with a five-field cron expression. Runs of the
// same job never overlap.
func (s *Scheduler) AddCronJob(name, cronExpr string, job Job) error {
	if name == "" {
		return errors.New("empty job name")
	}
	if cronExpr == "" {
		return errors.New("empty cron expression")
	}
	if job == nil {
		return errors.New("nil job function")
	}

	_, err := s.scheduler.NewJob(
		gocron.CronJob(cronExpr, false),
		gocron.NewTask(s.wrap(name, job)),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule job %q: %w", name, err)
	}
	slog.Info("scheduled job", "job", name, "cron", cronExpr)
	return nil
}

func (s *Scheduler) wrap(name string, job Job) func() {
	return func() {
		start := time.Now()
		if err := job(s.ctx); err != nil {
			slog.Error("scheduled job failed", "job", name, "error", err)
			return
		}
		slog.Debug("scheduled job finished", "job", name, "duration_ms", time.Since(start).Milliseconds())
	}
}

// Start begins running scheduled jobs.
func (s *Scheduler) Start() {
	s.scheduler.Start()
}

// Stop cancels running jobs and waits for them to return.
func (s *Scheduler) Stop() error {
	s.cancel()
	if err := s.scheduler.Shutdown(); err != nil {
		return fmt.Errorf("failed to shutdown scheduler: %w", err)
	}
	return nil
}

// gocronLogAdapter routes gocron's logger into slog.
type gocronLogAdapter struct{}

func (l *gocronLogAdapter) Debug(msg string, args ...any) { slog.Debug(msg, toSlogArgs(args)...) }
func (l *gocronLogAdapter) Info(msg string, args ...any)  { slog.Info(msg, toSlogArgs(args)...) }
func (l *gocronLogAdapter) Warn(msg string, args ...any)  { slog.Warn(msg, toSlogArgs(args)...) }
func (l *gocronLogAdapter) Error(msg string, args ...any) { slog.Error(msg, toSlogArgs(args)...) }

// toSlogArgs turns gocron's alternating key/value args into slog args; a
// trailing odd value is logged under "value".
func toSlogArgs(args []any) []any {
	out := make([]any, 0, len(args))
	for i := 0; i < len(args); i += 2 {
		if i+1 >= len(args) {
			out = append(out, "value", args[i])
			break
		}
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", args[i])
		}
		out = append(out, key, args[i+1])
	}
	return out
}
