package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"rssgram/internal/monitor"

	"github.com/robfig/cron/v3"
)

// Scheduler fires one poll cycle immediately and then every check
// interval. A skip-if-still-running chain guarantees cycles never
// overlap, keeping polling strictly sequential.
type Scheduler struct {
	ctx      context.Context
	cron     *cron.Cron
	entryID  cron.EntryID
	monitor  *monitor.Monitor
	interval time.Duration
	log      *slog.Logger
}

func New(
	ctx context.Context,
	m *monitor.Monitor,
	interval time.Duration,
	log *slog.Logger,
) *Scheduler {
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithChain(cron.SkipIfStillRunning(&cronLogger{log: log})),
	)

	return &Scheduler{
		ctx:      ctx,
		cron:     c,
		monitor:  m,
		interval: interval,
		log:      log,
	}
}

// Spec returns the cron spec the scheduler runs on.
func (s *Scheduler) Spec() string {
	return fmt.Sprintf("@every %ds", int(s.interval.Seconds()))
}

func (s *Scheduler) Start() error {
	id, err := s.cron.AddFunc(s.Spec(), s.runCycle)
	if err != nil {
		return fmt.Errorf("add cron func: %w", err)
	}
	s.entryID = id

	s.cron.Start()

	// First cycle right away; the skip chain keeps the timer from
	// overlapping it.
	go s.cron.Entry(id).WrappedJob.Run()

	return nil
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
}

func (s *Scheduler) runCycle() {
	ctx, cancel := context.WithTimeout(s.ctx, s.interval)
	defer cancel()

	if ctx.Err() != nil {
		s.log.InfoContext(ctx, "Scheduler context is done",
			"error", ctx.Err())

		return
	}

	s.monitor.RunCycle(ctx)

	s.log.InfoContext(ctx, "Cycle finished",
		"nextCheckIn", s.interval.String())
}

// cronLogger adapts slog to the cron.Logger interface.
type cronLogger struct {
	log *slog.Logger
}

func (l *cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Info(msg, keysAndValues...)
}

func (l *cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error(msg, append([]any{"error", err}, keysAndValues...)...)
}
