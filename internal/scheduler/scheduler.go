// Package scheduler triggers scrape runs and cleanup passes on cron schedules.
package scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/startup-roles/backend/internal/cleanup"
	"github.com/startup-roles/backend/internal/domain"
)

// ScrapeRunner executes one synchronous scrape run
type ScrapeRunner interface {
	Run(ctx context.Context, trigger string) (*domain.ScrapeRun, error)
}

// CleanupRunner executes one cleanup pass
type CleanupRunner interface {
	Run(ctx context.Context, dryRun bool) (*cleanup.Report, error)
}

// Config holds cron specs. An empty spec disables that job.
type Config struct {
	ScrapeSpec  string
	CleanupSpec string
	RunOnStart  bool
}

// Scheduler wraps robfig/cron
type Scheduler struct {
	cron    *cron.Cron
	cfg     Config
	scrape  ScrapeRunner
	cleaner CleanupRunner
	logger  *zap.Logger
}

// New creates a scheduler. cleaner may be nil.
func New(cfg Config, scrape ScrapeRunner, cleaner CleanupRunner, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	cl := cronLogger{logger.Named("cron")}
	return &Scheduler{
		cron:    cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		cfg:     cfg,
		scrape:  scrape,
		cleaner: cleaner,
		logger:  logger,
	}
}

// Start registers the jobs and starts the cron loop. Jobs run with ctx.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.cfg.ScrapeSpec != "" {
		if _, err := s.cron.AddFunc(s.cfg.ScrapeSpec, func() { s.runScrape(ctx) }); err != nil {
			return fmt.Errorf("invalid scrape schedule %q: %w", s.cfg.ScrapeSpec, err)
		}
	}
	if s.cfg.CleanupSpec != "" && s.cleaner != nil {
		if _, err := s.cron.AddFunc(s.cfg.CleanupSpec, func() { s.runCleanup(ctx) }); err != nil {
			return fmt.Errorf("invalid cleanup schedule %q: %w", s.cfg.CleanupSpec, err)
		}
	}

	s.cron.Start()
	s.logger.Info("Scheduler started",
		zap.String("scrape", s.cfg.ScrapeSpec),
		zap.String("cleanup", s.cfg.CleanupSpec),
		zap.Int("jobs", len(s.cron.Entries())),
	)

	if s.cfg.RunOnStart && s.cfg.ScrapeSpec != "" {
		go s.runScrape(ctx)
	}
	return nil
}

// Stop halts the cron loop and waits for running jobs to finish
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("Scheduler stopped")
}

func (s *Scheduler) runScrape(ctx context.Context) {
	run, err := s.scrape.Run(ctx, "schedule")
	switch {
	case errors.Is(err, domain.ErrRunInProgress):
		s.logger.Info("Scheduled scrape skipped, a run is already in progress")
	case err != nil:
		s.logger.Error("Scheduled scrape failed", zap.Error(err))
	default:
		s.logger.Info("Scheduled scrape finished", zap.String("run_id", run.ID.String()))
	}
}

func (s *Scheduler) runCleanup(ctx context.Context) {
	report, err := s.cleaner.Run(ctx, false)
	if err != nil {
		s.logger.Error("Scheduled cleanup failed", zap.Error(err))
		return
	}
	s.logger.Info("Scheduled cleanup finished",
		zap.Int("checked", report.Checked),
		zap.Int("deactivated", report.Deactivated),
	)
}

// cronLogger adapts zap to cron.Logger
type cronLogger struct{ l *zap.Logger }

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Sugar().Debugw(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
