// Package scrapejob starts scrape runs on demand and records their outcome.
package scrapejob

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/startup-roles/backend/internal/domain"
	"github.com/startup-roles/backend/internal/runstate"
	"github.com/startup-roles/backend/internal/scraper"
)

// RunAller executes a full run over extractors
type RunAller interface {
	RunAll(ctx context.Context, extractors []scraper.Extractor) (*domain.RunSummary, error)
}

// Config bounds a run
type Config struct {
	// LockTTL should exceed the longest expected run.
	LockTTL time.Duration
	// Timeout cancels a run that takes longer. Zero means no limit.
	Timeout time.Duration
}

// Service serializes runs through a coordinator.
type Service struct {
	orchestrator RunAller
	extractors   []scraper.Extractor
	coord        runstate.Coordinator
	cfg          Config
	logger       *zap.Logger
	now          func() time.Time

	// base outlives the HTTP request that triggered a background run
	base   context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a scrape job service running extractors in order
func New(o RunAller, extractors []scraper.Extractor, coord runstate.Coordinator, cfg Config, logger *zap.Logger) *Service {
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = runstate.DefaultLockTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	base, cancel := context.WithCancel(context.Background())
	return &Service{
		orchestrator: o,
		extractors:   extractors,
		coord:        coord,
		cfg:          cfg,
		logger:       logger,
		now:          time.Now,
		base:         base,
		cancel:       cancel,
	}
}

// Trigger starts a run in the background and returns it in the started state.
// It returns domain.ErrRunInProgress when another run holds the lock.
func (s *Service) Trigger(ctx context.Context, trigger string) (*domain.ScrapeRun, error) {
	run, err := s.start(ctx, trigger)
	if err != nil {
		return nil, err
	}
	started := *run

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		_ = s.execute(s.base, run)
	}()
	return &started, nil
}

// Run executes a run synchronously and returns it in its final state.
func (s *Service) Run(ctx context.Context, trigger string) (*domain.ScrapeRun, error) {
	run, err := s.start(ctx, trigger)
	if err != nil {
		return nil, err
	}
	if err := s.execute(ctx, run); err != nil {
		return run, err
	}
	return run, nil
}

// Status returns the most recent run
func (s *Service) Status(ctx context.Context) (*domain.ScrapeRun, error) {
	return s.coord.LastRun(ctx)
}

// Shutdown cancels background runs and waits for them to record their outcome.
func (s *Service) Shutdown() {
	s.cancel()
	s.wg.Wait()
}

func (s *Service) start(ctx context.Context, trigger string) (*domain.ScrapeRun, error) {
	run := &domain.ScrapeRun{
		ID:        uuid.New(),
		Status:    domain.RunStatusStarted,
		Trigger:   trigger,
		StartedAt: s.now().UTC(),
	}
	if err := s.coord.Acquire(ctx, run.ID.String(), s.cfg.LockTTL); err != nil {
		return nil, err
	}
	if err := s.coord.SaveRun(ctx, run); err != nil {
		s.logger.Warn("Failed to record run start", zap.String("run_id", run.ID.String()), zap.Error(err))
	}
	s.logger.Info("Scrape run started",
		zap.String("run_id", run.ID.String()),
		zap.String("trigger", trigger),
		zap.Int("extractors", len(s.extractors)),
	)
	return run, nil
}

func (s *Service) execute(ctx context.Context, run *domain.ScrapeRun) error {
	token := run.ID.String()
	log := s.logger.With(zap.String("run_id", token))

	defer func() {
		// the run context may be cancelled; bookkeeping still has to land
		bg, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.coord.SaveRun(bg, run); err != nil {
			log.Warn("Failed to record run outcome", zap.Error(err))
		}
		if err := s.coord.Release(bg, token); err != nil {
			log.Warn("Failed to release run lock", zap.Error(err))
		}
	}()

	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	summary, err := s.safeRunAll(ctx)
	finished := s.now().UTC()
	run.FinishedAt = &finished
	run.Summary = summary

	if err != nil {
		run.Status = domain.RunStatusFailed
		run.Error = err.Error()
		log.Error("Scrape run failed", zap.Error(err))
		return err
	}
	run.Status = domain.RunStatusCompleted
	log.Info("Scrape run completed",
		zap.Int("total_jobs", summary.TotalJobs),
		zap.Int("success", summary.SuccessCount),
		zap.Int("failed", summary.FailureCount),
		zap.Duration("duration", summary.Duration()),
	)
	return nil
}

func (s *Service) safeRunAll(ctx context.Context) (summary *domain.RunSummary, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("run panicked: %v", r)
		}
	}()
	return s.orchestrator.RunAll(ctx, s.extractors)
}
