// Package orchestrator runs extractors one after another and reconciles their output.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/startup-roles/backend/internal/domain"
	"github.com/startup-roles/backend/internal/metrics"
	"github.com/startup-roles/backend/internal/reconcile"
	"github.com/startup-roles/backend/internal/scraper"
)

// Upserter applies one extracted record
type Upserter interface {
	Upsert(ctx context.Context, rec domain.Extracted) (reconcile.Outcome, error)
}

// Pinger reports whether the store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Orchestrator owns a full scrape run.
type Orchestrator struct {
	runner      *scraper.Runner
	reconciler  Upserter
	store       Pinger
	metrics     *metrics.Metrics
	logger      *zap.Logger
	pingTimeout time.Duration
	now         func() time.Time
}

// New creates an orchestrator. m may be nil.
func New(runner *scraper.Runner, reconciler Upserter, store Pinger, m *metrics.Metrics, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		runner:      runner,
		reconciler:  reconciler,
		store:       store,
		metrics:     m,
		logger:      logger,
		pingTimeout: 5 * time.Second,
		now:         time.Now,
	}
}

func (o *Orchestrator) ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, o.pingTimeout)
	defer cancel()
	if err := o.store.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// RunAll attempts every extractor in order. Source failures are counted, never returned;
// the only errors are an unreachable store and context cancellation, which stop the run
// and return the partial summary alongside the error.
func (o *Orchestrator) RunAll(ctx context.Context, extractors []scraper.Extractor) (*domain.RunSummary, error) {
	summary := &domain.RunSummary{StartedAt: o.now(), Sources: make([]domain.SourceSummary, 0, len(extractors))}

	if err := o.ping(ctx); err != nil {
		o.metrics.ObserveRun(nil, err)
		return nil, err
	}

	o.logger.Info("Starting scrape run", zap.Int("extractors", len(extractors)))

	var runErr error
	for _, e := range extractors {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		ss, err := o.runOne(ctx, e)
		summary.Sources = append(summary.Sources, ss)
		o.metrics.ObserveSource(ss)
		if ss.Success {
			summary.SuccessCount++
			summary.TotalJobs += ss.Extracted
		} else {
			summary.FailureCount++
		}
		if err != nil {
			runErr = err
			break
		}
	}

	summary.FinishedAt = o.now()
	o.metrics.ObserveRun(summary, runErr)

	o.logger.Info("Scrape run finished",
		zap.Int("total_jobs", summary.TotalJobs),
		zap.Int("successful", summary.SuccessCount),
		zap.Int("failed", summary.FailureCount),
		zap.Duration("duration", summary.Duration()),
		zap.Error(runErr),
	)
	return summary, runErr
}

func (o *Orchestrator) runOne(ctx context.Context, e scraper.Extractor) (domain.SourceSummary, error) {
	res := o.runner.Run(ctx, e)
	ss := domain.SourceSummary{
		Name:     res.Name,
		Source:   res.Source,
		Success:  res.Success,
		Duration: res.Duration,
	}
	log := o.logger.With(zap.String("source", res.Name))

	if !res.Success {
		ss.Error = res.Err.Error()
		log.Warn("Source failed", zap.Error(res.Err), zap.Duration("duration", res.Duration))
		return ss, nil
	}

	ss.Extracted = len(res.Records)
	for _, rec := range res.Records {
		out, err := o.reconciler.Upsert(ctx, rec)
		if err != nil {
			ss.PersistFailures++
			log.Error("Failed to persist record",
				zap.String("company", rec.Role.CompanyName),
				zap.String("title", rec.Role.RoleTitle),
				zap.String("source_role_id", rec.Source.SourceRoleID),
				zap.Error(err),
			)
			if pingErr := o.ping(ctx); pingErr != nil {
				return ss, pingErr
			}
			continue
		}
		if out.Created {
			ss.NewRoles++
		} else {
			ss.ExistingRoles++
		}
		if out.SourceCreated {
			ss.NewSources++
		} else {
			ss.UpdatedSources++
		}
	}

	log.Info("Source processed",
		zap.Int("records", ss.Extracted),
		zap.Int("new_roles", ss.NewRoles),
		zap.Int("existing_roles", ss.ExistingRoles),
		zap.Int("new_sources", ss.NewSources),
		zap.Int("updated_sources", ss.UpdatedSources),
		zap.Int("persist_failures", ss.PersistFailures),
	)
	return ss, nil
}
