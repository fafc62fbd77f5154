// Package bootstrap assembles the pipeline from configuration for the binaries.
package bootstrap

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/startup-roles/backend/internal/cleanup"
	"github.com/startup-roles/backend/internal/config"
	"github.com/startup-roles/backend/internal/fetch"
	"github.com/startup-roles/backend/internal/metrics"
	"github.com/startup-roles/backend/internal/orchestrator"
	"github.com/startup-roles/backend/internal/reconcile"
	"github.com/startup-roles/backend/internal/runstate"
	"github.com/startup-roles/backend/internal/scrapejob"
	"github.com/startup-roles/backend/internal/scraper"
	"github.com/startup-roles/backend/internal/store"
	"github.com/startup-roles/backend/internal/store/memory"
	"github.com/startup-roles/backend/internal/store/postgres"
	"github.com/startup-roles/backend/internal/validity"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Options override configuration for one process
type Options struct {
	// Sources replaces the configured source selection when non-empty
	Sources []string
	// NoBrowser skips headless Chrome and drops the sources that need it
	NoBrowser bool
}

// Components is the wired pipeline
type Components struct {
	Store        store.Store
	Metrics      *metrics.Metrics
	Classifier   *validity.Classifier
	Registry     *scraper.Registry
	Extractors   []scraper.Extractor
	Orchestrator *orchestrator.Orchestrator
	Coordinator  runstate.Coordinator
	Jobs         *scrapejob.Service
	Cleaner      *cleanup.Cleaner

	closers []func()
}

// Build connects to storage and redis and wires every component.
func Build(ctx context.Context, cfg *config.Config, log *zap.Logger, opts Options) (*Components, error) {
	c := &Components{Metrics: metrics.New(), Classifier: validity.Default()}

	st, err := openStore(ctx, cfg.Database, log)
	if err != nil {
		return nil, err
	}
	c.Store = st
	c.closers = append(c.closers, st.Close)

	coord, err := openCoordinator(ctx, cfg.Redis, log)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.Coordinator = coord

	static := fetch.NewHTTPClient(cfg.Scraper.HTTPFetch(), log.Named("fetch"))
	var rendered fetch.Fetcher
	if !opts.NoBrowser {
		rendered = fetch.NewBrowser(cfg.Scraper.BrowserFetch(), log.Named("browser"))
	}

	deps := scraper.Deps{
		Classifier: c.Classifier,
		API:        static,
		Rejections: c.Metrics,
		Logger:     log.Named("scraper"),
	}
	c.Registry = scraper.NewDefaultRegistry(cfg.Scraper.Registry(), deps)

	sources := cfg.Scraper.Sources
	if len(opts.Sources) > 0 {
		sources = opts.Sources
	}
	c.Extractors = c.Registry.Select(sources)
	if len(c.Extractors) == 0 {
		c.Close()
		return nil, fmt.Errorf("no extractor matches sources %v", sources)
	}
	if opts.NoBrowser {
		c.Extractors = withoutRendered(c.Extractors)
		if len(c.Extractors) == 0 {
			log.Warn("Every selected source needs a browser; scrape runs will be empty")
		}
	}

	runner := scraper.NewRunner(static, rendered, log.Named("runner"))
	reconciler := reconcile.New(st, log.Named("reconcile"))
	c.Orchestrator = orchestrator.New(runner, reconciler, st, c.Metrics, log.Named("orchestrator"))
	c.Jobs = scrapejob.New(c.Orchestrator, c.Extractors, coord, scrapejob.Config{
		LockTTL: cfg.Redis.LockTTL,
		Timeout: cfg.Scraper.RunTimeout,
	}, log.Named("scrapejob"))
	c.Cleaner = cleanup.New(st, c.Classifier, c.Metrics, log.Named("cleanup"))
	c.closers = append(c.closers, c.Jobs.Shutdown)

	return c, nil
}

// Close stops background runs and releases connections, newest first.
func (c *Components) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}

func openStore(ctx context.Context, cfg config.DatabaseConfig, log *zap.Logger) (store.Store, error) {
	switch cfg.Driver {
	case DriverMemory:
		log.Warn("Using in-memory store, data is lost on exit")
		return memory.New(), nil
	case DriverPostgres, "":
		dsn := cfg.DSN()
		if cfg.AutoMigrate {
			if err := postgres.Migrate(dsn, log.Named("migrate")); err != nil {
				return nil, err
			}
		}
		pool, err := postgres.NewPool(ctx, dsn, cfg.Postgres.PoolSize)
		if err != nil {
			return nil, err
		}
		return postgres.New(pool), nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

func openCoordinator(ctx context.Context, cfg config.RedisConfig, log *zap.Logger) (runstate.Coordinator, error) {
	if !cfg.Enabled() {
		log.Info("Redis not configured, run lock is process-local")
		return runstate.NewLocal(), nil
	}
	client, err := runstate.NewRedisClient(ctx, cfg.URL)
	if err != nil {
		return nil, err
	}
	return runstate.NewRedis(client, cfg.KeyPrefix), nil
}

func withoutRendered(extractors []scraper.Extractor) []scraper.Extractor {
	out := make([]scraper.Extractor, 0, len(extractors))
	for _, e := range extractors {
		if e.Target().Mode != fetch.ModeRendered {
			out = append(out, e)
		}
	}
	return out
}
