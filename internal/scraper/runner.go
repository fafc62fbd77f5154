package scraper

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/startup-roles/backend/internal/domain"
	"github.com/startup-roles/backend/internal/fetch"
)

// Result is the outcome of running one extractor. Failures are values, never panics or errors.
type Result struct {
	Name     string
	Source   string
	Success  bool
	Records  []domain.Extracted
	Err      error
	Duration time.Duration
}

// Runner loads each extractor's target with the matching fetcher and runs Extract.
type Runner struct {
	fetchers map[fetch.Mode]fetch.Fetcher
	logger   *zap.Logger
}

// NewRunner creates a runner. rendered may be nil when no browser is available;
// rendered targets then fail individually.
func NewRunner(static, rendered fetch.Fetcher, logger *zap.Logger) *Runner {
	fetchers := map[fetch.Mode]fetch.Fetcher{}
	if static != nil {
		fetchers[fetch.ModeStatic] = static
	}
	if rendered != nil {
		fetchers[fetch.ModeRendered] = rendered
	}
	return &Runner{fetchers: fetchers, logger: logger}
}

// Run executes one extractor and converts every failure into an unsuccessful Result.
func (r *Runner) Run(ctx context.Context, e Extractor) (res Result) {
	start := time.Now()
	res = Result{Name: e.Name(), Source: e.Source()}

	defer func() {
		if p := recover(); p != nil {
			res.Success = false
			res.Records = nil
			res.Err = fmt.Errorf("extractor panicked: %v", p)
		}
		res.Duration = time.Since(start)
	}()

	target := e.Target()
	var doc *fetch.Document
	if target.Mode != fetch.ModeAPI {
		f, ok := r.fetchers[target.Mode]
		if !ok {
			res.Err = fmt.Errorf("no fetcher for mode %q", target.Mode)
			return res
		}
		var err error
		if doc, err = f.Load(ctx, target.URL, target.Options); err != nil {
			res.Err = err
			return res
		}
	}

	records, err := e.Extract(ctx, doc)
	if err != nil {
		res.Err = err
		return res
	}

	res.Success = true
	res.Records = records
	r.logger.Debug("Extractor finished",
		zap.String("source", e.Name()),
		zap.Int("records", len(records)),
	)
	return res
}
