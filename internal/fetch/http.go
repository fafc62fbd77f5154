package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"
)

// HTTPConfig configures the static client
type HTTPConfig struct {
	UserAgent string
	Timeout   time.Duration
	Retries   int
	Backoff   time.Duration
}

// DefaultHTTPConfig returns sensible defaults
func DefaultHTTPConfig() HTTPConfig {
	return HTTPConfig{
		UserAgent: DefaultUserAgent,
		Timeout:   30 * time.Second,
		Retries:   2,
		Backoff:   2 * time.Second,
	}
}

// HTTPClient fetches server-rendered pages and JSON endpoints with colly.
type HTTPClient struct {
	cfg    HTTPConfig
	logger *zap.Logger
}

// NewHTTPClient creates a static fetcher
func NewHTTPClient(cfg HTTPConfig, logger *zap.Logger) *HTTPClient {
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &HTTPClient{cfg: cfg, logger: logger}
}

func (c *HTTPClient) collector(ctx context.Context) *colly.Collector {
	col := colly.NewCollector(
		colly.StdlibContext(ctx),
		colly.UserAgent(c.cfg.UserAgent),
		colly.AllowURLRevisit(),
	)
	col.SetRequestTimeout(c.cfg.Timeout)
	return col
}

// Load performs a GET and returns the raw body. Opts are ignored for static pages.
func (c *HTTPClient) Load(ctx context.Context, url string, _ Options) (*Document, error) {
	var body []byte
	err := c.withRetry(ctx, url, func() error {
		col := c.collector(ctx)
		col.OnResponse(func(r *colly.Response) {
			body = r.Body
		})
		return col.Visit(url)
	})
	if err != nil {
		return nil, err
	}

	c.logger.Debug("Page fetched", zap.String("url", url), zap.Int("length", len(body)))
	return &Document{URL: url, HTML: string(body), FetchedAt: time.Now()}, nil
}

// PostJSON posts payload as JSON and decodes the response into out.
func (c *HTTPClient) PostJSON(ctx context.Context, url string, payload, out any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	var body []byte
	err = c.withRetry(ctx, url, func() error {
		col := c.collector(ctx)
		col.OnRequest(func(r *colly.Request) {
			r.Headers.Set("Content-Type", "application/json")
			r.Headers.Set("Accept", "application/json")
		})
		col.OnResponse(func(r *colly.Response) {
			body = r.Body
		})
		return col.PostRaw(url, data)
	})
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response from %s: %w", url, err)
	}
	return nil
}

func (c *HTTPClient) withRetry(ctx context.Context, url string, attempt func() error) error {
	var err error
	for i := 0; i <= c.cfg.Retries; i++ {
		if i > 0 {
			c.logger.Debug("Retrying request", zap.String("url", url), zap.Int("attempt", i+1), zap.Error(err))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.cfg.Backoff * time.Duration(i)):
			}
		}
		if err = attempt(); err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return fmt.Errorf("failed to fetch %s: %w", url, err)
}
