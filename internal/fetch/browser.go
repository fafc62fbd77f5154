package fetch

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// BrowserConfig configures headless Chrome
type BrowserConfig struct {
	Headless          bool
	UserAgent         string
	ProxyURL          string
	DisableImages     bool
	WindowWidth       int
	WindowHeight      int
	NavigationTimeout time.Duration
	NetworkIdle       time.Duration
	Settle            time.Duration
	SelectorTimeout   time.Duration
	ScrollDelay       time.Duration
}

// DefaultBrowserConfig returns sensible defaults
func DefaultBrowserConfig() BrowserConfig {
	return BrowserConfig{
		Headless:          true,
		UserAgent:         DefaultUserAgent,
		DisableImages:     true,
		WindowWidth:       1920,
		WindowHeight:      1080,
		NavigationTimeout: 30 * time.Second,
		NetworkIdle:       15 * time.Second,
		Settle:            2 * time.Second,
		SelectorTimeout:   15 * time.Second,
		ScrollDelay:       2 * time.Second,
	}
}

// Browser renders pages in headless Chrome. Every Load starts its own browser
// process and tears it down before returning.
type Browser struct {
	cfg    BrowserConfig
	opts   []chromedp.ExecAllocatorOption
	logger *zap.Logger
}

// NewBrowser creates a rendered fetcher
func NewBrowser(cfg BrowserConfig, logger *zap.Logger) *Browser {
	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.DisableGPU,
		chromedp.NoSandbox,
		chromedp.UserAgent(cfg.UserAgent),
		chromedp.WindowSize(cfg.WindowWidth, cfg.WindowHeight),
	}
	if cfg.Headless {
		opts = append(opts, chromedp.Headless)
	}
	if cfg.ProxyURL != "" {
		opts = append(opts, chromedp.ProxyServer(cfg.ProxyURL))
	}
	if cfg.DisableImages {
		opts = append(opts, chromedp.Flag("blink-settings", "imagesEnabled=false"))
	}

	return &Browser{cfg: cfg, opts: opts, logger: logger}
}

// Load navigates to url, waits for the page to settle and returns the rendered HTML.
func (b *Browser) Load(ctx context.Context, url string, opts Options) (*Document, error) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, b.opts...)
	defer cancelAlloc()

	tabCtx, cancelTab := chromedp.NewContext(allocCtx)
	defer cancelTab()

	b.logger.Debug("Rendering page", zap.String("url", url))

	// Start the browser on the untimed tab context; a timeout on the first Run would kill the process.
	if err := chromedp.Run(tabCtx); err != nil {
		return nil, fmt.Errorf("start browser: %w", err)
	}

	if err := b.navigate(tabCtx, url); err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", url, err)
	}

	settle := opts.Settle
	if settle <= 0 {
		settle = b.cfg.Settle
	}
	if err := chromedp.Run(tabCtx, chromedp.Sleep(settle)); err != nil {
		return nil, err
	}

	if opts.WaitSelector != "" {
		timeout := opts.SelectorTimeout
		if timeout <= 0 {
			timeout = b.cfg.SelectorTimeout
		}
		if err := b.waitFor(tabCtx, opts.WaitSelector, timeout); err != nil {
			b.logger.Debug("Selector did not appear, continuing",
				zap.String("url", url),
				zap.String("selector", opts.WaitSelector),
				zap.Error(err),
			)
		}
	}

	if opts.ScrollToLoad {
		scrolls, err := b.scrollUntilStable(tabCtx, opts)
		if err != nil {
			return nil, fmt.Errorf("scroll %s: %w", url, err)
		}
		b.logger.Debug("Scrolling finished", zap.String("url", url), zap.Int("scrolls", scrolls))
	}

	var html string
	if err := chromedp.Run(tabCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		node, err := dom.GetDocument().Do(ctx)
		if err != nil {
			return err
		}
		html, err = dom.GetOuterHTML().WithNodeID(node.NodeID).Do(ctx)
		return err
	})); err != nil {
		return nil, fmt.Errorf("read html %s: %w", url, err)
	}

	b.logger.Debug("Page rendered", zap.String("url", url), zap.Int("length", len(html)))
	return &Document{URL: url, HTML: html, FetchedAt: time.Now()}, nil
}

// navigate loads url and waits, bounded, for the networkIdle lifecycle event.
func (b *Browser) navigate(tabCtx context.Context, url string) error {
	idle := make(chan struct{}, 1)
	listenCtx, stopListening := context.WithCancel(tabCtx)
	defer stopListening()

	chromedp.ListenTarget(listenCtx, func(ev interface{}) {
		if e, ok := ev.(*page.EventLifecycleEvent); ok && e.Name == "networkIdle" {
			select {
			case idle <- struct{}{}:
			default:
			}
		}
	})

	navCtx, cancel := context.WithTimeout(tabCtx, b.cfg.NavigationTimeout)
	defer cancel()
	if err := chromedp.Run(navCtx,
		page.SetLifecycleEventsEnabled(true),
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		return err
	}

	select {
	case <-idle:
	case <-time.After(b.cfg.NetworkIdle):
		b.logger.Debug("Network did not go idle, continuing", zap.String("url", url))
	case <-tabCtx.Done():
		return tabCtx.Err()
	}
	return nil
}

func (b *Browser) waitFor(tabCtx context.Context, selector string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(tabCtx, timeout)
	defer cancel()
	return chromedp.Run(ctx, chromedp.WaitVisible(selector, chromedp.ByQuery))
}

// scrollUntilStable scrolls to the bottom until the tracked element count stops
// growing on two consecutive scrolls. It returns the number of scrolls made.
func (b *Browser) scrollUntilStable(tabCtx context.Context, opts Options) (int, error) {
	selector := opts.CountSelector
	if selector == "" {
		selector = opts.WaitSelector
	}
	if selector == "" {
		selector = "body *"
	}
	delay := opts.ScrollDelay
	if delay <= 0 {
		delay = b.cfg.ScrollDelay
	}
	countJS := "document.querySelectorAll(" + strconv.Quote(selector) + ").length"

	var prev int
	if err := chromedp.Run(tabCtx, chromedp.Evaluate(countJS, &prev)); err != nil {
		return 0, err
	}

	tracker := NewGrowthTracker(prev)
	scrolls := 0
	for scrolls < opts.MaxScrolls {
		var count int
		if err := chromedp.Run(tabCtx,
			chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil),
			chromedp.Sleep(delay),
			chromedp.Evaluate(countJS, &count),
		); err != nil {
			return scrolls, err
		}
		scrolls++
		if tracker.Observe(count) {
			break
		}
	}
	return scrolls, nil
}

// GrowthTracker decides when an infinite-scroll list has stopped growing.
type GrowthTracker struct {
	last     int
	stalls   int
	maxStall int
}

// NewGrowthTracker starts tracking from an initial count
func NewGrowthTracker(initial int) *GrowthTracker {
	return &GrowthTracker{last: initial, maxStall: 2}
}

// Observe records a new count and reports whether scrolling should stop.
func (g *GrowthTracker) Observe(count int) bool {
	if count > g.last {
		g.last = count
		g.stalls = 0
		return false
	}
	g.stalls++
	return g.stalls >= g.maxStall
}
