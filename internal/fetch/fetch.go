// Package fetch loads job board pages, either as served or after client-side rendering.
package fetch

import (
	"context"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Mode selects how a target page is loaded
type Mode string

const (
	ModeStatic   Mode = "static"
	ModeRendered Mode = "rendered"
	// ModeAPI targets are not loaded by the runner; the extractor calls its own endpoint.
	ModeAPI Mode = "api"
)

// Options tunes a single Load
type Options struct {
	// WaitSelector is awaited after the settle delay. A timeout is not an error.
	WaitSelector    string
	SelectorTimeout time.Duration
	Settle          time.Duration

	// ScrollToLoad keeps scrolling until CountSelector stops growing twice in a row or MaxScrolls is reached.
	ScrollToLoad  bool
	CountSelector string
	MaxScrolls    int
	ScrollDelay   time.Duration
}

// Document is a loaded page
type Document struct {
	URL       string
	HTML      string
	FetchedAt time.Time
}

// Query parses the document HTML
func (d *Document) Query() (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(d.HTML))
}

// Fetcher loads a URL into a Document
type Fetcher interface {
	Load(ctx context.Context, url string, opts Options) (*Document, error)
}

const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
