package scraper

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/startup-roles/backend/internal/domain"
	"github.com/startup-roles/backend/internal/fetch"
	"github.com/startup-roles/backend/internal/validity"
)

// Extractor turns one source's page into role records.
type Extractor interface {
	// Name returns the human readable board name
	Name() string

	// Source returns the stable source identifier stored on RoleSource
	Source() string

	// Target describes the page the runner must load before Extract is called
	Target() Target

	// Extract parses the loaded document. doc is nil for API targets.
	Extract(ctx context.Context, doc *fetch.Document) ([]domain.Extracted, error)
}

// Target is the page an extractor reads
type Target struct {
	URL     string
	Mode    fetch.Mode
	Options fetch.Options
}

// JSONPoster is the transport used by API extractors
type JSONPoster interface {
	PostJSON(ctx context.Context, url string, payload, out any) error
}

// RejectionObserver is told about every candidate the validity classifier drops
type RejectionObserver interface {
	ObserveRejection(source, check string)
}

// Deps are shared by all extractors
type Deps struct {
	Classifier *validity.Classifier
	API        JSONPoster
	Rejections RejectionObserver
	Logger     *zap.Logger
	Now        func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Classifier == nil {
		d.Classifier = validity.Default()
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}

// Registry keeps extractors in registration order, which is also run order.
type Registry struct {
	extractors []Extractor
	byName     map[string]Extractor
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Extractor)}
}

// Register adds an extractor. A later registration with the same name replaces the earlier one in place.
func (r *Registry) Register(e Extractor) {
	key := registryKey(e.Name())
	if _, exists := r.byName[key]; exists {
		for i, existing := range r.extractors {
			if registryKey(existing.Name()) == key {
				r.extractors[i] = e
			}
		}
	} else {
		r.extractors = append(r.extractors, e)
	}
	r.byName[key] = e
}

// Get retrieves an extractor by name, case-insensitively
func (r *Registry) Get(name string) (Extractor, bool) {
	e, ok := r.byName[registryKey(name)]
	return e, ok
}

// All returns every extractor in registration order
func (r *Registry) All() []Extractor {
	out := make([]Extractor, len(r.extractors))
	copy(out, r.extractors)
	return out
}

// Select returns the named extractors in registration order. An empty list selects all.
func (r *Registry) Select(names []string) []Extractor {
	if len(names) == 0 {
		return r.All()
	}
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[registryKey(n)] = true
	}
	var out []Extractor
	for _, e := range r.extractors {
		if want[registryKey(e.Name())] || want[registryKey(e.Source())] {
			out = append(out, e)
		}
	}
	return out
}

func registryKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
