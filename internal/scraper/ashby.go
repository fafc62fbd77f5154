package scraper

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/startup-roles/backend/internal/domain"
	"github.com/startup-roles/backend/internal/fetch"
)

var ashbyPostingID = regexp.MustCompile(`/([0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12})`)

var ashbyCards = CardSelectors{
	Card:     `[class*="ashby-job-posting-brief"], [class*="JobPosting"], [class*="posting"], [data-testid*="job"]`,
	Title:    `h2, h3, h4, [class*="title"], [class*="Title"]`,
	Link:     `a[href*="/jobs/"], a[href*="/job/"], a[href*="/apply"]`,
	Location: `[class*="location"], [class*="Location"], [class*="remote"]`,
	MinText:  10,
}

// AshbyExtractor reads a single company's hosted Ashby job board.
type AshbyExtractor struct {
	company  string
	boardURL string
	deps     Deps
}

// NewAshbyExtractor creates an extractor for jobs.ashbyhq.com/<org>. company may be empty,
// in which case it is derived from posting titles and links.
func NewAshbyExtractor(company, org string, deps Deps) *AshbyExtractor {
	return &AshbyExtractor{
		company:  company,
		boardURL: "https://jobs.ashbyhq.com/" + strings.Trim(org, "/"),
		deps:     deps.withDefaults(),
	}
}

func (e *AshbyExtractor) Name() string {
	if e.company != "" {
		return e.company + " (Ashby)"
	}
	return e.boardURL
}

func (e *AshbyExtractor) Source() string { return "ashby" }

func (e *AshbyExtractor) Target() Target {
	return Target{URL: e.boardURL, Mode: fetch.ModeRendered, Options: fetch.Options{WaitSelector: "a[href*='/']"}}
}

func (e *AshbyExtractor) Extract(_ context.Context, doc *fetch.Document) ([]domain.Extracted, error) {
	q, err := doc.Query()
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	fin := NewFinalizer(e.Source(), e.boardURL, e.deps)
	withCompany := func(s Strategy) Strategy {
		collect := s.Collect
		s.Collect = func(d *goquery.Document) []Candidate {
			cands := collect(d)
			for i := range cands {
				if cands[i].Company == "" {
					cands[i].Company = e.company
				}
			}
			return cands
		}
		return withIDs(s, ashbyPostingID)
	}

	orgPath := strings.TrimPrefix(e.boardURL, "https://jobs.ashbyhq.com")
	return firstUsable(q, fin,
		withCompany(CardStrategy("posting-cards", ashbyCards)),
		withCompany(LinkStrategy("posting-links", fmt.Sprintf(`a[href^="%s/"], a[href*="/jobs/"]`, orgPath), 5)),
	), nil
}
