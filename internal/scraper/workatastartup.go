package scraper

import (
	"context"
	"fmt"
	"regexp"

	"github.com/PuerkitoBio/goquery"

	"github.com/startup-roles/backend/internal/domain"
	"github.com/startup-roles/backend/internal/fetch"
)

const waasURL = "https://www.workatastartup.com/jobs"

var waasJobID = regexp.MustCompile(`/jobs/(\d+)`)

var waasCards = CardSelectors{
	Card:         `.job, [class*="job-listing"], [class*="JobListing"], [data-job-id]`,
	Title:        `h2, h3, .title, [class*="title"]`,
	Company:      `.company, [class*="company"], .company-name, [class*="Company"]`,
	Link:         `a[href*="/jobs/"], a[href*="/companies/"], a[href*="/job/"]`,
	Location:     `.location, [class*="location"], .remote, [class*="Location"]`,
	Compensation: `.salary, [class*="salary"], [class*="compensation"]`,
	Description:  `.description, [class*="description"], .summary`,
	MinText:      20,
}

// WorkAtAStartupExtractor reads the YC "Work at a Startup" board.
type WorkAtAStartupExtractor struct {
	deps Deps
}

// NewWorkAtAStartupExtractor creates the Work at a Startup extractor
func NewWorkAtAStartupExtractor(deps Deps) *WorkAtAStartupExtractor {
	return &WorkAtAStartupExtractor{deps: deps.withDefaults()}
}

func (e *WorkAtAStartupExtractor) Name() string   { return "Work at a Startup" }
func (e *WorkAtAStartupExtractor) Source() string { return "workatastartup" }

func (e *WorkAtAStartupExtractor) Target() Target {
	return Target{URL: waasURL, Mode: fetch.ModeRendered, Options: fetch.Options{WaitSelector: "a[href*='/jobs/']"}}
}

func (e *WorkAtAStartupExtractor) Extract(_ context.Context, doc *fetch.Document) ([]domain.Extracted, error) {
	q, err := doc.Query()
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	fin := NewFinalizer(e.Source(), waasURL, e.deps)
	fin.BoardName = e.Name()
	fin.FundingStage = "YC"

	cards := CardStrategy("job-cards", waasCards)
	links := LinkStrategy("job-links", `a[href*="/jobs/"]`, 10)
	return firstUsable(q, fin, withIDs(cards, waasJobID), withIDs(links, waasJobID)), nil
}

// withIDs fills candidate IDs from the first capture group of re applied to the link.
func withIDs(s Strategy, re *regexp.Regexp) Strategy {
	collect := s.Collect
	s.Collect = func(doc *goquery.Document) []Candidate {
		cands := collect(doc)
		for i := range cands {
			if m := re.FindStringSubmatch(cands[i].Link); m != nil && cands[i].ID == "" {
				cands[i].ID = m[1]
			}
		}
		return cands
	}
	return s
}
