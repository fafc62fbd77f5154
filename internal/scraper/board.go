package scraper

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/startup-roles/backend/internal/domain"
	"github.com/startup-roles/backend/internal/fetch"
)

// Board describes a VC portfolio or aggregator job board with no dedicated extractor.
type Board struct {
	Name         string
	URL          string
	FundingStage string
}

// Selector families tried in order on generic boards; most portfolio boards are
// Getro, Consider, Greenhouse or Lever templates.
var boardCardFamilies = []CardSelectors{
	{Card: `[class*="job-card"], [class*="JobCard"], [class*="job-list-item"], [data-testid="job-list-item"]`},
	{Card: `[class*="job"], [class*="Job"]`},
	{Card: `[data-job-id]`},
	{Card: `tr[class*="job"], li[class*="job"]`},
	{Card: `article`},
}

const (
	boardTitleSelector    = `h2, h3, h4, [class*="title"], [class*="Title"]`
	boardCompanySelector  = `[class*="company"], [class*="Company"], [class*="organization"], [itemprop="hiringOrganization"]`
	boardLinkSelector     = `a[href*="/job"], a[href*="/jobs"], a[href*="/companies/"]`
	boardLocationSelector = `[class*="location"], [class*="Location"], [class*="remote"]`
	boardSalarySelector   = `[class*="salary"], [class*="Salary"], [class*="compensation"]`
	boardPostedSelector   = `time, [class*="posted"], [class*="date"]`
)

// Titles cut short by card layouts; the full title is recovered from the card text.
var truncatedTitle = regexp.MustCompile(`(?i)(Full[-\s]?Stack|Senior|Junior|Lead|Staff|Principal)\s+[^.•|]{10,80}`)

// BoardExtractor reads any listing-style board using selector families, then job links.
type BoardExtractor struct {
	board Board
	deps  Deps
}

// NewBoardExtractor creates an extractor for a generic board
func NewBoardExtractor(board Board, deps Deps) *BoardExtractor {
	return &BoardExtractor{board: board, deps: deps.withDefaults()}
}

func (e *BoardExtractor) Name() string { return e.board.Name }

func (e *BoardExtractor) Source() string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(e.board.Name)), " ", "-")
}

func (e *BoardExtractor) Target() Target {
	return Target{URL: e.board.URL, Mode: fetch.ModeRendered, Options: fetch.Options{Settle: 4 * time.Second}}
}

func (e *BoardExtractor) Extract(_ context.Context, doc *fetch.Document) ([]domain.Extracted, error) {
	q, err := doc.Query()
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	fin := NewFinalizer(e.Source(), e.board.URL, e.deps)
	fin.BoardName = e.board.Name
	fin.FundingStage = e.board.FundingStage
	fin.WorkModeFallback = domain.WorkModeHybrid

	strategies := make([]Strategy, 0, len(boardCardFamilies)+1)
	for i, family := range boardCardFamilies {
		sel := family
		sel.Title = boardTitleSelector
		sel.Company = boardCompanySelector
		sel.Link = boardLinkSelector
		sel.Location = boardLocationSelector
		sel.Compensation = boardSalarySelector
		sel.Posted = boardPostedSelector
		sel.MinText = 20
		sel.MaxCards = 200
		strategies = append(strategies, recoverTruncated(CardStrategy(fmt.Sprintf("cards-%d", i+1), sel)))
	}
	strategies = append(strategies, LinkStrategy("job-links", `a[href*="/job"], a[href*="/jobs"], a[href*="/career"]`, 10))

	return firstUsable(q, fin, strategies...), nil
}

func recoverTruncated(s Strategy) Strategy {
	collect := s.Collect
	s.Collect = func(doc *goquery.Document) []Candidate {
		cands := collect(doc)
		for i, c := range cands {
			lower := strings.ToLower(c.Title)
			if len(c.Title) < 15 && (strings.HasPrefix(lower, "full") || strings.HasPrefix(lower, "senior")) {
				if m := truncatedTitle.FindString(c.Text); m != "" {
					cands[i].Title = strings.TrimSpace(m)
				}
			}
		}
		return cands
	}
	return s
}
