package scraper

import (
	"context"
	"fmt"
	"regexp"

	"github.com/PuerkitoBio/goquery"

	"github.com/startup-roles/backend/internal/domain"
	"github.com/startup-roles/backend/internal/fetch"
	"github.com/startup-roles/backend/internal/parse"
)

const (
	ycJobsURL  = "https://www.ycombinator.com/jobs"
	ycApplyURL = "https://www.workatastartup.com/companies?signup_job_id="
)

var (
	ycSignupJobID = regexp.MustCompile(`signup_job_id(?:%3D|=)(\d+)`)
	// "Coast (S21)•Demo Platform for API-First Companies(10 days ago)"
	ycCompanyBatch = regexp.MustCompile(`^(.+?)\s*\(([WSFX]\d{2})\)`)
	ycCompanyBlurb = regexp.MustCompile(`\([WSFX]\d{2}\)\s*•\s*(.+?)\s*\(`)
	ycJobPath      = regexp.MustCompile(`/companies/[^/]+/jobs/([^/?#]+)`)
	ycCities       = regexp.MustCompile(`(?i)(Remote|San Francisco|New York|Boston|London|Seattle|Mountain View|Bangalore|India|US|UK|CA|England|GB|Atlanta)[^•]*`)
)

// YCExtractor reads the Y Combinator job board, which is server rendered.
type YCExtractor struct {
	deps Deps
}

// NewYCExtractor creates the Y Combinator extractor
func NewYCExtractor(deps Deps) *YCExtractor {
	return &YCExtractor{deps: deps.withDefaults()}
}

func (e *YCExtractor) Name() string   { return "Y Combinator" }
func (e *YCExtractor) Source() string { return "ycombinator" }

func (e *YCExtractor) Target() Target {
	return Target{URL: ycJobsURL, Mode: fetch.ModeStatic}
}

func (e *YCExtractor) Extract(_ context.Context, doc *fetch.Document) ([]domain.Extracted, error) {
	q, err := doc.Query()
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	fin := NewFinalizer(e.Source(), ycJobsURL, e.deps)
	fin.BoardName = e.Name()
	fin.WorkModeFallback = domain.WorkModeHybrid

	return firstUsable(q, fin,
		Strategy{Name: "apply-links", Collect: e.applyLinks},
		Strategy{Name: "job-links", Collect: e.jobLinks},
	), nil
}

// applyLinks finds "Apply" buttons carrying signup_job_id and reads the card two levels up.
func (e *YCExtractor) applyLinks(doc *goquery.Document) []Candidate {
	var out []Candidate
	doc.Find(`a[href*="signup_job_id"]`).Each(func(_ int, apply *goquery.Selection) {
		m := ycSignupJobID.FindStringSubmatch(apply.AttrOr("href", ""))
		if m == nil {
			return
		}
		jobID := m[1]
		card := apply.Parent().Parent()

		var companyText string
		card.Find(`a[href*="/companies/"]`).EachWithBreak(func(_ int, a *goquery.Selection) bool {
			if t := parse.Normalize(a.Text()); t != "" {
				companyText = t
				return false
			}
			return true
		})
		cm := ycCompanyBatch.FindStringSubmatch(companyText)
		if cm == nil {
			return
		}

		c := Candidate{
			ID:           jobID,
			Title:        textOf(firstMatch(card, `a.text-linkColor, a[class*="text-sm font-semibold"]`)),
			Company:      cm[1],
			Link:         ycApplyURL + jobID,
			FundingStage: "YC " + cm[2],
			PostedText:   companyText,
			Raw:          map[string]any{"batch": cm[2]},
		}
		if bm := ycCompanyBlurb.FindStringSubmatch(companyText); bm != nil {
			c.CompanyDescription = bm[1]
		}

		details := textOf(firstMatch(card, "div.flex.flex-wrap"))
		c.Compensation = details
		c.Location = "Remote"
		if lm := ycCities.FindString(details); lm != "" {
			c.Location = lm
		}
		out = append(out, c)
	})
	return out
}

// jobLinks falls back to /companies/<slug>/jobs/<id> anchors when the apply buttons are missing.
func (e *YCExtractor) jobLinks(doc *goquery.Document) []Candidate {
	var out []Candidate
	doc.Find(`a[href*="/jobs/"][href*="/companies/"]`).Each(func(_ int, a *goquery.Selection) {
		href := a.AttrOr("href", "")
		m := ycJobPath.FindStringSubmatch(href)
		if m == nil {
			return
		}
		out = append(out, Candidate{
			ID:    m[1],
			Title: parse.Normalize(a.Text()),
			Link:  href,
		})
	})
	return out
}
