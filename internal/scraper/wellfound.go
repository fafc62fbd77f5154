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
	"github.com/startup-roles/backend/internal/parse"
)

const wellfoundBaseURL = "https://wellfound.com"

var wellfoundJobID = regexp.MustCompile(`/jobs/(\d+)`)

// WellfoundExtractor scrapes Wellfound (formerly AngelList) role listings, which group
// open roles under company cards.
type WellfoundExtractor struct {
	roleSlug string
	deps     Deps
}

// NewWellfoundExtractor creates a Wellfound extractor for a role slug such as "software-engineer"
func NewWellfoundExtractor(roleSlug string, deps Deps) *WellfoundExtractor {
	if roleSlug == "" {
		roleSlug = "software-engineer"
	}
	return &WellfoundExtractor{roleSlug: roleSlug, deps: deps.withDefaults()}
}

func (e *WellfoundExtractor) Name() string   { return "Wellfound" }
func (e *WellfoundExtractor) Source() string { return "wellfound" }

func (e *WellfoundExtractor) url() string {
	return wellfoundBaseURL + "/role/l/" + e.roleSlug
}

func (e *WellfoundExtractor) Target() Target {
	return Target{
		URL:  e.url(),
		Mode: fetch.ModeRendered,
		Options: fetch.Options{
			WaitSelector:    "[data-test='StartupResult']",
			SelectorTimeout: 20 * time.Second,
			Settle:          3 * time.Second,
		},
	}
}

func (e *WellfoundExtractor) Extract(_ context.Context, doc *fetch.Document) ([]domain.Extracted, error) {
	q, err := doc.Query()
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	fin := NewFinalizer(e.Source(), e.url(), e.deps)
	fin.BoardName = e.Name()

	return firstUsable(q, fin,
		Strategy{Name: "company-cards", Collect: collectWellfoundCards},
		LinkStrategy("role-links", `a[href*="/jobs/"], a[href*="/role/"]`, 10),
	), nil
}

func collectWellfoundCards(doc *goquery.Document) []Candidate {
	var out []Candidate
	doc.Find("[data-test='StartupResult'], [class*='styles_component__']").Each(func(_ int, card *goquery.Selection) {
		companyName := textOf(firstMatch(card, "[data-test='StartupName'], [class*='styles_startupName__']"))
		if companyName == "" {
			companyName = textOf(firstMatch(card, "h2"))
		}
		pitch := textOf(firstMatch(card, "[data-test='StartupPitch'], [class*='styles_pitch__']"))

		listings := card.Find("[data-test='JobListing'], [class*='styles_jobListing__']")
		if listings.Length() == 0 {
			listings = card.Find("a[href*='/jobs/']")
		}

		listings.Each(func(_ int, listing *goquery.Selection) {
			c := Candidate{
				Company:            companyName,
				CompanyDescription: pitch,
				Location:           textOf(firstMatch(listing, "[data-test='JobLocation'], [class*='styles_location__']")),
				Compensation:       textOf(firstMatch(listing, "[data-test='JobSalary'], [class*='styles_salary__']")),
			}

			// The listing itself might be the title link
			if titleEl := firstMatch(listing, "[data-test='JobTitle'], [class*='styles_jobTitle__']"); titleEl != nil {
				c.Title = textOf(titleEl)
			} else {
				c.Title = parse.Normalize(listing.Text())
			}

			if href, ok := listing.Attr("href"); ok {
				c.Link = href
			} else if a := firstMatch(listing, "a[href]"); a != nil {
				c.Link = a.AttrOr("href", "")
			}
			if m := wellfoundJobID.FindStringSubmatch(c.Link); m != nil {
				c.ID = m[1]
			}

			if equity := textOf(firstMatch(listing, "[data-test='JobEquity'], [class*='styles_equity__']")); equity != "" {
				yes := !strings.EqualFold(equity, "no equity")
				c.OffersEquity = &yes
			}

			out = append(out, c)
		})
	})
	return out
}
