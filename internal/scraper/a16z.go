package scraper

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/startup-roles/backend/internal/domain"
	"github.com/startup-roles/backend/internal/fetch"
	"github.com/startup-roles/backend/internal/parse"
)

const (
	a16zJobsURL   = "https://jobs.a16z.com/jobs"
	a16zSearchAPI = "https://jobs.a16z.com/api-boards/search-jobs"
	a16zBoardID   = "andreessen-horowitz"
)

// A16ZOptions filters the a16z portfolio board
type A16ZOptions struct {
	JobTypes    []string
	PostedSince string // ISO-8601 duration such as P7D
	Locations   []string
	Seniority   []string
}

// URL builds the filtered board address
func (o A16ZOptions) URL() string {
	params := url.Values{}
	if len(o.JobTypes) > 0 {
		params.Set("jobTypes", strings.Join(o.JobTypes, "+"))
	}
	if o.PostedSince != "" {
		params.Set("postedSince", o.PostedSince)
	}
	if len(o.Locations) > 0 {
		params.Set("locations", strings.Join(o.Locations, "+"))
	}
	if len(o.Seniority) > 0 {
		params.Set("seniority", strings.Join(o.Seniority, "+"))
	}
	if len(params) == 0 {
		return a16zJobsURL
	}
	return a16zJobsURL + "?" + params.Encode()
}

var (
	a16zStage    = regexp.MustCompile(`(?i)(Seed|Series [A-Z]|\d+\s*[–-]\s*\d+\s+employees|[<>]\s*\d+\s+employees)`)
	a16zCategory = regexp.MustCompile(`(?i)Posted.*?ago\s*([A-Za-z\s&]+?)\s*(?:\d+\s*[–-]\s*\d+|Seed|Series)`)
	a16zPlace    = regexp.MustCompile(`([A-Z][a-zA-Z\s,]+(?:USA|US|UK|GB|CA|India|Remote))`)
)

// A16ZExtractor reads the client-rendered a16z portfolio board after scrolling it to the end.
type A16ZExtractor struct {
	opts A16ZOptions
	deps Deps
}

// NewA16ZExtractor creates the rendered a16z extractor
func NewA16ZExtractor(opts A16ZOptions, deps Deps) *A16ZExtractor {
	return &A16ZExtractor{opts: opts, deps: deps.withDefaults()}
}

func (e *A16ZExtractor) Name() string   { return "Andreessen Horowitz" }
func (e *A16ZExtractor) Source() string { return "a16z" }

func (e *A16ZExtractor) Target() Target {
	return Target{
		URL:  e.opts.URL(),
		Mode: fetch.ModeRendered,
		Options: fetch.Options{
			WaitSelector:    ".job-list-job-details",
			SelectorTimeout: 30 * time.Second,
			ScrollToLoad:    true,
			MaxScrolls:      50,
		},
	}
}

func (e *A16ZExtractor) Extract(_ context.Context, doc *fetch.Document) ([]domain.Extracted, error) {
	q, err := doc.Query()
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	fin := NewFinalizer(e.Source(), e.opts.URL(), e.deps)
	fin.BoardName = e.Name()

	return firstUsable(q, fin,
		Strategy{Name: "job-details", Collect: collectA16ZCards},
		LinkStrategy("job-links", `a[href*="/jobs/"]`, 10),
	), nil
}

func collectA16ZCards(doc *goquery.Document) []Candidate {
	var out []Candidate
	doc.Find(".job-list-job-details").Each(func(_ int, card *goquery.Selection) {
		titleLink := card.Find(".job-list-job-title a").First()
		text := parse.Normalize(card.Text())

		c := Candidate{
			Title:        textOf(titleLink),
			Company:      textOf(firstMatch(card, ".job-list-job-company-link")),
			Link:         titleLink.AttrOr("href", ""),
			Compensation: text,
			PostedText:   text,
			Text:         text,
			WorkMode:     domain.WorkModeOnsite,
			Location:     textOf(firstMatch(card, ".job-list-job-location, [class*='location']")),
		}
		if strings.Contains(text, "Hybrid") {
			c.WorkMode = domain.WorkModeHybrid
		}
		if strings.Contains(text, "Remote") {
			c.WorkMode = domain.WorkModeRemote
		}
		if c.Location == "" {
			c.Location = "Remote"
			if m := a16zPlace.FindStringSubmatch(text); m != nil {
				c.Location = m[1]
			}
		}
		if m := a16zStage.FindStringSubmatch(text); m != nil {
			c.FundingStage = m[1]
		}
		if m := a16zCategory.FindStringSubmatch(text); m != nil {
			c.Industry = m[1]
		}
		out = append(out, c)
	})
	return out
}

type a16zSearchRequest struct {
	Meta  a16zMeta  `json:"meta"`
	Board a16zBoard `json:"board"`
	Query a16zQuery `json:"query"`
}

type a16zMeta struct {
	Size     int    `json:"size"`
	Sequence string `json:"sequence,omitempty"`
}

type a16zBoard struct {
	ID       string `json:"id"`
	IsParent bool   `json:"isParent"`
}

type a16zQuery struct {
	PromoteFeatured bool `json:"promoteFeatured"`
}

type a16zSearchResponse struct {
	Jobs  []a16zJob `json:"jobs"`
	Total int       `json:"total"`
	Meta  a16zMeta  `json:"meta"`
}

type a16zLabel struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type a16zJob struct {
	JobID               string      `json:"jobId"`
	ApplyURL            string      `json:"applyUrl"`
	Title               string      `json:"title"`
	CompanyName         string      `json:"companyName"`
	CompanyDomain       string      `json:"companyDomain"`
	CompanyStaffCount   int         `json:"companyStaffCount"`
	TimeStamp           string      `json:"timeStamp"`
	Locations           []string    `json:"locations"`
	NormalizedLocations []a16zLabel `json:"normalizedLocations"`
	Remote              bool        `json:"remote"`
	Hybrid              bool        `json:"hybrid"`
	JobSeniorities      []a16zLabel `json:"jobSeniorities"`
	JobTypes            []a16zLabel `json:"jobTypes"`
	Departments         []string    `json:"departments"`
	Skills              []a16zLabel `json:"skills"`
	Salary              *struct {
		MinValue *float64  `json:"minValue"`
		MaxValue *float64  `json:"maxValue"`
		Currency a16zLabel `json:"currency"`
		Period   a16zLabel `json:"period"`
	} `json:"salary"`
}

// A16ZAPIExtractor queries the board's search endpoint directly instead of rendering the page.
type A16ZAPIExtractor struct {
	deps     Deps
	endpoint string
	pageSize int
	maxPages int
}

// NewA16ZAPIExtractor creates the API-backed a16z extractor
func NewA16ZAPIExtractor(deps Deps) *A16ZAPIExtractor {
	return &A16ZAPIExtractor{deps: deps.withDefaults(), endpoint: a16zSearchAPI, pageSize: 100, maxPages: 5}
}

func (e *A16ZAPIExtractor) Name() string   { return "Andreessen Horowitz (API)" }
func (e *A16ZAPIExtractor) Source() string { return "a16z-api" }

func (e *A16ZAPIExtractor) Target() Target {
	return Target{URL: e.endpoint, Mode: fetch.ModeAPI}
}

func (e *A16ZAPIExtractor) Extract(ctx context.Context, _ *fetch.Document) ([]domain.Extracted, error) {
	if e.deps.API == nil {
		return nil, fmt.Errorf("%s: no API client configured", e.Name())
	}

	var jobs []a16zJob
	sequence := ""
	for page := 0; page < e.maxPages; page++ {
		req := a16zSearchRequest{
			Meta:  a16zMeta{Size: e.pageSize, Sequence: sequence},
			Board: a16zBoard{ID: a16zBoardID, IsParent: true},
			Query: a16zQuery{PromoteFeatured: true},
		}
		var resp a16zSearchResponse
		if err := e.deps.API.PostJSON(ctx, e.endpoint, req, &resp); err != nil {
			if page == 0 {
				return nil, fmt.Errorf("search jobs: %w", err)
			}
			e.deps.Logger.Warn("a16z pagination stopped early")
			break
		}
		jobs = append(jobs, resp.Jobs...)
		if resp.Meta.Sequence == "" || resp.Meta.Sequence == sequence || len(resp.Jobs) < e.pageSize {
			break
		}
		sequence = resp.Meta.Sequence
	}

	fin := NewFinalizer(e.Source(), e.endpoint, e.deps)
	cands := make([]Candidate, 0, len(jobs))
	for _, j := range jobs {
		cands = append(cands, a16zCandidate(j))
	}
	return fin.Finalize(cands), nil
}

func a16zCandidate(j a16zJob) Candidate {
	c := Candidate{
		ID:            j.JobID,
		Title:         j.Title,
		Company:       j.CompanyName,
		CompanyDomain: j.CompanyDomain,
		Link:          j.ApplyURL,
		Level:         a16zLevel(j),
		Raw: map[string]any{
			"company_domain": j.CompanyDomain,
			"staff_count":    j.CompanyStaffCount,
			"job_types":      labels(j.JobTypes),
			"departments":    j.Departments,
			"skills":         labels(j.Skills),
			"remote":         j.Remote,
			"hybrid":         j.Hybrid,
		},
	}

	switch {
	case len(j.NormalizedLocations) > 0:
		c.Location = j.NormalizedLocations[0].Label
	case len(j.Locations) > 0:
		c.Location = j.Locations[0]
	}

	switch {
	case j.Remote:
		c.WorkMode = domain.WorkModeRemote
	case j.Hybrid:
		c.WorkMode = domain.WorkModeHybrid
	case c.Location != "":
		c.WorkMode = domain.WorkModeOnsite
	}

	if ts, err := time.Parse(time.RFC3339, j.TimeStamp); err == nil {
		c.PostedAt = ts
	}

	if s := j.Salary; s != nil && s.MinValue != nil && s.MaxValue != nil {
		min, max := int(*s.MinValue), int(*s.MaxValue)
		currency := firstNonEmpty(s.Currency.Value, "USD")
		c.SalaryMin, c.SalaryMax, c.SalaryCurrency = &min, &max, currency
		c.Compensation = fmt.Sprintf("%s %s - %s", currency, groupThousands(min), groupThousands(max))
		if s.Period.Value == "year" {
			c.Compensation += " / year"
		}
	}
	return c
}

func a16zLevel(j a16zJob) domain.RoleLevel {
	if len(j.JobSeniorities) == 0 {
		return ""
	}
	v := strings.ToLower(j.JobSeniorities[0].Value)
	switch {
	case strings.Contains(v, "entry"), strings.Contains(v, "junior"):
		return domain.RoleLevelEntry
	case strings.Contains(v, "senior"), strings.Contains(v, "expert"), strings.Contains(v, "lead"):
		return domain.RoleLevelSenior
	case strings.Contains(v, "mid"):
		return domain.RoleLevelMid
	}
	return ""
}

func labels(ls []a16zLabel) []string {
	out := make([]string, 0, len(ls))
	for _, l := range ls {
		out = append(out, l.Label)
	}
	return out
}

func groupThousands(n int) string {
	s := fmt.Sprintf("%d", n)
	if n < 0 {
		return "-" + groupThousands(-n)
	}
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return b.String()
}
