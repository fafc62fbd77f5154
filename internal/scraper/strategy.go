package scraper

import (
	"encoding/json"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/startup-roles/backend/internal/domain"
	"github.com/startup-roles/backend/internal/parse"
)

// Candidate is a raw posting pulled from a page before normalization and validation.
type Candidate struct {
	ID                 string
	Title              string
	Company            string
	Link               string
	Location           string
	Compensation       string
	Description        string
	CompanyDescription string
	CompanyDomain      string
	Industry           string
	FundingStage       string
	PostedText         string
	// Text is the whole card text, used as a fallback for salary and date parsing.
	Text string

	PostedAt       time.Time
	WorkMode       domain.WorkMode
	Level          domain.RoleLevel
	SalaryMin      *int
	SalaryMax      *int
	SalaryCurrency string
	OffersEquity   *bool
	Raw            map[string]any
}

// Strategy is one way of locating postings on a page.
type Strategy struct {
	Name    string
	Collect func(doc *goquery.Document) []Candidate
}

// firstUsable evaluates strategies left to right and returns the first non-empty finalized batch.
func firstUsable(doc *goquery.Document, fin *Finalizer, strategies ...Strategy) []domain.Extracted {
	for _, s := range strategies {
		records := fin.Finalize(s.Collect(doc))
		if len(records) > 0 {
			fin.deps.Logger.Debug("Strategy matched",
				zap.String("source", fin.Source),
				zap.String("strategy", s.Name),
				zap.Int("records", len(records)),
			)
			return records
		}
	}
	return nil
}

// Finalizer normalizes candidates into records for one source.
type Finalizer struct {
	Source    string
	SourceURL string
	BoardName string
	// FundingStage and Industry fill candidates that carry none.
	FundingStage string
	Industry     string
	// WorkModeFallback is used for locations that mention neither remote nor hybrid.
	WorkModeFallback domain.WorkMode

	base *url.URL
	deps Deps
}

// NewFinalizer creates a finalizer resolving relative links against sourceURL.
func NewFinalizer(source, sourceURL string, deps Deps) *Finalizer {
	base, _ := url.Parse(sourceURL)
	return &Finalizer{
		Source:           source,
		SourceURL:        sourceURL,
		WorkModeFallback: domain.WorkModeOnsite,
		base:             base,
		deps:             deps.withDefaults(),
	}
}

// Finalize normalizes, validates and de-duplicates candidates, keeping first occurrences.
func (f *Finalizer) Finalize(cands []Candidate) []domain.Extracted {
	now := f.deps.Now()
	seen := make(map[string]bool, len(cands))
	out := make([]domain.Extracted, 0, len(cands))

	for _, c := range cands {
		rec, ok := f.finalize(c, now)
		if !ok {
			continue
		}
		if seen[rec.Source.SourceRoleID] {
			continue
		}
		seen[rec.Source.SourceRoleID] = true
		out = append(out, rec)
	}
	return out
}

func (f *Finalizer) finalize(c Candidate, now time.Time) (domain.Extracted, bool) {
	title := parse.CleanTitle(c.Title)
	link := f.Resolve(c.Link)

	company := parse.Normalize(c.Company)
	if f.placeholderCompany(company) {
		company = parse.ExtractCompanyName(title, link)
	}

	if verdict := f.deps.Classifier.Explain(title, company, link); !verdict.Valid {
		if f.deps.Rejections != nil {
			f.deps.Rejections.ObserveRejection(f.Source, verdict.Check)
		}
		return domain.Extracted{}, false
	}

	location := parse.Normalize(c.Location)
	description := parse.Normalize(c.Description)

	role := domain.RoleRecord{
		CompanyName:        company,
		RoleTitle:          title,
		Industry:           firstNonEmpty(parse.Normalize(c.Industry), f.Industry),
		FundingStage:       firstNonEmpty(parse.Normalize(c.FundingStage), f.FundingStage),
		RoleType:           domain.DefaultRoleType,
		Location:           location,
		CompanyDescription: parse.Normalize(c.CompanyDescription),
		CompanyDomain:      parse.Normalize(c.CompanyDomain),
		RoleDescription:    description,
		OffersEquity:       c.OffersEquity,
	}

	role.WorkMode = c.WorkMode
	if role.WorkMode == "" {
		role.WorkMode = parse.InferWorkModeOr(location, f.WorkModeFallback)
	}

	role.RoleLevel = c.Level
	if role.RoleLevel == "" {
		role.RoleLevel = parse.ExtractRoleLevel(title, description)
	}

	if c.SalaryMin != nil || c.SalaryMax != nil {
		role.SalaryMin, role.SalaryMax = c.SalaryMin, c.SalaryMax
		role.SalaryCurrency = c.SalaryCurrency
		role.CompensationText = parse.Normalize(c.Compensation)
	} else {
		salary := parse.ParseSalary(c.Compensation)
		if salary.Min == nil && c.Text != "" {
			salary = parse.ParseSalary(c.Text)
		}
		role.SalaryMin, role.SalaryMax = salary.Min, salary.Max
		role.SalaryCurrency = salary.Currency
		role.CompensationText = salary.DisplayText
	}
	if role.OffersEquity == nil {
		role.OffersEquity = parse.ParseEquity(c.Compensation)
	}

	switch {
	case !c.PostedAt.IsZero():
		role.PostingDate = c.PostedAt
	case c.PostedText != "":
		role.PostingDate = parse.ParsePostingDateAt(c.PostedText, now)
	default:
		role.PostingDate = parse.ParsePostingDateAt(c.Text, now)
	}

	source := domain.SourceRecord{
		Source:         f.Source,
		SourceRoleID:   firstNonEmpty(strings.TrimSpace(c.ID), link),
		SourceURL:      f.SourceURL,
		ApplicationURL: link,
	}
	source.RawPayload = rawPayload(c, role, link)

	return domain.Extracted{Role: role, Source: source}, true
}

// sighting is stored when a source exposes no structured payload of its own.
type sighting struct {
	Role     domain.RoleRecord `json:"role"`
	Link     string            `json:"link,omitempty"`
	CardText string            `json:"card_text,omitempty"`
}

func rawPayload(c Candidate, role domain.RoleRecord, link string) []byte {
	var v any = sighting{Role: role, Link: link, CardText: parse.Normalize(c.Text)}
	if len(c.Raw) > 0 {
		v = c.Raw
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return raw
}

// Resolve turns an href into an absolute URL against the source page.
func (f *Finalizer) Resolve(href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if f.base == nil || u.IsAbs() {
		return u.String()
	}
	return f.base.ResolveReference(u).String()
}

func (f *Finalizer) placeholderCompany(company string) bool {
	lower := strings.ToLower(company)
	switch {
	case len(lower) < 2, lower == "unknown":
		return true
	case f.BoardName != "" && lower == strings.ToLower(f.BoardName):
		return true
	case strings.Contains(lower, "jobs") || strings.Contains(lower, "careers"):
		return true
	}
	return false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
