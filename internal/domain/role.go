package domain

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// RoleLevel represents the seniority bucket of a role
type RoleLevel string

const (
	RoleLevelEntry  RoleLevel = "Entry"
	RoleLevelMid    RoleLevel = "Mid"
	RoleLevelSenior RoleLevel = "Senior"
)

// WorkMode represents where the work happens
type WorkMode string

const (
	WorkModeRemote WorkMode = "Remote"
	WorkModeHybrid WorkMode = "Hybrid"
	WorkModeOnsite WorkMode = "Onsite"
)

// ScrapeStatus is the outcome recorded on a RoleSource
type ScrapeStatus string

const (
	ScrapeStatusSuccess ScrapeStatus = "success"
	ScrapeStatusFailure ScrapeStatus = "failure"
)

const DefaultRoleType = "Full-time"

var (
	// ErrNotFound is returned by stores when an identity lookup misses
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned by CreateRole when another writer created the same identity first
	ErrConflict = errors.New("identity conflict")
	// ErrStoreUnavailable aborts a run when persistence cannot be reached at all
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrRunInProgress is returned when a scrape run is already in flight
	ErrRunInProgress = errors.New("scrape run already in progress")
)

// RoleRecord is the normalized content of a posting as produced by an extractor.
type RoleRecord struct {
	CompanyName        string     `json:"company_name"`
	RoleTitle          string     `json:"role_title"`
	Industry           string     `json:"industry,omitempty"`
	FundingStage       string     `json:"funding_stage,omitempty"`
	RoleLevel          RoleLevel  `json:"role_level"`
	RoleType           string     `json:"role_type"`
	WorkMode           WorkMode   `json:"work_mode"`
	Location           string     `json:"location,omitempty"`
	CompensationText   string     `json:"compensation_text,omitempty"`
	SalaryMin          *int       `json:"salary_min,omitempty"`
	SalaryMax          *int       `json:"salary_max,omitempty"`
	SalaryCurrency     string     `json:"salary_currency,omitempty"`
	OffersEquity       *bool      `json:"offers_equity,omitempty"`
	CompanyDescription string     `json:"company_description,omitempty"`
	CompanyDomain      string     `json:"company_domain,omitempty"`
	RoleDescription    string     `json:"role_description,omitempty"`
	PostingDate        time.Time  `json:"posting_date"`
	ClosingDate        *time.Time `json:"closing_date,omitempty"`
}

// SourceRecord describes where a posting was observed.
type SourceRecord struct {
	Source         string          `json:"source"`
	SourceRoleID   string          `json:"source_role_id"`
	SourceURL      string          `json:"source_url"`
	ApplicationURL string          `json:"application_url"`
	RawPayload     json.RawMessage `json:"raw_payload,omitempty"`
}

// Extracted pairs the role content with its provenance
type Extracted struct {
	Role   RoleRecord
	Source SourceRecord
}

// Role is a unique position, identified by (CompanyName, RoleTitle)
type Role struct {
	ID uuid.UUID `json:"id"`
	RoleRecord
	IsActive    bool      `json:"is_active"`
	FirstSeenAt time.Time `json:"first_seen_at"`
	LastSeenAt  time.Time `json:"last_seen_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// RoleSource is one observation channel for a Role, identified by (Source, SourceRoleID)
type RoleSource struct {
	ID             uuid.UUID       `json:"id"`
	TrackerRoleID  uuid.UUID       `json:"tracker_role_id"`
	Source         string          `json:"source"`
	SourceRoleID   string          `json:"source_role_id"`
	SourceURL      string          `json:"source_url"`
	ApplicationURL string          `json:"application_url"`
	LastSeenAt     time.Time       `json:"last_seen_at"`
	LastScrapedAt  time.Time       `json:"last_scraped_at"`
	ScrapeStatus   ScrapeStatus    `json:"scrape_status"`
	RawPayload     json.RawMessage `json:"raw_payload,omitempty"`
}

// SourceUpsert carries the fields written by Store.UpsertSource
type SourceUpsert struct {
	TrackerRoleID uuid.UUID
	SourceRecord
	SeenAt       time.Time
	ScrapeStatus ScrapeStatus
}

// RoleWithSources is a Role and every channel it was seen on
type RoleWithSources struct {
	Role
	Sources []RoleSource `json:"sources"`
}

// ActiveRole is a Role paired with a representative application link, used by cleanup
type ActiveRole struct {
	ID             uuid.UUID
	CompanyName    string
	RoleTitle      string
	ApplicationURL string
}
