package domain

// RoleFilters narrows the public role listing. Empty fields mean no filter.
type RoleFilters struct {
	WorkMode  WorkMode
	RoleLevel RoleLevel
	Industry  string
	Search    string
	Page      int
	Limit     int
}

const (
	DefaultPageLimit = 50
	MaxPageLimit     = 200
)

// Normalize clamps paging into range
func (f *RoleFilters) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = DefaultPageLimit
	}
	if f.Limit > MaxPageLimit {
		f.Limit = MaxPageLimit
	}
}

// Offset returns the row offset for the current page
func (f RoleFilters) Offset() int {
	return (f.Page - 1) * f.Limit
}

// Pagination describes one page of a listing
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// NewPagination computes the page count for total rows
func NewPagination(page, limit, total int) Pagination {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return Pagination{Page: page, Limit: limit, Total: total, TotalPages: pages}
}

// RoleListResponse is the body of GET /api/jobs
type RoleListResponse struct {
	Jobs       []Role     `json:"jobs"`
	Pagination Pagination `json:"pagination"`
}
