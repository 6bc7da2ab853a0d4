package model

import "strings"

const (
	DefaultPage  = 1
	DefaultLimit = 20
)

// FilterSet is the caller's constraint set for a works query. Empty strings
// and nil pointers mean "no constraint".
type FilterSet struct {
	State        string
	Constituency string
	House        string
	MPID         string
	Search       string
	Year         string
	MinCost      *float64
	MaxCost      *float64
	HasPayments  *bool
	Page         int
	Limit        int
	Status       WorkStatus
}

// Normalized trims text fields and fills defaults. Page and limit are
// clamped to at least 1; a zero limit takes defaultLimit.
func (f FilterSet) Normalized(defaultLimit int) FilterSet {
	f.State = strings.TrimSpace(f.State)
	f.Constituency = strings.TrimSpace(f.Constituency)
	f.House = strings.TrimSpace(f.House)
	f.MPID = strings.TrimSpace(f.MPID)
	f.Search = strings.TrimSpace(f.Search)
	f.Year = strings.TrimSpace(f.Year)

	f.Page, f.Limit = normalizePaging(f.Page, f.Limit, defaultLimit)
	if f.Status == "" {
		f.Status = WorkStatusCompleted
	}
	return f
}

// Narrowed reports whether anything beyond MP and status restricts the set.
func (f FilterSet) Narrowed() bool {
	return f.State != "" ||
		f.Constituency != "" ||
		f.House != "" ||
		f.Search != "" ||
		f.Year != "" ||
		f.MinCost != nil ||
		f.MaxCost != nil ||
		f.HasPayments != nil
}

func normalizePaging(page, limit, defaultLimit int) (int, int) {
	if defaultLimit < 1 {
		defaultLimit = DefaultLimit
	}
	if page < 1 {
		page = DefaultPage
	}
	if limit == 0 {
		limit = defaultLimit
	}
	if limit < 1 {
		limit = 1
	}
	return page, limit
}
