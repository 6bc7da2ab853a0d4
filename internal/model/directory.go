package model

import "strings"

type MPSort string

const (
	MPSortName        MPSort = "name"
	MPSortUtilization MPSort = "utilization"
	MPSortExpenditure MPSort = "expenditure"
)

func ParseMPSort(raw string) (MPSort, bool) {
	switch MPSort(strings.ToLower(strings.TrimSpace(raw))) {
	case MPSortName:
		return MPSortName, true
	case MPSortUtilization:
		return MPSortUtilization, true
	case MPSortExpenditure:
		return MPSortExpenditure, true
	default:
		return "", false
	}
}

// MPFilter narrows the MP directory. Empty strings mean "no constraint".
type MPFilter struct {
	State        string
	Constituency string
	House        string
	Search       string
	Sort         MPSort
	Page         int
	Limit        int
}

func (f MPFilter) Normalized(defaultLimit int) MPFilter {
	f.State = strings.TrimSpace(f.State)
	f.Constituency = strings.TrimSpace(f.Constituency)
	f.House = strings.TrimSpace(f.House)
	f.Search = strings.TrimSpace(f.Search)
	f.Page, f.Limit = normalizePaging(f.Page, f.Limit, defaultLimit)
	if f.Sort == "" {
		f.Sort = MPSortName
	}
	return f
}

// MPStanding is one directory row: the MP profile, fund use and work
// counts per status.
type MPStanding struct {
	ID                    string  `json:"id"`
	Name                  string  `json:"name"`
	Constituency          string  `json:"constituency"`
	State                 string  `json:"state"`
	House                 string  `json:"house"`
	Party                 string  `json:"party"`
	AllocatedAmount       float64 `json:"allocatedAmount"`
	TotalExpenditure      float64 `json:"totalExpenditure"`
	UtilizationPercentage float64 `json:"utilizationPercentage"`
	CompletedWorksCount   int64   `json:"completedWorksCount"`
	CompletedWorksValue   float64 `json:"completedWorksValue"`
	RecommendedWorksCount int64   `json:"recommendedWorksCount"`
	RecommendedWorksValue float64 `json:"recommendedWorksValue"`
}

type MPListResult struct {
	MPs        []MPStanding `json:"mps"`
	Pagination Pagination   `json:"pagination"`
	CacheKey   string       `json:"-"`
}

type StatesFilter struct {
	House string
}

// StateSummary totals the MPs of one state.
type StateSummary struct {
	State                 string  `json:"state"`
	MPCount               int64   `json:"mpCount"`
	TotalAllocated        float64 `json:"totalAllocated"`
	TotalExpenditure      float64 `json:"totalExpenditure"`
	UtilizationPercentage float64 `json:"utilizationPercentage"`
	TotalWorksCompleted   int64   `json:"totalWorksCompleted"`
	CompletedWorksValue   float64 `json:"completedWorksValue"`
	RecommendedWorksCount int64   `json:"recommendedWorksCount"`
}

// StatesInsights compares the states of one listing.
type StatesInsights struct {
	StateCount            int            `json:"stateCount"`
	MPCount               int64          `json:"mpCount"`
	TotalAllocated        float64        `json:"totalAllocated"`
	TotalExpenditure      float64        `json:"totalExpenditure"`
	UtilizationPercentage float64        `json:"utilizationPercentage"`
	TotalWorksCompleted   int64          `json:"totalWorksCompleted"`
	TotalWorksRecommended int64          `json:"totalWorksRecommended"`
	CompletionRate        float64        `json:"completionRate"`
	AverageUtilization    float64        `json:"averageUtilization"`
	HighestUtilization    float64        `json:"highestUtilization"`
	LowestUtilization     float64        `json:"lowestUtilization"`
	HighUtilizationStates int            `json:"highUtilizationStates"`
	LowUtilizationStates  int            `json:"lowUtilizationStates"`
	TopPerformers         []StateSummary `json:"topPerformers"`
	BottomPerformers      []StateSummary `json:"bottomPerformers"`
}

type StatesOverview struct {
	House    string         `json:"house,omitempty"`
	States   []StateSummary `json:"states"`
	Insights StatesInsights `json:"insights"`
	CacheKey string         `json:"-"`
}
