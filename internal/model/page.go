package model

type ResultKind string

const (
	ResultKindCompletedWorks   ResultKind = "completedWorks"
	ResultKindRecommendedWorks ResultKind = "recommendedWorks"
	ResultKindInProgressWorks  ResultKind = "inProgressWorks"
)

func ResultKindFor(status WorkStatus) ResultKind {
	switch status {
	case WorkStatusRecommended:
		return ResultKindRecommendedWorks
	case WorkStatusInProgress:
		return ResultKindInProgressWorks
	default:
		return ResultKindCompletedWorks
	}
}

// Summary aggregates the whole filtered set, independent of the page.
type Summary struct {
	TotalWorks int64   `json:"totalWorks"`
	TotalCost  float64 `json:"totalCost"`
}

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalCount int64 `json:"totalCount"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
	Pages      int   `json:"pages"`
	HasPrev    bool  `json:"hasPrev"`
	HasNext    bool  `json:"hasNext"`
}

// NewPagination derives page counts from totalCount. An empty set still
// reports one page.
func NewPagination(page, limit int, totalCount int64) Pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = int((totalCount + int64(limit) - 1) / int64(limit))
	}
	if totalPages == 0 {
		totalPages = 1
	}
	return Pagination{
		Page:       page,
		Limit:      limit,
		TotalCount: totalCount,
		Total:      totalCount,
		TotalPages: totalPages,
		Pages:      totalPages,
		HasPrev:    page > 1,
		HasNext:    page < totalPages,
	}
}

type PageResult struct {
	Kind       ResultKind `json:"kind"`
	Items      []Work     `json:"items"`
	Pagination Pagination `json:"pagination"`
	Summary    Summary    `json:"summary"`
	// CacheKey is the response cache key the result is stored under.
	CacheKey string `json:"-"`
}

// MPWorksOverview holds both status partitions of one MP after dedupe.
type MPWorksOverview struct {
	MP          MP         `json:"mp"`
	Completed   PageResult `json:"completed"`
	Recommended PageResult `json:"recommended"`
	Totals      Summary    `json:"totals"`
}
