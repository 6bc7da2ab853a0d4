// Package testhelpers provides an in-memory works store for tests.
package testhelpers

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"

	"gorm.io/gorm"

	"github.com/nurpe/mplads-works/internal/model"
	"github.com/nurpe/mplads-works/internal/query"
)

// MemStore evaluates a query's normalized filter against an in-memory set
// of works, mirroring the SQL predicate and ordering.
type MemStore struct {
	mu        sync.Mutex
	works     []model.Work
	mps       map[string]model.MP
	summaries map[string]model.MPSummary
	failures  map[string][]error
	calls     map[string]int
}

func NewMemStore() *MemStore {
	return &MemStore{
		mps:       map[string]model.MP{},
		summaries: map[string]model.MPSummary{},
		failures:  map[string][]error{},
		calls:     map[string]int{},
	}
}

func (s *MemStore) AddMP(mp model.MP) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mps[mp.ID] = mp
}

func (s *MemStore) AddWorks(works ...model.Work) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range works {
		w.DerivePayments()
		s.works = append(s.works, w)
	}
}

func (s *MemStore) SetMPSummary(summary model.MPSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summaries[summary.MPID+"|"+string(summary.Status)] = summary
}

// FailNext makes the next calls of method return errs, one per call.
func (s *MemStore) FailNext(method string, errs ...error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method] = append(s.failures[method], errs...)
}

func (s *MemStore) Calls(method string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method]
}

func (s *MemStore) enter(method string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[method]++
	if pending := s.failures[method]; len(pending) > 0 {
		s.failures[method] = pending[1:]
		return pending[0]
	}
	return nil
}

func (s *MemStore) ListWorks(ctx context.Context, q query.Query) ([]model.Work, error) {
	if err := s.enter("ListWorks"); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	matched := s.match(q.Filter)
	start := int(q.Offset)
	if start >= len(matched) {
		return []model.Work{}, nil
	}
	end := start + int(q.Limit)
	if end > len(matched) {
		end = len(matched)
	}
	return append([]model.Work{}, matched[start:end]...), nil
}

func (s *MemStore) AggregateWorks(ctx context.Context, q query.Query) (model.Summary, error) {
	if err := s.enter("AggregateWorks"); err != nil {
		return model.Summary{}, err
	}
	if err := ctx.Err(); err != nil {
		return model.Summary{}, err
	}
	var out model.Summary
	for _, w := range s.match(q.Filter) {
		out.TotalWorks++
		out.TotalCost += w.Amount()
	}
	return out, nil
}

func (s *MemStore) FindWorksByIDs(ctx context.Context, status model.WorkStatus, mpID string, workIDs []string) ([]model.Work, error) {
	if err := s.enter("FindWorksByIDs"); err != nil {
		return nil, err
	}
	wanted := make(map[string]struct{}, len(workIDs))
	for _, id := range workIDs {
		wanted[id] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Work{}
	for _, w := range s.works {
		if _, ok := wanted[w.WorkID]; !ok || w.Status != status {
			continue
		}
		if mpID != "" && w.MP.ID != mpID {
			continue
		}
		out = append(out, w)
	}
	return out, nil
}

func (s *MemStore) GetMP(ctx context.Context, id string) (*model.MP, error) {
	if err := s.enter("GetMP"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	mp, ok := s.mps[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &mp, nil
}

func (s *MemStore) GetMPSummary(ctx context.Context, mpID string, status model.WorkStatus) (*model.MPSummary, error) {
	if err := s.enter("GetMPSummary"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	summary, ok := s.summaries[mpID+"|"+string(status)]
	if !ok {
		return nil, nil
	}
	return &summary, nil
}

func (s *MemStore) ListMPs(ctx context.Context, q query.MPQuery) ([]model.MPStanding, error) {
	if err := s.enter("ListMPs"); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	matched := s.matchMPs(q.Filter)
	start := int(q.Offset)
	if start >= len(matched) {
		return []model.MPStanding{}, nil
	}
	end := start + int(q.Limit)
	if end > len(matched) {
		end = len(matched)
	}
	return append([]model.MPStanding{}, matched[start:end]...), nil
}

func (s *MemStore) CountMPs(ctx context.Context, q query.MPQuery) (int64, error) {
	if err := s.enter("CountMPs"); err != nil {
		return 0, err
	}
	return int64(len(s.matchMPs(q.Filter))), nil
}

func (s *MemStore) ListStates(ctx context.Context, q query.StatesQuery) ([]model.StateSummary, error) {
	if err := s.enter("ListStates"); err != nil {
		return nil, err
	}
	index := map[string]int{}
	out := []model.StateSummary{}
	for _, mp := range s.matchMPs(model.MPFilter{House: q.Filter.House, Sort: model.MPSortName}) {
		pos, ok := index[mp.State]
		if !ok {
			out = append(out, model.StateSummary{State: mp.State})
			pos = len(out) - 1
			index[mp.State] = pos
		}
		row := &out[pos]
		row.MPCount++
		row.TotalAllocated += mp.AllocatedAmount
		row.TotalExpenditure += mp.TotalExpenditure
		row.TotalWorksCompleted += mp.CompletedWorksCount
		row.CompletedWorksValue += mp.CompletedWorksValue
		row.RecommendedWorksCount += mp.RecommendedWorksCount
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].State < out[j].State })
	return out, nil
}

// matchMPs mirrors the directory predicate and ordering.
func (s *MemStore) matchMPs(f model.MPFilter) []model.MPStanding {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.MPStanding, 0, len(s.mps))
	for _, mp := range s.mps {
		if f.State != "" && !strings.EqualFold(mp.State, f.State) {
			continue
		}
		if f.Constituency != "" && !strings.EqualFold(mp.Constituency, f.Constituency) {
			continue
		}
		if f.House != "" && !strings.EqualFold(mp.House, f.House) {
			continue
		}
		if f.Search != "" {
			needle := strings.ToLower(f.Search)
			if !strings.Contains(strings.ToLower(mp.Name), needle) &&
				!strings.Contains(strings.ToLower(mp.Constituency), needle) &&
				!strings.Contains(strings.ToLower(mp.State), needle) {
				continue
			}
		}
		row := model.MPStanding{
			ID:               mp.ID,
			Name:             mp.Name,
			Constituency:     mp.Constituency,
			State:            mp.State,
			House:            mp.House,
			Party:            mp.Party,
			AllocatedAmount:  mp.AllocatedAmount,
			TotalExpenditure: mp.TotalExpenditure,
		}
		if mp.AllocatedAmount > 0 {
			row.UtilizationPercentage = mp.TotalExpenditure / mp.AllocatedAmount * 100
		}
		for _, w := range s.works {
			if w.MP.ID != mp.ID {
				continue
			}
			switch w.Status {
			case model.WorkStatusCompleted:
				row.CompletedWorksCount++
				row.CompletedWorksValue += w.Cost
			case model.WorkStatusRecommended:
				row.RecommendedWorksCount++
				row.RecommendedWorksValue += w.RecommendedAmount
			}
		}
		out = append(out, row)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch f.Sort {
		case model.MPSortUtilization:
			if a.UtilizationPercentage != b.UtilizationPercentage {
				return a.UtilizationPercentage > b.UtilizationPercentage
			}
		case model.MPSortExpenditure:
			if a.TotalExpenditure != b.TotalExpenditure {
				return a.TotalExpenditure > b.TotalExpenditure
			}
		default:
			if a.Name != b.Name {
				return a.Name < b.Name
			}
		}
		return a.ID < b.ID
	})
	return out
}

func (s *MemStore) match(f model.FilterSet) []model.Work {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Work, 0)
	for _, w := range s.works {
		if matches(w, f) {
			out = append(out, w)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		di, dj := out[i].Date(), out[j].Date()
		switch {
		case di != nil && dj == nil:
			return true
		case di == nil && dj != nil:
			return false
		case di != nil && dj != nil && !di.Equal(*dj):
			return di.After(*dj)
		}
		return out[i].WorkID < out[j].WorkID
	})
	return out
}

func matches(w model.Work, f model.FilterSet) bool {
	if w.Status != f.Status {
		return false
	}
	if f.MPID != "" && w.MP.ID != f.MPID {
		return false
	}
	if f.State != "" && !strings.EqualFold(w.MP.State, f.State) {
		return false
	}
	if f.Constituency != "" && !strings.EqualFold(w.MP.Constituency, f.Constituency) {
		return false
	}
	if f.House != "" && !strings.EqualFold(w.MP.House, f.House) {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(w.Description), needle) &&
			!strings.Contains(strings.ToLower(w.Category), needle) &&
			!strings.Contains(strings.ToLower(w.MP.Name), needle) {
			return false
		}
	}
	if f.Year != "" {
		d := w.Date()
		if d == nil || strconv.Itoa(d.Year()) != f.Year {
			return false
		}
	}
	if f.MinCost != nil && w.Amount() < *f.MinCost {
		return false
	}
	if f.MaxCost != nil && w.Amount() > *f.MaxCost {
		return false
	}
	if f.HasPayments != nil && f.Status != model.WorkStatusCompleted && w.HasPayments != *f.HasPayments {
		return false
	}
	return true
}
