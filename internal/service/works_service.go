package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/nurpe/mplads-works/internal/cache"
	"github.com/nurpe/mplads-works/internal/config"
	"github.com/nurpe/mplads-works/internal/model"
	"github.com/nurpe/mplads-works/internal/query"
	"github.com/nurpe/mplads-works/internal/view"
)

type WorksStore interface {
	ListWorks(ctx context.Context, q query.Query) ([]model.Work, error)
	AggregateWorks(ctx context.Context, q query.Query) (model.Summary, error)
	FindWorksByIDs(ctx context.Context, status model.WorkStatus, mpID string, workIDs []string) ([]model.Work, error)
}

type MPStore interface {
	GetMP(ctx context.Context, id string) (*model.MP, error)
	GetMPSummary(ctx context.Context, mpID string, status model.WorkStatus) (*model.MPSummary, error)
	ListMPs(ctx context.Context, q query.MPQuery) ([]model.MPStanding, error)
	CountMPs(ctx context.Context, q query.MPQuery) (int64, error)
	ListStates(ctx context.Context, q query.StatesQuery) ([]model.StateSummary, error)
}

const (
	cachePrefixWorks   = "works:"
	cachePrefixMPWorks = "mp-works:"
	cachePrefixMPs     = "mps:"
	cachePrefixStates  = "states:"
)

// WorksService answers paginated works queries. It only reads from the
// store; the page slice and the aggregate are separate reads over the same
// predicate, so totals may briefly disagree with the listed items while the
// store is being written.
type WorksService struct {
	works         WorksStore
	mps           MPStore
	builder       *query.Builder
	cache         cache.Cache
	log           zerolog.Logger
	retryBackoff  time.Duration
	exportMaxRows int
}

func NewWorksService(
	works WorksStore,
	mps MPStore,
	builder *query.Builder,
	responses cache.Cache,
	log zerolog.Logger,
	cfg config.WorksConfig,
) *WorksService {
	if responses == nil {
		responses = cache.Noop{}
	}
	backoff := cfg.RetryBackoff
	if backoff <= 0 {
		backoff = 200 * time.Millisecond
	}
	exportMaxRows := cfg.ExportMaxRows
	if exportMaxRows < 1 {
		exportMaxRows = 5000
	}
	return &WorksService{
		works:         works,
		mps:           mps,
		builder:       builder,
		cache:         responses,
		log:           log.With().Str("component", "works-service").Logger(),
		retryBackoff:  backoff,
		exportMaxRows: exportMaxRows,
	}
}

// FetchPage returns one page of works plus a summary over the whole
// filtered set.
func (s *WorksService) FetchPage(ctx context.Context, filter model.FilterSet) (*model.PageResult, error) {
	q, err := s.builder.Build(filter)
	if err != nil {
		return nil, err
	}
	key := cachePrefixWorks + q.Signature()
	result, err := cached(ctx, s, key, func(ctx context.Context) (*model.PageResult, error) {
		return s.fetch(ctx, q, nil)
	})
	if err != nil {
		return nil, err
	}
	result.CacheKey = key
	return result, nil
}

// FetchMPWorks is FetchPage restricted to one MP. An unknown MP yields
// ErrNotFound; an MP without matching works yields an empty page.
func (s *WorksService) FetchMPWorks(ctx context.Context, mpID string, filter model.FilterSet) (*model.PageResult, error) {
	return s.fetchMPWorks(ctx, mpID, filter, true)
}

// fetchMPWorks skips the MP lookup when the caller already resolved it.
func (s *WorksService) fetchMPWorks(ctx context.Context, mpID string, filter model.FilterSet, lookup bool) (*model.PageResult, error) {
	mpID = strings.TrimSpace(mpID)
	if mpID == "" {
		return nil, fmt.Errorf("%w: mp id is required", ErrInvalidFilter)
	}
	filter.MPID = mpID
	q, err := s.builder.Build(filter)
	if err != nil {
		return nil, err
	}
	key := cachePrefixMPWorks + q.Signature()
	result, err := cached(ctx, s, key, func(ctx context.Context) (*model.PageResult, error) {
		if lookup {
			if _, err := s.GetMP(ctx, mpID); err != nil {
				return nil, err
			}
		}
		return s.fetch(ctx, q, s.precomputedSummary(q))
	})
	if err != nil {
		return nil, err
	}
	result.CacheKey = key
	return result, nil
}

// FetchMPOverview returns the completed and recommended pages of one MP.
// A work present in both appears only under completed; each summary keeps
// the store's per-status totals.
func (s *WorksService) FetchMPOverview(ctx context.Context, mpID string, filter model.FilterSet) (*model.MPWorksOverview, error) {
	completedFilter := filter
	completedFilter.Status = model.WorkStatusCompleted
	recommendedFilter := filter
	recommendedFilter.Status = model.WorkStatusRecommended

	// reject bad filters before any store access
	for _, f := range []model.FilterSet{completedFilter, recommendedFilter} {
		if _, err := s.builder.Build(f); err != nil {
			return nil, err
		}
	}

	mp, err := s.GetMP(ctx, mpID)
	if err != nil {
		return nil, err
	}

	var completed, recommended *model.PageResult
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		completed, err = s.fetchMPWorks(gctx, mp.ID, completedFilter, false)
		return err
	})
	g.Go(func() error {
		var err error
		recommended, err = s.fetchMPWorks(gctx, mp.ID, recommendedFilter, false)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	completed.Items, recommended.Items = Dedupe(completed.Items, recommended.Items)
	return &model.MPWorksOverview{
		MP:          *mp,
		Completed:   *completed,
		Recommended: *recommended,
		Totals:      view.MergeSummaries(completed.Summary, recommended.Summary),
	}, nil
}

// Collect returns up to the export row limit of the filtered set, starting
// at the first row. Pagination.HasNext reports a truncated result.
func (s *WorksService) Collect(ctx context.Context, filter model.FilterSet) (*model.PageResult, error) {
	q, err := s.builder.BuildExport(filter, s.exportMaxRows)
	if err != nil {
		return nil, err
	}
	if q.Filter.MPID != "" {
		if _, err := s.GetMP(ctx, q.Filter.MPID); err != nil {
			return nil, err
		}
	}
	return s.fetch(ctx, q, nil)
}

func (s *WorksService) GetMP(ctx context.Context, id string) (*model.MP, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: mp id is required", ErrInvalidFilter)
	}
	var mp *model.MP
	err := s.withRetry(ctx, func(ctx context.Context) error {
		var err error
		mp, err = s.mps.GetMP(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return mp, nil
}

// InvalidateCache drops one cached response by key.
func (s *WorksService) InvalidateCache(ctx context.Context, key string) error {
	return s.cache.Invalidate(ctx, key)
}

func (s *WorksService) FlushCache(ctx context.Context) error {
	return s.cache.FlushAll(ctx)
}

type summarySource func(ctx context.Context) (*model.Summary, error)

// precomputedSummary serves the stored per-MP totals, which only describe
// the unfiltered MP scope.
func (s *WorksService) precomputedSummary(q query.Query) summarySource {
	if q.Filter.Narrowed() {
		return nil
	}
	return func(ctx context.Context) (*model.Summary, error) {
		var stored *model.MPSummary
		err := s.withRetry(ctx, func(ctx context.Context) error {
			var err error
			stored, err = s.mps.GetMPSummary(ctx, q.Filter.MPID, q.Filter.Status)
			return err
		})
		if err != nil || stored == nil {
			return nil, err
		}
		return &model.Summary{TotalWorks: stored.TotalWorks, TotalCost: stored.TotalCost}, nil
	}
}

func (s *WorksService) fetch(ctx context.Context, q query.Query, precomputed summarySource) (*model.PageResult, error) {
	var (
		items   []model.Work
		summary model.Summary
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if q.PastEnd {
			return nil
		}
		return s.withRetry(gctx, func(ctx context.Context) error {
			var err error
			items, err = s.works.ListWorks(ctx, q)
			return err
		})
	})
	g.Go(func() error {
		if precomputed != nil {
			stored, err := precomputed(gctx)
			if err != nil {
				return err
			}
			if stored != nil {
				summary = *stored
				return nil
			}
		}
		return s.withRetry(gctx, func(ctx context.Context) error {
			var err error
			summary, err = s.works.AggregateWorks(ctx, q)
			return err
		})
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if q.Filter.Status != model.WorkStatusCompleted && len(items) > 0 {
		var err error
		if items, err = s.dropCompleted(ctx, q.Filter.MPID, items); err != nil {
			return nil, err
		}
	}
	if items == nil {
		items = []model.Work{}
	}

	return &model.PageResult{
		Kind:       model.ResultKindFor(q.Filter.Status),
		Items:      items,
		Pagination: model.NewPagination(q.Filter.Page, q.Filter.Limit, summary.TotalWorks),
		Summary:    summary,
	}, nil
}

// dropCompleted removes works that have since completed. The summary is
// left as the store computed it.
func (s *WorksService) dropCompleted(ctx context.Context, mpID string, items []model.Work) ([]model.Work, error) {
	ids := make([]string, 0, len(items))
	for _, w := range items {
		ids = append(ids, w.WorkID)
	}

	var completed []model.Work
	err := s.withRetry(ctx, func(ctx context.Context) error {
		var err error
		completed, err = s.works.FindWorksByIDs(ctx, model.WorkStatusCompleted, mpID, ids)
		return err
	})
	if err != nil {
		return nil, err
	}
	_, kept := Dedupe(completed, items)
	return kept, nil
}

// cached serves key from the response cache, loading and storing it on a
// miss. Load failures are never cached.
func cached[T any](
	ctx context.Context,
	s *WorksService,
	key string,
	load func(ctx context.Context) (*T, error),
) (*T, error) {
	raw, ok, err := s.cache.Get(ctx, key)
	switch {
	case err != nil:
		s.log.Warn().Err(err).Str("key", key).Msg("cache read failed")
	case ok:
		var result T
		if err := json.Unmarshal(raw, &result); err == nil {
			return &result, nil
		}
		s.log.Warn().Str("key", key).Msg("discarding undecodable cache entry")
	}

	result, err := load(ctx)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(result); err == nil {
		if err := s.cache.Set(ctx, key, raw); err != nil {
			s.log.Warn().Err(err).Str("key", key).Msg("cache write failed")
		}
	}
	return result, nil
}
