package service

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/nurpe/mplads-works/internal/model"
	"github.com/nurpe/mplads-works/internal/view"
)

// FetchMPs returns one page of the MP directory. The page and the total
// count are separate reads over the same predicate.
func (s *WorksService) FetchMPs(ctx context.Context, filter model.MPFilter) (*model.MPListResult, error) {
	q, err := s.builder.BuildMPs(filter)
	if err != nil {
		return nil, err
	}
	key := cachePrefixMPs + q.Signature()
	result, err := cached(ctx, s, key, func(ctx context.Context) (*model.MPListResult, error) {
		var (
			mps   []model.MPStanding
			total int64
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			if q.PastEnd {
				return nil
			}
			return s.withRetry(gctx, func(ctx context.Context) error {
				var err error
				mps, err = s.mps.ListMPs(ctx, q)
				return err
			})
		})
		g.Go(func() error {
			return s.withRetry(gctx, func(ctx context.Context) error {
				var err error
				total, err = s.mps.CountMPs(ctx, q)
				return err
			})
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}
		if mps == nil {
			mps = []model.MPStanding{}
		}
		return &model.MPListResult{
			MPs:        mps,
			Pagination: model.NewPagination(q.Filter.Page, q.Filter.Limit, total),
		}, nil
	})
	if err != nil {
		return nil, err
	}
	result.CacheKey = key
	return result, nil
}

// FetchStates groups MPs by state and ranks the states by fund utilization.
func (s *WorksService) FetchStates(ctx context.Context, filter model.StatesFilter) (*model.StatesOverview, error) {
	q, err := s.builder.BuildStates(filter)
	if err != nil {
		return nil, err
	}
	key := cachePrefixStates + q.Signature()
	result, err := cached(ctx, s, key, func(ctx context.Context) (*model.StatesOverview, error) {
		var rows []model.StateSummary
		err := s.withRetry(ctx, func(ctx context.Context) error {
			var err error
			rows, err = s.mps.ListStates(ctx, q)
			return err
		})
		if err != nil {
			return nil, err
		}
		overview := view.BuildStatesOverview(q.Filter.House, rows)
		return &overview, nil
	})
	if err != nil {
		return nil, err
	}
	result.CacheKey = key
	return result, nil
}
