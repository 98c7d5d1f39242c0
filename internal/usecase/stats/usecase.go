package stats

import (
	"context"

	"microloans-api/internal/domain/stats"
)

type Usecase struct {
	repo  stats.Repository
	cache stats.Cache
}

func NewUsecase(r stats.Repository, cache stats.Cache) *Usecase {
	if cache == nil {
		cache = stats.NopCache{}
	}
	return &Usecase{repo: r, cache: cache}
}

// Summary serves the cached aggregates when present, otherwise recomputes
// them. The result is cached only if no write landed while it was computed.
func (u *Usecase) Summary(ctx context.Context) (map[string]float64, error) {
	cached, gen, ok := u.cache.Get(ctx)
	if ok {
		return cached.Map(), nil
	}
	s, err := u.repo.Summarize(ctx)
	if err != nil {
		return nil, err
	}
	u.cache.Set(ctx, gen, s)
	return s.Map(), nil
}
