package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/samvad-hq/rank-harvester/internal/domain"
	"github.com/samvad-hq/rank-harvester/internal/logger"
	"github.com/samvad-hq/rank-harvester/pkg/rankings"
)

// Outcome is the result of fetching one ranked list. A failed fetch carries
// Err and an empty, non-nil IDs slice.
type Outcome struct {
	Triple   domain.Triple
	IDs      domain.Ranking
	Err      error
	Duration time.Duration
}

// OK reports whether the fetch succeeded.
func (o Outcome) OK() bool { return o.Err == nil }

// RankFetcher performs single ranked-list fetches against the configured source.
// It never returns an error: every failure is folded into the Outcome.
type RankFetcher struct {
	source   rankings.Source
	registry rankings.ListerRegistry
	maxCount int
	log      logger.Logger
}

// NewRankFetcher builds a fetcher for src using listers from reg.
func NewRankFetcher(src rankings.Source, reg rankings.ListerRegistry, log logger.Logger) *RankFetcher {
	maxCount := src.MaxCount
	if maxCount <= 0 || maxCount > rankings.MaxFetchCount {
		maxCount = rankings.MaxFetchCount
	}
	return &RankFetcher{
		source:   src,
		registry: reg,
		maxCount: maxCount,
		log:      logger.Ensure(log),
	}
}

// Fetch retrieves the ranking for t.
func (f *RankFetcher) Fetch(ctx context.Context, t domain.Triple) (out Outcome) {
	start := time.Now()
	out = Outcome{Triple: t, IDs: domain.Ranking{}}

	defer func() {
		if r := recover(); r != nil {
			out.Err = fmt.Errorf("lister panic: %v", r)
			out.IDs = domain.Ranking{}
		}
		out.Duration = time.Since(start)
		if out.Err != nil {
			f.log.WarnObj("ranking fetch failed", "fetch_error", map[string]any{
				"country":    t.Country,
				"category":   t.Category,
				"collection": t.Collection,
				"error":      out.Err.Error(),
			})
		}
	}()

	lister, err := f.registry.ListerFor(f.source)
	if err != nil {
		out.Err = fmt.Errorf("resolve lister: %w", err)
		return out
	}

	ids, err := lister.List(ctx, f.source, rankings.Query{
		Country:    t.Country,
		Category:   t.Category,
		Collection: t.Collection,
		Num:        f.maxCount,
	})
	if err != nil {
		out.Err = err
		return out
	}
	if ids != nil {
		out.IDs = ids
	}
	return out
}
