package collector

import (
	"strings"

	"github.com/samvad-hq/rank-harvester/internal/domain"
)

// Aggregator folds fetch outcomes for one country into a snapshot. It is not
// safe for concurrent use; feed it after the fetches have joined.
type Aggregator struct {
	result *domain.Snapshot
	lists  int
}

// NewAggregator returns an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{result: domain.NewSnapshot()}
}

// Add records o under its lowercased category and collection. Empty rankings
// leave no trace, not even the category key.
func (a *Aggregator) Add(o Outcome) {
	if len(o.IDs) == 0 {
		return
	}
	cat := strings.ToLower(o.Triple.Category)
	col := strings.ToLower(o.Triple.Collection)
	a.result.Ensure(cat, domain.NewCollections).Set(col, o.IDs)
	a.lists++
}

// Lists returns how many non-empty rankings were added.
func (a *Aggregator) Lists() int { return a.lists }

// Canonical re-emits the aggregated rankings walking categories and
// collections in enumeration order, so the output does not depend on the
// order fetches completed in.
func (a *Aggregator) Canonical(categories, collections []string) *domain.Snapshot {
	out := domain.NewSnapshot()
	for _, category := range categories {
		cat := strings.ToLower(category)
		cols, ok := a.result.Get(cat)
		if !ok {
			continue
		}
		for _, collection := range collections {
			col := strings.ToLower(collection)
			if ids, ok := cols.Get(col); ok {
				out.Ensure(cat, domain.NewCollections).Set(col, ids)
			}
		}
	}
	return out
}
