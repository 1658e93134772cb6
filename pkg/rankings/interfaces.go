package rankings

import (
	"context"

	"github.com/samvad-hq/rank-harvester/pkg/httpclient"
)

// Query identifies one ranked list: a country, a category and a collection,
// plus how many identifiers to ask for.
type Query struct {
	Country    string
	Category   string
	Collection string
	Num        int
}

// Lister retrieves the ordered identifiers of one ranked list. Concrete
// implementations live in format-specific files (json_lister.go, html_lister.go).
type Lister interface {
	Type() string
	List(ctx context.Context, src Source, q Query) ([]string, error)
}

// ListerRegistry resolves the lister implementation for a source.
type ListerRegistry interface {
	ListerFor(src Source) (Lister, error)
}

// HTTPClient aliases the shared httpclient.Client interface for clarity within rankings.
type HTTPClient = httpclient.Client
