package domain

import (
	"strings"
	"time"

	"github.com/samvad-hq/rank-harvester/internal/orderedmap"
)

// Domain contains core models shared by the collect and merge phases.

// DateLayout is the ISO 8601 calendar date used for snapshot folders and the
// merge watermark.
const DateLayout = "2006-01-02"

// Triple names one ranked list.
type Triple struct {
	Country    string `json:"country"`
	Category   string `json:"category"`
	Collection string `json:"collection"`
}

// Key returns the slash-joined lowercase form of the triple.
func (t Triple) Key() string {
	return strings.ToLower(t.Country + "/" + t.Category + "/" + t.Collection)
}

// Ranking is the ordered identifier list for one collection.
type Ranking = []string

// Collections maps lowercased collection names to rankings.
type Collections = orderedmap.Map[Ranking]

// Snapshot maps lowercased category names to their collections, in a stable
// key order.
type Snapshot = orderedmap.Map[*Collections]

// NewSnapshot returns an empty snapshot.
func NewSnapshot() *Snapshot {
	return orderedmap.New[*Collections]()
}

// NewCollections returns an empty collection map.
func NewCollections() *Collections {
	return orderedmap.New[Ranking]()
}

// FormatDate renders t as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
