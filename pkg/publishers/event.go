package publishers

import (
	"context"
	"time"
)

// Publisher sends events to a downstream sink (SQS, SNS, Pub/Sub, HTTP).
type Publisher interface {
	ID() string
	Type() string
	Publish(ctx context.Context, evt Event) error
}

// Event kinds.
const (
	KindSnapshotWritten = "snapshot.written"
	KindMergeCompleted  = "merge.completed"
)

// Event represents the payload published downstream.
type Event struct {
	Kind       string    `json:"kind"`
	Date       string    `json:"date"`
	Country    string    `json:"country,omitempty"`
	Target     string    `json:"target,omitempty"`
	Path       string    `json:"path"`
	Categories int       `json:"categories,omitempty"`
	Lists      int       `json:"lists,omitempty"`
	Total      int       `json:"total,omitempty"`
	Added      int       `json:"added,omitempty"`
	EmittedAt  time.Time `json:"emitted_at"`
}

// NewSnapshotEvent announces a written country snapshot.
func NewSnapshotEvent(date, country, path string, categories, lists int) Event {
	return Event{
		Kind:       KindSnapshotWritten,
		Date:       date,
		Country:    country,
		Path:       path,
		Categories: categories,
		Lists:      lists,
		EmittedAt:  time.Now().UTC(),
	}
}

// NewMergeEvent announces a completed merge; date is the new watermark.
func NewMergeEvent(date, target, path string, total, added int) Event {
	return Event{
		Kind:      KindMergeCompleted,
		Date:      date,
		Target:    target,
		Path:      path,
		Total:     total,
		Added:     added,
		EmittedAt: time.Now().UTC(),
	}
}

// attributes returns the routing attributes attached by queue publishers.
func (e Event) attributes() map[string]string {
	attrs := map[string]string{"kind": e.Kind}
	if e.Date != "" {
		attrs["date"] = e.Date
	}
	if e.Country != "" {
		attrs["country"] = e.Country
	}
	if e.Target != "" {
		attrs["target"] = e.Target
	}
	return attrs
}

// dedupKey identifies an event by kind, date and subject (country or target).
func (e Event) dedupKey() string {
	subject := e.Country
	if subject == "" {
		subject = e.Target
	}
	return e.Kind + ":" + e.Date + ":" + subject
}
