package publishers

import (
	"context"
	"errors"
	"testing"
)

type stubPublisher struct {
	id     string
	typ    string
	err    error
	calls  int
	closed bool
}

func (s *stubPublisher) ID() string   { return s.id }
func (s *stubPublisher) Type() string { return s.typ }
func (s *stubPublisher) Publish(context.Context, Event) error {
	s.calls++
	return s.err
}
func (s *stubPublisher) Close() error {
	s.closed = true
	return nil
}

func TestFanoutPublishAggregatesErrors(t *testing.T) {
	fanout := NewFanout([]Publisher{
		&stubPublisher{id: "ok", typ: "http"},
		&stubPublisher{id: "bad", typ: "http", err: errors.New("failed")},
		nil,
	})
	if fanout.Size() != 2 {
		t.Fatalf("expected nil publishers dropped, size %d", fanout.Size())
	}

	count, err := fanout.Publish(context.Background(), Event{Kind: KindSnapshotWritten})
	if count != 1 {
		t.Fatalf("expected 1 success, got %d", count)
	}
	if err == nil {
		t.Fatalf("expected aggregated error")
	}
}

func TestFanoutSkipsUnsubscribedKinds(t *testing.T) {
	snaps := &stubPublisher{id: "snaps", typ: "http"}
	merges := &stubPublisher{id: "merges", typ: "http"}
	fanout := NewFanout([]Publisher{
		kindFilter{Publisher: snaps, cfg: PublisherConfig{Kinds: []string{KindSnapshotWritten}}},
		kindFilter{Publisher: merges, cfg: PublisherConfig{Kinds: []string{KindMergeCompleted}}},
	})

	count, err := fanout.Publish(context.Background(), NewMergeEvent("2024-03-02", "global", "merged_global.json", 3, 1))
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if count != 1 || snaps.calls != 0 || merges.calls != 1 {
		t.Fatalf("unexpected routing: count=%d snaps=%d merges=%d", count, snaps.calls, merges.calls)
	}

	if err := fanout.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !snaps.closed || !merges.closed {
		t.Fatalf("expected filtered publishers to be closed")
	}
}

func TestNilFanoutIsNoop(t *testing.T) {
	var fanout *Fanout
	count, err := fanout.Publish(context.Background(), Event{})
	if count != 0 || err != nil {
		t.Fatalf("expected no-op, got %d %v", count, err)
	}
	if fanout.Size() != 0 || fanout.Close() != nil {
		t.Fatalf("nil fanout should be empty")
	}
}

func TestBuildAllWithDefaultRegistry(t *testing.T) {
	reg := DefaultRegistry()
	pubs, err := BuildAll(context.Background(), reg, []PublisherConfig{
		{ID: "http", Type: TypeHTTP, Kinds: []string{KindMergeCompleted}, HTTP: &HTTPPublisherConfig{URL: "https://example.com"}},
	}, nil)
	if err != nil {
		t.Fatalf("BuildAll: %v", err)
	}
	if len(pubs) != 1 {
		t.Fatalf("expected 1 publisher, got %d", len(pubs))
	}
	w, ok := pubs[0].(interface{ Wants(string) bool })
	if !ok || w.Wants(KindSnapshotWritten) || !w.Wants(KindMergeCompleted) {
		t.Fatalf("expected publisher restricted to merge events")
	}
}

func TestBuildAllUnknownType(t *testing.T) {
	_, err := BuildAll(context.Background(), DefaultRegistry(), []PublisherConfig{{ID: "x", Type: "kafka"}}, nil)
	if err == nil {
		t.Fatalf("expected error for unregistered type")
	}
}
