package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveFetchCountsByStatus(t *testing.T) {
	m := New()
	m.ObserveFetch("ok", 10*time.Millisecond)
	m.ObserveFetch("ok", 20*time.Millisecond)
	m.ObserveFetch("failed", time.Millisecond)

	if got := testutil.ToFloat64(m.fetches.WithLabelValues("ok")); got != 2 {
		t.Fatalf("ok fetches = %v", got)
	}
	if got := testutil.ToFloat64(m.fetches.WithLabelValues("failed")); got != 1 {
		t.Fatalf("failed fetches = %v", got)
	}
}

func TestObserveMergeSetsGauges(t *testing.T) {
	m := New()
	wm := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
	m.ObserveMerge("global", nil, 42, &wm)
	m.ObserveMerge("global", errors.New("bad state"), 0, nil)

	if got := testutil.ToFloat64(m.mergeTotal.WithLabelValues("global")); got != 42 {
		t.Fatalf("merge_identifiers = %v", got)
	}
	if got := testutil.ToFloat64(m.mergeWatermark.WithLabelValues("global")); got != float64(wm.Unix()) {
		t.Fatalf("watermark = %v", got)
	}
	if got := testutil.ToFloat64(m.mergeRuns.WithLabelValues("global", "failed")); got != 1 {
		t.Fatalf("failed runs = %v", got)
	}
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.SnapshotWritten()
	path := filepath.Join(t.TempDir(), "rank.prom")
	if err := m.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	if !strings.Contains(string(raw), "snapshot_artifacts_written_total 1") {
		t.Fatalf("textfile missing counter:\n%s", raw)
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveFetch("ok", time.Second)
	m.SnapshotWritten()
	m.SnapshotWriteFailed()
	m.ObserveMerge("global", nil, 1, nil)
	if err := m.WriteTextfile("/nonexistent/x.prom"); err != nil {
		t.Fatalf("nil WriteTextfile: %v", err)
	}
}
