package snapshot

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/samvad-hq/rank-harvester/internal/domain"
)

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		t.Fatalf("parse %s: %v", s, err)
	}
	return d
}

func TestWriterWritesIndentedOrderedArtifact(t *testing.T) {
	root := t.TempDir()
	w := NewWriter(root)
	date := day(t, "2024-01-03")
	if err := w.Prepare(date); err != nil {
		t.Fatalf("Prepare: %v", err)
	}

	snap := domain.NewSnapshot()
	snap.Ensure("tools", domain.NewCollections).Set("top_free", []string{"b", "a"})
	snap.Ensure("art_and_design", domain.NewCollections).Set("grossing", []string{"c"})

	path, err := w.Write(date, "KR", snap)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if want := filepath.Join(root, "2024-01-03", "2024_01_03_kr.json"); path != want {
		t.Fatalf("path = %s want %s", path, want)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	want := `{
  "tools": {
    "top_free": [
      "b",
      "a"
    ]
  },
  "art_and_design": {
    "grossing": [
      "c"
    ]
  }
}`
	if string(raw) != want {
		t.Fatalf("artifact mismatch:\n%s\nwant:\n%s", raw, want)
	}
}

func TestWriterEmptySnapshotIsEmptyObject(t *testing.T) {
	root := t.TempDir()
	w := NewWriter(root)
	date := day(t, "2024-02-29")
	if err := w.Prepare(date); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	path, err := w.Write(date, "us", domain.NewSnapshot())
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	raw, _ := os.ReadFile(path)
	if string(raw) != "{}" {
		t.Fatalf("got %q want {}", raw)
	}
}

func TestWriterReplacesExistingArtifact(t *testing.T) {
	root := t.TempDir()
	w := NewWriter(root)
	date := day(t, "2024-01-01")
	if err := w.Prepare(date); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	first := domain.NewSnapshot()
	first.Ensure("tools", domain.NewCollections).Set("top_free", []string{"old"})
	if _, err := w.Write(date, "kr", first); err != nil {
		t.Fatalf("Write: %v", err)
	}
	path, err := w.Write(date, "kr", domain.NewSnapshot())
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	raw, _ := os.ReadFile(path)
	if string(raw) != "{}" {
		t.Fatalf("expected full replacement, got %s", raw)
	}
	entries, _ := os.ReadDir(w.Dir(date))
	if len(entries) != 1 {
		t.Fatalf("expected a single file after rewrite, got %d", len(entries))
	}
}

func TestParseDateRejectsCalendarInvalid(t *testing.T) {
	if _, err := ParseDate("2024-13-40"); err == nil {
		t.Fatalf("expected error for month 13")
	}
	if _, err := ParseDate("2024-1-4"); err == nil {
		t.Fatalf("expected error for short form")
	}
	if _, err := ParseDate("2024-02-29"); err != nil {
		t.Fatalf("leap day rejected: %v", err)
	}
}

func TestRelevantFoldersAfterWatermark(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"2024-01-03", "2024-01-01", "2023-12-31", "notes", "2024-13-01"} {
		if err := os.Mkdir(filepath.Join(root, name), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
	}
	if err := os.WriteFile(filepath.Join(root, "2024-01-05"), []byte("file, not dir"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	all, err := RelevantFolders(root, nil)
	if err != nil {
		t.Fatalf("RelevantFolders: %v", err)
	}
	if len(all) != 3 || all[0].Name != "2023-12-31" || all[2].Name != "2024-01-03" {
		t.Fatalf("unexpected folders %+v", all)
	}

	wm := day(t, "2024-01-01")
	newer, err := RelevantFolders(root, &wm)
	if err != nil {
		t.Fatalf("RelevantFolders: %v", err)
	}
	if len(newer) != 1 || newer[0].Name != "2024-01-03" {
		t.Fatalf("expected only 2024-01-03 after watermark, got %+v", newer)
	}
}

func TestRelevantArtifactsFiltersByName(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"2024_01_01_kr.json": `{"tools":{"top_free":["a"]}}`,
		"2024_01_01_us.json": `{"tools":{"top_free":["b"]}}`,
		".tmp-123":           `{"tools":`,
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	kr, err := RelevantArtifacts(context.Background(), dir, "kr")
	if err != nil {
		t.Fatalf("RelevantArtifacts: %v", err)
	}
	if len(kr) != 1 || kr[0].Data["tools"]["top_free"][0] != "a" {
		t.Fatalf("unexpected kr artifacts %+v", kr)
	}

	all, err := RelevantArtifacts(context.Background(), dir, "")
	if err != nil {
		t.Fatalf("RelevantArtifacts: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 artifacts, got %d", len(all))
	}
}

func TestRelevantArtifactsFailsOnMalformedFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "2024_01_01_kr.json"), []byte(`[1,2]`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := RelevantArtifacts(context.Background(), dir, ""); err == nil {
		t.Fatalf("expected decode error")
	}
}
