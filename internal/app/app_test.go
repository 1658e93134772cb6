package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/samvad-hq/rank-harvester/internal/config"
)

func testConfig(t *testing.T, root string) *config.Config {
	t.Helper()
	return &config.Config{
		AppName:                "rank-harvester",
		Env:                    "test",
		CatalogFile:            filepath.Join(root, "catalog.yaml"),
		SnapshotRoot:           filepath.Join(root, "snapshots"),
		MergeDir:               root,
		MergedGlobalFile:       "merged_global.json",
		MergedRegionFile:       "merged_kr.json",
		MergedRegionFilter:     "kr",
		ConcurrencyMultiplier:  1,
		FetchTimeout:           2 * time.Second,
		StorageType:            "bbolt",
		BBoltPath:              filepath.Join(root, "data", "outcomes.db"),
		StorageTTL:             time.Hour,
		StorageCleanupInterval: time.Hour,
		MetricsTextfile:        filepath.Join(root, "rank_harvester.prom"),
	}
}

func TestCollectThenMerge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		country := r.URL.Query().Get("gl")
		switch r.URL.Query().Get("category") {
		case "FAMILY":
			_ = json.NewEncoder(w).Encode([]string{"com.family." + country})
		case "GAME_PUZZLE":
			_ = json.NewEncoder(w).Encode([]string{"com.puzzle." + country})
		default:
			http.Error(w, "unknown", http.StatusNotFound)
		}
	}))
	defer srv.Close()

	root := t.TempDir()
	cfg := testConfig(t, root)
	catalog := `
source:
  type: json
  list_url: ` + srv.URL + `/list?category={category}&collection={collection}&gl={country}&num={num}
categories: [FAMILY, GAME_PUZZLE, TOOLS]
collections: [TOP_FREE]
countries: [kr, us]
`
	if err := os.WriteFile(cfg.CatalogFile, []byte(catalog), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}

	ctx := context.Background()
	collector, err := NewCollector(ctx, cfg, nil)
	if err != nil {
		t.Fatalf("NewCollector: %v", err)
	}
	collector.now = func() time.Time { return time.Date(2024, 3, 2, 23, 0, 0, 0, time.UTC) }
	if err := collector.Run(ctx); err != nil {
		t.Fatalf("collector Run: %v", err)
	}

	artifact := filepath.Join(cfg.SnapshotRoot, "2024-03-02", "2024_03_02_kr.json")
	raw, err := os.ReadFile(artifact)
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	want := "{\n  \"family\": {\n    \"top_free\": [\n      \"com.family.kr\"\n    ]\n  },\n  \"game_puzzle\": {\n    \"top_free\": [\n      \"com.puzzle.kr\"\n    ]\n  }\n}"
	if string(raw) != want {
		t.Fatalf("unexpected artifact:\n%s", raw)
	}

	merger, err := NewMerger(ctx, cfg, nil)
	if err != nil {
		t.Fatalf("NewMerger: %v", err)
	}
	if err := merger.Run(ctx); err != nil {
		t.Fatalf("merger Run: %v", err)
	}

	global := readState(t, filepath.Join(root, "merged_global.json"))
	if global.UpdateDate == nil || *global.UpdateDate != "2024-03-02" {
		t.Fatalf("unexpected global watermark: %v", global.UpdateDate)
	}
	if strings.Join(global.PackageNames, ",") != "com.family.kr,com.family.us" {
		t.Fatalf("unexpected global identifiers: %v", global.PackageNames)
	}
	region := readState(t, filepath.Join(root, "merged_kr.json"))
	if strings.Join(region.PackageNames, ",") != "com.family.kr" {
		t.Fatalf("unexpected region identifiers: %v", region.PackageNames)
	}

	if _, err := os.Stat(cfg.MetricsTextfile); err != nil {
		t.Fatalf("expected metrics textfile: %v", err)
	}
}

type stateFile struct {
	UpdateDate   *string  `json:"update_date"`
	PackageNames []string `json:"package_names"`
}

func readState(t *testing.T, path string) stateFile {
	t.Helper()
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read state: %v", err)
	}
	var st stateFile
	if err := json.Unmarshal(raw, &st); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	return st
}

func TestTargetsRunGlobalFirst(t *testing.T) {
	cfg := testConfig(t, "/srv/rank")
	targets := Targets(cfg)
	if len(targets) != 2 {
		t.Fatalf("expected 2 targets, got %d", len(targets))
	}
	if targets[0].Name != "global" || targets[0].Filter != "" {
		t.Fatalf("unexpected first target: %+v", targets[0])
	}
	if targets[1].Filter != "kr" || targets[1].StatePath != filepath.Join("/srv/rank", "merged_kr.json") {
		t.Fatalf("unexpected region target: %+v", targets[1])
	}
}

func TestNewCollectorRejectsMissingCatalog(t *testing.T) {
	cfg := testConfig(t, t.TempDir())
	if _, err := NewCollector(context.Background(), cfg, nil); err == nil {
		t.Fatalf("expected error for missing catalog file")
	}
}
