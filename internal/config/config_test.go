package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MergedGlobalFile != "merged_global.json" || cfg.MergedRegionFile != "merged_kr.json" {
		t.Fatalf("unexpected merge files %q %q", cfg.MergedGlobalFile, cfg.MergedRegionFile)
	}
	if cfg.MergedRegionFilter != "kr" {
		t.Fatalf("MergedRegionFilter = %q", cfg.MergedRegionFilter)
	}
	if cfg.ConcurrencyMultiplier != 4 {
		t.Fatalf("ConcurrencyMultiplier = %d", cfg.ConcurrencyMultiplier)
	}
	if cfg.FetchTimeout != 30*time.Second {
		t.Fatalf("FetchTimeout = %v", cfg.FetchTimeout)
	}
}

func TestLoadRejectsNonPositiveMultiplier(t *testing.T) {
	t.Setenv("CONCURRENCY_MULTIPLIER", "0")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for zero concurrency_multiplier")
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("SNAPSHOT_ROOT", "/tmp/snapshots")
	t.Setenv("MERGED_REGION_FILTER", "jp")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SnapshotRoot != "/tmp/snapshots" {
		t.Fatalf("SnapshotRoot = %q", cfg.SnapshotRoot)
	}
	if cfg.MergedRegionFilter != "jp" {
		t.Fatalf("MergedRegionFilter = %q", cfg.MergedRegionFilter)
	}
}
