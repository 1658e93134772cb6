package rankings

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadCatalogYAML(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "catalog.yaml")
	content := `
source:
  type: JSON
  list_url: https://ranks.example/list?gl={country}&cat={category}&col={collection}&num={num}
  max_count: 900
  config:
    user_agent: rank-harvester
categories: [game_action, tools, " tools "]
collections: [top_free]
countries: [kr, us]
`
	if err := os.WriteFile(file, []byte(content), 0o644); err != nil {
		t.Fatalf("write catalog file: %v", err)
	}

	cat, err := LoadCatalog(file)
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	if cat.Source.Type != SourceTypeJSON {
		t.Fatalf("Source.Type = %q", cat.Source.Type)
	}
	if cat.Source.MaxCount != MaxFetchCount {
		t.Fatalf("MaxCount = %d want %d", cat.Source.MaxCount, MaxFetchCount)
	}
	if len(cat.Categories) != 2 || cat.Categories[0] != "GAME_ACTION" || cat.Categories[1] != "TOOLS" {
		t.Fatalf("Categories = %v", cat.Categories)
	}
	if len(cat.Countries) != 2 || cat.Countries[0] != "KR" {
		t.Fatalf("Countries = %v", cat.Countries)
	}
	if ConfigString(cat.Source, ConfigUserAgentKey, "") != "rank-harvester" {
		t.Fatalf("user agent not loaded")
	}
}

func TestLoadCatalogFillsDefaults(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "catalog.json")
	content := `{"source": {"type": "html", "list_url": "https://ranks.example/{country}"}}`
	if err := os.WriteFile(file, []byte(content), 0o644); err != nil {
		t.Fatalf("write catalog file: %v", err)
	}

	cat, err := LoadCatalog(file)
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	if len(cat.Categories) != len(DefaultCategories()) {
		t.Fatalf("expected default categories, got %d", len(cat.Categories))
	}
	if len(cat.Collections) != 3 || cat.Collections[0] != "TOP_FREE" {
		t.Fatalf("Collections = %v", cat.Collections)
	}
	if len(cat.Countries) != len(Countries()) {
		t.Fatalf("expected all country codes, got %d", len(cat.Countries))
	}
}

func TestLoadCatalogRequiresListURL(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "catalog.yaml")
	if err := os.WriteFile(file, []byte("source:\n  type: json\n"), 0o644); err != nil {
		t.Fatalf("write catalog file: %v", err)
	}
	if _, err := LoadCatalog(file); err == nil {
		t.Fatalf("expected error for missing list_url")
	}
}

func TestLoadCatalogRejectsBadCountry(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "catalog.yaml")
	content := "source:\n  type: json\n  list_url: https://x\ncountries: [kor]\n"
	if err := os.WriteFile(file, []byte(content), 0o644); err != nil {
		t.Fatalf("write catalog file: %v", err)
	}
	if _, err := LoadCatalog(file); err == nil {
		t.Fatalf("expected error for three-letter country code")
	}
}

func TestCountriesAreTwoLetterAndUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, c := range Countries() {
		if len(c) != 2 {
			t.Fatalf("bad code %q", c)
		}
		if seen[c] {
			t.Fatalf("duplicate code %q", c)
		}
		seen[c] = true
	}
	if !seen["KR"] || !seen["US"] {
		t.Fatalf("expected KR and US in country list")
	}
}
