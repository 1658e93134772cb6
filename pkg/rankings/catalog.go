// Package rankings describes the ranked-listing source: which categories and
// collections exist, which countries to ask for, and how to fetch one list.
package rankings

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// MaxFetchCount is the most identifiers requested for a single list.
const MaxFetchCount = 500

// Source describes how ranked lists are requested.
type Source struct {
	Type     string         `json:"type" yaml:"type"`
	ListURL  string         `json:"list_url" yaml:"list_url"`
	MaxCount int            `json:"max_count" yaml:"max_count"`
	Config   map[string]any `json:"config" yaml:"config"`
}

// Catalog holds the fixed enumerations of the ranking source plus the set of
// countries to collect.
type Catalog struct {
	Source      Source   `json:"source" yaml:"source"`
	Categories  []string `json:"categories" yaml:"categories"`
	Collections []string `json:"collections" yaml:"collections"`
	Countries   []string `json:"countries" yaml:"countries"`
}

// LoadCatalog loads the catalog from a YAML or JSON file. Enumerations left
// empty fall back to the built-in defaults.
func LoadCatalog(path string) (*Catalog, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("catalog file path is empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog file: %w", err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}

	cat, err := parseCatalog(raw, filepath.Ext(path))
	if err != nil {
		return nil, err
	}

	cat = sanitizeCatalog(cat)
	if err := validateCatalog(cat); err != nil {
		return nil, err
	}
	return &cat, nil
}

type unmarshalFn func([]byte, any) error

func parseCatalog(data []byte, ext string) (Catalog, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))

	decoders := []struct {
		name string
		ext  string
		fn   unmarshalFn
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		var cat Catalog
		if err := d.fn(data, &cat); err == nil {
			return cat, nil
		}
	}

	return Catalog{}, errors.New("catalog file format not recognized (expected YAML or JSON)")
}

func sanitizeCatalog(c Catalog) Catalog {
	c.Source.Type = strings.ToLower(strings.TrimSpace(c.Source.Type))
	c.Source.ListURL = strings.TrimSpace(c.Source.ListURL)
	if c.Source.MaxCount <= 0 || c.Source.MaxCount > MaxFetchCount {
		c.Source.MaxCount = MaxFetchCount
	}
	if c.Source.Config == nil {
		c.Source.Config = map[string]any{}
	}

	c.Categories = cleanNames(c.Categories, strings.ToUpper)
	if len(c.Categories) == 0 {
		c.Categories = DefaultCategories()
	}
	c.Collections = cleanNames(c.Collections, strings.ToUpper)
	if len(c.Collections) == 0 {
		c.Collections = DefaultCollections()
	}
	c.Countries = cleanNames(c.Countries, strings.ToUpper)
	if len(c.Countries) == 0 {
		c.Countries = Countries()
	}
	return c
}

// cleanNames trims, normalizes case and drops blanks and duplicates while
// keeping the declared order.
func cleanNames(in []string, norm func(string) string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = norm(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func validateCatalog(c Catalog) error {
	if c.Source.Type == "" {
		return errors.New("source.type is required")
	}
	if c.Source.ListURL == "" {
		return errors.New("source.list_url is required")
	}
	for _, cc := range c.Countries {
		if len(cc) != 2 {
			return fmt.Errorf("country code %q is not a two-letter code", cc)
		}
	}
	return nil
}
