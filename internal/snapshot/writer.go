// Package snapshot reads and writes dated per-country ranking artifacts.
//
// Layout under the root directory:
//
//	2024-01-03/
//	    2024_01_03_kr.json
//	    2024_01_03_us.json
//
// Each artifact is {category: {collection: [identifier, ...]}} with lowercase
// keys, indented by two spaces.
package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/samvad-hq/rank-harvester/internal/domain"
)

// Writer persists snapshots under a root directory.
type Writer struct {
	root string
}

// NewWriter returns a writer rooted at root ("." when empty).
func NewWriter(root string) *Writer {
	if strings.TrimSpace(root) == "" {
		root = "."
	}
	return &Writer{root: root}
}

// FolderName returns the directory name for date.
func FolderName(date time.Time) string {
	return domain.FormatDate(date)
}

// FileName returns the artifact name for date and country,
// e.g. 2024_01_03_kr.json.
func FileName(date time.Time, country string) string {
	day := strings.ReplaceAll(domain.FormatDate(date), "-", "_")
	return fmt.Sprintf("%s_%s.json", day, strings.ToLower(country))
}

// Dir returns the folder that holds the artifacts of date.
func (w *Writer) Dir(date time.Time) string {
	return filepath.Join(w.root, FolderName(date))
}

// Prepare creates the folder for date, including parents.
func (w *Writer) Prepare(date time.Time) error {
	if err := os.MkdirAll(w.Dir(date), 0o755); err != nil {
		return fmt.Errorf("create snapshot folder: %w", err)
	}
	return nil
}

// Write replaces the artifact of (date, country) with snap and returns its path.
func (w *Writer) Write(date time.Time, country string, snap *domain.Snapshot) (string, error) {
	if snap == nil {
		snap = domain.NewSnapshot()
	}
	payload, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}
	path := filepath.Join(w.Dir(date), FileName(date, country))
	if err := WriteFileAtomic(path, payload); err != nil {
		return "", err
	}
	return path, nil
}

// WriteFileAtomic writes data to a temp file next to path and renames it into
// place, so readers never observe a partial file.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename into %s: %w", path, err)
	}
	return nil
}
