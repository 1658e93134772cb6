package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/samvad-hq/rank-harvester/internal/domain"
)

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// maxParallelReads bounds concurrent artifact reads within one folder.
const maxParallelReads = 16

// Folder is a dated snapshot directory.
type Folder struct {
	Name string
	Path string
	Date time.Time
}

// Artifact is one parsed snapshot file.
type Artifact struct {
	Path string
	Data map[string]map[string][]string
}

// ParseDate parses a YYYY-MM-DD string. It rejects strings that match the
// shape but are not calendar dates (2024-13-40).
func ParseDate(s string) (time.Time, error) {
	if !datePattern.MatchString(s) {
		return time.Time{}, fmt.Errorf("%q is not a YYYY-MM-DD date", s)
	}
	t, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%q is not a calendar date: %w", s, err)
	}
	return t, nil
}

// RelevantFolders lists the date-named directories under root strictly after
// watermark, oldest first. A nil watermark selects every dated directory.
func RelevantFolders(root string, watermark *time.Time) ([]Folder, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("list snapshot root %s: %w", root, err)
	}

	var folders []Folder
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		date, err := ParseDate(e.Name())
		if err != nil {
			continue
		}
		if watermark != nil && !date.After(*watermark) {
			continue
		}
		folders = append(folders, Folder{
			Name: e.Name(),
			Path: filepath.Join(root, e.Name()),
			Date: date,
		})
	}
	sort.Slice(folders, func(i, j int) bool { return folders[i].Date.Before(folders[j].Date) })
	return folders, nil
}

// RelevantArtifacts parses every regular, non-hidden file in dir whose name
// contains filter (every such file when filter is empty). Any unreadable or
// malformed file fails the whole call.
func RelevantArtifacts(ctx context.Context, dir, filter string) ([]Artifact, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list snapshot folder %s: %w", dir, err)
	}

	var paths []string
	for _, e := range entries {
		// dot files are in-flight temp files from WriteFileAtomic
		if !e.Type().IsRegular() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if filter != "" && !strings.Contains(e.Name(), filter) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}

	artifacts := make([]Artifact, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelReads)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			art, err := ReadArtifact(path)
			if err != nil {
				return err
			}
			artifacts[i] = art
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return artifacts, nil
}

// ReadArtifact parses the snapshot file at path.
func ReadArtifact(path string) (Artifact, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Artifact{}, fmt.Errorf("read snapshot %s: %w", path, err)
	}
	var data map[string]map[string][]string
	if err := json.Unmarshal(raw, &data); err != nil {
		return Artifact{}, fmt.Errorf("decode snapshot %s: %w", path, err)
	}
	if data == nil {
		data = map[string]map[string][]string{}
	}
	return Artifact{Path: path, Data: data}, nil
}
