package merge

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/samvad-hq/rank-harvester/internal/domain"
	"github.com/samvad-hq/rank-harvester/internal/logger"
	"github.com/samvad-hq/rank-harvester/internal/metrics"
	"github.com/samvad-hq/rank-harvester/internal/snapshot"
	"github.com/samvad-hq/rank-harvester/pkg/publishers"
)

const (
	// ExtractedCollection is the ranking folded into the merged set.
	ExtractedCollection = "top_free"

	excludedCategory     = "application"
	excludedCategoryMark = "game"

	maxParallelFolders = 8
)

// Target is one merged output: a state file plus an optional artifact name
// filter (e.g. "kr" for the region set).
type Target struct {
	Name      string
	StatePath string
	Filter    string
}

// Result describes one completed merge.
type Result struct {
	Target      string     `json:"target"`
	Folders     int        `json:"folders"`
	Artifacts   int        `json:"artifacts"`
	Added       int        `json:"added"`
	Total       int        `json:"total"`
	Watermark   *time.Time `json:"watermark"`
	WatermarkUp bool       `json:"watermark_advanced"`
}

// EventPublisher publishes merge notifications downstream.
type EventPublisher interface {
	Publish(ctx context.Context, evt publishers.Event) (int, error)
}

// Engine folds dated snapshot folders into merge targets.
type Engine struct {
	root      string
	publisher EventPublisher
	metrics   *metrics.Metrics
	log       logger.Logger
}

// NewEngine returns an engine reading snapshot folders under root.
// publisher and m may be nil.
func NewEngine(root string, publisher EventPublisher, m *metrics.Metrics, log logger.Logger) *Engine {
	if strings.TrimSpace(root) == "" {
		root = "."
	}
	return &Engine{root: root, publisher: publisher, metrics: m, log: logger.Ensure(log)}
}

// Excluded reports whether a category never contributes identifiers.
func Excluded(category string) bool {
	return category == excludedCategory || strings.Contains(category, excludedCategoryMark)
}

// Merge folds every snapshot folder newer than the target's watermark into its
// state. With no newer folders the identifiers are rewritten unchanged and the
// watermark stays where it was.
func (e *Engine) Merge(ctx context.Context, t Target) (Result, error) {
	res, err := e.merge(ctx, t)
	e.metrics.ObserveMerge(t.Name, err, res.Total, res.Watermark)
	if err != nil {
		e.log.ErrorObj("merge failed", "merge_error", map[string]any{
			"target": t.Name,
			"state":  t.StatePath,
			"error":  err.Error(),
		})
		return res, err
	}
	e.log.InfoObj("merge completed", "merge_result", res)

	if e.publisher != nil {
		date := ""
		if res.Watermark != nil {
			date = domain.FormatDate(*res.Watermark)
		}
		evt := publishers.NewMergeEvent(date, t.Name, t.StatePath, res.Total, res.Added)
		if _, err := e.publisher.Publish(ctx, evt); err != nil {
			e.log.WarnObj("merge event publish failed", "publish_error", map[string]any{
				"target": t.Name,
				"error":  err.Error(),
			})
		}
	}
	return res, nil
}

func (e *Engine) merge(ctx context.Context, t Target) (Result, error) {
	res := Result{Target: t.Name}

	prev, err := LoadState(t.StatePath)
	if err != nil {
		return res, fmt.Errorf("load state for %s: %w", t.Name, err)
	}
	res.Watermark = prev.Watermark

	folders, err := snapshot.RelevantFolders(e.root, prev.Watermark)
	if err != nil {
		return res, fmt.Errorf("scan folders for %s: %w", t.Name, err)
	}
	res.Folders = len(folders)
	e.log.DebugObj("relevant folders", "merge_scan", map[string]any{
		"target":  t.Name,
		"folders": len(folders),
	})

	perFolder := make([][]snapshot.Artifact, len(folders))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelFolders)
	for i, f := range folders {
		g.Go(func() error {
			arts, err := snapshot.RelevantArtifacts(gctx, f.Path, t.Filter)
			if err != nil {
				return err
			}
			perFolder[i] = arts
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return res, fmt.Errorf("read artifacts for %s: %w", t.Name, err)
	}

	var extracted []string
	for _, arts := range perFolder {
		res.Artifacts += len(arts)
		for _, a := range arts {
			extracted = append(extracted, Extract(a.Data)...)
		}
	}

	before := uniqueSorted(prev.Identifiers)
	merged := uniqueSorted(append(append([]string(nil), prev.Identifiers...), extracted...))
	res.Added = len(merged) - len(before)
	res.Total = len(merged)

	next := State{Watermark: prev.Watermark, Identifiers: merged}
	if latest := latestDate(folders); latest != nil {
		if next.Watermark == nil || latest.After(*next.Watermark) {
			next.Watermark = latest
			res.WatermarkUp = true
		}
	}
	res.Watermark = next.Watermark

	if err := ctx.Err(); err != nil {
		return res, err
	}
	if err := SaveState(t.StatePath, next); err != nil {
		return res, err
	}
	return res, nil
}

// Extract returns the top_free identifiers of every category in data that is
// not excluded. A category without that ranking contributes nothing.
func Extract(data map[string]map[string][]string) []string {
	var out []string
	for category, cols := range data {
		if Excluded(category) {
			continue
		}
		out = append(out, cols[ExtractedCollection]...)
	}
	return out
}

// latestDate returns the newest folder date, or nil for no folders.
func latestDate(folders []snapshot.Folder) *time.Time {
	var latest *time.Time
	for i := range folders {
		d := folders[i].Date
		if latest == nil || d.After(*latest) {
			latest = &d
		}
	}
	return latest
}

// MergeAll merges every target in order. A failing target does not stop the
// ones after it; every failure is returned together.
func (e *Engine) MergeAll(ctx context.Context, targets []Target) ([]Result, error) {
	results := make([]Result, 0, len(targets))
	var errs []error
	for _, t := range targets {
		res, err := e.Merge(ctx, t)
		if err != nil {
			errs = append(errs, fmt.Errorf("target %s: %w", t.Name, err))
			continue
		}
		results = append(results, res)
	}
	return results, errors.Join(errs...)
}
