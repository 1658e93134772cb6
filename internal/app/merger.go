package app

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/samvad-hq/rank-harvester/internal/config"
	"github.com/samvad-hq/rank-harvester/internal/logger"
	"github.com/samvad-hq/rank-harvester/internal/merge"
	"github.com/samvad-hq/rank-harvester/internal/metrics"
	"github.com/samvad-hq/rank-harvester/pkg/publishers"
)

// Merger is the merge phase runtime. It folds new snapshot folders into the
// global target and then the region target.
type Merger struct {
	cfg     *config.Config
	engine  *merge.Engine
	targets []merge.Target
	fanout  *publishers.Fanout
	metrics *metrics.Metrics
	log     logger.Logger
}

// Targets returns the merge targets described by cfg, global first.
func Targets(cfg *config.Config) []merge.Target {
	return []merge.Target{
		{Name: "global", StatePath: filepath.Join(cfg.MergeDir, cfg.MergedGlobalFile)},
		{Name: cfg.MergedRegionFilter, StatePath: filepath.Join(cfg.MergeDir, cfg.MergedRegionFile), Filter: cfg.MergedRegionFilter},
	}
}

// NewMerger builds the merge runtime.
func NewMerger(ctx context.Context, cfg *config.Config, log logger.Logger) (*Merger, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	log = logger.Ensure(log)
	if ctx == nil {
		ctx = context.Background()
	}

	fanout, err := buildFanout(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	m := metrics.New()

	return &Merger{
		cfg:     cfg,
		engine:  merge.NewEngine(cfg.SnapshotRoot, fanout, m, log),
		targets: Targets(cfg),
		fanout:  fanout,
		metrics: m,
		log:     log,
	}, nil
}

// Run merges every target once.
func (m *Merger) Run(ctx context.Context) error {
	if m == nil || m.engine == nil {
		return fmt.Errorf("merger is not initialized")
	}
	defer closeFanout(m.fanout, m.log)

	start := time.Now()
	results, err := m.engine.MergeAll(ctx, m.targets)
	m.log.InfoObj("merge phase completed", "merge_meta", map[string]any{
		"targets":    len(m.targets),
		"succeeded":  len(results),
		"elapsed_ms": time.Since(start).Milliseconds(),
	})

	writeTextfile(m.metrics, m.cfg.MetricsTextfile, m.log)
	return err
}
