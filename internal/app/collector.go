package app

import (
	"context"
	"fmt"
	"time"

	"github.com/samvad-hq/rank-harvester/internal/collector"
	"github.com/samvad-hq/rank-harvester/internal/config"
	"github.com/samvad-hq/rank-harvester/internal/limiter"
	"github.com/samvad-hq/rank-harvester/internal/logger"
	"github.com/samvad-hq/rank-harvester/internal/metrics"
	"github.com/samvad-hq/rank-harvester/internal/snapshot"
	"github.com/samvad-hq/rank-harvester/internal/storage"
	"github.com/samvad-hq/rank-harvester/pkg/publishers"
	"github.com/samvad-hq/rank-harvester/pkg/rankings"
)

// Collector is the collect phase runtime: one snapshot per country for the
// current UTC date.
type Collector struct {
	cfg       *config.Config
	catalog   *rankings.Catalog
	collector *collector.Collector
	fanout    *publishers.Fanout
	store     storage.Store
	metrics   *metrics.Metrics
	log       logger.Logger
	now       func() time.Time
}

// NewCollector builds the collect runtime from config files.
func NewCollector(ctx context.Context, cfg *config.Config, log logger.Logger) (*Collector, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	log = logger.Ensure(log)
	if ctx == nil {
		ctx = context.Background()
	}

	catalog, err := rankings.LoadCatalog(cfg.CatalogFile)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	log.InfoObj("catalog loaded", "catalog_meta", map[string]any{
		"source_type": catalog.Source.Type,
		"categories":  len(catalog.Categories),
		"collections": len(catalog.Collections),
		"countries":   len(catalog.Countries),
	})

	fanout, err := buildFanout(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storage.Options{
		OutcomeTTL:      cfg.StorageTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
		Redis: storage.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		},
	})
	if err != nil {
		closeFanout(fanout, log)
		return nil, fmt.Errorf("init storage: %w", err)
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"path":                     cfg.BBoltPath,
		"outcome_ttl_seconds":      int(cfg.StorageTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
	})

	gate := limiter.FromParallelism(cfg.ConcurrencyMultiplier)
	m := metrics.New()
	listers := rankings.DefaultListerRegistry(rankings.DefaultHTTPClient(cfg.FetchTimeout))

	c, err := collector.New(collector.Options{
		Fetcher:     collector.NewRankFetcher(catalog.Source, listers, log),
		Limiter:     gate,
		Writer:      snapshot.NewWriter(cfg.SnapshotRoot),
		Categories:  catalog.Categories,
		Collections: catalog.Collections,
		Recorder:    store,
		Publisher:   fanout,
		Metrics:     m,
		Log:         log,
	})
	if err != nil {
		store.Close()
		closeFanout(fanout, log)
		return nil, err
	}

	return &Collector{
		cfg:       cfg,
		catalog:   catalog,
		collector: c,
		fanout:    fanout,
		store:     store,
		metrics:   m,
		log:       log,
		now:       time.Now,
	}, nil
}

// Run performs one collect pass over every catalog country.
func (c *Collector) Run(ctx context.Context) error {
	if c == nil || c.collector == nil {
		return fmt.Errorf("collector is not initialized")
	}
	defer c.close()

	date := c.now().UTC()
	start := time.Now()
	c.log.InfoObj("collect started", "collect_meta", map[string]any{
		"date":       date.Format("2006-01-02"),
		"countries":  len(c.catalog.Countries),
		"publishers": c.fanout.Size(),
	})

	report, runErr := c.collector.Run(ctx, date, c.catalog.Countries)
	c.log.InfoObj("collect completed", "collect_meta", map[string]any{
		"date":       report.Date,
		"lists":      report.Lists,
		"failed":     report.Failed,
		"elapsed_ms": time.Since(start).Milliseconds(),
	})

	if summary, err := c.store.Summary(report.Date); err != nil {
		c.log.WarnObj("outcome summary failed", "storage_error", err.Error())
	} else {
		c.log.InfoObj("fetch outcome summary", "outcome_summary", summary)
	}

	writeTextfile(c.metrics, c.cfg.MetricsTextfile, c.log)
	return runErr
}

func (c *Collector) close() {
	closeFanout(c.fanout, c.log)
	if err := c.store.Close(); err != nil {
		c.log.ErrorObj("storage close failed", "error", err.Error())
	}
}

func writeTextfile(m *metrics.Metrics, path string, log logger.Logger) {
	if path == "" {
		return
	}
	if err := m.WriteTextfile(path); err != nil {
		log.WarnObj("metrics textfile write failed", "metrics_error", map[string]any{
			"path":  path,
			"error": err.Error(),
		})
	}
}
