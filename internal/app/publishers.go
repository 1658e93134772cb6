package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/samvad-hq/rank-harvester/internal/config"
	"github.com/samvad-hq/rank-harvester/internal/logger"
	"github.com/samvad-hq/rank-harvester/pkg/publishers"
)

// buildFanout loads the configured publishers. An unset publishers file means
// the phase runs without notifications.
func buildFanout(ctx context.Context, cfg *config.Config, log logger.Logger) (*publishers.Fanout, error) {
	if strings.TrimSpace(cfg.PublishersFile) == "" {
		log.InfoObj("no publishers file configured", "publishers_meta", map[string]any{"count": 0})
		return publishers.NewFanout(nil), nil
	}

	publisherReg, err := publishers.LoadRegistry(cfg.PublishersFile)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}
	enabled := publisherReg.Enabled()

	pubClients, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabled, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}

	summaries := make([]map[string]any, 0, len(enabled))
	for _, pubCfg := range enabled {
		summaries = append(summaries, map[string]any{
			"id":    pubCfg.ID,
			"type":  pubCfg.Type,
			"kinds": pubCfg.Kinds,
		})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(summaries),
		"publishers": summaries,
	})
	return publishers.NewFanout(pubClients), nil
}

func closeFanout(f *publishers.Fanout, log logger.Logger) {
	if err := f.Close(); err != nil {
		log.ErrorObj("publisher close failed", "error", err.Error())
	}
}
