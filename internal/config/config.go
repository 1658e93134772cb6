package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName        string `mapstructure:"app_name"`
	Env            string `mapstructure:"app_env"`
	LogLevel       string `mapstructure:"log_level"`
	CatalogFile    string `mapstructure:"catalog_file"`
	PublishersFile string `mapstructure:"publishers_file"`

	SnapshotRoot       string `mapstructure:"snapshot_root"`
	MergeDir           string `mapstructure:"merge_dir"`
	MergedGlobalFile   string `mapstructure:"merged_global_file"`
	MergedRegionFile   string `mapstructure:"merged_region_file"`
	MergedRegionFilter string `mapstructure:"merged_region_filter"`

	ConcurrencyMultiplier int           `mapstructure:"concurrency_multiplier"`
	FetchTimeoutSeconds   int64         `mapstructure:"fetch_timeout_seconds"`
	FetchTimeout          time.Duration `mapstructure:"-"`

	StorageType            string        `mapstructure:"storage_type"`
	BBoltPath              string        `mapstructure:"bbolt_path"`
	StorageTTLSeconds      int64         `mapstructure:"storage_ttl_seconds"`
	StorageCleanupSeconds  int64         `mapstructure:"storage_cleanup_interval_seconds"`
	StorageTTL             time.Duration `mapstructure:"-"`
	StorageCleanupInterval time.Duration `mapstructure:"-"`
	RedisAddr              string        `mapstructure:"redis_addr"`
	RedisPassword          string        `mapstructure:"redis_password"`
	RedisDB                int           `mapstructure:"redis_db"`

	MetricsTextfile string `mapstructure:"metrics_textfile"`
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("app_name", "rank-harvester")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("catalog_file", "./configs/catalog.yaml")
	v.SetDefault("publishers_file", "")
	v.SetDefault("snapshot_root", ".")
	v.SetDefault("merge_dir", ".")
	v.SetDefault("merged_global_file", "merged_global.json")
	v.SetDefault("merged_region_file", "merged_kr.json")
	v.SetDefault("merged_region_filter", "kr")
	v.SetDefault("concurrency_multiplier", 4)
	v.SetDefault("fetch_timeout_seconds", 30)
	v.SetDefault("storage_type", "bbolt")
	v.SetDefault("bbolt_path", "./data/outcomes.db")
	v.SetDefault("storage_ttl_seconds", int64((14*24*time.Hour)/time.Second))
	v.SetDefault("storage_cleanup_interval_seconds", int64((12*time.Hour)/time.Second))
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("metrics_textfile", "")

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) normalize() error {
	cfg.SnapshotRoot = strings.TrimSpace(cfg.SnapshotRoot)
	if cfg.SnapshotRoot == "" {
		cfg.SnapshotRoot = "."
	}
	cfg.MergeDir = strings.TrimSpace(cfg.MergeDir)
	if cfg.MergeDir == "" {
		cfg.MergeDir = "."
	}
	if strings.TrimSpace(cfg.MergedGlobalFile) == "" || strings.TrimSpace(cfg.MergedRegionFile) == "" {
		return fmt.Errorf("merged_global_file and merged_region_file must be set")
	}

	if cfg.ConcurrencyMultiplier <= 0 {
		return fmt.Errorf("invalid concurrency_multiplier (must be positive)")
	}
	if cfg.FetchTimeoutSeconds <= 0 {
		return fmt.Errorf("invalid fetch_timeout_seconds (must be positive seconds)")
	}
	cfg.FetchTimeout = time.Duration(cfg.FetchTimeoutSeconds) * time.Second

	if cfg.StorageTTLSeconds <= 0 {
		return fmt.Errorf("invalid storage_ttl_seconds (must be positive seconds)")
	}
	if cfg.StorageCleanupSeconds <= 0 {
		return fmt.Errorf("invalid storage_cleanup_interval_seconds (must be positive seconds)")
	}
	cfg.StorageTTL = time.Duration(cfg.StorageTTLSeconds) * time.Second
	cfg.StorageCleanupInterval = time.Duration(cfg.StorageCleanupSeconds) * time.Second

	return nil
}
