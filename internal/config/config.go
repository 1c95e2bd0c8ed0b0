// Package config loads the migration engine's configuration from an optional
// YAML file with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/leoyy0316/incubator-paimon/internal/audit"
	"github.com/leoyy0316/incubator-paimon/internal/logging"
	"github.com/leoyy0316/incubator-paimon/internal/metrics"
)

type Config struct {
	Source    TableRef        `yaml:"source"`
	Target    TableRef        `yaml:"target"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	Warehouse WarehouseConfig `yaml:"warehouse"`
	Migration MigrationConfig `yaml:"migration"`
	Logging   logging.Config  `yaml:"logging"`
	Metrics   metrics.Config  `yaml:"metrics"`
	Audit     audit.Config    `yaml:"audit"`
}

// TableRef names a table inside a database.
type TableRef struct {
	Database string `yaml:"database"`
	Table    string `yaml:"table"`
}

type CatalogConfig struct {
	// Backend is "postgres" or "memory".
	Backend     string `yaml:"backend"`
	PostgresDSN string `yaml:"postgres_dsn"`
}

type WarehouseConfig struct {
	// Backend is "local" or "blob".
	Backend string `yaml:"backend"`
	Root    string `yaml:"root"`
	// BucketURL is a gocloud.dev URL, e.g. "s3://lake" or "file:///data".
	BucketURL string `yaml:"bucket_url"`
}

type MigrationConfig struct {
	Workers      int               `yaml:"workers"`
	KeepSource   bool              `yaml:"keep_source"`
	TableOptions map[string]string `yaml:"table_options"`
}

// Load reads the YAML file at path (skipped if empty), then applies
// environment overrides, then validates.
func Load(path string) (Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// MustLoad is Load for main: it exits the process on error.
func MustLoad(path string) Config {
	cfg, err := Load(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	return cfg
}

func defaults() Config {
	return Config{
		Catalog:   CatalogConfig{Backend: "postgres"},
		Warehouse: WarehouseConfig{Backend: "local"},
		Migration: MigrationConfig{Workers: 4},
		Logging:   logging.Config{Format: "json", Level: "info"},
		Metrics:   metrics.Config{Address: ":9090"},
	}
}

func applyEnv(cfg *Config) {
	cfg.Source.Database = getenvDefault("SOURCE_DATABASE", cfg.Source.Database)
	cfg.Source.Table = getenvDefault("SOURCE_TABLE", cfg.Source.Table)
	cfg.Target.Database = getenvDefault("TARGET_DATABASE", cfg.Target.Database)
	cfg.Target.Table = getenvDefault("TARGET_TABLE", cfg.Target.Table)

	cfg.Catalog.Backend = getenvDefault("CATALOG_BACKEND", cfg.Catalog.Backend)
	cfg.Catalog.PostgresDSN = getenvDefault("CATALOG_DSN", cfg.Catalog.PostgresDSN)

	cfg.Warehouse.Backend = getenvDefault("WAREHOUSE_BACKEND", cfg.Warehouse.Backend)
	cfg.Warehouse.Root = getenvDefault("WAREHOUSE_ROOT", cfg.Warehouse.Root)
	cfg.Warehouse.BucketURL = getenvDefault("WAREHOUSE_BUCKET_URL", cfg.Warehouse.BucketURL)

	if v := os.Getenv("MIGRATION_WORKERS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Migration.Workers = parsed
		}
	}
	if v := os.Getenv("KEEP_SOURCE"); v != "" {
		cfg.Migration.KeepSource = v == "true"
	}

	cfg.Logging.Format = getenvDefault("LOG_FORMAT", cfg.Logging.Format)
	cfg.Logging.Level = getenvDefault("LOG_LEVEL", cfg.Logging.Level)

	if v := os.Getenv("METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = v == "true"
	}
	cfg.Metrics.Address = getenvDefault("METRICS_ADDRESS", cfg.Metrics.Address)

	if v := os.Getenv("AUDIT_ENABLED"); v != "" {
		cfg.Audit.Enabled = v == "true"
	}
	cfg.Audit.Endpoint = getenvDefault("AUDIT_ENDPOINT", cfg.Audit.Endpoint)
	cfg.Audit.Dir = getenvDefault("AUDIT_DIR", cfg.Audit.Dir)
}

func validate(cfg *Config) error {
	if cfg.Source.Database == "" || cfg.Source.Table == "" {
		return fmt.Errorf("source table is required")
	}
	if cfg.Target.Database == "" || cfg.Target.Table == "" {
		return fmt.Errorf("target table is required")
	}
	switch cfg.Catalog.Backend {
	case "postgres":
		if cfg.Catalog.PostgresDSN == "" {
			return fmt.Errorf("catalog.postgres_dsn is required for the postgres backend")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown catalog backend %q", cfg.Catalog.Backend)
	}
	switch cfg.Warehouse.Backend {
	case "local":
		if cfg.Warehouse.Root == "" {
			return fmt.Errorf("warehouse.root is required for the local backend")
		}
	case "blob":
		if cfg.Warehouse.BucketURL == "" {
			return fmt.Errorf("warehouse.bucket_url is required for the blob backend")
		}
	default:
		return fmt.Errorf("unknown warehouse backend %q", cfg.Warehouse.Backend)
	}
	if cfg.Migration.Workers < 1 {
		return fmt.Errorf("migration.workers must be at least 1")
	}
	return nil
}

func getenvDefault(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}
