// Copyright 2025 Veda Platform, Inc.

package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config represents the application configuration
type Config struct {
	Server  ServerConfig  `koanf:"server"`
	Storage StorageConfig `koanf:"storage"`
	Engine  EngineConfig  `koanf:"engine"`
	Stats   StatsConfig   `koanf:"stats"`
	Audit   AuditConfig   `koanf:"audit"`
	Health  HealthConfig  `koanf:"health"`
	Logging LoggingConfig `koanf:"logging"`
	Metrics MetricsConfig `koanf:"metrics"`
}

// ServerConfig holds a process-level listener address. It is defaulted and
// validated, but no server reads it: the health and metrics servers use the
// Host/Port of HealthConfig and MetricsConfig.
type ServerConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`
}

// StorageConfig selects and configures the embedded key-value backend the
// engine reads permission, membership, and filter records from.
type StorageConfig struct {
	// Backend is "bbolt" (default) or "bolt" for the legacy adapter.
	Backend string `koanf:"backend"`
	// Path is the data file the backend opens.
	Path string `koanf:"path"`
	// CacheSize is the number of entries the read-through LRU cache holds.
	// Zero disables caching.
	CacheSize int `koanf:"cache.size"`
}

// EngineConfig configures one authorization Context: which namespaces it
// reads and how it treats negative permissions and read-counter rotation.
type EngineConfig struct {
	EnableNegative   bool   `koanf:"enable.negative"`
	MaxReadCounter   uint64 `koanf:"max.read.counter"`
	NamespacePerm    string `koanf:"namespace.permission"`
	NamespaceMember  string `koanf:"namespace.membership"`
	NamespaceFilter  string `koanf:"namespace.filter"`
	NamespaceNeg     string `koanf:"namespace.negative"`
}

// StatsConfig configures the best-effort statistics sidecar.
type StatsConfig struct {
	// Mode is "full", "minimal", or "off"/"none".
	Mode       string `koanf:"mode"`
	NatsURL    string `koanf:"nats.url"`
	NatsSubject string `koanf:"nats.subject"`
}

// AuditConfig holds audit logger configuration
type AuditConfig struct {
	Enabled          bool   `koanf:"enabled"`
	OutputPath       string `koanf:"output.path"`
	MaxFileSize      int64  `koanf:"max.file.size"`
	MaxBackups       int    `koanf:"max.backups"`
	MaxAge           int    `koanf:"max.age"`
	Compress         bool   `koanf:"compress"`
	BufferSize       int    `koanf:"buffer.size"`
	FlushIntervalMs  int    `koanf:"flush.interval.ms"`
	StoreEnabled     bool   `koanf:"store.enabled"`
	StoreRetentionMs int64  `koanf:"store.retention.ms"`
}

// HealthConfig holds health check server configuration
type HealthConfig struct {
	Enabled bool   `koanf:"enabled"`
	Host    string `koanf:"host"`
	Port    int    `koanf:"port"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Host    string `koanf:"host"`
	Port    int    `koanf:"port"`
	Path    string `koanf:"path"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
		slog.Info("loaded config from file", "path", configPath)
	}

	if err := k.Load(env.Provider("AZ_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(
			strings.TrimPrefix(s, "AZ_")), "_", ".", -1)
	}), nil); err != nil {
		return nil, fmt.Errorf("load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8901
	}

	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = "bbolt"
	}
	if cfg.Storage.Path == "" {
		cfg.Storage.Path = "/var/lib/az/az.db"
	}

	if cfg.Engine.NamespacePerm == "" {
		cfg.Engine.NamespacePerm = "P"
	}
	if cfg.Engine.NamespaceMember == "" {
		cfg.Engine.NamespaceMember = "M"
	}
	if cfg.Engine.NamespaceFilter == "" {
		cfg.Engine.NamespaceFilter = "F"
	}
	if cfg.Engine.NamespaceNeg == "" {
		cfg.Engine.NamespaceNeg = "PN"
	}

	if cfg.Stats.Mode == "" {
		cfg.Stats.Mode = "full"
	}
	if cfg.Stats.NatsSubject == "" {
		cfg.Stats.NatsSubject = "az.stats"
	}

	if cfg.Audit.OutputPath == "" {
		cfg.Audit.OutputPath = "/var/log/az/audit.log"
	}
	if cfg.Audit.MaxFileSize == 0 {
		cfg.Audit.MaxFileSize = 100 * 1024 * 1024 // 100MB
	}
	if cfg.Audit.MaxBackups == 0 {
		cfg.Audit.MaxBackups = 10
	}
	if cfg.Audit.MaxAge == 0 {
		cfg.Audit.MaxAge = 30 // 30 days
	}
	if cfg.Audit.BufferSize == 0 {
		cfg.Audit.BufferSize = 1000
	}
	if cfg.Audit.FlushIntervalMs == 0 {
		cfg.Audit.FlushIntervalMs = 1000
	}
	if cfg.Audit.StoreRetentionMs == 0 {
		cfg.Audit.StoreRetentionMs = 7 * 24 * 60 * 60 * 1000 // 7 days
	}

	if cfg.Health.Host == "" {
		cfg.Health.Host = "0.0.0.0"
	}
	if cfg.Health.Port == 0 {
		cfg.Health.Port = 8902
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
	if cfg.Metrics.Port == 0 {
		cfg.Metrics.Port = 9090
	}
}

func validate(cfg *Config) error {
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", cfg.Server.Port)
	}

	validBackends := map[string]bool{"bbolt": true, "bolt": true}
	if cfg.Storage.Backend != "" && !validBackends[cfg.Storage.Backend] {
		return fmt.Errorf("invalid storage backend: %s (must be bbolt or bolt)", cfg.Storage.Backend)
	}
	if cfg.Storage.CacheSize < 0 {
		return fmt.Errorf("invalid storage cache size: %d", cfg.Storage.CacheSize)
	}

	validModes := map[string]bool{"full": true, "minimal": true, "off": true, "none": true, "": true}
	if !validModes[strings.ToLower(cfg.Stats.Mode)] {
		return fmt.Errorf("invalid stats mode: %s (must be full, minimal, or off)", cfg.Stats.Mode)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", cfg.Logging.Level)
	}

	if cfg.Health.Port != 0 && (cfg.Health.Port < 1 || cfg.Health.Port > 65535) {
		return fmt.Errorf("invalid health port: %d", cfg.Health.Port)
	}
	if cfg.Metrics.Port != 0 && (cfg.Metrics.Port < 1 || cfg.Metrics.Port > 65535) {
		return fmt.Errorf("invalid metrics port: %d", cfg.Metrics.Port)
	}

	return nil
}
