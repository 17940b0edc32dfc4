// Copyright 2025 Veda Platform, Inc.

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/veda-platform/az/pkg/audit"
	"github.com/veda-platform/az/pkg/az/engine"
	"github.com/veda-platform/az/pkg/az/stats"
	"github.com/veda-platform/az/pkg/az/storage"
	"github.com/veda-platform/az/pkg/config"
	"github.com/veda-platform/az/pkg/health"
	"github.com/veda-platform/az/pkg/logger"
	"github.com/veda-platform/az/pkg/metrics"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

func main() {
	configPath := flag.String("config", "configs/az.yaml", "path to configuration file")
	showVersion := flag.Bool("version", false, "show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("azd version %s (commit: %s, built: %s)\n", version, commit, buildTime)
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	logger.SetDefault(log)

	log.Info("starting azd",
		"version", version,
		"commit", commit,
		"build_time", buildTime,
	)

	log.Info("loaded configuration",
		"storage_backend", cfg.Storage.Backend,
		"storage_path", cfg.Storage.Path,
		"log_level", cfg.Logging.Level,
	)

	ctx := context.Background()

	store, err := openStore(ctx, cfg.Storage)
	if err != nil {
		log.Fatal("failed to open storage backend", "error", err)
	}
	log.Info("opened storage backend", "backend", store.Name())

	if cfg.Storage.CacheSize > 0 {
		cached, cerr := storage.NewCachedStore(store, cfg.Storage.CacheSize)
		if cerr != nil {
			log.Fatal("failed to wrap storage in cache", "error", cerr)
		}
		store = cached
		log.Info("enabled read-through cache", "size", cfg.Storage.CacheSize)
	}

	var sidecar *stats.Sidecar
	mode := stats.ParseMode(cfg.Stats.Mode)
	if mode != stats.None && cfg.Stats.NatsURL != "" {
		publisher := stats.NewNatsPublisher(cfg.Stats.NatsURL, cfg.Stats.NatsSubject)
		sidecar = stats.New(mode, publisher)
		log.Info("enabled statistics sidecar", "mode", cfg.Stats.Mode, "nats_url", cfg.Stats.NatsURL)
	} else {
		sidecar = stats.New(stats.None, nil)
	}

	engineCfg := engine.Config{
		Namespaces: engine.Namespaces{
			Permission: cfg.Engine.NamespacePerm,
			Membership: cfg.Engine.NamespaceMember,
			Filter:     cfg.Engine.NamespaceFilter,
			Negative:   cfg.Engine.NamespaceNeg,
		},
		EnableNegative: cfg.Engine.EnableNegative,
	}
	engineCtx := engine.New(store, cfg.Engine.MaxReadCounter, sidecar)
	engineCtx.Config = engineCfg

	auditLogger, err := audit.NewLogger(audit.Config{
		Enabled:          cfg.Audit.Enabled,
		OutputPath:       cfg.Audit.OutputPath,
		MaxFileSize:      cfg.Audit.MaxFileSize,
		MaxBackups:       cfg.Audit.MaxBackups,
		MaxAge:           cfg.Audit.MaxAge,
		Compress:         cfg.Audit.Compress,
		BufferSize:       cfg.Audit.BufferSize,
		FlushIntervalMs:  cfg.Audit.FlushIntervalMs,
		StoreEnabled:     cfg.Audit.StoreEnabled,
		StoreRetentionMs: cfg.Audit.StoreRetentionMs,
	})
	if err != nil {
		log.Fatal("failed to create audit logger", "error", err)
	}
	_ = auditLogger.LogConfig("read", *configPath, nil)

	// Start metrics server
	metricsServer := metrics.New(cfg)
	if err := metricsServer.Start(); err != nil {
		log.Fatal("failed to start metrics server", "error", err)
	}

	// Start health check server
	var healthServer *health.Server
	if cfg.Health.Enabled {
		healthChecker := health.NewChecker(version, engineCtx)
		healthAddr := fmt.Sprintf("%s:%d", cfg.Health.Host, cfg.Health.Port)
		healthServer = health.NewServer(healthAddr, healthChecker)
		if err := healthServer.Start(); err != nil {
			log.Fatal("failed to start health check server", "error", err)
		}
		log.Info("started health check server", "port", cfg.Health.Port)
	}

	log.Info("azd started successfully",
		"health_port", cfg.Health.Port,
		"metrics_port", cfg.Metrics.Port,
	)

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down azd")

	_ = auditLogger.LogConfig("shutdown", *configPath, nil)

	if healthServer != nil {
		if err := healthServer.Stop(); err != nil {
			log.Error("failed to stop health check server", "error", err)
		}
	}

	if err := metricsServer.Stop(); err != nil {
		log.Error("failed to stop metrics server", "error", err)
	}

	if closer, ok := store.(storage.Closer); ok {
		if err := closer.Close(); err != nil {
			log.Error("failed to close storage backend", "error", err)
		}
	}

	if err := auditLogger.Close(); err != nil {
		log.Error("failed to close audit logger", "error", err)
	}

	log.Info("azd stopped")
}

func openStore(ctx context.Context, cfg config.StorageConfig) (storage.Store, error) {
	switch cfg.Backend {
	case "bolt":
		return storage.OpenLegacyStore(ctx, cfg.Path)
	default:
		return storage.OpenBboltStore(ctx, cfg.Path)
	}
}
