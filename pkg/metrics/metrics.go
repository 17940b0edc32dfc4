// Copyright 2025 Veda Platform, Inc.

package metrics

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/veda-platform/az/pkg/config"
	"github.com/veda-platform/az/pkg/logger"
)

var (
	// Authorization decision metrics
	AuthorizeRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "az_authorize_requests_total",
			Help: "Total number of Authorize calls by outcome (grant, partial, deny)",
		},
		[]string{"outcome"},
	)

	AuthorizeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "az_authorize_duration_seconds",
			Help:    "Authorize call duration in seconds",
			Buckets: []float64{.00005, .0001, .00025, .0005, .001, .0025, .005, .01, .025, .05, .1},
		},
	)

	AuthorizeErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "az_authorize_errors_total",
			Help: "Total number of Authorize calls that surfaced a storage error",
		},
	)

	// Storage metrics
	StorageReadRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "az_storage_read_retries_total",
			Help: "Total number of read-error retries performed by the engine",
		},
	)

	StorageReadErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "az_storage_read_errors_total",
			Help: "Total number of storage read errors by backend",
		},
		[]string{"backend"},
	)

	CacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "az_cache_hits_total",
			Help: "Total number of cache hits in the read-through cache layer",
		},
	)

	CacheMissesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "az_cache_misses_total",
			Help: "Total number of cache misses in the read-through cache layer",
		},
	)

	// Statistics sidecar metrics
	StatsFlushTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "az_stats_flush_total",
			Help: "Total number of statistics sidecar flush attempts",
		},
	)

	StatsFlushFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "az_stats_flush_failures_total",
			Help: "Total number of statistics sidecar flush failures",
		},
	)

	// Audit metrics
	AuditWriteFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "az_audit_write_failures_total",
			Help: "Total number of audit log write failures",
		},
	)

	// Go runtime metrics
	GoRoutines = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "az_go_goroutines",
			Help: "Number of goroutines",
		},
	)

	GoThreads = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "az_go_threads",
			Help: "GOMAXPROCS setting (maximum OS threads running Go code at once)",
		},
	)

	GoMemAllocBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "az_go_mem_alloc_bytes",
			Help: "Bytes of allocated heap objects",
		},
	)

	GoMemTotalAllocBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "az_go_mem_total_alloc_bytes",
			Help: "Cumulative bytes allocated for heap objects",
		},
	)

	GoMemSysBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "az_go_mem_sys_bytes",
			Help: "Total bytes of memory obtained from the OS",
		},
	)

	GoMemHeapAllocBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "az_go_mem_heap_alloc_bytes",
			Help: "Bytes of allocated heap objects",
		},
	)

	GoMemHeapIdleBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "az_go_mem_heap_idle_bytes",
			Help: "Bytes in idle heap spans",
		},
	)

	GoMemHeapInuseBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "az_go_mem_heap_inuse_bytes",
			Help: "Bytes in in-use heap spans",
		},
	)

	GoGCPauseSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "az_go_gc_pause_seconds",
			Help:    "GC pause duration in seconds",
			Buckets: []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05, .1},
		},
	)

	GoGCTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "az_go_gc_total",
			Help: "Total number of GC runs",
		},
	)
)

// Server serves the Prometheus scrape endpoint and collects Go runtime
// metrics on a fixed interval in the background.
type Server struct {
	config      *config.Config
	logger      *logger.Logger
	server      *http.Server
	stopChan    chan struct{}
	lastNumGC   uint32
}

// New builds a metrics Server bound to cfg.Metrics.
func New(cfg *config.Config) *Server {
	return &Server{
		config:   cfg,
		logger:   logger.Default().WithComponent("metrics"),
		stopChan: make(chan struct{}),
	}
}

// Start serves the Prometheus scrape endpoint and begins the runtime
// metrics collector. A no-op, logged, when metrics are disabled in config.
func (s *Server) Start() error {
	if !s.config.Metrics.Enabled {
		s.logger.Info("metrics server disabled")
		return nil
	}

	addr := fmt.Sprintf("%s:%d", s.config.Metrics.Host, s.config.Metrics.Port)

	mux := http.NewServeMux()
	mux.Handle(s.config.Metrics.Path, promhttp.Handler())

	s.server = &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	s.logger.Info("starting metrics server",
		"address", addr,
		"path", s.config.Metrics.Path,
	)

	go s.collectRuntimeMetrics()

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("metrics server error", "error", err)
		}
	}()

	return nil
}

func (s *Server) collectRuntimeMetrics() {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	var lastTotalAlloc uint64
	for {
		select {
		case <-ticker.C:
			var m runtime.MemStats
			runtime.ReadMemStats(&m)

			GoRoutines.Set(float64(runtime.NumGoroutine()))
			GoThreads.Set(float64(runtime.GOMAXPROCS(0)))

			GoMemAllocBytes.Set(float64(m.Alloc))
			GoMemTotalAllocBytes.Add(float64(m.TotalAlloc - lastTotalAlloc))
			lastTotalAlloc = m.TotalAlloc
			GoMemSysBytes.Set(float64(m.Sys))
			GoMemHeapAllocBytes.Set(float64(m.HeapAlloc))
			GoMemHeapIdleBytes.Set(float64(m.HeapIdle))
			GoMemHeapInuseBytes.Set(float64(m.HeapInuse))

			if m.NumGC > s.lastNumGC {
				for i := s.lastNumGC; i < m.NumGC; i++ {
					pause := m.PauseNs[i%256]
					GoGCPauseSeconds.Observe(float64(pause) / 1e9)
					GoGCTotal.Inc()
				}
				s.lastNumGC = m.NumGC
			}

		case <-s.stopChan:
			return
		}
	}
}

// Stop halts the runtime metrics collector and closes the scrape server.
func (s *Server) Stop() error {
	close(s.stopChan)
	if s.server != nil {
		s.logger.Info("stopping metrics server")
		return s.server.Close()
	}
	return nil
}
