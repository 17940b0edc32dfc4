// Copyright 2025 Veda Platform, Inc.

package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/veda-platform/az/pkg/az/engine"
	"github.com/veda-platform/az/pkg/az/storage"
	"github.com/veda-platform/az/pkg/logger"
)

// Status represents the health status of a component
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// probeKey is a key unlikely to ever collide with a real ACL index entry,
// used to exercise the storage backend without asserting anything about
// its content.
const probeKey = "__health_probe__"

// Check represents the overall health of the system
type Check struct {
	Status     Status               `json:"status"`
	Version    string               `json:"version"`
	Uptime     string               `json:"uptime"`
	Timestamp  time.Time            `json:"timestamp"`
	Components map[string]Component `json:"components"`
	SystemInfo SystemInfo           `json:"system_info"`
}

// Component represents the health of a single component
type Component struct {
	Status  Status                 `json:"status"`
	Message string                 `json:"message,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// SystemInfo contains system-level information
type SystemInfo struct {
	GoVersion     string  `json:"go_version"`
	NumGoroutines int     `json:"num_goroutines"`
	NumCPU        int     `json:"num_cpu"`
	MemoryMB      float64 `json:"memory_mb"`
}

// Checker manages health checks for the engine and its storage backend.
type Checker struct {
	startTime time.Time
	version   string
	engineCtx *engine.Context
	logger    *logger.Logger
	mu        sync.RWMutex
}

// NewChecker creates a new health checker over engineCtx. engineCtx may be
// nil during startup, before the storage environment has opened.
func NewChecker(version string, engineCtx *engine.Context) *Checker {
	return &Checker{
		startTime: time.Now(),
		version:   version,
		engineCtx: engineCtx,
		logger:    logger.Default().WithComponent("health"),
	}
}

// Check performs a comprehensive health check.
func (c *Checker) Check() *Check {
	c.mu.RLock()
	defer c.mu.RUnlock()

	components := make(map[string]Component)
	components["storage"] = c.checkStorage()
	components["cache"] = c.checkCache()

	return &Check{
		Status:     c.determineOverallStatus(components),
		Version:    c.version,
		Uptime:     c.getUptime(),
		Timestamp:  time.Now(),
		Components: components,
		SystemInfo: c.getSystemInfo(),
	}
}

// checkStorage probes the primary storage backend with a harmless lookup.
// A miss is a healthy result — only a read error is unhealthy.
func (c *Checker) checkStorage() Component {
	if c.engineCtx == nil {
		return Component{Status: StatusUnhealthy, Message: "storage not initialized"}
	}

	store := c.engineCtx.Store()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := store.Get(ctx, probeKey)
	if err != nil {
		c.logger.Warn("storage health probe failed", "error", err)
		return Component{
			Status:  StatusUnhealthy,
			Message: "storage probe failed",
			Details: map[string]interface{}{"backend": store.Name(), "error": err.Error()},
		}
	}

	return Component{
		Status:  StatusHealthy,
		Message: "operating normally",
		Details: map[string]interface{}{
			"backend":           store.Name(),
			"last_decision_took": c.engineCtx.LastDuration().String(),
		},
	}
}

// checkCache reports whether a read-through cache layer is in front of
// storage. Its absence is not a degraded condition — the cache is optional.
func (c *Checker) checkCache() Component {
	if c.engineCtx == nil {
		return Component{Status: StatusUnhealthy, Message: "storage not initialized"}
	}

	if _, ok := c.engineCtx.Store().(*storage.CachedStore); !ok {
		return Component{Status: StatusHealthy, Message: "no cache layer configured"}
	}

	return Component{Status: StatusHealthy, Message: "cache layer active"}
}

// determineOverallStatus determines the overall health status
func (c *Checker) determineOverallStatus(components map[string]Component) Status {
	hasUnhealthy := false
	hasDegraded := false

	for _, component := range components {
		switch component.Status {
		case StatusUnhealthy:
			hasUnhealthy = true
		case StatusDegraded:
			hasDegraded = true
		}
	}

	if hasUnhealthy {
		return StatusUnhealthy
	}
	if hasDegraded {
		return StatusDegraded
	}
	return StatusHealthy
}

// getUptime returns the uptime as a human-readable string
func (c *Checker) getUptime() string {
	duration := time.Since(c.startTime)

	days := int(duration.Hours() / 24)
	hours := int(duration.Hours()) % 24
	minutes := int(duration.Minutes()) % 60
	seconds := int(duration.Seconds()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	}
	if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%ds", seconds)
}

// getSystemInfo returns system-level information
func (c *Checker) getSystemInfo() SystemInfo {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return SystemInfo{
		GoVersion:     runtime.Version(),
		NumGoroutines: runtime.NumGoroutine(),
		NumCPU:        runtime.NumCPU(),
		MemoryMB:      float64(m.Alloc) / (1024 * 1024),
	}
}

// ReadinessCheck performs a readiness check
func (c *Checker) ReadinessCheck() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.engineCtx != nil
}

// LivenessCheck performs a liveness check
func (c *Checker) LivenessCheck() bool {
	return true // If we can respond, we're alive
}

// Server provides HTTP endpoints for health checks.
type Server struct {
	checker *Checker
	router  *chi.Mux
	server  *http.Server
	logger  *logger.Logger
}

// NewServer creates a new health check HTTP server.
func NewServer(addr string, checker *Checker) *Server {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)

	s := &Server{
		checker: checker,
		router:  router,
		server:  &http.Server{Addr: addr, Handler: router},
		logger:  logger.Default().WithComponent("health-server"),
	}

	router.Get("/health", s.handleHealth)
	router.Get("/health/ready", s.handleReadiness)
	router.Get("/health/live", s.handleLiveness)

	return s
}

// Start starts the health check server
func (s *Server) Start() error {
	s.logger.Info("starting health check server", "address", s.server.Addr)

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("health server error", "error", err)
		}
	}()

	return nil
}

// Stop stops the health check server
func (s *Server) Stop() error {
	s.logger.Info("stopping health check server")
	return s.server.Close()
}

// handleHealth handles comprehensive health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := s.checker.Check()

	statusCode := http.StatusOK
	if health.Status == StatusUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(health)
}

// handleReadiness handles Kubernetes readiness probe requests
func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	ready := s.checker.ReadinessCheck()

	statusCode := http.StatusOK
	if !ready {
		statusCode = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]bool{"ready": ready})
}

// handleLiveness handles Kubernetes liveness probe requests
func (s *Server) handleLiveness(w http.ResponseWriter, r *http.Request) {
	alive := s.checker.LivenessCheck()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]bool{"alive": alive})
}
