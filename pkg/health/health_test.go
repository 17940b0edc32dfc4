// Copyright 2025 Veda Platform, Inc.

package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veda-platform/az/pkg/az/engine"
	"github.com/veda-platform/az/pkg/az/storage"
)

// fakeStore is a minimal storage.Store for exercising the health checker
// without an embedded database.
type fakeStore struct {
	name    string
	failGet bool
}

func (s *fakeStore) Name() string { return s.name }

func (s *fakeStore) Get(_ context.Context, _ string) (storage.Result, error) {
	if s.failGet {
		return storage.Result{}, &storage.Error{Kind: storage.KindReadError, Err: assertErr{}}
	}
	return storage.Result{}, nil
}

type assertErr struct{}

func (assertErr) Error() string { return "probe failed" }

func TestChecker_Basic(t *testing.T) {
	store := &fakeStore{name: "mem"}
	ctx := engine.New(store, 0, nil)
	checker := NewChecker("1.0.0-test", ctx)

	health := checker.Check()
	assert.Equal(t, StatusHealthy, health.Status)
	assert.Equal(t, "1.0.0-test", health.Version)
	assert.NotEmpty(t, health.Uptime)
	assert.NotZero(t, health.Timestamp)

	assert.Contains(t, health.Components, "storage")
	storageHealth := health.Components["storage"]
	assert.Equal(t, StatusHealthy, storageHealth.Status)
	assert.Equal(t, "mem", storageHealth.Details["backend"])

	assert.Contains(t, health.Components, "cache")
	assert.Equal(t, StatusHealthy, health.Components["cache"].Status)

	assert.NotEmpty(t, health.SystemInfo.GoVersion)
	assert.Greater(t, health.SystemInfo.NumGoroutines, 0)
	assert.Greater(t, health.SystemInfo.NumCPU, 0)
	assert.Greater(t, health.SystemInfo.MemoryMB, 0.0)
}

func TestChecker_CachedStoreReportsCacheActive(t *testing.T) {
	store := &fakeStore{name: "mem"}
	cached, err := storage.NewCachedStore(store, 16)
	require.NoError(t, err)

	ctx := engine.New(cached, 0, nil)
	checker := NewChecker("1.0.0", ctx)
	health := checker.Check()

	assert.Equal(t, "cache layer active", health.Components["cache"].Message)
}

func TestChecker_StorageReadErrorIsUnhealthy(t *testing.T) {
	store := &fakeStore{name: "mem", failGet: true}
	ctx := engine.New(store, 0, nil)
	checker := NewChecker("1.0.0", ctx)

	health := checker.Check()
	assert.Equal(t, StatusUnhealthy, health.Status)
	assert.Equal(t, StatusUnhealthy, health.Components["storage"].Status)
}

func TestChecker_NilEngineContext(t *testing.T) {
	checker := NewChecker("1.0.0", nil)
	health := checker.Check()

	assert.Equal(t, StatusUnhealthy, health.Status)

	storageHealth := health.Components["storage"]
	assert.Equal(t, StatusUnhealthy, storageHealth.Status)
	assert.Contains(t, storageHealth.Message, "not initialized")
}

func TestChecker_Uptime(t *testing.T) {
	store := &fakeStore{name: "mem"}
	checker := NewChecker("1.0.0", engine.New(store, 0, nil))

	time.Sleep(1100 * time.Millisecond)

	health1 := checker.Check()
	assert.Contains(t, health1.Uptime, "s")
	assert.True(t, len(health1.Uptime) >= 2)

	prevUptime := health1.Uptime
	time.Sleep(1100 * time.Millisecond)
	health2 := checker.Check()
	assert.NotEqual(t, prevUptime, health2.Uptime)
}

func TestChecker_ReadinessCheck(t *testing.T) {
	tests := []struct {
		name          string
		engineCtx     *engine.Context
		expectedReady bool
	}{
		{
			name:          "initialized",
			engineCtx:     engine.New(&fakeStore{name: "mem"}, 0, nil),
			expectedReady: true,
		},
		{
			name:          "not initialized",
			engineCtx:     nil,
			expectedReady: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := NewChecker("1.0.0", tt.engineCtx)
			assert.Equal(t, tt.expectedReady, checker.ReadinessCheck())
		})
	}
}

func TestChecker_LivenessCheck(t *testing.T) {
	checker := NewChecker("1.0.0", engine.New(&fakeStore{name: "mem"}, 0, nil))
	assert.True(t, checker.LivenessCheck())
}

func TestChecker_ConcurrentAccess(t *testing.T) {
	checker := NewChecker("1.0.0", engine.New(&fakeStore{name: "mem"}, 0, nil))

	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func() {
			for j := 0; j < 100; j++ {
				health := checker.Check()
				assert.NotNil(t, health)
			}
			done <- true
		}()
	}

	for i := 0; i < 10; i++ {
		<-done
	}
}

func TestServer_HandleHealth(t *testing.T) {
	checker := NewChecker("1.0.0", engine.New(&fakeStore{name: "mem"}, 0, nil))
	server := NewServer(":0", checker)

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	server.handleHealth(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var health Check
	err := json.NewDecoder(w.Body).Decode(&health)
	require.NoError(t, err)
	assert.Equal(t, StatusHealthy, health.Status)
	assert.Equal(t, "1.0.0", health.Version)
}

func TestServer_HandleHealthUnhealthy(t *testing.T) {
	checker := NewChecker("1.0.0", nil)
	server := NewServer(":0", checker)

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	server.handleHealth(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var health Check
	err := json.NewDecoder(w.Body).Decode(&health)
	require.NoError(t, err)
	assert.Equal(t, StatusUnhealthy, health.Status)
}

func TestServer_HandleReadiness(t *testing.T) {
	tests := []struct {
		name           string
		engineCtx      *engine.Context
		expectedStatus int
		expectedReady  bool
	}{
		{
			name:           "ready",
			engineCtx:      engine.New(&fakeStore{name: "mem"}, 0, nil),
			expectedStatus: http.StatusOK,
			expectedReady:  true,
		},
		{
			name:           "not ready",
			engineCtx:      nil,
			expectedStatus: http.StatusServiceUnavailable,
			expectedReady:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := NewChecker("1.0.0", tt.engineCtx)
			server := NewServer(":0", checker)

			req := httptest.NewRequest("GET", "/health/ready", nil)
			w := httptest.NewRecorder()
			server.handleReadiness(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)

			var body map[string]bool
			require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
			assert.Equal(t, tt.expectedReady, body["ready"])
		})
	}
}

func TestServer_HandleLiveness(t *testing.T) {
	checker := NewChecker("1.0.0", engine.New(&fakeStore{name: "mem"}, 0, nil))
	server := NewServer(":0", checker)

	req := httptest.NewRequest("GET", "/health/live", nil)
	w := httptest.NewRecorder()
	server.handleLiveness(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]bool
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.True(t, body["alive"])
}

func TestServer_RoutesThroughRouter(t *testing.T) {
	checker := NewChecker("1.0.0", engine.New(&fakeStore{name: "mem"}, 0, nil))
	server := NewServer(":0", checker)

	req := httptest.NewRequest("GET", "/health/live", nil)
	w := httptest.NewRecorder()
	server.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
