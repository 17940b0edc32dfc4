// Copyright 2025 Veda Platform, Inc.

package audit

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_Log(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "audit.log")

	cfg := Config{
		Enabled:      true,
		OutputPath:   logPath,
		MaxFileSize:  1024 * 1024,
		MaxBackups:   5,
		MaxAge:       7,
		Compress:     false,
		StoreEnabled: true,
	}

	logger, err := NewLogger(cfg)
	require.NoError(t, err)
	defer logger.Close()

	event := &Event{
		EventType:    EventTypeAuthorizeGrant,
		Severity:     SeverityInfo,
		Principal:    "user1",
		ResourceType: "resource",
		ResourceName: "doc1",
		Operation:    "authorize",
		Result:       "granted",
	}

	err = logger.Log(event)
	assert.NoError(t, err)

	data, err := os.ReadFile(logPath)
	assert.NoError(t, err)
	assert.Contains(t, string(data), "doc1")
	assert.Contains(t, string(data), "authorize.grant")
}

func TestLogger_LogDecision(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "audit.log")

	cfg := Config{
		Enabled:      true,
		OutputPath:   logPath,
		StoreEnabled: true,
	}

	logger, err := NewLogger(cfg)
	require.NoError(t, err)
	defer logger.Close()

	// Full grant
	err = logger.LogDecision("res1", "user1", 0x03, 0x03, nil)
	assert.NoError(t, err)

	// Partial grant
	err = logger.LogDecision("res1", "user1", 0x0F, 0x03, nil)
	assert.NoError(t, err)

	// Full denial
	err = logger.LogDecision("res1", "user2", 0x03, 0x00, nil)
	assert.NoError(t, err)

	// Storage error surfaced during the decision
	err = logger.LogDecision("res1", "user3", 0x03, 0x00, errors.New("read failed"))
	assert.NoError(t, err)

	events, err := logger.Query(Filter{
		EventTypes: []EventType{EventTypeAuthorizeGrant, EventTypeAuthorizePartial, EventTypeAuthorizeDeny},
	})
	assert.NoError(t, err)
	assert.Len(t, events, 4)

	var sawError bool
	for _, e := range events {
		if e.Principal == "user3" {
			sawError = true
			assert.Equal(t, SeverityError, e.Severity)
			assert.Equal(t, "error", e.Result)
		}
	}
	assert.True(t, sawError)
}

func TestLogger_LogConfig(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "audit.log")

	cfg := Config{
		Enabled:      true,
		OutputPath:   logPath,
		StoreEnabled: true,
	}

	logger, err := NewLogger(cfg)
	require.NoError(t, err)
	defer logger.Close()

	err = logger.LogConfig("read", "/etc/az/config.yaml", nil)
	assert.NoError(t, err)

	events, err := logger.Query(Filter{
		EventTypes: []EventType{EventTypeConfigRead},
	})
	assert.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestLogger_Query(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "audit.log")

	cfg := Config{
		Enabled:      true,
		OutputPath:   logPath,
		StoreEnabled: true,
	}

	logger, err := NewLogger(cfg)
	require.NoError(t, err)
	defer logger.Close()

	for i := 0; i < 10; i++ {
		event := &Event{
			EventType:    EventTypeAuthorizeGrant,
			Severity:     SeverityInfo,
			Principal:    "user1",
			ResourceType: "resource",
			ResourceName: "res-" + string(rune('0'+i)),
			Operation:    "authorize",
			Result:       "granted",
		}
		err = logger.Log(event)
		assert.NoError(t, err)
	}

	events, err := logger.Query(Filter{Limit: 5})
	assert.NoError(t, err)
	assert.Len(t, events, 5)

	events, err = logger.Query(Filter{Principals: []string{"user1"}})
	assert.NoError(t, err)
	assert.Len(t, events, 10)

	events, err = logger.Query(Filter{ResourceType: "resource"})
	assert.NoError(t, err)
	assert.Len(t, events, 10)
}

func TestLogger_Disabled(t *testing.T) {
	cfg := Config{Enabled: false}

	logger, err := NewLogger(cfg)
	require.NoError(t, err)

	event := &Event{
		EventType: EventTypeAuthorizeGrant,
		Severity:  SeverityInfo,
		Principal: "user1",
	}

	err = logger.Log(event)
	assert.NoError(t, err)

	_, err = logger.Query(Filter{})
	assert.Error(t, err)
}

func TestStore_Cleanup(t *testing.T) {
	retentionMs := int64(100)
	store := NewStore(retentionMs)

	for i := 0; i < 5; i++ {
		event := &Event{
			Timestamp: time.Now().Add(-time.Duration(i*50) * time.Millisecond),
			EventType: EventTypeAuthorizeGrant,
			Principal: "user1",
		}
		store.Add(event)
	}

	assert.Equal(t, 5, store.Count())

	time.Sleep(150 * time.Millisecond)
	store.Cleanup()

	assert.LessOrEqual(t, store.Count(), 3, "should have removed old events")
}

func TestRotator(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "test.log")

	cfg := RotatorConfig{
		Filename:   logPath,
		MaxSize:    100,
		MaxBackups: 3,
		MaxAge:     7,
		Compress:   false,
	}

	rotator, err := NewRotator(cfg)
	require.NoError(t, err)
	defer rotator.Close()

	data := make([]byte, 150)
	for i := range data {
		data[i] = 'A'
	}

	n, err := rotator.Write(data)
	assert.NoError(t, err)
	assert.Equal(t, len(data), n)

	files, err := os.ReadDir(tmpDir)
	assert.NoError(t, err)
	assert.Greater(t, len(files), 1, "should have created backup file")
}
