// Copyright 2025 Veda Platform, Inc.

package audit

import (
	"time"
)

// EventType represents the type of audit event
type EventType string

const (
	// Authorization decision events — one per Authorize call, recording
	// whether the requested access was fully granted, partially granted,
	// or denied outright.
	EventTypeAuthorizeGrant   EventType = "authorize.grant"
	EventTypeAuthorizePartial EventType = "authorize.partial"
	EventTypeAuthorizeDeny    EventType = "authorize.deny"

	// Configuration events
	EventTypeConfigChange EventType = "config.change"
	EventTypeConfigRead   EventType = "config.read"

	// System events
	EventTypeSystemStartup  EventType = "system.startup"
	EventTypeSystemShutdown EventType = "system.shutdown"
	EventTypeSystemError    EventType = "system.error"
)

// Severity represents the severity level of an audit event
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// Event represents a single audit log event
type Event struct {
	// Core fields
	Timestamp time.Time `json:"timestamp"`
	EventID   string    `json:"event_id"`
	EventType EventType `json:"event_type"`
	Severity  Severity  `json:"severity"`

	// Actor information
	Principal string `json:"principal"`           // User/service principal
	Host      string `json:"host"`                // Source IP/hostname
	UserAgent string `json:"user_agent,omitempty"` // Client user agent

	// Resource information
	ResourceType string `json:"resource_type,omitempty"` // resource, config
	ResourceName string `json:"resource_name,omitempty"` // Specific resource identifier

	// Operation details
	Operation string                 `json:"operation"`           // authorize, or a config operation (read, change, shutdown)
	Result    string                 `json:"result"`              // granted, partial, denied, error, success
	Metadata  map[string]interface{} `json:"metadata,omitempty"`  // Additional context
	Error     string                 `json:"error,omitempty"`     // Error message if failed

	// Request context
	RequestID   string `json:"request_id,omitempty"`
	SessionID   string `json:"session_id,omitempty"`
	APIVersion  string `json:"api_version,omitempty"`
	Duration    int64  `json:"duration_ms,omitempty"` // Operation duration in ms
}

// Filter represents query filters for audit logs
type Filter struct {
	StartTime    *time.Time
	EndTime      *time.Time
	EventTypes   []EventType
	Principals   []string
	ResourceType string
	ResourceName string
	Result       string
	Severity     Severity
	Limit        int
	Offset       int
}
