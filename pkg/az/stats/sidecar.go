// Copyright 2025 Veda Platform, Inc.

// Package stats implements the best-effort telemetry sidecar: it buffers
// which storage keys an authorization decision touched and how long the
// decision took, then publishes one line per decision on a non-blocking
// pub-pattern socket. Loss is tolerated — a publish failure clears the
// buffer and logs, it never propagates to the caller.
package stats

import (
	"crypto/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/veda-platform/az/pkg/logger"
)

var log = logger.Default().WithComponent("stats")

// Mode selects how much a Sidecar records.
type Mode int

const (
	// Full records every key touched plus the decision duration.
	Full Mode = iota
	// Minimal records only the overall duration.
	Minimal
	// None disables collection entirely; Collect/SetDuration/Flush are
	// no-ops.
	None
)

// ParseMode maps a case-insensitive config string to a Mode, defaulting to
// Full for anything unrecognized (matching the source's own permissive
// parse, which only special-cases "minimal" and "off"/"none").
func ParseMode(s string) Mode {
	switch strings.ToLower(s) {
	case "minimal":
		return Minimal
	case "off", "none":
		return None
	default:
		return Full
	}
}

// Publisher is the non-blocking transport a Sidecar flushes through.
type Publisher interface {
	Publish(message string) error
}

// Sidecar is one context's telemetry buffer. It is not safe for concurrent
// use from multiple goroutines sharing the same authorization call — each
// Context owns exactly one Sidecar, matching the "per-context, not shared"
// resource rule.
type Sidecar struct {
	mode      Mode
	publisher Publisher
	senderID  string

	mu       sync.Mutex
	messages []string
	duration time.Duration
}

// New builds a Sidecar in the given mode, publishing through publisher
// (which may be nil if mode is None). The sender id is an 8-character
// random alphanumeric string generated once and reused for every flush
// from this Sidecar.
func New(mode Mode, publisher Publisher) *Sidecar {
	return &Sidecar{mode: mode, publisher: publisher, senderID: randomSenderID()}
}

// Collect appends message to the buffer if the mode is Full. Minimal and
// None modes ignore per-key collection entirely.
func (s *Sidecar) Collect(message string) {
	if s.mode != Full {
		return
	}
	s.mu.Lock()
	s.messages = append(s.messages, message)
	s.mu.Unlock()
}

// SetDuration records the elapsed time for the current decision. No-op in
// None mode.
func (s *Sidecar) SetDuration(d time.Duration) {
	if s.mode == None {
		return
	}
	s.mu.Lock()
	s.duration = d
	s.mu.Unlock()
}

// Flush sends one message of the form "sender_id,duration_micros,k1;k2;...",
// then clears the buffer whether or not the send succeeded — the buffer is
// bounded memory, not a durable queue. A publish failure is logged and
// never returned to the caller's caller (Context swallows it too, but
// Flush's own error return lets tests assert on it).
func (s *Sidecar) Flush() error {
	if s.mode == None || s.publisher == nil {
		return nil
	}

	s.mu.Lock()
	messages := s.messages
	duration := s.duration
	s.messages = nil
	s.mu.Unlock()

	msg := s.senderID + "," + strconv.FormatInt(duration.Microseconds(), 10) + "," + strings.Join(messages, ";")

	if err := s.publisher.Publish(msg); err != nil {
		log.Warn("fail flush stat", "error", err)
		return err
	}
	return nil
}

const senderIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
const senderIDLength = 8

func randomSenderID() string {
	var out [senderIDLength]byte
	buf := make([]byte, senderIDLength)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing is effectively unrecoverable on any real
		// platform; fall back to a fixed, clearly-synthetic id rather
		// than panicking a decision path over telemetry.
		return "00000000"
	}
	for i, b := range buf {
		out[i] = senderIDAlphabet[int(b)%len(senderIDAlphabet)]
	}
	return string(out[:])
}
