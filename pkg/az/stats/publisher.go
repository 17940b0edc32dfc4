// Copyright 2025 Veda Platform, Inc.

package stats

import (
	"sync"

	"github.com/nats-io/nats.go"
)

// NatsPublisher publishes sidecar flushes to a core-NATS subject — a
// pub-pattern socket addressed by URL, fire-and-forget, no
// acknowledgment. Connection is established lazily on first Publish and
// reused after that; a connect or send failure is returned to the caller
// (Sidecar.Flush logs it and moves on) and the connection is dropped so
// the next Publish attempts a fresh dial.
type NatsPublisher struct {
	url     string
	subject string

	mu   sync.Mutex
	conn *nats.Conn
}

// NewNatsPublisher builds a publisher for the given server URL
// (e.g. "nats://host:4222") and subject.
func NewNatsPublisher(url, subject string) *NatsPublisher {
	return &NatsPublisher{url: url, subject: subject}
}

// Publish sends message on the configured subject, connecting first if
// necessary. The send itself is non-blocking (core NATS Publish just
// writes to the client's outbound buffer); Flush does not wait for the
// server to process it.
func (p *NatsPublisher) Publish(message string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn == nil || p.conn.IsClosed() {
		conn, err := nats.Connect(p.url)
		if err != nil {
			return err
		}
		p.conn = conn
	}

	if err := p.conn.Publish(p.subject, []byte(message)); err != nil {
		p.conn.Close()
		p.conn = nil
		return err
	}
	return nil
}

// Close releases the underlying connection, if any. Safe to call even if
// Publish was never invoked.
func (p *NatsPublisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn != nil {
		p.conn.Close()
		p.conn = nil
	}
}
