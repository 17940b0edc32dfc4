// Copyright 2025 Veda Platform, Inc.

package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNatsPublisher_CloseWithoutConnectIsSafe(t *testing.T) {
	p := NewNatsPublisher("nats://127.0.0.1:4222", "az.stats")
	p.Close()
	p.Close()
}

func TestNatsPublisher_PublishWithUnreachableServerReturnsError(t *testing.T) {
	p := NewNatsPublisher("nats://127.0.0.1:1", "az.stats")
	err := p.Publish("sender,100,Pfoo/B")
	assert.Error(t, err)
}
