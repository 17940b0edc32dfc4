// Copyright 2025 Veda Platform, Inc.

package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/veda-platform/az/pkg/az/access"
)

func TestUpdateCounters_FirstAddSeedsCounterAtOne(t *testing.T) {
	counters := map[byte]uint16{}
	out := UpdateCounters(counters, 0, uint8(access.Read), false, false)

	assert.Equal(t, uint8(access.Read), out)
	assert.Equal(t, uint16(1), counters['R'])
}

func TestUpdateCounters_SecondAddIncrements(t *testing.T) {
	counters := map[byte]uint16{}
	UpdateCounters(counters, 0, uint8(access.Read), false, false)
	out := UpdateCounters(counters, uint8(access.Read), uint8(access.Read), false, false)

	assert.Equal(t, uint8(access.Read), out)
	assert.Equal(t, uint16(2), counters['R'])
}

func TestUpdateCounters_RemoveDecrementsWithoutClearingUntilZero(t *testing.T) {
	counters := map[byte]uint16{}
	UpdateCounters(counters, 0, uint8(access.Read), false, false)
	UpdateCounters(counters, uint8(access.Read), uint8(access.Read), false, false)

	out := UpdateCounters(counters, uint8(access.Read), uint8(access.Read), true, false)
	assert.Equal(t, uint8(access.Read), out, "one grantor remains, bit must stay set")
	assert.Equal(t, uint16(1), counters['R'])

	out = UpdateCounters(counters, uint8(access.Read), uint8(access.Read), true, false)
	assert.Equal(t, uint8(0), out, "last grantor removed, bit clears")
	assert.Equal(t, uint16(0), counters['R'])
}

func TestUpdateCounters_RemoveOfBitNeverGrantedIsNoOp(t *testing.T) {
	counters := map[byte]uint16{}
	UpdateCounters(counters, 0, uint8(access.Read), false, false)

	// prevAccess does not carry Read, so the decrement branch is skipped
	// and the counter is untouched even though curAccess requests removal.
	out := UpdateCounters(counters, 0, uint8(access.Read), true, false)
	assert.Equal(t, uint8(access.Read), out)
	assert.Equal(t, uint16(1), counters['R'])
}

func TestUpdateCounters_DropCountAddAlwaysCollapsesToOne(t *testing.T) {
	counters := map[byte]uint16{}
	UpdateCounters(counters, 0, uint8(access.Read), false, false)
	UpdateCounters(counters, uint8(access.Read), uint8(access.Read), false, false)
	assert.Equal(t, uint16(2), counters['R'])

	out := UpdateCounters(counters, uint8(access.Read), uint8(access.Read), false, true)
	assert.Equal(t, uint8(access.Read), out)
	assert.Equal(t, uint16(1), counters['R'], "drop-count mode forces a single grantor's view")
}

func TestUpdateCounters_DropCountRemoveClearsRegardlessOfCount(t *testing.T) {
	counters := map[byte]uint16{}
	UpdateCounters(counters, 0, uint8(access.Read), false, false)
	UpdateCounters(counters, uint8(access.Read), uint8(access.Read), false, false)
	assert.Equal(t, uint16(2), counters['R'])

	out := UpdateCounters(counters, uint8(access.Read), uint8(access.Read), true, true)
	assert.Equal(t, uint8(0), out)
	assert.Equal(t, uint16(0), counters['R'])
}

func TestUpdateCounters_IndependentTagsDoNotInterfere(t *testing.T) {
	counters := map[byte]uint16{}
	both := uint8(access.Read) | uint8(access.Update)

	out := UpdateCounters(counters, 0, both, false, false)
	assert.Equal(t, both, out)
	assert.Equal(t, uint16(1), counters['R'])
	assert.Equal(t, uint16(1), counters['U'])

	out = UpdateCounters(counters, both, uint8(access.Read), true, false)
	assert.Equal(t, uint8(access.Update), out, "removing Read must not touch the Update counter")
	assert.Equal(t, uint16(0), counters['R'])
	assert.Equal(t, uint16(1), counters['U'])
}

func TestUpdateCounters_DenyBitFollowsSameLawAsPermitBit(t *testing.T) {
	counters := map[byte]uint16{}
	out := UpdateCounters(counters, 0, uint8(access.CantRead), false, false)

	assert.Equal(t, uint8(access.CantRead), out)
	assert.Equal(t, uint16(1), counters['r'])

	out = UpdateCounters(counters, uint8(access.CantRead), uint8(access.CantRead), true, false)
	assert.Equal(t, uint8(0), out)
	assert.Equal(t, uint16(0), counters['r'])
}
