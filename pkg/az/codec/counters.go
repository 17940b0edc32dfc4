// Copyright 2025 Veda Platform, Inc.

package codec

import "github.com/veda-platform/az/pkg/az/access"

// UpdateCounters applies one add or remove operation to counters and
// returns the access byte that remains afterward.
//
// For each tag bit set in curAccess: if the tag already has a counter, a
// non-deleted update increments it (and keeps the bit set); a deleted
// update decrements it, clearing the bit once the counter reaches zero
// (but only if prevAccess had the bit — a delete for a bit never granted
// is a no-op). If the tag has no counter yet, a non-deleted update seeds
// it at 1. A tag bit not set in curAccess stays set in the result when
// prevAccess carried it and its counter is still positive, so removing one
// bit leaves the other granted bits in place.
//
// dropCount switches to a non-reference-counted mode used by writers that
// want to force a single grantor's view: counters collapse to 0 (deleted)
// or 1 (not deleted) rather than being incremented/decremented.
func UpdateCounters(counters map[byte]uint16, prevAccess, curAccess uint8, isDeleted, isDropCount bool) uint8 {
	outAccess := curAccess

	for _, tagByte := range access.Tags {
		checkBit, ok := access.FromTag(tagByte)
		if !ok {
			continue
		}
		bit := uint8(checkBit)

		cc, have := counters[tagByte]
		switch {
		case have:
			if outAccess&bit > 0 {
				if isDropCount {
					if isDeleted {
						counters[tagByte] = 0
						outAccess &^= bit
					} else {
						counters[tagByte] = 1
						outAccess |= bit
					}
				} else if isDeleted {
					if prevAccess&bit > 0 {
						cc--
						counters[tagByte] = cc
						if cc == 0 {
							outAccess &^= bit
						}
					}
				} else {
					counters[tagByte] = cc + 1
					outAccess |= bit
				}
			} else if cc > 0 && (isDropCount || prevAccess&bit > 0) {
				outAccess |= bit
			}
		default:
			if !isDeleted && outAccess&bit > 0 {
				outAccess |= bit
				counters[tagByte] = 1
			}
		}
	}

	return outAccess
}
