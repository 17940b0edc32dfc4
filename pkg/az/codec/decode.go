// Copyright 2025 Veda Platform, Inc.

package codec

import (
	"strconv"
	"strings"
	"time"

	"github.com/veda-platform/az/pkg/az/access"
	"github.com/veda-platform/az/pkg/logger"
)

var log = logger.Default().WithComponent("codec")

// extractDate strips a leading "Tyymmdd," validity prefix from s. If the
// prefix is absent or malformed, it returns (nil, s) unchanged — the whole
// original string, not a partial strip, so a bad date never eats part of
// the record list.
func extractDate(s string) (*time.Time, string) {
	rest, ok := strings.CutPrefix(s, "T")
	if !ok {
		return nil, s
	}
	dateStr, tail, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, s
	}
	t, err := time.Parse(dateLayout, dateStr)
	if err != nil {
		return nil, s
	}
	return &t, tail
}

// DecodeRecToRights decodes src into records in encountered order,
// preserving duplicates (callers that want last-wins semantics should use
// DecodeRecToRightSet instead). ok is false only when there was nothing
// left to parse after the date prefix.
func DecodeRecToRights(src string) (ok bool, date *time.Time, records []*Record) {
	ok, date = decodeIndexRecord(src, false, func(_ string, r *Record) {
		records = append(records, r)
	})
	return ok, date, records
}

// DecodeRecToRightSet decodes src into a RecordSet, accumulating per-tag
// counters as it goes. A duplicate id overwrites the earlier entry.
func DecodeRecToRightSet(src string) (ok bool, date *time.Time, set *RecordSet) {
	set = NewRecordSet()
	ok, date = decodeIndexRecord(src, true, func(_ string, r *Record) {
		set.Insert(r)
	})
	return ok, date, set
}

// DecodeFilter interprets a single-record filter value. If fewer than 3
// characters remain after the date prefix, it returns a zero-access record
// with an empty id (there is nothing meaningful to decode). If the
// remainder fails to decode into any record, it returns a zero-access
// record bearing the raw remainder as id. Otherwise the decoded record's
// marker and counters are discarded; only its id and access bits survive
// into the filter record.
func DecodeFilter(filterValue string) (record *Record, date *time.Time) {
	date, rest := extractDate(filterValue)

	if len(rest) < 3 {
		return NewRecordWithAccess("", 0), date
	}

	_, _, rights := DecodeRecToRights(rest)
	if len(rights) == 0 {
		return NewRecordWithAccess(rest, 0), date
	}

	first := rights[0]
	return NewRecordWithAccess(first.ID, first.Access), date
}

// decodeIndexRecord walks the semicolon-delimited "id;value;id;value;..."
// token list, calling drain for every pair whose value is non-empty. A
// trailing unpaired token (missing its closing ";") is ignored. ok is false
// only when there was no token list at all to walk (src was only a date
// prefix, or empty).
func decodeIndexRecord(src string, withCount bool, drain func(key string, r *Record)) (ok bool, date *time.Time) {
	date, rest := extractDate(src)
	if rest == "" {
		return false, date
	}

	tokens := strings.Split(rest, ";")

	idx := 0
	for idx+1 < len(tokens) {
		key := tokens[idx]
		value := tokens[idx+1]

		if value != "" {
			r := NewRecord(key)
			_, isV2 := access.FromTag(value[0])
			if isV2 {
				decodeValueV2(value, r, withCount)
			} else {
				decodeValueV1(value, r, withCount)
			}
			drain(key, r)
		}

		idx += 2
	}

	return true, date
}

// decodeValueV2 parses the tag-character encoding: a run of tag chars,
// each optionally followed by a decimal counter, terminated by the next
// tag/marker char or end of string. The counter collected for a tag is
// committed when the NEXT tag/marker char is seen (or at end of string),
// mirroring the writer that only knows a counter is complete once
// something else follows it.
func decodeValueV2(value string, r *Record, withCount bool) {
	var acc uint8
	var tag byte
	haveTag := false
	var val strings.Builder

	commit := func() {
		if withCount && haveTag {
			n, err := strconv.ParseUint(val.String(), 10, 16)
			if err != nil {
				n = 1
			}
			if r.Counters == nil {
				r.Counters = make(map[byte]uint16)
			}
			r.Counters[tag] = uint16(n)
		}
	}

	for i := 0; i < len(value); i++ {
		c := value[i]
		if bit, ok := access.FromTag(c); ok || access.IsMarker(c) {
			if access.IsMarker(c) {
				r.Marker = access.Marker(c)
			} else {
				acc |= uint8(bit)
			}
			commit()
			tag = c
			haveTag = true
			val.Reset()
		} else {
			val.WriteByte(c)
		}
	}
	commit()

	r.Access = acc
}

// decodeValueV1 parses the legacy hex-digit encoding: each character is
// either a marker or a hex digit, and hex digits are read least-significant
// digit first (shift starts at 0 and grows by 4 per digit). An unparseable
// digit is logged and skipped without disturbing the other bits.
func decodeValueV1(value string, r *Record, withCount bool) {
	var acc uint8
	var marker byte
	shift := uint(0)

	for i := 0; i < len(value); i++ {
		c := value[i]
		if access.IsMarker(c) {
			marker = c
			continue
		}
		v, ok := hexDigit(c)
		if !ok {
			log.Warn("decode_value_v1: non-hex digit in access", "value", value)
			continue
		}
		acc |= v << shift
		shift += 4
	}

	r.Access = acc
	r.Marker = access.Marker(marker)

	if withCount {
		r.Counters = make(map[byte]uint16)
		for _, bit := range access.Full {
			if uint8(bit)&acc > 0 {
				if tag, ok := access.ToTag(bit); ok {
					r.Counters[tag] = 1
				}
			}
		}
	}
}

func hexDigit(c byte) (uint8, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	default:
		return 0, false
	}
}
