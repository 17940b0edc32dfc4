// Copyright 2025 Veda Platform, Inc.

package codec

import (
	"bytes"
	"strconv"
	"strings"
	"time"

	"github.com/veda-platform/az/pkg/az/access"
	"github.com/veda-platform/az/pkg/mempool"
)

// Version selects which on-wire access encoding EncodeRecord emits.
type Version uint8

const (
	// V1 is the legacy hex-digit encoding.
	V1 Version = 1
	// V2 is the tag-character, counter-aware encoding. Writers should
	// prefer V2; V1 remains decodable but is not emitted by this package
	// except when a caller explicitly asks for it.
	V2 Version = 2
)

const dateLayout = "060102"

// EncodeRecord serializes set into the on-wire text format: an optional
// "Tyymmdd," validity prefix, then "id;value;" for every non-deleted
// record, or a bare "X" if nothing survives.
func EncodeRecord(date *time.Time, set *RecordSet, version Version) string {
	buf := mempool.GetBuffer(64)
	b := bytes.NewBuffer(buf[:0])
	defer mempool.PutBuffer(buf)

	if date != nil {
		b.WriteByte('T')
		b.WriteString(date.UTC().Format(dateLayout))
		b.WriteByte(',')
	}

	count := 0
	for _, id := range set.Keys() {
		r, _ := set.Get(id)
		if r.Deleted {
			continue
		}
		b.WriteString(r.ID)
		b.WriteByte(';')
		if version == V1 {
			encodeValueV1(b, r)
		} else {
			encodeValueV2(b, r)
		}
		b.WriteByte(';')
		count++
	}

	if count == 0 {
		b.WriteByte('X')
	}

	return b.String()
}

func encodeValueV1(b *bytes.Buffer, r *Record) {
	b.WriteString(strings.ToUpper(strconv.FormatUint(uint64(r.Access), 16)))
	if r.Marker == access.IsExclusive || r.Marker == access.IgnoreExclusive {
		b.WriteByte(byte(r.Marker))
	}
}

func encodeValueV2(b *bytes.Buffer, r *Record) {
	var setAccess uint8
	for _, tag := range access.Tags {
		count := r.Counters[tag]
		bit, ok := access.FromTag(tag)
		if !ok || count == 0 {
			continue
		}
		setAccess |= uint8(bit)
		b.WriteByte(tag)
		if count > 1 {
			b.WriteString(strconv.Itoa(int(count)))
		}
	}

	for _, bit := range access.Full {
		remaining := uint8(bit) & r.Access & ^setAccess
		if remaining == 0 {
			continue
		}
		if tag, ok := access.ToTag(bit); ok {
			b.WriteByte(tag)
		}
	}

	if r.Marker == access.IsExclusive || r.Marker == access.IgnoreExclusive {
		b.WriteByte(byte(r.Marker))
	}
}
