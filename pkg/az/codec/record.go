// Copyright 2025 Veda Platform, Inc.

// Package codec encodes and decodes the textual ACL record format: an
// optional validity-date prefix followed by semicolon-delimited
// id/access pairs, where the access token itself carries permit/deny
// bits, an optional reference counter per bit, and an optional
// exclusivity marker.
package codec

import (
	"sort"

	"github.com/veda-platform/az/pkg/az/access"
)

// Record is a single decoded grant or membership entry: a grantee id, the
// access bits it carries, an optional marker, and per-tag reference
// counters used by writers to merge grants from multiple sources.
type Record struct {
	ID       string
	Access   uint8
	Marker   access.Marker
	Counters map[byte]uint16
	Deleted  bool
}

// NewRecord builds a zero-access record for id, with no counters.
func NewRecord(id string) *Record {
	return &Record{ID: id}
}

// NewRecordWithAccess builds a record with id and access set, no counters.
func NewRecordWithAccess(id string, acc uint8) *Record {
	return &Record{ID: id, Access: acc}
}

// RecordSet accumulates decoded records keyed by grantee id. Duplicate ids
// within one decode overwrite earlier entries, matching the "later wins"
// rule for a single stored value. Iteration/encode order is not
// significant to callers (the spec only promises round-tripping modulo
// token order); Encode sorts keys to keep output deterministic.
type RecordSet struct {
	byID map[string]*Record
}

// NewRecordSet returns an empty set.
func NewRecordSet() *RecordSet {
	return &RecordSet{byID: make(map[string]*Record)}
}

// Insert stores r under r.ID, overwriting any existing entry for that id.
func (s *RecordSet) Insert(r *Record) {
	if s.byID == nil {
		s.byID = make(map[string]*Record)
	}
	s.byID[r.ID] = r
}

// Get returns the record for id, if any.
func (s *RecordSet) Get(id string) (*Record, bool) {
	if s == nil {
		return nil, false
	}
	r, ok := s.byID[id]
	return r, ok
}

// Len returns the number of distinct ids held.
func (s *RecordSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.byID)
}

// Keys returns the set's ids, sorted for deterministic iteration.
func (s *RecordSet) Keys() []string {
	keys := make([]string, 0, len(s.byID))
	for k := range s.byID {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
