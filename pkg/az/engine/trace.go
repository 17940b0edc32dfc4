// Copyright 2025 Veda Platform, Inc.

// Package engine implements the authorization traversal: given a resource
// id, a user id, and a requested access mask, it expands the user's and
// resource's group memberships, applies permission and negative-permission
// records with inheritance and exclusivity (per-tag counters are not
// decoded or consulted), intersects the
// result with the resource's filter record, and returns the granted access
// byte. It never writes to storage.
package engine

import (
	"fmt"
	"strings"
)

// Trace collects human-readable decision narration for one authorize
// call, gated by three independent flags. Traces never influence the
// returned access byte.
type Trace struct {
	ACL   bool
	Group bool
	Info  bool

	aclBuf   strings.Builder
	groupBuf strings.Builder
	infoBuf  strings.Builder
}

// NewTrace returns a trace with the given flags enabled; all buffers start
// empty.
func NewTrace(acl, group, info bool) *Trace {
	return &Trace{ACL: acl, Group: group, Info: info}
}

func (t *Trace) acl(format string, args ...any) {
	if t == nil || !t.ACL {
		return
	}
	writeLine(&t.aclBuf, format, args...)
}

func (t *Trace) group(format string, args ...any) {
	if t == nil || !t.Group {
		return
	}
	writeLine(&t.groupBuf, format, args...)
}

func (t *Trace) info(format string, args ...any) {
	if t == nil || !t.Info {
		return
	}
	writeLine(&t.infoBuf, format, args...)
}

func writeLine(b *strings.Builder, format string, args ...any) {
	if b.Len() > 0 {
		b.WriteByte('\n')
	}
	if len(args) == 0 {
		b.WriteString(format)
		return
	}
	b.WriteString(fmt.Sprintf(format, args...))
}

// ACLLog returns the accumulated permission-decision narration.
func (t *Trace) ACLLog() string {
	if t == nil {
		return ""
	}
	return t.aclBuf.String()
}

// GroupLog returns the accumulated group-expansion narration.
func (t *Trace) GroupLog() string {
	if t == nil {
		return ""
	}
	return t.groupBuf.String()
}

// InfoLog returns the accumulated general narration.
func (t *Trace) InfoLog() string {
	if t == nil {
		return ""
	}
	return t.infoBuf.String()
}
