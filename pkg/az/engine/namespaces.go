// Copyright 2025 Veda Platform, Inc.

package engine

// Namespaces names the four key-prefix namespaces the engine reads.
// Exact characters are configurable as long as they stay mutually
// disjoint; the defaults match the conventional single/double-letter
// prefixes used by the sibling writer subsystem.
type Namespaces struct {
	Permission string // "P" + resource_id -> permissions granted on resource_id
	Membership string // "M" + member_id -> groups member_id belongs to
	Filter     string // "F" + resource_id -> optional restricting filter
	Negative   string // "PN" + resource_id -> explicitly forbidden counterpart of Permission
}

// DefaultNamespaces is the conventional prefix set.
var DefaultNamespaces = Namespaces{
	Permission: "P",
	Membership: "M",
	Filter:     "F",
	Negative:   "PN",
}

// Config configures one engine decision run.
type Config struct {
	Namespaces Namespaces
	// EnableNegative controls whether the PN namespace is consulted. The
	// zero Config leaves it off; DefaultConfig turns it on.
	EnableNegative bool
}

// DefaultConfig returns the conventional namespace set with negative
// permissions enabled, matching the documented "(and, if configured) PN"
// behavior being on unless a deployment opts out.
func DefaultConfig() Config {
	return Config{Namespaces: DefaultNamespaces, EnableNegative: true}
}
