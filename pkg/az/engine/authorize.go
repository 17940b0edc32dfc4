// Copyright 2025 Veda Platform, Inc.

package engine

import (
	"context"
	"time"

	"github.com/veda-platform/az/pkg/az/access"
	"github.com/veda-platform/az/pkg/az/codec"
	"github.com/veda-platform/az/pkg/az/storage"
)

// observer is invoked after every storage.Get, hit or miss, so a caller
// (the Context wrapper) can feed the statistics sidecar without the
// traversal itself knowing anything about stats wire formats.
type observer func(key string, res storage.Result)

// Authorize computes the access byte granted to userURI on resourceURI,
// honoring group inheritance, negative permissions, exclusivity, filters,
// and validity dates. It performs no internal retry — see Context for the
// retry-once-on-read-error policy required by the public contract.
func Authorize(ctx context.Context, store storage.Store, cfg Config, resourceURI, userURI string, requestedAccess uint8, trace *Trace) (uint8, error) {
	return authorizeAt(ctx, store, cfg, resourceURI, userURI, requestedAccess, trace, time.Now().UTC(), nil)
}

func authorizeAt(
	ctx context.Context,
	store storage.Store,
	cfg Config,
	resourceURI, userURI string,
	requestedAccess uint8,
	trace *Trace,
	now time.Time,
	obs observer,
) (uint8, error) {
	if resourceURI == "" || userURI == "" {
		return 0, nil
	}

	trace.info("authorize resource=%s user=%s requested=%#x", resourceURI, userURI, requestedAccess)

	// EXPAND: discover every group the user and the resource transitively
	// belong to, with cycle protection (each id expanded at most once per
	// side).
	userGroups, err := expandGroups(ctx, store, cfg.Namespaces.Membership, userURI, now, trace, "user", obs)
	if err != nil {
		return 0, err
	}
	resourceOrder, _, err := expandGroupsOrdered(ctx, store, cfg.Namespaces.Membership, resourceURI, now, trace, "resource", obs)
	if err != nil {
		return 0, err
	}

	// APPLY_PERMISSIONS
	var grantedPermit, deniedMask uint8
	pruned := false

	for _, rid := range resourceOrder {
		if _, err := applyPermissionKey(ctx, store, cfg.Namespaces.Permission, rid, false, userGroups, requestedAccess, now, trace, &grantedPermit, &deniedMask, &pruned, obs); err != nil {
			return 0, err
		}
		if cfg.EnableNegative {
			if _, err := applyPermissionKey(ctx, store, cfg.Namespaces.Negative, rid, true, userGroups, requestedAccess, now, trace, &grantedPermit, &deniedMask, &pruned, obs); err != nil {
				return 0, err
			}
		}
		// Only after both the permit and (if enabled) negative records for
		// this id have been folded in can the decision be known complete —
		// a negative record at this same id can still retract a permit
		// granted moments ago.
		if grantedPermit&requestedAccess&^deniedMask == requestedAccess&^deniedMask {
			break
		}
	}

	granted := grantedPermit & requestedAccess &^ deniedMask

	// APPLY_FILTER
	granted, err = applyFilter(ctx, store, cfg.Namespaces.Filter, resourceURI, granted, now, trace, obs)
	if err != nil {
		return 0, err
	}

	trace.acl("granted=%#x denied=%#x pruned=%t", granted, deniedMask, pruned)

	return granted, nil
}

// groupEdge records whether the id was reached via at least one
// membership edge whose marker was IGNORE_EXCLUSIVE. Only the user side
// needs this: it decides whether a later IS_EXCLUSIVE permission record
// for this grantee is allowed to prune.
type groupEdge struct {
	ignoreExclusive bool
}

func expandGroups(ctx context.Context, store storage.Store, membershipPrefix, seed string, now time.Time, trace *Trace, label string, obs observer) (map[string]groupEdge, error) {
	_, set, err := expandGroupsOrdered(ctx, store, membershipPrefix, seed, now, trace, label, obs)
	return set, err
}

// expandGroupsOrdered does a BFS over M+id membership records starting at
// seed, returning both the discovery order (used for deterministic P/PN
// lookups on the resource side) and the membership set with each id's
// ignore-exclusive edge flag.
func expandGroupsOrdered(ctx context.Context, store storage.Store, membershipPrefix, seed string, now time.Time, trace *Trace, label string, obs observer) ([]string, map[string]groupEdge, error) {
	visited := map[string]groupEdge{seed: {}}
	order := []string{seed}
	queue := []string{seed}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		key := membershipPrefix + id
		res, err := store.Get(ctx, key)
		if obs != nil {
			obs(key, res)
		}
		if err != nil {
			return nil, nil, err
		}
		if !res.Found {
			continue
		}

		ok, date, rights := codec.DecodeRecToRights(res.Value)
		if !ok {
			continue
		}
		if isExpired(date, now) {
			trace.group("%s membership %s expired, skipped", label, key)
			continue
		}

		for _, r := range rights {
			if _, seen := visited[r.ID]; seen {
				continue
			}
			visited[r.ID] = groupEdge{ignoreExclusive: r.Marker == access.IgnoreExclusive}
			order = append(order, r.ID)
			queue = append(queue, r.ID)
			trace.group("%s %s -> group %s (ignore_exclusive=%t)", label, id, r.ID, r.Marker == access.IgnoreExclusive)
		}
	}

	return order, visited, nil
}

// applyPermissionKey fetches prefix+rid, applies each entry whose grantee
// is in userGroups, and reports whether the decision is already fully
// resolved (granted == requested &^ denied), in which case the caller
// should stop visiting further resource-side ids.
func applyPermissionKey(
	ctx context.Context,
	store storage.Store,
	prefix, rid string,
	isNegative bool,
	userGroups map[string]groupEdge,
	requestedAccess uint8,
	now time.Time,
	trace *Trace,
	grantedPermit, deniedMask *uint8,
	pruned *bool,
	obs observer,
) (bool, error) {
	key := prefix + rid
	res, err := store.Get(ctx, key)
	if obs != nil {
		obs(key, res)
	}
	if err != nil {
		return false, err
	}
	if !res.Found {
		return false, nil
	}

	ok, date, rights := codec.DecodeRecToRights(res.Value)
	if !ok {
		return false, nil
	}
	if isExpired(date, now) {
		trace.acl("permission record %s expired, skipped", key)
		return false, nil
	}

	for _, r := range rights {
		edge, inUserGroups := userGroups[r.ID]
		if !inUserGroups {
			continue
		}

		applyEntry(r, edge.ignoreExclusive, isNegative, requestedAccess, grantedPermit, deniedMask, pruned, trace)

		if *grantedPermit&requestedAccess&^*deniedMask == requestedAccess&^*deniedMask {
			return true, nil
		}
	}

	return false, nil
}

// applyEntry folds one decoded permission entry into the running
// grantedPermit/deniedMask accumulators.
//
// Deny bits always accumulate, pruned or not. A negative (PN) entry's
// permit bits are themselves treated as denials rather than grants — PN
// is the "same shape as P" but inverted. An exclusive entry for a grantee
// reached via a non-ignoring edge replaces (not adds to) the granted
// accumulator with exactly its own permit bits and halts further permit
// accumulation from any other record; deny accumulation is unaffected.
func applyEntry(r *codec.Record, ignoreExclusive, isNegative bool, requestedAccess uint8, grantedPermit, deniedMask *uint8, pruned *bool, trace *Trace) {
	for _, bit := range access.Full[4:] {
		if uint8(bit)&r.Access != 0 {
			*deniedMask |= uint8(access.DenyToPermit(bit))
		}
	}

	permitBits := r.Access & uint8(access.Permit) & requestedAccess

	if isNegative {
		*deniedMask |= permitBits
		return
	}

	if r.Marker == access.IsExclusive && !ignoreExclusive {
		if !*pruned {
			*grantedPermit = permitBits
			*pruned = true
			trace.acl("exclusive record %s pins grant to %#x", r.ID, permitBits)
		}
		return
	}

	if *pruned {
		return
	}
	*grantedPermit |= permitBits
}

func applyFilter(ctx context.Context, store storage.Store, filterPrefix, resourceURI string, granted uint8, now time.Time, trace *Trace, obs observer) (uint8, error) {
	key := filterPrefix + resourceURI
	res, err := store.Get(ctx, key)
	if obs != nil {
		obs(key, res)
	}
	if err != nil {
		return 0, err
	}
	if !res.Found {
		return granted, nil
	}

	filter, date := codec.DecodeFilter(res.Value)
	if isExpired(date, now) {
		trace.acl("filter %s expired, ignored", key)
		return granted, nil
	}
	if filter == nil {
		return granted, nil
	}

	out := granted & filter.Access
	trace.acl("filter %s restricts %#x to %#x", key, granted, out)
	return out, nil
}

// isExpired applies the day-granularity validity rule: a record with date
// D is absent once wall-clock time strictly exceeds D+24h.
func isExpired(date *time.Time, now time.Time) bool {
	if date == nil {
		return false
	}
	return now.After(date.Add(24 * time.Hour))
}
