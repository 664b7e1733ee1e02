// Package cache implements spec.md's per-entry staged state machine (C4)
// and the two-table sharded cache (C5): an id-keyed table and a path-keyed
// table, each partitioned into N lock-guarded shards.
//
// Design
//
//   - Sharding: NewIDTable/NewPathTable split entries across the shard
//     count they are given, used as is; the assets Loader passes
//     util.ReasonableShardCount or a caller-supplied count already rounded
//     to the next power of two and capped at 512. Each shard is protected by
//     its own sync.RWMutex. Shard selection is internal/key's hash mod N.
//
//   - State machine: an IDEntry moves Unloaded -> Loaded -> Ready (or
//     Unloaded -> Missing / Unloaded -> Error / Loaded -> Error), strictly
//     monotonically (I6). A PathEntry moves Unloaded -> Loaded{ID} or
//     Unloaded -> Missing. All field mutations happen while the owning
//     shard's lock is held; the decoded-cell build-once handoff
//     (IDEntry.BeginBuild) is the one exception, using its own short-lived
//     mutex so the shard lock is never held across user build code.
//
//   - Wakers: instead of an explicit waker list, each entry embeds
//     broadcast.Signal. Closing a channel wakes every blocked and future
//     receiver exactly once, which satisfies I4 without bookkeeping: a
//     caller that observes a non-terminal state simply blocks on the
//     relevant Signal and re-reads the entry once it fires.
//
// This package is erasure-only: decoded/built asset values are stored as
// `any`. The assets package is responsible for type-safe access via the
// type tag already baked into the TypeKey/PathKey used to look entries up.
package cache
