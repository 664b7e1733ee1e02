package cache

import (
	"sync"

	"github.com/riftcache/assets/id"
	"github.com/riftcache/assets/internal/broadcast"
)

// PathState is a path-entry's position in spec.md §3's smaller state
// machine.
type PathState int32

const (
	// PathUnloaded: a find task is in flight.
	PathUnloaded PathState = iota
	// PathLoaded: path resolution finished; ID holds the resolved id and
	// consumers re-key into the id table.
	PathLoaded
	// PathMissing: no source had this path. Terminal.
	PathMissing
)

func (s PathState) String() string {
	switch s {
	case PathUnloaded:
		return "unloaded"
	case PathLoaded:
		return "loaded"
	case PathMissing:
		return "missing"
	default:
		return "invalid"
	}
}

// PathEntry is spec.md §3's path-keyed cache entry.
//
// spec.md §4.3 describes path resolution as handing off two separate
// waker lists ("wake me when the id is known" vs "wake me when the asset
// is ready") into the id-entry's waker set. This package instead relies on
// Go's ordinary blocking calls: a consumer first waits on Resolved, then —
// once it observes PathLoaded — looks up the id entry that the resolving
// find task is guaranteed to have already created (see ResolvePath in
// table.go, which creates/reuses the id entry before firing Resolved). That ordering gives the same guarantee I5 asks for (a waiter
// never misses the hand-off) without needing to migrate a waker list
// across tables.
type PathEntry struct {
	lock *sync.RWMutex

	State PathState
	ID    id.AssetID
	// Err holds a find-task failure. spec.md §3's path-entry state
	// machine has no Error state of its own (only Unloaded/Loaded{id}/
	// Missing), but Source.Find can still return a real error (not just
	// "not found"). This package folds that case into Missing with Err
	// set, rather than inventing a fourth path state; callers distinguish
	// "nobody had it" from "a source errored" by checking Err.
	Err error

	resolved broadcast.Signal
}

// NewPathEntry returns a fresh entry in PathUnloaded, guarded by lock.
func NewPathEntry(lock *sync.RWMutex) *PathEntry {
	return &PathEntry{lock: lock, State: PathUnloaded}
}

// ResolvedSignal returns the channel that closes when the entry leaves
// PathUnloaded.
func (e *PathEntry) ResolvedSignal() <-chan struct{} { return e.resolved.C() }

// PathSnapshot is a point-in-time copy of a PathEntry's fields.
type PathSnapshot struct {
	State PathState
	ID    id.AssetID
	Err   error
}

// Snapshot copies out the entry's current fields under its shard's read
// lock.
func (e *PathEntry) Snapshot() PathSnapshot {
	e.lock.RLock()
	defer e.lock.RUnlock()
	return PathSnapshot{State: e.State, ID: e.ID, Err: e.Err}
}

// Transition runs fn while holding the entry's shard lock exclusively.
func (e *PathEntry) Transition(fn func(e *PathEntry)) {
	e.lock.Lock()
	defer e.lock.Unlock()
	fn(e)
}

// TransitionLoaded moves Unloaded -> Loaded{id}. Caller must hold the
// owning shard's lock and must have already ensured the id entry exists
// in the id table (see the package doc above) before calling this.
func (e *PathEntry) TransitionLoaded(resolved id.AssetID) {
	e.State = PathLoaded
	e.ID = resolved
	e.resolved.Fire()
}

// TransitionMissing moves Unloaded -> Missing. Caller must hold the
// owning shard's lock.
func (e *PathEntry) TransitionMissing() {
	e.State = PathMissing
	e.resolved.Fire()
}

// TransitionError moves Unloaded -> Missing with Err set, recording a
// find-task failure (see the Err field doc above). Caller must hold the
// owning shard's lock.
func (e *PathEntry) TransitionError(err error) {
	e.State = PathMissing
	e.Err = err
	e.resolved.Fire()
}
