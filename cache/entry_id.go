package cache

import (
	"sync"

	"github.com/riftcache/assets/internal/broadcast"
)

// State is an id-entry's position in spec.md §3's state machine. States
// are totally ordered and transitions are monotonic (I6): an entry never
// regresses and never leaves a terminal state (Ready, Missing, Error).
type State int32

const (
	// StateUnloaded: a fetch task is in flight. Single producer: only the
	// goroutine that created the entry advances it out of this state.
	StateUnloaded State = iota
	// StateLoaded: bytes decoded; Decoded holds the (not-yet-consumed, or
	// already-consumed-once) decode result.
	StateLoaded
	// StateReady: built asset is memoised in Built.
	StateReady
	// StateMissing: every source returned "not found". Terminal.
	StateMissing
	// StateError: terminal, carries a shared, cheaply-cloneable error.
	StateError
)

func (s State) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateLoaded:
		return "loaded"
	case StateReady:
		return "ready"
	case StateMissing:
		return "missing"
	case StateError:
		return "error"
	default:
		return "invalid"
	}
}

// Terminal reports whether s is one from which no further transition
// happens (Ready, Missing, Error).
func (s State) Terminal() bool {
	return s == StateReady || s == StateMissing || s == StateError
}

// IDEntry is spec.md §3's id-keyed cache entry. All field mutation happens
// while the owning shard's lock is held, except the build-once handoff
// guarded by decodedMu (see BeginBuild).
type IDEntry struct {
	// lock is the owning shard's lock (set once, at insertion, by the
	// table that created this entry). Snapshot and Transition use it so
	// callers outside this package never need to reach back into the
	// table to read or mutate an entry's fields safely.
	lock *sync.RWMutex

	// State and the fields below are read/written only under lock.
	State       State
	Decoded     any
	Version     uint64
	SourceIndex int
	Built       any
	Err         error

	// decodedConsumed guards I3: the decoded cell yields its content at
	// most once. Protected by decodedMu, independent of the shard lock.
	decodedMu       sync.Mutex
	decodedConsumed bool

	// loadedSig fires when the entry leaves StateUnloaded.
	// readySig fires when the entry leaves StateLoaded (i.e. enters
	// StateReady or StateError; an entry that goes straight from Unloaded
	// to Missing/Error fires both at once).
	loadedSig broadcast.Signal
	readySig  broadcast.Signal
}

// NewIDEntry returns a fresh entry in StateUnloaded, guarded by lock.
func NewIDEntry(lock *sync.RWMutex) *IDEntry {
	return &IDEntry{lock: lock, State: StateUnloaded}
}

// IDSnapshot is a point-in-time copy of an IDEntry's fields, safe to read
// without holding any lock.
type IDSnapshot struct {
	State       State
	Decoded     any
	Version     uint64
	SourceIndex int
	Built       any
	Err         error
}

// Snapshot copies out the entry's current fields under its shard's read
// lock. This is how the assets package inspects an entry's state without
// risking a data race against a concurrent transition.
func (e *IDEntry) Snapshot() IDSnapshot {
	e.lock.RLock()
	defer e.lock.RUnlock()
	return IDSnapshot{
		State:       e.State,
		Decoded:     e.Decoded,
		Version:     e.Version,
		SourceIndex: e.SourceIndex,
		Built:       e.Built,
		Err:         e.Err,
	}
}

// Transition runs fn while holding the entry's shard lock exclusively.
// Callers use this to perform one of the Transition* calls below, or any
// other field mutation, under the lock spec.md §4.3 requires ("every
// transition is one assignment of a variant, done while holding the shard
// lock").
func (e *IDEntry) Transition(fn func(e *IDEntry)) {
	e.lock.Lock()
	defer e.lock.Unlock()
	fn(e)
}

// LoadedSignal returns the channel that closes when the entry leaves
// StateUnloaded.
func (e *IDEntry) LoadedSignal() <-chan struct{} { return e.loadedSig.C() }

// ReadySignal returns the channel that closes when the entry leaves
// StateLoaded into a terminal state.
func (e *IDEntry) ReadySignal() <-chan struct{} { return e.readySig.C() }

// TransitionLoaded moves Unloaded -> Loaded. Caller must hold the shard
// lock and must be the single producer for this entry (I6, "single
// producer").
func (e *IDEntry) TransitionLoaded(decoded any, version uint64, sourceIndex int) {
	e.State = StateLoaded
	e.Decoded = decoded
	e.Version = version
	e.SourceIndex = sourceIndex
	e.loadedSig.Fire()
}

// TransitionMissing moves Unloaded -> Missing. Caller must hold the shard
// lock.
func (e *IDEntry) TransitionMissing() {
	e.State = StateMissing
	e.loadedSig.Fire()
	e.readySig.Fire()
}

// TransitionError moves the entry (from Unloaded or Loaded) to Error.
// Caller must hold the shard lock.
func (e *IDEntry) TransitionError(err error) {
	e.State = StateError
	e.Err = err
	e.loadedSig.Fire()
	e.readySig.Fire()
}

// TransitionReady moves Loaded -> Ready. Caller must hold the shard lock.
func (e *IDEntry) TransitionReady(built any) {
	e.State = StateReady
	e.Built = built
	e.Decoded = nil // release the decoded value; it has been consumed (I3)
	e.readySig.Fire()
}

// BeginBuild implements spec.md §4.3's decoded-cell handoff. The caller
// must have already observed StateLoaded (via a shard-locked snapshot)
// before calling this. BeginBuild acquires decodedMu — held across the
// caller's subsequent build work and the eventual TransitionReady/
// TransitionError call: the shard lock is not involved at all here, so it is never
// held across the (possibly expensive, possibly loader-re-entering) build
// call.
//
// Returns (decoded, true) if this caller is the one that should run
// build: the caller must call TransitionReady or TransitionError (under
// the shard lock, as usual) and then FinishBuild exactly once. Returns
// (nil, false) if another builder already consumed the cell — by the
// time FinishBuild unblocks this caller's decodedMu.Lock, that builder's
// TransitionReady/TransitionError has already been published (decodedMu's
// unlock/lock pairing happens-before orders it), so the caller should
// simply re-read the entry's Built/Err under the shard lock.
func (e *IDEntry) BeginBuild() (decoded any, shouldBuild bool) {
	e.decodedMu.Lock()
	if e.decodedConsumed {
		e.decodedMu.Unlock()
		return nil, false
	}
	e.decodedConsumed = true
	return e.Decoded, true
}

// FinishBuild releases decodedMu after the caller has published
// TransitionReady/TransitionError under the shard lock. Must be called
// exactly once per successful BeginBuild.
func (e *IDEntry) FinishBuild() {
	e.decodedMu.Unlock()
}

// TryBeginBuild is BeginBuild's non-blocking variant, for poll surfaces
// that must never wait on another goroutine's build call. It fails
// (shouldBuild=false, attempted=false) if decodedMu is currently held by
// a concurrent builder, distinct from failing because the cell is already
// consumed (shouldBuild=false, attempted=true).
func (e *IDEntry) TryBeginBuild() (decoded any, shouldBuild bool, attempted bool) {
	if !e.decodedMu.TryLock() {
		return nil, false, false
	}
	if e.decodedConsumed {
		e.decodedMu.Unlock()
		return nil, false, true
	}
	e.decodedConsumed = true
	return e.Decoded, true, true
}
