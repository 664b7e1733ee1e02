package assets

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/riftcache/assets/cache"
	"github.com/riftcache/assets/id"
	"github.com/riftcache/assets/internal/key"
)

// Key is a load request: either a path or an id, carrying no type
// information of its own (the type comes from the Type[D,A,B] passed
// alongside it to Load).
type Key struct {
	path   string
	id     id.AssetID
	byPath bool
}

// ByID builds a Key that loads by asset identifier.
func ByID(v id.AssetID) Key { return Key{id: v} }

// ByPath builds a Key that loads by path, resolved to an id via the
// source chain's Find.
func ByPath(path string) Key { return Key{path: path, byPath: true} }

// LoadedInfo is the "loaded view" spec.md §4.5 describes: the id is
// known and bytes have been decoded, but the asset may not be built yet.
type LoadedInfo struct {
	ID          id.AssetID
	Version     uint64
	SourceIndex int
}

// Handle is spec.md §4.5's cheap, cloneable reference to a cache entry.
// A Handle is created by Load and is safe to read from multiple
// goroutines. Once AwaitBuild, PollBuild, Advance or Ready has observed
// the built value or a terminal error, that outcome is cached locally so
// that repeated calls of those methods never touch the shard lock again
// (P6). AwaitLoaded does not use this cache: it reads the entry's state
// on every call.
type Handle[D, A, B any] struct {
	loader *Loader
	typ    Type[D, A, B]
	key    Key
	tag    key.TypeTag

	pathKey   key.PathKey
	pathEntry *cache.PathEntry // nil for id-keyed loads

	idEntry    atomic.Pointer[cache.IDEntry]
	resolvedID atomic.Uint64

	mu          sync.Mutex
	haveCached  bool
	cachedValue A
	cachedErr   error
}

// ID awaits path resolution (a no-op for an id-keyed handle) and returns
// the resolved asset id.
func (h *Handle[D, A, B]) ID(ctx context.Context) (id.AssetID, error) {
	for {
		if !h.key.byPath {
			return h.key.id, nil
		}
		if ie := h.idEntry.Load(); ie != nil {
			return id.AssetID(h.resolvedID.Load()), nil
		}
		snap := h.pathEntry.Snapshot()
		switch snap.State {
		case cache.PathLoaded:
			h.bindIDEntry(snap.ID)
			continue
		case cache.PathMissing:
			if snap.Err != nil {
				return 0, snap.Err
			}
			path := h.key.path
			return 0, NewError(&NotFoundError{Path: &path})
		default:
			select {
			case <-h.pathEntry.ResolvedSignal():
			case <-ctx.Done():
				return 0, ctx.Err()
			}
		}
	}
}

// AwaitLoaded blocks until the id is known and bytes have been decoded
// (or the load reaches Missing/Error), returning the loaded view.
func (h *Handle[D, A, B]) AwaitLoaded(ctx context.Context) (LoadedInfo, error) {
	aid, err := h.ID(ctx)
	if err != nil {
		return LoadedInfo{}, err
	}
	ie := h.idEntry.Load()
	for {
		snap := ie.Snapshot()
		switch snap.State {
		case cache.StateUnloaded:
			select {
			case <-ie.LoadedSignal():
			case <-ctx.Done():
				return LoadedInfo{}, ctx.Err()
			}
		case cache.StateMissing:
			return LoadedInfo{}, NewError(&NotFoundError{ID: &aid})
		case cache.StateError:
			return LoadedInfo{}, snap.Err
		default: // Loaded or Ready
			return LoadedInfo{ID: aid, Version: snap.Version, SourceIndex: snap.SourceIndex}, nil
		}
	}
}

// AwaitBuild blocks until the asset is built (or the load/build fails),
// running the build itself if this call is the one that observes Loaded
// first (spec.md §4.3's decoded-cell handoff).
func (h *Handle[D, A, B]) AwaitBuild(ctx context.Context, b B) (A, error) {
	var zero A
	for {
		v, done, err := h.tryAdvance(b)
		if done {
			return v, err
		}
		select {
		case <-h.waitChannel():
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}
}

// Ready blocks until the asset has been built (by whichever goroutine
// wins the build handoff) and returns the cached value, without ever
// driving the build itself: it only waits on the entry's ready signal
// and reads back Built/Err. Callers that have no B to supply, or that
// want to passively observe a build someone else is already running,
// use this instead of AwaitBuild.
func (h *Handle[D, A, B]) Ready(ctx context.Context) (A, error) {
	var zero A
	h.mu.Lock()
	if h.haveCached {
		v, e := h.cachedValue, h.cachedErr
		h.mu.Unlock()
		return v, e
	}
	h.mu.Unlock()
	aid, err := h.ID(ctx)
	if err != nil {
		return zero, err
	}
	ie := h.idEntry.Load()
	for {
		snap := ie.Snapshot()
		switch snap.State {
		case cache.StateReady:
			v, _ := snap.Built.(A)
			h.cacheTerminal(v, nil)
			return v, nil
		case cache.StateMissing:
			werr := NewError(&NotFoundError{ID: &aid})
			h.cacheTerminal(zero, werr)
			return zero, werr
		case cache.StateError:
			h.cacheTerminal(zero, snap.Err)
			return zero, snap.Err
		default: // Unloaded or Loaded: someone else owns (or will own) the build
			select {
			case <-ie.ReadySignal():
			case <-ctx.Done():
				return zero, ctx.Err()
			}
		}
	}
}

// PollBuild is AwaitBuild's non-blocking counterpart: it never waits. done
// is true once a terminal outcome (built value or error) has been
// observed; a false done means the caller should poll again later (the
// entry path isn't resolved, the bytes aren't decoded yet, or another
// goroutine currently holds the build handoff).
func (h *Handle[D, A, B]) PollBuild(b B) (value A, done bool, err error) {
	return h.tryAdvance(b)
}

// Driver erases a Handle's asset and decoded types while preserving the
// builder type B, so a heterogeneous collection of handles sharing one
// builder can be polled uniformly (spec.md §4.5/§9).
type Driver[B any] interface {
	Advance(b B) (done bool, err error)
}

// Advance implements Driver[B]: it runs one non-blocking build step and
// reports whether the handle has reached a terminal state.
func (h *Handle[D, A, B]) Advance(b B) (done bool, err error) {
	_, done, err = h.PollBuild(b)
	return done, err
}

// tryAdvance is the single non-blocking state-advance step shared by
// AwaitBuild's loop and PollBuild's one-shot call.
func (h *Handle[D, A, B]) tryAdvance(b B) (value A, done bool, err error) {
	var zero A

	h.mu.Lock()
	if h.haveCached {
		v, e := h.cachedValue, h.cachedErr
		h.mu.Unlock()
		return v, true, e
	}
	h.mu.Unlock()

	if h.key.byPath && h.idEntry.Load() == nil {
		snap := h.pathEntry.Snapshot()
		switch snap.State {
		case cache.PathUnloaded:
			return zero, false, nil
		case cache.PathMissing:
			var werr error
			if snap.Err != nil {
				werr = snap.Err
			} else {
				path := h.key.path
				werr = NewError(&NotFoundError{Path: &path})
			}
			h.cacheTerminal(zero, werr)
			return zero, true, werr
		case cache.PathLoaded:
			h.bindIDEntry(snap.ID)
		}
	}

	ie := h.idEntry.Load()
	if ie == nil {
		return zero, false, nil
	}

	snap := ie.Snapshot()
	switch snap.State {
	case cache.StateUnloaded:
		return zero, false, nil
	case cache.StateMissing:
		aid := id.AssetID(h.resolvedID.Load())
		werr := NewError(&NotFoundError{ID: &aid})
		h.cacheTerminal(zero, werr)
		return zero, true, werr
	case cache.StateError:
		h.cacheTerminal(zero, snap.Err)
		return zero, true, snap.Err
	case cache.StateReady:
		v, _ := snap.Built.(A)
		h.cacheTerminal(v, nil)
		return v, true, nil
	}

	// StateLoaded: attempt the build handoff.
	decoded, should, attempted := ie.TryBeginBuild()
	if !attempted {
		return zero, false, nil
	}
	if !should {
		snap2 := ie.Snapshot()
		if snap2.State == cache.StateReady {
			v, _ := snap2.Built.(A)
			h.cacheTerminal(v, nil)
			return v, true, nil
		}
		if snap2.State == cache.StateError {
			h.cacheTerminal(zero, snap2.Err)
			return zero, true, snap2.Err
		}
		return zero, false, nil
	}

	d, _ := decoded.(D)
	built, berr := h.typ.Build(b, d)
	if berr != nil {
		werr := NewError(&BuildError{AssetType: h.typ.Name(), Cause: berr})
		ie.Transition(func(e *cache.IDEntry) { e.TransitionError(werr) })
		ie.FinishBuild()
		h.loader.metrics.Built(h.typ.Name(), "error")
		h.cacheTerminal(zero, werr)
		return zero, true, werr
	}
	ie.Transition(func(e *cache.IDEntry) { e.TransitionReady(built) })
	ie.FinishBuild()
	h.loader.metrics.Built(h.typ.Name(), "ok")
	h.cacheTerminal(built, nil)
	return built, true, nil
}

// waitChannel picks the signal AwaitBuild should block on next, given the
// handle's current resolution state.
func (h *Handle[D, A, B]) waitChannel() <-chan struct{} {
	if h.key.byPath && h.idEntry.Load() == nil {
		return h.pathEntry.ResolvedSignal()
	}
	ie := h.idEntry.Load()
	if ie.Snapshot().State == cache.StateUnloaded {
		return ie.LoadedSignal()
	}
	return ie.ReadySignal()
}

// bindIDEntry completes the path→id handoff from the handle's side: once
// the path entry resolves, look up (or, racing the find task, create) the
// id entry it pointed at and remember it, so every later call on this
// handle skips straight to id-table state.
func (h *Handle[D, A, B]) bindIDEntry(resolved id.AssetID) {
	if h.idEntry.Load() != nil {
		return
	}
	ik := key.TypeKey{Type: h.tag, ID: resolved}
	ie, created := h.loader.ids.GetOrCreate(ik)
	h.resolvedID.Store(resolved.Uint64())
	h.idEntry.CompareAndSwap(nil, ie)
	if created {
		go runLoadTask(h.loader, h.typ, ik, ie, resolved)
	}
}

func (h *Handle[D, A, B]) cacheTerminal(v A, err error) {
	h.mu.Lock()
	h.haveCached = true
	h.cachedValue = v
	h.cachedErr = err
	h.mu.Unlock()
}
