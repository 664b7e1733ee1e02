package assets

import (
	"context"
	"reflect"
	"time"

	"go.uber.org/zap"

	"github.com/riftcache/assets/cache"
	"github.com/riftcache/assets/id"
	"github.com/riftcache/assets/internal/key"
	"github.com/riftcache/assets/internal/util"
	"github.com/riftcache/assets/source"
)

// Loader is the entry point: it owns the two sharded cache tables and the
// fixed source priority list, and dispatches find/load tasks (spec.md
// §4.6). A Loader is safe for concurrent use and is normally shared
// process-wide; entries are retained for its lifetime and never evicted.
type Loader struct {
	sources    source.List
	ids        *cache.IDTable
	paths      *cache.PathTable
	shardCount int
	logger     *zap.Logger
	metrics    Metrics
}

// LoaderBuilder configures a Loader (spec.md §6.4: "sources: ordered
// list; shard_count: u32, rounded up to next power of two, capped at
// 512"). The zero value is a usable builder with no sources.
type LoaderBuilder struct {
	sources    source.List
	shardCount int
	logger     *zap.Logger
	metrics    Metrics
}

// NewLoaderBuilder returns an empty builder.
func NewLoaderBuilder() *LoaderBuilder {
	return &LoaderBuilder{}
}

// WithSources sets the fixed, ordered source priority list.
func (b *LoaderBuilder) WithSources(sources ...source.Source) *LoaderBuilder {
	b.sources = append(source.List(nil), sources...)
	return b
}

// WithShardCount overrides the default shard count (8×GOMAXPROCS). The
// value is rounded up to the next power of two and capped at
// util.MaxShards, same as the default.
func (b *LoaderBuilder) WithShardCount(n int) *LoaderBuilder {
	b.shardCount = n
	return b
}

// WithLogger sets the structured logger used for task-level diagnostics.
// Defaults to zap.NewNop() if unset.
func (b *LoaderBuilder) WithLogger(logger *zap.Logger) *LoaderBuilder {
	b.logger = logger
	return b
}

// WithMetrics sets the Metrics sink. Defaults to NoopMetrics if unset.
func (b *LoaderBuilder) WithMetrics(m Metrics) *LoaderBuilder {
	b.metrics = m
	return b
}

// Build constructs the Loader. Safe to call once per builder.
func (b *LoaderBuilder) Build() *Loader {
	shards := util.ReasonableShardCount()
	if b.shardCount > 0 {
		shards = util.ClampShards(b.shardCount)
	}
	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics := b.metrics
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	return &Loader{
		sources:    b.sources,
		ids:        cache.NewIDTable(shards),
		paths:      cache.NewPathTable(shards),
		shardCount: shards,
		logger:     logger,
		metrics:    metrics,
	}
}

// ShardCount returns the normalized shard count this loader's tables were
// built with.
func (ld *Loader) ShardCount() int { return ld.shardCount }

// Sources exposes the configured source chain, e.g. for offline tooling
// that wants to poll Source.Update directly (spec.md §9's open question:
// the core loader itself never calls Update).
func (ld *Loader) Sources() source.List { return ld.sources }

// ReportShardMetrics pushes every shard's current occupancy into the
// configured Metrics sink as a ShardSize reading. The loader itself never
// calls this: shard contents change on every load, so the caller decides
// how often a reading is worth taking (e.g. on a ticker in a long-running
// process).
func (ld *Loader) ReportShardMetrics() {
	for i := 0; i < ld.ids.ShardCount(); i++ {
		entries, _, _ := ld.ids.ShardStats(i)
		ld.metrics.ShardSize("id", i, entries)
	}
	for i := 0; i < ld.paths.ShardCount(); i++ {
		entries, _, _ := ld.paths.ShardStats(i)
		ld.metrics.ShardSize("path", i, entries)
	}
}

// Load dispatches spec.md §4.6's load orchestration for typ at key k and
// returns a handle immediately. If this call is the first for k, a
// background goroutine is spawned to walk the source chain and drive the
// entry to a terminal state; otherwise the returned handle shares the
// entry every other concurrent or prior caller for the same (type, key)
// observes (P1, P4).
//
// Load is a free function, not a method, because Go disallows generic
// methods: *Loader itself carries no type parameters, so any number of
// distinct asset types can share one Loader.
func Load[D, A, B any](ld *Loader, typ Type[D, A, B], k Key) *Handle[D, A, B] {
	rt := reflect.TypeOf(typ)
	tag := key.TypeTag{RT: rt, Name: typ.Name()}
	assetName := typ.Name()
	ld.metrics.LoadStart(assetName)

	h := &Handle[D, A, B]{loader: ld, typ: typ, key: k, tag: tag}

	if k.byPath {
		pk := key.PathKey{Type: tag, Path: k.path}
		h.pathKey = pk
		pe, created := ld.paths.GetOrCreate(pk)
		h.pathEntry = pe
		if created {
			ld.metrics.LoadMiss(assetName)
			go runFindTask(ld, typ, tag, pk, pe)
			return h
		}
		ld.metrics.LoadHit(assetName)
		if snap := pe.Snapshot(); snap.State == cache.PathLoaded {
			ik := key.TypeKey{Type: tag, ID: snap.ID}
			ie, idCreated := ld.ids.GetOrCreate(ik)
			h.resolvedID.Store(snap.ID.Uint64())
			h.idEntry.Store(ie)
			if idCreated {
				go runLoadTask(ld, typ, ik, ie, snap.ID)
			}
		}
		return h
	}

	ik := key.TypeKey{Type: tag, ID: k.id}
	ie, created := ld.ids.GetOrCreate(ik)
	h.resolvedID.Store(k.id.Uint64())
	h.idEntry.Store(ie)
	if created {
		ld.metrics.LoadMiss(assetName)
		go runLoadTask(ld, typ, ik, ie, k.id)
	} else {
		ld.metrics.LoadHit(assetName)
	}
	return h
}

// runFindTask is the find half of spec.md §4.6/§4.3: it queries sources
// in order for pk.Path, then performs the two-phase path→id handoff. It
// is a free generic function (not a Loader method) solely so it can spawn
// runLoadTask when the handoff creates a fresh id-entry — the id-entry's
// load task needs typ.Decode, which only the caller's type parameters
// carry.
//
// Background tasks run on context.Background(), deliberately decoupled
// from whichever caller's context triggered the Load call: other
// concurrent or future callers may be awaiting the same entry, and
// spec.md §5 requires a dropped caller's cancellation to affect only that
// caller, never the shared background task.
func runFindTask[D, A, B any](ld *Loader, typ Type[D, A, B], tag key.TypeTag, pk key.PathKey, entry *cache.PathEntry) {
	ctx := context.Background()
	assetName := typ.Name()

	resolvedID, srcIdx, err := ld.sources.Find(ctx, pk.Path, assetName)
	if err != nil {
		ld.logger.Error("source find failed",
			zap.String("asset_type", assetName), zap.String("path", pk.Path), zap.Int("source", srcIdx), zap.Error(err))
		ld.metrics.SourceCall(assetName, srcIdx, "error")
		entry.Transition(func(e *cache.PathEntry) {
			e.TransitionError(NewError(&SourceError{SourceIndex: srcIdx, Cause: err}))
		})
		return
	}
	if srcIdx < 0 {
		ld.metrics.SourceCall(assetName, -1, "miss")
		entry.Transition(func(e *cache.PathEntry) { e.TransitionMissing() })
		return
	}
	ld.metrics.SourceCall(assetName, srcIdx, "hit")

	idKey := key.TypeKey{Type: tag, ID: resolvedID}
	idEntry, idCreated := cache.ResolvePath(ld.ids, idKey, ld.paths, pk, resolvedID)
	if idCreated {
		go runLoadTask(ld, typ, idKey, idEntry, resolvedID)
	}
}

// runLoadTask is the load half of spec.md §4.6: fetch bytes for aid from
// the source chain, then run typ's decoder, publishing the entry's
// transition under its shard lock at each step. Only the single producer
// that created entry (via IDTable.GetOrCreate) ever calls this for a
// given entry (spec.md §4.3 "single producer").
func runLoadTask[D, A, B any](ld *Loader, typ Type[D, A, B], tk key.TypeKey, entry *cache.IDEntry, aid id.AssetID) {
	ctx := context.Background()
	assetName := typ.Name()

	data, srcIdx, err := ld.sources.Load(ctx, aid)
	if err != nil {
		ld.logger.Error("source load failed",
			zap.String("asset_type", assetName), zap.Stringer("id", aid), zap.Int("source", srcIdx), zap.Error(err))
		ld.metrics.SourceCall(assetName, srcIdx, "error")
		entry.Transition(func(e *cache.IDEntry) {
			e.TransitionError(NewError(&SourceError{SourceIndex: srcIdx, Cause: err}))
		})
		return
	}
	if srcIdx < 0 {
		ld.metrics.SourceCall(assetName, -1, "miss")
		entry.Transition(func(e *cache.IDEntry) { e.TransitionMissing() })
		return
	}
	ld.metrics.SourceCall(assetName, srcIdx, "hit")

	start := time.Now()
	decoded, err := typ.Decode(ctx, data.Bytes, ld)
	dur := time.Since(start)
	if err != nil {
		ld.logger.Error("decode failed", zap.String("asset_type", assetName), zap.Stringer("id", aid), zap.Error(err))
		ld.metrics.Decoded(assetName, dur, "error")
		entry.Transition(func(e *cache.IDEntry) {
			e.TransitionError(NewError(&DecodeError{AssetType: assetName, Cause: err}))
		})
		return
	}
	ld.metrics.Decoded(assetName, dur, "ok")
	entry.Transition(func(e *cache.IDEntry) {
		e.TransitionLoaded(decoded, data.Version, srcIdx)
	})
}
