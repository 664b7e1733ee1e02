package cache

import (
	"sync"

	"github.com/riftcache/assets/id"
	"github.com/riftcache/assets/internal/key"
	"github.com/riftcache/assets/internal/util"
)

// idShard is one partition of an IDTable: a map guarded by its own lock.
// Entries are retained for process lifetime; there is no eviction here
// (spec.md §1 Non-goals).
type idShard struct {
	mu sync.RWMutex
	m  map[key.TypeKey]*IDEntry

	hits   util.PaddedAtomicInt64
	misses util.PaddedAtomicInt64
}

// pathShard is the path-table counterpart.
type pathShard struct {
	mu sync.RWMutex
	m  map[key.PathKey]*PathEntry

	hits   util.PaddedAtomicInt64
	misses util.PaddedAtomicInt64
}

// IDTable is spec.md §4.2's id-keyed cache table: N shards, each an
// independent lock-guarded map.
type IDTable struct {
	shards []*idShard
}

// PathTable is the path-keyed counterpart.
type PathTable struct {
	shards []*pathShard
}

// NewIDTable creates an id table with numShards shards. numShards should
// already be normalized (see util.ClampShards); NewIDTable does not
// re-normalize it so the two tables sharing a Loader always agree on shard
// count as specified by the caller.
func NewIDTable(numShards int) *IDTable {
	if numShards < 1 {
		numShards = 1
	}
	shards := make([]*idShard, numShards)
	for i := range shards {
		shards[i] = &idShard{m: make(map[key.TypeKey]*IDEntry)}
	}
	return &IDTable{shards: shards}
}

// NewPathTable creates a path table with numShards shards.
func NewPathTable(numShards int) *PathTable {
	if numShards < 1 {
		numShards = 1
	}
	shards := make([]*pathShard, numShards)
	for i := range shards {
		shards[i] = &pathShard{m: make(map[key.PathKey]*PathEntry)}
	}
	return &PathTable{shards: shards}
}

func (t *IDTable) shardFor(k key.TypeKey) *idShard {
	h := key.HashID(k.Type, k.ID)
	return t.shards[util.ShardIndex(h, len(t.shards))]
}

func (t *PathTable) shardFor(k key.PathKey) *pathShard {
	h := key.HashPath(k.Type, k.Path)
	return t.shards[util.ShardIndex(h, len(t.shards))]
}

// Get returns the existing entry for k, if any, without creating one.
func (t *IDTable) Get(k key.TypeKey) (*IDEntry, bool) {
	s := t.shardFor(k)
	s.mu.RLock()
	e, ok := s.m[k]
	s.mu.RUnlock()
	if ok {
		s.hits.Add(1)
	} else {
		s.misses.Add(1)
	}
	return e, ok
}

// GetOrCreate returns the existing entry for k, or creates and inserts a
// fresh StateUnloaded entry. created=true means the caller is the single
// producer responsible for advancing the new entry (spec.md §4.3 "single
// producer"): it must spawn the task that will eventually transition it.
func (t *IDTable) GetOrCreate(k key.TypeKey) (entry *IDEntry, created bool) {
	s := t.shardFor(k)
	s.mu.Lock()
	if e, ok := s.m[k]; ok {
		s.mu.Unlock()
		return e, false
	}
	e := NewIDEntry(&s.mu)
	s.m[k] = e
	s.mu.Unlock()
	return e, true
}

// Len returns the total number of resident id entries across all shards.
func (t *IDTable) Len() int {
	total := 0
	for _, s := range t.shards {
		s.mu.RLock()
		total += len(s.m)
		s.mu.RUnlock()
	}
	return total
}

// ShardCount returns the number of shards backing the table.
func (t *IDTable) ShardCount() int { return len(t.shards) }

// ShardStats returns shard i's current resident-entry count and its
// cumulative Get hit/miss counters, for periodic occupancy reporting.
func (t *IDTable) ShardStats(i int) (entries int, hits, misses int64) {
	s := t.shards[i]
	s.mu.RLock()
	entries = len(s.m)
	s.mu.RUnlock()
	return entries, s.hits.Load(), s.misses.Load()
}

// Get returns the existing path entry for k, if any.
func (t *PathTable) Get(k key.PathKey) (*PathEntry, bool) {
	s := t.shardFor(k)
	s.mu.RLock()
	e, ok := s.m[k]
	s.mu.RUnlock()
	if ok {
		s.hits.Add(1)
	} else {
		s.misses.Add(1)
	}
	return e, ok
}

// GetOrCreate returns the existing path entry for k, or creates and
// inserts a fresh PathUnloaded entry. created=true means the caller must
// spawn the find task.
func (t *PathTable) GetOrCreate(k key.PathKey) (entry *PathEntry, created bool) {
	s := t.shardFor(k)
	s.mu.Lock()
	if e, ok := s.m[k]; ok {
		s.mu.Unlock()
		return e, false
	}
	e := NewPathEntry(&s.mu)
	s.m[k] = e
	s.mu.Unlock()
	return e, true
}

// Len returns the total number of resident path entries across all
// shards.
func (t *PathTable) Len() int {
	total := 0
	for _, s := range t.shards {
		s.mu.RLock()
		total += len(s.m)
		s.mu.RUnlock()
	}
	return total
}

// ShardCount returns the number of shards backing the table.
func (t *PathTable) ShardCount() int { return len(t.shards) }

// ShardStats returns shard i's current resident-entry count and its
// cumulative Get hit/miss counters, for periodic occupancy reporting.
func (t *PathTable) ShardStats(i int) (entries int, hits, misses int64) {
	s := t.shards[i]
	s.mu.RLock()
	entries = len(s.m)
	s.mu.RUnlock()
	return entries, s.hits.Load(), s.misses.Load()
}

// ResolvePath performs spec.md §4.3's two-phase path→id handoff. It must
// be called by the find task that owns pathEntry (the single producer for
// that path key) once it has determined resolvedID. It:
//
//  1. ensures the id entry exists in idTable (creating it Unloaded if
//     absent), without holding the path shard's lock;
//  2. acquires pathTable's shard lock for pathKey and transitions the
//     path entry to Loaded{resolvedID}.
//
// Because step 1 happens-before step 2's Fire (program order, plus the id
// shard's own lock release before the path shard's lock is acquired), any
// goroutine that observes PathLoaded via ResolvedSignal is guaranteed the
// id entry already exists — see entry_path.go's PathEntry doc comment.
//
// idCreated reports whether the id entry was freshly created, in which
// case the caller must spawn its load task exactly as it would for a
// plain id-keyed load miss.
func ResolvePath(idTable *IDTable, idKey key.TypeKey, pathTable *PathTable, pathKey key.PathKey, resolvedID id.AssetID) (idEntry *IDEntry, idCreated bool) {
	idEntry, idCreated = idTable.GetOrCreate(idKey)

	s := pathTable.shardFor(pathKey)
	s.mu.Lock()
	if pe, ok := s.m[pathKey]; ok {
		pe.TransitionLoaded(resolvedID)
	}
	s.mu.Unlock()
	return idEntry, idCreated
}
