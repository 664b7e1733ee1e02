// Package source defines the boundary contract (spec.md §4.1/§6.2) between
// the asset loader core and the pluggable backends that actually hold
// bytes (filesystem, remote, offline-store artifacts, ...). Concrete
// backends are deliberately out of scope for this module; only the
// interface and its data shapes live here.
package source

import (
	"context"

	"github.com/riftcache/assets/id"
)

// Data is an opaque byte buffer plus an opaque version. Two Loads that
// return the same (sourceIndex, Version) are defined to be byte-equivalent;
// Version has no meaning beyond equality to the Source that produced it.
type Data struct {
	Bytes   []byte
	Version uint64
}

// Source is a single backend in the loader's fixed priority list.
// Implementations must be safe for concurrent use by multiple goroutines
// and must not swallow real errors behind a "not found" result.
type Source interface {
	// Find translates path to an id for the given asset type name.
	// It never fails loudly: a source that does not recognize the path
	// returns (id.AssetID(0), false, nil).
	Find(ctx context.Context, path string, assetType string) (found id.AssetID, ok bool, err error)

	// Load retrieves bytes for id. ok=false means "not present in this
	// source, try the next one"; err != nil aborts the whole load (errors
	// are not swallowed by "try next").
	Load(ctx context.Context, asset id.AssetID) (data Data, ok bool, err error)

	// Update returns bytes only when a version newer than knownVersion
	// exists. Whether the core loader ever calls Update is an open
	// question in spec.md §9; this module's Loader does not call it — it
	// is exposed for callers and offline tooling that want to poll a
	// Source directly for newer content.
	Update(ctx context.Context, asset id.AssetID, knownVersion uint64) (data Data, ok bool, err error)
}

// List is a fixed, ordered priority list of sources. The first source
// that returns ok=true for Find/Load wins; sources are consulted strictly
// in order (spec.md §4.6's "never consults sources concurrently").
type List []Source

// Find walks the list in order, returning the first match. It stops and
// returns the error immediately if any source errors.
func (l List) Find(ctx context.Context, path string, assetType string) (id.AssetID, int, error) {
	for i, s := range l {
		found, ok, err := s.Find(ctx, path, assetType)
		if err != nil {
			return 0, -1, err
		}
		if ok {
			return found, i, nil
		}
	}
	return 0, -1, nil
}

// Load walks the list in order, returning the first match along with the
// index of the source that produced it.
func (l List) Load(ctx context.Context, asset id.AssetID) (Data, int, error) {
	for i, s := range l {
		data, ok, err := s.Load(ctx, asset)
		if err != nil {
			return Data{}, -1, err
		}
		if ok {
			return data, i, nil
		}
	}
	return Data{}, -1, nil
}
