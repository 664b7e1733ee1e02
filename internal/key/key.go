// Package key implements spec.md §3's type-tagged cache keys and §4.2's
// key→shard hashing. Two assets of different types requested at the same
// path or id are distinct cache entries because the type identity is part
// of the key.
package key

import (
	"reflect"

	"github.com/riftcache/assets/id"
	"github.com/riftcache/assets/internal/util"
)

// TypeTag is an asset's compile-time identity. Go has no generic methods,
// so an asset's "own type" is approximated by the concrete Go type of the
// Type[D,A,B] value passed to Load, paired with its declared Name: RT
// alone would collide for two distinct assets built through the same
// Leaf/Trivial adapter instantiation (identical D/A/B, e.g. two
// string-valued Trivial assets), and Name alone would collide if a
// caller ever reused a name by mistake. Together they ensure two assets
// of different types requested at the same path/id are distinct entries.
type TypeTag struct {
	RT   reflect.Type
	Name string
}

// TypeKey identifies an id-keyed cache entry: an asset type plus an id.
// It is directly comparable and usable as a Go map key.
type TypeKey struct {
	Type TypeTag
	ID   id.AssetID
}

// PathKey identifies a path-keyed cache entry: an asset type plus a path.
type PathKey struct {
	Type TypeTag
	Path string
}

// typeHash derives a stable, shard-selection-quality hash from a type
// tag. reflect.Type values of the same underlying type compare equal with
// ==, and their String() form is stable for the process lifetime, so
// hashing the string is sufficient here — this is not used for equality,
// only to spread types across shards.
func typeHash(t TypeTag) uint64 {
	return util.CombineHash(util.HashBytes([]byte(t.RT.String())), util.HashBytes([]byte(t.Name)))
}

// HashID computes the shard-selection hash for an id-keyed key.
func HashID(t TypeTag, a id.AssetID) uint64 {
	return util.CombineHash(typeHash(t), a.Uint64())
}

// HashPath computes the shard-selection hash for a path-keyed key.
func HashPath(t TypeTag, path string) uint64 {
	h := typeHash(t)
	pathBytes := util.HashBytes([]byte(path))
	return util.CombineHash(h, pathBytes)
}
