// Package util contains internal helpers (hashing, sharding, padding).
//revive:disable:var-naming  // allow 'util' as an internal helpers package name
package util

const (
	fnvOffset64 = 1469598103934665603
	fnvPrime64  = 1099511628211
)

func fnv64aFromBytes(b []byte) uint64 {
	h := uint64(fnvOffset64)
	for _, c := range b {
		h ^= uint64(c)
		h *= fnvPrime64
	}
	return h
}

func fnv64aFromUint64(u uint64) uint64 {
	// Hash the 8 little-endian bytes of u without allocating.
	h := uint64(fnvOffset64)
	for i := 0; i < 8; i++ {
		h ^= uint64(byte(u))
		h *= fnvPrime64
		u >>= 8
	}
	return h
}

// HashBytes exposes the FNV-1a byte hash for packages that need to combine
// several values (e.g. a type identity and an asset id or path) into one
// shard-selection hash.
func HashBytes(b []byte) uint64 { return fnv64aFromBytes(b) }

// HashUint64 exposes the FNV-1a hash of a single uint64's little-endian bytes.
func HashUint64(u uint64) uint64 { return fnv64aFromUint64(u) }

// CombineHash folds a running hash with another 64-bit value, FNV-1a style.
// Used to build a single hash over (type identity, id-or-path) key tuples.
func CombineHash(h uint64, v uint64) uint64 {
	for i := 0; i < 8; i++ {
		h ^= uint64(byte(v))
		h *= fnvPrime64
		v >>= 8
	}
	return h
}
