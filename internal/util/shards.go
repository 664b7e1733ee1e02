package util

import "runtime"

// DefaultShardsPerCPU is spec.md §4.2's default shard multiplier: the loader
// defaults to 8×cpu_count shards before rounding to a power of two.
const DefaultShardsPerCPU = 8

// MaxShards is spec.md §4.2/§6.4's hard cap on shard count.
const MaxShards = 512

// ReasonableShardCount picks the default shard count: nextPow2(8*GOMAXPROCS),
// clamped to [1, MaxShards].
func ReasonableShardCount() int {
	p := runtime.GOMAXPROCS(0)
	if p < 1 {
		p = 1
	}
	return ClampShards(p * DefaultShardsPerCPU)
}

// ClampShards rounds n up to the next power of two and clamps it to
// [1, MaxShards], per spec.md §6.4 ("shard_count: u32, rounded up to next
// power of two, capped at 512").
func ClampShards(n int) int {
	if n <= 0 {
		return 1
	}
	n = int(NextPow2(uint64(n)))
	if n > MaxShards {
		n = MaxShards
	}
	if n < 1 {
		n = 1
	}
	return n
}

// ShardIndex maps a 64-bit hash to a shard index. Shard counts produced by
// ReasonableShardCount/ClampShards are always powers of two, so the fast
// mask path is the one exercised in practice; the modulo fallback keeps the
// helper correct for arbitrary counts too.
func ShardIndex(hash uint64, shards int) int {
	if shards <= 1 {
		return 0
	}
	if IsPowerOfTwo(uint64(shards)) {
		return int(hash & uint64(shards-1))
	}
	return int(hash % uint64(shards))
}
