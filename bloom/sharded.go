package bloom

import (
	"math/bits"
	"runtime"
	"sync/atomic"
)

// DefaultShardAmount is the shard count used when the caller does not supply
// one: enough shards that a full complement of writer goroutines rarely
// collides on the same shard.
func DefaultShardAmount() int {
	return runtime.NumCPU() * 4
}

// shardLayout is the routing logic common to the sharded filters: the top
// log2(S) bits of h1 select a shard, the remaining logic runs inside that
// shard only. S is rounded up to a power of two.
type shardLayout struct {
	shift uint   // log2(shard count)
	size  uint64 // per-shard size, a multiple of the block size
}

func newShardLayout(size uint64, shardAmount int, blockSize uint64) (shardLayout, int) {
	if shardAmount < 1 {
		shardAmount = 1
	}
	n := 1 << uint(bits.Len(uint(shardAmount-1))) // next power of two
	shift := uint(bits.TrailingZeros(uint(n)))
	return shardLayout{
		shift: shift,
		size:  roundUpTo(size>>shift, blockSize),
	}, n
}

// shard returns the shard index for h1. A shift of zero maps everything to
// shard zero (h1 >> 64 is 0 in Go).
func (l shardLayout) shard(h1 uint64) uint64 {
	return h1 >> (64 - l.shift)
}

// atomicSetBit sets bit i of words and reports whether it was previously
// unset. Lost CAS races are retried; a bit observed set needs no write.
func atomicSetBit(words []uint64, i uint64) bool {
	w := &words[i>>6]
	mask := uint64(1) << (i & 63)
	for {
		old := atomic.LoadUint64(w)
		if old&mask != 0 {
			return false
		}
		if atomic.CompareAndSwapUint64(w, old, old|mask) {
			return true
		}
	}
}

func atomicGetBit(words []uint64, i uint64) bool {
	return atomic.LoadUint64(&words[i>>6])&(1<<(i&63)) != 0
}

// ShardedBloomFilter is the concurrent drop-in for BloomFilter: S
// independent sub-filters, each backed by an atomically updated bitset.
// Elements hitting distinct shards never contend; within a shard, contention
// is limited to single-word compare-and-swap. Safe for concurrent Insert and
// Contains, though the two passes of a run never actually interleave them on
// the same filter.
type ShardedBloomFilter struct {
	layout shardLayout
	hashes int
	seed   uint64
	shards [][]uint64
}

// NewShardedBloomFilter returns a filter of at least size bits split over
// shardAmount shards (rounded up to a power of two). Total capacity is the
// sum of the shard capacities.
func NewShardedBloomFilter(size uint64, hashes int, seed uint64, shardAmount int) *ShardedBloomFilter {
	layout, n := newShardLayout(size, shardAmount, bitBlockSize)
	shards := make([][]uint64, n)
	for i := range shards {
		shards[i] = make([]uint64, layout.size/64)
	}
	return &ShardedBloomFilter{layout: layout, hashes: hashes, seed: seed, shards: shards}
}

// NumShards returns the shard count.
func (f *ShardedBloomFilter) NumShards() int { return len(f.shards) }

// Insert adds x to its shard.
func (f *ShardedBloomFilter) Insert(x uint64) {
	f.InsertIfMissing(x)
}

// InsertIfMissing adds x and reports whether any probed bit was previously
// unset.
func (f *ShardedBloomFilter) InsertIfMissing(x uint64) bool {
	h1, h2 := hashPair(x, f.seed)
	shard := f.shards[f.layout.shard(h1)]
	p := newProbeSequence(h1, h2, f.layout.size, bitBlockMask)
	missing := false
	for i := 0; i < f.hashes; i++ {
		if atomicSetBit(shard, p.next()) {
			missing = true
		}
	}
	return missing
}

// Contains reports whether x may have been inserted.
func (f *ShardedBloomFilter) Contains(x uint64) bool {
	h1, h2 := hashPair(x, f.seed)
	shard := f.shards[f.layout.shard(h1)]
	p := newProbeSequence(h1, h2, f.layout.size, bitBlockMask)
	for i := 0; i < f.hashes; i++ {
		if !atomicGetBit(shard, p.next()) {
			return false
		}
	}
	return true
}

// ShardedCascadingBloomFilter is the concurrent drop-in for
// CascadingBloomFilter: each level is a ShardedBloomFilter.
type ShardedCascadingBloomFilter struct {
	levels []*ShardedBloomFilter
}

// NewShardedCascadingBloomFilter builds one sharded filter per entry of
// sizes (in bits), probed hashes[i] times, all split shardAmount ways.
func NewShardedCascadingBloomFilter(sizes []uint64, hashes []int, seed uint64, shardAmount int) *ShardedCascadingBloomFilter {
	levels := make([]*ShardedBloomFilter, len(sizes))
	for i, size := range sizes {
		levels[i] = NewShardedBloomFilter(size, hashes[i], levelSeed(seed, i), shardAmount)
	}
	return &ShardedCascadingBloomFilter{levels: levels}
}

// NewShardedCascadingBloomFilterHalving builds nLevels levels, each half the
// size of the previous one, all probed hashes times.
func NewShardedCascadingBloomFilterHalving(size uint64, nLevels, hashes int, seed uint64, shardAmount int) *ShardedCascadingBloomFilter {
	sizes := make([]uint64, nLevels)
	ns := make([]int, nLevels)
	for i := range sizes {
		sizes[i] = size
		ns[i] = hashes
		size /= 2
	}
	return NewShardedCascadingBloomFilter(sizes, ns, seed, shardAmount)
}

// NumLevels returns the number of abundance buckets.
func (f *ShardedCascadingBloomFilter) NumLevels() int { return len(f.levels) }

// Insert records one occurrence of x.
func (f *ShardedCascadingBloomFilter) Insert(x uint64) {
	f.InsertIfMissing(x)
}

// InsertIfMissing records one occurrence of x in the first level missing it
// and reports whether some level gained it. Two racing inserts of the same
// element may land in the same level; the next insert moves on, so the class
// may lag the true count by one under contention, never run ahead of it.
func (f *ShardedCascadingBloomFilter) InsertIfMissing(x uint64) bool {
	for _, l := range f.levels {
		if l.InsertIfMissing(x) {
			return true
		}
	}
	return false
}

// Contains reports whether x tests positive at every level.
func (f *ShardedCascadingBloomFilter) Contains(x uint64) bool {
	for _, l := range f.levels {
		if !l.Contains(x) {
			return false
		}
	}
	return true
}

// Count returns the abundance class of x: the number of leading positive
// levels.
func (f *ShardedCascadingBloomFilter) Count(x uint64) uint8 {
	var n uint8
	for _, l := range f.levels {
		if !l.Contains(x) {
			break
		}
		n++
	}
	return n
}

// Add records one occurrence of x.
func (f *ShardedCascadingBloomFilter) Add(x uint64) {
	f.InsertIfMissing(x)
}

// AddAndCount records one occurrence of x and returns its updated abundance
// class.
func (f *ShardedCascadingBloomFilter) AddAndCount(x uint64) uint8 {
	f.InsertIfMissing(x)
	return f.Count(x)
}
