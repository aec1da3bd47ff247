package bloom

import "sync/atomic"

// ShardedCountingBloomFilter is the concurrent drop-in for
// CountingBloomFilter. Counter slots are packed four to a uint32 word and
// updated with a saturating compare-and-swap loop, so increments from any
// number of goroutines commute and never exceed MaxCount.
type ShardedCountingBloomFilter struct {
	layout shardLayout
	hashes int
	seed   uint64
	shards [][]uint32 // four uint8 slots per word
}

// NewShardedCountingBloomFilter returns a filter of at least size one-byte
// slots split over shardAmount shards (rounded up to a power of two).
func NewShardedCountingBloomFilter(size uint64, hashes int, seed uint64, shardAmount int) *ShardedCountingBloomFilter {
	layout, n := newShardLayout(size, shardAmount, counterBlockSize)
	shards := make([][]uint32, n)
	for i := range shards {
		shards[i] = make([]uint32, layout.size/4)
	}
	return &ShardedCountingBloomFilter{layout: layout, hashes: hashes, seed: seed, shards: shards}
}

// NumShards returns the shard count.
func (f *ShardedCountingBloomFilter) NumShards() int { return len(f.shards) }

// atomicIncSlot increments the 8-bit slot i of words, saturating at
// MaxCount, and returns the updated value.
func atomicIncSlot(words []uint32, i uint64) uint8 {
	w := &words[i>>2]
	shift := uint(i&3) * 8
	for {
		old := atomic.LoadUint32(w)
		c := uint8(old >> shift)
		if c == MaxCount {
			return c
		}
		if atomic.CompareAndSwapUint32(w, old, old+1<<shift) {
			return c + 1
		}
	}
}

func atomicLoadSlot(words []uint32, i uint64) uint8 {
	return uint8(atomic.LoadUint32(&words[i>>2]) >> (uint(i&3) * 8))
}

// Add records one occurrence of x.
func (f *ShardedCountingBloomFilter) Add(x uint64) {
	h1, h2 := hashPair(x, f.seed)
	shard := f.shards[f.layout.shard(h1)]
	p := newProbeSequence(h1, h2, f.layout.size, counterBlockMask)
	for i := 0; i < f.hashes; i++ {
		atomicIncSlot(shard, p.next())
	}
}

// AddAndCount records one occurrence of x and returns the updated estimate.
func (f *ShardedCountingBloomFilter) AddAndCount(x uint64) uint8 {
	h1, h2 := hashPair(x, f.seed)
	shard := f.shards[f.layout.shard(h1)]
	p := newProbeSequence(h1, h2, f.layout.size, counterBlockMask)
	min := MaxCount
	for i := 0; i < f.hashes; i++ {
		if c := atomicIncSlot(shard, p.next()); c < min {
			min = c
		}
	}
	return min
}

// Count returns the abundance estimate for x.
func (f *ShardedCountingBloomFilter) Count(x uint64) uint8 {
	h1, h2 := hashPair(x, f.seed)
	shard := f.shards[f.layout.shard(h1)]
	p := newProbeSequence(h1, h2, f.layout.size, counterBlockMask)
	min := MaxCount
	for i := 0; i < f.hashes; i++ {
		if c := atomicLoadSlot(shard, p.next()); c < min {
			min = c
		}
	}
	return min
}
