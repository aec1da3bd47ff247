package bloom

// CountingBloomFilter estimates element abundance with saturating 8-bit
// counters instead of bits. Count returns the minimum counter across the
// probe positions, which never undercounts the true number of Adds (up to
// MaxCount) but may overcount on collisions. Not safe for concurrent use;
// see ShardedCountingBloomFilter for the concurrent drop-in.
type CountingBloomFilter struct {
	size   uint64 // number of slots, a multiple of counterBlockSize
	hashes int
	seed   uint64
	counts []uint8
}

// NewCountingBloomFilter returns a filter of at least size one-byte slots
// probed hashes times per element.
func NewCountingBloomFilter(size uint64, hashes int, seed uint64) *CountingBloomFilter {
	size = roundUpTo(size, counterBlockSize)
	return &CountingBloomFilter{
		size:   size,
		hashes: hashes,
		seed:   seed,
		counts: make([]uint8, size),
	}
}

// NumSlots returns the allocated size of the filter in counter slots.
func (f *CountingBloomFilter) NumSlots() uint64 { return f.size }

// Add records one occurrence of x.
func (f *CountingBloomFilter) Add(x uint64) {
	h1, h2 := hashPair(x, f.seed)
	p := newProbeSequence(h1, h2, f.size, counterBlockMask)
	for i := 0; i < f.hashes; i++ {
		j := p.next()
		if f.counts[j] < MaxCount {
			f.counts[j]++
		}
	}
}

// AddAndCount records one occurrence of x and returns the updated estimate.
func (f *CountingBloomFilter) AddAndCount(x uint64) uint8 {
	h1, h2 := hashPair(x, f.seed)
	p := newProbeSequence(h1, h2, f.size, counterBlockMask)
	min := MaxCount
	for i := 0; i < f.hashes; i++ {
		j := p.next()
		if f.counts[j] < MaxCount {
			f.counts[j]++
		}
		if f.counts[j] < min {
			min = f.counts[j]
		}
	}
	return min
}

// Count returns the abundance estimate for x.
func (f *CountingBloomFilter) Count(x uint64) uint8 {
	h1, h2 := hashPair(x, f.seed)
	p := newProbeSequence(h1, h2, f.size, counterBlockMask)
	min := MaxCount
	for i := 0; i < f.hashes; i++ {
		j := p.next()
		if f.counts[j] < min {
			min = f.counts[j]
		}
	}
	return min
}
