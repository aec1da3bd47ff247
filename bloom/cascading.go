package bloom

// levelSeed derives an independent seed for one level of a cascading filter
// from the run seed, so levels probe uncorrelated positions.
func levelSeed(seed uint64, level int) uint64 {
	s := seed + uint64(level+1)*0x9e3779b97f4a7c15
	s ^= s >> 31
	return s
}

// CascadingBloomFilter layers plain Bloom filters so that level i+1 only
// admits elements already present at level i. The number of leading positive
// levels is a coarse abundance class: it costs one bit array per bucket
// instead of a byte per slot, trading count granularity for memory. Not safe
// for concurrent use; see ShardedCascadingBloomFilter for the concurrent
// drop-in.
type CascadingBloomFilter struct {
	levels []*BloomFilter
}

// NewCascadingBloomFilter builds one filter per entry of sizes (in bits),
// probed hashes[i] times. Each level derives its own seed from seed.
func NewCascadingBloomFilter(sizes []uint64, hashes []int, seed uint64) *CascadingBloomFilter {
	levels := make([]*BloomFilter, len(sizes))
	for i, size := range sizes {
		levels[i] = NewBloomFilter(size, hashes[i], levelSeed(seed, i))
	}
	return &CascadingBloomFilter{levels: levels}
}

// NewCascadingBloomFilterHalving builds nLevels levels, each half the size
// of the previous one, all probed hashes times. Upper levels hold the
// (rarer) high-abundance elements so they can afford fewer bits.
func NewCascadingBloomFilterHalving(size uint64, nLevels, hashes int, seed uint64) *CascadingBloomFilter {
	sizes := make([]uint64, nLevels)
	ns := make([]int, nLevels)
	for i := range sizes {
		sizes[i] = size
		ns[i] = hashes
		size /= 2
	}
	return NewCascadingBloomFilter(sizes, ns, seed)
}

// NumLevels returns the number of abundance buckets.
func (f *CascadingBloomFilter) NumLevels() int { return len(f.levels) }

// Insert records one occurrence of x: it lands in the first level that does
// not already contain x, leaving deeper levels untouched.
func (f *CascadingBloomFilter) Insert(x uint64) {
	f.InsertIfMissing(x)
}

// InsertIfMissing records one occurrence of x and reports whether some level
// gained it.
func (f *CascadingBloomFilter) InsertIfMissing(x uint64) bool {
	for _, l := range f.levels {
		if l.InsertIfMissing(x) {
			return true
		}
	}
	return false
}

// Contains reports whether x tests positive at every level.
func (f *CascadingBloomFilter) Contains(x uint64) bool {
	for _, l := range f.levels {
		if !l.Contains(x) {
			return false
		}
	}
	return true
}

// Count returns the abundance class of x: the number of leading levels at
// which it tests positive, saturating at NumLevels.
func (f *CascadingBloomFilter) Count(x uint64) uint8 {
	var n uint8
	for _, l := range f.levels {
		if !l.Contains(x) {
			break
		}
		n++
	}
	return n
}

// Add records one occurrence of x. It is Insert under the Counter surface.
func (f *CascadingBloomFilter) Add(x uint64) {
	f.InsertIfMissing(x)
}

// AddAndCount records one occurrence of x and returns its updated abundance
// class.
func (f *CascadingBloomFilter) AddAndCount(x uint64) uint8 {
	f.InsertIfMissing(x)
	return f.Count(x)
}
