package bloom

const (
	// Bits per block of the bit-backed filters. All probes for one element
	// stay inside a single block, so a query touches one contiguous stretch
	// of memory no matter how many probes are configured.
	bitBlockSize = 1 << 12
	bitBlockMask = bitBlockSize - 1

	// Slots per block of the counting filters (one byte per slot, same
	// block footprint as the bit-backed kind).
	counterBlockSize = 1 << 9
	counterBlockMask = counterBlockSize - 1

	// MaxCount is the saturation point of the counting filters.
	MaxCount = uint8(255)
)

// Membership is the insert/query surface shared by the bit-backed filters
// and their sharded counterparts. Callers pick a concrete kind at
// configuration time; nothing downstream depends on which one.
type Membership interface {
	// Insert adds x to the set.
	Insert(x uint64)
	// Contains reports whether x may have been inserted. It never returns
	// false for an inserted element.
	Contains(x uint64) bool
}

// Counter is the abundance-estimate surface shared by the counting and
// cascading filters and their sharded counterparts. Estimates never
// undercount the true number of Adds (up to saturation) but may overcount
// because of collisions.
type Counter interface {
	// Add records one occurrence of x.
	Add(x uint64)
	// AddAndCount records one occurrence of x and returns the updated
	// estimate.
	AddAndCount(x uint64) uint8
	// Count returns the current abundance estimate for x.
	Count(x uint64) uint8
}

// BloomFilter is a fixed-size Bloom filter over uint64 keys. Probe positions
// are confined to one 4096-bit block. Not safe for concurrent use; see
// ShardedBloomFilter for the concurrent drop-in.
type BloomFilter struct {
	size   uint64 // number of bits, a multiple of bitBlockSize
	hashes int
	seed   uint64
	bits   []uint64
}

// NewBloomFilter returns a filter of at least size bits probed hashes times
// per element. The size is rounded up to a whole number of blocks.
func NewBloomFilter(size uint64, hashes int, seed uint64) *BloomFilter {
	size = roundUpTo(size, bitBlockSize)
	return &BloomFilter{
		size:   size,
		hashes: hashes,
		seed:   seed,
		bits:   make([]uint64, size/64),
	}
}

// NewBloomFilterFromRate returns a filter sized for n elements at
// false-positive rate p.
func NewBloomFilterFromRate(n uint64, p float64, seed uint64) *BloomFilter {
	bits, hashes := OptimalParams(n, p)
	return NewBloomFilter(bits, hashes, seed)
}

// NumBits returns the allocated size of the filter in bits.
func (f *BloomFilter) NumBits() uint64 { return f.size }

// Insert adds x to the filter.
func (f *BloomFilter) Insert(x uint64) {
	h1, h2 := hashPair(x, f.seed)
	p := newProbeSequence(h1, h2, f.size, bitBlockMask)
	for i := 0; i < f.hashes; i++ {
		j := p.next()
		f.bits[j>>6] |= 1 << (j & 63)
	}
}

// InsertIfMissing adds x and reports whether any probed bit was previously
// unset, i.e. whether x was missing from the filter.
func (f *BloomFilter) InsertIfMissing(x uint64) bool {
	h1, h2 := hashPair(x, f.seed)
	p := newProbeSequence(h1, h2, f.size, bitBlockMask)
	missing := false
	for i := 0; i < f.hashes; i++ {
		j := p.next()
		mask := uint64(1) << (j & 63)
		if f.bits[j>>6]&mask == 0 {
			missing = true
			f.bits[j>>6] |= mask
		}
	}
	return missing
}

// Contains reports whether x may have been inserted.
func (f *BloomFilter) Contains(x uint64) bool {
	h1, h2 := hashPair(x, f.seed)
	p := newProbeSequence(h1, h2, f.size, bitBlockMask)
	for i := 0; i < f.hashes; i++ {
		j := p.next()
		if f.bits[j>>6]&(1<<(j&63)) == 0 {
			return false
		}
	}
	return true
}
