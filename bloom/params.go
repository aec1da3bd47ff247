package bloom

import "math"

const (
	ln2        = 0.6931471805599453
	ln2Squared = 0.4804530139182014
)

// OptimalParams returns the bit count and probe count for a filter expected
// to hold n distinct elements with false-positive rate p. The bit count is
// rounded up to a whole number of blocks by the constructors.
func OptimalParams(n uint64, p float64) (bits uint64, hashes int) {
	if n == 0 {
		n = 1
	}
	if p <= 0 {
		p = 1e-4
	}
	if p >= 1 {
		p = 0.99
	}
	bitsPerItem := -math.Log(p) / ln2Squared
	bits = uint64(math.Ceil(bitsPerItem * float64(n)))
	hashes = int(math.Round(bitsPerItem * ln2))
	if hashes < 1 {
		hashes = 1
	}
	if hashes > 8 {
		hashes = 8
	}
	return bits, hashes
}

// FalsePositiveRate estimates the false-positive rate of a filter of m bits
// and k probes after n insertions: (1 - e^(-kn/m))^k.
func FalsePositiveRate(m uint64, k int, n uint64) float64 {
	if m == 0 || n == 0 {
		return 0
	}
	kf := float64(k)
	return math.Pow(1-math.Exp(-kf*float64(n)/float64(m)), kf)
}

// roundUpTo rounds n up to the next multiple of unit, which must be a power
// of two. A zero n is rounded to one unit so filters are never empty.
func roundUpTo(n, unit uint64) uint64 {
	if n < unit {
		return unit
	}
	return (n + unit - 1) &^ (unit - 1)
}
