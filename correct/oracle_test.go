package correct

import (
	"testing"

	"github.com/grailbio/testutil/expect"
	"github.com/imartayan/BRRR/bloom"
)

// newTestOracle wires an oracle to in-process counting filters the way the
// CLI does: the minimizer counter is seeded with seed+M, the kmer counter
// with seed+K.
func newTestOracle(opts Opts, size uint64) *Oracle {
	minCounts := bloom.NewCountingBloomFilter(size, opts.Hashes, opts.Seed+uint64(opts.M))
	kmerCounts := bloom.NewCountingBloomFilter(size, opts.Hashes, opts.Seed+uint64(opts.K))
	return NewOracle(opts, minCounts, kmerCounts)
}

func observeTimes(o *Oracle, seq []byte, times int) {
	ob := o.NewObserver()
	for i := 0; i < times; i++ {
		ob.Observe(seq)
	}
}

func TestOracleThresholdSplit(t *testing.T) {
	opts := DefaultOpts
	opts.Abundance = 5
	o := newTestOracle(opts, 1<<16)
	expect.EQ(t, o.minThreshold, uint8(3))
	expect.EQ(t, o.kmerThreshold, uint8(3))

	opts.Abundance = 3
	o = newTestOracle(opts, 1<<16)
	expect.EQ(t, o.minThreshold, uint8(2))
	expect.EQ(t, o.kmerThreshold, uint8(2))

	// The top of the flag range must not wrap to zero thresholds, which
	// would classify every kmer solid.
	opts.Abundance = 255
	o = newTestOracle(opts, 1<<16)
	expect.EQ(t, o.minThreshold, uint8(128))
	expect.EQ(t, o.kmerThreshold, uint8(128))
	expect.False(t, o.IsSolid(kmerFromBases([]byte("ACGTACGTACGTACGTACGTACGTACGTACG"))))
}

func TestOracleSolidAfterRepeatedObservation(t *testing.T) {
	opts := DefaultOpts
	opts.Abundance = 3
	read := []byte("ACGTACGTACGTACGTACGTACGTACGTACG") // one whole 31-mer
	o := newTestOracle(opts, 1<<20)
	observeTimes(o, read, 5)
	k := kmerFromBases(read)
	expect.True(t, o.IsSolid(k))
	expect.True(t, o.IsSolid(reverseComplement(k, opts.K)), "solidity must be strand-symmetric")
}

func TestOracleWeakWithoutObservation(t *testing.T) {
	opts := DefaultOpts
	opts.Abundance = 3
	o := newTestOracle(opts, 1<<20)
	observeTimes(o, []byte("ACGTACGTACGTACGTACGTACGTACGTACG"), 5)
	expect.False(t, o.IsSolid(kmerFromBases([]byte("TTTTTTTTTTTTTTTTTTTTTTTTTTTTTTT"))))
}

func TestOracleSingleObservationStaysWeak(t *testing.T) {
	opts := DefaultOpts
	opts.Abundance = 3
	read := []byte("ACGTACGTACGTACGTACGTACGTACGTACG")
	o := newTestOracle(opts, 1<<20)
	observeTimes(o, read, 1)
	// The minimizer has been seen once, below its threshold, so the kmer
	// was never counted.
	expect.False(t, o.IsSolid(kmerFromBases(read)))
}

func TestOracleObserveBreaksAtN(t *testing.T) {
	opts := DefaultOpts
	opts.Abundance = 3
	left := "ACGTACGTACGTACGTACGTACGTACGTACG"
	right := "GATTACAGATTACAGATTACAGATTACAGAT"
	read := []byte(left + "N" + right)
	o := newTestOracle(opts, 1<<20)
	observeTimes(o, read, 5)
	expect.True(t, o.IsSolid(kmerFromBases([]byte(left))))
	expect.True(t, o.IsSolid(kmerFromBases([]byte(right))))
}

func TestOracleShardedCountersMatchContract(t *testing.T) {
	opts := DefaultOpts
	opts.Abundance = 3
	minCounts := bloom.NewShardedCountingBloomFilter(1<<20, opts.Hashes, opts.Seed+uint64(opts.M), 8)
	kmerCounts := bloom.NewShardedCountingBloomFilter(1<<20, opts.Hashes, opts.Seed+uint64(opts.K), 8)
	o := NewOracle(opts, minCounts, kmerCounts)
	read := []byte("ACGTACGTACGTACGTACGTACGTACGTACG")
	observeTimes(o, read, 5)
	expect.True(t, o.IsSolid(kmerFromBases(read)))
}
