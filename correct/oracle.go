package correct

import "github.com/imartayan/BRRR/bloom"

// Oracle classifies kmers as solid or weak from approximate abundance. Two
// counters back it: one over canonical minimizers and one over canonical
// kmers. During the build pass a kmer is only counted when its window
// minimizer is already solid, so the cheap minimizer counter filters the
// bulk of sequencing noise before it reaches the kmer counter. The
// abundance threshold is split between the two stages.
//
// With sharded counters the Oracle is safe for concurrent observation;
// classification is read-only and always safe once the build pass is done.
type Oracle struct {
	opts       Opts
	minCounts  bloom.Counter
	kmerCounts bloom.Counter

	minThreshold  uint8
	kmerThreshold uint8
}

// NewOracle returns an Oracle over the given counters. minCounts receives
// canonical M-mers, kmerCounts canonical K-mers.
func NewOracle(opts Opts, minCounts, kmerCounts bloom.Counter) *Oracle {
	// Split in int: abundance 255 would wrap the +1 in uint8 and zero both
	// thresholds, classifying every kmer solid.
	minThreshold := (int(opts.Abundance) + 1) / 2
	return &Oracle{
		opts:          opts,
		minCounts:     minCounts,
		kmerCounts:    kmerCounts,
		minThreshold:  uint8(minThreshold),
		kmerThreshold: uint8(int(opts.Abundance) + 1 - minThreshold),
	}
}

// Opts returns the configuration the oracle was built with.
func (o *Oracle) Opts() Opts { return o.opts }

// IsSolid reports whether the kmer's estimated abundance reaches the
// solidity threshold. The kmer may be given on either strand.
func (o *Oracle) IsSolid(k Kmer) bool {
	return o.kmerCounts.Count(uint64(canonical(k, o.opts.K))) >= o.kmerThreshold
}

// Observer streams reads into an Oracle during the build pass. Each worker
// owns one Observer; the underlying counters are shared.
type Observer struct {
	oracle *Oracle
	queue  *MinimizerQueue
}

// NewObserver returns a build-pass worker state for the oracle.
func (o *Oracle) NewObserver() *Observer {
	return &Observer{
		oracle: o,
		queue:  NewMinimizerQueue(o.opts.Window(), o.opts.Seed+uint64(o.opts.Window())),
	}
}

// Observe counts the canonical minimizers of seq and, for every window
// whose minimizer is solid, the canonical kmer. Non-ACGT symbols are hard
// breaks: no kmer or minimizer spans one.
func (ob *Observer) Observe(seq []byte) {
	var (
		o     = ob.oracle
		k     = o.opts.K
		m     = o.opts.M
		kmask = kmerMask(k)
		mmask = kmerMask(m)

		kmer, krc Kmer
		mmer, mrc Kmer
		valid     int

		prevMin  Kmer
		havePrev bool
		minSolid bool
	)
	ob.queue.Reset()
	for _, c := range seq {
		b := asciiToBits[c]
		if b == invalidBaseBits {
			valid = 0
			havePrev = false
			ob.queue.Reset()
			continue
		}
		mmer = ((mmer << 2) | Kmer(b)) & mmask
		mrc = (mrc >> 2) | Kmer(asciiToRCBits[c])<<uint(2*(m-1))
		kmer = ((kmer << 2) | Kmer(b)) & kmask
		krc = (krc >> 2) | Kmer(asciiToRCBits[c])<<uint(2*(k-1))
		valid++
		if valid < m {
			continue
		}
		ob.queue.Insert(minKmer(mmer, mrc))
		if valid < k {
			continue
		}
		// One count per run of windows sharing a minimizer, as a window
		// slide usually keeps the minimizer.
		min := ob.queue.Min()
		if !havePrev || min != prevMin {
			minSolid = o.minCounts.AddAndCount(uint64(min)) >= o.minThreshold
			prevMin = min
			havePrev = true
		}
		if minSolid {
			o.kmerCounts.Add(uint64(minKmer(kmer, krc)))
		}
	}
}
