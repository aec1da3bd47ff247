package bloom

import (
	"encoding/binary"

	"github.com/zeebo/xxh3"
)

// hashPair returns two independent 64-bit hash values of x derived from a
// single seed. Every probe position in the filter family is computed from
// this pair, so a whole run is reproducible from one seed. The pair is a
// pure function of (x, seed); concurrent inserts of the same element from
// different goroutines touch the same slots and commute.
func hashPair(x, seed uint64) (h1, h2 uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], x)
	h := xxh3.Hash128Seed(buf[:], seed)
	return h.Hi, h.Lo
}

// probeSequence iterates the block-local probe positions for the hash pair
// (h1, h2) in an array of the given size. The first position is h1 % size;
// the remaining ones stay inside the same block, stepping by h2. blockMask
// must be a power of two minus one.
type probeSequence struct {
	base  uint64 // block base address
	local uint64 // offset of the previous probe
	step  uint64 // derived from h2
	mask  uint64 // block mask
	first uint64 // first probe position
	i     int    // probes emitted so far
}

func newProbeSequence(h1, h2, size, blockMask uint64) probeSequence {
	u := h1 % size
	return probeSequence{
		base:  u &^ blockMask,
		local: u,
		step:  h2,
		mask:  blockMask,
		first: u,
	}
}

func (p *probeSequence) next() uint64 {
	p.i++
	if p.i == 1 {
		return p.first
	}
	p.local = (p.local + p.step) & p.mask
	return p.base | p.local
}
