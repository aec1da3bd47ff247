package correct

import "math/bits"

// Kmer is a compact 2-bit encoding of a sequence of ACGT, up to 32 bases.
// The first base of the sequence occupies the highest used bit pair.
type Kmer uint64

const invalidBaseBits = uint8(255)

var (
	asciiToBits   [256]uint8
	asciiToRCBits [256]uint8
	bitsToAscii   = [4]byte{'A', 'C', 'G', 'T'}
)

func init() {
	for i := range asciiToBits {
		asciiToBits[i] = invalidBaseBits
		asciiToRCBits[i] = invalidBaseBits
	}
	asciiToBits['A'] = 0
	asciiToBits['a'] = 0
	asciiToBits['C'] = 1
	asciiToBits['c'] = 1
	asciiToBits['G'] = 2
	asciiToBits['g'] = 2
	asciiToBits['T'] = 3
	asciiToBits['t'] = 3

	asciiToRCBits['A'] = 3
	asciiToRCBits['a'] = 3
	asciiToRCBits['C'] = 2
	asciiToRCBits['c'] = 2
	asciiToRCBits['G'] = 1
	asciiToRCBits['g'] = 1
	asciiToRCBits['T'] = 0
	asciiToRCBits['t'] = 0
}

// kmerMask covers the low 2*length bits holding a length-base kmer.
func kmerMask(length int) Kmer {
	return ^(^Kmer(0) << uint(2*length))
}

// kmerFromBases packs an ASCII base string. It panics on non-ACGT input;
// callers streaming raw sequence data use kmerScanner instead, which skips
// invalid symbols.
func kmerFromBases(seq []byte) Kmer {
	var k Kmer
	for _, c := range seq {
		b := asciiToBits[c]
		if b == invalidBaseBits {
			panic("kmerFromBases: invalid base " + string(c))
		}
		k = (k << 2) | Kmer(b)
	}
	return k
}

// appendBases appends the ASCII bases of a length-base kmer to dst.
func appendBases(dst []byte, k Kmer, length int) []byte {
	for i := length - 1; i >= 0; i-- {
		dst = append(dst, bitsToAscii[(k>>uint(2*i))&3])
	}
	return dst
}

// reverseComplement returns the reverse complement of a length-base kmer.
func reverseComplement(k Kmer, length int) Kmer {
	k = ^k
	k = ((k >> 2) & 0x3333333333333333) | ((k & 0x3333333333333333) << 2)
	k = ((k >> 4) & 0x0f0f0f0f0f0f0f0f) | ((k & 0x0f0f0f0f0f0f0f0f) << 4)
	k = Kmer(bits.ReverseBytes64(uint64(k)))
	return k >> uint(64-2*length)
}

// canonical returns the smaller of a kmer and its reverse complement. With
// an odd length no kmer equals its own reverse complement, so the canonical
// form identifies a kmer and its complement strand unambiguously.
func canonical(k Kmer, length int) Kmer {
	if rc := reverseComplement(k, length); rc < k {
		return rc
	}
	return k
}

// minKmer returns the smaller of two precomputed strands.
func minKmer(forward, rc Kmer) Kmer {
	if rc < forward {
		return rc
	}
	return forward
}

// successors writes the four right extensions of a length-base kmer (drop
// the first base, append one) into dst.
func successors(k Kmer, length int, dst *[4]Kmer) {
	base := (k << 2) & kmerMask(length)
	for b := Kmer(0); b < 4; b++ {
		dst[b] = base | b
	}
}

// predecessors writes the four left extensions of a length-base kmer (drop
// the last base, prepend one) into dst.
func predecessors(k Kmer, length int, dst *[4]Kmer) {
	base := k >> 2
	shift := uint(2 * (length - 1))
	for b := Kmer(0); b < 4; b++ {
		dst[b] = base | b<<shift
	}
}

// kmerScanner yields the forward and reverse-complement kmers at every
// position of a sequence, restarting after any non-ACGT symbol so that no
// kmer spans one. The scanner is resettable across reads.
type kmerScanner struct {
	length int
	mask   Kmer

	seq   []byte
	si    int // index of the next unread symbol
	valid int // valid symbols consumed since the last break

	forward Kmer
	rc      Kmer
	pos     int // start position of the current kmer
}

func newKmerScanner(length int) *kmerScanner {
	return &kmerScanner{length: length, mask: kmerMask(length)}
}

func (s *kmerScanner) Reset(seq []byte) {
	s.seq = seq
	s.si = 0
	s.valid = 0
}

// Scan advances to the next kmer. It returns false when the sequence is
// exhausted.
func (s *kmerScanner) Scan() bool {
	for s.si < len(s.seq) {
		c := s.seq[s.si]
		b := asciiToBits[c]
		if b == invalidBaseBits {
			s.valid = 0
			s.si++
			continue
		}
		s.forward = ((s.forward << 2) | Kmer(b)) & s.mask
		s.rc = (s.rc >> 2) | Kmer(asciiToRCBits[c])<<uint(2*(s.length-1))
		s.si++
		s.valid++
		if s.valid >= s.length {
			s.pos = s.si - s.length
			return true
		}
	}
	return false
}

// Kmer returns the forward strand of the current kmer.
func (s *kmerScanner) Kmer() Kmer { return s.forward }

// RC returns the reverse complement of the current kmer.
func (s *kmerScanner) RC() Kmer { return s.rc }

// Canonical returns the canonical form of the current kmer.
func (s *kmerScanner) Canonical() Kmer { return minKmer(s.forward, s.rc) }

// Pos returns the start offset of the current kmer in the sequence.
func (s *kmerScanner) Pos() int { return s.pos }
