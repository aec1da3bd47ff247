package correct

// Single-base repair of a weak stretch that has no closing anchor (a weak
// read tail). Each helper mutates position k-1 of c.weakBases, the first
// base past the prefix shared with the last solid kmer, and accepts the
// mutation only if every kmer in a validation window after it is solid and
// no competing mutation also validates.

var baseAlphabet = [4]byte{'A', 'C', 'G', 'T'}

// validateWindow reports whether every kmer of bases is solid. A window
// shorter than one kmer validates trivially.
func (c *Corrector) validateWindow(bases []byte) bool {
	k := c.opts.K
	if len(bases) < k {
		return true
	}
	var (
		kmer Kmer
		mask = kmerMask(k)
	)
	for i, ch := range bases {
		kmer = ((kmer << 2) | Kmer(asciiToBits[ch])) & mask
		if i >= k-1 && !c.oracle.IsSolid(kmer) {
			return false
		}
	}
	return true
}

// trySubstitution replaces the first weak base if exactly one substitution
// makes the validation window solid.
func (c *Corrector) trySubstitution() bool {
	k := c.opts.K
	stop := k - 1 + c.opts.Validation
	if stop > len(c.weakBases) {
		stop = len(c.weakBases)
	}
	window := c.weakBases[:stop]
	prev := window[k-1]
	var good byte
	found := false
	for _, b := range baseAlphabet {
		if b == prev {
			continue
		}
		window[k-1] = b
		if c.validateWindow(window) {
			if found {
				window[k-1] = prev
				return false // ambiguous
			}
			good = b
			found = true
		}
	}
	window[k-1] = prev
	if !found {
		return false
	}
	c.weakBases[k-1] = good
	return true
}

// tryDeletion removes the first weak base if doing so makes the validation
// window solid.
func (c *Corrector) tryDeletion() bool {
	k := c.opts.K
	stop := k - 1 + c.opts.Validation + 1
	if stop > len(c.weakBases) {
		stop = len(c.weakBases)
	}
	c.pathBases = append(c.pathBases[:0], c.weakBases[:k-1]...)
	c.pathBases = append(c.pathBases, c.weakBases[k:stop]...)
	if len(c.pathBases) < k {
		// Unlike the substitution and insertion trials, a deletion has a
		// single candidate, so a window too short to hold a kmer would
		// accept it with no evidence at all.
		return false
	}
	if !c.validateWindow(c.pathBases) {
		return false
	}
	c.weakBases = append(c.weakBases[:k-1], c.weakBases[k:]...)
	return true
}

// tryInsertion inserts a base before the first weak one if exactly one
// choice makes the validation window solid.
func (c *Corrector) tryInsertion() bool {
	k := c.opts.K
	stop := k - 1 + c.opts.Validation - 1
	if stop > len(c.weakBases) {
		stop = len(c.weakBases)
	}
	var good byte
	found := false
	for _, b := range baseAlphabet {
		c.pathBases = append(c.pathBases[:0], c.weakBases[:k-1]...)
		c.pathBases = append(c.pathBases, b)
		c.pathBases = append(c.pathBases, c.weakBases[k-1:stop]...)
		if c.validateWindow(c.pathBases) {
			if found {
				return false // ambiguous
			}
			good = b
			found = true
		}
	}
	if !found {
		return false
	}
	c.weakBases = append(c.weakBases, 0)
	copy(c.weakBases[k:], c.weakBases[k-1:])
	c.weakBases[k-1] = good
	return true
}
