package correct

// maxFrontier bounds how many kmers one side of the bidirectional search may
// hold at a single depth. A repeat-dense region can branch at every step;
// past this budget the stretch is left uncorrected instead of burning time.
const maxFrontier = 1024

// Corrector rewrites the weak stretches of a read that are bounded by solid
// anchor kmers, when a unique solid path reconnecting the anchors exists.
// Each worker owns a Corrector; the shared Oracle is read-only during the
// correction pass.
type Corrector struct {
	opts   Opts
	oracle *Oracle

	// scratch, reused across reads
	weakBases []byte
	pathBases []byte
	forward   []Kmer
	backward  []Kmer
	fset      map[Kmer]struct{}
	bset      map[Kmer]struct{}
}

// NewCorrector returns a correction-pass worker over the oracle.
func NewCorrector(oracle *Oracle) *Corrector {
	return &Corrector{
		opts:   oracle.Opts(),
		oracle: oracle,
		fset:   map[Kmer]struct{}{},
		bset:   map[Kmer]struct{}{},
	}
}

// Correct appends the corrected form of seq to buf and returns it along
// with per-read stats. The read is rewritten stretch by stretch: a maximal
// run of weak kmers bounded by solid anchors is replaced by the unique
// validated solid path between the anchors when one exists within budget,
// and left untouched otherwise. A read is never partially rewritten: each
// stretch is either replaced whole or copied through verbatim.
func (c *Corrector) Correct(seq, buf []byte) ([]byte, Stats) {
	var (
		stats = Stats{Reads: 1}
		k     = c.opts.K
		kmask = kmerMask(k)

		kmer  Kmer
		valid int

		lastSolid  Kmer
		haveAnchor bool
		errorSize  int
	)
	c.weakBases = c.weakBases[:0]
	for _, ch := range seq {
		b := asciiToBits[ch]
		if b == invalidBaseBits {
			// Hard break: flush any weak tail untouched, emit the symbol,
			// and restart kmer accumulation after it.
			buf = c.flushWeak(buf, errorSize)
			errorSize = 0
			haveAnchor = false
			valid = 0
			buf = append(buf, ch)
			continue
		}
		kmer = ((kmer << 2) | Kmer(b)) & kmask
		valid++
		if valid < k {
			// Warmup after a break: bases before the first whole kmer are
			// emitted as is.
			buf = append(buf, bitsToAscii[b])
			continue
		}
		solid := c.oracle.IsSolid(kmer)
		switch {
		case solid && errorSize == 0:
			buf = append(buf, bitsToAscii[b])
			lastSolid = kmer
			haveAnchor = true
		case !solid && errorSize == 0:
			errorSize = 1
			c.weakBases = appendBases(c.weakBases[:0], kmer, k)
		case !solid:
			errorSize++
			c.weakBases = append(c.weakBases, bitsToAscii[b])
		default: // solid, closing a weak stretch
			if haveAnchor && errorSize >= k-1 && errorSize <= 2*k-1 {
				stats.Errors++
				if c.bridge(lastSolid, kmer, errorSize+1) {
					stats.Corrections++
				}
			}
			buf = append(buf, c.weakBases[k-1:]...)
			errorSize = 0
			buf = append(buf, bitsToAscii[b])
			lastSolid = kmer
			haveAnchor = true
		}
	}
	if errorSize > 0 && haveAnchor {
		// Weak tail with no right anchor: try a single-base repair at the
		// first weak position, validated over the following kmers.
		if c.trySubstitution() || c.tryInsertion() || c.tryDeletion() {
			stats.Errors++
			stats.Corrections++
		}
	}
	buf = c.flushWeak(buf, errorSize)
	return buf, stats
}

// flushWeak emits the pending weak bases past the k-1 prefix that was
// already emitted as part of the previous anchor.
func (c *Corrector) flushWeak(buf []byte, errorSize int) []byte {
	if errorSize > 0 {
		buf = append(buf, c.weakBases[c.opts.K-1:]...)
		c.weakBases = c.weakBases[:0]
	}
	return buf
}

// bridge searches for a solid path of at most maxDist extensions from
// source to target and, if a validated one is found, rewrites c.weakBases
// to follow it. It reports whether a rewrite happened.
func (c *Corrector) bridge(source, target Kmer, maxDist int) bool {
	middle, d0, d1, ok := c.findPath(source, target, maxDist)
	if !ok {
		return false
	}
	// All path kmers are solid by construction; require enough of them
	// between the anchors to rule out a bridge through a handful of filter
	// false positives.
	if d0+d1-1 < c.opts.Validation {
		return false
	}
	// The replacement is source bases 1..d0, the meeting kmer, then target
	// bases k-d1..k-1: consecutive path kmers overlap by k-1 bases, so the
	// whole path collapses to this concatenation.
	k := c.opts.K
	w := c.weakBases[:0]
	if d0 > 1 {
		w = appendBases(w, (source>>uint(2*(k-d0)))&kmerMask(d0-1), d0-1)
	}
	w = appendBases(w, middle, k)
	if d1 > 1 {
		w = appendBases(w, (target>>2)&kmerMask(d1-1), d1-1)
	}
	c.weakBases = w
	return true
}

// findPath runs a bidirectional breadth-first search over the implicit
// graph whose nodes are solid kmers and whose edges connect kmers
// overlapping by k-1 bases. Frontiers grow from both anchors, alternating
// one depth at a time, until they meet or the depth budget runs out. It
// returns the meeting kmer and the depths from source and target. When
// several meeting kmers surface at the same combined depth, the smallest
// packed value wins: packed order is lexicographic base order, so the
// choice is deterministic and reproducible for a given seed and filters.
func (c *Corrector) findPath(source, target Kmer, maxDist int) (middle Kmer, d0, d1 int, ok bool) {
	half := maxDist - maxDist/2
	c.forward = append(c.forward[:0], source)
	c.backward = append(c.backward[:0], target)
	resetSet(c.fset, source)
	resetSet(c.bset, target)

	var meet []Kmer
	for i := 0; i < half; i++ {
		if !c.expand(&c.forward, c.fset, false) {
			return 0, 0, 0, false
		}
		if meet = intersect(c.forward, c.bset, meet[:0]); len(meet) > 0 {
			d0, d1 = i+1, i
			break
		}
		if !c.expand(&c.backward, c.bset, true) {
			return 0, 0, 0, false
		}
		if meet = intersect(c.backward, c.fset, meet[:0]); len(meet) > 0 {
			d0, d1 = i+1, i+1
			break
		}
	}
	if len(meet) == 0 {
		return 0, 0, 0, false
	}
	middle = meet[0]
	for _, m := range meet[1:] {
		if m < middle {
			middle = m
		}
	}
	return middle, d0, d1, true
}

// expand replaces frontier with the next depth: the solid single-base
// extensions of its kmers, deduplicated through set. It reports false when
// the frontier dies out or outgrows the budget.
func (c *Corrector) expand(frontier *[]Kmer, set map[Kmer]struct{}, backwards bool) bool {
	var ext [4]Kmer
	cur := *frontier
	next := cur[len(cur):]
	for _, km := range cur {
		if backwards {
			predecessors(km, c.opts.K, &ext)
		} else {
			successors(km, c.opts.K, &ext)
		}
		for _, e := range ext {
			if _, seen := set[e]; seen {
				continue
			}
			if !c.oracle.IsSolid(e) {
				continue
			}
			set[e] = struct{}{}
			next = append(next, e)
		}
	}
	// set now holds exactly the new depth for the meeting test.
	for k := range set {
		delete(set, k)
	}
	for _, e := range next {
		set[e] = struct{}{}
	}
	*frontier = append((*frontier)[:0], next...)
	return len(next) > 0 && len(next) <= maxFrontier
}

func resetSet(set map[Kmer]struct{}, k Kmer) {
	for e := range set {
		delete(set, e)
	}
	set[k] = struct{}{}
}

// intersect appends to dst the kmers of frontier present in set.
func intersect(frontier []Kmer, set map[Kmer]struct{}, dst []Kmer) []Kmer {
	for _, k := range frontier {
		if _, ok := set[k]; ok {
			dst = append(dst, k)
		}
	}
	return dst
}
