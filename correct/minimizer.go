package correct

import (
	"encoding/binary"

	farm "github.com/dgryski/go-farm"
)

// MinimizerQueue selects the minimum-hash m-mer of a sliding window in O(1)
// amortized time. It is a monotone queue: candidates are kept in increasing
// hash order, so the front always holds the current window minimum, entries
// that can never win again are discarded from the back, and every candidate
// is pushed and popped at most once. Not safe for concurrent use; each
// worker owns its queue.
type MinimizerQueue struct {
	window int
	seed   uint64

	// Ring buffer of at most window candidates. head indexes the current
	// minimum; pos counts insertions modulo window, so the front expires
	// exactly when the window slides past it.
	buf  []minimizerCandidate
	head int
	n    int
	pos  uint8
}

type minimizerCandidate struct {
	mmer Kmer
	hash uint64
	pos  uint8
}

// NewMinimizerQueue returns a queue over windows of the given width, using
// the seed for the candidate ordering hash.
func NewMinimizerQueue(window int, seed uint64) *MinimizerQueue {
	return &MinimizerQueue{
		window: window,
		seed:   seed,
		buf:    make([]minimizerCandidate, window),
	}
}

// Reset discards all window state. It must be called at every read boundary
// so no candidate leaks across reads.
func (q *MinimizerQueue) Reset() {
	q.head = 0
	q.n = 0
	q.pos = 0
}

// Len returns the number of live candidates.
func (q *MinimizerQueue) Len() int { return q.n }

// Min returns the minimizer of the current window. The queue must not be
// empty, i.e. at least one full window must have been inserted since the
// last Reset.
func (q *MinimizerQueue) Min() Kmer {
	if q.n == 0 {
		panic("MinimizerQueue is empty")
	}
	return q.buf[q.head].mmer
}

func (q *MinimizerQueue) hash(m Kmer) uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(m))
	return farm.Hash64WithSeed(buf[:], q.seed)
}

// Insert slides the window one position to include m: the front is dropped
// if it just expired, then every back entry with a hash no smaller than m's
// is discarded before m is appended.
func (q *MinimizerQueue) Insert(m Kmer) {
	if q.n > 0 && q.buf[q.head].pos == q.pos {
		q.head = (q.head + 1) % q.window
		q.n--
	}
	h := q.hash(m)
	for q.n > 0 && q.buf[(q.head+q.n-1)%q.window].hash >= h {
		q.n--
	}
	q.buf[(q.head+q.n)%q.window] = minimizerCandidate{mmer: m, hash: h, pos: q.pos}
	q.n++
	q.pos = (q.pos + 1) % uint8(q.window)
}
