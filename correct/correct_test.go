package correct

import (
	"math/rand"
	"testing"

	"github.com/grailbio/testutil/expect"
	"github.com/imartayan/BRRR/util"
	"github.com/stretchr/testify/require"
)

func randomSeq(rng *rand.Rand, n int) []byte {
	seq := make([]byte, n)
	for i := range seq {
		seq[i] = bitsToAscii[rng.Intn(4)]
	}
	return seq
}

func substituted(seq []byte, pos int) []byte {
	out := append([]byte(nil), seq...)
	out[pos] = bitsToAscii[(asciiToBits[seq[pos]]+1)%4]
	return out
}

// testCorrector builds an oracle that has seen ref five times with
// abundance threshold 3, so every kmer of ref is solid.
func testCorrector(t *testing.T, ref []byte) *Corrector {
	opts := DefaultOpts
	opts.Abundance = 3
	require.NoError(t, opts.Validate())
	o := newTestOracle(opts, 1<<20)
	observeTimes(o, ref, 5)
	return NewCorrector(o)
}

func TestCorrectSolidReadUnchanged(t *testing.T) {
	read := []byte("ACGTACGTACGTACGTACGTACGTACGTACG")
	c := testCorrector(t, read)
	out, stats := c.Correct(read, nil)
	expect.EQ(t, string(out), string(read))
	expect.EQ(t, stats, Stats{Reads: 1})
}

func TestCorrectSubstitution(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	ref := randomSeq(rng, 120)
	c := testCorrector(t, ref)
	read := substituted(ref, 60)
	out, stats := c.Correct(read, nil)
	expect.EQ(t, string(out), string(ref))
	expect.EQ(t, stats, Stats{Reads: 1, Errors: 1, Corrections: 1})
}

func TestCorrectIdempotent(t *testing.T) {
	rng := rand.New(rand.NewSource(6))
	ref := randomSeq(rng, 120)
	c := testCorrector(t, ref)
	once, _ := c.Correct(substituted(ref, 60), nil)
	twice, stats := c.Correct(once, nil)
	expect.EQ(t, string(twice), string(once))
	expect.EQ(t, stats, Stats{Reads: 1})
}

func TestCorrectOversizedErrorUnchanged(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	ref := randomSeq(rng, 160)
	c := testCorrector(t, ref)
	// Scramble 45 consecutive bases: the weak stretch exceeds the 2k-1
	// search range, so the read must come back untouched.
	read := append([]byte(nil), ref...)
	for i := 60; i < 105; i++ {
		read[i] = bitsToAscii[asciiToBits[read[i]]^3] // complement in place
	}
	out, stats := c.Correct(read, nil)
	expect.EQ(t, string(out), string(read))
	expect.EQ(t, stats.Corrections, 0)
}

func TestCorrectTailSubstitution(t *testing.T) {
	rng := rand.New(rand.NewSource(8))
	ref := randomSeq(rng, 120)
	c := testCorrector(t, ref)
	// A substitution near the end has no closing anchor; the single-base
	// repair path must fix it.
	read := substituted(ref[:90], 85)
	out, stats := c.Correct(read, nil)
	expect.EQ(t, string(out), string(ref[:90]))
	expect.EQ(t, stats.Corrections, 1)
}

func TestCorrectTailInsertion(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	ref := randomSeq(rng, 120)
	c := testCorrector(t, ref)
	// Drop base 85: the repair must reinsert it.
	read := append([]byte(nil), ref[:85]...)
	read = append(read, ref[86:90]...)
	out, _ := c.Correct(read, nil)
	expect.EQ(t, string(out), string(ref[:90]))
}

func TestCorrectReadWithN(t *testing.T) {
	rng := rand.New(rand.NewSource(10))
	ref := randomSeq(rng, 120)
	c := testCorrector(t, ref)
	read := append([]byte(nil), ref[:60]...)
	read = append(read, 'N')
	read = append(read, ref[60:]...)
	out, _ := c.Correct(read, nil)
	expect.EQ(t, string(out), string(read))
}

func TestCorrectUnknownReadUnchanged(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	ref := randomSeq(rng, 120)
	c := testCorrector(t, ref)
	other := randomSeq(rng, 80)
	out, stats := c.Correct(other, nil)
	expect.EQ(t, string(out), string(other))
	expect.EQ(t, stats.Corrections, 0)
}

func TestCorrectShortRead(t *testing.T) {
	c := testCorrector(t, []byte("ACGTACGTACGTACGTACGTACGTACGTACG"))
	out, _ := c.Correct([]byte("ACGTACG"), nil)
	expect.EQ(t, string(out), "ACGTACG")
	out, _ = c.Correct(nil, nil)
	expect.EQ(t, len(out), 0)
}

func TestCorrectReusesBuffer(t *testing.T) {
	rng := rand.New(rand.NewSource(12))
	ref := randomSeq(rng, 120)
	c := testCorrector(t, ref)
	buf := make([]byte, 0, 256)
	out1, _ := c.Correct(substituted(ref, 60), buf)
	expect.EQ(t, string(out1), string(ref))
	out2, _ := c.Correct(ref, out1[:0])
	expect.EQ(t, string(out2), string(ref))
}

func TestStatsMerge(t *testing.T) {
	a := Stats{Reads: 1, Errors: 2, Corrections: 1}
	b := Stats{Reads: 3, Errors: 1, Corrections: 1}
	expect.EQ(t, a.Merge(b), Stats{Reads: 4, Errors: 3, Corrections: 2})
	expect.EQ(t, a.Merge(Stats{}), a)
}

func TestOptsValidate(t *testing.T) {
	expect.NoError(t, DefaultOpts.Validate())

	bad := DefaultOpts
	bad.M = 33
	expect.NotNil(t, bad.Validate())

	bad = DefaultOpts
	bad.K = 33
	expect.NotNil(t, bad.Validate())

	bad = DefaultOpts
	bad.K = 30
	expect.NotNil(t, bad.Validate(), "even k must be rejected")

	bad = DefaultOpts
	bad.Hashes = 0
	expect.NotNil(t, bad.Validate())

	bad = DefaultOpts
	bad.Abundance = 0
	expect.NotNil(t, bad.Validate())
}

// TestCorrectWeakHeadUnchanged: an error inside the first kmer leaves the
// read with no left anchor, so repair cannot trigger and the head passes
// through verbatim.
func TestCorrectWeakHeadUnchanged(t *testing.T) {
	rng := rand.New(rand.NewSource(10))
	ref := randomSeq(rng, 120)
	c := testCorrector(t, ref)
	read := substituted(ref, 10)
	out, stats := c.Correct(read, nil)
	expect.EQ(t, string(out), string(read))
	expect.EQ(t, stats, Stats{Reads: 1})
}

// TestCorrectNeverWorsens corrects a batch of single-error reads and checks
// that every output is at least as close to the reference as its input, and
// that the batch as a whole got strictly closer.
func TestCorrectNeverWorsens(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	ref := randomSeq(rng, 150)
	c := testCorrector(t, ref)
	before, after := 0, 0
	for i := 0; i < 20; i++ {
		read := substituted(ref, 32+rng.Intn(len(ref)-64))
		out, _ := c.Correct(read, nil)
		db := util.Levenshtein(read, ref)
		da := util.Levenshtein(out, ref)
		expect.LE(t, da, db)
		before += db
		after += da
	}
	expect.True(t, after < before, "distance %d not reduced from %d", after, before)
}
