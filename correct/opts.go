package correct

import "github.com/pkg/errors"

// Opts carries the run-wide parameters. An Opts value is passed explicitly
// to every constructor so that build and correction passes are reproducible
// in isolation; nothing in this package reads process-wide state.
type Opts struct {
	// K is the kmer length used for solidity classification and correction.
	K int
	// M is the minimizer length, at most K.
	M int
	// Abundance is the estimated count at or above which a kmer is solid.
	Abundance uint8
	// Validation is the minimum number of solid kmers a correction must be
	// supported by before it is accepted.
	Validation int
	// Hashes is the number of probe positions per Bloom filter element.
	Hashes int
	// Seed is the seed shared by all hash functions of the run.
	Seed uint64
}

// DefaultOpts sets the default values to Opts.
var DefaultOpts = Opts{
	K:          31,     // -k; overridable via BRRR_K
	M:          21,     // -mmer; overridable via BRRR_M
	Abundance:  5,      // -a; earlier configurations shipped 3
	Validation: 3,      // -v
	Hashes:     3,      // -H
	Seed:       101010, // -s
}

// Window returns the width of the minimizer window: the number of M-length
// substrings inside one K-length kmer.
func (o Opts) Window() int { return o.K - o.M + 1 }

// Validate checks the parameter ranges. Any error is fatal at startup,
// before processing begins.
func (o Opts) Validate() error {
	if o.K < 1 || o.K > 32 {
		return errors.Errorf("k-mer length %d out of range [1, 32]", o.K)
	}
	if o.M < 1 || o.M > o.K {
		return errors.Errorf("minimizer length %d out of range [1, %d]", o.M, o.K)
	}
	if o.K%2 == 0 || o.M%2 == 0 {
		return errors.Errorf("k-mer and minimizer lengths must be odd, got k=%d m=%d", o.K, o.M)
	}
	if o.Abundance < 1 {
		return errors.New("abundance threshold must be at least 1")
	}
	if o.Validation < 0 {
		return errors.Errorf("validation threshold %d must not be negative", o.Validation)
	}
	if o.Hashes < 1 {
		return errors.New("hash count must be at least 1")
	}
	return nil
}
