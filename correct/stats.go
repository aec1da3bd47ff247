package correct

import "fmt"

// Stats counts per-read correction outcomes. Workers accumulate their own
// Stats and the caller merges them.
type Stats struct {
	// Reads is the number of reads processed.
	Reads int
	// Errors is the number of weak stretches bounded by solid anchors.
	Errors int
	// Corrections is the number of stretches rewritten from a validated
	// solid path.
	Corrections int
}

// Merge returns the element-wise sum of s and other.
func (s Stats) Merge(other Stats) Stats {
	s.Reads += other.Reads
	s.Errors += other.Errors
	s.Corrections += other.Corrections
	return s
}

func (s Stats) String() string {
	return fmt.Sprintf("reads: %d, errors: %d, corrections: %d", s.Reads, s.Errors, s.Corrections)
}
