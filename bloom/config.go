package bloom

import "github.com/pkg/errors"

// Compile-time checks that every filter kind presents the surface callers
// configure against.
var (
	_ Membership = (*BloomFilter)(nil)
	_ Membership = (*ShardedBloomFilter)(nil)
	_ Membership = (*CascadingBloomFilter)(nil)
	_ Membership = (*ShardedCascadingBloomFilter)(nil)
	_ Counter    = (*CountingBloomFilter)(nil)
	_ Counter    = (*ShardedCountingBloomFilter)(nil)
	_ Counter    = (*CascadingBloomFilter)(nil)
	_ Counter    = (*ShardedCascadingBloomFilter)(nil)
)

// Kind selects the abundance structure backing a Counter.
type Kind int

const (
	// Counting uses one saturating byte counter per slot.
	Counting Kind = iota
	// Cascading layers bit filters; counts saturate at the level count but
	// each bucket costs a bit array instead of a byte per slot.
	Cascading
)

func (k Kind) String() string {
	switch k {
	case Counting:
		return "counting"
	case Cascading:
		return "cascading"
	}
	return "unknown"
}

// ParseKind parses the CLI spelling of a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "counting":
		return Counting, nil
	case "cascading":
		return Cascading, nil
	}
	return 0, errors.Errorf("unknown filter kind %q (want counting or cascading)", s)
}

// CounterConfig selects and sizes a Counter implementation.
type CounterConfig struct {
	Kind   Kind
	Size   uint64 // slots for Counting, bits of the first level for Cascading
	Levels int    // abundance buckets for Cascading
	Hashes int
	Seed   uint64
	// Shards > 0 selects the concurrent sharded implementation with that
	// many shards (rounded up to a power of two); 0 selects the
	// single-goroutine one.
	Shards int
}

// NewCounter builds the Counter described by cfg. The sharded and
// single-goroutine variants of a kind share the same contract (never
// undercount, saturate the same way); only their memory layout and
// synchronization differ.
func NewCounter(cfg CounterConfig) Counter {
	switch cfg.Kind {
	case Cascading:
		if cfg.Shards > 0 {
			return NewShardedCascadingBloomFilterHalving(cfg.Size, cfg.Levels, cfg.Hashes, cfg.Seed, cfg.Shards)
		}
		return NewCascadingBloomFilterHalving(cfg.Size, cfg.Levels, cfg.Hashes, cfg.Seed)
	default:
		if cfg.Shards > 0 {
			return NewShardedCountingBloomFilter(cfg.Size, cfg.Hashes, cfg.Seed, cfg.Shards)
		}
		return NewCountingBloomFilter(cfg.Size, cfg.Hashes, cfg.Seed)
	}
}
