// Package bloom implements the probabilistic membership and counting
// structures used to estimate k-mer abundance: a cache-block-local Bloom
// filter, a counting variant with saturating 8-bit slots, a cascading
// variant that layers plain filters to bucket abundance, and lock-free
// sharded versions of all three for concurrent construction.
//
// All filters key on uint64 values (packed k-mers). Probe positions are
// derived from a single seeded 128-bit hash by double hashing, and every
// probe for one element lands in the same block of the backing array, so a
// query costs one cache-line-sized fetch regardless of the probe count.
// Filters are sized at construction and never resized; there is no delete.
package bloom
