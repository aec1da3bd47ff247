// Package correct implements k-mer based read correction: a packed k-mer
// codec, a monotone sliding-window minimizer queue, an abundance oracle
// backed by the bloom package, and the bidirectional-search corrector that
// rewrites weak stretches of a read between solid anchors.
package correct
