// Package transform holds the pure, strategy-independent logic behind
// SPEC_FULL.md §4.3: hash partitioning for the parallel shuffle, the join
// family's per-key cross-product semantics, and the windowing timestamp
// arithmetic for window_fixed/window_sliding. None of these functions
// touch goroutines or the operator graph; the exec package calls them
// from both the sequential and parallel executors so the two strategies
// agree on semantics by construction rather than by convention.
package transform
