// Package combine implements the incremental-aggregation contract of
// SPEC_FULL.md §4.2: a combiner over input I, accumulator A, and output O
// is four operations — create_accumulator, add_input, merge_accumulators,
// extract_output — plus two capability flags, commutative and empty_valid.
//
// Combiners are modeled as an interface (a "capability bundle"), not a
// class hierarchy, per §9's design note: built-ins are ordinary values
// returned by constructor functions (Count, Sum, Min, ...), and a caller
// may implement Combiner[I, A, O] directly for a custom aggregation.
//
// The executor stores combiners type-erased (see ErasedCombiner and
// Erase) so that a Pipeline's node arena does not need a type parameter
// per node; this is the same erasure idiom the gokit DAG package uses for
// its Port[T]/Read/Write state accessors, applied here to the four
// combiner operations instead of a single get/set pair.
package combine
