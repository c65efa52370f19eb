package combine

// Combiner is the four-operation incremental aggregation contract of
// SPEC_FULL.md §4.2. I is the type of elements fed in, A is the mutable
// accumulator type, O is the extracted result type.
//
// add_input and merge_accumulators must together form an associative
// reduction: feeding elements in any legal partitioning and any order
// consistent with group_by_key's ordering rule must produce an identical
// accumulator. extract_output must be pure (no further mutation of acc).
type Combiner[I, A, O any] interface {
	// CreateAccumulator returns a fresh, empty accumulator.
	CreateAccumulator() A
	// AddInput folds one element of I into acc, returning the updated
	// accumulator. Implementations that mutate acc in place and return it
	// are fine; the executor never assumes either mutation or copy.
	AddInput(acc A, input I) A
	// MergeAccumulators associatively combines accumulators produced by
	// independent reducing tasks (parallel-mode shards, or simply
	// sequential batches) into one.
	MergeAccumulators(accs []A) A
	// ExtractOutput reads the final result out of an accumulator without
	// mutating it.
	ExtractOutput(acc A) O
	// Commutative reports whether the result is independent of input
	// order, which licenses the executor to reshuffle elements freely in
	// parallel mode. A combiner that relies on arrival order (e.g. "first
	// seen wins") must return false here.
	Commutative() bool
	// EmptyValid reports whether ExtractOutput is well-defined on the
	// accumulator returned by CreateAccumulator with no AddInput calls.
	// Min/Max/AverageF64 return false: extracting from an empty key is an
	// EmptyAggregation error, raised by the caller (combine_per_key node),
	// not by this interface.
	EmptyValid() bool
}

// ErasedCombiner is the type-erased form of Combiner, stored in the
// operator graph's node arena so a CombinePerKey node does not carry a
// type parameter. Every method signature matches Combiner with I, A, O
// all replaced by `any`; callers are responsible for the type-assertions
// implied by acc/input having come from the same Erase call.
type ErasedCombiner interface {
	CreateAccumulator() any
	AddInput(acc any, input any) any
	MergeAccumulators(accs []any) any
	ExtractOutput(acc any) any
	Commutative() bool
	EmptyValid() bool
}

type erasedWrapper[I, A, O any] struct {
	c Combiner[I, A, O]
}

func (w erasedWrapper[I, A, O]) CreateAccumulator() any {
	return w.c.CreateAccumulator()
}

func (w erasedWrapper[I, A, O]) AddInput(acc any, input any) any {
	return w.c.AddInput(acc.(A), input.(I))
}

func (w erasedWrapper[I, A, O]) MergeAccumulators(accs []any) any {
	typed := make([]A, len(accs))
	for i, a := range accs {
		typed[i] = a.(A)
	}
	return w.c.MergeAccumulators(typed)
}

func (w erasedWrapper[I, A, O]) ExtractOutput(acc any) any {
	return w.c.ExtractOutput(acc.(A))
}

func (w erasedWrapper[I, A, O]) Commutative() bool { return w.c.Commutative() }
func (w erasedWrapper[I, A, O]) EmptyValid() bool  { return w.c.EmptyValid() }

// Erase wraps a typed Combiner as an ErasedCombiner for storage in the
// operator graph. The type witness (the I/A/O type parameters baked into
// erasedWrapper's type assertions) is checked once, here, at the node's
// construction call; every AddInput/MergeAccumulators call during
// execution pays only the cost of a type assertion, not reflection.
func Erase[I, A, O any](c Combiner[I, A, O]) ErasedCombiner {
	return erasedWrapper[I, A, O]{c: c}
}
