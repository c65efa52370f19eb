package combine

import (
	"cmp"
	"container/heap"

	"github.com/axiomhq/hyperloglog"
)

// Number is the constraint satisfied by every type Sum can accumulate.
type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// --- Count ---

type countCombiner[I any] struct{}

func (countCombiner[I]) CreateAccumulator() uint64                { return 0 }
func (countCombiner[I]) AddInput(acc uint64, _ I) uint64           { return acc + 1 }
func (countCombiner[I]) MergeAccumulators(accs []uint64) uint64 {
	var total uint64
	for _, a := range accs {
		total += a
	}
	return total
}
func (countCombiner[I]) ExtractOutput(acc uint64) uint64 { return acc }
func (countCombiner[I]) Commutative() bool               { return true }
func (countCombiner[I]) EmptyValid() bool                { return true }

// Count builds a combiner that counts elements of any type, ignoring
// their value. A=uint64, O=uint64.
func Count[I any]() Combiner[I, uint64, uint64] {
	return countCombiner[I]{}
}

// --- Sum ---

type sumCombiner[T Number] struct{}

func (sumCombiner[T]) CreateAccumulator() T        { var zero T; return zero }
func (sumCombiner[T]) AddInput(acc T, input T) T   { return acc + input }
func (sumCombiner[T]) MergeAccumulators(accs []T) T {
	var total T
	for _, a := range accs {
		total += a
	}
	return total
}
func (sumCombiner[T]) ExtractOutput(acc T) T { return acc }
func (sumCombiner[T]) Commutative() bool     { return true }
func (sumCombiner[T]) EmptyValid() bool      { return true }

// Sum builds a combiner over any additive numeric type. The zero value is
// a valid empty result (sum of nothing is 0), so EmptyValid is true.
func Sum[T Number]() Combiner[T, T, T] {
	return sumCombiner[T]{}
}

// --- Min / Max ---

// optionalAcc tracks whether any element has been added, since a zero
// value of T is not a safe "no elements yet" sentinel for an ordered type.
type optionalAcc[T cmp.Ordered] struct {
	val     T
	present bool
}

type minCombiner[T cmp.Ordered] struct{}

func (minCombiner[T]) CreateAccumulator() optionalAcc[T] { return optionalAcc[T]{} }

func (minCombiner[T]) AddInput(acc optionalAcc[T], input T) optionalAcc[T] {
	if !acc.present || input < acc.val {
		return optionalAcc[T]{val: input, present: true}
	}
	return acc
}

func (minCombiner[T]) MergeAccumulators(accs []optionalAcc[T]) optionalAcc[T] {
	var out optionalAcc[T]
	for _, a := range accs {
		if !a.present {
			continue
		}
		if !out.present || a.val < out.val {
			out = a
		}
	}
	return out
}

// ExtractOutput returns the zero value of T on an accumulator with
// present=false; callers must check EmptyValid (false for Min) and raise
// perrors.EmptyAggregation themselves before calling this — extract_output
// is documented as pure in §4.2, which rules out a fallible signature here.
func (minCombiner[T]) ExtractOutput(acc optionalAcc[T]) T { return acc.val }
func (minCombiner[T]) Commutative() bool                  { return true }
func (minCombiner[T]) EmptyValid() bool                   { return false }

// Min builds a combiner over any ordered type. Undefined (EmptyAggregation)
// on an empty key or empty global collection, per §4.2.
func Min[T cmp.Ordered]() Combiner[T, optionalAcc[T], T] {
	return minCombiner[T]{}
}

type maxCombiner[T cmp.Ordered] struct{}

func (maxCombiner[T]) CreateAccumulator() optionalAcc[T] { return optionalAcc[T]{} }

func (maxCombiner[T]) AddInput(acc optionalAcc[T], input T) optionalAcc[T] {
	if !acc.present || input > acc.val {
		return optionalAcc[T]{val: input, present: true}
	}
	return acc
}

func (maxCombiner[T]) MergeAccumulators(accs []optionalAcc[T]) optionalAcc[T] {
	var out optionalAcc[T]
	for _, a := range accs {
		if !a.present {
			continue
		}
		if !out.present || a.val > out.val {
			out = a
		}
	}
	return out
}

func (maxCombiner[T]) ExtractOutput(acc optionalAcc[T]) T { return acc.val }
func (maxCombiner[T]) Commutative() bool                  { return true }
func (maxCombiner[T]) EmptyValid() bool                   { return false }

// Max builds a combiner over any ordered type.
func Max[T cmp.Ordered]() Combiner[T, optionalAcc[T], T] {
	return maxCombiner[T]{}
}

// IsAccumulatorEmpty reports whether acc, produced by Min or Max, never
// received an element. Callers use this (rather than relying on
// ExtractOutput's zero-value behavior) to raise EmptyAggregation before
// extracting.
func IsAccumulatorEmpty[T cmp.Ordered](acc optionalAcc[T]) bool { return !acc.present }

// --- AverageF64 ---

type avgAcc struct {
	sum   float64
	count uint64
}

type averageCombiner struct{}

func (averageCombiner) CreateAccumulator() avgAcc { return avgAcc{} }

func (averageCombiner) AddInput(acc avgAcc, input float64) avgAcc {
	acc.sum += input
	acc.count++
	return acc
}

func (averageCombiner) MergeAccumulators(accs []avgAcc) avgAcc {
	var out avgAcc
	for _, a := range accs {
		out.sum += a.sum
		out.count += a.count
	}
	return out
}

func (averageCombiner) ExtractOutput(acc avgAcc) float64 {
	if acc.count == 0 {
		return 0
	}
	return acc.sum / float64(acc.count)
}

func (averageCombiner) Commutative() bool { return true }
func (averageCombiner) EmptyValid() bool  { return false }

// AverageF64 builds a combiner over float64 inputs. Undefined
// (EmptyAggregation) on an empty key or empty global collection.
func AverageF64() Combiner[float64, avgAcc, float64] {
	return averageCombiner{}
}

// AverageCount reports how many elements an avgAcc has folded in, so a
// caller can distinguish a genuinely empty accumulator before extracting.
func AverageCount(acc avgAcc) uint64 { return acc.count }

// --- DistinctCount ---

type distinctCombiner struct {
	precision uint8
}

func (d distinctCombiner) CreateAccumulator() *hyperloglog.Sketch {
	sk, err := hyperloglog.NewSketch(d.precision, true)
	if err != nil {
		// NewSketch only fails for out-of-range precision. DistinctCount
		// does not check precision, so an out-of-range value panics here,
		// when the first accumulator is created.
		panic(err)
	}
	return sk
}

func (distinctCombiner) AddInput(acc *hyperloglog.Sketch, input string) *hyperloglog.Sketch {
	acc.Insert([]byte(input))
	return acc
}

func (d distinctCombiner) MergeAccumulators(accs []*hyperloglog.Sketch) *hyperloglog.Sketch {
	out := d.CreateAccumulator()
	for _, a := range accs {
		if a == nil {
			continue
		}
		_ = out.Merge(a)
	}
	return out
}

func (distinctCombiner) ExtractOutput(acc *hyperloglog.Sketch) uint64 { return acc.Estimate() }
func (distinctCombiner) Commutative() bool                           { return true }
func (distinctCombiner) EmptyValid() bool                            { return true }

// DistinctCount builds an approximate distinct-value combiner backed by a
// HyperLogLog sketch, per §4.2 and §9's open-question resolution
// (defaults to approximate, not exact). precision must be in [4, 18].
// Neither DistinctCount nor combine_per_key checks it: an out-of-range
// precision (including zero) makes CreateAccumulator panic, which keeps
// the combiner methods' pure, infallible signatures.
func DistinctCount(precision uint8) Combiner[string, *hyperloglog.Sketch, uint64] {
	return distinctCombiner{precision: precision}
}

// --- TopK ---

type topKItem[V any] struct {
	val V
}

// topKHeap is a bounded min-heap of size k: the smallest-by-less element
// sits at the root so a new arrival only needs to beat index 0 to enter.
type topKHeap[V any] struct {
	items []topKItem[V]
	k     int
	less  func(a, b V) bool
}

func (h *topKHeap[V]) Len() int            { return len(h.items) }
func (h *topKHeap[V]) Less(i, j int) bool  { return h.less(h.items[i].val, h.items[j].val) }
func (h *topKHeap[V]) Swap(i, j int)       { h.items[i], h.items[j] = h.items[j], h.items[i] }
func (h *topKHeap[V]) Push(x any)          { h.items = append(h.items, x.(topKItem[V])) }
func (h *topKHeap[V]) Pop() any {
	old := h.items
	n := len(old)
	item := old[n-1]
	h.items = old[:n-1]
	return item
}

type topKCombiner[V any] struct {
	k    int
	less func(a, b V) bool
}

func (c topKCombiner[V]) CreateAccumulator() *topKHeap[V] {
	return &topKHeap[V]{k: c.k, less: c.less}
}

func (c topKCombiner[V]) AddInput(acc *topKHeap[V], input V) *topKHeap[V] {
	if acc.Len() < c.k {
		heap.Push(acc, topKItem[V]{val: input})
		return acc
	}
	if acc.Len() > 0 && acc.less(acc.items[0].val, input) {
		acc.items[0] = topKItem[V]{val: input}
		heap.Fix(acc, 0)
	}
	return acc
}

func (c topKCombiner[V]) MergeAccumulators(accs []*topKHeap[V]) *topKHeap[V] {
	out := c.CreateAccumulator()
	for _, a := range accs {
		if a == nil {
			continue
		}
		for _, item := range a.items {
			out = c.AddInput(out, item.val)
		}
	}
	return out
}

// ExtractOutput returns the top-k values in descending order (best
// first), per §3's top_k_per_key contract. The relative order of
// equally-ranked values follows the heap's internal layout and is not
// defined; it is not their arrival order.
func (c topKCombiner[V]) ExtractOutput(acc *topKHeap[V]) []V {
	items := make([]topKItem[V], len(acc.items))
	copy(items, acc.items)
	sorted := &topKHeap[V]{items: items, k: acc.k, less: acc.less}
	out := make([]V, 0, len(items))
	for sorted.Len() > 0 {
		out = append(out, heap.Pop(sorted).(topKItem[V]).val)
	}
	// heap.Pop on a min-heap yields ascending order; reverse for "best first".
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

func (topKCombiner[V]) Commutative() bool { return true }
func (topKCombiner[V]) EmptyValid() bool  { return true }

// TopK builds a combiner that retains the k best values seen, ordered by
// less (a "less-ranked than" predicate: less(a, b) == true means b should
// be preferred over a). k must be >= 1, checked by the caller that
// registers this combiner, not here.
func TopK[V any](k int, less func(a, b V) bool) Combiner[V, *topKHeap[V], []V] {
	return topKCombiner[V]{k: k, less: less}
}
