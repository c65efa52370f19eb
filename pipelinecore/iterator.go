package pipelinecore

import "context"

// Iterator provides pull-based sequential access to a stream of erased
// elements. Structurally the same contract as pipeline.Iterator[T] in the
// teacher's concurrent-pipeline package, generalized to `any` so that the
// exec package can chain operator nodes of differing element types
// without a parametric type threading through every node in the arena.
type Iterator interface {
	// Next returns the next element. Returns (nil, false, nil) when exhausted.
	Next(ctx context.Context) (any, bool, error)
	// Close releases any resources held by the iterator.
	Close() error
}

// SliceIterator adapts a preloaded slice of elements to Iterator.
type SliceIterator struct {
	items []any
	index int
}

// NewSliceIterator builds an Iterator over items, erasing each to `any`.
func NewSliceIterator[T any](items []T) *SliceIterator {
	erased := make([]any, len(items))
	for i, v := range items {
		erased[i] = v
	}
	return &SliceIterator{items: erased}
}

func (it *SliceIterator) Next(_ context.Context) (any, bool, error) {
	if it.index >= len(it.items) {
		return nil, false, nil
	}
	v := it.items[it.index]
	it.index++
	return v, true, nil
}

func (it *SliceIterator) Close() error { return nil }

// FuncIterator adapts a pull function to Iterator.
type FuncIterator struct {
	NextFn  func(ctx context.Context) (any, bool, error)
	CloseFn func() error
}

func (it *FuncIterator) Next(ctx context.Context) (any, bool, error) { return it.NextFn(ctx) }

func (it *FuncIterator) Close() error {
	if it.CloseFn != nil {
		return it.CloseFn()
	}
	return nil
}

// Collect pulls every remaining element from it into a typed slice. The
// caller is responsible for closing it; Collect does not call Close.
func Collect[T any](ctx context.Context, it Iterator) ([]T, error) {
	var out []T
	for {
		v, ok, err := it.Next(ctx)
		if err != nil {
			return out, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, v.(T))
	}
}
