package ioadapter

import (
	"context"

	"github.com/kbukum/flowbatch/pipelinecore"
)

// Iterator provides pull-based sequential access to a typed stream of
// records, the same shape the teacher's provider.Iterator[T] and
// pipeline.Iterator[T] both already used for the in-process transform
// layer and its external-adapter boundary.
type Iterator[T any] interface {
	// Next returns the next record. Returns (zero, false, nil) when the
	// adapter is exhausted.
	Next(ctx context.Context) (T, bool, error)
	// Close releases whatever the adapter opened (file handles, decoders,
	// decompression streams).
	Close() error
}

// Source opens a lazy sequence of T. Opening may fail (file not found,
// malformed header); so may any individual Next call on the returned
// Iterator.
type Source[T any] func(ctx context.Context) (Iterator[T], error)

// Sink consumes a lazy sequence of T to completion, failing at open, per
// element, or at close (flush).
type Sink[T any] func(ctx context.Context, it Iterator[T]) error

// erasingIter adapts a typed Iterator[T] to the erased
// pipelinecore.Iterator the operator graph's Source node expects.
type erasingIter[T any] struct {
	inner Iterator[T]
}

func (e *erasingIter[T]) Next(ctx context.Context) (any, bool, error) {
	v, ok, err := e.inner.Next(ctx)
	return v, ok, err
}

func (e *erasingIter[T]) Close() error { return e.inner.Close() }

// ToPipelineSource bridges a typed Source into the producer function
// pipelinecore.Source expects, so an ioadapter backend can be registered
// as an ordinary operator-graph source.
func ToPipelineSource[T any](src Source[T]) func(ctx context.Context) (pipelinecore.Iterator, error) {
	return func(ctx context.Context) (pipelinecore.Iterator, error) {
		it, err := src(ctx)
		if err != nil {
			return nil, err
		}
		return &erasingIter[T]{inner: it}, nil
	}
}

// typedIter adapts the erased pipelinecore.Iterator a sink node receives
// back into a typed Iterator[T], so Sink implementations never touch
// `any` themselves.
type typedIter[T any] struct {
	inner pipelinecore.Iterator
}

func (t *typedIter[T]) Next(ctx context.Context) (T, bool, error) {
	v, ok, err := t.inner.Next(ctx)
	if !ok || err != nil {
		var zero T
		return zero, ok, err
	}
	return v.(T), true, nil
}

func (t *typedIter[T]) Close() error { return t.inner.Close() }

// ToPipelineSink bridges a typed Sink into the consumer function
// pipelinecore.Sink expects.
func ToPipelineSink[T any](sink Sink[T]) func(ctx context.Context, it pipelinecore.Iterator) error {
	return func(ctx context.Context, it pipelinecore.Iterator) error {
		return sink(ctx, &typedIter[T]{inner: it})
	}
}
