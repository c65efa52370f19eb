package exec

import (
	"context"

	"github.com/kbukum/flowbatch/metrics"
	"github.com/kbukum/flowbatch/perrors"
	"github.com/kbukum/flowbatch/pipelinecore"
)

// The iterator types in this file implement the executor's stateless
// streaming stages: map, filter, flat_map, map_batches, with_side, and
// the two windowing kinds. None of them buffer more than one upstream
// element (or, for map_batches, one batch) at a time, per §4.4's "never
// materialize upstream stateless stages" rule.

type mapIter struct {
	cancelCheck
	name    string
	batch   int
	inner   pipelinecore.Iterator
	fn      func(ctx context.Context, v any) (any, error)
	metrics *metrics.Metrics
}

func (it *mapIter) Next(ctx context.Context) (any, bool, error) {
	if err := it.tick(ctx); err != nil {
		return nil, false, err
	}
	v, ok, err := it.inner.Next(ctx)
	if err != nil || !ok {
		return nil, ok, err
	}
	out, err := it.fn(ctx, v)
	if err != nil {
		return nil, false, perrors.UserFunctionError(it.name, err)
	}
	recordProcessed(it.metrics, ctx, it.name, 1)
	return out, true, nil
}

func (it *mapIter) Close() error { return it.inner.Close() }

type filterIter struct {
	cancelCheck
	name    string
	inner   pipelinecore.Iterator
	pred    func(v any) bool
	metrics *metrics.Metrics
}

func (it *filterIter) Next(ctx context.Context) (any, bool, error) {
	for {
		if err := it.tick(ctx); err != nil {
			return nil, false, err
		}
		v, ok, err := it.inner.Next(ctx)
		if err != nil || !ok {
			return nil, ok, err
		}
		if it.pred(v) {
			recordProcessed(it.metrics, ctx, it.name, 1)
			return v, true, nil
		}
		recordFiltered(it.metrics, ctx, it.name, 1)
	}
}

func (it *filterIter) Close() error { return it.inner.Close() }

type flatMapIter struct {
	cancelCheck
	name    string
	inner   pipelinecore.Iterator
	fn      func(ctx context.Context, v any) (pipelinecore.Iterator, error)
	cur     pipelinecore.Iterator
	metrics *metrics.Metrics
}

func (it *flatMapIter) Next(ctx context.Context) (any, bool, error) {
	for {
		if it.cur != nil {
			v, ok, err := it.cur.Next(ctx)
			if err != nil {
				return nil, false, err
			}
			if ok {
				recordProcessed(it.metrics, ctx, it.name, 1)
				return v, true, nil
			}
			it.cur.Close()
			it.cur = nil
		}
		if err := it.tick(ctx); err != nil {
			return nil, false, err
		}
		v, ok, err := it.inner.Next(ctx)
		if err != nil || !ok {
			return nil, ok, err
		}
		sub, err := it.fn(ctx, v)
		if err != nil {
			return nil, false, perrors.UserFunctionError(it.name, err)
		}
		it.cur = sub
	}
}

func (it *flatMapIter) Close() error { return it.inner.Close() }

type batchIter struct {
	cancelCheck
	name    string
	size    int
	inner   pipelinecore.Iterator
	fn      func(ctx context.Context, batch []any) ([]any, error)
	out     []any
	outIdx  int
	done    bool
	metrics *metrics.Metrics
}

func (it *batchIter) Next(ctx context.Context) (any, bool, error) {
	for {
		if it.outIdx < len(it.out) {
			v := it.out[it.outIdx]
			it.outIdx++
			recordProcessed(it.metrics, ctx, it.name, 1)
			return v, true, nil
		}
		if it.done {
			return nil, false, nil
		}
		batch := make([]any, 0, it.size)
		for len(batch) < it.size {
			if err := it.tick(ctx); err != nil {
				return nil, false, err
			}
			v, ok, err := it.inner.Next(ctx)
			if err != nil {
				return nil, false, err
			}
			if !ok {
				it.done = true
				break
			}
			batch = append(batch, v)
		}
		if len(batch) == 0 {
			return nil, false, nil
		}
		out, err := it.fn(ctx, batch)
		if err != nil {
			return nil, false, perrors.UserFunctionError(it.name, err)
		}
		it.out = out
		it.outIdx = 0
	}
}

func (it *batchIter) Close() error { return it.inner.Close() }

type withSideIter struct {
	cancelCheck
	name    string
	inner   pipelinecore.Iterator
	side    any
	fn      func(ctx context.Context, v any, side any) (any, error)
	metrics *metrics.Metrics
}

func (it *withSideIter) Next(ctx context.Context) (any, bool, error) {
	if err := it.tick(ctx); err != nil {
		return nil, false, err
	}
	v, ok, err := it.inner.Next(ctx)
	if err != nil || !ok {
		return nil, ok, err
	}
	out, err := it.fn(ctx, v, it.side)
	if err != nil {
		return nil, false, perrors.UserFunctionError(it.name, err)
	}
	recordProcessed(it.metrics, ctx, it.name, 1)
	return out, true, nil
}

func (it *withSideIter) Close() error { return it.inner.Close() }

// window_fixed is a 1:1 streaming transform (§8: "every element ...
// appears in exactly one fixed window covering t"), so it reuses mapIter
// with a fn that applies transform.FixedWindowFor and RebuildWindowed;
// see build.go.

// windowSlidingIter fans one element out to every sliding window that
// covers its timestamp (§8: "exactly ceil(size/period) sliding windows").
type windowSlidingIter struct {
	cancelCheck
	name    string
	inner   pipelinecore.Iterator
	expand  func(v any) []any
	buf     []any
	bufIdx  int
	metrics *metrics.Metrics
}

func (it *windowSlidingIter) Next(ctx context.Context) (any, bool, error) {
	for {
		if it.bufIdx < len(it.buf) {
			v := it.buf[it.bufIdx]
			it.bufIdx++
			recordProcessed(it.metrics, ctx, it.name, 1)
			return v, true, nil
		}
		if err := it.tick(ctx); err != nil {
			return nil, false, err
		}
		v, ok, err := it.inner.Next(ctx)
		if err != nil || !ok {
			return nil, ok, err
		}
		it.buf = it.expand(v)
		it.bufIdx = 0
	}
}

func (it *windowSlidingIter) Close() error { return it.inner.Close() }
