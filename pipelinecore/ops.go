package pipelinecore

import (
	"context"
	"time"

	"github.com/kbukum/flowbatch/combine"
	"github.com/kbukum/flowbatch/pvalidate"
	"github.com/kbukum/flowbatch/sideinput"
)

// Go does not support generic methods, so the fluent API of §4.1 is a set
// of free functions taking the Pipeline and input Handle[T] explicitly.
// Each one performs its one-time type-witness check, appends one Node to
// the arena, and returns the fresh Handle for the output.

// These hold the construction-time arguments of operators whose
// configuration can be invalid (batch size, top-k, window size/period, a
// checkpoint path), so pvalidate.Validate can check them by struct tag
// per §2.1 instead of a hand-rolled if at each call site.
type mapBatchesConfig struct {
	BatchSize int `json:"batch_size" validate:"gt=0"`
}

type topKPerKeyConfig struct {
	K int `json:"k" validate:"gt=0"`
}

type windowFixedConfig struct {
	SizeNanos int64 `json:"size_nanos" validate:"gt=0"`
}

type windowSlidingConfig struct {
	SizeNanos   int64 `json:"size_nanos" validate:"gt=0"`
	PeriodNanos int64 `json:"period_nanos" validate:"gt=0"`
}

type checkpointConfig struct {
	Path string `json:"path" validate:"required"`
}

func register[T any](p *Pipeline, n *Node) (Handle[T], error) {
	n.OutputType = typeOf[T]()
	id, err := p.addNode(n)
	if err != nil {
		return Handle[T]{}, err
	}
	return newHandle[T](p, id), nil
}

// Source registers a producer as the root of a new subgraph. producer
// must yield a finite lazy sequence of T (§1, §4.6); it is evaluated only
// when an executor pulls from the resulting Handle.
func Source[T any](p *Pipeline, name string, producer func(ctx context.Context) (Iterator, error)) (Handle[T], error) {
	return register[T](p, &Node{Kind: KindSource, Name: name, SourceFn: producer})
}

// SourceSlice is a convenience wrapper around Source for an
// already-materialized slice of elements.
func SourceSlice[T any](p *Pipeline, name string, items []T) (Handle[T], error) {
	return Source[T](p, name, func(_ context.Context) (Iterator, error) {
		return NewSliceIterator(items), nil
	})
}

// Map transforms each value of h using fn, appending one KindMap node.
func Map[I, O any](p *Pipeline, h Handle[I], name string, fn func(context.Context, I) (O, error)) (Handle[O], error) {
	if err := checkOwnership(p, h); err != nil {
		return Handle[O]{}, err
	}
	wrapped := func(ctx context.Context, v any) (any, error) {
		return fn(ctx, v.(I))
	}
	return register[O](p, &Node{Kind: KindMap, Name: name, Inputs: []int{h.NodeID()}, MapFn: wrapped})
}

// Filter keeps only values of h that satisfy pred, appending one
// KindFilter node. Order is preserved.
func Filter[T any](p *Pipeline, h Handle[T], name string, pred func(T) bool) (Handle[T], error) {
	if err := checkOwnership(p, h); err != nil {
		return Handle[T]{}, err
	}
	wrapped := func(v any) bool { return pred(v.(T)) }
	return register[T](p, &Node{Kind: KindFilter, Name: name, Inputs: []int{h.NodeID()}, FilterFn: wrapped})
}

// FlatMap transforms each value of h into zero or more values of O via
// fn, flattening the results in order.
func FlatMap[I, O any](p *Pipeline, h Handle[I], name string, fn func(context.Context, I) ([]O, error)) (Handle[O], error) {
	if err := checkOwnership(p, h); err != nil {
		return Handle[O]{}, err
	}
	wrapped := func(ctx context.Context, v any) (Iterator, error) {
		out, err := fn(ctx, v.(I))
		if err != nil {
			return nil, err
		}
		return NewSliceIterator(out), nil
	}
	return register[O](p, &Node{Kind: KindFlatMap, Name: name, Inputs: []int{h.NodeID()}, FlatMapFn: wrapped})
}

// MapBatches applies fn to successive batches of up to n values of h,
// flattening the per-batch results in order. n must be >= 1; the final
// batch may be shorter.
func MapBatches[I, O any](p *Pipeline, h Handle[I], name string, n int, fn func(context.Context, []I) ([]O, error)) (Handle[O], error) {
	if err := checkOwnership(p, h); err != nil {
		return Handle[O]{}, err
	}
	if err := pvalidate.Validate(mapBatchesConfig{BatchSize: n}); err != nil {
		return Handle[O]{}, err
	}
	wrapped := func(ctx context.Context, batch []any) ([]any, error) {
		typed := make([]I, len(batch))
		for i, v := range batch {
			typed[i] = v.(I)
		}
		out, err := fn(ctx, typed)
		if err != nil {
			return nil, err
		}
		erased := make([]any, len(out))
		for i, v := range out {
			erased[i] = v
		}
		return erased, nil
	}
	return register[O](p, &Node{Kind: KindMapBatches, Name: name, Inputs: []int{h.NodeID()}, BatchSize: n, BatchFn: wrapped})
}

// KeyBy assigns a key to each value of h via kf, producing Keyed[K, V]
// elements.
func KeyBy[K comparable, V any](p *Pipeline, h Handle[V], name string, kf func(V) (K, error)) (Handle[Keyed[K, V]], error) {
	if err := checkOwnership(p, h); err != nil {
		return Handle[Keyed[K, V]]{}, err
	}
	wrapped := func(v any) (any, error) {
		k, err := kf(v.(V))
		if err != nil {
			return nil, err
		}
		return Keyed[K, V]{Key: k, Value: v.(V)}, nil
	}
	return register[Keyed[K, V]](p, &Node{Kind: KindKeyBy, Name: name, Inputs: []int{h.NodeID()}, KeyFn: wrapped})
}

// MapValues transforms the value half of each Keyed[K, V] in h via fn,
// leaving keys untouched.
func MapValues[K comparable, V, U any](p *Pipeline, h Handle[Keyed[K, V]], name string, fn func(context.Context, V) (U, error)) (Handle[Keyed[K, U]], error) {
	if err := checkOwnership(p, h); err != nil {
		return Handle[Keyed[K, U]]{}, err
	}
	wrapped := func(ctx context.Context, v any) (any, error) {
		kv := v.(Keyed[K, V])
		out, err := fn(ctx, kv.Value)
		if err != nil {
			return nil, err
		}
		return Keyed[K, U]{Key: kv.Key, Value: out}, nil
	}
	return register[Keyed[K, U]](p, &Node{Kind: KindMapValues, Name: name, Inputs: []int{h.NodeID()}, MapFn: wrapped})
}

// GroupByKey groups Keyed[K, V] elements by key, emitting Keyed[K, []V].
// Within a key, value order is input order in sequential mode and
// (partition, offset) order in parallel mode (§4.1).
func GroupByKey[K comparable, V any](p *Pipeline, h Handle[Keyed[K, V]], name string) (Handle[Keyed[K, []V]], error) {
	if err := checkOwnership(p, h); err != nil {
		return Handle[Keyed[K, []V]]{}, err
	}
	return register[Keyed[K, []V]](p, &Node{
		Kind:      KindGroupByKey,
		Name:      name,
		Inputs:    []int{h.NodeID()},
		KeyOfFn:   func(v any) any { return v.(Keyed[K, V]).Key },
		ValueOfFn: func(v any) any { return v.(Keyed[K, V]).Value },
		RebuildGroup: func(key any, values []any) any {
			typed := make([]V, len(values))
			for i, v := range values {
				typed[i] = v.(V)
			}
			return Keyed[K, []V]{Key: key.(K), Value: typed}
		},
	})
}

// CombinePerKey aggregates Keyed[K, V] elements per key using c, emitting
// Keyed[K, O]. Unlike GroupByKey, the executor never needs to materialize
// every value of a key at once.
func CombinePerKey[K comparable, V, A, O any](p *Pipeline, h Handle[Keyed[K, V]], name string, c combine.Combiner[V, A, O]) (Handle[Keyed[K, O]], error) {
	if err := checkOwnership(p, h); err != nil {
		return Handle[Keyed[K, O]]{}, err
	}
	return register[Keyed[K, O]](p, &Node{
		Kind:      KindCombinePerKey,
		Name:      name,
		Inputs:    []int{h.NodeID()},
		Combiner:  combine.Erase(c),
		KeyOfFn:   func(v any) any { return v.(Keyed[K, V]).Key },
		ValueOfFn: func(v any) any { return v.(Keyed[K, V]).Value },
		RebuildCombine: func(key any, output any) any {
			return Keyed[K, O]{Key: key.(K), Value: output.(O)}
		},
	})
}

// globalKey is the single implicit key CombineGlobally groups every
// element under; unexported so no caller can collide with it.
type globalKey struct{}

// CombineGlobally aggregates every value of h into a single O using c,
// with no grouping key (§4.1's scenario 2: "combine globally with Sum").
// It is sugar over key_by(constant) + combine_per_key + dropping the key
// back off, rather than its own node kind: a global combine is exactly a
// combine_per_key with one key that every element shares, so the
// executor needs no dedicated code path for it. On a genuinely empty h,
// this emits zero elements rather than one empty-accumulator element,
// since combine_per_key only ever emits keys it observed at least one
// value for; see DESIGN.md for why that approximation was accepted.
func CombineGlobally[I, A, O any](p *Pipeline, h Handle[I], name string, c combine.Combiner[I, A, O]) (Handle[O], error) {
	if err := checkOwnership(p, h); err != nil {
		return Handle[O]{}, err
	}
	keyed, err := KeyBy[globalKey, I](p, h, name+"_key", func(I) (globalKey, error) {
		return globalKey{}, nil
	})
	if err != nil {
		return Handle[O]{}, err
	}
	combined, err := CombinePerKey[globalKey, I, A, O](p, keyed, name, c)
	if err != nil {
		return Handle[O]{}, err
	}
	return Map[Keyed[globalKey, O], O](p, combined, name+"_extract", func(_ context.Context, kv Keyed[globalKey, O]) (O, error) {
		return kv.Value, nil
	})
}

// TopKPerKey emits up to k top values per key, ordered by less ("less(a,
// b) == true" means b ranks above a), ties broken by first-seen.
func TopKPerKey[K comparable, V any](p *Pipeline, h Handle[Keyed[K, V]], name string, k int, less func(a, b V) bool) (Handle[Keyed[K, []V]], error) {
	if err := checkOwnership(p, h); err != nil {
		return Handle[Keyed[K, []V]]{}, err
	}
	if err := pvalidate.Validate(topKPerKeyConfig{K: k}); err != nil {
		return Handle[Keyed[K, []V]]{}, err
	}
	wrapped := func(a, b any) bool { return less(a.(V), b.(V)) }
	return register[Keyed[K, []V]](p, &Node{
		Kind:      KindTopKPerKey,
		Name:      name,
		Inputs:    []int{h.NodeID()},
		TopK:      k,
		Less:      wrapped,
		KeyOfFn:   func(v any) any { return v.(Keyed[K, V]).Key },
		ValueOfFn: func(v any) any { return v.(Keyed[K, V]).Value },
		RebuildTopK: func(key any, values []any) any {
			typed := make([]V, len(values))
			for i, v := range values {
				typed[i] = v.(V)
			}
			return Keyed[K, []V]{Key: key.(K), Value: typed}
		},
	})
}

func join[K comparable, V, W any](p *Pipeline, left Handle[Keyed[K, V]], right Handle[Keyed[K, W]], name string, kind JoinKind) (Handle[Keyed[K, JoinResult[V, W]]], error) {
	if err := checkOwnership(p, left); err != nil {
		return Handle[Keyed[K, JoinResult[V, W]]]{}, err
	}
	if right.PipelineID() != p.id {
		return Handle[Keyed[K, JoinResult[V, W]]]{}, crossPipelineErr()
	}
	return register[Keyed[K, JoinResult[V, W]]](p, &Node{
		Kind:      KindJoin,
		Name:      name,
		Inputs:    []int{left.NodeID()},
		RightNode: right.NodeID(),
		JoinKind:  kind,
		LeftKeyFn:  func(v any) any { return v.(Keyed[K, V]).Key },
		LeftValFn:  func(v any) any { return v.(Keyed[K, V]).Value },
		RightKeyFn: func(v any) any { return v.(Keyed[K, W]).Key },
		RightValFn: func(v any) any { return v.(Keyed[K, W]).Value },
		JoinCombine: func(key any, lv any, lok bool, rv any, rok bool) any {
			var left V
			if lok {
				left = lv.(V)
			}
			var right W
			if rok {
				right = rv.(W)
			}
			return Keyed[K, JoinResult[V, W]]{
				Key:   key.(K),
				Value: JoinResult[V, W]{Left: left, LeftOK: lok, Right: right, RightOK: rok},
			}
		},
	})
}

// JoinInner emits (v, w) for each cross-product pair sharing a key,
// dropping keys present on only one side.
func JoinInner[K comparable, V, W any](p *Pipeline, left Handle[Keyed[K, V]], right Handle[Keyed[K, W]], name string) (Handle[Keyed[K, JoinResult[V, W]]], error) {
	return join(p, left, right, name, JoinInner)
}

// JoinLeft emits every left value, paired with a right value when
// present or JoinResult.RightOK=false otherwise.
func JoinLeft[K comparable, V, W any](p *Pipeline, left Handle[Keyed[K, V]], right Handle[Keyed[K, W]], name string) (Handle[Keyed[K, JoinResult[V, W]]], error) {
	return join(p, left, right, name, JoinLeft)
}

// JoinRight emits every right value, paired with a left value when
// present or JoinResult.LeftOK=false otherwise.
func JoinRight[K comparable, V, W any](p *Pipeline, left Handle[Keyed[K, V]], right Handle[Keyed[K, W]], name string) (Handle[Keyed[K, JoinResult[V, W]]], error) {
	return join(p, left, right, name, JoinRight)
}

// JoinFull emits every key present on either side, with either half
// marked absent when that side has no value for the key.
func JoinFull[K comparable, V, W any](p *Pipeline, left Handle[Keyed[K, V]], right Handle[Keyed[K, W]], name string) (Handle[Keyed[K, JoinResult[V, W]]], error) {
	return join(p, left, right, name, JoinFull)
}

// WithSide applies fn to each value of h together with a snapshot of the
// side value registered under tok, resolved once before execution starts.
func WithSide[T, S, U any](p *Pipeline, h Handle[T], name string, tok sideinput.Token, fn func(ctx context.Context, v T, side S) (U, error)) (Handle[U], error) {
	if err := checkOwnership(p, h); err != nil {
		return Handle[U]{}, err
	}
	wrapped := func(ctx context.Context, v any, side any) (any, error) {
		return fn(ctx, v.(T), side.(S))
	}
	return register[U](p, &Node{
		Kind:         KindWithSide,
		Name:         name,
		Inputs:       []int{h.NodeID()},
		SideToken:    tok,
		SideRegistry: p.SideInput,
		SideFn:       wrapped,
	})
}

// WindowFixed assigns each element of h to the non-overlapping window of
// duration size covering its timestamp, per §4.3's floor(t/size)*size rule.
func WindowFixed[T any](p *Pipeline, h Handle[T], name string, size time.Duration, tsFn func(T) time.Time) (Handle[Windowed[T]], error) {
	if err := checkOwnership(p, h); err != nil {
		return Handle[Windowed[T]]{}, err
	}
	if err := pvalidate.Validate(windowFixedConfig{SizeNanos: int64(size)}); err != nil {
		return Handle[Windowed[T]]{}, err
	}
	wrapped := func(v any) time.Time { return tsFn(v.(T)) }
	return register[Windowed[T]](p, &Node{
		Kind:       KindWindowFixed,
		Name:       name,
		Inputs:     []int{h.NodeID()},
		WindowSize: size,
		TsFn:       wrapped,
		RebuildWindowed: func(w Window, v any) any {
			return Windowed[T]{Window: w, Value: v.(T)}
		},
	})
}

// WindowSliding assigns each element of h to every overlapping window of
// duration size, spaced period apart, that covers its timestamp.
func WindowSliding[T any](p *Pipeline, h Handle[T], name string, size, period time.Duration, tsFn func(T) time.Time) (Handle[Windowed[T]], error) {
	if err := checkOwnership(p, h); err != nil {
		return Handle[Windowed[T]]{}, err
	}
	if err := pvalidate.Validate(windowSlidingConfig{SizeNanos: int64(size), PeriodNanos: int64(period)}); err != nil {
		return Handle[Windowed[T]]{}, err
	}
	wrapped := func(v any) time.Time { return tsFn(v.(T)) }
	return register[Windowed[T]](p, &Node{
		Kind:         KindWindowSliding,
		Name:         name,
		Inputs:       []int{h.NodeID()},
		WindowSize:   size,
		WindowPeriod: period,
		TsFn:         wrapped,
		RebuildWindowed: func(w Window, v any) any {
			return Windowed[T]{Window: w, Value: v.(T)}
		},
	})
}

// Checkpoint annotates h's node so that, after the executor materializes
// it during a run, the result is also persisted to path (§6). The
// returned handle denotes the same elements as h and may be used exactly
// as h would be.
func Checkpoint[T any](p *Pipeline, h Handle[T], name string, path string) (Handle[T], error) {
	if err := checkOwnership(p, h); err != nil {
		return Handle[T]{}, err
	}
	if err := pvalidate.Validate(checkpointConfig{Path: path}); err != nil {
		return Handle[T]{}, err
	}
	return register[T](p, &Node{Kind: KindCheckpoint, Name: name, Inputs: []int{h.NodeID()}, CheckpointPath: path})
}

// Sink terminates h at a consumer function, returning the node id an
// executor's RunToSink call should target.
func Sink[T any](p *Pipeline, h Handle[T], name string, consumer func(ctx context.Context, it Iterator) error) (int, error) {
	if err := checkOwnership(p, h); err != nil {
		return 0, err
	}
	n := &Node{Kind: KindSink, Name: name, Inputs: []int{h.NodeID()}, SinkFn: consumer}
	return p.addNode(n)
}
