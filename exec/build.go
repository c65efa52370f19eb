package exec

import (
	"context"
	"fmt"

	"github.com/kbukum/flowbatch/checkpoint"
	"github.com/kbukum/flowbatch/metrics"
	"github.com/kbukum/flowbatch/perrors"
	"github.com/kbukum/flowbatch/pipelinecore"
	"github.com/kbukum/flowbatch/plog"
	"github.com/kbukum/flowbatch/transform"
)

// buildCtx walks the frozen operator arena backward from a target node,
// building one pipelinecore.Iterator per node it visits. A node consumed
// by more than one downstream node (fan-out) is fully materialized once
// and handed out as fresh slice iterators, so every consumer sees the
// same elements without re-running the node's side effects twice.
type buildCtx struct {
	ctx       context.Context
	pipeline  *pipelinecore.Pipeline
	nodes     map[int]*pipelinecore.Node
	refcount  map[int]int
	cache     map[int][]any
	metrics   *metrics.Metrics
	batchSize int
	hashSeed  uint64

	// sourceOverride lets the parallel executor feed one shard's
	// pre-partitioned elements into a KindSource node instead of calling
	// its SourceFn, without duplicating buildRaw's per-kind dispatch; see
	// shard.go.
	sourceOverride map[int][]any
}

func newBuildCtx(ctx context.Context, p *pipelinecore.Pipeline, target int, m *metrics.Metrics) (*buildCtx, error) {
	all := p.Nodes()
	nodes := make(map[int]*pipelinecore.Node, len(all))
	for _, n := range all {
		nodes[n.ID] = n
	}
	subgraph := pipelinecore.Ancestors(all, target)
	subgraph[target] = true

	refcount := make(map[int]int)
	for id := range subgraph {
		n := nodes[id]
		for _, in := range n.Inputs {
			if subgraph[in] {
				refcount[in]++
			}
		}
		if n.Kind == pipelinecore.KindJoin && subgraph[n.RightNode] {
			refcount[n.RightNode]++
		}
	}

	cfg := p.Config
	return &buildCtx{
		ctx:       ctx,
		pipeline:  p,
		nodes:     nodes,
		refcount:  refcount,
		cache:     make(map[int][]any),
		metrics:   m,
		batchSize: cfg.BatchSize,
		hashSeed:  cfg.DeterministicHashSeed,
	}, nil
}

// build returns an iterator over node id's output, materializing once and
// caching if the node fans out to more than one consumer within the
// target subgraph.
func (b *buildCtx) build(id int) (pipelinecore.Iterator, error) {
	if cached, ok := b.cache[id]; ok {
		return newAnyIterator(cached), nil
	}
	if b.refcount[id] > 1 {
		raw, err := b.buildRaw(id)
		if err != nil {
			return nil, err
		}
		elements, err := drain(b.ctx, raw, b.batchSize)
		raw.Close()
		if err != nil {
			return nil, err
		}
		b.cache[id] = elements
		return newAnyIterator(elements), nil
	}
	return b.buildRaw(id)
}

func newAnyIterator(items []any) pipelinecore.Iterator {
	return pipelinecore.NewSliceIterator(items)
}

func (b *buildCtx) node(id int) (*pipelinecore.Node, error) {
	n, ok := b.nodes[id]
	if !ok {
		return nil, fmt.Errorf("exec: unknown node id %d", id)
	}
	return n, nil
}

// buildRaw constructs the genuine (uncached) iterator for one node,
// dispatching on Kind. Stateless kinds stream directly off their single
// input; stateful kinds (group_by_key, combine_per_key, top_k_per_key,
// join, checkpoint) drain their input fully before producing output, per
// §4.4's "stateful operators buffer as required" rule.
func (b *buildCtx) buildRaw(id int) (pipelinecore.Iterator, error) {
	n, err := b.node(id)
	if err != nil {
		return nil, err
	}

	plog.Debug("dispatching node", plog.Fields(plog.FieldNode, n.Name, "kind", n.Kind.String()))

	switch n.Kind {
	case pipelinecore.KindSource:
		if override, ok := b.sourceOverride[n.ID]; ok {
			return newAnyIterator(override), nil
		}
		it, err := n.SourceFn(b.ctx)
		if err != nil {
			return nil, perrors.IoError(n.Name, "", err)
		}
		return it, nil

	case pipelinecore.KindMap:
		inner, err := b.build(n.Inputs[0])
		if err != nil {
			return nil, err
		}
		return &mapIter{name: n.Name, inner: inner, fn: n.MapFn, metrics: b.metrics}, nil

	case pipelinecore.KindFilter:
		inner, err := b.build(n.Inputs[0])
		if err != nil {
			return nil, err
		}
		return &filterIter{name: n.Name, inner: inner, pred: n.FilterFn, metrics: b.metrics}, nil

	case pipelinecore.KindFlatMap:
		inner, err := b.build(n.Inputs[0])
		if err != nil {
			return nil, err
		}
		return &flatMapIter{name: n.Name, inner: inner, fn: n.FlatMapFn, metrics: b.metrics}, nil

	case pipelinecore.KindMapBatches:
		inner, err := b.build(n.Inputs[0])
		if err != nil {
			return nil, err
		}
		return &batchIter{name: n.Name, size: n.BatchSize, inner: inner, fn: n.BatchFn, metrics: b.metrics}, nil

	case pipelinecore.KindKeyBy:
		inner, err := b.build(n.Inputs[0])
		if err != nil {
			return nil, err
		}
		return &mapIter{name: n.Name, inner: inner, fn: func(_ context.Context, v any) (any, error) { return n.KeyFn(v) }, metrics: b.metrics}, nil

	case pipelinecore.KindMapValues:
		inner, err := b.build(n.Inputs[0])
		if err != nil {
			return nil, err
		}
		return &mapIter{name: n.Name, inner: inner, fn: n.MapFn, metrics: b.metrics}, nil

	case pipelinecore.KindWithSide:
		inner, err := b.build(n.Inputs[0])
		if err != nil {
			return nil, err
		}
		side, ok := n.SideRegistry.Resolve(n.SideToken)
		if !ok {
			plog.Debug("with_side: token not found", plog.Fields(plog.FieldNode, n.Name, "registered", len(n.SideRegistry.Tokens())))
			return nil, perrors.InvalidArgument(fmt.Sprintf("with_side: no value registered for token used by node %q", n.Name))
		}
		return &withSideIter{name: n.Name, inner: inner, side: side, fn: n.SideFn, metrics: b.metrics}, nil

	case pipelinecore.KindWindowFixed:
		inner, err := b.build(n.Inputs[0])
		if err != nil {
			return nil, err
		}
		fn := func(_ context.Context, v any) (any, error) {
			w := transform.FixedWindowFor(n.TsFn(v), n.WindowSize)
			return n.RebuildWindowed(w, v), nil
		}
		return &mapIter{name: n.Name, inner: inner, fn: fn, metrics: b.metrics}, nil

	case pipelinecore.KindWindowSliding:
		inner, err := b.build(n.Inputs[0])
		if err != nil {
			return nil, err
		}
		expand := func(v any) []any {
			windows := transform.SlidingWindowsFor(n.TsFn(v), n.WindowSize, n.WindowPeriod)
			out := make([]any, len(windows))
			for i, w := range windows {
				out[i] = n.RebuildWindowed(w, v)
			}
			return out
		}
		return &windowSlidingIter{name: n.Name, inner: inner, expand: expand, metrics: b.metrics}, nil

	case pipelinecore.KindGroupByKey:
		inner, err := b.build(n.Inputs[0])
		if err != nil {
			return nil, err
		}
		elements, err := drain(b.ctx, inner, b.batchSize)
		inner.Close()
		if err != nil {
			return nil, err
		}
		groups := groupByKeyOrder(b.hashSeed, elements, n.KeyOfFn)
		out := make([]any, len(groups))
		for i, g := range groups {
			out[i] = n.RebuildGroup(g.key, g.values)
		}
		recordProcessed(b.metrics, b.ctx, n.Name, int64(len(elements)))
		return newAnyIterator(out), nil

	case pipelinecore.KindCombinePerKey:
		inner, err := b.build(n.Inputs[0])
		if err != nil {
			return nil, err
		}
		keys, outputs, total, err := foldStreamByKey(b.ctx, inner, b.batchSize, b.hashSeed, n.Combiner, n.KeyOfFn, n.ValueOfFn)
		inner.Close()
		if err != nil {
			return nil, err
		}
		out := make([]any, len(keys))
		for i, k := range keys {
			out[i] = n.RebuildCombine(k, outputs[i])
		}
		recordProcessed(b.metrics, b.ctx, n.Name, total)
		return newAnyIterator(out), nil

	case pipelinecore.KindTopKPerKey:
		inner, err := b.build(n.Inputs[0])
		if err != nil {
			return nil, err
		}
		elements, err := drain(b.ctx, inner, b.batchSize)
		inner.Close()
		if err != nil {
			return nil, err
		}
		groups := groupByKeyOrder(b.hashSeed, elements, n.KeyOfFn)
		out := make([]any, len(groups))
		for i, g := range groups {
			top := topKForGroup(g.values, n.TopK, n.Less)
			out[i] = n.RebuildTopK(g.key, top)
		}
		recordProcessed(b.metrics, b.ctx, n.Name, int64(len(elements)))
		return newAnyIterator(out), nil

	case pipelinecore.KindJoin:
		return b.buildJoin(n)

	case pipelinecore.KindCheckpoint:
		inner, err := b.build(n.Inputs[0])
		if err != nil {
			return nil, err
		}
		elements, err := drain(b.ctx, inner, b.batchSize)
		inner.Close()
		if err != nil {
			return nil, err
		}
		typeTag := "unknown"
		if n.OutputType != nil {
			typeTag = n.OutputType.String()
		}
		if err := checkpoint.Write(n.CheckpointPath, typeTag, elements); err != nil {
			return nil, err
		}
		recordProcessed(b.metrics, b.ctx, n.Name, int64(len(elements)))
		return newAnyIterator(elements), nil

	default:
		return nil, fmt.Errorf("exec: node %q has unsupported kind %v", n.Name, n.Kind)
	}
}

func (b *buildCtx) buildJoin(n *pipelinecore.Node) (pipelinecore.Iterator, error) {
	leftIt, err := b.build(n.Inputs[0])
	if err != nil {
		return nil, err
	}
	leftElements, err := drain(b.ctx, leftIt, b.batchSize)
	leftIt.Close()
	if err != nil {
		return nil, err
	}
	rightIt, err := b.build(n.RightNode)
	if err != nil {
		return nil, err
	}
	rightElements, err := drain(b.ctx, rightIt, b.batchSize)
	rightIt.Close()
	if err != nil {
		return nil, err
	}

	out := joinElements(b.hashSeed, n, leftElements, rightElements)
	recordProcessed(b.metrics, b.ctx, n.Name, int64(len(out)))
	return newAnyIterator(out), nil
}

func valueOfAll(keyedElements []any, valueOf func(v any) any) []any {
	if keyedElements == nil {
		return nil
	}
	out := make([]any, len(keyedElements))
	for i, v := range keyedElements {
		out[i] = valueOf(v)
	}
	return out
}
