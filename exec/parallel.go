package exec

import (
	"context"
	"sort"
	"time"

	"github.com/kbukum/flowbatch/checkpoint"
	"github.com/kbukum/flowbatch/perrors"
	"github.com/kbukum/flowbatch/pipelinecore"
	"github.com/kbukum/flowbatch/plog"
	"github.com/kbukum/flowbatch/resilience"
	"github.com/kbukum/flowbatch/transform"
)

// isShuffleBoundary reports whether a node kind forces the parallel
// executor to merge shard-local results before continuing, per §4.4: "A
// keyed stage triggers a shuffle." Checkpoint is included even though it
// is not keyed, since a part file must be written once, not once per
// shard.
func isShuffleBoundary(k pipelinecore.Kind) bool {
	switch k {
	case pipelinecore.KindGroupByKey, pipelinecore.KindCombinePerKey, pipelinecore.KindTopKPerKey, pipelinecore.KindJoin, pipelinecore.KindCheckpoint:
		return true
	default:
		return false
	}
}

// firstBoundary finds the shuffle-boundary node closest to the sources in
// the ancestor subgraph of target. Node ids are assigned in construction
// order and a handle can only reference already-constructed handles, so
// ascending id order is already a valid topological order — no separate
// level computation is needed here.
func firstBoundary(nodes map[int]*pipelinecore.Node, subgraph map[int]bool) (*pipelinecore.Node, bool) {
	ids := make([]int, 0, len(subgraph))
	for id := range subgraph {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		if isShuffleBoundary(nodes[id].Kind) {
			return nodes[id], true
		}
	}
	return nil, false
}

// CollectParallel partitions the source(s) feeding h into P shards
// (P = pipeline.Config.Parallelism), runs the stateless prefix chain of
// each shard concurrently bounded by a resilience.Bulkhead (except at a
// combine_per_key boundary, whose shards run one after another on the
// calling goroutine; see runCombinePerKeyBoundary), and merges at
// the first keyed or checkpoint boundary using merge_accumulators (for
// combine_per_key) or plain concatenation-then-regroup (for
// group_by_key/top_k_per_key/join), matching §4.4's output order rule
// "(key-hash-bucket, key) followed by the deterministic within-key
// order". Once past the (at most one, for the pipelines this engine
// supports) boundary, the remaining downstream chain runs single-threaded
// exactly as in CollectSequential, since it is now operating on one
// already-merged sequence rather than P independent shards.
func CollectParallel[T any](ctx context.Context, p *pipelinecore.Pipeline, h pipelinecore.Handle[T], opts Options) ([]T, error) {
	start := time.Now()
	p.Lock()
	defer p.Unlock()

	b, err := newBuildCtx(ctx, p, h.NodeID(), opts.Metrics)
	if err != nil {
		return nil, err
	}

	all := p.Nodes()
	subgraph := pipelinecore.Ancestors(all, h.NodeID())
	boundary, found := firstBoundary(b.nodes, subgraph)

	parallelism := p.Config.Parallelism
	if parallelism <= 0 {
		parallelism = 1
	}

	if !found {
		elements, err := runShardedChain(ctx, b, h.NodeID(), parallelism)
		if err != nil {
			plog.Error("parallel run failed", plog.ErrorFields("collect_parallel", err))
			return nil, err
		}
		result, err := typedSlice[T](elements)
		if err != nil {
			return nil, err
		}
		if opts.Metrics != nil {
			opts.Metrics.RecordWallTime(ctx, p.ID(), time.Since(start))
		}
		return result, nil
	}

	merged, err := b.runBoundary(ctx, boundary, parallelism)
	if err != nil {
		plog.Error("parallel run failed", plog.ErrorFields("collect_parallel", err))
		return nil, err
	}
	b.cache[boundary.ID] = merged

	it, err := b.build(h.NodeID())
	if err != nil {
		return nil, err
	}
	defer it.Close()
	result, err := pipelinecore.Collect[T](ctx, it)
	if opts.Metrics != nil {
		opts.Metrics.RecordWallTime(ctx, p.ID(), time.Since(start))
	}
	if err != nil {
		plog.Error("parallel run failed", plog.ErrorFields("collect_parallel", err))
		return nil, err
	}
	return result, nil
}

func typedSlice[T any](elements []any) ([]T, error) {
	out := make([]T, len(elements))
	for i, v := range elements {
		typed, ok := v.(T)
		if !ok {
			return nil, perrors.InvalidArgument("exec: element type mismatch materializing parallel result")
		}
		out[i] = typed
	}
	return out, nil
}

// runShardedChain builds and drains targetID's chain once per shard
// (sourceOverride populated per shard), bounded by a Bulkhead of size
// parallelism, and concatenates the shards' outputs in shard order.
func runShardedChain(ctx context.Context, b *buildCtx, targetID int, parallelism int) ([]any, error) {
	shards, err := b.shardSources(ctx, targetID, parallelism)
	if err != nil {
		return nil, err
	}
	if len(shards) <= 1 {
		if len(shards) == 0 {
			return nil, nil
		}
		return b.runShard(ctx, targetID, shards[0])
	}

	bh := resilience.NewBulkhead(resilience.BulkheadConfig{Name: "parallel-shard", MaxConcurrent: parallelism})
	results := make([][]any, len(shards))
	errs := make([]error, len(shards))
	done := make(chan int, len(shards))
	for i, shard := range shards {
		i, shard := i, shard
		go func() {
			_ = bh.Execute(ctx, func() error {
				res, err := b.runShard(ctx, targetID, shard)
				results[i] = res
				errs[i] = err
				return err
			})
			done <- i
		}()
	}
	for range shards {
		<-done
	}
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	var out []any
	for _, r := range results {
		out = append(out, r...)
	}
	return out, nil
}

// runBoundary computes the merged, boundary node's output by running the
// stateless prefix per shard for each of its inputs, concatenating, and
// applying the boundary's keyed reduction once over the merged set.
func (b *buildCtx) runBoundary(ctx context.Context, n *pipelinecore.Node, parallelism int) ([]any, error) {
	switch n.Kind {
	case pipelinecore.KindGroupByKey:
		elements, err := runShardedChain(ctx, b, n.Inputs[0], parallelism)
		if err != nil {
			return nil, err
		}
		recordShuffleBytes(b.metrics, ctx, n.Name, shuffledBytes(elements))
		groups := groupByKeyOrder(b.hashSeed, elements, n.KeyOfFn)
		out := make([]any, len(groups))
		for i, g := range groups {
			out[i] = n.RebuildGroup(g.key, g.values)
		}
		return out, nil

	case pipelinecore.KindTopKPerKey:
		elements, err := runShardedChain(ctx, b, n.Inputs[0], parallelism)
		if err != nil {
			return nil, err
		}
		recordShuffleBytes(b.metrics, ctx, n.Name, shuffledBytes(elements))
		groups := groupByKeyOrder(b.hashSeed, elements, n.KeyOfFn)
		out := make([]any, len(groups))
		for i, g := range groups {
			top := topKForGroup(g.values, n.TopK, n.Less)
			out[i] = n.RebuildTopK(g.key, top)
		}
		return out, nil

	case pipelinecore.KindCombinePerKey:
		return b.runCombinePerKeyBoundary(ctx, n, parallelism)

	case pipelinecore.KindJoin:
		leftElements, err := runShardedChain(ctx, b, n.Inputs[0], parallelism)
		if err != nil {
			return nil, err
		}
		rightElements, err := runShardedChain(ctx, b, n.RightNode, parallelism)
		if err != nil {
			return nil, err
		}
		recordShuffleBytes(b.metrics, ctx, n.Name, shuffledBytes(leftElements)+shuffledBytes(rightElements))
		return joinElements(b.hashSeed, n, leftElements, rightElements), nil

	case pipelinecore.KindCheckpoint:
		elements, err := runShardedChain(ctx, b, n.Inputs[0], parallelism)
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
		return elements, nil

	default:
		return nil, perrors.InvalidArgument("exec: unsupported shuffle boundary kind")
	}
}

// runCombinePerKeyBoundary accumulates each shard's elements into
// per-key partial accumulators independently, then merges partials across
// shards via merge_accumulators — the two-phase reduction §4.4 actually
// describes ("each worker produces partial per-key accumulators... a
// merge phase reduces by key across workers"). The shards' prefix chains
// run one after another on the calling goroutine, not concurrently; each
// shard still folds into its own partial accumulators before the merge.
func (b *buildCtx) runCombinePerKeyBoundary(ctx context.Context, n *pipelinecore.Node, parallelism int) ([]any, error) {
	shards, err := b.shardSources(ctx, n.Inputs[0], parallelism)
	if err != nil {
		return nil, err
	}

	var allPartials []keyedAccumulator
	var partialAccs []any
	for _, shard := range shards {
		elements, err := b.runShard(ctx, n.Inputs[0], shard)
		if err != nil {
			return nil, err
		}
		for _, pa := range foldElementsIntoAccumulators(b.hashSeed, elements, n.Combiner, n.KeyOfFn, n.ValueOfFn) {
			allPartials = append(allPartials, pa)
			partialAccs = append(partialAccs, pa.acc)
		}
	}
	recordShuffleBytes(b.metrics, ctx, n.Name, shuffledBytes(partialAccs))

	byKey := make(map[any][]any)
	index := make(map[any]int)
	var keys []any
	for _, pa := range allPartials {
		if _, ok := index[pa.key]; !ok {
			index[pa.key] = len(keys)
			keys = append(keys, pa.key)
		}
		byKey[pa.key] = append(byKey[pa.key], pa.acc)
	}

	sortKeysByHash(b.hashSeed, keys)

	out := make([]any, len(keys))
	for i, k := range keys {
		accs := byKey[k]
		merged := accs[0]
		if len(accs) > 1 {
			merged = n.Combiner.MergeAccumulators(accs)
			recordMerge(b.metrics, ctx, n.Name)
		}
		out[i] = n.RebuildCombine(k, n.Combiner.ExtractOutput(merged))
	}
	return out, nil
}

func joinElements(seed uint64, n *pipelinecore.Node, leftElements, rightElements []any) []any {
	leftGroups := groupByKeyOrder(seed, leftElements, n.LeftKeyFn)
	rightGroups := groupByKeyOrder(seed, rightElements, n.RightKeyFn)

	leftByKey := make(map[any][]any, len(leftGroups))
	rightByKey := make(map[any][]any, len(rightGroups))
	index := make(map[any]int)
	var keys []any
	for _, g := range leftGroups {
		leftByKey[g.key] = g.values
		if _, ok := index[g.key]; !ok {
			index[g.key] = len(keys)
			keys = append(keys, g.key)
		}
	}
	for _, g := range rightGroups {
		rightByKey[g.key] = g.values
		if _, ok := index[g.key]; !ok {
			index[g.key] = len(keys)
			keys = append(keys, g.key)
		}
	}
	keyOrder := make([]keyedGroup, len(keys))
	for i, k := range keys {
		keyOrder[i] = keyedGroup{key: k}
	}
	sortByHash(seed, keyOrder)

	var out []any
	for _, g := range keyOrder {
		leftVals := valueOfAll(leftByKey[g.key], n.LeftValFn)
		rightVals := valueOfAll(rightByKey[g.key], n.RightValFn)
		out = append(out, transform.ComputeJoin(n.JoinKind, g.key, leftVals, rightVals, n.JoinCombine)...)
	}
	return out
}
