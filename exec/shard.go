package exec

import (
	"context"

	"github.com/kbukum/flowbatch/perrors"
	"github.com/kbukum/flowbatch/pipelinecore"
)

// shardSet is one shard's pre-partitioned input, keyed by which source
// node it feeds.
type shardSet struct {
	sourceID int
	elements []any
}

// shardSources locates the single source feeding targetID's stateless
// prefix, drains it once, and partitions it into parallelism shards by
// round-robin of batch_size-sized batches, per §4.4's "round-robin of
// batches of size batch_size" fallback partitioning rule (this engine has
// no indexed-access source variant, so equal-range partitioning is not
// attempted).
func (b *buildCtx) shardSources(ctx context.Context, targetID int, parallelism int) ([]shardSet, error) {
	nodesSlice := make([]*pipelinecore.Node, 0, len(b.nodes))
	for _, n := range b.nodes {
		nodesSlice = append(nodesSlice, n)
	}
	ancestors := pipelinecore.Ancestors(nodesSlice, targetID)

	var sourceID = -1
	for id := range ancestors {
		if b.nodes[id].Kind == pipelinecore.KindSource {
			if sourceID != -1 {
				return nil, perrors.InvalidArgument("exec: parallel executor supports exactly one source per stateless chain")
			}
			sourceID = id
		}
	}
	if sourceID == -1 {
		return nil, perrors.InvalidArgument("exec: no source found feeding parallel chain")
	}

	srcNode := b.nodes[sourceID]
	it, err := srcNode.SourceFn(b.ctx)
	if err != nil {
		return nil, perrors.IoError(srcNode.Name, "", err)
	}
	elements, err := drain(ctx, it, b.batchSize)
	it.Close()
	if err != nil {
		return nil, err
	}

	batchSize := b.batchSize
	if batchSize <= 0 {
		batchSize = len(elements)
	}
	if batchSize <= 0 {
		batchSize = 1
	}

	shards := make([]shardSet, parallelism)
	for i := range shards {
		shards[i] = shardSet{sourceID: sourceID}
	}
	batchIdx := 0
	for start := 0; start < len(elements); start += batchSize {
		end := start + batchSize
		if end > len(elements) {
			end = len(elements)
		}
		s := batchIdx % parallelism
		shards[s].elements = append(shards[s].elements, elements[start:end]...)
		batchIdx++
	}

	var nonEmpty []shardSet
	for _, s := range shards {
		if len(s.elements) > 0 {
			nonEmpty = append(nonEmpty, s)
		}
	}
	if len(nonEmpty) == 0 {
		// Genuinely empty source: still run one (empty) shard so the
		// chain is built and drained once; it yields no elements and no
		// keyed group.
		return []shardSet{{sourceID: sourceID}}, nil
	}
	return nonEmpty, nil
}

// runShard builds and drains targetID's chain for a single shard, using a
// fresh buildCtx (its own node-result cache) so shards never share
// materialized fan-out state.
func (b *buildCtx) runShard(ctx context.Context, targetID int, shard shardSet) ([]any, error) {
	shardCtx := &buildCtx{
		ctx:            b.ctx,
		pipeline:       b.pipeline,
		nodes:          b.nodes,
		refcount:       b.refcount,
		cache:          make(map[int][]any),
		metrics:        b.metrics,
		batchSize:      b.batchSize,
		hashSeed:       b.hashSeed,
		sourceOverride: map[int][]any{shard.sourceID: shard.elements},
	}
	it, err := shardCtx.build(targetID)
	if err != nil {
		return nil, err
	}
	defer it.Close()
	return drain(ctx, it, b.batchSize)
}
