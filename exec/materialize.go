package exec

import (
	"bytes"
	"context"
	"encoding/gob"
	"sort"

	"github.com/kbukum/flowbatch/combine"
	"github.com/kbukum/flowbatch/pipelinecore"
	"github.com/kbukum/flowbatch/transform"
)

// drain pulls every remaining element out of it, applying cooperative
// cancellation at batchSize granularity. Used by the node kinds that
// must see an entire key's values before producing output (group_by_key,
// top_k_per_key, join, checkpoint). combine_per_key folds directly off
// its iterator instead, via foldStreamByKey, since it never needs the
// raw values held at once.
func drain(ctx context.Context, it pipelinecore.Iterator, batchSize int) ([]any, error) {
	var out []any
	cc := cancelCheck{batchSize: batchSize}
	for {
		if err := cc.tick(ctx); err != nil {
			return nil, err
		}
		v, ok, err := it.Next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, v)
	}
}

// keyedGroup buffers one key's values in first-seen order.
type keyedGroup struct {
	key    any
	values []any
}

// groupByKeyOrder buckets elements under their key (preserving per-key
// insertion order), returning the buckets ordered by a stable hash of the
// key — §4.4's "group-by-key yields keys in hash order" rule — with ties
// broken by first appearance, so two runs over the same seed and the same
// input always agree.
func groupByKeyOrder(seed uint64, elements []any, keyOf func(v any) any) []keyedGroup {
	index := make(map[any]int)
	var groups []keyedGroup
	for _, v := range elements {
		k := keyOf(v)
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, keyedGroup{key: k})
		}
		groups[i].values = append(groups[i].values, v)
	}
	sortByHash(seed, groups)
	return groups
}

func sortByHash(seed uint64, groups []keyedGroup) {
	hashes := make([]uint64, len(groups))
	for i, g := range groups {
		hashes[i] = transform.HashKey(seed, g.key)
	}
	order := make([]int, len(groups))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return hashes[order[a]] < hashes[order[b]] })
	sorted := make([]keyedGroup, len(groups))
	for i, idx := range order {
		sorted[i] = groups[idx]
	}
	copy(groups, sorted)
}

// keyedAccumulator pairs a key with its combiner accumulator state,
// analogous to keyedGroup but holding one folded accumulator instead of
// every raw value seen for the key.
type keyedAccumulator struct {
	key any
	acc any
}

// foldStreamByKey drains it, folding each element directly into a
// per-key accumulator via Combiner.AddInput as it is read from the
// iterator — unlike groupByKeyOrder, which buffers every value of a key
// into a keyedGroup.values slice before any folding happens, this never
// holds more than one accumulator's worth of state per key. Keys are
// ordered by a stable hash (ties broken by first appearance), the same
// convention groupByKeyOrder uses. Used by combine_per_key's sequential
// path, where there is only ever one accumulator per key to extract.
func foldStreamByKey(ctx context.Context, it pipelinecore.Iterator, batchSize int, seed uint64, c combine.ErasedCombiner, keyOf, valueOf func(v any) any) (keys []any, outputs []any, total int64, err error) {
	acc := make(map[any]any)
	var order []any
	cc := cancelCheck{batchSize: batchSize}
	for {
		if err := cc.tick(ctx); err != nil {
			return nil, nil, 0, err
		}
		v, ok, err := it.Next(ctx)
		if err != nil {
			return nil, nil, 0, err
		}
		if !ok {
			break
		}
		total++
		k := keyOf(v)
		a, seen := acc[k]
		if !seen {
			a = c.CreateAccumulator()
			order = append(order, k)
		}
		acc[k] = c.AddInput(a, valueOf(v))
	}
	sortKeysByHash(seed, order)
	outputs = make([]any, len(order))
	for i, k := range order {
		outputs[i] = c.ExtractOutput(acc[k])
	}
	return order, outputs, total, nil
}

// foldElementsIntoAccumulators is foldStreamByKey's non-iterator twin: it
// folds an already-materialized slice of elements (one parallel shard's
// stateless-chain output, which must be materialized regardless so the
// shard's goroutine can terminate) directly into per-key accumulators,
// again without ever bucketing a key's raw values into a slice first.
// Used by the parallel executor's per-shard partial accumulation, where
// the returned accumulators are later reduced across shards via
// Combiner.MergeAccumulators before a single ExtractOutput.
func foldElementsIntoAccumulators(seed uint64, elements []any, c combine.ErasedCombiner, keyOf, valueOf func(v any) any) []keyedAccumulator {
	acc := make(map[any]any)
	var order []any
	for _, v := range elements {
		k := keyOf(v)
		a, seen := acc[k]
		if !seen {
			a = c.CreateAccumulator()
			order = append(order, k)
		}
		acc[k] = c.AddInput(a, valueOf(v))
	}
	result := make([]keyedAccumulator, len(order))
	for i, k := range order {
		result[i] = keyedAccumulator{key: k, acc: acc[k]}
	}
	sortAccByHash(seed, result)
	return result
}

func sortKeysByHash(seed uint64, keys []any) {
	hashes := make([]uint64, len(keys))
	for i, k := range keys {
		hashes[i] = transform.HashKey(seed, k)
	}
	order := make([]int, len(keys))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return hashes[order[a]] < hashes[order[b]] })
	sorted := make([]any, len(keys))
	for i, idx := range order {
		sorted[i] = keys[idx]
	}
	copy(keys, sorted)
}

func sortAccByHash(seed uint64, accs []keyedAccumulator) {
	hashes := make([]uint64, len(accs))
	for i, a := range accs {
		hashes[i] = transform.HashKey(seed, a.key)
	}
	order := make([]int, len(accs))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return hashes[order[a]] < hashes[order[b]] })
	sorted := make([]keyedAccumulator, len(accs))
	for i, idx := range order {
		sorted[i] = accs[idx]
	}
	copy(accs, sorted)
}

// topKForGroup ranks a key's values by less (true means the second
// argument outranks the first) and returns the top k, ties broken by
// first-seen order (sort.SliceStable over the original insertion order).
func topKForGroup(values []any, k int, less func(a, b any) bool) []any {
	ranked := make([]any, len(values))
	copy(ranked, values)
	sort.SliceStable(ranked, func(i, j int) bool { return less(ranked[j], ranked[i]) })
	if len(ranked) > k {
		ranked = ranked[:k]
	}
	return ranked
}

// shuffledBytes estimates how much data crossed shards at a shuffle
// boundary by gob-encoding it, the same framing checkpoint uses for its
// part files. Best-effort: elements that fail to encode (unregistered
// interface members, channels, funcs) are simply skipped rather than
// aborting the whole run over a metrics estimate.
func shuffledBytes(elements []any) int64 {
	var total int64
	for _, v := range elements {
		var buf bytes.Buffer
		if err := gob.NewEncoder(&buf).Encode(v); err != nil {
			continue
		}
		total += int64(buf.Len())
	}
	return total
}
