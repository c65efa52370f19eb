// Package exec implements SPEC_FULL.md §4.4's two execution strategies
// over a pipelinecore.Pipeline's frozen operator graph: a single-threaded
// pull-based sequential executor and a worker-pool parallel executor that
// shards, shuffles, and merges around keyed stage boundaries.
//
// Nodes are visited in ascending node id order, which is already a
// topological order since a node can only reference earlier nodes; the
// executors do not call pipelinecore.BuildLevels. The parallel executor's
// per-shard bounded
// concurrency is grounded on dag.Engine.execute's semaphore-channel
// dispatch, with resilience.Bulkhead standing in for the bespoke
// semaphore so the worker-pool bound comes from one already-adapted
// primitive. The shuffle/merge phase generalizes pipeline.Parallel's
// producer/worker-pool/output-channel shape and pipeline.Merge's fan-in.
package exec
