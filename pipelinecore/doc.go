// Package pipelinecore implements the lazy operator graph and typed
// collection handles described in SPEC_FULL.md §3 and §4.1.
//
// A Pipeline owns an append-only arena of operator nodes. Each
// transformation call (Map, Filter, KeyBy, ...) appends one node to the
// arena and returns a new Handle[T] — a (pipelineID, nodeID) pair carrying
// its element type only as a compile-time phantom marker. The arena
// itself stores nodes as an erased struct: user functions, combiners, and
// orderings are held as `any`-typed closures behind a type-witness check
// performed once, at the call site that created the node, never again
// during execution. This mirrors the gokit DAG package's Port[T]/Read/Write
// pattern, generalized from a single key-value store to a full node graph.
//
// Nothing in this package evaluates a node. Evaluation is the job of the
// exec package, which walks the arena from a target Handle and pulls or
// partitions elements through it.
package pipelinecore
