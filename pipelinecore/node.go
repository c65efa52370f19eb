package pipelinecore

import (
	"context"
	"reflect"
	"time"

	"github.com/kbukum/flowbatch/combine"
	"github.com/kbukum/flowbatch/sideinput"
)

// Kind tags the variant an operator Node record holds, per §3's "tagged
// variant" operator-node data model.
type Kind int

const (
	KindSource Kind = iota
	KindMap
	KindFilter
	KindFlatMap
	KindMapBatches
	KindKeyBy
	KindMapValues
	KindGroupByKey
	KindCombinePerKey
	KindTopKPerKey
	KindJoin
	KindWithSide
	KindWindowFixed
	KindWindowSliding
	KindCheckpoint
	KindSink
)

func (k Kind) String() string {
	switch k {
	case KindSource:
		return "source"
	case KindMap:
		return "map"
	case KindFilter:
		return "filter"
	case KindFlatMap:
		return "flat_map"
	case KindMapBatches:
		return "map_batches"
	case KindKeyBy:
		return "key_by"
	case KindMapValues:
		return "map_values"
	case KindGroupByKey:
		return "group_by_key"
	case KindCombinePerKey:
		return "combine_per_key"
	case KindTopKPerKey:
		return "top_k_per_key"
	case KindJoin:
		return "join"
	case KindWithSide:
		return "with_side"
	case KindWindowFixed:
		return "window_fixed"
	case KindWindowSliding:
		return "window_sliding"
	case KindCheckpoint:
		return "checkpoint"
	case KindSink:
		return "sink"
	default:
		return "unknown"
	}
}

// Node is the arena record for one operator. Only the fields relevant to
// Kind are populated; the rest stay nil/zero. This is the erased-storage
// half of the "typed handles without reified generics" design note: the
// fluent API in ops.go is the only place that touches Go generics, and it
// closes over them into these plain-`any` fields before appending to the
// arena. The exec package reads these fields directly to interpret and
// run a node; Node is exported for exactly that reason, not as a public
// construction surface — callers build pipelines through the fluent
// Handle[T] API in ops.go, never by constructing a Node literal.
type Node struct {
	ID         int
	Kind       Kind
	Name       string
	Inputs     []int
	OutputType reflect.Type

	// KindSource
	SourceFn func(ctx context.Context) (Iterator, error)

	// KindMap / KindMapValues (applied to the Value half of a Keyed)
	MapFn func(ctx context.Context, v any) (any, error)

	// KindFilter
	FilterFn func(v any) bool

	// KindFlatMap
	FlatMapFn func(ctx context.Context, v any) (Iterator, error)

	// KindMapBatches
	BatchSize int
	BatchFn   func(ctx context.Context, batch []any) ([]any, error)

	// KindKeyBy
	KeyFn func(v any) (any, error)

	// KindGroupByKey / KindCombinePerKey / KindTopKPerKey all consume
	// Keyed[K, V] elements and must emit a concrete Keyed[K, X] value
	// back out; KeyOfFn/ValueOfFn unpack the erased input (whose K/V were
	// only known at the ops.go call site), and the per-kind Rebuild*
	// closure below builds the concrete output type.
	KeyOfFn   func(v any) any
	ValueOfFn func(v any) any

	// KindGroupByKey
	RebuildGroup func(key any, values []any) any

	// KindCombinePerKey
	Combiner       combine.ErasedCombiner
	RebuildCombine func(key any, output any) any

	// KindTopKPerKey
	TopK       int
	Less       func(a, b any) bool
	RebuildTopK func(key any, values []any) any

	// KindJoin. Left/RightKeyFn and Left/RightValFn unpack an erased
	// Keyed[K, V] / Keyed[K, W] element (whose concrete K/V/W were only
	// known at the join(...) call site in ops.go); JoinCombine builds the
	// concrete Keyed[K, JoinResult[V, W]] result from an unpacked pair, so
	// that the value flowing downstream is the exact generic
	// instantiation a later node's type assertion expects.
	JoinKind    JoinKind
	RightNode   int
	LeftKeyFn   func(v any) any
	LeftValFn   func(v any) any
	RightKeyFn  func(v any) any
	RightValFn  func(v any) any
	JoinCombine func(key any, leftVal any, leftOK bool, rightVal any, rightOK bool) any

	// KindWithSide
	SideToken    sideinput.Token
	SideRegistry *sideinput.Registry
	SideFn       func(ctx context.Context, v any, side any) (any, error)

	// KindWindowFixed / KindWindowSliding. RebuildWindowed builds the
	// concrete Windowed[T] value from an erased element and the Window it
	// was assigned to; needed because, like Keyed[K,V] above, T is only
	// known at the window_fixed/window_sliding call site in ops.go.
	WindowSize      time.Duration
	WindowPeriod    time.Duration
	TsFn            func(v any) time.Time
	RebuildWindowed func(w Window, v any) any

	// KindCheckpoint
	CheckpointPath string

	// KindSink
	SinkFn func(ctx context.Context, it Iterator) error
}
