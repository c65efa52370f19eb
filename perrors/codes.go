package perrors

// Kind is the closed set of error kinds the pipeline engine can raise.
// It is exhaustive by design (§7): callers may safely switch over it
// without a default case covering "unknown future kinds".
type Kind string

const (
	// Construction-time kinds, raised at the transformation call site.
	KindTypeMismatch    Kind = "type_mismatch"
	KindCrossPipeline   Kind = "cross_pipeline"
	KindInvalidArgument Kind = "invalid_argument"

	// Run-time kinds.
	KindUserFunctionError Kind = "user_function_error"
	KindIoError           Kind = "io_error"
	KindEmptyAggregation  Kind = "empty_aggregation"
	KindCancelled         Kind = "cancelled"
	KindDeadlineExceeded  Kind = "deadline_exceeded"
	KindPipelineLocked    Kind = "pipeline_locked"
	KindCheckpointCorrupt Kind = "checkpoint_corrupt"
	KindResourceExhausted Kind = "resource_exhausted"
)

// constructionKinds are returned at the call site and never mutate the graph.
var constructionKinds = map[Kind]bool{
	KindTypeMismatch:    true,
	KindCrossPipeline:   true,
	KindInvalidArgument: true,
}

// IsConstructionKind reports whether kind is raised during graph
// construction (as opposed to during a run).
func IsConstructionKind(kind Kind) bool {
	return constructionKinds[kind]
}
