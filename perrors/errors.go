// Package perrors provides the pipeline engine's structured error type.
// Every error the engine returns is a *PipelineError carrying one of a
// small, closed set of kinds (see codes.go); there is no HTTP mapping and
// no retryable flag that varies by kind, since the engine never retries.
package perrors

import (
	"errors"
	"fmt"
)

// PipelineError is the unified error type returned by pipeline construction
// and execution. Cause chains via errors.Unwrap; Kind is meant to be
// switched on by callers that need structured handling.
type PipelineError struct {
	// Kind is a machine-readable, closed-set error kind (see the Kind* constants).
	Kind Kind `json:"kind"`
	// Message is a human-readable description.
	Message string `json:"message"`
	// Node is the operator node name involved, when applicable.
	Node string `json:"node,omitempty"`
	// Path is the file/checkpoint path involved, when applicable.
	Path string `json:"path,omitempty"`
	// Details carries additional structured context.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error, if any.
	Cause error `json:"-"`
}

func (e *PipelineError) Error() string {
	var b fmt.Stringer
	_ = b
	switch {
	case e.Node != "" && e.Cause != nil:
		return fmt.Sprintf("%s: %s (node=%s): %v", e.Kind, e.Message, e.Node, e.Cause)
	case e.Node != "":
		return fmt.Sprintf("%s: %s (node=%s)", e.Kind, e.Message, e.Node)
	case e.Cause != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	default:
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
}

func (e *PipelineError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause and returns the receiver.
func (e *PipelineError) WithCause(cause error) *PipelineError {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key and returns the receiver.
func (e *PipelineError) WithDetail(key string, value any) *PipelineError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// Retryable always reports false: §7 of the engine's error policy mandates
// no retries of user functions or I/O. The method exists so callers that
// branch on retryability (e.g. generic job-runner glue) compile against a
// uniform error shape without special-casing this package.
func (e *PipelineError) Retryable() bool { return false }

func newErr(kind Kind, format string, args ...any) *PipelineError {
	return &PipelineError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// TypeMismatch reports that a node's declared input type does not match
// the output type of its predecessor handle.
func TypeMismatch(want, got string) *PipelineError {
	return newErr(KindTypeMismatch, "expected element type %s, got %s", want, got)
}

// CrossPipeline reports that a handle was used with a pipeline other than
// the one that created it.
func CrossPipeline() *PipelineError {
	return newErr(KindCrossPipeline, "handle belongs to a different pipeline")
}

// InvalidArgument reports a bad construction-time argument (k <= 0, zero
// window size, batch size < 1, and similar).
func InvalidArgument(message string) *PipelineError {
	return newErr(KindInvalidArgument, "%s", message)
}

// UserFunctionError wraps a failure from a user-supplied transformation
// function, naming the node that invoked it.
func UserFunctionError(node string, cause error) *PipelineError {
	return (&PipelineError{Kind: KindUserFunctionError, Message: "user function failed", Node: node}).WithCause(cause)
}

// IoError wraps a failure from a source/sink adapter.
func IoError(node, path string, cause error) *PipelineError {
	return (&PipelineError{Kind: KindIoError, Message: "i/o adapter failed", Node: node, Path: path}).WithCause(cause)
}

// EmptyAggregation reports min/max/average invoked on an empty key or
// empty global collection.
func EmptyAggregation(detail string) *PipelineError {
	return newErr(KindEmptyAggregation, "aggregation on empty input: %s", detail)
}

// Cancelled reports cooperative termination via a caller-supplied token.
func Cancelled() *PipelineError {
	return newErr(KindCancelled, "run was cancelled")
}

// DeadlineExceeded reports a run that exceeded its configured deadline.
func DeadlineExceeded() *PipelineError {
	return newErr(KindDeadlineExceeded, "run deadline exceeded")
}

// PipelineLocked reports a mutation attempted on a pipeline whose graph is
// frozen because a run is in progress.
func PipelineLocked() *PipelineError {
	return newErr(KindPipelineLocked, "pipeline graph is frozen for an in-progress run")
}

// CheckpointCorrupt reports a manifest/digest mismatch during recovery.
func CheckpointCorrupt(path string, cause error) *PipelineError {
	return (&PipelineError{Kind: KindCheckpointCorrupt, Message: "checkpoint manifest or digest invalid", Path: path}).WithCause(cause)
}

// ResourceExhausted reports a buffer that exceeded its configured limit
// with spilling disabled.
func ResourceExhausted(detail string) *PipelineError {
	return newErr(KindResourceExhausted, "resource exhausted: %s", detail)
}

// IsKind reports whether err is a *PipelineError of the given kind.
func IsKind(err error, kind Kind) bool {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Kind == kind
	}
	return false
}

// As extracts a *PipelineError from err, if any, following the Unwrap chain.
func As(err error) (*PipelineError, bool) {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
