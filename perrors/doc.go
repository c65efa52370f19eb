// Package perrors provides the closed-set structured error type used
// throughout the pipeline engine: construction errors (TypeMismatch,
// CrossPipeline, InvalidArgument) and run-time errors (UserFunctionError,
// IoError, EmptyAggregation, Cancelled, DeadlineExceeded, PipelineLocked,
// CheckpointCorrupt, ResourceExhausted).
package perrors
