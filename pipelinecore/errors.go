package pipelinecore

import (
	"reflect"

	"github.com/kbukum/flowbatch/perrors"
)

func crossPipelineErr() error { return perrors.CrossPipeline() }

// CheckType verifies that got is assignable to want, returning a
// TypeMismatch error naming both types otherwise. Exported so the exec
// and checkpoint packages can apply the same check when recovering a
// checkpointed collection into a handle of a possibly different type
// (the one place a type mismatch can surface outside of Go's own compile
// time checking, since recover_checkpoint crosses a pipeline boundary).
func CheckType(want, got reflect.Type) error {
	if want == nil || got == nil {
		return nil
	}
	if got.AssignableTo(want) {
		return nil
	}
	return perrors.TypeMismatch(want.String(), got.String())
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}
