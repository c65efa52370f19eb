package perrors

import (
	"errors"
	"fmt"
	"testing"
)

func TestPipelineError_Error(t *testing.T) {
	cases := []struct {
		name string
		err  *PipelineError
		want string
	}{
		{
			name: "plain",
			err:  InvalidArgument("k must be > 0"),
			want: "invalid_argument: k must be > 0",
		},
		{
			name: "with node",
			err:  UserFunctionError("map-1", errors.New("boom")),
			want: "user_function_error: user function failed (node=map-1): boom",
		},
		{
			name: "with cause only",
			err:  (&PipelineError{Kind: KindResourceExhausted, Message: "buffer full"}).WithCause(errors.New("oom")),
			want: "resource_exhausted: buffer full: oom",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.err.Error(); got != tc.want {
				t.Fatalf("Error() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestPipelineError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := IoError("sink-1", "/tmp/out", cause)
	if !errors.Is(err, cause) {
		t.Fatal("expected errors.Is to find the wrapped cause")
	}
}

func TestPipelineError_Retryable(t *testing.T) {
	for _, err := range []*PipelineError{
		InvalidArgument("x"),
		UserFunctionError("n", errors.New("e")),
		IoError("n", "p", errors.New("e")),
		ResourceExhausted("d"),
	} {
		if err.Retryable() {
			t.Fatalf("%v: expected Retryable() == false", err.Kind)
		}
	}
}

func TestIsKind(t *testing.T) {
	err := CrossPipeline()
	if !IsKind(err, KindCrossPipeline) {
		t.Fatal("expected IsKind to match")
	}
	if IsKind(err, KindCancelled) {
		t.Fatal("expected IsKind to not match a different kind")
	}
	if IsKind(errors.New("plain"), KindCrossPipeline) {
		t.Fatal("expected IsKind to return false for a non-PipelineError")
	}
}

func TestAs(t *testing.T) {
	wrapped := fmt.Errorf("context: %w", EmptyAggregation("key=foo"))
	pe, ok := As(wrapped)
	if !ok {
		t.Fatal("expected As to unwrap a PipelineError")
	}
	if pe.Kind != KindEmptyAggregation {
		t.Fatalf("got kind %s", pe.Kind)
	}
}

func TestWithDetail(t *testing.T) {
	err := CheckpointCorrupt("/tmp/ckpt", errors.New("digest mismatch")).WithDetail("part", "part-00001.bin")
	if err.Details["part"] != "part-00001.bin" {
		t.Fatalf("expected detail to be set, got %v", err.Details)
	}
}

func TestIsConstructionKind(t *testing.T) {
	for _, k := range []Kind{KindTypeMismatch, KindCrossPipeline, KindInvalidArgument} {
		if !IsConstructionKind(k) {
			t.Fatalf("expected %s to be a construction kind", k)
		}
	}
	for _, k := range []Kind{KindUserFunctionError, KindCancelled, KindPipelineLocked} {
		if IsConstructionKind(k) {
			t.Fatalf("expected %s to not be a construction kind", k)
		}
	}
}
