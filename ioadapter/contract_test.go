package ioadapter

import (
	"context"
	"errors"
	"testing"
)

type sliceIter[T any] struct {
	items []T
	pos   int
}

func (s *sliceIter[T]) Next(_ context.Context) (T, bool, error) {
	if s.pos >= len(s.items) {
		var zero T
		return zero, false, nil
	}
	v := s.items[s.pos]
	s.pos++
	return v, true, nil
}

func (s *sliceIter[T]) Close() error { return nil }

func TestToPipelineSource_BridgesTypedIterator(t *testing.T) {
	src := Source[int](func(_ context.Context) (Iterator[int], error) {
		return &sliceIter[int]{items: []int{1, 2, 3}}, nil
	})
	bridged := ToPipelineSource[int](src)
	it, err := bridged(context.Background())
	if err != nil {
		t.Fatalf("bridged source: %v", err)
	}
	defer it.Close()

	var got []int
	for {
		v, ok, err := it.Next(context.Background())
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !ok {
			break
		}
		got = append(got, v.(int))
	}
	if len(got) != 3 || got[0] != 1 || got[2] != 3 {
		t.Errorf("bridged source yielded %v, want [1 2 3]", got)
	}
}

func TestToPipelineSource_PropagatesConstructionError(t *testing.T) {
	wantErr := errors.New("boom")
	src := Source[int](func(_ context.Context) (Iterator[int], error) {
		return nil, wantErr
	})
	bridged := ToPipelineSource[int](src)
	if _, err := bridged(context.Background()); !errors.Is(err, wantErr) {
		t.Errorf("bridged source error = %v, want %v", err, wantErr)
	}
}

func TestToPipelineSink_ReceivesTypedElements(t *testing.T) {
	var got []int
	sink := Sink[int](func(ctx context.Context, it Iterator[int]) error {
		for {
			v, ok, err := it.Next(ctx)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			got = append(got, v)
		}
	})
	bridged := ToPipelineSink[int](sink)
	err := bridged(context.Background(), &erasedIntIterator{items: []any{10, 20, 30}})
	if err != nil {
		t.Fatalf("bridged sink: %v", err)
	}
	if len(got) != 3 || got[0] != 10 || got[2] != 30 {
		t.Errorf("sink saw %v, want [10 20 30]", got)
	}
}

type erasedIntIterator struct {
	items []any
	pos   int
}

func (e *erasedIntIterator) Next(_ context.Context) (any, bool, error) {
	if e.pos >= len(e.items) {
		return nil, false, nil
	}
	v := e.items[e.pos]
	e.pos++
	return v, true, nil
}

func (e *erasedIntIterator) Close() error { return nil }
