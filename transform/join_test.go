package transform

import (
	"testing"

	"github.com/kbukum/flowbatch/pipelinecore"
)

type joinRow struct {
	left, right any
	leftOK      bool
	rightOK     bool
}

func combineRows(key any, leftVal any, leftOK bool, rightVal any, rightOK bool) any {
	return joinRow{left: leftVal, right: rightVal, leftOK: leftOK, rightOK: rightOK}
}

func TestComputeJoin_Inner(t *testing.T) {
	out := ComputeJoin(pipelinecore.JoinInner, "k", []any{1, 2}, []any{"a", "b"}, combineRows)
	if len(out) != 4 {
		t.Fatalf("inner join of 2x2 = %d rows, want 4 (cross product size law)", len(out))
	}
}

func TestComputeJoin_InnerEmptySideYieldsNothing(t *testing.T) {
	out := ComputeJoin(pipelinecore.JoinInner, "k", []any{1, 2}, nil, combineRows)
	if len(out) != 0 {
		t.Errorf("inner join with empty right side = %d rows, want 0", len(out))
	}
}

func TestComputeJoin_Left(t *testing.T) {
	out := ComputeJoin(pipelinecore.JoinLeft, "k", []any{1, 2, 3}, nil, combineRows)
	if len(out) != 3 {
		t.Fatalf("left join with empty right side = %d rows, want 3 (one per left value)", len(out))
	}
	for _, v := range out {
		row := v.(joinRow)
		if !row.leftOK || row.rightOK {
			t.Errorf("left join row %+v should have leftOK=true rightOK=false", row)
		}
	}
}

func TestComputeJoin_Right(t *testing.T) {
	out := ComputeJoin(pipelinecore.JoinRight, "k", nil, []any{"a", "b"}, combineRows)
	if len(out) != 2 {
		t.Fatalf("right join with empty left side = %d rows, want 2", len(out))
	}
	for _, v := range out {
		row := v.(joinRow)
		if row.leftOK || !row.rightOK {
			t.Errorf("right join row %+v should have leftOK=false rightOK=true", row)
		}
	}
}

func TestComputeJoin_FullBothEmpty(t *testing.T) {
	out := ComputeJoin(pipelinecore.JoinFull, "k", nil, nil, combineRows)
	if len(out) != 0 {
		t.Errorf("full join with both sides empty = %d rows, want 0", len(out))
	}
}

func TestComputeJoin_FullOneSidePresent(t *testing.T) {
	out := ComputeJoin(pipelinecore.JoinFull, "k", []any{1}, nil, combineRows)
	if len(out) != 1 {
		t.Fatalf("full join with only left present = %d rows, want 1", len(out))
	}
	row := out[0].(joinRow)
	if !row.leftOK || row.rightOK {
		t.Errorf("full join unmatched-left row = %+v, want leftOK=true rightOK=false", row)
	}
}

func TestComputeJoin_OrderingLeftVariesSlowest(t *testing.T) {
	out := ComputeJoin(pipelinecore.JoinInner, "k", []any{"L1", "L2"}, []any{"R1", "R2"}, combineRows)
	want := []joinRow{
		{left: "L1", right: "R1", leftOK: true, rightOK: true},
		{left: "L1", right: "R2", leftOK: true, rightOK: true},
		{left: "L2", right: "R1", leftOK: true, rightOK: true},
		{left: "L2", right: "R2", leftOK: true, rightOK: true},
	}
	if len(out) != len(want) {
		t.Fatalf("got %d rows, want %d", len(out), len(want))
	}
	for i, row := range out {
		got := row.(joinRow)
		if got != want[i] {
			t.Errorf("row %d = %+v, want %+v", i, got, want[i])
		}
	}
}
