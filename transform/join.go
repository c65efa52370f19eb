package transform

import "github.com/kbukum/flowbatch/pipelinecore"

// ComputeJoin produces the per-key result rows for one join key, given
// every left-side and right-side value already grouped under that key.
// combineFn builds one output element from an (optional left, optional
// right) pair; it is supplied by the join(...) construction site in
// pipelinecore/ops.go, where the concrete K/V/W types are still known, so
// this function itself never needs to know them.
//
// Ordering matches §4.3: left varies slowest, then right, in the input
// order each side's values arrived in.
func ComputeJoin(kind pipelinecore.JoinKind, key any, leftVals, rightVals []any, combineFn func(key any, leftVal any, leftOK bool, rightVal any, rightOK bool) any) []any {
	switch kind {
	case pipelinecore.JoinInner:
		if len(leftVals) == 0 || len(rightVals) == 0 {
			return nil
		}
		return crossProduct(key, leftVals, rightVals, combineFn)

	case pipelinecore.JoinLeft:
		if len(rightVals) == 0 {
			out := make([]any, 0, len(leftVals))
			for _, lv := range leftVals {
				out = append(out, combineFn(key, lv, true, nil, false))
			}
			return out
		}
		return crossProduct(key, leftVals, rightVals, combineFn)

	case pipelinecore.JoinRight:
		if len(leftVals) == 0 {
			out := make([]any, 0, len(rightVals))
			for _, rv := range rightVals {
				out = append(out, combineFn(key, nil, false, rv, true))
			}
			return out
		}
		return crossProduct(key, leftVals, rightVals, combineFn)

	case pipelinecore.JoinFull:
		switch {
		case len(leftVals) == 0 && len(rightVals) == 0:
			return nil
		case len(leftVals) == 0:
			out := make([]any, 0, len(rightVals))
			for _, rv := range rightVals {
				out = append(out, combineFn(key, nil, false, rv, true))
			}
			return out
		case len(rightVals) == 0:
			out := make([]any, 0, len(leftVals))
			for _, lv := range leftVals {
				out = append(out, combineFn(key, lv, true, nil, false))
			}
			return out
		default:
			return crossProduct(key, leftVals, rightVals, combineFn)
		}

	default:
		return nil
	}
}

func crossProduct(key any, leftVals, rightVals []any, combineFn func(key any, leftVal any, leftOK bool, rightVal any, rightOK bool) any) []any {
	out := make([]any, 0, len(leftVals)*len(rightVals))
	for _, lv := range leftVals {
		for _, rv := range rightVals {
			out = append(out, combineFn(key, lv, true, rv, true))
		}
	}
	return out
}
