package transform

import (
	"time"

	"github.com/kbukum/flowbatch/pipelinecore"
)

// floorDiv computes Euclidean floor division (unlike Go's native integer
// division, which truncates toward zero), needed for window_fixed's
// floor(t/size)*size rule to behave correctly for timestamps before the
// Unix epoch.
func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// FixedWindowFor returns the single non-overlapping window of duration
// size that covers t, per §4.3: window [floor(t/size)*size, +size).
func FixedWindowFor(t time.Time, size time.Duration) pipelinecore.Window {
	sizeNanos := size.Nanoseconds()
	startNanos := floorDiv(t.UnixNano(), sizeNanos) * sizeNanos
	start := time.Unix(0, startNanos).UTC()
	return pipelinecore.Window{Start: start, End: start.Add(size)}
}

// SlidingWindowsFor returns every window of duration size, spaced period
// apart and starting on a multiple of period, that covers t (§4.3). When
// period divides size there are exactly size/period such windows for any
// t; otherwise there are ceil(size/period) or floor(size/period), by where
// t falls between two multiples of period (t itself a multiple of period
// gives ceil). Returned in ascending Start order.
func SlidingWindowsFor(t time.Time, size, period time.Duration) []pipelinecore.Window {
	periodNanos := period.Nanoseconds()
	sizeNanos := size.Nanoseconds()
	tNanos := t.UnixNano()

	// The largest multiple of period that is <= t.
	latestStart := floorDiv(tNanos, periodNanos) * periodNanos

	var windows []pipelinecore.Window
	for s := latestStart; s > tNanos-sizeNanos; s -= periodNanos {
		start := time.Unix(0, s).UTC()
		windows = append(windows, pipelinecore.Window{Start: start, End: start.Add(size)})
	}
	for i, j := 0, len(windows)-1; i < j; i, j = i+1, j-1 {
		windows[i], windows[j] = windows[j], windows[i]
	}
	return windows
}
