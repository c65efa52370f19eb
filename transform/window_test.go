package transform

import (
	"testing"
	"time"
)

func TestFixedWindowFor_CoversTimestamp(t *testing.T) {
	size := 10 * time.Minute
	ts := time.Date(2026, 1, 1, 0, 23, 0, 0, time.UTC)
	w := FixedWindowFor(ts, size)
	if !w.Contains(ts) {
		t.Fatalf("window %v-%v does not contain %v", w.Start, w.End, ts)
	}
	if w.End.Sub(w.Start) != size {
		t.Errorf("window duration = %v, want %v", w.End.Sub(w.Start), size)
	}
	if w.Start.Minute() != 20 {
		t.Errorf("window start minute = %d, want 20 (floor(23/10)*10)", w.Start.Minute())
	}
}

func TestFixedWindowFor_ExactlyOneWindowPerTimestamp(t *testing.T) {
	size := 5 * time.Minute
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 100; i++ {
		ts := base.Add(time.Duration(i) * 37 * time.Second)
		w := FixedWindowFor(ts, size)
		if !w.Contains(ts) {
			t.Fatalf("timestamp %v not contained by its own fixed window %v-%v", ts, w.Start, w.End)
		}
	}
}

func TestFixedWindowFor_BeforeEpoch(t *testing.T) {
	size := time.Hour
	ts := time.Date(1969, 12, 31, 23, 10, 0, 0, time.UTC)
	w := FixedWindowFor(ts, size)
	if !w.Contains(ts) {
		t.Errorf("pre-epoch timestamp %v not contained by window %v-%v", ts, w.Start, w.End)
	}
}

func TestSlidingWindowsFor_CountMatchesCeilSizeOverPeriod(t *testing.T) {
	size := 10 * time.Minute
	period := 3 * time.Minute
	ts := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	windows := SlidingWindowsFor(ts, size, period)

	want := 4 // ceil(10/3) = 4
	if len(windows) != want {
		t.Fatalf("len(windows) = %d, want %d", len(windows), want)
	}
	for _, w := range windows {
		if !w.Contains(ts) {
			t.Errorf("sliding window %v-%v does not contain %v", w.Start, w.End, ts)
		}
	}
}

func TestSlidingWindowsFor_AscendingOrder(t *testing.T) {
	windows := SlidingWindowsFor(time.Now().UTC(), 20*time.Minute, 5*time.Minute)
	for i := 1; i < len(windows); i++ {
		if !windows[i].Start.After(windows[i-1].Start) {
			t.Errorf("windows not strictly ascending at index %d: %v then %v", i, windows[i-1].Start, windows[i].Start)
		}
	}
}
