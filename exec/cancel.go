package exec

import (
	"context"
	"errors"

	"github.com/kbukum/flowbatch/metrics"
	"github.com/kbukum/flowbatch/perrors"
)

// cancelCheck cooperatively checks ctx for cancellation or deadline
// expiry, at the granularity named in §5 ("workers check between
// batches, granularity = batch_size"). With batchSize <= 0, ctx is
// checked on every element.
type cancelCheck struct {
	batchSize int
	count     int
}

func (c *cancelCheck) tick(ctx context.Context) error {
	c.count++
	if c.batchSize > 0 && c.count%c.batchSize != 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return perrors.DeadlineExceeded()
		}
		return perrors.Cancelled()
	default:
		return nil
	}
}

func recordProcessed(m *metrics.Metrics, ctx context.Context, node string, n int64) {
	if m == nil || n == 0 {
		return
	}
	m.RecordElementsProcessed(ctx, node, n)
}

func recordFiltered(m *metrics.Metrics, ctx context.Context, node string, n int64) {
	if m == nil || n == 0 {
		return
	}
	m.RecordElementsFiltered(ctx, node, n)
}

func recordMerge(m *metrics.Metrics, ctx context.Context, node string) {
	if m == nil {
		return
	}
	m.RecordCombinerMerge(ctx, node)
}

func recordShuffleBytes(m *metrics.Metrics, ctx context.Context, node string, n int64) {
	if m == nil || n == 0 {
		return
	}
	m.RecordShuffleBytes(ctx, node, n)
}
