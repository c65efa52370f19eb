package exec

import (
	"context"
	"time"

	"github.com/kbukum/flowbatch/metrics"
	"github.com/kbukum/flowbatch/pipelinecore"
	"github.com/kbukum/flowbatch/plog"
)

// Options configures one executor run. The zero value disables metrics
// recording and uses the pipeline's own Config for batch size and hash
// seed.
type Options struct {
	Metrics *metrics.Metrics
}

// CollectSequential walks h's operator subgraph backward from a single
// thread, pulling one element at a time, per §4.4's sequential scheduling
// model. Every run freezes the pipeline's graph for its duration and
// unfreezes it on return, win or lose, so the handle may be reused for any
// number of independent runs (§9 (c)); the side-input registry freezes on
// the first run and stays frozen, since side inputs are meant to be
// registered once before the pipeline ever executes.
func CollectSequential[T any](ctx context.Context, p *pipelinecore.Pipeline, h pipelinecore.Handle[T], opts Options) ([]T, error) {
	start := time.Now()
	p.Lock()
	defer p.Unlock()

	b, err := newBuildCtx(ctx, p, h.NodeID(), opts.Metrics)
	if err != nil {
		return nil, err
	}
	it, err := b.build(h.NodeID())
	if err != nil {
		return nil, err
	}
	defer it.Close()

	result, err := pipelinecore.Collect[T](ctx, it)
	if opts.Metrics != nil {
		opts.Metrics.RecordWallTime(ctx, p.ID(), time.Since(start))
	}
	if err != nil {
		// §7: run-time errors abort the run and drop all partial output.
		plog.Error("sequential run failed", plog.ErrorFields("collect_sequential", err))
		return nil, err
	}
	return result, nil
}
