package exec

import (
	"context"
	"time"

	"github.com/kbukum/flowbatch/perrors"
	"github.com/kbukum/flowbatch/pipelinecore"
)

// RunToSink drives the node registered by pipelinecore.Sink, pulling its
// upstream iterator and handing it to the sink's consumer function. Like
// CollectSequential, the run is single-threaded and freezes the graph for
// its duration.
func RunToSink(ctx context.Context, p *pipelinecore.Pipeline, sinkNodeID int, opts Options) error {
	start := time.Now()
	p.Lock()
	defer p.Unlock()

	sink := p.NodeByID(sinkNodeID)
	if sink == nil || sink.Kind != pipelinecore.KindSink {
		return perrors.InvalidArgument("run_to_sink: node id does not name a sink")
	}

	b, err := newBuildCtx(ctx, p, sink.Inputs[0], opts.Metrics)
	if err != nil {
		return err
	}
	it, err := b.build(sink.Inputs[0])
	if err != nil {
		return err
	}
	defer it.Close()

	err = sink.SinkFn(ctx, it)
	if opts.Metrics != nil {
		opts.Metrics.RecordWallTime(ctx, p.ID(), time.Since(start))
	}
	if err != nil {
		return perrors.IoError(sink.Name, "", err)
	}
	return nil
}
