// Package resilience provides bounded-concurrency isolation for the
// pipeline engine.
//
// The parallel executor uses a Bulkhead to cap the number of worker
// goroutines running operator user functions concurrently, so one
// overloaded pipeline run cannot starve the rest of the process:
//
//	bh := resilience.NewBulkhead(resilience.BulkheadConfig{MaxConcurrent: cfg.Parallelism})
//	err := bh.Execute(ctx, func() error {
//	    return runNode(ctx, node)
//	})
package resilience
