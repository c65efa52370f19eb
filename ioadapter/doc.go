// Package ioadapter defines the narrow contract that source and sink
// plug-ins satisfy, per SPEC_FULL.md §4.6. A source adapter is any value
// producing a lazy, pull-based sequence of typed records; a sink adapter
// consumes one. Concrete backends (line-delimited JSON, CSV, columnar
// record files, and the compression layer wrapping any of them) are
// out of scope here — this package only fixes the shape those backends
// must implement, plus a handful of deterministic ordering and
// format/compression inference helpers a concrete backend would need.
//
// The Iterator[T] shape mirrors pipelinecore.Iterator, typed instead of
// erased: an adapter works with its own concrete record type end to end,
// and only crosses into the erased operator graph at the Source/Sink
// call sites in pipelinecore/ops.go, via ToPipelineSource/ToPipelineSink.
package ioadapter
