package metrics

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/flowbatch/plog"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	// ServiceName is the name of the service.
	ServiceName string
	// ServiceVersion is the version of the service.
	ServiceVersion string
	// Environment is the deployment environment (dev, staging, prod).
	Environment string
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string
	// Insecure allows insecure connections (for development).
	Insecure bool
	// Interval is the metric export interval.
	Interval time.Duration
}

// DefaultMeterConfig returns sensible defaults for development.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: "1.0.0",
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter initializes the OpenTelemetry meter provider.
// Returns a MeterProvider that should be shut down on application exit.
func InitMeter(ctx context.Context, config *MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	plog.Info("meter initialized", plog.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metrics holds the OpenTelemetry instruments for the pipeline engine (§6):
// elements processed and filtered, combiner merges, shuffle bytes moved
// during the parallel executor's shard exchange, wall-clock run time, and
// config keys dropped while loading a PipelineConfig. Each instrument is
// mirrored by a plain atomic counter so a caller can read back what one
// run recorded via Snapshot without waiting on the OTel exporter's own
// schedule or standing up a collector.
type Metrics struct {
	elementsProcessed metric.Int64Counter
	elementsFiltered  metric.Int64Counter
	combinerMerges    metric.Int64Counter
	shuffleBytes      metric.Int64Counter
	wallTimeNanos     metric.Int64Histogram
	configKeysIgnored metric.Int64Counter

	counters snapshotCounters
}

type snapshotCounters struct {
	elementsProcessed atomic.Int64
	elementsFiltered  atomic.Int64
	combinerMerges    atomic.Int64
	shuffleBytes      atomic.Int64
	wallTimeNanos     atomic.Int64
	configKeysIgnored atomic.Int64
}

// Snapshot is a point-in-time read of a Metrics instance's counters,
// taken independently of whatever OTel reader/exporter is attached to the
// meter provider — §4.4/§6's "expose a snapshot after the run" contract.
type Snapshot struct {
	ElementsProcessed int64
	ElementsFiltered  int64
	CombinerMerges    int64
	ShuffleBytes      int64
	WallTimeNanos     int64
	ConfigKeysIgnored int64
}

// Snapshot returns the counters recorded so far. Safe to call concurrently
// with the Record* methods and at any point during or after a run.
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		ElementsProcessed: m.counters.elementsProcessed.Load(),
		ElementsFiltered:  m.counters.elementsFiltered.Load(),
		CombinerMerges:    m.counters.combinerMerges.Load(),
		ShuffleBytes:      m.counters.shuffleBytes.Load(),
		WallTimeNanos:     m.counters.wallTimeNanos.Load(),
		ConfigKeysIgnored: m.counters.configKeysIgnored.Load(),
	}
}

// NewMetrics creates metric instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	elementsProcessed, err := meter.Int64Counter("elements_processed",
		metric.WithDescription("Total elements that flowed through an operator node"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating elements_processed counter: %w", err)
	}

	elementsFiltered, err := meter.Int64Counter("elements_filtered",
		metric.WithDescription("Total elements dropped by a filter or join miss"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating elements_filtered counter: %w", err)
	}

	combinerMerges, err := meter.Int64Counter("combiner_merges",
		metric.WithDescription("Total merge_accumulators calls during combine-per-key execution"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating combiner_merges counter: %w", err)
	}

	shuffleBytes, err := meter.Int64Counter("shuffle_bytes",
		metric.WithDescription("Bytes moved across shards during the parallel executor's shuffle phase"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating shuffle_bytes counter: %w", err)
	}

	wallTimeNanos, err := meter.Int64Histogram("wall_time_nanos",
		metric.WithDescription("Wall-clock duration of a pipeline run"),
		metric.WithUnit("ns"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating wall_time_nanos histogram: %w", err)
	}

	configKeysIgnored, err := meter.Int64Counter("config_keys_ignored",
		metric.WithDescription("Total config keys dropped while loading a PipelineConfig because they matched no known field"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating config_keys_ignored counter: %w", err)
	}

	return &Metrics{
		elementsProcessed: elementsProcessed,
		elementsFiltered:  elementsFiltered,
		combinerMerges:    combinerMerges,
		shuffleBytes:      shuffleBytes,
		wallTimeNanos:     wallTimeNanos,
		configKeysIgnored: configKeysIgnored,
	}, nil
}

// RecordElementsProcessed records elements flowing through a named node.
func (m *Metrics) RecordElementsProcessed(ctx context.Context, node string, n int64) {
	m.elementsProcessed.Add(ctx, n, metric.WithAttributes(attribute.String("node", node)))
	m.counters.elementsProcessed.Add(n)
}

// RecordElementsFiltered records elements dropped at a named node.
func (m *Metrics) RecordElementsFiltered(ctx context.Context, node string, n int64) {
	m.elementsFiltered.Add(ctx, n, metric.WithAttributes(attribute.String("node", node)))
	m.counters.elementsFiltered.Add(n)
}

// RecordCombinerMerge records one merge_accumulators call at a named node.
func (m *Metrics) RecordCombinerMerge(ctx context.Context, node string) {
	m.combinerMerges.Add(ctx, 1, metric.WithAttributes(attribute.String("node", node)))
	m.counters.combinerMerges.Add(1)
}

// RecordShuffleBytes records bytes moved across shards during a shuffle.
func (m *Metrics) RecordShuffleBytes(ctx context.Context, node string, n int64) {
	m.shuffleBytes.Add(ctx, n, metric.WithAttributes(attribute.String("node", node)))
	m.counters.shuffleBytes.Add(n)
}

// RecordWallTime records the wall-clock duration of a completed pipeline run.
func (m *Metrics) RecordWallTime(ctx context.Context, pipelineID string, d time.Duration) {
	m.wallTimeNanos.Record(ctx, d.Nanoseconds(), metric.WithAttributes(attribute.String("pipeline_id", pipelineID)))
	m.counters.wallTimeNanos.Store(d.Nanoseconds())
}

// RecordConfigKeyIgnored records one config key dropped while loading a
// PipelineConfig because it matched no known field.
func (m *Metrics) RecordConfigKeyIgnored(ctx context.Context, key string) {
	m.configKeysIgnored.Add(ctx, 1, metric.WithAttributes(attribute.String("key", key)))
	m.counters.configKeysIgnored.Add(1)
}
