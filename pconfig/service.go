package pconfig

import (
	"fmt"
	"runtime"

	"github.com/kbukum/flowbatch/plog"
	"github.com/kbukum/flowbatch/util"
)

// PipelineConfig holds the recognized pipeline configuration options (§6):
// parallelism, batch size, checkpoint directory, spill threshold,
// HyperLogLog precision, and the deterministic shuffle hash seed.
// Unknown options loaded from a file or environment are ignored by the
// loader (see loader.go's loadFromResolvedFiles) with a warning counter, never
// rejected outright.
type PipelineConfig struct {
	Name        string      `yaml:"name" mapstructure:"name"`
	Environment string      `yaml:"environment" mapstructure:"environment"`
	Debug       bool        `yaml:"debug" mapstructure:"debug"`
	Logging     plog.Config `yaml:"logging" mapstructure:"logging"`

	// Parallelism is the worker pool size used by the parallel executor.
	// Positive integer; default = logical CPU count.
	Parallelism int `yaml:"parallelism" mapstructure:"parallelism"`
	// BatchSize bounds shard round-robin batches and cancellation-check
	// granularity. Positive; default 1024.
	BatchSize int `yaml:"batch_size" mapstructure:"batch_size"`
	// CheckpointDir records a checkpoint directory, or empty for none.
	// Checkpoint nodes write to the path given to pipelinecore.Checkpoint
	// and do not read this field.
	CheckpointDir string `yaml:"checkpoint_dir" mapstructure:"checkpoint_dir"`
	// SpillThresholdBytes is a per-group buffer size threshold, or 0 for
	// none. Validate checks it is non-negative; the executors do not read
	// it and never spill groups to disk.
	SpillThresholdBytes int64 `yaml:"spill_threshold_bytes" mapstructure:"spill_threshold_bytes"`
	// HLLPrecision is a HyperLogLog precision, 4..18 (default 14).
	// combine.DistinctCount takes its precision as an argument and does
	// not read this field.
	HLLPrecision uint8 `yaml:"hll_precision" mapstructure:"hll_precision"`
	// DeterministicHashSeed seeds the parallel shuffle's stable hash.
	DeterministicHashSeed uint64 `yaml:"deterministic_hash_seed" mapstructure:"deterministic_hash_seed"`
}

// ApplyDefaults fills in the defaults named in §6.
func (c *PipelineConfig) ApplyDefaults() {
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Environment == "development" {
		c.Debug = true
	}
	if c.Parallelism <= 0 {
		c.Parallelism = runtime.NumCPU()
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 1024
	}
	if c.HLLPrecision == 0 {
		c.HLLPrecision = 14
	}
	c.Logging.ApplyDefaults()
}

// Validate validates the pipeline configuration fields.
func (c *PipelineConfig) Validate() error {
	validEnvs := []string{"development", "staging", "production"}
	if !util.StringInSlice(c.Environment, validEnvs) {
		return fmt.Errorf("config.environment must be one of [development, staging, production] (got: %s)", c.Environment)
	}
	if c.Parallelism <= 0 {
		return fmt.Errorf("config.parallelism must be positive (got: %d)", c.Parallelism)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("config.batch_size must be positive (got: %d)", c.BatchSize)
	}
	if c.SpillThresholdBytes < 0 {
		return fmt.Errorf("config.spill_threshold_bytes must be non-negative (got: %d)", c.SpillThresholdBytes)
	}
	if c.HLLPrecision < 4 || c.HLLPrecision > 18 {
		return fmt.Errorf("config.hll_precision must be in [4, 18] (got: %d)", c.HLLPrecision)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("config.logging: %w", err)
	}
	return nil
}
