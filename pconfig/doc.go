// Package pconfig provides configuration loading and validation for the
// pipeline engine.
//
// It uses Viper to load configuration from a YAML file layered with
// environment variables and an optional .env file, unmarshalling the
// result into a PipelineConfig (or any caller-supplied struct).
//
// # Usage
//
//	var cfg pconfig.PipelineConfig
//	if err := pconfig.LoadConfig("my-pipeline", &cfg); err != nil {
//	    return err
//	}
//	cfg.ApplyDefaults()
//	if err := cfg.Validate(); err != nil {
//	    return err
//	}
//
// Environment variables override file values; PARALLELISM, for example,
// overrides the parallelism key.
package pconfig
