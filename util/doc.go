// Package util provides small generic helpers shared across the pipeline
// engine: slice membership, map key extraction, and env/config value
// sanitization.
package util
