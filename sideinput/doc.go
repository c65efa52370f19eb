// Package sideinput implements the broadcast auxiliary-data service of
// SPEC_FULL.md §4.5: a token-keyed registry of read-only values resolved
// once before a run begins, then visible unchanged to every element and
// every worker for the duration of that run.
//
// Resolve hands every caller the value stored at Register time; Register
// does not copy it. A value of reference type (map, slice, pointer) that
// is mutated after registration is seen mutated by in-flight workers, so
// callers must supply an already-immutable value, or a copy, at Register
// time.
//
// This package generalizes the named-lookup pattern the gokit DAG
// package's Registry used for nodes into a lock-after-first-run registry
// of arbitrary side values.
package sideinput
