// Package model defines the domain types for the stevedore CLI.
//
// This package contains pure data structures with no external dependencies.
// The central type is PodConfig, the canonical merged definition of a pod's
// services, together with the value types it is built from (ServiceDefinition,
// PortMapping, Link) and the per-run NodeStatus enum used by the orchestration
// engine.
//
// A PodConfig is immutable once produced by the merger: every command
// invocation computes a fresh one from the layered pod files, so nothing in
// this package carries cross-invocation state.
//
// The package also defines exit codes (ExitCode) and a custom error type
// (CLIError) that carries exit codes for proper OS process exit handling.
package model
