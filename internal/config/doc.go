// Package config folds an ordered sequence of raw pod documents into one
// canonical PodConfig.
//
// The merge is a strict left fold with per-key-type rules:
//
//   - Scalars: the rightmost document wins.
//   - Sequences (ports, links, volumes): a document that defines the key
//     fully replaces the accumulated sequence; a document that omits the key
//     leaves it untouched. There is no implicit concatenation.
//   - Mappings (labels): recursive deep merge; each inner key independently
//     follows scalar-override semantics, so a later document can only remove
//     a label by explicitly overriding that key.
//
// A key whose raw kind differs between two documents is a fatal MergeError.
// After the fold, the accumulated raw services are converted into typed
// ServiceDefinitions; shape or value problems there (a scalar "ports" key, a
// bad port number) are fatal ValidationErrors. Either way the CLI aborts
// with a configuration error before any runtime call.
//
// Merging the same ordered document list is deterministic: Canonical renders
// a PodConfig to byte-identical YAML on every run.
package config
