// Package podfile parses individual pod definition files into raw,
// order-preserving document trees.
//
// A pod file declares a schema version and a services mapping; each service
// entry holds an image-or-build reference, port mappings, links, volumes, an
// optional hostname, and a label map. Two on-disk formats normalize to the
// same raw representation:
//
//   - YAML (.yml/.yaml), parsed with gopkg.in/yaml.v3
//   - JSON with comments (.json), parsed with tidwall/jsonc + encoding/json
//
// The loader is deliberately schema-light: service bodies are kept as generic
// key → value trees (scalar, sequence-of-scalars, or mapping-of-scalars) so
// that the merger can apply per-key-type merge rules and detect cross-file
// type conflicts. Only structural shape is enforced here; interpreting the
// recognized keys is the config package's job.
//
// This package performs no merge logic whatsoever.
package podfile
