// Package graph derives a directed dependency graph from the links declared
// in a merged pod configuration and computes execution plans over it.
//
// An edge A→B means "commands targeting A require B to be running first"
// (A declared a link to B). Service names are interned to integer indices
// and adjacency is stored as index slices, which keeps cycle detection and
// plan computation allocation-light and easy to test.
//
// Build validates referential integrity (every link target must exist) and
// acyclicity up front, so a Graph in hand is always a DAG: the engine never
// has to re-check these invariants at dispatch time.
package graph
