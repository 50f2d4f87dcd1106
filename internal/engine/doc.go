// Package engine executes commands against a pod's dependency-ordered
// execution plan.
//
// The engine walks the plan one batch at a time from a single scheduling
// goroutine. Nodes within a batch dispatch concurrently onto a bounded
// worker budget (a weighted semaphore); the batch barrier guarantees that
// no node starts before every node it depends on has reached a terminal
// state, and a node is handed to the runtime adapter only when all of its
// dependencies ended Running.
//
// Failures stay isolated: a Failed node causes its transitive dependents to
// end Skipped without any adapter call, while independent branches continue
// unaffected. Configuration correctness (parse, merge, referential
// integrity, acyclicity) is validated before an Engine is ever constructed,
// so the engine itself only deals with execution-phase outcomes.
//
// Each node's status is written by the one worker executing it; the shared
// status map is guarded by a mutex only because the scheduler reads it at
// batch boundaries and when compiling the final report.
package engine
