// Package runtime defines the narrow adapter boundary between the
// orchestration engine and actual container operations.
//
// The engine computes what to run and in what order; an Adapter performs
// the side effects. Keeping the boundary to a single Invoke method means
// the merge/graph/engine core is fully testable against ScriptedAdapter
// with no process spawning, while DockerAdapter provides the production
// implementation on the Docker Engine SDK.
//
// The engine never retries adapter failures; retry is an explicit,
// opt-in behavior layered above this contract, never implicit.
package runtime
