package runtime

import "context"

// Action identifies the container operation requested for one service.
type Action string

const (
	// ActionStart brings the service's container up.
	ActionStart Action = "start"

	// ActionStop stops the service's container.
	ActionStop Action = "stop"

	// ActionBuild builds (or pulls) the service's image.
	ActionBuild Action = "build"

	// ActionShell runs the service's shell hook inside the container.
	ActionShell Action = "shell"

	// ActionTest runs the service's test hook inside the container.
	ActionTest Action = "test"

	// ActionStatus queries the service's container state.
	ActionStatus Action = "status"
)

// String returns the string representation of the action.
func (a Action) String() string {
	return string(a)
}

// IsHook reports whether the action executes a label-derived hook command
// rather than a container lifecycle operation.
func (a Action) IsHook() bool {
	return a == ActionShell || a == ActionTest
}

// Result is the outcome of one adapter invocation.
type Result struct {
	// ExitCode is the exit code of the underlying operation; zero means
	// success.
	ExitCode int

	// Stdout and Stderr hold the captured output of the operation,
	// possibly truncated by the adapter.
	Stdout string
	Stderr string
}

// Adapter executes container operations on the engine's behalf. A non-nil
// error reports an infrastructure failure (daemon unreachable, process
// could not start); operation failures surface as a non-zero ExitCode in
// the Result. The engine treats both as a failed node.
//
// For hook actions, hookCommand carries the exact command string from the
// service's labels, byte-for-byte; tokenization and quoting are the
// adapter's concern. It is empty for lifecycle actions.
//
// Implementations must honor ctx cancellation and deadlines: the engine
// bounds every call with a per-call timeout.
type Adapter interface {
	Invoke(ctx context.Context, service string, action Action, hookCommand string) (Result, error)
}
