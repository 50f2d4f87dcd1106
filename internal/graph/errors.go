package graph

import (
	"fmt"
	"strings"
)

// UnknownServiceError indicates a service declared a link to a service that
// does not exist in the merged configuration. It is fatal: the CLI aborts
// with a configuration error and zero runtime calls are made.
type UnknownServiceError struct {
	// From is the service declaring the link.
	From string

	// To is the link target that is not present in the pod config.
	To string
}

// Error satisfies the error interface.
func (e *UnknownServiceError) Error() string {
	return fmt.Sprintf("service %q links to unknown service %q", e.From, e.To)
}

// CyclicDependencyError indicates the link graph contains a cycle, which
// makes dependency-ordered execution impossible. It is fatal and raised
// before any adapter call.
type CyclicDependencyError struct {
	// Cycle holds the service names along the cycle in dependency
	// order; the first element is repeated implicitly (a → b → a).
	Cycle []string
}

// Error satisfies the error interface.
func (e *CyclicDependencyError) Error() string {
	path := append(append([]string(nil), e.Cycle...), e.Cycle[0])
	return fmt.Sprintf("dependency cycle: %s", strings.Join(path, " -> "))
}
