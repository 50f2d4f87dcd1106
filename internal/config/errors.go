package config

import (
	"fmt"

	"github.com/mmr-tortoise/stevedore/internal/podfile"
)

// MergeError indicates that the same key carries incompatible value kinds in
// two documents being merged (for example "ports" as a scalar in one file
// and a sequence in another). It is fatal and aborts before any execution.
type MergeError struct {
	// Service is the service whose body holds the conflicting key.
	Service string

	// Key is the conflicting service body key.
	Key string

	// LeftKind and RightKind are the raw kinds on each side of the fold.
	LeftKind  podfile.Kind
	RightKind podfile.Kind

	// LeftPath and RightPath identify the source files involved. LeftPath
	// may name an accumulated intermediate when more than two files merge.
	LeftPath  string
	RightPath string
}

// Error satisfies the error interface.
func (e *MergeError) Error() string {
	return fmt.Sprintf("merge conflict: service %q key %q is a %s in %s but a %s in %s",
		e.Service, e.Key, e.LeftKind, e.LeftPath, e.RightKind, e.RightPath)
}

// ValidationError indicates the merged raw configuration does not describe a
// valid pod: a recognized key has the wrong shape, a port or link entry does
// not parse, or a service name is ill-formed. It is fatal.
type ValidationError struct {
	// Service is the offending service, or empty for document-level
	// problems.
	Service string

	// Field is the service body key involved, or empty.
	Field string

	// Message describes what is wrong.
	Message string
}

// Error satisfies the error interface.
func (e *ValidationError) Error() string {
	switch {
	case e.Service != "" && e.Field != "":
		return fmt.Sprintf("invalid pod config: service %q: %s: %s", e.Service, e.Field, e.Message)
	case e.Service != "":
		return fmt.Sprintf("invalid pod config: service %q: %s", e.Service, e.Message)
	default:
		return fmt.Sprintf("invalid pod config: %s", e.Message)
	}
}
