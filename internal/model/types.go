package model

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// NodeStatus represents the lifecycle state of one service within a single
// engine run. The state transitions are:
//
//	Pending → Starting → Running   (adapter success)
//	Pending → Starting → Failed    (adapter failure or timeout)
//	Pending → Skipped              (failed ancestor, missing hook, or abort)
//
// Running, Failed, and Skipped are terminal. Note that Running means "the
// requested action completed successfully for this node": for a stop or
// build command it marks success of that action, not a live container.
type NodeStatus string

const (
	// StatusPending indicates the node has not been dispatched yet.
	StatusPending NodeStatus = "pending"

	// StatusStarting indicates a worker is executing the adapter call
	// for this node right now.
	StatusStarting NodeStatus = "starting"

	// StatusRunning indicates the adapter call succeeded.
	StatusRunning NodeStatus = "running"

	// StatusFailed indicates the adapter call returned a non-zero exit
	// code, an infrastructure error, or exceeded the per-call timeout.
	StatusFailed NodeStatus = "failed"

	// StatusSkipped indicates the node was never handed to the adapter:
	// a transitive dependency failed, the requested hook is not
	// configured, or the run was aborted before dispatch.
	StatusSkipped NodeStatus = "skipped"
)

// String returns the string representation of NodeStatus.
func (s NodeStatus) String() string {
	return string(s)
}

// IsValid checks whether the NodeStatus value is one of the predefined states.
func (s NodeStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusStarting, StatusRunning, StatusFailed, StatusSkipped:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether the status is one of the three terminal states.
// The engine's batch barrier waits for every node in a batch to become
// terminal before the next batch is dispatched.
func (s NodeStatus) IsTerminal() bool {
	return s == StatusRunning || s == StatusFailed || s == StatusSkipped
}

// serviceNameRegex validates service names: alphanumeric, hyphens and
// underscores, starting with an alphanumeric character.
var serviceNameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]*$`)

// ValidateServiceName checks if the given name is a valid service name.
func ValidateServiceName(name string) error {
	if name == "" {
		return fmt.Errorf("service name must not be empty")
	}
	if !serviceNameRegex.MatchString(name) {
		return fmt.Errorf("invalid service name %q: must contain only alphanumeric characters, hyphens and underscores, and start with an alphanumeric character", name)
	}
	return nil
}

// PortMapping represents a single published port of a service, parsed from
// the "container" or "host:container" forms used in pod files.
type PortMapping struct {
	// HostPort is the port number on the host machine. Zero means the
	// pod file specified only a container port and the runtime should
	// pick (or mirror) the host side.
	HostPort int `yaml:"hostPort,omitempty" json:"hostPort,omitempty"`

	// ContainerPort is the port number inside the container (1-65535).
	ContainerPort int `yaml:"containerPort" json:"containerPort"`
}

// ParsePortMapping parses a pod file port entry. Accepted forms:
//
//	"3000"       → container port only
//	"8080:3000"  → host port 8080, container port 3000
func ParsePortMapping(raw string) (PortMapping, error) {
	parts := strings.Split(raw, ":")
	switch len(parts) {
	case 1:
		cp, err := parsePort(parts[0])
		if err != nil {
			return PortMapping{}, fmt.Errorf("invalid port mapping %q: %w", raw, err)
		}
		return PortMapping{ContainerPort: cp}, nil
	case 2:
		hp, err := parsePort(parts[0])
		if err != nil {
			return PortMapping{}, fmt.Errorf("invalid port mapping %q: %w", raw, err)
		}
		cp, err := parsePort(parts[1])
		if err != nil {
			return PortMapping{}, fmt.Errorf("invalid port mapping %q: %w", raw, err)
		}
		return PortMapping{HostPort: hp, ContainerPort: cp}, nil
	default:
		return PortMapping{}, fmt.Errorf("invalid port mapping %q: expected \"container\" or \"host:container\"", raw)
	}
}

// parsePort converts a single port string to an int and range-checks it.
func parsePort(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("port %q is not a number", s)
	}
	if n < 1 || n > 65535 {
		return 0, fmt.Errorf("port %d out of range (1-65535)", n)
	}
	return n, nil
}

// String returns the pod file representation of the mapping, which is also
// the form used in canonical PodConfig serialization.
func (p PortMapping) String() string {
	if p.HostPort == 0 {
		return strconv.Itoa(p.ContainerPort)
	}
	return fmt.Sprintf("%d:%d", p.HostPort, p.ContainerPort)
}

// MarshalYAML serializes the mapping back to its compact string form so the
// canonical PodConfig output round-trips with the pod file syntax.
func (p PortMapping) MarshalYAML() (interface{}, error) {
	return p.String(), nil
}

// Link represents a declared dependency on another service: commands
// targeting the declaring service require Target to be running first.
type Link struct {
	// Target is the name of the service that must be running first.
	Target string `yaml:"target" json:"target"`

	// Alias is the optional network alias for the link ("target:alias"
	// form). Empty when the pod file used the bare service name.
	Alias string `yaml:"alias,omitempty" json:"alias,omitempty"`
}

// ParseLink parses a pod file link entry of the form "service" or
// "service:alias".
func ParseLink(raw string) (Link, error) {
	parts := strings.Split(raw, ":")
	switch len(parts) {
	case 1:
		return Link{Target: strings.TrimSpace(parts[0])}, nil
	case 2:
		return Link{Target: strings.TrimSpace(parts[0]), Alias: strings.TrimSpace(parts[1])}, nil
	default:
		return Link{}, fmt.Errorf("invalid link %q: expected \"service\" or \"service:alias\"", raw)
	}
}

// String returns the pod file representation of the link.
func (l Link) String() string {
	if l.Alias == "" {
		return l.Target
	}
	return l.Target + ":" + l.Alias
}

// MarshalYAML serializes the link back to its compact string form.
func (l Link) MarshalYAML() (interface{}, error) {
	return l.String(), nil
}

// ServiceDefinition is the merged, validated definition of one service in a
// pod: which image to run (or build), how to publish its ports, which other
// services it depends on, and its label metadata.
type ServiceDefinition struct {
	// Image is the container image reference. Mutually exclusive with
	// Build in well-formed pods, though the merger does not reject
	// definitions that carry both; Build wins at runtime.
	Image string `yaml:"image,omitempty" json:"image,omitempty"`

	// Build is a build context directory for services built from source
	// rather than pulled by image reference.
	Build string `yaml:"build,omitempty" json:"build,omitempty"`

	// Ports is the ordered list of published ports.
	Ports []PortMapping `yaml:"ports,omitempty" json:"ports,omitempty"`

	// Links names the services that must be running before any command
	// targets this one. Order follows the pod file; the dependency graph
	// treats it as a set.
	Links []Link `yaml:"links,omitempty" json:"links,omitempty"`

	// Volumes is the ordered list of volume mappings, kept verbatim in
	// "host:container" string form.
	Volumes []string `yaml:"volumes,omitempty" json:"volumes,omitempty"`

	// Hostname is the optional container hostname.
	Hostname string `yaml:"hostname,omitempty" json:"hostname,omitempty"`

	// Labels is the service's label metadata. The engine consumes only a
	// fixed allowlist of keys (see the hooks package); everything else is
	// carried through untouched for forward compatibility.
	Labels map[string]string `yaml:"labels,omitempty" json:"labels,omitempty"`
}

// LinkTargets returns the names of all linked services, in pod file order.
func (s *ServiceDefinition) LinkTargets() []string {
	targets := make([]string, 0, len(s.Links))
	for _, l := range s.Links {
		targets = append(targets, l.Target)
	}
	return targets
}

// PodConfig is the canonical merged configuration of a pod: every service
// definition after all override files have been folded in, plus the schema
// version tag. It is computed fresh per invocation and never mutated after
// the merger returns it.
type PodConfig struct {
	// Version is the pod file schema version tag ("2" for the current
	// format). The rightmost document that sets it wins.
	Version string `yaml:"version" json:"version"`

	// Services maps service names to their merged definitions.
	Services map[string]*ServiceDefinition `yaml:"services" json:"services"`
}

// ServiceNames returns all service names in sorted order. Sorted iteration
// is what makes every derived artifact (canonical bytes, execution plans,
// reports) deterministic for a fixed input file list.
func (c *PodConfig) ServiceNames() []string {
	names := make([]string, 0, len(c.Services))
	for name := range c.Services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Service looks up a service definition by name.
func (c *PodConfig) Service(name string) (*ServiceDefinition, bool) {
	def, ok := c.Services[name]
	return def, ok
}
