// Package port implements host port availability scanning for the pre-start
// check: before any container starts, every host port the pod publishes is
// probed so a doomed startup is reported up front instead of failing halfway
// through the dependency plan.
package port

import (
	"fmt"
	"net"
	"sort"

	"github.com/mmr-tortoise/stevedore/internal/model"
)

// Scanner checks whether specific ports are available on the host machine.
//
// It uses the operating system's network stack (net.Listen) to determine if
// a port is free. This is the most reliable method because it asks the OS
// directly, rather than parsing /proc/net/* or relying on external commands
// like `lsof` or `ss` which may require elevated permissions.
//
// The struct is currently stateless, but is defined as a struct (rather than
// bare functions) so that future options (e.g., bind address) can be added
// without breaking the API.
type Scanner struct{}

// NewScanner creates a new Scanner instance.
func NewScanner() *Scanner {
	return &Scanner{}
}

// IsAvailable checks whether a single TCP port is free on the host machine.
//
// It attempts net.Listen("tcp", ":port"); if the bind succeeds the port is
// available and the listener is closed immediately. We bind to all
// interfaces (":port" rather than "127.0.0.1:port") because Docker publishes
// ports on 0.0.0.0, so we need to check the same address space to avoid
// false positives.
func (s *Scanner) IsAvailable(port int) bool {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return false
	}
	defer func() { _ = listener.Close() }()
	return true
}

// Conflict records one host port that a service wants but cannot get.
type Conflict struct {
	Service  string
	HostPort int
}

func (c Conflict) String() string {
	return fmt.Sprintf("%s wants host port %d", c.Service, c.HostPort)
}

// Conflicts probes every fixed host port the pod configuration publishes
// and returns the ones already in use, sorted by service name then port.
// Container-only mappings (host side zero) are skipped: the runtime picks
// those, so there is nothing to collide with.
func (s *Scanner) Conflicts(cfg *model.PodConfig) []Conflict {
	var conflicts []Conflict
	for _, name := range cfg.ServiceNames() {
		for _, pm := range cfg.Services[name].Ports {
			if pm.HostPort == 0 {
				continue
			}
			if !s.IsAvailable(pm.HostPort) {
				conflicts = append(conflicts, Conflict{Service: name, HostPort: pm.HostPort})
			}
		}
	}
	sort.Slice(conflicts, func(i, j int) bool {
		if conflicts[i].Service != conflicts[j].Service {
			return conflicts[i].Service < conflicts[j].Service
		}
		return conflicts[i].HostPort < conflicts[j].HostPort
	})
	return conflicts
}
