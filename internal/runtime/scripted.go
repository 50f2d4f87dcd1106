package runtime

import (
	"context"
	"fmt"
	"sync"
)

// Invocation records one call made against a ScriptedAdapter.
type Invocation struct {
	Service     string
	Action      Action
	HookCommand string
}

// ScriptedAdapter is an Adapter that returns pre-scripted results instead
// of touching any container runtime. The engine tests (and the --dry-run
// code path) run against it; it records every invocation so ordering and
// scoping assertions can be made.
//
// It is safe for concurrent use: the engine dispatches batch members in
// parallel.
type ScriptedAdapter struct {
	mu          sync.Mutex
	results     map[string]Result
	errs        map[string]error
	invocations []Invocation
	inFlight    int
	maxInFlight int

	// Delay optionally blocks each invocation until the given hook
	// releases it; nil means invocations return immediately.
	Delay func(service string, action Action)
}

// NewScriptedAdapter returns an adapter where every invocation succeeds
// with exit code zero unless a result or error is scripted for the service.
func NewScriptedAdapter() *ScriptedAdapter {
	return &ScriptedAdapter{
		results: make(map[string]Result),
		errs:    make(map[string]error),
	}
}

// ScriptResult sets the result returned for every action on the service.
func (s *ScriptedAdapter) ScriptResult(service string, res Result) *ScriptedAdapter {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[service] = res
	return s
}

// ScriptFailure scripts a non-zero exit for the service.
func (s *ScriptedAdapter) ScriptFailure(service string, exitCode int, stderr string) *ScriptedAdapter {
	return s.ScriptResult(service, Result{ExitCode: exitCode, Stderr: stderr})
}

// ScriptError scripts an infrastructure error for the service.
func (s *ScriptedAdapter) ScriptError(service string, err error) *ScriptedAdapter {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs[service] = err
	return s
}

// Invoke implements Adapter.
func (s *ScriptedAdapter) Invoke(ctx context.Context, service string, action Action, hookCommand string) (Result, error) {
	s.mu.Lock()
	s.invocations = append(s.invocations, Invocation{Service: service, Action: action, HookCommand: hookCommand})
	s.inFlight++
	if s.inFlight > s.maxInFlight {
		s.maxInFlight = s.inFlight
	}
	delay := s.Delay
	s.mu.Unlock()

	if delay != nil {
		delay(service, action)
	}

	s.mu.Lock()
	s.inFlight--
	res, hasRes := s.results[service]
	err := s.errs[service]
	s.mu.Unlock()

	if ctx.Err() != nil {
		return Result{ExitCode: 1, Stderr: ctx.Err().Error()}, ctx.Err()
	}
	if err != nil {
		return Result{ExitCode: 1}, err
	}
	if hasRes {
		return res, nil
	}
	return Result{Stdout: fmt.Sprintf("%s %s ok", action, service)}, nil
}

// Invocations returns a copy of all recorded invocations in call order.
func (s *ScriptedAdapter) Invocations() []Invocation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Invocation(nil), s.invocations...)
}

// InvokedServices returns the service names of all invocations, in order.
func (s *ScriptedAdapter) InvokedServices() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.invocations))
	for _, inv := range s.invocations {
		out = append(out, inv.Service)
	}
	return out
}

// MaxInFlight returns the highest number of concurrently executing
// invocations observed, for asserting the worker budget.
func (s *ScriptedAdapter) MaxInFlight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maxInFlight
}
