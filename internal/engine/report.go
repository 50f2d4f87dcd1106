package engine

import (
	"sort"
	"time"

	"github.com/mmr-tortoise/stevedore/internal/model"
)

// Reasons recorded on Skipped nodes.
const (
	// ReasonHookMissing marks a service whose requested hook is not
	// configured. Non-fatal: other services' requests proceed.
	ReasonHookMissing = "hook missing"

	// ReasonAborted marks a service that was never dispatched because
	// the run was cancelled.
	ReasonAborted = "aborted"
)

// ServiceResult is the final outcome of one service within a run.
type ServiceResult struct {
	// Service is the service name.
	Service string `json:"service"`

	// Status is the terminal node status.
	Status model.NodeStatus `json:"status"`

	// ExitCode is the exit code reported by the adapter; zero for
	// skipped nodes that never reached the adapter.
	ExitCode int `json:"exitCode"`

	// Stdout and Stderr hold the captured output of the adapter call.
	Stdout string `json:"stdout,omitempty"`
	Stderr string `json:"stderr,omitempty"`

	// Reason explains Failed and Skipped outcomes ("dependency db
	// failed", "hook missing", "aborted", ...). Empty on success.
	Reason string `json:"reason,omitempty"`

	// Duration is the wall time of the adapter call, zero for nodes
	// that never dispatched.
	Duration time.Duration `json:"duration"`
}

// Report aggregates the per-service outcomes of one engine run. Nothing is
// silently dropped: every service the plan covered has exactly one entry.
type Report struct {
	// Command names the executed command ("start", "test", ...).
	Command string `json:"command"`

	// Results holds one entry per service, sorted by name.
	Results []ServiceResult `json:"results"`
}

// Failed reports whether any node ended Failed. The run never silently
// succeeds when a node failed: the CLI maps this to exit code 1.
func (r *Report) Failed() bool {
	for _, res := range r.Results {
		if res.Status == model.StatusFailed {
			return true
		}
	}
	return false
}

// Result looks up one service's outcome, or nil when the run never
// tracked that service.
func (r *Report) Result(service string) *ServiceResult {
	for i := range r.Results {
		if r.Results[i].Service == service {
			return &r.Results[i]
		}
	}
	return nil
}

// sortResults orders results by service name for deterministic output.
func sortResults(results []ServiceResult) {
	sort.Slice(results, func(i, j int) bool {
		return results[i].Service < results[j].Service
	})
}
