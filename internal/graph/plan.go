package graph

import (
	"fmt"
	"sort"
	"strings"
)

// Plan is an ordered sequence of batches. Nodes within one batch have no
// ordering relationship to each other and may run concurrently; every node
// in batch i depends only on nodes in batches < i. Batch order is the hard
// barrier the engine enforces.
type Plan struct {
	// Batches holds sorted service names per batch.
	Batches [][]string
}

// Plan computes the layered topological execution plan for the whole graph
// via Kahn's algorithm on the reversed edges: batch 0 holds the services
// with no dependencies, batch k+1 the services whose dependencies are all
// satisfied by batches ≤ k. Names within a batch are sorted, so the plan is
// deterministic for a fixed configuration.
func (g *Graph) Plan() *Plan {
	all := make([]int, len(g.names))
	for i := range all {
		all[i] = i
	}
	return g.planOver(all)
}

// PlanFor computes the execution plan restricted to exactly the given
// services. The set must be dependency-closed (every dependency of a member
// is itself a member), which AncestorClosure guarantees; a non-closed set is
// a programming error and is rejected.
func (g *Graph) PlanFor(services []string) (*Plan, error) {
	included := make(map[int]bool, len(services))
	idx := make([]int, 0, len(services))
	for _, name := range services {
		i, ok := g.index[name]
		if !ok {
			return nil, fmt.Errorf("unknown service %q", name)
		}
		if !included[i] {
			included[i] = true
			idx = append(idx, i)
		}
	}

	for _, i := range idx {
		for _, dep := range g.deps[i] {
			if !included[dep] {
				return nil, fmt.Errorf("plan scope is not dependency-closed: %q requires %q", g.names[i], g.names[dep])
			}
		}
	}

	sort.Ints(idx)
	return g.planOver(idx), nil
}

// planOver runs layered Kahn over the given dependency-closed index set.
// The graph is already known to be acyclic, so the loop always drains.
func (g *Graph) planOver(idx []int) *Plan {
	remaining := make(map[int]int, len(idx)) // node → unsatisfied dep count
	for _, i := range idx {
		remaining[i] = len(g.deps[i])
	}

	plan := &Plan{}
	for len(remaining) > 0 {
		var batch []int
		for i, n := range remaining {
			if n == 0 {
				batch = append(batch, i)
			}
		}
		sort.Ints(batch)

		for _, i := range batch {
			delete(remaining, i)
			for _, dep := range g.dependents[i] {
				if _, ok := remaining[dep]; ok {
					remaining[dep]--
				}
			}
		}
		plan.Batches = append(plan.Batches, g.toNames(batch))
	}
	return plan
}

// Services returns every service in the plan, in batch order.
func (p *Plan) Services() []string {
	var out []string
	for _, batch := range p.Batches {
		out = append(out, batch...)
	}
	return out
}

// BatchIndex returns the batch number the named service runs in, or -1 if
// the plan does not contain it.
func (p *Plan) BatchIndex(name string) int {
	for i, batch := range p.Batches {
		for _, svc := range batch {
			if svc == name {
				return i
			}
		}
	}
	return -1
}

// Reversed returns a new plan with the batch order inverted. Stopping a pod
// walks the plan this way so dependents go down before their dependencies.
func (p *Plan) Reversed() *Plan {
	out := &Plan{Batches: make([][]string, 0, len(p.Batches))}
	for i := len(p.Batches) - 1; i >= 0; i-- {
		out.Batches = append(out.Batches, append([]string(nil), p.Batches[i]...))
	}
	return out
}

// String renders the plan compactly for logs and verbose output, one batch
// per segment: "[db cache] -> [web] -> [proxy]".
func (p *Plan) String() string {
	segments := make([]string, 0, len(p.Batches))
	for _, batch := range p.Batches {
		segments = append(segments, "["+strings.Join(batch, " ")+"]")
	}
	return strings.Join(segments, " -> ")
}
