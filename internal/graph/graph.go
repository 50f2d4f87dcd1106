package graph

import (
	"fmt"
	"sort"

	"github.com/mmr-tortoise/stevedore/internal/model"
)

// Graph is the immutable dependency graph of one merged pod configuration.
// Nodes are service names interned to dense integer indices; deps[a] holds
// the indices a depends on, dependents[b] the reverse direction.
type Graph struct {
	names      []string
	index      map[string]int
	deps       [][]int
	dependents [][]int
}

// Build derives the dependency graph from the links in cfg. For every
// service A and every link target B declared on A it adds the edge A→B,
// validating that B exists and that the resulting graph is acyclic. Links
// declared twice on the same service collapse to one edge.
func Build(cfg *model.PodConfig) (*Graph, error) {
	names := cfg.ServiceNames()
	index := make(map[string]int, len(names))
	for i, name := range names {
		index[name] = i
	}

	g := &Graph{
		names:      names,
		index:      index,
		deps:       make([][]int, len(names)),
		dependents: make([][]int, len(names)),
	}

	for i, name := range names {
		def := cfg.Services[name]
		seen := make(map[int]bool)
		for _, target := range def.LinkTargets() {
			j, ok := index[target]
			if !ok {
				return nil, &UnknownServiceError{From: name, To: target}
			}
			if seen[j] {
				continue
			}
			seen[j] = true
			g.deps[i] = append(g.deps[i], j)
			g.dependents[j] = append(g.dependents[j], i)
		}
		sort.Ints(g.deps[i])
	}
	for i := range g.dependents {
		sort.Ints(g.dependents[i])
	}

	if cycle := g.findCycle(); cycle != nil {
		return nil, &CyclicDependencyError{Cycle: cycle}
	}
	return g, nil
}

// DFS colors for cycle detection.
const (
	white = iota // unvisited
	grey         // on the current DFS stack
	black        // fully explored
)

// findCycle runs a depth-first traversal over the dependency edges and
// returns the first cycle found (as ordered service names), or nil when the
// graph is acyclic. A grey neighbor is a back-edge; the cycle is the stack
// segment from that neighbor's position to the top.
func (g *Graph) findCycle() []string {
	color := make([]int, len(g.names))
	stack := make([]int, 0, len(g.names))

	var visit func(int) []string
	visit = func(n int) []string {
		color[n] = grey
		stack = append(stack, n)

		for _, dep := range g.deps[n] {
			switch color[dep] {
			case grey:
				// Back-edge: slice the cycle out of the stack.
				start := 0
				for i, v := range stack {
					if v == dep {
						start = i
						break
					}
				}
				cycle := make([]string, 0, len(stack)-start)
				for _, v := range stack[start:] {
					cycle = append(cycle, g.names[v])
				}
				return cycle
			case white:
				if cycle := visit(dep); cycle != nil {
					return cycle
				}
			}
		}

		stack = stack[:len(stack)-1]
		color[n] = black
		return nil
	}

	for n := range g.names {
		if color[n] == white {
			if cycle := visit(n); cycle != nil {
				return cycle
			}
		}
	}
	return nil
}

// Services returns all service names in sorted order.
func (g *Graph) Services() []string {
	return append([]string(nil), g.names...)
}

// Contains reports whether the named service is a node in the graph.
func (g *Graph) Contains(name string) bool {
	_, ok := g.index[name]
	return ok
}

// DependenciesOf returns the direct dependencies of the named service in
// sorted order. Unknown names return nil.
func (g *Graph) DependenciesOf(name string) []string {
	i, ok := g.index[name]
	if !ok {
		return nil
	}
	return g.toNames(g.deps[i])
}

// DependentsOf returns the services that directly depend on the named
// service, in sorted order.
func (g *Graph) DependentsOf(name string) []string {
	i, ok := g.index[name]
	if !ok {
		return nil
	}
	return g.toNames(g.dependents[i])
}

// AncestorClosure returns the minimal transitive dependency closure of the
// named service, including the service itself, in sorted order. This is the
// exact node set a scoped command must execute: everything the target
// requires, and nothing else.
func (g *Graph) AncestorClosure(name string) ([]string, error) {
	start, ok := g.index[name]
	if !ok {
		return nil, fmt.Errorf("unknown service %q", name)
	}

	seen := make(map[int]bool)
	queue := []int{start}
	seen[start] = true
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for _, dep := range g.deps[n] {
			if !seen[dep] {
				seen[dep] = true
				queue = append(queue, dep)
			}
		}
	}

	closure := make([]int, 0, len(seen))
	for n := range seen {
		closure = append(closure, n)
	}
	sort.Ints(closure)
	return g.toNames(closure), nil
}

// toNames maps index slices back to service names.
func (g *Graph) toNames(idx []int) []string {
	out := make([]string, 0, len(idx))
	for _, i := range idx {
		out = append(out, g.names[i])
	}
	return out
}
