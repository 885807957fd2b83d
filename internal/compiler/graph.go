package compiler

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/schemac/internal/ir"
)

// referenceGraph maps class → classes it depends on: its ancestors and the
// class ranges of its attributes. nodes keeps declaration order so the
// traversal, and therefore the emission order, is deterministic.
type referenceGraph struct {
	nodes []string
	edges map[string][]string
}

// buildReferenceGraph constructs the dependency graph over resolved classes.
//
// For each class:
//   - Add an edge to every ancestor in its linearization
//   - Add an edge to the range of every class-ranged attribute
func buildReferenceGraph(classes []*ir.ResolvedClassModel) referenceGraph {
	g := referenceGraph{edges: make(map[string][]string, len(classes))}
	for _, c := range classes {
		g.nodes = append(g.nodes, c.Name)
		deps := []string{}
		add := func(name string) {
			if !slices.Contains(deps, name) {
				deps = append(deps, name)
			}
		}
		for _, a := range c.Ancestors {
			if a != c.Name {
				add(a)
			}
		}
		for _, attr := range c.Attributes {
			if attr.Kind.IsClass() {
				add(attr.Range)
			}
		}
		g.edges[c.Name] = deps
	}
	return g
}

func (g referenceGraph) hasSelfLoop(node string) bool {
	return slices.Contains(g.edges[node], node)
}

// emissionOrder returns classes so that every class follows the classes it
// depends on, plus the reference cycles found along the way.
//
// Tarjan's algorithm emits an SCC only after every SCC reachable from it,
// which is dependency-first for this graph. Members of one SCC are ordered
// by declaration.
func emissionOrder(g referenceGraph) ([]string, []ir.ReferenceCycle) {
	declared := make(map[string]int, len(g.nodes))
	for i, n := range g.nodes {
		declared[n] = i
	}

	var order []string
	var cycles []ir.ReferenceCycle
	for _, scc := range tarjanSCC(g) {
		slices.SortFunc(scc, func(a, b string) int { return declared[a] - declared[b] })
		order = append(order, scc...)
		if len(scc) > 1 || g.hasSelfLoop(scc[0]) {
			cycles = append(cycles, cycleSCCToReference(scc, g))
		}
	}
	return order, cycles
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
func tarjanSCC(g referenceGraph) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range g.edges[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		// v is a root node: pop the stack into an SCC
		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for _, node := range g.nodes {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}
	return sccs
}

// cycleSCCToReference describes an SCC by its members, already in
// declaration order, and a closed path from the first of them.
func cycleSCCToReference(scc []string, g referenceGraph) ir.ReferenceCycle {
	if len(scc) == 1 {
		return ir.ReferenceCycle{
			Members: []string{scc[0]},
			Path:    []string{scc[0], scc[0]},
			Message: fmt.Sprintf("class %s references itself", scc[0]),
		}
	}
	return ir.ReferenceCycle{
		Members: slices.Clone(scc),
		Path:    reconstructCyclePath(scc, g),
		Message: fmt.Sprintf("classes reference each other: %s", strings.Join(scc, ", ")),
	}
}

// reconstructCyclePath follows edges inside the SCC from its first member
// until it returns there or runs out of unvisited members.
func reconstructCyclePath(scc []string, g referenceGraph) []string {
	inSCC := make(map[string]bool, len(scc))
	for _, n := range scc {
		inSCC[n] = true
	}

	start := scc[0]
	current := start
	path := []string{current}
	visited := make(map[string]bool)
	for {
		visited[current] = true
		var next string
		for _, w := range g.edges[current] {
			if inSCC[w] && (!visited[w] || w == start) {
				next = w
				break
			}
		}
		if next == "" {
			break
		}
		path = append(path, next)
		if next == start {
			break
		}
		current = next
	}
	return path
}
