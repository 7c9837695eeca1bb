// Package dependency validates and expands the upgrade prerequisite graph.
package dependency

import (
	"sort"

	"listing-billing-be/internal/apperror"
	"listing-billing-be/internal/entity"

	"github.com/samber/lo"
)

type color int

const (
	white color = iota // unvisited
	gray               // on the current walk
	black              // fully explored
)

// Graph is an adjacency map from upgrade code to its direct prerequisites.
// Codes that only appear as prerequisites are leaves.
type Graph struct {
	edges map[string][]string
}

func NewGraph(upgrades []*entity.UpgradeDefinition) *Graph {
	g := &Graph{edges: make(map[string][]string, len(upgrades))}
	for _, u := range upgrades {
		g.edges[u.Code] = lo.Uniq(u.Requires)
	}
	return g
}

// With returns a copy of g where code requires exactly requires. It is used to
// check a pending write before it is persisted.
func (g *Graph) With(code string, requires []string) *Graph {
	next := &Graph{edges: make(map[string][]string, len(g.edges)+1)}
	for k, v := range g.edges {
		next.edges[k] = v
	}
	next.edges[code] = lo.Uniq(requires)
	return next
}

// Rename moves a node and every edge pointing at it to a new code.
func (g *Graph) Rename(from, to string) *Graph {
	next := &Graph{edges: make(map[string][]string, len(g.edges))}
	for k, v := range g.edges {
		key := k
		if key == from {
			key = to
		}
		next.edges[key] = lo.Map(v, func(c string, _ int) string {
			if c == from {
				return to
			}
			return c
		})
	}
	return next
}

func (g *Graph) Requires(code string) []string {
	return g.edges[code]
}

func (g *Graph) Has(code string) bool {
	_, ok := g.edges[code]
	return ok
}

// nodes returns every known code, sorted so walks are deterministic.
func (g *Graph) nodes() []string {
	set := make(map[string]struct{}, len(g.edges))
	for k, v := range g.edges {
		set[k] = struct{}{}
		for _, c := range v {
			set[c] = struct{}{}
		}
	}
	out := lo.Keys(set)
	sort.Strings(out)
	return out
}

// DetectCycle returns the first cycle found as a path whose last element
// repeats the first, or nil if the graph is acyclic.
func (g *Graph) DetectCycle() []string {
	_, cycle := g.walk()
	return cycle
}

// TopologicalOrder lists every code with prerequisites before dependents.
func (g *Graph) TopologicalOrder() ([]string, error) {
	order, cycle := g.walk()
	if cycle != nil {
		return nil, &apperror.DependencyCycleError{Cycle: cycle}
	}
	return order, nil
}

// CheckWrite reports a DependencyCycleError if code requiring requires would
// close a loop.
func (g *Graph) CheckWrite(code string, requires []string) error {
	if cycle := g.With(code, requires).DetectCycle(); cycle != nil {
		return &apperror.DependencyCycleError{Cycle: cycle}
	}
	return nil
}

// walk is a three-color depth-first search. Post-order gives a topological
// order; reaching a gray node means the current path loops.
func (g *Graph) walk() ([]string, []string) {
	marks := make(map[string]color)
	var order, path, cycle []string

	var visit func(code string) bool
	visit = func(code string) bool {
		switch marks[code] {
		case black:
			return true
		case gray:
			start := lo.IndexOf(path, code)
			cycle = append(append([]string{}, path[start:]...), code)
			return false
		}
		marks[code] = gray
		path = append(path, code)

		prereqs := append([]string(nil), g.edges[code]...)
		sort.Strings(prereqs)
		for _, next := range prereqs {
			if !visit(next) {
				return false
			}
		}

		path = path[:len(path)-1]
		marks[code] = black
		order = append(order, code)
		return true
	}

	for _, code := range g.nodes() {
		if marks[code] == white && !visit(code) {
			return nil, cycle
		}
	}
	return order, nil
}
