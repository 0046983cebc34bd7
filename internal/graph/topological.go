package graph

import "reflect"

// TopologicalSort returns all nodes in dependency order (dependencies first).
//
// Strongly connected components are collapsed before sorting, so the sort never
// fails: members of a component are emitted together in insertion order. Among
// nodes whose dependencies are all satisfied, the one inserted first wins, which
// makes the result deterministic. Self edges are ignored.
func (g *DependencyGraph) TopologicalSort() []reflect.Type {
	comps := g.components()

	compOf := make([]int, len(g.nodes))
	for ci, c := range comps {
		for _, n := range c {
			compOf[n] = ci
		}
	}

	// Kahn's algorithm over the condensation.
	inDegree := make([]int, len(comps))
	dependents := make([][]int, len(comps))
	for ci, c := range comps {
		seen := make(map[int]bool)
		for _, n := range c {
			for _, dep := range g.nodes[n].Dependencies {
				dc := compOf[dep]
				if dc == ci || seen[dc] {
					continue
				}
				seen[dc] = true
				inDegree[ci]++
				dependents[dc] = append(dependents[dc], ci)
			}
		}
	}

	ready := make([]int, 0)
	for ci := range comps {
		if inDegree[ci] == 0 {
			ready = append(ready, ci)
		}
	}

	result := make([]reflect.Type, 0, len(g.nodes))
	for len(ready) > 0 {
		// Components are indexed by their smallest member, so the smallest
		// component index is the earliest inserted.
		pick := 0
		for i := range ready {
			if ready[i] < ready[pick] {
				pick = i
			}
		}
		current := ready[pick]
		ready = append(ready[:pick], ready[pick+1:]...)

		result = append(result, g.typesOf(comps[current])...)

		for _, dependent := range dependents[current] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				ready = append(ready, dependent)
			}
		}
	}

	return result
}

// ReverseTopologicalSort returns the exact reverse of TopologicalSort.
func (g *DependencyGraph) ReverseTopologicalSort() []reflect.Type {
	return Reverse(g.TopologicalSort())
}

// Reverse returns a reversed copy of order.
func Reverse(order []reflect.Type) []reflect.Type {
	n := len(order)
	reversed := make([]reflect.Type, n)
	for i, v := range order {
		reversed[n-1-i] = v
	}
	return reversed
}

// CalculateDepths assigns a level to every node: nodes without dependencies are
// level 0, every other node sits one level above its deepest dependency.
// Inside a cycle only the members placed earlier by TopologicalSort count.
func (g *DependencyGraph) CalculateDepths() map[reflect.Type]int {
	depths := make(map[reflect.Type]int, len(g.nodes))
	for _, t := range g.TopologicalSort() {
		depth := 0
		for _, dep := range g.GetDependencies(t) {
			if d, ok := depths[dep]; ok && d+1 > depth {
				depth = d + 1
			}
		}
		depths[t] = depth
	}
	return depths
}
