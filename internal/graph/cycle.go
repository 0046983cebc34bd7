package graph

import (
	"reflect"
	"slices"
)

type cycleDetector struct {
	graph   *DependencyGraph
	index   int
	stack   []int
	onStack map[int]bool
	indices map[int]int
	lowlink map[int]int
	sccs    [][]int
}

// StronglyConnected returns the strongly connected components of the graph using
// Tarjan's algorithm. Members of each component are listed in insertion order.
func (g *DependencyGraph) StronglyConnected() [][]reflect.Type {
	comps := g.components()
	result := make([][]reflect.Type, len(comps))
	for i, c := range comps {
		result[i] = g.typesOf(c)
	}
	return result
}

// DetectCycles returns every component that forms a cycle: components with more
// than one member. Self edges are not reported.
func (g *DependencyGraph) DetectCycles() [][]reflect.Type {
	var cycles [][]reflect.Type
	for _, c := range g.components() {
		if len(c) > 1 {
			cycles = append(cycles, g.typesOf(c))
		}
	}
	return cycles
}

// components returns the SCCs as sorted node indexes, ordered by their
// smallest member.
func (g *DependencyGraph) components() [][]int {
	d := &cycleDetector{
		graph:   g,
		onStack: make(map[int]bool),
		indices: make(map[int]int),
		lowlink: make(map[int]int),
	}

	for i := range g.nodes {
		if _, visited := d.indices[i]; !visited {
			d.strongConnect(i)
		}
	}

	for _, scc := range d.sccs {
		slices.Sort(scc)
	}
	// Tarjan emits components in reverse topological order; re-sort by first member.
	slices.SortFunc(d.sccs, func(a, b []int) int { return a[0] - b[0] })
	return d.sccs
}

func (d *cycleDetector) strongConnect(id int) {
	d.indices[id] = d.index
	d.lowlink[id] = d.index
	d.index++
	d.stack = append(d.stack, id)
	d.onStack[id] = true

	for _, dep := range d.graph.nodes[id].Dependencies {
		if _, visited := d.indices[dep]; !visited {
			d.strongConnect(dep)
			d.lowlink[id] = min(d.lowlink[id], d.lowlink[dep])
		} else if d.onStack[dep] {
			d.lowlink[id] = min(d.lowlink[id], d.indices[dep])
		}
	}

	if d.lowlink[id] == d.indices[id] {
		var scc []int
		for {
			n := len(d.stack) - 1
			w := d.stack[n]
			d.stack = d.stack[:n]
			d.onStack[w] = false
			scc = append(scc, w)
			if w == id {
				break
			}
		}
		d.sccs = append(d.sccs, scc)
	}
}

// FindCyclePath returns the shortest dependency path that leaves start and
// returns to it, as [start, ..., start]. It returns nil when start is not on a
// cycle. Self edges are ignored.
func (g *DependencyGraph) FindCyclePath(start reflect.Type) []reflect.Type {
	si, ok := g.index[start]
	if !ok {
		return nil
	}

	parent := make(map[int]int)
	queue := make([]int, 0)
	for _, dep := range g.nodes[si].Dependencies {
		if dep == si {
			continue
		}
		if _, seen := parent[dep]; !seen {
			parent[dep] = si
			queue = append(queue, dep)
		}
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, dep := range g.nodes[current].Dependencies {
			if dep == si {
				path := []int{si}
				for p := current; p != si; p = parent[p] {
					path = append([]int{p}, path...)
				}
				path = append([]int{si}, path...)
				return g.typesOf(path)
			}
			if _, seen := parent[dep]; !seen {
				parent[dep] = current
				queue = append(queue, dep)
			}
		}
	}

	return nil
}
