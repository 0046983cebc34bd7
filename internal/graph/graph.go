package graph

import (
	"fmt"
	"reflect"
)

// DependencyGraph records resources and the dependency relationships between them.
// Nodes keep their insertion order, which is used as the deterministic tie-break
// for ordering and export.
//
// A DependencyGraph is populated by a single goroutine during build and is
// read-only afterwards.
type DependencyGraph struct {
	nodes []*Node
	index map[reflect.Type]int
}

// Node represents a resource type in the dependency graph
type Node struct {
	Type  reflect.Type
	Index int // insertion (discovery) order

	// Dependencies are the nodes this node depends on, in the order they were added.
	Dependencies []int
	// Dependents are the nodes that depend on this node.
	Dependents []int
}

// NewDependencyGraph creates a new dependency graph
func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{
		index: make(map[reflect.Type]int),
	}
}

// AddNode adds t to the graph if it is not already present and returns its index.
func (g *DependencyGraph) AddNode(t reflect.Type) int {
	if i, ok := g.index[t]; ok {
		return i
	}

	i := len(g.nodes)
	g.nodes = append(g.nodes, &Node{Type: t, Index: i})
	g.index[t] = i
	return i
}

// AddEdge records that from depends on to. Both nodes are added when missing.
// Duplicate edges are ignored.
func (g *DependencyGraph) AddEdge(from, to reflect.Type) {
	fi := g.AddNode(from)
	ti := g.AddNode(to)

	fromNode := g.nodes[fi]
	for _, d := range fromNode.Dependencies {
		if d == ti {
			return
		}
	}

	fromNode.Dependencies = append(fromNode.Dependencies, ti)
	g.nodes[ti].Dependents = append(g.nodes[ti].Dependents, fi)
}

// HasNode checks if a node exists in the graph
func (g *DependencyGraph) HasNode(t reflect.Type) bool {
	_, ok := g.index[t]
	return ok
}

// GetNode returns the node for t, or nil.
func (g *DependencyGraph) GetNode(t reflect.Type) *Node {
	if i, ok := g.index[t]; ok {
		return g.nodes[i]
	}
	return nil
}

// Size returns the number of nodes in the graph
func (g *DependencyGraph) Size() int {
	return len(g.nodes)
}

// Types returns all node types in insertion order.
func (g *DependencyGraph) Types() []reflect.Type {
	result := make([]reflect.Type, len(g.nodes))
	for i, n := range g.nodes {
		result[i] = n.Type
	}
	return result
}

// GetDependencies returns the direct dependencies of t
func (g *DependencyGraph) GetDependencies(t reflect.Type) []reflect.Type {
	n := g.GetNode(t)
	if n == nil {
		return nil
	}
	return g.typesOf(n.Dependencies)
}

// GetDependents returns the types that directly depend on t
func (g *DependencyGraph) GetDependents(t reflect.Type) []reflect.Type {
	n := g.GetNode(t)
	if n == nil {
		return nil
	}
	return g.typesOf(n.Dependents)
}

// Subgraph returns a new graph holding only the nodes accepted by keep and the
// edges between them. Relative insertion order is preserved.
func (g *DependencyGraph) Subgraph(keep func(reflect.Type) bool) *DependencyGraph {
	sub := NewDependencyGraph()
	for _, n := range g.nodes {
		if keep(n.Type) {
			sub.AddNode(n.Type)
		}
	}
	for _, n := range g.nodes {
		if !sub.HasNode(n.Type) {
			continue
		}
		for _, d := range n.Dependencies {
			dt := g.nodes[d].Type
			if sub.HasNode(dt) {
				sub.AddEdge(n.Type, dt)
			}
		}
	}
	return sub
}

func (g *DependencyGraph) typesOf(indexes []int) []reflect.Type {
	result := make([]reflect.Type, len(indexes))
	for i, idx := range indexes {
		result[i] = g.nodes[idx].Type
	}
	return result
}

// String returns a string representation of the node
func (n *Node) String() string {
	return fmt.Sprintf("Node{%v, deps:%d, dependents:%d}", n.Type, len(n.Dependencies), len(n.Dependents))
}
