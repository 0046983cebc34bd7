package graph

import (
	"fmt"
	"io"
	"reflect"
	"strings"
)

// NodeStyle carries presentation details for a node, supplied by the caller.
type NodeStyle struct {
	Label   string
	Color   string
	Details []string
}

// Visualizer provides methods to visualize the dependency graph
type Visualizer struct {
	graph *DependencyGraph
	style func(reflect.Type) NodeStyle
}

// NewVisualizer creates a new graph visualizer. style may be nil.
func NewVisualizer(graph *DependencyGraph, style func(reflect.Type) NodeStyle) *Visualizer {
	return &Visualizer{graph: graph, style: style}
}

// WriteDOT writes the graph in Graphviz DOT format. Nodes and edges are emitted
// in insertion order so the output is stable.
func (v *Visualizer) WriteDOT(w io.Writer) error {
	var b strings.Builder

	b.WriteString("digraph dependencies {\n")
	b.WriteString("  rankdir=LR;\n")
	b.WriteString("  node [shape=box];\n")

	for _, node := range v.graph.nodes {
		s := v.styleOf(node)
		fmt.Fprintf(&b, "  n%d [label=%q, fillcolor=%q, style=filled];\n", node.Index, s.Label, s.Color)
	}

	for _, node := range v.graph.nodes {
		for _, dep := range node.Dependencies {
			fmt.Fprintf(&b, "  n%d -> n%d;\n", node.Index, dep)
		}
	}

	b.WriteString("}\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteText writes a text representation of the graph grouped by depth level
func (v *Visualizer) WriteText(w io.Writer) error {
	var b strings.Builder

	b.WriteString("Dependency Graph:\n")
	b.WriteString("=================\n\n")

	depths := v.graph.CalculateDepths()
	maxDepth := 0
	for _, d := range depths {
		maxDepth = max(maxDepth, d)
	}

	for depth := 0; depth <= maxDepth && len(v.graph.nodes) > 0; depth++ {
		fmt.Fprintf(&b, "Level %d:\n", depth)
		b.WriteString("--------\n")
		for _, node := range v.graph.nodes {
			if depths[node.Type] == depth {
				v.writeNodeDetails(&b, node, "  ")
			}
		}
		b.WriteString("\n")
	}

	if cycles := v.graph.DetectCycles(); len(cycles) > 0 {
		b.WriteString("Cycles:\n")
		b.WriteString("-------\n")
		for _, c := range cycles {
			fmt.Fprintf(&b, "  %s\n", joinTypes(c, " <-> "))
		}
		b.WriteString("\n")
	}

	v.writeStatistics(&b)

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteAdjacencyList writes the graph as an adjacency list
func (v *Visualizer) WriteAdjacencyList(w io.Writer) error {
	var b strings.Builder

	b.WriteString("Adjacency List:\n")
	b.WriteString("===============\n\n")

	for _, node := range v.graph.nodes {
		fmt.Fprintf(&b, "%v -> [%s]\n", node.Type, joinTypes(v.graph.typesOf(node.Dependencies), ", "))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func (v *Visualizer) styleOf(node *Node) NodeStyle {
	var s NodeStyle
	if v.style != nil {
		s = v.style(node.Type)
	}
	if s.Label == "" {
		s.Label = node.Type.String()
	}
	if s.Color == "" {
		s.Color = "white"
	}
	return s
}

// writeNodeDetails writes detailed information about a node
func (v *Visualizer) writeNodeDetails(b *strings.Builder, node *Node, indent string) {
	s := v.styleOf(node)
	fmt.Fprintf(b, "%s%s\n", indent, s.Label)

	for _, d := range s.Details {
		fmt.Fprintf(b, "%s  %s\n", indent, d)
	}

	if len(node.Dependencies) > 0 {
		fmt.Fprintf(b, "%s  Dependencies: [%s]\n", indent, joinTypes(v.graph.typesOf(node.Dependencies), ", "))
	}

	if len(node.Dependents) > 0 {
		fmt.Fprintf(b, "%s  Dependents: [%s]\n", indent, joinTypes(v.graph.typesOf(node.Dependents), ", "))
	}
}

// writeStatistics writes graph statistics
func (v *Visualizer) writeStatistics(b *strings.Builder) {
	edges := 0
	roots := 0
	leaves := 0
	for _, node := range v.graph.nodes {
		edges += len(node.Dependencies)
		if len(node.Dependencies) == 0 {
			roots++
		}
		if len(node.Dependents) == 0 {
			leaves++
		}
	}

	b.WriteString("Statistics:\n")
	b.WriteString("-----------\n")
	fmt.Fprintf(b, "  Total nodes: %d\n", len(v.graph.nodes))
	fmt.Fprintf(b, "  Total edges: %d\n", edges)
	fmt.Fprintf(b, "  Nodes without dependencies: %d\n", roots)
	fmt.Fprintf(b, "  Nodes without dependents: %d\n", leaves)
}

func joinTypes(types []reflect.Type, sep string) string {
	parts := make([]string, len(types))
	for i, t := range types {
		parts[i] = t.String()
	}
	return strings.Join(parts, sep)
}
