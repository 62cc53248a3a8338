package report

import (
	"github.com/kubeblast/kubeblast/pkg/catalog"
	"github.com/kubeblast/kubeblast/pkg/impact"
)

// GraphNode is one vertex in a node-scoped dependency graph, identified by
// the namespace-qualified container name.
type GraphNode struct {
	ID           string              `json:"id"`
	Label        string              `json:"label"`
	Criticality  catalog.Criticality `json:"criticality"`
	Description  string              `json:"description"`
	Dependencies []string            `json:"dependencies"`
}

// GraphEdge is a declared dependency relationship. The target is the
// literal dependency reference and may name a container outside the
// current graph, dangling edges are legitimate cross-node references.
type GraphEdge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Graph holds the vertices and directed edges for one node's records.
type Graph struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

// BuildGraph derives a dependency graph from a record set: one vertex per
// distinct namespace-qualified container, one edge per (record,
// dependency) pair. Records are sorted first so the output is
// deterministic.
func BuildGraph(records []impact.Record) Graph {
	sorted := Sorted(records)

	graph := Graph{
		Nodes: make([]GraphNode, 0),
		Edges: make([]GraphEdge, 0),
	}
	seen := make(map[string]struct{})
	for _, record := range sorted {
		id := record.FullName()
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			graph.Nodes = append(graph.Nodes, GraphNode{
				ID:           id,
				Label:        record.Container,
				Criticality:  record.Criticality,
				Description:  record.Description,
				Dependencies: record.Dependencies,
			})
		}
		for _, dependency := range record.Dependencies {
			graph.Edges = append(graph.Edges, GraphEdge{From: id, To: dependency})
		}
	}
	return graph
}

// Graphs builds one dependency graph per node in the record set.
func Graphs(records []impact.Record) map[string]Graph {
	graphs := make(map[string]Graph)
	for _, node := range Nodes(records) {
		graphs[node] = BuildGraph(filterNode(records, node))
	}
	return graphs
}
