// Package memstore holds in-memory graph, timetable and inventory sources.
// They back the offline CLI, per-request inline data on the HTTP API and
// tests. Every read returns copies, so callers cannot mutate stored data.
package memstore

import (
	"context"
	"sort"

	"github.com/vanshika/railplanner/internal/domain"
)

// Graph is an adjacency-list graph built once from a list of edges.
type Graph struct {
	adjacency map[domain.NodeID][]domain.WeightedNeighbor
	nodes     domain.NodeSet
	edges     []domain.Edge
}

// NewGraph indexes edges. When directed is false every edge is also added in
// reverse with the same weight.
func NewGraph(edges []domain.Edge, directed bool) *Graph {
	g := &Graph{
		adjacency: make(map[domain.NodeID][]domain.WeightedNeighbor),
		nodes:     domain.NewNodeSet(),
		edges:     append([]domain.Edge(nil), edges...),
	}
	for _, e := range edges {
		g.nodes[e.Source] = struct{}{}
		g.nodes[e.Target] = struct{}{}
		w := e.ResolvedWeight()
		g.adjacency[e.Source] = append(g.adjacency[e.Source], domain.WeightedNeighbor{NodeID: e.Target, Weight: w})
		if !directed {
			g.adjacency[e.Target] = append(g.adjacency[e.Target], domain.WeightedNeighbor{NodeID: e.Source, Weight: w})
		}
	}
	return g
}

// OutgoingNeighbors returns the neighbours of node in edge insertion order.
func (g *Graph) OutgoingNeighbors(_ context.Context, node domain.NodeID) ([]domain.WeightedNeighbor, error) {
	return append([]domain.WeightedNeighbor(nil), g.adjacency[node]...), nil
}

// NodeIDs returns every node mentioned by an edge, sorted.
func (g *Graph) NodeIDs(context.Context) ([]domain.NodeID, error) {
	out := make([]domain.NodeID, 0, len(g.nodes))
	for id := range g.nodes {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// Edges returns the edges the graph was built from.
func (g *Graph) Edges(context.Context) ([]domain.Edge, error) {
	return append([]domain.Edge(nil), g.edges...), nil
}
