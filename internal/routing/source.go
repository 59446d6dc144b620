// Package routing implements point-to-point path search over a weighted,
// directed graph: breadth-first (hop count), Dijkstra (edge weight sum) and
// Yen's loopless K-shortest paths.
//
// All searches read the graph through GraphSource and keep their frontier and
// visited state private to the call, so a single source may serve concurrent
// searches. The context is checked once per frontier pop.
package routing

import (
	"context"

	"github.com/vanshika/railplanner/internal/domain"
)

// GraphSource returns the outgoing neighbours of a node. Weights are already
// resolved (missing weights default to 1). Unknown nodes have no neighbours.
type GraphSource interface {
	OutgoingNeighbors(ctx context.Context, node domain.NodeID) ([]domain.WeightedNeighbor, error)
}
