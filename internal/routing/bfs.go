package routing

import (
	"context"
	"fmt"

	"github.com/vanshika/railplanner/internal/domain"
)

// BFS finds the path with the fewest hops from start to goal. The returned
// cost equals len(Nodes)-1. domain.ErrNoPath is returned when goal is
// unreachable or when start or goal is excluded.
func BFS(ctx context.Context, src GraphSource, start, goal domain.NodeID, opts domain.TraversalOptions) (domain.PathResult, error) {
	if opts.ExcludeNodes.Has(start) || opts.ExcludeNodes.Has(goal) {
		return domain.PathResult{}, domain.ErrNoPath
	}

	parent := map[domain.NodeID]domain.NodeID{}
	visited := domain.NewNodeSet(start)
	queue := []domain.NodeID{start}

	for head := 0; head < len(queue); head++ {
		if err := ctx.Err(); err != nil {
			return domain.PathResult{}, err
		}

		current := queue[head]
		if current == goal {
			nodes := walkBack(parent, start, goal)
			return domain.PathResult{Nodes: nodes, Cost: float64(len(nodes) - 1)}, nil
		}

		neighbors, err := src.OutgoingNeighbors(ctx, current)
		if err != nil {
			return domain.PathResult{}, fmt.Errorf("neighbors of %s: %w", current, err)
		}
		for _, n := range neighbors {
			if opts.ExcludeNodes.Has(n.NodeID) || opts.ExcludeEdges.Has(current, n.NodeID) {
				continue
			}
			if visited.Has(n.NodeID) {
				continue
			}
			visited[n.NodeID] = struct{}{}
			parent[n.NodeID] = current
			queue = append(queue, n.NodeID)
		}
	}

	return domain.PathResult{}, domain.ErrNoPath
}

// walkBack rebuilds start..goal from predecessor links.
func walkBack(parent map[domain.NodeID]domain.NodeID, start, goal domain.NodeID) []domain.NodeID {
	var nodes []domain.NodeID
	for node := goal; ; {
		nodes = append(nodes, node)
		if node == start {
			break
		}
		node = parent[node]
	}
	for i, j := 0, len(nodes)-1; i < j; i, j = i+1, j-1 {
		nodes[i], nodes[j] = nodes[j], nodes[i]
	}
	return nodes
}
