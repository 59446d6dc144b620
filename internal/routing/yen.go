package routing

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/vanshika/railplanner/internal/domain"
)

// Yen enumerates up to k loopless paths from start to goal in ascending cost
// order.
//
// Each round deviates from the most recently accepted path. For deviation
// index i the root is the prefix through node i; edges leaving node i along
// any accepted path with the same root are excluded, as are the root nodes
// before i, and Dijkstra finds the spur from node i to goal. The cheapest
// candidate of the round is accepted. Enumeration stops early when a round
// yields no candidate.
//
// k <= 0 and an unreachable goal both yield an empty result.
func Yen(ctx context.Context, src GraphSource, start, goal domain.NodeID, k int, opts domain.TraversalOptions) ([]domain.PathResult, error) {
	if k <= 0 {
		return []domain.PathResult{}, nil
	}

	first, err := Dijkstra(ctx, src, start, goal, opts)
	if errors.Is(err, domain.ErrNoPath) {
		return []domain.PathResult{}, nil
	}
	if err != nil {
		return nil, err
	}
	accepted := []domain.PathResult{first}

	for len(accepted) < k {
		last := accepted[len(accepted)-1]
		var best *domain.PathResult

		for i := 0; i < len(last.Nodes)-1; i++ {
			spurNode := last.Nodes[i]
			root := last.Nodes[:i+1]

			var blocked []domain.EdgeKey
			for _, p := range accepted {
				if len(p.Nodes) > i+1 && hasPrefix(p.Nodes, root) {
					blocked = append(blocked, domain.EdgeKey{From: p.Nodes[i], To: p.Nodes[i+1]})
				}
			}
			spurOpts := domain.TraversalOptions{
				ExcludeNodes: opts.ExcludeNodes.With(root[:i]...),
				ExcludeEdges: opts.ExcludeEdges.With(blocked...),
			}

			spur, err := Dijkstra(ctx, src, spurNode, goal, spurOpts)
			if errors.Is(err, domain.ErrNoPath) {
				continue
			}
			if err != nil {
				return nil, err
			}

			rootCost, err := prefixCost(ctx, src, root)
			if err != nil {
				return nil, err
			}

			nodes := make([]domain.NodeID, 0, i+len(spur.Nodes))
			nodes = append(nodes, root[:i]...)
			nodes = append(nodes, spur.Nodes...)
			candidate := domain.PathResult{Nodes: nodes, Cost: rootCost + spur.Cost}

			if containsPath(accepted, candidate) {
				continue
			}
			if best == nil || candidate.Cost < best.Cost {
				best = &candidate
			}
		}

		if best == nil {
			break
		}
		accepted = append(accepted, *best)
	}

	return accepted, nil
}

// prefixCost sums the edge weights along nodes. A missing edge makes the
// prefix unusable and yields +Inf. Parallel edges count at their lowest weight.
func prefixCost(ctx context.Context, src GraphSource, nodes []domain.NodeID) (float64, error) {
	var cost float64
	for i := 0; i < len(nodes)-1; i++ {
		neighbors, err := src.OutgoingNeighbors(ctx, nodes[i])
		if err != nil {
			return 0, fmt.Errorf("neighbors of %s: %w", nodes[i], err)
		}
		w, found := math.Inf(1), false
		for _, n := range neighbors {
			if n.NodeID == nodes[i+1] && n.Weight < w {
				w, found = n.Weight, true
			}
		}
		if !found {
			return math.Inf(1), nil
		}
		cost += w
	}
	return cost, nil
}

func hasPrefix(nodes, prefix []domain.NodeID) bool {
	if len(nodes) < len(prefix) {
		return false
	}
	for i := range prefix {
		if nodes[i] != prefix[i] {
			return false
		}
	}
	return true
}

func containsPath(paths []domain.PathResult, p domain.PathResult) bool {
	for _, existing := range paths {
		if existing.Equal(p) {
			return true
		}
	}
	return false
}
