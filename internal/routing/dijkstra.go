package routing

import (
	"context"
	"errors"
	"fmt"

	"github.com/vanshika/railplanner/internal/domain"
	"github.com/vanshika/railplanner/internal/frontier"
)

// ErrNegativeWeight is returned when relaxation meets an edge with a negative weight.
var ErrNegativeWeight = errors.New("negative edge weight")

// Dijkstra finds the minimum-weight path from start to goal.
//
// Distances are tracked per node and the frontier uses lazy deletion: an
// improved distance is pushed as a new entry and any popped entry whose
// distance exceeds the recorded best is discarded without relaxation. The
// search stops as soon as goal is popped.
func Dijkstra(ctx context.Context, src GraphSource, start, goal domain.NodeID, opts domain.TraversalOptions) (domain.PathResult, error) {
	if opts.ExcludeNodes.Has(start) || opts.ExcludeNodes.Has(goal) {
		return domain.PathResult{}, domain.ErrNoPath
	}

	dist := map[domain.NodeID]float64{start: 0}
	prev := map[domain.NodeID]domain.NodeID{}
	pq := frontier.New[float64, domain.NodeID]()
	pq.Push(0, start)

	reached := false
	for {
		if err := ctx.Err(); err != nil {
			return domain.PathResult{}, err
		}
		d, current, ok := pq.Pop()
		if !ok {
			break
		}
		if current == goal {
			reached = true
			break
		}
		if best, seen := dist[current]; seen && d > best {
			continue // stale entry
		}

		neighbors, err := src.OutgoingNeighbors(ctx, current)
		if err != nil {
			return domain.PathResult{}, fmt.Errorf("neighbors of %s: %w", current, err)
		}
		for _, n := range neighbors {
			if opts.ExcludeNodes.Has(n.NodeID) || opts.ExcludeEdges.Has(current, n.NodeID) {
				continue
			}
			if n.Weight < 0 {
				return domain.PathResult{}, fmt.Errorf("%w: %s→%s weight=%g", ErrNegativeWeight, current, n.NodeID, n.Weight)
			}
			alt := d + n.Weight
			if best, seen := dist[n.NodeID]; !seen || alt < best {
				dist[n.NodeID] = alt
				prev[n.NodeID] = current
				pq.Push(alt, n.NodeID)
			}
		}
	}

	if !reached {
		return domain.PathResult{}, domain.ErrNoPath
	}
	return domain.PathResult{Nodes: walkBack(prev, start, goal), Cost: dist[goal]}, nil
}
