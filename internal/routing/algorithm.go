package routing

import (
	"context"
	"fmt"
	"strings"

	"github.com/vanshika/railplanner/internal/domain"
)

// Kind names a route algorithm.
type Kind string

const (
	KindBFS      Kind = "bfs"
	KindDijkstra Kind = "dijkstra"
	KindYen      Kind = "yen"
)

// ParseKind maps a configuration value onto a Kind. "yens" is accepted as an alias.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "dijkstra":
		return KindDijkstra, nil
	case "bfs":
		return KindBFS, nil
	case "yen", "yens":
		return KindYen, nil
	default:
		return "", fmt.Errorf("%w: %q", domain.ErrUnknownAlgorithm, s)
	}
}

// Algorithm finds a single shortest path.
type Algorithm interface {
	Kind() Kind
	FindShortestPath(ctx context.Context, start, goal domain.NodeID, opts domain.TraversalOptions) (domain.PathResult, error)
}

// KShortestFinder is implemented by algorithms that can enumerate alternatives.
type KShortestFinder interface {
	FindKShortestPaths(ctx context.Context, start, goal domain.NodeID, k int, opts domain.TraversalOptions) ([]domain.PathResult, error)
}

// New returns the algorithm for kind bound to src.
func New(kind Kind, src GraphSource) (Algorithm, error) {
	switch kind {
	case KindBFS:
		return bfsAlgorithm{src: src}, nil
	case KindDijkstra:
		return dijkstraAlgorithm{src: src}, nil
	case KindYen:
		return yenAlgorithm{src: src}, nil
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownAlgorithm, string(kind))
	}
}

type bfsAlgorithm struct{ src GraphSource }

func (a bfsAlgorithm) Kind() Kind { return KindBFS }

func (a bfsAlgorithm) FindShortestPath(ctx context.Context, start, goal domain.NodeID, opts domain.TraversalOptions) (domain.PathResult, error) {
	return BFS(ctx, a.src, start, goal, opts)
}

type dijkstraAlgorithm struct{ src GraphSource }

func (a dijkstraAlgorithm) Kind() Kind { return KindDijkstra }

func (a dijkstraAlgorithm) FindShortestPath(ctx context.Context, start, goal domain.NodeID, opts domain.TraversalOptions) (domain.PathResult, error) {
	return Dijkstra(ctx, a.src, start, goal, opts)
}

type yenAlgorithm struct{ src GraphSource }

func (a yenAlgorithm) Kind() Kind { return KindYen }

func (a yenAlgorithm) FindShortestPath(ctx context.Context, start, goal domain.NodeID, opts domain.TraversalOptions) (domain.PathResult, error) {
	return Dijkstra(ctx, a.src, start, goal, opts)
}

func (a yenAlgorithm) FindKShortestPaths(ctx context.Context, start, goal domain.NodeID, k int, opts domain.TraversalOptions) ([]domain.PathResult, error) {
	return Yen(ctx, a.src, start, goal, k, opts)
}
