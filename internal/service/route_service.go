package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vanshika/railplanner/internal/domain"
	"github.com/vanshika/railplanner/internal/routing"
)

// ErrTimeout is returned when a route search exceeds the configured timeout.
var ErrTimeout = errors.New("search timed out")

// RouteSettings holds route planner defaults.
type RouteSettings struct {
	Algorithm routing.Kind
	MaxK      int
	Timeout   time.Duration
}

// RoutePlannerService answers shortest and k-shortest route queries over a
// graph source.
type RoutePlannerService struct {
	source   routing.GraphSource
	settings RouteSettings
	logger   *slog.Logger
}

// NewRoutePlannerService wires the planner to source.
func NewRoutePlannerService(source routing.GraphSource, settings RouteSettings, logger *slog.Logger) *RoutePlannerService {
	if settings.Algorithm == "" {
		settings.Algorithm = routing.KindDijkstra
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RoutePlannerService{source: source, settings: settings, logger: logger}
}

// WithSource returns a planner with the same settings reading from src.
func (s *RoutePlannerService) WithSource(src routing.GraphSource) *RoutePlannerService {
	clone := *s
	clone.source = src
	return &clone
}

// GetShortestRoute returns the best path from start to goal, or nil when goal
// is unreachable. An empty algorithm uses the configured one.
func (s *RoutePlannerService) GetShortestRoute(ctx context.Context, start, goal domain.NodeID, algorithm string, opts domain.TraversalOptions) (*domain.PathResult, error) {
	if err := validateEndpoints(start, goal); err != nil {
		return nil, err
	}
	alg, err := s.algorithm(algorithm)
	if err != nil {
		return nil, err
	}

	searchCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	began := time.Now()
	path, err := alg.FindShortestPath(searchCtx, start, goal, opts)
	switch {
	case errors.Is(err, domain.ErrNoPath):
		s.logger.Debug("route search found no path", "algorithm", alg.Kind(), "start", start, "goal", goal, "took", time.Since(began))
		return nil, nil
	case err != nil:
		return nil, s.searchError(ctx, err)
	}
	s.logger.Debug("route search finished", "algorithm", alg.Kind(), "start", start, "goal", goal, "hops", len(path.Nodes)-1, "cost", path.Cost, "took", time.Since(began))
	return &path, nil
}

// GetKShortestRoutes returns up to k loopless paths in ascending cost order.
// k is capped at the configured maximum. Algorithms without k-shortest support
// return at most the single shortest path.
func (s *RoutePlannerService) GetKShortestRoutes(ctx context.Context, start, goal domain.NodeID, k int, algorithm string, opts domain.TraversalOptions) ([]domain.PathResult, error) {
	if err := validateEndpoints(start, goal); err != nil {
		return nil, err
	}
	if k <= 0 {
		return nil, fmt.Errorf("%w: got %d", domain.ErrInvalidK, k)
	}
	if s.settings.MaxK > 0 && k > s.settings.MaxK {
		s.logger.Debug("capping k", "requested", k, "max", s.settings.MaxK)
		k = s.settings.MaxK
	}
	alg, err := s.algorithm(algorithm)
	if err != nil {
		return nil, err
	}

	searchCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	began := time.Now()
	finder, ok := alg.(routing.KShortestFinder)
	if !ok {
		path, err := alg.FindShortestPath(searchCtx, start, goal, opts)
		if errors.Is(err, domain.ErrNoPath) {
			return []domain.PathResult{}, nil
		}
		if err != nil {
			return nil, s.searchError(ctx, err)
		}
		return []domain.PathResult{path}, nil
	}

	paths, err := finder.FindKShortestPaths(searchCtx, start, goal, k, opts)
	if err != nil {
		return nil, s.searchError(ctx, err)
	}
	s.logger.Debug("k-shortest search finished", "algorithm", alg.Kind(), "k", k, "found", len(paths), "took", time.Since(began))
	return paths, nil
}

func (s *RoutePlannerService) algorithm(name string) (routing.Algorithm, error) {
	kind := s.settings.Algorithm
	if name != "" {
		parsed, err := routing.ParseKind(name)
		if err != nil {
			return nil, err
		}
		kind = parsed
	}
	return routing.New(kind, s.source)
}

func (s *RoutePlannerService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.settings.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.settings.Timeout)
}

// searchError reports ErrTimeout only when the service deadline fired; a
// caller whose own context ran out gets its error back unchanged.
func (s *RoutePlannerService) searchError(parent context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) && parent.Err() == nil {
		return fmt.Errorf("%w after %s", ErrTimeout, s.settings.Timeout)
	}
	return err
}

func validateEndpoints(start, goal domain.NodeID) error {
	if start == "" || goal == "" {
		return fmt.Errorf("%w: start and goal are required", domain.ErrMissingEndpoint)
	}
	return nil
}
