// Command plan answers route and journey queries against a dataset file
// without a server or database.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/vanshika/railplanner/internal/config"
	"github.com/vanshika/railplanner/internal/dataset"
	"github.com/vanshika/railplanner/internal/domain"
	"github.com/vanshika/railplanner/internal/format"
	"github.com/vanshika/railplanner/internal/generator"
	"github.com/vanshika/railplanner/internal/logging"
	"github.com/vanshika/railplanner/internal/routing"
	"github.com/vanshika/railplanner/internal/service"
)

func main() {
	var (
		datasetPath  = flag.String("dataset", "", "YAML or JSON dataset (a generated network when empty)")
		mode         = flag.String("mode", "route", "route or journey")
		directed     = flag.Bool("directed", true, "treat edges as directed unless the dataset says otherwise")
		start        = flag.String("start", "", "route start node")
		goal         = flag.String("goal", "", "route goal node")
		k            = flag.Int("k", 1, "number of alternative routes")
		algorithm    = flag.String("algorithm", "dijkstra", "bfs, dijkstra or yen")
		excludeNodes = flag.String("exclude-nodes", "", "comma separated nodes to avoid")
		excludeEdges = flag.String("exclude-edges", "", "comma separated from|to edges to avoid")
		origin       = flag.String("origin", "", "journey origin station")
		destination  = flag.String("destination", "", "journey destination station")
		passengers   = flag.Int("passengers", 1, "number of travellers")
		earliest     = flag.String("earliest", "", "earliest departure, RFC 3339 or epoch milliseconds")
		transfer     = flag.Int("transfer", domain.DefaultMinTransferMinutes, "minimum transfer minutes between trains")
		maxResults   = flag.Int("max-results", domain.DefaultMaxResults, "maximum journeys to return")
		budget       = flag.Int("max-expansions", 0, "journey search expansion budget (0 is unlimited)")
		timeout      = flag.Duration("timeout", 30*time.Second, "search timeout")
		asJSON       = flag.Bool("json", false, "print results as JSON")
		logLevel     = flag.String("log-level", "warn", "log level")
	)
	flag.Parse()

	logger := logging.NewWriter(config.LoggingConfig{Level: *logLevel, Format: "text"}, os.Stderr).With("component", "plan")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	ds, err := loadDataset(ctx, *datasetPath)
	if err != nil {
		logger.Error("failed to load dataset", "error", err)
		os.Exit(1)
	}
	stores, err := ds.Stores(*directed)
	if err != nil {
		logger.Error("invalid dataset", "error", err)
		os.Exit(1)
	}

	switch *mode {
	case "route":
		kind, err := routing.ParseKind(*algorithm)
		if err != nil {
			logger.Error("invalid algorithm", "error", err)
			os.Exit(2)
		}
		opts, err := traversalOptions(*excludeNodes, *excludeEdges)
		if err != nil {
			logger.Error("invalid exclusions", "error", err)
			os.Exit(2)
		}
		svc := service.NewRoutePlannerService(stores.Graph, service.RouteSettings{Algorithm: kind, Timeout: *timeout}, logger)
		paths, err := planRoutes(ctx, svc, domain.NodeID(*start), domain.NodeID(*goal), *k, opts)
		if err != nil {
			exitOnSearchError(logger, err)
		}
		if err := printRoutes(os.Stdout, paths, *asJSON); err != nil {
			logger.Error("failed to print routes", "error", err)
			os.Exit(1)
		}

	case "journey":
		earliestMs, err := parseEarliest(*earliest)
		if err != nil {
			logger.Error("invalid -earliest", "error", err)
			os.Exit(2)
		}
		svc := service.NewJourneyPlannerService(stores.Timetable, stores.Inventory, service.JourneySettings{
			MinTransferMinutes: *transfer,
			MaxResults:         *maxResults,
			MaxExpansions:      *budget,
			Timeout:            *timeout,
		}, logger)
		plans, err := svc.SearchJourneys(ctx, domain.JourneySearchOptions{
			Origin:                   domain.StationID(*origin),
			Destination:              domain.StationID(*destination),
			EarliestDepartureEpochMs: earliestMs,
			Passengers:               *passengers,
		})
		if err != nil {
			exitOnSearchError(logger, err)
		}
		if err := printJourneys(os.Stdout, plans, *asJSON); err != nil {
			logger.Error("failed to print journeys", "error", err)
			os.Exit(1)
		}

	default:
		logger.Error("unknown mode", "mode", *mode)
		os.Exit(2)
	}
}

func loadDataset(ctx context.Context, path string) (dataset.Dataset, error) {
	if path != "" {
		return dataset.Load(path)
	}
	return generator.New(generator.DefaultConfig()).Generate(ctx)
}

func planRoutes(ctx context.Context, svc *service.RoutePlannerService, start, goal domain.NodeID, k int, opts domain.TraversalOptions) ([]domain.PathResult, error) {
	if k > 1 {
		return svc.GetKShortestRoutes(ctx, start, goal, k, "", opts)
	}
	path, err := svc.GetShortestRoute(ctx, start, goal, "", opts)
	if err != nil || path == nil {
		return nil, err
	}
	return []domain.PathResult{*path}, nil
}

func traversalOptions(nodes, edges string) (domain.TraversalOptions, error) {
	var opts domain.TraversalOptions
	if list := splitList(nodes); len(list) > 0 {
		opts.ExcludeNodes = domain.NewNodeSet()
		for _, id := range list {
			opts.ExcludeNodes[domain.NodeID(id)] = struct{}{}
		}
	}
	if list := splitList(edges); len(list) > 0 {
		opts.ExcludeEdges = domain.NewEdgeSet()
		for _, raw := range list {
			key, ok := domain.ParseEdgeKey(raw)
			if !ok {
				return opts, fmt.Errorf("edge %q is not of the form from|to", raw)
			}
			opts.ExcludeEdges[key] = struct{}{}
		}
	}
	return opts, nil
}

func parseEarliest(raw string) (int64, error) {
	if raw == "" {
		return 0, nil
	}
	if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return ms, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return 0, err
	}
	return t.UnixMilli(), nil
}

func printRoutes(w io.Writer, paths []domain.PathResult, asJSON bool) error {
	if asJSON {
		return json.NewEncoder(w).Encode(map[string]any{"routes": paths})
	}
	if len(paths) == 0 {
		_, err := fmt.Fprintln(w, "no route found")
		return err
	}
	for i, p := range paths {
		nodes := make([]string, len(p.Nodes))
		for j, n := range p.Nodes {
			nodes[j] = string(n)
		}
		if _, err := fmt.Fprintf(w, "%d. %s (cost %g, %d hops)\n", i+1, strings.Join(nodes, " -> "), p.Cost, len(p.Nodes)-1); err != nil {
			return err
		}
	}
	return nil
}

func printJourneys(w io.Writer, plans []domain.JourneyPlan, asJSON bool) error {
	if asJSON {
		return json.NewEncoder(w).Encode(map[string]any{"journeys": plans})
	}
	if len(plans) == 0 {
		_, err := fmt.Fprintln(w, "no journey found")
		return err
	}
	for i, plan := range plans {
		fmt.Fprintf(w, "%d. %s, %d change(s)\n", i+1, format.Duration(plan.TotalDurationMinutes), plan.NumberOfChanges)
		for _, leg := range plan.Segments {
			seats := make([]string, len(leg.SeatAssignments))
			for j, a := range leg.SeatAssignments {
				seats[j] = string(a.SeatID)
			}
			seg := leg.Segment
			fmt.Fprintf(w, "   %s  %s %s -> %s %s  seats %s\n",
				seg.TrainID,
				format.Clock(seg.DepartureEpochMs), seg.FromStationID,
				format.Clock(seg.ArrivalEpochMs), seg.ToStationID,
				strings.Join(seats, ", "))
		}
		for _, c := range plan.SeatChanges {
			fmt.Fprintf(w, "   passenger %d moves %s -> %s at %s\n", c.PassengerIndex+1, c.FromSeatID, c.ToSeatID, c.AtStationID)
		}
	}
	return nil
}

func exitOnSearchError(logger *slog.Logger, err error) {
	code := 1
	if errors.Is(err, domain.ErrInvalidInput) {
		code = 2
	}
	logger.Error("search failed", "error", err)
	os.Exit(code)
}

func splitList(csv string) []string {
	var out []string
	for _, part := range strings.Split(csv, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
