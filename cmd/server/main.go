package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/vanshika/railplanner/internal/config"
	"github.com/vanshika/railplanner/internal/dataset"
	"github.com/vanshika/railplanner/internal/generator"
	"github.com/vanshika/railplanner/internal/graph"
	"github.com/vanshika/railplanner/internal/journey"
	"github.com/vanshika/railplanner/internal/logging"
	"github.com/vanshika/railplanner/internal/postgres"
	"github.com/vanshika/railplanner/internal/repository"
	"github.com/vanshika/railplanner/internal/routing"
	"github.com/vanshika/railplanner/internal/server"
	"github.com/vanshika/railplanner/internal/service"
)

// sources bundles whatever backend answers planner reads.
type sources struct {
	graph     routing.GraphSource
	timetable journey.TimetableSource
	inventory journey.InventorySource
	health    server.HealthService
	close     func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	src, err := buildSources(ctx, logger, cfg)
	if err != nil {
		logger.Error("failed to open data backend", "backend", cfg.Data.Backend, "error", err)
		os.Exit(1)
	}
	defer src.close()

	algorithm, err := routing.ParseKind(cfg.Search.Algorithm)
	if err != nil {
		logger.Error("invalid route algorithm", "error", err)
		os.Exit(1)
	}

	routes := service.NewRoutePlannerService(src.graph, service.RouteSettings{
		Algorithm: algorithm,
		MaxK:      cfg.Search.MaxK,
		Timeout:   cfg.Search.Timeout,
	}, logger.With("component", "routes"))
	journeys := service.NewJourneyPlannerService(src.timetable, src.inventory, service.JourneySettings{
		MinTransferMinutes: cfg.Search.MinTransferMinutes,
		MaxResults:         cfg.Search.MaxResults,
		MaxExpansions:      cfg.Search.MaxExpansions,
		Timeout:            cfg.Search.Timeout,
	}, logger.With("component", "journeys"))

	router := server.NewRouter(logger, server.RouterDependencies{
		Health:           src.health,
		API:              server.NewAPIHandlers(logger, routes, journeys),
		AllowedOrigins:   cfg.HTTP.AllowedOrigins(),
		AllowCredentials: true,
	})

	srv := server.New(logger, cfg.HTTP, router)
	if err := srv.Run(ctx); err != nil {
		logger.Error("server stopped unexpectedly", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

func buildSources(ctx context.Context, logger *slog.Logger, cfg config.Config) (sources, error) {
	switch cfg.Data.Backend {
	case config.BackendNeo4j:
		client, err := graph.NewNeo4jClient(ctx, graph.Options{
			URI:            cfg.Graph.URI,
			Database:       cfg.Graph.Database,
			Username:       cfg.Graph.Username,
			Password:       cfg.Graph.Password,
			MaxConnections: cfg.Graph.MaxConnections,
		})
		if err != nil {
			return sources{}, err
		}
		repo := repository.New(client, cfg.Data.Directed)
		if err := repo.EnsureSchema(ctx); err != nil {
			_ = client.Close(ctx)
			return sources{}, fmt.Errorf("ensure graph schema: %w", err)
		}
		logger.Info("using neo4j backend", "uri", cfg.Graph.URI, "database", cfg.Graph.Database)
		return sources{
			graph:     repo,
			timetable: repo,
			inventory: repo,
			health:    server.GraphHealthService{Client: client},
			close: func() {
				if err := client.Close(context.Background()); err != nil {
					logger.Warn("closing graph client failed", "error", err)
				}
			},
		}, nil

	case config.BackendPostgres:
		store, err := postgres.Open(ctx, cfg.Postgres.DSN, cfg.Postgres.MaxConns, cfg.Data.Directed)
		if err != nil {
			return sources{}, err
		}
		if err := store.CreateSchema(ctx); err != nil {
			store.Close()
			return sources{}, err
		}
		if counts, err := store.Counts(ctx); err == nil {
			logger.Info("using postgres backend", "edges", counts.Edges, "segments", counts.Segments, "seats", counts.Seats)
		}
		return sources{
			graph:     store,
			timetable: store,
			inventory: store,
			health:    server.PostgresHealthService{DB: store},
			close:     store.Close,
		}, nil

	default:
		ds, err := memoryDataset(ctx, logger, cfg.Data.DatasetPath)
		if err != nil {
			return sources{}, err
		}
		stores, err := ds.Stores(cfg.Data.Directed)
		if err != nil {
			return sources{}, err
		}
		return sources{
			graph:     stores.Graph,
			timetable: stores.Timetable,
			inventory: stores.Inventory,
			close:     func() {},
		}, nil
	}
}

// memoryDataset loads the configured file, or generates the default
// synthetic network when none is set.
func memoryDataset(ctx context.Context, logger *slog.Logger, path string) (dataset.Dataset, error) {
	if path != "" {
		ds, err := dataset.Load(path)
		if err != nil {
			return dataset.Dataset{}, err
		}
		logger.Info("loaded dataset", "path", path, "edges", len(ds.Edges), "segments", len(ds.Segments))
		return ds, nil
	}
	ds, err := generator.New(generator.DefaultConfig()).Generate(ctx)
	if err != nil {
		return dataset.Dataset{}, fmt.Errorf("generate dataset: %w", err)
	}
	logger.Info("no dataset configured, serving a generated network", "edges", len(ds.Edges), "segments", len(ds.Segments))
	return ds, nil
}
