package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/vanshika/railplanner/internal/config"
	"github.com/vanshika/railplanner/internal/dataset"
	"github.com/vanshika/railplanner/internal/domain"
	"github.com/vanshika/railplanner/internal/graph"
	"github.com/vanshika/railplanner/internal/logging"
	"github.com/vanshika/railplanner/internal/osmimport"
	"github.com/vanshika/railplanner/internal/postgres"
	"github.com/vanshika/railplanner/internal/repository"
	"github.com/vanshika/railplanner/internal/service"
)

var errNoInput = errors.New("either -dataset or -osm is required")

type network struct {
	edges        []domain.Edge
	segments     []domain.TrainSegment
	availability []domain.SegmentAvailability
}

func main() {
	var (
		datasetPath = flag.String("dataset", "", "YAML or JSON dataset to load")
		osmPath     = flag.String("osm", "", "OpenStreetMap extract (.osm.pbf or .osm) to import railway track from")
		railways    = flag.String("railways", strings.Join(osmimport.DefaultOptions().Railways, ","), "accepted railway=* values for -osm")
		target      = flag.String("target", "", "destination store: neo4j or postgres (defaults to DATA_BACKEND)")
		workers     = flag.Int("workers", 4, "number of concurrent writers")
		batchSize   = flag.Int("batch-size", 500, "rows per write")
		reset       = flag.Bool("reset", false, "drop postgres tables before loading")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging).With("component", "ingest")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	net, err := loadNetwork(ctx, logger, *datasetPath, *osmPath, *railways, *workers)
	if err != nil {
		logger.Error("failed to load input", "error", err)
		os.Exit(1)
	}

	dest := *target
	if dest == "" {
		dest = cfg.Data.Backend
	}

	sink, closeSink, err := openSink(ctx, logger, cfg, dest, *reset)
	if err != nil {
		logger.Error("failed to open target", "target", dest, "error", err)
		os.Exit(1)
	}
	defer closeSink()

	ingestor := service.NewBulkIngestor(sink, *workers, *batchSize, logger)

	start := time.Now()
	stats, err := ingestor.Ingest(ctx, net.edges, net.segments, net.availability)
	if err != nil {
		logger.Error("ingestion failed", "error", err, "edges", stats.Edges, "segments", stats.Segments, "availability", stats.Availability)
		os.Exit(1)
	}

	logger.Info("ingestion complete",
		"target", dest,
		"duration", time.Since(start).String(),
		"edges", stats.Edges,
		"segments", stats.Segments,
		"availability", stats.Availability,
	)
}

func loadNetwork(ctx context.Context, logger *slog.Logger, datasetPath, osmPath, railways string, workers int) (network, error) {
	var net network

	if datasetPath == "" && osmPath == "" {
		return net, errNoInput
	}

	if datasetPath != "" {
		ds, err := dataset.Load(datasetPath)
		if err != nil {
			return net, err
		}
		segments, err := ds.DomainSegments()
		if err != nil {
			return net, fmt.Errorf("%s: %w", datasetPath, err)
		}
		net.edges = ds.DomainEdges()
		net.segments = segments
		net.availability = ds.DomainAvailability()
		logger.Info("loaded dataset", "path", datasetPath, "edges", len(net.edges), "segments", len(net.segments))
	}

	if osmPath != "" {
		opts := osmimport.DefaultOptions()
		opts.Railways = splitList(railways)
		opts.Workers = workers
		edges, stats, err := osmimport.ImportFile(ctx, osmPath, opts)
		if err != nil {
			return net, err
		}
		logger.Info("imported railway track",
			"path", osmPath,
			"ways", stats.Ways,
			"junctions", stats.Junctions,
			"edges", stats.Edges,
			"skipped_ways", stats.SkippedWays,
		)
		net.edges = append(net.edges, edges...)
	}
	return net, nil
}

func openSink(ctx context.Context, logger *slog.Logger, cfg config.Config, target string, reset bool) (service.Sink, func(), error) {
	switch target {
	case config.BackendNeo4j:
		client, err := buildGraphClient(ctx, logger, cfg)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			if err := client.Close(context.Background()); err != nil {
				logger.Warn("closing graph client failed", "error", err)
			}
		}
		repo := repository.New(client, cfg.Data.Directed)
		if err := repo.EnsureSchema(ctx); err != nil {
			closeFn()
			return nil, nil, fmt.Errorf("ensure graph schema: %w", err)
		}
		return repo, closeFn, nil

	case config.BackendPostgres:
		if cfg.Postgres.DSN == "" {
			return nil, nil, errors.New("POSTGRES_DSN is required for ingestion")
		}
		store, err := postgres.Open(ctx, cfg.Postgres.DSN, cfg.Postgres.MaxConns, cfg.Data.Directed)
		if err != nil {
			return nil, nil, err
		}
		if reset {
			logger.Warn("dropping existing network tables")
			if err := store.DropSchema(ctx); err != nil {
				store.Close()
				return nil, nil, err
			}
		}
		if err := store.CreateSchema(ctx); err != nil {
			store.Close()
			return nil, nil, err
		}
		logger.Info("connected to postgres", "max_conns", cfg.Postgres.MaxConns)
		return store, store.Close, nil

	default:
		return nil, nil, fmt.Errorf("unsupported target %q: want %s or %s", target, config.BackendNeo4j, config.BackendPostgres)
	}
}

func buildGraphClient(ctx context.Context, logger *slog.Logger, cfg config.Config) (graph.Client, error) {
	if cfg.Graph.URI == "" {
		return nil, fmt.Errorf("GRAPH_URI is required for ingestion")
	}
	opts := graph.Options{
		URI:            cfg.Graph.URI,
		Database:       cfg.Graph.Database,
		Username:       cfg.Graph.Username,
		Password:       cfg.Graph.Password,
		MaxConnections: cfg.Graph.MaxConnections,
	}
	client, err := graph.NewNeo4jClient(ctx, opts)
	if err != nil {
		return nil, err
	}
	if err := client.VerifyConnectivity(ctx); err != nil {
		_ = client.Close(ctx)
		return nil, err
	}
	logger.Info("connected to graph", "uri", cfg.Graph.URI, "database", cfg.Graph.Database)
	return client, nil
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
