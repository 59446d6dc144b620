package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/vanshika/railplanner/internal/dataset"
	"github.com/vanshika/railplanner/internal/generator"
)

func main() {
	cfg := generator.DefaultConfig()
	var (
		stations   = flag.Int("stations", cfg.Stations, "number of stations")
		lines      = flag.Int("lines", cfg.Lines, "number of train lines")
		stops      = flag.Int("stops", cfg.StopsPerLine, "stations served by each line")
		departures = flag.Int("departures", cfg.DeparturesPerLine, "runs per line and direction")
		headway    = flag.Int("headway", cfg.HeadwayMinutes, "minutes between runs of a line")
		wagons     = flag.Int("wagons", cfg.Wagons, "wagons per train")
		seats      = flag.Int("seats-per-wagon", cfg.SeatsPerWagon, "seats per wagon")
		occupancy  = flag.Float64("occupancy", cfg.Occupancy, "share of seats already sold")
		speed      = flag.Float64("speed", cfg.SpeedKmh, "average train speed in km/h")
		seed       = flag.Int64("seed", cfg.Seed, "random seed for deterministic generation")
		start      = flag.String("start", cfg.ServiceStart.Format(time.RFC3339), "first departure (RFC 3339)")
		output     = flag.String("output", "data/network.yaml", "dataset file; .json writes JSON, anything else YAML")
		stdout     = flag.Bool("stdout", false, "write the dataset to stdout instead of a file")
		asJSON     = flag.Bool("json", false, "with -stdout, write JSON instead of YAML")
	)
	flag.Parse()

	serviceStart, err := time.Parse(time.RFC3339, *start)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid -start: %v\n", err)
		os.Exit(1)
	}

	genCfg := generator.Config{
		Stations:          *stations,
		Lines:             *lines,
		StopsPerLine:      *stops,
		DeparturesPerLine: *departures,
		HeadwayMinutes:    *headway,
		Wagons:            *wagons,
		SeatsPerWagon:     *seats,
		Occupancy:         clampProbability(*occupancy),
		SpeedKmh:          *speed,
		Seed:              *seed,
		ServiceStart:      serviceStart,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	ds, err := generator.New(genCfg).Generate(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "generation failed: %v\n", err)
		os.Exit(1)
	}

	if *stdout {
		format := dataset.FormatYAML
		if *asJSON {
			format = dataset.FormatJSON
		}
		if err := dataset.Encode(os.Stdout, format, ds); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write dataset to stdout: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := dataset.Write(*output, ds); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write dataset: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stdout, "Generated %d edges, %d segments and %d seat maps into %s\n", len(ds.Edges), len(ds.Segments), len(ds.Availability), *output)
}

func clampProbability(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}
