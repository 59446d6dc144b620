package osmimport

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"github.com/paulmach/osm/osmxml"

	"github.com/vanshika/railplanner/internal/domain"
)

// ImportFile reads a .osm.pbf or .osm (XML) file.
func ImportFile(ctx context.Context, path string, opts Options) ([]domain.Edge, Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("open osm file: %w", err)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".pbf") {
		return ImportPBF(ctx, f, opts)
	}
	return ImportXML(ctx, f, opts)
}

// ImportPBF reads protobuf-encoded OSM data in two passes: ways, then nodes.
func ImportPBF(ctx context.Context, rs io.ReadSeeker, opts Options) ([]domain.Edge, Stats, error) {
	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}
	return scanTwice(ctx, rs, opts, func(pass int) osm.Scanner {
		s := osmpbf.New(ctx, rs, workers)
		s.SkipRelations = true
		if pass == 0 {
			s.SkipNodes = true
		} else {
			s.SkipWays = true
		}
		return s
	})
}

// ImportXML reads OSM XML in two passes: ways, then nodes.
func ImportXML(ctx context.Context, rs io.ReadSeeker, opts Options) ([]domain.Edge, Stats, error) {
	return scanTwice(ctx, rs, opts, func(int) osm.Scanner {
		return osmxml.New(ctx, rs)
	})
}

func scanTwice(ctx context.Context, rs io.ReadSeeker, opts Options, open func(pass int) osm.Scanner) ([]domain.Edge, Stats, error) {
	b := NewBuilder(opts)

	for pass := 0; pass < 2; pass++ {
		if _, err := rs.Seek(0, io.SeekStart); err != nil {
			return nil, Stats{}, fmt.Errorf("rewind osm input: %w", err)
		}
		scanner := open(pass)
		for scanner.Scan() {
			switch obj := scanner.Object().(type) {
			case *osm.Way:
				if pass == 0 {
					b.AddWay(obj)
				}
			case *osm.Node:
				if pass == 1 {
					b.AddNode(obj)
				}
			}
		}
		err := scanner.Err()
		scanner.Close()
		if err != nil {
			return nil, Stats{}, fmt.Errorf("scan osm (pass %d): %w", pass+1, err)
		}
		if err := ctx.Err(); err != nil {
			return nil, Stats{}, err
		}
	}

	edges, stats := b.Edges()
	return edges, stats, nil
}
