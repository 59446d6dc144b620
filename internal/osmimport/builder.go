// Package osmimport turns OpenStreetMap railway ways into weighted routing
// edges. Edge weights are track lengths in metres between junctions.
package osmimport

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/osm"

	"github.com/vanshika/railplanner/internal/domain"
)

// Options selects which ways are imported.
type Options struct {
	// Railways lists accepted values of the railway=* tag.
	Railways []string
	// Workers is the decoder concurrency for PBF input.
	Workers int
}

// DefaultOptions accepts mainline, light rail and narrow gauge track.
func DefaultOptions() Options {
	return Options{Railways: []string{"rail", "light_rail", "narrow_gauge"}, Workers: 4}
}

// Stats describes an import.
type Stats struct {
	Ways        int
	Junctions   int
	Edges       int
	SkippedWays int
}

type way struct {
	nodes  []osm.NodeID
	oneway bool
}

// Builder collects railway ways and the coordinates of their nodes, then
// splits the ways at junctions. Ways must be added before nodes.
type Builder struct {
	accept map[string]bool
	ways   []way
	refs   map[osm.NodeID]int
	coords map[osm.NodeID]orb.Point
	names  map[osm.NodeID]string
}

// NewBuilder returns an empty builder.
func NewBuilder(opts Options) *Builder {
	accept := make(map[string]bool, len(opts.Railways))
	for _, r := range opts.Railways {
		accept[r] = true
	}
	return &Builder{
		accept: accept,
		refs:   make(map[osm.NodeID]int),
		coords: make(map[osm.NodeID]orb.Point),
		names:  make(map[osm.NodeID]string),
	}
}

// AddWay records w if it is accepted track. Endpoints are counted twice so
// that they always become junctions.
func (b *Builder) AddWay(w *osm.Way) bool {
	if !b.accept[w.Tags.Find("railway")] || len(w.Nodes) < 2 {
		return false
	}
	ids := w.Nodes.NodeIDs()
	for _, id := range ids {
		b.refs[id]++
	}
	b.refs[ids[0]]++
	b.refs[ids[len(ids)-1]]++

	oneway := w.Tags.Find("oneway")
	b.ways = append(b.ways, way{nodes: ids, oneway: oneway == "yes" || oneway == "1" || oneway == "true"})
	return true
}

// Wants reports whether id belongs to an accepted way.
func (b *Builder) Wants(id osm.NodeID) bool {
	_, ok := b.refs[id]
	return ok
}

// AddNode stores the position of a wanted node. Named stations keep their
// name as node id.
func (b *Builder) AddNode(n *osm.Node) {
	if !b.Wants(n.ID) {
		return
	}
	b.coords[n.ID] = orb.Point{n.Lon, n.Lat}
	if n.Tags.Find("railway") == "station" {
		if name := n.Tags.Find("name"); name != "" {
			b.names[n.ID] = name
		}
	}
}

// Edges splits every way at its junctions and returns one edge per stretch,
// plus the reverse stretch unless the way is one-way.
func (b *Builder) Edges() ([]domain.Edge, Stats) {
	stats := Stats{Ways: len(b.ways)}
	junctions := map[osm.NodeID]struct{}{}
	var out []domain.Edge

	for _, w := range b.ways {
		if !b.hasCoords(w) {
			stats.SkippedWays++
			continue
		}
		start := w.nodes[0]
		metres := 0.0
		for i := 1; i < len(w.nodes); i++ {
			metres += geo.Distance(b.coords[w.nodes[i-1]], b.coords[w.nodes[i]])
			cur := w.nodes[i]
			if b.refs[cur] < 2 {
				continue
			}
			weight := math.Round(metres*10) / 10
			from, to := b.nodeID(start), b.nodeID(cur)
			out = append(out, domain.Edge{Source: from, Target: to, Weight: &weight})
			if !w.oneway {
				back := weight
				out = append(out, domain.Edge{Source: to, Target: from, Weight: &back})
			}
			junctions[start] = struct{}{}
			junctions[cur] = struct{}{}
			start, metres = cur, 0
		}
	}

	stats.Junctions = len(junctions)
	stats.Edges = len(out)
	return out, stats
}

func (b *Builder) hasCoords(w way) bool {
	for _, id := range w.nodes {
		if _, ok := b.coords[id]; !ok {
			return false
		}
	}
	return true
}

func (b *Builder) nodeID(id osm.NodeID) domain.NodeID {
	if name, ok := b.names[id]; ok {
		return domain.NodeID(name)
	}
	return domain.NodeID(fmt.Sprintf("osm:%d", id))
}
