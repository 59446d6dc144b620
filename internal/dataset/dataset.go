// Package dataset reads and writes network files: routing edges, train
// segments and seat availability, in YAML or JSON.
package dataset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vanshika/railplanner/internal/domain"
	"github.com/vanshika/railplanner/internal/memstore"
)

// Format is a dataset file encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// Edge is a serialised graph edge. Weight defaults to 1 when omitted.
type Edge struct {
	Source string   `json:"source" yaml:"source"`
	Target string   `json:"target" yaml:"target"`
	Weight *float64 `json:"weight,omitempty" yaml:"weight,omitempty"`
}

// Segment is a serialised train segment.
type Segment struct {
	ID               string `json:"id" yaml:"id"`
	TrainID          string `json:"trainId" yaml:"trainId"`
	FromStationID    string `json:"fromStationId" yaml:"fromStationId"`
	ToStationID      string `json:"toStationId" yaml:"toStationId"`
	DepartureEpochMs int64  `json:"departureEpochMs" yaml:"departureEpochMs"`
	ArrivalEpochMs   int64  `json:"arrivalEpochMs" yaml:"arrivalEpochMs"`
}

// Availability lists the free seats of one segment.
type Availability struct {
	SegmentID        string   `json:"segmentId" yaml:"segmentId"`
	AvailableSeatIDs []string `json:"availableSeatIds" yaml:"availableSeatIds"`
}

// Dataset is the on-disk network description.
type Dataset struct {
	Directed     *bool          `json:"directed,omitempty" yaml:"directed,omitempty"`
	Edges        []Edge         `json:"edges,omitempty" yaml:"edges,omitempty"`
	Segments     []Segment      `json:"segments,omitempty" yaml:"segments,omitempty"`
	Availability []Availability `json:"availability,omitempty" yaml:"availability,omitempty"`
}

// FormatFromPath picks the encoding from the file extension; anything other
// than .json is treated as YAML.
func FormatFromPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// Load reads the dataset at path.
func Load(path string) (Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return Dataset{}, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	ds, err := Decode(f, FormatFromPath(path))
	if err != nil {
		return Dataset{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return ds, nil
}

// Decode parses a dataset from r.
func Decode(r io.Reader, format Format) (Dataset, error) {
	var ds Dataset
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&ds); err != nil {
			return Dataset{}, err
		}
	default:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&ds); err != nil && err != io.EOF {
			return Dataset{}, err
		}
	}
	return ds, nil
}

// Write stores ds at path, creating parent directories.
func Write(path string, ds Dataset) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	var buf bytes.Buffer
	if err := Encode(&buf, FormatFromPath(path), ds); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Encode serialises ds to w.
func Encode(w io.Writer, format Format, ds Dataset) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(ds); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
	default:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(ds); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
	}
	return nil
}

// IsDirected reports the file's directed flag, falling back when unset.
func (d Dataset) IsDirected(fallback bool) bool {
	if d.Directed == nil {
		return fallback
	}
	return *d.Directed
}

// DomainEdges converts the serialised edges.
func (d Dataset) DomainEdges() []domain.Edge {
	out := make([]domain.Edge, len(d.Edges))
	for i, e := range d.Edges {
		out[i] = domain.Edge{Source: domain.NodeID(e.Source), Target: domain.NodeID(e.Target), Weight: e.Weight}
	}
	return out
}

// DomainSegments converts and validates the serialised segments.
func (d Dataset) DomainSegments() ([]domain.TrainSegment, error) {
	out := make([]domain.TrainSegment, len(d.Segments))
	seen := make(map[string]struct{}, len(d.Segments))
	for i, s := range d.Segments {
		seg := domain.TrainSegment{
			ID:               domain.SegmentID(s.ID),
			TrainID:          domain.TrainID(s.TrainID),
			FromStationID:    domain.StationID(s.FromStationID),
			ToStationID:      domain.StationID(s.ToStationID),
			DepartureEpochMs: s.DepartureEpochMs,
			ArrivalEpochMs:   s.ArrivalEpochMs,
		}
		if err := seg.Validate(); err != nil {
			return nil, err
		}
		if _, dup := seen[s.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate segment id %s", domain.ErrInvalidSegment, s.ID)
		}
		seen[s.ID] = struct{}{}
		out[i] = seg
	}
	return out, nil
}

// DomainAvailability converts the serialised seat lists.
func (d Dataset) DomainAvailability() []domain.SegmentAvailability {
	out := make([]domain.SegmentAvailability, len(d.Availability))
	for i, a := range d.Availability {
		seats := domain.NewSeatSet()
		for _, id := range a.AvailableSeatIDs {
			seats[domain.SeatID(id)] = struct{}{}
		}
		out[i] = domain.SegmentAvailability{SegmentID: domain.SegmentID(a.SegmentID), AvailableSeatIDs: seats}
	}
	return out
}

// Stores holds the in-memory sources built from a dataset.
type Stores struct {
	Graph     *memstore.Graph
	Timetable *memstore.Timetable
	Inventory *memstore.Inventory
}

// Stores indexes the dataset into memory sources.
func (d Dataset) Stores(directed bool) (Stores, error) {
	segments, err := d.DomainSegments()
	if err != nil {
		return Stores{}, err
	}
	return Stores{
		Graph:     memstore.NewGraph(d.DomainEdges(), d.IsDirected(directed)),
		Timetable: memstore.NewTimetable(segments),
		Inventory: memstore.NewInventory(d.DomainAvailability()),
	}, nil
}

// FromDomain builds a dataset from domain values.
func FromDomain(edges []domain.Edge, segments []domain.TrainSegment, availability []domain.SegmentAvailability) Dataset {
	ds := Dataset{
		Edges:        make([]Edge, len(edges)),
		Segments:     make([]Segment, len(segments)),
		Availability: make([]Availability, len(availability)),
	}
	for i, e := range edges {
		ds.Edges[i] = Edge{Source: string(e.Source), Target: string(e.Target), Weight: e.Weight}
	}
	for i, s := range segments {
		ds.Segments[i] = Segment{
			ID:               string(s.ID),
			TrainID:          string(s.TrainID),
			FromStationID:    string(s.FromStationID),
			ToStationID:      string(s.ToStationID),
			DepartureEpochMs: s.DepartureEpochMs,
			ArrivalEpochMs:   s.ArrivalEpochMs,
		}
	}
	for i, a := range availability {
		seats := make([]string, 0, len(a.AvailableSeatIDs))
		for _, id := range a.AvailableSeatIDs.Sorted() {
			seats = append(seats, string(id))
		}
		ds.Availability[i] = Availability{SegmentID: string(a.SegmentID), AvailableSeatIDs: seats}
	}
	return ds
}
