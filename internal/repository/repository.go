package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/vanshika/railplanner/internal/domain"
	"github.com/vanshika/railplanner/internal/graph"
)

// Repository reads and writes the rail network in Neo4j. Stations are
// (:Station {id}) nodes joined by [:LINK {weight, seq}] relationships for
// routing; timetable segments are (:Segment) nodes pointing at their
// departure and arrival stations and carrying their free seats.
type Repository struct {
	client   graph.Client
	directed bool
}

// New instantiates a Repository backed by the supplied graph client. When
// directed is false LINK relationships are followed both ways.
func New(client graph.Client, directed bool) *Repository {
	return &Repository{client: client, directed: directed}
}

// EnsureSchema creates the uniqueness constraints the upserts rely on.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaCypher {
		if _, err := r.client.ExecuteWrite(ctx, stmt, nil); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// OutgoingNeighbors returns the stations reachable over one LINK from node,
// in insertion order.
func (r *Repository) OutgoingNeighbors(ctx context.Context, node domain.NodeID) ([]domain.WeightedNeighbor, error) {
	query := outgoingCypher
	if !r.directed {
		query = outgoingUndirectedCypher
	}
	res, err := r.client.ExecuteRead(ctx, query, map[string]any{"node": string(node)})
	if err != nil {
		return nil, fmt.Errorf("neighbours of %s: %w", node, err)
	}

	out := make([]domain.WeightedNeighbor, 0, len(res.Records))
	for _, record := range res.Records {
		out = append(out, domain.WeightedNeighbor{
			NodeID: domain.NodeID(toString(record["target"])),
			Weight: toFloat64(record["weight"]),
		})
	}
	return out, nil
}

// SegmentsFromStation lists segments leaving station at or after
// earliestEpochMs, ordered by departure then id.
func (r *Repository) SegmentsFromStation(ctx context.Context, station domain.StationID, earliestEpochMs int64) ([]domain.TrainSegment, error) {
	res, err := r.client.ExecuteRead(ctx, segmentsFromStationCypher, map[string]any{
		"station":  string(station),
		"earliest": earliestEpochMs,
	})
	if err != nil {
		return nil, fmt.Errorf("segments from %s: %w", station, err)
	}

	out := make([]domain.TrainSegment, 0, len(res.Records))
	for _, record := range res.Records {
		out = append(out, domain.TrainSegment{
			ID:               domain.SegmentID(toString(record["id"])),
			TrainID:          domain.TrainID(toString(record["trainId"])),
			FromStationID:    domain.StationID(toString(record["from"])),
			ToStationID:      domain.StationID(toString(record["to"])),
			DepartureEpochMs: toInt64(record["departureMs"]),
			ArrivalEpochMs:   toInt64(record["arrivalMs"]),
		})
	}
	return out, nil
}

// AvailabilityForSegments returns the free seats of the requested segments.
// Unknown segments are absent from the map.
func (r *Repository) AvailabilityForSegments(ctx context.Context, ids []domain.SegmentID) (map[domain.SegmentID]domain.SegmentAvailability, error) {
	out := make(map[domain.SegmentID]domain.SegmentAvailability, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = string(id)
	}

	res, err := r.client.ExecuteRead(ctx, availabilityCypher, map[string]any{"ids": keys})
	if err != nil {
		return nil, fmt.Errorf("availability for %d segments: %w", len(ids), err)
	}
	for _, record := range res.Records {
		id := domain.SegmentID(toString(record["segmentId"]))
		seats := domain.NewSeatSet()
		for _, s := range toStringSlice(record["seats"]) {
			seats[domain.SeatID(s)] = struct{}{}
		}
		out[id] = domain.SegmentAvailability{SegmentID: id, AvailableSeatIDs: seats}
	}
	return out, nil
}

// UpsertEdges merges stations and LINK relationships. firstSeq is the
// position of edges[0] in the whole edge list, so batches written
// concurrently keep a global neighbour order. A repeated pair keeps the
// cheaper weight and its first seq.
func (r *Repository) UpsertEdges(ctx context.Context, firstSeq int64, edges []domain.Edge) error {
	if len(edges) == 0 {
		return nil
	}
	rows := make([]map[string]any, len(edges))
	for i, e := range edges {
		rows[i] = map[string]any{
			"source": string(e.Source),
			"target": string(e.Target),
			"weight": e.ResolvedWeight(),
			"seq":    firstSeq + int64(i),
		}
	}
	if _, err := r.client.ExecuteWrite(ctx, upsertEdgesCypher, map[string]any{"edges": rows}); err != nil {
		return fmt.Errorf("upsert %d edges: %w", len(edges), err)
	}
	return nil
}

// UpsertSegments merges segment nodes and their station relationships.
func (r *Repository) UpsertSegments(ctx context.Context, segments []domain.TrainSegment) error {
	if len(segments) == 0 {
		return nil
	}
	rows := make([]map[string]any, len(segments))
	for i, s := range segments {
		if s.ID == "" {
			return errors.New("segment id is required")
		}
		rows[i] = map[string]any{
			"id":          string(s.ID),
			"trainId":     string(s.TrainID),
			"from":        string(s.FromStationID),
			"to":          string(s.ToStationID),
			"departureMs": s.DepartureEpochMs,
			"arrivalMs":   s.ArrivalEpochMs,
		}
	}
	if _, err := r.client.ExecuteWrite(ctx, upsertSegmentsCypher, map[string]any{"segments": rows}); err != nil {
		return fmt.Errorf("upsert %d segments: %w", len(segments), err)
	}
	return nil
}

// ReplaceAvailability overwrites the free seats stored on each segment.
func (r *Repository) ReplaceAvailability(ctx context.Context, entries []domain.SegmentAvailability) error {
	if len(entries) == 0 {
		return nil
	}
	rows := make([]map[string]any, len(entries))
	for i, e := range entries {
		seats := make([]string, 0, len(e.AvailableSeatIDs))
		for _, s := range e.AvailableSeatIDs.Sorted() {
			seats = append(seats, string(s))
		}
		rows[i] = map[string]any{"segmentId": string(e.SegmentID), "seats": seats}
	}
	if _, err := r.client.ExecuteWrite(ctx, replaceAvailabilityCypher, map[string]any{"entries": rows}); err != nil {
		return fmt.Errorf("replace availability of %d segments: %w", len(entries), err)
	}
	return nil
}

func toString(val any) string {
	switch v := val.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	case []byte:
		return string(v)
	default:
		return ""
	}
}

func toFloat64(val any) float64 {
	switch v := val.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int64:
		return float64(v)
	case int:
		return float64(v)
	default:
		return 0
	}
}

func toInt64(val any) int64 {
	switch v := val.(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	default:
		return 0
	}
}

func toStringSlice(val any) []string {
	switch v := val.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s := toString(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

var schemaCypher = []string{
	`CREATE CONSTRAINT station_id IF NOT EXISTS FOR (s:Station) REQUIRE s.id IS UNIQUE`,
	`CREATE CONSTRAINT segment_id IF NOT EXISTS FOR (s:Segment) REQUIRE s.id IS UNIQUE`,
	`CREATE INDEX segment_departure IF NOT EXISTS FOR (s:Segment) ON (s.departureMs)`,
}

const outgoingCypher = `
MATCH (:Station {id: $node})-[l:LINK]->(t:Station)
RETURN t.id AS target, coalesce(l.weight, 1.0) AS weight
ORDER BY l.seq, t.id
`

const outgoingUndirectedCypher = `
MATCH (n:Station {id: $node})-[l:LINK]-(t:Station)
RETURN t.id AS target, coalesce(l.weight, 1.0) AS weight,
       CASE WHEN startNode(l) = n THEN 0 ELSE 1 END AS side
ORDER BY l.seq, side, t.id
`

const segmentsFromStationCypher = `
MATCH (from:Station {id: $station})<-[:DEPARTS_FROM]-(s:Segment)-[:ARRIVES_AT]->(to:Station)
WHERE s.departureMs >= $earliest
RETURN s.id AS id,
       s.trainId AS trainId,
       from.id AS from,
       to.id AS to,
       s.departureMs AS departureMs,
       s.arrivalMs AS arrivalMs
ORDER BY s.departureMs, s.id
`

const availabilityCypher = `
MATCH (s:Segment)
WHERE s.id IN $ids
RETURN s.id AS segmentId, coalesce(s.freeSeats, []) AS seats
`

const upsertEdgesCypher = `
UNWIND $edges AS e
MERGE (s:Station {id: e.source})
MERGE (t:Station {id: e.target})
MERGE (s)-[l:LINK]->(t)
ON CREATE SET l.weight = e.weight, l.seq = e.seq
ON MATCH SET l.weight = CASE WHEN e.weight < l.weight THEN e.weight ELSE l.weight END
`

const upsertSegmentsCypher = `
UNWIND $segments AS seg
MERGE (s:Segment {id: seg.id})
SET s.trainId = seg.trainId,
    s.departureMs = seg.departureMs,
    s.arrivalMs = seg.arrivalMs
MERGE (from:Station {id: seg.from})
MERGE (to:Station {id: seg.to})
WITH s, from, to
OPTIONAL MATCH (s)-[old:DEPARTS_FROM|ARRIVES_AT]->()
DELETE old
WITH DISTINCT s, from, to
MERGE (s)-[:DEPARTS_FROM]->(from)
MERGE (s)-[:ARRIVES_AT]->(to)
`

const replaceAvailabilityCypher = `
UNWIND $entries AS entry
MATCH (s:Segment {id: entry.segmentId})
SET s.freeSeats = entry.seats
`
