package repository

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/vanshika/railplanner/internal/domain"
	"github.com/vanshika/railplanner/internal/graph"
	"github.com/vanshika/railplanner/internal/routing"
)

func TestRepository_OutgoingNeighborsFeedsDijkstra(t *testing.T) {
	adjacency := map[string][]graph.Record{
		"A": {{"target": "B", "weight": 1.0}, {"target": "C", "weight": int64(2)}},
		"B": {{"target": "D", "weight": 5.0}},
		"C": {{"target": "D", "weight": 1.0}},
	}
	mem := graph.NewMemoryClient().OnRead(func(cypher string, params map[string]any) (graph.Result, error) {
		if cypher != outgoingCypher {
			t.Fatalf("unexpected query %s", cypher)
		}
		return graph.Result{Records: adjacency[params["node"].(string)]}, nil
	})
	repo := New(mem, true)

	path, err := routing.Dijkstra(context.Background(), repo, "A", "D", domain.TraversalOptions{})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got := len(path.Nodes); got != 3 || path.Nodes[1] != "C" || path.Cost != 3 {
		t.Fatalf("unexpected path %+v", path)
	}
	if calls := mem.ReadCalls(); len(calls) < 3 {
		t.Fatalf("expected one read per expanded node, got %d", len(calls))
	}
}

func TestRepository_UndirectedUsesBothDirections(t *testing.T) {
	mem := graph.NewMemoryClient()
	repo := New(mem, false)

	if _, err := repo.OutgoingNeighbors(context.Background(), "A"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	calls := mem.ReadCalls()
	if len(calls) != 1 || calls[0].Query != outgoingUndirectedCypher {
		t.Fatalf("expected undirected query, got %+v", calls)
	}
}

func TestRepository_SegmentsFromStation(t *testing.T) {
	mem := graph.NewMemoryClient().OnRead(func(string, map[string]any) (graph.Result, error) {
		return graph.Result{Records: []graph.Record{{
			"id": "s1", "trainId": "IC1", "from": "Kyiv", "to": "Lviv",
			"departureMs": int64(1000), "arrivalMs": int64(5000),
		}}}, nil
	})
	repo := New(mem, true)

	segs, err := repo.SegmentsFromStation(context.Background(), "Kyiv", 900)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	want := domain.TrainSegment{ID: "s1", TrainID: "IC1", FromStationID: "Kyiv", ToStationID: "Lviv", DepartureEpochMs: 1000, ArrivalEpochMs: 5000}
	if len(segs) != 1 || segs[0] != want {
		t.Fatalf("unexpected segments %+v", segs)
	}

	call := mem.ReadCalls()[0]
	if call.Params["station"] != "Kyiv" || call.Params["earliest"] != int64(900) {
		t.Fatalf("unexpected params %+v", call.Params)
	}
}

func TestRepository_AvailabilityForSegments(t *testing.T) {
	mem := graph.NewMemoryClient().OnRead(func(_ string, params map[string]any) (graph.Result, error) {
		ids := params["ids"].([]string)
		if len(ids) != 2 {
			t.Fatalf("expected two ids, got %v", ids)
		}
		return graph.Result{Records: []graph.Record{
			{"segmentId": "s1", "seats": []any{"1-1", "1-2"}},
			{"segmentId": "s2", "seats": []any{}},
		}}, nil
	})
	repo := New(mem, true)

	avail, err := repo.AvailabilityForSegments(context.Background(), []domain.SegmentID{"s1", "s2"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !avail["s1"].AvailableSeatIDs.Has("1-2") || len(avail["s2"].AvailableSeatIDs) != 0 {
		t.Fatalf("unexpected availability %+v", avail)
	}

	empty, err := repo.AvailabilityForSegments(context.Background(), nil)
	if err != nil || len(empty) != 0 {
		t.Fatalf("expected empty map without a query, got %v %v", empty, err)
	}
	if len(mem.ReadCalls()) != 1 {
		t.Fatalf("expected no query for empty ids")
	}
}

func TestRepository_Upserts(t *testing.T) {
	mem := graph.NewMemoryClient()
	repo := New(mem, true)
	ctx := context.Background()

	if err := repo.UpsertEdges(ctx, 0, []domain.Edge{{Source: "A", Target: "B"}}); err != nil {
		t.Fatalf("upsert edges: %v", err)
	}
	if err := repo.UpsertSegments(ctx, []domain.TrainSegment{{ID: "s1", TrainID: "T", FromStationID: "A", ToStationID: "B", DepartureEpochMs: 1, ArrivalEpochMs: 2}}); err != nil {
		t.Fatalf("upsert segments: %v", err)
	}
	if err := repo.ReplaceAvailability(ctx, []domain.SegmentAvailability{{SegmentID: "s1", AvailableSeatIDs: domain.NewSeatSet("1-10", "1-2")}}); err != nil {
		t.Fatalf("replace availability: %v", err)
	}

	calls := mem.WriteCalls()
	if len(calls) != 3 {
		t.Fatalf("expected 3 writes, got %d", len(calls))
	}

	edges := calls[0].Params["edges"].([]map[string]any)
	if edges[0]["weight"] != 1.0 || edges[0]["source"] != "A" {
		t.Fatalf("unexpected edge params %+v", edges[0])
	}
	segs := calls[1].Params["segments"].([]map[string]any)
	if segs[0]["departureMs"] != int64(1) || segs[0]["trainId"] != "T" {
		t.Fatalf("unexpected segment params %+v", segs[0])
	}
	entries := calls[2].Params["entries"].([]map[string]any)
	seats := entries[0]["seats"].([]string)
	if strings.Join(seats, ",") != "1-2,1-10" {
		t.Fatalf("expected naturally sorted seats, got %v", seats)
	}
}

func TestRepository_UpsertEdgesOffsetsSeq(t *testing.T) {
	mem := graph.NewMemoryClient()
	repo := New(mem, true)

	err := repo.UpsertEdges(context.Background(), 500, []domain.Edge{{Source: "A", Target: "B"}, {Source: "A", Target: "C"}})
	if err != nil {
		t.Fatalf("upsert edges: %v", err)
	}
	edges := mem.WriteCalls()[0].Params["edges"].([]map[string]any)
	if edges[0]["seq"] != int64(500) || edges[1]["seq"] != int64(501) {
		t.Fatalf("expected seqs 500 and 501, got %v and %v", edges[0]["seq"], edges[1]["seq"])
	}
}

func TestRepository_EnsureSchema(t *testing.T) {
	mem := graph.NewMemoryClient()
	if err := New(mem, true).EnsureSchema(context.Background()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got := len(mem.WriteCalls()); got != len(schemaCypher) {
		t.Fatalf("expected %d schema statements, got %d", len(schemaCypher), got)
	}
}

func TestRepository_PropagatesErrors(t *testing.T) {
	boom := errors.New("bolt unavailable")
	mem := graph.NewMemoryClient().
		OnRead(func(string, map[string]any) (graph.Result, error) { return graph.Result{}, boom }).
		OnWrite(func(string, map[string]any) (graph.Result, error) { return graph.Result{}, boom })
	repo := New(mem, true)
	ctx := context.Background()

	if _, err := repo.OutgoingNeighbors(ctx, "A"); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
	if _, err := repo.SegmentsFromStation(ctx, "A", 0); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
	if err := repo.UpsertEdges(ctx, 0, []domain.Edge{{Source: "A", Target: "B"}}); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
	if err := repo.UpsertSegments(ctx, []domain.TrainSegment{{}}); err == nil {
		t.Fatalf("expected error for missing segment id")
	}
}
