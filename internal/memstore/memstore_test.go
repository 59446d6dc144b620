package memstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanshika/railplanner/internal/domain"
)

func weight(v float64) *float64 { return &v }

func TestGraph_DirectedAndUndirected(t *testing.T) {
	ctx := context.Background()
	edges := []domain.Edge{
		{Source: "A", Target: "B", Weight: weight(2)},
		{Source: "A", Target: "C"},
	}

	directed := NewGraph(edges, true)
	got, err := directed.OutgoingNeighbors(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, []domain.WeightedNeighbor{{NodeID: "B", Weight: 2}, {NodeID: "C", Weight: 1}}, got)

	got, err = directed.OutgoingNeighbors(ctx, "B")
	require.NoError(t, err)
	assert.Empty(t, got)

	undirected := NewGraph(edges, false)
	got, err = undirected.OutgoingNeighbors(ctx, "B")
	require.NoError(t, err)
	assert.Equal(t, []domain.WeightedNeighbor{{NodeID: "A", Weight: 2}}, got)

	nodes, err := undirected.NodeIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.NodeID{"A", "B", "C"}, nodes)
}

func TestGraph_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	g := NewGraph([]domain.Edge{{Source: "A", Target: "B"}}, true)

	got, err := g.OutgoingNeighbors(ctx, "A")
	require.NoError(t, err)
	got[0].NodeID = "Z"

	again, err := g.OutgoingNeighbors(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, domain.NodeID("B"), again[0].NodeID)
}

func TestTimetable_SegmentsFromStation(t *testing.T) {
	ctx := context.Background()
	tt := NewTimetable([]domain.TrainSegment{
		{ID: "late", TrainID: "T2", FromStationID: "A", ToStationID: "B", DepartureEpochMs: 300, ArrivalEpochMs: 400},
		{ID: "b", TrainID: "T1", FromStationID: "A", ToStationID: "B", DepartureEpochMs: 100, ArrivalEpochMs: 200},
		{ID: "a", TrainID: "T3", FromStationID: "A", ToStationID: "C", DepartureEpochMs: 100, ArrivalEpochMs: 250},
		{ID: "other", TrainID: "T1", FromStationID: "B", ToStationID: "C", DepartureEpochMs: 200, ArrivalEpochMs: 300},
	})

	got, err := tt.SegmentsFromStation(ctx, "A", 0)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []domain.SegmentID{"a", "b", "late"}, []domain.SegmentID{got[0].ID, got[1].ID, got[2].ID})

	got, err = tt.SegmentsFromStation(ctx, "A", 100)
	require.NoError(t, err)
	assert.Len(t, got, 3, "departures at the earliest instant are included")

	got, err = tt.SegmentsFromStation(ctx, "A", 101)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, domain.SegmentID("late"), got[0].ID)

	got, err = tt.SegmentsFromStation(ctx, "Z", 0)
	require.NoError(t, err)
	assert.Empty(t, got)

	byID, err := tt.SegmentsByIDs(ctx, []domain.SegmentID{"other", "missing", "a"})
	require.NoError(t, err)
	require.Len(t, byID, 2)
	assert.Equal(t, domain.SegmentID("other"), byID[0].ID)
	assert.Equal(t, domain.SegmentID("a"), byID[1].ID)
}

func TestInventory_CopiesAndOmitsUnknown(t *testing.T) {
	ctx := context.Background()
	source := domain.NewSeatSet("1-1", "1-2")
	inv := NewInventory([]domain.SegmentAvailability{{SegmentID: "s1", AvailableSeatIDs: source}})
	delete(source, "1-2")

	got, err := inv.AvailabilityForSegments(ctx, []domain.SegmentID{"s1", "s2"})
	require.NoError(t, err)
	require.Contains(t, got, domain.SegmentID("s1"))
	assert.NotContains(t, got, domain.SegmentID("s2"))
	assert.Equal(t, []domain.SeatID{"1-1", "1-2"}, got["s1"].AvailableSeatIDs.Sorted())

	delete(got["s1"].AvailableSeatIDs, "1-1")
	again, err := inv.AvailabilityForSegments(ctx, []domain.SegmentID{"s1"})
	require.NoError(t, err)
	assert.True(t, again["s1"].AvailableSeatIDs.Has("1-1"))
}
