package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanshika/railplanner/internal/domain"
	"github.com/vanshika/railplanner/internal/journey"
	"github.com/vanshika/railplanner/internal/routing"
)

// openTestStore connects to RAILPLANNER_TEST_POSTGRES_DSN and recreates the
// schema. Tests are skipped when the variable is unset.
func openTestStore(t *testing.T, directed bool) *Store {
	t.Helper()
	dsn := os.Getenv("RAILPLANNER_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("RAILPLANNER_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	store, err := Open(ctx, dsn, 2, directed)
	require.NoError(t, err)
	t.Cleanup(store.Close)

	require.NoError(t, store.DropSchema(ctx))
	require.NoError(t, store.CreateSchema(ctx))
	return store
}

func w(v float64) *float64 { return &v }

func TestStore_GraphRoundTrip(t *testing.T) {
	store := openTestStore(t, true)
	ctx := context.Background()

	require.NoError(t, store.UpsertEdges(ctx, 0, []domain.Edge{
		{Source: "A", Target: "B", Weight: w(1)},
		{Source: "B", Target: "D", Weight: w(5)},
		{Source: "A", Target: "C", Weight: w(2)},
		{Source: "C", Target: "D", Weight: w(1)},
		{Source: "B", Target: "D", Weight: w(4)},
	}))

	got, err := store.OutgoingNeighbors(ctx, "B")
	require.NoError(t, err)
	assert.Equal(t, []domain.WeightedNeighbor{{NodeID: "D", Weight: 4}}, got)

	path, err := routing.Dijkstra(ctx, store, "A", "D", domain.TraversalOptions{})
	require.NoError(t, err)
	assert.Equal(t, []domain.NodeID{"A", "C", "D"}, path.Nodes)
	assert.Equal(t, 3.0, path.Cost)
}

func TestStore_UndirectedNeighbours(t *testing.T) {
	store := openTestStore(t, false)
	ctx := context.Background()

	require.NoError(t, store.UpsertEdges(ctx, 0, []domain.Edge{{Source: "A", Target: "B"}}))
	got, err := store.OutgoingNeighbors(ctx, "B")
	require.NoError(t, err)
	assert.Equal(t, []domain.WeightedNeighbor{{NodeID: "A", Weight: 1}}, got)
}

func TestStore_NeighbourOrderFollowsGlobalSeq(t *testing.T) {
	store := openTestStore(t, true)
	ctx := context.Background()

	// Later batch written first.
	require.NoError(t, store.UpsertEdges(ctx, 2, []domain.Edge{{Source: "A", Target: "B"}, {Source: "A", Target: "C"}}))
	require.NoError(t, store.UpsertEdges(ctx, 0, []domain.Edge{{Source: "A", Target: "D"}, {Source: "A", Target: "E"}}))

	got, err := store.OutgoingNeighbors(ctx, "A")
	require.NoError(t, err)
	ids := make([]domain.NodeID, len(got))
	for i, n := range got {
		ids[i] = n.NodeID
	}
	assert.Equal(t, []domain.NodeID{"D", "E", "B", "C"}, ids)
}

func TestStore_TimetableAndInventory(t *testing.T) {
	store := openTestStore(t, true)
	ctx := context.Background()

	segments := []domain.TrainSegment{
		{ID: "s2", TrainID: "T1", FromStationID: "B", ToStationID: "C", DepartureEpochMs: 3_900_000, ArrivalEpochMs: 7_200_000},
		{ID: "s1", TrainID: "T1", FromStationID: "A", ToStationID: "B", DepartureEpochMs: 0, ArrivalEpochMs: 3_600_000},
	}
	require.NoError(t, store.UpsertSegments(ctx, segments))
	require.NoError(t, store.ReplaceAvailability(ctx, []domain.SegmentAvailability{
		{SegmentID: "s1", AvailableSeatIDs: domain.NewSeatSet("1-1", "1-2")},
		{SegmentID: "s2", AvailableSeatIDs: domain.NewSeatSet("1-2")},
	}))

	from, err := store.SegmentsFromStation(ctx, "A", 0)
	require.NoError(t, err)
	require.Len(t, from, 1)
	assert.Equal(t, segments[1], from[0])

	avail, err := store.AvailabilityForSegments(ctx, []domain.SegmentID{"s1", "s2", "missing"})
	require.NoError(t, err)
	assert.Len(t, avail, 2)
	assert.True(t, avail["s1"].AvailableSeatIDs.Has("1-1"))

	plans, err := journey.Search(ctx, store, store, domain.JourneySearchOptions{Origin: "A", Destination: "C", Passengers: 1})
	require.NoError(t, err)
	require.Len(t, plans, 1)
	assert.Equal(t, domain.SeatID("1-2"), plans[0].Segments[0].SeatAssignments[0].SeatID)

	counts, err := store.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, Counts{Edges: 0, Segments: 2, Seats: 3}, counts)
}
