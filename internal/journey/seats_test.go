package journey

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanshika/railplanner/internal/domain"
)

func TestAssignSeats_FillsInNaturalOrder(t *testing.T) {
	free := domain.NewSeatSet("1-10", "1-2", "2-1")
	got, ok := AssignSeats(free, 2, nil)
	require.True(t, ok)
	assert.Equal(t, []domain.SeatAssignment{{PassengerIndex: 0, SeatID: "1-2"}, {PassengerIndex: 1, SeatID: "1-10"}}, got)
}

func TestAssignSeats_HonoursPreferredSeats(t *testing.T) {
	free := domain.NewSeatSet("A", "B", "C", "D")
	got, ok := AssignSeats(free, 3, []domain.SeatID{"D", "Z", "B"})
	require.True(t, ok)
	assert.Equal(t, []domain.SeatAssignment{{PassengerIndex: 0, SeatID: "D"}, {PassengerIndex: 1, SeatID: "A"}, {PassengerIndex: 2, SeatID: "B"}}, got)
}

func TestAssignSeats_DuplicatePreferenceIsFilledElsewhere(t *testing.T) {
	free := domain.NewSeatSet("A", "B")
	got, ok := AssignSeats(free, 2, []domain.SeatID{"B", "B"})
	require.True(t, ok)
	assert.Equal(t, []domain.SeatAssignment{{PassengerIndex: 0, SeatID: "B"}, {PassengerIndex: 1, SeatID: "A"}}, got)
}

func TestAssignSeats_NotEnoughSeats(t *testing.T) {
	_, ok := AssignSeats(domain.NewSeatSet("A"), 2, nil)
	assert.False(t, ok)

	_, ok = AssignSeats(nil, 1, nil)
	assert.False(t, ok)
}

func TestSeatChanges_OnlyWithinSameTrain(t *testing.T) {
	legs := []domain.JourneySegmentAssignment{
		{Segment: domain.TrainSegment{ID: "1", TrainID: "T1", FromStationID: "A", ToStationID: "B"}, SeatAssignments: []domain.SeatAssignment{{PassengerIndex: 0, SeatID: "x"}}},
		{Segment: domain.TrainSegment{ID: "2", TrainID: "T2", FromStationID: "B", ToStationID: "C"}, SeatAssignments: []domain.SeatAssignment{{PassengerIndex: 0, SeatID: "y"}}},
		{Segment: domain.TrainSegment{ID: "3", TrainID: "T2", FromStationID: "C", ToStationID: "D"}, SeatAssignments: []domain.SeatAssignment{{PassengerIndex: 0, SeatID: "z"}}},
	}
	assert.Equal(t, []domain.SeatChange{{PassengerIndex: 0, AtStationID: "C", FromSeatID: "y", ToSeatID: "z"}}, seatChanges(legs))
}

func TestAssignSeats_ZeroPaddedIDsAreDeterministic(t *testing.T) {
	for i := 0; i < 50; i++ {
		got, ok := AssignSeats(domain.NewSeatSet("1-02", "1-2", "1-002"), 1, nil)
		require.True(t, ok)
		assert.Equal(t, domain.SeatID("1-002"), got[0].SeatID)
	}
}
