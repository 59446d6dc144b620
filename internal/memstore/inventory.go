package memstore

import (
	"context"

	"github.com/vanshika/railplanner/internal/domain"
)

// Inventory holds a fixed snapshot of free seats per segment.
type Inventory struct {
	bySegment map[domain.SegmentID]domain.SeatSet
}

// NewInventory copies entries. A later entry for the same segment replaces an earlier one.
func NewInventory(entries []domain.SegmentAvailability) *Inventory {
	inv := &Inventory{bySegment: make(map[domain.SegmentID]domain.SeatSet, len(entries))}
	for _, e := range entries {
		inv.bySegment[e.SegmentID] = e.AvailableSeatIDs.Clone()
	}
	return inv
}

// AvailabilityForSegments returns a copy of the availability for each known
// segment. Unknown segments are absent from the result.
func (inv *Inventory) AvailabilityForSegments(_ context.Context, ids []domain.SegmentID) (map[domain.SegmentID]domain.SegmentAvailability, error) {
	out := make(map[domain.SegmentID]domain.SegmentAvailability, len(ids))
	for _, id := range ids {
		seats, ok := inv.bySegment[id]
		if !ok {
			continue
		}
		out[id] = domain.SegmentAvailability{SegmentID: id, AvailableSeatIDs: seats.Clone()}
	}
	return out, nil
}
