package memstore

import (
	"context"
	"sort"

	"github.com/vanshika/railplanner/internal/domain"
)

// Timetable indexes train segments by origin station, sorted by departure.
type Timetable struct {
	byID     map[domain.SegmentID]domain.TrainSegment
	byOrigin map[domain.StationID][]domain.TrainSegment
}

// NewTimetable indexes segments. Segments sharing a departure time are
// ordered by id.
func NewTimetable(segments []domain.TrainSegment) *Timetable {
	t := &Timetable{
		byID:     make(map[domain.SegmentID]domain.TrainSegment, len(segments)),
		byOrigin: make(map[domain.StationID][]domain.TrainSegment),
	}
	for _, s := range segments {
		t.byID[s.ID] = s
		t.byOrigin[s.FromStationID] = append(t.byOrigin[s.FromStationID], s)
	}
	for _, list := range t.byOrigin {
		sort.SliceStable(list, func(i, j int) bool {
			if list[i].DepartureEpochMs != list[j].DepartureEpochMs {
				return list[i].DepartureEpochMs < list[j].DepartureEpochMs
			}
			return list[i].ID < list[j].ID
		})
	}
	return t
}

// SegmentsFromStation returns segments leaving station at or after earliestEpochMs.
func (t *Timetable) SegmentsFromStation(_ context.Context, station domain.StationID, earliestEpochMs int64) ([]domain.TrainSegment, error) {
	list := t.byOrigin[station]
	idx := sort.Search(len(list), func(i int) bool {
		return list[i].DepartureEpochMs >= earliestEpochMs
	})
	return append([]domain.TrainSegment(nil), list[idx:]...), nil
}

// SegmentsByIDs returns the known segments among ids, in the order requested.
func (t *Timetable) SegmentsByIDs(_ context.Context, ids []domain.SegmentID) ([]domain.TrainSegment, error) {
	out := make([]domain.TrainSegment, 0, len(ids))
	for _, id := range ids {
		if s, ok := t.byID[id]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}
