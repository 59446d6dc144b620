package journey

import "github.com/vanshika/railplanner/internal/domain"

// AssignSeats gives each of passengers a distinct seat from free.
//
// preferred[i], when set and still free, is kept for passenger i. Everyone
// else gets the next unused seat in free.Sorted() order. ok is false when
// free has fewer seats than passengers.
func AssignSeats(free domain.SeatSet, passengers int, preferred []domain.SeatID) ([]domain.SeatAssignment, bool) {
	if passengers <= 0 || len(free) < passengers {
		return nil, false
	}

	chosen := make([]domain.SeatID, passengers)
	taken := make(map[domain.SeatID]struct{}, passengers)

	for i := 0; i < passengers && i < len(preferred); i++ {
		pref := preferred[i]
		if pref == "" || !free.Has(pref) {
			continue
		}
		if _, dup := taken[pref]; dup {
			continue
		}
		chosen[i] = pref
		taken[pref] = struct{}{}
	}

	pool := free.Sorted()
	next := 0
	for i := range chosen {
		if chosen[i] != "" {
			continue
		}
		for next < len(pool) {
			if _, used := taken[pool[next]]; !used {
				break
			}
			next++
		}
		if next == len(pool) {
			return nil, false
		}
		chosen[i] = pool[next]
		taken[pool[next]] = struct{}{}
		next++
	}

	out := make([]domain.SeatAssignment, passengers)
	for i, seat := range chosen {
		out[i] = domain.SeatAssignment{PassengerIndex: i, SeatID: seat}
	}
	return out, true
}

// sharedSeats returns the seats free on both a and b.
func sharedSeats(a, b domain.SeatSet) domain.SeatSet {
	out := domain.NewSeatSet()
	for id := range a {
		if b.Has(id) {
			out[id] = struct{}{}
		}
	}
	return out
}

func seatsOf(assignments []domain.SeatAssignment, passengers int) []domain.SeatID {
	out := make([]domain.SeatID, passengers)
	for _, a := range assignments {
		if a.PassengerIndex >= 0 && a.PassengerIndex < passengers {
			out[a.PassengerIndex] = a.SeatID
		}
	}
	return out
}

// seatChanges lists every passenger who moves seats between consecutive
// segments of the same train.
func seatChanges(segments []domain.JourneySegmentAssignment) []domain.SeatChange {
	var out []domain.SeatChange
	for i := 1; i < len(segments); i++ {
		prev, cur := segments[i-1], segments[i]
		if prev.Segment.TrainID != cur.Segment.TrainID {
			continue
		}
		n := len(cur.SeatAssignments)
		before := seatsOf(prev.SeatAssignments, n)
		for p, after := range seatsOf(cur.SeatAssignments, n) {
			if before[p] == after {
				continue
			}
			out = append(out, domain.SeatChange{
				PassengerIndex: p,
				AtStationID:    cur.Segment.FromStationID,
				FromSeatID:     before[p],
				ToSeatID:       after,
			})
		}
	}
	return out
}
