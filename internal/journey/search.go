// Package journey plans multi-segment train journeys with seat assignments.
//
// The search is best-first over time-expanded states: a state is a station,
// the time the traveller is there, the segments and seats taken so far and the
// train last ridden. States are never modified after they are queued; every
// expansion builds a new one. Priority is the elapsed journey time plus a
// ten minute penalty per change of train, so itineraries with fewer changes
// rank ahead of marginally faster ones.
//
// Availability is read as a snapshot; nothing is reserved.
package journey

import (
	"context"
	"fmt"
	"math"

	"github.com/vanshika/railplanner/internal/domain"
	"github.com/vanshika/railplanner/internal/frontier"
)

// ChangePenaltyMs is added to a state's priority for every train change.
const ChangePenaltyMs int64 = 10 * 60_000

const minuteMs = 60_000

// TimetableSource lists segments leaving a station, sorted by departure.
type TimetableSource interface {
	SegmentsFromStation(ctx context.Context, station domain.StationID, earliestEpochMs int64) ([]domain.TrainSegment, error)
}

// InventorySource reports free seats per segment. A segment missing from the
// result has no free seats.
type InventorySource interface {
	AvailabilityForSegments(ctx context.Context, ids []domain.SegmentID) (map[domain.SegmentID]domain.SegmentAvailability, error)
}

// Stats describes the work done by one search.
type Stats struct {
	Expansions   int
	StatesQueued int
	Pruned       int
	Exhausted    bool
	BudgetHit    bool
}

type searchConfig struct {
	maxExpansions int
	stats         *Stats
}

// Option tunes a search.
type Option func(*searchConfig)

// WithMaxExpansions stops the search after n frontier pops. Zero means no limit.
func WithMaxExpansions(n int) Option {
	return func(c *searchConfig) {
		if n > 0 {
			c.maxExpansions = n
		}
	}
}

// WithStats fills s when the search returns.
func WithStats(s *Stats) Option {
	return func(c *searchConfig) {
		c.stats = s
	}
}

type state struct {
	station     domain.StationID
	timeMs      int64
	legs        []domain.JourneySegmentAssignment
	used        map[domain.SegmentID]struct{}
	lastTrain   domain.TrainID
	changes     int
	departureMs int64
}

func (s *state) priority() int64 {
	return (s.timeMs - s.departureMs) + int64(s.changes)*ChangePenaltyMs
}

func (s *state) lastLeg() domain.JourneySegmentAssignment {
	return s.legs[len(s.legs)-1]
}

// extend returns a new state that rides seg with the given seats. When
// prevSeats is non-nil it replaces the seats of the last leg.
func (s *state) extend(seg domain.TrainSegment, seats, prevSeats []domain.SeatAssignment, changes int) *state {
	legs := make([]domain.JourneySegmentAssignment, len(s.legs), len(s.legs)+1)
	copy(legs, s.legs)
	if prevSeats != nil {
		legs[len(legs)-1] = domain.JourneySegmentAssignment{Segment: legs[len(legs)-1].Segment, SeatAssignments: prevSeats}
	}
	legs = append(legs, domain.JourneySegmentAssignment{Segment: seg, SeatAssignments: seats})

	used := make(map[domain.SegmentID]struct{}, len(s.used)+1)
	for id := range s.used {
		used[id] = struct{}{}
	}
	used[seg.ID] = struct{}{}

	return &state{
		station:     seg.ToStationID,
		timeMs:      seg.ArrivalEpochMs,
		legs:        legs,
		used:        used,
		lastTrain:   seg.TrainID,
		changes:     changes,
		departureMs: s.departureMs,
	}
}

func (s *state) plan() domain.JourneyPlan {
	return domain.JourneyPlan{
		Segments:             s.legs,
		TotalDurationMinutes: int(math.Round(float64(s.timeMs-s.departureMs) / minuteMs)),
		NumberOfChanges:      s.changes,
		SeatChanges:          seatChanges(s.legs),
	}
}

// Search returns up to opts.ResultLimit() journeys from opts.Origin to
// opts.Destination in ascending priority order.
//
// A different train may only be boarded opts.TransferMinutes() after
// arriving; staying on the same train needs no buffer. Segments without
// enough free seats for every passenger are pruned. On context cancellation
// the plans found so far are returned together with the context error.
func Search(ctx context.Context, timetable TimetableSource, inventory InventorySource, opts domain.JourneySearchOptions, options ...Option) ([]domain.JourneyPlan, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	cfg := searchConfig{}
	for _, o := range options {
		o(&cfg)
	}
	stats := &Stats{}
	if cfg.stats != nil {
		stats = cfg.stats
		*stats = Stats{}
	}

	limit := opts.ResultLimit()
	transferMs := int64(opts.TransferMinutes()) * minuteMs
	pq := frontier.New[int64, *state]()
	results := []domain.JourneyPlan{}

	initial, err := timetable.SegmentsFromStation(ctx, opts.Origin, opts.EarliestDepartureEpochMs)
	if err != nil {
		return nil, fmt.Errorf("segments from %s: %w", opts.Origin, err)
	}
	avail, err := fetchAvailability(ctx, inventory, idsOf(initial))
	if err != nil {
		return nil, err
	}
	for _, seg := range initial {
		seats, ok := AssignSeats(avail[seg.ID].AvailableSeatIDs, opts.Passengers, nil)
		if !ok {
			stats.Pruned++
			continue
		}
		root := &state{
			station:     seg.ToStationID,
			timeMs:      seg.ArrivalEpochMs,
			legs:        []domain.JourneySegmentAssignment{{Segment: seg, SeatAssignments: seats}},
			used:        map[domain.SegmentID]struct{}{seg.ID: {}},
			lastTrain:   seg.TrainID,
			departureMs: seg.DepartureEpochMs,
		}
		pq.Push(root.priority(), root)
		stats.StatesQueued++
	}

	for len(results) < limit {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		if cfg.maxExpansions > 0 && stats.Expansions >= cfg.maxExpansions {
			stats.BudgetHit = true
			return results, nil
		}
		_, cur, ok := pq.Pop()
		if !ok {
			stats.Exhausted = true
			break
		}
		stats.Expansions++

		if cur.station == opts.Destination {
			results = append(results, cur.plan())
			continue
		}

		if err := expand(ctx, timetable, inventory, cur, opts.Passengers, transferMs, pq, stats); err != nil {
			return results, err
		}
	}

	return results, nil
}

func expand(ctx context.Context, timetable TimetableSource, inventory InventorySource, cur *state, passengers int, transferMs int64, pq *frontier.Frontier[int64, *state], stats *Stats) error {
	candidates, err := timetable.SegmentsFromStation(ctx, cur.station, cur.timeMs)
	if err != nil {
		return fmt.Errorf("segments from %s: %w", cur.station, err)
	}

	var eligible []domain.TrainSegment
	for _, seg := range candidates {
		if _, seen := cur.used[seg.ID]; seen {
			continue
		}
		if seg.TrainID != cur.lastTrain && seg.DepartureEpochMs < cur.timeMs+transferMs {
			continue
		}
		eligible = append(eligible, seg)
	}
	if len(eligible) == 0 {
		return nil
	}

	prev := cur.lastLeg()
	ids := append(idsOf(eligible), prev.Segment.ID)
	avail, err := fetchAvailability(ctx, inventory, ids)
	if err != nil {
		return err
	}

	for _, seg := range eligible {
		free := avail[seg.ID].AvailableSeatIDs

		var next *state
		if seg.TrainID == cur.lastTrain {
			next = continueTrain(cur, prev, seg, avail[prev.Segment.ID].AvailableSeatIDs, free, passengers)
		} else if seats, ok := AssignSeats(free, passengers, nil); ok {
			next = cur.extend(seg, seats, nil, cur.changes+1)
		}

		if next == nil {
			stats.Pruned++
			continue
		}
		pq.Push(next.priority(), next)
		stats.StatesQueued++
	}
	return nil
}

// continueTrain stays aboard the current train. If enough seats are free on
// both the previous and the next segment, the previous leg is moved onto
// those seats so nobody changes seat. Otherwise passengers keep their seat
// where it is still free and the rest are moved.
func continueTrain(cur *state, prev domain.JourneySegmentAssignment, seg domain.TrainSegment, prevFree, nextFree domain.SeatSet, passengers int) *state {
	held := seatsOf(prev.SeatAssignments, passengers)

	both := sharedSeats(prevFree, nextFree)
	if len(both) >= passengers {
		seats, ok := AssignSeats(both, passengers, held)
		if ok {
			prevSeats := make([]domain.SeatAssignment, len(seats))
			copy(prevSeats, seats)
			return cur.extend(seg, seats, prevSeats, cur.changes)
		}
	}

	seats, ok := AssignSeats(nextFree, passengers, held)
	if !ok {
		return nil
	}
	return cur.extend(seg, seats, nil, cur.changes)
}

func fetchAvailability(ctx context.Context, inventory InventorySource, ids []domain.SegmentID) (map[domain.SegmentID]domain.SegmentAvailability, error) {
	if len(ids) == 0 {
		return map[domain.SegmentID]domain.SegmentAvailability{}, nil
	}
	avail, err := inventory.AvailabilityForSegments(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("availability for %d segments: %w", len(ids), err)
	}
	if avail == nil {
		avail = map[domain.SegmentID]domain.SegmentAvailability{}
	}
	return avail, nil
}

func idsOf(segments []domain.TrainSegment) []domain.SegmentID {
	ids := make([]domain.SegmentID, len(segments))
	for i, s := range segments {
		ids[i] = s.ID
	}
	return ids
}
