package domain

import (
	"fmt"
	"sort"
	"strings"
)

type (
	StationID string
	TrainID   string
	SegmentID string
	SeatID    string
)

// TrainSegment is one hop of a train between two consecutive stations.
type TrainSegment struct {
	ID               SegmentID
	TrainID          TrainID
	FromStationID    StationID
	ToStationID      StationID
	DepartureEpochMs int64
	ArrivalEpochMs   int64
}

// Validate checks the structural invariants of a segment.
func (s TrainSegment) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("%w: segment id is required", ErrInvalidSegment)
	}
	if s.TrainID == "" || s.FromStationID == "" || s.ToStationID == "" {
		return fmt.Errorf("%w: segment %s needs train, from and to", ErrInvalidSegment, s.ID)
	}
	if s.DepartureEpochMs >= s.ArrivalEpochMs {
		return fmt.Errorf("%w: segment %s departs at or after it arrives", ErrInvalidSegment, s.ID)
	}
	return nil
}

// SeatSet is a set of free seat ids.
type SeatSet map[SeatID]struct{}

// NewSeatSet builds a set from the given seat ids.
func NewSeatSet(ids ...SeatID) SeatSet {
	s := make(SeatSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has reports membership. Safe on a nil set.
func (s SeatSet) Has(id SeatID) bool {
	_, ok := s[id]
	return ok
}

// Clone returns an independent copy.
func (s SeatSet) Clone() SeatSet {
	out := make(SeatSet, len(s))
	for id := range s {
		out[id] = struct{}{}
	}
	return out
}

// Sorted returns the seat ids in natural order ("1-2" before "1-10").
func (s SeatSet) Sorted() []SeatID {
	out := make([]SeatID, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool {
		return naturalLess(string(out[i]), string(out[j]))
	})
	return out
}

// SegmentAvailability is a point-in-time snapshot of free seats on a segment.
// No reservation is held.
type SegmentAvailability struct {
	SegmentID        SegmentID
	AvailableSeatIDs SeatSet
}

// SeatAssignment binds a passenger to a seat.
type SeatAssignment struct {
	PassengerIndex int
	SeatID         SeatID
}

// JourneySegmentAssignment carries one seat per passenger, indexed 0..n-1.
type JourneySegmentAssignment struct {
	Segment         TrainSegment
	SeatAssignments []SeatAssignment
}

// SeatChange records a passenger moving seats between consecutive segments
// of the same train.
type SeatChange struct {
	PassengerIndex int
	AtStationID    StationID
	FromSeatID     SeatID
	ToSeatID       SeatID
}

// JourneyPlan is a complete itinerary from origin to destination.
type JourneyPlan struct {
	Segments             []JourneySegmentAssignment
	TotalDurationMinutes int
	NumberOfChanges      int
	SeatChanges          []SeatChange
}

const (
	DefaultMinTransferMinutes = 2
	DefaultMaxResults         = 5
)

// JourneySearchOptions parameterises a journey search.
type JourneySearchOptions struct {
	Origin                   StationID
	Destination              StationID
	EarliestDepartureEpochMs int64
	Passengers               int
	// MinTransferMinutes defaults to DefaultMinTransferMinutes when nil.
	MinTransferMinutes *int
	// MaxResults defaults to DefaultMaxResults when zero.
	MaxResults int
}

// TransferMinutes resolves the transfer buffer.
func (o JourneySearchOptions) TransferMinutes() int {
	if o.MinTransferMinutes == nil {
		return DefaultMinTransferMinutes
	}
	return *o.MinTransferMinutes
}

// ResultLimit resolves the maximum number of plans.
func (o JourneySearchOptions) ResultLimit() int {
	if o.MaxResults <= 0 {
		return DefaultMaxResults
	}
	return o.MaxResults
}

// Validate rejects options that cannot describe a search.
func (o JourneySearchOptions) Validate() error {
	if o.Origin == "" || o.Destination == "" {
		return fmt.Errorf("%w: origin and destination are required", ErrMissingEndpoint)
	}
	if o.Origin == o.Destination {
		return ErrSameOriginDestination
	}
	if o.Passengers <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidPassengers, o.Passengers)
	}
	if o.MinTransferMinutes != nil && *o.MinTransferMinutes < 0 {
		return fmt.Errorf("%w: minTransferMinutes must not be negative", ErrInvalidInput)
	}
	if o.MaxResults < 0 {
		return fmt.Errorf("%w: maxResults must not be negative", ErrInvalidInput)
	}
	return nil
}

// naturalLess orders digit runs by value. Ids that only differ in leading
// zeros ("1-2", "1-02") fall back to byte order so the order stays total.
func naturalLess(a, b string) bool {
	if c := naturalCompare(a, b); c != 0 {
		return c < 0
	}
	return a < b
}

func naturalCompare(a, b string) int {
	for a != "" && b != "" {
		ca, restA := chunk(a)
		cb, restB := chunk(b)
		if ca != cb {
			if isDigits(ca) && isDigits(cb) {
				ta, tb := trimZeros(ca), trimZeros(cb)
				if len(ta) != len(tb) {
					return cmpInt(len(ta), len(tb))
				}
				if ta != tb {
					return strings.Compare(ta, tb)
				}
			} else {
				return strings.Compare(ca, cb)
			}
		}
		a, b = restA, restB
	}
	return cmpInt(len(a), len(b))
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func chunk(s string) (string, string) {
	digit := isDigit(s[0])
	i := 1
	for i < len(s) && isDigit(s[i]) == digit {
		i++
	}
	return s[:i], s[i:]
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isDigits(s string) bool {
	return s != "" && isDigit(s[0])
}

func trimZeros(s string) string {
	for len(s) > 1 && s[0] == '0' {
		s = s[1:]
	}
	return s
}
