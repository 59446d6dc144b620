package generator

import "time"

// Config drives the synthetic network generator.
type Config struct {
	Stations          int
	Lines             int
	StopsPerLine      int
	DeparturesPerLine int
	HeadwayMinutes    int
	Wagons            int
	SeatsPerWagon     int
	Occupancy         float64
	SpeedKmh          float64
	Seed              int64
	ServiceStart      time.Time
}

// DefaultConfig returns a network that fits comfortably in memory and still
// produces changes and seat moves.
func DefaultConfig() Config {
	return Config{
		Stations:          24,
		Lines:             10,
		StopsPerLine:      6,
		DeparturesPerLine: 4,
		HeadwayMinutes:    120,
		Wagons:            4,
		SeatsPerWagon:     16,
		Occupancy:         0.6,
		SpeedKmh:          120,
		Seed:              42,
		ServiceStart:      time.Date(2024, 1, 1, 6, 0, 0, 0, time.UTC),
	}
}
