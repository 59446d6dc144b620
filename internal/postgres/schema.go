package postgres

import (
	"context"
	"fmt"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS rail_edges (
    seq    BIGINT NOT NULL,
    source TEXT NOT NULL,
    target TEXT NOT NULL,
    weight DOUBLE PRECISION,
    PRIMARY KEY (source, target)
);

CREATE TABLE IF NOT EXISTS rail_segments (
    id           TEXT PRIMARY KEY,
    train_id     TEXT NOT NULL,
    from_station TEXT NOT NULL,
    to_station   TEXT NOT NULL,
    departure_ms BIGINT NOT NULL,
    arrival_ms   BIGINT NOT NULL,
    CHECK (departure_ms < arrival_ms)
);

CREATE TABLE IF NOT EXISTS rail_seats (
    segment_id TEXT NOT NULL REFERENCES rail_segments(id) ON DELETE CASCADE,
    seat_id    TEXT NOT NULL,
    PRIMARY KEY (segment_id, seat_id)
);

CREATE INDEX IF NOT EXISTS idx_rail_edges_target        ON rail_edges(target);
CREATE INDEX IF NOT EXISTS idx_rail_segments_departures ON rail_segments(from_station, departure_ms);
`

// CreateSchema creates the network tables if they don't exist.
func (s *Store) CreateSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("postgres: create schema: %w", err)
	}
	return nil
}

// DropSchema drops the network tables.
func (s *Store) DropSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, `DROP TABLE IF EXISTS rail_seats, rail_segments, rail_edges CASCADE;`); err != nil {
		return fmt.Errorf("postgres: drop schema: %w", err)
	}
	return nil
}
