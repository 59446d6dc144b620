package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/vanshika/railplanner/internal/domain"
)

// SegmentsFromStation lists segments leaving station at or after
// earliestEpochMs, ordered by departure then id.
func (s *Store) SegmentsFromStation(ctx context.Context, station domain.StationID, earliestEpochMs int64) ([]domain.TrainSegment, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, train_id, from_station, to_station, departure_ms, arrival_ms
		FROM rail_segments
		WHERE from_station = $1 AND departure_ms >= $2
		ORDER BY departure_ms, id`, string(station), earliestEpochMs)
	if err != nil {
		return nil, fmt.Errorf("postgres: segments from %s: %w", station, err)
	}
	defer rows.Close()

	out := []domain.TrainSegment{}
	for rows.Next() {
		var seg domain.TrainSegment
		var id, train, from, to string
		if err := rows.Scan(&id, &train, &from, &to, &seg.DepartureEpochMs, &seg.ArrivalEpochMs); err != nil {
			return nil, fmt.Errorf("postgres: scan segment: %w", err)
		}
		seg.ID = domain.SegmentID(id)
		seg.TrainID = domain.TrainID(train)
		seg.FromStationID = domain.StationID(from)
		seg.ToStationID = domain.StationID(to)
		out = append(out, seg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: rows segments: %w", err)
	}
	return out, nil
}

// AvailabilityForSegments returns the free seats of each requested segment.
// Segments without free seats are absent from the map.
func (s *Store) AvailabilityForSegments(ctx context.Context, ids []domain.SegmentID) (map[domain.SegmentID]domain.SegmentAvailability, error) {
	out := make(map[domain.SegmentID]domain.SegmentAvailability, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = string(id)
	}

	rows, err := s.db.Query(ctx, `
		SELECT segment_id, seat_id FROM rail_seats WHERE segment_id = ANY($1)`, keys)
	if err != nil {
		return nil, fmt.Errorf("postgres: availability: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var segmentID, seatID string
		if err := rows.Scan(&segmentID, &seatID); err != nil {
			return nil, fmt.Errorf("postgres: scan seat: %w", err)
		}
		key := domain.SegmentID(segmentID)
		entry, ok := out[key]
		if !ok {
			entry = domain.SegmentAvailability{SegmentID: key, AvailableSeatIDs: domain.NewSeatSet()}
		}
		entry.AvailableSeatIDs[domain.SeatID(seatID)] = struct{}{}
		out[key] = entry
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: rows seats: %w", err)
	}
	return out, nil
}

// UpsertSegments writes segments in one batch, replacing rows with the same id.
func (s *Store) UpsertSegments(ctx context.Context, segments []domain.TrainSegment) error {
	if len(segments) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, seg := range segments {
		batch.Queue(`
			INSERT INTO rail_segments (id, train_id, from_station, to_station, departure_ms, arrival_ms)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (id) DO UPDATE
			SET train_id = EXCLUDED.train_id,
			    from_station = EXCLUDED.from_station,
			    to_station = EXCLUDED.to_station,
			    departure_ms = EXCLUDED.departure_ms,
			    arrival_ms = EXCLUDED.arrival_ms`,
			string(seg.ID), string(seg.TrainID), string(seg.FromStationID), string(seg.ToStationID),
			seg.DepartureEpochMs, seg.ArrivalEpochMs)
	}
	return s.runBatch(ctx, batch, "segments")
}

// ReplaceAvailability swaps the free seats of each given segment in one
// transaction.
func (s *Store) ReplaceAvailability(ctx context.Context, entries []domain.SegmentAvailability) error {
	if len(entries) == 0 {
		return nil
	}
	return pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		for _, entry := range entries {
			if _, err := tx.Exec(ctx, `DELETE FROM rail_seats WHERE segment_id = $1`, string(entry.SegmentID)); err != nil {
				return fmt.Errorf("postgres: clear seats of %s: %w", entry.SegmentID, err)
			}
			rows := make([][]any, 0, len(entry.AvailableSeatIDs))
			for _, seat := range entry.AvailableSeatIDs.Sorted() {
				rows = append(rows, []any{string(entry.SegmentID), string(seat)})
			}
			if len(rows) == 0 {
				continue
			}
			if _, err := tx.CopyFrom(ctx, pgx.Identifier{"rail_seats"}, []string{"segment_id", "seat_id"}, pgx.CopyFromRows(rows)); err != nil {
				return fmt.Errorf("postgres: copy seats of %s: %w", entry.SegmentID, err)
			}
		}
		return nil
	})
}
