// Package postgres stores the routing graph, timetable and seat inventory in
// PostgreSQL via pgx. A Store satisfies the routing and journey source
// interfaces as well as the bulk ingestion sink.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is a pgx-backed network store.
type Store struct {
	db       *pgxpool.Pool
	directed bool
}

// New wraps an existing pool. When directed is false every stored edge is
// also traversable in reverse.
func New(db *pgxpool.Pool, directed bool) *Store {
	return &Store{db: db, directed: directed}
}

// Open parses dsn, connects a pool and verifies it with a ping.
func Open(ctx context.Context, dsn string, maxConns int32, directed bool) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse dsn: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return New(pool, directed), nil
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close releases the pool.
func (s *Store) Close() {
	s.db.Close()
}

// Counts reports how many rows each table holds.
type Counts struct {
	Edges    int64
	Segments int64
	Seats    int64
}

// Counts returns row counts for the network tables.
func (s *Store) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	err := s.db.QueryRow(ctx, `
		SELECT (SELECT count(*) FROM rail_edges),
		       (SELECT count(*) FROM rail_segments),
		       (SELECT count(*) FROM rail_seats)`,
	).Scan(&c.Edges, &c.Segments, &c.Seats)
	if err != nil {
		if isNoRows(err) {
			return Counts{}, nil
		}
		return Counts{}, fmt.Errorf("postgres: counts: %w", err)
	}
	return c, nil
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
