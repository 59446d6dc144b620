package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/vanshika/railplanner/internal/domain"
)

const outgoingSQL = `
SELECT target, coalesce(weight, 1) FROM rail_edges WHERE source = $1 ORDER BY seq, target`

const outgoingUndirectedSQL = `
SELECT node, w FROM (
    SELECT target AS node, coalesce(weight, 1) AS w, seq, 0 AS side FROM rail_edges WHERE source = $1
    UNION ALL
    SELECT source AS node, coalesce(weight, 1) AS w, seq, 1 AS side FROM rail_edges WHERE target = $1
) n ORDER BY seq, side, node`

// OutgoingNeighbors returns the neighbours of node in insertion order.
func (s *Store) OutgoingNeighbors(ctx context.Context, node domain.NodeID) ([]domain.WeightedNeighbor, error) {
	query := outgoingSQL
	if !s.directed {
		query = outgoingUndirectedSQL
	}
	rows, err := s.db.Query(ctx, query, string(node))
	if err != nil {
		return nil, fmt.Errorf("postgres: neighbours of %s: %w", node, err)
	}
	defer rows.Close()

	out := []domain.WeightedNeighbor{}
	for rows.Next() {
		var n domain.WeightedNeighbor
		var id string
		if err := rows.Scan(&id, &n.Weight); err != nil {
			return nil, fmt.Errorf("postgres: scan neighbour: %w", err)
		}
		n.NodeID = domain.NodeID(id)
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: rows neighbours: %w", err)
	}
	return out, nil
}

// UpsertEdges writes edges in one batch. firstSeq is the position of
// edges[0] in the whole edge list. Parallel edges collapse onto the cheaper
// weight and keep the first seq; shortest paths never use the dearer one.
func (s *Store) UpsertEdges(ctx context.Context, firstSeq int64, edges []domain.Edge) error {
	if len(edges) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for i, e := range edges {
		batch.Queue(`
			INSERT INTO rail_edges (seq, source, target, weight) VALUES ($1, $2, $3, $4)
			ON CONFLICT (source, target) DO UPDATE
			SET weight = LEAST(coalesce(rail_edges.weight, 1), coalesce(EXCLUDED.weight, 1))`,
			firstSeq+int64(i), string(e.Source), string(e.Target), e.Weight)
	}
	return s.runBatch(ctx, batch, "edges")
}

func (s *Store) runBatch(ctx context.Context, batch *pgx.Batch, what string) error {
	br := s.db.SendBatch(ctx, batch)
	defer br.Close()
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("postgres: upsert %s (item %d): %w", what, i, err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("postgres: upsert %s: %w", what, err)
	}
	return nil
}
