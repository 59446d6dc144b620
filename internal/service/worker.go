package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/vanshika/railplanner/internal/domain"
)

// Sink persists network data. Both the Neo4j repository and the Postgres
// store implement it.
type Sink interface {
	UpsertEdges(ctx context.Context, firstSeq int64, edges []domain.Edge) error
	UpsertSegments(ctx context.Context, segments []domain.TrainSegment) error
	ReplaceAvailability(ctx context.Context, entries []domain.SegmentAvailability) error
}

// TaskError accumulates multiple errors produced during bulk ingestion.
type TaskError struct {
	Errors []error
}

func (e *TaskError) Error() string {
	switch len(e.Errors) {
	case 0:
		return "no errors"
	case 1:
		return e.Errors[0].Error()
	}
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	return "multiple errors: " + strings.Join(msgs, "; ")
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (e *TaskError) Unwrap() []error {
	return e.Errors
}

func (e *TaskError) append(err error) {
	if err == nil {
		return
	}
	e.Errors = append(e.Errors, err)
}

func (e *TaskError) asError() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e
}

// IngestStats counts what a bulk ingestion wrote.
type IngestStats struct {
	Edges        int
	Segments     int
	Availability int
}

// BulkIngestor writes large networks into a Sink in batches using a worker pool.
type BulkIngestor struct {
	sink      Sink
	workers   int
	batchSize int
	logger    *slog.Logger
}

// NewBulkIngestor creates a BulkIngestor with the given concurrency and batch size.
func NewBulkIngestor(sink Sink, workers, batchSize int, logger *slog.Logger) *BulkIngestor {
	if workers <= 0 {
		workers = 4
	}
	if batchSize <= 0 {
		batchSize = 500
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BulkIngestor{sink: sink, workers: workers, batchSize: batchSize, logger: logger}
}

// Ingest writes edges, then segments, then availability. Availability refers
// to segments, so each phase finishes before the next starts.
func (bi *BulkIngestor) Ingest(ctx context.Context, edges []domain.Edge, segments []domain.TrainSegment, availability []domain.SegmentAvailability) (IngestStats, error) {
	var stats IngestStats

	if err := bi.IngestEdges(ctx, edges); err != nil {
		return stats, err
	}
	stats.Edges = len(edges)
	bi.logger.Info("edges ingested", "count", stats.Edges)

	if err := bi.IngestSegments(ctx, segments); err != nil {
		return stats, err
	}
	stats.Segments = len(segments)
	bi.logger.Info("segments ingested", "count", stats.Segments)

	if err := bi.IngestAvailability(ctx, availability); err != nil {
		return stats, err
	}
	stats.Availability = len(availability)
	bi.logger.Info("availability ingested", "count", stats.Availability)

	return stats, nil
}

// IngestEdges writes edges in concurrent batches.
func (bi *BulkIngestor) IngestEdges(ctx context.Context, edges []domain.Edge) error {
	return bi.run(ctx, batches(len(edges), bi.batchSize), func(lo, hi int) error {
		return bi.sink.UpsertEdges(ctx, int64(lo), edges[lo:hi])
	})
}

// IngestSegments writes segments in concurrent batches.
func (bi *BulkIngestor) IngestSegments(ctx context.Context, segments []domain.TrainSegment) error {
	for _, seg := range segments {
		if err := seg.Validate(); err != nil {
			return err
		}
	}
	return bi.run(ctx, batches(len(segments), bi.batchSize), func(lo, hi int) error {
		return bi.sink.UpsertSegments(ctx, segments[lo:hi])
	})
}

// IngestAvailability writes seat availability in concurrent batches.
func (bi *BulkIngestor) IngestAvailability(ctx context.Context, entries []domain.SegmentAvailability) error {
	return bi.run(ctx, batches(len(entries), bi.batchSize), func(lo, hi int) error {
		return bi.sink.ReplaceAvailability(ctx, entries[lo:hi])
	})
}

type span struct{ lo, hi int }

func batches(total, size int) []span {
	var out []span
	for lo := 0; lo < total; lo += size {
		hi := lo + size
		if hi > total {
			hi = total
		}
		out = append(out, span{lo, hi})
	}
	return out
}

func (bi *BulkIngestor) run(ctx context.Context, spans []span, workerFn func(lo, hi int) error) error {
	if len(spans) == 0 {
		return nil
	}
	spanCh := make(chan span)
	errCh := make(chan error, len(spans))
	var wg sync.WaitGroup

	worker := func() {
		defer wg.Done()
		for sp := range spanCh {
			if err := workerFn(sp.lo, sp.hi); err != nil {
				select {
				case errCh <- err:
				case <-ctx.Done():
					return
				}
			}
		}
	}

	for i := 0; i < bi.workers; i++ {
		wg.Add(1)
		go worker()
	}

Loop:
	for _, sp := range spans {
		select {
		case spanCh <- sp:
		case <-ctx.Done():
			break Loop
		}
	}
	close(spanCh)
	wg.Wait()
	close(errCh)

	if err := ctx.Err(); err != nil {
		return err
	}

	var taskErr TaskError
	for err := range errCh {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		taskErr.append(err)
	}
	return taskErr.asError()
}
