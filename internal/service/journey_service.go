package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/vanshika/railplanner/internal/domain"
	"github.com/vanshika/railplanner/internal/journey"
)

// JourneySettings holds journey planner defaults and limits.
type JourneySettings struct {
	MinTransferMinutes int
	MaxResults         int
	MaxExpansions      int
	Timeout            time.Duration
}

// JourneyPlannerService searches multi-segment train journeys.
type JourneyPlannerService struct {
	timetable journey.TimetableSource
	inventory journey.InventorySource
	settings  JourneySettings
	logger    *slog.Logger
}

// NewJourneyPlannerService wires the planner to its sources.
func NewJourneyPlannerService(timetable journey.TimetableSource, inventory journey.InventorySource, settings JourneySettings, logger *slog.Logger) *JourneyPlannerService {
	if settings.MaxResults <= 0 {
		settings.MaxResults = domain.DefaultMaxResults
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &JourneyPlannerService{timetable: timetable, inventory: inventory, settings: settings, logger: logger}
}

// WithSources returns a planner with the same settings reading from the
// given sources.
func (s *JourneyPlannerService) WithSources(timetable journey.TimetableSource, inventory journey.InventorySource) *JourneyPlannerService {
	clone := *s
	clone.timetable = timetable
	clone.inventory = inventory
	return &clone
}

// SearchJourneys fills unset options from the service settings and runs the
// search. When the configured timeout or expansion budget is hit, the
// journeys found so far are returned.
func (s *JourneyPlannerService) SearchJourneys(ctx context.Context, opts domain.JourneySearchOptions) ([]domain.JourneyPlan, error) {
	if opts.MinTransferMinutes == nil {
		transfer := s.settings.MinTransferMinutes
		opts.MinTransferMinutes = &transfer
	}
	if opts.MaxResults == 0 {
		opts.MaxResults = s.settings.MaxResults
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	searchCtx := ctx
	cancel := func() {}
	if s.settings.Timeout > 0 {
		searchCtx, cancel = context.WithTimeout(ctx, s.settings.Timeout)
	}
	defer cancel()

	var stats journey.Stats
	began := time.Now()
	plans, err := journey.Search(searchCtx, s.timetable, s.inventory, opts,
		journey.WithMaxExpansions(s.settings.MaxExpansions),
		journey.WithStats(&stats),
	)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			s.logger.Warn("journey search timed out, returning partial results",
				"origin", opts.Origin, "destination", opts.Destination, "found", len(plans), "expansions", stats.Expansions)
			return plans, nil
		}
		return nil, err
	}
	if stats.BudgetHit {
		s.logger.Warn("journey search hit expansion budget", "origin", opts.Origin, "destination", opts.Destination, "found", len(plans), "budget", s.settings.MaxExpansions)
	}

	s.logger.Debug("journey search finished",
		"origin", opts.Origin,
		"destination", opts.Destination,
		"passengers", opts.Passengers,
		"found", len(plans),
		"expansions", stats.Expansions,
		"queued", stats.StatesQueued,
		"pruned", stats.Pruned,
		"took", time.Since(began),
	)
	return plans, nil
}
