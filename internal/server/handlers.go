package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/vanshika/railplanner/internal/dataset"
	"github.com/vanshika/railplanner/internal/domain"
	"github.com/vanshika/railplanner/internal/format"
	"github.com/vanshika/railplanner/internal/routing"
	"github.com/vanshika/railplanner/internal/service"
)

const maxBodyBytes = 8 << 20

// APIHandlers exposes the route and journey planners over HTTP.
type APIHandlers struct {
	logger   *slog.Logger
	routes   *service.RoutePlannerService
	journeys *service.JourneyPlannerService
}

// NewAPIHandlers constructs an APIHandlers instance.
func NewAPIHandlers(logger *slog.Logger, routes *service.RoutePlannerService, journeys *service.JourneyPlannerService) *APIHandlers {
	return &APIHandlers{
		logger:   logger,
		routes:   routes,
		journeys: journeys,
	}
}

// RegisterRoutes mounts the planner endpoints on router.
func (h *APIHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/routes", h.handleRoutes).Methods(http.MethodPost)
	router.HandleFunc("/routes/algorithms", h.handleAlgorithms).Methods(http.MethodGet)
	router.HandleFunc("/journeys", h.handleJourneys).Methods(http.MethodPost)
}

type routeRequest struct {
	Start     string `json:"start"`
	Goal      string `json:"goal"`
	K         *int   `json:"k,omitempty"`
	Algorithm string `json:"algorithm,omitempty"`
	// Directed applies to inline edges only and defaults to true.
	Directed     *bool          `json:"directed,omitempty"`
	Edges        []dataset.Edge `json:"edges,omitempty"`
	ExcludeNodes []string       `json:"excludeNodes,omitempty"`
	// ExcludeEdges holds "from|to" pairs.
	ExcludeEdges []string `json:"excludeEdges,omitempty"`
}

type pathResponse struct {
	Nodes []string `json:"nodes"`
	Cost  float64  `json:"cost"`
}

type routeResponse struct {
	Route *pathResponse `json:"route"`
}

type routesResponse struct {
	Routes []pathResponse `json:"routes"`
}

func (h *APIHandlers) handleRoutes(w http.ResponseWriter, r *http.Request) {
	var req routeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	opts, err := req.traversalOptions()
	if err != nil {
		h.fail(w, r, err, "route search")
		return
	}
	k := 1
	if req.K != nil {
		k = *req.K
	}
	if k <= 0 {
		h.fail(w, r, fmt.Errorf("%w: got %d", domain.ErrInvalidK, k), "route search")
		return
	}

	planner := h.routes
	if req.Edges != nil {
		directed := true
		if req.Directed != nil {
			directed = *req.Directed
		}
		stores, err := dataset.Dataset{Edges: req.Edges}.Stores(directed)
		if err != nil {
			h.fail(w, r, err, "route search")
			return
		}
		planner = planner.WithSource(stores.Graph)
	}

	start, goal := domain.NodeID(req.Start), domain.NodeID(req.Goal)
	if k > 1 {
		paths, err := planner.GetKShortestRoutes(r.Context(), start, goal, k, req.Algorithm, opts)
		if err != nil {
			h.fail(w, r, err, "route search")
			return
		}
		resp := routesResponse{Routes: make([]pathResponse, 0, len(paths))}
		for _, p := range paths {
			resp.Routes = append(resp.Routes, toPathResponse(p))
		}
		respondJSON(w, http.StatusOK, resp)
		return
	}

	path, err := planner.GetShortestRoute(r.Context(), start, goal, req.Algorithm, opts)
	if err != nil {
		h.fail(w, r, err, "route search")
		return
	}
	resp := routeResponse{}
	if path != nil {
		p := toPathResponse(*path)
		resp.Route = &p
	}
	respondJSON(w, http.StatusOK, resp)
}

func (req routeRequest) traversalOptions() (domain.TraversalOptions, error) {
	opts := domain.TraversalOptions{}
	if len(req.ExcludeNodes) > 0 {
		opts.ExcludeNodes = domain.NewNodeSet()
		for _, id := range req.ExcludeNodes {
			opts.ExcludeNodes[domain.NodeID(id)] = struct{}{}
		}
	}
	if len(req.ExcludeEdges) > 0 {
		opts.ExcludeEdges = domain.NewEdgeSet()
		for _, raw := range req.ExcludeEdges {
			key, ok := domain.ParseEdgeKey(raw)
			if !ok {
				return opts, fmt.Errorf("%w: excluded edge %q is not of the form from|to", domain.ErrInvalidInput, raw)
			}
			opts.ExcludeEdges[key] = struct{}{}
		}
	}
	return opts, nil
}

func toPathResponse(p domain.PathResult) pathResponse {
	nodes := make([]string, len(p.Nodes))
	for i, n := range p.Nodes {
		nodes[i] = string(n)
	}
	return pathResponse{Nodes: nodes, Cost: p.Cost}
}

type algorithmInfo struct {
	Name      routing.Kind `json:"name"`
	Weighted  bool         `json:"weighted"`
	KShortest bool         `json:"kShortest"`
}

func (h *APIHandlers) handleAlgorithms(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"algorithms": []algorithmInfo{
			{Name: routing.KindBFS},
			{Name: routing.KindDijkstra, Weighted: true},
			{Name: routing.KindYen, Weighted: true, KShortest: true},
		},
	})
}

type journeyOptions struct {
	Origin                   string `json:"origin"`
	Destination              string `json:"destination"`
	EarliestDepartureEpochMs int64  `json:"earliestDepartureEpochMs"`
	Passengers               int    `json:"passengers"`
	MinTransferMinutes       *int   `json:"minTransferMinutes,omitempty"`
	MaxResults               int    `json:"maxResults,omitempty"`
}

type journeyRequest struct {
	Options      *journeyOptions        `json:"options"`
	Segments     []dataset.Segment      `json:"segments,omitempty"`
	Availability []dataset.Availability `json:"availability,omitempty"`
}

type seatAssignmentResponse struct {
	PassengerIndex int    `json:"passengerIndex"`
	SeatID         string `json:"seatId"`
}

type journeySegmentResponse struct {
	Segment         dataset.Segment          `json:"segment"`
	Departure       string                   `json:"departure"`
	Arrival         string                   `json:"arrival"`
	SeatAssignments []seatAssignmentResponse `json:"seatAssignments"`
}

type seatChangeResponse struct {
	PassengerIndex int    `json:"passengerIndex"`
	AtStationID    string `json:"atStationId"`
	FromSeatID     string `json:"fromSeatId"`
	ToSeatID       string `json:"toSeatId"`
}

type journeyPlanResponse struct {
	Segments             []journeySegmentResponse `json:"segments"`
	TotalDurationMinutes int                      `json:"totalDurationMinutes"`
	DurationText         string                   `json:"durationText"`
	NumberOfChanges      int                      `json:"numberOfChanges"`
	SeatChanges          []seatChangeResponse     `json:"seatChanges"`
}

type journeysResponse struct {
	Journeys []journeyPlanResponse `json:"journeys"`
}

func (h *APIHandlers) handleJourneys(w http.ResponseWriter, r *http.Request) {
	var req journeyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if req.Options == nil {
		writeError(w, http.StatusBadRequest, "options are required")
		return
	}

	planner := h.journeys
	if req.Segments != nil || req.Availability != nil {
		stores, err := dataset.Dataset{Segments: req.Segments, Availability: req.Availability}.Stores(true)
		if err != nil {
			h.fail(w, r, err, "journey search")
			return
		}
		planner = planner.WithSources(stores.Timetable, stores.Inventory)
	}

	opts := domain.JourneySearchOptions{
		Origin:                   domain.StationID(req.Options.Origin),
		Destination:              domain.StationID(req.Options.Destination),
		EarliestDepartureEpochMs: req.Options.EarliestDepartureEpochMs,
		Passengers:               req.Options.Passengers,
		MinTransferMinutes:       req.Options.MinTransferMinutes,
		MaxResults:               req.Options.MaxResults,
	}
	plans, err := planner.SearchJourneys(r.Context(), opts)
	if err != nil {
		h.fail(w, r, err, "journey search")
		return
	}

	resp := journeysResponse{Journeys: make([]journeyPlanResponse, 0, len(plans))}
	for _, plan := range plans {
		resp.Journeys = append(resp.Journeys, toJourneyPlanResponse(plan))
	}
	respondJSON(w, http.StatusOK, resp)
}

func toJourneyPlanResponse(plan domain.JourneyPlan) journeyPlanResponse {
	out := journeyPlanResponse{
		Segments:             make([]journeySegmentResponse, 0, len(plan.Segments)),
		TotalDurationMinutes: plan.TotalDurationMinutes,
		DurationText:         format.Duration(plan.TotalDurationMinutes),
		NumberOfChanges:      plan.NumberOfChanges,
		SeatChanges:          make([]seatChangeResponse, 0, len(plan.SeatChanges)),
	}
	for _, leg := range plan.Segments {
		seg := leg.Segment
		item := journeySegmentResponse{
			Segment: dataset.Segment{
				ID:               string(seg.ID),
				TrainID:          string(seg.TrainID),
				FromStationID:    string(seg.FromStationID),
				ToStationID:      string(seg.ToStationID),
				DepartureEpochMs: seg.DepartureEpochMs,
				ArrivalEpochMs:   seg.ArrivalEpochMs,
			},
			Departure:       format.Clock(seg.DepartureEpochMs),
			Arrival:         format.Clock(seg.ArrivalEpochMs),
			SeatAssignments: make([]seatAssignmentResponse, 0, len(leg.SeatAssignments)),
		}
		for _, a := range leg.SeatAssignments {
			item.SeatAssignments = append(item.SeatAssignments, seatAssignmentResponse{PassengerIndex: a.PassengerIndex, SeatID: string(a.SeatID)})
		}
		out.Segments = append(out.Segments, item)
	}
	for _, c := range plan.SeatChanges {
		out.SeatChanges = append(out.SeatChanges, seatChangeResponse{
			PassengerIndex: c.PassengerIndex,
			AtStationID:    string(c.AtStationID),
			FromSeatID:     string(c.FromSeatID),
			ToSeatID:       string(c.ToSeatID),
		})
	}
	return out
}

// fail maps planner errors onto HTTP statuses. Caller mistakes are echoed
// back; source failures are logged and hidden.
func (h *APIHandlers) fail(w http.ResponseWriter, r *http.Request, err error, what string) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrTimeout):
		h.logger.Warn(what+" timed out", "error", err, "request_id", RequestID(r.Context()))
		writeError(w, http.StatusGatewayTimeout, err.Error())
	case errors.Is(err, context.Canceled):
		h.logger.Info(what+" cancelled by client", "request_id", RequestID(r.Context()))
		writeError(w, http.StatusServiceUnavailable, "request cancelled")
	default:
		h.logger.Error(what+" failed", "error", err, "request_id", RequestID(r.Context()))
		writeError(w, http.StatusInternalServerError, what+" failed")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return errors.New("request body is required")
	}
	defer r.Body.Close()

	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{
		"error": msg,
	})
}
