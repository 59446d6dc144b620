package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vanshika/railplanner/internal/domain"
	"github.com/vanshika/railplanner/internal/logging"
	"github.com/vanshika/railplanner/internal/memstore"
	"github.com/vanshika/railplanner/internal/routing"
	"github.com/vanshika/railplanner/internal/service"
)

const (
	newYear int64 = 1_704_067_200_000 // 2024-01-01T00:00:00Z
	hour    int64 = 3_600_000
)

type brokenGraph struct{}

func (brokenGraph) OutgoingNeighbors(context.Context, domain.NodeID) ([]domain.WeightedNeighbor, error) {
	return nil, errors.New("connection reset")
}

type stubHealth struct{ err error }

func (s stubHealth) Probe(context.Context) error { return s.err }

func weight(v float64) *float64 { return &v }

func newTestHandlers(graph routing.GraphSource) *APIHandlers {
	logger := logging.Discard()
	if graph == nil {
		graph = memstore.NewGraph(nil, true)
	}
	routes := service.NewRoutePlannerService(graph, service.RouteSettings{MaxK: 5}, logger)
	journeys := service.NewJourneyPlannerService(memstore.NewTimetable(nil), memstore.NewInventory(nil), service.JourneySettings{}, logger)
	return NewAPIHandlers(logger, routes, journeys)
}

func newTestRouter(graph routing.GraphSource, health HealthService) http.Handler {
	return NewRouter(logging.Discard(), RouterDependencies{
		Health:         health,
		API:            newTestHandlers(graph),
		AllowedOrigins: []string{"http://localhost:3000"},
	})
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

var triangle = []map[string]any{
	{"source": "A", "target": "B", "weight": 1},
	{"source": "B", "target": "C", "weight": 1},
	{"source": "A", "target": "C", "weight": 5},
}

func TestHandleRoutes_InlineEdges(t *testing.T) {
	router := newTestRouter(nil, nil)

	rec := do(t, router, http.MethodPost, "/routes", map[string]any{
		"start": "A", "goal": "C", "edges": triangle,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decode[routeResponse](t, rec)
	if resp.Route == nil {
		t.Fatalf("expected a route")
	}
	if got := resp.Route.Nodes; len(got) != 3 || got[0] != "A" || got[1] != "B" || got[2] != "C" {
		t.Fatalf("unexpected nodes %v", got)
	}
	if resp.Route.Cost != 2 {
		t.Fatalf("expected cost 2, got %v", resp.Route.Cost)
	}
}

func TestHandleRoutes_KShortest(t *testing.T) {
	router := newTestRouter(nil, nil)

	rec := do(t, router, http.MethodPost, "/routes", map[string]any{
		"start": "A", "goal": "C", "k": 3, "algorithm": "yen", "edges": triangle,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decode[routesResponse](t, rec)
	if len(resp.Routes) != 2 {
		t.Fatalf("expected 2 routes, got %d", len(resp.Routes))
	}
	if resp.Routes[0].Cost != 2 || resp.Routes[1].Cost != 5 {
		t.Fatalf("unexpected costs %v, %v", resp.Routes[0].Cost, resp.Routes[1].Cost)
	}
}

func TestHandleRoutes_DirectedFlag(t *testing.T) {
	router := newTestRouter(nil, nil)
	edges := []map[string]any{{"source": "B", "target": "A"}}

	rec := do(t, router, http.MethodPost, "/routes", map[string]any{"start": "A", "goal": "B", "edges": edges})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if rec.Body.String() != "{\"route\":null}\n" {
		t.Fatalf("expected null route on a directed graph, got %s", rec.Body.String())
	}

	rec = do(t, router, http.MethodPost, "/routes", map[string]any{"start": "A", "goal": "B", "edges": edges, "directed": false})
	resp := decode[routeResponse](t, rec)
	if resp.Route == nil || resp.Route.Cost != 1 {
		t.Fatalf("expected a unit-cost route on an undirected graph, got %+v", resp.Route)
	}
}

func TestHandleRoutes_ConfiguredSourceAndExclusions(t *testing.T) {
	graph := memstore.NewGraph([]domain.Edge{
		{Source: "A", Target: "B", Weight: weight(1)},
		{Source: "B", Target: "C", Weight: weight(1)},
		{Source: "A", Target: "C", Weight: weight(5)},
	}, true)
	router := newTestRouter(graph, nil)

	rec := do(t, router, http.MethodPost, "/routes", map[string]any{
		"start": "A", "goal": "C", "excludeEdges": []string{"A|B"},
	})
	resp := decode[routeResponse](t, rec)
	if resp.Route == nil || len(resp.Route.Nodes) != 2 || resp.Route.Cost != 5 {
		t.Fatalf("expected direct route A-C, got %+v", resp.Route)
	}

	rec = do(t, router, http.MethodPost, "/routes", map[string]any{
		"start": "A", "goal": "C", "excludeNodes": []string{"C"},
	})
	if resp := decode[routeResponse](t, rec); resp.Route != nil {
		t.Fatalf("expected no route when the goal is excluded, got %+v", resp.Route)
	}
}

func TestHandleRoutes_BadRequests(t *testing.T) {
	router := newTestRouter(nil, nil)
	cases := map[string]map[string]any{
		"missing start":    {"goal": "C", "edges": triangle},
		"unknown algo":     {"start": "A", "goal": "C", "algorithm": "astar"},
		"bad edge key":     {"start": "A", "goal": "C", "excludeEdges": []string{"AB"}},
		"zero k":           {"start": "A", "goal": "C", "k": 0},
		"unknown field":    {"start": "A", "goal": "C", "weights": true},
		"malformed weight": {"start": "A", "goal": "C", "edges": []map[string]any{{"source": "A", "target": "C", "weight": "x"}}},
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := do(t, router, http.MethodPost, "/routes", body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected status 400, got %d: %s", rec.Code, rec.Body.String())
			}
			if resp := decode[map[string]string](t, rec); resp["error"] == "" {
				t.Fatalf("expected an error message")
			}
		})
	}
}

func TestHandleRoutes_SourceFailure(t *testing.T) {
	router := newTestRouter(brokenGraph{}, nil)

	rec := do(t, router, http.MethodPost, "/routes", map[string]any{"start": "A", "goal": "C"})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rec.Code)
	}
	if resp := decode[map[string]string](t, rec); resp["error"] != "route search failed" {
		t.Fatalf("expected source details to be hidden, got %q", resp["error"])
	}
}

func TestHandleJourneys_Inline(t *testing.T) {
	router := newTestRouter(nil, nil)
	body := map[string]any{
		"options": map[string]any{"origin": "A", "destination": "C", "passengers": 1, "earliestDepartureEpochMs": newYear},
		"segments": []map[string]any{
			{"id": "s1", "trainId": "T1", "fromStationId": "A", "toStationId": "B", "departureEpochMs": newYear + 8*hour, "arrivalEpochMs": newYear + 9*hour},
			{"id": "s2", "trainId": "T1", "fromStationId": "B", "toStationId": "C", "departureEpochMs": newYear + 9*hour, "arrivalEpochMs": newYear + 10*hour + hour/12},
		},
		"availability": []map[string]any{
			{"segmentId": "s1", "availableSeatIds": []string{"1-2", "1-1"}},
			{"segmentId": "s2", "availableSeatIds": []string{"1-1"}},
		},
	}

	rec := do(t, router, http.MethodPost, "/journeys", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decode[journeysResponse](t, rec)
	if len(resp.Journeys) != 1 {
		t.Fatalf("expected 1 journey, got %d", len(resp.Journeys))
	}
	plan := resp.Journeys[0]
	if plan.NumberOfChanges != 0 || plan.TotalDurationMinutes != 125 || plan.DurationText != "2h 5m" {
		t.Fatalf("unexpected plan summary %+v", plan)
	}
	if len(plan.Segments) != 2 || plan.Segments[0].Departure != "08:00" || plan.Segments[1].Arrival != "10:05" {
		t.Fatalf("unexpected segments %+v", plan.Segments)
	}
	for _, leg := range plan.Segments {
		if len(leg.SeatAssignments) != 1 || leg.SeatAssignments[0].SeatID != "1-1" {
			t.Fatalf("expected seat 1-1 kept on %s, got %+v", leg.Segment.ID, leg.SeatAssignments)
		}
	}
	if len(plan.SeatChanges) != 0 {
		t.Fatalf("expected no seat changes, got %+v", plan.SeatChanges)
	}
}

func TestHandleJourneys_EmptyResult(t *testing.T) {
	router := newTestRouter(nil, nil)

	rec := do(t, router, http.MethodPost, "/journeys", map[string]any{
		"options": map[string]any{"origin": "A", "destination": "Z", "passengers": 2},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if rec.Body.String() != "{\"journeys\":[]}\n" {
		t.Fatalf("expected an empty list, got %s", rec.Body.String())
	}
}

func TestHandleJourneys_BadRequests(t *testing.T) {
	router := newTestRouter(nil, nil)
	cases := map[string]map[string]any{
		"missing options": {"segments": []map[string]any{}},
		"no passengers":   {"options": map[string]any{"origin": "A", "destination": "B"}},
		"same station":    {"options": map[string]any{"origin": "A", "destination": "A", "passengers": 1}},
		"bad segment": {
			"options":  map[string]any{"origin": "A", "destination": "B", "passengers": 1},
			"segments": []map[string]any{{"id": "s1", "trainId": "T1", "fromStationId": "A", "toStationId": "B", "departureEpochMs": 10, "arrivalEpochMs": 5}},
		},
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := do(t, router, http.MethodPost, "/journeys", body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected status 400, got %d: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestRouter_Health(t *testing.T) {
	rec := do(t, newTestRouter(nil, stubHealth{}), http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	health := CompositeHealth{"neo4j": stubHealth{err: errors.New("unreachable")}, "postgres": stubHealth{}}
	rec = do(t, newTestRouter(nil, health), http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", rec.Code)
	}
	payload := decode[map[string]string](t, rec)
	if payload["status"] != "degraded" || payload["error"] != "neo4j: unreachable" {
		t.Fatalf("unexpected payload %v", payload)
	}
}

func TestRouter_RequestID(t *testing.T) {
	router := newTestRouter(nil, nil)

	rec := do(t, router, http.MethodGet, "/routes/algorithms", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if rec.Header().Get(RequestIDHeader) == "" {
		t.Fatalf("expected a generated request id")
	}

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if got := rec.Header().Get(RequestIDHeader); got != "req-42" {
		t.Fatalf("expected caller request id to be echoed, got %q", got)
	}
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	rec := do(t, newTestRouter(nil, nil), http.MethodGet, "/routes", nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected status 405, got %d", rec.Code)
	}
}

func TestRouter_CORSPreflight(t *testing.T) {
	router := newTestRouter(nil, nil)

	req := httptest.NewRequest(http.MethodOptions, "/routes", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "http://localhost:3000" {
		t.Fatalf("expected origin to be allowed")
	}

	req = httptest.NewRequest(http.MethodOptions, "/routes", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", rec.Code)
	}
}
