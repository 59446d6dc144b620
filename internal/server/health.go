package server

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/vanshika/railplanner/internal/graph"
)

// HealthService defines behaviour for readiness probes.
type HealthService interface {
	Probe(ctx context.Context) error
}

// GraphHealthService checks Neo4j connectivity.
type GraphHealthService struct {
	Client graph.Client
}

// Probe implements HealthService.
func (s GraphHealthService) Probe(ctx context.Context) error {
	if s.Client == nil {
		return nil
	}
	return s.Client.VerifyConnectivity(ctx)
}

// Pinger is satisfied by the Postgres store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PostgresHealthService checks the relational store.
type PostgresHealthService struct {
	DB Pinger
}

// Probe implements HealthService.
func (s PostgresHealthService) Probe(ctx context.Context) error {
	if s.DB == nil {
		return nil
	}
	return s.DB.Ping(ctx)
}

// CompositeHealth runs every named probe and joins the failures.
type CompositeHealth map[string]HealthService

// Probe implements HealthService.
func (c CompositeHealth) Probe(ctx context.Context) error {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	sort.Strings(names)

	var errs []error
	for _, name := range names {
		probe := c[name]
		if probe == nil {
			continue
		}
		if err := probe.Probe(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}
