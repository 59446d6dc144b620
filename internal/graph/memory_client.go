package graph

import (
	"context"
	"sync"
)

// Responder answers one statement on a MemoryClient.
type Responder func(cypher string, params map[string]any) (Result, error)

// MemoryClient is an in-process Client for tests. Every statement is
// recorded; reads and writes are answered by the configured responders, or
// with an empty result when none is set.
type MemoryClient struct {
	mu           sync.Mutex
	calls        []ExecutedQuery
	onRead       Responder
	onWrite      Responder
	connectivity error
	closed       bool
}

// ExecutedQuery captures a statement and its parameters.
type ExecutedQuery struct {
	Write  bool
	Query  string
	Params map[string]any
}

// NewMemoryClient returns a client with no responders.
func NewMemoryClient() *MemoryClient {
	return &MemoryClient{}
}

// OnRead sets the responder for ExecuteRead.
func (m *MemoryClient) OnRead(fn Responder) *MemoryClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onRead = fn
	return m
}

// OnWrite sets the responder for ExecuteWrite.
func (m *MemoryClient) OnWrite(fn Responder) *MemoryClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onWrite = fn
	return m
}

// WithConnectivityError makes VerifyConnectivity fail with err.
func (m *MemoryClient) WithConnectivityError(err error) *MemoryClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connectivity = err
	return m
}

func (m *MemoryClient) ExecuteWrite(_ context.Context, cypher string, params map[string]any) (Result, error) {
	return m.execute(true, cypher, params)
}

func (m *MemoryClient) ExecuteRead(_ context.Context, cypher string, params map[string]any) (Result, error) {
	return m.execute(false, cypher, params)
}

func (m *MemoryClient) execute(write bool, cypher string, params map[string]any) (Result, error) {
	m.mu.Lock()
	m.calls = append(m.calls, ExecutedQuery{Write: write, Query: cypher, Params: cloneMap(params)})
	fn := m.onRead
	if write {
		fn = m.onWrite
	}
	m.mu.Unlock()

	if fn == nil {
		return Result{}, nil
	}
	return fn(cypher, params)
}

func (m *MemoryClient) VerifyConnectivity(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connectivity
}

func (m *MemoryClient) Close(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Calls returns every executed statement in order.
func (m *MemoryClient) Calls() []ExecutedQuery {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ExecutedQuery(nil), m.calls...)
}

// WriteCalls returns the executed write statements.
func (m *MemoryClient) WriteCalls() []ExecutedQuery {
	return m.filter(true)
}

// ReadCalls returns the executed read statements.
func (m *MemoryClient) ReadCalls() []ExecutedQuery {
	return m.filter(false)
}

// Closed reports whether Close was called.
func (m *MemoryClient) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *MemoryClient) filter(write bool) []ExecutedQuery {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []ExecutedQuery
	for _, c := range m.calls {
		if c.Write == write {
			out = append(out, c)
		}
	}
	return out
}

func cloneMap(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
