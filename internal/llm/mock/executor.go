package mock

import (
	"context"
	"sync"

	"github.com/jerzydziewierz/second-opinion/internal/llm"
)

// Executor is a test double implementing llm.Executor. It records every request.
type Executor struct {
	ExecuteFn func(ctx context.Context, req llm.Request) (llm.Response, error)
	Reply     string

	mu       sync.Mutex
	requests []llm.Request
}

func (e *Executor) Execute(ctx context.Context, req llm.Request) (llm.Response, error) {
	e.mu.Lock()
	e.requests = append(e.requests, req)
	e.mu.Unlock()

	if e.ExecuteFn != nil {
		return e.ExecuteFn(ctx, req)
	}
	reply := e.Reply
	if reply == "" {
		reply = "mock"
	}
	return llm.Response{Text: reply}, nil
}

// Requests returns a copy of the recorded requests.
func (e *Executor) Requests() []llm.Request {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]llm.Request(nil), e.requests...)
}

// Factory hands out executors per route and records the routes it built.
type Factory struct {
	// Executors maps a provider to the executor returned for it; missing entries get a fresh Executor.
	Executors map[llm.ProviderID]llm.Executor
	Err       error

	mu     sync.Mutex
	routes []llm.Route
}

func (f *Factory) NewExecutor(route llm.Route) (llm.Executor, error) {
	f.mu.Lock()
	f.routes = append(f.routes, route)
	f.mu.Unlock()

	if f.Err != nil {
		return nil, f.Err
	}
	if exec, ok := f.Executors[route.Provider]; ok {
		return exec, nil
	}
	return &Executor{}, nil
}

// Routes returns the routes NewExecutor was called with.
func (f *Factory) Routes() []llm.Route {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]llm.Route(nil), f.routes...)
}
