package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for tool calls and backend executions.
type Metrics struct {
	registry        *prometheus.Registry
	ToolCalls       *prometheus.CounterVec
	ToolDuration    *prometheus.HistogramVec
	BackendCalls    *prometheus.CounterVec
	BackendDuration *prometheus.HistogramVec
	BackendTokens   *prometheus.CounterVec
	GitDiffFailures prometheus.Counter
	TransportErrs   *prometheus.CounterVec
	InFlight        *prometheus.GaugeVec
}

// NewMetrics constructs a metrics registry with the server collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	calls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "second_opinion_tool_calls_total",
		Help: "Tool calls by tool name and outcome",
	}, []string{"tool", "outcome"})

	durs := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "second_opinion_tool_call_duration_seconds",
		Help:    "Tool call duration in seconds",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
	}, []string{"tool"})

	backend := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "second_opinion_backend_calls_total",
		Help: "Backend executions by provider, mode and outcome",
	}, []string{"provider", "mode", "outcome"})

	backendDur := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "second_opinion_backend_duration_seconds",
		Help:    "Backend execution duration in seconds",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
	}, []string{"provider", "mode"})

	tokens := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "second_opinion_backend_tokens_total",
		Help: "Tokens reported by API backends",
	}, []string{"model", "kind"})

	gitFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "second_opinion_git_diff_failures_total",
		Help: "Git diff collections that failed",
	})

	trErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "second_opinion_transport_errors_total",
		Help: "Transport-level errors by transport and reason",
	}, []string{"transport", "reason"})

	inFlight := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "second_opinion_tool_calls_in_flight",
		Help: "Tool calls currently executing by transport",
	}, []string{"transport"})

	reg.MustRegister(calls, durs, backend, backendDur, tokens, gitFailures, trErrors, inFlight)

	return &Metrics{
		registry:        reg,
		ToolCalls:       calls,
		ToolDuration:    durs,
		BackendCalls:    backend,
		BackendDuration: backendDur,
		BackendTokens:   tokens,
		GitDiffFailures: gitFailures,
		TransportErrs:   trErrors,
		InFlight:        inFlight,
	}
}

// Registry returns the underlying Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordToolCall records a finished tool call.
func (m *Metrics) RecordToolCall(tool, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	tool = orUnknown(tool)
	m.ToolCalls.WithLabelValues(tool, orUnknown(outcome)).Inc()
	m.ToolDuration.WithLabelValues(tool).Observe(duration.Seconds())
}

// RecordBackendCall records one executor invocation.
func (m *Metrics) RecordBackendCall(provider, mode, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	provider, mode = orUnknown(provider), orUnknown(mode)
	m.BackendCalls.WithLabelValues(provider, mode, orUnknown(outcome)).Inc()
	m.BackendDuration.WithLabelValues(provider, mode).Observe(duration.Seconds())
}

// RecordTokens adds reported token counts for a model.
func (m *Metrics) RecordTokens(model string, prompt, completion int) {
	if m == nil {
		return
	}
	model = orUnknown(model)
	m.BackendTokens.WithLabelValues(model, "prompt").Add(float64(prompt))
	m.BackendTokens.WithLabelValues(model, "completion").Add(float64(completion))
}

// RecordGitDiffFailure increments the git diff failure counter.
func (m *Metrics) RecordGitDiffFailure() {
	if m == nil {
		return
	}
	m.GitDiffFailures.Inc()
}

// IncInFlight increments the in-flight gauge.
func (m *Metrics) IncInFlight(transport string) {
	if m == nil {
		return
	}
	m.InFlight.WithLabelValues(orUnknown(transport)).Inc()
}

// DecInFlight decrements the in-flight gauge.
func (m *Metrics) DecInFlight(transport string) {
	if m == nil {
		return
	}
	m.InFlight.WithLabelValues(orUnknown(transport)).Dec()
}

// RecordTransportError records a transport-level error.
func (m *Metrics) RecordTransportError(transport, reason string) {
	if m == nil {
		return
	}
	m.TransportErrs.WithLabelValues(orUnknown(transport), orUnknown(reason)).Inc()
}

func orUnknown(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
