package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRecordToolCallDefaultsLabels(t *testing.T) {
	m := NewMetrics()
	m.RecordToolCall("consult", "", time.Second)
	m.RecordToolCall("consult", "ok", 2*time.Second)

	require.Equal(t, 1.0, testutil.ToFloat64(m.ToolCalls.WithLabelValues("consult", "unknown")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.ToolCalls.WithLabelValues("consult", "ok")))
}

func TestRecordTokensAndGitFailures(t *testing.T) {
	m := NewMetrics()
	m.RecordTokens("gpt-5.3-codex", 10, 4)
	m.RecordGitDiffFailure()

	require.Equal(t, 10.0, testutil.ToFloat64(m.BackendTokens.WithLabelValues("gpt-5.3-codex", "prompt")))
	require.Equal(t, 4.0, testutil.ToFloat64(m.BackendTokens.WithLabelValues("gpt-5.3-codex", "completion")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.GitDiffFailures))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.RecordToolCall("consult", "ok", time.Second)
	m.RecordBackendCall("gemini", "cli", "ok", time.Second)
	m.RecordTokens("x", 1, 1)
	m.RecordGitDiffFailure()
	m.RecordTransportError("stdio", "decode")
	m.IncInFlight("stdio")
	m.DecInFlight("stdio")
}

func TestInFlightGauge(t *testing.T) {
	m := NewMetrics()
	m.IncInFlight("stdio")
	m.IncInFlight("stdio")
	m.DecInFlight("stdio")

	require.Equal(t, 1.0, testutil.ToFloat64(m.InFlight.WithLabelValues("stdio")))
}
