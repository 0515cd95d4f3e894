package observability

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/domatch/internal/platform/resilience"
)

func TestMetrics_DomainCounters(t *testing.T) {
	m := NewMetrics()

	m.MatchRecorded()
	m.MatchRecorded()
	m.GameFinished("draw")
	m.DuplicateJoinRejected("community")
	m.GatewayCallFailed("create_group")
	m.IntegrationTaskProcessed("add_participant", "done")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.matchesRecorded))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.gamesFinished.WithLabelValues("draw")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.duplicateJoins.WithLabelValues("community")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.gatewayFailures.WithLabelValues("create_group")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.integrationTasks.WithLabelValues("add_participant", "done")))
}

func TestMetrics_TrackBreaker(t *testing.T) {
	m := NewMetrics()
	breaker := resilience.NewCircuitBreaker("evolution", resilience.CircuitBreakerConfig{
		Enabled:          true,
		FailureThreshold: 1,
		OpenTimeout:      time.Minute,
		HalfOpenMaxReq:   1,
	})
	m.TrackBreaker(breaker)

	gauge := m.breakerState.WithLabelValues("evolution")
	assert.Equal(t, 0.0, testutil.ToFloat64(gauge))

	breaker.RecordFailure()
	assert.Equal(t, 1.0, testutil.ToFloat64(gauge))
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics()
	m.ObserveHTTP(http.MethodGet, "/v1/games/{gameId}", http.StatusOK, 20*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	if !strings.Contains(string(body), `domatch_http_requests_total{method="GET",route="/v1/games/{gameId}",status="200"} 1`) {
		t.Fatalf("expected http counter in exposition, got:\n%s", body)
	}
}
