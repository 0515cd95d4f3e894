package evolution

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/domatch/internal/platform/logging"
	"github.com/riskibarqy/domatch/internal/platform/resilience"
	"github.com/riskibarqy/domatch/internal/usecase"
)

func newTestClient(baseURL string, retry resilience.RetryPolicy, breaker resilience.CircuitBreakerConfig) *Client {
	return NewClient(ClientConfig{
		BaseURL:        baseURL,
		APIKey:         "secret-key",
		Instance:       "domatch",
		Timeout:        2 * time.Second,
		Retry:          retry,
		CircuitBreaker: breaker,
		Logger:         logging.NewNop(),
	})
}

func TestClient_CreateGroup(t *testing.T) {
	var got createGroupRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/group/create/domatch", r.URL.Path)
		assert.Equal(t, "secret-key", r.Header.Get("apikey"))
		raw, _ := io.ReadAll(r.Body)
		assert.NoError(t, sonic.Unmarshal(raw, &got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"groupId":"120363@g.us"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, resilience.RetryPolicy{Attempts: 1}, resilience.CircuitBreakerConfig{Enabled: true})
	ref, err := client.CreateGroup(context.Background(), "Sunday League", "Weekly games", []string{"+55 11 99999-0001", "+5511999990002"})
	require.NoError(t, err)
	require.Equal(t, "120363@g.us", ref)
	require.Equal(t, "Sunday League", got.Subject)
	require.Equal(t, []string{"5511999990001", "5511999990002"}, got.Participants)
}

func TestClient_AddParticipantSendsDigits(t *testing.T) {
	var got participantRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/group/add-participant/domatch", r.URL.Path)
		raw, _ := io.ReadAll(r.Body)
		assert.NoError(t, sonic.Unmarshal(raw, &got))
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, resilience.RetryPolicy{Attempts: 1}, resilience.CircuitBreakerConfig{Enabled: true})
	require.NoError(t, client.AddParticipant(context.Background(), "group-1", "+55 (11) 99999-0001"))
	require.Equal(t, participantRequest{GroupID: "group-1", Participant: "5511999990001"}, got)
}

func TestClient_RetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/message/text/domatch", r.URL.Path)
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"key":{"id":"abc"}}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, resilience.RetryPolicy{Attempts: 3, Backoff: time.Millisecond}, resilience.CircuitBreakerConfig{Enabled: true})
	require.NoError(t, client.SendMessage(context.Background(), "+5511999990001", "welcome"))
	require.EqualValues(t, 3, calls.Load())
}

func TestClient_DoesNotRetryRejectedRequests(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":["participant not on whatsapp"]}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, resilience.RetryPolicy{Attempts: 3, Backoff: time.Millisecond}, resilience.CircuitBreakerConfig{Enabled: true, FailureThreshold: 1})
	err := client.AddParticipant(context.Background(), "group-1", "+5511999990001")
	require.Error(t, err)
	require.True(t, errors.Is(err, usecase.ErrRemoteUnavailable))
	require.Contains(t, err.Error(), "participant not on whatsapp")
	require.EqualValues(t, 1, calls.Load())
	require.Equal(t, resilience.CircuitStateClosed, client.Breaker().State())
}

func TestClient_CircuitOpensAfterFailures(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := newTestClient(server.URL, resilience.RetryPolicy{Attempts: 1}, resilience.CircuitBreakerConfig{
		Enabled:          true,
		FailureThreshold: 2,
		OpenTimeout:      time.Minute,
	})
	ctx := context.Background()
	for range 2 {
		require.Error(t, client.SendMessage(ctx, "+5511999990001", "hi"))
	}
	require.Equal(t, resilience.CircuitStateOpen, client.Breaker().State())

	err := client.SendMessage(ctx, "+5511999990001", "hi")
	require.True(t, errors.Is(err, resilience.ErrCircuitOpen))
	require.True(t, errors.Is(err, usecase.ErrRemoteUnavailable))
	require.EqualValues(t, 2, calls.Load())
}

func TestClient_CreateGroupWithoutID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, resilience.RetryPolicy{Attempts: 1}, resilience.CircuitBreakerConfig{Enabled: true})
	_, err := client.CreateGroup(context.Background(), "Sunday League", "", nil)
	require.True(t, errors.Is(err, usecase.ErrRemoteUnavailable))
}

func TestDigits(t *testing.T) {
	cases := map[string]string{
		"+55 (11) 99999-0001": "5511999990001",
		"5511999990001":       "5511999990001",
		"":                    "",
		"+٣٤":                 "",
	}
	for in, want := range cases {
		if got := Digits(in); got != want {
			t.Fatalf("Digits(%q) = %q, want %q", in, got, want)
		}
	}
}
