package alert

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countingServer(t *testing.T, status int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var called atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called.Add(1)
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, &called
}

// fastSender retries without waiting so tests stay quick.
func fastSender() *Sender {
	return &Sender{Client: &http.Client{Timeout: time.Second}, Attempts: 3, Backoff: time.Millisecond}
}

func TestEmptyDispatcherSendsNothing(t *testing.T) {
	d := NewDispatcher(nil)
	require.NotNil(t, d)
	d.Dispatch(AlertEvent{Band: "low"})
	d.Wait()
}

func TestSetConfigsSwapsTargets(t *testing.T) {
	oldSrv, oldCalled := countingServer(t, http.StatusOK)
	newSrv, newCalled := countingServer(t, http.StatusOK)

	d := NewDispatcher([]AlertConfig{{URL: oldSrv.URL, Events: []string{"low"}}})
	d.SetConfigs([]AlertConfig{{URL: newSrv.URL, Events: []string{"low"}}})
	d.Dispatch(AlertEvent{Band: "low"})
	d.Wait()

	assert.EqualValues(t, 0, oldCalled.Load())
	assert.EqualValues(t, 1, newCalled.Load())
}

func TestWaitCoversDeliveriesStartedBeforeSwap(t *testing.T) {
	release := make(chan struct{})
	var delivered atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		delivered.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	d := NewDispatcher([]AlertConfig{{URL: srv.URL, Events: []string{"low"}}})
	d.Dispatch(AlertEvent{Band: "low"})
	d.SetConfigs(nil)

	done := make(chan struct{})
	go func() {
		d.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Wait returned before the in-flight delivery finished")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Wait did not return")
	}
	assert.EqualValues(t, 1, delivered.Load())
}

func TestDispatchMatchesBand(t *testing.T) {
	srv, called := countingServer(t, http.StatusOK)

	d := NewDispatcher([]AlertConfig{
		{URL: srv.URL, Format: "generic", Events: []string{"low"}},
	})
	d.Dispatch(AlertEvent{Band: "low", Alg: "none", RouteScore: 0.12})
	d.Wait()

	assert.EqualValues(t, 1, called.Load())
}

func TestDispatchSkipsNonMatching(t *testing.T) {
	srv, called := countingServer(t, http.StatusOK)

	d := NewDispatcher([]AlertConfig{
		{URL: srv.URL, Format: "generic", Events: []string{"low"}},
	})
	d.Dispatch(AlertEvent{Band: "high"})
	d.Wait()

	assert.EqualValues(t, 0, called.Load())
}

func TestDispatchMultipleWebhooks(t *testing.T) {
	srv1, c1 := countingServer(t, http.StatusOK)
	srv2, c2 := countingServer(t, http.StatusOK)

	d := NewDispatcher([]AlertConfig{
		{URL: srv1.URL, Events: []string{"medium"}},
		{URL: srv2.URL, Events: []string{"medium", "low"}},
	})
	d.Dispatch(AlertEvent{Band: "medium"})
	d.Wait()

	assert.EqualValues(t, 1, c1.Load())
	assert.EqualValues(t, 1, c2.Load())
}

func TestRetryOnServerError(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 2 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	require.NoError(t, fastSender().Send(context.Background(), AlertConfig{URL: srv.URL}, AlertEvent{Band: "low"}))
	assert.EqualValues(t, 2, attempts.Load())
}

func TestGivesUpAfterAttempts(t *testing.T) {
	srv, called := countingServer(t, http.StatusServiceUnavailable)

	err := fastSender().Send(context.Background(), AlertConfig{URL: srv.URL}, AlertEvent{Band: "low"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 3 attempts")
	assert.EqualValues(t, 3, called.Load())
}

func TestCancelledContextStopsRetries(t *testing.T) {
	srv, called := countingServer(t, http.StatusBadGateway)
	s := &Sender{Client: http.DefaultClient, Attempts: 5, Backoff: time.Hour}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		for called.Load() == 0 {
			time.Sleep(time.Millisecond)
		}
		cancel()
	}()

	err := s.Send(ctx, AlertConfig{URL: srv.URL}, AlertEvent{Band: "low"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cancelled")
	assert.EqualValues(t, 1, called.Load())
}

func TestNoRetryOnClientError(t *testing.T) {
	srv, called := countingServer(t, http.StatusForbidden)

	err := Send(context.Background(), AlertConfig{URL: srv.URL}, AlertEvent{Band: "low"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
	assert.EqualValues(t, 1, called.Load())
}

func TestSendSetsHeadersAndBody(t *testing.T) {
	var got AlertEvent
	var auth, band, requestID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		band = r.Header.Get("X-Meshgate-Band")
		requestID = r.Header.Get("X-Request-Id")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	event := AlertEvent{RequestID: "r-1", NodeID: "node-a", Band: "low", Alg: "none", RouteScore: 0.2, MessageLength: 3}
	cfg := AlertConfig{URL: srv.URL, Headers: map[string]string{"Authorization": "Bearer x"}}
	require.NoError(t, Send(context.Background(), cfg, event))

	assert.Equal(t, "Bearer x", auth)
	assert.Equal(t, "low", band)
	assert.Equal(t, "r-1", requestID)
	assert.Equal(t, event, got)
}

func TestSlackFormat(t *testing.T) {
	body, err := FormatPayload("slack", AlertEvent{Band: "low", Alg: "none", NodeID: "n1", RouteScore: 0.25})
	require.NoError(t, err)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(body, &payload))
	assert.Contains(t, payload, "blocks")
	assert.Contains(t, string(body), "meshgate: low band")
	assert.Contains(t, string(body), "0.2500")
}
