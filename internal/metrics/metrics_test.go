package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveDecision(t *testing.T) {
	m := New()
	m.ObserveDecision("medium", "p256-ecdsa-only", 0.323)
	m.ObserveDecision("medium", "p256-ecdsa-only", 0.5)
	m.ObserveDecision("low", "none", 0.1)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.decisions.WithLabelValues("medium", "p256-ecdsa-only")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.decisions.WithLabelValues("low", "none")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.routeScore))
}

func TestObserveRequestAndReload(t *testing.T) {
	m := New()
	m.ObserveRequest("/api/mesh/test", "200")
	m.ObserveReload("ok")
	m.ObserveReload("error")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("/api/mesh/test", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reloads.WithLabelValues("error")))
}

func TestRegistriesAreIndependent(t *testing.T) {
	a, b := New(), New()
	a.ObserveRequest("/x", "404")

	families, err := b.Registry.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() == "meshgate_http_requests_total" {
			t.Fatalf("unexpected samples in second registry: %v", f.GetMetric())
		}
	}
}
