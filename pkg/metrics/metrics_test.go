package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWithRegistry("agenda", reg)

	m.ObserveHTTPRequest("GET", "/api/v1/public/availability", 200, 15*time.Millisecond)
	m.ObserveDBQuery("SELECT", nil, time.Millisecond)
	m.ObserveDBQuery("SELECT", errors.New("boom"), time.Millisecond)
	m.ObserveResolverDecision("assigned")
	m.AddResolverRejections("conflict", 2)
	m.AddResolverRejections("no_schedule", 0)
	m.ObserveOutboxDelivery("appointment.created.business", "delivered")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/api/v1/public/availability", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.dbQueries.WithLabelValues("SELECT", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.dbQueries.WithLabelValues("SELECT", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.resolverDecisions.WithLabelValues("assigned")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.resolverRejections.WithLabelValues("conflict")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.resolverRejections.WithLabelValues("no_schedule")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.outboxDeliveries.WithLabelValues("appointment.created.business", "delivered")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveHTTPRequest("GET", "/", 200, time.Second)
		m.ObserveDBQuery("SELECT", nil, time.Second)
		m.SetDBPoolStats(1, 1, 0, 0, 0)
		m.ObserveResolverDecision("none")
		m.AddResolverRejections("conflict", 1)
		m.ObserveOutboxDelivery("x", "failed")
	})
}
