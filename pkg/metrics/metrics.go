// Package metrics holds the Prometheus collectors of the service.
// All methods are safe to call on a nil *Metrics, which disables collection.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups HTTP, database and domain collectors.
type Metrics struct {
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	dbQueries       *prometheus.CounterVec
	dbDuration      *prometheus.HistogramVec
	dbOpenConns     prometheus.Gauge
	dbInUseConns    prometheus.Gauge
	dbIdleConns     prometheus.Gauge
	dbWaitCount     prometheus.Gauge
	dbWaitDurationS prometheus.Gauge

	resolverDecisions  *prometheus.CounterVec
	resolverRejections *prometheus.CounterVec
	outboxDeliveries   *prometheus.CounterVec
}

// New registers collectors on the default registerer.
func New(serviceName string) *Metrics {
	return NewWithRegistry(serviceName, prometheus.DefaultRegisterer)
}

// NewWithRegistry registers collectors on reg. A nil reg falls back to the default registerer.
func NewWithRegistry(serviceName string, reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	labels := prometheus.Labels{"service": serviceName}

	m := &Metrics{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "http_requests_total",
			Help:        "Total number of HTTP requests.",
			ConstLabels: labels,
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "http_request_duration_seconds",
			Help:        "HTTP request latency.",
			ConstLabels: labels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"method", "route"}),
		dbQueries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "db_queries_total",
			Help:        "Total number of database queries.",
			ConstLabels: labels,
		}, []string{"operation", "status"}),
		dbDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "db_query_duration_seconds",
			Help:        "Database query latency.",
			ConstLabels: labels,
			Buckets:     []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"operation"}),
		dbOpenConns: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "db_open_connections",
			Help:        "Open database connections.",
			ConstLabels: labels,
		}),
		dbInUseConns: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "db_in_use_connections",
			Help:        "Database connections currently in use.",
			ConstLabels: labels,
		}),
		dbIdleConns: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "db_idle_connections",
			Help:        "Idle database connections.",
			ConstLabels: labels,
		}),
		dbWaitCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "db_wait_count",
			Help:        "Total number of connections waited for.",
			ConstLabels: labels,
		}),
		dbWaitDurationS: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "db_wait_duration_seconds",
			Help:        "Total time blocked waiting for a new connection.",
			ConstLabels: labels,
		}),
		resolverDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "agenda_resolver_decisions_total",
			Help:        "Therapist resolution outcomes.",
			ConstLabels: labels,
		}, []string{"outcome"}),
		resolverRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "agenda_resolver_rejections_total",
			Help:        "Candidates rejected during therapist resolution, by reason.",
			ConstLabels: labels,
		}, []string{"reason"}),
		outboxDeliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "agenda_outbox_deliveries_total",
			Help:        "Outbox delivery attempts, by event type and result.",
			ConstLabels: labels,
		}, []string{"event_type", "result"}),
	}

	reg.MustRegister(
		m.httpRequests, m.httpDuration,
		m.dbQueries, m.dbDuration,
		m.dbOpenConns, m.dbInUseConns, m.dbIdleConns, m.dbWaitCount, m.dbWaitDurationS,
		m.resolverDecisions, m.resolverRejections, m.outboxDeliveries,
	)

	return m
}

// ObserveHTTPRequest records one served request.
func (m *Metrics) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObserveDBQuery records one database round trip.
func (m *Metrics) ObserveDBQuery(operation string, err error, duration time.Duration) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.dbQueries.WithLabelValues(operation, status).Inc()
	m.dbDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// SetDBPoolStats publishes connection pool gauges.
func (m *Metrics) SetDBPoolStats(open, inUse, idle int, waitCount int64, waitDuration time.Duration) {
	if m == nil {
		return
	}
	m.dbOpenConns.Set(float64(open))
	m.dbInUseConns.Set(float64(inUse))
	m.dbIdleConns.Set(float64(idle))
	m.dbWaitCount.Set(float64(waitCount))
	m.dbWaitDurationS.Set(waitDuration.Seconds())
}

// ObserveResolverDecision records whether a therapist was assigned.
func (m *Metrics) ObserveResolverDecision(outcome string) {
	if m == nil {
		return
	}
	m.resolverDecisions.WithLabelValues(outcome).Inc()
}

// AddResolverRejections adds n rejected candidates for reason.
func (m *Metrics) AddResolverRejections(reason string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.resolverRejections.WithLabelValues(reason).Add(float64(n))
}

// ObserveOutboxDelivery records the result of one outbox event delivery.
func (m *Metrics) ObserveOutboxDelivery(eventType, result string) {
	if m == nil {
		return
	}
	m.outboxDeliveries.WithLabelValues(eventType, result).Inc()
}
