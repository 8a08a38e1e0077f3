// Package observability holds the Prometheus metrics recorded by sweeps,
// telemetry polling and the HTTP API.
package observability

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Sweep outcomes and member request results used as label values.
const (
	OutcomeComplete = "complete"
	OutcomePartial  = "partial"
	OutcomeFailed   = "failed"
	OutcomeRejected = "rejected"

	ResultOK       = "ok"
	ResultSentinel = "sentinel"
	ResultError    = "error"
)

// Metrics bundles every collector. A nil *Metrics records nothing.
type Metrics struct {
	gatherer prometheus.Gatherer

	Sweeps          *prometheus.CounterVec
	MemberRequests  *prometheus.CounterVec
	MemberDurations prometheus.Histogram
	Reconciles      *prometheus.CounterVec
	WaypointMarkers prometheus.Gauge
	HTTPRequests    *prometheus.CounterVec
}

// New registers the metrics against reg, defaulting to the global registry
// when nil. Registering twice against the same registry reuses the existing
// collectors.
func New(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	sweeps, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ensemble_sweeps_total",
		Help: "Ensemble sweeps by outcome.",
	}, []string{"outcome"}), "ensemble_sweeps_total")
	if err != nil {
		return nil, err
	}
	members, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ensemble_member_requests_total",
		Help: "Simulator requests for individual ensemble members by result.",
	}, []string{"result"}), "ensemble_member_requests_total")
	if err != nil {
		return nil, err
	}
	durations, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "ensemble_member_duration_seconds",
		Help:    "Simulator latency per ensemble member.",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	}), "ensemble_member_duration_seconds")
	if err != nil {
		return nil, err
	}
	reconciles, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "telemetry_reconcile_total",
		Help: "Telemetry reconciliation attempts by result.",
	}, []string{"result"}), "telemetry_reconcile_total")
	if err != nil {
		return nil, err
	}
	markers, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "waypoint_markers",
		Help: "Waypoint markers currently shown.",
	}), "waypoint_markers")
	if err != nil {
		return nil, err
	}
	httpRequests, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "API requests by method, route template and status code.",
	}, []string{"method", "route", "code"}), "http_requests_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		gatherer:        gatherer,
		Sweeps:          sweeps,
		MemberRequests:  members,
		MemberDurations: durations,
		Reconciles:      reconciles,
		WaypointMarkers: markers,
		HTTPRequests:    httpRequests,
	}, nil
}

func (m *Metrics) SweepFinished(outcome string) {
	if m == nil {
		return
	}
	m.Sweeps.WithLabelValues(outcome).Inc()
}

func (m *Metrics) MemberRequest(result string, d time.Duration) {
	if m == nil {
		return
	}
	m.MemberRequests.WithLabelValues(result).Inc()
	m.MemberDurations.Observe(d.Seconds())
}

func (m *Metrics) Reconciled(result string) {
	if m == nil {
		return
	}
	m.Reconciles.WithLabelValues(result).Inc()
}

func (m *Metrics) SetWaypointMarkers(n int) {
	if m == nil {
		return
	}
	m.WaypointMarkers.Set(float64(n))
}

// Handler exposes the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Middleware counts requests by their mux route template so path variables
// don't explode the label set.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		if m == nil {
			return
		}
		route := "unmatched"
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		m.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// Hijack is required by the websocket upgrade on /api/stream.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogram(reg prometheus.Registerer, h prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(h); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return h, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
