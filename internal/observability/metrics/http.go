package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "archivo"

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	loanTransitionsTotal *prometheus.CounterVec
	auditWritesTotal     *prometheus.CounterVec
	loginAttemptsTotal   *prometheus.CounterVec
	reportRows           *prometheus.HistogramVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	loanTransitionsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "loans",
			Name:      "transitions_total",
			Help:      "Loan workflow transitions by action and outcome.",
		},
		[]string{"service", "action", "outcome"},
	)
	auditWritesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "audit",
			Name:      "writes_total",
			Help:      "Audit log writes by path (tx, best_effort) and outcome.",
		},
		[]string{"service", "path", "outcome"},
	)
	loginAttemptsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "login_attempts_total",
			Help:      "Login attempts by outcome.",
		},
		[]string{"service", "outcome"},
	)
	reportRows := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "reports",
			Name:      "rows",
			Help:      "Rows written per generated workbook.",
			Buckets:   []float64{0, 10, 100, 500, 1000, 5000, 10000, 20000},
		},
		[]string{"service", "report"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		loanTransitionsTotal,
		auditWritesTotal,
		loginAttemptsTotal,
		reportRows,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &HTTPServerMetrics{
		registry:             registry,
		requestTotal:         requestTotal,
		requestDuration:      requestDuration,
		requestInFlight:      requestInFlight,
		loanTransitionsTotal: loanTransitionsTotal,
		auditWritesTotal:     auditWritesTotal,
		loginAttemptsTotal:   loginAttemptsTotal,
		reportRows:           reportRows,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// normalizePath collapses numeric ids so every case file or loan shares one label value.
func normalizePath(path string) string {
	parts := strings.Split(path, "/")
	for i, p := range parts {
		if p == "" {
			continue
		}
		if _, err := strconv.ParseInt(p, 10, 64); err == nil {
			parts[i] = "{id}"
		}
	}
	return strings.Join(parts, "/")
}

// AuditMetrics binds the audit counter to one service label.
type AuditMetrics struct {
	m       *HTTPServerMetrics
	service string
}

func (m *HTTPServerMetrics) ForAudit(service string) *AuditMetrics {
	return &AuditMetrics{m: m, service: service}
}

func (a *AuditMetrics) RecordAuditWrite(path, outcome string) {
	a.m.auditWritesTotal.WithLabelValues(a.service, path, outcome).Inc()
}

func (m *HTTPServerMetrics) RecordLoanTransition(service, action string, err error) {
	m.loanTransitionsTotal.WithLabelValues(service, action, outcomeOf(err)).Inc()
}

func (m *HTTPServerMetrics) RecordLogin(service string, err error) {
	m.loginAttemptsTotal.WithLabelValues(service, outcomeOf(err)).Inc()
}

func (m *HTTPServerMetrics) RecordReport(service, report string, rows int) {
	m.reportRows.WithLabelValues(service, report).Observe(float64(rows))
}

func outcomeOf(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}
