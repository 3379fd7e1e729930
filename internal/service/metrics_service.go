package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

// MetricsService encapsulates Prometheus instrumentation for the billing API.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	duesDuration    *prometheus.HistogramVec
	paymentsTotal   prometheus.Counter
	paymentAmount   prometheus.Counter
	revalidationHit prometheus.Counter
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	duesDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pending_dues_calculation_seconds",
		Help:    "Duration of pending dues calculations",
		Buckets: prometheus.DefBuckets,
	}, []string{"scope"})

	paymentsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "payments_registered_total",
		Help: "Total number of committed payments",
	})

	paymentAmount := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "payments_amount_total",
		Help: "Sum of committed payment totals",
	})

	revalidationHit := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "payment_revalidation_conflicts_total",
		Help: "Payments rejected because an item was no longer pending at commit time",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, duesDuration, paymentsTotal, paymentAmount, revalidationHit, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		duesDuration:    duesDuration,
		paymentsTotal:   paymentsTotal,
		paymentAmount:   paymentAmount,
		revalidationHit: revalidationHit,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// ObserveDuesCalculation records one pending dues computation.
// scope is "student" or "report".
func (m *MetricsService) ObserveDuesCalculation(scope string, duration time.Duration) {
	if m == nil {
		return
	}
	m.duesDuration.WithLabelValues(scope).Observe(duration.Seconds())
}

// RecordPayment counts a committed payment and its total.
func (m *MetricsService) RecordPayment(total decimal.Decimal) {
	if m == nil {
		return
	}
	m.paymentsTotal.Inc()
	amount, _ := total.Float64()
	m.paymentAmount.Add(amount)
}

// RecordRevalidationConflict counts a payment rejected at commit time.
func (m *MetricsService) RecordRevalidationConflict() {
	if m == nil {
		return
	}
	m.revalidationHit.Inc()
}
