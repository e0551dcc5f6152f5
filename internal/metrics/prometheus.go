// Package metrics contains middlewares and counters for metrics gathering.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
)

// HTTP Requests total counter
var totalRequests = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "HTTP Requests.",
	},
	[]string{"path"},
)

// HTTP Response status
var duration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name: "http_duration",
		Help: "HTTP Requests Duration",
	},
	[]string{"path"},
)

// Booking validation outcomes
var validations = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "booking_validations_total",
		Help: "Booking validations by outcome.",
	},
	[]string{"outcome"},
)

// Conflicts listed on rejection reports
var conflictsReported = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "booking_conflicts_reported_total",
		Help: "Conflicts listed on rejection reports.",
	},
)

// Appointments flipped to completed by the sweeper
var appointmentsSwept = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "appointments_swept_total",
		Help: "Appointments flipped to completed by the status sweeper.",
	},
)

func init() {
	for _, collector := range []prometheus.Collector{totalRequests, duration, validations, conflictsReported, appointmentsSwept} {
		if err := prometheus.Register(collector); err != nil {
			panic(err)
		}
	}
}

// PrometheusMiddleware instruments the given request and register metrics.
func PrometheusMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		timer := prometheus.NewTimer(duration.WithLabelValues(r.RequestURI))
		next.ServeHTTP(w, r)
		totalRequests.WithLabelValues(r.RequestURI).Inc()
		timer.ObserveDuration()
	})
}

// RecordValidation counts a booking validation outcome.
func RecordValidation(accepted bool) {
	outcome := "rejected"
	if accepted {
		outcome = "accepted"
	}
	validations.WithLabelValues(outcome).Inc()
}

// RecordConflicts counts the conflicts listed on rejection reports.
func RecordConflicts(count int) {
	conflictsReported.Add(float64(count))
}

// RecordSwept counts appointments flipped to completed.
func RecordSwept(count int) {
	appointmentsSwept.Add(float64(count))
}
