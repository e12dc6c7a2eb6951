package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce         sync.Once
	apiRequestsTotal     *prometheus.CounterVec
	apiLatencySeconds    *prometheus.HistogramVec
	apiErrorsTotal       *prometheus.CounterVec
	gradingsTotal        *prometheus.CounterVec
	gradingScorePoints   prometheus.Histogram
	gradingDuration      prometheus.Histogram
	executionsTotal      *prometheus.CounterVec
	executionDuration    *prometheus.HistogramVec
	broadcastEventsTotal *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors for the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "api_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "api_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		gradingsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gradings_total",
			Help: "Total number of grading passes, by exam and result.",
		}, []string{"exam_id", "result"})

		gradingScorePoints = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "grading_score_points",
			Help:    "Distribution of final submission scores.",
			Buckets: []float64{0, 10, 25, 40, 55, 70, 85, 100},
		})

		gradingDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "grading_duration_seconds",
			Help:    "Wall-clock duration of grading passes.",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30},
		})

		executionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "executions_total",
			Help: "Total number of ad-hoc code executions, by language and result.",
		}, []string{"language", "result"})

		executionDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "execution_duration_seconds",
			Help:    "Wall-clock duration of ad-hoc code executions.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5},
		}, []string{"language"})

		broadcastEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "broadcast_events_total",
			Help: "Total number of events broadcast to websocket clients.",
		}, []string{"type"})

		prometheus.MustRegister(
			apiRequestsTotal, apiLatencySeconds, apiErrorsTotal,
			gradingsTotal, gradingScorePoints, gradingDuration,
			executionsTotal, executionDuration, broadcastEventsTotal,
		)
	})
}

// APIRequests exposes the counter for API requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for API requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for API error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// Gradings exposes the counter for grading passes.
func Gradings() *prometheus.CounterVec {
	RegisterMetrics()
	return gradingsTotal
}

// GradingScores exposes the final-score histogram.
func GradingScores() prometheus.Histogram {
	RegisterMetrics()
	return gradingScorePoints
}

// GradingDuration exposes the grading duration histogram.
func GradingDuration() prometheus.Histogram {
	RegisterMetrics()
	return gradingDuration
}

// Executions exposes the counter for ad-hoc executions.
func Executions() *prometheus.CounterVec {
	RegisterMetrics()
	return executionsTotal
}

// ExecutionDuration exposes the execution duration histogram.
func ExecutionDuration() *prometheus.HistogramVec {
	RegisterMetrics()
	return executionDuration
}

// BroadcastEvents exposes the counter for websocket broadcasts.
func BroadcastEvents() *prometheus.CounterVec {
	RegisterMetrics()
	return broadcastEventsTotal
}
