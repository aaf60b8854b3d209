package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	httpRequestsTotal     *prometheus.CounterVec
	httpLatencySeconds    *prometheus.HistogramVec
	httpErrorsTotal       *prometheus.CounterVec
	participantsEnrolled  *prometheus.CounterVec
	participantsCompleted prometheus.Counter
	responsesRecorded     *prometheus.CounterVec
	bankQuestions         prometheus.Gauge
	bankRowsSkipped       prometheus.Gauge
)

// RegisterMetrics initialises the Prometheus collectors used by the study service.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "study_http_requests_total",
			Help: "Total number of HTTP requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "study_http_latency_seconds",
			Help:    "Latency distribution for HTTP requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "study_http_errors_total",
			Help: "Total number of error responses returned.",
		}, []string{"method", "route", "status"})

		participantsEnrolled = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "study_participants_enrolled_total",
			Help: "Participants enrolled, by assigned group.",
		}, []string{"group"})

		participantsCompleted = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "study_participants_completed_total",
			Help: "Participants that exhausted the question sequence.",
		})

		responsesRecorded = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "study_responses_recorded_total",
			Help: "Answers stored, by task and correctness.",
		}, []string{"task", "correct"})

		bankQuestions = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "study_question_bank_questions",
			Help: "Questions in the most recently loaded bank.",
		})

		bankRowsSkipped = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "study_question_bank_rows_skipped",
			Help: "Rows left out of the most recently loaded bank.",
		})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			httpErrorsTotal,
			participantsEnrolled,
			participantsCompleted,
			responsesRecorded,
			bankQuestions,
			bankRowsSkipped,
		)
	})
}

// HTTPRequests exposes the request counter.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the counter for error responses.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// ParticipantsEnrolled counts enrolments per group.
func ParticipantsEnrolled() *prometheus.CounterVec {
	RegisterMetrics()
	return participantsEnrolled
}

// ParticipantsCompleted counts completions.
func ParticipantsCompleted() prometheus.Counter {
	RegisterMetrics()
	return participantsCompleted
}

// ResponsesRecorded counts stored answers.
func ResponsesRecorded() *prometheus.CounterVec {
	RegisterMetrics()
	return responsesRecorded
}

// BankQuestions reports the size of the last loaded question bank.
func BankQuestions() prometheus.Gauge {
	RegisterMetrics()
	return bankQuestions
}

// BankRowsSkipped reports rows dropped while parsing the last loaded bank.
func BankRowsSkipped() prometheus.Gauge {
	RegisterMetrics()
	return bankRowsSkipped
}
