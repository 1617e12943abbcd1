// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	QueriesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "covidvisor_queries_processed_total",
			Help: "Total number of queries turned into intent records",
		},
		[]string{"intent"},
	)

	QueriesFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "covidvisor_queries_failed_total",
			Help: "Total number of queries that could not be processed",
		},
		[]string{"error_code"},
	)

	QueryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "covidvisor_query_duration_seconds",
			Help: "Duration of query understanding in seconds",
		},
	)

	InferenceDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "covidvisor_inference_duration_seconds",
			Help: "Duration of model server requests in seconds",
		},
		[]string{"model"},
	)

	InferenceFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "covidvisor_inference_failures_total",
			Help: "Total number of failed model server requests",
		},
		[]string{"model"},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "covidvisor_cache_lookups_total",
			Help: "Result cache lookups by outcome",
		},
		[]string{"result"},
	)

	AnswersServed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "covidvisor_answers_total",
			Help: "Answers produced by the case statistics engine",
		},
		[]string{"intent", "outcome"},
	)

	SpeechDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "covidvisor_speech_duration_seconds",
			Help: "Duration of transcription and text-to-speech in seconds",
		},
		[]string{"stage", "status"},
	)
)
