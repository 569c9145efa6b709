package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	QueriesExecuted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "maiko_queries_executed_total", Help: "Query objects executed, by outcome.",
	}, []string{"outcome"})
	QueryDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "maiko_query_duration_seconds",
		Help:    "Time spent executing query objects.",
		Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
	})

	LLMRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "maiko_llm_requests_total", Help: "LLM round trips, by caller and outcome.",
	}, []string{"caller", "outcome"})
	LLMDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "maiko_llm_request_duration_seconds",
		Help:    "Latency of LLM round trips.",
		Buckets: prometheus.ExponentialBuckets(0.25, 2, 8),
	}, []string{"caller"})

	QuestionsAnswered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "maiko_questions_answered_total", Help: "Questions handled by the chat service, by outcome.",
	}, []string{"outcome"})
	Replans = promauto.NewCounter(prometheus.CounterOpts{
		Name: "maiko_replans_total", Help: "Query plans regenerated after an execution error.",
	})
	Ratings = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "maiko_answer_ratings",
		Help:    "Ratings users gave to answers.",
		Buckets: []float64{1, 2, 3, 4, 5},
	})
)
