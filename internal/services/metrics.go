package services

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsCollector holds the engine-facing Prometheus metrics. Registration
// tolerates re-use so tests can build multiple collectors in one process.
type MetricsCollector struct {
	RecommendationBatches *prometheus.CounterVec
	FeedbackEvents        *prometheus.CounterVec
	SimilaritySearches    prometheus.Counter
	RecommendationLatency prometheus.Histogram
}

func NewMetricsCollector() *MetricsCollector {
	m := &MetricsCollector{
		RecommendationBatches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "muse_recommendation_batches_total",
				Help: "Recommendation batches served, labelled by outcome",
			},
			[]string{"outcome"},
		),
		FeedbackEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "muse_feedback_events_total",
				Help: "Feedback events recorded, labelled by type",
			},
			[]string{"type"},
		),
		SimilaritySearches: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "muse_similarity_searches_total",
				Help: "Similarity searches executed",
			},
		),
		RecommendationLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "muse_recommendation_duration_seconds",
				Help:    "Recommendation batch generation latency",
				Buckets: prometheus.DefBuckets,
			},
		),
	}

	m.RecommendationBatches = registerCounterVec(m.RecommendationBatches)
	m.FeedbackEvents = registerCounterVec(m.FeedbackEvents)
	m.SimilaritySearches = registerCounter(m.SimilaritySearches)
	m.RecommendationLatency = registerHistogram(m.RecommendationLatency)

	return m
}

func registerCounterVec(c *prometheus.CounterVec) *prometheus.CounterVec {
	if err := prometheus.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			return are.ExistingCollector.(*prometheus.CounterVec)
		}
	}
	return c
}

func registerCounter(c prometheus.Counter) prometheus.Counter {
	if err := prometheus.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			return are.ExistingCollector.(prometheus.Counter)
		}
	}
	return c
}

func registerHistogram(h prometheus.Histogram) prometheus.Histogram {
	if err := prometheus.Register(h); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			return are.ExistingCollector.(prometheus.Histogram)
		}
	}
	return h
}

// ObserveBatch records one served recommendation batch.
func (m *MetricsCollector) ObserveBatch(degraded bool, seconds float64) {
	if m == nil {
		return
	}
	outcome := "ranked"
	if degraded {
		outcome = "degraded"
	}
	m.RecommendationBatches.WithLabelValues(outcome).Inc()
	m.RecommendationLatency.Observe(seconds)
}

// ObserveFeedback records one feedback event by type.
func (m *MetricsCollector) ObserveFeedback(feedbackType string) {
	if m == nil {
		return
	}
	m.FeedbackEvents.WithLabelValues(feedbackType).Inc()
}

// ObserveSimilaritySearch records one similarity search.
func (m *MetricsCollector) ObserveSimilaritySearch() {
	if m == nil {
		return
	}
	m.SimilaritySearches.Inc()
}
