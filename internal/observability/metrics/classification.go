package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kirillkom/docclass/internal/core/domain"
)

const namespace = "docclass"

// ClassificationMetrics implements ports.ClassificationObserver.
type ClassificationMetrics struct {
	service string

	total      *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	confidence *prometheus.HistogramVec
	degraded   prometheus.Counter
}

func NewClassificationMetrics(service string, registerer prometheus.Registerer) *ClassificationMetrics {
	total := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "classifier",
			Name:      "classifications_total",
			Help:      "Classification calls by predicted category or error kind.",
		},
		[]string{"service", "category", "outcome"},
	)
	duration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "classifier",
			Name:      "duration_seconds",
			Help:      "End-to-end classification duration in seconds.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60},
		},
		[]string{"service", "outcome"},
	)
	confidence := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "classifier",
			Name:      "confidence",
			Help:      "Confidence of the winning category.",
			Buckets:   []float64{0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1},
		},
		[]string{"service", "category"},
	)
	degraded := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "classifier",
			Name:        "normalization_fallback_total",
			Help:        "Classifications that ran on fallback-normalized text.",
			ConstLabels: prometheus.Labels{"service": service},
		},
	)

	registerer.MustRegister(total, duration, confidence, degraded)

	return &ClassificationMetrics{
		service:    service,
		total:      total,
		duration:   duration,
		confidence: confidence,
		degraded:   degraded,
	}
}

func (m *ClassificationMetrics) ObserveClassification(result *domain.ClassificationResult, duration time.Duration, err error) {
	if err != nil {
		kind := domain.ErrorKind(err)
		m.total.WithLabelValues(m.service, "", kind).Inc()
		m.duration.WithLabelValues(m.service, kind).Observe(duration.Seconds())
		return
	}
	m.total.WithLabelValues(m.service, result.Category, "success").Inc()
	m.duration.WithLabelValues(m.service, "success").Observe(duration.Seconds())
	m.confidence.WithLabelValues(m.service, result.Category).Observe(result.Confidence)
	if result.Degraded {
		m.degraded.Inc()
	}
}
