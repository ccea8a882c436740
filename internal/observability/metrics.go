// Package observability provides prometheus metrics for the application.
package observability

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all the metric collectors for the application.
type Metrics struct {
	registry    *prometheus.Registry
	Gateway     *GatewayMetrics
	Translation *TranslationMetrics
}

// NewMetrics creates a new instance of Metrics, initializing all metric
// collectors. It returns an error if any collector fails to register.
func NewMetrics() (*Metrics, error) {
	registry := prometheus.NewRegistry()

	gatewayMetrics, err := NewGatewayMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create gateway metrics: %w", err)
	}

	translationMetrics, err := NewTranslationMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create translation metrics: %w", err)
	}

	return &Metrics{
		registry:    registry,
		Gateway:     gatewayMetrics,
		Translation: translationMetrics,
	}, nil
}

// Handler returns an http.Handler serving the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// GatewayMetrics tracks calls to the remote vision model.
type GatewayMetrics struct {
	ClassifyRequests *prometheus.CounterVec
	ClassifyDuration prometheus.Histogram
	FallbackTotal    *prometheus.CounterVec
}

// NewGatewayMetrics registers the gateway collectors on the given registry.
func NewGatewayMetrics(registry *prometheus.Registry) (*GatewayMetrics, error) {
	m := &GatewayMetrics{
		ClassifyRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "signbridge_gateway_classify_requests_total",
			Help: "Total classification requests by result (remote, fallback)",
		}, []string{"result"}),
		ClassifyDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "signbridge_gateway_classify_duration_seconds",
			Help:    "Latency of remote classification calls",
			Buckets: prometheus.DefBuckets,
		}),
		FallbackTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "signbridge_gateway_fallback_total",
			Help: "Fallback activations by reason (unconfigured, network, parse)",
		}, []string{"reason"}),
	}

	collectors := []prometheus.Collector{
		m.ClassifyRequests,
		m.ClassifyDuration,
		m.FallbackTotal,
	}
	for _, c := range collectors {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// TranslationMetrics tracks the orchestration outcomes.
type TranslationMetrics struct {
	FrameOutcomes    *prometheus.CounterVec
	RecordsPersisted prometheus.Counter
	FeedbackTotal    prometheus.Counter
}

// NewTranslationMetrics registers the translation collectors on the given registry.
func NewTranslationMetrics(registry *prometheus.Registry) (*TranslationMetrics, error) {
	m := &TranslationMetrics{
		FrameOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "signbridge_translation_frame_outcomes_total",
			Help: "Frame submissions by outcome (accepted, low_confidence)",
		}, []string{"outcome"}),
		RecordsPersisted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signbridge_translation_records_persisted_total",
			Help: "Translation records persisted",
		}),
		FeedbackTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signbridge_translation_feedback_total",
			Help: "Feedback entries submitted",
		}),
	}

	collectors := []prometheus.Collector{
		m.FrameOutcomes,
		m.RecordsPersisted,
		m.FeedbackTotal,
	}
	for _, c := range collectors {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}
