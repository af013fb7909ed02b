package services

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics interface {
	ObserveInitialize(d time.Duration, err error)
	ObserveScoreSubmission(d time.Duration, err error)
	IncAdvancement(corrected bool)
	IncEventPublishFailure(eventType EventType)
}

type NoOpMetrics struct{}

func (NoOpMetrics) ObserveInitialize(time.Duration, error) {}
func (NoOpMetrics) ObserveScoreSubmission(time.Duration, error) {}
func (NoOpMetrics) IncAdvancement(bool) {}
func (NoOpMetrics) IncEventPublishFailure(EventType) {}

type prometheusMetrics struct {
	initDuration    *prometheus.HistogramVec
	scoreDuration   *prometheus.HistogramVec
	advancements    *prometheus.CounterVec
	publishFailures *prometheus.CounterVec
}

// NewPrometheusMetrics регистрирует метрики движка в переданном реестре.
func NewPrometheusMetrics(reg prometheus.Registerer) (Metrics, error) {
	m := &prometheusMetrics{
		initDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "padelflow",
			Name:      "tournament_initialize_seconds",
			Help:      "Duration of tournament initialization.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"result"}),
		scoreDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "padelflow",
			Name:      "score_submission_seconds",
			Help:      "Duration of score submission including winner advancement.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"result"}),
		advancements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "padelflow",
			Name:      "winner_advancements_total",
			Help:      "Winners moved into a parent match.",
		}, []string{"corrected"}),
		publishFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "padelflow",
			Name:      "event_publish_failures_total",
			Help:      "Events that could not be delivered to a publisher.",
		}, []string{"type"}),
	}

	for _, c := range []prometheus.Collector{m.initDuration, m.scoreDuration, m.advancements, m.publishFailures} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (m *prometheusMetrics) ObserveInitialize(d time.Duration, err error) {
	m.initDuration.WithLabelValues(resultLabel(err)).Observe(d.Seconds())
}

func (m *prometheusMetrics) ObserveScoreSubmission(d time.Duration, err error) {
	m.scoreDuration.WithLabelValues(resultLabel(err)).Observe(d.Seconds())
}

func (m *prometheusMetrics) IncAdvancement(corrected bool) {
	label := "false"
	if corrected {
		label = "true"
	}
	m.advancements.WithLabelValues(label).Inc()
}

func (m *prometheusMetrics) IncEventPublishFailure(eventType EventType) {
	m.publishFailures.WithLabelValues(string(eventType)).Inc()
}
