// Package metrics exposes Prometheus collectors fed by the engine lifecycle hooks.
package metrics

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/triage/internal/logging"
	"github.com/aretw0/triage/pkg/domain"
)

const namespace = "triage"

// Metrics groups the triage collectors and the registry they live in.
type Metrics struct {
	registry *prometheus.Registry
	logger   *slog.Logger

	QuestionsPresented *prometheus.CounterVec
	AnswersRecorded    *prometheus.CounterVec
	FreeTextCaptured   *prometheus.CounterVec
	FlowsCompleted     prometheus.Counter
	FlowDuration       prometheus.Histogram
	EventsRejected     *prometheus.CounterVec
}

// Option configures Metrics.
type Option func(*Metrics)

// WithLogger logs every hook at debug level alongside the metric update.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Metrics) {
		m.logger = logger
	}
}

// WithProcessCollectors adds the Go runtime and process collectors.
func WithProcessCollectors() Option {
	return func(m *Metrics) {
		m.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
}

// New creates the collectors on a private registry.
func New(opts ...Option) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		logger:   logging.NewNop(),
		QuestionsPresented: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "questions_presented_total",
			Help:      "Number of question prompts posted.",
		}, []string{"question_id"}),
		AnswersRecorded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "answers_recorded_total",
			Help:      "Number of choices recorded, by question and choice.",
		}, []string{"question_id", "choice_id"}),
		FreeTextCaptured: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "free_text_captured_total",
			Help:      "Number of free-text descriptions captured after an \"other\" choice.",
		}, []string{"question_id"}),
		FlowsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flows_completed_total",
			Help:      "Number of triage sessions that reached completion.",
		}),
		FlowDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "flow_duration_seconds",
			Help:      "Time from the first prompt to completion.",
			Buckets:   []float64{30, 60, 120, 300, 600, 1200, 3600, 4 * 3600},
		}),
		EventsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_rejected_total",
			Help:      "Number of inbound events refused, by reason.",
		}, []string{"reason"}),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.registry.MustRegister(
		m.QuestionsPresented,
		m.AnswersRecorded,
		m.FreeTextCaptured,
		m.FlowsCompleted,
		m.FlowDuration,
		m.EventsRejected,
	)
	return m
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Hooks returns lifecycle hooks updating the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnQuestionEnter: func(ctx context.Context, e *domain.QuestionEvent) {
			m.logger.Debug("question_enter", "session_id", e.SessionID, "question_id", e.QuestionID, "ordinal", e.Ordinal)
			m.QuestionsPresented.WithLabelValues(string(e.QuestionID)).Inc()
		},
		OnAnswerRecorded: func(ctx context.Context, e *domain.AnswerEvent) {
			m.logger.Debug("answer_recorded", "session_id", e.SessionID, "question_id", e.QuestionID, "choice_ids", e.ChoiceIDs, "free_text", e.FreeText)
			if e.FreeText {
				m.FreeTextCaptured.WithLabelValues(string(e.QuestionID)).Inc()
				return
			}
			for _, id := range e.ChoiceIDs {
				m.AnswersRecorded.WithLabelValues(string(e.QuestionID), id).Inc()
			}
		},
		OnFlowComplete: func(ctx context.Context, e *domain.FlowEvent) {
			m.logger.Debug("flow_complete", "session_id", e.SessionID, "answered", e.Answered, "duration", e.Duration)
			m.FlowsCompleted.Inc()
			m.FlowDuration.Observe(e.Duration.Seconds())
		},
		OnEventRejected: func(ctx context.Context, e *domain.RejectionEvent) {
			m.logger.Debug("event_rejected", "session_id", e.SessionID, "question_id", e.QuestionID, "reason", e.Reason, "err", e.Err)
			m.EventsRejected.WithLabelValues(e.Reason).Inc()
		},
	}
}
