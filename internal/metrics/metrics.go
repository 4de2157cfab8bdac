// Package metrics holds the Prometheus instruments for form traffic.  All
// collectors live on a Forms value registered with a caller-supplied
// registerer, so cmd/web can use the global registry while tests use a
// fresh one.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/yanizio/formdesk/internal/form"
)

const namespace = "formdesk"

// Outcomes recorded on SubmissionsTotal.
const (
	OutcomeAccepted  = "accepted"
	OutcomeInvalid   = "invalid"
	OutcomeReset     = "reset"
	OutcomeAbandoned = "abandoned"
	OutcomeFailed    = "failed"
)

// Forms bundles the form collectors.
type Forms struct {
	SubmissionsTotal      *prometheus.CounterVec
	FieldErrorsTotal      *prometheus.CounterVec
	ProcessingSeconds     *prometheus.HistogramVec
	PhaseTransitionsTotal *prometheus.CounterVec
}

// New builds the collectors and registers them with reg.  A nil reg skips
// registration.
func New(reg prometheus.Registerer) *Forms {
	m := &Forms{
		SubmissionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "submissions_total",
				Help:      "Form POSTs by final outcome.",
			}, []string{"form", "outcome"}),

		FieldErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "field_errors_total",
				Help:      "Field-level validation errors by reason.",
			}, []string{"form", "field", "reason"}),

		ProcessingSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "processing_seconds",
				Help:      "Time spent in the post-validation side effect.",
				Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
			}, []string{"form"}),

		PhaseTransitionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "phase_transitions_total",
				Help:      "Form session phase changes by target phase.",
			}, []string{"form", "to"}),
	}
	if reg != nil {
		reg.MustRegister(
			m.SubmissionsTotal,
			m.FieldErrorsTotal,
			m.ProcessingSeconds,
			m.PhaseTransitionsTotal,
		)
	}
	return m
}

// Observer returns a handler hook counting phase transitions.
func (m *Forms) Observer() form.Observer {
	return func(formID string, _, to form.Phase) {
		m.PhaseTransitionsTotal.WithLabelValues(formID, to.String()).Inc()
	}
}

// Instrument wraps p so every call is timed on ProcessingSeconds.
func (m *Forms) Instrument(p form.Processor) form.Processor {
	return form.ProcessorFunc(func(ctx context.Context, formID string, data form.Data) error {
		start := time.Now()
		err := p.Process(ctx, formID, data)
		m.ProcessingSeconds.WithLabelValues(formID).Observe(time.Since(start).Seconds())
		return err
	})
}

// Submission counts one POST outcome.
func (m *Forms) Submission(formID, outcome string) {
	m.SubmissionsTotal.WithLabelValues(formID, outcome).Inc()
}

// FieldErrors counts every reason attached to every field.
func (m *Forms) FieldErrors(formID string, errs map[string][]string) {
	for field, reasons := range errs {
		for _, r := range reasons {
			m.FieldErrorsTotal.WithLabelValues(formID, field, r).Inc()
		}
	}
}
