package metrics

import (
	"net/http"
	"time"

	"github.com/perpdesk/perpdesk/internal/domain/models"
	"github.com/perpdesk/perpdesk/pkg/stream"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "perpdesk"

// SignFlowMetrics counts signing flow activity from the snapshot stream. It
// keeps its own registry so several instances never collide.
type SignFlowMetrics struct {
	registry *prometheus.Registry

	StepsStarted        *prometheus.CounterVec
	StepFailures        *prometheus.CounterVec
	StepDuration        *prometheus.HistogramVec
	TransactionsSettled prometheus.Counter
	FlowsCompleted      prometheus.Counter

	now func() time.Time
}

// NewSignFlowMetrics creates the collectors and registers them
func NewSignFlowMetrics() *SignFlowMetrics {
	m := &SignFlowMetrics{
		registry: prometheus.NewRegistry(),
		StepsStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sign_flow_steps_started_total",
			Help:      "Signing flow steps entered, by step",
		}, []string{"step"}),
		StepFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sign_flow_step_failures_total",
			Help:      "Signing flow steps that halted the flow, by step",
		}, []string{"step"}),
		StepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sign_flow_step_duration_seconds",
			Help:      "Time spent in each signing flow step",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 60, 120},
		}, []string{"step"}),
		TransactionsSettled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transactions_settled_total",
			Help:      "Transactions confirmed or broadcast by the chain",
		}),
		FlowsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sign_flows_completed_total",
			Help:      "Signing flows that settled every transaction",
		}),
		now: time.Now,
	}

	m.registry.MustRegister(
		m.StepsStarted,
		m.StepFailures,
		m.StepDuration,
		m.TransactionsSettled,
		m.FlowsCompleted,
	)
	return m
}

// Registry exposes the private registry
func (m *SignFlowMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the prometheus exposition format
func (m *SignFlowMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Observe consumes snapshots from sub until it is closed
func (m *SignFlowMetrics) Observe(sub *stream.Subscription[models.SignFlowState]) {
	var (
		seen      bool
		lastIdx   int
		lastStep  models.SignFlowStep
		lastErr   error
		stepSince time.Time
	)

	finishStep := func() {
		if lastStep != models.StepNone && lastErr == nil {
			m.StepDuration.WithLabelValues(string(lastStep)).Observe(m.now().Sub(stepSince).Seconds())
		}
	}

	for s := range sub.C() {
		if !seen {
			seen = true
			lastIdx = s.CurrentTxIndex
		}

		if s.CurrentTxIndex > lastIdx {
			m.TransactionsSettled.Add(float64(s.CurrentTxIndex - lastIdx))
		}

		switch {
		case s.IsDone:
			finishStep()
			if len(s.Transactions) > 0 {
				m.TransactionsSettled.Inc()
			}
			m.FlowsCompleted.Inc()

		case s.Error != nil:
			if s.Error != lastErr {
				finishStep()
				m.StepFailures.WithLabelValues(string(s.Step)).Inc()
			}

		case s.Step != lastStep || s.CurrentTxIndex != lastIdx || lastErr != nil:
			finishStep()
			m.StepsStarted.WithLabelValues(string(s.Step)).Inc()
			stepSince = m.now()
		}

		lastIdx, lastStep, lastErr = s.CurrentTxIndex, s.Step, s.Error
		if s.IsDone {
			lastStep = models.StepNone
		}
	}
}
