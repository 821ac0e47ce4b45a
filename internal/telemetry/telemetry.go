// Package telemetry exports walk progress as Prometheus metrics.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rfielding/kripke-cover/kripke"
)

// Recorder is a kripke.WalkObserver backed by Prometheus collectors.
type Recorder struct {
	model string

	coverage    *prometheus.GaugeVec
	transitions *prometheus.CounterVec
	restarts    *prometheus.CounterVec
	paths       *prometheus.GaugeVec
}

// NewRecorder registers the walk collectors with reg. Metrics are labeled
// with the model name.
func NewRecorder(reg prometheus.Registerer, model string) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		model: model,
		coverage: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "kripke_path_coverage",
			Help: "Distinct completed paths observed by the steering metric",
		}, []string{"model"}),
		transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "kripke_transitions_executed_total",
			Help: "Transitions executed by the walker",
		}, []string{"model"}),
		restarts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "kripke_restarts_total",
			Help: "Model restarts by reason",
		}, []string{"model", "reason"}),
		paths: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "kripke_path_attempts",
			Help: "Path attempts by outcome (started, completed, dropped)",
		}, []string{"model", "outcome"}),
	}
}

func (r *Recorder) OnStep(runID string, ev kripke.Event, coverage float64) {
	r.transitions.WithLabelValues(r.model).Inc()
	r.coverage.WithLabelValues(r.model).Set(coverage)
}

func (r *Recorder) OnRestart(runID string, reason kripke.RestartReason) {
	r.restarts.WithLabelValues(r.model, string(reason)).Inc()
}

// ObserveTotals publishes the path metric's attempt counters.
func (r *Recorder) ObserveTotals(totals kripke.PathTotals) {
	r.paths.WithLabelValues(r.model, "started").Set(float64(totals.Started))
	r.paths.WithLabelValues(r.model, "completed").Set(float64(totals.Completed))
	r.paths.WithLabelValues(r.model, "dropped").Set(float64(totals.Dropped))
}

// Handler serves the registry in the Prometheus exposition format.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

var _ kripke.WalkObserver = (*Recorder)(nil)
