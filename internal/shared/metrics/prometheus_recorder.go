package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	OutcomeProcessed = "processed"
	OutcomeSkipped   = "skipped"
	OutcomeFailed    = "failed"
)

// PrometheusRecorder owns a private registry so several recorders can coexist in tests.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	processTransitions *prometheus.CounterVec
	leaveDecisions     *prometheus.CounterVec
	leaveConflicts     prometheus.Counter
	payrollOutcomes    *prometheus.CounterVec
	payrollRunDuration prometheus.Histogram
	payrollRunItems    *prometheus.GaugeVec
}

func NewPrometheusRecorder() *PrometheusRecorder {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &PrometheusRecorder{
		registry: registry,
		processTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hris_process_transitions_total",
			Help: "Process status transitions written to history.",
		}, []string{"process_type", "from", "to"}),
		leaveDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hris_leave_decisions_total",
			Help: "Leave requests approved or rejected.",
		}, []string{"decision"}),
		leaveConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hris_leave_balance_conflicts_total",
			Help: "Optimistic lock conflicts on leave balances.",
		}),
		payrollOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hris_payroll_employee_outcomes_total",
			Help: "Per-employee outcomes of payroll runs.",
		}, []string{"outcome"}),
		payrollRunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "hris_payroll_run_duration_seconds",
			Help:    "Wall time of FinalizeForPeriod.",
			Buckets: prometheus.DefBuckets,
		}),
		payrollRunItems: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "hris_payroll_last_run_employees",
			Help: "Employee counts of the most recent payroll run.",
		}, []string{"outcome"}),
	}

	registry.MustRegister(
		r.processTransitions,
		r.leaveDecisions,
		r.leaveConflicts,
		r.payrollOutcomes,
		r.payrollRunDuration,
		r.payrollRunItems,
	)

	return r
}

func (r *PrometheusRecorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

func (r *PrometheusRecorder) ProcessTransition(processType, from, to string) {
	r.processTransitions.WithLabelValues(processType, from, to).Inc()
}

func (r *PrometheusRecorder) LeaveDecision(decision string) {
	r.leaveDecisions.WithLabelValues(decision).Inc()
}

func (r *PrometheusRecorder) LeaveBalanceConflict() {
	r.leaveConflicts.Inc()
}

func (r *PrometheusRecorder) PayrollEmployeeOutcome(outcome string) {
	r.payrollOutcomes.WithLabelValues(outcome).Inc()
}

func (r *PrometheusRecorder) PayrollRun(duration time.Duration, processed, skipped, failed int) {
	r.payrollRunDuration.Observe(duration.Seconds())
	r.payrollRunItems.WithLabelValues(OutcomeProcessed).Set(float64(processed))
	r.payrollRunItems.WithLabelValues(OutcomeSkipped).Set(float64(skipped))
	r.payrollRunItems.WithLabelValues(OutcomeFailed).Set(float64(failed))
}
