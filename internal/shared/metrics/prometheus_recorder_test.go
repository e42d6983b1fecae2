package metrics_test

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go-hris-engine/internal/shared/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestPrometheusRecorder_Counters(t *testing.T) {
	r := metrics.NewPrometheusRecorder()

	r.ProcessTransition("LEAVE", "INITIATED", "APPROVED")
	r.ProcessTransition("LEAVE", "INITIATED", "APPROVED")
	r.LeaveDecision("APPROVED")
	r.LeaveBalanceConflict()
	r.PayrollEmployeeOutcome(metrics.OutcomeSkipped)
	r.PayrollRun(1500*time.Millisecond, 3, 1, 0)

	expected := `
# HELP hris_process_transitions_total Process status transitions written to history.
# TYPE hris_process_transitions_total counter
hris_process_transitions_total{from="INITIATED",process_type="LEAVE",to="APPROVED"} 2
`
	assert.NoError(t, testutil.GatherAndCompare(r.Registry(), strings.NewReader(expected), "hris_process_transitions_total"))

	expected = `
# HELP hris_payroll_last_run_employees Employee counts of the most recent payroll run.
# TYPE hris_payroll_last_run_employees gauge
hris_payroll_last_run_employees{outcome="failed"} 0
hris_payroll_last_run_employees{outcome="processed"} 3
hris_payroll_last_run_employees{outcome="skipped"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(r.Registry(), strings.NewReader(expected), "hris_payroll_last_run_employees"))

	count, err := testutil.GatherAndCount(r.Registry(), "hris_leave_balance_conflicts_total", "hris_leave_decisions_total")
	assert.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestPrometheusRecorder_Handler(t *testing.T) {
	r := metrics.NewPrometheusRecorder()
	r.LeaveDecision("REJECTED")

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), `hris_leave_decisions_total{decision="REJECTED"} 1`)
}

func TestNop(t *testing.T) {
	r := metrics.Nop()
	assert.NotPanics(t, func() {
		r.ProcessTransition("PAYROLL", "", "INITIATED")
		r.PayrollRun(time.Second, 0, 0, 0)
	})
}
