package metrics

import (
	"time"
)

// Recorder receives domain events worth counting. Implementations must be safe
// for concurrent use.
type Recorder interface {
	ProcessTransition(processType, from, to string)
	LeaveDecision(decision string)
	LeaveBalanceConflict()
	PayrollEmployeeOutcome(outcome string)
	PayrollRun(duration time.Duration, processed, skipped, failed int)
}

type nopRecorder struct{}

// Nop discards everything.
func Nop() Recorder { return nopRecorder{} }

func (nopRecorder) ProcessTransition(string, string, string) {}
func (nopRecorder) LeaveDecision(string)                     {}
func (nopRecorder) LeaveBalanceConflict()                    {}
func (nopRecorder) PayrollEmployeeOutcome(string)            {}
func (nopRecorder) PayrollRun(time.Duration, int, int, int)  {}
