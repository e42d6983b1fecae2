package process

// transitions lists, per process type, the statuses reachable from each status.
// A status missing from a type's map is terminal.
var transitions = map[ProcessType]map[Status][]Status{
	TypeLeave: {
		StatusInitiated: {StatusApproved, StatusRejected},
	},
	TypeOnboarding: {
		StatusInitiated: {StatusVerified, StatusRejected},
		StatusVerified:  {StatusCompleted, StatusRejected},
	},
	TypePayroll: {
		StatusInitiated:        {StatusPayslipGenerated},
		StatusPayslipGenerated: {StatusPayslipSent},
		StatusPayslipSent:      {StatusCompleted},
	},
}

func (t ProcessType) Valid() bool {
	_, ok := transitions[t]
	return ok
}

// CanTransition reports whether a process of type t may move from one status to another.
func CanTransition(t ProcessType, from, to Status) bool {
	for _, next := range transitions[t][from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition leaves status s for type t.
func IsTerminal(t ProcessType, s Status) bool {
	return len(transitions[t][s]) == 0
}
