package leave

import (
	"time"

	"github.com/samber/lo"
)

const dateLayout = "2006-01-02"

func mapToResponse(l Leave) LeaveResponse {
	resp := LeaveResponse{
		ID:         l.ID.String(),
		EmployeeID: l.EmployeeID.String(),
		LeaveType:  l.LeaveType,
		StartDate:  l.StartDate.Format(dateLayout),
		EndDate:    l.EndDate.Format(dateLayout),
		TotalDays:  l.TotalDays,
		Reason:     l.Reason,
		Status:     l.Status,
		AppliedBy:  l.AppliedBy.String(),
		Remarks:    l.Remarks,
	}
	if l.ProcessInstanceID != nil {
		resp.ProcessInstanceID = lo.ToPtr(l.ProcessInstanceID.String())
	}
	if l.DecidedBy != nil {
		resp.DecidedBy = lo.ToPtr(l.DecidedBy.String())
	}
	if l.DecidedAt != nil {
		resp.DecidedAt = lo.ToPtr(l.DecidedAt.Format(time.RFC3339))
	}
	return resp
}

func mapToListResponse(leaves []Leave) []LeaveResponse {
	return lo.Map(leaves, func(l Leave, _ int) LeaveResponse {
		return mapToResponse(l)
	})
}

func mapToBalanceResponse(b Balance) BalanceResponse {
	return BalanceResponse{
		EmployeeID:    b.EmployeeID.String(),
		EarnedLeave:   b.EarnedLeave,
		CasualLeave:   b.CasualLeave,
		SickLeave:     b.SickLeave,
		PeriodEndDate: b.PeriodEndDate.Format(dateLayout),
	}
}
