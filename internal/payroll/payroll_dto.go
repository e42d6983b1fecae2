package payroll

import (
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// AdjustLineItemRequest overrides components of a line item that has not been
// issued yet. Amounts are decimal strings; omitted fields keep the profile value.
type AdjustLineItemRequest struct {
	HRA             *string `json:"hra" validate:"omitempty,numeric"`
	DA              *string `json:"da" validate:"omitempty,numeric"`
	Conveyance      *string `json:"conveyance" validate:"omitempty,numeric"`
	Bonus           *string `json:"bonus" validate:"omitempty,numeric"`
	PF              *string `json:"pf" validate:"omitempty,numeric"`
	ESI             *string `json:"esi" validate:"omitempty,numeric"`
	Tax             *string `json:"tax" validate:"omitempty,numeric"`
	OtherDeductions *string `json:"other_deductions" validate:"omitempty,numeric"`
	Remarks         string  `json:"remarks" validate:"max=500"`
}

type LineItemResponse struct {
	ID                 string  `json:"id"`
	EmployeeID         string  `json:"employee_id"`
	Month              int     `json:"month"`
	Year               int     `json:"year"`
	BaseSalary         string  `json:"base_salary"`
	HRA                string  `json:"hra"`
	DA                 string  `json:"da"`
	Conveyance         string  `json:"conveyance"`
	Bonus              string  `json:"bonus"`
	GrossSalary        string  `json:"gross_salary"`
	PF                 string  `json:"pf"`
	ESI                string  `json:"esi"`
	Tax                string  `json:"tax"`
	OtherDeductions    string  `json:"other_deductions"`
	TotalDeductions    string  `json:"total_deductions"`
	NetSalary          string  `json:"net_salary"`
	Status             string  `json:"status"`
	RunNumber          int64   `json:"run_number"`
	ProcessInstanceID  *string `json:"process_instance_id,omitempty"`
	ArtifactPath       *string `json:"artifact_path,omitempty"`
	PayslipGeneratedAt *string `json:"payslip_generated_at,omitempty"`
	PayslipSentAt      *string `json:"payslip_sent_at,omitempty"`
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func mapToResponse(item LineItem) LineItemResponse {
	resp := LineItemResponse{
		ID:              item.ID.String(),
		EmployeeID:      item.EmployeeID.String(),
		Month:           item.Month,
		Year:            item.Year,
		BaseSalary:      money(item.BaseSalary),
		HRA:             money(item.HRA),
		DA:              money(item.DA),
		Conveyance:      money(item.Conveyance),
		Bonus:           money(item.Bonus),
		GrossSalary:     money(item.GrossSalary),
		PF:              money(item.PF),
		ESI:             money(item.ESI),
		Tax:             money(item.Tax),
		OtherDeductions: money(item.OtherDeductions),
		TotalDeductions: money(item.TotalDeductions),
		NetSalary:       money(item.NetSalary),
		Status:          item.Status,
		RunNumber:       item.RunNumber,
		ArtifactPath:    item.ArtifactPath,
	}

	if item.ProcessInstanceID != nil {
		resp.ProcessInstanceID = lo.ToPtr(item.ProcessInstanceID.String())
	}
	if item.PayslipGeneratedAt != nil {
		resp.PayslipGeneratedAt = lo.ToPtr(item.PayslipGeneratedAt.Format(time.RFC3339))
	}
	if item.PayslipSentAt != nil {
		resp.PayslipSentAt = lo.ToPtr(item.PayslipSentAt.Format(time.RFC3339))
	}

	return resp
}

func mapToListResponse(items []LineItem) []LineItemResponse {
	return lo.Map(items, func(item LineItem, _ int) LineItemResponse {
		return mapToResponse(item)
	})
}
