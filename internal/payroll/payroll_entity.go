package payroll

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	StatusNotCreated       = "NOT_CREATED"
	StatusCreated          = "CREATED"
	StatusPayslipGenerated = "PAYSLIP_GENERATED"
	StatusPayslipSent      = "PAYSLIP_SENT"
)

// LineItem is one employee's settled pay for one month. Amounts are stored
// unrounded.
type LineItem struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	EmployeeID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_payroll_line_items_employee_period,priority:1"`
	Month      int       `gorm:"not null;uniqueIndex:uq_payroll_line_items_employee_period,priority:2;index:idx_payroll_line_items_period,priority:1"`
	Year       int       `gorm:"not null;uniqueIndex:uq_payroll_line_items_employee_period,priority:3;index:idx_payroll_line_items_period,priority:2"`

	BaseSalary      decimal.Decimal `gorm:"type:numeric;not null"`
	HRA             decimal.Decimal `gorm:"type:numeric;not null"`
	DA              decimal.Decimal `gorm:"type:numeric;not null"`
	Conveyance      decimal.Decimal `gorm:"type:numeric;not null"`
	Bonus           decimal.Decimal `gorm:"type:numeric;not null"`
	GrossSalary     decimal.Decimal `gorm:"type:numeric;not null"`
	PF              decimal.Decimal `gorm:"type:numeric;not null"`
	ESI             decimal.Decimal `gorm:"type:numeric;not null"`
	Tax             decimal.Decimal `gorm:"type:numeric;not null"`
	OtherDeductions decimal.Decimal `gorm:"type:numeric;not null"`
	TotalDeductions decimal.Decimal `gorm:"type:numeric;not null"`
	NetSalary       decimal.Decimal `gorm:"type:numeric;not null"`

	Status             string     `gorm:"type:varchar(30);not null;default:'NOT_CREATED'"`
	RunNumber          int64      `gorm:"not null;default:0"`
	ProcessInstanceID  *uuid.UUID `gorm:"type:uuid"`
	ArtifactPath       *string    `gorm:"type:text"`
	PayslipGeneratedAt *time.Time
	PayslipSentAt      *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (LineItem) TableName() string { return "payroll_line_items" }

func (l *LineItem) BeforeCreate(*gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// apply copies computed amounts onto the line item.
func (l *LineItem) apply(c Computation) {
	l.BaseSalary = c.BaseSalary
	l.HRA = c.HRA
	l.DA = c.DA
	l.Conveyance = c.Conveyance
	l.Bonus = c.Bonus
	l.GrossSalary = c.GrossSalary
	l.PF = c.PF
	l.ESI = c.ESI
	l.Tax = c.Tax
	l.OtherDeductions = c.OtherDeductions
	l.TotalDeductions = c.TotalDeductions
	l.NetSalary = c.NetSalary
}
