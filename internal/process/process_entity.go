package process

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ProcessType string

const (
	TypeLeave      ProcessType = "LEAVE"
	TypeOnboarding ProcessType = "ONBOARDING"
	TypePayroll    ProcessType = "PAYROLL"
)

type Status string

const (
	StatusInitiated        Status = "INITIATED"
	StatusApproved         Status = "APPROVED"
	StatusRejected         Status = "REJECTED"
	StatusVerified         Status = "VERIFIED"
	StatusCompleted        Status = "COMPLETED"
	StatusPayslipGenerated Status = "PAYSLIP_GENERATED"
	StatusPayslipSent      Status = "PAYSLIP_SENT"
)

// Instance is one tracked process. LEAVE and ONBOARDING allow a single instance
// per reference; every payroll run opens a new PAYROLL instance for its line item.
type Instance struct {
	ID          uuid.UUID   `gorm:"type:uuid;primaryKey"`
	ProcessType ProcessType `gorm:"type:varchar(20);not null;index:idx_process_reference,priority:1;uniqueIndex:idx_process_single_reference,priority:1,where:process_type <> 'PAYROLL'"`
	ReferenceID uuid.UUID   `gorm:"type:uuid;not null;index:idx_process_reference,priority:2;uniqueIndex:idx_process_single_reference,priority:2,where:process_type <> 'PAYROLL'"`
	EmployeeID  uuid.UUID   `gorm:"type:uuid;not null;index"`
	Status      Status      `gorm:"type:varchar(30);not null"`
	InitiatedBy *uuid.UUID  `gorm:"type:uuid"`
	Version     int64       `gorm:"not null;default:1"`
	Metadata    datatypes.JSONMap

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Instance) TableName() string { return "process_instances" }

func (i *Instance) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

type HistoryEntry struct {
	ID                uuid.UUID  `gorm:"type:uuid;primaryKey"`
	ProcessInstanceID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_history_sequence,priority:1"`
	Sequence          int64      `gorm:"not null;uniqueIndex:idx_history_sequence,priority:2"`
	FromStatus        Status     `gorm:"type:varchar(30)"`
	Action            Status     `gorm:"type:varchar(30);not null"`
	ActorID           *uuid.UUID `gorm:"type:uuid"`
	Remarks           string     `gorm:"type:text"`
	Metadata          datatypes.JSONMap

	CreatedAt time.Time
}

func (HistoryEntry) TableName() string { return "process_history_entries" }

func (h *HistoryEntry) BeforeCreate(*gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return nil
}
