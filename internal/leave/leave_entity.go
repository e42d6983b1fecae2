package leave

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	StatusPending  = "PENDING"
	StatusApproved = "APPROVED"
	StatusRejected = "REJECTED"
)

const (
	TypeCasual = "CASUAL"
	TypeEarned = "EARNED"
	TypeSick   = "SICK"
)

type Leave struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	EmployeeID uuid.UUID `gorm:"type:uuid;not null;index:idx_leaves_employee_dates"`

	LeaveType string    `gorm:"type:varchar(20);not null;default:'CASUAL'"`
	StartDate time.Time `gorm:"type:date;not null;index:idx_leaves_employee_dates"`
	EndDate   time.Time `gorm:"type:date;not null;index:idx_leaves_employee_dates"`
	TotalDays int       `gorm:"type:int;not null;default:1"`
	Reason    string    `gorm:"type:text"`

	Status            string     `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	ProcessInstanceID *uuid.UUID `gorm:"type:uuid"`
	AppliedBy         uuid.UUID  `gorm:"type:uuid;not null"`
	DecidedBy         *uuid.UUID `gorm:"type:uuid"`
	DecidedAt         *time.Time
	Remarks           *string `gorm:"type:text"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Leave) TableName() string { return "leave_requests" }

func (l *Leave) BeforeCreate(*gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// Balance holds remaining days per leave category for one employee.
type Balance struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	EmployeeID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	EarnedLeave   int       `gorm:"not null;default:0"`
	CasualLeave   int       `gorm:"not null;default:0"`
	SickLeave     int       `gorm:"not null;default:0"`
	PeriodEndDate time.Time `gorm:"type:date;not null"`
	Version       int64     `gorm:"not null;default:1"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Balance) TableName() string { return "leave_balances" }

func (b *Balance) BeforeCreate(*gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// Policy is the annual entitlement a new or reset balance starts from.
type Policy struct {
	EarnedLeave int
	CasualLeave int
	SickLeave   int
}

// DaysApplied counts calendar days between start and end, both inclusive.
func DaysApplied(start, end time.Time) int {
	return int(end.Sub(start).Hours()/24) + 1
}

// periodEnd is the last day of the calendar year containing t.
func periodEnd(t time.Time) time.Time {
	return time.Date(t.Year(), time.December, 31, 0, 0, 0, 0, time.UTC)
}
