package employee

import (
	"time"

	"go-hris-engine/internal/compensation"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	StatusActive   = "ACTIVE"
	StatusInactive = "INACTIVE"
)

type Employee struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey"`
	FullName         string    `gorm:"type:varchar(150);not null"`
	Email            string    `gorm:"type:varchar(150);not null;uniqueIndex"`
	EmploymentStatus string    `gorm:"type:varchar(20);not null;default:'ACTIVE';index"`
	HireDate         time.Time `gorm:"type:date;not null"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (e *Employee) BeforeCreate(*gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// WithCompensation pairs an active employee with their profile; Profile is nil
// when none is on file.
type WithCompensation struct {
	Employee Employee
	Profile  *compensation.Profile
}
