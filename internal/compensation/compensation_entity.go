package compensation

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Profile is an employee's pay structure. A NULL optional component means the
// payroll computation falls back to its default for that component.
type Profile struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey"`
	EmployeeID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex"`
	BaseSalary decimal.Decimal `gorm:"type:numeric;not null"`

	HRA             decimal.NullDecimal `gorm:"type:numeric"`
	DA              decimal.NullDecimal `gorm:"type:numeric"`
	Conveyance      decimal.NullDecimal `gorm:"type:numeric"`
	Bonus           decimal.NullDecimal `gorm:"type:numeric"`
	PF              decimal.NullDecimal `gorm:"type:numeric"`
	ESI             decimal.NullDecimal `gorm:"type:numeric"`
	Tax             decimal.NullDecimal `gorm:"type:numeric"`
	OtherDeductions decimal.NullDecimal `gorm:"type:numeric"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Profile) TableName() string { return "compensation_profiles" }

func (p *Profile) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
