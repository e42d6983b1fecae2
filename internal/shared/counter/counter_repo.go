package counter

import (
	"context"
	"fmt"
	"time"

	"go-hris-engine/internal/shared/apperror"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Counter is a monotonic sequence keyed by period, e.g. payroll run numbers.
type Counter struct {
	PeriodKey string `gorm:"primaryKey;size:100"`
	LastValue int64  `gorm:"not null;default:0"`
	UpdatedAt time.Time
}

func (Counter) TableName() string { return "payroll_run_counters" }

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	GetNextValue(ctx context.Context, periodKey string) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{db: tx}
}

// GetNextValue bumps the counter atomically and returns the new value.
// The first call for a key returns 1.
func (r *repository) GetNextValue(ctx context.Context, periodKey string) (int64, error) {
	row := Counter{PeriodKey: periodKey, LastValue: 1, UpdatedAt: time.Now()}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "period_key"}},
		DoUpdates: clause.Assignments(map[string]any{
			"last_value": gorm.Expr("payroll_run_counters.last_value + 1"),
			"updated_at": row.UpdatedAt,
		}),
	}).Create(&row).Error
	if err != nil {
		return 0, apperror.FromStore(err)
	}

	var current Counter
	if err := r.db.WithContext(ctx).Where("period_key = ?", periodKey).Take(&current).Error; err != nil {
		return 0, apperror.FromStore(err)
	}

	return current.LastValue, nil
}

// PayrollRunKey names the counter used to number payroll runs of one period.
func PayrollRunKey(month, year int) string {
	return fmt.Sprintf("payroll_run:%04d-%02d", year, month)
}
