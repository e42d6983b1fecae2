package leave

import (
	"context"
	"time"

	"go-hris-engine/internal/shared/scope"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, l *Leave) error
	FindByID(ctx context.Context, id uuid.UUID) (*Leave, error)
	FindAllByEmployee(ctx context.Context, employeeID uuid.UUID) ([]Leave, error)
	Update(ctx context.Context, l *Leave) error
	HasOverlappingPeriod(ctx context.Context, employeeID uuid.UUID, startDate, endDate time.Time) (bool, error)

	FindBalanceByEmployeeID(ctx context.Context, employeeID uuid.UUID) (*Balance, error)
	CreateBalanceIfAbsent(ctx context.Context, b *Balance) (bool, error)
	UpdateBalance(ctx context.Context, b *Balance, expectedVersion int64) (bool, error)
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

func (r *repository) Create(ctx context.Context, l *Leave) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*Leave, error) {
	var l Leave
	err := r.db.WithContext(ctx).First(&l, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *repository) FindAllByEmployee(ctx context.Context, employeeID uuid.UUID) ([]Leave, error) {
	var leaves []Leave
	err := r.db.WithContext(ctx).
		Scopes(scope.Employee(employeeID)).
		Order("start_date DESC").
		Find(&leaves).Error
	return leaves, err
}

func (r *repository) Update(ctx context.Context, l *Leave) error {
	return r.db.WithContext(ctx).Save(l).Error
}

func (r *repository) HasOverlappingPeriod(ctx context.Context, employeeID uuid.UUID, startDate, endDate time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&Leave{}).
		Scopes(scope.Employee(employeeID)).
		Where("status <> ?", StatusRejected).
		Where("NOT (end_date < ? OR start_date > ?)", startDate, endDate).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) FindBalanceByEmployeeID(ctx context.Context, employeeID uuid.UUID) (*Balance, error) {
	var b Balance
	err := r.db.WithContext(ctx).
		Scopes(scope.Employee(employeeID)).
		First(&b).Error
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// CreateBalanceIfAbsent inserts b unless the employee already has a balance.
// It reports whether a row was written.
func (r *repository) CreateBalanceIfAbsent(ctx context.Context, b *Balance) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "employee_id"}},
			DoNothing: true,
		}).
		Create(b)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// UpdateBalance is a compare-and-swap on version. b.Version must already hold the
// new version; false means another writer changed the row since it was read.
func (r *repository) UpdateBalance(ctx context.Context, b *Balance, expectedVersion int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&Balance{}).
		Where("id = ? AND version = ?", b.ID, expectedVersion).
		Updates(map[string]any{
			"earned_leave":    b.EarnedLeave,
			"casual_leave":    b.CasualLeave,
			"sick_leave":      b.SickLeave,
			"period_end_date": b.PeriodEndDate,
			"version":         b.Version,
			"updated_at":      b.UpdatedAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
