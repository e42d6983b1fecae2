package compensation

import (
	"context"
	"errors"

	"go-hris-engine/internal/shared/scope"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:generate mockgen -source=compensation_repo.go -destination=mock/compensation_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	// FindByEmployeeID returns nil, nil when the employee has no profile.
	FindByEmployeeID(ctx context.Context, employeeID uuid.UUID) (*Profile, error)
	Upsert(ctx context.Context, p *Profile) error
	EmployeeExists(ctx context.Context, employeeID uuid.UUID) (bool, error)
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

func (r *repository) FindByEmployeeID(ctx context.Context, employeeID uuid.UUID) (*Profile, error) {
	var p Profile
	err := r.db.WithContext(ctx).
		Scopes(scope.Employee(employeeID)).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Upsert replaces every component of the employee's profile, keeping its id.
func (r *repository) Upsert(ctx context.Context, p *Profile) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "employee_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"base_salary", "hra", "da", "conveyance", "bonus",
				"pf", "esi", "tax", "other_deductions", "updated_at",
			}),
		}).
		Create(p).Error
	if err != nil {
		return err
	}

	// on conflict the stored row keeps its original id, so reload it
	var stored Profile
	if err := r.db.WithContext(ctx).
		Scopes(scope.Employee(p.EmployeeID)).
		First(&stored).Error; err != nil {
		return err
	}
	*p = stored
	return nil
}

func (r *repository) EmployeeExists(ctx context.Context, employeeID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("employees").
		Where("id = ?", employeeID).
		Count(&count).Error
	return count > 0, err
}
