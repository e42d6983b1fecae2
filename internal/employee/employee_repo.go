package employee

import (
	"context"
	"time"

	"go-hris-engine/internal/compensation"
	"go-hris-engine/internal/shared/scope"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Directory is the read side payroll depends on.
type Directory interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Employee, error)
	ListActiveWithCompensation(ctx context.Context) ([]WithCompensation, error)
}

//go:generate mockgen -source=employee_repo.go -destination=mock/employee_repo_mock.go -package=mock
type Repository interface {
	Directory
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, e *Employee) error
	Upsert(ctx context.Context, e *Employee) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) (bool, error)
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

func (r *repository) Create(ctx context.Context, e *Employee) error {
	return r.db.WithContext(ctx).Create(e).Error
}

// Upsert writes the projection of an employee received from the lifecycle topic.
// Replaying the same event leaves the row unchanged apart from updated_at.
func (r *repository) Upsert(ctx context.Context, e *Employee) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"full_name", "email", "hire_date", "updated_at"}),
		}).
		Create(e).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*Employee, error) {
	var e Employee
	err := r.db.WithContext(ctx).First(&e, "id = ?", id).Error
	return &e, err
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&Employee{}).
		Where("id = ?", id).
		Updates(map[string]any{"employment_status": status, "updated_at": time.Now().UTC()})
	return res.RowsAffected > 0, res.Error
}

type compensationRow struct {
	ID               uuid.UUID
	FullName         string
	Email            string
	EmploymentStatus string
	HireDate         time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time

	ProfileID              uuid.NullUUID
	ProfileBaseSalary      decimal.NullDecimal
	ProfileHRA             decimal.NullDecimal `gorm:"column:profile_hra"`
	ProfileDA              decimal.NullDecimal `gorm:"column:profile_da"`
	ProfileConveyance      decimal.NullDecimal
	ProfileBonus           decimal.NullDecimal
	ProfilePF              decimal.NullDecimal `gorm:"column:profile_pf"`
	ProfileESI             decimal.NullDecimal `gorm:"column:profile_esi"`
	ProfileTax             decimal.NullDecimal
	ProfileOtherDeductions decimal.NullDecimal
}

// ListActiveWithCompensation loads every active employee and their profile in a
// single LEFT JOIN, ordered by name.
func (r *repository) ListActiveWithCompensation(ctx context.Context) ([]WithCompensation, error) {
	var rows []compensationRow
	err := r.db.WithContext(ctx).
		Table("employees AS e").
		Select(`e.id, e.full_name, e.email, e.employment_status, e.hire_date, e.created_at, e.updated_at,
			c.id AS profile_id,
			c.base_salary AS profile_base_salary,
			c.hra AS profile_hra,
			c.da AS profile_da,
			c.conveyance AS profile_conveyance,
			c.bonus AS profile_bonus,
			c.pf AS profile_pf,
			c.esi AS profile_esi,
			c.tax AS profile_tax,
			c.other_deductions AS profile_other_deductions`).
		Joins("LEFT JOIN compensation_profiles AS c ON c.employee_id = e.id").
		Scopes(scope.Active()).
		Order("e.full_name ASC, e.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	return lo.Map(rows, func(row compensationRow, _ int) WithCompensation {
		return row.toModel()
	}), nil
}

func (row compensationRow) toModel() WithCompensation {
	out := WithCompensation{
		Employee: Employee{
			ID:               row.ID,
			FullName:         row.FullName,
			Email:            row.Email,
			EmploymentStatus: row.EmploymentStatus,
			HireDate:         row.HireDate,
			CreatedAt:        row.CreatedAt,
			UpdatedAt:        row.UpdatedAt,
		},
	}
	if !row.ProfileID.Valid {
		return out
	}
	out.Profile = &compensation.Profile{
		ID:              row.ProfileID.UUID,
		EmployeeID:      row.ID,
		BaseSalary:      row.ProfileBaseSalary.Decimal,
		HRA:             row.ProfileHRA,
		DA:              row.ProfileDA,
		Conveyance:      row.ProfileConveyance,
		Bonus:           row.ProfileBonus,
		PF:              row.ProfilePF,
		ESI:             row.ProfileESI,
		Tax:             row.ProfileTax,
		OtherDeductions: row.ProfileOtherDeductions,
	}
	return out
}
