package payroll

import (
	"context"

	"go-hris-engine/internal/shared/scope"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	// Upsert inserts the line item or overwrites the existing one for the same
	// employee and period, then reloads the stored row into item.
	Upsert(ctx context.Context, item *LineItem) error
	FindByID(ctx context.Context, id uuid.UUID) (*LineItem, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*LineItem, error)
	ListByPeriod(ctx context.Context, month, year int) ([]LineItem, error)
	Update(ctx context.Context, item *LineItem) error
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

var upsertColumns = []string{
	"base_salary", "hra", "da", "conveyance", "bonus", "gross_salary",
	"pf", "esi", "tax", "other_deductions", "total_deductions", "net_salary",
	"status", "run_number", "process_instance_id", "artifact_path",
	"payslip_generated_at", "payslip_sent_at", "updated_at",
}

func (r *repository) Upsert(ctx context.Context, item *LineItem) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "employee_id"}, {Name: "month"}, {Name: "year"}},
			DoUpdates: clause.AssignmentColumns(upsertColumns),
		}).
		Create(item).Error
	if err != nil {
		return err
	}

	var stored LineItem
	if err := r.db.WithContext(ctx).
		Scopes(scope.Employee(item.EmployeeID), scope.Period(item.Month, item.Year)).
		Take(&stored).Error; err != nil {
		return err
	}
	*item = stored
	return nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*LineItem, error) {
	var item LineItem
	err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error
	return &item, err
}

func (r *repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*LineItem, error) {
	var item LineItem
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&item, "id = ?", id).Error
	return &item, err
}

func (r *repository) ListByPeriod(ctx context.Context, month, year int) ([]LineItem, error) {
	var items []LineItem
	err := r.db.WithContext(ctx).
		Scopes(scope.Period(month, year)).
		Order("employee_id ASC").
		Find(&items).Error
	return items, err
}

func (r *repository) Update(ctx context.Context, item *LineItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}
