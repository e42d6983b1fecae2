package process

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, instance *Instance) error
	FindByID(ctx context.Context, id uuid.UUID) (*Instance, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Instance, error)
	UpdateStatus(ctx context.Context, instance *Instance, expectedVersion int64) (bool, error)
	AppendHistory(ctx context.Context, entry *HistoryEntry) error
	ListHistory(ctx context.Context, instanceID uuid.UUID) ([]HistoryEntry, error)
	FindLatestByReference(ctx context.Context, processType ProcessType, referenceID uuid.UUID) (*Instance, error)
	ListByEmployee(ctx context.Context, employeeID uuid.UUID) ([]Instance, error)
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

func (r *repository) Create(ctx context.Context, instance *Instance) error {
	return r.db.WithContext(ctx).Create(instance).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*Instance, error) {
	var instance Instance
	err := r.db.WithContext(ctx).First(&instance, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &instance, nil
}

func (r *repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Instance, error) {
	var instance Instance
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&instance, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &instance, nil
}

// UpdateStatus writes status, version and metadata only while the stored version still
// equals expectedVersion. It reports false when another writer got there first.
func (r *repository) UpdateStatus(ctx context.Context, instance *Instance, expectedVersion int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&Instance{}).
		Where("id = ? AND version = ?", instance.ID, expectedVersion).
		Updates(map[string]any{
			"status":     instance.Status,
			"version":    instance.Version,
			"metadata":   instance.Metadata,
			"updated_at": instance.UpdatedAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) AppendHistory(ctx context.Context, entry *HistoryEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) ListHistory(ctx context.Context, instanceID uuid.UUID) ([]HistoryEntry, error) {
	var entries []HistoryEntry
	err := r.db.WithContext(ctx).
		Where("process_instance_id = ?", instanceID).
		Order("sequence ASC").
		Find(&entries).Error
	return entries, err
}

func (r *repository) FindLatestByReference(ctx context.Context, processType ProcessType, referenceID uuid.UUID) (*Instance, error) {
	var instance Instance
	err := r.db.WithContext(ctx).
		Where("process_type = ? AND reference_id = ?", processType, referenceID).
		Order("created_at DESC").
		First(&instance).Error
	if err != nil {
		return nil, err
	}
	return &instance, nil
}

func (r *repository) ListByEmployee(ctx context.Context, employeeID uuid.UUID) ([]Instance, error) {
	var instances []Instance
	err := r.db.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Order("created_at DESC").
		Find(&instances).Error
	return instances, err
}
