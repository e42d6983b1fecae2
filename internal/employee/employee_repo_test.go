package employee_test

import (
	"context"
	"testing"
	"time"

	"go-hris-engine/internal/compensation"
	"go-hris-engine/internal/employee"
	"go-hris-engine/internal/shared/testutil"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hireDate() time.Time {
	return time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
}

func TestDirectory_ListActiveWithCompensation(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewSQLiteDB(t, &employee.Employee{}, &compensation.Profile{})
	repo := employee.NewRepository(db)

	withProfile := &employee.Employee{FullName: "Asha Rao", Email: "asha@example.com", EmploymentStatus: employee.StatusActive, HireDate: hireDate()}
	withoutProfile := &employee.Employee{FullName: "Bilal Khan", Email: "bilal@example.com", EmploymentStatus: employee.StatusActive, HireDate: hireDate()}
	inactive := &employee.Employee{FullName: "Chen Li", Email: "chen@example.com", EmploymentStatus: employee.StatusInactive, HireDate: hireDate()}
	for _, e := range []*employee.Employee{withProfile, withoutProfile, inactive} {
		require.NoError(t, repo.Create(ctx, e))
	}

	require.NoError(t, db.Create(&compensation.Profile{
		EmployeeID: withProfile.ID,
		BaseSalary: decimal.NewFromInt(50000),
		HRA:        decimal.NewNullDecimal(decimal.NewFromInt(18000)),
	}).Error)

	rows, err := repo.ListActiveWithCompensation(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, withProfile.ID, rows[0].Employee.ID)
	assert.Equal(t, "asha@example.com", rows[0].Employee.Email)
	require.NotNil(t, rows[0].Profile)
	assert.True(t, rows[0].Profile.BaseSalary.Equal(decimal.NewFromInt(50000)))
	assert.True(t, rows[0].Profile.HRA.Valid)
	assert.True(t, rows[0].Profile.HRA.Decimal.Equal(decimal.NewFromInt(18000)))
	assert.False(t, rows[0].Profile.DA.Valid)
	assert.Equal(t, withProfile.ID, rows[0].Profile.EmployeeID)

	assert.Equal(t, withoutProfile.ID, rows[1].Employee.ID)
	assert.Nil(t, rows[1].Profile)
}

func TestRepository_UpsertProjection(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewSQLiteDB(t, &employee.Employee{})
	repo := employee.NewRepository(db)

	id := uuid.New()
	first := &employee.Employee{ID: id, FullName: "Dana", Email: "dana@example.com", EmploymentStatus: employee.StatusActive, HireDate: hireDate()}
	require.NoError(t, repo.Upsert(ctx, first))

	again := &employee.Employee{ID: id, FullName: "Dana Smith", Email: "dana@example.com", EmploymentStatus: employee.StatusActive, HireDate: hireDate()}
	require.NoError(t, repo.Upsert(ctx, again))

	var count int64
	require.NoError(t, db.Model(&employee.Employee{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	stored, err := repo.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Dana Smith", stored.FullName)
}

func TestRepository_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewSQLiteDB(t, &employee.Employee{}, &compensation.Profile{})
	repo := employee.NewRepository(db)

	e := &employee.Employee{FullName: "Eve", Email: "eve@example.com", EmploymentStatus: employee.StatusActive, HireDate: hireDate()}
	require.NoError(t, repo.Create(ctx, e))

	ok, err := repo.UpdateStatus(ctx, e.ID, employee.StatusInactive)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.UpdateStatus(ctx, uuid.New(), employee.StatusInactive)
	require.NoError(t, err)
	assert.False(t, ok)

	rows, err := repo.ListActiveWithCompensation(ctx)
	require.NoError(t, err)
	assert.Empty(t, rows)
}
