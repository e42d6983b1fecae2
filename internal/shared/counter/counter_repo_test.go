package counter_test

import (
	"context"
	"testing"

	"go-hris-engine/internal/shared/counter"
	"go-hris-engine/internal/shared/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository_GetNextValue(t *testing.T) {
	db := testutil.NewSQLiteDB(t, &counter.Counter{})
	repo := counter.NewRepository(db)
	ctx := context.Background()

	key := counter.PayrollRunKey(11, 2025)
	assert.Equal(t, "payroll_run:2025-11", key)

	for want := int64(1); want <= 3; want++ {
		got, err := repo.GetNextValue(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	other, err := repo.GetNextValue(ctx, counter.PayrollRunKey(12, 2025))
	require.NoError(t, err)
	assert.Equal(t, int64(1), other)
}
