package payroll_test

import (
	"testing"

	"go-hris-engine/internal/compensation"
	"go-hris-engine/internal/employee"
	"go-hris-engine/internal/payroll"
	payrollerrors "go-hris-engine/internal/payroll/errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func present(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(dec(s))
}

func TestCompute_DefaultsFromBaseOnly(t *testing.T) {
	e := employee.Employee{ID: uuid.New()}
	profile := &compensation.Profile{EmployeeID: e.ID, BaseSalary: dec("50000")}

	c, err := payroll.Compute(e, profile)
	require.NoError(t, err)

	want := map[string]struct{ got, want decimal.Decimal }{
		"hra":              {c.HRA, dec("20000")},
		"da":               {c.DA, dec("5000")},
		"conveyance":       {c.Conveyance, dec("1600")},
		"bonus":            {c.Bonus, dec("0")},
		"gross":            {c.GrossSalary, dec("76600")},
		"pf":               {c.PF, dec("6000")},
		"esi":              {c.ESI, dec("574.5")},
		"tax":              {c.Tax, dec("7660")},
		"other_deductions": {c.OtherDeductions, dec("0")},
		"total_deductions": {c.TotalDeductions, dec("14234.5")},
		"net":              {c.NetSalary, dec("62365.5")},
	}
	for name, v := range want {
		assert.Truef(t, v.got.Equal(v.want), "%s: got %s want %s", name, v.got, v.want)
	}
}

func TestCompute_PresentFieldsOverrideDefaultsIndividually(t *testing.T) {
	e := employee.Employee{ID: uuid.New()}
	profile := &compensation.Profile{
		EmployeeID: e.ID,
		BaseSalary: dec("40000"),
		HRA:        present("0"),
		Bonus:      present("2500"),
		Tax:        present("3000"),
	}

	c, err := payroll.Compute(e, profile)
	require.NoError(t, err)

	assert.True(t, c.HRA.Equal(dec("0")), "explicit zero is kept")
	assert.True(t, c.DA.Equal(dec("4000")))
	assert.True(t, c.GrossSalary.Equal(dec("48100")))
	assert.True(t, c.PF.Equal(dec("4800")))
	assert.True(t, c.ESI.Equal(dec("360.75")))
	assert.True(t, c.Tax.Equal(dec("3000")))
	assert.True(t, c.TotalDeductions.Equal(dec("8160.75")))
	assert.True(t, c.NetSalary.Equal(dec("39939.25")))
}

func TestCompute_NetIsGrossMinusDeductions(t *testing.T) {
	bases := []string{"0", "1", "999.99", "12345.67", "250000"}
	for _, base := range bases {
		e := employee.Employee{ID: uuid.New()}
		c, err := payroll.Compute(e, &compensation.Profile{EmployeeID: e.ID, BaseSalary: dec(base)})
		require.NoError(t, err)

		assert.True(t, c.NetSalary.Equal(c.GrossSalary.Sub(c.TotalDeductions)), base)
		assert.True(t, c.GrossSalary.GreaterThanOrEqual(c.BaseSalary), base)
	}
}

func TestCompute_Preconditions(t *testing.T) {
	e := employee.Employee{ID: uuid.New()}

	_, err := payroll.Compute(e, nil)
	assert.ErrorIs(t, err, payrollerrors.ErrCompensationProfileMissing)

	_, err = payroll.Compute(e, &compensation.Profile{EmployeeID: e.ID, BaseSalary: dec("-1")})
	assert.ErrorIs(t, err, payrollerrors.ErrNegativeBaseSalary)

	_, err = payroll.Compute(e, &compensation.Profile{EmployeeID: uuid.New(), BaseSalary: dec("100")})
	assert.ErrorIs(t, err, payrollerrors.ErrProfileEmployeeMismatch)
}
