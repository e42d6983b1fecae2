package payroll

import (
	"go-hris-engine/internal/compensation"
	"go-hris-engine/internal/employee"
	payrollerrors "go-hris-engine/internal/payroll/errors"

	"github.com/shopspring/decimal"
)

var (
	defaultHRARate     = decimal.RequireFromString("0.40")
	defaultDARate      = decimal.RequireFromString("0.10")
	defaultConveyance  = decimal.NewFromInt(1600)
	defaultPFRate      = decimal.RequireFromString("0.12")
	defaultESIRate     = decimal.RequireFromString("0.0075")
	defaultTaxRate     = decimal.RequireFromString("0.10")
	defaultBonus       = decimal.Zero
	defaultOtherDeduct = decimal.Zero
)

// Computation is the breakdown of one month's pay.
type Computation struct {
	BaseSalary      decimal.Decimal
	HRA             decimal.Decimal
	DA              decimal.Decimal
	Conveyance      decimal.Decimal
	Bonus           decimal.Decimal
	GrossSalary     decimal.Decimal
	PF              decimal.Decimal
	ESI             decimal.Decimal
	Tax             decimal.Decimal
	OtherDeductions decimal.Decimal
	TotalDeductions decimal.Decimal
	NetSalary       decimal.Decimal
}

// Compute derives the pay breakdown from a compensation profile. Every absent
// component falls back to its default on its own; ESI and tax defaults are
// rates of gross, PF of base. Nothing is rounded.
func Compute(e employee.Employee, profile *compensation.Profile) (Computation, error) {
	if profile == nil {
		return Computation{}, payrollerrors.ErrCompensationProfileMissing
	}
	if profile.EmployeeID != e.ID {
		return Computation{}, payrollerrors.ErrProfileEmployeeMismatch
	}
	base := profile.BaseSalary
	if base.IsNegative() {
		return Computation{}, payrollerrors.ErrNegativeBaseSalary
	}

	c := Computation{
		BaseSalary: base,
		HRA:        orDefault(profile.HRA, base.Mul(defaultHRARate)),
		DA:         orDefault(profile.DA, base.Mul(defaultDARate)),
		Conveyance: orDefault(profile.Conveyance, defaultConveyance),
		Bonus:      orDefault(profile.Bonus, defaultBonus),
	}
	c.GrossSalary = base.Add(c.HRA).Add(c.DA).Add(c.Conveyance).Add(c.Bonus)

	c.PF = orDefault(profile.PF, base.Mul(defaultPFRate))
	c.ESI = orDefault(profile.ESI, c.GrossSalary.Mul(defaultESIRate))
	c.Tax = orDefault(profile.Tax, c.GrossSalary.Mul(defaultTaxRate))
	c.OtherDeductions = orDefault(profile.OtherDeductions, defaultOtherDeduct)
	c.TotalDeductions = c.PF.Add(c.ESI).Add(c.Tax).Add(c.OtherDeductions)
	c.NetSalary = c.GrossSalary.Sub(c.TotalDeductions)

	return c, nil
}

func orDefault(v decimal.NullDecimal, fallback decimal.Decimal) decimal.Decimal {
	if v.Valid {
		return v.Decimal
	}
	return fallback
}
