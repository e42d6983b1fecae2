// Package payslip renders payroll line items as single-page PDF files.
package payslip

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go-hris-engine/internal/employee"
	"go-hris-engine/internal/payroll"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type Generator struct {
	dir    string
	logger *zap.Logger
}

func NewGenerator(dir string, logger ...*zap.Logger) *Generator {
	l := zap.L().Named("payslip.generator")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("payslip.generator")
	}
	return &Generator{dir: dir, logger: l}
}

// Path returns where the payslip of an employee for a period is written. A
// later run for the same period overwrites the file.
func (g *Generator) Path(employeeID uuid.UUID, month, year int) string {
	return filepath.Join(g.dir, fmt.Sprintf("%04d-%02d", year, month), employeeID.String()+".pdf")
}

func (g *Generator) Generate(ctx context.Context, e employee.Employee, item payroll.LineItem) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	path := g.Path(e.ID, item.Month, item.Year)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create payslip dir: %w", err)
	}

	// write then rename so readers never see a half-written file
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buildSimplePDF(Lines(e, item)), 0o644); err != nil {
		return "", fmt.Errorf("write payslip: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("store payslip: %w", err)
	}

	g.logger.Debug("payslip written",
		zap.String("employee_id", e.ID.String()),
		zap.String("line_item_id", item.ID.String()),
		zap.String("path", path),
	)
	return path, nil
}

var titleCaser = cases.Title(language.English)

// Lines is the text content of a payslip. Amounts are rounded to two places.
func Lines(e employee.Employee, item payroll.LineItem) []string {
	period := time.Date(item.Year, time.Month(item.Month), 1, 0, 0, 0, 0, time.UTC)
	row := func(label string, v decimal.Decimal) string {
		return fmt.Sprintf("%-20s %15s", label, v.StringFixed(2))
	}

	return []string{
		"PAYSLIP " + period.Format("January 2006"),
		"Employee: " + titleCaser.String(e.FullName),
		"Employee ID: " + e.ID.String(),
		fmt.Sprintf("Run: %d", item.RunNumber),
		"",
		"EARNINGS",
		row("Base salary", item.BaseSalary),
		row("HRA", item.HRA),
		row("DA", item.DA),
		row("Conveyance", item.Conveyance),
		row("Bonus", item.Bonus),
		row("Gross salary", item.GrossSalary),
		"",
		"DEDUCTIONS",
		row("PF", item.PF),
		row("ESI", item.ESI),
		row("Tax", item.Tax),
		row("Other deductions", item.OtherDeductions),
		row("Total deductions", item.TotalDeductions),
		"",
		row("NET SALARY", item.NetSalary),
	}
}
