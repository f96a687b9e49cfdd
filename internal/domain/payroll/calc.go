package payroll

import (
	"fmt"

	"github.com/shopspring/decimal"

	"zenpayroll/internal/domain/core"
)

var (
	hundred = decimal.NewFromInt(100)
	half    = decimal.NewFromFloat(0.5)
)

// Calculate derives the payslip preview from a salary structure. Tax and VAT
// are rounded to whole units, half up, before they are subtracted. Negative
// inputs are not rejected.
func Calculate(structure core.SalaryStructure, adj Adjustments) Preview {
	basePay := dec(structure.Basic).Add(dec(structure.HRA)).Add(dec(structure.Transport)).Add(dec(structure.Medical))
	overtime := dec(adj.OvertimeHours).Mul(dec(adj.OvertimeRate))
	leave := dec(adj.UnpaidLeaveDays).Mul(dec(adj.UnpaidLeaveRate))
	bonus := dec(adj.Bonus)
	gross := basePay.Add(overtime).Add(bonus)
	tax := roundHalfUp(gross.Mul(dec(adj.TaxPercent)).Div(hundred))
	vat := roundHalfUp(gross.Mul(dec(adj.VATPercent)).Div(hundred))
	net := gross.Sub(leave.Add(tax).Add(vat))

	items := structure.CustomItems
	if items == nil {
		items = []core.CustomSalaryItem{}
	}
	return Preview{
		BasePay:        basePay.InexactFloat64(),
		OvertimeTotal:  overtime.InexactFloat64(),
		Bonus:          bonus.InexactFloat64(),
		LeaveDeduction: leave.InexactFloat64(),
		Gross:          gross.InexactFloat64(),
		Tax:            tax.InexactFloat64(),
		VAT:            vat.InexactFloat64(),
		Net:            net.InexactFloat64(),
		CustomItems:    items,
	}
}

// Verify reports whether a record satisfies net = gross - (tax + vat + other).
func Verify(r Record) error {
	want := dec(r.GrossSalary).Sub(dec(r.Tax).Add(dec(r.VAT)).Add(dec(r.OtherDeductions)))
	if !want.Equal(dec(r.NetSalary)) {
		return fmt.Errorf("%w: record %s has net %s, expected %s", ErrNetMismatch, r.ID, dec(r.NetSalary).String(), want.String())
	}
	return nil
}

// roundHalfUp matches rounding toward +inf on .5, so -2.5 becomes -2.
func roundHalfUp(d decimal.Decimal) decimal.Decimal {
	return d.Add(half).Floor()
}

func dec(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}
