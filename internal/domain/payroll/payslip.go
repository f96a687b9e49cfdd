package payroll

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"zenpayroll/internal/domain/company"
	"zenpayroll/internal/domain/core"
)

type Payslip struct {
	Record   Record
	Employee core.Employee
	Company  company.Company
}

var amounts = message.NewPrinter(language.English)

// FormatAmount renders v with thousands separators and the currency code.
// The PDF core fonts cannot draw most currency symbols.
func FormatAmount(currency string, v float64) string {
	if currency == "" {
		return amounts.Sprintf("%.2f", v)
	}
	return amounts.Sprintf("%s %.2f", currency, v)
}

// WritePayslipPDF renders slip as a one-page A4 document.
func WritePayslipPDF(w io.Writer, slip Payslip) error {
	r := slip.Record
	currency := slip.Company.Currency

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Payslip "+r.ID, true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, tr(slip.Company.Name))
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 8, fmt.Sprintf("Payslip %s  |  %s %d", r.ID, r.Month, r.Year))
	pdf.Ln(12)

	pdf.Cell(0, 7, tr(fmt.Sprintf("Employee: %s (%s)", slip.Employee.Name, slip.Employee.ID)))
	pdf.Ln(6)
	if slip.Employee.Role != "" || slip.Employee.Department != "" {
		pdf.Cell(0, 7, tr(fmt.Sprintf("Position: %s, %s", slip.Employee.Role, slip.Employee.Department)))
		pdf.Ln(6)
	}
	pdf.Cell(0, 7, fmt.Sprintf("Status: %s  |  Generated: %s", r.Status, r.GeneratedAt.Format("2006-01-02 15:04 MST")))
	pdf.Ln(12)

	line := func(label string, v float64) {
		pdf.CellFormat(110, 7, label, "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 7, FormatAmount(currency, v), "", 1, "R", false, 0, "")
	}
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Earnings")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 11)
	s := slip.Employee.SalaryStructure
	line("Basic", s.Basic)
	line("House rent", s.HRA)
	line("Transport", s.Transport)
	line("Medical", s.Medical)
	if r.OvertimeHours != 0 {
		line(fmt.Sprintf("Overtime (%g h)", r.OvertimeHours), r.OvertimeHours*r.OvertimeRate)
	}
	if r.Bonuses != 0 {
		line("Bonus", r.Bonuses)
	}
	pdf.SetFont("Helvetica", "B", 11)
	line("Gross salary", r.GrossSalary)
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Deductions")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 11)
	line(fmt.Sprintf("Tax (%g%%)", r.TaxPercent), r.Tax)
	if r.VAT != 0 {
		line(fmt.Sprintf("VAT (%g%%)", r.VATPercent), r.VAT)
	}
	if r.OtherDeductions != 0 {
		line(fmt.Sprintf("Unpaid leave (%g days)", r.UnpaidLeaves), r.OtherDeductions)
	}
	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 13)
	line("Net salary", r.NetSalary)

	if explanation, ok := r.Breakdown[BreakdownTaxExplanation].(string); ok && explanation != "" {
		pdf.Ln(8)
		pdf.SetFont("Helvetica", "I", 9)
		pdf.MultiCell(0, 5, tr(explanation), "", "L", false)
	}
	if note, ok := r.Breakdown[BreakdownComplianceNote].(string); ok && note != "" {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.MultiCell(0, 5, tr("Note: "+note), "", "L", false)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render payslip %s: %w", r.ID, err)
	}
	return nil
}
