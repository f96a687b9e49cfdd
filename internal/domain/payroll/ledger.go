package payroll

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/shopspring/decimal"
)

var ledgerHeader = []string{"ID", "Employee", "Month", "Year", "Gross", "Net", "Status"}

// WriteLedgerCSV writes one row per record. names maps employee ids to display
// names; unknown ids are written as-is.
func WriteLedgerCSV(w io.Writer, records []Record, names map[string]string) error {
	out := csv.NewWriter(w)
	if err := out.Write(ledgerHeader); err != nil {
		return err
	}
	for _, r := range records {
		name := names[r.EmployeeID]
		if name == "" {
			name = r.EmployeeID
		}
		row := []string{
			r.ID,
			name,
			r.Month,
			strconv.Itoa(r.Year),
			decimal.NewFromFloat(r.GrossSalary).StringFixed(2),
			decimal.NewFromFloat(r.NetSalary).StringFixed(2),
			string(r.Status),
		}
		if err := out.Write(row); err != nil {
			return err
		}
	}
	out.Flush()
	return out.Error()
}
