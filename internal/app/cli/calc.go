package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"zenpayroll/internal/domain/core"
	"zenpayroll/internal/domain/payroll"
)

// NewCalcCommand previews a payslip without touching storage.
func NewCalcCommand(opts *RootOptions) *cobra.Command {
	var (
		structure core.SalaryStructure
		adj       payroll.Adjustments
	)

	cmd := &cobra.Command{
		Use:          "calc",
		Short:        "Compute a payslip preview from a salary structure",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			preview := payroll.Calculate(structure, adj)
			out := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
			return out.Success(preview, func(w io.Writer) {
				fmt.Fprintf(w, "Base pay        %12.2f\n", preview.BasePay)
				fmt.Fprintf(w, "Overtime        %12.2f\n", preview.OvertimeTotal)
				fmt.Fprintf(w, "Bonus           %12.2f\n", preview.Bonus)
				fmt.Fprintf(w, "Gross           %12.2f\n", preview.Gross)
				fmt.Fprintf(w, "Leave deduction %12.2f\n", preview.LeaveDeduction)
				fmt.Fprintf(w, "Tax             %12.2f\n", preview.Tax)
				fmt.Fprintf(w, "VAT             %12.2f\n", preview.VAT)
				fmt.Fprintf(w, "Net             %12.2f\n", preview.Net)
			})
		},
	}

	f := cmd.Flags()
	f.Float64Var(&structure.Basic, "basic", 0, "basic salary")
	f.Float64Var(&structure.HRA, "hra", 0, "house rent allowance")
	f.Float64Var(&structure.Transport, "transport", 0, "transport allowance")
	f.Float64Var(&structure.Medical, "medical", 0, "medical allowance")
	f.Float64Var(&adj.OvertimeHours, "overtime-hours", 0, "overtime hours")
	f.Float64Var(&adj.OvertimeRate, "overtime-rate", 0, "overtime rate per hour")
	f.Float64Var(&adj.Bonus, "bonus", 0, "bonus amount")
	f.Float64Var(&adj.UnpaidLeaveDays, "unpaid-days", 0, "unpaid leave days")
	f.Float64Var(&adj.UnpaidLeaveRate, "unpaid-rate", 0, "deduction per unpaid day")
	f.Float64Var(&adj.TaxPercent, "tax", 0, "income tax percent")
	f.Float64Var(&adj.VATPercent, "vat", 0, "VAT percent")
	return cmd
}
