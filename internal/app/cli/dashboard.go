package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"zenpayroll/internal/domain/reports"
)

type dashboardResult struct {
	Company   string            `json:"company"`
	Role      string            `json:"role"`
	Tabs      []string          `json:"tabs"`
	Dashboard reports.Dashboard `json:"dashboard"`
}

// NewDashboardCommand signs in through a workspace and prints the dashboard
// figures of one company as that user would see them.
func NewDashboardCommand(opts *RootOptions) *cobra.Command {
	var email, password, companyID string

	cmd := &cobra.Command{
		Use:          "dashboard",
		Short:        "Print dashboard statistics for a signed-in user",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := openApp(ctx, opts)
			if err != nil {
				return err
			}
			defer app.Close()

			ws := app.Workspace()
			if err := ws.SignIn(ctx, email, password); err != nil {
				return WrapExitError(ExitFailure, "sign in", err)
			}
			defer ws.SignOut(ctx)
			if companyID != "" {
				if err := ws.SwitchCompany(ctx, companyID); err != nil {
					return WrapExitError(ExitFailure, "switch company", err)
				}
			}

			current, _ := ws.CurrentCompany()
			result := dashboardResult{
				Company:   current.Name,
				Role:      string(ws.Session().Role()),
				Tabs:      ws.Tabs(),
				Dashboard: ws.Dashboard(),
			}
			out := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
			out.VerboseLog("signed in as %s", ws.Session().Actor())
			return out.Success(result, func(w io.Writer) {
				d := result.Dashboard
				fmt.Fprintf(w, "%s (%s)\n", result.Company, result.Role)
				fmt.Fprintf(w, "Total payroll     %s%.2f\n", current.Symbol, d.TotalPayroll)
				fmt.Fprintf(w, "Active employees  %d\n", d.ActiveEmployees)
				fmt.Fprintf(w, "Average salary    %s%.2f\n", current.Symbol, d.AverageSalary)
				if d.LastPayout != nil {
					fmt.Fprintf(w, "Last payout       %s%.2f (%s %d)\n", current.Symbol, d.LastPayout.Amount, d.LastPayout.Month, d.LastPayout.Year)
				}
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	cmd.Flags().StringVar(&companyID, "company", "", "company id (first company when empty)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
