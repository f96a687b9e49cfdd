package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"zenpayroll/internal/domain/auth"
)

type seedResult struct {
	Companies   int `json:"companies"`
	Departments int `json:"departments"`
	Employees   int `json:"employees"`
}

// NewSeedCommand materializes the seed collections and demo accounts in the
// configured store. Collections that were already initialized are left alone.
func NewSeedCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "seed",
		Short:        "Initialize the store with seed companies, employees and demo logins",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := openApp(ctx, opts)
			if err != nil {
				return err
			}
			defer app.Close()

			system := auth.System()
			companies, err := app.Companies.List(ctx, system)
			if err != nil {
				return err
			}
			departments, err := app.Core.ListDepartments(ctx, system)
			if err != nil {
				return err
			}
			employees, err := app.Core.ListEmployees(ctx, system, "")
			if err != nil {
				return err
			}

			out := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
			result := seedResult{Companies: len(companies), Departments: len(departments), Employees: len(employees)}
			return out.Success(result, func(w io.Writer) {
				fmt.Fprintf(w, "store ready: %d companies, %d departments, %d employees\n",
					result.Companies, result.Departments, result.Employees)
			})
		},
	}
}
