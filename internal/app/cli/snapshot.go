package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"zenpayroll/internal/platform/kv"
)

func NewExportCommand(opts *RootOptions) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:          "export",
		Short:        "Write every collection to a JSON snapshot",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := openApp(ctx, opts)
			if err != nil {
				return err
			}
			defer app.Close()

			snap, err := kv.ExportSnapshot(ctx, app.Store)
			if err != nil {
				return err
			}
			raw, err := json.MarshalIndent(snap, "", "  ")
			if err != nil {
				return err
			}
			if outPath == "" || outPath == "-" {
				_, err = cmd.OutOrStdout().Write(append(raw, '\n'))
				return err
			}
			if err := os.WriteFile(outPath, raw, 0o600); err != nil {
				return WrapExitError(ExitCommandError, "write snapshot", err)
			}
			out := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
			return out.Success(map[string]any{"path": outPath, "collections": len(snap)}, func(w io.Writer) {
				fmt.Fprintf(w, "exported %d collections to %s\n", len(snap), outPath)
			})
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "snapshot file (stdout when empty)")
	return cmd
}

func NewImportCommand(opts *RootOptions) *cobra.Command {
	var (
		inPath  string
		replace bool
	)

	cmd := &cobra.Command{
		Use:          "import",
		Short:        "Load a JSON snapshot into the store",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(inPath)
			if err != nil {
				return WrapExitError(ExitCommandError, "read snapshot", err)
			}
			var snap kv.Snapshot
			if err := json.Unmarshal(raw, &snap); err != nil {
				return WrapExitError(ExitCommandError, "decode snapshot", err)
			}

			ctx := cmd.Context()
			app, err := openApp(ctx, opts)
			if err != nil {
				return err
			}
			defer app.Close()

			if err := kv.ImportSnapshot(ctx, app.Store, snap, replace); err != nil {
				return err
			}
			out := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
			out.VerboseLog("replace=%v", replace)
			return out.Success(map[string]any{"path": inPath, "collections": len(snap)}, func(w io.Writer) {
				fmt.Fprintf(w, "imported %d collections from %s\n", len(snap), inPath)
			})
		},
	}

	cmd.Flags().StringVarP(&inPath, "in", "i", "", "snapshot file")
	cmd.Flags().BoolVar(&replace, "replace", false, "delete entries missing from the snapshot")
	_ = cmd.MarkFlagRequired("in")
	return cmd
}
