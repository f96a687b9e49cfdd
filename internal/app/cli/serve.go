package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"zenpayroll/internal/app/server"
)

func NewServeCommand(opts *RootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:          "serve",
		Short:        "Run the HTTP API",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.loadConfig()
			if addr != "" {
				cfg.Addr = addr
			}
			slog.SetDefault(server.NewLogger(cfg))

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app, err := server.New(ctx, cfg)
			if err != nil {
				return WrapExitError(ExitCommandError, "startup failed", err)
			}
			defer app.Close()
			return app.Serve(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides APP_ADDR)")
	return cmd
}

func openApp(ctx context.Context, opts *RootOptions) (*server.App, error) {
	app, err := server.New(ctx, opts.loadConfig())
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "open storage", err)
	}
	return app, nil
}
