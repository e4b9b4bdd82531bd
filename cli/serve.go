package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tanpawarit/insurance-copilot/api"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Serve the chat endpoint, the CRM and policy listings, direct quotes,
reminder endpoints, the queue webhook and Prometheus metrics.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := loadApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			deps := api.Deps{
				Copilot:     a.copilot,
				Records:     a.records,
				Reminders:   a.reminders,
				CallbackURL: a.callbackURL,
			}
			if a.queue != nil {
				deps.Verifier = a.queue
			}

			if addr == "" {
				addr = a.cfg.Addr
			}
			return api.New(deps).ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: $COPILOT_ADDR or :8080)")
	return cmd
}
