package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	configx "github.com/tanpawarit/insurance-copilot/pkg/config"
	logx "github.com/tanpawarit/insurance-copilot/pkg/logger"
)

// version is set at build time with -ldflags "-X .../cli.version=...".
var version = "dev"

func newRootCmd() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:   "copilot",
		Short: "Insurance Copilot - chat assistant for insurance agents",
		Long: `Insurance Copilot turns short chat commands into CRM updates, premium
quotes, policy lookups and renewal reminders.

Quotes are computed by a deterministic rating engine; an optional LLM only
explains them in prose.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			configx.SetEnvFile(envFile)
			logCfg, err := configx.New[logx.Config]("LOG")
			if err != nil {
				return err
			}
			logx.InitWriter(os.Stderr, *logCfg)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&envFile, "env", "", "path to a .env file (default: ./.env or $"+configx.EnvFileVariable+")")

	root.AddCommand(
		newServeCmd(),
		newChatCmd(),
		newParseCmd(),
		newQuoteCmd(),
		newMigrateCmd(),
		newVersionCmd(),
	)
	return root
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "insurance-copilot %s\n", version)
		},
	}
}
