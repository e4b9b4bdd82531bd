package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tanpawarit/insurance-copilot/agent/store"
	configx "github.com/tanpawarit/insurance-copilot/pkg/config"
	"github.com/tanpawarit/insurance-copilot/pkg/postgres"
)

func newMigrateCmd() *cobra.Command {
	var seed bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create the customers, policies and quotes tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			dbCfg, err := configx.New[postgres.Config]("DATABASE")
			if err != nil {
				return err
			}
			if !dbCfg.Enabled() {
				return errors.New("DATABASE_URL is not set")
			}
			db, err := postgres.Open(ctx, *dbCfg)
			if err != nil {
				return err
			}
			defer db.Close()

			s := store.NewBunStore(db)
			if err := s.CreateSchema(ctx); err != nil {
				return err
			}
			log.Info().Msg("schema ready")

			if seed {
				customers := store.DemoCustomers()
				policies := store.DemoPolicies(time.Now())
				if err := s.Seed(ctx, customers, policies); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "seeded %d customers and %d policies\n", len(customers), len(policies))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&seed, "seed", false, "load the demo customers and policies")
	return cmd
}
