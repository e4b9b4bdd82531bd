package cli

import (
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	contractx "github.com/tanpawarit/insurance-copilot/agent/contract"
	"github.com/tanpawarit/insurance-copilot/agent/premium"
)

func newQuoteCmd() *cobra.Command {
	var (
		in       premium.RatingInput
		rawType  string
		existing float64
	)

	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Compute a premium quote directly with the rating engine",
		Example: `  copilot quote --type health --age 25
  copilot quote --type car --age 40 --city Delhi --claims 1 --existing 8000 --customer CUST0007`,
		RunE: func(cmd *cobra.Command, args []string) error {
			pt, ok := contractx.ParsePolicyType(rawType)
			if !ok {
				return fmt.Errorf("%w: unknown policy type %q", contractx.ErrInvalidInput, rawType)
			}
			in.PolicyType = pt
			if cmd.Flags().Changed("existing") {
				in.ExistingPremium = &existing
			}

			q, err := premium.Compute(in, time.Now())
			if err != nil {
				return err
			}
			body, err := json.MarshalIndent(q, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(body))
			return nil
		},
	}

	cmd.Flags().StringVar(&rawType, "type", "", "policy type: health, car or life")
	cmd.Flags().IntVar(&in.Age, "age", 30, "age in years")
	cmd.Flags().StringVar(&in.City, "city", "", "city")
	cmd.Flags().IntVar(&in.ClaimsHistory, "claims", 0, "number of past claims")
	cmd.Flags().Float64Var(&existing, "existing", 0, "current premium; makes the quote a renewal")
	cmd.Flags().StringVar(&in.CustomerID, "customer", "", "customer id used in the quote id")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}
