package cli

import (
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/tanpawarit/insurance-copilot/agent/intent"
	copilotnode "github.com/tanpawarit/insurance-copilot/agent/nodes/copilot"
)

type parseOutput struct {
	Kind   intent.Kind   `json:"kind"`
	Task   string        `json:"task"`
	Intent intent.Intent `json:"intent"`
}

func newParseCmd() *cobra.Command {
	var defaultCustomer string

	cmd := &cobra.Command{
		Use:   "parse <message>",
		Short: "Show how a message is parsed and routed, without side effects",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parser := intent.NewParser(intent.WithDefaultCustomerID(defaultCustomer))
			text := strings.Join(args, " ")
			it := parser.Parse(text)

			body, err := json.MarshalIndent(parseOutput{
				Kind:   it.Kind(),
				Task:   string(copilotnode.Route(it, text)),
				Intent: it,
			}, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(body))
			return nil
		},
	}

	cmd.Flags().StringVar(&defaultCustomer, "default-customer", "", "customer id assumed by quote commands that name none")
	return cmd
}
