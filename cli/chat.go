package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	copilotagent "github.com/tanpawarit/insurance-copilot/agent/agents/copilot"
)

func newChatCmd() *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   "chat [message]",
		Short: "Send a message to the copilot, or start an interactive session",
		Example: `  copilot chat "quote car CUST0007"
  copilot chat`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if sessionID == "" {
				sessionID = uuid.NewString()
			}
			out := cmd.OutOrStdout()

			if len(args) > 0 {
				return chatOnce(cmd, a.copilot, sessionID, strings.Join(args, " "), out)
			}

			fmt.Fprintln(out, `Insurance Copilot. Type a message, or "exit" to quit.`)
			scanner := bufio.NewScanner(cmd.InOrStdin())
			for {
				fmt.Fprint(out, "> ")
				if !scanner.Scan() {
					fmt.Fprintln(out)
					return scanner.Err()
				}
				line := strings.TrimSpace(scanner.Text())
				switch strings.ToLower(line) {
				case "":
					continue
				case "exit", "quit":
					return nil
				}
				if err := chatOnce(cmd, a.copilot, sessionID, line, out); err != nil {
					fmt.Fprintln(out, "error:", err)
				}
			}
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "session id (default: a new uuid)")
	return cmd
}

func chatOnce(cmd *cobra.Command, c *copilotagent.Copilot, sessionID, text string, out io.Writer) error {
	reply, err := c.HandleMessage(cmd.Context(), sessionID, text)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "[%s] %s\n", reply.Task, reply.Reply)
	return nil
}
