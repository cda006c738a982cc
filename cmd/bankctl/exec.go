package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/fastprodman/currencybank/internal/command"
)

func newExecCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exec <playerId> <args...>",
		Short: "Run a /bank command line as a player",
		Long: `Run a /bank command line as a player against the live wallet and bank.

Examples:
  bankctl exec 5b0c...e1 deposit gold 10
  bankctl exec 5b0c...e1 balance silver`,
		Args:               cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			player, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid playerId: %w", err)
			}

			st, err := openStack(cmd.Context())
			if err != nil {
				return err
			}
			defer st.close()

			reply := command.New(st.ledger, st.wallet, nil).Execute(cmd.Context(), player, args[1:])
			fmt.Fprintln(cmd.OutOrStdout(), reply.Message)

			if reply.Status != command.StatusOK {
				return fmt.Errorf("command %s", reply.Status)
			}

			return nil
		},
	}

	// Amounts such as "-5" must reach the dispatcher, not the flag parser.
	cmd.Flags().SetInterspersed(false)

	return cmd
}
