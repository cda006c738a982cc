package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/fastprodman/currencybank/internal/infra/logging"
)

type rootOptions struct {
	rulesDir string
	logLevel string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "bankctl",
		Short: "Operate the currency bank",
		Long: `bankctl inspects interest rule files, triggers interest runs and executes
bank commands on behalf of a player.

Connection settings come from the same environment variables as the API
(PG_DSN, REDIS_ADDR, NATS_URL, INTEREST_RULES_DIR, ...). A .env file in the
working directory is loaded first.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			var level slog.Level

			err := level.UnmarshalText([]byte(opts.logLevel))
			if err != nil {
				return err
			}

			slog.SetDefault(logging.New(cmd.ErrOrStderr(), level, "service", "bankctl"))

			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.rulesDir, "rules-dir", "", "Interest rules directory (default: $INTEREST_RULES_DIR)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "WARN", "Log level (DEBUG|INFO|WARN|ERROR)")

	cmd.AddCommand(
		newRulesCmd(opts),
		newInterestCmd(opts),
		newExecCmd(),
	)

	return cmd
}
