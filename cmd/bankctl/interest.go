package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/fastprodman/currencybank/internal/interest"
)

func newInterestCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "interest",
		Short: "Preview and apply scheduled interest",
	}

	cmd.AddCommand(newInterestNextCmd(opts), newInterestApplyCmd(opts))

	return cmd
}

func newInterestNextCmd(opts *rootOptions) *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "next <unit>",
		Short: "Print the upcoming fire times of a unit",
		Long: `Print the upcoming fire times of a unit as computed from its cron
expression, followed by the delay the scheduler would wait for the first one.

Example:
  bankctl interest next example.yml --count 3`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if count <= 0 {
				return fmt.Errorf("--count must be positive, got %d", count)
			}

			root, err := rulesRoot(opts)
			if err != nil {
				return err
			}

			loader := interest.NewLoader(root)

			ref, err := loader.Find(args[0])
			if err != nil {
				return err
			}

			rs, err := loader.Parse(ref)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			now := time.Now()

			fmt.Fprintf(out, "%s (%s)\n", ref.Name, rs.Schedule)
			fmt.Fprintf(out, "first fire in %s\n", rs.Schedule.Delay(now).Round(time.Second))

			at := now
			for range count {
				at = rs.Schedule.Next(at)
				if at.IsZero() {
					fmt.Fprintln(out, "no further fire times")
					break
				}

				fmt.Fprintln(out, at.Format(time.RFC3339))
			}

			return nil
		},
	}

	cmd.Flags().IntVar(&count, "count", 5, "Number of fire times to print")

	return cmd
}

func newInterestApplyCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "apply <unit>",
		Short: "Credit a unit's interest to every known player now",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := rulesRoot(opts)
			if err != nil {
				return err
			}

			ref, err := interest.NewLoader(root).Find(args[0])
			if err != nil {
				return err
			}

			st, err := openStack(cmd.Context())
			if err != nil {
				return err
			}
			defer st.close()

			report, err := st.scheduler(root).ApplyUnit(cmd.Context(), ref)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s: players=%d credited=%d skipped=%d failed=%d\n",
				report.Unit,
				report.Players,
				report.Credited,
				report.Skipped,
				report.Failed,
			)

			if report.Failed > 0 {
				return fmt.Errorf("%d credits failed", report.Failed)
			}

			return nil
		},
	}
}
