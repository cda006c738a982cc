package main

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/fastprodman/currencybank/internal/interest"
)

var errInvalidUnits = errors.New("invalid interest units")

func newRulesCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect interest rule files",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List interest units with their schedule and next fire time",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return listRules(cmd, opts, false)
			},
		},
		&cobra.Command{
			Use:   "check",
			Short: "Parse every interest unit and fail if any is invalid",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return listRules(cmd, opts, true)
			},
		},
		&cobra.Command{
			Use:   "init",
			Short: "Write the example rule file if it does not exist",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				root, err := rulesRoot(opts)
				if err != nil {
					return err
				}

				path, created, err := interest.EnsureExample(root)
				if err != nil {
					return err
				}

				if created {
					fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "%s already exists\n", path)
				}

				return nil
			},
		},
	)

	return cmd
}

func listRules(cmd *cobra.Command, opts *rootOptions, strict bool) error {
	root, err := rulesRoot(opts)
	if err != nil {
		return err
	}

	loader := interest.NewLoader(root)

	refs, created, err := loader.Discover()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	if created {
		fmt.Fprintf(out, "created empty rules directory %s\n", root)
	}

	if len(refs) == 0 {
		fmt.Fprintln(out, "no interest units")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "UNIT\tSCHEDULE\tRULES\tNEXT")

	now := time.Now()
	invalid := 0

	for _, ref := range refs {
		rs, err := loader.Parse(ref)
		if err != nil {
			invalid++

			fmt.Fprintf(tw, "%s\t-\t-\terror: %v\n", ref.Name, err)

			continue
		}

		next := "-"
		if t := rs.Schedule.Next(now); !t.IsZero() {
			next = t.Format(time.RFC3339)
		}

		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", ref.Name, rs.Schedule, len(rs.Rules), next)
	}

	err = tw.Flush()
	if err != nil {
		return err
	}

	if strict && invalid > 0 {
		return fmt.Errorf("%w: %d of %d", errInvalidUnits, invalid, len(refs))
	}

	return nil
}
