package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"episodic/internal/renamer"
)

func newApplyCommand(ctx *commandContext) *cobra.Command {
	var flags planFlags
	var yes bool

	cmd := &cobra.Command{
		Use:   "apply <directory>",
		Short: "Execute the rename plan, recording a backup ledger first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := buildSequentialPlan(ctx, args[0], flags)
			if err != nil {
				return err
			}
			if err := printPlan(cmd, plan); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			executable := 0
			for _, entry := range plan.Entries {
				if !entry.Conflict && entry.Target != entry.File.Name {
					executable++
				}
			}
			if executable == 0 {
				fmt.Fprintln(out, "Nothing to rename.")
				return nil
			}

			if !yes {
				if !confirm(cmd.InOrStdin(), out, fmt.Sprintf("Rename %d files", executable)) {
					fmt.Fprintln(out, "Aborted.")
					return nil
				}
			}

			store, err := ctx.openHistory(cmd.Context())
			if err != nil {
				return err
			}
			var recorder renamer.Recorder
			if store != nil {
				defer store.Close()
				recorder = store
			}
			engine, err := ctx.newEngine(recorder)
			if err != nil {
				return err
			}

			outcomes, err := engine.Apply(cmd.Context(), plan)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, renderTable(
				[]string{"CURRENT", "TARGET", "STATUS", "DETAIL"},
				outcomeRows(outcomes),
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft}))
			printSummary(out, outcomes)
			return nil
		},
	}

	addPlanFlags(cmd, &flags)
	cmd.MarkFlagRequired("show")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Apply without interactive confirmation")
	return cmd
}
