package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"episodic/internal/ledger"
	"episodic/internal/renamer"
)

func newRestoreCommand(ctx *commandContext) *cobra.Command {
	var deleteBackup bool
	var yes bool

	cmd := &cobra.Command{
		Use:   "restore <directory>",
		Short: "Undo ledgered renames, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := resolveDirectory(args[0])
			if err != nil {
				return err
			}

			led, err := ledger.Load(dir)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Backup ledger holds %d renames.\n", len(led.Mappings))

			if !yes {
				prompt := "Restore original filenames"
				if deleteBackup {
					prompt = "Restore original filenames and delete the backup"
				}
				if !confirm(cmd.InOrStdin(), out, prompt) {
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

			outcomes, err := engine.Restore(cmd.Context(), dir, deleteBackup)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ORIGINAL", "RENAMED", "STATUS", "DETAIL"},
				outcomeRows(outcomes),
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft}))
			printSummary(out, outcomes)
			return nil
		},
	}

	cmd.Flags().BoolVar(&deleteBackup, "delete-backup", false, "Delete the backup ledger after restoring")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Restore without interactive confirmation")
	return cmd
}
