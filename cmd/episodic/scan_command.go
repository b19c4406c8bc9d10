package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"episodic/internal/ledger"
	"episodic/internal/scanner"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	var videoOnly bool

	cmd := &cobra.Command{
		Use:   "scan <directory>",
		Short: "List eligible media files in natural sort order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			dir, err := resolveDirectory(args[0])
			if err != nil {
				return err
			}

			opts := scanner.DefaultOptions(cfg)
			if videoOnly {
				opts.IncludeSubtitles = false
			}
			files, err := scanner.Scan(dir, opts)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(files) == 0 {
				fmt.Fprintln(out, "No eligible files found.")
				return nil
			}

			rows := make([][]string, 0, len(files))
			for _, file := range files {
				rows = append(rows, []string{strconv.Itoa(file.Index + 1), file.Name, string(file.Kind)})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"#", "FILE", "KIND"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft}))
			if ledger.Exists(dir) {
				fmt.Fprintln(out, "A rename backup exists for this directory; `episodic restore` can undo it.")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&videoOnly, "video-only", false, "List only video files")
	return cmd
}
