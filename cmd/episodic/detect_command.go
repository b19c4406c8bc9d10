package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"episodic/internal/extractor"
	"episodic/internal/planner"
)

func newDetectCommand(ctx *commandContext) *cobra.Command {
	var perFile bool
	var showPlan bool

	cmd := &cobra.Command{
		Use:   "detect <directory>",
		Short: "Infer show, season, and episodes from filenames via the local LLM",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			dir, err := resolveDirectory(args[0])
			if err != nil {
				return err
			}
			files, existing, err := scanDirectory(cfg, dir)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(files) == 0 {
				fmt.Fprintln(out, "No eligible files found.")
				return nil
			}

			client, err := ctx.completionClient()
			if err != nil {
				return err
			}
			if !client.Available(cmd.Context()) {
				return fmt.Errorf("completion service unavailable at %s; is it running?", cfg.LLM.BaseURL)
			}
			ext := extractor.New(client, extractor.Options{
				Workers: cfg.LLM.Workers,
				Logger:  logger,
			})

			if perFile {
				names := make([]string, len(files))
				for i, file := range files {
					names[i] = file.Name
				}
				results := ext.Extract(cmd.Context(), names)

				rows := make([][]string, 0, len(results))
				identities := make(map[string]planner.Identity, len(results))
				failures := 0
				for _, res := range results {
					if res.Err != nil {
						failures++
						rows = append(rows, []string{res.Filename, "", "", "", "error: " + res.Err.Error()})
						continue
					}
					if res.Identity.Show != "" {
						identities[res.Filename] = res.Identity
					}
					rows = append(rows, []string{
						res.Filename,
						res.Identity.Show,
						strconv.Itoa(res.Identity.Season),
						strconv.Itoa(res.Identity.Episode),
						string(res.Identity.Source),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"FILE", "SHOW", "SEASON", "EPISODE", "SOURCE"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft}))
				if failures > 0 {
					fmt.Fprintf(out, "%d of %d files could not be identified.\n", failures, len(results))
				}

				if showPlan && len(identities) > 0 {
					plan, err := planner.BuildFromIdentities(dir, files, existing, identities)
					if err != nil {
						return err
					}
					return printPlan(cmd, plan)
				}
				return nil
			}

			names := make([]string, 0, len(files))
			for _, file := range files {
				names = append(names, file.Name)
			}
			info, err := ext.DetectShow(cmd.Context(), names)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Show:          %s\n", info.Show)
			fmt.Fprintf(out, "Season:        %d\n", info.Season)
			fmt.Fprintf(out, "Start episode: %d\n", info.StartEpisode)
			fmt.Fprintf(out, "Confidence:    %.2f\n", info.Confidence)

			if showPlan {
				plan, err := planner.Build(dir, files, existing, planner.Params{
					Show:         info.Show,
					Season:       info.Season,
					StartEpisode: info.StartEpisode,
				})
				if err != nil {
					return err
				}
				return printPlan(cmd, plan)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&perFile, "per-file", false, "Extract an identity for each file instead of one batch detection")
	cmd.Flags().BoolVar(&showPlan, "plan", false, "Also render the rename plan the detection implies")
	return cmd
}
