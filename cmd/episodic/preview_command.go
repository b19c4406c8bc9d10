package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"episodic/internal/planner"
	"episodic/internal/scanner"
)

// planFlags are the planning inputs shared by preview and apply.
type planFlags struct {
	show        string
	season      string
	start       int
	pattern     string
	noSubtitles bool
	noVideos    bool
}

func newPreviewCommand(ctx *commandContext) *cobra.Command {
	var flags planFlags

	cmd := &cobra.Command{
		Use:   "preview <directory>",
		Short: "Show the rename plan without touching any files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := buildSequentialPlan(ctx, args[0], flags)
			if err != nil {
				return err
			}
			return printPlan(cmd, plan)
		},
	}

	addPlanFlags(cmd, &flags)
	cmd.MarkFlagRequired("show")
	return cmd
}

func addPlanFlags(cmd *cobra.Command, flags *planFlags) {
	cmd.Flags().StringVar(&flags.show, "show", "", "Show name used in target filenames")
	cmd.Flags().StringVar(&flags.season, "season", "1", "Season number (accepts 1, S1, Season 1)")
	cmd.Flags().IntVar(&flags.start, "start", 1, "Episode number assigned to the first file")
	cmd.Flags().StringVar(&flags.pattern, "pattern", "", "Naming pattern with {show}, {season}, {episode}")
	cmd.Flags().BoolVar(&flags.noSubtitles, "no-subtitles", false, "Exclude subtitle files from the plan")
	cmd.Flags().BoolVar(&flags.noVideos, "no-videos", false, "Exclude video files from the plan")
}

func buildSequentialPlan(ctx *commandContext, dirArg string, flags planFlags) (*planner.Plan, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	dir, err := resolveDirectory(dirArg)
	if err != nil {
		return nil, err
	}
	season, err := parseSeason(flags.season)
	if err != nil {
		return nil, err
	}

	opts := scanner.DefaultOptions(cfg)
	opts.IncludeSubtitles = !flags.noSubtitles
	opts.IncludeVideo = !flags.noVideos
	files, err := scanner.Scan(dir, opts)
	if err != nil {
		return nil, err
	}
	existing, err := scanner.DirNames(dir)
	if err != nil {
		return nil, err
	}
	return planner.Build(dir, files, existing, planner.Params{
		Show:         flags.show,
		Season:       season,
		StartEpisode: flags.start,
		Pattern:      flags.pattern,
	})
}

func printPlan(cmd *cobra.Command, plan *planner.Plan) error {
	out := cmd.OutOrStdout()
	if len(plan.Entries) == 0 {
		fmt.Fprintln(out, "No eligible files found.")
		return nil
	}
	fmt.Fprintln(out, renderTable(
		[]string{"CURRENT", "TARGET", "NOTE"},
		planRows(plan),
		[]columnAlignment{alignLeft, alignLeft, alignLeft}))
	if conflicts := plan.Conflicts(); len(conflicts) > 0 {
		fmt.Fprintf(out, "%d of %d entries conflict and will be skipped.\n", len(conflicts), len(plan.Entries))
	}
	return nil
}
