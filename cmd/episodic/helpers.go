package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"episodic/internal/config"
	"episodic/internal/planner"
	"episodic/internal/renamer"
	"episodic/internal/scanner"
)

// parseSeason accepts the forms users actually type: "1", "S1", "s01",
// "Season 2".
func parseSeason(value string) (int, error) {
	trimmed := strings.TrimSpace(value)
	lower := strings.ToLower(trimmed)
	lower = strings.TrimPrefix(lower, "season")
	lower = strings.TrimSpace(lower)
	lower = strings.TrimPrefix(lower, "s")
	season, err := strconv.Atoi(strings.TrimSpace(lower))
	if err != nil {
		return 0, fmt.Errorf("invalid season %q", value)
	}
	if season < 1 {
		return 0, fmt.Errorf("season must be >= 1, got %d", season)
	}
	return season, nil
}

// resolveDirectory expands and verifies the target directory argument.
func resolveDirectory(arg string) (string, error) {
	dir, err := config.ExpandPath(strings.TrimSpace(arg))
	if err != nil {
		return "", err
	}
	info, err := os.Stat(dir)
	if err != nil {
		return "", fmt.Errorf("inspect directory %q: %w", dir, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%q is not a directory", dir)
	}
	return dir, nil
}

// scanDirectory runs a configured scan plus the collision listing planners
// need.
func scanDirectory(cfg *config.Config, dir string) ([]scanner.MediaFile, []string, error) {
	files, err := scanner.Scan(dir, scanner.DefaultOptions(cfg))
	if err != nil {
		return nil, nil, err
	}
	existing, err := scanner.DirNames(dir)
	if err != nil {
		return nil, nil, err
	}
	return files, existing, nil
}

// confirm reads a y/N answer from in. Anything but an explicit yes declines.
func confirm(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprintf(out, "%s [y/N]: ", prompt)
	reader := bufio.NewReader(in)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

// planRows renders plan entries for preview tables.
func planRows(plan *planner.Plan) [][]string {
	rows := make([][]string, 0, len(plan.Entries))
	for _, entry := range plan.Entries {
		note := ""
		switch {
		case entry.Conflict:
			note = "conflict: " + entry.ConflictReason
		case entry.Target == entry.File.Name:
			note = "unchanged"
		case entry.PairedWith != "":
			note = "paired"
		}
		rows = append(rows, []string{entry.File.Name, entry.Target, note})
	}
	return rows
}

// outcomeRows renders apply/restore outcomes.
func outcomeRows(outcomes []renamer.Outcome) [][]string {
	rows := make([][]string, 0, len(outcomes))
	for _, outcome := range outcomes {
		rows = append(rows, []string{outcome.Original, outcome.Target, string(outcome.Status), outcome.Reason})
	}
	return rows
}

func printSummary(out io.Writer, outcomes []renamer.Outcome) {
	renamed, failed, skipped := renamer.Counts(outcomes)
	fmt.Fprintf(out, "%d renamed, %d failed, %d skipped\n", renamed, failed, skipped)
}
