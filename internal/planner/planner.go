// Package planner turns an ordered file listing into a deterministic rename
// plan: consecutive episode numbers in scan order, subtitle-to-video pairing,
// and conflict detection ahead of any filesystem mutation.
package planner

import (
	"fmt"
	"sort"
	"strings"

	"episodic/internal/scanner"
	"episodic/internal/services"
	"episodic/internal/textutil"
)

// defaultPattern is the canonical target format: "Show Name S01E02".
const defaultPattern = "{show} {season}E{episode}"

// Build produces a rename plan for files, assigning episode numbers
// consecutively from params.StartEpisode in scan order. existing lists the
// directory's current entry names and is used to flag collisions with files
// outside the plan.
func Build(dir string, files []scanner.MediaFile, existing []string, params Params) (*Plan, error) {
	params.Show = textutil.CollapseSpaces(params.Show)
	if params.Show == "" {
		return nil, services.Wrap(services.ErrValidation, "planning", "validate params", "show name must not be empty", nil)
	}
	if params.Season < 1 {
		return nil, services.Wrap(services.ErrValidation, "planning", "validate params",
			fmt.Sprintf("season must be >= 1, got %d", params.Season), nil)
	}
	if params.StartEpisode < 0 {
		return nil, services.Wrap(services.ErrValidation, "planning", "validate params",
			fmt.Sprintf("start episode must be >= 0, got %d", params.StartEpisode), nil)
	}
	pattern := strings.TrimSpace(params.Pattern)
	if pattern == "" {
		pattern = defaultPattern
	} else if !strings.Contains(pattern, "{episode}") {
		return nil, services.Wrap(services.ErrValidation, "planning", "validate params",
			fmt.Sprintf("pattern %q must contain {episode}", pattern), nil)
	}

	var videos, subtitles []scanner.MediaFile
	for _, file := range files {
		switch file.Kind {
		case scanner.KindVideo:
			videos = append(videos, file)
		case scanner.KindSubtitle:
			subtitles = append(subtitles, file)
		}
	}

	entries := make([]Entry, 0, len(files))

	// Videos own the primary episode track.
	videoEpisode := make(map[string]int, len(videos))
	for i, video := range videos {
		episode := params.StartEpisode + i
		videoEpisode[strings.ToLower(video.Stem())] = episode
		entries = append(entries, Entry{
			File:     video,
			Identity: Identity{Show: params.Show, Season: params.Season, Episode: episode, Source: SourceManualSequential},
			Target:   formatTarget(pattern, params.Show, params.Season, episode, "", video.Ext),
		})
	}

	// Subtitles pair with the video sharing their stem once the language tag
	// is stripped; the leftovers get their own sequential track.
	unpaired := 0
	for _, sub := range subtitles {
		base, tag := splitLanguageTag(sub.Stem())
		episode, paired := videoEpisode[strings.ToLower(base)]
		pairedWith := ""
		if !paired {
			// A tagless stem may still match a video directly.
			episode, paired = videoEpisode[strings.ToLower(sub.Stem())]
			if paired {
				tag = ""
			}
		}
		if paired {
			pairedWith = base
		} else {
			episode = params.StartEpisode + unpaired
			unpaired++
		}
		entries = append(entries, Entry{
			File:        sub,
			Identity:    Identity{Show: params.Show, Season: params.Season, Episode: episode, Source: SourceManualSequential},
			Target:      formatTarget(pattern, params.Show, params.Season, episode, tag, sub.Ext),
			LanguageTag: tag,
			PairedWith:  pairedWith,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].File.Index < entries[j].File.Index
	})

	plan := &Plan{Directory: dir, Params: params, Entries: entries}
	markConflicts(plan, existing)
	return plan, nil
}

// BuildFromIdentities produces a plan from per-file identities (the LLM
// extraction path). Files without a resolved identity are not included;
// callers surface those separately.
func BuildFromIdentities(dir string, files []scanner.MediaFile, existing []string, identities map[string]Identity) (*Plan, error) {
	entries := make([]Entry, 0, len(files))
	for _, file := range files {
		identity, ok := identities[file.Name]
		if !ok {
			continue
		}
		identity.Show = textutil.CollapseSpaces(identity.Show)
		if identity.Show == "" || identity.Season < 1 || identity.Episode < 0 {
			return nil, services.Wrap(services.ErrValidation, "planning", "validate identity",
				fmt.Sprintf("unusable identity for %q: show=%q season=%d episode=%d",
					file.Name, identity.Show, identity.Season, identity.Episode), nil)
		}
		var tag string
		if file.Kind == scanner.KindSubtitle {
			_, tag = splitLanguageTag(file.Stem())
		}
		entries = append(entries, Entry{
			File:        file,
			Identity:    identity,
			Target:      formatTarget(defaultPattern, identity.Show, identity.Season, identity.Episode, tag, file.Ext),
			LanguageTag: tag,
		})
	}

	plan := &Plan{Directory: dir, Entries: entries}
	markConflicts(plan, existing)
	return plan, nil
}

// formatTarget renders the target filename. Season and episode are
// zero-padded to at least two digits; wider numbers keep their width.
func formatTarget(pattern, show string, season, episode int, languageTag, ext string) string {
	name := pattern
	name = strings.ReplaceAll(name, "{show}", show)
	name = strings.ReplaceAll(name, "{season}", fmt.Sprintf("S%02d", season))
	name = strings.ReplaceAll(name, "{episode}", fmt.Sprintf("%02d", episode))
	name = textutil.SanitizeFileName(name)
	return name + languageTag + ext
}

// markConflicts flags entries whose target collides with another entry's
// target or with a pre-existing directory entry outside the plan. Conflicting
// entries stay in the plan for preview but are excluded from apply.
func markConflicts(plan *Plan, existing []string) {
	targets := make(map[string][]int, len(plan.Entries))
	sources := make(map[string]struct{}, len(plan.Entries))
	for i, entry := range plan.Entries {
		key := strings.ToLower(entry.Target)
		targets[key] = append(targets[key], i)
		sources[strings.ToLower(entry.File.Name)] = struct{}{}
	}

	for _, indexes := range targets {
		if len(indexes) < 2 {
			continue
		}
		for _, i := range indexes {
			plan.Entries[i].Conflict = true
			plan.Entries[i].ConflictReason = fmt.Sprintf("%d entries map to %q", len(indexes), plan.Entries[i].Target)
		}
	}

	existingSet := make(map[string]struct{}, len(existing))
	for _, name := range existing {
		existingSet[strings.ToLower(name)] = struct{}{}
	}
	for i, entry := range plan.Entries {
		if entry.Conflict {
			continue
		}
		key := strings.ToLower(entry.Target)
		if key == strings.ToLower(entry.File.Name) {
			// Already named correctly; the apply engine reports it as a no-op.
			continue
		}
		if _, inPlan := sources[key]; inPlan {
			// Target matches another plan source; the apply engine vacates
			// that name before this entry runs.
			continue
		}
		if _, exists := existingSet[key]; exists {
			plan.Entries[i].Conflict = true
			plan.Entries[i].ConflictReason = fmt.Sprintf("%q already exists in the directory", entry.Target)
		}
	}
}

// knownLanguageNames are long-form language suffixes recognized in addition
// to two/three-letter codes.
var knownLanguageNames = map[string]struct{}{
	"english": {}, "spanish": {}, "french": {}, "german": {}, "italian": {},
	"japanese": {}, "korean": {}, "chinese": {}, "portuguese": {}, "russian": {},
}

// splitLanguageTag strips one trailing dot-separated language token from a
// subtitle stem: "show.s01e02.en" -> ("show.s01e02", ".en"). Only alphabetic
// tokens of two or three letters, or known long-form names, count as tags.
func splitLanguageTag(stem string) (base, tag string) {
	idx := strings.LastIndex(stem, ".")
	if idx <= 0 || idx == len(stem)-1 {
		return stem, ""
	}
	token := stem[idx+1:]
	lower := strings.ToLower(token)
	if !isAlpha(token) {
		return stem, ""
	}
	if len(token) == 2 || len(token) == 3 {
		return stem[:idx], "." + token
	}
	if _, ok := knownLanguageNames[lower]; ok {
		return stem[:idx], "." + token
	}
	return stem, ""
}

func isAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}
