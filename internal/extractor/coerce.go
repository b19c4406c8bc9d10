package extractor

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"episodic/internal/planner"
	"episodic/internal/textutil"
)

// rawIdentity is the wire shape of a per-file completion. Numbers arrive as
// JSON numbers, quoted digits, prefixed forms ("S01", "E05"), or spelled-out
// words depending on the model's mood; toIdentity normalizes all of them.
type rawIdentity struct {
	Show    string          `json:"show"`
	Season  json.RawMessage `json:"season"`
	Episode json.RawMessage `json:"episode"`
}

func (r rawIdentity) toIdentity() (planner.Identity, bool, error) {
	show, showFixed := normalizeShow(r.Show)
	if show == "" {
		// Left empty here; the batch consensus pass may fill it in.
		showFixed = false
	}

	season, seasonCoerced, err := coerceNumber(r.Season)
	if err != nil {
		return planner.Identity{}, false, fmt.Errorf("season: %w", err)
	}
	episode, episodeCoerced, err := coerceNumber(r.Episode)
	if err != nil {
		return planner.Identity{}, false, fmt.Errorf("episode: %w", err)
	}
	if season < 1 {
		return planner.Identity{}, false, fmt.Errorf("season %d out of range", season)
	}
	if episode < 0 {
		return planner.Identity{}, false, fmt.Errorf("episode %d out of range", episode)
	}

	coerced := showFixed || seasonCoerced || episodeCoerced
	return planner.Identity{Show: show, Season: season, Episode: episode}, coerced, nil
}

type rawShowInfo struct {
	ShowName     string          `json:"show_name"`
	Season       json.RawMessage `json:"season"`
	StartEpisode json.RawMessage `json:"start_episode"`
	Confidence   json.RawMessage `json:"confidence"`
}

func (r rawShowInfo) toShowInfo() (ShowInfo, error) {
	show, _ := normalizeShow(r.ShowName)
	if show == "" {
		return ShowInfo{}, errors.New("empty show name")
	}
	season, _, err := coerceNumber(r.Season)
	if err != nil {
		return ShowInfo{}, fmt.Errorf("season: %w", err)
	}
	if season < 1 {
		return ShowInfo{}, fmt.Errorf("season %d out of range", season)
	}
	start, _, err := coerceNumber(r.StartEpisode)
	if err != nil {
		return ShowInfo{}, fmt.Errorf("start_episode: %w", err)
	}
	if start < 0 {
		return ShowInfo{}, fmt.Errorf("start_episode %d out of range", start)
	}

	confidence := 0.0
	if len(r.Confidence) > 0 {
		var f float64
		if err := json.Unmarshal(r.Confidence, &f); err != nil {
			var s string
			if err := json.Unmarshal(r.Confidence, &s); err == nil {
				f, _ = strconv.ParseFloat(strings.TrimSpace(s), 64)
			}
		}
		if f < 0 {
			f = 0
		}
		if f > 1 {
			f = 1
		}
		confidence = f
	}
	return ShowInfo{Show: show, Season: season, StartEpisode: start, Confidence: confidence}, nil
}

// numberWords covers the spelled-out values small local models occasionally
// return in place of digits.
var numberWords = map[string]int{
	"zero": 0, "one": 1, "two": 2, "three": 3, "four": 4,
	"five": 5, "six": 6, "seven": 7, "eight": 8, "nine": 9,
	"ten": 10, "eleven": 11, "twelve": 12, "thirteen": 13, "fourteen": 14,
	"fifteen": 15, "sixteen": 16, "seventeen": 17, "eighteen": 18, "nineteen": 19,
	"twenty": 20,
	"first": 1, "second": 2, "third": 3, "fourth": 4, "fifth": 5,
	"sixth": 6, "seventh": 7, "eighth": 8, "ninth": 9, "tenth": 10,
}

// coerceNumber turns a raw JSON value into an int. The second return reports
// whether a repair (anything beyond a plain JSON integer) was required.
func coerceNumber(raw json.RawMessage) (int, bool, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, false, errors.New("missing value")
	}

	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, false, nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		if f != float64(int(f)) {
			return 0, false, fmt.Errorf("non-integral value %v", f)
		}
		return int(f), true, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, false, fmt.Errorf("unparseable value %s", string(raw))
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false, errors.New("missing value")
	}

	// "S01", "E05", "Season 2", "Episode 7".
	lower := strings.ToLower(s)
	for _, prefix := range []string{"season", "episode", "s", "e"} {
		if strings.HasPrefix(lower, prefix) {
			rest := strings.TrimSpace(lower[len(prefix):])
			if v, err := strconv.Atoi(rest); err == nil {
				return v, true, nil
			}
		}
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v, true, nil
	}
	if v, ok := numberWords[lower]; ok {
		return v, true, nil
	}
	return 0, false, fmt.Errorf("unparseable value %q", s)
}

// normalizeShow trims and collapses whitespace and fixes degenerate casing
// (all-lower or all-upper names get title case). The second return reports
// whether casing was changed.
func normalizeShow(show string) (string, bool) {
	show = textutil.CollapseSpaces(show)
	if show == "" {
		return "", false
	}
	hasUpper, hasLower := false, false
	for _, r := range show {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		}
	}
	if hasUpper && hasLower {
		return show, false
	}
	titled := cases.Title(language.Und).String(strings.ToLower(show))
	return titled, titled != show
}
