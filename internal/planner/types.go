package planner

import (
	"episodic/internal/scanner"
)

// IdentitySource records how an episode identity was produced.
type IdentitySource string

const (
	SourceManualSequential IdentitySource = "manual-sequential"
	SourceLLMInferred      IdentitySource = "llm-inferred"
	SourceLLMRepaired      IdentitySource = "llm-repaired"
)

// Identity is the inferred or assigned identity for a file. Season and
// episode are positive (episode may be zero for specials); the show name is
// non-empty after trimming.
type Identity struct {
	Show    string
	Season  int
	Episode int
	Source  IdentitySource
}

// Entry is one row of a rename plan.
type Entry struct {
	File     scanner.MediaFile
	Identity Identity
	// Target is the computed target filename, without directory.
	Target string
	// LanguageTag carries a subtitle's language suffix (e.g. ".en"), empty
	// for videos and untagged subtitles.
	LanguageTag string
	// PairedWith is the name of the video a subtitle was matched to, empty
	// when unpaired.
	PairedWith string
	Conflict   bool
	// ConflictReason is set when Conflict is true.
	ConflictReason string
}

// Plan is the ordered set of entries for one directory and one planning run.
// Plans are never mutated in place; changed parameters produce a new plan.
type Plan struct {
	Directory string
	Params    Params
	Entries   []Entry
}

// Params are the inputs of a sequential planning run.
type Params struct {
	Show         string
	Season       int
	StartEpisode int
	// Pattern optionally overrides the canonical naming pattern using
	// {show}, {season}, and {episode} placeholders.
	Pattern string
}

// Executable returns the conflict-free subset eligible for apply.
func (p *Plan) Executable() []Entry {
	out := make([]Entry, 0, len(p.Entries))
	for _, entry := range p.Entries {
		if !entry.Conflict {
			out = append(out, entry)
		}
	}
	return out
}

// Conflicts returns the entries excluded from apply.
func (p *Plan) Conflicts() []Entry {
	out := make([]Entry, 0)
	for _, entry := range p.Entries {
		if entry.Conflict {
			out = append(out, entry)
		}
	}
	return out
}
