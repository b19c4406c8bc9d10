// Package scanner lists the media and subtitle files of a target directory
// in a stable, natural-sorted order. The ordering is the source of truth for
// sequential episode numbering downstream.
package scanner

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"episodic/internal/config"
	"episodic/internal/ledger"
	"episodic/internal/services"
)

// Kind classifies a directory entry by extension.
type Kind string

const (
	KindVideo    Kind = "video"
	KindSubtitle Kind = "subtitle"
)

// MediaFile represents one eligible file on disk in the target directory.
// Instances are immutable; a rescan produces a fresh slice.
type MediaFile struct {
	Path string
	Name string
	Ext  string
	Kind Kind
	// Index is the discovery order after natural sorting, starting at 0.
	Index int
}

// Stem returns the base name without its extension.
func (m MediaFile) Stem() string {
	return strings.TrimSuffix(m.Name, m.Ext)
}

// Options controls which media kinds a scan yields.
type Options struct {
	IncludeVideo       bool
	IncludeSubtitles   bool
	VideoExtensions    []string
	SubtitleExtensions []string
}

// DefaultOptions builds scan options from configuration, including both
// media kinds.
func DefaultOptions(cfg *config.Config) Options {
	opts := Options{IncludeVideo: true, IncludeSubtitles: true}
	if cfg != nil {
		opts.VideoExtensions = cfg.Scan.VideoExtensions
		opts.SubtitleExtensions = cfg.Scan.SubtitleExtensions
	}
	return opts
}

// Scan lists the eligible files of dir in natural-sorted order. Hidden files,
// the backup ledger, and unknown extensions are excluded. The scan is a pure
// read of directory metadata.
func Scan(dir string, opts Options) ([]MediaFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		switch {
		case errors.Is(err, fs.ErrNotExist):
			return nil, services.Wrap(services.ErrNotFound, "scan", "read directory", dir, err)
		case errors.Is(err, fs.ErrPermission):
			return nil, services.Wrap(services.ErrPermission, "scan", "read directory", dir, err)
		default:
			return nil, services.Wrap(services.ErrTransient, "scan", "read directory", dir, err)
		}
	}

	videoExts := extensionSet(opts.VideoExtensions)
	subtitleExts := extensionSet(opts.SubtitleExtensions)

	files := make([]MediaFile, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") || name == ledger.BackupFileName {
			continue
		}
		ext := strings.ToLower(filepath.Ext(name))
		var kind Kind
		switch {
		case opts.IncludeVideo && videoExts[ext]:
			kind = KindVideo
		case opts.IncludeSubtitles && subtitleExts[ext]:
			kind = KindSubtitle
		default:
			continue
		}
		files = append(files, MediaFile{
			Path: filepath.Join(dir, name),
			Name: name,
			Ext:  ext,
			Kind: kind,
		})
	}

	sortNatural(files)
	for i := range files {
		files[i].Index = i
	}
	return files, nil
}

// DirNames returns every visible entry name in dir, used for detecting
// target collisions with files outside a rename plan.
func DirNames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, services.Wrap(services.ErrNotFound, "scan", "read directory", dir, err)
		}
		return nil, services.Wrap(services.ErrPermission, "scan", "read directory", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		names = append(names, entry.Name())
	}
	return names, nil
}

// sortNatural orders files so that embedded numeric runs compare as integers:
// "Ep2" sorts before "Ep10". Ties fall back to byte order for stability.
func sortNatural(files []MediaFile) {
	coll := collate.New(language.Und, collate.Numeric, collate.IgnoreCase)
	sort.SliceStable(files, func(i, j int) bool {
		switch coll.CompareString(files[i].Name, files[j].Name) {
		case -1:
			return true
		case 1:
			return false
		default:
			return files[i].Name < files[j].Name
		}
	})
}

func extensionSet(exts []string) map[string]bool {
	set := make(map[string]bool, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		set[ext] = true
	}
	return set
}
