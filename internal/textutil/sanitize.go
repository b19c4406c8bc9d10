// Package textutil provides filename sanitization helpers for generated
// target names.
package textutil

import (
	"strings"
	"unicode"
)

// fileNameReplacer maps filesystem-unsafe characters to safe alternatives.
// Path separators and colons become dashes; the rest are dropped.
var fileNameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// SanitizeFileName makes a generated filename safe for the filesystem and for
// the backup ledger: unsafe characters are replaced, control characters and
// newlines are dropped, and runs of whitespace collapse to single spaces.
func SanitizeFileName(name string) string {
	name = fileNameReplacer.Replace(name)
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if unicode.IsControl(r) {
			continue
		}
		b.WriteRune(r)
	}
	return CollapseSpaces(b.String())
}

// CollapseSpaces trims the string and squeezes internal whitespace runs down
// to a single space.
func CollapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
