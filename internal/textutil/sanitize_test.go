package textutil

import "testing"

func TestSanitizeFileName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"My Show", "My Show"},
		{"AC/DC: Live", "AC-DC- Live"},
		{"What? Really*", "What Really-"},
		{"  spaced   out  ", "spaced out"},
		{"tab\tand\nnewline", "tab and newline"},
		{"<angles>|pipe\"", "anglespipe"},
	}
	for _, tc := range cases {
		if got := SanitizeFileName(tc.in); got != tc.want {
			t.Errorf("SanitizeFileName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCollapseSpaces(t *testing.T) {
	if got := CollapseSpaces("  a  b \t c "); got != "a b c" {
		t.Fatalf("CollapseSpaces = %q", got)
	}
	if got := CollapseSpaces("   "); got != "" {
		t.Fatalf("CollapseSpaces whitespace-only = %q", got)
	}
}
