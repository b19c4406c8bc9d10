package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseSeason(t *testing.T) {
	cases := []struct {
		in   string
		want int
		ok   bool
	}{
		{"1", 1, true},
		{"S1", 1, true},
		{"s04", 4, true},
		{"Season 2", 2, true},
		{"season 12", 12, true},
		{"0", 0, false},
		{"", 0, false},
		{"abc", 0, false},
	}
	for _, tc := range cases {
		got, err := parseSeason(tc.in)
		if tc.ok && (err != nil || got != tc.want) {
			t.Errorf("parseSeason(%q) = (%d, %v), want %d", tc.in, got, err, tc.want)
		}
		if !tc.ok && err == nil {
			t.Errorf("parseSeason(%q) should fail", tc.in)
		}
	}
}

func TestConfirm(t *testing.T) {
	cases := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"yes\n", true},
		{"Y\n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
		{"whatever\n", false},
	}
	for _, tc := range cases {
		var out bytes.Buffer
		got := confirm(strings.NewReader(tc.input), &out, "Proceed")
		if got != tc.want {
			t.Errorf("confirm(%q) = %v, want %v", tc.input, got, tc.want)
		}
		if !strings.Contains(out.String(), "Proceed") {
			t.Errorf("prompt not written for input %q", tc.input)
		}
	}
}

func TestShortID(t *testing.T) {
	if got := shortID("0123456789abcdef"); got != "01234567" {
		t.Fatalf("shortID = %q", got)
	}
	if got := shortID("abc"); got != "abc" {
		t.Fatalf("shortID = %q", got)
	}
}
