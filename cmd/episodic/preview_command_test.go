package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTestConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[scan]
video_extensions = [".mkv", ".mp4"]
subtitle_extensions = [".srt"]

[history]
enabled = false
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestPreviewCommandRendersPlan(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"show.s01e01.mkv", "show.s01e02.mkv", "show.s01e02.en.srt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	output, err := runCommand(t,
		"--config", writeTestConfig(t),
		"preview", dir, "--show", "My Show", "--season", "S1")
	if err != nil {
		t.Fatalf("preview: %v\n%s", err, output)
	}

	for _, want := range []string{"My Show S01E01.mkv", "My Show S01E02.mkv", "My Show S01E02.en.srt"} {
		if !strings.Contains(output, want) {
			t.Fatalf("output missing %q:\n%s", want, output)
		}
	}

	// Preview must not touch the directory.
	if _, err := os.Stat(filepath.Join(dir, "show.s01e01.mkv")); err != nil {
		t.Fatalf("preview mutated the directory: %v", err)
	}
}

func TestPreviewCommandRequiresShow(t *testing.T) {
	output, err := runCommand(t,
		"--config", writeTestConfig(t),
		"preview", t.TempDir())
	if err == nil {
		t.Fatalf("expected missing --show error, got:\n%s", output)
	}
}

func TestApplyCommandDeclinedConfirmation(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "raw.mkv"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	root := newRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader("n\n"))
	root.SetArgs([]string{"--config", writeTestConfig(t), "apply", dir, "--show", "X"})
	if err := root.Execute(); err != nil {
		t.Fatalf("apply: %v\n%s", err, out.String())
	}

	if !strings.Contains(out.String(), "Aborted.") {
		t.Fatalf("expected abort message:\n%s", out.String())
	}
	if _, err := os.Stat(filepath.Join(dir, "raw.mkv")); err != nil {
		t.Fatal("declined apply must not rename files")
	}
}

func TestApplyCommandYesFlag(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "raw.mkv"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	output, err := runCommand(t,
		"--config", writeTestConfig(t),
		"apply", dir, "--show", "X", "--yes")
	if err != nil {
		t.Fatalf("apply: %v\n%s", err, output)
	}
	if _, err := os.Stat(filepath.Join(dir, "X S01E01.mkv")); err != nil {
		t.Fatalf("file not renamed:\n%s", output)
	}
	if _, err := os.Stat(filepath.Join(dir, "rename_backup.txt")); err != nil {
		t.Fatal("backup ledger missing after apply")
	}
}

func TestRestoreCommandRoundTrip(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "raw.mkv"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfgPath := writeTestConfig(t)

	if output, err := runCommand(t, "--config", cfgPath, "apply", dir, "--show", "X", "--yes"); err != nil {
		t.Fatalf("apply: %v\n%s", err, output)
	}
	output, err := runCommand(t, "--config", cfgPath, "restore", dir, "--yes", "--delete-backup")
	if err != nil {
		t.Fatalf("restore: %v\n%s", err, output)
	}

	if _, err := os.Stat(filepath.Join(dir, "raw.mkv")); err != nil {
		t.Fatal("original name not restored")
	}
	if _, err := os.Stat(filepath.Join(dir, "rename_backup.txt")); !os.IsNotExist(err) {
		t.Fatal("ledger should be deleted with --delete-backup")
	}
}
