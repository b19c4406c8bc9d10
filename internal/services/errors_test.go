package services

import (
	"errors"
	"testing"
)

func TestWrapTagsMarker(t *testing.T) {
	err := Wrap(ErrValidation, "planning", "validate params", "show name empty", nil)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if got := err.Error(); got != "validation error: planning: validate params: show name empty" {
		t.Fatalf("unexpected message: %q", got)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(ErrExternalTool, "extraction", "generate", "", cause)
	if !errors.Is(err, cause) {
		t.Fatalf("cause not preserved: %v", err)
	}
	if !errors.Is(err, ErrExternalTool) {
		t.Fatalf("marker not preserved: %v", err)
	}
}

func TestWrapNilMarkerDefaultsTransient(t *testing.T) {
	err := Wrap(nil, "", "", "", nil)
	if !errors.Is(err, ErrTransient) {
		t.Fatalf("expected ErrTransient, got %v", err)
	}
}

func TestIsFatal(t *testing.T) {
	if !IsFatal(Wrap(ErrNotFound, "scan", "read dir", "missing", nil)) {
		t.Fatal("ErrNotFound should be fatal")
	}
	if IsFatal(Wrap(ErrConflict, "apply", "rename", "duplicate target", nil)) {
		t.Fatal("ErrConflict should not be fatal")
	}
}
