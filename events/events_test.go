package events

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-test/deep"
)

func TestLoadOrdersByTime(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "events.txt")
	content := "# comment line, ignored\n" +
		"@1000 S1: PRESS\n" +
		"@500 R1: 0.5\n" +
		"\n" +
		"@1000 S2: RELEASE\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := []Event{
		{TimeNS: 500, Device: "R1", Payload: "0.5"},
		{TimeNS: 1000, Device: "S1", Payload: "PRESS"},
		{TimeNS: 1000, Device: "S2", Payload: "RELEASE"},
	}
	if diff := deep.Equal(got, want); diff != nil {
		t.Errorf("Load result mismatch: %v", diff)
	}
}

func TestLoadMalformedLine(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "events.txt")
	if err := os.WriteFile(path, []byte("not an event line\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected an error for a malformed line, got nil")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Error("expected an error for a missing file, got nil")
	}
}
