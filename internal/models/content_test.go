package models

import (
	"os"
	"path/filepath"
	"testing"
)

func writeContentFile(t *testing.T, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "interview.yaml")
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestLoadInterviewContent(t *testing.T) {
	path := writeContentFile(t, `
farewell_phrases:
  - "  Goodbye  "
  - "Thank You For Your Time"
difficulties:
  hard:
    label: "Hard"
    prompt_modifier: "Grade strictly."
`)

	content, err := LoadInterviewContent(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if len(content.FarewellPhrases) != 2 {
		t.Fatalf("phrases = %v", content.FarewellPhrases)
	}
	if content.FarewellPhrases[0] != "goodbye" || content.FarewellPhrases[1] != "thank you for your time" {
		t.Fatalf("phrases not normalized: %v", content.FarewellPhrases)
	}
	if content.DifficultyModifier(DifficultyHard) != "Grade strictly." {
		t.Fatal("difficulty modifier not loaded")
	}
	if content.DifficultyModifier("bogus") != "" {
		t.Fatal("unknown difficulty should yield an empty modifier")
	}
}

func TestLoadInterviewContentNoPhrases(t *testing.T) {
	path := writeContentFile(t, "difficulties: {}\n")
	if _, err := LoadInterviewContent(path); err == nil {
		t.Fatal("expected error when no farewell phrases are defined")
	}
}

func TestLoadInterviewContentMissingFile(t *testing.T) {
	if _, err := LoadInterviewContent(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for a missing file")
	}
}
