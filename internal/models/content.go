// content.go
package models

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DifficultyProfile tunes the evaluator prompt for one difficulty level.
type DifficultyProfile struct {
	Label          string `yaml:"label"`
	PromptModifier string `yaml:"prompt_modifier"`
}

// InterviewContent holds the operator-editable interview tuning loaded at
// startup: the farewell phrases that trigger auto-termination and the
// per-difficulty prompt modifiers.
type InterviewContent struct {
	FarewellPhrases []string                     `yaml:"farewell_phrases"`
	Difficulties    map[string]DifficultyProfile `yaml:"difficulties"`
}

// LoadInterviewContent reads and parses the interview content YAML.
func LoadInterviewContent(path string) (*InterviewContent, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read interview content file: %w", err)
	}

	var content InterviewContent
	if err := yaml.Unmarshal(data, &content); err != nil {
		return nil, fmt.Errorf("failed to unmarshal interview content YAML: %w", err)
	}

	if len(content.FarewellPhrases) == 0 {
		return nil, fmt.Errorf("interview content defines no farewell phrases")
	}
	for i, p := range content.FarewellPhrases {
		content.FarewellPhrases[i] = strings.ToLower(strings.TrimSpace(p))
	}

	return &content, nil
}

// DifficultyModifier returns the prompt modifier for a difficulty level,
// falling back to an empty string for unknown levels.
func (c *InterviewContent) DifficultyModifier(difficulty string) string {
	if profile, ok := c.Difficulties[difficulty]; ok {
		return profile.PromptModifier
	}
	return ""
}
