package models

import (
	"encoding/json"
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// GrammarMistake is one correction found by the analysis engine.
type GrammarMistake struct {
	Original    string `json:"original"`
	Corrected   string `json:"corrected"`
	Explanation string `json:"explanation,omitempty"`
}

// FeedbackItem is per-question feedback from the analysis engine.
type FeedbackItem struct {
	Question        string `json:"question"`
	Answer          string `json:"answer"`
	Score           int    `json:"score"`
	Feedback        string `json:"feedback"`
	SuggestedAnswer string `json:"suggested_answer,omitempty"`
}

// ScoreEntry pairs a score label with its (possibly absent) value.
type ScoreEntry struct {
	Label string
	Value *int
}

// InterviewReport is the progressive evaluation of one session. At most one
// row exists per session; re-analysis overwrites it.
//
// Nullability is meaningful: a NULL score or array means the analyzer has
// not produced that field yet, while an empty array means it ran and found
// nothing. Completeness checks look at NULL-ness, never emptiness.
type InterviewReport struct {
	ID        uint             `gorm:"primaryKey"`
	SessionID string           `gorm:"type:uuid;uniqueIndex;not null"`
	Session   InterviewSession `gorm:"foreignKey:SessionID"`

	OverallScore           *int
	LanguageScore          *int
	ConfidenceScore        *int
	FinancialClarityScore  *int
	ImmigrationIntentScore *int
	PronunciationScore     *int
	VocabularyScore        *int
	ResponseRelevanceScore *int

	GrammarMistakes  datatypes.JSON `gorm:"type:jsonb"`
	RedFlags         pq.StringArray `gorm:"type:text[]"`
	ImprovementPlan  pq.StringArray `gorm:"type:text[]"`
	DetailedFeedback datatypes.JSON `gorm:"type:jsonb"`
	Summary          *string        `gorm:"type:text"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Scores lists every score field in rendering order.
func (r *InterviewReport) Scores() []ScoreEntry {
	return []ScoreEntry{
		{"Overall Score", r.OverallScore},
		{"Language Proficiency", r.LanguageScore},
		{"Confidence", r.ConfidenceScore},
		{"Financial Clarity", r.FinancialClarityScore},
		{"Immigration Intent", r.ImmigrationIntentScore},
		{"Pronunciation", r.PronunciationScore},
		{"Vocabulary", r.VocabularyScore},
		{"Response Relevance", r.ResponseRelevanceScore},
	}
}

// Complete reports whether every required section has been produced: a
// non-empty summary, all scores, and non-empty detailed feedback. Grammar
// mistakes and red flags may legitimately be empty arrays in a complete
// report, so they do not gate completion.
func (r *InterviewReport) Complete() bool {
	if r == nil {
		return false
	}
	if r.Summary == nil || *r.Summary == "" {
		return false
	}
	for _, s := range r.Scores() {
		if s.Value == nil {
			return false
		}
	}
	return len(r.DecodedFeedback()) > 0
}

// DecodedMistakes returns grammar mistakes, nil when not yet analyzed.
func (r *InterviewReport) DecodedMistakes() []GrammarMistake {
	if len(r.GrammarMistakes) == 0 {
		return nil
	}
	var out []GrammarMistake
	if err := json.Unmarshal(r.GrammarMistakes, &out); err != nil {
		return nil
	}
	return out
}

// DecodedFeedback returns per-question feedback, nil when not yet analyzed.
func (r *InterviewReport) DecodedFeedback() []FeedbackItem {
	if len(r.DetailedFeedback) == 0 {
		return nil
	}
	var out []FeedbackItem
	if err := json.Unmarshal(r.DetailedFeedback, &out); err != nil {
		return nil
	}
	return out
}
