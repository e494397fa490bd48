package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mashcatg/visa-cracked/internal/engine"
	"github.com/mashcatg/visa-cracked/internal/models"

	"github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// ErrInsufficientInput means the transcript is too short to analyze. No
// report is written; the engine is never invoked on garbage input.
var ErrInsufficientInput = errors.New("transcript too short to analyze")

// EngineClient generates one evaluation from one prompt.
type EngineClient interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Analyzer submits call transcripts to the analysis engine and persists
// whatever structured evaluation comes back. Malformed engine output
// degrades to a neutral fallback report; the caller always gets some
// report unless the engine itself is unreachable.
type Analyzer struct {
	log     *zap.Logger
	store   SessionStore
	engine  EngineClient
	content *models.InterviewContent
	minLen  int
}

func NewAnalyzer(log *zap.Logger, store SessionStore, eng EngineClient, content *models.InterviewContent, minLen int) *Analyzer {
	if minLen <= 0 {
		minLen = 20
	}
	return &Analyzer{log: log, store: store, engine: eng, content: content, minLen: minLen}
}

// Analyze runs one analysis attempt for a session. A failed session is a
// no-op success (nil report, nil error): analysis of a failed call is
// meaningless, not exceptional. Re-invocation overwrites the previous
// report, which is what the regenerate path relies on.
func (a *Analyzer) Analyze(ctx context.Context, sessionID string) (*models.InterviewReport, error) {
	session, err := a.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status == models.SessionStatusFailed {
		a.log.Info("Skipping analysis for failed session", zap.String("session_id", sessionID))
		return nil, nil
	}

	text := transcriptText(session)
	if len(strings.TrimSpace(text)) < a.minLen {
		return nil, ErrInsufficientInput
	}

	raw, err := a.engine.Generate(ctx, a.buildPrompt(session, text))
	if err != nil {
		// No upsert on engine failure: any prior report stays untouched.
		return nil, err
	}

	report, parseErr := parseReport(raw)
	if parseErr != nil {
		a.log.Warn("Engine response did not parse, writing fallback report",
			zap.String("session_id", sessionID),
			zap.Error(parseErr),
		)
		report = fallbackReport(parseErr)
	}
	report.SessionID = sessionID

	if err := a.store.UpsertReport(ctx, report); err != nil {
		return nil, fmt.Errorf("failed to upsert report: %w", err)
	}
	return report, nil
}

// transcriptText prefers the structured officer/candidate turns over the
// raw transcript string when both are present.
func transcriptText(session *models.InterviewSession) string {
	if msgs := session.DecodedMessages(); len(msgs) > 0 {
		var b strings.Builder
		for _, m := range msgs {
			label := "Candidate"
			if m.Role == models.RoleOfficer {
				label = "Officer"
			}
			fmt.Fprintf(&b, "%s: %s\n", label, m.Content)
		}
		return b.String()
	}
	if session.Transcript != nil {
		return *session.Transcript
	}
	return ""
}

func (a *Analyzer) buildPrompt(session *models.InterviewSession, text string) string {
	country := session.Country.Name
	if country == "" {
		country = "Unknown"
	}
	visaType := session.VisaType.Name
	if visaType == "" {
		visaType = "Unknown"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are a professional visa interview evaluator specializing in %s %s visa interviews.\n\n", country, visaType)
	if modifier := a.content.DifficultyModifier(session.Difficulty); modifier != "" {
		b.WriteString(modifier)
		b.WriteString("\n\n")
	}
	b.WriteString(`Analyze the following interview transcript and generate a detailed evaluation report in JSON format.

Return ONLY valid JSON with this exact structure (no markdown, no code blocks):
{
  "overall_score": <number 0-100>,
  "language_score": <number 0-100>,
  "confidence_score": <number 0-100>,
  "financial_clarity_score": <number 0-100>,
  "immigration_intent_score": <number 0-100>,
  "pronunciation_score": <number 0-100>,
  "vocabulary_score": <number 0-100>,
  "response_relevance_score": <number 0-100>,
  "grammar_mistakes": [
    {"original": "<exact phrase said>", "corrected": "<corrected version>", "explanation": "<why>"}
  ],
  "red_flags": ["<description of concern>"],
  "improvement_plan": ["<actionable recommendation>"],
  "detailed_feedback": [
    {"question": "<officer question>", "answer": "<candidate answer>", "score": <number 0-100>, "feedback": "<assessment>", "suggested_answer": "<stronger answer>"}
  ],
  "summary": "<2-3 sentence summary of performance>"
}

Be thorough with grammar mistakes. Red flags should highlight anything an
actual visa officer would find concerning. The improvement plan should be
specific and actionable. If there are no grammar mistakes or red flags,
return empty arrays for those fields.

Transcript:
`)
	b.WriteString(text)
	return b.String()
}

// engineReport mirrors the JSON schema the engine is instructed to return.
type engineReport struct {
	OverallScore           *int                    `json:"overall_score"`
	LanguageScore          *int                    `json:"language_score"`
	ConfidenceScore        *int                    `json:"confidence_score"`
	FinancialClarityScore  *int                    `json:"financial_clarity_score"`
	ImmigrationIntentScore *int                    `json:"immigration_intent_score"`
	PronunciationScore     *int                    `json:"pronunciation_score"`
	VocabularyScore        *int                    `json:"vocabulary_score"`
	ResponseRelevanceScore *int                    `json:"response_relevance_score"`
	GrammarMistakes        []models.GrammarMistake `json:"grammar_mistakes"`
	RedFlags               []string                `json:"red_flags"`
	ImprovementPlan        []string                `json:"improvement_plan"`
	DetailedFeedback       []models.FeedbackItem   `json:"detailed_feedback"`
	Summary                *string                 `json:"summary"`
}

// parseReport validates and coerces the engine's loosely-typed output
// immediately at the boundary. Fenced-code wrapping is stripped defensively
// even though the engine client already does so.
func parseReport(raw string) (*models.InterviewReport, error) {
	cleaned := engine.StripCodeFences(raw)

	var er engineReport
	if err := json.Unmarshal([]byte(cleaned), &er); err != nil {
		return nil, fmt.Errorf("engine response is not valid JSON: %w", err)
	}

	report := &models.InterviewReport{
		OverallScore:           clampScore(er.OverallScore),
		LanguageScore:          clampScore(er.LanguageScore),
		ConfidenceScore:        clampScore(er.ConfidenceScore),
		FinancialClarityScore:  clampScore(er.FinancialClarityScore),
		ImmigrationIntentScore: clampScore(er.ImmigrationIntentScore),
		PronunciationScore:     clampScore(er.PronunciationScore),
		VocabularyScore:        clampScore(er.VocabularyScore),
		ResponseRelevanceScore: clampScore(er.ResponseRelevanceScore),
		Summary:                er.Summary,
	}

	// nil stays NULL (not yet analyzed); an empty slice becomes an empty
	// array (analyzed, nothing found). The distinction drives completion
	// detection, so it must survive serialization.
	if er.GrammarMistakes != nil {
		raw, err := json.Marshal(er.GrammarMistakes)
		if err != nil {
			return nil, err
		}
		report.GrammarMistakes = datatypes.JSON(raw)
	}
	if er.RedFlags != nil {
		report.RedFlags = pq.StringArray(er.RedFlags)
	}
	if er.ImprovementPlan != nil {
		report.ImprovementPlan = pq.StringArray(er.ImprovementPlan)
	}
	if er.DetailedFeedback != nil {
		raw, err := json.Marshal(er.DetailedFeedback)
		if err != nil {
			return nil, err
		}
		report.DetailedFeedback = datatypes.JSON(raw)
	}

	return report, nil
}

// fallbackReport is the degraded-but-valid report written when the engine
// answers with something unparseable. Neutral mid-range scores, placeholder
// findings, and a summary naming the failure.
func fallbackReport(parseErr error) *models.InterviewReport {
	neutral := func() *int { v := 50; return &v }
	summary := fmt.Sprintf("The analysis could not be completed: %v. The scores shown are neutral placeholders.", parseErr)

	feedback, _ := json.Marshal([]models.FeedbackItem{{
		Question: "Analysis unavailable",
		Answer:   "The evaluation engine returned an unreadable response.",
		Score:    50,
		Feedback: "Please regenerate the analysis to get real feedback.",
	}})

	return &models.InterviewReport{
		OverallScore:           neutral(),
		LanguageScore:          neutral(),
		ConfidenceScore:        neutral(),
		FinancialClarityScore:  neutral(),
		ImmigrationIntentScore: neutral(),
		PronunciationScore:     neutral(),
		VocabularyScore:        neutral(),
		ResponseRelevanceScore: neutral(),
		GrammarMistakes:        datatypes.JSON("[]"),
		RedFlags:               pq.StringArray{"Analysis could not be completed"},
		ImprovementPlan:        pq.StringArray{"Please try the interview again"},
		DetailedFeedback:       datatypes.JSON(feedback),
		Summary:                &summary,
	}
}

func clampScore(v *int) *int {
	if v == nil {
		return nil
	}
	score := *v
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return &score
}
