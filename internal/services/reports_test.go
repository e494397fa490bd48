package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/mashcatg/visa-cracked/internal/models"

	"go.uber.org/zap"
	"gorm.io/datatypes"
)

func intPtr(v int) *int       { return &v }
func strPtr(s string) *string { return &s }

// TestLoadWithoutReport: a missing report row is a normal pre-analysis
// state, not an error.
func TestLoadWithoutReport(t *testing.T) {
	store := newFakeStore()
	seedSession(store, "s-1", callIDPtr())
	reports := NewReports(zap.NewNop(), store)

	view, err := reports.Load(context.Background(), "s-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if view.Report != nil {
		t.Fatal("expected nil report")
	}
	if view.Complete {
		t.Fatal("a session without a report cannot be complete")
	}
}

func TestLoadUnknownSession(t *testing.T) {
	reports := NewReports(zap.NewNop(), newFakeStore())
	if _, err := reports.Load(context.Background(), "missing"); err == nil {
		t.Fatal("expected not-found error")
	}
}

// TestRenderText spot-checks the downloadable rendering: header, scores,
// findings sections and filename.
func TestRenderText(t *testing.T) {
	transcript := "AI: Why this country?\nUser: To study."
	session := &models.InterviewSession{
		ID:         "abc-123",
		Name:       "First attempt",
		Difficulty: models.DifficultyHard,
		Country:    models.Country{Name: "United States"},
		VisaType:   models.VisaType{Name: "F1 Student"},
		CreatedAt:  time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC),
		Transcript: &transcript,
	}
	report := &models.InterviewReport{
		SessionID:       "abc-123",
		OverallScore:    intPtr(81),
		LanguageScore:   intPtr(79),
		GrammarMistakes: datatypes.JSON(`[{"original":"I has","corrected":"I have","explanation":"Subject-verb agreement."}]`),
		RedFlags:        []string{"Vague funding source"},
		ImprovementPlan: []string{"Prepare bank statements"},
		DetailedFeedback: datatypes.JSON(`[{"question":"Why this country?","answer":"To study.","score":80,"feedback":"Direct.","suggested_answer":"Name the university."}]`),
		Summary:         strPtr("Strong answers overall."),
	}

	reports := NewReports(zap.NewNop(), newFakeStore())
	filename, body := reports.RenderText(&ReportView{Session: session, Report: report})

	if filename != "interview-report-abc-123-2026-03-14.txt" {
		t.Fatalf("filename = %q", filename)
	}

	for _, want := range []string{
		"VISA CRACKED - MOCK TEST REPORT",
		"Mock Name: First attempt",
		"Country: United States",
		"Visa Type: F1 Student",
		"Overall Score: 81 / 100",
		"Confidence: N/A",
		`"I has" -> "I have"`,
		"1. Vague funding source",
		"1. Prepare bank statements",
		"Suggested: Name the university.",
		"Strong answers overall.",
		"FULL TRANSCRIPT",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("rendered report missing %q", want)
		}
	}
}

// TestRenderTextWithoutReport renders the pre-analysis placeholder.
func TestRenderTextWithoutReport(t *testing.T) {
	session := &models.InterviewSession{
		ID:        "abc-123",
		CreatedAt: time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC),
	}

	reports := NewReports(zap.NewNop(), newFakeStore())
	_, body := reports.RenderText(&ReportView{Session: session})

	if !strings.Contains(body, "Not yet analyzed") {
		t.Fatal("missing placeholder for absent report")
	}
	if strings.Contains(body, "FULL TRANSCRIPT") {
		t.Fatal("transcript section rendered without a transcript")
	}
}

func TestDurationFormatting(t *testing.T) {
	if got := Duration(&models.InterviewSession{}); got != "N/A" {
		t.Fatalf("empty duration = %q", got)
	}
	seconds := 312.4
	if got := Duration(&models.InterviewSession{Duration: &seconds}); got != "5m12s" {
		t.Fatalf("duration = %q", got)
	}
}
