package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mashcatg/visa-cracked/internal/models"
	"github.com/mashcatg/visa-cracked/internal/repository"

	"go.uber.org/zap"
)

// ReportView is one consistent read of a session and its possibly absent or
// partial report.
type ReportView struct {
	Session  *models.InterviewSession `json:"session"`
	Report   *models.InterviewReport  `json:"report"`
	Complete bool                     `json:"complete"`
}

// Reports assembles the consumer-facing view of a session's evaluation and
// renders the downloadable plain-text report.
type Reports struct {
	log   *zap.Logger
	store SessionStore
}

func NewReports(log *zap.Logger, store SessionStore) *Reports {
	return &Reports{log: log, store: store}
}

// Load fetches session plus report once. An absent report is not an error;
// the view simply carries a nil report and Complete=false.
func (r *Reports) Load(ctx context.Context, sessionID string) (*ReportView, error) {
	session, err := r.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	report, err := r.store.GetReport(ctx, sessionID)
	if err != nil && !repository.IsNotFound(err) {
		return nil, err
	}

	return &ReportView{
		Session:  session,
		Report:   report,
		Complete: report.Complete(),
	}, nil
}

// RenderText produces the downloadable plain-text rendering of a report and
// the filename to serve it under.
func (r *Reports) RenderText(view *ReportView) (filename, body string) {
	session := view.Session
	report := view.Report

	date := session.CreatedAt.Format("2006-01-02")
	filename = fmt.Sprintf("interview-report-%s-%s.txt", session.ID, date)

	var b strings.Builder
	line := strings.Repeat("-", 30)

	b.WriteString("VISA CRACKED - MOCK TEST REPORT\n")
	b.WriteString(strings.Repeat("=", 50) + "\n\n")
	fmt.Fprintf(&b, "Mock Name: %s\n", orNA(session.Name))
	fmt.Fprintf(&b, "Country: %s\n", orNA(session.Country.Name))
	fmt.Fprintf(&b, "Visa Type: %s\n", orNA(session.VisaType.Name))
	fmt.Fprintf(&b, "Difficulty: %s\n", orNA(session.Difficulty))
	fmt.Fprintf(&b, "Date: %s\n\n", session.CreatedAt.Format("January 2, 2006"))

	b.WriteString("SCORES\n" + line + "\n")
	if report != nil {
		for _, s := range report.Scores() {
			if s.Value != nil {
				fmt.Fprintf(&b, "%s: %d / 100\n", s.Label, *s.Value)
			} else {
				fmt.Fprintf(&b, "%s: N/A\n", s.Label)
			}
		}
	} else {
		b.WriteString("Not yet analyzed\n")
	}
	b.WriteString("\n")

	if report != nil {
		if mistakes := report.DecodedMistakes(); len(mistakes) > 0 {
			b.WriteString("GRAMMAR MISTAKES\n" + line + "\n")
			for i, m := range mistakes {
				fmt.Fprintf(&b, "%d. %q -> %q\n", i+1, m.Original, m.Corrected)
				if m.Explanation != "" {
					fmt.Fprintf(&b, "   %s\n", m.Explanation)
				}
			}
			b.WriteString("\n")
		}

		if len(report.RedFlags) > 0 {
			b.WriteString("RED FLAGS\n" + line + "\n")
			for i, f := range report.RedFlags {
				fmt.Fprintf(&b, "%d. %s\n", i+1, f)
			}
			b.WriteString("\n")
		}

		if len(report.ImprovementPlan) > 0 {
			b.WriteString("IMPROVEMENT PLAN\n" + line + "\n")
			for i, item := range report.ImprovementPlan {
				fmt.Fprintf(&b, "%d. %s\n", i+1, item)
			}
			b.WriteString("\n")
		}

		if feedback := report.DecodedFeedback(); len(feedback) > 0 {
			b.WriteString("DETAILED FEEDBACK\n" + line + "\n")
			for i, item := range feedback {
				fmt.Fprintf(&b, "%d. Q: %s\n", i+1, item.Question)
				fmt.Fprintf(&b, "   A: %s\n", item.Answer)
				fmt.Fprintf(&b, "   Score: %d / 100\n", item.Score)
				fmt.Fprintf(&b, "   %s\n", item.Feedback)
				if item.SuggestedAnswer != "" {
					fmt.Fprintf(&b, "   Suggested: %s\n", item.SuggestedAnswer)
				}
			}
			b.WriteString("\n")
		}

		if report.Summary != nil && *report.Summary != "" {
			b.WriteString("SUMMARY\n" + line + "\n" + *report.Summary + "\n\n")
		}
	}

	if session.Transcript != nil && *session.Transcript != "" {
		b.WriteString("FULL TRANSCRIPT\n" + line + "\n" + *session.Transcript + "\n")
	}

	return filename, b.String()
}

// Duration formats a session duration for display headers.
func Duration(session *models.InterviewSession) string {
	if session.Duration == nil {
		return "N/A"
	}
	d := time.Duration(*session.Duration * float64(time.Second))
	return d.Round(time.Second).String()
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
