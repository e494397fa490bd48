package repository

import (
	"context"

	"github.com/mashcatg/visa-cracked/internal/database"
	"github.com/mashcatg/visa-cracked/internal/models"

	"gorm.io/gorm/clause"
)

// GetReport loads the report for a session, gorm.ErrRecordNotFound when the
// analyzer has not produced one yet.
func (Store) GetReport(ctx context.Context, sessionID string) (*models.InterviewReport, error) {
	var report models.InterviewReport
	err := database.DB.WithContext(ctx).
		First(&report, "session_id = ?", sessionID).Error
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// UpsertReport inserts or overwrites the single report row for a session.
// Keyed by session_id, so re-analysis (the regenerate path) replaces the
// previous evaluation instead of duplicating it.
func (Store) UpsertReport(ctx context.Context, report *models.InterviewReport) error {
	return database.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "session_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"overall_score",
				"language_score",
				"confidence_score",
				"financial_clarity_score",
				"immigration_intent_score",
				"pronunciation_score",
				"vocabulary_score",
				"response_relevance_score",
				"grammar_mistakes",
				"red_flags",
				"improvement_plan",
				"detailed_feedback",
				"summary",
				"updated_at",
			}),
		}).
		Create(report).Error
}
