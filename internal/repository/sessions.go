package repository

import (
	"context"
	"errors"
	"time"

	"github.com/mashcatg/visa-cracked/internal/database"
	"github.com/mashcatg/visa-cracked/internal/models"

	"gorm.io/gorm"
)

// ErrProviderCallSet is returned when a session already has a provider call
// id. A session links to at most one provider call, ever.
var ErrProviderCallSet = errors.New("provider call already set for session")

// Store is the GORM-backed persistence layer for sessions and reports.
// It owns all authoritative state; pipeline components never cache rows
// across operations.
type Store struct{}

// GetSession loads one session with its country and visa type.
func (Store) GetSession(ctx context.Context, id string) (*models.InterviewSession, error) {
	var session models.InterviewSession
	err := database.DB.WithContext(ctx).
		Preload("Country").
		Preload("VisaType").
		First(&session, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// CreateSession inserts a new pending session.
func (Store) CreateSession(ctx context.Context, session *models.InterviewSession) error {
	return database.DB.WithContext(ctx).Create(session).Error
}

// SetProviderCall records the provider call id and moves the session to
// in_progress. The guard on provider_call_id IS NULL enforces that the id
// is written at most once per session.
func (Store) SetProviderCall(ctx context.Context, id, callID string) error {
	res := database.DB.WithContext(ctx).
		Model(&models.InterviewSession{}).
		Where("id = ? AND provider_call_id IS NULL", id).
		Updates(map[string]interface{}{
			"provider_call_id": callID,
			"status":           models.SessionStatusInProgress,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrProviderCallSet
	}
	return nil
}

// SaveCallArtifacts writes the authoritative call outputs together with the
// terminal status and ended_at in one update. The status predicate makes
// the write first-wins: once a session is completed or failed, neither its
// status nor its artifacts can be rewritten.
func (Store) SaveCallArtifacts(ctx context.Context, id, status string, artifacts models.CallArtifacts) error {
	messages, err := models.EncodeMessages(artifacts.Messages)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	return database.DB.WithContext(ctx).
		Model(&models.InterviewSession{}).
		Where("id = ? AND status NOT IN ?", id, []string{models.SessionStatusCompleted, models.SessionStatusFailed}).
		Updates(map[string]interface{}{
			"status":        status,
			"transcript":    artifacts.Transcript,
			"messages":      messages,
			"recording_url": artifacts.RecordingURL,
			"duration":      artifacts.Duration,
			"cost":          artifacts.Cost,
			"ended_at":      now,
		}).Error
}

// ListSessions returns a user's sessions, newest first.
func (Store) ListSessions(ctx context.Context, userID string) ([]models.InterviewSession, error) {
	var sessions []models.InterviewSession
	err := database.DB.WithContext(ctx).
		Preload("Country").
		Preload("VisaType").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&sessions).Error
	return sessions, err
}

// IsNotFound reports whether an error means the row does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
