package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mashcatg/visa-cracked/internal/models"
	"github.com/mashcatg/visa-cracked/internal/provider"
	"github.com/mashcatg/visa-cracked/internal/repository"

	"go.uber.org/zap"
)

// ErrNoProviderCall means result retrieval was asked about a session that
// never started a real call.
var ErrNoProviderCall = errors.New("session has no provider call")

// SessionStore is the slice of persistence the pipeline services need.
type SessionStore interface {
	GetSession(ctx context.Context, id string) (*models.InterviewSession, error)
	SaveCallArtifacts(ctx context.Context, id, status string, artifacts models.CallArtifacts) error
	GetReport(ctx context.Context, sessionID string) (*models.InterviewReport, error)
	UpsertReport(ctx context.Context, report *models.InterviewReport) error
}

// CallFetcher fetches final call detail from the voice provider.
type CallFetcher interface {
	GetCall(ctx context.Context, callID string) (*provider.Call, error)
}

// Results retrieves authoritative call artifacts once a call has ended and
// writes the session's terminal status. It is the single point of truth for
// the billing signal: status failed means the attempt is never charged.
type Results struct {
	log   *zap.Logger
	store SessionStore
	calls CallFetcher
}

func NewResults(log *zap.Logger, store SessionStore, calls CallFetcher) *Results {
	return &Results{log: log, store: store, calls: calls}
}

// Retrieve performs the single-shot artifact fetch and persists the
// outcome. Whatever happens to the individual artifact fields, the session
// always leaves here with a terminal status and an ended_at timestamp.
// Once that status is written it never changes: a repeat retrieval returns
// the stored session without touching the provider again.
func (s *Results) Retrieve(ctx context.Context, sessionID string) (*models.InterviewSession, error) {
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.ProviderCallID == nil {
		return nil, ErrNoProviderCall
	}
	if session.Terminal() {
		return session, nil
	}

	status := models.SessionStatusCompleted
	var artifacts models.CallArtifacts

	call, err := s.calls.GetCall(ctx, *session.ProviderCallID)
	switch {
	case err != nil:
		// The call cannot be confirmed as completed, so it must not be
		// billed. Mark failed rather than leaving the session in_progress.
		s.log.Error("Call detail fetch failed, marking session failed",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		status = models.SessionStatusFailed
	case call.Failed():
		s.log.Warn("Provider reported call failure",
			zap.String("session_id", sessionID),
			zap.String("ended_reason", call.EndedReason),
		)
		status = models.SessionStatusFailed
	default:
		artifacts = callArtifacts(call)
	}

	if err := s.store.SaveCallArtifacts(ctx, sessionID, status, artifacts); err != nil {
		return nil, fmt.Errorf("failed to save call artifacts: %w", err)
	}

	session.Status = status
	now := time.Now().UTC()
	session.EndedAt = &now
	session.Transcript = artifacts.Transcript
	session.RecordingURL = artifacts.RecordingURL
	session.Duration = artifacts.Duration
	session.Cost = artifacts.Cost
	if encoded, err := models.EncodeMessages(artifacts.Messages); err == nil {
		session.Messages = encoded
	}
	return session, nil
}

// IsNotFound reports whether the error means the session row is missing.
func (s *Results) IsNotFound(err error) bool {
	return repository.IsNotFound(err)
}

// callArtifacts maps the provider's call detail onto the stored artifact
// fields, converting provider roles to officer/candidate turns. Fields the
// provider did not produce stay nil.
func callArtifacts(call *provider.Call) models.CallArtifacts {
	artifacts := models.CallArtifacts{
		Transcript:   call.Artifact.Transcript,
		RecordingURL: call.Artifact.RecordingURL,
		Duration:     call.Duration,
		Cost:         call.Cost,
	}
	if len(call.Artifact.Messages) > 0 {
		msgs := make([]models.Message, 0, len(call.Artifact.Messages))
		for _, m := range call.Artifact.Messages {
			role := models.RoleCandidate
			if m.Role == "assistant" || m.Role == "bot" {
				role = models.RoleOfficer
			}
			msgs = append(msgs, models.Message{Role: role, Content: m.Message})
		}
		artifacts.Messages = msgs
	}
	return artifacts
}
