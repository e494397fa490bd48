package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// Session lifecycle statuses. Transitions only move forward:
// pending -> in_progress -> completed | failed.
const (
	SessionStatusPending    = "pending"
	SessionStatusInProgress = "in_progress"
	SessionStatusCompleted  = "completed"
	SessionStatusFailed     = "failed"
)

const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// Conversation roles as stored in session messages.
const (
	RoleOfficer   = "officer"
	RoleCandidate = "candidate"
)

// Message is a single turn of the interview conversation.
type Message struct {
	Role      string     `json:"role"`
	Content   string     `json:"content"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// InterviewSession is one attempt at the simulated interview.
// Artifact fields (transcript, messages, recording, duration, cost) are
// written exactly once, by result retrieval, and are immutable afterwards.
type InterviewSession struct {
	ID         string `gorm:"primaryKey;type:uuid"`
	UserID     string `gorm:"not null;index"`
	CountryID  uint
	Country    Country `gorm:"foreignKey:CountryID"`
	VisaTypeID uint
	VisaType   VisaType `gorm:"foreignKey:VisaTypeID"`
	Difficulty string   `gorm:"not null;default:'medium'"`
	Name       string

	Status         string  `gorm:"not null;default:'pending';index"`
	ProviderCallID *string `gorm:"uniqueIndex"`

	Transcript   *string        `gorm:"type:text"`
	Messages     datatypes.JSON `gorm:"type:jsonb"`
	RecordingURL *string
	Duration     *float64
	Cost         *float64

	IsPublic  bool `gorm:"not null;default:false"`
	CreatedAt time.Time
	EndedAt   *time.Time
}

// CallArtifacts carries the authoritative call outputs from the voice
// provider into the store. Any field may be nil (e.g. no recording captured).
type CallArtifacts struct {
	Transcript   *string
	Messages     []Message
	RecordingURL *string
	Duration     *float64
	Cost         *float64
}

var statusRank = map[string]int{
	SessionStatusPending:    0,
	SessionStatusInProgress: 1,
	SessionStatusCompleted:  2,
	SessionStatusFailed:     2,
}

// StatusAdvances reports whether moving from one status to another is a
// forward transition. completed and failed are both terminal.
func StatusAdvances(from, to string) bool {
	fr, ok := statusRank[from]
	if !ok {
		return false
	}
	tr, ok := statusRank[to]
	if !ok {
		return false
	}
	if fr >= statusRank[SessionStatusCompleted] {
		return false
	}
	return tr > fr
}

// Terminal reports whether the session has reached a final status.
func (s *InterviewSession) Terminal() bool {
	return s.Status == SessionStatusCompleted || s.Status == SessionStatusFailed
}

// DecodedMessages returns the structured conversation turns, or nil when
// the session has no message artifact yet.
func (s *InterviewSession) DecodedMessages() []Message {
	if len(s.Messages) == 0 {
		return nil
	}
	var msgs []Message
	if err := json.Unmarshal(s.Messages, &msgs); err != nil {
		return nil
	}
	return msgs
}

// EncodeMessages serializes conversation turns for the jsonb column.
func EncodeMessages(msgs []Message) (datatypes.JSON, error) {
	if msgs == nil {
		return nil, nil
	}
	raw, err := json.Marshal(msgs)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}
