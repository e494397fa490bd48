package callsession

import (
	"context"
	"encoding/json"
)

// State of the live call. Transitions only move forward:
// idle -> connecting -> connected -> ended.
type State string

const (
	StateIdle       State = "idle"
	StateConnecting State = "connecting"
	StateConnected  State = "connected"
	StateEnded      State = "ended"
)

// EventType classifies messages emitted to the UI layer.
type EventType string

const (
	EventTypeState      EventType = "state"
	EventTypeSpeech     EventType = "speech"
	EventTypeTranscript EventType = "transcript"
	EventTypeError      EventType = "error"
)

// Speech activity values carried by speech events.
const (
	SpeakerOfficer   = "officer-speaking"
	SpeakerCandidate = "candidate-speaking"
	SpeakerIdle      = "idle"
)

// Event is one message on the session's outbound stream. Transcript events
// carry overwrite semantics: each fragment replaces the previous one for the
// same role, because the authoritative transcript arrives later from result
// retrieval.
type Event struct {
	Type    EventType `json:"type"`
	State   State     `json:"state,omitempty"`
	Speaker string    `json:"speaker,omitempty"`
	Role    string    `json:"role,omitempty"`
	Text    string    `json:"text,omitempty"`
	Err     string    `json:"error,omitempty"`
}

// Provider event kinds, as normalized from the realtime channel callbacks.
const (
	ProviderCallStart   = "call-start"
	ProviderCallEnd     = "call-end"
	ProviderSpeechStart = "speech-start"
	ProviderSpeechEnd   = "speech-end"
	ProviderTranscript  = "transcript"
	ProviderError       = "error"
)

// ProviderEvent is a raw callback from the realtime channel, before role
// mapping. The provider names the officer "assistant" and the candidate
// "user".
type ProviderEvent struct {
	Kind       string
	Role       string
	Transcript string
	Err        error
}

// MediaConstraints are the capture settings requested from local devices.
type MediaConstraints struct {
	EchoCancellation bool
	NoiseSuppression bool
	AutoGainControl  bool
	VideoWidth       int
	VideoHeight      int
}

// DefaultMediaConstraints returns the capture settings used for interviews.
func DefaultMediaConstraints() MediaConstraints {
	return MediaConstraints{
		EchoCancellation: true,
		NoiseSuppression: true,
		AutoGainControl:  true,
		VideoWidth:       1280,
		VideoHeight:      720,
	}
}

// MediaStream is an acquired set of local device handles.
type MediaStream interface {
	Release()
}

// MediaSource grants access to local capture devices.
type MediaSource interface {
	Acquire(ctx context.Context, constraints MediaConstraints) (MediaStream, error)
}

// CallStarter is the backend boundary that resolves a session into a
// provider call configuration (the start-interview operation).
type CallStarter interface {
	StartInterview(ctx context.Context, sessionID string) (publicKey string, callConfig json.RawMessage, err error)
}

// RealtimeCall is an open realtime channel to the voice provider.
type RealtimeCall interface {
	Start(config json.RawMessage) error
	Stop()
	Events() <-chan ProviderEvent
}

// RealtimeDialer opens realtime channels.
type RealtimeDialer interface {
	Dial(publicKey string) (RealtimeCall, error)
}
