// Package callsession is the in-process client half of a live interview:
// it is embedded by the front-end process (not the API server), drives one
// call from media acquisition to hangup, and feeds UI state through its
// event channel. The API server only ever sees the start-interview and
// result-retrieval requests this client makes.
package callsession

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrMediaAccess means local device permission was denied. The session
// stays idle; the caller notifies the user and redirects.
var ErrMediaAccess = errors.New("media access denied")

// ErrNotIdle is returned when Start is called on a session that already ran.
var ErrNotIdle = errors.New("call session already started")

// Client drives one live interview call. All device and provider callbacks
// are normalized into a single internal event loop; consumers read the
// outbound Events channel. A client is single-use: once ended it cannot be
// restarted.
type Client struct {
	sessionID string
	media     MediaSource
	starter   CallStarter
	dialer    RealtimeDialer
	phrases   []string
	grace     time.Duration
	log       *zap.Logger

	mu         sync.Mutex
	state      State
	stream     MediaStream
	call       RealtimeCall
	graceTimer *time.Timer

	events chan Event
	done   chan struct{}
}

// New creates an idle call session client. Farewell phrases are matched
// case-insensitively against officer transcript fragments; grace is how
// long to wait after a match before hanging up, letting trailing audio play.
func New(sessionID string, media MediaSource, starter CallStarter, dialer RealtimeDialer, phrases []string, grace time.Duration, log *zap.Logger) *Client {
	lowered := make([]string, len(phrases))
	for i, p := range phrases {
		lowered[i] = strings.ToLower(p)
	}
	return &Client{
		sessionID: sessionID,
		media:     media,
		starter:   starter,
		dialer:    dialer,
		phrases:   lowered,
		grace:     grace,
		log:       log,
		state:     StateIdle,
		events:    make(chan Event, 32),
		done:      make(chan struct{}),
	}
}

// Events is the outbound stream consumed by the UI layer. It is closed when
// the session ends.
func (c *Client) Events() <-chan Event {
	return c.events
}

// State returns a snapshot of the current state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Done is closed once the session has fully ended and media is released.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Start acquires local media, resolves the call configuration through the
// backend boundary, and opens the provider's realtime channel. On media
// denial the session remains idle. Any later failure ends the session with
// media released.
func (c *Client) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		return ErrNotIdle
	}
	c.state = StateConnecting
	c.mu.Unlock()
	c.emit(Event{Type: EventTypeState, State: StateConnecting})

	stream, err := c.media.Acquire(ctx, DefaultMediaConstraints())
	if err != nil {
		// Permission denied: back to idle, nothing to release.
		c.mu.Lock()
		c.state = StateIdle
		c.mu.Unlock()
		c.emit(Event{Type: EventTypeState, State: StateIdle})
		return fmt.Errorf("%w: %v", ErrMediaAccess, err)
	}
	c.mu.Lock()
	c.stream = stream
	c.mu.Unlock()

	publicKey, callConfig, err := c.starter.StartInterview(ctx, c.sessionID)
	if err != nil {
		c.finish()
		return fmt.Errorf("failed to start interview: %w", err)
	}

	call, err := c.dialer.Dial(publicKey)
	if err != nil {
		c.finish()
		return fmt.Errorf("failed to open realtime channel: %w", err)
	}
	c.mu.Lock()
	c.call = call
	c.mu.Unlock()

	if err := call.Start(callConfig); err != nil {
		c.finish()
		return fmt.Errorf("failed to start provider call: %w", err)
	}

	go c.run(ctx)
	return nil
}

// End requests a hangup. Idempotent: safe to call at any time, in any
// state. The provider's call-ended event remains the authority for the
// final transition.
func (c *Client) End() {
	c.mu.Lock()
	if c.state == StateEnded {
		c.mu.Unlock()
		return
	}
	call := c.call
	c.mu.Unlock()

	if call != nil {
		call.Stop()
	} else {
		c.finish()
	}
}

// run pumps provider events until the call ends. finish is deferred so
// media handles are released on every exit path.
func (c *Client) run(ctx context.Context) {
	defer c.finish()

	for {
		select {
		case <-ctx.Done():
			c.mu.Lock()
			call := c.call
			c.mu.Unlock()
			if call != nil {
				call.Stop()
			}
			return
		case ev, ok := <-c.call.Events():
			if !ok {
				return
			}
			if ended := c.handle(ev); ended {
				return
			}
		}
	}
}

// handle processes one provider event, returning true when the call ended.
func (c *Client) handle(ev ProviderEvent) bool {
	switch ev.Kind {
	case ProviderCallStart:
		c.mu.Lock()
		if c.state == StateConnecting {
			c.state = StateConnected
		}
		c.mu.Unlock()
		c.emit(Event{Type: EventTypeState, State: StateConnected})

	case ProviderSpeechStart:
		c.emit(Event{Type: EventTypeSpeech, Speaker: SpeakerOfficer})

	case ProviderSpeechEnd:
		c.emit(Event{Type: EventTypeSpeech, Speaker: SpeakerIdle})

	case ProviderTranscript:
		role := mapRole(ev.Role)
		c.emit(Event{Type: EventTypeTranscript, Role: role, Text: ev.Transcript})
		if role == "officer" {
			c.scanFarewell(ev.Transcript)
		} else {
			c.emit(Event{Type: EventTypeSpeech, Speaker: SpeakerCandidate})
		}

	case ProviderError:
		// Transient: surface to the UI, do not tear down the call.
		msg := "voice connection error"
		if ev.Err != nil {
			msg = ev.Err.Error()
		}
		c.log.Warn("Realtime channel error", zap.String("session_id", c.sessionID), zap.Error(ev.Err))
		c.emit(Event{Type: EventTypeError, Err: msg})

	case ProviderCallEnd:
		return true
	}
	return false
}

// scanFarewell checks an officer fragment for a configured farewell phrase
// and, on the first match, schedules a hangup after the grace delay. This
// is a heuristic only; the provider decides when the call actually ends.
func (c *Client) scanFarewell(fragment string) {
	lowered := strings.ToLower(fragment)
	for _, phrase := range c.phrases {
		if strings.Contains(lowered, phrase) {
			c.mu.Lock()
			if c.graceTimer == nil && c.state == StateConnected {
				c.log.Info("Farewell phrase detected, scheduling hangup",
					zap.String("session_id", c.sessionID),
					zap.String("phrase", phrase),
				)
				call := c.call
				c.graceTimer = time.AfterFunc(c.grace, call.Stop)
			}
			c.mu.Unlock()
			return
		}
	}
}

// finish releases all local resources exactly once and closes the event
// stream. Safe to call from any exit path.
func (c *Client) finish() {
	c.mu.Lock()
	if c.state == StateEnded {
		c.mu.Unlock()
		return
	}
	c.state = StateEnded
	if c.graceTimer != nil {
		c.graceTimer.Stop()
		c.graceTimer = nil
	}
	stream := c.stream
	c.stream = nil
	c.mu.Unlock()

	if stream != nil {
		stream.Release()
	}

	c.emit(Event{Type: EventTypeState, State: StateEnded})
	close(c.events)
	close(c.done)
}

// emit delivers an event without ever blocking the call loop; if the
// consumer lags, older events are dropped in favor of newer ones.
func (c *Client) emit(ev Event) {
	select {
	case c.events <- ev:
	default:
		select {
		case <-c.events:
		default:
		}
		select {
		case c.events <- ev:
		default:
		}
	}
}

func mapRole(providerRole string) string {
	if providerRole == "assistant" {
		return "officer"
	}
	return "candidate"
}
