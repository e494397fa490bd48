package callsession

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

var testPhrases = []string{"goodbye", "that concludes", "thank you for your time", "have a good day"}

type fakeStream struct {
	released atomic.Bool
}

func (s *fakeStream) Release() { s.released.Store(true) }

type fakeMedia struct {
	stream *fakeStream
	err    error
}

func (m *fakeMedia) Acquire(ctx context.Context, constraints MediaConstraints) (MediaStream, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.stream, nil
}

type fakeStarter struct {
	err error
}

func (s *fakeStarter) StartInterview(ctx context.Context, sessionID string) (string, json.RawMessage, error) {
	if s.err != nil {
		return "", nil, s.err
	}
	return "pk-test", json.RawMessage(`{"id":"call-1"}`), nil
}

type fakeCall struct {
	events chan ProviderEvent
	stops  atomic.Int32
}

func (c *fakeCall) Start(config json.RawMessage) error { return nil }

func (c *fakeCall) Stop() {
	if c.stops.Add(1) == 1 {
		c.events <- ProviderEvent{Kind: ProviderCallEnd}
	}
}

func (c *fakeCall) Events() <-chan ProviderEvent { return c.events }

type fakeDialer struct {
	call *fakeCall
}

func (d *fakeDialer) Dial(publicKey string) (RealtimeCall, error) { return d.call, nil }

func newTestClient(t *testing.T, grace time.Duration) (*Client, *fakeStream, *fakeCall) {
	t.Helper()
	stream := &fakeStream{}
	call := &fakeCall{events: make(chan ProviderEvent, 16)}
	client := New(
		"session-1",
		&fakeMedia{stream: stream},
		&fakeStarter{},
		&fakeDialer{call: call},
		testPhrases,
		grace,
		zap.NewNop(),
	)
	return client, stream, call
}

func waitDone(t *testing.T, c *Client) {
	t.Helper()
	select {
	case <-c.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("session did not end in time")
	}
}

// TestLifecycle verifies the forward path idle -> connecting -> connected
// -> ended, with media released at the end.
func TestLifecycle(t *testing.T) {
	client, stream, call := newTestClient(t, time.Second)

	if client.State() != StateIdle {
		t.Fatalf("state = %s, want idle", client.State())
	}
	if err := client.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	call.events <- ProviderEvent{Kind: ProviderCallStart}
	call.events <- ProviderEvent{Kind: ProviderCallEnd}
	waitDone(t, client)

	if client.State() != StateEnded {
		t.Fatalf("state = %s, want ended", client.State())
	}
	if !stream.released.Load() {
		t.Fatal("media stream was not released")
	}
}

// TestMediaDeniedStaysIdle checks that a permission failure aborts the
// start and leaves the session idle.
func TestMediaDeniedStaysIdle(t *testing.T) {
	client := New(
		"session-1",
		&fakeMedia{err: errors.New("permission denied")},
		&fakeStarter{},
		&fakeDialer{call: &fakeCall{events: make(chan ProviderEvent, 1)}},
		testPhrases,
		time.Second,
		zap.NewNop(),
	)

	err := client.Start(context.Background())
	if !errors.Is(err, ErrMediaAccess) {
		t.Fatalf("error = %v, want ErrMediaAccess", err)
	}
	if client.State() != StateIdle {
		t.Fatalf("state = %s, want idle", client.State())
	}
}

// TestStartFailureReleasesMedia checks the guaranteed-release path when the
// backend boundary rejects the start after media was acquired.
func TestStartFailureReleasesMedia(t *testing.T) {
	stream := &fakeStream{}
	client := New(
		"session-1",
		&fakeMedia{stream: stream},
		&fakeStarter{err: errors.New("boundary down")},
		&fakeDialer{call: &fakeCall{events: make(chan ProviderEvent, 1)}},
		testPhrases,
		time.Second,
		zap.NewNop(),
	)

	if err := client.Start(context.Background()); err == nil {
		t.Fatal("expected start error")
	}
	if !stream.released.Load() {
		t.Fatal("media stream was not released on failed start")
	}
	if client.State() != StateEnded {
		t.Fatalf("state = %s, want ended", client.State())
	}
}

// TestFarewellSchedulesHangup verifies that an officer fragment containing
// a farewell phrase triggers a hangup after the grace delay.
func TestFarewellSchedulesHangup(t *testing.T) {
	client, _, call := newTestClient(t, 10*time.Millisecond)
	if err := client.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	call.events <- ProviderEvent{Kind: ProviderCallStart}
	call.events <- ProviderEvent{
		Kind:       ProviderTranscript,
		Role:       "assistant",
		Transcript: "Alright, Thank You For Your Time today.",
	}

	waitDone(t, client)
	if call.stops.Load() == 0 {
		t.Fatal("expected hangup after farewell phrase")
	}
}

// TestNoFarewellNoHangup verifies ordinary officer speech never schedules
// a termination.
func TestNoFarewellNoHangup(t *testing.T) {
	client, _, call := newTestClient(t, 10*time.Millisecond)
	if err := client.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	call.events <- ProviderEvent{Kind: ProviderCallStart}
	call.events <- ProviderEvent{
		Kind:       ProviderTranscript,
		Role:       "assistant",
		Transcript: "Tell me about your travel plans.",
	}

	time.Sleep(50 * time.Millisecond)
	if call.stops.Load() != 0 {
		t.Fatal("hangup scheduled without a farewell phrase")
	}
	if client.State() != StateConnected {
		t.Fatalf("state = %s, want connected", client.State())
	}

	client.End()
	waitDone(t, client)
}

// TestCandidateFarewellIgnored checks the heuristic only scans officer
// fragments.
func TestCandidateFarewellIgnored(t *testing.T) {
	client, _, call := newTestClient(t, 10*time.Millisecond)
	if err := client.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	call.events <- ProviderEvent{Kind: ProviderCallStart}
	call.events <- ProviderEvent{
		Kind:       ProviderTranscript,
		Role:       "user",
		Transcript: "goodbye officer, thank you",
	}

	time.Sleep(50 * time.Millisecond)
	if call.stops.Load() != 0 {
		t.Fatal("candidate speech must not trigger auto-termination")
	}

	client.End()
	waitDone(t, client)
}

// TestEndIdempotent verifies repeated End calls are harmless.
func TestEndIdempotent(t *testing.T) {
	client, stream, call := newTestClient(t, time.Second)
	if err := client.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	call.events <- ProviderEvent{Kind: ProviderCallStart}

	client.End()
	waitDone(t, client)
	client.End()
	client.End()

	if client.State() != StateEnded {
		t.Fatalf("state = %s, want ended", client.State())
	}
	if !stream.released.Load() {
		t.Fatal("media stream was not released")
	}
}

// TestSecondStartRejected verifies a client is single-use.
func TestSecondStartRejected(t *testing.T) {
	client, _, call := newTestClient(t, time.Second)
	if err := client.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := client.Start(context.Background()); !errors.Is(err, ErrNotIdle) {
		t.Fatalf("error = %v, want ErrNotIdle", err)
	}

	call.events <- ProviderEvent{Kind: ProviderCallEnd}
	waitDone(t, client)
}
