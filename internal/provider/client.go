package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mashcatg/visa-cracked/internal/config"

	"go.uber.org/zap"
)

// Client talks to the voice-call provider's REST API: creating web calls and
// fetching final call artifacts. The HTTP client carries an explicit timeout
// instead of relying on transport defaults.
type Client struct {
	baseURL    string
	publicKey  string
	privateKey string
	http       *http.Client
	log        *zap.Logger
}

func New(cfg config.ProviderConfig, log *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		publicKey:  cfg.PublicKey,
		privateKey: cfg.PrivateKey,
		http:       &http.Client{Timeout: timeout},
		log:        log,
	}
}

// WebCall is the provider's answer to a web-call creation request. Config
// holds the raw call payload which the browser-side client passes verbatim
// to the provider's realtime SDK.
type WebCall struct {
	ID        string
	PublicKey string
	Config    json.RawMessage
}

// CallMessage is one conversation turn as the provider records it.
type CallMessage struct {
	Role             string  `json:"role"`
	Message          string  `json:"message"`
	SecondsFromStart float64 `json:"secondsFromStart"`
}

// Call is the provider's call-detail payload, reduced to the fields the
// pipeline consumes. The provider returns loosely-typed JSON; everything is
// validated and coerced here, never downstream.
type Call struct {
	ID          string   `json:"id"`
	Status      string   `json:"status"`
	EndedReason string   `json:"endedReason"`
	Duration    *float64 `json:"duration"`
	Cost        *float64 `json:"cost"`
	Artifact    struct {
		Transcript   *string       `json:"transcript"`
		Messages     []CallMessage `json:"messages"`
		RecordingURL *string       `json:"recordingUrl"`
	} `json:"artifact"`
}

// Failed reports whether the provider considers the call not to have
// completed normally. Callers must treat a failed call as unbillable.
func (c *Call) Failed() bool {
	reason := strings.ToLower(c.EndedReason)
	if strings.Contains(reason, "error") || strings.Contains(reason, "failed") {
		return true
	}
	switch reason {
	case "customer-did-not-answer",
		"customer-did-not-give-microphone-permission",
		"customer-busy":
		return true
	}
	return c.Status == "failed"
}

// PublicKey returns the browser-facing key handed out with call configs.
func (c *Client) PublicKey() string {
	return c.publicKey
}

// CreateWebCall asks the provider to set up a realtime web call driven by
// the given assistant.
func (c *Client) CreateWebCall(ctx context.Context, assistantID string) (*WebCall, error) {
	if c.privateKey == "" {
		return nil, fmt.Errorf("voice provider keys not configured")
	}

	body, err := json.Marshal(map[string]string{
		"type":        "webCall",
		"assistantId": assistantID,
	})
	if err != nil {
		return nil, fmt.Errorf("error marshaling call request: %w", err)
	}

	raw, err := c.do(ctx, http.MethodPost, "/call", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &created); err != nil {
		return nil, fmt.Errorf("error unmarshaling call response: %w", err)
	}
	if created.ID == "" {
		return nil, fmt.Errorf("provider returned a call without an id")
	}

	return &WebCall{ID: created.ID, PublicKey: c.publicKey, Config: raw}, nil
}

// GetCall fetches the final call detail for a finished call. This is a
// single-shot fetch; the provider returns final artifacts synchronously
// once the call is over.
func (c *Client) GetCall(ctx context.Context, callID string) (*Call, error) {
	raw, err := c.do(ctx, http.MethodGet, "/call/"+callID, nil)
	if err != nil {
		return nil, err
	}

	var call Call
	if err := json.Unmarshal(raw, &call); err != nil {
		return nil, fmt.Errorf("error unmarshaling call detail: %w", err)
	}
	return &call, nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.privateKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error calling voice provider: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading provider response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		c.log.Warn("Voice provider returned an error",
			zap.Int("status", resp.StatusCode),
			zap.String("path", path),
		)
		return nil, fmt.Errorf("voice provider error: status %d, body: %s", resp.StatusCode, string(raw))
	}

	return raw, nil
}
