package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// DefaultTimeout bounds each request when no other timeout is configured.
// Agent queries can run long-lived reasoning loops, so the default is
// deliberately generous.
const DefaultTimeout = 300 * time.Second

// maxResponseSize limits response body reads so a misbehaving server
// cannot exhaust client memory.
const maxResponseSize = 10 * 1024 * 1024 // 10MB

// ReauthPolicy controls what happens when the server rejects a
// previously-issued token mid-conversation (HTTP 401 on a query).
type ReauthPolicy int

const (
	// ReauthReset clears the stored token so the next authentication
	// flow starts from scratch. The failed query still returns an
	// authentication error.
	ReauthReset ReauthPolicy = iota

	// ReauthSurface keeps the stored token untouched and only surfaces
	// the authentication error, leaving recovery to the caller.
	ReauthSurface
)

// Client talks to a Wakili agent server. It composes the verification
// handshake (auth.go) with the query session (query.go); a successful
// handshake produces a token that every subsequent query attaches.
//
// The client is synchronous and single-session: each method performs at
// most one round trip and there is no internal locking. Callers that
// share one instance across goroutines must serialize externally.
type Client struct {
	baseURL    string
	httpClient *http.Client

	requireAuth bool
	reauth      ReauthPolicy
	resend      *rate.Limiter

	auth  authSession
	query querySession
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.httpClient = h
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithPhoneNumber sets the phone number used for the verification flow.
func WithPhoneNumber(phone string) Option {
	return func(c *Client) {
		c.auth.phoneNumber = phone
	}
}

// WithAPIKey sets an API key that bypasses the phone verification flow
// entirely. The key is attached to every query payload.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.auth.apiKey = key
	}
}

// WithAuthToken seeds the client with a previously issued token, e.g.
// one persisted from an earlier run.
func WithAuthToken(token string) Option {
	return func(c *Client) {
		c.setToken(token)
	}
}

// WithModel sets the backend model name.
func WithModel(model string) Option {
	return func(c *Client) {
		c.query.model = model
	}
}

// WithAgentType sets the backend reasoning mode.
func WithAgentType(at AgentType) Option {
	return func(c *Client) {
		c.query.agentType = at
	}
}

// WithThreadID sets the conversation thread id.
func WithThreadID(id string) Option {
	return func(c *Client) {
		c.query.threadID = id
	}
}

// WithSystemPrompt sets the system prompt sent with each query.
func WithSystemPrompt(prompt string) Option {
	return func(c *Client) {
		c.query.systemPrompt = prompt
	}
}

// WithRequireAuth controls the local authentication precondition on
// queries. When enabled (the default), querying without a token or API
// key fails immediately without a network round trip. Disable it to let
// the server decide whether anonymous queries are permitted.
func WithRequireAuth(require bool) Option {
	return func(c *Client) {
		c.requireAuth = require
	}
}

// WithReauthPolicy sets the behavior on a token rejected mid-conversation.
func WithReauthPolicy(p ReauthPolicy) Option {
	return func(c *Client) {
		c.reauth = p
	}
}

// WithResendInterval throttles verification-code requests client-side:
// RequestVerificationCode blocks until the interval since the previous
// request has elapsed (bounded by the caller's context). Zero disables
// the throttle, which is the default.
func WithResendInterval(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.resend = rate.NewLimiter(rate.Every(d), 1)
		} else {
			c.resend = nil
		}
	}
}

// New creates a client for the Wakili server at baseURL, e.g.
// "http://localhost:8002". A trailing slash is stripped.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:     trimBaseURL(baseURL),
		requireAuth: true,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		query: newQuerySession(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func trimBaseURL(u string) string {
	for len(u) > 0 && u[len(u)-1] == '/' {
		u = u[:len(u)-1]
	}
	return u
}

// BaseURL returns the server address the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// do performs one JSON round trip. It returns the HTTP status and body
// on any completed exchange; the error is non-nil only for transport
// failures (already classified) or unencodable payloads. Interpretation
// of non-2xx statuses is left to the per-endpoint callers.
func (c *Client) do(ctx context.Context, method, path string, payload any, token string) (int, []byte, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("%w: encode request: %v", ErrProtocol, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: build request: %v", ErrProtocol, err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return 0, nil, classifyTransportError(err)
	}
	return resp.StatusCode, data, nil
}
