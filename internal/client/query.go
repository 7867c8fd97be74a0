package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
)

// Defaults applied when the caller configures nothing.
const (
	DefaultModel    = "gpt-4o-mini"
	DefaultThreadID = "default"
)

// AgentType is the backend reasoning mode. The set is closed; anything
// else is rejected before a request is built.
type AgentType string

const (
	// AgentReact is the standard single-loop reasoning agent.
	AgentReact AgentType = "react"

	// AgentDeepReact runs the multi-stage planning variant.
	AgentDeepReact AgentType = "deep_react"
)

// Valid reports whether the agent type belongs to the closed set.
func (a AgentType) Valid() bool {
	return a == AgentReact || a == AgentDeepReact
}

// ParseAgentType validates a string against the closed agent-type set.
func ParseAgentType(s string) (AgentType, error) {
	at := AgentType(s)
	if !at.Valid() {
		return "", fmt.Errorf("unknown agent type %q (valid: %s, %s)", s, AgentReact, AgentDeepReact)
	}
	return at, nil
}

// querySession holds the session-level query configuration. Mutations
// take effect on the next query only; requests already sent are built
// from the values current at the time of the call.
type querySession struct {
	model        string
	agentType    AgentType
	threadID     string
	systemPrompt string
}

func newQuerySession() querySession {
	return querySession{
		model:     DefaultModel,
		agentType: AgentReact,
		threadID:  DefaultThreadID,
	}
}

// queryRequest is the wire payload for the query endpoint.
type queryRequest struct {
	Role         string    `json:"role"`
	Content      string    `json:"content"`
	Model        string    `json:"model"`
	AgentType    AgentType `json:"agent_type"`
	ThreadID     string    `json:"thread_id"`
	SystemPrompt string    `json:"system_prompt,omitempty"`
	APIKey       string    `json:"api_key,omitempty"`
}

// QueryResult is the structured outcome of a successful query.
type QueryResult struct {
	// Response is the canonical text field of the payload, empty when
	// the server omits or renames it.
	Response string

	// Raw is the full decoded payload.
	Raw map[string]any
}

// Text returns the canonical response text. When the server omitted the
// canonical field, the whole payload is stringified instead so callers
// always get something printable.
func (r *QueryResult) Text() string {
	if r.Response != "" {
		return r.Response
	}
	data, err := json.Marshal(r.Raw)
	if err != nil {
		return ""
	}
	return string(data)
}

// QueryOption overrides session configuration for a single call.
type QueryOption func(*queryOverrides)

type queryOverrides struct {
	model        *string
	agentType    *AgentType
	threadID     *string
	systemPrompt *string
}

// WithQueryModel overrides the model for this query only.
func WithQueryModel(model string) QueryOption {
	return func(o *queryOverrides) {
		o.model = &model
	}
}

// WithQueryAgentType overrides the reasoning mode for this query only.
func WithQueryAgentType(at AgentType) QueryOption {
	return func(o *queryOverrides) {
		o.agentType = &at
	}
}

// WithQueryThreadID overrides the thread for this query only.
func WithQueryThreadID(id string) QueryOption {
	return func(o *queryOverrides) {
		o.threadID = &id
	}
}

// WithQuerySystemPrompt overrides the system prompt for this query only.
func WithQuerySystemPrompt(prompt string) QueryOption {
	return func(o *queryOverrides) {
		o.systemPrompt = &prompt
	}
}

// buildRequest merges per-call overrides over the session configuration.
func (q *querySession) buildRequest(content, apiKey string, opts ...QueryOption) (queryRequest, error) {
	var ov queryOverrides
	for _, opt := range opts {
		opt(&ov)
	}

	req := queryRequest{
		Role:         "user",
		Content:      content,
		Model:        q.model,
		AgentType:    q.agentType,
		ThreadID:     q.threadID,
		SystemPrompt: q.systemPrompt,
		APIKey:       apiKey,
	}
	if ov.model != nil {
		req.Model = *ov.model
	}
	if ov.agentType != nil {
		req.AgentType = *ov.agentType
	}
	if ov.threadID != nil {
		req.ThreadID = *ov.threadID
	}
	if ov.systemPrompt != nil {
		req.SystemPrompt = *ov.systemPrompt
	}

	if !req.AgentType.Valid() {
		return queryRequest{}, fmt.Errorf("%w: invalid agent type %q", ErrProtocol, req.AgentType)
	}
	return req, nil
}

// QueryJSON sends a query to the agent and returns the structured
// response. The request carries the current thread id, model and agent
// type (or their per-call overrides) plus the auth token when one is
// held.
//
// When authentication is required (the default) and the client holds
// neither a token nor an API key, the call fails locally without a
// network round trip.
func (c *Client) QueryJSON(ctx context.Context, content string, opts ...QueryOption) (*QueryResult, error) {
	if c.requireAuth && !c.Authenticated() {
		return nil, fmt.Errorf("%w: authentication required; call Authenticate or VerifyCode first", ErrAuthentication)
	}

	req, err := c.query.buildRequest(content, c.auth.apiKey, opts...)
	if err != nil {
		return nil, err
	}

	status, body, err := c.do(ctx, http.MethodPost, "/run_agent", req, c.auth.token)
	if err != nil {
		return nil, err
	}
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		c.tokenRejected()
		return nil, fmt.Errorf("%w: token rejected (status %d): %s", ErrAuthentication, status, serverMessage(body))
	case status < 200 || status >= 300:
		return nil, fmt.Errorf("%w: query failed (status %d): %s", ErrProtocol, status, serverMessage(body))
	}

	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: decode query response: %v", ErrProtocol, err)
	}

	result := &QueryResult{Raw: raw}
	if text, ok := raw["response"].(string); ok {
		result.Response = text
	}
	return result, nil
}

// Query sends a query and returns the agent's text response. It is
// QueryJSON followed by extraction of the canonical text field; when
// that field is absent the payload is stringified rather than treated
// as an error. All other failures propagate unchanged.
func (c *Client) Query(ctx context.Context, content string, opts ...QueryOption) (string, error) {
	result, err := c.QueryJSON(ctx, content, opts...)
	if err != nil {
		return "", err
	}
	return result.Text(), nil
}

// tokenRejected applies the configured policy after a 401/403 on a
// query. The server is the authority on token validity.
func (c *Client) tokenRejected() {
	if c.reauth == ReauthReset {
		c.auth.token = ""
		c.auth.state = StateUnauthenticated
	}
}

// SetThreadID switches the conversation thread, effective from the next
// query. The server keys conversation history by this value.
func (c *Client) SetThreadID(id string) {
	c.query.threadID = id
}

// NewThread switches to a freshly generated thread id and returns it,
// starting a conversation with no shared context.
func (c *Client) NewThread() string {
	c.query.threadID = uuid.NewString()
	return c.query.threadID
}

// SetSystemPrompt replaces the system prompt, effective from the next
// query. An empty prompt restores the agent's default instructions.
func (c *Client) SetSystemPrompt(prompt string) {
	c.query.systemPrompt = prompt
}

// SetModel changes the backend model, effective from the next query.
func (c *Client) SetModel(model string) {
	c.query.model = model
}

// SetAgentType changes the reasoning mode, effective from the next query.
func (c *Client) SetAgentType(at AgentType) error {
	if !at.Valid() {
		return fmt.Errorf("invalid agent type %q", at)
	}
	c.query.agentType = at
	return nil
}

// ThreadID returns the current conversation thread id.
func (c *Client) ThreadID() string {
	return c.query.threadID
}

// Model returns the current backend model name.
func (c *Client) Model() string {
	return c.query.model
}

// AgentType returns the current reasoning mode.
func (c *Client) AgentType() AgentType {
	return c.query.agentType
}

// SystemPrompt returns the current system prompt override.
func (c *Client) SystemPrompt() string {
	return c.query.systemPrompt
}
