package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// AuthState describes where the client is in the verification handshake.
type AuthState int

const (
	// StateUnauthenticated is the initial state; no code has been requested.
	StateUnauthenticated AuthState = iota

	// StateCodeRequested means a verification code was issued and the
	// client holds the session id needed to verify it.
	StateCodeRequested

	// StateAuthenticated means a code was verified and the client holds
	// a token that is attached to every query.
	StateAuthenticated

	// StateFailed is reached when the server rejects a code. The flow
	// can be restarted with RequestVerificationCode.
	StateFailed
)

func (s AuthState) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateCodeRequested:
		return "code-requested"
	case StateAuthenticated:
		return "authenticated"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("AuthState(%d)", int(s))
	}
}

// CodeProvider supplies the verification code during Authenticate. It
// may block, typically on user input, and must return a non-empty code.
type CodeProvider func() (string, error)

// authSession holds the identity being authenticated and the state of
// the two-step handshake. It is owned exclusively by the Client.
type authSession struct {
	phoneNumber string
	apiKey      string

	// sessionID correlates a code request with its verification. It is
	// present only between code-requested and verified-or-abandoned.
	sessionID string

	// token is issued on successful verification and only ever set by
	// a verify that consumed a session id, by WithAuthToken/SetAuthToken,
	// or cleared on reset.
	token string

	state AuthState
}

type codeRequest struct {
	PhoneNumber string `json:"phone_number"`
}

type codeResponse struct {
	SessionID string `json:"session_id"`
}

type verifyRequest struct {
	SessionID        string `json:"session_id"`
	VerificationCode string `json:"verification_code"`
}

type verifyResponse struct {
	AuthToken string `json:"auth_token"`
}

// RequestVerificationCode asks the server to deliver a verification code
// out-of-band and returns the session id correlating the request. An
// empty phoneNumber uses the configured one; a non-empty argument also
// becomes the configured number. Re-requesting while a code is already
// pending is allowed and replaces the stored session id.
//
// When an API key is configured the phone flow is skipped entirely and
// an empty session id is returned.
func (c *Client) RequestVerificationCode(ctx context.Context, phoneNumber string) (string, error) {
	if c.auth.apiKey != "" {
		return "", nil
	}

	phone := phoneNumber
	if phone == "" {
		phone = c.auth.phoneNumber
	}
	if phone == "" {
		return "", fmt.Errorf("%w: phone number is required to request a verification code", ErrAuthentication)
	}

	if c.resend != nil {
		if err := c.resend.Wait(ctx); err != nil {
			return "", fmt.Errorf("%w: waiting for resend interval: %v", ErrTimeout, err)
		}
	}

	status, body, err := c.do(ctx, http.MethodPost, "/auth", codeRequest{PhoneNumber: phone}, "")
	if err != nil {
		// Transport failure: state unchanged, flow can be retried.
		return "", err
	}
	if status < 200 || status >= 300 {
		return "", fmt.Errorf("%w: code request rejected (status %d): %s", ErrAuthentication, status, serverMessage(body))
	}

	var res codeResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return "", fmt.Errorf("%w: decode code response: %v", ErrProtocol, err)
	}
	if res.SessionID == "" {
		return "", fmt.Errorf("%w: code response is missing session_id", ErrProtocol)
	}

	c.auth.sessionID = res.SessionID
	c.auth.state = StateCodeRequested
	if phoneNumber != "" {
		c.auth.phoneNumber = phoneNumber
	}
	return res.SessionID, nil
}

// VerifyCode submits the verification code and, on success, stores the
// issued token, clears the consumed session id and transitions to
// StateAuthenticated. An empty sessionID uses the stored one; passing
// one explicitly supports out-of-band flows where the code request
// happened elsewhere.
//
// A rejected or expired code moves the session to StateFailed; the flow
// can be restarted with RequestVerificationCode. Transport failures
// leave the state and session id untouched so the same code can be
// retried.
func (c *Client) VerifyCode(ctx context.Context, code, sessionID string) (string, error) {
	if c.auth.apiKey != "" {
		return "", nil
	}

	if strings.TrimSpace(code) == "" {
		return "", fmt.Errorf("%w: verification code is required", ErrAuthentication)
	}
	sid := sessionID
	if sid == "" {
		sid = c.auth.sessionID
	}
	if sid == "" {
		return "", fmt.Errorf("%w: no verification session; call RequestVerificationCode first", ErrAuthentication)
	}

	status, body, err := c.do(ctx, http.MethodPost, "/verify", verifyRequest{SessionID: sid, VerificationCode: code}, "")
	if err != nil {
		return "", err
	}
	if status < 200 || status >= 300 {
		c.auth.state = StateFailed
		return "", fmt.Errorf("%w: verification rejected (status %d): %s", ErrAuthentication, status, serverMessage(body))
	}

	var res verifyResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return "", fmt.Errorf("%w: decode verify response: %v", ErrProtocol, err)
	}
	if res.AuthToken == "" {
		return "", fmt.Errorf("%w: verify response is missing auth_token", ErrProtocol)
	}

	c.auth.token = res.AuthToken
	c.auth.sessionID = ""
	c.auth.state = StateAuthenticated
	return res.AuthToken, nil
}

// Authenticate runs the complete handshake: request a code, obtain it
// from the provider, verify it. A rejected code is reported as (false,
// nil) so interactive shells can re-prompt; connection, timeout and
// protocol failures propagate as errors.
func (c *Client) Authenticate(ctx context.Context, provider CodeProvider) (bool, error) {
	if c.auth.apiKey != "" {
		c.auth.state = StateAuthenticated
		return true, nil
	}
	if provider == nil {
		return false, fmt.Errorf("%w: a code provider is required", ErrAuthentication)
	}

	if _, err := c.RequestVerificationCode(ctx, ""); err != nil {
		return false, err
	}

	code, err := provider()
	if err != nil {
		return false, fmt.Errorf("%w: code prompt: %v", ErrAuthentication, err)
	}
	if strings.TrimSpace(code) == "" {
		return false, fmt.Errorf("%w: code provider returned an empty code", ErrAuthentication)
	}

	if _, err := c.VerifyCode(ctx, code, ""); err != nil {
		if errors.Is(err, ErrAuthentication) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// setToken installs a token and syncs the handshake state.
func (c *Client) setToken(token string) {
	c.auth.token = token
	if token != "" {
		c.auth.state = StateAuthenticated
	} else {
		c.auth.state = StateUnauthenticated
	}
}

// SetAuthToken installs a token obtained elsewhere, e.g. restored from
// the system keychain. An empty token clears authentication.
func (c *Client) SetAuthToken(token string) {
	c.setToken(token)
}

// SetAPIKey installs or clears the API key bypassing the phone flow.
func (c *Client) SetAPIKey(key string) {
	c.auth.apiKey = key
	if key != "" {
		c.auth.state = StateAuthenticated
	}
}

// SetPhoneNumber changes the identity being authenticated. Any pending
// handshake and issued token belong to the previous identity, so the
// whole authentication state is reset.
func (c *Client) SetPhoneNumber(phone string) {
	c.auth.phoneNumber = phone
	c.ResetAuth()
}

// ResetAuth discards the token and any pending verification session,
// returning the client to StateUnauthenticated.
func (c *Client) ResetAuth() {
	c.auth.token = ""
	c.auth.sessionID = ""
	c.auth.state = StateUnauthenticated
}

// State reports the current position in the verification handshake.
func (c *Client) State() AuthState {
	return c.auth.state
}

// Token returns the currently held auth token, or "" before a
// successful verification.
func (c *Client) Token() string {
	return c.auth.token
}

// PhoneNumber returns the configured identity.
func (c *Client) PhoneNumber() string {
	return c.auth.phoneNumber
}

// Authenticated reports whether queries will carry credentials, either
// an issued token or an API key.
func (c *Client) Authenticated() bool {
	return c.auth.token != "" || c.auth.apiKey != ""
}
