package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
)

// Error taxonomy for the Wakili protocol. Every error returned by the
// client wraps exactly one of these sentinels, so callers can classify
// failures with errors.Is without parsing messages.
var (
	// ErrConnection is returned when the transport could not reach the
	// server at all (DNS failure, refused connection, unreachable network).
	ErrConnection = errors.New("cannot reach wakili server")

	// ErrTimeout is returned when a request exceeded the configured
	// timeout or the caller's context deadline. The client never retries.
	ErrTimeout = errors.New("request timed out")

	// ErrAuthentication covers missing identity, rejected or expired
	// verification codes, stale session ids, and querying without
	// credentials when authentication is required.
	ErrAuthentication = errors.New("authentication failed")

	// ErrProtocol is returned when the round trip succeeded but the
	// response was unusable: malformed JSON, a missing required field,
	// or an unexpected HTTP status.
	ErrProtocol = errors.New("unexpected server response")
)

// classifyTransportError maps a failure from http.Client.Do onto the
// taxonomy. Timeouts (client-side or context) become ErrTimeout,
// everything else is a connection failure.
func classifyTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrConnection, err)
}

// serverMessage extracts a human-readable message from an error payload.
// The server reports errors as {"message": "..."} or {"detail": "..."};
// when neither parses, the raw body is returned truncated.
func serverMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Detail  string `json:"detail"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		switch {
		case payload.Message != "":
			return payload.Message
		case payload.Detail != "":
			return payload.Detail
		case payload.Error != "":
			return payload.Error
		}
	}
	const maxLen = 200
	s := string(body)
	if len(s) > maxLen {
		s = s[:maxLen] + "..."
	}
	return s
}
