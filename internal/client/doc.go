// Package client implements the protocol for talking to a Wakili agent
// server: the phone-number verification handshake, the session-bound
// query API, and the health probe.
//
// The client handles four endpoints:
//   - POST /auth      - request a verification code for a phone number
//   - POST /verify    - exchange the code for an auth token
//   - POST /run_agent - run an agent query, token attached
//   - GET  /health    - liveness probe
//
// # Authentication
//
// The verification handshake is a small state machine: requesting a
// code stores a session id and moves to code-requested; verifying the
// code consumes the session id, stores the issued token and moves to
// authenticated. A rejected code fails the flow, which can be restarted
// by requesting a new code. A configured API key bypasses the handshake
// entirely.
//
//	c := client.New("http://localhost:8002",
//	    client.WithPhoneNumber("+1234567890"))
//
//	ok, err := c.Authenticate(ctx, func() (string, error) {
//	    return promptUser("Enter verification code: ")
//	})
//
// # Queries
//
// Queries carry the session's thread id, model and agent type; the
// server keeps conversation history keyed by thread id, so passing the
// same thread across calls continues one conversation and a fresh
// thread starts another.
//
//	answer, err := c.Query(ctx, "What's 2+2?")
//	other, err := c.Query(ctx, "And squared?",
//	    client.WithQueryThreadID("scratch"))
//
// # Errors
//
// Every failure wraps one of four sentinels: ErrConnection, ErrTimeout,
// ErrAuthentication or ErrProtocol. Classify with errors.Is; IsHealthy
// and Authenticate intentionally downgrade some of these as documented.
//
// # Concurrency
//
// A Client is a single synchronous session with no internal locking.
// Callers sharing an instance across goroutines must serialize access.
package client
