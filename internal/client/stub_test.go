package client

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// stubServer is an in-process Wakili server used by the protocol tests.
// It issues a fixed session id on /auth, accepts exactly one code on
// /verify, and echoes queries on /run_agent while recording what the
// client sent.
type stubServer struct {
	srv *httptest.Server

	mu          sync.Mutex
	authCalls   int
	verifyCalls int
	queryCalls  int
	healthCalls int

	sessionID  string
	acceptCode string
	authToken  string

	verifyDelay  time.Duration
	healthWait   time.Duration
	queryStatus  int    // non-zero forces this status on /run_agent
	queryBody    string // non-empty forces this raw body on /run_agent
	healthBody   string // non-empty overrides the /health payload
	healthStatus int    // non-zero forces this status on /health

	lastAuthPhone  string
	lastVerifyReq  verifyRequest
	lastQueryReq   map[string]any
	lastAuthHeader string
}

func newStubServer() *stubServer {
	s := &stubServer{
		sessionID:  "abc123",
		acceptCode: "1234",
		authToken:  "tok-xyz",
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/auth", s.handleAuth)
	mux.HandleFunc("/verify", s.handleVerify)
	mux.HandleFunc("/run_agent", s.handleQuery)
	mux.HandleFunc("/health", s.handleHealth)

	s.srv = httptest.NewServer(mux)
	return s
}

func (s *stubServer) Close() {
	s.srv.Close()
}

func (s *stubServer) URL() string {
	return s.srv.URL
}

func (s *stubServer) handleAuth(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authCalls++

	var req codeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PhoneNumber == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "phone number is required"})
		return
	}
	s.lastAuthPhone = req.PhoneNumber
	writeJSON(w, http.StatusOK, map[string]string{"session_id": s.sessionID, "status": "code_sent"})
}

func (s *stubServer) handleVerify(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	delay := s.verifyDelay
	s.verifyCalls++
	s.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}

	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "malformed request"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastVerifyReq = req

	if req.SessionID != s.sessionID {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "invalid or expired session"})
		return
	}
	if req.VerificationCode != s.acceptCode {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "invalid verification code"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"auth_token": s.authToken, "status": "verified"})
}

func (s *stubServer) handleQuery(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queryCalls++
	s.lastAuthHeader = r.Header.Get("Authorization")

	var req map[string]any
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "malformed request"})
		return
	}
	s.lastQueryReq = req

	if s.queryStatus != 0 {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(s.queryStatus)
		body := s.queryBody
		if body == "" {
			body = `{"message":"query rejected"}`
		}
		w.Write([]byte(body))
		return
	}
	if s.queryBody != "" {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(s.queryBody))
		return
	}

	content, _ := req["content"].(string)
	writeJSON(w, http.StatusOK, map[string]any{
		"response":  "echo: " + content,
		"thread_id": req["thread_id"],
	})
}

// healthDelay makes /health stall, for timeout tests.
func (s *stubServer) healthDelay(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.healthWait = d
}

func (s *stubServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	wait := s.healthWait
	s.mu.Unlock()
	if wait > 0 {
		time.Sleep(wait)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.healthCalls++

	status := s.healthStatus
	if status == 0 {
		status = http.StatusOK
	}
	body := s.healthBody
	if body == "" {
		body = `{"status":"healthy","version":"test"}`
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(body))
}

func (s *stubServer) counts() (auth, verify, query int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authCalls, s.verifyCalls, s.queryCalls
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// countingTransport fails every request; it exists to prove a code path
// performs no network call at all.
type countingTransport struct {
	mu    sync.Mutex
	calls int
}

func (c *countingTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return nil, http.ErrHandlerTimeout
}

func (c *countingTransport) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}
