package client

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestNew_Defaults(t *testing.T) {
	c := New("http://localhost:8002/")

	if c.BaseURL() != "http://localhost:8002" {
		t.Errorf("BaseURL = %q, want trailing slash stripped", c.BaseURL())
	}
	if c.Model() != DefaultModel {
		t.Errorf("Model = %q, want %q", c.Model(), DefaultModel)
	}
	if c.AgentType() != AgentReact {
		t.Errorf("AgentType = %q, want %q", c.AgentType(), AgentReact)
	}
	if c.ThreadID() != DefaultThreadID {
		t.Errorf("ThreadID = %q, want %q", c.ThreadID(), DefaultThreadID)
	}
	if c.State() != StateUnauthenticated {
		t.Errorf("State = %v, want %v", c.State(), StateUnauthenticated)
	}
	if c.httpClient.Timeout != DefaultTimeout {
		t.Errorf("timeout = %v, want %v", c.httpClient.Timeout, DefaultTimeout)
	}
}

func TestNew_Options(t *testing.T) {
	c := New("http://example.test",
		WithTimeout(5*time.Second),
		WithPhoneNumber("+100"),
		WithModel("gpt-4o"),
		WithAgentType(AgentDeepReact),
		WithThreadID("t-1"),
		WithSystemPrompt("be brief"),
		WithAuthToken("tok-restored"))

	if c.httpClient.Timeout != 5*time.Second {
		t.Errorf("timeout = %v, want 5s", c.httpClient.Timeout)
	}
	if c.PhoneNumber() != "+100" {
		t.Errorf("PhoneNumber = %q, want %q", c.PhoneNumber(), "+100")
	}
	if c.Model() != "gpt-4o" {
		t.Errorf("Model = %q, want %q", c.Model(), "gpt-4o")
	}
	if c.AgentType() != AgentDeepReact {
		t.Errorf("AgentType = %q, want %q", c.AgentType(), AgentDeepReact)
	}
	if c.ThreadID() != "t-1" {
		t.Errorf("ThreadID = %q, want %q", c.ThreadID(), "t-1")
	}
	if c.SystemPrompt() != "be brief" {
		t.Errorf("SystemPrompt = %q, want %q", c.SystemPrompt(), "be brief")
	}
	if c.Token() != "tok-restored" || c.State() != StateAuthenticated {
		t.Errorf("restored token = (%q, %v), want authenticated", c.Token(), c.State())
	}
}

func TestSetAgentType(t *testing.T) {
	c := New("http://unused")

	if err := c.SetAgentType(AgentDeepReact); err != nil {
		t.Errorf("SetAgentType(deep_react) failed: %v", err)
	}
	if err := c.SetAgentType("whimsical"); err == nil {
		t.Error("SetAgentType accepted a value outside the closed set")
	}
	if c.AgentType() != AgentDeepReact {
		t.Errorf("AgentType = %q, want unchanged after rejected set", c.AgentType())
	}
}

func TestParseAgentType(t *testing.T) {
	tests := []struct {
		in      string
		want    AgentType
		wantErr bool
	}{
		{"react", AgentReact, false},
		{"deep_react", AgentDeepReact, false},
		{"", "", true},
		{"React", "", true},
		{"deep-react", "", true},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q", tt.in), func(t *testing.T) {
			got, err := ParseAgentType(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseAgentType(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseAgentType(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestAuthStateString(t *testing.T) {
	tests := []struct {
		state AuthState
		want  string
	}{
		{StateUnauthenticated, "unauthenticated"},
		{StateCodeRequested, "code-requested"},
		{StateAuthenticated, "authenticated"},
		{StateFailed, "failed"},
		{AuthState(42), "AuthState(42)"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestErrorTaxonomyIsDisjoint(t *testing.T) {
	sentinels := []error{ErrConnection, ErrTimeout, ErrAuthentication, ErrProtocol}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if (i == j) != errors.Is(a, b) {
				t.Errorf("errors.Is(%v, %v) = %v", a, b, errors.Is(a, b))
			}
		}
	}
}

func TestServerMessage(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"message field", `{"message":"code expired"}`, "code expired"},
		{"detail field", `{"detail":"bad session"}`, "bad session"},
		{"error field", `{"error":"denied"}`, "denied"},
		{"not json", `gateway exploded`, "gateway exploded"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := serverMessage([]byte(tt.body)); got != tt.want {
				t.Errorf("serverMessage = %q, want %q", got, tt.want)
			}
		})
	}
}
