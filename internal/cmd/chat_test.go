package cmd

import (
	"testing"

	"github.com/wakili/wakili/internal/config"
)

func TestSlashCommandsDefinition(t *testing.T) {
	expectedCommands := map[string]bool{
		"/help":    false,
		"/h":       false,
		"/?":       false,
		"/quit":    false,
		"/exit":    false,
		"/q":       false,
		"/new":     false,
		"/thread":  false,
		"/prompts": false,
		"/prompt":  false,
		"/auth":    false,
		"/status":  false,
	}

	for _, cmd := range slashCommands {
		if _, ok := expectedCommands[cmd.name]; ok {
			expectedCommands[cmd.name] = true
		} else {
			t.Errorf("unexpected command in slashCommands: %s", cmd.name)
		}
		if cmd.description == "" {
			t.Errorf("command %s has empty description", cmd.name)
		}
	}

	for name, seen := range expectedCommands {
		if !seen {
			t.Errorf("command %s missing from slashCommands", name)
		}
	}
}

func TestCompleteInput(t *testing.T) {
	tests := []struct {
		name          string
		line          string
		cursor        int
		wantNoMatches bool
	}{
		{
			name:          "empty input returns no completions",
			line:          "",
			cursor:        0,
			wantNoMatches: true,
		},
		{
			name:          "non-slash input returns no completions",
			line:          "hello",
			cursor:        5,
			wantNoMatches: true,
		},
		{
			name:   "slash only shows all commands",
			line:   "/",
			cursor: 1,
		},
		{
			name:   "partial command matches",
			line:   "/pr",
			cursor: 3,
		},
		{
			name:          "unknown command prefix returns no matches",
			line:          "/xyz",
			cursor:        4,
			wantNoMatches: true,
		},
		{
			name:   "cursor beyond line length is handled",
			line:   "/t",
			cursor: 100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Building the completions must not panic; the readline
			// type is opaque beyond that.
			_ = completeInput(tt.line, tt.cursor)
		})
	}
}

func TestPromptLibrary(t *testing.T) {
	library := &promptLibrary{
		prompts: []*config.PromptFile{
			{Name: "tutor", Content: "You teach."},
			{Name: "coder", Content: "You code."},
		},
	}

	if p := library.find("Tutor"); p == nil || p.Content != "You teach." {
		t.Errorf("find(Tutor) = %v, want case-insensitive match", p)
	}
	if p := library.find("missing"); p != nil {
		t.Errorf("find(missing) = %v, want nil", p)
	}
	if got := len(library.list()); got != 2 {
		t.Errorf("list() returned %d prompts, want 2", got)
	}
}

func TestPromptLibraryReload(t *testing.T) {
	dir := t.TempDir()
	library := &promptLibrary{dir: dir}

	library.reload()
	if got := len(library.list()); got != 0 {
		t.Errorf("list() returned %d prompts from an empty dir", got)
	}
}
