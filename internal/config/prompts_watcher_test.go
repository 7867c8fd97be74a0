package config

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func waitForCalls(t *testing.T, calls *atomic.Int32, want int32) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if calls.Load() >= want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("callback fired %d times, want at least %d", calls.Load(), want)
}

func TestWatchPrompts_NotifiesOnChange(t *testing.T) {
	dir := t.TempDir()

	var calls atomic.Int32
	pw, err := WatchPrompts(dir, func() { calls.Add(1) }, nil)
	if err != nil {
		t.Fatalf("WatchPrompts failed: %v", err)
	}
	defer pw.Close()
	pw.SetDebounceDelay(20 * time.Millisecond)

	if err := os.WriteFile(filepath.Join(dir, "new.md"), []byte("Fresh prompt."), 0644); err != nil {
		t.Fatal(err)
	}
	waitForCalls(t, &calls, 1)
}

func TestWatchPrompts_IgnoresNonMarkdown(t *testing.T) {
	dir := t.TempDir()

	var calls atomic.Int32
	pw, err := WatchPrompts(dir, func() { calls.Add(1) }, nil)
	if err != nil {
		t.Fatalf("WatchPrompts failed: %v", err)
	}
	defer pw.Close()
	pw.SetDebounceDelay(20 * time.Millisecond)

	if err := os.WriteFile(filepath.Join(dir, "scratch.txt"), []byte("noise"), 0644); err != nil {
		t.Fatal(err)
	}

	time.Sleep(150 * time.Millisecond)
	if got := calls.Load(); got != 0 {
		t.Errorf("callback fired %d times for a non-markdown file", got)
	}
}

func TestWatchPrompts_CloseStopsCallbacks(t *testing.T) {
	dir := t.TempDir()

	var calls atomic.Int32
	pw, err := WatchPrompts(dir, func() { calls.Add(1) }, nil)
	if err != nil {
		t.Fatalf("WatchPrompts failed: %v", err)
	}
	if err := pw.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "late.md"), []byte("after close"), 0644); err != nil {
		t.Fatal(err)
	}

	time.Sleep(150 * time.Millisecond)
	if got := calls.Load(); got != 0 {
		t.Errorf("callback fired %d times after Close", got)
	}
}

func TestWatchPrompts_MissingDir(t *testing.T) {
	if _, err := WatchPrompts(filepath.Join(t.TempDir(), "absent"), func() {}, nil); err == nil {
		t.Error("WatchPrompts accepted a missing directory")
	}
}
