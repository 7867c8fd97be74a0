// Package appdir provides platform-native directory management for
// Wakili. The data directory holds the prompt library (prompts/) and
// rotated log files (logs/).
package appdir

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
)

const (
	// WakiliDirEnv is the environment variable overriding the data directory.
	WakiliDirEnv = "WAKILI_DIR"

	// PromptsDirName is the subdirectory holding the prompt library.
	PromptsDirName = "prompts"

	// LogsDirName is the subdirectory holding log files.
	LogsDirName = "logs"
)

var (
	// cachedDir stores the resolved directory to avoid repeated lookups.
	cachedDir string
	mu        sync.RWMutex
)

// Dir returns the Wakili data directory path, resolved in order:
//  1. WAKILI_DIR environment variable
//  2. Platform default:
//     - macOS: ~/Library/Application Support/Wakili
//     - Linux: $XDG_DATA_HOME/wakili or ~/.local/share/wakili
//     - Windows: %APPDATA%\Wakili
//
// The path is only resolved, never created; use EnsureDir for that.
func Dir() (string, error) {
	mu.RLock()
	if cachedDir != "" {
		dir := cachedDir
		mu.RUnlock()
		return dir, nil
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()

	if cachedDir != "" {
		return cachedDir, nil
	}

	dir, err := resolveDir()
	if err != nil {
		return "", err
	}
	cachedDir = dir
	return dir, nil
}

func resolveDir() (string, error) {
	if envDir := os.Getenv(WakiliDirEnv); envDir != "" {
		return envDir, nil
	}

	switch runtime.GOOS {
	case "darwin":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		return filepath.Join(homeDir, "Library", "Application Support", "Wakili"), nil

	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			appData = filepath.Join(homeDir, "AppData", "Roaming")
		}
		return filepath.Join(appData, "Wakili"), nil

	default:
		dataDir := os.Getenv("XDG_DATA_HOME")
		if dataDir == "" {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			dataDir = filepath.Join(homeDir, ".local", "share")
		}
		return filepath.Join(dataDir, "wakili"), nil
	}
}

// EnsureDir creates the data directory and its subdirectories.
func EnsureDir() error {
	dir, err := Dir()
	if err != nil {
		return err
	}

	for _, sub := range []string{dir, filepath.Join(dir, PromptsDirName), filepath.Join(dir, LogsDirName)} {
		if err := os.MkdirAll(sub, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", sub, err)
		}
	}
	return nil
}

// PromptsDir returns the full path to the prompt library directory.
func PromptsDir() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, PromptsDirName), nil
}

// LogsDir returns the full path to the logs directory.
func LogsDir() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, LogsDirName), nil
}

// ResetCache clears the cached directory path. Primarily for tests.
func ResetCache() {
	mu.Lock()
	defer mu.Unlock()
	cachedDir = ""
}
