// Package cmd provides the CLI commands for Wakili.
package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/wakili/wakili/internal/appdir"
	"github.com/wakili/wakili/internal/client"
	"github.com/wakili/wakili/internal/config"
	"github.com/wakili/wakili/internal/logging"
	"github.com/wakili/wakili/internal/secrets"
)

var (
	// Global flags
	configPath     string
	apiURL         string
	phoneNumber    string
	model          string
	agentType      string
	threadID       string
	timeoutSeconds float64
	debug          bool
	logLevel       string
	logFile        string

	// Loaded configuration, available to all subcommands after
	// PersistentPreRunE.
	cfg *config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "wakili",
	Short: "Wakili - a client for phone-verified conversational agents",
	Long: `Wakili is a command-line client for Wakili agent servers.

It authenticates with a phone number and a one-time verification
code, then lets you query the remote agent interactively or from
scripts. Conversations are grouped into threads so the agent keeps
context between queries.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}

		// A .env in the working directory supplies WAKILIRC, WAKILI_DIR
		// and similar without touching the shell profile. Absence is
		// not an error.
		_ = godotenv.Load()

		effectiveLogLevel := ""
		if logLevel != "" {
			effectiveLogLevel = logLevel
		} else if debug {
			effectiveLogLevel = "debug"
		}

		if err := appdir.EnsureDir(); err != nil {
			return fmt.Errorf("failed to create Wakili directory: %w", err)
		}

		var err error
		if configPath != "" {
			cfg, err = config.Load(configPath)
			if err != nil {
				return fmt.Errorf("failed to load configuration from %s: %w", configPath, err)
			}
		} else {
			cfg, err = config.LoadOrDefault(config.DefaultConfigPath())
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
		}
		applyFlagOverrides(cmd)

		if effectiveLogLevel == "" {
			effectiveLogLevel = cfg.Logging.Level
		}
		effectiveLogFile := logFile
		if effectiveLogFile == "" {
			effectiveLogFile = cfg.Logging.File
		}
		if err := logging.Initialize(logging.Config{
			Level: effectiveLogLevel,
			File: logging.FileConfig{
				Path:       effectiveLogFile,
				MaxSizeMB:  cfg.Logging.MaxSizeMB,
				MaxBackups: cfg.Logging.MaxBackups,
			},
			JSON: cfg.Logging.JSON,
		}); err != nil {
			return fmt.Errorf("failed to initialize logging: %w", err)
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return logging.Close()
	},
}

// applyFlagOverrides overlays explicitly-set global flags on the loaded
// configuration. Flags beat the rc file; the rc file beats defaults.
func applyFlagOverrides(cmd *cobra.Command) {
	flags := cmd.Flags()
	if flags.Changed("api-url") {
		cfg.APIURL = apiURL
	}
	if flags.Changed("phone") {
		cfg.PhoneNumber = phoneNumber
	}
	if flags.Changed("model") {
		cfg.Model = model
	}
	if flags.Changed("agent-type") {
		cfg.AgentType = agentType
	}
	if flags.Changed("thread") {
		cfg.ThreadID = threadID
	}
	if flags.Changed("timeout") {
		cfg.RequestTimeout = timeoutSeconds
	}
}

// newClient builds a client from the effective configuration. A token
// previously stored for the configured phone number is preloaded from
// the secret store so an authenticated session survives restarts.
func newClient() (*client.Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := []client.Option{
		client.WithTimeout(cfg.Timeout()),
		client.WithRequireAuth(cfg.AuthRequired()),
	}
	if cfg.PhoneNumber != "" {
		opts = append(opts, client.WithPhoneNumber(cfg.PhoneNumber))
	}
	if cfg.APIKey != "" {
		opts = append(opts, client.WithAPIKey(cfg.APIKey))
	}
	if cfg.Model != "" {
		opts = append(opts, client.WithModel(cfg.Model))
	}
	if cfg.AgentType != "" {
		at, err := client.ParseAgentType(cfg.AgentType)
		if err != nil {
			return nil, err
		}
		opts = append(opts, client.WithAgentType(at))
	}
	if cfg.ThreadID != "" {
		opts = append(opts, client.WithThreadID(cfg.ThreadID))
	}
	if cfg.SystemPrompt != "" {
		opts = append(opts, client.WithSystemPrompt(cfg.SystemPrompt))
	}

	if cfg.APIKey == "" && cfg.PhoneNumber != "" {
		token, err := secrets.GetToken(cfg.PhoneNumber)
		if err == nil && token != "" {
			if claims, perr := client.ParseTokenClaims(token); perr == nil && claims.Expired(time.Now()) {
				logging.CLI().Debug("stored token expired, discarding", "phone", cfg.PhoneNumber)
				_ = secrets.DeleteToken(cfg.PhoneNumber)
			} else {
				opts = append(opts, client.WithAuthToken(token))
			}
		} else if err != nil && !errors.Is(err, secrets.ErrNotFound) && !errors.Is(err, secrets.ErrNotSupported) {
			logging.CLI().Warn("failed to read stored token", "error", err)
		}
	}

	return client.New(cfg.APIURL, opts...), nil
}

// storeToken persists a freshly issued token when the platform supports
// it. Failures are logged, not fatal.
func storeToken(phone, token string) {
	if phone == "" || token == "" {
		return
	}
	if err := secrets.SetToken(phone, token); err != nil {
		if !errors.Is(err, secrets.ErrNotSupported) {
			logging.CLI().Warn("failed to store token", "error", err)
		}
	}
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Configuration file path (default: ~/.wakilirc)")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Base URL of the Wakili server")
	rootCmd.PersistentFlags().StringVar(&phoneNumber, "phone", "", "Phone number for verification-code authentication")
	rootCmd.PersistentFlags().StringVar(&model, "model", "", "Backend model name")
	rootCmd.PersistentFlags().StringVar(&agentType, "agent-type", "", "Agent reasoning mode: react or deep_react")
	rootCmd.PersistentFlags().StringVar(&threadID, "thread", "", "Conversation thread identifier")
	rootCmd.PersistentFlags().Float64Var(&timeoutSeconds, "timeout", 0, "Request timeout in seconds")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging (shorthand for --log-level=debug)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (default: info)")
	rootCmd.PersistentFlags().StringVarP(&logFile, "logfile", "l", "", "Log file path (logs are also written to console)")
}
