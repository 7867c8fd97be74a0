package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/wakili/wakili/internal/config"
)

var configForce bool

// configCmd represents the config parent command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage Wakili configuration",
	Long: `Manage the Wakili configuration file.

Use the subcommands to inspect the effective configuration or
create a starter rc file.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long: `Print the configuration after merging defaults, the rc file and
command-line flags. Secrets are redacted.`,
	RunE: runConfigShow,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the rc file path",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(config.DefaultConfigPath())
	},
}

var configCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a starter configuration file",
	Long: `Write a commented starter configuration to the rc file path.

Examples:
  wakili config create           # Create ~/.wakilirc
  wakili config create --force   # Overwrite an existing file`,
	RunE: runConfigCreate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configCreateCmd)

	configCreateCmd.Flags().BoolVarP(&configForce, "force", "f", false,
		"Overwrite an existing configuration file without prompting")
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	display := *cfg
	if display.APIKey != "" {
		display.APIKey = "<redacted>"
	}

	data, err := yaml.Marshal(&display)
	if err != nil {
		return fmt.Errorf("failed to render configuration: %w", err)
	}
	fmt.Print(string(data))
	return nil
}

const starterConfig = `# Wakili client configuration.

# Base URL of the Wakili server.
api_url: "http://localhost:8002"

# Phone number used for the verification-code flow.
#phone_number: "+1234567890"

# API key; when set, phone verification is bypassed.
#api_key: ""

# Backend model name.
model: "gpt-4o-mini"

# Agent reasoning mode: react or deep_react.
agent_type: "react"

# Conversation thread identifier.
thread_id: "default"

# Per-request timeout in seconds.
request_timeout: 300

logging:
  level: "info"
  #file: "~/wakili.log"
`

func runConfigCreate(cmd *cobra.Command, args []string) error {
	path := config.DefaultConfigPath()

	if _, err := os.Stat(path); err == nil && !configForce {
		fmt.Printf("⚠️  Configuration file already exists: %s\n", path)
		fmt.Println("Use --force to overwrite the existing file.")
		return nil
	}

	if err := os.WriteFile(path, []byte(starterConfig), 0600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	fmt.Printf("✅ Created %s\n", path)
	return nil
}
