package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wakili/wakili/internal/logging"
)

var healthJSON bool

// healthCmd represents the health command
var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check whether the Wakili server is reachable and healthy",
	Long: `Query the server's health endpoint.

Exits non-zero when the server is unreachable or reports an
unhealthy status, so the command works in scripts:

  wakili health && wakili chat --once "hello"`,
	RunE: runHealth,
}

func init() {
	rootCmd.AddCommand(healthCmd)
	healthCmd.Flags().BoolVar(&healthJSON, "json", false, "Print the raw health payload as JSON")
}

func runHealth(cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return err
	}

	logging.Health().Debug("probing server", "url", c.BaseURL())
	health, err := c.HealthCheck(cmd.Context())
	if err != nil {
		return fmt.Errorf("server at %s is not healthy: %w", c.BaseURL(), err)
	}

	if healthJSON {
		data, err := json.MarshalIndent(health.Raw, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	if !health.Healthy() {
		return fmt.Errorf("server at %s reports status %q", c.BaseURL(), health.Status)
	}
	fmt.Printf("✅ %s is healthy\n", c.BaseURL())
	return nil
}
