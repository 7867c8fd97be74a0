package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/reeflective/readline"
	"github.com/spf13/cobra"

	"github.com/wakili/wakili/internal/client"
	"github.com/wakili/wakili/internal/secrets"
)

// authCmd represents the auth parent command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage authentication with the Wakili server",
	Long: `Manage the phone-verification authentication flow.

Use the subcommands to log in, check token status, or discard the
stored token.`,
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate with a verification code",
	Long: `Request a verification code for the configured phone number and
exchange it for an auth token. The token is stored in the system
keychain where supported, so subsequent commands reuse it.`,
	RunE: runAuthLogin,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the stored token's status",
	RunE:  runAuthStatus,
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Discard the stored auth token",
	RunE:  runAuthLogout,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authStatusCmd)
	authCmd.AddCommand(authLogoutCmd)
}

func runAuthLogin(cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return err
	}
	if c.PhoneNumber() == "" {
		return fmt.Errorf("no phone number configured; set phone_number in ~/.wakilirc or pass --phone")
	}

	// Force a fresh code even when a (possibly stale) token is stored.
	c.ResetAuth()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	fmt.Printf("📱 Sending verification code to %s...\n", c.PhoneNumber())

	rl := readline.NewShell()
	ok, err := c.Authenticate(ctx, func() (string, error) {
		rl.Prompt.Primary(func() string { return "verification code> " })
		line, err := rl.Readline()
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(line), nil
	})
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("verification code rejected")
	}

	storeToken(c.PhoneNumber(), c.Token())
	fmt.Println("✅ Authenticated")
	return nil
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	if cfg.APIKey != "" {
		fmt.Println("🔑 Using an API key; phone verification is bypassed.")
		return nil
	}
	if cfg.PhoneNumber == "" {
		fmt.Println("No phone number configured.")
		return nil
	}

	token, err := secrets.GetToken(cfg.PhoneNumber)
	switch {
	case errors.Is(err, secrets.ErrNotFound):
		fmt.Printf("No token stored for %s. Run 'wakili auth login'.\n", cfg.PhoneNumber)
		return nil
	case errors.Is(err, secrets.ErrNotSupported):
		fmt.Println("No secret store on this platform; tokens are not persisted.")
		return nil
	case err != nil:
		return err
	}

	fmt.Printf("Token stored for %s\n", cfg.PhoneNumber)

	claims, err := client.ParseTokenClaims(token)
	if err != nil {
		// Opaque tokens are fine; the server decides validity.
		return nil
	}
	if claims.Subject != "" {
		fmt.Printf("  Subject: %s\n", claims.Subject)
	}
	if !claims.Expiry.IsZero() {
		if claims.Expired(time.Now()) {
			fmt.Printf("  Expired: %s\n", claims.Expiry.Format(time.RFC3339))
		} else {
			fmt.Printf("  Expires: %s\n", claims.Expiry.Format(time.RFC3339))
		}
	}
	return nil
}

func runAuthLogout(cmd *cobra.Command, args []string) error {
	if cfg.PhoneNumber == "" {
		fmt.Println("No phone number configured.")
		return nil
	}

	err := secrets.DeleteToken(cfg.PhoneNumber)
	switch {
	case errors.Is(err, secrets.ErrNotFound):
		fmt.Println("No token was stored.")
		return nil
	case errors.Is(err, secrets.ErrNotSupported):
		fmt.Println("No secret store on this platform; nothing to discard.")
		return nil
	case err != nil:
		return err
	}

	fmt.Printf("Token for %s discarded.\n", cfg.PhoneNumber)
	return nil
}
