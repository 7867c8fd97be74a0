package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/google/shlex"
	"github.com/reeflective/readline"
	"github.com/spf13/cobra"

	"github.com/wakili/wakili/internal/appdir"
	"github.com/wakili/wakili/internal/client"
	"github.com/wakili/wakili/internal/config"
	"github.com/wakili/wakili/internal/logging"
)

var (
	// chat-specific flags
	onceQuery    string
	chatNoAuth   bool
	systemPrompt string
)

// chatCmd represents the chat command
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive chat with the Wakili agent",
	Long: `Start an interactive session with the configured Wakili server.

On first use you will be asked for the verification code sent to
your phone. The session then stays in one conversation thread until
you switch with /thread or /new.

Use --once to send a single query and exit:
  wakili chat --once "What is the capital of France?"

Commands (interactive mode only):
  /quit, /exit   - Exit the chat
  /new           - Start a fresh conversation thread
  /thread [id]   - Show or switch the conversation thread
  /prompts       - List available system prompts
  /prompt <name> - Switch to a named system prompt
  /auth          - Re-run the verification-code flow
  /status        - Show connection and session state
  /help          - Show available commands`,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().StringVar(&onceQuery, "once", "", "Send a single query and exit (non-interactive mode)")
	chatCmd.Flags().BoolVar(&chatNoAuth, "no-auth", false, "Skip the local authentication requirement")
	chatCmd.Flags().StringVar(&systemPrompt, "system-prompt", "", "System prompt text or the name of a prompt file")
}

// promptLibrary is the REPL's view of the prompt directory. The
// fsnotify watcher swaps the slice on changes, so reads go through the
// mutex.
type promptLibrary struct {
	mu      sync.Mutex
	dir     string
	prompts []*config.PromptFile
}

func (pl *promptLibrary) reload() {
	prompts, err := config.LoadPromptsFromDir(pl.dir)
	if err != nil {
		logging.Prompts().Warn("failed to reload prompts", "error", err)
		return
	}
	pl.mu.Lock()
	pl.prompts = prompts
	pl.mu.Unlock()
	logging.Prompts().Debug("prompt library reloaded", "count", len(prompts))
}

func (pl *promptLibrary) list() []*config.PromptFile {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	return pl.prompts
}

func (pl *promptLibrary) find(name string) *config.PromptFile {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	return config.FindPrompt(pl.prompts, name)
}

func runChat(cmd *cobra.Command, args []string) error {
	if chatNoAuth {
		requireAuth := false
		cfg.RequireAuth = &requireAuth
	}

	c, err := newClient()
	if err != nil {
		return err
	}

	isOnceMode := onceQuery != ""

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		if !isOnceMode {
			fmt.Println("\n\n👋 Shutting down...")
		}
		cancel()
	}()

	// Load the prompt library and keep it fresh while the session runs.
	library := &promptLibrary{}
	if promptsDir, derr := appdir.PromptsDir(); derr == nil {
		library.dir = promptsDir
		library.reload()
		if watcher, werr := config.WatchPrompts(promptsDir, library.reload, logging.Prompts()); werr == nil {
			defer watcher.Close()
		} else {
			logging.Prompts().Warn("prompt watching disabled", "error", werr)
		}
	}

	if systemPrompt != "" {
		if p := library.find(systemPrompt); p != nil {
			c.SetSystemPrompt(p.Content)
		} else {
			c.SetSystemPrompt(systemPrompt)
		}
	}

	rl := readline.NewShell()

	if cfg.AuthRequired() && !c.Authenticated() {
		if err := authenticateInteractive(ctx, c, rl); err != nil {
			return err
		}
	}

	if isOnceMode {
		return runOnce(ctx, c, onceQuery)
	}
	return runInteractiveLoop(ctx, c, rl, library)
}

// authenticateInteractive runs the verification-code flow, prompting
// for the code on the terminal. A freshly issued token is persisted for
// the next session.
func authenticateInteractive(ctx context.Context, c *client.Client, rl *readline.Shell) error {
	if c.PhoneNumber() == "" {
		return fmt.Errorf("no phone number configured; set phone_number in ~/.wakilirc or pass --phone")
	}

	fmt.Printf("📱 Sending verification code to %s...\n", c.PhoneNumber())
	logging.Auth().Debug("starting verification flow", "phone", c.PhoneNumber())

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

// runOnce sends a single query and prints the response.
func runOnce(ctx context.Context, c *client.Client, query string) error {
	response, err := c.Query(ctx, query)
	if err != nil {
		return err
	}
	fmt.Println(response)
	return nil
}

// slashCommands defines the available slash commands with their descriptions.
var slashCommands = []struct {
	name        string
	description string
}{
	{"/help", "Show available commands"},
	{"/h", "Show available commands (alias)"},
	{"/?", "Show available commands (alias)"},
	{"/quit", "Exit the chat"},
	{"/exit", "Exit the chat (alias)"},
	{"/q", "Exit the chat (alias)"},
	{"/new", "Start a fresh conversation thread"},
	{"/thread", "Show or switch the conversation thread"},
	{"/prompts", "List available system prompts"},
	{"/prompt", "Switch to a named system prompt"},
	{"/auth", "Re-run the verification-code flow"},
	{"/status", "Show connection and session state"},
}

func runInteractiveLoop(ctx context.Context, c *client.Client, rl *readline.Shell, library *promptLibrary) error {
	rl.Prompt.Primary(func() string { return "wakili> " })

	history := readline.NewInMemoryHistory()
	rl.History.Add("default", history)

	rl.Completer = func(line []rune, cursor int) readline.Completions {
		return completeInput(string(line), cursor)
	}

	fmt.Println("\n📝 Type your message and press Enter. Use /help for commands. Tab completes commands.")

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		line, err := rl.Readline()
		if err != nil {
			if err == io.EOF || err == readline.ErrInterrupt {
				fmt.Println("\n👋 Goodbye!")
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			if handled := handleCommand(ctx, c, rl, library, line); handled {
				continue
			}
		}

		fmt.Println()
		logging.Query().Debug("sending query", "thread", c.ThreadID(), "model", c.Model())
		response, err := c.Query(ctx, line)
		if err != nil {
			printQueryError(err)
			continue
		}
		fmt.Println(response)
		fmt.Println()
	}
}

// printQueryError turns the error taxonomy into actionable messages.
func printQueryError(err error) {
	switch {
	case errors.Is(err, client.ErrAuthentication):
		fmt.Printf("\n🔒 %v\n   Run 'wakili auth login' to re-authenticate.\n", err)
	case errors.Is(err, client.ErrTimeout):
		fmt.Printf("\n⏱️  %v\n", err)
	case errors.Is(err, client.ErrConnection):
		fmt.Printf("\n🔌 %v\n   Is the server reachable? Try 'wakili health'.\n", err)
	default:
		fmt.Printf("\n❌ Error: %v\n", err)
	}
}

// handleCommand processes a slash command. Arguments are tokenized
// shell-style so quoted prompt names survive:
//
//	/prompt "math tutor"
func handleCommand(ctx context.Context, c *client.Client, rl *readline.Shell, library *promptLibrary, line string) bool {
	parts, err := shlex.Split(strings.TrimPrefix(line, "/"))
	if err != nil {
		fmt.Printf("❌ Invalid command: %v\n", err)
		return true
	}
	if len(parts) == 0 {
		return false
	}

	switch strings.ToLower(parts[0]) {
	case "quit", "exit", "q":
		fmt.Println("👋 Goodbye!")
		os.Exit(0)
	case "new":
		id := c.NewThread()
		fmt.Printf("🧵 Started new thread: %s\n", id)
	case "thread":
		if len(parts) > 1 {
			c.SetThreadID(parts[1])
			fmt.Printf("🧵 Switched to thread: %s\n", parts[1])
		} else {
			fmt.Printf("🧵 Current thread: %s\n", c.ThreadID())
		}
	case "prompts":
		printPrompts(library)
	case "prompt":
		if len(parts) < 2 {
			fmt.Println("Usage: /prompt <name> (see /prompts for the list)")
			break
		}
		name := strings.Join(parts[1:], " ")
		p := library.find(name)
		if p == nil {
			fmt.Printf("❓ Unknown prompt: %s (use /prompts to list)\n", name)
			break
		}
		c.SetSystemPrompt(p.Content)
		fmt.Printf("💬 System prompt set to %q\n", p.Name)
	case "auth":
		c.ResetAuth()
		if err := authenticateInteractive(ctx, c, rl); err != nil {
			fmt.Printf("❌ Authentication failed: %v\n", err)
		}
		rl.Prompt.Primary(func() string { return "wakili> " })
	case "status":
		printStatus(c)
	case "help", "h", "?":
		printHelp()
	default:
		fmt.Printf("❓ Unknown command: %s (use /help for available commands)\n", parts[0])
	}
	return true
}

func printPrompts(library *promptLibrary) {
	prompts := library.list()
	if len(prompts) == 0 {
		dir, _ := appdir.PromptsDir()
		fmt.Printf("No prompts found. Add .md files under %s\n", dir)
		return
	}
	fmt.Println("Available prompts:")
	for _, p := range prompts {
		if p.Description != "" {
			fmt.Printf("  %-20s %s\n", p.Name, p.Description)
		} else {
			fmt.Printf("  %s\n", p.Name)
		}
	}
}

func printStatus(c *client.Client) {
	fmt.Printf(`
Server:     %s
Auth state: %s
Thread:     %s
Model:      %s
Agent type: %s
`, c.BaseURL(), c.State(), c.ThreadID(), c.Model(), c.AgentType())
}

func printHelp() {
	fmt.Println(`
Available commands:
  /quit, /exit, /q  - Exit the chat
  /new              - Start a fresh conversation thread
  /thread [id]      - Show or switch the conversation thread
  /prompts          - List available system prompts
  /prompt <name>    - Switch to a named system prompt
  /auth             - Re-run the verification-code flow
  /status           - Show connection and session state
  /help, /h, /?     - Show this help message

Tips:
  - Type your message and press Enter to send it to the agent
  - Use Ctrl+C to exit gracefully
  - Use up/down arrows for command history
  - Use Tab to autocomplete slash commands`)
}

// completeInput provides tab completion for the chat input.
// It completes slash commands when the input starts with "/".
func completeInput(line string, cursor int) readline.Completions {
	if cursor > len(line) {
		cursor = len(line)
	}
	text := line[:cursor]

	if !strings.HasPrefix(text, "/") {
		return readline.Completions{}
	}

	var matches []string
	var descriptions []string
	for _, cmd := range slashCommands {
		if strings.HasPrefix(cmd.name, text) {
			matches = append(matches, cmd.name)
			descriptions = append(descriptions, cmd.description)
		}
	}
	if len(matches) == 0 {
		return readline.Completions{}
	}

	pairs := make([]string, 0, len(matches)*2)
	for i, match := range matches {
		pairs = append(pairs, match, descriptions[i])
	}

	return readline.CompleteValuesDescribed(pairs...).
		Tag("commands").
		NoSpace('/')
}
