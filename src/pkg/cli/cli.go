// Package cli implements the interactive shell.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"

	"entropy/local-app/src/pkg/adapter"
	"entropy/local-app/src/pkg/log"
	"entropy/local-app/src/pkg/session"
)

// CLI represents the command-line interface
type CLI struct {
	adapter   *adapter.CLIAdapter
	sessionID string
	writer    io.Writer
	renderer  *Renderer
	logger    *log.Logger
}

// NewCLI opens a session on the adapter and writes results to w
func NewCLI(a *adapter.CLIAdapter, w io.Writer, logger *log.Logger) (*CLI, error) {
	if w == nil {
		w = os.Stdout
	}
	sessionID, err := a.SessionAdd()
	if err != nil {
		return nil, fmt.Errorf("failed to add CLI session: %w", err)
	}
	c := &CLI{
		adapter:   a,
		sessionID: sessionID,
		writer:    w,
		renderer:  NewRenderer(w),
		logger:    logger,
	}
	c.syncTheme()
	return c, nil
}

// Close ends the CLI session
func (c *CLI) Close() {
	c.adapter.SessionDelete(c.sessionID)
}

// Prompt returns the prompt of the CLI session
func (c *CLI) Prompt() string {
	return c.adapter.PromptGet(c.sessionID)
}

// Run reads commands with line editing until exit, EOF or ctx is done
func (c *CLI) Run(ctx context.Context, historyFile string) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          c.Prompt(),
		HistoryFile:     historyFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		Stdout:          c.writer,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize readline: %w", err)
	}
	defer rl.Close()

	go func() {
		<-ctx.Done()
		_ = rl.Close()
	}()

	fmt.Fprintln(c.writer, c.renderer.title.Render("Welcome to Entropy!"))
	fmt.Fprintln(c.writer, "Type 'help' for a list of commands or 'exit' to quit.")

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if line == "" {
				fmt.Fprintln(c.writer, "Use 'exit' or 'quit' to exit the program.")
			}
			continue
		}
		if errors.Is(err, io.EOF) || ctx.Err() != nil {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}

		if c.Execute(ctx, line) {
			return nil
		}
		rl.SetPrompt(c.Prompt())
	}
}

// RunScript executes every line of a script file. Blank lines and lines
// starting with # are skipped. An exit command ends the script.
func (c *CLI) RunScript(ctx context.Context, path string) (exit bool, err error) {
	f, err := os.Open(path)
	if err != nil {
		return false, fmt.Errorf("failed to open script: %w", err)
	}
	defer f.Close()

	c.logger.Info(ctx, "Running script", log.Fields{"file": path})
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fmt.Fprintln(c.writer, c.renderer.muted.Render(c.Prompt()+line))
		if c.Execute(ctx, line) {
			return true, nil
		}
	}
	return false, scanner.Err()
}

// Execute runs one input line and prints its result. It reports whether the
// session asked to exit.
func (c *CLI) Execute(ctx context.Context, input string) (exit bool) {
	cmd, err := c.adapter.ParseCommand(input)
	if errors.Is(err, adapter.ErrEmptyCommand) {
		return false
	}
	if err != nil {
		fmt.Fprintln(c.writer, c.renderer.Error(err))
		return false
	}

	if cmd.Scope == "help" {
		args := cmd.Args
		if cmd.Operation != "" {
			args = append([]string{cmd.Operation}, args...)
		}
		c.printHelp(args)
		return false
	}

	result, err := c.adapter.CommandRun(ctx, c.sessionID, cmd)
	c.syncTheme()
	if err != nil {
		fmt.Fprintln(c.writer, c.renderer.Error(err))
		return false
	}
	if _, ok := result.(session.Exit); ok {
		return true
	}
	if out := c.renderer.Render(result); out != "" {
		fmt.Fprintln(c.writer, out)
	}
	return false
}

// syncTheme follows the theme of the UI state
func (c *CLI) syncTheme() {
	if ui, ok := c.adapter.SessionUI(c.sessionID); ok {
		c.renderer.SetTheme(ui.Theme)
	}
}

// printHelp prints the help message based on the provided arguments
func (c *CLI) printHelp(args []string) {
	switch len(args) {
	case 0:
		c.showGeneralHelp()
	case 1:
		c.showScopeHelp(args[0])
	case 2:
		c.showOperationHelp(args[0], args[1])
	default:
		fmt.Fprintln(c.writer, "Invalid help command. Use 'help [scope] [operation]'")
	}
}

// showGeneralHelp displays an overview of all available commands grouped by scope
func (c *CLI) showGeneralHelp() {
	fmt.Fprintln(c.writer, "Command syntax: <scope> <operation> [arguments]")
	fmt.Fprintln(c.writer, "\nAvailable commands:")
	currentScope := ""
	for _, cmd := range commandHelps {
		if cmd.Scope != currentScope {
			fmt.Fprintf(c.writer, "\n%s:\n", c.renderer.title.Render(cmd.Scope))
			currentScope = cmd.Scope
		}
		fmt.Fprintf(c.writer, "  %-15s %s\n", cmd.Operation, cmd.ShortDesc)
	}
}

// showScopeHelp displays help information for all commands within a specific scope
func (c *CLI) showScopeHelp(scope string) {
	found := false
	for _, cmd := range commandHelps {
		if cmd.Scope == scope {
			if !found {
				fmt.Fprintf(c.writer, "Commands for %s:\n\n", scope)
				found = true
			}
			fmt.Fprintf(c.writer, "%-15s %s\n", cmd.Operation, cmd.ShortDesc)
		}
	}
	if !found {
		fmt.Fprintf(c.writer, "No help found for %s\n", scope)
	}
}

// showOperationHelp displays detailed help information for a specific operation within a scope
func (c *CLI) showOperationHelp(scope, operation string) {
	for _, cmd := range commandHelps {
		if cmd.Scope == scope && cmd.Operation == operation {
			fmt.Fprintf(c.writer, "Command: %s %s\n", scope, operation)
			fmt.Fprintf(c.writer, "Description: %s\n", cmd.LongDesc)
			fmt.Fprintf(c.writer, "Syntax: %s\n", cmd.Syntax)
			if len(cmd.Arguments) > 0 {
				fmt.Fprintln(c.writer, "Arguments:")
				for _, arg := range cmd.Arguments {
					fmt.Fprintf(c.writer, "  %s\n", arg)
				}
			}
			if len(cmd.Examples) > 0 {
				fmt.Fprintln(c.writer, "Examples:")
				for _, ex := range cmd.Examples {
					fmt.Fprintf(c.writer, "  %s\n", ex)
				}
			}
			return
		}
	}
	fmt.Fprintf(c.writer, "No help found for %s %s\n", scope, operation)
}
