package adapter

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/kballard/go-shellquote"

	"entropy/local-app/src/pkg/log"
	"entropy/local-app/src/pkg/model"
)

// ErrEmptyCommand is returned for blank input lines.
var ErrEmptyCommand = errors.New("empty command")

// CLIAdapter provides command-line interface support for managing multiple CLI connections
type CLIAdapter struct {
	sessions       map[string]struct{}
	sessionMutex   sync.RWMutex
	adapterManager *AdapterManager
	logger         *log.Logger
}

// NewCLIAdapter creates a new instance of CLIAdapter
func NewCLIAdapter(am *AdapterManager, logger *log.Logger) (*CLIAdapter, error) {
	logger.Info(context.Background(), "Creating new CLI adapter", nil)
	return &CLIAdapter{
		sessions:       make(map[string]struct{}),
		adapterManager: am,
		logger:         logger,
	}, nil
}

// CLIFactory is the AdapterFactory of the CLI adapter
func CLIFactory(logger *log.Logger) AdapterFactory {
	return func(am *AdapterManager) (AdapterInstance, error) {
		return NewCLIAdapter(am, logger)
	}
}

// GetType returns "cli"
func (a *CLIAdapter) GetType() string {
	return "cli"
}

// AdapterStart has nothing to start; connections are added with SessionAdd
func (a *CLIAdapter) AdapterStart() error {
	a.logger.Info(context.Background(), "CLI adapter started", nil)
	return nil
}

// AdapterStop closes every session of the adapter
func (a *CLIAdapter) AdapterStop() error {
	ctx := context.Background()
	a.logger.Info(ctx, "CLI adapter stopping", nil)

	a.sessionMutex.Lock()
	for sessionID := range a.sessions {
		delete(a.sessions, sessionID)
		a.adapterManager.SessionDelete(sessionID)
		a.logger.Debug(ctx, "Removed session during adapter stop", log.Fields{"sessionID": sessionID})
	}
	a.sessionMutex.Unlock()

	a.logger.Info(ctx, "CLI adapter stopped", nil)
	return nil
}

// SessionAdd adds a new cli session
func (a *CLIAdapter) SessionAdd() (string, error) {
	sessionID, err := a.adapterManager.SessionAdd()
	if err != nil {
		return "", err
	}

	a.sessionMutex.Lock()
	a.sessions[sessionID] = struct{}{}
	a.sessionMutex.Unlock()
	a.logger.Info(context.Background(), "New CLI session added", log.Fields{"sessionID": sessionID})

	return sessionID, nil
}

// SessionDelete deletes a cli session
func (a *CLIAdapter) SessionDelete(sessionID string) {
	a.sessionMutex.Lock()
	delete(a.sessions, sessionID)
	a.sessionMutex.Unlock()
	a.adapterManager.SessionDelete(sessionID)
	a.logger.Info(context.Background(), "CLI session removed", log.Fields{"sessionID": sessionID})
}

// CommandRun runs a parsed command in a session of this adapter
func (a *CLIAdapter) CommandRun(ctx context.Context, sessionID string, cmd model.Command) (interface{}, error) {
	return a.adapterManager.CommandRun(ctx, sessionID, cmd)
}

// ProcessInput converts the input string into command and runs it
func (a *CLIAdapter) ProcessInput(ctx context.Context, sessionID string, input string) (interface{}, error) {
	cmd, err := a.ParseCommand(input)
	if err != nil {
		return nil, err
	}
	return a.CommandRun(ctx, sessionID, cmd)
}

// ParseCommand splits a line into scope, operation and arguments. Quoted
// arguments keep their spaces. A bare "exit" or "quit" is a system command.
func (a *CLIAdapter) ParseCommand(input string) (model.Command, error) {
	args, err := shellquote.Split(input)
	if err != nil {
		return model.Command{}, fmt.Errorf("failed to parse command: %w", err)
	}
	if len(args) == 0 {
		return model.Command{}, ErrEmptyCommand
	}

	cmd := model.Command{
		Scope: strings.ToLower(args[0]),
		Args:  []string{},
	}
	if len(args) > 1 {
		cmd.Operation = strings.ToLower(args[1])
		cmd.Args = args[2:]
	}
	if (cmd.Scope == "exit" || cmd.Scope == "quit") && cmd.Operation == "" {
		cmd.Scope, cmd.Operation = "system", cmd.Scope
	}

	a.logger.Debug(context.Background(), "Command parsed", log.Fields{"command": cmd})
	return cmd, nil
}

// PromptGet shows the mindmap and the active thread of the session
func (a *CLIAdapter) PromptGet(sessionID string) string {
	a.sessionMutex.RLock()
	_, exists := a.sessions[sessionID]
	a.sessionMutex.RUnlock()
	if !exists {
		a.logger.Warn(context.Background(), "Session not found", log.Fields{"sessionID": sessionID})
		return "> "
	}

	sess, ok := a.adapterManager.SessionGet(sessionID)
	if !ok {
		return "> "
	}
	snapshot, err := sess.DataManager.Store.Snapshot()
	if err != nil {
		return "> "
	}
	thread, err := sess.DataManager.Store.ActiveThread()
	if err != nil {
		return fmt.Sprintf("%s > ", snapshot.Name)
	}
	return fmt.Sprintf("%s @ %s > ", snapshot.Name, thread.Title)
}

// SessionUI returns the UI state seen by a session of this adapter
func (a *CLIAdapter) SessionUI(sessionID string) (model.UIState, bool) {
	sess, ok := a.adapterManager.SessionGet(sessionID)
	if !ok {
		return model.UIState{}, false
	}
	return sess.DataManager.Store.UI(), true
}
