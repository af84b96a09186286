package session

import (
	"context"
	"errors"
	"fmt"

	"entropy/local-app/src/pkg/log"
	"entropy/local-app/src/pkg/model"
)

// ErrInvalidCommand wraps every validation failure.
var ErrInvalidCommand = errors.New("invalid command")

// unlimited marks an operation without an upper argument bound.
const unlimited = -1

// SessionCommand wraps the model.Command and adds session-specific functionality
type SessionCommand struct {
	model.Command
	logger *log.Logger
}

// NewSessionCommand creates a new SessionCommand from a model.Command
func NewSessionCommand(cmd model.Command, logger *log.Logger) SessionCommand {
	return SessionCommand{Command: cmd, logger: logger}
}

// Validate checks if the command is valid
func (c *SessionCommand) Validate() error {
	ctx := context.Background()
	c.logger.Debug(ctx, "Validating command", log.Fields{"scope": c.Scope, "operation": c.Operation})

	if c.Scope == "" {
		c.logger.Error(ctx, "Command scope is empty", nil)
		return fmt.Errorf("%w: command scope is required", ErrInvalidCommand)
	}
	if c.Operation == "" {
		c.logger.Error(ctx, "Command operation is empty", nil)
		return fmt.Errorf("%w: command operation is required", ErrInvalidCommand)
	}
	return c.validateScopeAndOperation()
}

// validateScopeAndOperation checks if the scope and operation are valid
func (c *SessionCommand) validateScopeAndOperation() error {
	switch c.Scope {
	case "mindmap":
		return c.validateMindmapCommand()
	case "thread":
		return c.validateThreadCommand()
	case "sticky":
		return c.validateStickyCommand()
	case "ui":
		return c.validateUICommand()
	case "system":
		return c.validateSystemCommand()
	default:
		c.logger.Error(context.Background(), "Invalid command scope", log.Fields{"scope": c.Scope})
		return fmt.Errorf("%w: invalid command scope: %s", ErrInvalidCommand, c.Scope)
	}
}

// argCount checks that the argument count is within [lo, hi].
func (c *SessionCommand) argCount(lo, hi int, usage string) error {
	n := len(c.Args)
	if n < lo || (hi != unlimited && n > hi) {
		c.logger.Error(context.Background(), "Invalid number of arguments", log.Fields{
			"scope": c.Scope, "operation": c.Operation, "argCount": n,
		})
		return fmt.Errorf("%w: %s %s usage: %s", ErrInvalidCommand, c.Scope, c.Operation, usage)
	}
	return nil
}

func (c *SessionCommand) invalidOperation() error {
	c.logger.Error(context.Background(), "Invalid operation", log.Fields{"scope": c.Scope, "operation": c.Operation})
	return fmt.Errorf("%w: invalid %s operation: %s", ErrInvalidCommand, c.Scope, c.Operation)
}

func (c *SessionCommand) validateMindmapCommand() error {
	switch c.Operation {
	case "view", "save", "list", "undo", "redo":
		return c.argCount(0, 0, "mindmap "+c.Operation)
	case "export":
		return c.argCount(1, 2, "mindmap export <filename> [json|xml|yaml]")
	case "import":
		return c.argCount(1, 2, "mindmap import <filename> [json|xml|yaml]")
	case "open":
		return c.argCount(1, 1, "mindmap open <mindmap_id>")
	case "delete":
		return c.argCount(1, 1, "mindmap delete <mindmap_id>")
	case "search":
		return c.argCount(1, unlimited, "mindmap search <query...>")
	case "minimap":
		if len(c.Args) != 0 && len(c.Args) != 2 {
			return c.argCount(2, 2, "mindmap minimap [width height]")
		}
		return nil
	default:
		return c.invalidOperation()
	}
}

func (c *SessionCommand) validateThreadCommand() error {
	switch c.Operation {
	case "add":
		return c.argCount(1, unlimited, "thread add <title> [message...]")
	case "send":
		return c.argCount(1, unlimited, "thread send <message...>")
	case "switch":
		return c.argCount(1, 1, "thread switch <thread_id>")
	case "list":
		return c.argCount(0, 0, "thread list")
	case "view":
		return c.argCount(0, 1, "thread view [thread_id]")
	case "branch":
		return c.argCount(5, unlimited, "thread branch <thread_id> <message_id> <x> <y> <selected text...> [-- <query...>]")
	case "rename":
		return c.argCount(2, unlimited, "thread rename <thread_id> <title...>")
	default:
		return c.invalidOperation()
	}
}

func (c *SessionCommand) validateStickyCommand() error {
	switch c.Operation {
	case "add":
		if len(c.Args) != 1 && len(c.Args) != 3 {
			return c.argCount(3, 3, "sticky add <title> [x y]")
		}
		return nil
	case "from-thread":
		return c.argCount(3, 3, "sticky from-thread <thread_id> <x> <y>")
	case "list":
		return c.argCount(0, 0, "sticky list")
	case "move":
		return c.argCount(3, 3, "sticky move <sticky_id> <x> <y>")
	case "update":
		return c.argCount(2, unlimited, "sticky update <sticky_id> <field>:<value>...")
	case "stack":
		return c.argCount(2, 2, "sticky stack <parent_id> <child_id>")
	case "delete":
		return c.argCount(1, 1, "sticky delete <sticky_id>")
	case "chat":
		return c.argCount(2, unlimited, "sticky chat <sticky_id> <message...>")
	case "select":
		return c.argCount(0, 1, "sticky select [sticky_id]")
	default:
		return c.invalidOperation()
	}
}

func (c *SessionCommand) validateUICommand() error {
	switch c.Operation {
	case "view":
		return c.argCount(1, 1, "ui view <chat|mindmap>")
	case "theme":
		return c.argCount(1, 1, "ui theme <light|dark>")
	case "toggle-theme", "state":
		return c.argCount(0, 0, "ui "+c.Operation)
	case "select":
		return c.argCount(0, unlimited, "ui select [text...]")
	default:
		return c.invalidOperation()
	}
}

func (c *SessionCommand) validateSystemCommand() error {
	switch c.Operation {
	case "exit", "quit":
		return c.argCount(0, 0, "system "+c.Operation)
	default:
		return c.invalidOperation()
	}
}
