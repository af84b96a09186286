package session

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"entropy/local-app/src/pkg/data"
	"entropy/local-app/src/pkg/log"
	"entropy/local-app/src/pkg/model"
)

// CommandHandler is a function type for command handlers
type CommandHandler func(context.Context, *Session, model.Command) (interface{}, error)

// Exit is the result of a system exit command.
type Exit struct{}

// Session represents an individual client session over the shared data manager.
type Session struct {
	ID              string
	DataManager     *data.DataManager
	commandHandlers map[string]map[string]CommandHandler
	fileRoot        string
	logger          *log.Logger

	mu           sync.Mutex
	lastActivity time.Time
}

// Option configures a Session at creation.
type Option func(*Session)

// WithFileRoot confines the export and import file names of the session to dir.
func WithFileRoot(dir string) Option {
	return func(s *Session) { s.fileRoot = dir }
}

// NewSession creates a new Session instance
func NewSession(id string, dataManager *data.DataManager, logger *log.Logger, opts ...Option) *Session {
	logger.Info(context.Background(), "Creating new Session", log.Fields{"sessionID": id})

	s := &Session{
		ID:           id,
		DataManager:  dataManager,
		lastActivity: time.Now(),
		logger:       logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.initCommandHandlers()
	return s
}

// initCommandHandlers initializes the command handlers map
func (s *Session) initCommandHandlers() {
	s.commandHandlers = map[string]map[string]CommandHandler{
		"mindmap": initMindmapCommandHandlers(),
		"thread":  initThreadCommandHandlers(),
		"sticky":  initStickyCommandHandlers(),
		"ui":      initUICommandHandlers(),
		"system":  initSystemCommandHandlers(),
	}
}

// CommandRun validates and executes a command within the session context
func (s *Session) CommandRun(ctx context.Context, cmd model.Command) (interface{}, error) {
	s.logger.Info(ctx, "Running command", log.Fields{"sessionID": s.ID, "scope": cmd.Scope, "operation": cmd.Operation})
	s.touch()

	sc := NewSessionCommand(cmd, s.logger)
	if err := sc.Validate(); err != nil {
		return nil, err
	}

	scopeHandlers, ok := s.commandHandlers[cmd.Scope]
	if !ok {
		return nil, fmt.Errorf("%w: invalid command scope: %s", ErrInvalidCommand, cmd.Scope)
	}
	handler, ok := scopeHandlers[cmd.Operation]
	if !ok {
		return nil, fmt.Errorf("%w: invalid command operation: %s", ErrInvalidCommand, cmd.Operation)
	}

	result, err := handler(ctx, s, cmd)
	if err != nil {
		s.logger.Error(ctx, "Command execution failed", log.Fields{"sessionID": s.ID, "error": err})
	} else {
		s.logger.Debug(ctx, "Command executed successfully", log.Fields{"sessionID": s.ID})
	}
	return result, err
}

// Info describes the session for listings.
func (s *Session) Info() model.SessionInfo {
	info := model.SessionInfo{ID: s.ID, LastActivity: s.LastActivity()}
	if thread, err := s.DataManager.Store.ActiveThread(); err == nil {
		info.ActiveThread = thread.ID
	}
	return info
}

// LastActivity returns the time of the last command.
func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastActivity = time.Now()
	s.mu.Unlock()
}

// initMindmapCommandHandlers initializes mindmap command handlers
func initMindmapCommandHandlers() map[string]CommandHandler {
	return map[string]CommandHandler{
		"view":    handleMindmapView,
		"save":    handleMindmapSave,
		"list":    handleMindmapList,
		"open":    handleMindmapOpen,
		"delete":  handleMindmapDelete,
		"export":  handleMindmapExport,
		"import":  handleMindmapImport,
		"search":  handleMindmapSearch,
		"minimap": handleMindmapMinimap,
		"undo":    handleMindmapUndo,
		"redo":    handleMindmapRedo,
	}
}

// initThreadCommandHandlers initializes thread command handlers
func initThreadCommandHandlers() map[string]CommandHandler {
	return map[string]CommandHandler{
		"add":    handleThreadAdd,
		"send":   handleThreadSend,
		"switch": handleThreadSwitch,
		"list":   handleThreadList,
		"view":   handleThreadView,
		"branch": handleThreadBranch,
		"rename": handleThreadRename,
	}
}

// initStickyCommandHandlers initializes sticky command handlers
func initStickyCommandHandlers() map[string]CommandHandler {
	return map[string]CommandHandler{
		"add":         handleStickyAdd,
		"from-thread": handleStickyFromThread,
		"list":        handleStickyList,
		"move":        handleStickyMove,
		"update":      handleStickyUpdate,
		"stack":       handleStickyStack,
		"delete":      handleStickyDelete,
		"chat":        handleStickyChat,
		"select":      handleStickySelect,
	}
}

// initUICommandHandlers initializes ui command handlers
func initUICommandHandlers() map[string]CommandHandler {
	return map[string]CommandHandler{
		"view":         handleUIView,
		"theme":        handleUITheme,
		"toggle-theme": handleUIToggleTheme,
		"select":       handleUISelect,
		"state":        handleUIState,
	}
}

// initSystemCommandHandlers initializes system command handlers
func initSystemCommandHandlers() map[string]CommandHandler {
	return map[string]CommandHandler{
		"exit": handleSystemExit,
		"quit": handleSystemExit,
	}
}

func handleSystemExit(ctx context.Context, s *Session, cmd model.Command) (interface{}, error) {
	s.logger.Info(ctx, "Exit requested", log.Fields{"sessionID": s.ID})
	return Exit{}, nil
}

// filePath resolves an export or import file name. Without a file root any path is accepted;
// with one, only relative names that stay inside it.
func (s *Session) filePath(name string) (string, error) {
	if s.fileRoot == "" {
		return name, nil
	}
	if !filepath.IsLocal(name) {
		return "", fmt.Errorf("%w: file must be a relative path inside the data directory: %q", ErrInvalidCommand, name)
	}
	return filepath.Join(s.fileRoot, name), nil
}
