package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"
	"time"

	"entropy/local-app/src/pkg/data"
	"entropy/local-app/src/pkg/log"
	"entropy/local-app/src/pkg/model"
)

const (
	sessionIDLength        = 32
	sessionQueueSize       = 16
	defaultCleanupInterval = 5 * time.Minute
	defaultSessionTimeout  = 30 * time.Minute
)

var (
	// ErrSessionNotFound is returned for unknown or expired session ids.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionClosed is returned for commands queued to a deleted session.
	ErrSessionClosed = errors.New("session closed")
)

// SessionManager manages multiple concurrent sessions. Commands of one
// session run in order on that session's executor; sessions run in parallel.
type SessionManager struct {
	mu             sync.RWMutex
	sessions       map[string]*sessionEntry
	dataManager    *data.DataManager
	cleanupTicker  *time.Ticker
	sessionTimeout time.Duration
	done           chan struct{}
	stopOnce       sync.Once
	logger         *log.Logger
}

// sessionEntry is a session with its command queue
type sessionEntry struct {
	session *Session
	queue   chan commandExecution
	done    chan struct{}
}

// commandExecution represents a command to be executed in a session, its result and error
type commandExecution struct {
	ctx     context.Context
	command model.Command
	result  chan commandResult
}

type commandResult struct {
	value interface{}
	err   error
}

// NewSessionManager starts the cleanup goroutine
func NewSessionManager(dataManager *data.DataManager, logger *log.Logger) *SessionManager {
	logger.Info(context.Background(), "Creating new SessionManager", nil)

	sm := &SessionManager{
		sessions:       make(map[string]*sessionEntry),
		dataManager:    dataManager,
		sessionTimeout: defaultSessionTimeout,
		done:           make(chan struct{}),
		logger:         logger,
	}
	sm.startCleanupRoutine(defaultCleanupInterval)
	return sm
}

// SessionAdd creates a new session and returns its ID
func (sm *SessionManager) SessionAdd(opts ...Option) (string, error) {
	ctx := context.Background()

	sessionID, err := generateSessionID()
	if err != nil {
		sm.logger.Error(ctx, "Failed to generate session ID", log.Fields{"error": err})
		return "", fmt.Errorf("failed to generate session ID: %w", err)
	}

	entry := &sessionEntry{
		session: NewSession(sessionID, sm.dataManager, sm.logger, opts...),
		queue:   make(chan commandExecution, sessionQueueSize),
		done:    make(chan struct{}),
	}
	go sm.commandExecutor(entry)

	sm.mu.Lock()
	sm.sessions[sessionID] = entry
	sm.mu.Unlock()

	sm.logger.Info(ctx, "New session added", log.Fields{"sessionID": sessionID})
	return sessionID, nil
}

// SessionGet retrieves a session by its ID
func (sm *SessionManager) SessionGet(sessionID string) (*Session, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	entry, exists := sm.sessions[sessionID]
	if !exists {
		return nil, false
	}
	return entry.session, true
}

// SessionList returns a summary of every live session.
func (sm *SessionManager) SessionList() []model.SessionInfo {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	infos := make([]model.SessionInfo, 0, len(sm.sessions))
	for _, entry := range sm.sessions {
		infos = append(infos, entry.session.Info())
	}
	return infos
}

// SessionDelete removes a session and stops its executor
func (sm *SessionManager) SessionDelete(sessionID string) bool {
	sm.mu.Lock()
	entry, exists := sm.sessions[sessionID]
	if exists {
		delete(sm.sessions, sessionID)
	}
	sm.mu.Unlock()

	if !exists {
		sm.logger.Warn(context.Background(), "Attempted to delete non-existent session", log.Fields{"sessionID": sessionID})
		return false
	}
	close(entry.done)
	sm.logger.Info(context.Background(), "Session deleted", log.Fields{"sessionID": sessionID})
	return true
}

// SessionRun executes a command for a specific session and waits for its result
func (sm *SessionManager) SessionRun(ctx context.Context, sessionID string, cmd model.Command) (interface{}, error) {
	sm.mu.RLock()
	entry, exists := sm.sessions[sessionID]
	sm.mu.RUnlock()
	if !exists {
		sm.logger.Error(ctx, "Session not found", log.Fields{"sessionID": sessionID})
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}

	// Log command in command log
	sm.logger.Command(ctx, "Command received", log.Fields{
		"sessionID": sessionID,
		"scope":     cmd.Scope,
		"operation": cmd.Operation,
		"args":      cmd.Args,
	})

	exec := commandExecution{ctx: ctx, command: cmd, result: make(chan commandResult, 1)}
	select {
	case entry.queue <- exec:
	case <-entry.done:
		return nil, ErrSessionClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case res := <-exec.result:
		return res.value, res.err
	case <-entry.done:
		// The executor may have finished this command just before the delete.
		select {
		case res := <-exec.result:
			return res.value, res.err
		default:
			return nil, ErrSessionClosed
		}
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// commandExecutor processes the commands queued for one session. Once the
// session is deleted every queued command is answered with ErrSessionClosed.
func (sm *SessionManager) commandExecutor(entry *sessionEntry) {
	for {
		select {
		case exec := <-entry.queue:
			if entry.closed() {
				exec.result <- commandResult{err: ErrSessionClosed}
				continue
			}
			if exec.ctx.Err() != nil {
				exec.result <- commandResult{err: exec.ctx.Err()}
				continue
			}
			value, err := entry.session.CommandRun(exec.ctx, exec.command)
			exec.result <- commandResult{value: value, err: err}
		case <-entry.done:
			entry.drain()
			return
		}
	}
}

func (e *sessionEntry) closed() bool {
	select {
	case <-e.done:
		return true
	default:
		return false
	}
}

// drain rejects the commands still buffered in the queue
func (e *sessionEntry) drain() {
	for {
		select {
		case exec := <-e.queue:
			exec.result <- commandResult{err: ErrSessionClosed}
		default:
			return
		}
	}
}

// startCleanupRoutine starts a goroutine that periodically cleans up inactive sessions
func (sm *SessionManager) startCleanupRoutine(interval time.Duration) {
	sm.cleanupTicker = time.NewTicker(interval)
	go func() {
		for {
			select {
			case <-sm.cleanupTicker.C:
				sm.cleanupInactiveSessions(time.Now())
			case <-sm.done:
				sm.cleanupTicker.Stop()
				return
			}
		}
	}()
}

// Shutdown stops the cleanup routine and deletes every session
func (sm *SessionManager) Shutdown() {
	sm.stopOnce.Do(func() {
		sm.logger.Info(context.Background(), "Stopping session manager", nil)
		close(sm.done)

		sm.mu.RLock()
		ids := make([]string, 0, len(sm.sessions))
		for id := range sm.sessions {
			ids = append(ids, id)
		}
		sm.mu.RUnlock()
		for _, id := range ids {
			sm.SessionDelete(id)
		}
	})
}

// cleanupInactiveSessions removes sessions idle for longer than the timeout
func (sm *SessionManager) cleanupInactiveSessions(now time.Time) {
	sm.mu.RLock()
	var expired []string
	for id, entry := range sm.sessions {
		if now.Sub(entry.session.LastActivity()) > sm.sessionTimeout {
			expired = append(expired, id)
		}
	}
	sm.mu.RUnlock()

	for _, id := range expired {
		sm.logger.Info(context.Background(), "Removing inactive session", log.Fields{"sessionID": id})
		sm.SessionDelete(id)
	}
}

// generateSessionID creates a cryptographically secure random session ID
func generateSessionID() (string, error) {
	b := make([]byte, sessionIDLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
