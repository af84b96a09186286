// Package adapter connects user interfaces to sessions.
package adapter

import (
	"context"
	"fmt"
	"sync"

	"entropy/local-app/src/pkg/log"
	"entropy/local-app/src/pkg/model"
	"entropy/local-app/src/pkg/session"
)

// AdapterInstance represents an instance of an adapter
type AdapterInstance interface {
	// AdapterStart starts the adapter instance
	AdapterStart() error

	// AdapterStop terminates the adapter instance and its sessions
	AdapterStop() error

	// GetType returns the type of the adapter
	GetType() string
}

// AdapterFactory creates new instances of adapters
type AdapterFactory func(am *AdapterManager) (AdapterInstance, error)

// AdapterManager manages all adapter instances
type AdapterManager struct {
	factories      map[string]AdapterFactory
	factoriesMu    sync.RWMutex
	instances      sync.Map // map[string]AdapterInstance
	sessionManager *session.SessionManager
	logger         *log.Logger
}

// NewAdapterManager creates a new AdapterManager
func NewAdapterManager(sm *session.SessionManager, logger *log.Logger) *AdapterManager {
	return &AdapterManager{
		factories:      make(map[string]AdapterFactory),
		sessionManager: sm,
		logger:         logger,
	}
}

// AdapterRegister makes an adapter type available to AdapterAdd
func (am *AdapterManager) AdapterRegister(adapterType string, factory AdapterFactory) {
	am.factoriesMu.Lock()
	am.factories[adapterType] = factory
	am.factoriesMu.Unlock()
}

// AdapterAdd creates and stores an adapter instance of the given type
func (am *AdapterManager) AdapterAdd(adapterType string) (AdapterInstance, error) {
	am.factoriesMu.RLock()
	factory, ok := am.factories[adapterType]
	am.factoriesMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown adapter type: %s", adapterType)
	}

	instance, err := factory(am)
	if err != nil {
		return nil, err
	}
	if _, loaded := am.instances.LoadOrStore(adapterType, instance); loaded {
		return nil, fmt.Errorf("adapter already running: %s", adapterType)
	}
	am.logger.Info(context.Background(), "Adapter added", log.Fields{"type": adapterType})
	return instance, nil
}

// SessionAdd opens a session for an adapter connection
func (am *AdapterManager) SessionAdd(opts ...session.Option) (string, error) {
	return am.sessionManager.SessionAdd(opts...)
}

// SessionGet returns an open session
func (am *AdapterManager) SessionGet(sessionID string) (*session.Session, bool) {
	return am.sessionManager.SessionGet(sessionID)
}

// SessionList summarises every open session
func (am *AdapterManager) SessionList() []model.SessionInfo {
	return am.sessionManager.SessionList()
}

// SessionDelete closes a session
func (am *AdapterManager) SessionDelete(sessionID string) bool {
	return am.sessionManager.SessionDelete(sessionID)
}

// CommandRun runs a command in a session
func (am *AdapterManager) CommandRun(ctx context.Context, sessionID string, cmd model.Command) (interface{}, error) {
	return am.sessionManager.SessionRun(ctx, sessionID, cmd)
}

// Shutdown stops all adapter instances
func (am *AdapterManager) Shutdown() {
	am.instances.Range(func(key, value interface{}) bool {
		instance := value.(AdapterInstance)
		if err := instance.AdapterStop(); err != nil {
			am.logger.Error(context.Background(), "Failed to stop adapter", log.Fields{"type": key, "error": err})
		}
		am.instances.Delete(key)
		return true
	})
}
