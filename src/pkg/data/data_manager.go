// Package data provides data management functionality for the Entropy application.
// It wires the mindmap store to persistence, search and preferences.
package data

import (
	"context"
	"errors"
	"fmt"
	"time"

	"entropy/local-app/src/pkg/embed"
	"entropy/local-app/src/pkg/event"
	"entropy/local-app/src/pkg/log"
	"entropy/local-app/src/pkg/model"
	"entropy/local-app/src/pkg/respond"
	"entropy/local-app/src/pkg/storage"
	"entropy/local-app/src/pkg/store"
)

// Stores groups the persistence interfaces the DataManager depends on.
type Stores struct {
	Mindmaps storage.MindmapStore
	Settings storage.SettingStore
}

// DataManager is the main struct that coordinates all data operations
type DataManager struct {
	Store          *store.Store
	MindmapManager *MindmapManager
	SearchManager  *SearchManager
	EventManager   *event.EventManager
	Config         *model.Config
	Logger         *log.Logger

	settings storage.SettingStore
}

// NewDataManager builds the store from cfg, restores the latest mindmap (or
// creates one) and subscribes persistence and search to store events.
// A nil responder selects one from the LLM configuration.
func NewDataManager(stores Stores, cfg *model.Config, responder respond.Responder, logger *log.Logger) (*DataManager, error) {
	ctx := context.Background()
	if stores.Mindmaps == nil || stores.Settings == nil {
		return nil, fmt.Errorf("stores not initialized")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config not initialized")
	}

	if responder == nil {
		responder = respond.New(cfg.LLM, respond.Keys{
			Anthropic: cfg.AnthropicAPIKey,
			OpenAI:    cfg.OpenAIAPIKey,
		}, millis(cfg.ResponseDelayMs), logger)
	}

	eventManager := event.NewEventManager(logger)
	st := store.NewStore(store.Options{
		Responder:       responder,
		StickyResponder: respond.NewRandomResponder(millis(cfg.StickyResponseDelayMs)),
		SystemPrompt:    cfg.LLM.SystemPrompt,
		MindmapName:     cfg.MindmapName,
		Events:          eventManager,
		Logger:          logger,
	})

	m := &DataManager{
		Store:        st,
		EventManager: eventManager,
		Config:       cfg,
		Logger:       logger,
		settings:     stores.Settings,
	}

	var err error
	m.MindmapManager, err = NewMindmapManager(stores.Mindmaps, st, millis(cfg.AutosaveDelayMs), logger)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to create MindmapManager: %w", err)
	}
	m.SearchManager = NewSearchManager(st, embed.NewIndex(embed.NewHashEmbedder(cfg.EmbeddingDim)), cfg.SimilarityThreshold, logger)

	eventManager.SubscribeMany(m.SearchManager.handleEvent,
		event.MindmapInitialized, event.MindmapLoaded, event.ThreadUpdated,
		event.StickyCreated, event.StickyUpdated, event.StickyDeleted)
	eventManager.SubscribeMany(m.MindmapManager.handleStructuralChange,
		event.MindmapInitialized, event.MindmapLoaded, event.ThreadCreated, event.ThreadUpdated,
		event.ActiveThreadChanged, event.StickyCreated, event.StickyUpdated, event.StickyDeleted)

	if err := m.restore(); err != nil {
		m.Close()
		return nil, err
	}

	if err := st.SetTheme(m.initialTheme()); err != nil {
		m.Close()
		return nil, fmt.Errorf("failed to apply theme: %w", err)
	}
	// Subscribed after the initial theme so only user changes are persisted.
	eventManager.Subscribe(event.ThemeChanged, m.handleThemeChanged)

	logger.Info(ctx, "DataManager created successfully", nil)
	return m, nil
}

// restore loads the most recent mindmap, or initializes a new one.
func (m *DataManager) restore() error {
	ctx := context.Background()
	latest, err := m.MindmapManager.mindmapStore.MindmapLatest()
	switch {
	case errors.Is(err, storage.ErrMindmapNotFound):
		m.Logger.Info(ctx, "No stored mindmap, initializing a new one", nil)
		if err := m.Store.Initialize(); err != nil {
			return fmt.Errorf("failed to initialize mindmap: %w", err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("failed to load latest mindmap: %w", err)
	}

	if err := model.CheckMindmap(latest); err != nil {
		m.Logger.Error(ctx, "Stored mindmap is invalid, initializing a new one", log.Fields{"mindmapID": latest.ID, "error": err})
		if err := m.Store.Initialize(); err != nil {
			return fmt.Errorf("failed to initialize mindmap: %w", err)
		}
		return nil
	}
	if err := m.Store.Load(latest); err != nil {
		return fmt.Errorf("failed to load mindmap %s: %w", latest.ID, err)
	}
	return nil
}

// initialTheme returns the stored theme preference, falling back to the
// configured system theme and then to light.
func (m *DataManager) initialTheme() model.Theme {
	value, ok, err := m.settings.SettingGet(model.ThemeSettingKey)
	if err != nil {
		m.Logger.Warn(context.Background(), "Failed to read theme preference", log.Fields{"error": err})
	}
	if theme := model.Theme(value); ok && theme.Valid() {
		return theme
	}
	if theme := model.Theme(m.Config.SystemTheme); theme.Valid() {
		return theme
	}
	return model.ThemeLight
}

// handleThemeChanged persists the theme currently held by the store.
func (m *DataManager) handleThemeChanged(e event.Event) {
	theme := m.Store.UI().Theme
	if err := m.settings.SettingSet(model.ThemeSettingKey, string(theme)); err != nil {
		m.Logger.Error(context.Background(), "Failed to persist theme", log.Fields{"theme": string(theme), "error": err})
	}
}

// Search returns the stickies most similar to query.
func (m *DataManager) Search(query string, limit int) ([]model.Context, error) {
	return m.SearchManager.Search(query, limit)
}

// Close writes pending changes and stops the store.
func (m *DataManager) Close() {
	m.MindmapManager.Close()
	m.Store.Close()
}

func millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
