// Package data provides data management functionality for the Entropy application.
// This file contains operations related to mindmap persistence.
package data

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"entropy/local-app/src/pkg/event"
	"entropy/local-app/src/pkg/log"
	"entropy/local-app/src/pkg/model"
	"entropy/local-app/src/pkg/storage"
	"entropy/local-app/src/pkg/store"
	"entropy/local-app/src/pkg/util"
)

// ErrMindmapOpen is returned when deleting the mindmap currently in the store.
var ErrMindmapOpen = errors.New("mindmap is open")

// MindmapOperations defines the interface for mindmap persistence operations
type MindmapOperations interface {
	MindmapSave() error
	MindmapOpen(id string) error
	MindmapList() ([]model.MindmapInfo, error)
	MindmapDelete(id string) error
	MindmapExport(filename, format string) error
	MindmapImport(filename, format string) (*model.Mindmap, error)
}

// MindmapManager persists the mindmap held by the store and saves it
// automatically after structural changes settle.
type MindmapManager struct {
	mindmapStore storage.MindmapStore
	store        *store.Store
	logger       *log.Logger
	autosave     *util.Debouncer

	// saveMu keeps snapshot-and-write pairs in order.
	saveMu sync.Mutex
	mu     sync.Mutex
	closed bool
}

// NewMindmapManager creates a MindmapManager saving at most once per autosaveDelay.
func NewMindmapManager(mindmapStore storage.MindmapStore, st *store.Store, autosaveDelay time.Duration, logger *log.Logger) (*MindmapManager, error) {
	ctx := context.Background()
	logger.Info(ctx, "Creating new MindmapManager", nil)

	if mindmapStore == nil {
		logger.Error(ctx, "MindmapStore not initialized", nil)
		return nil, fmt.Errorf("mindmapStore not initialized")
	}
	if st == nil {
		logger.Error(ctx, "Store not initialized", nil)
		return nil, fmt.Errorf("store not initialized")
	}

	mm := &MindmapManager{
		mindmapStore: mindmapStore,
		store:        st,
		logger:       logger,
	}
	mm.autosave = util.Debounce(mm.autosaveRun, autosaveDelay)
	return mm, nil
}

// handleStructuralChange schedules an autosave.
func (mm *MindmapManager) handleStructuralChange(e event.Event) {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	if mm.closed {
		return
	}
	mm.logger.Debug(context.Background(), "Scheduling autosave", log.Fields{"event": e.Type.String()})
	mm.autosave.Trigger()
}

func (mm *MindmapManager) autosaveRun() {
	if err := mm.MindmapSave(); err != nil && !errors.Is(err, store.ErrNotInitialized) {
		mm.logger.Error(context.Background(), "Autosave failed", log.Fields{"error": err})
	}
}

// MindmapSave writes the current mindmap to storage.
func (mm *MindmapManager) MindmapSave() error {
	mm.saveMu.Lock()
	defer mm.saveMu.Unlock()

	snapshot, err := mm.store.Snapshot()
	if err != nil {
		return err
	}
	if err := mm.mindmapStore.MindmapSave(snapshot); err != nil {
		return fmt.Errorf("failed to save mindmap: %w", err)
	}
	mm.logger.Info(context.Background(), "Mindmap saved", log.Fields{"mindmapID": snapshot.ID})
	return nil
}

// MindmapOpen saves the current mindmap and loads a stored one in its place.
func (mm *MindmapManager) MindmapOpen(id string) error {
	loaded, err := mm.mindmapStore.MindmapLoad(id)
	if err != nil {
		return fmt.Errorf("failed to load mindmap: %w", err)
	}
	if err := model.CheckMindmap(loaded); err != nil {
		return err
	}
	if err := mm.MindmapSave(); err != nil && !errors.Is(err, store.ErrNotInitialized) {
		return err
	}
	if err := mm.store.Load(loaded); err != nil {
		return fmt.Errorf("failed to open mindmap: %w", err)
	}
	mm.logger.Info(context.Background(), "Mindmap opened", log.Fields{"mindmapID": id})
	return nil
}

// MindmapList returns the stored mindmaps, most recent first.
func (mm *MindmapManager) MindmapList() ([]model.MindmapInfo, error) {
	infos, err := mm.mindmapStore.MindmapList()
	if err != nil {
		return nil, fmt.Errorf("failed to list mindmaps: %w", err)
	}
	return infos, nil
}

// MindmapDelete removes a stored mindmap other than the open one.
func (mm *MindmapManager) MindmapDelete(id string) error {
	if current, err := mm.store.Snapshot(); err == nil && current.ID == id {
		return fmt.Errorf("%w: %s", ErrMindmapOpen, id)
	}
	if err := mm.mindmapStore.MindmapDelete(id); err != nil {
		return fmt.Errorf("failed to delete mindmap: %w", err)
	}
	mm.logger.Info(context.Background(), "Mindmap deleted", log.Fields{"mindmapID": id})
	return nil
}

// MindmapExport exports the current mindmap to a file. An empty format is
// derived from the file extension.
func (mm *MindmapManager) MindmapExport(filename, format string) error {
	if format == "" {
		format = storage.FormatFromPath(filename)
	}
	snapshot, err := mm.store.Snapshot()
	if err != nil {
		return err
	}
	if err := storage.FileExport(snapshot, filename, format); err != nil {
		return fmt.Errorf("failed to export mindmap: %w", err)
	}
	mm.logger.Info(context.Background(), "Mindmap exported", log.Fields{"mindmapID": snapshot.ID, "file": filename, "format": format})
	return nil
}

// MindmapImport reads a mindmap from a file, makes it the current one and stores it.
func (mm *MindmapManager) MindmapImport(filename, format string) (*model.Mindmap, error) {
	if format == "" {
		format = storage.FormatFromPath(filename)
	}
	imported, err := storage.FileImport(filename, format)
	if err != nil {
		return nil, fmt.Errorf("failed to import mindmap: %w", err)
	}
	if err := mm.MindmapSave(); err != nil && !errors.Is(err, store.ErrNotInitialized) {
		return nil, err
	}
	if err := mm.store.Load(imported); err != nil {
		return nil, fmt.Errorf("failed to load imported mindmap: %w", err)
	}
	if err := mm.MindmapSave(); err != nil {
		return nil, err
	}
	mm.logger.Info(context.Background(), "Mindmap imported", log.Fields{"mindmapID": imported.ID, "file": filename, "format": format})
	return imported, nil
}

// Close stops scheduling autosaves and writes the mindmap one last time.
func (mm *MindmapManager) Close() {
	mm.mu.Lock()
	mm.closed = true
	mm.mu.Unlock()
	mm.autosave.Stop()
	mm.autosaveRun()
}
