package data

import (
	"context"

	"entropy/local-app/src/pkg/embed"
	"entropy/local-app/src/pkg/event"
	"entropy/local-app/src/pkg/log"
	"entropy/local-app/src/pkg/model"
	"entropy/local-app/src/pkg/store"
)

// SearchManager keeps the similarity index in step with the store.
type SearchManager struct {
	store     *store.Store
	index     *embed.Index
	threshold float64
	logger    *log.Logger
}

// NewSearchManager creates a SearchManager over index.
func NewSearchManager(st *store.Store, index *embed.Index, threshold float64, logger *log.Logger) *SearchManager {
	return &SearchManager{store: st, index: index, threshold: threshold, logger: logger}
}

func (sm *SearchManager) handleEvent(e event.Event) {
	switch e.Type {
	case event.MindmapInitialized, event.MindmapLoaded:
		sm.rebuild()
	case event.StickyCreated, event.StickyUpdated:
		id, _ := e.Data.(string)
		sm.upsert(id)
	case event.StickyDeleted:
		id, _ := e.Data.(string)
		sm.index.Remove(id)
	case event.ThreadUpdated:
		threadID, _ := e.Data.(string)
		sm.refreshThread(threadID)
	}
}

func (sm *SearchManager) rebuild() {
	snapshot, err := sm.store.Snapshot()
	if err != nil {
		sm.logger.Warn(context.Background(), "Failed to rebuild search index", log.Fields{"error": err})
		return
	}
	sm.index.Rebuild(snapshot)
	sm.logger.Debug(context.Background(), "Search index rebuilt", log.Fields{"documents": sm.index.Len()})
}

func (sm *SearchManager) upsert(stickyID string) {
	sticky, err := sm.store.Sticky(stickyID)
	if err != nil {
		// deleted before the event was handled
		return
	}
	var thread *model.Thread
	if t, err := sm.store.Thread(sticky.ThreadID); err == nil {
		thread = &t
	}
	sm.index.Upsert(sticky, thread)
}

// refreshThread re-indexes the stickies showing threadID.
func (sm *SearchManager) refreshThread(threadID string) {
	snapshot, err := sm.store.Snapshot()
	if err != nil {
		return
	}
	var thread *model.Thread
	for i := range snapshot.Threads {
		if snapshot.Threads[i].ID == threadID {
			thread = &snapshot.Threads[i]
			break
		}
	}
	for _, s := range snapshot.Stickies {
		if s.ThreadID == threadID {
			sm.index.Upsert(s, thread)
		}
	}
}

// Search returns up to limit stickies similar to query, each with the
// messages of its thread and the path of threads leading to it.
func (sm *SearchManager) Search(query string, limit int) ([]model.Context, error) {
	results := sm.index.Search(query, limit, sm.threshold)
	for i := range results {
		thread, err := sm.store.Thread(results[i].ThreadID)
		if err != nil {
			continue
		}
		results[i].RelevantMessages = thread.Messages
		path, err := sm.store.ThreadPath(thread.ID)
		if err != nil {
			continue
		}
		for _, t := range path {
			results[i].RelevantThreads = append(results[i].RelevantThreads, t.ID)
		}
	}
	sm.logger.Debug(context.Background(), "Search completed", log.Fields{"query": query, "results": len(results)})
	return results, nil
}
