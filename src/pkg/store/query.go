package store

import (
	"fmt"

	"entropy/local-app/src/pkg/model"
	"entropy/local-app/src/pkg/util"
)

// Snapshot returns a deep copy of the mindmap.
func (s *Store) Snapshot() (*model.Mindmap, error) {
	var m *model.Mindmap
	err := s.read(func(st State) error {
		if st.Mindmap == nil {
			return ErrNotInitialized
		}
		m = util.CopyMindmap(st.Mindmap)
		return nil
	})
	return m, err
}

// UI returns the current UI state.
func (s *Store) UI() model.UIState {
	var ui model.UIState
	_ = s.read(func(st State) error {
		ui = st.UI
		return nil
	})
	return ui
}

// Threads returns copies of all threads in creation order.
func (s *Store) Threads() ([]model.Thread, error) {
	var threads []model.Thread
	err := s.read(func(st State) error {
		if st.Mindmap == nil {
			return ErrNotInitialized
		}
		threads = make([]model.Thread, len(st.Mindmap.Threads))
		for i, t := range st.Mindmap.Threads {
			threads[i] = util.CopyThread(t)
		}
		return nil
	})
	return threads, err
}

// Thread returns a copy of one thread.
func (s *Store) Thread(id string) (model.Thread, error) {
	var thread model.Thread
	err := s.read(func(st State) error {
		if st.Mindmap == nil {
			return ErrNotInitialized
		}
		t, ok := st.Thread(id)
		if !ok {
			return fmt.Errorf("%w: %s", ErrThreadNotFound, id)
		}
		thread = util.CopyThread(*t)
		return nil
	})
	return thread, err
}

// ActiveThread returns a copy of the active thread.
func (s *Store) ActiveThread() (model.Thread, error) {
	var thread model.Thread
	err := s.read(func(st State) error {
		if st.Mindmap == nil {
			return ErrNotInitialized
		}
		t, ok := st.Thread(st.Mindmap.ActiveThreadID)
		if !ok {
			return fmt.Errorf("%w: %s", ErrThreadNotFound, st.Mindmap.ActiveThreadID)
		}
		thread = util.CopyThread(*t)
		return nil
	})
	return thread, err
}

// Sticky returns a copy of one sticky.
func (s *Store) Sticky(id string) (model.Sticky, error) {
	var sticky model.Sticky
	err := s.read(func(st State) error {
		if st.Mindmap == nil {
			return ErrNotInitialized
		}
		found, ok := st.Sticky(id)
		if !ok {
			return fmt.Errorf("%w: %s", ErrStickyNotFound, id)
		}
		sticky = util.CopySticky(*found)
		return nil
	})
	return sticky, err
}

// ThreadPath returns the chain of threads from the main thread down to id.
func (s *Store) ThreadPath(id string) ([]model.Thread, error) {
	var path []model.Thread
	err := s.read(func(st State) error {
		if st.Mindmap == nil {
			return ErrNotInitialized
		}
		seen := make(map[string]bool)
		for cur := id; cur != "" && !seen[cur]; {
			seen[cur] = true
			t, ok := st.Thread(cur)
			if !ok {
				return fmt.Errorf("%w: %s", ErrThreadNotFound, cur)
			}
			path = append([]model.Thread{util.CopyThread(*t)}, path...)
			cur = t.ParentThreadID
		}
		return nil
	})
	return path, err
}

// HistoryDepth reports how many undo and redo steps are available.
func (s *Store) HistoryDepth() (undo, redo int) {
	_ = s.read(func(st State) error {
		if st.HistoryIndex > 0 {
			undo = st.HistoryIndex
		}
		redo = len(st.History) - 1 - st.HistoryIndex
		if redo < 0 {
			redo = 0
		}
		return nil
	})
	return undo, redo
}
