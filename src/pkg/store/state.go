package store

import (
	"fmt"
	"time"

	"entropy/local-app/src/pkg/model"
	"entropy/local-app/src/pkg/util"
)

// MaxHistory bounds the number of mindmap snapshots kept for undo.
const MaxHistory = 100

// State is everything the store owns. A State is never modified once a
// reduction has produced it: commands copy the records they touch.
type State struct {
	Mindmap      *model.Mindmap
	UI           model.UIState
	Pending      int
	History      []*model.Mindmap
	HistoryIndex int

	// copied is set once Mindmap has been copied in the running reduction.
	copied bool
}

// NewState returns the empty state a store starts from.
func NewState() State {
	return State{UI: model.DefaultUIState(), HistoryIndex: -1}
}

func (st *State) mindmap() (*model.Mindmap, error) {
	if st.Mindmap == nil {
		return nil, ErrNotInitialized
	}
	return st.Mindmap, nil
}

// edit returns a mindmap whose thread and sticky slices may be modified.
// Records inside them still alias the previous state until editThread or
// editSticky copies them.
func (st *State) edit() *model.Mindmap {
	if !st.copied {
		m := *st.Mindmap
		m.Threads = make([]model.Thread, len(st.Mindmap.Threads))
		copy(m.Threads, st.Mindmap.Threads)
		m.Stickies = make([]model.Sticky, len(st.Mindmap.Stickies))
		copy(m.Stickies, st.Mindmap.Stickies)
		st.Mindmap = &m
		st.copied = true
	}
	return st.Mindmap
}

func (st *State) editThread(id string) (*model.Thread, error) {
	if _, err := st.mindmap(); err != nil {
		return nil, err
	}
	i := threadIndex(st.Mindmap, id)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrThreadNotFound, id)
	}
	m := st.edit()
	m.Threads[i] = util.CopyThread(m.Threads[i])
	return &m.Threads[i], nil
}

func (st *State) editSticky(id string) (*model.Sticky, error) {
	if _, err := st.mindmap(); err != nil {
		return nil, err
	}
	i := stickyIndex(st.Mindmap, id)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrStickyNotFound, id)
	}
	m := st.edit()
	m.Stickies[i] = util.CopySticky(m.Stickies[i])
	return &m.Stickies[i], nil
}

// Thread looks up a thread by id.
func (st State) Thread(id string) (*model.Thread, bool) {
	if st.Mindmap == nil {
		return nil, false
	}
	if i := threadIndex(st.Mindmap, id); i >= 0 {
		return &st.Mindmap.Threads[i], true
	}
	return nil, false
}

// Sticky looks up a sticky by id.
func (st State) Sticky(id string) (*model.Sticky, bool) {
	if st.Mindmap == nil {
		return nil, false
	}
	if i := stickyIndex(st.Mindmap, id); i >= 0 {
		return &st.Mindmap.Stickies[i], true
	}
	return nil, false
}

// threadOfMessage finds the thread holding message msgID.
func (st State) threadOfMessage(msgID string) (*model.Thread, bool) {
	if st.Mindmap == nil {
		return nil, false
	}
	for i := range st.Mindmap.Threads {
		for _, msg := range st.Mindmap.Threads[i].Messages {
			if msg.ID == msgID {
				return &st.Mindmap.Threads[i], true
			}
		}
	}
	return nil, false
}

// record pushes the current mindmap onto the undo history, dropping any redo tail.
func (st *State) record() {
	h := st.History
	if st.HistoryIndex+1 < len(h) {
		h = h[:st.HistoryIndex+1]
	}
	h = append(h[:len(h):len(h)], st.Mindmap)
	if len(h) > MaxHistory {
		h = h[len(h)-MaxHistory:]
	}
	st.History = h
	st.HistoryIndex = len(h) - 1
}

func (st *State) resetHistory() {
	st.History = []*model.Mindmap{st.Mindmap}
	st.HistoryIndex = 0
}

func threadIndex(m *model.Mindmap, id string) int {
	for i := range m.Threads {
		if m.Threads[i].ID == id {
			return i
		}
	}
	return -1
}

func stickyIndex(m *model.Mindmap, id string) int {
	for i := range m.Stickies {
		if m.Stickies[i].ID == id {
			return i
		}
	}
	return -1
}

func hasMessage(t *model.Thread, id string) bool {
	for _, msg := range t.Messages {
		if msg.ID == id {
			return true
		}
	}
	return false
}

// nextTimestamp keeps timestamps inside one message list strictly increasing.
func nextTimestamp(msgs []model.Message, at time.Time) time.Time {
	if n := len(msgs); n > 0 && !at.After(msgs[n-1].Timestamp) {
		return msgs[n-1].Timestamp.Add(time.Nanosecond)
	}
	return at
}

func touch(m *model.Mindmap, at time.Time) {
	if at.After(m.UpdatedAt) {
		m.UpdatedAt = at
	}
}
