package store

import (
	"fmt"
	"math"
	"strings"
	"time"

	"entropy/local-app/src/pkg/event"
	"entropy/local-app/src/pkg/model"
	"entropy/local-app/src/pkg/util"
)

// Command is a state transition. Ids and timestamps are chosen by the caller
// so that applying a command is deterministic.
type Command interface {
	apply(st *State) ([]event.Event, error)
}

// historyCommand marks commands that manage the undo history themselves.
type historyCommand interface {
	managesHistory()
}

// StickyConfig describes a sticky to create. Zero values select the defaults:
// title of the linked thread, default colour and size, a new empty thread.
type StickyConfig struct {
	Title      string
	Content    string
	Position   *model.Position
	Size       *model.Size
	ThreadID   string
	Color      string
	StackID    string
	StackIndex *int
}

// Batch applies several commands as one. Either all succeed or none.
type Batch []Command

func (b Batch) apply(st *State) ([]event.Event, error) {
	var events []event.Event
	for _, cmd := range b {
		evs, err := cmd.apply(st)
		if err != nil {
			return nil, err
		}
		events = append(events, evs...)
	}
	return events, nil
}

// Initialize creates the mindmap with its main thread unless one exists.
type Initialize struct {
	MindmapID string
	ThreadID  string
	Name      string
	At        time.Time
}

func (Initialize) managesHistory() {}

func (c Initialize) apply(st *State) ([]event.Event, error) {
	if st.Mindmap != nil {
		return nil, nil
	}
	name := c.Name
	if name == "" {
		name = model.DefaultMindmapName
	}
	main := model.Thread{
		ID:           c.ThreadID,
		Title:        model.MainThreadTitle,
		Messages:     []model.Message{},
		IsMainThread: true,
		CreatedAt:    c.At,
		UpdatedAt:    c.At,
	}
	st.Mindmap = &model.Mindmap{
		ID:             c.MindmapID,
		Name:           name,
		ActiveThreadID: main.ID,
		MainThreadID:   main.ID,
		Threads:        []model.Thread{main},
		Stickies:       []model.Sticky{},
		CreatedAt:      c.At,
		UpdatedAt:      c.At,
	}
	st.resetHistory()
	return []event.Event{{Type: event.MindmapInitialized, Data: c.MindmapID}}, nil
}

// LoadMindmap replaces the mindmap, for example with one read from storage.
type LoadMindmap struct {
	Mindmap *model.Mindmap
}

func (LoadMindmap) managesHistory() {}

func (c LoadMindmap) apply(st *State) ([]event.Event, error) {
	if err := model.CheckMindmap(c.Mindmap); err != nil {
		return nil, err
	}
	m := util.CopyMindmap(c.Mindmap)
	if m.Stickies == nil {
		m.Stickies = []model.Sticky{}
	}
	for i := range m.Threads {
		if m.Threads[i].Messages == nil {
			m.Threads[i].Messages = []model.Message{}
		}
	}
	st.Mindmap = m
	st.UI.SelectedStickyID = ""
	st.resetHistory()
	return []event.Event{{Type: event.MindmapLoaded, Data: m.ID}}, nil
}

// CreateThread appends a non-main thread.
type CreateThread struct {
	ThreadID       string
	Title          string
	ParentThreadID string
	BranchPoint    string
	At             time.Time
}

func (c CreateThread) apply(st *State) ([]event.Event, error) {
	if _, err := st.mindmap(); err != nil {
		return nil, err
	}
	if c.ParentThreadID != "" {
		parent, ok := st.Thread(c.ParentThreadID)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrThreadNotFound, c.ParentThreadID)
		}
		if c.BranchPoint != "" && !hasMessage(parent, c.BranchPoint) {
			return nil, fmt.Errorf("%w: %s in thread %s", ErrMessageNotFound, c.BranchPoint, c.ParentThreadID)
		}
	}
	m := st.edit()
	m.Threads = append(m.Threads, model.Thread{
		ID:             c.ThreadID,
		Title:          c.Title,
		Messages:       []model.Message{},
		ParentThreadID: c.ParentThreadID,
		BranchPoint:    c.BranchPoint,
		CreatedAt:      c.At,
		UpdatedAt:      c.At,
	})
	touch(m, c.At)
	return []event.Event{{Type: event.ThreadCreated, Data: c.ThreadID}}, nil
}

// AppendMessage adds a message to a thread. An empty ThreadID targets the active thread.
type AppendMessage struct {
	ThreadID string
	Message  model.Message
}

func (c AppendMessage) apply(st *State) ([]event.Event, error) {
	m, err := st.mindmap()
	if err != nil {
		return nil, err
	}
	target := c.ThreadID
	if target == "" {
		target = m.ActiveThreadID
	}
	thread, err := st.editThread(target)
	if err != nil {
		return nil, err
	}
	msg := c.Message
	msg.Timestamp = nextTimestamp(thread.Messages, msg.Timestamp)
	if err := model.Validate(&msg); err != nil {
		return nil, err
	}
	thread.Messages = append(thread.Messages, msg)
	thread.UpdatedAt = msg.Timestamp
	touch(st.Mindmap, msg.Timestamp)
	return []event.Event{{Type: event.ThreadUpdated, Data: target}}, nil
}

// BeginProcessing marks one more reply as in flight.
type BeginProcessing struct{}

func (BeginProcessing) apply(st *State) ([]event.Event, error) {
	st.Pending++
	return nil, nil
}

// EndProcessing marks a reply as finished, recording Err when it failed.
type EndProcessing struct {
	Err string
}

func (c EndProcessing) apply(st *State) ([]event.Event, error) {
	if st.Pending > 0 {
		st.Pending--
	}
	if c.Err != "" {
		st.UI.Error = c.Err
	}
	return nil, nil
}

// CreateBranch spawns a thread from selected text, seeds it with the user's
// question and places a sticky for it.
type CreateBranch struct {
	Request   model.BranchRequest
	ThreadID  string
	MessageID string
	StickyID  string
	At        time.Time
}

func (c CreateBranch) apply(st *State) ([]event.Event, error) {
	if _, err := st.mindmap(); err != nil {
		return nil, err
	}
	req := c.Request
	if err := checkPosition(&req.Position); err != nil {
		return nil, err
	}
	source, ok := st.Thread(req.SourceThreadID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrThreadNotFound, req.SourceThreadID)
	}
	if !hasMessage(source, req.SourceMessageID) {
		return nil, fmt.Errorf("%w: %s in thread %s", ErrMessageNotFound, req.SourceMessageID, req.SourceThreadID)
	}

	title := util.TruncateText(strings.TrimSpace(req.SelectedText), 50)
	if title == "" {
		title = "Branch"
	}
	events, err := CreateThread{
		ThreadID:       c.ThreadID,
		Title:          title,
		ParentThreadID: req.SourceThreadID,
		BranchPoint:    req.SourceMessageID,
		At:             c.At,
	}.apply(st)
	if err != nil {
		return nil, err
	}

	query := strings.TrimSpace(req.NewQuery)
	if query == "" {
		query = fmt.Sprintf("Tell me more about: %s", req.SelectedText)
	}
	seeded, err := AppendMessage{ThreadID: c.ThreadID, Message: model.Message{
		ID:              c.MessageID,
		Role:            model.RoleUser,
		Content:         query,
		Timestamp:       c.At,
		SelectedText:    req.SelectedText,
		ParentMessageID: req.SourceMessageID,
	}}.apply(st)
	if err != nil {
		return nil, err
	}
	events = append(events, seeded...)

	pos := req.Position
	created, err := AddSticky{
		StickyID: c.StickyID,
		Config: StickyConfig{
			Title:    title,
			Content:  req.SelectedText,
			Position: &pos,
			ThreadID: c.ThreadID,
		},
		At: c.At,
	}.apply(st)
	if err != nil {
		return nil, err
	}
	return append(events, created...), nil
}

// SwitchThread activates a thread. Stickies of other threads are minimised and
// the stickies of the new thread are restored.
type SwitchThread struct {
	ThreadID string
	At       time.Time
}

func (c SwitchThread) apply(st *State) ([]event.Event, error) {
	if _, err := st.mindmap(); err != nil {
		return nil, err
	}
	if _, ok := st.Thread(c.ThreadID); !ok {
		return nil, fmt.Errorf("%w: %s", ErrThreadNotFound, c.ThreadID)
	}
	m := st.edit()
	m.ActiveThreadID = c.ThreadID
	for i := range m.Stickies {
		m.Stickies[i].IsMinimized = m.Stickies[i].ThreadID != c.ThreadID
	}
	touch(m, c.At)
	return []event.Event{{Type: event.ActiveThreadChanged, Data: c.ThreadID}}, nil
}

// RenameThread changes a thread's title.
type RenameThread struct {
	ThreadID string
	Title    string
	At       time.Time
}

func (c RenameThread) apply(st *State) ([]event.Event, error) {
	title := strings.TrimSpace(c.Title)
	if title == "" {
		return nil, ErrEmptyTitle
	}
	thread, err := st.editThread(c.ThreadID)
	if err != nil {
		return nil, err
	}
	thread.Title = title
	thread.UpdatedAt = c.At
	touch(st.Mindmap, c.At)
	return []event.Event{{Type: event.ThreadUpdated, Data: c.ThreadID}}, nil
}

// AddSticky creates a sticky from a configuration. Without Config.ThreadID a
// new empty thread with id NewThreadID is created for it.
type AddSticky struct {
	StickyID    string
	NewThreadID string
	Config      StickyConfig
	At          time.Time
}

func (c AddSticky) apply(st *State) ([]event.Event, error) {
	if _, err := st.mindmap(); err != nil {
		return nil, err
	}
	cfg := c.Config
	var events []event.Event
	if cfg.ThreadID == "" {
		title := strings.TrimSpace(cfg.Title)
		if title == "" {
			title = "New Sticky"
		}
		created, err := CreateThread{ThreadID: c.NewThreadID, Title: title, At: c.At}.apply(st)
		if err != nil {
			return nil, err
		}
		events = append(events, created...)
		cfg.ThreadID = c.NewThreadID
	}
	thread, ok := st.Thread(cfg.ThreadID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrThreadNotFound, cfg.ThreadID)
	}

	sticky := model.Sticky{
		ID:          c.StickyID,
		ThreadID:    cfg.ThreadID,
		Position:    model.Position{X: 100, Y: 100},
		Size:        model.Size{Width: model.DefaultStickyWidth, Height: model.DefaultStickyHeight},
		Title:       cfg.Title,
		Content:     cfg.Content,
		Color:       cfg.Color,
		ChatHistory: []model.Message{},
		StackID:     cfg.StackID,
		ZIndex:      model.DefaultZIndex + len(st.Mindmap.Stickies),
		CreatedAt:   c.At,
		UpdatedAt:   c.At,
	}
	if sticky.Title == "" {
		sticky.Title = thread.Title
	}
	if sticky.Color == "" {
		sticky.Color = model.DefaultStickyColor
	}
	if err := checkGeometry(cfg.Position, cfg.Size); err != nil {
		return nil, err
	}
	if cfg.Position != nil {
		sticky.Position = *cfg.Position
	}
	if cfg.Size != nil {
		sticky.Size = *cfg.Size
	}
	if cfg.StackIndex != nil {
		idx := *cfg.StackIndex
		sticky.StackIndex = &idx
	}
	if n := len(thread.Messages); n > 0 {
		sticky.PreviewText = util.TruncateText(thread.Messages[n-1].Content, 100)
	}

	m := st.edit()
	m.Stickies = append(m.Stickies, sticky)
	touch(m, c.At)
	return append(events, event.Event{Type: event.StickyCreated, Data: c.StickyID}), nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func checkPosition(p *model.Position) error {
	if p != nil && !(finite(p.X) && finite(p.Y)) {
		return ErrInvalidPosition
	}
	return nil
}

// checkGeometry rejects values that cannot be stored or encoded as JSON
func checkGeometry(p *model.Position, sz *model.Size) error {
	if err := checkPosition(p); err != nil {
		return err
	}
	if sz != nil && !(finite(sz.Width) && finite(sz.Height) && sz.Width >= 0 && sz.Height >= 0) {
		return ErrInvalidSize
	}
	return nil
}

// UpdateSticky merges the non-nil fields of Update into a sticky.
type UpdateSticky struct {
	StickyID string
	Update   model.StickyUpdate
	At       time.Time
}

func (c UpdateSticky) apply(st *State) ([]event.Event, error) {
	u := c.Update
	if err := checkGeometry(u.Position, u.Size); err != nil {
		return nil, err
	}
	s, err := st.editSticky(c.StickyID)
	if err != nil {
		return nil, err
	}
	if u.Title != nil {
		s.Title = *u.Title
	}
	if u.Content != nil {
		s.Content = *u.Content
	}
	if u.Color != nil {
		s.Color = *u.Color
	}
	if u.Position != nil {
		s.Position = *u.Position
	}
	if u.Size != nil {
		s.Size = *u.Size
	}
	if u.IsMinimized != nil {
		s.IsMinimized = *u.IsMinimized
	}
	if u.IsExpanded != nil {
		s.IsExpanded = *u.IsExpanded
	}
	if u.ZIndex != nil {
		s.ZIndex = *u.ZIndex
	}
	if u.PreviewText != nil {
		s.PreviewText = *u.PreviewText
	}
	s.UpdatedAt = c.At
	touch(st.Mindmap, c.At)
	return []event.Event{{Type: event.StickyUpdated, Data: c.StickyID}}, nil
}

// StackStickies puts the child on top of the parent's stack. A parent without
// a stack starts NewStackID at index 0. The child takes the parent's position.
type StackStickies struct {
	ParentID   string
	ChildID    string
	NewStackID string
	At         time.Time
}

func (c StackStickies) apply(st *State) ([]event.Event, error) {
	if c.ParentID == c.ChildID {
		return nil, ErrInvalidStack
	}
	if _, err := st.mindmap(); err != nil {
		return nil, err
	}
	if _, ok := st.Sticky(c.ChildID); !ok {
		return nil, fmt.Errorf("%w: %s", ErrStickyNotFound, c.ChildID)
	}
	parent, err := st.editSticky(c.ParentID)
	if err != nil {
		return nil, err
	}
	events := []event.Event{{Type: event.StickyUpdated, Data: c.ChildID}}
	if parent.StackID == "" {
		parent.StackID = c.NewStackID
		zero := 0
		parent.StackIndex = &zero
		parent.UpdatedAt = c.At
		events = append(events, event.Event{Type: event.StickyUpdated, Data: c.ParentID})
	}
	index := 0
	if parent.StackIndex != nil {
		index = *parent.StackIndex
	}
	stackID, pos := parent.StackID, parent.Position

	child, err := st.editSticky(c.ChildID)
	if err != nil {
		return nil, err
	}
	child.StackID = stackID
	next := index + 1
	child.StackIndex = &next
	child.Position = pos
	child.UpdatedAt = c.At
	touch(st.Mindmap, c.At)
	return events, nil
}

// RemoveSticky deletes a sticky. Its thread is kept.
type RemoveSticky struct {
	StickyID string
	At       time.Time
}

func (c RemoveSticky) apply(st *State) ([]event.Event, error) {
	if _, err := st.mindmap(); err != nil {
		return nil, err
	}
	i := stickyIndex(st.Mindmap, c.StickyID)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrStickyNotFound, c.StickyID)
	}
	m := st.edit()
	m.Stickies = append(m.Stickies[:i], m.Stickies[i+1:]...)
	touch(m, c.At)
	if st.UI.SelectedStickyID == c.StickyID {
		st.UI.SelectedStickyID = ""
	}
	return []event.Event{{Type: event.StickyDeleted, Data: c.StickyID}}, nil
}

// AppendStickyMessage adds a message to a sticky's own chat history.
type AppendStickyMessage struct {
	StickyID string
	Message  model.Message
}

func (c AppendStickyMessage) apply(st *State) ([]event.Event, error) {
	s, err := st.editSticky(c.StickyID)
	if err != nil {
		return nil, err
	}
	msg := c.Message
	msg.Timestamp = nextTimestamp(s.ChatHistory, msg.Timestamp)
	if err := model.Validate(&msg); err != nil {
		return nil, err
	}
	s.ChatHistory = append(s.ChatHistory, msg)
	s.UpdatedAt = msg.Timestamp
	touch(st.Mindmap, msg.Timestamp)
	return []event.Event{{Type: event.StickyUpdated, Data: c.StickyID}}, nil
}

// Undo restores the previous mindmap snapshot.
type Undo struct{}

func (Undo) managesHistory() {}

func (Undo) apply(st *State) ([]event.Event, error) {
	if st.Mindmap == nil {
		return nil, ErrNotInitialized
	}
	if st.HistoryIndex <= 0 {
		return nil, ErrNothingToUndo
	}
	st.HistoryIndex--
	return st.restore(), nil
}

// Redo re-applies the snapshot undone last.
type Redo struct{}

func (Redo) managesHistory() {}

func (Redo) apply(st *State) ([]event.Event, error) {
	if st.Mindmap == nil {
		return nil, ErrNotInitialized
	}
	if st.HistoryIndex >= len(st.History)-1 {
		return nil, ErrNothingToRedo
	}
	st.HistoryIndex++
	return st.restore(), nil
}

func (st *State) restore() []event.Event {
	st.Mindmap = st.History[st.HistoryIndex]
	if _, ok := st.Sticky(st.UI.SelectedStickyID); !ok {
		st.UI.SelectedStickyID = ""
	}
	return []event.Event{{Type: event.MindmapLoaded, Data: st.Mindmap.ID}}
}

// SetView switches the main panel.
type SetView struct {
	View model.View
}

func (c SetView) apply(st *State) ([]event.Event, error) {
	if !c.View.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidView, c.View)
	}
	st.UI.ActiveView = c.View
	return []event.Event{{Type: event.ViewChanged, Data: c.View}}, nil
}

// SetTheme changes the colour scheme.
type SetTheme struct {
	Theme model.Theme
}

func (c SetTheme) apply(st *State) ([]event.Event, error) {
	if !c.Theme.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTheme, c.Theme)
	}
	st.UI.Theme = c.Theme
	return []event.Event{{Type: event.ThemeChanged, Data: c.Theme}}, nil
}

// ToggleTheme flips between light and dark.
type ToggleTheme struct{}

func (ToggleTheme) apply(st *State) ([]event.Event, error) {
	return SetTheme{Theme: st.UI.Theme.Toggle()}.apply(st)
}

// SetSelectedText records the text highlighted by the user.
type SetSelectedText struct {
	Text string
}

func (c SetSelectedText) apply(st *State) ([]event.Event, error) {
	st.UI.SelectedText = c.Text
	return nil, nil
}

// SelectSticky focuses a sticky. An empty id clears the selection.
type SelectSticky struct {
	StickyID string
}

func (c SelectSticky) apply(st *State) ([]event.Event, error) {
	if c.StickyID != "" {
		if _, err := st.mindmap(); err != nil {
			return nil, err
		}
		if _, ok := st.Sticky(c.StickyID); !ok {
			return nil, fmt.Errorf("%w: %s", ErrStickyNotFound, c.StickyID)
		}
	}
	st.UI.SelectedStickyID = c.StickyID
	return nil, nil
}

// SetError records an error message for display. An empty message clears it.
type SetError struct {
	Err string
}

func (c SetError) apply(st *State) ([]event.Event, error) {
	st.UI.Error = c.Err
	return nil, nil
}
