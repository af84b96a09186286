package store

import (
	"context"
	"fmt"
	"strings"

	"entropy/local-app/src/pkg/model"
	"entropy/local-app/src/pkg/respond"
	"entropy/local-app/src/pkg/util"
)

// Initialize creates the mindmap with one main thread. It does nothing when a
// mindmap already exists.
func (s *Store) Initialize() error {
	return s.dispatch(context.Background(), Initialize{
		MindmapID: util.GenerateID(util.PrefixMindmap),
		ThreadID:  util.GenerateID(util.PrefixThread),
		Name:      s.mindmapName,
		At:        s.now(),
	}, nil)
}

// Load replaces the current mindmap and clears the undo history.
func (s *Store) Load(m *model.Mindmap) error {
	return s.dispatch(context.Background(), LoadMindmap{Mindmap: m}, nil)
}

// CreateThread appends a new thread. A non-empty initialMessage is sent to it.
func (s *Store) CreateThread(ctx context.Context, title, initialMessage string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = "New Thread"
	}
	id := util.GenerateID(util.PrefixThread)
	if err := s.dispatch(ctx, CreateThread{ThreadID: id, Title: title, At: s.now()}, nil); err != nil {
		return "", err
	}
	if strings.TrimSpace(initialMessage) != "" {
		if err := s.send(ctx, id, initialMessage); err != nil {
			return id, err
		}
	}
	return id, nil
}

// SendMessage appends content to the active thread and then the assistant's
// reply to that same thread, even if another thread is activated meanwhile.
func (s *Store) SendMessage(ctx context.Context, content string) error {
	if strings.TrimSpace(content) == "" {
		return ErrEmptyMessage
	}
	return s.send(ctx, "", content)
}

func (s *Store) send(ctx context.Context, threadID, content string) error {
	msg := s.message(model.RoleUser, content)
	var (
		target  string
		history []model.Message
	)
	err := s.dispatch(ctx, Batch{AppendMessage{ThreadID: threadID, Message: msg}, BeginProcessing{}}, func(st State) {
		if t, ok := st.threadOfMessage(msg.ID); ok {
			target = t.ID
			history = util.CopyMessages(t.Messages)
		}
	})
	if err != nil {
		s.recordError(err)
		return err
	}
	return s.reply(ctx, target, history)
}

// reply generates the assistant message for threadID. Processing is always
// cleared at the end, with the error recorded on failure.
func (s *Store) reply(ctx context.Context, threadID string, history []model.Message) error {
	text, err := s.responder.Respond(ctx, respond.Request{History: history, SystemPrompt: s.systemPrompt})

	final := context.WithoutCancel(ctx)
	if err == nil {
		err = s.dispatch(final, AppendMessage{ThreadID: threadID, Message: s.message(model.RoleAssistant, text)}, nil)
	}

	end := EndProcessing{}
	if err != nil {
		err = fmt.Errorf("reply to thread %s: %w", threadID, err)
		end.Err = err.Error()
	}
	if endErr := s.dispatch(final, end, nil); endErr != nil && err == nil {
		err = endErr
	}
	return err
}

// CreateBranchFromSelection creates a branch thread with its sticky and then
// generates the assistant's first reply in it. When the source thread or
// message does not exist nothing is changed.
func (s *Store) CreateBranchFromSelection(ctx context.Context, req model.BranchRequest) (string, error) {
	cmd := s.branchCommand(req)
	var history []model.Message
	err := s.dispatch(ctx, Batch{cmd, BeginProcessing{}}, func(st State) {
		if t, ok := st.Thread(cmd.ThreadID); ok {
			history = util.CopyMessages(t.Messages)
		}
	})
	if err != nil {
		s.recordError(err)
		return "", err
	}
	return cmd.ThreadID, s.reply(ctx, cmd.ThreadID, history)
}

// CreateBranch creates the branch thread and its sticky without asking for a reply.
func (s *Store) CreateBranch(req model.BranchRequest) (threadID, stickyID string, err error) {
	cmd := s.branchCommand(req)
	if err := s.dispatch(context.Background(), cmd, nil); err != nil {
		return "", "", err
	}
	return cmd.ThreadID, cmd.StickyID, nil
}

func (s *Store) branchCommand(req model.BranchRequest) CreateBranch {
	return CreateBranch{
		Request:   req,
		ThreadID:  util.GenerateID(util.PrefixThread),
		MessageID: util.GenerateID(util.PrefixMessage),
		StickyID:  util.GenerateID(util.PrefixSticky),
		At:        s.now(),
	}
}

// SwitchToThread activates threadID and minimises the stickies of other threads.
func (s *Store) SwitchToThread(threadID string) error {
	return s.dispatch(context.Background(), SwitchThread{ThreadID: threadID, At: s.now()}, nil)
}

// RenameThread changes the title of a thread.
func (s *Store) RenameThread(threadID, title string) error {
	return s.dispatch(context.Background(), RenameThread{ThreadID: threadID, Title: title, At: s.now()}, nil)
}

// NewSticky creates a sticky from cfg and returns its id. Without a position
// the sticky is placed randomly; without a thread a new one is created.
func (s *Store) NewSticky(cfg StickyConfig) (string, error) {
	if cfg.Position == nil {
		pos := s.randomPosition()
		cfg.Position = &pos
	}
	cmd := AddSticky{
		StickyID: util.GenerateID(util.PrefixSticky),
		Config:   cfg,
		At:       s.now(),
	}
	if cfg.ThreadID == "" {
		cmd.NewThreadID = util.GenerateID(util.PrefixThread)
	}
	if err := s.dispatch(context.Background(), cmd, nil); err != nil {
		return "", err
	}
	return cmd.StickyID, nil
}

// CreateStickyFromThread places a sticky for an existing thread.
func (s *Store) CreateStickyFromThread(threadID string, pos model.Position) (string, error) {
	return s.NewSticky(StickyConfig{ThreadID: threadID, Position: &pos})
}

// AddStickyNote creates a titled sticky backed by a new empty thread.
func (s *Store) AddStickyNote(title string, pos *model.Position) (string, error) {
	return s.NewSticky(StickyConfig{Title: title, Position: pos})
}

// CreateSticky is AddStickyNote under the name used by the canvas toolbar.
func (s *Store) CreateSticky(title string, pos *model.Position) (string, error) {
	return s.AddStickyNote(title, pos)
}

// UpdateSticky merges the set fields of u into a sticky.
func (s *Store) UpdateSticky(id string, u model.StickyUpdate) error {
	return s.dispatch(context.Background(), UpdateSticky{StickyID: id, Update: u, At: s.now()}, nil)
}

// MoveSticky changes the position of a sticky.
func (s *Store) MoveSticky(id string, pos model.Position) error {
	return s.UpdateSticky(id, model.StickyUpdate{Position: &pos})
}

// UpdateStickyPosition is MoveSticky for drag handlers.
func (s *Store) UpdateStickyPosition(id string, pos model.Position) error {
	return s.MoveSticky(id, pos)
}

// StackStickies stacks child onto parent.
func (s *Store) StackStickies(parentID, childID string) error {
	return s.dispatch(context.Background(), StackStickies{
		ParentID:   parentID,
		ChildID:    childID,
		NewStackID: util.GenerateID(util.PrefixStack),
		At:         s.now(),
	}, nil)
}

// RemoveSticky deletes a sticky but keeps its thread.
func (s *Store) RemoveSticky(id string) error {
	return s.dispatch(context.Background(), RemoveSticky{StickyID: id, At: s.now()}, nil)
}

// DeleteStickyNote is RemoveSticky.
func (s *Store) DeleteStickyNote(id string) error {
	return s.RemoveSticky(id)
}

// SendMessageToSticky chats with a sticky. The exchange is kept in the
// sticky's own history and does not touch its thread.
func (s *Store) SendMessageToSticky(ctx context.Context, stickyID, content string) error {
	if strings.TrimSpace(content) == "" {
		return ErrEmptyMessage
	}
	var history []model.Message
	err := s.dispatch(ctx, AppendStickyMessage{StickyID: stickyID, Message: s.message(model.RoleUser, content)}, func(st State) {
		if sticky, ok := st.Sticky(stickyID); ok {
			history = util.CopyMessages(sticky.ChatHistory)
		}
	})
	if err != nil {
		s.recordError(err)
		return err
	}

	text, err := s.stickyResponder.Respond(ctx, respond.Request{History: history, SystemPrompt: s.systemPrompt})
	if err == nil {
		err = s.dispatch(context.WithoutCancel(ctx), AppendStickyMessage{
			StickyID: stickyID,
			Message:  s.message(model.RoleAssistant, text),
		}, nil)
	}
	if err != nil {
		err = fmt.Errorf("reply to sticky %s: %w", stickyID, err)
		s.recordError(err)
	}
	return err
}

// SetActiveView switches between the chat and mindmap views.
func (s *Store) SetActiveView(v model.View) error {
	return s.dispatch(context.Background(), SetView{View: v}, nil)
}

// SetSelectedText records highlighted text.
func (s *Store) SetSelectedText(text string) error {
	return s.dispatch(context.Background(), SetSelectedText{Text: text}, nil)
}

// SetTheme sets the colour scheme.
func (s *Store) SetTheme(t model.Theme) error {
	return s.dispatch(context.Background(), SetTheme{Theme: t}, nil)
}

// ToggleTheme flips the colour scheme and returns the new one.
func (s *Store) ToggleTheme() (model.Theme, error) {
	var theme model.Theme
	err := s.dispatch(context.Background(), ToggleTheme{}, func(st State) { theme = st.UI.Theme })
	return theme, err
}

// SelectSticky focuses a sticky, or clears the focus for an empty id.
func (s *Store) SelectSticky(id string) error {
	return s.dispatch(context.Background(), SelectSticky{StickyID: id}, nil)
}

// ClearError empties the recorded error.
func (s *Store) ClearError() error {
	return s.dispatch(context.Background(), SetError{}, nil)
}

// Undo reverts the last change to the mindmap.
func (s *Store) Undo() error {
	return s.dispatch(context.Background(), Undo{}, nil)
}

// Redo re-applies the last undone change.
func (s *Store) Redo() error {
	return s.dispatch(context.Background(), Redo{}, nil)
}
