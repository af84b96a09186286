package store

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"entropy/local-app/src/pkg/event"
	"entropy/local-app/src/pkg/model"
	"entropy/local-app/src/pkg/respond"
	"entropy/local-app/src/pkg/util"
)

func echoResponder() respond.Responder {
	return respond.ResponderFunc(func(_ context.Context, req respond.Request) (string, error) {
		return "echo: " + req.LastUserMessage(), nil
	})
}

func newTestStore(t *testing.T, opts Options) *Store {
	t.Helper()
	if opts.Responder == nil {
		opts.Responder = echoResponder()
	}
	if opts.StickyResponder == nil {
		opts.StickyResponder = respond.NewRandomResponder(0)
	}
	s := NewStore(opts)
	t.Cleanup(s.Close)
	require.NoError(t, s.Initialize())
	return s
}

func TestStoreInitializeIsIdempotent(t *testing.T) {
	s := newTestStore(t, Options{MindmapName: "Ideas"})
	first, err := s.Snapshot()
	require.NoError(t, err)

	require.NoError(t, s.Initialize())
	second, err := s.Snapshot()
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Ideas", second.Name)
	require.Len(t, second.Threads, 1)
	assert.True(t, second.Threads[0].IsMainThread)
}

func TestStoreSendMessage(t *testing.T) {
	s := newTestStore(t, Options{Responder: respond.NewTemplateResponder(0)})
	before, err := s.ActiveThread()
	require.NoError(t, err)

	require.NoError(t, s.SendMessage(context.Background(), "hello"))

	after, err := s.ActiveThread()
	require.NoError(t, err)
	require.Len(t, after.Messages, len(before.Messages)+2)
	user, assistant := after.Messages[0], after.Messages[1]
	assert.Equal(t, model.RoleUser, user.Role)
	assert.Equal(t, "hello", user.Content)
	assert.Equal(t, model.RoleAssistant, assistant.Role)
	assert.True(t, assistant.Timestamp.After(user.Timestamp))
	assert.False(t, s.UI().IsProcessing)

	assert.ErrorIs(t, s.SendMessage(context.Background(), "   "), ErrEmptyMessage)
}

func TestStoreReplyLandsInThreadActiveAtSendTime(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	responder := respond.ResponderFunc(func(ctx context.Context, req respond.Request) (string, error) {
		close(started)
		<-release
		return "late reply", nil
	})
	s := newTestStore(t, Options{Responder: responder})
	main, err := s.ActiveThread()
	require.NoError(t, err)
	other, err := s.CreateThread(context.Background(), "Other", "")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- s.SendMessage(context.Background(), "question") }()

	<-started
	assert.True(t, s.UI().IsProcessing)
	require.NoError(t, s.SwitchToThread(other))
	close(release)
	require.NoError(t, <-done)

	got, err := s.Thread(main.ID)
	require.NoError(t, err)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "late reply", got.Messages[1].Content)

	otherThread, err := s.Thread(other)
	require.NoError(t, err)
	assert.Empty(t, otherThread.Messages)
	assert.False(t, s.UI().IsProcessing)
}

func TestStoreSendMessageFailureIsRecorded(t *testing.T) {
	s := newTestStore(t, Options{Responder: respond.ResponderFunc(func(context.Context, respond.Request) (string, error) {
		return "", errors.New("backend down")
	})})

	err := s.SendMessage(context.Background(), "hi")
	require.Error(t, err)
	ui := s.UI()
	assert.Contains(t, ui.Error, "backend down")
	assert.False(t, ui.IsProcessing)

	thread, err := s.ActiveThread()
	require.NoError(t, err)
	assert.Len(t, thread.Messages, 1)

	require.NoError(t, s.ClearError())
	assert.Empty(t, s.UI().Error)
}

func TestStoreSendMessageCancelled(t *testing.T) {
	s := newTestStore(t, Options{Responder: respond.NewTemplateResponder(time.Hour)})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := s.SendMessage(ctx, "hello")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, s.UI().IsProcessing)
	assert.NotEmpty(t, s.UI().Error)
}

func TestStoreCreateThreadSendsInitialMessageToNewThread(t *testing.T) {
	s := newTestStore(t, Options{})
	id, err := s.CreateThread(context.Background(), "", "kick off")
	require.NoError(t, err)

	thread, err := s.Thread(id)
	require.NoError(t, err)
	assert.Equal(t, "New Thread", thread.Title)
	assert.False(t, thread.IsMainThread)
	require.Len(t, thread.Messages, 2)
	assert.Equal(t, "echo: kick off", thread.Messages[1].Content)

	active, err := s.ActiveThread()
	require.NoError(t, err)
	assert.Empty(t, active.Messages)
	assert.NotEqual(t, id, active.ID)
}

func TestStoreCreateBranchFromSelection(t *testing.T) {
	s := newTestStore(t, Options{})
	require.NoError(t, s.SendMessage(context.Background(), "tell me about compost"))
	main, err := s.ActiveThread()
	require.NoError(t, err)
	source := main.Messages[1]

	branchID, err := s.CreateBranchFromSelection(context.Background(), model.BranchRequest{
		SelectedText:    "compost",
		SourceMessageID: source.ID,
		SourceThreadID:  main.ID,
		Position:        model.Position{X: 300, Y: 250},
	})
	require.NoError(t, err)

	branch, err := s.Thread(branchID)
	require.NoError(t, err)
	require.Len(t, branch.Messages, 2)
	assert.Equal(t, "Tell me more about: compost", branch.Messages[0].Content)
	assert.Equal(t, "echo: Tell me more about: compost", branch.Messages[1].Content)

	path, err := s.ThreadPath(branchID)
	require.NoError(t, err)
	require.Len(t, path, 2)
	assert.Equal(t, main.ID, path[0].ID)

	m, err := s.Snapshot()
	require.NoError(t, err)
	require.Len(t, m.Stickies, 1)
	assert.Equal(t, branchID, m.Stickies[0].ThreadID)
	assert.Equal(t, model.Position{X: 300, Y: 250}, m.Stickies[0].Position)
}

func TestStoreCreateBranchFromSelectionFailsCleanly(t *testing.T) {
	s := newTestStore(t, Options{})
	before, err := s.Snapshot()
	require.NoError(t, err)

	_, err = s.CreateBranchFromSelection(context.Background(), model.BranchRequest{
		SelectedText: "x", SourceThreadID: before.MainThreadID, SourceMessageID: "msg_missing",
	})
	assert.ErrorIs(t, err, ErrMessageNotFound)

	after, err := s.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, before.Threads, after.Threads)
	assert.Equal(t, before.Stickies, after.Stickies)
	assert.False(t, s.UI().IsProcessing)
	assert.NotEmpty(t, s.UI().Error)
}

func TestStoreMoveStickyTouchesOnlyThatSticky(t *testing.T) {
	clock := t0
	var mu sync.Mutex
	now := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		clock = clock.Add(time.Second)
		return clock
	}
	s := newTestStore(t, Options{Now: now})
	a, err := s.AddStickyNote("A", nil)
	require.NoError(t, err)
	b, err := s.CreateSticky("B", &model.Position{X: 5, Y: 5})
	require.NoError(t, err)

	before, err := s.Snapshot()
	require.NoError(t, err)
	require.NoError(t, s.MoveSticky(a, model.Position{X: 10, Y: 20}))
	after, err := s.Snapshot()
	require.NoError(t, err)

	movedBefore, movedAfter := before.Stickies[0], after.Stickies[0]
	assert.Equal(t, model.Position{X: 10, Y: 20}, movedAfter.Position)
	assert.True(t, movedAfter.UpdatedAt.After(movedBefore.UpdatedAt))
	movedAfter.Position = movedBefore.Position
	movedAfter.UpdatedAt = movedBefore.UpdatedAt
	assert.Equal(t, movedBefore, movedAfter)

	assert.Equal(t, b, after.Stickies[1].ID)
	assert.Equal(t, before.Stickies[1], after.Stickies[1])
	assert.Equal(t, before.Threads, after.Threads)

	assert.ErrorIs(t, s.UpdateStickyPosition("sticky_missing", model.Position{}), ErrStickyNotFound)
}

func TestStoreRejectsNonFiniteGeometry(t *testing.T) {
	s := newTestStore(t, Options{})
	id, err := s.CreateSticky("A", &model.Position{X: 5, Y: 5})
	require.NoError(t, err)
	before, err := s.Snapshot()
	require.NoError(t, err)

	assert.ErrorIs(t, s.MoveSticky(id, model.Position{X: math.NaN(), Y: 1}), ErrInvalidPosition)
	assert.ErrorIs(t, s.MoveSticky(id, model.Position{X: 1, Y: math.Inf(-1)}), ErrInvalidPosition)
	assert.ErrorIs(t, s.UpdateSticky(id, model.StickyUpdate{Size: &model.Size{Width: math.NaN(), Height: 10}}), ErrInvalidSize)
	assert.ErrorIs(t, s.UpdateSticky(id, model.StickyUpdate{Size: &model.Size{Width: 10, Height: math.Inf(1)}}), ErrInvalidSize)
	_, err = s.CreateSticky("B", &model.Position{X: math.Inf(1), Y: 0})
	assert.ErrorIs(t, err, ErrInvalidPosition)

	_, err = s.CreateBranchFromSelection(context.Background(), model.BranchRequest{
		SelectedText: "x", SourceThreadID: before.MainThreadID, SourceMessageID: "msg_missing",
		Position: model.Position{X: math.NaN()},
	})
	assert.ErrorIs(t, err, ErrInvalidPosition)

	after, err := s.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, before.Stickies, after.Stickies)
	assert.Equal(t, before.Threads, after.Threads)
	require.NoError(t, model.CheckMindmap(after))
}

func TestStoreRandomPositionWithinBounds(t *testing.T) {
	s := newTestStore(t, Options{Seed: 42})
	for i := 0; i < 20; i++ {
		id, err := s.AddStickyNote("note", nil)
		require.NoError(t, err)
		sticky, err := s.Sticky(id)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, sticky.Position.X, 100.0)
		assert.LessOrEqual(t, sticky.Position.X, 700.0)
		assert.GreaterOrEqual(t, sticky.Position.Y, 100.0)
		assert.LessOrEqual(t, sticky.Position.Y, 500.0)
	}
}

func TestStoreRemoveStickyKeepsThread(t *testing.T) {
	s := newTestStore(t, Options{})
	a, err := s.AddStickyNote("A", nil)
	require.NoError(t, err)
	b, err := s.AddStickyNote("B", nil)
	require.NoError(t, err)
	stickyA, err := s.Sticky(a)
	require.NoError(t, err)

	before, err := s.Snapshot()
	require.NoError(t, err)
	require.NoError(t, s.DeleteStickyNote(a))
	after, err := s.Snapshot()
	require.NoError(t, err)

	_, err = s.Thread(stickyA.ThreadID)
	assert.NoError(t, err)
	assert.Len(t, after.Threads, len(before.Threads))
	require.Len(t, after.Stickies, 1)
	assert.Equal(t, b, after.Stickies[0].ID)
	assert.Equal(t, before.Stickies[1], after.Stickies[0])

	assert.ErrorIs(t, s.RemoveSticky(a), ErrStickyNotFound)
}

func TestStoreCreateStickyFromThread(t *testing.T) {
	s := newTestStore(t, Options{})
	main, err := s.ActiveThread()
	require.NoError(t, err)

	id, err := s.CreateStickyFromThread(main.ID, model.Position{X: 1, Y: 2})
	require.NoError(t, err)
	sticky, err := s.Sticky(id)
	require.NoError(t, err)
	assert.Equal(t, main.ID, sticky.ThreadID)
	assert.Equal(t, model.MainThreadTitle, sticky.Title)

	threads, err := s.Threads()
	require.NoError(t, err)
	assert.Len(t, threads, 1)

	_, err = s.CreateStickyFromThread("thread_missing", model.Position{})
	assert.ErrorIs(t, err, ErrThreadNotFound)
}

func TestStoreSendMessageToSticky(t *testing.T) {
	s := newTestStore(t, Options{})
	id, err := s.AddStickyNote("Side", nil)
	require.NoError(t, err)

	require.NoError(t, s.SendMessageToSticky(context.Background(), id, "thoughts?"))
	sticky, err := s.Sticky(id)
	require.NoError(t, err)
	require.Len(t, sticky.ChatHistory, 2)
	assert.Equal(t, model.RoleUser, sticky.ChatHistory[0].Role)
	assert.Equal(t, model.RoleAssistant, sticky.ChatHistory[1].Role)

	thread, err := s.Thread(sticky.ThreadID)
	require.NoError(t, err)
	assert.Empty(t, thread.Messages)

	assert.ErrorIs(t, s.SendMessageToSticky(context.Background(), "sticky_missing", "x"), ErrStickyNotFound)
}

func TestStoreUndoRedo(t *testing.T) {
	s := newTestStore(t, Options{})
	assert.ErrorIs(t, s.Undo(), ErrNothingToUndo)

	id, err := s.AddStickyNote("A", nil)
	require.NoError(t, err)
	undo, redo := s.HistoryDepth()
	assert.Equal(t, 1, undo)
	assert.Zero(t, redo)

	require.NoError(t, s.Undo())
	_, err = s.Sticky(id)
	assert.ErrorIs(t, err, ErrStickyNotFound)

	require.NoError(t, s.Redo())
	_, err = s.Sticky(id)
	assert.NoError(t, err)
}

func TestStoreUIAndEvents(t *testing.T) {
	em := event.NewEventManager(nil)
	themes := make(chan event.Event, 4)
	em.Subscribe(event.ThemeChanged, func(e event.Event) { themes <- e })
	s := newTestStore(t, Options{Events: em})

	theme, err := s.ToggleTheme()
	require.NoError(t, err)
	assert.Equal(t, model.ThemeDark, theme)
	select {
	case e := <-themes:
		assert.Equal(t, model.ThemeDark, e.Data)
	case <-time.After(time.Second):
		require.Fail(t, "theme event not published")
	}

	assert.ErrorIs(t, s.SetTheme("neon"), ErrInvalidTheme)
	assert.ErrorIs(t, s.SetActiveView("grid"), ErrInvalidView)
	require.NoError(t, s.SetActiveView(model.ViewMindmap))
	require.NoError(t, s.SetSelectedText("a phrase"))

	id, err := s.AddStickyNote("A", nil)
	require.NoError(t, err)
	require.NoError(t, s.SelectSticky(id))
	ui := s.UI()
	assert.Equal(t, model.ViewMindmap, ui.ActiveView)
	assert.Equal(t, "a phrase", ui.SelectedText)
	assert.Equal(t, id, ui.SelectedStickyID)
	assert.ErrorIs(t, s.SelectSticky("sticky_missing"), ErrStickyNotFound)
}

func TestStoreSnapshotIsACopy(t *testing.T) {
	s := newTestStore(t, Options{})
	m, err := s.Snapshot()
	require.NoError(t, err)
	m.Threads[0].Title = "mutated"
	m.Name = "mutated"

	again, err := s.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, model.MainThreadTitle, again.Threads[0].Title)
	assert.NotEqual(t, "mutated", again.Name)
}

func TestStoreLoadAndRename(t *testing.T) {
	s := newTestStore(t, Options{})
	m, err := s.Snapshot()
	require.NoError(t, err)

	other := NewStore(Options{Responder: echoResponder()})
	defer other.Close()
	_, err = other.Snapshot()
	assert.ErrorIs(t, err, ErrNotInitialized)
	require.NoError(t, other.Load(m))

	require.NoError(t, other.RenameThread(m.MainThreadID, "Root"))
	assert.ErrorIs(t, other.RenameThread(m.MainThreadID, " "), ErrEmptyTitle)
	thread, err := other.Thread(m.MainThreadID)
	require.NoError(t, err)
	assert.Equal(t, "Root", thread.Title)
}

func TestStoreClosed(t *testing.T) {
	s := NewStore(Options{})
	s.Close()
	assert.ErrorIs(t, s.Initialize(), ErrClosed)
	_, err := s.Snapshot()
	assert.ErrorIs(t, err, ErrClosed)
}

func TestStoreStackStickies(t *testing.T) {
	s := newTestStore(t, Options{})
	a, err := s.AddStickyNote("A", &model.Position{X: 10, Y: 10})
	require.NoError(t, err)
	b, err := s.AddStickyNote("B", &model.Position{X: 300, Y: 300})
	require.NoError(t, err)

	require.NoError(t, s.StackStickies(a, b))
	parent, err := s.Sticky(a)
	require.NoError(t, err)
	child, err := s.Sticky(b)
	require.NoError(t, err)
	assert.True(t, len(parent.StackID) > len(util.PrefixStack))
	assert.Equal(t, parent.StackID, child.StackID)
	assert.Equal(t, 1, *child.StackIndex)
	assert.Equal(t, parent.Position, child.Position)
}
