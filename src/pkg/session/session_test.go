package session

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"entropy/local-app/src/pkg/data"
	"entropy/local-app/src/pkg/model"
	"entropy/local-app/src/pkg/respond"
	"entropy/local-app/src/pkg/storage"
	"entropy/local-app/src/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSessionManager(t *testing.T) (*SessionManager, string) {
	t.Helper()
	return newTestSessionManagerWith(t, respond.NewTemplateResponder(0))
}

func newTestSessionManagerWith(t *testing.T, responder respond.Responder) (*SessionManager, string) {
	t.Helper()
	cfg := &model.Config{
		DatabaseType:    "sqlite",
		DatabaseDir:     t.TempDir(),
		DatabaseFile:    "entropy_test.db",
		MindmapName:     model.DefaultMindmapName,
		AutosaveDelayMs: 10,
		LLM:             model.DefaultLLMConfig(),
	}
	st, err := storage.NewStorage(cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	dm, err := data.NewDataManager(data.Stores{Mindmaps: st, Settings: st}, cfg, responder, nil)
	require.NoError(t, err)
	t.Cleanup(dm.Close)

	sm := NewSessionManager(dm, nil)
	t.Cleanup(sm.Shutdown)
	id, err := sm.SessionAdd()
	require.NoError(t, err)
	return sm, id
}

func run(t *testing.T, sm *SessionManager, id string, scope, op string, args ...string) interface{} {
	t.Helper()
	result, err := sm.SessionRun(context.Background(), id, model.Command{Scope: scope, Operation: op, Args: args})
	require.NoError(t, err, "%s %s %v", scope, op, args)
	return result
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		cmd   model.Command
		valid bool
	}{
		{"empty scope", model.Command{}, false},
		{"empty operation", model.Command{Scope: "thread"}, false},
		{"unknown scope", model.Command{Scope: "node", Operation: "add"}, false},
		{"unknown operation", model.Command{Scope: "thread", Operation: "fork"}, false},
		{"send", model.Command{Scope: "thread", Operation: "send", Args: []string{"hi"}}, true},
		{"send without message", model.Command{Scope: "thread", Operation: "send"}, false},
		{"sticky add title", model.Command{Scope: "sticky", Operation: "add", Args: []string{"Idea"}}, true},
		{"sticky add with position", model.Command{Scope: "sticky", Operation: "add", Args: []string{"Idea", "1", "2"}}, true},
		{"sticky add half position", model.Command{Scope: "sticky", Operation: "add", Args: []string{"Idea", "1"}}, false},
		{"minimap default", model.Command{Scope: "mindmap", Operation: "minimap"}, true},
		{"minimap one arg", model.Command{Scope: "mindmap", Operation: "minimap", Args: []string{"40"}}, false},
		{"branch too short", model.Command{Scope: "thread", Operation: "branch", Args: []string{"t", "m", "1", "2"}}, false},
		{"exit with args", model.Command{Scope: "system", Operation: "exit", Args: []string{"now"}}, false},
		{"toggle theme", model.Command{Scope: "ui", Operation: "toggle-theme"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := NewSessionCommand(tt.cmd, nil)
			err := sc.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidCommand)
			}
		})
	}
}

func TestThreadCommands(t *testing.T) {
	sm, id := newTestSessionManager(t)

	thread := run(t, sm, id, "thread", "send", "hello", "there").(model.Thread)
	require.Len(t, thread.Messages, 2)
	assert.Equal(t, "hello there", thread.Messages[0].Content)
	assert.Equal(t, model.RoleAssistant, thread.Messages[1].Role)

	added := run(t, sm, id, "thread", "add", "Ideas", "what", "next").(model.Thread)
	assert.Equal(t, "Ideas", added.Title)
	assert.Len(t, added.Messages, 2)

	list := run(t, sm, id, "thread", "list").(ThreadList)
	assert.Len(t, list.Threads, 2)
	assert.Equal(t, thread.ID, list.ActiveThreadID)

	switched := run(t, sm, id, "thread", "switch", added.ID).(model.Thread)
	assert.Equal(t, added.ID, switched.ID)

	renamed := run(t, sm, id, "thread", "rename", added.ID, "Better", "ideas").(model.Thread)
	assert.Equal(t, "Better ideas", renamed.Title)

	view := run(t, sm, id, "thread", "view").(ThreadView)
	assert.Equal(t, added.ID, view.Thread().ID)

	_, err := sm.SessionRun(context.Background(), id, model.Command{Scope: "thread", Operation: "switch", Args: []string{"thread_missing"}})
	assert.ErrorIs(t, err, store.ErrThreadNotFound)
}

func TestThreadBranch(t *testing.T) {
	sm, id := newTestSessionManager(t)
	main := run(t, sm, id, "thread", "send", "hello").(model.Thread)
	reply := main.Messages[1]

	branch := run(t, sm, id, "thread", "branch", main.ID, reply.ID, "150", "120",
		"selected", "words", "--", "why", "this?").(Branch)
	assert.Equal(t, main.ID, branch.Thread.ParentThreadID)
	assert.Equal(t, reply.ID, branch.Thread.BranchPoint)
	require.Len(t, branch.Thread.Messages, 2)
	assert.Equal(t, "why this?", branch.Thread.Messages[0].Content)
	assert.Equal(t, "selected words", branch.Thread.Messages[0].SelectedText)
	require.NotEmpty(t, branch.StickyID)

	sticky := run(t, sm, id, "sticky", "select", branch.StickyID).(model.UIState)
	assert.Equal(t, branch.StickyID, sticky.SelectedStickyID)

	view := run(t, sm, id, "thread", "view", branch.Thread.ID).(ThreadView)
	require.Len(t, view.Path, 2)
	assert.Equal(t, main.ID, view.Path[0].ID)

	_, err := sm.SessionRun(context.Background(), id, model.Command{
		Scope: "thread", Operation: "branch", Args: []string{main.ID, "msg_missing", "0", "0", "text"},
	})
	assert.ErrorIs(t, err, store.ErrMessageNotFound)
}

func TestStickyCommands(t *testing.T) {
	sm, id := newTestSessionManager(t)

	first := run(t, sm, id, "sticky", "add", "First", "10", "20").(model.Sticky)
	assert.Equal(t, model.Position{X: 10, Y: 20}, first.Position)
	second := run(t, sm, id, "sticky", "add", "Second").(model.Sticky)

	moved := run(t, sm, id, "sticky", "move", first.ID, "30", "40").(model.Sticky)
	assert.Equal(t, model.Position{X: 30, Y: 40}, moved.Position)

	updated := run(t, sm, id, "sticky", "update", first.ID, "title:Renamed note", "x:5", "expanded:true").(model.Sticky)
	assert.Equal(t, "Renamed note", updated.Title)
	assert.Equal(t, model.Position{X: 5, Y: 40}, updated.Position)
	assert.True(t, updated.IsExpanded)

	stacked := run(t, sm, id, "sticky", "stack", first.ID, second.ID).(model.Sticky)
	assert.NotEmpty(t, stacked.StackID)

	chatted := run(t, sm, id, "sticky", "chat", second.ID, "note", "this").(model.Sticky)
	assert.Len(t, chatted.ChatHistory, 2)

	run(t, sm, id, "sticky", "delete", first.ID)
	stickies := run(t, sm, id, "sticky", "list").([]model.Sticky)
	require.Len(t, stickies, 1)
	assert.Equal(t, second.ID, stickies[0].ID)

	fromThread := run(t, sm, id, "sticky", "from-thread", first.ThreadID, "0", "0").(model.Sticky)
	assert.Equal(t, first.ThreadID, fromThread.ThreadID)

	minimap := run(t, sm, id, "mindmap", "minimap", "40", "10").(Minimap)
	assert.Len(t, minimap.Nodes, 2)

	_, err := sm.SessionRun(context.Background(), id, model.Command{Scope: "sticky", Operation: "move", Args: []string{second.ID, "left", "0"}})
	assert.ErrorIs(t, err, ErrInvalidCommand)
}

func TestUICommands(t *testing.T) {
	sm, id := newTestSessionManager(t)

	ui := run(t, sm, id, "ui", "view", "mindmap").(model.UIState)
	assert.Equal(t, model.ViewMindmap, ui.ActiveView)

	ui = run(t, sm, id, "ui", "theme", "dark").(model.UIState)
	assert.Equal(t, model.ThemeDark, ui.Theme)

	ui = run(t, sm, id, "ui", "toggle-theme").(model.UIState)
	assert.Equal(t, model.ThemeLight, ui.Theme)

	ui = run(t, sm, id, "ui", "select", "some", "text").(model.UIState)
	assert.Equal(t, "some text", ui.SelectedText)

	_, err := sm.SessionRun(context.Background(), id, model.Command{Scope: "ui", Operation: "theme", Args: []string{"purple"}})
	assert.ErrorIs(t, err, store.ErrInvalidTheme)
}

func TestMindmapCommands(t *testing.T) {
	sm, id := newTestSessionManager(t)
	run(t, sm, id, "thread", "send", "hello")

	path := filepath.Join(t.TempDir(), "export.xml")
	run(t, sm, id, "mindmap", "export", path)
	run(t, sm, id, "sticky", "add", "Scratch")

	undone := run(t, sm, id, "mindmap", "undo").(*model.Mindmap)
	assert.Empty(t, undone.Stickies)
	redone := run(t, sm, id, "mindmap", "redo").(*model.Mindmap)
	assert.Len(t, redone.Stickies, 1)

	imported := run(t, sm, id, "mindmap", "import", path, "xml").(*model.Mindmap)
	assert.Empty(t, imported.Stickies)

	view := run(t, sm, id, "mindmap", "view").(*model.Mindmap)
	assert.Equal(t, imported.ID, view.ID)

	infos := run(t, sm, id, "mindmap", "list").([]model.MindmapInfo)
	assert.Len(t, infos, 1)

	_, err := sm.SessionRun(context.Background(), id, model.Command{Scope: "mindmap", Operation: "export", Args: []string{path, "csv"}})
	assert.ErrorIs(t, err, ErrInvalidCommand)
}

func TestFileRootConfinesExportImport(t *testing.T) {
	sm, _ := newTestSessionManager(t)
	root := t.TempDir()
	id, err := sm.SessionAdd(WithFileRoot(root))
	require.NoError(t, err)

	outside := filepath.Join(t.TempDir(), "outside.json")
	for _, name := range []string{outside, "../escape.json", "maps/../../escape.json", ""} {
		_, err := sm.SessionRun(context.Background(), id, model.Command{Scope: "mindmap", Operation: "export", Args: []string{name, "json"}})
		assert.ErrorIs(t, err, ErrInvalidCommand, name)
		_, err = sm.SessionRun(context.Background(), id, model.Command{Scope: "mindmap", Operation: "import", Args: []string{name, "json"}})
		assert.ErrorIs(t, err, ErrInvalidCommand, name)
	}
	assert.NoFileExists(t, outside)
	assert.NoFileExists(t, filepath.Join(filepath.Dir(root), "escape.json"))

	run(t, sm, id, "mindmap", "export", "maps/kept.json")
	assert.FileExists(t, filepath.Join(root, "maps", "kept.json"))
	imported := run(t, sm, id, "mindmap", "import", "maps/kept.json").(*model.Mindmap)
	assert.Equal(t, model.DefaultMindmapName, imported.Name)

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestSystemExit(t *testing.T) {
	sm, id := newTestSessionManager(t)
	assert.Equal(t, Exit{}, run(t, sm, id, "system", "quit"))
}

func TestSessionLifecycle(t *testing.T) {
	sm, id := newTestSessionManager(t)

	_, err := sm.SessionRun(context.Background(), "missing", model.Command{Scope: "ui", Operation: "state"})
	assert.ErrorIs(t, err, ErrSessionNotFound)

	infos := sm.SessionList()
	require.Len(t, infos, 1)
	assert.Equal(t, id, infos[0].ID)
	assert.NotEmpty(t, infos[0].ActiveThread)

	other, err := sm.SessionAdd()
	require.NoError(t, err)
	sess, ok := sm.SessionGet(other)
	require.True(t, ok)
	sess.mu.Lock()
	sess.lastActivity = time.Now().Add(-2 * defaultSessionTimeout)
	sess.mu.Unlock()

	sm.cleanupInactiveSessions(time.Now())
	_, ok = sm.SessionGet(other)
	assert.False(t, ok)
	_, ok = sm.SessionGet(id)
	assert.True(t, ok)

	assert.True(t, sm.SessionDelete(id))
	assert.False(t, sm.SessionDelete(id))
}

func TestNonFiniteGeometryRejected(t *testing.T) {
	sm, id := newTestSessionManager(t)
	sticky := run(t, sm, id, "sticky", "add", "First", "10", "20").(model.Sticky)

	bad := []model.Command{
		{Scope: "sticky", Operation: "move", Args: []string{sticky.ID, "NaN", "1"}},
		{Scope: "sticky", Operation: "move", Args: []string{sticky.ID, "1", "-Inf"}},
		{Scope: "sticky", Operation: "update", Args: []string{sticky.ID, "width:NaN"}},
		{Scope: "sticky", Operation: "update", Args: []string{sticky.ID, "height:+Inf"}},
		{Scope: "sticky", Operation: "add", Args: []string{"Second", "Inf", "0"}},
		{Scope: "sticky", Operation: "from-thread", Args: []string{sticky.ThreadID, "0", "nan"}},
	}
	for _, cmd := range bad {
		_, err := sm.SessionRun(context.Background(), id, cmd)
		assert.ErrorIs(t, err, ErrInvalidCommand, "%v", cmd.Args)
	}

	got := run(t, sm, id, "sticky", "list").([]model.Sticky)
	require.Len(t, got, 1)
	assert.Equal(t, model.Position{X: 10, Y: 20}, got[0].Position)
	run(t, sm, id, "mindmap", "save")
}

func TestDeleteAnswersQueuedCommands(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	sm, id := newTestSessionManagerWith(t, respond.ResponderFunc(func(ctx context.Context, _ respond.Request) (string, error) {
		once.Do(func() { close(started) })
		select {
		case <-release:
		case <-ctx.Done():
		}
		return "done", nil
	}))
	defer close(release)

	inFlight := make(chan error, 1)
	go func() {
		_, err := sm.SessionRun(context.Background(), id, model.Command{Scope: "thread", Operation: "send", Args: []string{"slow"}})
		inFlight <- err
	}()
	<-started

	const queued = 5
	results := make(chan error, queued)
	for i := 0; i < queued; i++ {
		go func() {
			_, err := sm.SessionRun(context.Background(), id, model.Command{Scope: "ui", Operation: "state"})
			results <- err
		}()
	}
	sm.mu.RLock()
	entry := sm.sessions[id]
	sm.mu.RUnlock()
	require.Eventually(t, func() bool { return len(entry.queue) == queued }, time.Second, 5*time.Millisecond)

	require.True(t, sm.SessionDelete(id))
	for i := 0; i < queued; i++ {
		select {
		case err := <-results:
			assert.ErrorIs(t, err, ErrSessionClosed)
		case <-time.After(time.Second):
			require.Fail(t, "queued command not answered after delete")
		}
	}
	select {
	case err := <-inFlight:
		assert.ErrorIs(t, err, ErrSessionClosed)
	case <-time.After(time.Second):
		require.Fail(t, "running command not answered after delete")
	}
}

func TestCanceledCommand(t *testing.T) {
	sm, id := newTestSessionManager(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := sm.SessionRun(ctx, id, model.Command{Scope: "thread", Operation: "send", Args: []string{"hello"}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseStickyUpdate(t *testing.T) {
	current := model.Sticky{Position: model.Position{X: 1, Y: 2}, Size: model.Size{Width: 300, Height: 200}}

	u, err := parseStickyUpdate(current, []string{"y:9", "height:50", "color:red", "z:1005", "minimized:false"})
	require.NoError(t, err)
	assert.Equal(t, &model.Position{X: 1, Y: 9}, u.Position)
	assert.Equal(t, &model.Size{Width: 300, Height: 50}, u.Size)
	assert.Equal(t, "red", *u.Color)
	assert.Equal(t, 1005, *u.ZIndex)
	assert.False(t, *u.IsMinimized)
	assert.Nil(t, u.Title)

	for _, bad := range []string{"title", "x:abc", "size:3", "z:1.5", "expanded:maybe"} {
		_, err := parseStickyUpdate(current, []string{bad})
		assert.ErrorIs(t, err, ErrInvalidCommand, bad)
	}
}
