package session

import (
	"context"
	"fmt"
	"strings"

	"entropy/local-app/src/pkg/log"
	"entropy/local-app/src/pkg/model"
)

// ThreadList is the thread overview with the active thread marked.
type ThreadList struct {
	ActiveThreadID string         `json:"activeThreadId"`
	Threads        []model.Thread `json:"threads"`
}

// ThreadView is a thread with the chain of threads it branched from, root first.
type ThreadView struct {
	Path []model.Thread `json:"path"`
}

// Thread returns the viewed thread.
func (v ThreadView) Thread() model.Thread {
	return v.Path[len(v.Path)-1]
}

// Branch is the result of branching from a selection.
type Branch struct {
	Thread   model.Thread `json:"thread"`
	StickyID string       `json:"stickyId"`
}

// handleThreadAdd creates a thread and sends the optional first message to it
func handleThreadAdd(ctx context.Context, s *Session, cmd model.Command) (interface{}, error) {
	message := strings.Join(cmd.Args[1:], " ")
	id, err := s.DataManager.Store.CreateThread(ctx, cmd.Args[0], message)
	if err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "Thread added", log.Fields{"sessionID": s.ID, "threadID": id})
	return s.DataManager.Store.Thread(id)
}

// handleThreadSend sends a message to the active thread and waits for the reply
func handleThreadSend(ctx context.Context, s *Session, cmd model.Command) (interface{}, error) {
	active, err := s.DataManager.Store.ActiveThread()
	if err != nil {
		return nil, err
	}
	if err := s.DataManager.Store.SendMessage(ctx, strings.Join(cmd.Args, " ")); err != nil {
		return nil, err
	}
	return s.DataManager.Store.Thread(active.ID)
}

// handleThreadSwitch activates a thread
func handleThreadSwitch(ctx context.Context, s *Session, cmd model.Command) (interface{}, error) {
	if err := s.DataManager.Store.SwitchToThread(cmd.Args[0]); err != nil {
		return nil, err
	}
	return s.DataManager.Store.Thread(cmd.Args[0])
}

// handleThreadList lists every thread
func handleThreadList(ctx context.Context, s *Session, cmd model.Command) (interface{}, error) {
	threads, err := s.DataManager.Store.Threads()
	if err != nil {
		return nil, err
	}
	active, err := s.DataManager.Store.ActiveThread()
	if err != nil {
		return nil, err
	}
	return ThreadList{ActiveThreadID: active.ID, Threads: threads}, nil
}

// handleThreadView shows a thread, the active one by default
func handleThreadView(ctx context.Context, s *Session, cmd model.Command) (interface{}, error) {
	id := ""
	if len(cmd.Args) == 1 {
		id = cmd.Args[0]
	} else {
		active, err := s.DataManager.Store.ActiveThread()
		if err != nil {
			return nil, err
		}
		id = active.ID
	}
	path, err := s.DataManager.Store.ThreadPath(id)
	if err != nil {
		return nil, err
	}
	return ThreadView{Path: path}, nil
}

// handleThreadBranch branches a new thread from selected text of a message.
// Arguments after "--" form the question asked in the new thread.
func handleThreadBranch(ctx context.Context, s *Session, cmd model.Command) (interface{}, error) {
	pos, err := parsePosition(cmd.Args[2], cmd.Args[3])
	if err != nil {
		return nil, err
	}

	rest := cmd.Args[4:]
	var selected, query []string
	for i, arg := range rest {
		if arg == "--" {
			selected, query = rest[:i], rest[i+1:]
			break
		}
	}
	if selected == nil && query == nil {
		selected = rest
	}
	if len(selected) == 0 {
		return nil, fmt.Errorf("%w: selected text is required", ErrInvalidCommand)
	}

	req := model.BranchRequest{
		SelectedText:    strings.Join(selected, " "),
		SourceThreadID:  cmd.Args[0],
		SourceMessageID: cmd.Args[1],
		NewQuery:        strings.Join(query, " "),
		Position:        pos,
	}
	threadID, err := s.DataManager.Store.CreateBranchFromSelection(ctx, req)
	if threadID == "" {
		return nil, err
	}

	result := Branch{}
	if snapshot, serr := s.DataManager.Store.Snapshot(); serr == nil {
		for _, st := range snapshot.Stickies {
			if st.ThreadID == threadID {
				result.StickyID = st.ID
				break
			}
		}
	}
	thread, terr := s.DataManager.Store.Thread(threadID)
	if terr != nil {
		return nil, terr
	}
	result.Thread = thread
	// the branch exists even when the reply failed
	return result, err
}

// handleThreadRename changes a thread title
func handleThreadRename(ctx context.Context, s *Session, cmd model.Command) (interface{}, error) {
	if err := s.DataManager.Store.RenameThread(cmd.Args[0], strings.Join(cmd.Args[1:], " ")); err != nil {
		return nil, err
	}
	return s.DataManager.Store.Thread(cmd.Args[0])
}
