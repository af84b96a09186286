package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"entropy/local-app/src/pkg/log"
	"entropy/local-app/src/pkg/model"
)

// MindmapStore defines the interface for mindmap-related storage operations.
type MindmapStore interface {
	MindmapSave(mindmap *model.Mindmap) error
	MindmapLoad(id string) (*model.Mindmap, error)
	MindmapLatest() (*model.Mindmap, error)
	MindmapList() ([]model.MindmapInfo, error)
	MindmapDelete(id string) error
}

// MindmapStorage implements the MindmapStore interface.
type MindmapStorage struct {
	storage *Storage
	logger  *log.Logger
}

// NewMindmapStorage creates a new MindmapStorage instance.
func NewMindmapStorage(storage *Storage) *MindmapStorage {
	return &MindmapStorage{
		storage: storage,
		logger:  storage.logger,
	}
}

// MindmapSave writes the whole mindmap, replacing any stored copy, in one transaction.
func (s *MindmapStorage) MindmapSave(mindmap *model.Mindmap) (err error) {
	if mindmap == nil {
		return fmt.Errorf("nil mindmap")
	}
	s.logger.Info(context.Background(), "Saving mindmap", log.Fields{"mindmapID": mindmap.ID, "threads": len(mindmap.Threads), "stickies": len(mindmap.Stickies)})

	s.storage.mu.Lock()
	defer s.storage.mu.Unlock()
	db := s.storage.GetDatabase()

	if err = db.Begin(); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = db.Rollback()
		}
	}()

	if _, err = db.Exec("DELETE FROM mindmaps WHERE id = ?", mindmap.ID); err != nil {
		return fmt.Errorf("failed to clear mindmap: %w", err)
	}
	if _, err = db.Exec(
		"INSERT INTO mindmaps (id, name, active_thread_id, main_thread_id, created, updated) VALUES (?, ?, ?, ?, ?, ?)",
		mindmap.ID, mindmap.Name, mindmap.ActiveThreadID, mindmap.MainThreadID,
		formatTime(mindmap.CreatedAt), formatTime(mindmap.UpdatedAt),
	); err != nil {
		return fmt.Errorf("failed to insert mindmap: %w", err)
	}

	for i, thread := range mindmap.Threads {
		if err = s.threadInsert(db, mindmap.ID, i, thread); err != nil {
			return err
		}
	}
	for i, sticky := range mindmap.Stickies {
		if err = s.stickyInsert(db, mindmap.ID, i, sticky); err != nil {
			return err
		}
	}

	if err = db.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	s.logger.Info(context.Background(), "Mindmap saved successfully", log.Fields{"mindmapID": mindmap.ID})
	return nil
}

func (s *MindmapStorage) threadInsert(db Database, mindmapID string, seq int, thread model.Thread) error {
	var metadata sql.NullString
	if len(thread.Metadata) > 0 {
		data, err := json.Marshal(thread.Metadata)
		if err != nil {
			return fmt.Errorf("failed to encode metadata of thread %s: %w", thread.ID, err)
		}
		metadata = sql.NullString{String: string(data), Valid: true}
	}

	if _, err := db.Exec(
		`INSERT INTO threads (mindmap_id, id, seq, title, parent_thread_id, branch_point, is_main, metadata, created, updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		mindmapID, thread.ID, seq, thread.Title, thread.ParentThreadID, thread.BranchPoint, thread.IsMainThread,
		metadata, formatTime(thread.CreatedAt), formatTime(thread.UpdatedAt),
	); err != nil {
		return fmt.Errorf("failed to insert thread %s: %w", thread.ID, err)
	}

	for i, msg := range thread.Messages {
		if _, err := db.Exec(
			`INSERT INTO messages (mindmap_id, thread_id, id, seq, role, content, timestamp, selected_text, parent_message_id)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			mindmapID, thread.ID, msg.ID, i, string(msg.Role), msg.Content, formatTime(msg.Timestamp),
			msg.SelectedText, msg.ParentMessageID,
		); err != nil {
			return fmt.Errorf("failed to insert message %s: %w", msg.ID, err)
		}
	}
	return nil
}

func (s *MindmapStorage) stickyInsert(db Database, mindmapID string, seq int, sticky model.Sticky) error {
	var stackIndex sql.NullInt64
	if sticky.StackIndex != nil {
		stackIndex = sql.NullInt64{Int64: int64(*sticky.StackIndex), Valid: true}
	}

	if _, err := db.Exec(
		`INSERT INTO stickies (mindmap_id, id, seq, thread_id, x, y, width, height, title, content, color,
			is_minimized, is_expanded, stack_id, stack_index, z_index, preview_text, created, updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		mindmapID, sticky.ID, seq, sticky.ThreadID, sticky.Position.X, sticky.Position.Y,
		sticky.Size.Width, sticky.Size.Height, sticky.Title, sticky.Content, sticky.Color,
		sticky.IsMinimized, sticky.IsExpanded, sticky.StackID, stackIndex, sticky.ZIndex, sticky.PreviewText,
		formatTime(sticky.CreatedAt), formatTime(sticky.UpdatedAt),
	); err != nil {
		return fmt.Errorf("failed to insert sticky %s: %w", sticky.ID, err)
	}

	for i, msg := range sticky.ChatHistory {
		if _, err := db.Exec(
			`INSERT INTO sticky_messages (mindmap_id, sticky_id, id, seq, role, content, timestamp, selected_text, parent_message_id)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			mindmapID, sticky.ID, msg.ID, i, string(msg.Role), msg.Content, formatTime(msg.Timestamp),
			msg.SelectedText, msg.ParentMessageID,
		); err != nil {
			return fmt.Errorf("failed to insert sticky message %s: %w", msg.ID, err)
		}
	}
	return nil
}

// MindmapLoad reads the mindmap with the given id.
func (s *MindmapStorage) MindmapLoad(id string) (*model.Mindmap, error) {
	s.logger.Info(context.Background(), "Loading mindmap", log.Fields{"mindmapID": id})

	s.storage.mu.Lock()
	defer s.storage.mu.Unlock()
	return s.load(id)
}

// MindmapLatest reads the most recently updated mindmap.
func (s *MindmapStorage) MindmapLatest() (*model.Mindmap, error) {
	s.storage.mu.Lock()
	defer s.storage.mu.Unlock()

	var id string
	err := s.storage.GetDatabase().QueryRow("SELECT id FROM mindmaps ORDER BY updated DESC LIMIT 1").Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMindmapNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest mindmap: %w", err)
	}
	s.logger.Info(context.Background(), "Loading latest mindmap", log.Fields{"mindmapID": id})
	return s.load(id)
}

// load expects the storage lock to be held
func (s *MindmapStorage) load(id string) (*model.Mindmap, error) {
	db := s.storage.GetDatabase()

	var (
		m                model.Mindmap
		created, updated string
	)
	err := db.QueryRow(
		"SELECT id, name, active_thread_id, main_thread_id, created, updated FROM mindmaps WHERE id = ?", id,
	).Scan(&m.ID, &m.Name, &m.ActiveThreadID, &m.MainThreadID, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrMindmapNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query mindmap: %w", err)
	}
	if m.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if m.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}

	if m.Threads, err = s.threadsLoad(db, id); err != nil {
		return nil, err
	}
	if m.Stickies, err = s.stickiesLoad(db, id); err != nil {
		return nil, err
	}

	s.logger.Info(context.Background(), "Mindmap loaded successfully", log.Fields{"mindmapID": id, "threads": len(m.Threads), "stickies": len(m.Stickies)})
	return &m, nil
}

func (s *MindmapStorage) threadsLoad(db Database, mindmapID string) ([]model.Thread, error) {
	rows, err := db.Query(
		`SELECT id, title, parent_thread_id, branch_point, is_main, metadata, created, updated
		FROM threads WHERE mindmap_id = ? ORDER BY seq`, mindmapID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query threads: %w", err)
	}
	defer rows.Close()

	var threads []model.Thread
	for rows.Next() {
		var (
			t                model.Thread
			metadata         sql.NullString
			created, updated string
		)
		if err := rows.Scan(&t.ID, &t.Title, &t.ParentThreadID, &t.BranchPoint, &t.IsMainThread, &metadata, &created, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan thread row: %w", err)
		}
		if metadata.Valid {
			if err := json.Unmarshal([]byte(metadata.String), &t.Metadata); err != nil {
				return nil, fmt.Errorf("failed to decode metadata of thread %s: %w", t.ID, err)
			}
		}
		if t.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		if t.UpdatedAt, err = parseTime(updated); err != nil {
			return nil, err
		}
		threads = append(threads, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating thread rows: %w", err)
	}

	for i := range threads {
		msgs, err := messagesLoad(db,
			`SELECT id, role, content, timestamp, selected_text, parent_message_id
			FROM messages WHERE mindmap_id = ? AND thread_id = ? ORDER BY seq`,
			mindmapID, threads[i].ID)
		if err != nil {
			return nil, err
		}
		threads[i].Messages = msgs
	}
	return threads, nil
}

func (s *MindmapStorage) stickiesLoad(db Database, mindmapID string) ([]model.Sticky, error) {
	rows, err := db.Query(
		`SELECT id, thread_id, x, y, width, height, title, content, color, is_minimized, is_expanded,
			stack_id, stack_index, z_index, preview_text, created, updated
		FROM stickies WHERE mindmap_id = ? ORDER BY seq`, mindmapID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query stickies: %w", err)
	}
	defer rows.Close()

	var stickies []model.Sticky
	for rows.Next() {
		var (
			st               model.Sticky
			stackIndex       sql.NullInt64
			created, updated string
		)
		if err := rows.Scan(&st.ID, &st.ThreadID, &st.Position.X, &st.Position.Y, &st.Size.Width, &st.Size.Height,
			&st.Title, &st.Content, &st.Color, &st.IsMinimized, &st.IsExpanded,
			&st.StackID, &stackIndex, &st.ZIndex, &st.PreviewText, &created, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan sticky row: %w", err)
		}
		if stackIndex.Valid {
			idx := int(stackIndex.Int64)
			st.StackIndex = &idx
		}
		if st.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		if st.UpdatedAt, err = parseTime(updated); err != nil {
			return nil, err
		}
		stickies = append(stickies, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sticky rows: %w", err)
	}

	for i := range stickies {
		msgs, err := messagesLoad(db,
			`SELECT id, role, content, timestamp, selected_text, parent_message_id
			FROM sticky_messages WHERE mindmap_id = ? AND sticky_id = ? ORDER BY seq`,
			mindmapID, stickies[i].ID)
		if err != nil {
			return nil, err
		}
		stickies[i].ChatHistory = msgs
	}
	return stickies, nil
}

func messagesLoad(db Database, query string, args ...interface{}) ([]model.Message, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var msgs []model.Message
	for rows.Next() {
		var (
			msg      model.Message
			role, ts string
		)
		if err := rows.Scan(&msg.ID, &role, &msg.Content, &ts, &msg.SelectedText, &msg.ParentMessageID); err != nil {
			return nil, fmt.Errorf("failed to scan message row: %w", err)
		}
		msg.Role = model.Role(role)
		if msg.Timestamp, err = parseTime(ts); err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating message rows: %w", err)
	}
	return msgs, nil
}

// MindmapList returns a summary of every stored mindmap, most recent first.
func (s *MindmapStorage) MindmapList() ([]model.MindmapInfo, error) {
	s.storage.mu.Lock()
	defer s.storage.mu.Unlock()

	rows, err := s.storage.GetDatabase().Query(`
		SELECT m.id, m.name, m.updated,
			(SELECT COUNT(*) FROM threads t WHERE t.mindmap_id = m.id),
			(SELECT COUNT(*) FROM stickies st WHERE st.mindmap_id = m.id)
		FROM mindmaps m ORDER BY m.updated DESC`)
	if err != nil {
		s.logger.Error(context.Background(), "Failed to query mindmaps", log.Fields{"error": err})
		return nil, fmt.Errorf("failed to query mindmaps: %w", err)
	}
	defer rows.Close()

	var infos []model.MindmapInfo
	for rows.Next() {
		var (
			info    model.MindmapInfo
			updated string
		)
		if err := rows.Scan(&info.ID, &info.Name, &updated, &info.Threads, &info.Stickies); err != nil {
			return nil, fmt.Errorf("failed to scan mindmap row: %w", err)
		}
		if info.UpdatedAt, err = parseTime(updated); err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating mindmap rows: %w", err)
	}
	return infos, nil
}

// MindmapDelete removes a mindmap and everything it owns.
func (s *MindmapStorage) MindmapDelete(id string) error {
	s.logger.Info(context.Background(), "Deleting mindmap", log.Fields{"mindmapID": id})

	s.storage.mu.Lock()
	defer s.storage.mu.Unlock()

	result, err := s.storage.GetDatabase().Exec("DELETE FROM mindmaps WHERE id = ?", id)
	if err != nil {
		s.logger.Error(context.Background(), "Failed to delete mindmap", log.Fields{"mindmapID": id, "error": err})
		return fmt.Errorf("failed to delete mindmap: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrMindmapNotFound, id)
	}
	return nil
}
