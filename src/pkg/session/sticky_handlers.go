package session

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"entropy/local-app/src/pkg/model"
)

// handleStickyAdd creates a sticky note backed by a new thread
func handleStickyAdd(ctx context.Context, s *Session, cmd model.Command) (interface{}, error) {
	var pos *model.Position
	if len(cmd.Args) == 3 {
		p, err := parsePosition(cmd.Args[1], cmd.Args[2])
		if err != nil {
			return nil, err
		}
		pos = &p
	}
	id, err := s.DataManager.Store.AddStickyNote(cmd.Args[0], pos)
	if err != nil {
		return nil, err
	}
	return s.DataManager.Store.Sticky(id)
}

// handleStickyFromThread places a sticky for an existing thread
func handleStickyFromThread(ctx context.Context, s *Session, cmd model.Command) (interface{}, error) {
	pos, err := parsePosition(cmd.Args[1], cmd.Args[2])
	if err != nil {
		return nil, err
	}
	id, err := s.DataManager.Store.CreateStickyFromThread(cmd.Args[0], pos)
	if err != nil {
		return nil, err
	}
	return s.DataManager.Store.Sticky(id)
}

// handleStickyList lists the stickies on the canvas
func handleStickyList(ctx context.Context, s *Session, cmd model.Command) (interface{}, error) {
	snapshot, err := s.DataManager.Store.Snapshot()
	if err != nil {
		return nil, err
	}
	if snapshot.Stickies == nil {
		return []model.Sticky{}, nil
	}
	return snapshot.Stickies, nil
}

// handleStickyMove moves a sticky
func handleStickyMove(ctx context.Context, s *Session, cmd model.Command) (interface{}, error) {
	pos, err := parsePosition(cmd.Args[1], cmd.Args[2])
	if err != nil {
		return nil, err
	}
	if err := s.DataManager.Store.MoveSticky(cmd.Args[0], pos); err != nil {
		return nil, err
	}
	return s.DataManager.Store.Sticky(cmd.Args[0])
}

// handleStickyUpdate merges field:value pairs into a sticky
func handleStickyUpdate(ctx context.Context, s *Session, cmd model.Command) (interface{}, error) {
	current, err := s.DataManager.Store.Sticky(cmd.Args[0])
	if err != nil {
		return nil, err
	}
	update, err := parseStickyUpdate(current, cmd.Args[1:])
	if err != nil {
		return nil, err
	}
	if err := s.DataManager.Store.UpdateSticky(cmd.Args[0], update); err != nil {
		return nil, err
	}
	return s.DataManager.Store.Sticky(cmd.Args[0])
}

// parseStickyUpdate reads field:value pairs. Position and size fields are
// merged with the current values so x can change without y.
func parseStickyUpdate(current model.Sticky, pairs []string) (model.StickyUpdate, error) {
	var u model.StickyUpdate
	for _, pair := range pairs {
		field, value, ok := strings.Cut(pair, ":")
		if !ok {
			return u, fmt.Errorf("%w: expected <field>:<value>, got %q", ErrInvalidCommand, pair)
		}
		value = strings.TrimSpace(value)
		switch strings.ToLower(field) {
		case "title":
			u.Title = &value
		case "content":
			u.Content = &value
		case "color":
			u.Color = &value
		case "preview":
			u.PreviewText = &value
		case "x", "y":
			v, err := parseFloat(value, field)
			if err != nil {
				return u, err
			}
			if u.Position == nil {
				p := current.Position
				u.Position = &p
			}
			if field == "x" {
				u.Position.X = v
			} else {
				u.Position.Y = v
			}
		case "width", "height":
			v, err := parseFloat(value, field)
			if err != nil {
				return u, err
			}
			if u.Size == nil {
				sz := current.Size
				u.Size = &sz
			}
			if field == "width" {
				u.Size.Width = v
			} else {
				u.Size.Height = v
			}
		case "minimized", "expanded":
			b, err := strconv.ParseBool(value)
			if err != nil {
				return u, fmt.Errorf("%w: %s must be true or false", ErrInvalidCommand, field)
			}
			if field == "minimized" {
				u.IsMinimized = &b
			} else {
				u.IsExpanded = &b
			}
		case "z":
			z, err := strconv.Atoi(value)
			if err != nil {
				return u, fmt.Errorf("%w: z must be an integer", ErrInvalidCommand)
			}
			u.ZIndex = &z
		default:
			return u, fmt.Errorf("%w: unknown sticky field %q", ErrInvalidCommand, field)
		}
	}
	return u, nil
}

// handleStickyStack stacks the child sticky onto the parent
func handleStickyStack(ctx context.Context, s *Session, cmd model.Command) (interface{}, error) {
	if err := s.DataManager.Store.StackStickies(cmd.Args[0], cmd.Args[1]); err != nil {
		return nil, err
	}
	return s.DataManager.Store.Sticky(cmd.Args[1])
}

// handleStickyDelete removes a sticky and keeps its thread
func handleStickyDelete(ctx context.Context, s *Session, cmd model.Command) (interface{}, error) {
	if err := s.DataManager.Store.RemoveSticky(cmd.Args[0]); err != nil {
		return nil, err
	}
	return nil, nil
}

// handleStickyChat sends a message to a sticky's own conversation
func handleStickyChat(ctx context.Context, s *Session, cmd model.Command) (interface{}, error) {
	if err := s.DataManager.Store.SendMessageToSticky(ctx, cmd.Args[0], strings.Join(cmd.Args[1:], " ")); err != nil {
		return nil, err
	}
	return s.DataManager.Store.Sticky(cmd.Args[0])
}

// handleStickySelect focuses a sticky, or clears the focus without an id
func handleStickySelect(ctx context.Context, s *Session, cmd model.Command) (interface{}, error) {
	id := ""
	if len(cmd.Args) == 1 {
		id = cmd.Args[0]
	}
	if err := s.DataManager.Store.SelectSticky(id); err != nil {
		return nil, err
	}
	return s.DataManager.Store.UI(), nil
}
