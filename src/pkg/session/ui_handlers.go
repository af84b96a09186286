package session

import (
	"context"
	"strings"

	"entropy/local-app/src/pkg/model"
)

func handleUIView(ctx context.Context, s *Session, cmd model.Command) (interface{}, error) {
	if err := s.DataManager.Store.SetActiveView(model.View(strings.ToLower(cmd.Args[0]))); err != nil {
		return nil, err
	}
	return s.DataManager.Store.UI(), nil
}

func handleUITheme(ctx context.Context, s *Session, cmd model.Command) (interface{}, error) {
	if err := s.DataManager.Store.SetTheme(model.Theme(strings.ToLower(cmd.Args[0]))); err != nil {
		return nil, err
	}
	return s.DataManager.Store.UI(), nil
}

func handleUIToggleTheme(ctx context.Context, s *Session, cmd model.Command) (interface{}, error) {
	if _, err := s.DataManager.Store.ToggleTheme(); err != nil {
		return nil, err
	}
	return s.DataManager.Store.UI(), nil
}

// handleUISelect records highlighted text; no arguments clears it
func handleUISelect(ctx context.Context, s *Session, cmd model.Command) (interface{}, error) {
	if err := s.DataManager.Store.SetSelectedText(strings.Join(cmd.Args, " ")); err != nil {
		return nil, err
	}
	return s.DataManager.Store.UI(), nil
}

func handleUIState(ctx context.Context, s *Session, cmd model.Command) (interface{}, error) {
	return s.DataManager.Store.UI(), nil
}
