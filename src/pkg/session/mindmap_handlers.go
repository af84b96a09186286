package session

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"entropy/local-app/src/pkg/log"
	"entropy/local-app/src/pkg/model"
	"entropy/local-app/src/pkg/storage"
	"entropy/local-app/src/pkg/util"
)

const (
	defaultMinimapWidth  = 200
	defaultMinimapHeight = 150
	searchLimit          = 5
)

// Minimap is the scaled layout of the canvas.
type Minimap struct {
	Width            float64            `json:"width"`
	Height           float64            `json:"height"`
	Nodes            []util.MinimapNode `json:"nodes"`
	SelectedStickyID string             `json:"selectedStickyId,omitempty"`
}

// handleMindmapView returns a copy of the whole mindmap
func handleMindmapView(ctx context.Context, s *Session, cmd model.Command) (interface{}, error) {
	return s.DataManager.Store.Snapshot()
}

// handleMindmapSave writes the mindmap to storage
func handleMindmapSave(ctx context.Context, s *Session, cmd model.Command) (interface{}, error) {
	if err := s.DataManager.MindmapManager.MindmapSave(); err != nil {
		return nil, err
	}
	return "mindmap saved", nil
}

// handleMindmapList lists stored mindmaps
func handleMindmapList(ctx context.Context, s *Session, cmd model.Command) (interface{}, error) {
	return s.DataManager.MindmapManager.MindmapList()
}

// handleMindmapOpen replaces the current mindmap with a stored one
func handleMindmapOpen(ctx context.Context, s *Session, cmd model.Command) (interface{}, error) {
	if err := s.DataManager.MindmapManager.MindmapOpen(cmd.Args[0]); err != nil {
		return nil, err
	}
	return s.DataManager.Store.Snapshot()
}

// handleMindmapDelete removes a stored mindmap
func handleMindmapDelete(ctx context.Context, s *Session, cmd model.Command) (interface{}, error) {
	if err := s.DataManager.MindmapManager.MindmapDelete(cmd.Args[0]); err != nil {
		return nil, err
	}
	return nil, nil
}

// fileFormat returns the optional format argument, derived from the file name when absent.
func fileFormat(args []string) (string, error) {
	if len(args) < 2 {
		return storage.FormatFromPath(args[0]), nil
	}
	format := strings.ToLower(args[1])
	switch format {
	case storage.FormatJSON, storage.FormatXML, storage.FormatYAML:
		return format, nil
	case "yml":
		return storage.FormatYAML, nil
	}
	return "", fmt.Errorf("%w: invalid format: %s. Must be 'json', 'xml' or 'yaml'", ErrInvalidCommand, format)
}

// handleMindmapExport handles the mindmap export command
func handleMindmapExport(ctx context.Context, s *Session, cmd model.Command) (interface{}, error) {
	format, err := fileFormat(cmd.Args)
	if err != nil {
		return nil, err
	}
	path, err := s.filePath(cmd.Args[0])
	if err != nil {
		return nil, err
	}
	s.logger.Debug(ctx, "Exporting mindmap", log.Fields{"filename": path, "format": format})
	if err := s.DataManager.MindmapManager.MindmapExport(path, format); err != nil {
		return nil, err
	}
	return fmt.Sprintf("mindmap exported to %s", cmd.Args[0]), nil
}

// handleMindmapImport handles the mindmap import command
func handleMindmapImport(ctx context.Context, s *Session, cmd model.Command) (interface{}, error) {
	format, err := fileFormat(cmd.Args)
	if err != nil {
		return nil, err
	}
	path, err := s.filePath(cmd.Args[0])
	if err != nil {
		return nil, err
	}
	s.logger.Debug(ctx, "Importing mindmap", log.Fields{"filename": path, "format": format})
	return s.DataManager.MindmapManager.MindmapImport(path, format)
}

// handleMindmapSearch finds stickies related to the query
func handleMindmapSearch(ctx context.Context, s *Session, cmd model.Command) (interface{}, error) {
	return s.DataManager.Search(strings.Join(cmd.Args, " "), searchLimit)
}

// handleMindmapMinimap lays the stickies out in a width x height box
func handleMindmapMinimap(ctx context.Context, s *Session, cmd model.Command) (interface{}, error) {
	width, height := float64(defaultMinimapWidth), float64(defaultMinimapHeight)
	if len(cmd.Args) == 2 {
		var err error
		if width, err = parsePositive(cmd.Args[0], "width"); err != nil {
			return nil, err
		}
		if height, err = parsePositive(cmd.Args[1], "height"); err != nil {
			return nil, err
		}
	}

	snapshot, err := s.DataManager.Store.Snapshot()
	if err != nil {
		return nil, err
	}
	return Minimap{
		Width:            width,
		Height:           height,
		Nodes:            util.MinimapLayout(snapshot.Stickies, width, height),
		SelectedStickyID: s.DataManager.Store.UI().SelectedStickyID,
	}, nil
}

// handleMindmapUndo reverts the last change
func handleMindmapUndo(ctx context.Context, s *Session, cmd model.Command) (interface{}, error) {
	if err := s.DataManager.Store.Undo(); err != nil {
		return nil, err
	}
	return s.DataManager.Store.Snapshot()
}

// handleMindmapRedo re-applies the last undone change
func handleMindmapRedo(ctx context.Context, s *Session, cmd model.Command) (interface{}, error) {
	if err := s.DataManager.Store.Redo(); err != nil {
		return nil, err
	}
	return s.DataManager.Store.Snapshot()
}

func parseFloat(arg, name string) (float64, error) {
	v, err := strconv.ParseFloat(arg, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %s must be a finite number: %q", ErrInvalidCommand, name, arg)
	}
	return v, nil
}

func parsePositive(arg, name string) (float64, error) {
	v, err := parseFloat(arg, name)
	if err != nil {
		return 0, err
	}
	if v <= 0 {
		return 0, fmt.Errorf("%w: %s must be positive", ErrInvalidCommand, name)
	}
	return v, nil
}

func parsePosition(x, y string) (model.Position, error) {
	px, err := parseFloat(x, "x")
	if err != nil {
		return model.Position{}, err
	}
	py, err := parseFloat(y, "y")
	if err != nil {
		return model.Position{}, err
	}
	return model.Position{X: px, Y: py}, nil
}
