package storage

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"entropy/local-app/src/pkg/model"

	"gopkg.in/yaml.v3"
)

// Supported file formats.
const (
	FormatJSON = "json"
	FormatXML  = "xml"
	FormatYAML = "yaml"
)

type codec struct {
	marshal   func(*model.Mindmap) ([]byte, error)
	unmarshal func([]byte, *model.Mindmap) error
}

var codecs = map[string]codec{
	FormatJSON: {
		marshal:   func(m *model.Mindmap) ([]byte, error) { return json.MarshalIndent(m, "", "  ") },
		unmarshal: func(b []byte, m *model.Mindmap) error { return json.Unmarshal(b, m) },
	},
	FormatXML: {
		marshal: func(m *model.Mindmap) ([]byte, error) {
			b, err := xml.MarshalIndent(m, "", "  ")
			if err != nil {
				return nil, err
			}
			return append([]byte(xml.Header), b...), nil
		},
		unmarshal: func(b []byte, m *model.Mindmap) error { return xml.Unmarshal(b, m) },
	},
	FormatYAML: {
		marshal:   func(m *model.Mindmap) ([]byte, error) { return yaml.Marshal(m) },
		unmarshal: func(b []byte, m *model.Mindmap) error { return yaml.Unmarshal(b, m) },
	},
}

var extensions = map[string]string{
	".json": FormatJSON,
	".xml":  FormatXML,
	".yaml": FormatYAML,
	".yml":  FormatYAML,
}

// FormatFromPath guesses the file format from the extension, defaulting to JSON.
func FormatFromPath(filename string) string {
	if format, ok := extensions[strings.ToLower(filepath.Ext(filename))]; ok {
		return format
	}
	return FormatJSON
}

func codecFor(format string) (codec, error) {
	c, ok := codecs[format]
	if !ok {
		return codec{}, fmt.Errorf("unsupported format: %s", format)
	}
	return c, nil
}

// FileExport writes a mindmap to filename, creating its directory
func FileExport(mindmap *model.Mindmap, filename string, format string) error {
	c, err := codecFor(format)
	if err != nil {
		return err
	}
	data, err := c.marshal(mindmap)
	if err != nil {
		return fmt.Errorf("failed to marshal mindmap: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// FileImport reads a mindmap file and checks that the result is consistent
func FileImport(filename string, format string) (*model.Mindmap, error) {
	c, err := codecFor(format)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	var imported model.Mindmap
	if err := c.unmarshal(data, &imported); err != nil {
		return nil, fmt.Errorf("failed to unmarshal data: %w", err)
	}
	if err := model.CheckMindmap(&imported); err != nil {
		return nil, err
	}
	return &imported, nil
}
