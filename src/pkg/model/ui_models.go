package model

// Theme is the colour scheme of the interface.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// ThemeSettingKey is the settings key the theme preference is stored under.
const ThemeSettingKey = "entropy-theme"

// Valid reports whether t is a known theme.
func (t Theme) Valid() bool {
	return t == ThemeLight || t == ThemeDark
}

// Toggle returns the opposite theme.
func (t Theme) Toggle() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

// View is the main panel shown to the user.
type View string

const (
	ViewChat    View = "chat"
	ViewMindmap View = "mindmap"
)

// Valid reports whether v is a known view.
func (v View) Valid() bool {
	return v == ViewChat || v == ViewMindmap
}

// UIState is presentation state owned by the store next to the mindmap.
type UIState struct {
	ActiveView       View   `json:"activeView"`
	Theme            Theme  `json:"theme"`
	SelectedText     string `json:"selectedText,omitempty"`
	SelectedStickyID string `json:"selectedStickyId,omitempty"`
	IsProcessing     bool   `json:"isProcessing"`
	Error            string `json:"error,omitempty"`
}

// DefaultUIState returns the state a fresh store starts with.
func DefaultUIState() UIState {
	return UIState{
		ActiveView: ViewChat,
		Theme:      ThemeLight,
	}
}
