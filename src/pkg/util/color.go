package util

import (
	"math/rand"
	"strings"

	"entropy/local-app/src/pkg/model"
)

var palette = []string{
	"#ef4444", "#f97316", "#f59e0b", "#eab308",
	"#84cc16", "#22c55e", "#10b981", "#14b8a6",
	"#06b6d4", "#0ea5e9", "#3b82f6", "#6366f1",
	"#8b5cf6", "#a855f7", "#c084fc", "#d946ef",
	"#ec4899", "#f43f5e",
}

var stickyThemes = map[string][]string{
	"pastel": {
		"rgba(255, 182, 193, 0.85)",
		"rgba(221, 160, 221, 0.85)",
		"rgba(173, 216, 230, 0.85)",
		"rgba(255, 218, 185, 0.85)",
		"rgba(152, 251, 152, 0.85)",
	},
	"warm": {
		"rgba(255, 99, 71, 0.85)",
		"rgba(255, 165, 0, 0.85)",
		"rgba(255, 215, 0, 0.85)",
		"rgba(255, 192, 203, 0.85)",
		"rgba(255, 160, 122, 0.85)",
	},
	"cold": {
		"rgba(70, 130, 180, 0.85)",
		"rgba(32, 178, 170, 0.85)",
		"rgba(72, 209, 204, 0.85)",
		"rgba(135, 206, 250, 0.85)",
		"rgba(176, 196, 222, 0.85)",
	},
	"vintage": {
		"rgba(139, 69, 19, 0.85)",
		"rgba(160, 82, 45, 0.85)",
		"rgba(188, 143, 143, 0.85)",
		"rgba(205, 133, 63, 0.85)",
		"rgba(222, 184, 135, 0.85)",
	},
	"default": {model.DefaultStickyColor},
}

// Palette returns a copy of the accent colour palette.
func Palette() []string {
	return append([]string(nil), palette...)
}

// RandomColor picks a colour from the palette.
func RandomColor() string {
	return palette[rand.Intn(len(palette))]
}

// ThemeColors returns the sticky colours of a named theme, or the default theme.
func ThemeColors(name string) []string {
	colors, ok := stickyThemes[strings.ToLower(name)]
	if !ok {
		colors = stickyThemes["default"]
	}
	return append([]string(nil), colors...)
}

// ThemeNames lists the sticky colour themes.
func ThemeNames() []string {
	return []string{"default", "pastel", "warm", "cold", "vintage"}
}
