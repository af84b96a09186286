package model

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMindmap() *Mindmap {
	now := time.Now()
	return &Mindmap{
		ID:             "mindmap_1",
		Name:           DefaultMindmapName,
		ActiveThreadID: "thread_main",
		MainThreadID:   "thread_main",
		Threads: []Thread{
			{ID: "thread_main", Title: MainThreadTitle, IsMainThread: true, CreatedAt: now, UpdatedAt: now},
			{ID: "thread_b", Title: "Branch", ParentThreadID: "thread_main", CreatedAt: now, UpdatedAt: now},
		},
		Stickies: []Sticky{
			{ID: "sticky_1", ThreadID: "thread_b", CreatedAt: now, UpdatedAt: now},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestValidateLLMConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*LLMConfig)
		wantErr bool
	}{
		{"default", func(c *LLMConfig) {}, false},
		{"temperature upper bound", func(c *LLMConfig) { c.Temperature = 2 }, false},
		{"temperature too high", func(c *LLMConfig) { c.Temperature = 2.1 }, true},
		{"negative temperature", func(c *LLMConfig) { c.Temperature = -0.1 }, true},
		{"unknown provider", func(c *LLMConfig) { c.Provider = "bard" }, true},
		{"bad base url", func(c *LLMConfig) { c.BaseURL = "not a url" }, true},
		{"ollama url", func(c *LLMConfig) { c.Provider = ProviderOllama; c.BaseURL = "http://localhost:11434/v1" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultLLMConfig()
			tt.mutate(&cfg)
			err := Validate(&cfg)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateMessageRole(t *testing.T) {
	msg := Message{ID: "msg_1", Role: "system", Timestamp: time.Now()}
	assert.Error(t, Validate(&msg))

	msg.Role = RoleAssistant
	assert.NoError(t, Validate(&msg))
}

func TestCheckMindmap(t *testing.T) {
	require.NoError(t, CheckMindmap(testMindmap()))

	tests := []struct {
		name   string
		mutate func(*Mindmap)
	}{
		{"second main thread", func(m *Mindmap) { m.Threads[1].IsMainThread = true }},
		{"no main thread", func(m *Mindmap) { m.Threads[0].IsMainThread = false }},
		{"unknown active thread", func(m *Mindmap) { m.ActiveThreadID = "thread_x" }},
		{"dangling sticky", func(m *Mindmap) { m.Stickies[0].ThreadID = "thread_x" }},
		{"unknown parent", func(m *Mindmap) { m.Threads[1].ParentThreadID = "thread_x" }},
		{"duplicate thread", func(m *Mindmap) { m.Threads[1].ID = "thread_main" }},
		{"no threads", func(m *Mindmap) { m.Threads = nil }},
		{"NaN position", func(m *Mindmap) { m.Stickies[0].Position.X = math.NaN() }},
		{"infinite size", func(m *Mindmap) { m.Stickies[0].Size.Width = math.Inf(1) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := testMindmap()
			tt.mutate(m)
			assert.ErrorIs(t, CheckMindmap(m), ErrInvalidMindmap)
		})
	}
}

func TestThemeToggle(t *testing.T) {
	assert.Equal(t, ThemeDark, ThemeLight.Toggle())
	assert.Equal(t, ThemeLight, ThemeDark.Toggle())
	assert.False(t, Theme("blue").Valid())
	assert.True(t, ViewMindmap.Valid())
}
