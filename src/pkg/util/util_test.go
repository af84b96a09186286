package util

import (
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"entropy/local-app/src/pkg/model"
)

func TestGenerateID(t *testing.T) {
	a := GenerateID(PrefixSticky)
	b := GenerateID(PrefixSticky)
	assert.True(t, strings.HasPrefix(a, "sticky_"))
	assert.NotEqual(t, a, b)
	assert.True(t, IsValidID(a))
	assert.False(t, IsValidID("  "))
	assert.Len(t, GenerateID(""), 36)
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float64
		want float64
	}{
		{"identical", []float64{1, 0}, []float64{1, 0}, 1},
		{"orthogonal", []float64{1, 0}, []float64{0, 1}, 0},
		{"opposite", []float64{1, 2}, []float64{-1, -2}, -1},
		{"zero vector", []float64{0, 0}, []float64{1, 1}, 0},
		{"empty", nil, nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CosineSimilarity(tt.a, tt.b)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}

	_, err := CosineSimilarity([]float64{1, 2}, []float64{1})
	assert.ErrorIs(t, err, ErrVectorLength)
}

func TestTruncateText(t *testing.T) {
	assert.Equal(t, "abcd...", TruncateText("abcdefgh", 4))
	assert.Equal(t, "ab", TruncateText("ab", 4))
	assert.Equal(t, "abcd", TruncateText("abcd", 4))
	assert.Equal(t, "ab...", TruncateText("ab  cd", 4))
	assert.Equal(t, "héll...", TruncateText("héllo wörld", 4))
}

func TestExtractKeywords(t *testing.T) {
	got := ExtractKeywords("The cat and the DOG, sitting on a mat; by design!")
	assert.Equal(t, []string{"cat", "dog", "sitting", "mat", "design"}, got)
	assert.Empty(t, ExtractKeywords("a an to of"))
}

func TestDates(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 30, 15, 250_000_000, time.UTC)
	s := FormatDate(ts)
	assert.Equal(t, "2024-03-01T12:30:15.250Z", s)

	back, err := ParseDate(s)
	require.NoError(t, err)
	assert.True(t, ts.Equal(back))

	_, err = ParseDate("yesterday")
	assert.Error(t, err)
}

func TestGeometry(t *testing.T) {
	p := model.Position{X: 0, Y: 0}
	q := model.Position{X: 3, Y: 4}
	assert.Equal(t, 5.0, Distance(p, q))
	assert.Equal(t, model.Position{X: 1.5, Y: 2}, Midpoint(p, q))
}

func TestMinimapLayout(t *testing.T) {
	assert.Nil(t, MinimapLayout(nil, 200, 150))

	stickies := []model.Sticky{
		{ID: "a", Position: model.Position{X: 100, Y: 100}, Size: model.Size{Width: 300, Height: 200}},
		{ID: "b", Position: model.Position{X: 900, Y: 500}, Size: model.Size{Width: 300, Height: 200}, Color: "#fff"},
	}
	bounds, ok := Bounds(stickies)
	require.True(t, ok)
	assert.Equal(t, Rect{MinX: 100, MinY: 100, MaxX: 1200, MaxY: 700}, bounds)

	nodes := MinimapLayout(stickies, 220, 120)
	require.Len(t, nodes, 2)
	// scale = min(220/1100, 120/600, 1) * 0.8 = 0.16
	assert.InDelta(t, 20, nodes[0].X, 1e-9)
	assert.InDelta(t, 20, nodes[0].Y, 1e-9)
	assert.InDelta(t, 800*0.16+20, nodes[1].X, 1e-9)
	assert.InDelta(t, 400*0.16+20, nodes[1].Y, 1e-9)
	assert.InDelta(t, 14.4, nodes[0].Width, 1e-9)
	assert.InDelta(t, 9.6, nodes[0].Height, 1e-9)
	assert.Equal(t, model.DefaultStickyColor, nodes[0].Color)
	assert.Equal(t, "#fff", nodes[1].Color)

	tiny := MinimapLayout(stickies[:1], 10, 10)
	assert.Equal(t, 12.0, tiny[0].Width)
	assert.Equal(t, 8.0, tiny[0].Height)
}

func TestColors(t *testing.T) {
	assert.Len(t, Palette(), 18)
	assert.Contains(t, Palette(), RandomColor())
	assert.Len(t, ThemeColors("pastel"), 5)
	assert.Equal(t, []string{model.DefaultStickyColor}, ThemeColors("neon"))
}

func TestDebounce(t *testing.T) {
	var calls int32
	d := Debounce(func() { atomic.AddInt32(&calls, 1) }, 30*time.Millisecond)

	for i := 0; i < 5; i++ {
		d.Trigger()
		time.Sleep(5 * time.Millisecond)
	}
	assert.Eventually(t, func() bool { return atomic.LoadInt32(&calls) == 1 }, time.Second, 5*time.Millisecond)

	d.Trigger()
	assert.True(t, d.Stop())
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	d.Trigger()
	d.Flush()
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestCopyMindmap(t *testing.T) {
	idx := 1
	m := &model.Mindmap{
		ID:       "mindmap_1",
		Threads:  []model.Thread{{ID: "t", Messages: []model.Message{{ID: "m1"}}, Metadata: map[string]string{"k": "v"}}},
		Stickies: []model.Sticky{{ID: "s", StackIndex: &idx, ChatHistory: []model.Message{{ID: "c1"}}}},
	}
	c := CopyMindmap(m)
	require.Equal(t, m, c)

	c.Threads[0].Messages[0].Content = "changed"
	c.Threads[0].Metadata["k"] = "changed"
	*c.Stickies[0].StackIndex = 5
	c.Stickies[0].ChatHistory = append(c.Stickies[0].ChatHistory, model.Message{ID: "c2"})

	assert.Empty(t, m.Threads[0].Messages[0].Content)
	assert.Equal(t, "v", m.Threads[0].Metadata["k"])
	assert.Equal(t, 1, *m.Stickies[0].StackIndex)
	assert.Len(t, m.Stickies[0].ChatHistory, 1)
	assert.Nil(t, CopyMindmap(nil))
}
