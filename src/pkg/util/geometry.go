package util

import (
	"math"

	"entropy/local-app/src/pkg/model"
)

// Distance returns the euclidean distance between two points.
func Distance(p, q model.Position) float64 {
	return math.Hypot(q.X-p.X, q.Y-p.Y)
}

// Midpoint returns the point halfway between p and q.
func Midpoint(p, q model.Position) model.Position {
	return model.Position{X: (p.X + q.X) / 2, Y: (p.Y + q.Y) / 2}
}

// Rect is an axis aligned box on the canvas.
type Rect struct {
	MinX, MinY, MaxX, MaxY float64
}

// Width of the box, never zero.
func (r Rect) Width() float64 {
	if w := r.MaxX - r.MinX; w != 0 {
		return w
	}
	return 1
}

// Height of the box, never zero.
func (r Rect) Height() float64 {
	if h := r.MaxY - r.MinY; h != 0 {
		return h
	}
	return 1
}

// Bounds returns the box enclosing every sticky. ok is false when there are none.
func Bounds(stickies []model.Sticky) (r Rect, ok bool) {
	if len(stickies) == 0 {
		return Rect{}, false
	}
	r = Rect{MinX: math.Inf(1), MinY: math.Inf(1), MaxX: math.Inf(-1), MaxY: math.Inf(-1)}
	for _, s := range stickies {
		r.MinX = math.Min(r.MinX, s.Position.X)
		r.MinY = math.Min(r.MinY, s.Position.Y)
		r.MaxX = math.Max(r.MaxX, s.Position.X+s.Size.Width)
		r.MaxY = math.Max(r.MaxY, s.Position.Y+s.Size.Height)
	}
	return r, true
}

// MinimapNode is a sticky scaled into minimap space.
type MinimapNode struct {
	StickyID string
	ThreadID string
	Title    string
	Color    string
	X, Y     float64
	Width    float64
	Height   float64
}

const (
	minimapPadding   = 20
	minimapFill      = 0.8
	minimapNodeScale = 0.3
	minimapMinWidth  = 12
	minimapMinHeight = 8
)

// MinimapLayout scales stickies into a width x height container.
func MinimapLayout(stickies []model.Sticky, width, height float64) []MinimapNode {
	bounds, ok := Bounds(stickies)
	if !ok {
		return nil
	}
	scale := math.Min(math.Min(width/bounds.Width(), height/bounds.Height()), 1) * minimapFill

	nodes := make([]MinimapNode, 0, len(stickies))
	for _, s := range stickies {
		color := s.Color
		if color == "" {
			color = model.DefaultStickyColor
		}
		nodes = append(nodes, MinimapNode{
			StickyID: s.ID,
			ThreadID: s.ThreadID,
			Title:    s.Title,
			Color:    color,
			X:        (s.Position.X-bounds.MinX)*scale + minimapPadding,
			Y:        (s.Position.Y-bounds.MinY)*scale + minimapPadding,
			Width:    math.Max(minimapMinWidth, s.Size.Width*scale*minimapNodeScale),
			Height:   math.Max(minimapMinHeight, s.Size.Height*scale*minimapNodeScale),
		})
	}
	return nodes
}
