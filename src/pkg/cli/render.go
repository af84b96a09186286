package cli

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"entropy/local-app/src/pkg/model"
	"entropy/local-app/src/pkg/session"
	"entropy/local-app/src/pkg/util"
)

const (
	minimapCols   = 60
	minimapRows   = 20
	minimapLabels = "123456789abcdefghijklmnopqrstuvwxyz"
	previewLength = 80
)

// palette is the set of colours of one UI theme
type palette struct {
	accent lipgloss.Color
	muted  lipgloss.Color
	user   lipgloss.Color
	reply  lipgloss.Color
	good   lipgloss.Color
	bad    lipgloss.Color
}

var palettes = map[model.Theme]palette{
	model.ThemeLight: {
		accent: lipgloss.Color("#3b82f6"),
		muted:  lipgloss.Color("#6b7280"),
		user:   lipgloss.Color("#1f2937"),
		reply:  lipgloss.Color("#6366f1"),
		good:   lipgloss.Color("#10b981"),
		bad:    lipgloss.Color("#ef4444"),
	},
	model.ThemeDark: {
		accent: lipgloss.Color("#60a5fa"),
		muted:  lipgloss.Color("#9ca3af"),
		user:   lipgloss.Color("#f3f4f6"),
		reply:  lipgloss.Color("#a5b4fc"),
		good:   lipgloss.Color("#34d399"),
		bad:    lipgloss.Color("#f87171"),
	},
}

// Renderer formats command results for the terminal.
type Renderer struct {
	lg    *lipgloss.Renderer
	theme model.Theme

	title   lipgloss.Style
	muted   lipgloss.Style
	user    lipgloss.Style
	reply   lipgloss.Style
	success lipgloss.Style
	failure lipgloss.Style
	box     lipgloss.Style
	active  lipgloss.Style
}

// NewRenderer creates a renderer for w in the light theme.
func NewRenderer(w io.Writer) *Renderer {
	r := &Renderer{lg: lipgloss.NewRenderer(w)}
	r.SetTheme(model.ThemeLight)
	return r
}

// SetTheme switches the colours to theme. Unknown themes are ignored.
func (r *Renderer) SetTheme(theme model.Theme) {
	p, ok := palettes[theme]
	if !ok || theme == r.theme {
		return
	}
	r.theme = theme
	r.title = r.lg.NewStyle().Bold(true).Foreground(p.accent)
	r.muted = r.lg.NewStyle().Foreground(p.muted)
	r.user = r.lg.NewStyle().Bold(true).Foreground(p.user)
	r.reply = r.lg.NewStyle().Foreground(p.reply)
	r.success = r.lg.NewStyle().Foreground(p.good)
	r.failure = r.lg.NewStyle().Bold(true).Foreground(p.bad)
	r.box = r.lg.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(p.muted).Padding(0, 1)
	r.active = r.lg.NewStyle().Bold(true).Foreground(p.good)
}

// Theme returns the current theme.
func (r *Renderer) Theme() model.Theme {
	return r.theme
}

// Error formats a failed command.
func (r *Renderer) Error(err error) string {
	return r.failure.Render("Error: " + err.Error())
}

// Render formats a command result. Unknown types are printed with %v.
func (r *Renderer) Render(result interface{}) string {
	switch v := result.(type) {
	case nil:
		return ""
	case string:
		return r.success.Render(v)
	case model.Thread:
		return r.thread(v)
	case session.ThreadList:
		return r.threadList(v)
	case session.ThreadView:
		return r.threadView(v)
	case session.Branch:
		out := r.thread(v.Thread)
		if v.StickyID != "" {
			out += "\n" + r.muted.Render("sticky: "+v.StickyID)
		}
		return out
	case model.Sticky:
		return r.sticky(v)
	case []model.Sticky:
		return r.stickyList(v)
	case model.UIState:
		return r.uiState(v)
	case *model.Mindmap:
		return r.mindmap(v)
	case []model.MindmapInfo:
		return r.mindmapList(v)
	case []model.Context:
		return r.searchResults(v)
	case session.Minimap:
		return r.minimap(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func (r *Renderer) message(m model.Message) string {
	var b strings.Builder
	if m.Role == model.RoleUser {
		b.WriteString(r.user.Render("you"))
	} else {
		b.WriteString(r.reply.Render("assistant"))
	}
	b.WriteString(r.muted.Render(fmt.Sprintf(" [%s]", m.ID)))
	if m.SelectedText != "" {
		b.WriteString("\n  " + r.muted.Render("> "+util.TruncateText(m.SelectedText, previewLength)))
	}
	for _, line := range strings.Split(m.Content, "\n") {
		b.WriteString("\n  " + line)
	}
	return b.String()
}

func (r *Renderer) thread(t model.Thread) string {
	var b strings.Builder
	b.WriteString(r.title.Render(t.Title))
	b.WriteString(r.muted.Render(fmt.Sprintf(" (%s)", t.ID)))
	if t.ParentThreadID != "" {
		b.WriteString("\n" + r.muted.Render("branched from "+t.ParentThreadID+" at "+t.BranchPoint))
	}
	if len(t.Messages) == 0 {
		b.WriteString("\n" + r.muted.Render("no messages yet"))
	}
	for _, m := range t.Messages {
		b.WriteString("\n" + r.message(m))
	}
	return b.String()
}

func (r *Renderer) threadList(l session.ThreadList) string {
	lines := make([]string, 0, len(l.Threads))
	for _, t := range l.Threads {
		marker := "  "
		title := t.Title
		if t.ID == l.ActiveThreadID {
			marker = r.active.Render("* ")
			title = r.active.Render(title)
		}
		lines = append(lines, fmt.Sprintf("%s%s %s %s", marker, title,
			r.muted.Render(t.ID), r.muted.Render(fmt.Sprintf("%d messages", len(t.Messages)))))
	}
	return strings.Join(lines, "\n")
}

func (r *Renderer) threadView(v session.ThreadView) string {
	if len(v.Path) == 0 {
		return ""
	}
	titles := make([]string, len(v.Path))
	for i, t := range v.Path {
		titles[i] = t.Title
	}
	crumbs := r.muted.Render(strings.Join(titles, " > "))
	return crumbs + "\n" + r.thread(v.Thread())
}

func (r *Renderer) sticky(s model.Sticky) string {
	var b strings.Builder
	b.WriteString(r.title.Render(s.Title))
	b.WriteString("\n" + r.muted.Render(fmt.Sprintf("%s  thread %s", s.ID, s.ThreadID)))
	b.WriteString("\n" + r.muted.Render(fmt.Sprintf("at (%.0f, %.0f) size %.0fx%.0f z %d",
		s.Position.X, s.Position.Y, s.Size.Width, s.Size.Height, s.ZIndex)))
	if s.StackID != "" {
		b.WriteString("\n" + r.muted.Render("stack "+s.StackID))
	}
	if s.Content != "" {
		b.WriteString("\n" + s.Content)
	}
	if s.PreviewText != "" {
		b.WriteString("\n" + r.muted.Render(util.TruncateText(s.PreviewText, previewLength)))
	}
	for _, m := range s.ChatHistory {
		b.WriteString("\n" + r.message(m))
	}
	return r.box.Render(b.String())
}

func (r *Renderer) stickyList(stickies []model.Sticky) string {
	if len(stickies) == 0 {
		return r.muted.Render("no stickies")
	}
	lines := make([]string, 0, len(stickies))
	for _, s := range stickies {
		state := ""
		if s.IsMinimized {
			state = " minimized"
		}
		lines = append(lines, fmt.Sprintf("%s %s %s", r.title.Render(s.Title), r.muted.Render(s.ID),
			r.muted.Render(fmt.Sprintf("(%.0f, %.0f)%s", s.Position.X, s.Position.Y, state))))
	}
	return strings.Join(lines, "\n")
}

func (r *Renderer) uiState(ui model.UIState) string {
	lines := []string{
		fmt.Sprintf("view:   %s", ui.ActiveView),
		fmt.Sprintf("theme:  %s", ui.Theme),
	}
	if ui.SelectedText != "" {
		lines = append(lines, fmt.Sprintf("select: %q", ui.SelectedText))
	}
	if ui.SelectedStickyID != "" {
		lines = append(lines, fmt.Sprintf("sticky: %s", ui.SelectedStickyID))
	}
	if ui.Error != "" {
		lines = append(lines, r.failure.Render("error:  "+ui.Error))
	}
	return strings.Join(lines, "\n")
}

func (r *Renderer) mindmap(m *model.Mindmap) string {
	active := m.ActiveThreadID
	for _, t := range m.Threads {
		if t.ID == m.ActiveThreadID {
			active = t.Title
			break
		}
	}
	body := fmt.Sprintf("%s\n%s\nthreads:  %d\nstickies: %d\nactive:   %s",
		r.title.Render(m.Name), r.muted.Render(m.ID), len(m.Threads), len(m.Stickies), active)
	return r.box.Render(body)
}

func (r *Renderer) mindmapList(infos []model.MindmapInfo) string {
	if len(infos) == 0 {
		return r.muted.Render("no saved mindmaps")
	}
	lines := make([]string, 0, len(infos))
	for _, info := range infos {
		lines = append(lines, fmt.Sprintf("%s %s %s", r.title.Render(info.Name), r.muted.Render(info.ID),
			r.muted.Render(fmt.Sprintf("%d threads, %d stickies, updated %s",
				info.Threads, info.Stickies, util.FormatDate(info.UpdatedAt)))))
	}
	return strings.Join(lines, "\n")
}

func (r *Renderer) searchResults(results []model.Context) string {
	if len(results) == 0 {
		return r.muted.Render("no related stickies")
	}
	lines := make([]string, 0, len(results))
	for _, c := range results {
		lines = append(lines, fmt.Sprintf("%s %s %s", r.success.Render(fmt.Sprintf("%.2f", c.Similarity)),
			c.StickyID, r.muted.Render("thread "+c.ThreadID)))
		if n := len(c.RelevantMessages); n > 0 {
			last := c.RelevantMessages[n-1]
			lines = append(lines, "  "+util.TruncateText(last.Content, previewLength))
		}
	}
	return strings.Join(lines, "\n")
}

// minimap draws the nodes on a character grid, one label per sticky.
func (r *Renderer) minimap(m session.Minimap) string {
	if len(m.Nodes) == 0 || m.Width <= 0 || m.Height <= 0 {
		return r.muted.Render("canvas is empty")
	}
	grid := make([][]rune, minimapRows)
	for i := range grid {
		grid[i] = []rune(strings.Repeat(".", minimapCols))
	}
	sx, sy := minimapCols/m.Width, minimapRows/m.Height

	legend := make([]string, 0, len(m.Nodes))
	for i, n := range m.Nodes {
		label := '*'
		if i < len(minimapLabels) {
			label = rune(minimapLabels[i])
		}
		x0, y0 := clamp(n.X*sx, minimapCols), clamp(n.Y*sy, minimapRows)
		x1 := clamp(math.Max(n.X+n.Width, n.X+1/sx)*sx, minimapCols+1)
		y1 := clamp(math.Max(n.Y+n.Height, n.Y+1/sy)*sy, minimapRows+1)
		for y := y0; y < y1 && y < minimapRows; y++ {
			for x := x0; x < x1 && x < minimapCols; x++ {
				grid[y][x] = label
			}
		}

		entry := fmt.Sprintf("%c %s", label, n.Title)
		if n.StickyID == m.SelectedStickyID {
			entry = r.active.Render(entry + " *")
		}
		legend = append(legend, entry)
	}

	rows := make([]string, len(grid))
	for i, row := range grid {
		rows[i] = string(row)
	}
	return r.box.Render(strings.Join(rows, "\n")) + "\n" + strings.Join(legend, "\n")
}

// clamp converts v to a grid index in [0, limit-1]
func clamp(v float64, limit int) int {
	i := int(v)
	if i < 0 {
		return 0
	}
	if i > limit-1 {
		return limit - 1
	}
	return i
}
