package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cast"
)

// gapAfter is the quiet time after which a separator is printed
const gapAfter = 100 * time.Millisecond

// inlineFields are shown on the first line of an entry instead of below it
var inlineFields = []string{"sessionID", "scope", "operation", "args"}

// viewer tails the JSON log files of a directory
type viewer struct {
	dir string
	out io.Writer

	timeStyle   lipgloss.Style
	sourceStyle lipgloss.Style
	keyStyle    lipgloss.Style
	gapStyle    lipgloss.Style
	levelStyles map[string]lipgloss.Style
	noteStyle   lipgloss.Style
	errStyle    lipgloss.Style

	mu         sync.Mutex
	filter     string
	lastPrint  time.Time
	gapPrinted bool
	positions  map[string]int64
	known      map[string]bool
}

func newViewer(dir string, out io.Writer) *viewer {
	r := lipgloss.NewRenderer(out)
	return &viewer{
		dir:         dir,
		out:         out,
		timeStyle:   r.NewStyle().Foreground(lipgloss.Color("5")),
		sourceStyle: r.NewStyle().Foreground(lipgloss.Color("8")),
		keyStyle:    r.NewStyle().Foreground(lipgloss.Color("6")),
		gapStyle:    r.NewStyle().Foreground(lipgloss.Color("5")),
		levelStyles: map[string]lipgloss.Style{
			"DEBUG": r.NewStyle().Foreground(lipgloss.Color("4")),
			"INFO":  r.NewStyle().Foreground(lipgloss.Color("2")),
			"WARN":  r.NewStyle().Foreground(lipgloss.Color("3")),
			"ERROR": r.NewStyle().Bold(true).Foreground(lipgloss.Color("1")),
		},
		noteStyle: r.NewStyle().Foreground(lipgloss.Color("2")),
		errStyle:  r.NewStyle().Foreground(lipgloss.Color("1")),
		lastPrint: time.Now(),
		positions: make(map[string]int64),
		known:     make(map[string]bool),
	}
}

// run polls the log files and prints gap markers until ctx is done
func (v *viewer) run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		v.poll()
		v.gapTick(time.Now())
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// poll prints the entries appended to every *.log file since the last poll
func (v *viewer) poll() {
	files, err := filepath.Glob(filepath.Join(v.dir, "*.log"))
	if err != nil {
		v.println(v.errStyle.Render(fmt.Sprintf("Error reading log directory: %v", err)))
		return
	}
	sort.Strings(files)
	for _, path := range files {
		v.mu.Lock()
		isNew := !v.known[path]
		v.known[path] = true
		v.mu.Unlock()
		if isNew {
			v.println(v.noteStyle.Render("New log file detected: " + filepath.Base(path)))
		}
		if err := v.readFile(path); err != nil {
			v.println(v.errStyle.Render(fmt.Sprintf("Error reading %s: %v", filepath.Base(path), err)))
		}
	}
}

// readFile prints the complete lines after the stored offset of path
func (v *viewer) readFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return err
	}
	v.mu.Lock()
	pos := v.positions[path]
	v.mu.Unlock()
	if stat.Size() < pos {
		v.println(v.noteStyle.Render(filepath.Base(path) + " has been truncated, starting from beginning"))
		pos = 0
	}
	if _, err := f.Seek(pos, io.SeekStart); err != nil {
		return err
	}

	source := strings.TrimSuffix(filepath.Base(path), ".log")
	reader := bufio.NewReader(f)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			// a partial line is read again on the next poll
			break
		}
		pos += int64(len(line))

		var entry map[string]interface{}
		if jerr := json.Unmarshal([]byte(line), &entry); jerr != nil {
			v.println(v.errStyle.Render(fmt.Sprintf("Error parsing log entry: %v", jerr)))
			continue
		}
		formatted := v.format(source, entry)
		if v.matches(formatted) {
			v.println(formatted)
		}
	}

	v.mu.Lock()
	v.positions[path] = pos
	v.mu.Unlock()
	return nil
}

// format renders one log entry: time, level, source and message, then the
// remaining attributes one per line in key order
func (v *viewer) format(source string, entry map[string]interface{}) string {
	level := strings.ToUpper(cast.ToString(entry["level"]))
	levelStyle, ok := v.levelStyles[level]
	if !ok {
		levelStyle = lipgloss.NewStyle()
	}

	var b strings.Builder
	b.WriteString(v.timeStyle.Render(formatTimestamp(cast.ToString(entry["time"]))))
	b.WriteString(" " + levelStyle.Render(fmt.Sprintf("%-5s", level)))
	b.WriteString(" " + v.sourceStyle.Render(fmt.Sprintf("[%s]", source)))
	b.WriteString(" " + cast.ToString(entry["msg"]))

	for _, key := range inlineFields {
		if value, ok := entry[key]; ok {
			b.WriteString(" " + v.keyStyle.Render(key+"=") + fmt.Sprint(value))
		}
	}

	keys := make([]string, 0, len(entry))
	for key := range entry {
		switch key {
		case "time", "level", "msg":
			continue
		}
		if contains(inlineFields, key) {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		b.WriteString(fmt.Sprintf("\n    %s %v", v.keyStyle.Render(key+":"), entry[key]))
	}
	return b.String()
}

func formatTimestamp(timestamp string) string {
	t, err := time.Parse(time.RFC3339Nano, timestamp)
	if err != nil {
		return timestamp
	}
	return t.Format("06-01-02 15:04:05.000000")
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

// matches reports whether a formatted entry passes the filter, case-insensitively
func (v *viewer) matches(formatted string) bool {
	v.mu.Lock()
	filter := v.filter
	v.mu.Unlock()
	return filter == "" || strings.Contains(strings.ToLower(formatted), strings.ToLower(filter))
}

// typeFilter appends r to the filter, or removes the last rune when backspace is set
func (v *viewer) typeFilter(r rune, backspace bool) string {
	v.mu.Lock()
	defer v.mu.Unlock()
	if backspace {
		if runes := []rune(v.filter); len(runes) > 0 {
			v.filter = string(runes[:len(runes)-1])
		}
	} else {
		v.filter += string(r)
	}
	return v.filter
}

// gapTick prints one separator once output has been quiet for gapAfter
func (v *viewer) gapTick(now time.Time) {
	v.mu.Lock()
	show := !v.gapPrinted && now.Sub(v.lastPrint) > gapAfter
	if show {
		v.gapPrinted = true
	}
	v.mu.Unlock()
	if show {
		fmt.Fprintln(v.out, v.gapStyle.Render("◆"))
	}
}

func (v *viewer) println(s string) {
	fmt.Fprintln(v.out, s)
	v.mu.Lock()
	v.lastPrint = time.Now()
	v.gapPrinted = false
	v.mu.Unlock()
}
