package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatEntry(t *testing.T) {
	v := newViewer(t.TempDir(), &bytes.Buffer{})
	out := v.format("commands", map[string]interface{}{
		"time":      "2024-03-01T10:11:12.123456Z",
		"level":     "INFO",
		"msg":       "Command received",
		"scope":     "thread",
		"operation": "send",
		"zeta":      1,
		"alpha":     "x",
	})

	lines := strings.Split(out, "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "24-03-01 10:11:12.123456 INFO  [commands] Command received scope=thread operation=send", lines[0])
	assert.Equal(t, "    alpha: x", lines[1])
	assert.Equal(t, "    zeta: 1", lines[2])
}

func TestPollFollowsFiles(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer
	v := newViewer(dir, &out)

	path := filepath.Join(dir, "info.log")
	require.NoError(t, os.WriteFile(path, []byte(
		`{"time":"2024-03-01T10:11:12Z","level":"INFO","msg":"Storage initialized"}`+"\n"+
			`{"time":"2024-03-01T10:11:13Z","level":"DEBUG","msg":"partial`), 0o644))

	v.poll()
	assert.Contains(t, out.String(), "New log file detected: info.log")
	assert.Contains(t, out.String(), "Storage initialized")
	assert.NotContains(t, out.String(), "partial")

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString(` line"}` + "\n" + "not json\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	out.Reset()
	v.poll()
	assert.Contains(t, out.String(), "partial line")
	assert.Contains(t, out.String(), "Error parsing log entry")
	assert.NotContains(t, out.String(), "Storage initialized")

	require.NoError(t, os.WriteFile(path, []byte(`{"level":"WARN","msg":"again"}`+"\n"), 0o644))
	out.Reset()
	v.poll()
	assert.Contains(t, out.String(), "has been truncated")
	assert.Contains(t, out.String(), "again")
}

func TestFilter(t *testing.T) {
	v := newViewer(t.TempDir(), &bytes.Buffer{})
	assert.True(t, v.matches("anything"))

	for _, r := range "Erx" {
		v.typeFilter(r, false)
	}
	assert.Equal(t, "Er", v.typeFilter(0, true))
	assert.True(t, v.matches("ERROR something"))
	assert.False(t, v.matches("INFO something"))

	v.typeFilter(0, true)
	v.typeFilter(0, true)
	assert.Equal(t, "", v.typeFilter(0, true))
}

func TestGapMarker(t *testing.T) {
	var out bytes.Buffer
	v := newViewer(t.TempDir(), &out)
	now := time.Now()

	v.gapTick(now)
	assert.Empty(t, out.String())
	v.gapTick(now.Add(time.Second))
	v.gapTick(now.Add(2 * time.Second))
	assert.Equal(t, "◆\n", out.String())
}
