// Package log provides functionality for logging commands, errors and diagnostics
package log

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"entropy/local-app/src/pkg/model"
)

// Fields are structured attributes attached to a log record
type Fields map[string]interface{}

// LogMessage represents a message queued for the writer goroutine
type LogMessage struct {
	Level   LogLevel
	Content string
	Fields  Fields
	Context context.Context
}

// Logger writes to the command, error, and info log files
type Logger struct {
	commandLogger *slog.Logger
	errorLogger   *slog.Logger
	infoLogger    *slog.Logger
	files         []*os.File
	logChan       chan LogMessage
	wg            sync.WaitGroup
	mu            sync.RWMutex
	closed        bool
	level         LogLevel
}

// NewLogger creates a Logger writing into cfg.LogFolder. Messages more verbose than level are dropped.
func NewLogger(cfg *model.Config, level LogLevel) (*Logger, error) {
	if err := os.MkdirAll(cfg.LogFolder, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	var files []*os.File
	open := func(name string) (*os.File, error) {
		f, err := os.OpenFile(filepath.Join(cfg.LogFolder, name), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			for _, opened := range files {
				opened.Close()
			}
			return nil, fmt.Errorf("failed to open log file %s: %w", name, err)
		}
		files = append(files, f)
		return f, nil
	}

	commandFile, err := open(cfg.CommandLog)
	if err != nil {
		return nil, err
	}
	errorFile, err := open(cfg.ErrorLog)
	if err != nil {
		return nil, err
	}
	infoFile, err := open(cfg.InfoLog)
	if err != nil {
		return nil, err
	}

	logger := &Logger{
		commandLogger: slog.New(slog.NewJSONHandler(commandFile, &slog.HandlerOptions{Level: slog.LevelInfo})),
		errorLogger:   slog.New(slog.NewJSONHandler(errorFile, &slog.HandlerOptions{Level: slog.LevelWarn})),
		infoLogger:    slog.New(slog.NewJSONHandler(infoFile, &slog.HandlerOptions{Level: slog.LevelDebug})),
		files:         files,
		logChan:       make(chan LogMessage, 100),
		level:         level,
	}

	logger.wg.Add(1)
	go logger.processLogs()

	return logger, nil
}

// processLogs drains the channel until it is closed
func (l *Logger) processLogs() {
	defer l.wg.Done()
	for msg := range l.logChan {
		ctx := msg.Context
		if ctx == nil {
			ctx = context.Background()
		}
		attrs := msg.Fields.attrs()
		switch msg.Level {
		case LevelCommand:
			l.commandLogger.LogAttrs(ctx, slog.LevelInfo, msg.Content, attrs...)
		case LevelError, LevelWarn:
			l.errorLogger.LogAttrs(ctx, msg.Level.toSlogLevel(), msg.Content, attrs...)
		default:
			l.infoLogger.LogAttrs(ctx, msg.Level.toSlogLevel(), msg.Content, attrs...)
		}
	}
}

func (f Fields) attrs() []slog.Attr {
	if len(f) == 0 {
		return nil
	}
	attrs := make([]slog.Attr, 0, len(f))
	for k, v := range f {
		if err, ok := v.(error); ok {
			v = err.Error()
		}
		attrs = append(attrs, slog.Any(k, v))
	}
	return attrs
}

func (l *Logger) log(ctx context.Context, level LogLevel, msg string, fields Fields) {
	if l == nil {
		return
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed || level > l.level {
		return
	}
	l.logChan <- LogMessage{Level: level, Content: msg, Fields: fields, Context: ctx}
}

// Command records an executed command
func (l *Logger) Command(ctx context.Context, msg string, fields Fields) {
	l.log(ctx, LevelCommand, msg, fields)
}

func (l *Logger) Error(ctx context.Context, msg string, fields Fields) {
	l.log(ctx, LevelError, msg, fields)
}

func (l *Logger) Warn(ctx context.Context, msg string, fields Fields) {
	l.log(ctx, LevelWarn, msg, fields)
}

func (l *Logger) Info(ctx context.Context, msg string, fields Fields) {
	l.log(ctx, LevelInfo, msg, fields)
}

func (l *Logger) Debug(ctx context.Context, msg string, fields Fields) {
	l.log(ctx, LevelDebug, msg, fields)
}

// Level returns the most verbose level currently written
func (l *Logger) Level() LogLevel {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.level
}

// SetLevel changes the most verbose level written
func (l *Logger) SetLevel(level LogLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// Close flushes pending messages and closes all log files
func (l *Logger) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	close(l.logChan)
	l.mu.Unlock()

	l.wg.Wait()

	var firstErr error
	for _, f := range l.files {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close log file %s: %w", f.Name(), err)
		}
	}
	return firstErr
}
