package storage

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"entropy/local-app/src/pkg/log"

	_ "github.com/mattn/go-sqlite3"
)

// sqliteOptions are passed to the driver in the data source name
var sqliteOptions = url.Values{
	"_foreign_keys": {"on"},
	"_journal_mode": {"WAL"},
	"_busy_timeout": {"5000"},
}

// sqlitePragmas run once on the single connection after it is opened
var sqlitePragmas = []string{
	"PRAGMA synchronous = NORMAL",
	"PRAGMA cache_size = 5000",
}

// SQLiteDatabase implements the Database interface for SQLite
type SQLiteDatabase struct {
	BaseDatabase
}

func sqliteDSN(path string) string {
	return path + "?" + sqliteOptions.Encode()
}

// Open creates the database directory if needed and connects to the file
func (s *SQLiteDatabase) Open(dataSourceName string) error {
	ctx := context.Background()
	_, statErr := os.Stat(dataSourceName)
	s.logger.Info(ctx, "Opening SQLite database", log.Fields{
		"dbPath": filepath.Base(dataSourceName),
		"exists": statErr == nil,
	})

	if err := os.MkdirAll(filepath.Dir(dataSourceName), 0o755); err != nil {
		return s.openFailed("create database directory", err)
	}

	db, err := sql.Open("sqlite3", sqliteDSN(dataSourceName))
	if err != nil {
		return s.openFailed("open SQLite database", err)
	}
	// One connection keeps the open transaction visible to every statement.
	db.SetMaxOpenConns(1)

	for _, pragma := range sqlitePragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return s.openFailed(fmt.Sprintf("apply %q", pragma), err)
		}
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return s.openFailed("verify database connection", err)
	}

	s.db = db
	s.logger.Info(ctx, "SQLite database ready", nil)
	return nil
}

func (s *SQLiteDatabase) openFailed(step string, err error) error {
	s.logger.Error(context.Background(), "Failed to "+step, log.Fields{"error": err})
	return fmt.Errorf("failed to %s: %w", step, err)
}

// Close releases the connection
func (s *SQLiteDatabase) Close() error {
	if s.db == nil {
		return nil
	}
	s.logger.Info(context.Background(), "Closing SQLite database", nil)
	if err := s.db.Close(); err != nil {
		return s.openFailed("close SQLite database", err)
	}
	return nil
}
