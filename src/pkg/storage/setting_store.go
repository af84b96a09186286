package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"entropy/local-app/src/pkg/log"
)

// SettingStore persists small key/value preferences.
type SettingStore interface {
	SettingGet(key string) (string, bool, error)
	SettingSet(key, value string) error
}

// SettingStorage implements the SettingStore interface.
type SettingStorage struct {
	storage *Storage
	logger  *log.Logger
}

// NewSettingStorage creates a new SettingStorage instance.
func NewSettingStorage(storage *Storage) *SettingStorage {
	return &SettingStorage{
		storage: storage,
		logger:  storage.logger,
	}
}

// SettingGet returns the stored value and whether the key was set.
func (s *SettingStorage) SettingGet(key string) (string, bool, error) {
	s.storage.mu.Lock()
	defer s.storage.mu.Unlock()

	var value string
	err := s.storage.GetDatabase().QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read setting %s: %w", key, err)
	}
	return value, true, nil
}

// SettingSet stores value under key, replacing any previous value.
func (s *SettingStorage) SettingSet(key, value string) error {
	s.storage.mu.Lock()
	defer s.storage.mu.Unlock()

	_, err := s.storage.GetDatabase().Exec(
		`INSERT INTO settings (key, value, updated) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated = excluded.updated`,
		key, value, formatTime(time.Now()),
	)
	if err != nil {
		s.logger.Error(context.Background(), "Failed to store setting", log.Fields{"key": key, "error": err})
		return fmt.Errorf("failed to store setting %s: %w", key, err)
	}
	s.logger.Debug(context.Background(), "Setting stored", log.Fields{"key": key})
	return nil
}
