package model

import "time"

// SessionInfo is the externally visible summary of a session.
type SessionInfo struct {
	ID           string    `json:"id"`
	ActiveThread string    `json:"active_thread"`
	LastActivity time.Time `json:"last_activity"`
}
