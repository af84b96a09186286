// Package util holds small helpers shared across the Entropy packages.
package util

import (
	"strings"

	"github.com/google/uuid"
)

// Id prefixes for each record kind.
const (
	PrefixMindmap = "mindmap"
	PrefixThread  = "thread"
	PrefixMessage = "msg"
	PrefixSticky  = "sticky"
	PrefixStack   = "stack"
)

// GenerateID returns a random identifier. A non-empty prefix is joined with an underscore.
func GenerateID(prefix string) string {
	id := uuid.NewString()
	if prefix == "" {
		return id
	}
	return prefix + "_" + id
}

// IsValidID reports whether id is a non-blank string.
func IsValidID(id string) bool {
	return strings.TrimSpace(id) != ""
}
