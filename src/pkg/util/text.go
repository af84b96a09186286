package util

import (
	"errors"
	"math"
	"strings"
	"time"
)

// ErrVectorLength is returned when two vectors cannot be compared.
var ErrVectorLength = errors.New("vectors must have the same length")

var stopWords = map[string]bool{
	"the": true, "and": true, "or": true, "but": true, "in": true, "on": true,
	"at": true, "to": true, "for": true, "of": true, "with": true, "by": true,
}

// CosineSimilarity returns the cosine of the angle between a and b.
// A zero-magnitude vector yields 0.
func CosineSimilarity(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, ErrVectorLength
	}
	var dot, magA, magB float64
	for i := range a {
		dot += a[i] * b[i]
		magA += a[i] * a[i]
		magB += b[i] * b[i]
	}
	if magA == 0 || magB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB)), nil
}

// TruncateText shortens text to maxLength runes, appending "..." when cut.
func TruncateText(text string, maxLength int) string {
	runes := []rune(text)
	if len(runes) <= maxLength {
		return text
	}
	if maxLength < 0 {
		maxLength = 0
	}
	return strings.TrimSpace(string(runes[:maxLength])) + "..."
}

// ExtractKeywords lowercases text and returns the words longer than two
// characters that are not stop words, in order of appearance.
func ExtractKeywords(text string) []string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		switch r {
		case ' ', '\t', '\n', '\r', '\f', '\v', ',', ';', ':', '.', '!', '?':
			return true
		}
		return false
	})
	keywords := make([]string, 0, len(words))
	for _, w := range words {
		if len([]rune(w)) <= 2 || stopWords[w] {
			continue
		}
		keywords = append(keywords, w)
	}
	return keywords
}

// FormatDate renders t as RFC 3339 in UTC with millisecond precision.
func FormatDate(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}

// ParseDate parses an RFC 3339 timestamp.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
