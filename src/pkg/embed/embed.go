// Package embed turns sticky text into vectors and answers similarity queries over them.
package embed

import (
	"encoding/binary"
	"math"
	"strings"

	"golang.org/x/crypto/blake2b"

	"entropy/local-app/src/pkg/model"
	"entropy/local-app/src/pkg/util"
)

// DefaultDimension is the vector size used when none is configured.
const DefaultDimension = 256

// Embedder maps text to a fixed-size vector.
type Embedder interface {
	Embed(text string) []float64
	Dimension() int
}

// HashEmbedder is a deterministic bag-of-keywords embedder. Each keyword is
// hashed with BLAKE2b into a signed bucket and the result is normalised.
type HashEmbedder struct {
	dim int
}

// NewHashEmbedder returns an embedder producing vectors of size dim.
func NewHashEmbedder(dim int) *HashEmbedder {
	if dim <= 0 {
		dim = DefaultDimension
	}
	return &HashEmbedder{dim: dim}
}

func (e *HashEmbedder) Dimension() int { return e.dim }

// Embed returns a unit vector for text, or the zero vector when text has no keywords.
func (e *HashEmbedder) Embed(text string) []float64 {
	vec := make([]float64, e.dim)
	for _, word := range util.ExtractKeywords(text) {
		sum := blake2b.Sum256([]byte(word))
		bucket := binary.BigEndian.Uint64(sum[:8]) % uint64(e.dim)
		if sum[8]&1 == 0 {
			vec[bucket]++
		} else {
			vec[bucket]--
		}
	}

	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	if norm == 0 {
		return vec
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] /= norm
	}
	return vec
}

// DocumentText is the text indexed for a sticky: its title, content, chat and,
// when known, the messages of its thread.
func DocumentText(s model.Sticky, thread *model.Thread) string {
	parts := []string{s.Title, s.Content}
	for _, m := range s.ChatHistory {
		parts = append(parts, m.Content)
	}
	if thread != nil {
		parts = append(parts, thread.Title)
		for _, m := range thread.Messages {
			parts = append(parts, m.Content)
		}
	}
	return strings.Join(parts, " ")
}
