package embed

import (
	"sort"
	"sync"

	"entropy/local-app/src/pkg/model"
	"entropy/local-app/src/pkg/util"
)

type document struct {
	stickyID string
	threadID string
	vector   []float64
}

// Index is an in-memory vector index of stickies. It is safe for concurrent use.
type Index struct {
	mu       sync.RWMutex
	embedder Embedder
	docs     map[string]document
}

// NewIndex returns an empty index using embedder.
func NewIndex(embedder Embedder) *Index {
	return &Index{embedder: embedder, docs: make(map[string]document)}
}

// Upsert indexes or re-indexes a sticky.
func (idx *Index) Upsert(s model.Sticky, thread *model.Thread) {
	vec := idx.embedder.Embed(DocumentText(s, thread))
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.docs[s.ID] = document{stickyID: s.ID, threadID: s.ThreadID, vector: vec}
}

// Remove drops a sticky from the index.
func (idx *Index) Remove(stickyID string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	delete(idx.docs, stickyID)
}

// Rebuild replaces the index content with the stickies of m.
func (idx *Index) Rebuild(m *model.Mindmap) {
	docs := make(map[string]document)
	if m != nil {
		threads := make(map[string]*model.Thread, len(m.Threads))
		for i := range m.Threads {
			threads[m.Threads[i].ID] = &m.Threads[i]
		}
		for _, s := range m.Stickies {
			docs[s.ID] = document{
				stickyID: s.ID,
				threadID: s.ThreadID,
				vector:   idx.embedder.Embed(DocumentText(s, threads[s.ThreadID])),
			}
		}
	}
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.docs = docs
}

// Len returns the number of indexed stickies.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.docs)
}

// Search returns up to limit stickies whose similarity to query is at least
// threshold, best first. A limit of zero or less means no limit.
func (idx *Index) Search(query string, limit int, threshold float64) []model.Context {
	qvec := idx.embedder.Embed(query)

	idx.mu.RLock()
	results := make([]model.Context, 0, len(idx.docs))
	for _, doc := range idx.docs {
		sim, err := util.CosineSimilarity(qvec, doc.vector)
		if err != nil || sim <= 0 || sim < threshold {
			continue
		}
		results = append(results, model.Context{
			ThreadID:   doc.threadID,
			StickyID:   doc.stickyID,
			Similarity: sim,
		})
	}
	idx.mu.RUnlock()

	sort.Slice(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		return results[i].StickyID < results[j].StickyID
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}
