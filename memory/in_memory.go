package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aetharaai/lotus/core"
)

// InMemoryStore is a naive process-local MemoryStore. Recall performs a
// case-insensitive keyword scan scored by term overlap and importance.
// Concurrency: protected by RWMutex.
type InMemoryStore struct {
	mu    sync.RWMutex
	items map[string]core.MemoryItem
}

// NewInMemoryStore creates an empty in-memory memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{items: make(map[string]core.MemoryItem)}
}

// Remember stores a copy of item, generating an id when absent.
func (s *InMemoryStore) Remember(_ context.Context, item core.MemoryItem) error {
	if item.ID == "" {
		item.ID = core.NewID()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[item.ID] = item

	return nil
}

// GetByID resolves known ids, silently skipping unknown ones.
func (s *InMemoryStore) GetByID(_ context.Context, ids []string) ([]core.MemoryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]core.MemoryItem, 0, len(ids))
	for _, id := range ids {
		if item, ok := s.items[id]; ok {
			out = append(out, item)
		}
	}

	return out, nil
}

// Recall returns up to limit items whose content overlaps the query terms,
// ordered by descending score then recency.
func (s *InMemoryStore) Recall(_ context.Context, query string, limit int) ([]core.MemoryItem, error) {
	if limit <= 0 {
		return []core.MemoryItem{}, nil
	}

	terms := queryTerms(query)

	s.mu.RLock()
	type scored struct {
		item  core.MemoryItem
		score float64
	}
	matches := make([]scored, 0, len(s.items))
	for _, item := range s.items {
		sc := scoreItem(item, terms)
		if sc > 0 {
			matches = append(matches, scored{item: item, score: sc})
		}
	}
	s.mu.RUnlock()

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].score != matches[j].score {
			return matches[i].score > matches[j].score
		}
		return matches[i].item.CreatedAt.After(matches[j].item.CreatedAt)
	})

	if len(matches) > limit {
		matches = matches[:limit]
	}
	out := make([]core.MemoryItem, len(matches))
	for i, m := range matches {
		out[i] = m.item
	}

	return out, nil
}

func queryTerms(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	terms := fields[:0]
	for _, f := range fields {
		f = strings.Trim(f, ".,!?\"'")
		if len(f) > 2 {
			terms = append(terms, f)
		}
	}
	return terms
}

// scoreItem counts matched terms and breaks ties with stored importance. An
// empty term list matches everything weakly so "recall anything recent" works.
func scoreItem(item core.MemoryItem, terms []string) float64 {
	content := strings.ToLower(item.Content)
	if len(terms) == 0 {
		return 0.1 + item.Importance/100
	}
	var hits float64
	for _, term := range terms {
		if strings.Contains(content, term) {
			hits++
		}
	}
	if hits == 0 {
		return 0
	}
	return hits + item.Importance/100
}
