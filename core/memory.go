package core

import (
	"context"
	"time"
)

// MemoryType classifies long-term memory records.
type MemoryType string

const (
	// MemoryEpisodic records raw experienced events.
	MemoryEpisodic MemoryType = "episodic"
	// MemoryProcedural records how a plan was executed and whether it worked.
	MemoryProcedural MemoryType = "procedural"
	// MemorySemantic records distilled facts and successful patterns.
	MemorySemantic MemoryType = "semantic"
)

// MemoryItem is one long-term memory record.
type MemoryItem struct {
	ID         string         `json:"id"`
	Content    string         `json:"content"`
	Type       MemoryType     `json:"type"`
	Importance float64        `json:"importance"` // [0,1]
	CreatedAt  time.Time      `json:"created_at"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// MemoryStore defines persistence plus retrieval for long-term memory.
// Implementations can back Recall with embeddings, keywords or any heuristic.
// All methods must be safe for concurrent use; failures are treated as
// "no data" by callers, never as fatal.
type MemoryStore interface {
	// Recall returns up to limit items relevant to query, most relevant first.
	Recall(ctx context.Context, query string, limit int) ([]MemoryItem, error)

	// GetByID resolves explicitly referenced items. Unknown ids are skipped,
	// not reported as errors.
	GetByID(ctx context.Context, ids []string) ([]MemoryItem, error)

	// Remember persists one item. An empty ID is filled in by the store.
	Remember(ctx context.Context, item MemoryItem) error
}
