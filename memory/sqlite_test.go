package memory

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aetharaai/lotus/core"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "memory.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, s.Remember(ctx, core.MemoryItem{
		Content:    "calculator produced 4 for 2+2",
		Type:       core.MemoryProcedural,
		Importance: 0.6,
		Metadata:   map[string]any{"outcome": "success"},
	}))

	items, err := s.Recall(ctx, "calculator", 5)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, core.MemoryProcedural, items[0].Type)
	assert.Equal(t, "success", items[0].Metadata["outcome"])
}

func TestSQLiteStore_RecallRanking(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, s.Remember(ctx, core.MemoryItem{ID: "weak", Content: "deploy note", Importance: 0.1}))
	require.NoError(t, s.Remember(ctx, core.MemoryItem{ID: "strong", Content: "deploy failed with network timeout", Importance: 0.1}))
	require.NoError(t, s.Remember(ctx, core.MemoryItem{ID: "off", Content: "unrelated", Importance: 0.9}))

	items, err := s.Recall(ctx, "deploy timeout", 5)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "strong", items[0].ID)
}

func TestSQLiteStore_GetByID(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, s.Remember(ctx, core.MemoryItem{ID: "m1", Content: "one"}))
	require.NoError(t, s.Remember(ctx, core.MemoryItem{ID: "m2", Content: "two"}))

	items, err := s.GetByID(ctx, []string{"m2", "nope"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "m2", items[0].ID)

	items, err = s.GetByID(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestSQLiteStore_RememberOverwrites(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, s.Remember(ctx, core.MemoryItem{ID: "m1", Content: "draft"}))
	require.NoError(t, s.Remember(ctx, core.MemoryItem{ID: "m1", Content: "final"}))

	items, err := s.GetByID(ctx, []string{"m1"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "final", items[0].Content)
}
