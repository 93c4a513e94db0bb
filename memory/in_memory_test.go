package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aetharaai/lotus/core"
)

func TestInMemoryStore_RememberAssignsID(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Remember(ctx, core.MemoryItem{Content: "the sky is blue", Type: core.MemorySemantic}))

	items, err := s.Recall(ctx, "sky", 5)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.NotEmpty(t, items[0].ID)
	assert.False(t, items[0].CreatedAt.IsZero())
}

func TestInMemoryStore_RecallRanksByOverlap(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Remember(ctx, core.MemoryItem{ID: "a", Content: "deploying the billing service", Importance: 0.2}))
	require.NoError(t, s.Remember(ctx, core.MemoryItem{ID: "b", Content: "billing service deploy failed with timeout", Importance: 0.2}))
	require.NoError(t, s.Remember(ctx, core.MemoryItem{ID: "c", Content: "lunch menu", Importance: 0.9}))

	items, err := s.Recall(ctx, "billing deploy timeout", 5)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "b", items[0].ID, "more matched terms ranks first")
}

func TestInMemoryStore_RecallHonorsLimit(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		require.NoError(t, s.Remember(ctx, core.MemoryItem{Content: "repeated topic entry"}))
	}

	items, err := s.Recall(ctx, "topic", 3)
	require.NoError(t, err)
	assert.Len(t, items, 3)

	items, err = s.Recall(ctx, "topic", 0)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestInMemoryStore_GetByIDSkipsUnknown(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Remember(ctx, core.MemoryItem{ID: "known", Content: "x", CreatedAt: time.Now()}))

	items, err := s.GetByID(ctx, []string{"known", "missing"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "known", items[0].ID)
}
