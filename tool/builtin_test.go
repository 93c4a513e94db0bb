package tool

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aetharaai/lotus/core"
)

func TestEvalExpr(t *testing.T) {
	tests := []struct {
		expr    string
		want    float64
		wantErr bool
	}{
		{"2+2", 4, false},
		{"2 + 3 * 4", 14, false},
		{"(2+3)*4", 20, false},
		{"10/4", 2.5, false},
		{"-3 + 5", 2, false},
		{"1/0", 0, true},
		{"2 +", 0, true},
		{"", 0, true},
		{"two plus two", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := evalExpr(tt.expr)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestCalculatorTool(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(Calculator()))

	res := r.Execute(context.Background(), "calculator", map[string]any{"expr": "2+2"})
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "4", res.Result)

	res = r.Execute(context.Background(), "calculator", map[string]any{"expr": "7/2"})
	require.True(t, res.Success)
	assert.Equal(t, "3.5", res.Result)
}

type stubStore struct {
	remembered []core.MemoryItem
}

func (s *stubStore) Recall(context.Context, string, int) ([]core.MemoryItem, error) {
	return nil, nil
}

func (s *stubStore) GetByID(context.Context, []string) ([]core.MemoryItem, error) {
	return nil, nil
}

func (s *stubStore) Remember(_ context.Context, item core.MemoryItem) error {
	s.remembered = append(s.remembered, item)
	return nil
}

func TestMemoryWriteTool(t *testing.T) {
	store := &stubStore{}
	r := NewRegistry()
	require.NoError(t, r.Register(MemoryWrite(store)))

	res := r.Execute(context.Background(), "remember", map[string]any{"content": "2+2=4"})
	require.True(t, res.Success, res.Error)

	require.Len(t, store.remembered, 1)
	assert.Equal(t, "2+2=4", store.remembered[0].Content)
	assert.Equal(t, core.MemoryEpisodic, store.remembered[0].Type)
	assert.InDelta(t, 0.5, store.remembered[0].Importance, 1e-9)

	// A missing required content parameter never reaches the handler.
	res = r.Execute(context.Background(), "remember", map[string]any{})
	assert.False(t, res.Success)
	assert.Len(t, store.remembered, 1)
}

func TestClockTool(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(Clock()))

	res := r.Execute(context.Background(), "current_time", nil)
	require.True(t, res.Success)
	assert.NotEmpty(t, res.Result)
}
