package reason

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aetharaai/lotus/core"
	"github.com/aetharaai/lotus/memory"
	"github.com/aetharaai/lotus/model"
	"github.com/aetharaai/lotus/tool"
)

type failingMemory struct{}

func (failingMemory) Recall(context.Context, string, int) ([]core.MemoryItem, error) {
	return nil, errors.New("store offline")
}
func (failingMemory) GetByID(context.Context, []string) ([]core.MemoryItem, error) {
	return nil, errors.New("store offline")
}
func (failingMemory) Remember(context.Context, core.MemoryItem) error {
	return errors.New("store offline")
}

func newTestRegistry(t *testing.T) *tool.Registry {
	t.Helper()
	r := tool.NewRegistry()
	require.NoError(t, r.Register(tool.Calculator()))
	r.Freeze()
	return r
}

func TestGenerator_ThinkParsesCompletion(t *testing.T) {
	completer := model.NewScriptedCompleter(
		`{"understanding": "math", "actions": [{"type": "tool_call", "tool": "calculator", "params": {"expr": "2+2"}}], "is_complete": false, "confidence": 0.8}`,
	)
	g := NewGenerator(completer, memory.NewInMemoryStore(), newTestRegistry(t))

	th := g.Think(context.Background(), Input{SessionID: "s1", Query: "what is 2+2"})
	assert.False(t, th.IsComplete)
	require.Len(t, th.Actions, 1)
	assert.Equal(t, "calculator", th.Actions[0].Tool)
}

func TestGenerator_PromptCarriesQueryToolsAndMemories(t *testing.T) {
	store := memory.NewInMemoryStore()
	require.NoError(t, store.Remember(context.Background(), core.MemoryItem{
		Content: "the user prefers metric units", Type: core.MemorySemantic, Importance: 0.8,
	}))

	completer := model.NewScriptedCompleter(`{"is_complete": true, "response": "ok", "confidence": 1}`)
	g := NewGenerator(completer, store, newTestRegistry(t))

	g.Think(context.Background(), Input{SessionID: "s1", Query: "convert 3 miles to metric units"})

	prompts := completer.Prompts()
	require.Len(t, prompts, 1)
	assert.Contains(t, prompts[0], "convert 3 miles")
	assert.Contains(t, prompts[0], "calculator")
	assert.Contains(t, prompts[0], "prefers metric units")
	assert.Contains(t, prompts[0], "single JSON object")
}

func TestGenerator_ModelFailureYieldsTerminalThought(t *testing.T) {
	completer := model.NewScriptedCompleter(`unused`)
	completer.FailWith(errors.New("connection refused"))
	g := NewGenerator(completer, memory.NewInMemoryStore(), newTestRegistry(t))

	th := g.Think(context.Background(), Input{SessionID: "s1", Query: "anything"})
	assert.True(t, th.IsComplete)
	assert.Equal(t, 0.0, th.Confidence)
	assert.NotEmpty(t, th.Response)
}

func TestGenerator_RecallFailureIsNonFatal(t *testing.T) {
	completer := model.NewScriptedCompleter(`{"is_complete": true, "response": "fine", "confidence": 0.9}`)
	g := NewGenerator(completer, failingMemory{}, newTestRegistry(t))

	th := g.Think(context.Background(), Input{SessionID: "s1", Query: "anything"})
	assert.True(t, th.IsComplete)
	assert.Equal(t, "fine", th.Response)
}

func TestGenerator_NilCatalogAndMemory(t *testing.T) {
	completer := model.NewScriptedCompleter(`{"is_complete": true, "response": "bare", "confidence": 0.5}`)
	g := NewGenerator(completer, nil, nil)

	th := g.Think(context.Background(), Input{Query: "anything"})
	assert.Equal(t, "bare", th.Response)
}
