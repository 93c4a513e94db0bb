package reason

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aetharaai/lotus/core"
	"github.com/aetharaai/lotus/logging"
)

func TestParseThought_ValidJSON(t *testing.T) {
	raw := `{
		"understanding": "user wants arithmetic",
		"plan": ["calculate", "respond"],
		"actions": [
			{"type": "tool_call", "tool": "calculator", "params": {"expr": "2+2"}},
			{"type": "respond", "content": "done"}
		],
		"reasoning": "simple",
		"is_complete": false,
		"confidence": 0.9
	}`

	th := ParseThought(raw, logging.NoOpLogger{})
	assert.False(t, th.IsComplete)
	assert.Equal(t, 0.9, th.Confidence)
	require.Len(t, th.Actions, 2)
	assert.Equal(t, core.ActionToolCall, th.Actions[0].Type)
	assert.Equal(t, "calculator", th.Actions[0].Tool)
	assert.Equal(t, core.ActionRespond, th.Actions[1].Type)
}

func TestParseThought_NonJSONYieldsTerminalApology(t *testing.T) {
	th := ParseThought("I think the answer is four.", logging.NoOpLogger{})
	assert.True(t, th.IsComplete)
	assert.Equal(t, 0.0, th.Confidence)
	assert.NotEmpty(t, th.Response)
	assert.Empty(t, th.Actions)
}

func TestParseThought_EmptyInput(t *testing.T) {
	th := ParseThought("", logging.NoOpLogger{})
	assert.True(t, th.IsComplete)
	assert.Equal(t, 0.0, th.Confidence)
	assert.NotEmpty(t, th.Response)
}

func TestParseThought_MissingActionsIsEmptyList(t *testing.T) {
	th := ParseThought(`{"understanding": "x", "is_complete": false, "confidence": 0.5}`, logging.NoOpLogger{})
	assert.False(t, th.IsComplete)
	assert.NotNil(t, th.Actions)
	assert.Empty(t, th.Actions)
}

func TestParseThought_UnknownActionTypeMapsToRespond(t *testing.T) {
	raw := `{
		"actions": [{"type": "launch_rocket", "content": "countdown"}],
		"is_complete": false,
		"confidence": 0.4
	}`

	th := ParseThought(raw, logging.NoOpLogger{})
	require.Len(t, th.Actions, 1)
	assert.Equal(t, core.ActionRespond, th.Actions[0].Type)
	assert.Equal(t, "countdown", th.Actions[0].Content)
}

func TestParseThought_StripsCodeFences(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"plain fence", "```\n{\"is_complete\": true, \"response\": \"ok\", \"confidence\": 1}\n```"},
		{"json fence", "```json\n{\"is_complete\": true, \"response\": \"ok\", \"confidence\": 1}\n```"},
		{"padded fence", "\n\n```json\n{\"is_complete\": true, \"response\": \"ok\", \"confidence\": 1}\n```\n\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			th := ParseThought(tt.raw, logging.NoOpLogger{})
			assert.True(t, th.IsComplete)
			assert.Equal(t, "ok", th.Response)
			assert.Equal(t, 1.0, th.Confidence)
		})
	}
}

func TestParseThought_CompleteWithoutResponseGetsFallback(t *testing.T) {
	th := ParseThought(`{"is_complete": true, "confidence": 0.8}`, logging.NoOpLogger{})
	assert.True(t, th.IsComplete)
	assert.NotEmpty(t, th.Response)
}

func TestParseThought_ConfidenceClamped(t *testing.T) {
	th := ParseThought(`{"is_complete": true, "response": "x", "confidence": 3.5}`, logging.NoOpLogger{})
	assert.Equal(t, 1.0, th.Confidence)

	th = ParseThought(`{"is_complete": true, "response": "x", "confidence": -1}`, logging.NoOpLogger{})
	assert.Equal(t, 0.0, th.Confidence)
}
