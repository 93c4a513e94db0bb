package core

import "context"

// CompletionRequest is the normalized input to a text completion backend.
// Provider is an opaque routing hint; adapters that wrap a single provider
// may ignore it.
type CompletionRequest struct {
	Prompt      string  `json:"prompt"`
	Provider    string  `json:"provider,omitempty"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

// Completion is the raw text produced by a completion backend.
type Completion struct {
	Content string `json:"content"`
}

// Completer abstracts the language-model inference backend: given a prompt
// and sampling parameters, return free-form text. Lotus never talks to a
// provider wire protocol directly; adapters live behind this interface.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (Completion, error)
}
