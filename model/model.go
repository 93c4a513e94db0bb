// Package model provides Completer implementations. The root package holds a
// scripted mock useful for tests and examples; provider adapters live in the
// anthropic and openai subpackages.
package model

import (
	"context"
	"fmt"
	"sync"

	"github.com/aetharaai/lotus/core"
)

// ScriptedCompleter is a lightweight in-memory Completer that replays a fixed
// sequence of completions, ignoring the prompt. It is the test double for the
// reasoning loop: script one JSON thought per expected iteration.
type ScriptedCompleter struct {
	mu      sync.Mutex
	script  []string
	next    int
	err     error
	prompts []string
}

// NewScriptedCompleter constructs a completer replaying the given responses
// in order. Calls past the end of the script repeat the final entry.
func NewScriptedCompleter(script ...string) *ScriptedCompleter {
	return &ScriptedCompleter{script: script}
}

// FailWith makes every subsequent Complete call return err.
func (s *ScriptedCompleter) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Prompts returns the prompts observed so far, in call order.
func (s *ScriptedCompleter) Prompts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.prompts))
	copy(out, s.prompts)
	return out
}

// Calls returns how many times Complete has been invoked.
func (s *ScriptedCompleter) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.prompts)
}

// Complete implements core.Completer.
func (s *ScriptedCompleter) Complete(ctx context.Context, req core.CompletionRequest) (core.Completion, error) {
	if err := ctx.Err(); err != nil {
		return core.Completion{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.prompts = append(s.prompts, req.Prompt)

	if s.err != nil {
		return core.Completion{}, s.err
	}
	if len(s.script) == 0 {
		return core.Completion{}, fmt.Errorf("scripted completer has no responses")
	}

	idx := s.next
	if idx >= len(s.script) {
		idx = len(s.script) - 1
	}
	s.next++

	return core.Completion{Content: s.script[idx]}, nil
}
