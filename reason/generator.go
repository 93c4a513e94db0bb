// Package reason implements the thought generator: it assembles a reasoning
// prompt from the session context, recalled memories and the tool catalog,
// invokes the completion backend, and defensively parses the structured JSON
// response into a Thought.
package reason

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aetharaai/lotus/core"
	"github.com/aetharaai/lotus/internal/util"
	"github.com/aetharaai/lotus/logging"
	"github.com/aetharaai/lotus/tool"
)

const promptTemplate = `You are the reasoning core of an autonomous agent. Current time: {{.Timestamp}}.

## Request
{{.Query}}

## Session context
{{.Context}}

## Relevant memories
{{.Memories}}

## Available tools
{{.Tools}}

## Instructions
Respond with a single JSON object and nothing else: no markdown fences, no prose outside the object. The object must have exactly these fields:
{
  "understanding": "<what the request means>",
  "plan": ["<ordered step descriptions>"],
  "actions": [{"type": "tool_call|delegate|respond|query_memory", "tool": "<name>", "params": {}, "task": {"description": "", "complexity": "low|medium|high", "domain": ""}, "content": "<respond text>"}],
  "reasoning": "<why this plan>",
  "is_complete": <true when no further actions are needed and response holds the final answer>,
  "response": "<final answer, required when is_complete is true>",
  "confidence": <number in [0,1]>
}`

// Catalog supplies the prompt-facing tool descriptions. *tool.Registry
// satisfies it.
type Catalog interface {
	Descriptions() []tool.Description
}

// Options configures a Generator.
type Options struct {
	// Provider is an opaque routing hint forwarded to the completer.
	Provider string
	// Temperature is the fixed thinking temperature.
	Temperature float64
	// MaxTokens bounds the completion budget.
	MaxTokens int
	// RecallLimit bounds how many memories are recalled per thought.
	RecallLimit int
	// CompleteTimeout bounds each model call.
	CompleteTimeout time.Duration
	// RecallTimeout bounds the memory recall preceding each model call.
	RecallTimeout time.Duration
	// Logger receives structured logs. Defaults to NoOp.
	Logger logging.Logger
}

// Generator produces one Thought per loop iteration.
type Generator struct {
	completer core.Completer
	memory    core.MemoryStore
	catalog   Catalog

	provider        string
	temperature     float64
	maxTokens       int
	recallLimit     int
	completeTimeout time.Duration
	recallTimeout   time.Duration
	logger          logging.Logger
}

// NewGenerator constructs a Generator with optional overrides.
func NewGenerator(completer core.Completer, memory core.MemoryStore, catalog Catalog, optFns ...func(o *Options)) *Generator {
	opts := Options{
		Temperature:     0.7,
		MaxTokens:       2000,
		RecallLimit:     5,
		CompleteTimeout: 60 * time.Second,
		RecallTimeout:   10 * time.Second,
		Logger:          logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Generator{
		completer:       completer,
		memory:          memory,
		catalog:         catalog,
		provider:        opts.Provider,
		temperature:     opts.Temperature,
		maxTokens:       opts.MaxTokens,
		recallLimit:     opts.RecallLimit,
		completeTimeout: opts.CompleteTimeout,
		recallTimeout:   opts.RecallTimeout,
		logger:          opts.Logger,
	}
}

// Input carries the per-iteration state the generator reasons over.
type Input struct {
	SessionID string
	Query     string
	Context   string
	Iteration int
}

// Think produces the next Thought. It never returns an error: model and
// memory failures degrade to a terminal apologetic Thought or an empty memory
// list respectively.
func (g *Generator) Think(ctx context.Context, in Input) core.Thought {
	memories := g.recall(ctx, in.Query)

	prompt, err := g.buildPrompt(in, memories)
	if err != nil {
		// Template state is fully controlled here, so this is unreachable in
		// practice; degrade the same way a model failure does.
		g.logger.Error("prompt render failed", "session_id", in.SessionID, "error", err.Error())
		return terminalThought(apologyShape)
	}

	callCtx, cancel := context.WithTimeout(ctx, g.completeTimeout)
	defer cancel()

	start := time.Now()
	completion, err := g.completer.Complete(callCtx, core.CompletionRequest{
		Prompt:      prompt,
		Provider:    g.provider,
		Temperature: g.temperature,
		MaxTokens:   g.maxTokens,
	})
	if err != nil {
		g.logger.Error("model call failed", "session_id", in.SessionID, "iteration", in.Iteration, "duration", time.Since(start), "error", err.Error())
		return terminalThought(apologyModel)
	}
	g.logger.Debug("model call completed", "session_id", in.SessionID, "iteration", in.Iteration, "duration", time.Since(start))

	return ParseThought(completion.Content, g.logger)
}

// recall fetches relevant memories; failure is non-fatal and yields none.
func (g *Generator) recall(ctx context.Context, query string) []core.MemoryItem {
	if g.memory == nil || g.recallLimit <= 0 {
		return nil
	}

	recallCtx, cancel := context.WithTimeout(ctx, g.recallTimeout)
	defer cancel()

	items, err := g.memory.Recall(recallCtx, query, g.recallLimit)
	if err != nil {
		g.logger.Warn("memory recall failed, proceeding without memories", "error", err.Error())
		return nil
	}

	return items
}

func (g *Generator) buildPrompt(in Input, memories []core.MemoryItem) (string, error) {
	return util.RenderTemplate(promptTemplate, map[string]any{
		"Timestamp": time.Now().UTC().Format(time.RFC3339),
		"Query":     in.Query,
		"Context":   orPlaceholder(in.Context, "(first iteration, no prior context)"),
		"Memories":  orPlaceholder(formatMemories(memories), "(none)"),
		"Tools":     orPlaceholder(formatCatalog(g.catalog), "(none)"),
	})
}

func orPlaceholder(s, placeholder string) string {
	if strings.TrimSpace(s) == "" {
		return placeholder
	}
	return s
}

func formatMemories(items []core.MemoryItem) string {
	var b strings.Builder
	for _, item := range items {
		fmt.Fprintf(&b, "- [%s, importance %.1f] %s\n", item.Type, item.Importance, util.Truncate(item.Content, 300))
	}
	return b.String()
}

func formatCatalog(catalog Catalog) string {
	if catalog == nil {
		return ""
	}

	var b strings.Builder
	for _, d := range catalog.Descriptions() {
		fmt.Fprintf(&b, "- %s (%s): %s", d.Name, d.Category, d.Description)
		if len(d.Parameters) > 0 {
			b.WriteString(" params:")
			for name, spec := range d.Parameters {
				req := ""
				if spec.Required {
					req = ", required"
				}
				fmt.Fprintf(&b, " %s(%s%s)", name, spec.Type, req)
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}
