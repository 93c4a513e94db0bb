// Package openai provides a Completer backed by the OpenAI Chat Completions API.
package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"

	"github.com/aetharaai/lotus/core"
)

// Options configures the OpenAI adapter. Model and MaxCompletionTokens act as
// defaults; per-request sampling parameters take precedence when set.
type Options struct {
	Model               string
	MaxCompletionTokens int64
}

// Completer wraps the OpenAI Chat Completions API behind core.Completer.
type Completer struct {
	client *openai.Client
	opts   Options
}

// New creates a Completer using the official client (API key from env).
func New(optFns ...func(o *Options)) *Completer {
	client := openai.NewClient()
	return NewFromClient(&client, optFns...)
}

// NewFromClient creates a Completer from an existing client.
func NewFromClient(client *openai.Client, optFns ...func(o *Options)) *Completer {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		MaxCompletionTokens: 4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Completer{client: client, opts: opts}
}

// Complete implements core.Completer with a single user message.
func (c *Completer) Complete(ctx context.Context, req core.CompletionRequest) (core.Completion, error) {
	maxTokens := c.opts.MaxCompletionTokens
	if req.MaxTokens > 0 {
		maxTokens = int64(req.MaxTokens)
	}

	params := openai.ChatCompletionNewParams{
		Model:               c.opts.Model,
		Temperature:         openai.Float(req.Temperature),
		MaxCompletionTokens: openai.Int(maxTokens),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(req.Prompt),
		},
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return core.Completion{}, fmt.Errorf("openai api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return core.Completion{}, fmt.Errorf("openai api returned no choices")
	}

	return core.Completion{Content: resp.Choices[0].Message.Content}, nil
}
