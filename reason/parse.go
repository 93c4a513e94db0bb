package reason

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/aetharaai/lotus/core"
	"github.com/aetharaai/lotus/internal/util"
	"github.com/aetharaai/lotus/logging"
)

const (
	apologyJSON  = "I'm sorry - I had trouble structuring my reasoning (the model produced invalid JSON). Please try rephrasing your request."
	apologyShape = "I'm sorry - something unexpected went wrong while interpreting my reasoning. Please try again."
	apologyModel = "I'm sorry - I couldn't reach my reasoning model. Please try again in a moment."
	apologyEmpty = "I wasn't able to produce a final answer for this request."
)

// thoughtWire mirrors the JSON contract the prompt mandates. Action types are
// decoded as raw strings so unknown values can be mapped instead of rejected.
type thoughtWire struct {
	Understanding string       `json:"understanding"`
	Plan          []string     `json:"plan"`
	Actions       []actionWire `json:"actions"`
	Reasoning     string       `json:"reasoning"`
	IsComplete    bool         `json:"is_complete"`
	Response      string       `json:"response"`
	Confidence    float64      `json:"confidence"`
}

type actionWire struct {
	Type    string         `json:"type"`
	Tool    string         `json:"tool"`
	Params  map[string]any `json:"params"`
	Task    *core.TaskSpec `json:"task"`
	Content string         `json:"content"`
}

// ParseThought parses a model completion into a Thought. It never fails: any
// parse problem yields a terminal Thought with confidence 0 and a user-facing
// apology, so callers are guaranteed a well-formed value.
func ParseThought(raw string, logger logging.Logger) core.Thought {
	stripped := stripFences(raw)

	var wire thoughtWire
	if err := json.Unmarshal([]byte(stripped), &wire); err != nil {
		msg := apologyShape
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) || isJSONPrefixError(err) {
			msg = apologyJSON
		}
		logger.Warn("thought parse failed", "error", err.Error(), "preview", util.Truncate(stripped, 120))
		return terminalThought(msg)
	}

	thought := core.Thought{
		Understanding: wire.Understanding,
		Plan:          wire.Plan,
		Actions:       make([]core.Action, 0, len(wire.Actions)),
		Reasoning:     wire.Reasoning,
		IsComplete:    wire.IsComplete,
		Response:      wire.Response,
		Confidence:    clamp01(wire.Confidence),
	}

	for _, aw := range wire.Actions {
		thought.Actions = append(thought.Actions, mapAction(aw, logger))
	}

	// A complete thought must carry a non-empty response.
	if thought.IsComplete && thought.Response == "" {
		logger.Warn("complete thought missing response, substituting fallback")
		thought.Response = apologyEmpty
	}

	return thought
}

func mapAction(aw actionWire, logger logging.Logger) core.Action {
	switch core.ActionType(aw.Type) {
	case core.ActionToolCall, core.ActionDelegate, core.ActionRespond, core.ActionQueryMemory:
		return core.Action{
			Type:    core.ActionType(aw.Type),
			Tool:    aw.Tool,
			Params:  aw.Params,
			Task:    aw.Task,
			Content: aw.Content,
		}
	default:
		// Unknown or missing types degrade to a respond action instead of
		// failing the whole thought.
		logger.Warn("unknown action type mapped to respond", "type", aw.Type)
		content := aw.Content
		if content == "" {
			content = util.Preview(aw.Params, 200)
		}
		return core.Action{Type: core.ActionRespond, Content: content}
	}
}

func terminalThought(response string) core.Thought {
	return core.Thought{
		Understanding: "Failed to interpret the model response",
		Plan:          []string{},
		Actions:       []core.Action{},
		IsComplete:    true,
		Response:      response,
		Confidence:    0.0,
	}
}

// stripFences removes surrounding markdown code fences, which models emit
// despite the prompt forbidding them.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[idx+1:] // drop the opening fence line (``` or ```json)
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")

	return strings.TrimSpace(s)
}

// isJSONPrefixError catches the unexported errors encoding/json returns for
// empty or truncated input ("unexpected end of JSON input").
func isJSONPrefixError(err error) bool {
	return strings.Contains(err.Error(), "JSON")
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
