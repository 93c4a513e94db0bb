package core

import (
	"time"

	"github.com/google/uuid"
)

// Topic names used on the pub/sub transport. Inbound topics are consumed by
// the orchestrator, outbound topics are published by it.
const (
	TopicInboundEvents = "lotus/events/inbound"
	TopicToolResults   = "lotus/tools/results"

	TopicThoughts    = "lotus/thoughts"
	TopicResponses   = "lotus/responses"
	TopicToolCalls   = "lotus/tools/calls"
	TopicDelegations = "lotus/delegations"
)

// InboundEvent is one perceived signal or user request delivered over the
// transport. UserQuery takes precedence over Summary as the effective query.
type InboundEvent struct {
	Summary              string   `json:"summary"`
	MemoryReferences     []string `json:"memory_references,omitempty"`
	OriginalEventContext any      `json:"original_event_context,omitempty"`
	Importance           float64  `json:"importance"`
	UserQuery            string   `json:"user_query,omitempty"`
	SourceModule         string   `json:"source_module,omitempty"`
}

// EffectiveQuery returns the text the reasoning loop should act on.
func (e InboundEvent) EffectiveQuery() string {
	if e.UserQuery != "" {
		return e.UserQuery
	}
	return e.Summary
}

// ThoughtEvent is published once per iteration for observability, regardless
// of whether the thought completed the session.
type ThoughtEvent struct {
	SessionID string  `json:"session_id"`
	Iteration int     `json:"iteration"`
	Thought   Thought `json:"thought"`
}

// ResponseEvent carries a final or interleaved response to the user.
type ResponseEvent struct {
	SessionID string `json:"session_id"`
	Content   string `json:"content"`
	Type      string `json:"type"` // always "text"
}

// NewResponseEvent builds a text response event for a session.
func NewResponseEvent(sessionID, content string) ResponseEvent {
	return ResponseEvent{SessionID: sessionID, Content: content, Type: "text"}
}

// ToolCallEvent is the tool-call side channel published for external
// observers and executors after every tool execution.
type ToolCallEvent struct {
	SessionID     string        `json:"session_id"`
	Tool          string        `json:"tool"`
	Result        any           `json:"result,omitempty"`
	Error         string        `json:"error,omitempty"`
	Success       bool          `json:"success"`
	ExecutionTime time.Duration `json:"execution_time"`
}

// DelegationEvent requests that an external worker run a sub-task on the
// selected provider tier. CallbackTag correlates the eventual result back to
// the originating session.
type DelegationEvent struct {
	SessionID   string   `json:"session_id"`
	Task        TaskSpec `json:"task"`
	Provider    string   `json:"provider"`
	CallbackTag string   `json:"callback_tag"`
}

// ToolResultEvent is delivered by the transport when an asynchronously
// dispatched tool or delegation result arrives for a session.
type ToolResultEvent struct {
	SessionID string `json:"session_id"`
	Tool      string `json:"tool"`
	Result    any    `json:"result,omitempty"`
	Error     string `json:"error,omitempty"`
}

// NewID generates a unique identifier for sessions and correlation tags.
func NewID() string { return uuid.NewString() }
