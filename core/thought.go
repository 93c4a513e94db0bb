package core

// ActionType discriminates the closed set of action variants a Thought may
// carry. Unknown values produced by a model are mapped to ActionRespond at
// the parse boundary rather than rejected.
type ActionType string

const (
	// ActionToolCall requests execution of a registered tool.
	ActionToolCall ActionType = "tool_call"
	// ActionDelegate routes a sub-task to a downstream provider tier.
	ActionDelegate ActionType = "delegate"
	// ActionRespond publishes a direct response to the user and always ends
	// the current action batch.
	ActionRespond ActionType = "respond"
	// ActionQueryMemory performs a recall against the long-term memory store.
	ActionQueryMemory ActionType = "query_memory"
)

// TaskSpec describes a delegated sub-task. Complexity and Domain drive the
// provider tier selection heuristics in the dispatcher.
type TaskSpec struct {
	Description string `json:"description"`
	Complexity  string `json:"complexity,omitempty"` // "low", "medium", "high"
	Domain      string `json:"domain,omitempty"`     // e.g. "code", "architecture"
}

// Action is one planned step within a Thought. Only the fields relevant to
// the variant selected by Type are populated.
type Action struct {
	Type    ActionType     `json:"type"`
	Tool    string         `json:"tool,omitempty"`
	Params  map[string]any `json:"params,omitempty"`
	Task    *TaskSpec      `json:"task,omitempty"`
	Content string         `json:"content,omitempty"`
}

// Thought is a single reasoning snapshot produced by the thought generator.
//
// Invariant: if IsComplete is true, Response is non-empty. The generator
// enforces this at the parse boundary so loop code can rely on it.
type Thought struct {
	Understanding string   `json:"understanding"`
	Plan          []string `json:"plan"`
	Actions       []Action `json:"actions"`
	Reasoning     string   `json:"reasoning"`
	IsComplete    bool     `json:"is_complete"`
	Response      string   `json:"response,omitempty"`
	Confidence    float64  `json:"confidence"`
}

// Result is the outcome of executing one Action.
type Result struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	// ShouldStop signals the dispatcher to abandon the remaining actions in
	// the current batch and the loop to terminate early.
	ShouldStop bool `json:"should_stop"`
	// Pending marks a fire-and-forget dispatch whose real outcome arrives
	// later through the session's result channel (delegations).
	Pending bool `json:"pending,omitempty"`
}

// Observation is a derived, context-safe summary of a Result. It enriches the
// next iteration's prompt and never drives control decisions; those are made
// solely from Result.ShouldStop and Thought.IsComplete.
type Observation struct {
	Success    bool   `json:"success"`
	HasError   bool   `json:"has_error"`
	DataType   string `json:"data_type"`
	ShouldStop bool   `json:"should_stop"`
	Preview    string `json:"preview"`
	Error      string `json:"error,omitempty"`
}
