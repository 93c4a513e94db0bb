// Package dispatch executes a Thought's ordered action list: tool calls
// against the registry, delegations onto the transport, direct responses and
// memory queries. Execution short-circuits as soon as a Result requests a
// stop; a Respond action always does.
package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/aetharaai/lotus/core"
	"github.com/aetharaai/lotus/logging"
	"github.com/aetharaai/lotus/tool"
)

// Provider tiers selected for delegated tasks.
const (
	// ProviderPremium is the highest-capability tier.
	ProviderPremium = "premium"
	// ProviderCode is the code-specialist tier.
	ProviderCode = "code"
	// ProviderEconomy is the cheapest tier.
	ProviderEconomy = "economy"
	// ProviderStandard is the default tier.
	ProviderStandard = "standard"
)

// Options configures a Dispatcher.
type Options struct {
	// MemoryLimit is the default query_memory result cap.
	MemoryLimit int
	// ToolTimeout bounds each tool handler invocation.
	ToolTimeout time.Duration
	// MemoryTimeout bounds each memory recall.
	MemoryTimeout time.Duration
	// Logger receives structured logs. Defaults to NoOp.
	Logger logging.Logger
}

// Dispatcher routes actions to their executors and aggregates Results.
type Dispatcher struct {
	registry *tool.Registry
	memory   core.MemoryStore
	bus      core.Publisher

	memoryLimit   int
	toolTimeout   time.Duration
	memoryTimeout time.Duration
	logger        logging.Logger
}

// NewDispatcher constructs a Dispatcher with optional overrides.
func NewDispatcher(registry *tool.Registry, memory core.MemoryStore, bus core.Publisher, optFns ...func(o *Options)) *Dispatcher {
	opts := Options{
		MemoryLimit:   5,
		ToolTimeout:   30 * time.Second,
		MemoryTimeout: 10 * time.Second,
		Logger:        logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Dispatcher{
		registry:      registry,
		memory:        memory,
		bus:           bus,
		memoryLimit:   opts.MemoryLimit,
		toolTimeout:   opts.ToolTimeout,
		memoryTimeout: opts.MemoryTimeout,
		logger:        opts.Logger,
	}
}

// Act executes actions strictly in order, stopping the batch after the first
// Result with ShouldStop set. The stopping Result is included in the output.
func (d *Dispatcher) Act(ctx context.Context, sessionID string, actions []core.Action) []core.Result {
	results := make([]core.Result, 0, len(actions))
	for _, action := range actions {
		res := d.actOne(ctx, sessionID, action)
		results = append(results, res)
		if res.ShouldStop {
			break
		}
	}
	return results
}

// actOne executes a single action. It never panics: unexpected failures
// during dispatch degrade to a stopping failure Result.
func (d *Dispatcher) actOne(ctx context.Context, sessionID string, action core.Action) (res core.Result) {
	defer func() {
		if rec := recover(); rec != nil {
			d.logger.Error("action dispatch panicked", "session_id", sessionID, "action_type", string(action.Type), "panic", fmt.Sprintf("%v", rec))
			res = core.Result{Success: false, Error: fmt.Sprintf("dispatch failure: %v", rec), ShouldStop: true}
		}
	}()

	switch action.Type {
	case core.ActionToolCall:
		return d.execTool(ctx, sessionID, action)
	case core.ActionDelegate:
		return d.delegate(ctx, sessionID, action)
	case core.ActionRespond:
		return d.respond(ctx, sessionID, action)
	case core.ActionQueryMemory:
		return d.queryMemory(ctx, action)
	default:
		d.logger.Warn("unknown action type", "session_id", sessionID, "action_type", string(action.Type))
		return core.Result{Success: false, Error: fmt.Sprintf("unknown action type: %s", action.Type), ShouldStop: true}
	}
}

func (d *Dispatcher) execTool(ctx context.Context, sessionID string, action core.Action) core.Result {
	toolCtx, cancel := context.WithTimeout(ctx, d.toolTimeout)
	defer cancel()

	tr := d.registry.Execute(toolCtx, action.Tool, action.Params)

	// Side channel for external observers; publish failure must not mask the
	// tool outcome.
	if err := d.bus.Publish(ctx, core.TopicToolCalls, core.ToolCallEvent{
		SessionID:     sessionID,
		Tool:          action.Tool,
		Result:        tr.Result,
		Error:         tr.Error,
		Success:       tr.Success,
		ExecutionTime: tr.ExecutionTime,
	}); err != nil {
		d.logger.Warn("tool call side channel publish failed", "session_id", sessionID, "tool", action.Tool, "error", err.Error())
	}

	return core.Result{Success: tr.Success, Data: tr.Result, Error: tr.Error}
}

// delegate publishes a delegation request and returns a pending Result. The
// real outcome arrives later on the session's result channel, correlated by
// CallbackTag, through the same path as asynchronous tool results.
func (d *Dispatcher) delegate(ctx context.Context, sessionID string, action core.Action) core.Result {
	if action.Task == nil || action.Task.Description == "" {
		return core.Result{Success: false, Error: "delegate action requires a task description"}
	}

	provider := SelectProvider(*action.Task)
	ev := core.DelegationEvent{
		SessionID:   sessionID,
		Task:        *action.Task,
		Provider:    provider,
		CallbackTag: core.NewID(),
	}

	if err := d.bus.Publish(ctx, core.TopicDelegations, ev); err != nil {
		return core.Result{Success: false, Error: fmt.Sprintf("delegation publish failed: %v", err)}
	}

	d.logger.Info("delegation dispatched", "session_id", sessionID, "provider", provider, "callback_tag", ev.CallbackTag)

	return core.Result{
		Success: true,
		Pending: true,
		Data: map[string]any{
			"provider":     provider,
			"callback_tag": ev.CallbackTag,
		},
	}
}

func (d *Dispatcher) respond(ctx context.Context, sessionID string, action core.Action) core.Result {
	if action.Content == "" {
		return core.Result{Success: false, Error: "respond action requires non-empty content", ShouldStop: true}
	}

	if err := d.bus.Publish(ctx, core.TopicResponses, core.NewResponseEvent(sessionID, action.Content)); err != nil {
		return core.Result{Success: false, Error: fmt.Sprintf("response publish failed: %v", err), ShouldStop: true}
	}

	// Responding always ends the current action batch.
	return core.Result{Success: true, Data: action.Content, ShouldStop: true}
}

func (d *Dispatcher) queryMemory(ctx context.Context, action core.Action) core.Result {
	query, _ := action.Params["query"].(string)
	if query == "" {
		return core.Result{Success: false, Error: "query_memory action requires a non-empty query parameter"}
	}

	limit := d.memoryLimit
	switch v := action.Params["limit"].(type) {
	case float64:
		limit = int(v)
	case int:
		limit = v
	}
	if limit <= 0 {
		limit = d.memoryLimit
	}

	memCtx, cancel := context.WithTimeout(ctx, d.memoryTimeout)
	defer cancel()

	items, err := d.memory.Recall(memCtx, query, limit)
	if err != nil {
		return core.Result{Success: false, Error: fmt.Sprintf("memory recall failed: %v", err)}
	}

	return core.Result{Success: true, Data: items}
}

// SelectProvider maps task complexity and domain onto a provider tier.
func SelectProvider(task core.TaskSpec) string {
	switch {
	case task.Complexity == "high" || task.Domain == "architecture":
		return ProviderPremium
	case task.Domain == "code":
		return ProviderCode
	case task.Complexity == "low":
		return ProviderEconomy
	default:
		return ProviderStandard
	}
}
