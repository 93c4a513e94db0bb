// Package runner owns the per-session reasoning loop. Each inbound event
// starts one session whose loop runs think, act, observe and learn in strict
// order until a thought completes, an action stops the batch, or the
// iteration budget runs out. Sessions run concurrently but each loop body is
// strictly sequential.
package runner

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aetharaai/lotus/core"
	"github.com/aetharaai/lotus/dispatch"
	"github.com/aetharaai/lotus/internal/util"
	"github.com/aetharaai/lotus/logging"
	"github.com/aetharaai/lotus/reason"
	"github.com/aetharaai/lotus/session"
)

// Options configures an Orchestrator.
type Options struct {
	// MaxIterations bounds the reasoning loop per session.
	MaxIterations int
	// MemoryLimit caps recalled memories during context building.
	MemoryLimit int
	// MemoryTimeout bounds each memory store call.
	MemoryTimeout time.Duration
	// Logger receives structured logs. Defaults to NoOp.
	Logger logging.Logger
}

// Orchestrator builds session context, drives the reasoning loop and routes
// asynchronously delivered tool results back to their owning sessions.
type Orchestrator struct {
	generator  *reason.Generator
	dispatcher *dispatch.Dispatcher
	sessions   *session.Registry
	memory     core.MemoryStore
	bus        core.Publisher

	maxIterations int
	memoryLimit   int
	memoryTimeout time.Duration
	logger        logging.Logger
}

// NewOrchestrator wires the loop's collaborators together.
func NewOrchestrator(generator *reason.Generator, dispatcher *dispatch.Dispatcher, sessions *session.Registry, memory core.MemoryStore, bus core.Publisher, optFns ...func(o *Options)) *Orchestrator {
	opts := Options{
		MaxIterations: 10,
		MemoryLimit:   5,
		MemoryTimeout: 10 * time.Second,
		Logger:        logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Orchestrator{
		generator:     generator,
		dispatcher:    dispatcher,
		sessions:      sessions,
		memory:        memory,
		bus:           bus,
		maxIterations: opts.MaxIterations,
		memoryLimit:   opts.MemoryLimit,
		memoryTimeout: opts.MemoryTimeout,
		logger:        opts.Logger,
	}
}

// HandleEvent starts a session for the event on its own goroutine. Use
// Process when the caller needs to block for the outcome.
func (o *Orchestrator) HandleEvent(ev core.InboundEvent) {
	go o.Process(context.Background(), ev)
}

// Process runs one full session synchronously and reports its id and
// termination reason. Exactly one final response is published per session,
// on every path.
func (o *Orchestrator) Process(ctx context.Context, ev core.InboundEvent) (string, session.TerminationReason) {
	query := ev.EffectiveQuery()
	sess := o.sessions.Create(query)
	o.logger.Info("session started", "session_id", sess.ID, "query", util.Truncate(query, 80), "source", ev.SourceModule)

	contextBlob, err := o.buildContext(ctx, query, ev.MemoryReferences)
	if err != nil {
		o.logger.Error("context build failed", "session_id", sess.ID, "error", err.Error())
		o.publishResponse(ctx, sess.ID, "I ran into a problem preparing your request and could not start working on it. Please try again.")
		o.sessions.Terminate(sess.ID, session.TerminationContextBuildFailed)
		return sess.ID, session.TerminationContextBuildFailed
	}
	sess.Context = contextBlob

	termination := o.runLoop(ctx, sess)
	o.sessions.Terminate(sess.ID, termination)
	o.logger.Info("session terminated", "session_id", sess.ID, "reason", string(termination))
	return sess.ID, termination
}

// DeliverToolResult routes an asynchronously produced tool or delegation
// result to its owning session. Deliveries for unknown or already terminated
// sessions are dropped; that race is expected, not an error.
func (o *Orchestrator) DeliverToolResult(ev core.ToolResultEvent) {
	o.sessions.Deliver(ev)
}

func (o *Orchestrator) runLoop(ctx context.Context, sess *session.Session) session.TerminationReason {
	for sess.Iteration = 0; sess.Iteration < o.maxIterations; sess.Iteration++ {
		thought := o.generator.Think(ctx, reason.Input{
			SessionID: sess.ID,
			Query:     sess.Query,
			Context:   sess.Context,
			Iteration: sess.Iteration,
		})

		// Every thought is published, completing or not.
		o.publish(ctx, core.TopicThoughts, core.ThoughtEvent{SessionID: sess.ID, Iteration: sess.Iteration, Thought: thought})

		if thought.IsComplete {
			o.publishResponse(ctx, sess.ID, thought.Response)
			return session.TerminationCompleted
		}

		results := o.dispatcher.Act(ctx, sess.ID, thought.Actions)
		observations := Observe(results)
		o.learn(ctx, sess, thought, results)

		async := o.drainResults(sess)
		sess.Context = foldContext(sess.Context, sess.Iteration, thought, observations, async)

		if idx := stopIndex(results); idx >= 0 {
			// A successful stop is a Respond action, which has already
			// published its content. Failure stops still owe the user a
			// final response.
			if !results[idx].Success {
				o.publishResponse(ctx, sess.ID, "I had to stop working on this request: "+results[idx].Error)
			}
			return session.TerminationStoppedByAction
		}
	}

	o.publishResponse(ctx, sess.ID, fallbackMessage(sess.Query))
	return session.TerminationMaxIterations
}

// buildContext merges relevance-recalled memories with explicitly referenced
// ones, deduplicated by id and ordered most recent first. Any store failure
// aborts the session before the loop starts.
func (o *Orchestrator) buildContext(ctx context.Context, query string, refs []string) (string, error) {
	if o.memory == nil {
		return "", nil
	}

	memCtx, cancel := context.WithTimeout(ctx, o.memoryTimeout)
	defer cancel()

	recalled, err := o.memory.Recall(memCtx, query, o.memoryLimit)
	if err != nil {
		return "", fmt.Errorf("recall: %w", err)
	}

	var referenced []core.MemoryItem
	if len(refs) > 0 {
		referenced, err = o.memory.GetByID(memCtx, refs)
		if err != nil {
			return "", fmt.Errorf("resolve referenced memories: %w", err)
		}
	}

	merged := mergeMemories(recalled, referenced)
	if len(merged) == 0 {
		return "", nil
	}

	var b strings.Builder
	b.WriteString("Relevant memories:\n")
	for _, item := range merged {
		fmt.Fprintf(&b, "- [%s] %s\n", item.Type, item.Content)
	}
	return b.String(), nil
}

func (o *Orchestrator) drainResults(sess *session.Session) []core.ToolResultEvent {
	var out []core.ToolResultEvent
	for {
		select {
		case ev := <-sess.Results():
			o.logger.Debug("async tool result consumed", "session_id", sess.ID, "tool", ev.Tool)
			out = append(out, ev)
		default:
			return out
		}
	}
}

func (o *Orchestrator) publish(ctx context.Context, topic string, payload any) {
	if err := o.bus.Publish(ctx, topic, payload); err != nil {
		o.logger.Warn("publish failed", "topic", topic, "error", err.Error())
	}
}

func (o *Orchestrator) publishResponse(ctx context.Context, sessionID, content string) {
	o.publish(ctx, core.TopicResponses, core.NewResponseEvent(sessionID, content))
}

// mergeMemories dedupes by id, keeping the first occurrence, then orders the
// result most recent first.
func mergeMemories(recalled, referenced []core.MemoryItem) []core.MemoryItem {
	seen := make(map[string]bool, len(recalled)+len(referenced))
	out := make([]core.MemoryItem, 0, len(recalled)+len(referenced))
	for _, item := range append(append([]core.MemoryItem{}, recalled...), referenced...) {
		if item.ID != "" && seen[item.ID] {
			continue
		}
		seen[item.ID] = true
		out = append(out, item)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// foldContext appends this iteration's thought and outcomes onto the running
// context blob consumed by the next think call.
func foldContext(prev string, iteration int, thought core.Thought, observations []core.Observation, async []core.ToolResultEvent) string {
	var b strings.Builder
	b.WriteString(prev)
	fmt.Fprintf(&b, "\n\n--- iteration %d ---\n", iteration)
	if thought.Understanding != "" {
		fmt.Fprintf(&b, "understanding: %s\n", thought.Understanding)
	}
	if thought.Reasoning != "" {
		fmt.Fprintf(&b, "reasoning: %s\n", thought.Reasoning)
	}
	for i, obs := range observations {
		status := "ok"
		if !obs.Success {
			status = "failed"
		}
		fmt.Fprintf(&b, "action %d: %s", i+1, status)
		if obs.Preview != "" {
			fmt.Fprintf(&b, " (%s)", obs.Preview)
		}
		if obs.Error != "" {
			fmt.Fprintf(&b, " error: %s", obs.Error)
		}
		b.WriteByte('\n')
	}
	for _, ev := range async {
		if ev.Error != "" {
			fmt.Fprintf(&b, "async result from %s: error: %s\n", ev.Tool, ev.Error)
			continue
		}
		fmt.Fprintf(&b, "async result from %s: %s\n", ev.Tool, util.Preview(ev.Result, previewLimit))
	}
	return b.String()
}

// stopIndex returns the index of the first stopping result, or -1.
func stopIndex(results []core.Result) int {
	for i, r := range results {
		if r.ShouldStop {
			return i
		}
	}
	return -1
}

func fallbackMessage(query string) string {
	return fmt.Sprintf("I wasn't able to finish working on %q within my reasoning budget. Please narrow the request and try again.", util.Truncate(query, 50))
}
