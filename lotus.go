// Package lotus provides a high-level façade over the reasoning core
// (sessions, tools, memory, transport & logging) enabling rapid construction
// of event-driven agent loops. Most applications interact with this package
// by:
//  1. Creating a Lotus via New() (optionally overriding default in-memory services)
//  2. Registering tools and freezing the registry
//  3. Feeding inbound events asynchronously (Handle) or synchronously (Ask)
//
// The façade delegates orchestration to runner.Orchestrator while keeping
// setup and usage ergonomics concise. All defaults are safe for local
// development and testing; production deployments typically supply a durable
// memory store, a broker-backed transport and a structured logger.
package lotus

import (
	"context"

	"github.com/aetharaai/lotus/core"
	"github.com/aetharaai/lotus/dispatch"
	"github.com/aetharaai/lotus/logging"
	"github.com/aetharaai/lotus/memory"
	"github.com/aetharaai/lotus/reason"
	"github.com/aetharaai/lotus/runner"
	"github.com/aetharaai/lotus/session"
	"github.com/aetharaai/lotus/tool"
	"github.com/aetharaai/lotus/transport"
)

// Options configures the Lotus instance.
type Options struct {
	// Completer is the model adapter used by the thought generator.
	// Required; there is no sensible default model.
	Completer core.Completer

	// MemoryStore backs long-term recall and learning. Defaults to the
	// process-local in-memory store.
	MemoryStore core.MemoryStore

	// Publisher carries outbound thoughts, responses, tool calls and
	// delegations. Defaults to an in-process bus.
	Publisher core.Publisher

	// MaxIterations bounds the reasoning loop per session.
	MaxIterations int

	// Confirm gates tools registered with RequiresConfirmation. Nil keeps
	// the flags advisory.
	Confirm tool.ConfirmFunc

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// Lotus is the high-level façade aggregating the reasoning loop and its
// collaborators.
type Lotus struct {
	opts     Options
	registry *tool.Registry
	sessions *session.Registry
	orch     *runner.Orchestrator
}

// New creates a Lotus instance with optional overrides. Any unset service is
// initialized with an in-memory implementation.
func New(optFns ...func(o *Options)) *Lotus {
	opts := Options{
		MemoryStore:   memory.NewInMemoryStore(),
		MaxIterations: 10,
		Logger:        logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Publisher == nil {
		opts.Publisher = transport.NewBus(func(o *transport.BusOptions) {
			o.Logger = opts.Logger
		})
	}

	registry := tool.NewRegistry(func(o *tool.Options) {
		o.Confirm = opts.Confirm
		o.Logger = opts.Logger
	})

	sessions := session.NewRegistry(func(o *session.RegistryOptions) {
		o.Logger = opts.Logger
	})

	generator := reason.NewGenerator(opts.Completer, opts.MemoryStore, registry, func(o *reason.Options) {
		o.Logger = opts.Logger
	})

	dispatcher := dispatch.NewDispatcher(registry, opts.MemoryStore, opts.Publisher, func(o *dispatch.Options) {
		o.Logger = opts.Logger
	})

	orch := runner.NewOrchestrator(generator, dispatcher, sessions, opts.MemoryStore, opts.Publisher, func(o *runner.Options) {
		o.MaxIterations = opts.MaxIterations
		o.Logger = opts.Logger
	})

	return &Lotus{opts: opts, registry: registry, sessions: sessions, orch: orch}
}

// RegisterTool adds a tool to the shared registry. Registration happens at
// startup; call Freeze before serving traffic.
func (l *Lotus) RegisterTool(t tool.Tool) error { return l.registry.Register(t) }

// Freeze makes the tool registry read-only.
func (l *Lotus) Freeze() { l.registry.Freeze() }

// Tools exposes the registry for prompt embedding and introspection.
func (l *Lotus) Tools() *tool.Registry { return l.registry }

// Handle starts a session for the event on its own goroutine.
func (l *Lotus) Handle(ev core.InboundEvent) { l.orch.HandleEvent(ev) }

// Ask is a synchronous helper: it runs one session for the query and reports
// the session id and termination reason. The response itself is published on
// the responses topic.
func (l *Lotus) Ask(ctx context.Context, query string) (string, session.TerminationReason) {
	return l.orch.Process(ctx, core.InboundEvent{UserQuery: query})
}

// Process runs one full inbound event synchronously.
func (l *Lotus) Process(ctx context.Context, ev core.InboundEvent) (string, session.TerminationReason) {
	return l.orch.Process(ctx, ev)
}

// DeliverToolResult routes an asynchronously produced tool or delegation
// result to its owning session.
func (l *Lotus) DeliverToolResult(ev core.ToolResultEvent) { l.orch.DeliverToolResult(ev) }

// Sessions reports the number of live sessions.
func (l *Lotus) Sessions() int { return l.sessions.Len() }
