// Package session implements the live-session table for the reasoning loop.
// Sessions follow a handle/arena pattern: creation returns an opaque handle
// owning a bounded result channel, lookup-based delivery goes through the
// registry, and termination invalidates the handle so stale deliveries are
// dropped instead of resurrecting finished work.
package session

import (
	"sync"
	"time"

	"github.com/aetharaai/lotus/core"
	"github.com/aetharaai/lotus/logging"
)

// TerminationReason is the closed set of ways a session ends.
type TerminationReason string

const (
	// TerminationCompleted means a thought with is_complete produced the response.
	TerminationCompleted TerminationReason = "completed"
	// TerminationStoppedByAction means a Result requested an early stop.
	TerminationStoppedByAction TerminationReason = "stopped_by_action"
	// TerminationMaxIterations means the iteration budget ran out.
	TerminationMaxIterations TerminationReason = "max_iterations_exhausted"
	// TerminationContextBuildFailed means the session never entered the loop.
	TerminationContextBuildFailed TerminationReason = "context_build_failed"
)

// Session is the opaque handle for one live reasoning run. The loop goroutine
// is the only mutator of Context and Iteration; the results channel is the
// sole cross-goroutine surface.
type Session struct {
	ID      string
	Query   string
	Created time.Time

	// Context is the mutable context blob folded after each iteration.
	Context string
	// Iteration is the current loop iteration, starting at 0.
	Iteration int

	results chan core.ToolResultEvent
	done    chan struct{}
	once    sync.Once
	reason  TerminationReason
}

// Results exposes the inbound queue of asynchronously delivered tool and
// delegation results correlated to this session.
func (s *Session) Results() <-chan core.ToolResultEvent { return s.results }

// Done is closed when the session terminates.
func (s *Session) Done() <-chan struct{} { return s.done }

// Terminated reports whether the session has ended and, if so, why.
func (s *Session) Terminated() (TerminationReason, bool) {
	select {
	case <-s.done:
		return s.reason, true
	default:
		return "", false
	}
}

// terminate marks the session ended. First reason wins.
func (s *Session) terminate(reason TerminationReason) {
	s.once.Do(func() {
		s.reason = reason
		close(s.done)
	})
}

// deliver pushes a result onto the session queue. Returns false when the
// session has terminated or its queue is full; the caller drops the result.
func (s *Session) deliver(ev core.ToolResultEvent) bool {
	select {
	case <-s.done:
		return false
	default:
	}

	select {
	case s.results <- ev:
		return true
	case <-s.done:
		return false
	default:
		return false
	}
}

// Registry is the live-session table. It supports safe concurrent insert,
// lookup and delete keyed by session id.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	bufferSize int
	logger     logging.Logger
}

// RegistryOptions configures a Registry.
type RegistryOptions struct {
	// ResultBufferSize bounds each session's inbound result queue.
	ResultBufferSize int
	// Logger receives structured logs. Defaults to NoOp.
	Logger logging.Logger
}

// NewRegistry constructs an empty session registry with optional overrides.
func NewRegistry(optFns ...func(o *RegistryOptions)) *Registry {
	opts := RegistryOptions{
		ResultBufferSize: 16,
		Logger:           logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Registry{
		sessions:   make(map[string]*Session),
		bufferSize: opts.ResultBufferSize,
		logger:     opts.Logger,
	}
}

// Create inserts a new live session for query and returns its handle.
func (r *Registry) Create(query string) *Session {
	s := &Session{
		ID:      core.NewID(),
		Query:   query,
		Created: time.Now().UTC(),
		results: make(chan core.ToolResultEvent, r.bufferSize),
		done:    make(chan struct{}),
	}

	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()

	return s
}

// Get returns the live session handle for id.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Terminate ends the session and removes it from the live table. Repeated
// termination keeps the first reason.
func (r *Registry) Terminate(id string, reason TerminationReason) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if ok {
		s.terminate(reason)
		r.logger.Debug("session terminated", "session_id", id, "reason", string(reason))
	}
}

// Deliver routes an asynchronously arriving result to its session. Results
// for unknown or terminated sessions are dropped and logged; that race is
// normal, not an error.
func (r *Registry) Deliver(ev core.ToolResultEvent) bool {
	r.mu.RLock()
	s, ok := r.sessions[ev.SessionID]
	r.mu.RUnlock()

	if !ok {
		r.logger.Info("dropping result for unknown or finished session", "session_id", ev.SessionID, "tool", ev.Tool)
		return false
	}
	if !s.deliver(ev) {
		r.logger.Warn("dropping result, session terminated or queue full", "session_id", ev.SessionID, "tool", ev.Tool)
		return false
	}

	return true
}
