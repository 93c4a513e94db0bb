package tool

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/aetharaai/lotus/logging"
)

// ConfirmFunc gates execution of tools flagged RequiresConfirmation. Return
// false to decline. A nil ConfirmFunc leaves the flags advisory only.
type ConfirmFunc func(ctx context.Context, t Tool, params map[string]any) bool

// Options configures a Registry.
type Options struct {
	// Confirm, when set, is consulted before executing any tool with
	// RequiresConfirmation set.
	Confirm ConfirmFunc
	// Logger receives structured execution logs. Defaults to NoOp.
	Logger logging.Logger
}

// Registry holds named executable capabilities. It is append-mostly: many
// sessions read it concurrently while registration happens during startup.
// After Freeze, registration fails and reads take the lock-free path.
type Registry struct {
	mu      sync.RWMutex
	tools   map[string]Tool
	history []HistoryEntry
	frozen  bool

	confirm ConfirmFunc
	logger  logging.Logger
}

// NewRegistry constructs an empty Registry with optional overrides.
func NewRegistry(optFns ...func(o *Options)) *Registry {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Registry{
		tools:   make(map[string]Tool),
		confirm: opts.Confirm,
		logger:  opts.Logger,
	}
}

// Register adds a tool. Registering an existing name overwrites the prior
// entry; last registration wins. Registration after Freeze is an error.
func (r *Registry) Register(t Tool) error {
	if t.Name == "" {
		return NewError("", "tool name must not be empty", CodeValidation)
	}
	if t.Handler == nil {
		return NewError(t.Name, "tool handler must not be nil", CodeValidation)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return NewError(t.Name, "registry is frozen, register tools before startup completes", CodeFrozen)
	}
	if _, exists := r.tools[t.Name]; exists {
		r.logger.Warn("tool registration overwrites existing entry", "tool", t.Name)
	}
	r.tools[t.Name] = t

	return nil
}

// Freeze makes the registry read-only. Call once startup wiring is complete,
// before the orchestration loop is allowed to run.
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
}

// Get returns the tool registered under name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Descriptions returns the prompt-facing catalog sorted by name.
func (r *Registry) Descriptions() []Description {
	r.mu.RLock()
	defer r.mu.RUnlock()

	descs := make([]Description, 0, len(r.tools))
	for _, t := range r.tools {
		params := make(map[string]ParamSpec, len(t.Params))
		for k, v := range t.Params {
			params[k] = v
		}
		descs = append(descs, Description{
			Name:        t.Name,
			Description: t.Description,
			Category:    t.Category,
			Parameters:  params,
		})
	}
	sort.Slice(descs, func(i, j int) bool { return descs[i].Name < descs[j].Name })

	return descs
}

// History returns a copy of the execution history in append order.
func (r *Registry) History() []HistoryEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]HistoryEntry, len(r.history))
	copy(out, r.history)
	return out
}

// Execute looks up, validates and runs a tool. It never returns an error:
// every failure mode degrades to a Result with Success=false. Validation
// failures (including unknown tools and declined confirmations) short-circuit
// before the handler runs and leave no history entry; handler outcomes are
// always recorded.
func (r *Registry) Execute(ctx context.Context, name string, params map[string]any) Result {
	t, ok := r.Get(name)
	if !ok {
		r.logger.Warn("tool lookup failed", "tool", name)
		return Result{Success: false, Error: "Tool not found"}
	}

	resolved, err := resolveParams(t, params)
	if err != nil {
		r.logger.Warn("tool parameter validation failed", "tool", name, "error", err.Error())
		return Result{Success: false, Error: err.Error()}
	}

	if t.RequiresConfirmation && r.confirm != nil && !r.confirm(ctx, t, resolved) {
		r.logger.Warn("tool execution declined by confirmation callback", "tool", name)
		return Result{Success: false, Error: NewError(name, "execution declined", CodeDeclined).Error()}
	}

	start := time.Now()
	out, err := runHandler(ctx, t, resolved)
	elapsed := time.Since(start)

	entry := HistoryEntry{
		Tool:          name,
		Params:        resolved,
		Success:       err == nil,
		ExecutionTime: elapsed,
		Timestamp:     start,
	}
	if err != nil {
		entry.Error = err.Error()
	}

	r.mu.Lock()
	r.history = append(r.history, entry)
	r.mu.Unlock()

	if err != nil {
		r.logger.Error("tool execution failed", "tool", name, "duration", elapsed, "error", err.Error())
		return Result{Success: false, Error: err.Error(), ExecutionTime: elapsed}
	}

	r.logger.Info("tool execution completed", "tool", name, "duration", elapsed)

	return Result{Success: true, Result: out, ExecutionTime: elapsed}
}

// runHandler shields the registry from panicking handlers.
func runHandler(ctx context.Context, t Tool, args map[string]any) (out any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			out = nil
			err = NewError(t.Name, fmt.Sprintf("handler panicked: %v", rec), CodeExecution)
		}
	}()

	out, err = t.Handler(ctx, args)
	if err != nil {
		if _, ok := err.(*Error); ok {
			return nil, err
		}
		return nil, NewError(t.Name, err.Error(), CodeExecution)
	}

	return out, nil
}

// resolveParams walks the declared schema, enforcing required fields,
// applying defaults and coercing values to the declared type. Parameters not
// named in the schema are passed through untouched.
func resolveParams(t Tool, supplied map[string]any) (map[string]any, error) {
	resolved := make(map[string]any, len(supplied))
	for k, v := range supplied {
		resolved[k] = v
	}

	for name, spec := range t.Params {
		v, present := supplied[name]
		if !present {
			if spec.Required {
				return nil, NewError(t.Name, fmt.Sprintf("required parameter %q is missing", name), CodeValidation)
			}
			if spec.Default != nil {
				resolved[name] = spec.Default
			}
			continue
		}

		coerced, err := coerce(v, spec.Type)
		if err != nil {
			return nil, NewError(t.Name, fmt.Sprintf("parameter %q: %v", name, err), CodeValidation)
		}
		resolved[name] = coerced
	}

	return resolved, nil
}

// coerce converts v to the declared type when the supplied dynamic type
// disagrees with the schema.
func coerce(v any, pt ParamType) (any, error) {
	switch pt {
	case TypeString:
		if s, ok := v.(string); ok {
			return s, nil
		}
		return fmt.Sprintf("%v", v), nil

	case TypeInt:
		switch n := v.(type) {
		case int:
			return n, nil
		case int64:
			return int(n), nil
		case float64:
			if n != math.Trunc(n) {
				return nil, fmt.Errorf("expected int, got non-integral %v", n)
			}
			return int(n), nil
		case string:
			i, err := strconv.Atoi(n)
			if err != nil {
				return nil, fmt.Errorf("expected int, got %q", n)
			}
			return i, nil
		default:
			return nil, fmt.Errorf("expected int, got %T", v)
		}

	case TypeFloat:
		switch n := v.(type) {
		case float64:
			return n, nil
		case float32:
			return float64(n), nil
		case int:
			return float64(n), nil
		case int64:
			return float64(n), nil
		case string:
			f, err := strconv.ParseFloat(n, 64)
			if err != nil {
				return nil, fmt.Errorf("expected float, got %q", n)
			}
			return f, nil
		default:
			return nil, fmt.Errorf("expected float, got %T", v)
		}

	case TypeBool:
		switch b := v.(type) {
		case bool:
			return b, nil
		case string:
			parsed, err := strconv.ParseBool(b)
			if err != nil {
				return nil, fmt.Errorf("expected bool, got %q", b)
			}
			return parsed, nil
		default:
			return nil, fmt.Errorf("expected bool, got %T", v)
		}

	default:
		// Unknown declared types pass through; the handler owns interpretation.
		return v, nil
	}
}
