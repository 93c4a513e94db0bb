package tool

import (
	"context"
	"fmt"
	"time"
)

// Category classifies tools for prompt grouping and external policy layers.
type Category string

const (
	// CategoryInformation covers lookups and read-only queries.
	CategoryInformation Category = "information"
	// CategoryComputation covers pure calculations.
	CategoryComputation Category = "computation"
	// CategoryFileSystem covers file reads and writes.
	CategoryFileSystem Category = "file_system"
	// CategoryNetwork covers outbound network access.
	CategoryNetwork Category = "network"
	// CategoryMemory covers long-term memory access.
	CategoryMemory Category = "memory"
	// CategoryDelegation covers hand-offs to downstream providers.
	CategoryDelegation Category = "delegation"
	// CategorySystem covers process and host level operations.
	CategorySystem Category = "system"
)

// ParamType is the declared wire type of a tool parameter. Supplied values of
// a different type are coerced where a lossless conversion exists.
type ParamType string

const (
	// TypeString accepts any value, rendered to its string form.
	TypeString ParamType = "string"
	// TypeInt accepts integers, integral floats and numeric strings.
	TypeInt ParamType = "int"
	// TypeFloat accepts any numeric value and numeric strings.
	TypeFloat ParamType = "float"
	// TypeBool accepts booleans and strconv-parsable strings.
	TypeBool ParamType = "bool"
)

// ParamSpec declares one named parameter of a tool.
type ParamSpec struct {
	Type     ParamType `json:"type"`
	Required bool      `json:"required"`
	Default  any       `json:"default,omitempty"`
}

// Handler executes a tool with validated, coerced arguments.
type Handler func(ctx context.Context, args map[string]any) (any, error)

// Tool is one registry entry: a named, schema-validated, executable
// capability. RequiresConfirmation and Dangerous are advisory unless the
// registry is constructed with a confirmation callback.
type Tool struct {
	Name                 string
	Description          string
	Category             Category
	Params               map[string]ParamSpec
	Handler              Handler
	RequiresConfirmation bool
	Dangerous            bool
}

// Result is the outcome of one tool execution.
type Result struct {
	Success       bool          `json:"success"`
	Result        any           `json:"result,omitempty"`
	Error         string        `json:"error,omitempty"`
	ExecutionTime time.Duration `json:"execution_time"`
}

// HistoryEntry records one completed handler execution. Validation failures
// short-circuit before the handler runs and are not recorded here; they are a
// distinct error class from execution failure.
type HistoryEntry struct {
	Tool          string         `json:"tool"`
	Params        map[string]any `json:"parameters"`
	Success       bool           `json:"success"`
	Error         string         `json:"error,omitempty"`
	ExecutionTime time.Duration  `json:"execution_time"`
	Timestamp     time.Time      `json:"timestamp"`
}

// Description is the prompt-facing view of a registered tool.
type Description struct {
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Category    Category             `json:"category"`
	Parameters  map[string]ParamSpec `json:"parameters"`
}

// Error codes attached to Error values produced by the registry.
const (
	CodeNotFound   = "NOT_FOUND"
	CodeValidation = "VALIDATION_ERROR"
	CodeExecution  = "EXECUTION_ERROR"
	CodeDeclined   = "CONFIRMATION_DECLINED"
	CodeFrozen     = "REGISTRY_FROZEN"
)

// Error represents errors raised by the tool subsystem with a stable code
// for categorization.
type Error struct {
	Tool    string `json:"tool"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// NewError creates an Error with the specified details.
func NewError(tool, message, code string) *Error {
	return &Error{Tool: tool, Message: message, Code: code}
}
