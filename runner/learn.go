package runner

import (
	"context"
	"fmt"
	"strings"

	"github.com/aetharaai/lotus/core"
	"github.com/aetharaai/lotus/internal/util"
	"github.com/aetharaai/lotus/session"
)

// learn records what this iteration did and how it went. Every iteration
// produces one procedural record; a fully successful batch additionally
// produces a semantic success-pattern record to bias future action selection.
// All writes are best-effort: a store failure is logged, never propagated.
func (o *Orchestrator) learn(ctx context.Context, sess *session.Session, thought core.Thought, results []core.Result) {
	if o.memory == nil {
		return
	}

	full := fullSuccess(results)

	importance := 0.3
	if full {
		importance = 0.6
	}

	memCtx, cancel := context.WithTimeout(ctx, o.memoryTimeout)
	defer cancel()

	procedural := core.MemoryItem{
		Content: fmt.Sprintf("iteration %d for %q: plan %q, %d action(s), full_success=%t",
			sess.Iteration, util.Truncate(sess.Query, 80), util.Truncate(thought.Understanding, 80), len(results), full),
		Type:       core.MemoryProcedural,
		Importance: importance,
		Metadata: map[string]any{
			"session_id":   sess.ID,
			"iteration":    sess.Iteration,
			"full_success": full,
		},
	}
	if err := o.memory.Remember(memCtx, procedural); err != nil {
		o.logger.Warn("procedural memory write failed", "session_id", sess.ID, "error", err.Error())
	}

	if !full {
		return
	}

	pattern := core.MemoryItem{
		Content: fmt.Sprintf("success pattern: query %q resolved via actions [%s]",
			queryTypePrefix(sess.Query), strings.Join(actionTypes(thought.Actions), ", ")),
		Type:       core.MemorySemantic,
		Importance: 0.8,
		Metadata: map[string]any{
			"query_type_prefix": queryTypePrefix(sess.Query),
			"action_types":      actionTypes(thought.Actions),
			"outcome":           "success",
		},
	}
	if err := o.memory.Remember(memCtx, pattern); err != nil {
		o.logger.Warn("semantic memory write failed", "session_id", sess.ID, "error", err.Error())
	}
}

// fullSuccess means every executed action succeeded and at least one ran.
func fullSuccess(results []core.Result) bool {
	if len(results) == 0 {
		return false
	}
	for _, r := range results {
		if !r.Success {
			return false
		}
	}
	return true
}

// queryTypePrefix is a coarse key for grouping similar queries.
func queryTypePrefix(query string) string {
	return util.Truncate(strings.ToLower(strings.TrimSpace(query)), 30)
}

// actionTypes returns the distinct action types in first-seen order.
func actionTypes(actions []core.Action) []string {
	seen := make(map[core.ActionType]bool, len(actions))
	out := make([]string, 0, len(actions))
	for _, a := range actions {
		if seen[a.Type] {
			continue
		}
		seen[a.Type] = true
		out = append(out, string(a.Type))
	}
	return out
}
