package runner

import (
	"fmt"

	"github.com/aetharaai/lotus/core"
	"github.com/aetharaai/lotus/internal/util"
)

// previewLimit bounds how much result data leaks into the next prompt.
const previewLimit = 120

// Observe derives a fixed-shape, context-safe summary per result. The
// summaries only enrich the next iteration's prompt; control decisions are
// made solely from Result.ShouldStop and Thought.IsComplete.
func Observe(results []core.Result) []core.Observation {
	obs := make([]core.Observation, 0, len(results))
	for _, r := range results {
		o := core.Observation{
			Success:    r.Success,
			HasError:   r.Error != "",
			ShouldStop: r.ShouldStop,
			Preview:    util.Preview(r.Data, previewLimit),
			Error:      r.Error,
		}
		if r.Data != nil {
			o.DataType = fmt.Sprintf("%T", r.Data)
		}
		obs = append(obs, o)
	}
	return obs
}
