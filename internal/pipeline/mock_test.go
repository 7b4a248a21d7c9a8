package pipeline

import (
	"context"

	"github.com/sells-group/openings-cli/internal/eta"
	"github.com/sells-group/openings-cli/internal/model"
)

// recordingOracle captures batch items and applies a fixed confidence
// delta so tests can observe that adjustments land on candidates.
type recordingOracle struct {
	items     []eta.AdjustmentItem
	confDelta float64
}

func (r *recordingOracle) Adjust(_ context.Context, result model.ETARuleResult, _ string) (model.ETARuleResult, error) {
	result.Confidence += r.confDelta
	return result, nil
}

func (r *recordingOracle) AdjustBatch(_ context.Context, items []eta.AdjustmentItem) (map[string]model.ETARuleResult, error) {
	r.items = items
	out := make(map[string]model.ETARuleResult, len(items))
	for _, item := range items {
		adjusted := item.Result
		adjusted.Confidence += r.confDelta
		out[item.ID] = adjusted
	}
	return out, nil
}
