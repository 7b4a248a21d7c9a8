package eta

import (
	"context"

	"github.com/sells-group/openings-cli/internal/model"
)

// Clamp bounds for oracle refinements relative to the rule result.
const (
	MaxDayShift        = 15
	MaxConfidenceShift = 0.10
)

// minMilestoneTextLen gates oracle invocation: shorter milestone text
// carries nothing the rules have not already seen.
const minMilestoneTextLen = 20

// AdjustmentItem is one entry of a batch adjustment request.
type AdjustmentItem struct {
	ID            string
	Result        model.ETARuleResult
	MilestoneText string
}

// AdjustmentOracle refines a winning rule result from milestone free
// text. Implementations must never fail the caller: on any internal
// error they return the input unchanged (single form) or omit the id
// from the response map (batch form).
type AdjustmentOracle interface {
	Adjust(ctx context.Context, result model.ETARuleResult, milestoneText string) (model.ETARuleResult, error)
	AdjustBatch(ctx context.Context, items []AdjustmentItem) (map[string]model.ETARuleResult, error)
}

// ShouldAdjust reports whether the milestone text is substantial enough
// to justify an oracle call.
func ShouldAdjust(milestoneText string) bool {
	return len(milestoneText) > minMilestoneTextLen
}

// ClampAdjustment bounds an oracle proposal against the original rule
// result: eta_days within ±15, confidence within ±0.10 and re-clamped
// to [0, 1], with eta_start/eta_end shifted by the same day delta as
// eta_days. Fields the oracle may not touch are restored from the
// original.
func ClampAdjustment(original, proposed model.ETARuleResult) model.ETARuleResult {
	days := proposed.ETADays
	if days > original.ETADays+MaxDayShift {
		days = original.ETADays + MaxDayShift
	}
	if days < original.ETADays-MaxDayShift {
		days = original.ETADays - MaxDayShift
	}

	conf := proposed.Confidence
	if conf > original.Confidence+MaxConfidenceShift {
		conf = original.Confidence + MaxConfidenceShift
	}
	if conf < original.Confidence-MaxConfidenceShift {
		conf = original.Confidence - MaxConfidenceShift
	}
	if conf < 0 {
		conf = 0
	}
	if conf > 1 {
		conf = 1
	}

	delta := days - original.ETADays

	adjusted := original
	adjusted.ETADays = days
	adjusted.Confidence = conf
	adjusted.ETAStart = original.ETAStart.AddDate(0, 0, delta)
	adjusted.ETAEnd = original.ETAEnd.AddDate(0, 0, delta)
	if len(proposed.SignalsUsed) > 0 {
		adjusted.SignalsUsed = proposed.SignalsUsed
	}
	if proposed.Rationale != "" {
		adjusted.Rationale = proposed.Rationale
	}
	return adjusted
}

// NopOracle returns every input unchanged. Plugging it in makes the
// whole pipeline deterministic.
type NopOracle struct{}

func (NopOracle) Adjust(_ context.Context, result model.ETARuleResult, _ string) (model.ETARuleResult, error) {
	return result, nil
}

func (NopOracle) AdjustBatch(_ context.Context, _ []AdjustmentItem) (map[string]model.ETARuleResult, error) {
	return map[string]model.ETARuleResult{}, nil
}
