package eta

import (
	"time"

	"github.com/sells-group/openings-cli/internal/model"
)

// Gate is the final admission test converting a scored prediction into
// a qualified lead. This boolean is the sole contract the downstream
// pipeline depends on.
type Gate struct {
	thresholds Thresholds
}

// NewGate creates a Gate.
func NewGate(t Thresholds) *Gate {
	return &Gate{thresholds: t}
}

// Evaluate admits a candidate iff its confidence meets the minimum and
// its ETA window opens within the gate horizon. A nil result never
// passes.
func (g *Gate) Evaluate(result *model.ETARuleResult, now time.Time) model.GateDecision {
	if result == nil {
		return model.GateDecision{}
	}

	horizon := now.AddDate(0, 0, g.thresholds.GateWindowDays)
	passed := result.Confidence >= g.thresholds.GateMinConfidence &&
		!result.ETAStart.After(horizon)

	return model.GateDecision{Passed: passed, Result: result}
}
