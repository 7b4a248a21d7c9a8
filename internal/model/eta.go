package model

import (
	"fmt"
	"time"
)

// ETARuleResult is a dated opening-window prediction produced by one
// deterministic rule, possibly refined by the adjustment oracle.
// Invariants: ETAStart <= ETAEnd, Confidence in [0, 1].
type ETARuleResult struct {
	ETAStart    time.Time `json:"eta_start"`
	ETAEnd      time.Time `json:"eta_end"`
	ETADays     int       `json:"eta_days"`
	Confidence  float64   `json:"confidence_0_1"`
	RuleName    string    `json:"rule_name"`
	SignalsUsed []string  `json:"signals_used"`
	Rationale   string    `json:"rationale_text,omitempty"`
}

// Window renders the ETA range as a human-readable string for exports.
func (r ETARuleResult) Window() string {
	return fmt.Sprintf("%s – %s", r.ETAStart.Format("Jan 2"), r.ETAEnd.Format("Jan 2, 2006"))
}

// GateDecision is the final admission outcome for a scored candidate.
type GateDecision struct {
	Passed bool           `json:"passed"`
	Result *ETARuleResult `json:"result,omitempty"`
}

// Candidate pairs a resolved entity with its prediction and gate
// outcome. Result is nil when no rule cleared the confidence floor.
type Candidate struct {
	Entity   ResolvedEntity `json:"entity"`
	Result   *ETARuleResult `json:"eta_result,omitempty"`
	GatePass bool           `json:"gate_pass"`
}

// Lead is a gate-qualified candidate as persisted for the sales team.
type Lead struct {
	ID        string         `json:"id"`
	RunID     string         `json:"run_id"`
	Entity    ResolvedEntity `json:"entity"`
	Result    ETARuleResult  `json:"eta_result"`
	CreatedAt time.Time      `json:"created_at"`
}

// RunSummary captures per-batch pipeline statistics.
type RunSummary struct {
	ID         string    `json:"id"`
	Records    int       `json:"records"`
	Entities   int       `json:"entities"`
	Scored     int       `json:"scored"`
	Qualified  int       `json:"qualified"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}
