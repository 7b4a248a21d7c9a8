// Package eta turns canonical opening signals into dated,
// confidence-scored predictions and gates them for sales use.
package eta

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Thresholds holds the tunable cutoffs of the rule engine and gate.
type Thresholds struct {
	// ConfidenceFloor is the minimum adjusted confidence for a rule
	// result to survive evaluation.
	ConfidenceFloor float64 `yaml:"confidence_floor"`
	// GateMinConfidence is the minimum confidence for lead admission.
	GateMinConfidence float64 `yaml:"gate_min_confidence"`
	// GateWindowDays bounds how far out eta_start may sit for admission.
	GateWindowDays int `yaml:"gate_window_days"`
	// MinMultiplier clamps the compound penalty multiplier from below.
	MinMultiplier float64 `yaml:"min_multiplier"`
}

// DefaultThresholds returns the production cutoffs.
func DefaultThresholds() Thresholds {
	return Thresholds{
		ConfidenceFloor:   0.5,
		GateMinConfidence: 0.65,
		GateWindowDays:    60,
		MinMultiplier:     0.1,
	}
}

// LoadThresholds reads threshold overrides from a YAML file. Fields
// left at zero fall back to the defaults.
func LoadThresholds(path string) (Thresholds, error) {
	defaults := DefaultThresholds()

	data, err := os.ReadFile(path)
	if err != nil {
		return defaults, eris.Wrapf(err, "eta: read thresholds %s", path)
	}

	var wrapper struct {
		ETA Thresholds `yaml:"eta"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return defaults, eris.Wrap(err, "eta: parse thresholds")
	}

	t := wrapper.ETA
	if t.ConfidenceFloor == 0 {
		t.ConfidenceFloor = defaults.ConfidenceFloor
	}
	if t.GateMinConfidence == 0 {
		t.GateMinConfidence = defaults.GateMinConfidence
	}
	if t.GateWindowDays == 0 {
		t.GateWindowDays = defaults.GateWindowDays
	}
	if t.MinMultiplier == 0 {
		t.MinMultiplier = defaults.MinMultiplier
	}
	return t, nil
}
