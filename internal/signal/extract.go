// Package signal projects a resolved entity's raw signal data into the
// canonical feature set consumed by the rule engine.
package signal

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sells-group/openings-cli/internal/model"
)

// Derived health status values.
const (
	HealthPlanReviewApproved = "plan_review_approved"
	HealthPlanReviewReceived = "plan_review_received"
	HealthFoodServicePermit  = "food_service_permit"
	HealthUnknown            = "unknown"
)

// Features is the canonical signal bag for one entity. MilestoneText is
// free text for the adjustment oracle only; the rule engine never
// reads it.
type Features struct {
	TABCStatus     string
	TABCDates      map[string]string
	HealthStatus   string
	PermitTypes    []string
	MilestoneDates map[string]string
	MilestoneText  string
}

// Extract builds the canonical feature set for a resolved entity.
func Extract(entity model.ResolvedEntity) Features {
	sig := entity.Signals
	f := Features{
		TABCStatus:     sig.TABCStatus,
		TABCDates:      sig.TABCDates,
		HealthStatus:   deriveHealthStatus(entity.SourceFlags, sig),
		PermitTypes:    sig.PermitTypes,
		MilestoneDates: sig.MilestoneDates,
	}
	f.MilestoneText = milestoneText(f)
	return f
}

// deriveHealthStatus prefers the explicit health-department flag, then
// falls back to scanning permit types for plan-review language.
func deriveHealthStatus(flags map[string]string, sig model.SignalData) string {
	if v := flags[model.FlagHCHealth]; v != "" {
		return v
	}

	for _, permit := range sig.PermitTypes {
		lower := strings.ToLower(permit)
		switch {
		case strings.Contains(lower, "plan review") && strings.Contains(lower, "approved"):
			return HealthPlanReviewApproved
		case strings.Contains(lower, "plan review"):
			return HealthPlanReviewReceived
		case strings.Contains(lower, "food service"):
			return HealthFoodServicePermit
		}
	}

	return HealthUnknown
}

// milestoneText renders one line per known signal or date pair. Keys
// are emitted in sorted order so the text is stable across runs.
func milestoneText(f Features) string {
	var lines []string

	if f.TABCStatus != "" {
		lines = append(lines, "TABC Status: "+f.TABCStatus)
	}
	for _, key := range sortedKeys(f.TABCDates) {
		if v := f.TABCDates[key]; v != "" {
			lines = append(lines, fmt.Sprintf("TABC %s: %s", key, v))
		}
	}
	for _, permit := range f.PermitTypes {
		lines = append(lines, "Permit: "+permit)
	}
	for _, key := range sortedKeys(f.MilestoneDates) {
		if v := f.MilestoneDates[key]; v != "" {
			lines = append(lines, fmt.Sprintf("%s: %s", key, v))
		}
	}

	return strings.Join(lines, "\n")
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
