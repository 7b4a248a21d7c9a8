package eta

import (
	"strings"
	"time"

	"github.com/sells-group/openings-cli/internal/model"
	"github.com/sells-group/openings-cli/internal/signal"
)

// Engine evaluates the fixed rule ladder against canonical features.
// Every rule runs; the confidence adjuster is applied to each result;
// the highest adjusted confidence above the floor wins. The evaluation
// timestamp is threaded in explicitly so one batch sees one "now".
type Engine struct {
	thresholds Thresholds
}

// NewEngine creates an Engine.
func NewEngine(t Thresholds) *Engine {
	return &Engine{thresholds: t}
}

type rule func(f signal.Features, now time.Time) *model.ETARuleResult

// Evaluate runs all rules for one entity and returns the best surviving
// result, or nil when no rule clears the confidence floor. A nil return
// is a normal outcome, not an error.
func (e *Engine) Evaluate(entity model.ResolvedEntity, f signal.Features, now time.Time) *model.ETARuleResult {
	rules := []rule{
		ruleHighProbabilityShip,
		ruleFinalInspectionScheduled,
		ruleStrongEarlySignal,
		ruleMediumTABCPending,
		ruleMediumPlanReviewBuilding,
		ruleHealthPlanReviewOnly,
	}

	multiplier := Multiplier(entity, f, e.thresholds.MinMultiplier)

	var best *model.ETARuleResult
	for _, r := range rules {
		result := r(f, now)
		if result == nil {
			continue
		}
		result.Confidence *= multiplier
		if result.Confidence < e.thresholds.ConfidenceFloor {
			continue
		}
		if best == nil || result.Confidence > best.Confidence {
			best = result
		}
	}
	return best
}

// ruleHighProbabilityShip fires for a pending original TABC license with
// an approved health status and a plan approval within the last 45 days.
func ruleHighProbabilityShip(f signal.Features, now time.Time) *model.ETARuleResult {
	tabc := strings.ToLower(f.TABCStatus)
	if !strings.Contains(tabc, "original") || !strings.Contains(tabc, "pending") {
		return nil
	}
	if !strings.Contains(strings.ToLower(f.HealthStatus), "approved") {
		return nil
	}

	approved, ok := latestDate(f.MilestoneDates, "plan", "approved")
	if !ok || ageDays(now, approved) > 45 {
		return nil
	}

	return windowResult(now, 30, 60, 45, 0.75, "high_probability_ship",
		"tabc_original_pending", "hcph_plan_approved")
}

// finalInspectionIndicators mark permits or milestones at the
// certificate-of-occupancy stage.
var finalInspectionIndicators = []string{
	"final inspection", "co pending", "co scheduled",
	"certificate of occupancy", "final review",
}

func ruleFinalInspectionScheduled(f signal.Features, now time.Time) *model.ETARuleResult {
	found := false
	for _, permit := range f.PermitTypes {
		if containsAny(strings.ToLower(permit), finalInspectionIndicators) {
			found = true
			break
		}
	}
	if !found {
		for key := range f.MilestoneDates {
			if containsAny(strings.ToLower(key), finalInspectionIndicators) {
				found = true
				break
			}
		}
	}
	if !found {
		return nil
	}

	return windowResult(now, 7, 30, 18, 0.80, "final_inspection_scheduled",
		"final_inspection_or_co")
}

func ruleStrongEarlySignal(f signal.Features, now time.Time) *model.ETARuleResult {
	hasEarlyPermit := false
	for _, permit := range f.PermitTypes {
		lower := strings.ToLower(permit)
		if strings.Contains(lower, "tenant build-out") || strings.Contains(lower, "new construction") {
			hasEarlyPermit = true
			break
		}
	}
	if !hasEarlyPermit || !strings.Contains(strings.ToLower(f.TABCStatus), "pending") {
		return nil
	}

	applied, ok := latestDate(f.MilestoneDates, "application", "filed")
	if !ok || ageDays(now, applied) > 60 {
		return nil
	}

	return windowResult(now, 60, 120, 90, 0.70, "strong_early_signal",
		"early_permit", "tabc_pending_recent")
}

// ruleMediumTABCPending tiers on application age: new applications get
// a wider, more distant window; aged ones sit closer to opening.
func ruleMediumTABCPending(f signal.Features, now time.Time) *model.ETARuleResult {
	tabc := strings.ToLower(f.TABCStatus)
	if !strings.Contains(tabc, "original") || !strings.Contains(tabc, "pending") {
		return nil
	}

	applied, ok := latestDate(f.TABCDates, "application", "filed")
	if !ok {
		return nil
	}

	switch age := ageDays(now, applied); {
	case age <= 30:
		return windowResult(now, 45, 90, 67, 0.65, "medium_tabc_pending_new",
			"tabc_original_pending_new")
	case age <= 75:
		return windowResult(now, 30, 60, 45, 0.60, "medium_tabc_pending_aged",
			"tabc_original_pending_aged")
	default:
		return nil
	}
}

func ruleMediumPlanReviewBuilding(f signal.Features, now time.Time) *model.ETARuleResult {
	health := strings.ToLower(f.HealthStatus)
	if !strings.Contains(health, "plan") || !strings.Contains(health, "review") {
		return nil
	}

	hasBuildingPermit := false
	for _, permit := range f.PermitTypes {
		lower := strings.ToLower(permit)
		if strings.Contains(lower, "building") || strings.Contains(lower, "tenant") {
			hasBuildingPermit = true
			break
		}
	}
	if !hasBuildingPermit {
		return nil
	}

	permitDate, ok := latestDate(f.MilestoneDates, "building", "tenant")
	if !ok || ageDays(now, permitDate) > 60 {
		return nil
	}

	return windowResult(now, 45, 90, 67, 0.55, "medium_plan_review_building",
		"hcph_plan_review", "building_permit")
}

func ruleHealthPlanReviewOnly(f signal.Features, now time.Time) *model.ETARuleResult {
	if !strings.Contains(strings.ToLower(f.HealthStatus), signal.HealthPlanReviewApproved) {
		return nil
	}

	approved, ok := latestDate(f.MilestoneDates, "plan", "approved")
	if !ok || ageDays(now, approved) > 45 {
		return nil
	}

	return windowResult(now, 45, 90, 67, 0.60, "health_plan_review_only",
		"hcph_plan_approved_recent")
}

func windowResult(now time.Time, startDays, endDays, etaDays int, confidence float64, name string, signals ...string) *model.ETARuleResult {
	return &model.ETARuleResult{
		ETAStart:    now.AddDate(0, 0, startDays),
		ETAEnd:      now.AddDate(0, 0, endDays),
		ETADays:     etaDays,
		Confidence:  confidence,
		RuleName:    name,
		SignalsUsed: signals,
	}
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

// dateLayouts are the accepted milestone date renderings. Anything
// unparseable contributes nothing.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"01/02/2006",
}

// latestDate returns the most recent parseable date whose key contains
// any of the keywords (case-insensitive).
func latestDate(dates map[string]string, keywords ...string) (time.Time, bool) {
	var latest time.Time
	found := false

	for key, raw := range dates {
		lower := strings.ToLower(key)
		if !containsAny(lower, keywords) {
			continue
		}
		parsed, ok := parseDate(raw)
		if !ok {
			continue
		}
		if !found || parsed.After(latest) {
			latest = parsed
			found = true
		}
	}
	return latest, found
}

func parseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ageDays computes whole calendar days between a milestone date and
// now, time-of-day discarded on both sides.
func ageDays(now, then time.Time) int {
	nd := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	td := time.Date(then.Year(), then.Month(), then.Day(), 0, 0, 0, 0, time.UTC)
	return int(nd.Sub(td).Hours() / 24)
}
