package eta

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/openings-cli/internal/model"
	"github.com/sells-group/openings-cli/internal/signal"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func cleanEntity() model.ResolvedEntity {
	return model.ResolvedEntity{
		RawRecord: model.RawRecord{
			VenueName: "Joe's Pizza",
			Address:   "123 Main St, Houston, TX 77002",
		},
		MergedFrom: 1,
	}
}

func evaluate(t *testing.T, f signal.Features) *model.ETARuleResult {
	t.Helper()
	return NewEngine(DefaultThresholds()).Evaluate(cleanEntity(), f, testNow)
}

func TestEngine_HighProbabilityShip(t *testing.T) {
	f := signal.Features{
		TABCStatus:     "Original Application Pending",
		HealthStatus:   signal.HealthPlanReviewApproved,
		MilestoneDates: map[string]string{"plan_approved": "2026-02-15"},
	}

	got := evaluate(t, f)
	require.NotNil(t, got)
	assert.Equal(t, "high_probability_ship", got.RuleName)
	assert.InDelta(t, 0.75, got.Confidence, 1e-9)
	assert.Equal(t, 45, got.ETADays)
	assert.Equal(t, testNow.AddDate(0, 0, 30), got.ETAStart)
	assert.Equal(t, testNow.AddDate(0, 0, 60), got.ETAEnd)
}

func TestEngine_HighProbabilityShip_StaleApproval(t *testing.T) {
	f := signal.Features{
		TABCStatus:     "Original Application Pending",
		HealthStatus:   signal.HealthPlanReviewApproved,
		MilestoneDates: map[string]string{"plan_approved": "2025-12-01"},
	}

	// Approval older than 45 days: only the plan-review-only rule could
	// fire, and its milestone check fails for the same reason.
	assert.Nil(t, evaluate(t, f))
}

func TestEngine_FinalInspectionScheduled(t *testing.T) {
	tests := []struct {
		name string
		f    signal.Features
	}{
		{
			name: "permit type",
			f:    signal.Features{PermitTypes: []string{"Final Inspection Scheduled"}},
		},
		{
			name: "milestone key",
			f:    signal.Features{MilestoneDates: map[string]string{"certificate of occupancy": "2026-02-20"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := evaluate(t, tt.f)
			require.NotNil(t, got)
			assert.Equal(t, "final_inspection_scheduled", got.RuleName)
			assert.InDelta(t, 0.80, got.Confidence, 1e-9)
			assert.Equal(t, 18, got.ETADays)
			assert.Equal(t, testNow.AddDate(0, 0, 7), got.ETAStart)
			assert.Equal(t, testNow.AddDate(0, 0, 30), got.ETAEnd)
		})
	}
}

func TestEngine_StrongEarlySignal(t *testing.T) {
	f := signal.Features{
		TABCStatus:     "Original Pending",
		PermitTypes:    []string{"Tenant Build-Out Permit"},
		MilestoneDates: map[string]string{"application_filed": "2026-02-01"},
	}

	got := evaluate(t, f)
	require.NotNil(t, got)
	assert.Equal(t, "strong_early_signal", got.RuleName)
	assert.InDelta(t, 0.70, got.Confidence, 1e-9)
	assert.Equal(t, 90, got.ETADays)
	assert.Equal(t, testNow.AddDate(0, 0, 60), got.ETAStart)
	assert.Equal(t, testNow.AddDate(0, 0, 120), got.ETAEnd)
}

func TestEngine_MediumTABCPending(t *testing.T) {
	tests := []struct {
		name     string
		applied  string
		wantRule string
		wantConf float64
		wantDays int
	}{
		{"new application", "2026-02-15", "medium_tabc_pending_new", 0.65, 67},
		{"aged application", "2026-01-01", "medium_tabc_pending_aged", 0.60, 45},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := signal.Features{
				TABCStatus: "Original Pending",
				TABCDates:  map[string]string{"application": tt.applied},
			}
			got := evaluate(t, f)
			require.NotNil(t, got)
			assert.Equal(t, tt.wantRule, got.RuleName)
			assert.InDelta(t, tt.wantConf, got.Confidence, 1e-9)
			assert.Equal(t, tt.wantDays, got.ETADays)
		})
	}
}

func TestEngine_MediumTABCPending_TooOld(t *testing.T) {
	f := signal.Features{
		TABCStatus: "Original Pending",
		TABCDates:  map[string]string{"application": "2025-11-01"},
	}
	assert.Nil(t, evaluate(t, f))
}

func TestEngine_MediumPlanReviewBuilding(t *testing.T) {
	f := signal.Features{
		HealthStatus:   signal.HealthPlanReviewReceived,
		PermitTypes:    []string{"Building Permit"},
		MilestoneDates: map[string]string{"building_permit_issued": "2026-02-01"},
	}

	got := evaluate(t, f)
	require.NotNil(t, got)
	assert.Equal(t, "medium_plan_review_building", got.RuleName)
	assert.InDelta(t, 0.55, got.Confidence, 1e-9)
	assert.Equal(t, 67, got.ETADays)
}

func TestEngine_HealthPlanReviewOnly(t *testing.T) {
	f := signal.Features{
		HealthStatus:   signal.HealthPlanReviewApproved,
		MilestoneDates: map[string]string{"plan_approved": "2026-02-20"},
	}

	got := evaluate(t, f)
	require.NotNil(t, got)
	assert.Equal(t, "health_plan_review_only", got.RuleName)
	assert.InDelta(t, 0.60, got.Confidence, 1e-9)
	assert.Equal(t, 67, got.ETADays)
	assert.Equal(t, testNow.AddDate(0, 0, 45), got.ETAStart)
	assert.Equal(t, testNow.AddDate(0, 0, 90), got.ETAEnd)
}

func TestEngine_NoSignals(t *testing.T) {
	assert.Nil(t, evaluate(t, signal.Features{}))
}

func TestEngine_HighestConfidenceWins(t *testing.T) {
	f := signal.Features{
		TABCStatus:     "Original Application Pending",
		HealthStatus:   signal.HealthPlanReviewApproved,
		PermitTypes:    []string{"Final Inspection Scheduled"},
		MilestoneDates: map[string]string{"plan_approved": "2026-02-15"},
	}

	got := evaluate(t, f)
	require.NotNil(t, got)
	assert.Equal(t, "final_inspection_scheduled", got.RuleName)
	assert.InDelta(t, 0.80, got.Confidence, 1e-9)
}

func TestEngine_PenaltyDropsResultBelowFloor(t *testing.T) {
	entity := cleanEntity()
	entity.Address = "short" // 0.9 multiplier

	f := signal.Features{
		HealthStatus:   signal.HealthPlanReviewReceived,
		PermitTypes:    []string{"Building Permit"},
		MilestoneDates: map[string]string{"building_permit_issued": "2026-02-01"},
	}

	// 0.55 * 0.9 = 0.495, under the 0.5 floor.
	got := NewEngine(DefaultThresholds()).Evaluate(entity, f, testNow)
	assert.Nil(t, got)
}

func TestEngine_DeadTABCKillsResult(t *testing.T) {
	f := signal.Features{
		TABCStatus:  "Cancelled",
		PermitTypes: []string{"Final Inspection Scheduled"},
	}

	// 0.80 * 0.5 = 0.40, under the floor.
	assert.Nil(t, evaluate(t, f))
}

func TestEngine_UnparseableDatesIgnored(t *testing.T) {
	f := signal.Features{
		TABCStatus: "Original Pending",
		TABCDates:  map[string]string{"application": "sometime in spring"},
	}
	assert.Nil(t, evaluate(t, f))
}

func TestLatestDate_PicksMostRecentAcrossFormats(t *testing.T) {
	dates := map[string]string{
		"application_received": "2026-01-05",
		"application_amended":  "02/10/2026",
		"unrelated":            "2026-02-28",
	}
	got, ok := latestDate(dates, "application")
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC), got)
}

func TestAgeDays_TruncatesTimeOfDay(t *testing.T) {
	then := time.Date(2026, 2, 28, 23, 59, 0, 0, time.UTC)
	now := time.Date(2026, 3, 1, 0, 1, 0, 0, time.UTC)
	assert.Equal(t, 1, ageDays(now, then))
}
