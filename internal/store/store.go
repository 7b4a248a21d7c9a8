// Package store persists pipeline runs and qualified leads.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/openings-cli/internal/model"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = eris.New("store: not found")

// LeadFilter specifies criteria for listing leads.
type LeadFilter struct {
	RunID         string  `json:"run_id,omitempty"`
	RuleName      string  `json:"rule_name,omitempty"`
	MinConfidence float64 `json:"min_confidence,omitempty"`
	Unpushed      bool    `json:"unpushed,omitempty"`
	Limit         int     `json:"limit,omitempty"`
	Offset        int     `json:"offset,omitempty"`
}

// Store defines the persistence interface for the lead pipeline.
type Store interface {
	// Runs
	SaveRun(ctx context.Context, summary model.RunSummary) error
	GetRun(ctx context.Context, runID string) (*model.RunSummary, error)
	ListRuns(ctx context.Context, limit int) ([]model.RunSummary, error)

	// Leads
	SaveLeads(ctx context.Context, leads []model.Lead) error
	GetLead(ctx context.Context, leadID string) (*model.Lead, error)
	ListLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error)
	MarkPushed(ctx context.Context, leadID, crmID string) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
