// Package pipeline orchestrates a lead batch end to end: resolution,
// signal extraction, rule scoring, oracle adjustment, and gating.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/openings-cli/internal/eta"
	"github.com/sells-group/openings-cli/internal/model"
	"github.com/sells-group/openings-cli/internal/resolve"
	"github.com/sells-group/openings-cli/internal/signal"
)

// Options tunes batch execution.
type Options struct {
	// MaxConcurrent bounds parallel rule evaluation. Zero means 8.
	MaxConcurrent int
}

// Result is the outcome of one pipeline run.
type Result struct {
	RunID      string
	Candidates []model.Candidate
	Leads      []model.Lead
	Summary    model.RunSummary
}

// Pipeline wires the resolver, rule engine, adjustment oracle, and gate
// into a single batch runner. Every run freezes its reference time up
// front so all windows in a batch share one clock.
type Pipeline struct {
	resolver *resolve.Resolver
	engine   *eta.Engine
	gate     *eta.Gate
	oracle   eta.AdjustmentOracle
	opts     Options
}

// New creates a Pipeline. oracle may be nil to skip adjustment.
func New(resolver *resolve.Resolver, engine *eta.Engine, gate *eta.Gate, oracle eta.AdjustmentOracle, opts Options) *Pipeline {
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 8
	}
	return &Pipeline{
		resolver: resolver,
		engine:   engine,
		gate:     gate,
		oracle:   oracle,
		opts:     opts,
	}
}

// Run processes one batch of raw records against the frozen reference
// time now. Resolution is sequential; scoring fans out per entity.
func (p *Pipeline) Run(ctx context.Context, records []model.RawRecord, now time.Time) (*Result, error) {
	runID := uuid.NewString()
	started := time.Now()

	zap.L().Info("pipeline: run started",
		zap.String("run_id", runID),
		zap.Int("records", len(records)),
		zap.Time("reference_time", now),
	)

	entities := p.resolver.Resolve(ctx, records)

	candidates, milestones, err := p.score(ctx, entities, now)
	if err != nil {
		return nil, err
	}

	if err := p.adjust(ctx, candidates, milestones); err != nil {
		return nil, err
	}

	leads := p.gateLeads(runID, candidates, now)

	summary := model.RunSummary{
		ID:         runID,
		Records:    len(records),
		Entities:   len(entities),
		Scored:     countScored(candidates),
		Qualified:  len(leads),
		StartedAt:  started,
		FinishedAt: time.Now(),
	}

	zap.L().Info("pipeline: run complete",
		zap.String("run_id", runID),
		zap.Int("entities", summary.Entities),
		zap.Int("scored", summary.Scored),
		zap.Int("qualified", summary.Qualified),
	)

	return &Result{
		RunID:      runID,
		Candidates: candidates,
		Leads:      leads,
		Summary:    summary,
	}, nil
}

// score evaluates the rule ladder for every entity in parallel. Returns
// candidates in entity order plus the milestone text per candidate
// index for the adjustment pass.
func (p *Pipeline) score(ctx context.Context, entities []model.ResolvedEntity, now time.Time) ([]model.Candidate, []string, error) {
	candidates := make([]model.Candidate, len(entities))
	milestones := make([]string, len(entities))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.MaxConcurrent)

	for i, entity := range entities {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			features := signal.Extract(entity)
			candidates[i] = model.Candidate{
				Entity: entity,
				Result: p.engine.Evaluate(entity, features, now),
			}
			milestones[i] = features.MilestoneText
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, eris.Wrap(err, "pipeline: score entities")
	}
	return candidates, milestones, nil
}

// adjust batches scored candidates through the adjustment oracle and
// writes refined results in place. Candidates with no result or too
// little milestone context are skipped.
func (p *Pipeline) adjust(ctx context.Context, candidates []model.Candidate, milestones []string) error {
	if p.oracle == nil {
		return nil
	}

	items := make([]eta.AdjustmentItem, 0, len(candidates))
	index := make(map[string]int, len(candidates))
	for i, c := range candidates {
		if c.Result == nil || !eta.ShouldAdjust(milestones[i]) {
			continue
		}
		id := resolve.RecordID(c.Entity.RawRecord)
		items = append(items, eta.AdjustmentItem{
			ID:            id,
			Result:        *c.Result,
			MilestoneText: milestones[i],
		})
		index[id] = i
	}
	if len(items) == 0 {
		return nil
	}

	adjusted, err := p.oracle.AdjustBatch(ctx, items)
	if err != nil {
		return eris.Wrap(err, "pipeline: adjust candidates")
	}

	for id, result := range adjusted {
		i, ok := index[id]
		if !ok {
			continue
		}
		r := result
		candidates[i].Result = &r
	}
	return nil
}

// gateLeads applies the admission gate and materializes leads for the
// candidates that clear it.
func (p *Pipeline) gateLeads(runID string, candidates []model.Candidate, now time.Time) []model.Lead {
	var leads []model.Lead
	for i := range candidates {
		decision := p.gate.Evaluate(candidates[i].Result, now)
		candidates[i].GatePass = decision.Passed
		if !decision.Passed {
			continue
		}
		leads = append(leads, model.Lead{
			ID:        uuid.NewString(),
			RunID:     runID,
			Entity:    candidates[i].Entity,
			Result:    *candidates[i].Result,
			CreatedAt: now,
		})
	}
	return leads
}

func countScored(candidates []model.Candidate) int {
	n := 0
	for _, c := range candidates {
		if c.Result != nil {
			n++
		}
	}
	return n
}
