package oracle

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/openings-cli/internal/eta"
	"github.com/sells-group/openings-cli/internal/model"
	"github.com/sells-group/openings-cli/pkg/anthropic"
)

const adjustSystemPrompt = `You refine opening-date estimates for restaurants under construction. You receive a rule-based estimate plus the raw permit and licensing milestones behind it. Nudge the estimate only when the milestones justify it; small corrections are expected, large ones are suspect. Respond with a single JSON object:
{"eta_days": int, "confidence_0_1": float, "rationale_text": "one sentence", "signals_used": ["..."]}`

// adjustProposal is the model's raw refinement before clamping.
type adjustProposal struct {
	ETADays     int      `json:"eta_days"`
	Confidence  float64  `json:"confidence_0_1"`
	Rationale   string   `json:"rationale_text"`
	SignalsUsed []string `json:"signals_used"`
}

// AdjustOracleOptions tunes the Claude adjustment oracle.
type AdjustOracleOptions struct {
	Model       string
	MaxTokens   int64
	RateLimitPS float64
	Timeout     time.Duration
}

// ClaudeAdjustmentOracle refines rule results via the Anthropic API.
// Satisfies eta.AdjustmentOracle. Never fails: any transport or parse
// error degrades to the unmodified rule result.
type ClaudeAdjustmentOracle struct {
	client  anthropic.Client
	limiter *rate.Limiter
	opts    AdjustOracleOptions
}

// NewClaudeAdjustmentOracle creates a rate-limited adjustment oracle.
func NewClaudeAdjustmentOracle(client anthropic.Client, opts AdjustOracleOptions) *ClaudeAdjustmentOracle {
	if opts.RateLimitPS <= 0 {
		opts.RateLimitPS = 2
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 400
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	return &ClaudeAdjustmentOracle{
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(opts.RateLimitPS), 1),
		opts:    opts,
	}
}

// Adjust returns a clamped refinement of result, or result untouched
// when the milestone text is too thin or the model call fails.
func (o *ClaudeAdjustmentOracle) Adjust(ctx context.Context, result model.ETARuleResult, milestoneText string) (model.ETARuleResult, error) {
	if !eta.ShouldAdjust(milestoneText) {
		return result, nil
	}

	proposed, err := o.propose(ctx, result, milestoneText)
	if err != nil {
		zap.L().Warn("oracle: eta adjustment failed, keeping rule result",
			zap.String("rule", result.RuleName),
			zap.Error(err),
		)
		return result, nil
	}
	return eta.ClampAdjustment(result, proposed), nil
}

// AdjustBatch adjusts each item independently and returns the refined
// results keyed by item ID. Items whose milestone text is too thin or
// whose call failed keep their original result. The only error returned
// is context cancellation.
func (o *ClaudeAdjustmentOracle) AdjustBatch(ctx context.Context, items []eta.AdjustmentItem) (map[string]model.ETARuleResult, error) {
	out := make(map[string]model.ETARuleResult, len(items))
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return out, eris.Wrap(err, "oracle: adjust batch")
		}
		adjusted, _ := o.Adjust(ctx, item.Result, item.MilestoneText)
		out[item.ID] = adjusted
	}
	return out, nil
}

func (o *ClaudeAdjustmentOracle) propose(ctx context.Context, result model.ETARuleResult, milestoneText string) (model.ETARuleResult, error) {
	if err := o.limiter.Wait(ctx); err != nil {
		return model.ETARuleResult{}, eris.Wrap(err, "oracle: rate limit wait")
	}

	ctx, cancel := context.WithTimeout(ctx, o.opts.Timeout)
	defer cancel()

	resp, err := o.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     o.opts.Model,
		MaxTokens: o.opts.MaxTokens,
		System:    adjustSystemPrompt,
		Messages: []anthropic.Message{
			{Role: "user", Content: adjustPrompt(result, milestoneText)},
		},
	})
	if err != nil {
		return model.ETARuleResult{}, err
	}
	resp.Usage.LogCost(resp.Model, "eta_adjustment")

	var prop adjustProposal
	if err := decodeJSON(responseText(resp), &prop); err != nil {
		return model.ETARuleResult{}, err
	}

	proposed := result
	proposed.ETADays = prop.ETADays
	proposed.Confidence = prop.Confidence
	proposed.Rationale = prop.Rationale
	proposed.SignalsUsed = prop.SignalsUsed
	return proposed, nil
}

func adjustPrompt(result model.ETARuleResult, milestoneText string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Rule %s estimated opening in %d days (window %s) with confidence %.2f.\n",
		result.RuleName, result.ETADays, result.Window(), result.Confidence)
	sb.WriteString("Milestones:\n")
	sb.WriteString(milestoneText)
	sb.WriteString("\nRefine eta_days and confidence_0_1 if the milestones justify it.")
	return sb.String()
}
