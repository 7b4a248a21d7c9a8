package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/openings-cli/internal/model"
	"github.com/sells-group/openings-cli/internal/resolve"
	"github.com/sells-group/openings-cli/pkg/anthropic"
)

const matchSystemPrompt = `You arbitrate whether two business records from different data sources describe the same physical restaurant location. Records come from TABC licensing, county health permits, and building permit feeds, so names and addresses are noisy. Respond with a single JSON object:
{"same_entity": bool, "confidence_0_1": float, "explanation": "one sentence"}`

// MatchOracleOptions tunes the Claude match oracle.
type MatchOracleOptions struct {
	Model       string
	MaxTokens   int64
	RateLimitPS float64
	Timeout     time.Duration
}

// ClaudeMatchOracle arbitrates ambiguous record pairs via the Anthropic
// API. Satisfies resolve.MatchOracle.
type ClaudeMatchOracle struct {
	client  anthropic.Client
	limiter *rate.Limiter
	opts    MatchOracleOptions
}

// NewClaudeMatchOracle creates a rate-limited match oracle.
func NewClaudeMatchOracle(client anthropic.Client, opts MatchOracleOptions) *ClaudeMatchOracle {
	if opts.RateLimitPS <= 0 {
		opts.RateLimitPS = 2
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 300
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	return &ClaudeMatchOracle{
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(opts.RateLimitPS), 1),
		opts:    opts,
	}
}

// Evaluate asks the model whether two records are the same entity. Any
// transport or parse failure is returned to the caller; the resolver
// treats an error as a non-merge.
func (o *ClaudeMatchOracle) Evaluate(ctx context.Context, a, b model.RawRecord) (resolve.MatchEvaluation, error) {
	if err := o.limiter.Wait(ctx); err != nil {
		return resolve.MatchEvaluation{}, eris.Wrap(err, "oracle: rate limit wait")
	}

	ctx, cancel := context.WithTimeout(ctx, o.opts.Timeout)
	defer cancel()

	resp, err := o.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     o.opts.Model,
		MaxTokens: o.opts.MaxTokens,
		System:    matchSystemPrompt,
		Messages: []anthropic.Message{
			{Role: "user", Content: matchPrompt(a, b)},
		},
	})
	if err != nil {
		return resolve.MatchEvaluation{}, err
	}
	resp.Usage.LogCost(resp.Model, "match_arbitration")

	var eval resolve.MatchEvaluation
	if err := decodeJSON(responseText(resp), &eval); err != nil {
		return resolve.MatchEvaluation{}, err
	}
	if eval.Confidence < 0 || eval.Confidence > 1 {
		return resolve.MatchEvaluation{}, eris.Errorf("oracle: confidence %v out of range", eval.Confidence)
	}

	zap.L().Debug("oracle: match verdict",
		zap.String("venue_a", a.VenueName),
		zap.String("venue_b", b.VenueName),
		zap.Bool("same_entity", eval.SameEntity),
		zap.Float64("confidence", eval.Confidence),
	)
	return eval, nil
}

func matchPrompt(a, b model.RawRecord) string {
	return fmt.Sprintf("Record A:\n%s\nRecord B:\n%s\nAre these the same restaurant location?",
		recordSummary(a), recordSummary(b))
}

func recordSummary(r model.RawRecord) string {
	payload := map[string]string{
		"source":     r.Source,
		"venue_name": r.VenueName,
		"legal_name": r.LegalName,
		"address":    r.Address,
		"city":       r.City,
		"state":      r.State,
		"zip":        r.Zip,
		"phone":      r.Phone,
		"email":      r.Email,
	}
	b, _ := json.Marshal(payload)
	return string(b)
}
