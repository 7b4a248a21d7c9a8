package main

import (
	"context"
	"os"
	"time"

	"github.com/k-capehart/go-salesforce/v3"
	"github.com/rotisserie/eris"

	"github.com/sells-group/openings-cli/internal/eta"
	"github.com/sells-group/openings-cli/internal/oracle"
	"github.com/sells-group/openings-cli/internal/pipeline"
	"github.com/sells-group/openings-cli/internal/resolve"
	"github.com/sells-group/openings-cli/internal/store"
	anthropicpkg "github.com/sells-group/openings-cli/pkg/anthropic"
	sfpkg "github.com/sells-group/openings-cli/pkg/salesforce"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		return store.NewSQLite(cfg.Store.DatabaseURL)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

func initSalesforce() (sfpkg.Client, error) {
	if cfg.Salesforce.ClientID == "" {
		return nil, eris.New("salesforce client ID is required (OPENINGS_SALESFORCE_CLIENT_ID)")
	}

	pemData, err := os.ReadFile(cfg.Salesforce.KeyPath)
	if err != nil {
		return nil, eris.Wrap(err, "read salesforce JWT private key")
	}

	sf, err := salesforce.Init(salesforce.Creds{
		Domain:         cfg.Salesforce.LoginURL,
		Username:       cfg.Salesforce.Username,
		ConsumerKey:    cfg.Salesforce.ClientID,
		ConsumerRSAPem: string(pemData),
	})
	if err != nil {
		return nil, eris.Wrap(err, "init salesforce")
	}

	return sfpkg.NewClient(sf, sfpkg.WithRateLimit(cfg.Salesforce.RateLimitPS)), nil
}

// buildPipeline assembles the resolver, rule engine, gate, and oracles
// from config. withOracles disables the Claude oracles for offline or
// deterministic runs.
func buildPipeline(withOracles bool) (*pipeline.Pipeline, error) {
	thresholds := eta.DefaultThresholds()
	if cfg.Pipeline.ThresholdsPath != "" {
		t, err := eta.LoadThresholds(cfg.Pipeline.ThresholdsPath)
		if err != nil {
			return nil, eris.Wrap(err, "load eta thresholds")
		}
		thresholds = t
	}

	var matchOracle resolve.MatchOracle
	var adjOracle eta.AdjustmentOracle
	if withOracles {
		if cfg.Anthropic.Key == "" {
			return nil, eris.New("anthropic API key is required (OPENINGS_ANTHROPIC_KEY)")
		}
		client := anthropicpkg.NewClient(cfg.Anthropic.Key)
		timeout := time.Duration(cfg.Oracle.TimeoutSecs) * time.Second
		matchOracle = oracle.NewClaudeMatchOracle(client, oracle.MatchOracleOptions{
			Model:       cfg.Anthropic.HaikuModel,
			MaxTokens:   cfg.Oracle.MatchMaxTokens,
			RateLimitPS: cfg.Oracle.RateLimitPS,
			Timeout:     timeout,
		})
		adjOracle = oracle.NewClaudeAdjustmentOracle(client, oracle.AdjustOracleOptions{
			Model:       cfg.Anthropic.SonnetModel,
			MaxTokens:   cfg.Oracle.ETAMaxTokens,
			RateLimitPS: cfg.Oracle.RateLimitPS,
			Timeout:     timeout,
		})
	}

	resolver := resolve.NewResolver(
		resolve.NewClassifier(resolve.NewAddressParser()),
		matchOracle,
		resolve.Options{SeedOnly: cfg.Pipeline.SeedOnly},
	)

	return pipeline.New(
		resolver,
		eta.NewEngine(thresholds),
		eta.NewGate(thresholds),
		adjOracle,
		pipeline.Options{MaxConcurrent: cfg.Pipeline.MaxConcurrent},
	), nil
}
