package oracle

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/openings-cli/internal/model"
)

func matchPair() (model.RawRecord, model.RawRecord) {
	a := model.RawRecord{Source: "tabc", SourceID: "1", VenueName: "Blue Sushi Saki", Address: "100 Main St, Houston"}
	b := model.RawRecord{Source: "hc_permit", SourceID: "2", VenueName: "Blue Sushi", Address: "100 Main Street, Pasadena"}
	return a, b
}

func TestClaudeMatchOracle_Evaluate(t *testing.T) {
	client := &mockClient{responses: []string{
		`{"same_entity": true, "confidence_0_1": 0.85, "explanation": "same street number and near-identical name"}`,
	}}
	o := NewClaudeMatchOracle(client, MatchOracleOptions{Model: "claude-haiku-4-5-20251001", RateLimitPS: 1000})

	a, b := matchPair()
	eval, err := o.Evaluate(context.Background(), a, b)
	require.NoError(t, err)

	assert.True(t, eval.SameEntity)
	assert.InDelta(t, 0.85, eval.Confidence, 1e-9)
	assert.NotEmpty(t, eval.Explanation)

	require.Len(t, client.requests, 1)
	req := client.requests[0]
	assert.Equal(t, "claude-haiku-4-5-20251001", req.Model)
	assert.Contains(t, req.Messages[0].Content, "Blue Sushi Saki")
	assert.Contains(t, req.Messages[0].Content, "Blue Sushi")
}

func TestClaudeMatchOracle_FencedResponse(t *testing.T) {
	client := &mockClient{responses: []string{
		"```json\n{\"same_entity\": false, \"confidence_0_1\": 0.3, \"explanation\": \"different cities\"}\n```",
	}}
	o := NewClaudeMatchOracle(client, MatchOracleOptions{Model: "m", RateLimitPS: 1000})

	a, b := matchPair()
	eval, err := o.Evaluate(context.Background(), a, b)
	require.NoError(t, err)
	assert.False(t, eval.SameEntity)
}

func TestClaudeMatchOracle_TransportError(t *testing.T) {
	client := &mockClient{err: errAPIDown}
	o := NewClaudeMatchOracle(client, MatchOracleOptions{Model: "m", RateLimitPS: 1000})

	a, b := matchPair()
	_, err := o.Evaluate(context.Background(), a, b)
	assert.Error(t, err)
}

func TestClaudeMatchOracle_GarbageResponse(t *testing.T) {
	client := &mockClient{responses: []string{"cannot say"}}
	o := NewClaudeMatchOracle(client, MatchOracleOptions{Model: "m", RateLimitPS: 1000})

	a, b := matchPair()
	_, err := o.Evaluate(context.Background(), a, b)
	assert.Error(t, err)
}

func TestClaudeMatchOracle_ConfidenceOutOfRange(t *testing.T) {
	client := &mockClient{responses: []string{
		`{"same_entity": true, "confidence_0_1": 1.7, "explanation": "x"}`,
	}}
	o := NewClaudeMatchOracle(client, MatchOracleOptions{Model: "m", RateLimitPS: 1000})

	a, b := matchPair()
	_, err := o.Evaluate(context.Background(), a, b)
	assert.Error(t, err)
}
