package oracle

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/openings-cli/pkg/anthropic"
)

// mockClient returns canned responses and records requests.
type mockClient struct {
	responses []string
	err       error
	requests  []anthropic.MessageRequest
}

func (m *mockClient) CreateMessage(_ context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	m.requests = append(m.requests, req)
	if m.err != nil {
		return nil, m.err
	}

	text := ""
	if len(m.responses) > 0 {
		text = m.responses[0]
		if len(m.responses) > 1 {
			m.responses = m.responses[1:]
		}
	}

	return &anthropic.MessageResponse{
		ID:    "msg_test",
		Model: "claude-haiku-4-5-20251001",
		Content: []anthropic.ContentBlock{
			{Type: "text", Text: text},
		},
		StopReason: "end_turn",
		Usage:      anthropic.TokenUsage{InputTokens: 100, OutputTokens: 50},
	}, nil
}

var errAPIDown = eris.New("api unavailable")
