package llm

import (
	"context"
	"fmt"
	"strings"
)

// MockProvider provides deterministic local replies when no provider is
// configured. Scoring requests get a reply with no verdict in it, so the
// model evaluator falls through to its heuristic.
type MockProvider struct{}

func NewMockProvider() *MockProvider { return &MockProvider{} }

func (p *MockProvider) Name() string { return "mock" }

func (p *MockProvider) Complete(ctx context.Context, req Request) (Response, error) {
	select {
	case <-ctx.Done():
		return Response{}, ctx.Err()
	default:
	}
	return Response{Text: buildMockReply(req)}, nil
}

const mockRubricReply = "Offline mode: this message was not scored by a model."

func buildMockReply(req Request) string {
	var system, last string
	for _, m := range req.Messages {
		switch m.Role {
		case RoleSystem:
			system = m.Content
		case RoleUser:
			last = strings.TrimSpace(m.Content)
		}
	}
	if strings.Contains(system, `"scoreChange"`) {
		return mockRubricReply
	}
	if last == "" {
		return "I'm here. Take your time."
	}
	return fmt.Sprintf("I hear that you said: %q. Can you tell me a little more?", last)
}
