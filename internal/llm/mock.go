package llm

import (
	"context"
	"fmt"
	"strings"
)

// MockAdapter provides deterministic local replies when no LLM backend is
// configured.
type MockAdapter struct{}

func NewMockAdapter() *MockAdapter { return &MockAdapter{} }

func (a *MockAdapter) Reply(ctx context.Context, req ReplyRequest) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	in := strings.TrimSpace(req.Input)
	if in == "" {
		return "I am listening. Try 'show my tickets' to get started.", nil
	}
	return fmt.Sprintf("I don't recognize that as a ticket command: %q. Type a command like 'show my tickets' or 'summarize ticket ESD-123'.", in), nil
}
