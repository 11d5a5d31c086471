package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Turn is one prior conversational exchange passed as context.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ReplyRequest carries the unmatched user message plus recent history.
type ReplyRequest struct {
	UserID  string `json:"user_id"`
	Input   string `json:"input_text"`
	History []Turn `json:"history,omitempty"`
}

// Adapter produces a free-form reply when no command pattern matches. It is
// never invoked for executable operations.
type Adapter interface {
	Reply(ctx context.Context, req ReplyRequest) (string, error)
}

// Config controls adapter construction.
type Config struct {
	Mode    string
	HTTPURL string
}

func NewAdapter(cfg Config) (Adapter, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.Mode))
	if mode == "" {
		mode = "auto"
	}

	switch mode {
	case "auto":
		if strings.TrimSpace(cfg.HTTPURL) != "" {
			return NewHTTPAdapter(cfg.HTTPURL), nil
		}
		return NewMockAdapter(), nil
	case "http":
		if strings.TrimSpace(cfg.HTTPURL) == "" {
			return nil, errors.New("llm HTTP url is required for http mode")
		}
		return NewHTTPAdapter(cfg.HTTPURL), nil
	case "mock":
		return NewMockAdapter(), nil
	default:
		return nil, fmt.Errorf("unsupported llm adapter mode %q", cfg.Mode)
	}
}
