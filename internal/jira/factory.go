package jira

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Config controls client construction.
type Config struct {
	Mode     string
	BaseURL  string
	Username string
	Token    string
	Timeout  time.Duration
}

// New creates an HTTP-backed client when a base URL is configured,
// otherwise a mock backend.
func New(cfg Config) (Client, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.Mode))
	if mode == "" {
		mode = "auto"
	}

	switch mode {
	case "auto":
		if strings.TrimSpace(cfg.BaseURL) != "" {
			return newHTTPFromConfig(cfg)
		}
		return NewMockClient(), nil
	case "http":
		return newHTTPFromConfig(cfg)
	case "mock":
		return NewMockClient(), nil
	default:
		return nil, fmt.Errorf("unsupported jira client mode %q", cfg.Mode)
	}
}

func newHTTPFromConfig(cfg Config) (Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("jira base URL is required for http mode")
	}
	return NewHTTPClient(HTTPConfig{
		BaseURL:  cfg.BaseURL,
		Username: cfg.Username,
		Token:    cfg.Token,
		Timeout:  cfg.Timeout,
	}), nil
}
