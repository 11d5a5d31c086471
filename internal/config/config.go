package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config contains all runtime settings for the ticket assistant service.
type Config struct {
	BindAddr                      string
	ShutdownTimeout               time.Duration
	ConversationInactivityTimeout time.Duration
	MetricsNamespace              string

	AllowAnyOrigin bool

	ApprovalTTL time.Duration

	JiraMode        string
	JiraBaseURL     string
	JiraUsername    string
	JiraAPIToken    string
	JiraHTTPTimeout time.Duration

	LLMAdapterMode string
	LLMHTTPURL     string

	DatabaseURL        string
	MemoryContextLimit int
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:                      envOrDefault("APP_BIND_ADDR", ":8080"),
		MetricsNamespace:              envOrDefault("APP_METRICS_NAMESPACE", "jiragent"),
		AllowAnyOrigin:                false,
		JiraMode:                      envOrDefault("JIRA_MODE", "auto"),
		JiraBaseURL:                   stringsTrimSpace("JIRA_BASE_URL"),
		JiraUsername:                  stringsTrimSpace("JIRA_USERNAME"),
		JiraAPIToken:                  stringsTrimSpace("JIRA_API_TOKEN"),
		LLMAdapterMode:                envOrDefault("LLM_ADAPTER_MODE", "auto"),
		LLMHTTPURL:                    stringsTrimSpace("LLM_HTTP_URL"),
		DatabaseURL:                   stringsTrimSpace("DATABASE_URL"),
		MemoryContextLimit:            10,
		ShutdownTimeout:               15 * time.Second,
		ConversationInactivityTimeout: 30 * time.Minute,
		// Pending approvals not decided within the TTL expire and must be
		// requested again.
		ApprovalTTL:     15 * time.Minute,
		JiraHTTPTimeout: 30 * time.Second,
	}
	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.ConversationInactivityTimeout, err = durationFromEnv("APP_CONVERSATION_INACTIVITY_TIMEOUT", cfg.ConversationInactivityTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.ApprovalTTL, err = durationFromEnv("APPROVAL_TTL", cfg.ApprovalTTL)
	if err != nil {
		return Config{}, err
	}
	cfg.JiraHTTPTimeout, err = durationFromEnv("JIRA_HTTP_TIMEOUT", cfg.JiraHTTPTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.MemoryContextLimit, err = intFromEnv("MEMORY_CONTEXT_LIMIT", cfg.MemoryContextLimit)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("APP_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin)
	if err != nil {
		return Config{}, err
	}

	if cfg.ConversationInactivityTimeout < 5*time.Second {
		return Config{}, fmt.Errorf("APP_CONVERSATION_INACTIVITY_TIMEOUT must be at least 5s")
	}
	if cfg.ApprovalTTL < time.Minute {
		return Config{}, fmt.Errorf("APPROVAL_TTL must be at least 1m")
	}
	if cfg.JiraHTTPTimeout <= 0 {
		return Config{}, fmt.Errorf("JIRA_HTTP_TIMEOUT must be positive")
	}
	if cfg.MemoryContextLimit <= 0 {
		return Config{}, fmt.Errorf("MEMORY_CONTEXT_LIMIT must be positive")
	}
	if cfg.JiraBaseURL != "" && (cfg.JiraUsername == "" || cfg.JiraAPIToken == "") {
		return Config{}, fmt.Errorf("JIRA_USERNAME and JIRA_API_TOKEN are required when JIRA_BASE_URL is set")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func stringsTrimSpace(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(stringsTrimSpace(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
