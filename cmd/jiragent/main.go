package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/antoniostano/jiragent/internal/approval"
	"github.com/antoniostano/jiragent/internal/config"
	"github.com/antoniostano/jiragent/internal/conversation"
	"github.com/antoniostano/jiragent/internal/httpapi"
	"github.com/antoniostano/jiragent/internal/jira"
	"github.com/antoniostano/jiragent/internal/llm"
	"github.com/antoniostano/jiragent/internal/memory"
	"github.com/antoniostano/jiragent/internal/observability"
	"github.com/antoniostano/jiragent/internal/workflow"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	ctx := context.Background()
	historyStore, err := memory.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("memory store init failed: %v", err)
	}
	defer historyStore.Close()

	tickets, err := jira.New(jira.Config{
		Mode:     cfg.JiraMode,
		BaseURL:  cfg.JiraBaseURL,
		Username: cfg.JiraUsername,
		Token:    cfg.JiraAPIToken,
		Timeout:  cfg.JiraHTTPTimeout,
	})
	if err != nil {
		log.Fatalf("jira client init failed: %v", err)
	}

	assistant, err := llm.NewAdapter(llm.Config{
		Mode:    cfg.LLMAdapterMode,
		HTTPURL: cfg.LLMHTTPURL,
	})
	if err != nil {
		log.Fatalf("llm adapter init failed: %v", err)
	}

	approvals := approval.NewRegistry(cfg.ApprovalTTL)
	engine := workflow.NewEngine(tickets, assistant, approvals, historyStore, metrics, cfg.MemoryContextLimit)

	conversations := conversation.NewManager(cfg.ConversationInactivityTimeout)
	conversations.SetExpireHook(func(_ *conversation.Conversation) {
		metrics.ActiveConversations.Set(float64(conversations.ActiveCount()))
	})

	api := httpapi.New(cfg, conversations, engine, approvals, metrics)
	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: api.Router(),
	}

	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()
	conversations.StartJanitor(runCtx, 30*time.Second)

	go func() {
		log.Printf("server listening on %s", cfg.BindAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Printf("shutdown signal received")

	runCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
		_ = httpServer.Close()
	}

	log.Printf("shutdown complete")
}
