package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/antoniostano/jiragent/internal/approval"
	"github.com/antoniostano/jiragent/internal/config"
	"github.com/antoniostano/jiragent/internal/jira"
	"github.com/antoniostano/jiragent/internal/llm"
	"github.com/antoniostano/jiragent/internal/memory"
	"github.com/antoniostano/jiragent/internal/observability"
	"github.com/antoniostano/jiragent/internal/workflow"
)

const banner = `Ticket assistant ready. Commands:
  show my tickets
  show tickets with status <status>
  summarize ticket <TICKET-KEY>
  create ticket in <PROJECT> summary "<text>" description "<text>"
  update ticket <TICKET-KEY> set <field> "<value>"
  transition ticket <TICKET-KEY> to "<status>"
  assign ticket <TICKET-KEY> to "<user>"
  comment on ticket <TICKET-KEY> "<text>"
  approve <request-id> / reject <request-id> [reason]
Anything else is answered by the assistant. Type 'exit' or 'quit' to leave.`

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	metrics := observability.NewMetrics(cfg.MetricsNamespace + "_cli")

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

	userID := strings.TrimSpace(os.Getenv("USER"))
	if userID == "" {
		userID = "cli"
	}

	fmt.Println(banner)

	state := workflow.Idle()
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			break
		}

		var msgs []string
		state, msgs = engine.Handle(ctx, state, userID, line)
		for _, m := range msgs {
			fmt.Println(m)
		}
		if n := approvals.PendingCount(); n > 0 {
			fmt.Printf("(%d approval request pending)\n", n)
		}
	}

	if err := scanner.Err(); err != nil {
		log.Fatalf("read error: %v", err)
	}
	fmt.Println("bye")
}
