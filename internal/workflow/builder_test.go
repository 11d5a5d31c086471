package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/antoniostano/jiragent/internal/approval"
	"github.com/antoniostano/jiragent/internal/command"
	"github.com/antoniostano/jiragent/internal/jira"
)

type failingReadsClient struct {
	*jira.MockClient
}

func (c *failingReadsClient) GetTicket(context.Context, string) (jira.Ticket, error) {
	return jira.Ticket{}, errors.New("backend unavailable")
}

func TestBuildUpdatePreviewsCurrentValue(t *testing.T) {
	approvals := approval.NewRegistry(0)
	b := NewBuilder(jira.NewMockClient(), approvals)

	req, err := b.Build(context.Background(), command.Intent{
		Kind:      command.KindUpdateTicket,
		TicketKey: "ESD-101",
		Field:     "summary",
		Value:     "New title",
	})
	if err != nil {
		t.Fatalf("Build error = %v", err)
	}
	if req.Operation != approval.OpUpdateTicket {
		t.Fatalf("Operation = %q, want %q", req.Operation, approval.OpUpdateTicket)
	}

	got := map[string]string{}
	for _, f := range req.Preview {
		got[f.Name] = f.Value
	}
	if got["current_summary"] != "Login page times out" {
		t.Fatalf("current_summary = %q, want seeded value", got["current_summary"])
	}
	if got["new_summary"] != "New title" {
		t.Fatalf("new_summary = %q", got["new_summary"])
	}
	if req.Payload.TicketKey != "ESD-101" || req.Payload.Field != "summary" || req.Payload.Value != "New title" {
		t.Fatalf("payload = %+v", req.Payload)
	}
}

func TestBuildDegradesWhenReadsFail(t *testing.T) {
	approvals := approval.NewRegistry(0)
	b := NewBuilder(&failingReadsClient{jira.NewMockClient()}, approvals)

	req, err := b.Build(context.Background(), command.Intent{
		Kind:         command.KindTransition,
		TicketKey:    "ESD-101",
		TargetStatus: "Done",
	})
	if err != nil {
		t.Fatalf("Build error = %v, want degraded preview", err)
	}
	if req.Status != approval.StatusPending {
		t.Fatalf("Status = %q, want pending", req.Status)
	}

	for _, f := range req.Preview {
		if f.Name == "current_status" && f.Value != "" {
			t.Fatalf("current_status = %q, want empty on failed fetch", f.Value)
		}
	}
}

func TestBuildRejectsNonWriteIntent(t *testing.T) {
	b := NewBuilder(jira.NewMockClient(), approval.NewRegistry(0))

	if _, err := b.Build(context.Background(), command.Intent{Kind: command.KindShowMyTickets}); err == nil {
		t.Fatal("Build accepted a read intent")
	}
}

func TestExecuteRequiresApprovedStatus(t *testing.T) {
	approvals := approval.NewRegistry(0)
	tickets := jira.NewMockClient()
	b := NewBuilder(tickets, approvals)
	ex := NewExecutor(tickets, approvals)
	ctx := context.Background()

	req, err := b.Build(ctx, command.Intent{
		Kind:      command.KindAddComment,
		TicketKey: "ESD-101",
		Comment:   "ping",
	})
	if err != nil {
		t.Fatalf("Build error = %v", err)
	}

	if _, err := ex.Execute(ctx, req.ID); !errors.Is(err, ErrNotApproved) {
		t.Fatalf("Execute on pending request error = %v, want ErrNotApproved", err)
	}
	if _, err := ex.Execute(ctx, "missing-id"); !errors.Is(err, ErrNotApproved) {
		t.Fatalf("Execute on unknown id error = %v, want ErrNotApproved", err)
	}

	comments, _ := tickets.GetComments(ctx, "ESD-101")
	if len(comments) != 0 {
		t.Fatalf("comment added without approval: %+v", comments)
	}

	approvals.Approve(req.ID, "maria")
	out, err := ex.Execute(ctx, req.ID)
	if err != nil {
		t.Fatalf("Execute error = %v", err)
	}
	if out == "" {
		t.Fatal("Execute returned empty result message")
	}
}

func TestExecuteRunsAtMostOncePerApproval(t *testing.T) {
	approvals := approval.NewRegistry(0)
	tickets := jira.NewMockClient()
	b := NewBuilder(tickets, approvals)
	ex := NewExecutor(tickets, approvals)
	ctx := context.Background()

	req, err := b.Build(ctx, command.Intent{
		Kind:      command.KindAddComment,
		TicketKey: "ESD-101",
		Comment:   "ship it",
	})
	if err != nil {
		t.Fatalf("Build error = %v", err)
	}
	approvals.Approve(req.ID, "maria")

	if _, err := ex.Execute(ctx, req.ID); err != nil {
		t.Fatalf("first Execute error = %v", err)
	}
	if _, err := ex.Execute(ctx, req.ID); err == nil {
		t.Fatal("second Execute succeeded, want already-executed error")
	}

	comments, _ := tickets.GetComments(ctx, "ESD-101")
	if len(comments) != 1 {
		t.Fatalf("comment executed %d times, want exactly once", len(comments))
	}
}
