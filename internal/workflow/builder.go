package workflow

import (
	"context"
	"fmt"

	"github.com/antoniostano/jiragent/internal/approval"
	"github.com/antoniostano/jiragent/internal/command"
	"github.com/antoniostano/jiragent/internal/jira"
)

// Builder turns a classified write intent into a registered pending
// approval request. For operations against an existing ticket it fetches
// the current state to render a before/after preview; a failed fetch
// degrades to an empty current view rather than aborting, so the action can
// still be previewed and approved when the read side is down.
type Builder struct {
	tickets   jira.Client
	approvals *approval.Registry
}

func NewBuilder(tickets jira.Client, approvals *approval.Registry) *Builder {
	return &Builder{tickets: tickets, approvals: approvals}
}

// Build registers a pending request for the intent and returns it. The
// action payload is captured verbatim here and is the only thing the
// executor will read later.
func (b *Builder) Build(ctx context.Context, intent command.Intent) (approval.Request, error) {
	switch intent.Kind {
	case command.KindCreateTicket:
		return b.buildCreate(intent), nil
	case command.KindUpdateTicket:
		return b.buildUpdate(ctx, intent)
	case command.KindTransition:
		return b.buildTransition(ctx, intent), nil
	case command.KindAssign:
		return b.buildAssign(ctx, intent), nil
	case command.KindAddComment:
		return b.buildComment(intent), nil
	default:
		return approval.Request{}, fmt.Errorf("intent %q is not a write operation", intent.Kind)
	}
}

func (b *Builder) buildCreate(intent command.Intent) approval.Request {
	preview := []approval.Field{
		{Name: "project", Value: intent.Project},
		{Name: "summary", Value: intent.Summary},
		{Name: "description", Value: intent.Description},
		{Name: "issue_type", Value: "Task"},
		{Name: "assignee", Value: "Unassigned"},
		{Name: "priority", Value: "Medium"},
	}
	description := fmt.Sprintf("Create new Task ticket in project %s", intent.Project)
	payload := approval.Payload{
		Project:     intent.Project,
		Summary:     intent.Summary,
		Description: intent.Description,
		IssueType:   "Task",
	}
	return b.approvals.Create(approval.OpCreateTicket, preview, description, "", payload)
}

func (b *Builder) buildUpdate(ctx context.Context, intent command.Intent) (approval.Request, error) {
	if !jira.IsUpdatableField(intent.Field) {
		return approval.Request{}, fmt.Errorf("field %q cannot be updated; supported fields are summary, description, assignee, priority", intent.Field)
	}

	current := b.fetchCurrent(ctx, intent.TicketKey)
	currentValue := fieldValue(current, intent.Field)

	preview := []approval.Field{
		{Name: "ticket_key", Value: intent.TicketKey},
		{Name: "field", Value: intent.Field},
		{Name: "current_" + intent.Field, Value: currentValue},
		{Name: "new_" + intent.Field, Value: intent.Value},
	}
	description := fmt.Sprintf("Update ticket %s\nChanges:\n  - %s: '%s' -> '%s'",
		intent.TicketKey, intent.Field, currentValue, intent.Value)
	payload := approval.Payload{
		TicketKey: intent.TicketKey,
		Field:     intent.Field,
		Value:     intent.Value,
	}
	return b.approvals.Create(approval.OpUpdateTicket, preview, description, intent.TicketKey, payload), nil
}

func (b *Builder) buildTransition(ctx context.Context, intent command.Intent) approval.Request {
	current := b.fetchCurrent(ctx, intent.TicketKey)

	preview := []approval.Field{
		{Name: "ticket_key", Value: intent.TicketKey},
		{Name: "current_status", Value: current.Status},
		{Name: "target_status", Value: intent.TargetStatus},
	}
	description := fmt.Sprintf("Transition ticket %s from '%s' to '%s'",
		intent.TicketKey, current.Status, intent.TargetStatus)
	payload := approval.Payload{
		TicketKey:    intent.TicketKey,
		TargetStatus: intent.TargetStatus,
	}
	return b.approvals.Create(approval.OpTransitionTicket, preview, description, intent.TicketKey, payload)
}

func (b *Builder) buildAssign(ctx context.Context, intent command.Intent) approval.Request {
	current := b.fetchCurrent(ctx, intent.TicketKey)
	currentAssignee := current.Assignee
	if currentAssignee == "" {
		currentAssignee = "Unassigned"
	}

	preview := []approval.Field{
		{Name: "ticket_key", Value: intent.TicketKey},
		{Name: "current_assignee", Value: currentAssignee},
		{Name: "new_assignee", Value: intent.Assignee},
	}
	description := fmt.Sprintf("Assign ticket %s to %s", intent.TicketKey, intent.Assignee)
	if current.Assignee != "" {
		description += fmt.Sprintf(" (currently assigned to %s)", current.Assignee)
	}
	payload := approval.Payload{
		TicketKey: intent.TicketKey,
		Assignee:  intent.Assignee,
	}
	return b.approvals.Create(approval.OpAssignTicket, preview, description, intent.TicketKey, payload)
}

func (b *Builder) buildComment(intent command.Intent) approval.Request {
	preview := []approval.Field{
		{Name: "ticket_key", Value: intent.TicketKey},
		{Name: "comment", Value: intent.Comment},
	}
	description := fmt.Sprintf("Add comment to ticket %s", intent.TicketKey)
	payload := approval.Payload{
		TicketKey:   intent.TicketKey,
		CommentBody: intent.Comment,
	}
	return b.approvals.Create(approval.OpAddComment, preview, description, intent.TicketKey, payload)
}

// fetchCurrent loads the ticket for preview rendering. Failures degrade to
// an empty ticket; previewing must keep working when reads fail.
func (b *Builder) fetchCurrent(ctx context.Context, key string) jira.Ticket {
	t, err := b.tickets.GetTicket(ctx, key)
	if err != nil {
		return jira.Ticket{}
	}
	return t
}

func fieldValue(t jira.Ticket, field string) string {
	switch field {
	case "summary":
		return t.Summary
	case "description":
		return t.Description
	case "assignee":
		return t.Assignee
	case "priority":
		return t.Priority
	default:
		return ""
	}
}
