package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/antoniostano/jiragent/internal/approval"
	"github.com/antoniostano/jiragent/internal/jira"
)

// ErrNotApproved is returned when Execute is asked to run an operation whose
// approval request is not in the approved state. Reaching it through the
// public command surface is a bug in the dispatcher, not a user error.
var ErrNotApproved = errors.New("approval request not approved")

// Executor runs a previously approved operation exactly once, using the
// payload captured at preview time. It never reads parameters from live
// conversation state.
type Executor struct {
	tickets   jira.Client
	approvals *approval.Registry
}

func NewExecutor(tickets jira.Client, approvals *approval.Registry) *Executor {
	return &Executor{tickets: tickets, approvals: approvals}
}

// Execute dispatches the stored payload for an approved request and returns
// a user-facing success message. The registry hands out the execution slot
// at most once per id, so a repeated Execute fails instead of re-running the
// operation.
func (e *Executor) Execute(ctx context.Context, approvalID string) (string, error) {
	req, ok := e.approvals.Get(approvalID)
	if !ok || req.Status != approval.StatusApproved {
		return "", fmt.Errorf("%w: %s", ErrNotApproved, approvalID)
	}
	if !e.approvals.BeginExecution(approvalID) {
		return "", fmt.Errorf("approval %s was already executed", approvalID)
	}

	p := req.Payload
	switch req.Operation {
	case approval.OpCreateTicket:
		key, err := e.tickets.CreateTicket(ctx, p.Project, p.Summary, p.Description, p.IssueType)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Ticket created successfully: %s", key), nil
	case approval.OpUpdateTicket:
		if err := e.tickets.UpdateTicket(ctx, p.TicketKey, p.Field, p.Value); err != nil {
			return "", err
		}
		return fmt.Sprintf("Ticket %s updated: %s set to %q.", p.TicketKey, p.Field, p.Value), nil
	case approval.OpTransitionTicket:
		if err := e.tickets.TransitionTicket(ctx, p.TicketKey, p.TargetStatus); err != nil {
			return "", err
		}
		return fmt.Sprintf("Ticket %s transitioned to %q.", p.TicketKey, p.TargetStatus), nil
	case approval.OpAssignTicket:
		if err := e.tickets.AssignTicket(ctx, p.TicketKey, p.Assignee); err != nil {
			return "", err
		}
		return fmt.Sprintf("Ticket %s assigned to %s.", p.TicketKey, p.Assignee), nil
	case approval.OpAddComment:
		if err := e.tickets.AddComment(ctx, p.TicketKey, p.CommentBody); err != nil {
			return "", err
		}
		return fmt.Sprintf("Comment added to ticket %s.", p.TicketKey), nil
	default:
		return "", fmt.Errorf("unknown operation type %q for approval %s", req.Operation, approvalID)
	}
}
