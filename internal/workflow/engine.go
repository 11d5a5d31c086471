package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/antoniostano/jiragent/internal/approval"
	"github.com/antoniostano/jiragent/internal/command"
	"github.com/antoniostano/jiragent/internal/jira"
	"github.com/antoniostano/jiragent/internal/llm"
	"github.com/antoniostano/jiragent/internal/memory"
	"github.com/antoniostano/jiragent/internal/observability"
)

// Engine is the per-turn dispatcher. Each call to Handle is one
// conversational turn: classify the input, then either execute a read
// immediately, register a preview and wait for approval, or settle an
// approval decision and execute the stored payload. All collaborator
// failures are converted to response text here; nothing propagates to the
// transport layer.
type Engine struct {
	tickets      jira.Client
	assistant    llm.Adapter
	approvals    *approval.Registry
	builder      *Builder
	executor     *Executor
	history      memory.Store
	metrics      *observability.Metrics
	contextLimit int
}

func NewEngine(
	tickets jira.Client,
	assistant llm.Adapter,
	approvals *approval.Registry,
	history memory.Store,
	metrics *observability.Metrics,
	contextLimit int,
) *Engine {
	if contextLimit <= 0 {
		contextLimit = 10
	}
	return &Engine{
		tickets:      tickets,
		assistant:    assistant,
		approvals:    approvals,
		builder:      NewBuilder(tickets, approvals),
		executor:     NewExecutor(tickets, approvals),
		history:      history,
		metrics:      metrics,
		contextLimit: contextLimit,
	}
}

// Handle processes one user command against the current conversation state
// and returns the new state plus the response messages for this turn.
func (e *Engine) Handle(ctx context.Context, state State, userID, input string) (State, []string) {
	intent := command.Classify(input)
	e.metrics.CommandsTotal.WithLabelValues(string(intent.Kind)).Inc()
	e.saveTurn(ctx, userID, "user", input)

	var msgs []string

	// An approval decided out-of-band (HTTP approve/reject) is settled at
	// the start of the next turn, before the new command is considered.
	if state.Awaiting() && intent.Kind != command.KindApprove && intent.Kind != command.KindReject {
		state, msgs = e.settlePending(ctx, state, msgs)
	}

	switch intent.Kind {
	case command.KindApprove:
		state, msgs = e.handleApprove(ctx, state, userID, intent, msgs)
	case command.KindReject:
		state, msgs = e.handleReject(state, userID, intent, msgs)
	case command.KindShowMyTickets, command.KindShowByStatus, command.KindSummarize:
		msgs = e.handleRead(ctx, intent, msgs)
	case command.KindCreateTicket, command.KindUpdateTicket, command.KindTransition, command.KindAssign, command.KindAddComment:
		state, msgs = e.handleWrite(ctx, state, intent, msgs)
	default:
		msgs = e.handleFallback(ctx, userID, input, msgs)
	}

	for _, m := range msgs {
		e.saveTurn(ctx, userID, "assistant", m)
	}
	e.metrics.PendingApprovals.Set(float64(e.approvals.PendingCount()))
	return state, msgs
}

// settlePending checks whether the conversation's outstanding approval was
// decided since the last turn and, if so, clears it (executing on approve).
func (e *Engine) settlePending(ctx context.Context, state State, msgs []string) (State, []string) {
	req, ok := e.approvals.Get(state.PendingApprovalID)
	if !ok {
		return Idle(), msgs
	}

	switch req.Status {
	case approval.StatusPending:
		return state, msgs
	case approval.StatusApproved:
		msgs = append(msgs, fmt.Sprintf("Approval granted for %s. Executing operation...", req.Operation))
		msgs = e.executeApproved(ctx, req.ID, msgs)
		return Idle(), msgs
	case approval.StatusRejected:
		msgs = append(msgs, fmt.Sprintf("Approval request %s was rejected. The operation has been cancelled.", req.ID))
		return Idle(), msgs
	case approval.StatusExpired:
		e.metrics.ApprovalEvents.WithLabelValues("expired").Inc()
		msgs = append(msgs, fmt.Sprintf("Approval request %s expired before a decision was made. Submit the command again if the change is still wanted.", req.ID))
		return Idle(), msgs
	default:
		return Idle(), msgs
	}
}

func (e *Engine) handleApprove(ctx context.Context, state State, userID string, intent command.Intent, msgs []string) (State, []string) {
	approvedBy := userID
	if approvedBy == "" {
		approvedBy = "user"
	}
	if !e.approvals.Approve(intent.RequestID, approvedBy) {
		msgs = append(msgs, fmt.Sprintf("Approval request %s not found or already processed.", intent.RequestID))
		return state, msgs
	}
	e.metrics.ApprovalEvents.WithLabelValues("approved").Inc()

	// Only the conversation that captured the payload executes it. A grant
	// for another conversation's request is recorded and settled there, the
	// same way an HTTP approval is.
	if state.PendingApprovalID != intent.RequestID {
		msgs = append(msgs, fmt.Sprintf("Approval recorded for request %s. The conversation that requested it will execute the operation.", intent.RequestID))
		return state, msgs
	}

	req, _ := e.approvals.Get(intent.RequestID)
	msgs = append(msgs, fmt.Sprintf("Approval granted for %s. Executing operation...", req.Operation))
	msgs = e.executeApproved(ctx, intent.RequestID, msgs)
	return Idle(), msgs
}

func (e *Engine) handleReject(state State, userID string, intent command.Intent, msgs []string) (State, []string) {
	rejectedBy := userID
	if rejectedBy == "" {
		rejectedBy = "user"
	}
	if !e.approvals.Reject(intent.RequestID, intent.Reason, rejectedBy) {
		msgs = append(msgs, fmt.Sprintf("Approval request %s not found or already processed.", intent.RequestID))
		return state, msgs
	}
	e.metrics.ApprovalEvents.WithLabelValues("rejected").Inc()
	msgs = append(msgs, fmt.Sprintf("Operation rejected. Approval request %s has been cancelled.", intent.RequestID))

	if state.PendingApprovalID == intent.RequestID {
		return Idle(), msgs
	}
	return state, msgs
}

// executeApproved runs the stored payload for an approved request. Provider
// errors become response text; the caller clears the pending state either
// way so the user can retry with a fresh command.
func (e *Engine) executeApproved(ctx context.Context, requestID string, msgs []string) []string {
	start := time.Now()
	result, err := e.executor.Execute(ctx, requestID)
	if err != nil {
		e.metrics.ProviderErrors.WithLabelValues("jira", "execute").Inc()
		return append(msgs, fmt.Sprintf("Error executing operation: %v", err))
	}
	e.metrics.ApprovalEvents.WithLabelValues("executed").Inc()
	e.metrics.ObserveExecutionLatency(time.Since(start))
	return append(msgs, result)
}

func (e *Engine) handleRead(ctx context.Context, intent command.Intent, msgs []string) []string {
	switch intent.Kind {
	case command.KindShowMyTickets:
		assigned, reported, err := e.tickets.SearchMine(ctx)
		if err != nil {
			e.metrics.ProviderErrors.WithLabelValues("jira", "search").Inc()
			return append(msgs, fmt.Sprintf("Error fetching tickets: %v", err))
		}
		return append(msgs, renderMyTickets(assigned, reported))
	case command.KindShowByStatus:
		tickets, err := e.tickets.SearchByStatus(ctx, intent.Status)
		if err != nil {
			e.metrics.ProviderErrors.WithLabelValues("jira", "search").Inc()
			return append(msgs, fmt.Sprintf("Error fetching tickets: %v", err))
		}
		return append(msgs, renderStatusTickets(intent.Status, tickets))
	case command.KindSummarize:
		t, err := e.tickets.GetTicket(ctx, intent.TicketKey)
		if err != nil {
			if errors.Is(err, jira.ErrNotFound) {
				return append(msgs, fmt.Sprintf("Ticket '%s' does not exist or is not accessible.", intent.TicketKey))
			}
			e.metrics.ProviderErrors.WithLabelValues("jira", "get").Inc()
			return append(msgs, fmt.Sprintf("Error fetching ticket %s: %v", intent.TicketKey, err))
		}
		// Comments are additive; a failed comment fetch does not block the summary.
		comments, err := e.tickets.GetComments(ctx, intent.TicketKey)
		if err != nil {
			comments = nil
		}
		return append(msgs, renderTicketSummary(t, comments))
	default:
		return msgs
	}
}

func (e *Engine) handleWrite(ctx context.Context, state State, intent command.Intent, msgs []string) (State, []string) {
	if state.Awaiting() {
		msgs = append(msgs, fmt.Sprintf(
			"There is already a pending approval (%s). Approve or reject it before starting another write operation.",
			state.PendingApprovalID))
		return state, msgs
	}

	req, err := e.builder.Build(ctx, intent)
	if err != nil {
		msgs = append(msgs, fmt.Sprintf("Cannot prepare that operation: %v", err))
		return state, msgs
	}
	e.metrics.ApprovalEvents.WithLabelValues("created").Inc()

	msgs = append(msgs, req.FormatMessage())
	return AwaitingApproval(req.ID, req.Operation), msgs
}

func (e *Engine) handleFallback(ctx context.Context, userID, input string, msgs []string) []string {
	reply, err := e.assistant.Reply(ctx, llm.ReplyRequest{
		UserID:  userID,
		Input:   input,
		History: e.recentHistory(ctx, userID, input),
	})
	if err != nil {
		e.metrics.ProviderErrors.WithLabelValues("llm", "reply").Inc()
		return append(msgs, fmt.Sprintf("The assistant is unavailable right now: %v", err))
	}
	return append(msgs, reply)
}

func (e *Engine) recentHistory(ctx context.Context, userID, currentInput string) []llm.Turn {
	records, err := e.history.RecentContext(ctx, userID, e.contextLimit)
	if err != nil {
		return nil
	}
	turns := make([]llm.Turn, 0, len(records))
	for i, r := range records {
		// The turn being handled was already saved; keep it out of the
		// context window.
		if i == len(records)-1 && r.Role == "user" && r.Content == currentInput {
			continue
		}
		turns = append(turns, llm.Turn{Role: r.Role, Content: r.Content})
	}
	return turns
}

func (e *Engine) saveTurn(ctx context.Context, userID, role, content string) {
	_ = e.history.SaveTurn(ctx, memory.TurnRecord{
		UserID:  userID,
		Role:    role,
		Content: content,
	})
}
