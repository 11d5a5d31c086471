package approval

import "time"

// Status is the lifecycle state of an approval request.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusExpired  Status = "expired"
)

// Terminal reports whether the status is a final decision.
func (s Status) Terminal() bool {
	switch s {
	case StatusApproved, StatusRejected, StatusExpired:
		return true
	default:
		return false
	}
}

// Operation enumerates the mutating ticket operations that can be gated
// behind an approval.
type Operation string

const (
	OpCreateTicket     Operation = "create_ticket"
	OpUpdateTicket     Operation = "update_ticket"
	OpTransitionTicket Operation = "transition_ticket"
	OpAssignTicket     Operation = "assign_ticket"
	OpAddComment       Operation = "add_comment"
)

// Field is one display line of a change preview. Previews keep insertion
// order so the rendered message reads the way the builder wrote it.
type Field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Payload is the exact argument set needed to execute the operation,
// captured at preview time. The executor reads only from here, never from
// live conversation state.
type Payload struct {
	Project     string `json:"project,omitempty"`
	Summary     string `json:"summary,omitempty"`
	Description string `json:"description,omitempty"`
	IssueType   string `json:"issue_type,omitempty"`

	TicketKey    string `json:"ticket_key,omitempty"`
	Field        string `json:"field,omitempty"`
	Value        string `json:"value,omitempty"`
	TargetStatus string `json:"target_status,omitempty"`
	Assignee     string `json:"assignee,omitempty"`
	CommentBody  string `json:"comment_body,omitempty"`
}

// Request is the unit of authorization for one mutating operation.
type Request struct {
	ID              string     `json:"request_id"`
	Operation       Operation  `json:"operation_type"`
	TicketKey       string     `json:"ticket_key,omitempty"`
	Preview         []Field    `json:"preview"`
	Description     string     `json:"description"`
	Payload         Payload    `json:"payload"`
	Status          Status     `json:"status"`
	DecidedBy       string     `json:"decided_by,omitempty"`
	RejectionReason string     `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	DecidedAt       *time.Time `json:"decided_at,omitempty"`
	ExecutedAt      *time.Time `json:"executed_at,omitempty"`
}

// Clone returns a copy safe to hand to callers.
func (r Request) Clone() Request {
	out := r
	if r.Preview != nil {
		out.Preview = make([]Field, len(r.Preview))
		copy(out.Preview, r.Preview)
	}
	return out
}
