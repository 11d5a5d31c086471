package command

// Kind identifies the classified meaning of a user command.
type Kind string

const (
	KindApprove       Kind = "approve"
	KindReject        Kind = "reject"
	KindShowMyTickets Kind = "show_my_tickets"
	KindShowByStatus  Kind = "show_by_status"
	KindSummarize     Kind = "summarize_ticket"
	KindCreateTicket  Kind = "create_ticket"
	KindUpdateTicket  Kind = "update_ticket"
	KindTransition    Kind = "transition_ticket"
	KindAssign        Kind = "assign_ticket"
	KindAddComment    Kind = "add_comment"
	KindFallback      Kind = "fallback"
)

// Intent is the result of classifying one raw user command. Only the fields
// relevant to the matched Kind are populated.
type Intent struct {
	Kind Kind

	// Approval decisions.
	RequestID string
	Reason    string

	// Read commands.
	Status string

	// Write commands.
	TicketKey    string
	Project      string
	Summary      string
	Description  string
	Field        string
	Value        string
	TargetStatus string
	Assignee     string
	Comment      string
}

// IsWrite reports whether the intent mutates the ticket system and therefore
// requires approval before execution.
func (i Intent) IsWrite() bool {
	switch i.Kind {
	case KindCreateTicket, KindUpdateTicket, KindTransition, KindAssign, KindAddComment:
		return true
	default:
		return false
	}
}

// IsRead reports whether the intent is a read-only ticket query.
func (i Intent) IsRead() bool {
	switch i.Kind {
	case KindShowMyTickets, KindShowByStatus, KindSummarize:
		return true
	default:
		return false
	}
}
