package workflow

import "github.com/antoniostano/jiragent/internal/approval"

// Phase is the per-conversation dispatcher phase.
type Phase string

const (
	PhaseIdle             Phase = "idle"
	PhaseAwaitingApproval Phase = "awaiting_approval"
)

// State is the per-conversation workflow state threaded through Handle.
// PendingApprovalID and PendingOperation are set together or not at all;
// the constructors below are the only way state is produced, which keeps
// the pending id/operation pair consistent.
type State struct {
	Phase             Phase              `json:"phase"`
	PendingApprovalID string             `json:"pending_approval_id,omitempty"`
	PendingOperation  approval.Operation `json:"pending_operation,omitempty"`
}

// Idle returns the quiescent state.
func Idle() State {
	return State{Phase: PhaseIdle}
}

// AwaitingApproval returns a state holding the single outstanding approval
// for the conversation.
func AwaitingApproval(id string, op approval.Operation) State {
	return State{
		Phase:             PhaseAwaitingApproval,
		PendingApprovalID: id,
		PendingOperation:  op,
	}
}

// Awaiting reports whether an approval decision is outstanding.
func (s State) Awaiting() bool {
	return s.Phase == PhaseAwaitingApproval && s.PendingApprovalID != ""
}
