package command

import (
	"regexp"
	"strings"
)

// Fixed command grammar. Patterns are checked top to bottom with
// first-match-wins semantics; approval decisions come first so a write
// pattern containing the word "approve" can never shadow them. Anything
// that matches nothing is routed to the LLM fallback, never executed.
const ticketKeyPattern = `[A-Za-z][A-Za-z0-9]+-\d+`

var (
	approveRe = regexp.MustCompile(`(?i)^approve\s+(\S+)$`)
	rejectRe  = regexp.MustCompile(`(?i)^reject\s+(\S+)(?:\s+(.+))?$`)

	showMineRe     = regexp.MustCompile(`(?i)^show\s+my\s+tickets$`)
	showByStatusRe = regexp.MustCompile(`(?i)^show\s+tickets\s+with\s+status\s+(.+)$`)
	summarizeRe    = regexp.MustCompile(`(?i)^summarize\s+ticket\s+(` + ticketKeyPattern + `)$`)

	createRe     = regexp.MustCompile(`(?i)^create\s+ticket\s+in\s+([A-Za-z][A-Za-z0-9]*)\s+summary\s+"([^"]+)"\s+description\s+"([^"]+)"$`)
	updateRe     = regexp.MustCompile(`(?i)^update\s+ticket\s+(` + ticketKeyPattern + `)\s+set\s+([A-Za-z]+)\s+"([^"]+)"$`)
	transitionRe = regexp.MustCompile(`(?i)^transition\s+ticket\s+(` + ticketKeyPattern + `)\s+to\s+"([^"]+)"$`)
	assignRe     = regexp.MustCompile(`(?i)^assign\s+ticket\s+(` + ticketKeyPattern + `)\s+to\s+"([^"]+)"$`)
	commentRe    = regexp.MustCompile(`(?i)^comment\s+on\s+ticket\s+(` + ticketKeyPattern + `)\s+"([^"]+)"$`)
)

// Classify maps raw user text to exactly one Intent. It is total and
// side-effect free: it never touches the ticket system or the approval
// registry.
func Classify(text string) Intent {
	in := strings.TrimSpace(text)
	if in == "" {
		return Intent{Kind: KindFallback}
	}

	if m := approveRe.FindStringSubmatch(in); m != nil {
		return Intent{Kind: KindApprove, RequestID: m[1]}
	}
	if m := rejectRe.FindStringSubmatch(in); m != nil {
		return Intent{Kind: KindReject, RequestID: m[1], Reason: strings.TrimSpace(m[2])}
	}

	if showMineRe.MatchString(in) {
		return Intent{Kind: KindShowMyTickets}
	}
	if m := showByStatusRe.FindStringSubmatch(in); m != nil {
		return Intent{Kind: KindShowByStatus, Status: strings.TrimSpace(m[1])}
	}
	if m := summarizeRe.FindStringSubmatch(in); m != nil {
		return Intent{Kind: KindSummarize, TicketKey: strings.ToUpper(m[1])}
	}

	if m := createRe.FindStringSubmatch(in); m != nil {
		return Intent{
			Kind:        KindCreateTicket,
			Project:     strings.ToUpper(m[1]),
			Summary:     m[2],
			Description: m[3],
		}
	}
	if m := updateRe.FindStringSubmatch(in); m != nil {
		return Intent{
			Kind:      KindUpdateTicket,
			TicketKey: strings.ToUpper(m[1]),
			Field:     strings.ToLower(m[2]),
			Value:     m[3],
		}
	}
	if m := transitionRe.FindStringSubmatch(in); m != nil {
		return Intent{
			Kind:         KindTransition,
			TicketKey:    strings.ToUpper(m[1]),
			TargetStatus: m[2],
		}
	}
	if m := assignRe.FindStringSubmatch(in); m != nil {
		return Intent{
			Kind:      KindAssign,
			TicketKey: strings.ToUpper(m[1]),
			Assignee:  m[2],
		}
	}
	if m := commentRe.FindStringSubmatch(in); m != nil {
		return Intent{
			Kind:      KindAddComment,
			TicketKey: strings.ToUpper(m[1]),
			Comment:   m[2],
		}
	}

	return Intent{Kind: KindFallback}
}
