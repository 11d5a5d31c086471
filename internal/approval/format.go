package approval

import (
	"fmt"
	"strings"
)

const rule = "============================================================"

// FormatMessage renders the request as the human-readable approval prompt
// shown in chat and on the CLI.
func (r Request) FormatMessage() string {
	var b strings.Builder
	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "APPROVAL REQUIRED - %s\n", strings.ToUpper(string(r.Operation)))
	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "Request ID: %s\n", r.ID)
	if r.TicketKey != "" {
		fmt.Fprintf(&b, "Ticket: %s\n", r.TicketKey)
	}
	if r.Description != "" {
		fmt.Fprintf(&b, "\nDescription: %s\n", r.Description)
	}

	b.WriteString("\nPreview of changes:\n")
	for _, f := range r.Preview {
		if f.Value == "" {
			continue
		}
		fmt.Fprintf(&b, "  - %s: %s\n", f.Name, f.Value)
	}

	b.WriteString("\n" + rule + "\n")
	fmt.Fprintf(&b, "Type 'approve %s' to proceed or 'reject %s' to cancel\n", r.ID, r.ID)
	b.WriteString(rule)
	return b.String()
}
