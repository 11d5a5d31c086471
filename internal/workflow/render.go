package workflow

import (
	"fmt"
	"strings"

	"github.com/antoniostano/jiragent/internal/jira"
)

func renderTicketLines(tickets []jira.Ticket) []string {
	lines := make([]string, 0, len(tickets))
	for i, t := range tickets {
		lines = append(lines, fmt.Sprintf("  %d. [%s] %s (Status: %s)", i+1, t.Key, t.Summary, t.Status))
	}
	return lines
}

func renderMyTickets(assigned, reported []jira.Ticket) string {
	var b strings.Builder
	if len(assigned) > 0 {
		b.WriteString("Assigned to you:\n")
		b.WriteString(strings.Join(renderTicketLines(assigned), "\n"))
		b.WriteString("\n\n")
	}
	if len(reported) > 0 {
		b.WriteString("Reported by you:\n")
		b.WriteString(strings.Join(renderTicketLines(reported), "\n"))
		b.WriteString("\n\n")
	}
	out := strings.TrimSpace(b.String())
	if out == "" {
		return "No tickets found."
	}
	return out
}

func renderStatusTickets(status string, tickets []jira.Ticket) string {
	if len(tickets) == 0 {
		return fmt.Sprintf("No tickets found for status '%s'.", status)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Tickets with status '%s':\n", status)
	b.WriteString(strings.Join(renderTicketLines(tickets), "\n"))
	return b.String()
}

func renderTicketSummary(t jira.Ticket, comments []jira.Comment) string {
	assignee := t.Assignee
	if assignee == "" {
		assignee = "Unassigned"
	}
	description := t.Description
	if description == "" {
		description = "No description"
	}

	parts := []string{
		fmt.Sprintf("Ticket: %s", t.Key),
		fmt.Sprintf("Title: %s", t.Summary),
		fmt.Sprintf("Status: %s", t.Status),
		fmt.Sprintf("Reporter: %s", t.Reporter),
		fmt.Sprintf("Assignee: %s", assignee),
		fmt.Sprintf("Description:\n%s", description),
	}

	if len(comments) > 0 {
		parts = append(parts, "\nComments:")
		for _, c := range comments {
			parts = append(parts, fmt.Sprintf("- %s: %s", c.Author, c.Body))
		}
	}

	return strings.Join(parts, "\n")
}
