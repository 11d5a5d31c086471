package command

import "testing"

func TestClassifyCommands(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Intent
	}{
		{
			name:  "approve",
			input: "approve 4f9d2c1a",
			want:  Intent{Kind: KindApprove, RequestID: "4f9d2c1a"},
		},
		{
			name:  "approve uppercase verb",
			input: "APPROVE 4f9d2c1a",
			want:  Intent{Kind: KindApprove, RequestID: "4f9d2c1a"},
		},
		{
			name:  "reject without reason",
			input: "reject 4f9d2c1a",
			want:  Intent{Kind: KindReject, RequestID: "4f9d2c1a"},
		},
		{
			name:  "reject with reason",
			input: "reject 4f9d2c1a wrong ticket",
			want:  Intent{Kind: KindReject, RequestID: "4f9d2c1a", Reason: "wrong ticket"},
		},
		{
			name:  "show my tickets",
			input: "show my tickets",
			want:  Intent{Kind: KindShowMyTickets},
		},
		{
			name:  "show by status",
			input: "show tickets with status In Progress",
			want:  Intent{Kind: KindShowByStatus, Status: "In Progress"},
		},
		{
			name:  "summarize",
			input: "summarize ticket esd-101",
			want:  Intent{Kind: KindSummarize, TicketKey: "ESD-101"},
		},
		{
			name:  "create",
			input: `create ticket in ops summary "Fix login" description "Users cannot log in"`,
			want: Intent{
				Kind:        KindCreateTicket,
				Project:     "OPS",
				Summary:     "Fix login",
				Description: "Users cannot log in",
			},
		},
		{
			name:  "update",
			input: `update ticket ESD-101 set Summary "New title"`,
			want: Intent{
				Kind:      KindUpdateTicket,
				TicketKey: "ESD-101",
				Field:     "summary",
				Value:     "New title",
			},
		},
		{
			name:  "transition",
			input: `transition ticket esd-101 to "Done"`,
			want: Intent{
				Kind:         KindTransition,
				TicketKey:    "ESD-101",
				TargetStatus: "Done",
			},
		},
		{
			name:  "assign",
			input: `assign ticket ESD-101 to "maria.rossi"`,
			want: Intent{
				Kind:      KindAssign,
				TicketKey: "ESD-101",
				Assignee:  "maria.rossi",
			},
		},
		{
			name:  "comment",
			input: `comment on ticket ESD-101 "Looks fixed in staging"`,
			want: Intent{
				Kind:      KindAddComment,
				TicketKey: "ESD-101",
				Comment:   "Looks fixed in staging",
			},
		},
		{
			name:  "leading and trailing whitespace",
			input: "   show my tickets   ",
			want:  Intent{Kind: KindShowMyTickets},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.input)
			if got != tt.want {
				t.Fatalf("Classify(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestClassifyFallback(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		"hello there",
		"what is the weather like",
		"create ticket in OPS",
		`create ticket in OPS summary "missing description"`,
		"summarize ticket notakey",
		"update ticket ESD-101 set summary unquoted",
		"approve",
		"show tickets",
	}
	for _, input := range inputs {
		got := Classify(input)
		if got.Kind != KindFallback {
			t.Fatalf("Classify(%q).Kind = %q, want %q", input, got.Kind, KindFallback)
		}
	}
}

func TestApproveNeverShadowedByWritePatterns(t *testing.T) {
	// A ticket key is also a plausible request id token; the decision
	// patterns must win before any write pattern is tried.
	got := Classify("approve ESD-101")
	if got.Kind != KindApprove || got.RequestID != "ESD-101" {
		t.Fatalf("Classify = %+v, want approve with request id ESD-101", got)
	}
}

func TestIntentWriteReadPartition(t *testing.T) {
	writes := []Kind{KindCreateTicket, KindUpdateTicket, KindTransition, KindAssign, KindAddComment}
	for _, k := range writes {
		i := Intent{Kind: k}
		if !i.IsWrite() || i.IsRead() {
			t.Fatalf("kind %q: IsWrite = %v IsRead = %v, want write only", k, i.IsWrite(), i.IsRead())
		}
	}
	reads := []Kind{KindShowMyTickets, KindShowByStatus, KindSummarize}
	for _, k := range reads {
		i := Intent{Kind: k}
		if !i.IsRead() || i.IsWrite() {
			t.Fatalf("kind %q: IsWrite = %v IsRead = %v, want read only", k, i.IsWrite(), i.IsRead())
		}
	}
	for _, k := range []Kind{KindApprove, KindReject, KindFallback} {
		i := Intent{Kind: k}
		if i.IsRead() || i.IsWrite() {
			t.Fatalf("kind %q should be neither read nor write", k)
		}
	}
}
