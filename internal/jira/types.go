package jira

import (
	"context"
	"errors"
)

// ErrNotFound indicates the ticket does not exist or is not visible to the
// configured account.
var ErrNotFound = errors.New("ticket not found")

// Ticket is the subset of issue fields the agent works with.
type Ticket struct {
	Key         string `json:"key"`
	Summary     string `json:"summary"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Assignee    string `json:"assignee"`
	Reporter    string `json:"reporter"`
	Priority    string `json:"priority"`
}

// Comment is a single ticket comment.
type Comment struct {
	Author string `json:"author"`
	Body   string `json:"body"`
}

// Client is the narrow interface the workflow consumes. Every method may
// fail with a provider error; the workflow treats those as non-retryable
// and surfaces them as user-visible messages.
type Client interface {
	CreateTicket(ctx context.Context, project, summary, description, issueType string) (string, error)
	UpdateTicket(ctx context.Context, key, field, value string) error
	TransitionTicket(ctx context.Context, key, targetStatus string) error
	AssignTicket(ctx context.Context, key, assignee string) error
	AddComment(ctx context.Context, key, body string) error
	GetTicket(ctx context.Context, key string) (Ticket, error)
	GetComments(ctx context.Context, key string) ([]Comment, error)
	SearchByStatus(ctx context.Context, status string) ([]Ticket, error)
	SearchMine(ctx context.Context) (assigned, reported []Ticket, err error)
}

// updatableFields lists the issue fields the update command may set.
var updatableFields = map[string]bool{
	"summary":     true,
	"description": true,
	"assignee":    true,
	"priority":    true,
}

// IsUpdatableField reports whether the update command supports the field.
func IsUpdatableField(name string) bool {
	return updatableFields[name]
}
