package jira

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// MockClient is an in-process ticket backend for local/dev use and tests.
type MockClient struct {
	mu       sync.Mutex
	seq      int
	tickets  map[string]*Ticket
	comments map[string][]Comment
	user     string
}

func NewMockClient() *MockClient {
	c := &MockClient{
		tickets:  make(map[string]*Ticket),
		comments: make(map[string][]Comment),
		user:     "demo.user",
	}
	c.seed()
	return c
}

func (c *MockClient) seed() {
	seedTickets := []Ticket{
		{Key: "ESD-101", Summary: "Login page times out", Description: "Users report 30s+ load times on the login form.", Status: "In Progress", Assignee: "demo.user", Reporter: "jane.doe", Priority: "High"},
		{Key: "ESD-102", Summary: "Export to CSV drops headers", Description: "First row missing on exported reports.", Status: "To Do", Assignee: "demo.user", Reporter: "demo.user", Priority: "Medium"},
		{Key: "OPS-7", Summary: "Rotate staging certificates", Description: "Certs expire at the end of the month.", Status: "Done", Assignee: "sam.lee", Reporter: "demo.user", Priority: "Low"},
	}
	for i := range seedTickets {
		t := seedTickets[i]
		c.tickets[t.Key] = &t
	}
	c.seq = 102
}

func (c *MockClient) CreateTicket(_ context.Context, project, summary, description, issueType string) (string, error) {
	if strings.TrimSpace(project) == "" {
		return "", fmt.Errorf("project key is required")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	key := fmt.Sprintf("%s-%d", strings.ToUpper(project), c.seq)
	c.tickets[key] = &Ticket{
		Key:         key,
		Summary:     summary,
		Description: description,
		Status:      "To Do",
		Reporter:    c.user,
		Priority:    "Medium",
	}
	return key, nil
}

func (c *MockClient) UpdateTicket(_ context.Context, key, field, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.tickets[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	switch field {
	case "summary":
		t.Summary = value
	case "description":
		t.Description = value
	case "assignee":
		t.Assignee = value
	case "priority":
		t.Priority = value
	default:
		return fmt.Errorf("unsupported field %q", field)
	}
	return nil
}

func (c *MockClient) TransitionTicket(_ context.Context, key, targetStatus string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.tickets[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	t.Status = targetStatus
	return nil
}

func (c *MockClient) AssignTicket(_ context.Context, key, assignee string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.tickets[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	t.Assignee = assignee
	return nil
}

func (c *MockClient) AddComment(_ context.Context, key, body string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.tickets[key]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	c.comments[key] = append(c.comments[key], Comment{Author: c.user, Body: body})
	return nil
}

func (c *MockClient) GetTicket(_ context.Context, key string) (Ticket, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.tickets[key]
	if !ok {
		return Ticket{}, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return *t, nil
}

func (c *MockClient) GetComments(_ context.Context, key string) ([]Comment, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.tickets[key]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	out := make([]Comment, len(c.comments[key]))
	copy(out, c.comments[key])
	return out, nil
}

func (c *MockClient) SearchByStatus(_ context.Context, status string) ([]Ticket, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []Ticket
	for _, t := range c.tickets {
		if t.Assignee != c.user {
			continue
		}
		if status != "" && !strings.EqualFold(t.Status, status) {
			continue
		}
		out = append(out, *t)
	}
	sortByKey(out)
	return out, nil
}

func (c *MockClient) SearchMine(_ context.Context) ([]Ticket, []Ticket, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var assigned, reported []Ticket
	for _, t := range c.tickets {
		if t.Assignee == c.user {
			assigned = append(assigned, *t)
		}
		if t.Reporter == c.user {
			reported = append(reported, *t)
		}
	}
	sortByKey(assigned)
	sortByKey(reported)
	return assigned, reported, nil
}

func sortByKey(tickets []Ticket) {
	sort.Slice(tickets, func(i, j int) bool { return tickets[i].Key < tickets[j].Key })
}
