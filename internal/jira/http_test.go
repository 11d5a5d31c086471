package jira

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

func issueJSON(key, summary, status, assignee string) map[string]any {
	fields := map[string]any{
		"summary":     summary,
		"description": "details",
		"status":      map[string]string{"name": status},
		"reporter":    map[string]string{"displayName": "jane.doe"},
		"priority":    map[string]string{"name": "Medium"},
	}
	if assignee != "" {
		fields["assignee"] = map[string]string{"displayName": assignee}
	}
	return map[string]any{"key": key, "fields": fields}
}

func TestGetTicketMapsFields(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user, pass, ok := r.BasicAuth(); !ok || user != "agent" || pass != "token" {
			t.Errorf("missing or wrong basic auth: %s %s", user, pass)
		}
		if r.URL.Path != "/rest/api/2/issue/ESD-101" {
			t.Errorf("path = %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(issueJSON("ESD-101", "Login page times out", "In Progress", "demo.user"))
	}))
	defer ts.Close()

	c := NewHTTPClient(HTTPConfig{BaseURL: ts.URL, Username: "agent", Token: "token"})
	got, err := c.GetTicket(context.Background(), "ESD-101")
	if err != nil {
		t.Fatalf("GetTicket error = %v", err)
	}
	want := Ticket{
		Key:         "ESD-101",
		Summary:     "Login page times out",
		Description: "details",
		Status:      "In Progress",
		Assignee:    "demo.user",
		Reporter:    "jane.doe",
		Priority:    "Medium",
	}
	if got != want {
		t.Fatalf("ticket = %+v, want %+v", got, want)
	}
}

func TestGetTicketNotFound(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"errorMessages":["Issue does not exist"]}`, http.StatusNotFound)
	}))
	defer ts.Close()

	c := NewHTTPClient(HTTPConfig{BaseURL: ts.URL, Username: "agent", Token: "token"})
	_, err := c.GetTicket(context.Background(), "ZZZ-999")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

func TestReadRetriesOnServerError(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "try later", http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(issueJSON("ESD-101", "Login page times out", "In Progress", ""))
	}))
	defer ts.Close()

	c := NewHTTPClient(HTTPConfig{BaseURL: ts.URL, Username: "agent", Token: "token"})
	got, err := c.GetTicket(context.Background(), "ESD-101")
	if err != nil {
		t.Fatalf("GetTicket error = %v", err)
	}
	if got.Assignee != "" {
		t.Fatalf("Assignee = %q, want empty for null assignee", got.Assignee)
	}
	if n := calls.Load(); n != 3 {
		t.Fatalf("server calls = %d, want 3", n)
	}
}

func TestWritesAreNeverRetried(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer ts.Close()

	c := NewHTTPClient(HTTPConfig{BaseURL: ts.URL, Username: "agent", Token: "token"})
	if err := c.AddComment(context.Background(), "ESD-101", "hello"); err == nil {
		t.Fatal("AddComment error = nil, want server error")
	}
	if n := calls.Load(); n != 1 {
		t.Fatalf("server calls = %d, want exactly 1", n)
	}
}

func TestTransitionLooksUpTargetByName(t *testing.T) {
	var transitioned struct {
		Transition struct {
			ID string `json:"id"`
		} `json:"transition"`
	}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/transitions") {
			t.Errorf("path = %s", r.URL.Path)
		}
		switch r.Method {
		case http.MethodGet:
			_ = json.NewEncoder(w).Encode(map[string]any{
				"transitions": []map[string]any{
					{"id": "11", "to": map[string]string{"name": "To Do"}},
					{"id": "31", "to": map[string]string{"name": "Done"}},
				},
			})
		case http.MethodPost:
			_ = json.NewDecoder(r.Body).Decode(&transitioned)
			w.WriteHeader(http.StatusNoContent)
		}
	}))
	defer ts.Close()

	c := NewHTTPClient(HTTPConfig{BaseURL: ts.URL, Username: "agent", Token: "token"})
	if err := c.TransitionTicket(context.Background(), "ESD-101", "done"); err != nil {
		t.Fatalf("TransitionTicket error = %v", err)
	}
	if transitioned.Transition.ID != "31" {
		t.Fatalf("transition id = %q, want 31", transitioned.Transition.ID)
	}

	if err := c.TransitionTicket(context.Background(), "ESD-101", "Blocked"); err == nil {
		t.Fatal("TransitionTicket to unavailable status succeeded")
	}
}

func TestSearchByStatusBuildsJQL(t *testing.T) {
	var gotJQL string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotJQL = r.URL.Query().Get("jql")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"issues": []map[string]any{issueJSON("ESD-102", "Export to CSV drops headers", "To Do", "demo.user")},
		})
	}))
	defer ts.Close()

	c := NewHTTPClient(HTTPConfig{BaseURL: ts.URL, Username: "agent", Token: "token"})
	tickets, err := c.SearchByStatus(context.Background(), "To Do")
	if err != nil {
		t.Fatalf("SearchByStatus error = %v", err)
	}
	if len(tickets) != 1 || tickets[0].Key != "ESD-102" {
		t.Fatalf("tickets = %+v", tickets)
	}
	if !strings.Contains(gotJQL, `status = "To Do"`) || !strings.Contains(gotJQL, "assignee = currentUser()") {
		t.Fatalf("jql = %q", gotJQL)
	}
}

func TestFactoryModes(t *testing.T) {
	if _, err := New(Config{Mode: "http"}); err == nil {
		t.Fatal("http mode without base url succeeded")
	}
	if _, err := New(Config{Mode: "nope"}); err == nil {
		t.Fatal("unknown mode succeeded")
	}

	c, err := New(Config{Mode: "auto"})
	if err != nil {
		t.Fatalf("auto mode error = %v", err)
	}
	if _, ok := c.(*MockClient); !ok {
		t.Fatalf("auto mode without base url = %T, want *MockClient", c)
	}

	c, err = New(Config{Mode: "auto", BaseURL: "https://issues.example.com", Username: "u", Token: "t"})
	if err != nil {
		t.Fatalf("auto mode with base url error = %v", err)
	}
	if _, ok := c.(*HTTPClient); !ok {
		t.Fatalf("auto mode with base url = %T, want *HTTPClient", c)
	}
}
