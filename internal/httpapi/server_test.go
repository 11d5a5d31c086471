package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/antoniostano/jiragent/internal/approval"
	"github.com/antoniostano/jiragent/internal/config"
	"github.com/antoniostano/jiragent/internal/conversation"
	"github.com/antoniostano/jiragent/internal/jira"
	"github.com/antoniostano/jiragent/internal/llm"
	"github.com/antoniostano/jiragent/internal/memory"
	"github.com/antoniostano/jiragent/internal/observability"
	"github.com/antoniostano/jiragent/internal/workflow"
)

func newTestServer(t *testing.T, name string) (*httptest.Server, *approval.Registry) {
	t.Helper()
	cfg := config.Config{
		ConversationInactivityTimeout: 2 * time.Minute,
	}
	approvals := approval.NewRegistry(0)
	metrics := observability.NewMetrics(fmt.Sprintf("test_httpapi_%s_%d", name, time.Now().UnixNano()))
	engine := workflow.NewEngine(jira.NewMockClient(), llm.NewMockAdapter(), approvals, memory.NewInMemoryStore(), metrics, 10)
	conversations := conversation.NewManager(cfg.ConversationInactivityTimeout)

	srv := New(cfg, conversations, engine, approvals, metrics)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts, approvals
}

func postChat(t *testing.T, ts *httptest.Server, userID, message string) chatResponse {
	t.Helper()
	body, _ := json.Marshal(chatRequest{UserID: userID, Message: message})
	res, err := http.Post(ts.URL+"/v1/chat", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("chat request error = %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("chat status = %d, want %d", res.StatusCode, http.StatusOK)
	}
	var out chatResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		t.Fatalf("decode chat response: %v", err)
	}
	return out
}

func TestChatApprovalFlow(t *testing.T) {
	ts, _ := newTestServer(t, "flow")

	created := postChat(t, ts, "user-1",
		`create ticket in OPS summary "Fix login" description "Users cannot log in"`)
	if created.PendingApproval == "" {
		t.Fatalf("missing pending_approval in response: %+v", created)
	}
	if !strings.Contains(strings.Join(created.Messages, "\n"), "APPROVAL REQUIRED") {
		t.Fatalf("approval prompt missing: %+v", created.Messages)
	}

	res, err := http.Get(ts.URL + "/v1/approvals")
	if err != nil {
		t.Fatalf("list approvals error = %v", err)
	}
	defer res.Body.Close()
	var listing struct {
		Pending []approval.Request `json:"pending"`
		History []approval.Request `json:"history"`
	}
	if err := json.NewDecoder(res.Body).Decode(&listing); err != nil {
		t.Fatalf("decode approvals listing: %v", err)
	}
	if len(listing.Pending) != 1 || listing.Pending[0].ID != created.PendingApproval {
		t.Fatalf("pending listing = %+v, want the chat's request", listing.Pending)
	}

	decided := postChat(t, ts, "user-1", "approve "+created.PendingApproval)
	if decided.PendingApproval != "" {
		t.Fatalf("pending_approval after approve = %q, want empty", decided.PendingApproval)
	}
	if !strings.Contains(strings.Join(decided.Messages, "\n"), "Ticket created successfully") {
		t.Fatalf("execution result missing: %+v", decided.Messages)
	}
}

func TestApproveOverHTTP(t *testing.T) {
	ts, approvals := newTestServer(t, "http_approve")

	created := postChat(t, ts, "user-1",
		`assign ticket ESD-102 to "sam.lee"`)
	id := created.PendingApproval
	if id == "" {
		t.Fatalf("missing pending_approval: %+v", created)
	}

	res, err := http.Post(ts.URL+"/v1/approvals/"+id+"/approve", "application/json", bytes.NewReader(nil))
	if err != nil {
		t.Fatalf("approve request error = %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("approve status = %d, want %d", res.StatusCode, http.StatusOK)
	}

	var req approval.Request
	if err := json.NewDecoder(res.Body).Decode(&req); err != nil {
		t.Fatalf("decode approve response: %v", err)
	}
	if req.Status != approval.StatusApproved || req.DecidedBy != "api" {
		t.Fatalf("decided request = %+v", req)
	}

	// A second decision conflicts.
	again, err := http.Post(ts.URL+"/v1/approvals/"+id+"/approve", "application/json", bytes.NewReader(nil))
	if err != nil {
		t.Fatalf("second approve error = %v", err)
	}
	defer again.Body.Close()
	if again.StatusCode != http.StatusConflict {
		t.Fatalf("second approve status = %d, want %d", again.StatusCode, http.StatusConflict)
	}

	// The owning conversation settles the decision on its next turn.
	settled := postChat(t, ts, "user-1", "show my tickets")
	if !strings.Contains(strings.Join(settled.Messages, "\n"), "Approval granted") {
		t.Fatalf("settlement missing: %+v", settled.Messages)
	}
	if approvals.PendingCount() != 0 {
		t.Fatalf("PendingCount = %d, want 0", approvals.PendingCount())
	}
}

func TestRejectOverHTTPRecordsReason(t *testing.T) {
	ts, approvals := newTestServer(t, "http_reject")

	created := postChat(t, ts, "user-1",
		`update ticket ESD-101 set priority "Low"`)
	id := created.PendingApproval

	body, _ := json.Marshal(decisionRequest{DecidedBy: "maria", Reason: "not needed"})
	res, err := http.Post(ts.URL+"/v1/approvals/"+id+"/reject", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("reject request error = %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("reject status = %d, want %d", res.StatusCode, http.StatusOK)
	}

	req, ok := approvals.Get(id)
	if !ok || req.Status != approval.StatusRejected || req.RejectionReason != "not needed" || req.DecidedBy != "maria" {
		t.Fatalf("stored decision = %+v", req)
	}
}

func TestChatValidation(t *testing.T) {
	ts, _ := newTestServer(t, "validation")

	res, err := http.Post(ts.URL+"/v1/chat", "application/json", strings.NewReader(`{"user_id":"u"}`))
	if err != nil {
		t.Fatalf("chat request error = %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusBadRequest)
	}
}

func TestGetApprovalNotFound(t *testing.T) {
	ts, _ := newTestServer(t, "not_found")

	res, err := http.Get(ts.URL + "/v1/approvals/does-not-exist")
	if err != nil {
		t.Fatalf("get approval error = %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusNotFound)
	}
}

func TestHealthEndpoints(t *testing.T) {
	ts, _ := newTestServer(t, "health")

	for _, path := range []string{"/healthz", "/readyz"} {
		res, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatalf("GET %s error = %v", path, err)
		}
		res.Body.Close()
		if res.StatusCode != http.StatusOK {
			t.Fatalf("GET %s status = %d, want %d", path, res.StatusCode, http.StatusOK)
		}
	}
}
