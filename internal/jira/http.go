package jira

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go/v5"
)

// HTTPClient talks to a Jira instance over the REST v2 API using basic auth
// with a personal access token. Read-path requests get bounded retries with
// backoff; mutating requests are sent exactly once.
type HTTPClient struct {
	baseURL  string
	username string
	token    string
	client   *http.Client
}

type HTTPConfig struct {
	BaseURL  string
	Username string
	Token    string
	Timeout  time.Duration
}

func NewHTTPClient(cfg HTTPConfig) *HTTPClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPClient{
		baseURL:  strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		username: cfg.Username,
		token:    cfg.Token,
		client:   &http.Client{Timeout: timeout},
	}
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("jira http status %d: %s", e.code, e.body)
}

func isRetryable(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		switch se.code {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
		return false
	}
	// Transport-level failures (connection reset, timeout) are worth a retry.
	return true
}

func (c *HTTPClient) CreateTicket(ctx context.Context, project, summary, description, issueType string) (string, error) {
	if issueType == "" {
		issueType = "Task"
	}
	body := map[string]any{
		"fields": map[string]any{
			"project":     map[string]string{"key": project},
			"summary":     summary,
			"description": description,
			"issuetype":   map[string]string{"name": issueType},
		},
	}

	var created struct {
		Key string `json:"key"`
	}
	if err := c.do(ctx, http.MethodPost, "/rest/api/2/issue", body, &created, false); err != nil {
		return "", fmt.Errorf("create ticket: %w", err)
	}
	return created.Key, nil
}

func (c *HTTPClient) UpdateTicket(ctx context.Context, key, field, value string) error {
	var fieldValue any = value
	if field == "assignee" {
		fieldValue = map[string]string{"name": value}
	}
	if field == "priority" {
		fieldValue = map[string]string{"name": value}
	}
	body := map[string]any{
		"fields": map[string]any{field: fieldValue},
	}
	if err := c.do(ctx, http.MethodPut, "/rest/api/2/issue/"+url.PathEscape(key), body, nil, false); err != nil {
		return fmt.Errorf("update ticket %s: %w", key, err)
	}
	return nil
}

func (c *HTTPClient) TransitionTicket(ctx context.Context, key, targetStatus string) error {
	var list struct {
		Transitions []struct {
			ID string `json:"id"`
			To struct {
				Name string `json:"name"`
			} `json:"to"`
		} `json:"transitions"`
	}
	path := "/rest/api/2/issue/" + url.PathEscape(key) + "/transitions"
	if err := c.do(ctx, http.MethodGet, path, nil, &list, true); err != nil {
		return fmt.Errorf("list transitions for %s: %w", key, err)
	}

	transitionID := ""
	for _, t := range list.Transitions {
		if strings.EqualFold(t.To.Name, targetStatus) {
			transitionID = t.ID
			break
		}
	}
	if transitionID == "" {
		return fmt.Errorf("no transition to status %q available for %s", targetStatus, key)
	}

	body := map[string]any{
		"transition": map[string]string{"id": transitionID},
	}
	if err := c.do(ctx, http.MethodPost, path, body, nil, false); err != nil {
		return fmt.Errorf("transition ticket %s: %w", key, err)
	}
	return nil
}

func (c *HTTPClient) AssignTicket(ctx context.Context, key, assignee string) error {
	body := map[string]string{"name": assignee}
	path := "/rest/api/2/issue/" + url.PathEscape(key) + "/assignee"
	if err := c.do(ctx, http.MethodPut, path, body, nil, false); err != nil {
		return fmt.Errorf("assign ticket %s: %w", key, err)
	}
	return nil
}

func (c *HTTPClient) AddComment(ctx context.Context, key, body string) error {
	payload := map[string]string{"body": body}
	path := "/rest/api/2/issue/" + url.PathEscape(key) + "/comment"
	if err := c.do(ctx, http.MethodPost, path, payload, nil, false); err != nil {
		return fmt.Errorf("comment on ticket %s: %w", key, err)
	}
	return nil
}

type issueFields struct {
	Summary     string `json:"summary"`
	Description string `json:"description"`
	Status      struct {
		Name string `json:"name"`
	} `json:"status"`
	Assignee *struct {
		DisplayName string `json:"displayName"`
	} `json:"assignee"`
	Reporter *struct {
		DisplayName string `json:"displayName"`
	} `json:"reporter"`
	Priority *struct {
		Name string `json:"name"`
	} `json:"priority"`
}

func (f issueFields) ticket(key string) Ticket {
	t := Ticket{
		Key:         key,
		Summary:     f.Summary,
		Description: f.Description,
		Status:      f.Status.Name,
	}
	if f.Assignee != nil {
		t.Assignee = f.Assignee.DisplayName
	}
	if f.Reporter != nil {
		t.Reporter = f.Reporter.DisplayName
	}
	if f.Priority != nil {
		t.Priority = f.Priority.Name
	}
	return t
}

func (c *HTTPClient) GetTicket(ctx context.Context, key string) (Ticket, error) {
	var issue struct {
		Key    string      `json:"key"`
		Fields issueFields `json:"fields"`
	}
	path := "/rest/api/2/issue/" + url.PathEscape(key)
	if err := c.do(ctx, http.MethodGet, path, nil, &issue, true); err != nil {
		var se *statusError
		if errors.As(err, &se) && se.code == http.StatusNotFound {
			return Ticket{}, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return Ticket{}, fmt.Errorf("get ticket %s: %w", key, err)
	}
	return issue.Fields.ticket(issue.Key), nil
}

func (c *HTTPClient) GetComments(ctx context.Context, key string) ([]Comment, error) {
	var list struct {
		Comments []struct {
			Author struct {
				DisplayName string `json:"displayName"`
			} `json:"author"`
			Body string `json:"body"`
		} `json:"comments"`
	}
	path := "/rest/api/2/issue/" + url.PathEscape(key) + "/comment"
	if err := c.do(ctx, http.MethodGet, path, nil, &list, true); err != nil {
		return nil, fmt.Errorf("get comments for %s: %w", key, err)
	}

	out := make([]Comment, 0, len(list.Comments))
	for _, cm := range list.Comments {
		out = append(out, Comment{Author: cm.Author.DisplayName, Body: cm.Body})
	}
	return out, nil
}

func (c *HTTPClient) SearchByStatus(ctx context.Context, status string) ([]Ticket, error) {
	jql := "assignee = currentUser() ORDER BY updated DESC"
	if strings.TrimSpace(status) != "" {
		jql = fmt.Sprintf("assignee = currentUser() AND status = %q ORDER BY updated DESC", status)
	}
	return c.search(ctx, jql)
}

func (c *HTTPClient) SearchMine(ctx context.Context) ([]Ticket, []Ticket, error) {
	assigned, err := c.search(ctx, "assignee = currentUser() ORDER BY updated DESC")
	if err != nil {
		return nil, nil, err
	}
	reported, err := c.search(ctx, "reporter = currentUser() ORDER BY updated DESC")
	if err != nil {
		return nil, nil, err
	}
	return assigned, reported, nil
}

func (c *HTTPClient) search(ctx context.Context, jql string) ([]Ticket, error) {
	q := url.Values{}
	q.Set("jql", jql)
	q.Set("fields", "summary,description,status,assignee,reporter,priority")
	q.Set("maxResults", "50")

	var result struct {
		Issues []struct {
			Key    string      `json:"key"`
			Fields issueFields `json:"fields"`
		} `json:"issues"`
	}
	if err := c.do(ctx, http.MethodGet, "/rest/api/2/search?"+q.Encode(), nil, &result, true); err != nil {
		return nil, fmt.Errorf("search %q: %w", jql, err)
	}

	out := make([]Ticket, 0, len(result.Issues))
	for _, issue := range result.Issues {
		out = append(out, issue.Fields.ticket(issue.Key))
	}
	return out, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body, out any, retryable bool) error {
	if !retryable {
		return c.doOnce(ctx, method, path, body, out)
	}
	r := retry.New(
		retry.Context(ctx),
		retry.Attempts(3),
		retry.RetryIf(isRetryable),
	)
	return r.Do(func() error {
		return c.doOnce(ctx, method, path, body, out)
	})
}

func (c *HTTPClient) doOnce(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.SetBasicAuth(c.username, c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		return &statusError{code: res.StatusCode, body: strings.TrimSpace(string(msg))}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, res.Body)
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
