package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/antoniostano/jiragent/internal/approval"
	"github.com/antoniostano/jiragent/internal/config"
	"github.com/antoniostano/jiragent/internal/conversation"
	"github.com/antoniostano/jiragent/internal/observability"
	"github.com/antoniostano/jiragent/internal/workflow"
)

type Server struct {
	cfg           config.Config
	conversations *conversation.Manager
	engine        *workflow.Engine
	approvals     *approval.Registry
	metrics       *observability.Metrics
	upgrader      websocket.Upgrader
}

func New(cfg config.Config, conversations *conversation.Manager, engine *workflow.Engine, approvals *approval.Registry, metrics *observability.Metrics) *Server {
	return &Server{
		cfg:           cfg,
		conversations: conversations,
		engine:        engine,
		approvals:     approvals,
		metrics:       metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Default: only allow browser websocket connections from the
				// same origin, so another website cannot drive approvals if
				// the service is ever exposed beyond localhost.
				if cfg.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					// Non-browser clients often omit Origin. Allow them.
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Post("/v1/chat", s.handleChat)
	r.Get("/v1/chat/ws", s.handleChatWS)
	r.Get("/v1/approvals", s.handleListApprovals)
	r.Get("/v1/approvals/{id}", s.handleGetApproval)
	r.Post("/v1/approvals/{id}/approve", s.handleApprove)
	r.Post("/v1/approvals/{id}/reject", s.handleReject)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
	})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":               "ready",
		"active_conversations": s.conversations.ActiveCount(),
		"pending_approvals":    s.approvals.PendingCount(),
	})
}

type chatRequest struct {
	UserID  string `json:"user_id"`
	Message string `json:"message"`
}

type chatResponse struct {
	UserID          string   `json:"user_id"`
	Messages        []string `json:"messages"`
	PendingApproval string   `json:"pending_approval,omitempty"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "message is required")
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		req.UserID = "anonymous"
	}

	resp := s.runTurn(r, req)
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) runTurn(r *http.Request, req chatRequest) chatResponse {
	var messages []string
	var pendingID string
	s.conversations.Turn(req.UserID, func(state workflow.State) workflow.State {
		next, msgs := s.engine.Handle(r.Context(), state, req.UserID, req.Message)
		messages = msgs
		pendingID = next.PendingApprovalID
		return next
	})
	s.metrics.ActiveConversations.Set(float64(s.conversations.ActiveCount()))
	return chatResponse{
		UserID:          req.UserID,
		Messages:        messages,
		PendingApproval: pendingID,
	}
}

func (s *Server) handleChatWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	conn.SetReadLimit(1 << 20)
	_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
		return nil
	})

	for {
		var req chatRequest
		if err := conn.ReadJSON(&req); err != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
		if strings.TrimSpace(req.Message) == "" {
			continue
		}
		if strings.TrimSpace(req.UserID) == "" {
			req.UserID = "anonymous"
		}

		resp := s.runTurn(r, req)
		_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := conn.WriteJSON(resp); err != nil {
			return
		}
	}
}

func (s *Server) handleListApprovals(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"pending": s.approvals.Pending(),
		"history": s.approvals.History(),
	})
}

func (s *Server) handleGetApproval(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	req, ok := s.approvals.Get(id)
	if !ok {
		respondError(w, http.StatusNotFound, "approval_not_found", "no approval request with id "+id)
		return
	}
	respondJSON(w, http.StatusOK, req)
}

type decisionRequest struct {
	DecidedBy string `json:"decided_by"`
	Reason    string `json:"reason"`
}

// Approving over HTTP marks the request; execution happens when the owning
// conversation's next turn settles the decision.
func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var body decisionRequest
	if err := decodeJSON(r, &body); err != nil && !errors.Is(err, errEmptyBody) {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(body.DecidedBy) == "" {
		body.DecidedBy = "api"
	}

	if !s.approvals.Approve(id, body.DecidedBy) {
		respondError(w, http.StatusConflict, "approval_not_pending", "approval request not found or already processed")
		return
	}
	s.metrics.ApprovalEvents.WithLabelValues("approved").Inc()
	s.metrics.PendingApprovals.Set(float64(s.approvals.PendingCount()))

	req, _ := s.approvals.Get(id)
	respondJSON(w, http.StatusOK, req)
}

func (s *Server) handleReject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var body decisionRequest
	if err := decodeJSON(r, &body); err != nil && !errors.Is(err, errEmptyBody) {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(body.DecidedBy) == "" {
		body.DecidedBy = "api"
	}

	if !s.approvals.Reject(id, body.Reason, body.DecidedBy) {
		respondError(w, http.StatusConflict, "approval_not_pending", "approval request not found or already processed")
		return
	}
	s.metrics.ApprovalEvents.WithLabelValues("rejected").Inc()
	s.metrics.PendingApprovals.Set(float64(s.approvals.PendingCount()))

	req, _ := s.approvals.Get(id)
	respondJSON(w, http.StatusOK, req)
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "eof") {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
