package approval

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Registry owns the lifecycle of approval requests. A request id exists in
// exactly one of two collections: the pending map before a decision, the
// append-only history afterwards. Once in history a request is never mutated
// or moved back.
type Registry struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	pending map[string]*Request
	history []*Request
}

// NewRegistry constructs an empty registry. Pending requests older than ttl
// are transitioned to expired at read time; ttl <= 0 disables expiry.
func NewRegistry(ttl time.Duration) *Registry {
	return &Registry{
		ttl:     ttl,
		now:     func() time.Time { return time.Now().UTC() },
		pending: make(map[string]*Request),
	}
}

// Create mints a new pending request with a fresh unique id. It always
// succeeds.
func (r *Registry) Create(op Operation, preview []Field, description, ticketKey string, payload Payload) Request {
	req := &Request{
		ID:          uuid.NewString(),
		Operation:   op,
		TicketKey:   ticketKey,
		Preview:     preview,
		Description: description,
		Payload:     payload,
		Status:      StatusPending,
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	req.CreatedAt = r.now()
	r.expireStaleLocked()
	r.pending[req.ID] = req
	return req.Clone()
}

// Approve marks a pending request approved and moves it to history. It
// returns false when the id is not pending: unknown, already decided, or
// expired. A second Approve for the same id therefore returns false.
func (r *Registry) Approve(id, approvedBy string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.expireStaleLocked()

	req, ok := r.pending[id]
	if !ok {
		return false
	}
	r.decideLocked(req, StatusApproved, approvedBy, "")
	return true
}

// Reject marks a pending request rejected and moves it to history,
// symmetric to Approve.
func (r *Registry) Reject(id, reason, rejectedBy string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.expireStaleLocked()

	req, ok := r.pending[id]
	if !ok {
		return false
	}
	r.decideLocked(req, StatusRejected, rejectedBy, reason)
	return true
}

// IsApproved reports whether the request was decided approved. It consults
// history, so the answer stays true permanently after a successful Approve.
func (r *Registry) IsApproved(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.expireStaleLocked()

	for _, req := range r.history {
		if req.ID == id {
			return req.Status == StatusApproved
		}
	}
	return false
}

// BeginExecution claims the single execution slot of an approved request.
// It returns false when the request is not approved or the slot was already
// claimed, so at most one caller ever runs the stored payload.
func (r *Registry) BeginExecution(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.expireStaleLocked()

	for _, req := range r.history {
		if req.ID != id {
			continue
		}
		if req.Status != StatusApproved || req.ExecutedAt != nil {
			return false
		}
		at := r.now()
		req.ExecutedAt = &at
		return true
	}
	return false
}

// Get returns the request with the given id from either collection.
func (r *Registry) Get(id string) (Request, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.expireStaleLocked()

	if req, ok := r.pending[id]; ok {
		return req.Clone(), true
	}
	for _, req := range r.history {
		if req.ID == id {
			return req.Clone(), true
		}
	}
	return Request{}, false
}

// Pending returns a snapshot of currently pending requests ordered by
// creation time.
func (r *Registry) Pending() []Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.expireStaleLocked()

	out := make([]Request, 0, len(r.pending))
	for _, req := range r.pending {
		out = append(out, req.Clone())
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// History returns a snapshot of decided requests in decision order.
func (r *Registry) History() []Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.expireStaleLocked()

	out := make([]Request, 0, len(r.history))
	for _, req := range r.history {
		out = append(out, req.Clone())
	}
	return out
}

// PendingCount returns the number of currently pending requests.
func (r *Registry) PendingCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.expireStaleLocked()
	return len(r.pending)
}

func (r *Registry) decideLocked(req *Request, status Status, by, reason string) {
	at := r.now()
	req.Status = status
	req.DecidedBy = strings.TrimSpace(by)
	req.RejectionReason = reason
	req.DecidedAt = &at
	r.history = append(r.history, req)
	delete(r.pending, req.ID)
}

func (r *Registry) expireStaleLocked() {
	if r.ttl <= 0 {
		return
	}
	cutoff := r.now().Add(-r.ttl)
	for _, req := range r.pending {
		if req.CreatedAt.Before(cutoff) {
			r.decideLocked(req, StatusExpired, "", "")
		}
	}
}
