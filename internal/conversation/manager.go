package conversation

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/antoniostano/jiragent/internal/workflow"
)

// Conversation is the per-user dispatcher context. It owns the workflow
// state between turns.
type Conversation struct {
	ID             string         `json:"conversation_id"`
	UserID         string         `json:"user_id"`
	State          workflow.State `json:"state"`
	StartedAt      time.Time      `json:"started_at"`
	LastActivityAt time.Time      `json:"last_activity_at"`
}

type entry struct {
	// turnMu serializes turns for a single user so rapid concurrent
	// requests cannot both pass the one-pending-approval check.
	turnMu sync.Mutex
	conv   *Conversation
}

// Manager tracks conversations by user id. Conversations idle beyond the
// inactivity timeout are expired by the janitor; the approval registry
// keeps its own TTL for the requests themselves.
type Manager struct {
	mu                sync.RWMutex
	byUser            map[string]*entry
	inactivityTimeout time.Duration
	onExpire          func(*Conversation)
}

func NewManager(inactivityTimeout time.Duration) *Manager {
	if inactivityTimeout <= 0 {
		inactivityTimeout = 30 * time.Minute
	}
	return &Manager{
		byUser:            make(map[string]*entry),
		inactivityTimeout: inactivityTimeout,
	}
}

func (m *Manager) SetExpireHook(hook func(*Conversation)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onExpire = hook
}

// Turn runs fn with the user's current workflow state, serialized against
// other turns of the same user, and stores the state fn returns.
func (m *Manager) Turn(userID string, fn func(workflow.State) workflow.State) {
	e := m.getOrCreate(userID)
	e.turnMu.Lock()
	defer e.turnMu.Unlock()

	m.mu.Lock()
	state := e.conv.State
	m.mu.Unlock()

	next := fn(state)

	m.mu.Lock()
	e.conv.State = next
	e.conv.LastActivityAt = time.Now().UTC()
	m.mu.Unlock()
}

// State returns a copy of the user's current state, if a conversation exists.
func (m *Manager) State(userID string) (workflow.State, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.byUser[userID]
	if !ok {
		return workflow.Idle(), false
	}
	return e.conv.State, true
}

func (m *Manager) ActiveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byUser)
}

func (m *Manager) getOrCreate(userID string) *entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.byUser[userID]; ok {
		return e
	}
	now := time.Now().UTC()
	e := &entry{
		conv: &Conversation{
			ID:             uuid.NewString(),
			UserID:         userID,
			State:          workflow.Idle(),
			StartedAt:      now,
			LastActivityAt: now,
		},
	}
	m.byUser[userID] = e
	return e
}

// StartJanitor expires inactive conversations on the given interval until
// the context is cancelled.
func (m *Manager) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.expireInactive()
			}
		}
	}()
}

func (m *Manager) expireInactive() {
	now := time.Now().UTC()
	var expired []*Conversation

	m.mu.Lock()
	for userID, e := range m.byUser {
		if now.Sub(e.conv.LastActivityAt) < m.inactivityTimeout {
			continue
		}
		c := *e.conv
		expired = append(expired, &c)
		delete(m.byUser, userID)
	}
	hook := m.onExpire
	m.mu.Unlock()

	if hook != nil {
		for _, c := range expired {
			hook(c)
		}
	}
}
