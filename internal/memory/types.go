package memory

import (
	"context"
	"strings"
	"time"
)

// TurnRecord stores a single user or assistant conversational turn.
type TurnRecord struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists and retrieves conversational history, used as context for
// the LLM fallback.
type Store interface {
	SaveTurn(ctx context.Context, record TurnRecord) error
	RecentContext(ctx context.Context, userID string, limit int) ([]TurnRecord, error)
	Close() error
}

// NewStore selects the history backend: Postgres when a database URL is
// configured, otherwise the bounded in-process store.
func NewStore(ctx context.Context, databaseURL string) (Store, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return NewInMemoryStore(), nil
	}
	return NewPostgresStore(ctx, databaseURL)
}
