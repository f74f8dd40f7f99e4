package behavior

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// HistoryStore reads a requester's past decision outcomes
type HistoryStore interface {
	GetHistory(ctx context.Context, requesterID uuid.UUID) ([]HistorySample, error)
}

// Cache holds computed scores for a short window
type Cache interface {
	GetString(ctx context.Context, key string) (string, error)
	SetWithExpiration(ctx context.Context, key string, value interface{}, expiration time.Duration) error
}
