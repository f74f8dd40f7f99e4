package trust

import (
	"context"

	"github.com/google/uuid"
)

// RepositoryInterface defines the data operations the trust service needs
type RepositoryInterface interface {
	GetProfile(ctx context.Context, requesterID uuid.UUID) (*RequesterProfile, error)
	GetReturnSamples(ctx context.Context, requesterID uuid.UUID) ([]ReturnSample, error)
	CountOrders(ctx context.Context, requesterID uuid.UUID) (int64, error)
	UpdateTrustFields(ctx context.Context, requesterID uuid.UUID, score int, riskLevel RiskLevel, factors Factors) error
	ListRequesterIDs(ctx context.Context) ([]uuid.UUID, error)
}
