package validation

import (
	"context"

	"github.com/google/uuid"
	"github.com/retracehq/returns-service/internal/behavior"
	"github.com/retracehq/returns-service/internal/returns"
)

// Oracle is the external vision-language matching service
type Oracle interface {
	Analyze(ctx context.Context, imageURL, description, reasonCode string) (*OracleVerdict, error)
}

// BehaviorScorer supplies requester risk context
type BehaviorScorer interface {
	GetScore(ctx context.Context, requesterID uuid.UUID) (*behavior.Score, error)
}

// ReturnStore reads returns and persists verdicts onto them
type ReturnStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*returns.ReturnRecord, error)
	UpdateValidation(ctx context.Context, id uuid.UUID, analysis *returns.AIAnalysis, fraudFlag bool, validationStatus returns.ValidationStatus) error
}
