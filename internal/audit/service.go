package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/retracehq/returns-service/pkg/logger"
	"go.uber.org/zap"
)

// Service records and queries the automation audit trail
type Service struct {
	repo RepositoryInterface
}

// NewService creates a new audit service
func NewService(repo RepositoryInterface) *Service {
	return &Service{repo: repo}
}

// Record appends an event to the trail. Recording never fails the calling
// operation; a persistence error is logged and swallowed.
func (s *Service) Record(ctx context.Context, workflowID string, returnID uuid.UUID, action string, status EventStatus, details string) {
	event := &Event{
		ID:         uuid.New(),
		WorkflowID: workflowID,
		ReturnID:   returnID,
		Action:     action,
		Status:     status,
		Details:    details,
		Timestamp:  time.Now(),
	}

	if err := s.repo.Insert(ctx, event); err != nil {
		logger.Error("Failed to record audit event",
			zap.Error(err),
			zap.String("workflow_id", workflowID),
			zap.String("return_id", returnID.String()),
			zap.String("action", action),
		)
	}
}

// List returns audit events matching the filter
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Event, int64, error) {
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	return s.repo.List(ctx, filter)
}
