package returns

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/retracehq/returns-service/internal/audit"
	"github.com/retracehq/returns-service/pkg/common"
	"github.com/retracehq/returns-service/pkg/logger"
	"github.com/retracehq/returns-service/pkg/qr"
	"go.uber.org/zap"
)

// Workflow identifiers used in the audit trail
const (
	WorkflowIntake    = "returns-intake"
	WorkflowLifecycle = "returns-lifecycle"
	WorkflowDropbox   = "returns-dropbox"
)

// Service implements the return request lifecycle
type Service struct {
	repo       RepositoryInterface
	auditor    AuditRecorder
	dispatcher Dispatcher
}

// NewService creates a new returns service. The dispatcher may be nil, in
// which case new returns wait for an explicit validation request.
func NewService(repo RepositoryInterface, auditor AuditRecorder, dispatcher Dispatcher) *Service {
	return &Service{repo: repo, auditor: auditor, dispatcher: dispatcher}
}

// CreateReturn registers a new return request and, when an image was
// supplied, hands it to the fraud decision engine in the background.
func (s *Service) CreateReturn(ctx context.Context, requesterID uuid.UUID, req *CreateReturnRequest) (*ReturnRecord, error) {
	if req.ReturnMethod == MethodDropbox && req.DropboxLocation == "" {
		return nil, common.NewBadRequestError("dropbox returns require a dropbox location", nil)
	}
	if req.ReturnMethod == MethodPickup && req.DropboxLocation != "" {
		return nil, common.NewBadRequestError("pickup returns cannot carry a dropbox location", nil)
	}

	line, err := s.repo.GetOrderLine(ctx, req.OrderID, req.ProductID)
	if err != nil {
		return nil, common.NewBadRequestError("order line not found for this return", err)
	}

	now := time.Now()
	record := &ReturnRecord{
		ID:               uuid.New(),
		OrderID:          req.OrderID,
		RequesterID:      requesterID,
		ProductID:        req.ProductID,
		Reason:           req.Reason,
		Description:      req.Description,
		ImageURL:         req.ImageURL,
		Price:            line.Price,
		ValidationStatus: ValidationPending,
		Status:           StatusPending,
		ReturnMethod:     req.ReturnMethod,
		DropboxLocation:  req.DropboxLocation,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.repo.Create(ctx, record); err != nil {
		logger.Error("Failed to create return", zap.Error(err), zap.String("order_id", req.OrderID.String()))
		return nil, common.NewInternalServerError("failed to create return")
	}

	s.auditor.Record(ctx, WorkflowIntake, record.ID, "return_created", audit.StatusSuccess,
		fmt.Sprintf("reason=%s method=%s price=%.2f", record.Reason, record.ReturnMethod, record.Price))

	if s.dispatcher != nil && record.ImageURL != "" && record.Description != "" {
		// Evaluation outlives the request; the channel is only for tests.
		s.dispatcher.Dispatch(context.Background(), record.ID)
	}

	return record, nil
}

// GetReturn retrieves a return. Requesters may only see their own.
func (s *Service) GetReturn(ctx context.Context, id, callerID uuid.UUID, role Role) (*ReturnRecord, error) {
	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, common.NewNotFoundError("return not found", err)
		}
		return nil, common.NewInternalServerError("failed to get return")
	}

	if role == RoleRequester && record.RequesterID != callerID {
		return nil, common.NewForbiddenError("you may only view your own returns")
	}

	return record, nil
}

// ListReturns lists returns visible to the caller
func (s *Service) ListReturns(ctx context.Context, callerID uuid.UUID, role Role, status Status, validationStatus ValidationStatus, limit, offset int) ([]*ReturnRecord, int64, error) {
	if role == RoleRequester {
		return s.repo.ListByRequester(ctx, callerID, limit, offset)
	}
	return s.repo.ListAll(ctx, status, validationStatus, limit, offset)
}

// RequestTransition moves a return through the workflow on behalf of a
// staff caller. The fraud guard and role rules are enforced against a
// fresh read, and the write is a compare-and-set against that same status.
func (s *Service) RequestTransition(ctx context.Context, id, callerID uuid.UUID, role Role, req *TransitionRequest) (*ReturnRecord, error) {
	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, common.NewNotFoundError("return not found", err)
		}
		return nil, common.NewInternalServerError("failed to get return")
	}

	if err := CanTransition(role, record.ReturnMethod, record.Status, req.Status); err != nil {
		return nil, common.NewUnprocessableError("illegal_transition", err.Error())
	}

	fraudOverride := false
	if req.Status == StatusApproved && record.FraudFlag && record.ValidationStatus == ValidationRejectedAI {
		if !req.FraudOverride {
			return nil, common.NewUnprocessableError("fraud_blocked",
				"return was rejected by fraud screening and requires an explicit override")
		}
		fraudOverride = true
	}

	var qrCodeData *string
	if req.Status == StatusApproved {
		encoded, qrErr := qr.EncodeApprovalToken(qr.ApprovalToken{
			ReturnID:        record.ID.String(),
			RequesterID:     record.RequesterID.String(),
			Timestamp:       time.Now(),
			Status:          string(StatusApproved),
			ReturnMethod:    string(record.ReturnMethod),
			DropboxLocation: record.DropboxLocation,
			ApprovedBy:      callerID.String(),
			ApprovedAt:      time.Now(),
		})
		if qrErr != nil {
			logger.Error("Failed to encode approval QR code", zap.Error(qrErr), zap.String("return_id", record.ID.String()))
			return nil, common.NewInternalServerError("failed to generate approval code")
		}
		qrCodeData = &encoded
	}

	updated, err := s.repo.UpdateStatusCAS(ctx, id, record.Status, req.Status, qrCodeData)
	if err != nil {
		switch {
		case errors.Is(err, ErrStatusConflict):
			return nil, common.NewConflictError("concurrent_modification",
				"return was modified by another request, retry with fresh state")
		case errors.Is(err, ErrNotFound):
			return nil, common.NewNotFoundError("return not found", err)
		default:
			logger.Error("Failed to update return status", zap.Error(err), zap.String("return_id", id.String()))
			return nil, common.NewInternalServerError("failed to update return status")
		}
	}

	// One event per accepted transition; the override marker rides on it so a
	// failed CAS leaves no trace of an override that never took effect.
	details := fmt.Sprintf("%s -> %s by %s (%s)", record.Status, updated.Status, callerID, role)
	if fraudOverride {
		details += fmt.Sprintf(" fraud_override=true validation_status=%s", record.ValidationStatus)
	}
	s.auditor.Record(ctx, WorkflowLifecycle, updated.ID, "status_transition", audit.StatusSuccess, details)

	return updated, nil
}

// ConfirmDropbox records a dropbox scan of an approved return
func (s *Service) ConfirmDropbox(ctx context.Context, id uuid.UUID, location string) (*ReturnRecord, error) {
	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, common.NewNotFoundError("return not found", err)
		}
		return nil, common.NewInternalServerError("failed to get return")
	}

	if record.ReturnMethod != MethodDropbox {
		return nil, common.NewUnprocessableError("illegal_transition", "return is not a dropbox return")
	}
	if record.Status != StatusApproved {
		return nil, common.NewUnprocessableError("illegal_transition",
			fmt.Sprintf("cannot confirm dropbox deposit from status %s", record.Status))
	}
	if location != "" && location != record.DropboxLocation {
		return nil, common.NewBadRequestError("scan location does not match the declared dropbox", nil)
	}

	updated, err := s.repo.UpdateStatusCAS(ctx, id, StatusApproved, DropboxConfirmTarget, nil)
	if err != nil {
		if errors.Is(err, ErrStatusConflict) {
			return nil, common.NewConflictError("concurrent_modification",
				"return was modified by another request, retry with fresh state")
		}
		logger.Error("Failed to confirm dropbox deposit", zap.Error(err), zap.String("return_id", id.String()))
		return nil, common.NewInternalServerError("failed to confirm dropbox deposit")
	}

	s.auditor.Record(ctx, WorkflowDropbox, updated.ID, "dropbox_confirmed", audit.StatusSuccess,
		fmt.Sprintf("location=%s", record.DropboxLocation))

	return updated, nil
}
