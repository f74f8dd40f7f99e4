package returns

import (
	"context"

	"github.com/google/uuid"
	"github.com/retracehq/returns-service/internal/audit"
)

// RepositoryInterface defines the data operations the returns service needs
type RepositoryInterface interface {
	Create(ctx context.Context, record *ReturnRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*ReturnRecord, error)
	ListByRequester(ctx context.Context, requesterID uuid.UUID, limit, offset int) ([]*ReturnRecord, int64, error)
	ListAll(ctx context.Context, status Status, validationStatus ValidationStatus, limit, offset int) ([]*ReturnRecord, int64, error)

	// UpdateStatusCAS moves a return from one status to another only if it is
	// still in the expected status, returning the updated record. It reports
	// ErrStatusConflict when another writer got there first. A non-nil
	// qrCodeData is written together with the status.
	UpdateStatusCAS(ctx context.Context, id uuid.UUID, from, to Status, qrCodeData *string) (*ReturnRecord, error)

	GetOrderLine(ctx context.Context, orderID uuid.UUID, productID string) (*OrderLine, error)
}

// Dispatcher hands a freshly created return to the fraud decision engine.
// The returned channel closes when the evaluation has been persisted, which
// callers other than tests typically ignore.
type Dispatcher interface {
	Dispatch(ctx context.Context, returnID uuid.UUID) <-chan struct{}
}

// AuditRecorder appends events to the automation audit trail
type AuditRecorder interface {
	Record(ctx context.Context, workflowID string, returnID uuid.UUID, action string, status audit.EventStatus, details string)
}
