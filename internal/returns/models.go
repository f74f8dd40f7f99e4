package returns

import (
	"time"

	"github.com/google/uuid"
)

// Status is the workflow state of a return request
type Status string

const (
	StatusPending           Status = "pending"
	StatusApproved          Status = "approved"
	StatusRejected          Status = "rejected"
	StatusPickupScheduled   Status = "pickup_scheduled"
	StatusPickupCompleted   Status = "pickup_completed"
	StatusDropboxReceived   Status = "dropbox_received"
	StatusWarehouseReceived Status = "warehouse_received"
	StatusRefundInitiated   Status = "refund_initiated"
	StatusCompleted         Status = "completed"
)

// ValidationStatus is the fraud decision engine's verdict, distinct from the
// workflow status. Only the decision engine writes it.
type ValidationStatus string

const (
	ValidationPending      ValidationStatus = "pending"
	ValidationApproved     ValidationStatus = "approved"
	ValidationRejectedAI   ValidationStatus = "rejected_ai"
	ValidationManualReview ValidationStatus = "manual_review"
)

// ReturnMethod determines which workflow branch a return can travel
type ReturnMethod string

const (
	MethodPickup  ReturnMethod = "pickup"
	MethodDropbox ReturnMethod = "dropbox"
)

// Role is the caller role supplied by the session provider
type Role string

const (
	RoleRequester Role = "requester"
	RoleApprover  Role = "approver"
	RoleWarehouse Role = "warehouse"
	RoleLogistics Role = "logistics"
)

// ReasonCode enumerates the supported return reasons
type ReasonCode string

const (
	ReasonWrongSize       ReasonCode = "wrong_size"
	ReasonWrongColor      ReasonCode = "wrong_color"
	ReasonWrongItem       ReasonCode = "wrong_item"
	ReasonDefective       ReasonCode = "defective"
	ReasonDamagedShipping ReasonCode = "damaged_shipping"
	ReasonQualityIssue    ReasonCode = "quality_issue"
	ReasonNotAsDescribed  ReasonCode = "not_as_described"
	ReasonChangedMind     ReasonCode = "changed_mind"
)

// AIAnalysis is the matching service's verdict once it has responded.
// A nil pointer on ReturnRecord means the return has not been evaluated yet;
// callers must check Verdict() rather than reading zeroed fields.
type AIAnalysis struct {
	Match      bool      `json:"match" db:"match"`
	Confidence float64   `json:"confidence" db:"confidence"`
	Reason     string    `json:"reason" db:"reason"`
	AnalyzedAt time.Time `json:"analyzed_at" db:"analyzed_at"`
}

// ReturnRecord is one merchandise return request
type ReturnRecord struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	OrderID     uuid.UUID  `json:"order_id" db:"order_id"`
	RequesterID uuid.UUID  `json:"requester_id" db:"requester_id"`
	ProductID   string     `json:"product_id" db:"product_id"`
	Reason      ReasonCode `json:"reason" db:"reason"`
	Description string     `json:"description" db:"description"`
	ImageURL    string     `json:"image_url,omitempty" db:"image_url"`
	Price       float64    `json:"price" db:"price"`

	// Decision state, written only by the fraud decision engine
	AIAnalysis       *AIAnalysis      `json:"ai_analysis_result,omitempty" db:"ai_analysis"`
	FraudFlag        bool             `json:"fraud_flag" db:"fraud_flag"`
	ValidationStatus ValidationStatus `json:"validation_status" db:"validation_status"`

	// Workflow state, written only through the state machine
	Status          Status       `json:"status" db:"status"`
	ReturnMethod    ReturnMethod `json:"return_method" db:"return_method"`
	QRCodeData      string       `json:"qr_code_data,omitempty" db:"qr_code_data"`
	DropboxLocation string       `json:"dropbox_location,omitempty" db:"dropbox_location"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Verdict returns the matching service's analysis and whether one exists
func (r *ReturnRecord) Verdict() (AIAnalysis, bool) {
	if r.AIAnalysis == nil {
		return AIAnalysis{}, false
	}
	return *r.AIAnalysis, true
}

// IsTerminal reports whether no further workflow transitions are possible
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusRejected
}

// OrderLine is the slice of an order the return refers to
type OrderLine struct {
	OrderID   uuid.UUID `json:"order_id" db:"order_id"`
	ProductID string    `json:"product_id" db:"product_id"`
	Price     float64   `json:"price" db:"price"`
	Quantity  int       `json:"quantity" db:"quantity"`
}

// ========================================
// REQUEST/RESPONSE TYPES
// ========================================

// CreateReturnRequest is the payload for submitting a new return
type CreateReturnRequest struct {
	OrderID         uuid.UUID    `json:"order_id" binding:"required"`
	ProductID       string       `json:"product_id" binding:"required"`
	Reason          ReasonCode   `json:"reason" binding:"required"`
	Description     string       `json:"description"`
	ImageURL        string       `json:"image_url" binding:"omitempty,url"`
	ReturnMethod    ReturnMethod `json:"return_method" binding:"required,oneof=pickup dropbox"`
	DropboxLocation string       `json:"dropbox_location"`
}

// TransitionRequest is the payload for a workflow transition
type TransitionRequest struct {
	Status Status `json:"status" binding:"required"`
	// FraudOverride is honored only for approver-role callers and is
	// audited as an anomaly when used.
	FraudOverride bool `json:"fraud_override"`
}
