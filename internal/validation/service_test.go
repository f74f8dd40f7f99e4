package validation

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/retracehq/returns-service/internal/audit"
	"github.com/retracehq/returns-service/internal/behavior"
	"github.com/retracehq/returns-service/internal/returns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ========================================
// MOCK IMPLEMENTATIONS
// ========================================

// MockOracle implements Oracle for testing
type MockOracle struct {
	AnalyzeFunc func(ctx context.Context, imageURL, description, reasonCode string) (*OracleVerdict, error)
}

func (m *MockOracle) Analyze(ctx context.Context, imageURL, description, reasonCode string) (*OracleVerdict, error) {
	if m.AnalyzeFunc != nil {
		return m.AnalyzeFunc(ctx, imageURL, description, reasonCode)
	}
	return &OracleVerdict{Match: true, Confidence: 0.9, Reason: "matches"}, nil
}

// MockScorer implements BehaviorScorer for testing
type MockScorer struct {
	Score *behavior.Score
	Err   error
}

func (m *MockScorer) GetScore(ctx context.Context, requesterID uuid.UUID) (*behavior.Score, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Score != nil {
		return m.Score, nil
	}
	return &behavior.Score{RequesterID: requesterID, Score: 50, RiskLevel: behavior.RiskMedium}, nil
}

// MockStore implements ReturnStore for testing
type MockStore struct {
	Record    *returns.ReturnRecord
	GetErr    error
	UpdateErr error

	UpdatedStatus    returns.ValidationStatus
	UpdatedFraudFlag bool
	UpdatedAnalysis  *returns.AIAnalysis
}

func (m *MockStore) GetByID(ctx context.Context, id uuid.UUID) (*returns.ReturnRecord, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	return m.Record, nil
}

func (m *MockStore) UpdateValidation(ctx context.Context, id uuid.UUID, analysis *returns.AIAnalysis, fraudFlag bool, validationStatus returns.ValidationStatus) error {
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	m.UpdatedAnalysis = analysis
	m.UpdatedFraudFlag = fraudFlag
	m.UpdatedStatus = validationStatus
	return nil
}

// MockAuditor records audit calls
type MockAuditor struct {
	Actions  []string
	Statuses []audit.EventStatus
}

func (m *MockAuditor) Record(ctx context.Context, workflowID string, returnID uuid.UUID, action string, status audit.EventStatus, details string) {
	m.Actions = append(m.Actions, action)
	m.Statuses = append(m.Statuses, status)
}

func storedReturn() *returns.ReturnRecord {
	return &returns.ReturnRecord{
		ID:          uuid.New(),
		RequesterID: uuid.New(),
		ImageURL:    "https://cdn.example.com/evidence/1.jpg",
		Description: "box crushed in transit",
		Reason:      returns.ReasonDamagedShipping,
	}
}

// ========================================
// DECIDE
// ========================================

func TestDecide_NoRequesterAppliesStandardThreshold(t *testing.T) {
	oracle := &MockOracle{AnalyzeFunc: func(ctx context.Context, imageURL, description, reasonCode string) (*OracleVerdict, error) {
		return &OracleVerdict{Match: true, Confidence: 0.25, Reason: "weak match"}, nil
	}}
	service := NewService(oracle, &MockScorer{}, &MockStore{}, &MockAuditor{})

	result := service.Decide(context.Background(), "https://img", "desc", nil, "")

	assert.False(t, result.Match, "confidence below 0.30 forces mismatch")
	assert.Equal(t, 0.25, result.Confidence)
	assert.Nil(t, result.AdjustedConfidence)
}

func TestDecide_LowRiskEasesThreshold(t *testing.T) {
	oracle := &MockOracle{AnalyzeFunc: func(ctx context.Context, imageURL, description, reasonCode string) (*OracleVerdict, error) {
		return &OracleVerdict{Match: true, Confidence: 0.24, Reason: "borderline"}, nil
	}}
	scorer := &MockScorer{Score: &behavior.Score{Score: 85, RiskLevel: behavior.RiskLow}}
	service := NewService(oracle, scorer, &MockStore{}, &MockAuditor{})

	requesterID := uuid.New()
	result := service.Decide(context.Background(), "https://img", "desc", &requesterID, "")

	// 0.24 x 1.15 = 0.276, above the low-risk threshold of 0.20
	require.NotNil(t, result.AdjustedConfidence)
	assert.InDelta(t, 0.276, *result.AdjustedConfidence, 0.001)
	require.NotNil(t, result.AdjustedThreshold)
	assert.Equal(t, 0.20, *result.AdjustedThreshold)
	assert.True(t, result.Match)
}

func TestDecide_HighRiskTightensThreshold(t *testing.T) {
	oracle := &MockOracle{AnalyzeFunc: func(ctx context.Context, imageURL, description, reasonCode string) (*OracleVerdict, error) {
		return &OracleVerdict{Match: true, Confidence: 0.40, Reason: "ok"}, nil
	}}
	scorer := &MockScorer{Score: &behavior.Score{Score: 20, RiskLevel: behavior.RiskHigh}}
	service := NewService(oracle, scorer, &MockStore{}, &MockAuditor{})

	requesterID := uuid.New()
	result := service.Decide(context.Background(), "https://img", "desc", &requesterID, "")

	// 0.40 x 0.85 = 0.34, below the high-risk threshold of 0.40
	require.NotNil(t, result.AdjustedConfidence)
	assert.InDelta(t, 0.34, *result.AdjustedConfidence, 0.001)
	assert.False(t, result.Match, "adjusted confidence below threshold forces mismatch")
}

func TestDecide_AdjustedConfidenceClamped(t *testing.T) {
	oracle := &MockOracle{AnalyzeFunc: func(ctx context.Context, imageURL, description, reasonCode string) (*OracleVerdict, error) {
		return &OracleVerdict{Match: true, Confidence: 0.95, Reason: "clear"}, nil
	}}
	scorer := &MockScorer{Score: &behavior.Score{Score: 90, RiskLevel: behavior.RiskLow}}
	service := NewService(oracle, scorer, &MockStore{}, &MockAuditor{})

	requesterID := uuid.New()
	result := service.Decide(context.Background(), "https://img", "desc", &requesterID, "")

	require.NotNil(t, result.AdjustedConfidence)
	assert.Equal(t, 1.0, *result.AdjustedConfidence)
}

func TestDecide_OracleFailureDegrades(t *testing.T) {
	oracle := &MockOracle{AnalyzeFunc: func(ctx context.Context, imageURL, description, reasonCode string) (*OracleVerdict, error) {
		return nil, errors.New("connection refused")
	}}
	service := NewService(oracle, &MockScorer{}, &MockStore{}, &MockAuditor{})

	result := service.Decide(context.Background(), "https://img", "desc", nil, "")

	assert.True(t, result.Degraded)
	assert.False(t, result.Match)
	assert.Equal(t, 0.0, result.Confidence)
	assert.Contains(t, result.Reason, "manual review")
}

func TestDecide_ScorerFailureUsesNeutralProfile(t *testing.T) {
	oracle := &MockOracle{AnalyzeFunc: func(ctx context.Context, imageURL, description, reasonCode string) (*OracleVerdict, error) {
		return &OracleVerdict{Match: true, Confidence: 0.5, Reason: "ok"}, nil
	}}
	scorer := &MockScorer{Err: errors.New("redis down")}
	service := NewService(oracle, scorer, &MockStore{}, &MockAuditor{})

	requesterID := uuid.New()
	result := service.Decide(context.Background(), "https://img", "desc", &requesterID, "")

	require.NotNil(t, result.AdjustedThreshold)
	assert.Equal(t, 0.30, *result.AdjustedThreshold)
	assert.True(t, result.Match)
}

// ========================================
// VERDICT MAPPING AND PERSISTENCE
// ========================================

func TestValidateReturn_ApprovedVerdict(t *testing.T) {
	store := &MockStore{Record: storedReturn()}
	oracle := &MockOracle{AnalyzeFunc: func(ctx context.Context, imageURL, description, reasonCode string) (*OracleVerdict, error) {
		return &OracleVerdict{Match: true, Confidence: 0.8, Reason: "damage matches description"}, nil
	}}
	auditor := &MockAuditor{}
	service := NewService(oracle, &MockScorer{}, store, auditor)

	_, err := service.ValidateReturn(context.Background(), store.Record.ID, uuid.Nil, "")

	require.NoError(t, err)
	assert.Equal(t, returns.ValidationApproved, store.UpdatedStatus)
	assert.False(t, store.UpdatedFraudFlag)
	require.NotNil(t, store.UpdatedAnalysis)
	assert.Equal(t, 0.8, store.UpdatedAnalysis.Confidence)
	assert.Contains(t, auditor.Actions, "ai_validation_completed")
}

func TestValidateReturn_MismatchSetsFraudFlag(t *testing.T) {
	store := &MockStore{Record: storedReturn()}
	oracle := &MockOracle{AnalyzeFunc: func(ctx context.Context, imageURL, description, reasonCode string) (*OracleVerdict, error) {
		return &OracleVerdict{Match: false, Confidence: 0.55, Reason: "no visible damage"}, nil
	}}
	service := NewService(oracle, &MockScorer{}, store, &MockAuditor{})

	_, err := service.ValidateReturn(context.Background(), store.Record.ID, uuid.Nil, "")

	require.NoError(t, err)
	assert.Equal(t, returns.ValidationRejectedAI, store.UpdatedStatus)
	assert.True(t, store.UpdatedFraudFlag)
}

func TestValidateReturn_LowConfidenceManualReview(t *testing.T) {
	store := &MockStore{Record: storedReturn()}
	oracle := &MockOracle{AnalyzeFunc: func(ctx context.Context, imageURL, description, reasonCode string) (*OracleVerdict, error) {
		return &OracleVerdict{Match: true, Confidence: 0.12, Reason: "blurry image"}, nil
	}}
	service := NewService(oracle, &MockScorer{}, store, &MockAuditor{})

	_, err := service.ValidateReturn(context.Background(), store.Record.ID, uuid.Nil, "")

	require.NoError(t, err)
	assert.Equal(t, returns.ValidationManualReview, store.UpdatedStatus)
	assert.False(t, store.UpdatedFraudFlag)
}

func TestValidateReturn_OracleFailurePersistsManualReview(t *testing.T) {
	store := &MockStore{Record: storedReturn()}
	oracle := &MockOracle{AnalyzeFunc: func(ctx context.Context, imageURL, description, reasonCode string) (*OracleVerdict, error) {
		return nil, errors.New("timeout")
	}}
	auditor := &MockAuditor{}
	service := NewService(oracle, &MockScorer{}, store, auditor)

	result, err := service.ValidateReturn(context.Background(), store.Record.ID, uuid.Nil, "")

	require.NoError(t, err, "oracle failure must not surface as a fatal error")
	assert.True(t, result.Degraded)
	assert.Equal(t, returns.ValidationManualReview, store.UpdatedStatus)
	assert.False(t, store.UpdatedFraudFlag)
	assert.Equal(t, 0.0, store.UpdatedAnalysis.Confidence)
	assert.Contains(t, auditor.Statuses, audit.StatusFailed)
}

func TestValidateReturn_RequesterOwnership(t *testing.T) {
	record := storedReturn()
	store := &MockStore{Record: record}
	service := NewService(&MockOracle{}, &MockScorer{}, store, &MockAuditor{})

	_, err := service.ValidateReturn(context.Background(), record.ID, uuid.New(), returns.RoleRequester)
	require.Error(t, err)

	_, err = service.ValidateReturn(context.Background(), record.ID, record.RequesterID, returns.RoleRequester)
	assert.NoError(t, err)
}

func TestValidateReturn_MissingImage(t *testing.T) {
	record := storedReturn()
	record.ImageURL = ""
	store := &MockStore{Record: record}
	service := NewService(&MockOracle{}, &MockScorer{}, store, &MockAuditor{})

	_, err := service.ValidateReturn(context.Background(), record.ID, uuid.Nil, "")
	require.Error(t, err)
}

func TestValidateReturn_NotFound(t *testing.T) {
	store := &MockStore{GetErr: returns.ErrNotFound}
	service := NewService(&MockOracle{}, &MockScorer{}, store, &MockAuditor{})

	_, err := service.ValidateReturn(context.Background(), uuid.New(), uuid.Nil, "")
	require.Error(t, err)
}

// ========================================
// PREVIEW AND DISPATCH
// ========================================

func TestPreview(t *testing.T) {
	oracle := &MockOracle{AnalyzeFunc: func(ctx context.Context, imageURL, description, reasonCode string) (*OracleVerdict, error) {
		return &OracleVerdict{Match: true, Confidence: 0.6, Reason: "ok"}, nil
	}}
	service := NewService(oracle, &MockScorer{}, &MockStore{}, &MockAuditor{})

	resp := service.Preview(context.Background(), &PreviewRequest{
		ImageURL:    "https://img",
		Description: "scratched lid",
	})

	assert.True(t, resp.CanSubmit)
	assert.Nil(t, resp.Validation.AdjustedConfidence, "preview carries no requester context")
}

func TestPreview_LowConfidenceBlocksSubmission(t *testing.T) {
	oracle := &MockOracle{AnalyzeFunc: func(ctx context.Context, imageURL, description, reasonCode string) (*OracleVerdict, error) {
		return &OracleVerdict{Match: true, Confidence: 0.1, Reason: "unclear"}, nil
	}}
	service := NewService(oracle, &MockScorer{}, &MockStore{}, &MockAuditor{})

	resp := service.Preview(context.Background(), &PreviewRequest{ImageURL: "https://img", Description: "d"})

	assert.False(t, resp.CanSubmit)
}

func TestDispatch_ClosesChannelAfterPersisting(t *testing.T) {
	store := &MockStore{Record: storedReturn()}
	service := NewService(&MockOracle{}, &MockScorer{}, store, &MockAuditor{})

	done := service.Dispatch(context.Background(), store.Record.ID)
	<-done

	assert.Equal(t, returns.ValidationApproved, store.UpdatedStatus)
}
