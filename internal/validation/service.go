package validation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/retracehq/returns-service/internal/audit"
	"github.com/retracehq/returns-service/internal/behavior"
	"github.com/retracehq/returns-service/internal/returns"
	"github.com/retracehq/returns-service/pkg/common"
	"github.com/retracehq/returns-service/pkg/logger"
	"go.uber.org/zap"
)

// WorkflowValidation identifies decision engine events in the audit trail
const WorkflowValidation = "ai-validation"

// standardThreshold is the confidence floor applied when no requester
// context is available.
const standardThreshold = 0.30

var verdictsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "returns_validation_verdicts_total",
		Help: "Validation verdicts issued by the fraud decision engine",
	},
	[]string{"verdict"},
)

// Service is the fraud decision engine. It weights the matching service's
// raw output by requester risk and persists the verdict.
type Service struct {
	oracle   Oracle
	behavior BehaviorScorer
	store    ReturnStore
	auditor  returns.AuditRecorder
}

// Ensure the service can act as the returns dispatcher.
var _ returns.Dispatcher = (*Service)(nil)

// NewService creates a new validation service
func NewService(oracle Oracle, scorer BehaviorScorer, store ReturnStore, auditor returns.AuditRecorder) *Service {
	return &Service{oracle: oracle, behavior: scorer, store: store, auditor: auditor}
}

// Decide runs the oracle and applies behavior-based adjustment. It never
// fails: any oracle problem degrades to a zero-confidence mismatch so the
// caller always has a persistable result.
func (s *Service) Decide(ctx context.Context, evidenceURL, description string, requesterID *uuid.UUID, reasonCode string) *Result {
	verdict, err := s.oracle.Analyze(ctx, evidenceURL, description, reasonCode)
	if err != nil {
		logger.Warn("Matching service unavailable, degrading to manual review",
			zap.Error(err), zap.String("evidence_url", evidenceURL))
		return &Result{
			Match:      false,
			Confidence: 0,
			Reason:     fmt.Sprintf("matching service unavailable: %v - manual review required", err),
			Degraded:   true,
		}
	}

	result := &Result{
		Match:      verdict.Match,
		Confidence: verdict.Confidence,
		Reason:     verdict.Reason,
	}

	if requesterID == nil {
		if result.Confidence < standardThreshold {
			result.Match = false
		}
		return result
	}

	score := s.behaviorScore(ctx, *requesterID)
	multiplier := score.RiskLevel.ConfidenceMultiplier()
	threshold := thresholdFor(score.RiskLevel)

	adjusted := result.Confidence * multiplier
	if adjusted > 1 {
		adjusted = 1
	}
	if adjusted < 0 {
		adjusted = 0
	}

	result.BehaviorScore = &score.Score
	result.AdjustedConfidence = &adjusted
	result.AdjustedThreshold = &threshold

	if adjusted < threshold {
		result.Match = false
	}

	return result
}

// Preview runs a pre-submission check without requester context
func (s *Service) Preview(ctx context.Context, req *PreviewRequest) *PreviewResponse {
	result := s.Decide(ctx, req.ImageURL, req.Description, nil, "")

	canSubmit := result.Confidence >= standardThreshold && !result.Degraded
	message := "AI validation passed - you can submit your return"
	if !canSubmit {
		message = "AI validation indicates low confidence - please provide more accurate description or clearer image"
	}

	return &PreviewResponse{Validation: result, CanSubmit: canSubmit, Message: message}
}

// ValidateReturn evaluates a stored return and persists the verdict.
// Requesters may only validate their own returns; staff may validate any.
func (s *Service) ValidateReturn(ctx context.Context, returnID, callerID uuid.UUID, role returns.Role) (*Result, error) {
	record, err := s.store.GetByID(ctx, returnID)
	if err != nil {
		if errors.Is(err, returns.ErrNotFound) {
			return nil, common.NewNotFoundError("return not found", err)
		}
		return nil, common.NewInternalServerError("failed to get return")
	}

	if role == returns.RoleRequester && record.RequesterID != callerID {
		return nil, common.NewForbiddenError("you may only validate your own returns")
	}
	if record.ImageURL == "" {
		return nil, common.NewBadRequestError("return has no evidence image to validate", nil)
	}

	result := s.Decide(ctx, record.ImageURL, record.Description, &record.RequesterID, string(record.Reason))
	status, fraudFlag := mapVerdict(result)

	analysis := &returns.AIAnalysis{
		Match:      result.Match,
		Confidence: result.Confidence,
		Reason:     result.Reason,
		AnalyzedAt: time.Now(),
	}

	if err := s.store.UpdateValidation(ctx, returnID, analysis, fraudFlag, status); err != nil {
		logger.Error("Failed to persist validation verdict",
			zap.Error(err), zap.String("return_id", returnID.String()))
		return nil, common.NewInternalServerError("failed to persist validation verdict")
	}

	verdictsTotal.WithLabelValues(string(status)).Inc()

	auditStatus := audit.StatusSuccess
	if result.Degraded {
		auditStatus = audit.StatusFailed
	}
	s.auditor.Record(ctx, WorkflowValidation, returnID, "ai_validation_completed", auditStatus,
		fmt.Sprintf("status=%s confidence=%.2f fraud_flag=%t reason=%s", status, result.Confidence, fraudFlag, result.Reason))

	return result, nil
}

// Dispatch evaluates a return in the background. The returned channel
// closes once the verdict has been persisted.
func (s *Service) Dispatch(ctx context.Context, returnID uuid.UUID) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := s.ValidateReturn(ctx, returnID, uuid.Nil, ""); err != nil {
			logger.Error("Background validation failed",
				zap.Error(err), zap.String("return_id", returnID.String()))
		}
	}()
	return done
}

// behaviorScore fetches the requester's risk profile, degrading to a
// neutral profile rather than failing the decision.
func (s *Service) behaviorScore(ctx context.Context, requesterID uuid.UUID) *behavior.Score {
	score, err := s.behavior.GetScore(ctx, requesterID)
	if err != nil || score == nil {
		logger.Warn("Behavior score unavailable, using neutral profile",
			zap.Error(err), zap.String("requester_id", requesterID.String()))
		return &behavior.Score{RequesterID: requesterID, Score: 50, RiskLevel: behavior.RiskMedium}
	}
	return score
}

// mapVerdict turns a decision result into the persistable verdict.
// Confidence below the standard floor on either side means a human decides.
func mapVerdict(result *Result) (returns.ValidationStatus, bool) {
	confidence := result.EffectiveConfidence()
	switch {
	case result.Match && confidence >= standardThreshold:
		return returns.ValidationApproved, false
	case !result.Match && confidence >= standardThreshold:
		return returns.ValidationRejectedAI, true
	default:
		return returns.ValidationManualReview, false
	}
}

func thresholdFor(risk behavior.RiskLevel) float64 {
	switch risk {
	case behavior.RiskLow:
		return 0.20
	case behavior.RiskHigh:
		return 0.40
	default:
		return standardThreshold
	}
}
