package trust

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/retracehq/returns-service/pkg/common"
	"github.com/retracehq/returns-service/pkg/logger"
	"go.uber.org/zap"
)

const baseScore = 100

// Service computes and maintains requester trust scores
type Service struct {
	repo RepositoryInterface
}

// NewService creates a new trust service
func NewService(repo RepositoryInterface) *Service {
	return &Service{repo: repo}
}

// Compute derives a trust score breakdown without persisting it
func (s *Service) Compute(ctx context.Context, requesterID uuid.UUID) (*Breakdown, error) {
	profile, err := s.repo.GetProfile(ctx, requesterID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, common.NewNotFoundError("requester not found", err)
		}
		return nil, common.NewInternalServerError("failed to load requester profile")
	}

	samples, err := s.repo.GetReturnSamples(ctx, requesterID)
	if err != nil {
		return nil, common.NewInternalServerError("failed to load return history")
	}

	orderCount, err := s.repo.CountOrders(ctx, requesterID)
	if err != nil {
		return nil, common.NewInternalServerError("failed to count orders")
	}

	factors := deriveFactors(samples, orderCount, profile.CreatedAt)
	impacts := deriveImpacts(factors)

	score := float64(baseScore) +
		impacts.Price + impacts.Frequency + impacts.Timing +
		impacts.Success + impacts.AccountAge + impacts.Fraud
	score = math.Max(0, math.Min(100, score))

	previous := profile.TrustScore
	if previous == 0 && profile.TrustScoreUpdatedAt == nil {
		previous = baseScore
	}

	return &Breakdown{
		RequesterID:     requesterID,
		CurrentScore:    int(math.Round(score)),
		PreviousScore:   previous,
		Factors:         factors,
		Impacts:         impacts,
		RiskLevel:       riskLevelFor(score),
		Recommendations: recommendations(score, factors),
		ComputedAt:      time.Now(),
	}, nil
}

// Update recomputes a requester's trust score and persists it
func (s *Service) Update(ctx context.Context, requesterID uuid.UUID) (*Breakdown, error) {
	breakdown, err := s.Compute(ctx, requesterID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateTrustFields(ctx, requesterID,
		breakdown.CurrentScore, breakdown.RiskLevel, breakdown.Factors); err != nil {
		return nil, common.NewInternalServerError("failed to persist trust score")
	}

	logger.Info("Trust score updated",
		zap.String("requester_id", requesterID.String()),
		zap.Int("previous_score", breakdown.PreviousScore),
		zap.Int("current_score", breakdown.CurrentScore),
	)

	return breakdown, nil
}

// BatchUpdate recomputes trust scores for every requester. One failing
// account does not stop the batch.
func (s *Service) BatchUpdate(ctx context.Context) (*BatchResult, error) {
	ids, err := s.repo.ListRequesterIDs(ctx)
	if err != nil {
		return nil, common.NewInternalServerError("failed to list requesters")
	}

	result := &BatchResult{Errors: []string{}}
	for _, id := range ids {
		if _, err := s.Update(ctx, id); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("requester %s: %v", id, err))
			continue
		}
		result.Updated++
	}

	return result, nil
}

// Override manually sets a requester's trust score
func (s *Service) Override(ctx context.Context, requesterID, adminID uuid.UUID, req *OverrideRequest) (*RequesterProfile, error) {
	breakdown, err := s.Compute(ctx, requesterID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateTrustFields(ctx, requesterID,
		*req.Score, riskLevelFor(float64(*req.Score)), breakdown.Factors); err != nil {
		return nil, common.NewInternalServerError("failed to persist trust score override")
	}

	logger.Warn("Trust score manually overridden",
		zap.String("requester_id", requesterID.String()),
		zap.String("admin_id", adminID.String()),
		zap.Int("score", *req.Score),
		zap.String("reason", req.Reason),
	)

	return s.repo.GetProfile(ctx, requesterID)
}

// ========================================
// SCORING
// ========================================

func deriveFactors(samples []ReturnSample, orderCount int64, accountCreatedAt time.Time) Factors {
	now := time.Now()

	var totalPrice float64
	var approved, flagged, recent int
	for _, sample := range samples {
		totalPrice += sample.Price
		if sample.Status == "approved" {
			approved++
		}
		if sample.FraudFlag {
			flagged++
		}
		if now.Sub(sample.CreatedAt) < 90*24*time.Hour {
			recent++
		}
	}

	averagePrice := 0.0
	successRate := 1.0
	if len(samples) > 0 {
		averagePrice = totalPrice / float64(len(samples))
		successRate = float64(approved) / float64(len(samples))
	}

	returnRate := 0.0
	if orderCount > 0 {
		returnRate = float64(len(samples)) / float64(orderCount)
	}

	return Factors{
		AverageReturnPrice: averagePrice,
		ReturnFrequency:    float64(recent) / 3,
		ReturnRate:         returnRate,
		AccountAgeMonths:   now.Sub(accountCreatedAt).Hours() / (30 * 24),
		SuccessRate:        successRate,
		TimePatternScore:   timePatternScore(samples),
		FraudFlagCount:     flagged,
	}
}

// timePatternScore penalizes tightly clustered returns
func timePatternScore(samples []ReturnSample) float64 {
	if len(samples) < 2 {
		return 1
	}

	sorted := make([]ReturnSample, len(samples))
	copy(sorted, samples)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})

	var totalGapDays float64
	for i := 1; i < len(sorted); i++ {
		totalGapDays += sorted[i].CreatedAt.Sub(sorted[i-1].CreatedAt).Hours() / 24
	}
	avgGap := totalGapDays / float64(len(sorted)-1)

	switch {
	case avgGap < 7:
		return 0.3
	case avgGap < 14:
		return 0.6
	case avgGap < 30:
		return 0.8
	default:
		return 1
	}
}

func deriveImpacts(f Factors) Impacts {
	var impacts Impacts

	switch {
	case f.AverageReturnPrice > 100:
		impacts.Price = -15
	case f.AverageReturnPrice > 50:
		impacts.Price = -8
	case f.AverageReturnPrice > 25:
		impacts.Price = -3
	}

	switch {
	case f.ReturnFrequency > 2:
		impacts.Frequency = -20
	case f.ReturnFrequency > 1:
		impacts.Frequency = -10
	case f.ReturnFrequency > 0.5:
		impacts.Frequency = -5
	}
	switch {
	case f.ReturnRate > 0.5:
		impacts.Frequency -= 15
	case f.ReturnRate > 0.3:
		impacts.Frequency -= 8
	case f.ReturnRate > 0.2:
		impacts.Frequency -= 3
	}

	impacts.Timing = (f.TimePatternScore - 1) * 20

	switch {
	case f.SuccessRate > 0.9:
		impacts.Success = 10
	case f.SuccessRate > 0.8:
		impacts.Success = 5
	case f.SuccessRate < 0.5:
		impacts.Success = -15
	case f.SuccessRate < 0.7:
		impacts.Success = -8
	}

	switch {
	case f.AccountAgeMonths > 12:
		impacts.AccountAge = 10
	case f.AccountAgeMonths > 6:
		impacts.AccountAge = 5
	case f.AccountAgeMonths < 1:
		impacts.AccountAge = -10
	}

	impacts.Fraud = float64(f.FraudFlagCount) * -25

	return impacts
}

func riskLevelFor(score float64) RiskLevel {
	switch {
	case score < 40:
		return RiskHigh
	case score < 70:
		return RiskMedium
	default:
		return RiskLow
	}
}

func recommendations(score float64, f Factors) []string {
	recs := []string{}

	if score < 40 {
		recs = append(recs, "High risk user - consider manual review for all returns")
		recs = append(recs, "Limit return frequency or require additional verification")
	}
	if f.ReturnFrequency > 1 {
		recs = append(recs, "Return frequency is high - monitor closely")
	}
	if f.AverageReturnPrice > 50 {
		recs = append(recs, "High-value returns detected - verify product condition")
	}
	if f.SuccessRate < 0.7 {
		recs = append(recs, "Low return success rate - review return reasons")
	}
	if f.FraudFlagCount > 0 {
		recs = append(recs, "Previous fraud flags detected - enhanced verification required")
	}
	if f.TimePatternScore < 0.5 {
		recs = append(recs, "Returns are clustered - potential abuse pattern")
	}
	if score > 80 {
		recs = append(recs, "Excellent trust score - can process returns automatically")
	}

	return recs
}
