package behavior

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/retracehq/returns-service/pkg/logger"
	"go.uber.org/zap"
)

const (
	cacheKeyPrefix = "behavior:score:"
	cacheTTL       = 60 * time.Second

	// defaultSignal stands in for consistency and confidence when no
	// return in the window has a verdict yet.
	defaultSignal = 0.8
)

// Service computes behavior scores from recent return history
type Service struct {
	history HistoryStore
	cache   Cache
}

// NewService creates a new behavior service. The cache may be nil.
func NewService(history HistoryStore, cache Cache) *Service {
	return &Service{history: history, cache: cache}
}

// GetScore returns the requester's behavior score, serving a cached value
// when one is fresh enough. Score reads feed the decision engine's
// confidence adjustment only; workflow guards never read them, so a
// slightly stale score cannot change a transition outcome.
func (s *Service) GetScore(ctx context.Context, requesterID uuid.UUID) (*Score, error) {
	key := cacheKeyPrefix + requesterID.String()

	if s.cache != nil {
		if cached, err := s.cache.GetString(ctx, key); err == nil && cached != "" {
			var score Score
			if err := json.Unmarshal([]byte(cached), &score); err == nil {
				return &score, nil
			}
		}
	}

	score := s.compute(ctx, requesterID)

	if s.cache != nil {
		if payload, err := json.Marshal(score); err == nil {
			if err := s.cache.SetWithExpiration(ctx, key, string(payload), cacheTTL); err != nil {
				logger.Warn("Failed to cache behavior score",
					zap.Error(err), zap.String("requester_id", requesterID.String()))
			}
		}
	}

	return score, nil
}

// compute derives the score from history. It never fails: an unreadable
// history degrades to a conservative profile rather than blocking a decision.
func (s *Service) compute(ctx context.Context, requesterID uuid.UUID) *Score {
	samples, err := s.history.GetHistory(ctx, requesterID)
	if err != nil {
		logger.Error("Failed to load return history",
			zap.Error(err), zap.String("requester_id", requesterID.String()))
		return &Score{
			RequesterID:   requesterID,
			Score:         50,
			RiskLevel:     RiskMedium,
			FraudFlagRate: 0.1,
			ComputedAt:    time.Now(),
		}
	}

	if len(samples) == 0 {
		// First-time requesters start above neutral.
		return &Score{
			RequesterID:       requesterID,
			Score:             75,
			RiskLevel:         RiskMedium,
			ApprovalRate:      0.85,
			ReasonConsistency: defaultSignal,
			AvgConfidence:     defaultSignal,
			ComputedAt:        time.Now(),
		}
	}

	var approved, flagged, verdicted, matched int
	var confidenceSum float64
	for _, sample := range samples {
		if sample.Status == "approved" || sample.Status == "completed" {
			approved++
		}
		if sample.FraudFlag {
			flagged++
		}
		if sample.HasAnalysis {
			verdicted++
			confidenceSum += sample.Confidence
			if sample.Match {
				matched++
			}
		}
	}

	total := float64(len(samples))
	approvalRate := float64(approved) / total
	fraudFlagRate := float64(flagged) / total

	consistency := defaultSignal
	avgConfidence := defaultSignal
	if verdicted > 0 {
		consistency = float64(matched) / float64(verdicted)
		avgConfidence = confidenceSum / float64(verdicted)
	}

	value := 50 +
		(approvalRate-0.5)*50 -
		fraudFlagRate*60 +
		(consistency-0.5)*30 +
		(avgConfidence-0.5)*20
	value = clamp(value, 0, 100)

	return &Score{
		RequesterID:        requesterID,
		Score:              value,
		RiskLevel:          riskLevelFor(value),
		ReturnHistoryCount: len(samples),
		ApprovalRate:       approvalRate,
		FraudFlagRate:      fraudFlagRate,
		ReasonConsistency:  consistency,
		AvgConfidence:      avgConfidence,
		ComputedAt:         time.Now(),
	}
}

// Invalidate drops the cached score so the next read recomputes
func (s *Service) Invalidate(ctx context.Context, requesterID uuid.UUID) {
	if s.cache == nil {
		return
	}
	type deleter interface {
		Delete(ctx context.Context, keys ...string) error
	}
	if d, ok := s.cache.(deleter); ok {
		if err := d.Delete(ctx, cacheKeyPrefix+requesterID.String()); err != nil {
			logger.Warn("Failed to invalidate behavior score cache", zap.Error(err))
		}
	}
}

func riskLevelFor(score float64) RiskLevel {
	switch {
	case score >= 75:
		return RiskLow
	case score >= 50:
		return RiskMedium
	default:
		return RiskHigh
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
