package behavior

import (
	"time"

	"github.com/google/uuid"
)

// RiskLevel buckets a behavior score for the decision engine
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Score is a requester's computed behavior profile, windowed over their
// most recent returns.
type Score struct {
	RequesterID        uuid.UUID `json:"requester_id"`
	Score              float64   `json:"score"`
	RiskLevel          RiskLevel `json:"risk_level"`
	ReturnHistoryCount int       `json:"return_history_count"`
	ApprovalRate       float64   `json:"approval_rate"`
	FraudFlagRate      float64   `json:"fraud_flag_rate"`
	ReasonConsistency  float64   `json:"reason_consistency_score"`
	AvgConfidence      float64   `json:"average_confidence_score"`
	ComputedAt         time.Time `json:"computed_at"`
}

// ConfidenceMultiplier is the factor the decision engine applies to raw
// oracle confidence for this risk level.
func (r RiskLevel) ConfidenceMultiplier() float64 {
	switch r {
	case RiskLow:
		return 1.15
	case RiskHigh:
		return 0.85
	default:
		return 1.0
	}
}

// HistorySample is one prior return as seen by the scorer
type HistorySample struct {
	Status      string
	FraudFlag   bool
	Match       bool
	Confidence  float64
	HasAnalysis bool
}
