package trust

import (
	"time"

	"github.com/google/uuid"
)

// RiskLevel buckets a trust score
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Factors are the raw inputs the trust score is derived from
type Factors struct {
	AverageReturnPrice float64 `json:"average_return_price"`
	ReturnFrequency    float64 `json:"return_frequency"`
	ReturnRate         float64 `json:"return_rate"`
	AccountAgeMonths   float64 `json:"account_age_months"`
	SuccessRate        float64 `json:"success_rate"`
	TimePatternScore   float64 `json:"time_pattern_score"`
	FraudFlagCount     int     `json:"fraud_flag_count"`
}

// Impacts are the per-factor score adjustments applied to the base of 100
type Impacts struct {
	Price      float64 `json:"price_impact"`
	Frequency  float64 `json:"frequency_impact"`
	Timing     float64 `json:"timing_impact"`
	Success    float64 `json:"success_impact"`
	AccountAge float64 `json:"account_age_impact"`
	Fraud      float64 `json:"fraud_impact"`
}

// Breakdown is a full trust score computation result
type Breakdown struct {
	RequesterID     uuid.UUID `json:"requester_id"`
	CurrentScore    int       `json:"current_score"`
	PreviousScore   int       `json:"previous_score"`
	Factors         Factors   `json:"factors"`
	Impacts         Impacts   `json:"breakdown"`
	RiskLevel       RiskLevel `json:"risk_level"`
	Recommendations []string  `json:"recommendations"`
	ComputedAt      time.Time `json:"computed_at"`
}

// RequesterProfile is the trust-relevant slice of a requester account
type RequesterProfile struct {
	ID                  uuid.UUID  `json:"id" db:"id"`
	CreatedAt           time.Time  `json:"created_at" db:"created_at"`
	TrustScore          int        `json:"trust_score" db:"trust_score"`
	RiskLevel           RiskLevel  `json:"risk_level" db:"risk_level"`
	TrustScoreUpdatedAt *time.Time `json:"trust_score_updated_at,omitempty" db:"trust_score_updated_at"`
}

// ReturnSample is one past return used as a scoring input
type ReturnSample struct {
	Price     float64
	Status    string
	FraudFlag bool
	CreatedAt time.Time
}

// OverrideRequest is the payload for manually setting a trust score.
// Score is a pointer so an override to exactly 0 binds as present.
type OverrideRequest struct {
	Score  *int   `json:"score" binding:"required,min=0,max=100"`
	Reason string `json:"reason" binding:"required"`
}

// BatchResult summarizes a batch recomputation
type BatchResult struct {
	Updated int      `json:"updated"`
	Errors  []string `json:"errors"`
}
