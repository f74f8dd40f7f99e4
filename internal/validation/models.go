package validation

// OracleVerdict is the matching service's raw answer
type OracleVerdict struct {
	Match      bool    `json:"match"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}

// Result is a full decision engine outcome. The adjusted fields are set
// only when requester context was available.
type Result struct {
	Match      bool    `json:"match"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`

	BehaviorScore      *float64 `json:"behavior_score,omitempty"`
	AdjustedConfidence *float64 `json:"adjusted_confidence,omitempty"`
	AdjustedThreshold  *float64 `json:"adjusted_threshold,omitempty"`

	// Degraded marks a result synthesized after an oracle failure
	Degraded bool `json:"degraded,omitempty"`
}

// EffectiveConfidence is the confidence the verdict mapping uses:
// the behavior-adjusted value when one was computed, the raw one otherwise.
func (r *Result) EffectiveConfidence() float64 {
	if r.AdjustedConfidence != nil {
		return *r.AdjustedConfidence
	}
	return r.Confidence
}

// PreviewRequest is the payload for a pre-submission validation
type PreviewRequest struct {
	ImageURL    string `json:"image_url" binding:"required,url"`
	Description string `json:"description" binding:"required"`
}

// PreviewResponse tells a requester whether their evidence would pass
type PreviewResponse struct {
	Validation *Result `json:"validation"`
	CanSubmit  bool    `json:"can_submit"`
	Message    string  `json:"message"`
}
