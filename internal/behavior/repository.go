package behavior

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// historyWindow is how many recent returns feed the score
const historyWindow = 50

// Repository reads return history from the returns table
type Repository struct {
	db *pgxpool.Pool
}

// Ensure the concrete repository satisfies the service's requirements.
var _ HistoryStore = (*Repository)(nil)

// NewRepository creates a new behavior repository
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// GetHistory returns a requester's most recent returns, newest first
func (r *Repository) GetHistory(ctx context.Context, requesterID uuid.UUID) ([]HistorySample, error) {
	query := `
		SELECT status, fraud_flag, ai_analysis
		FROM returns
		WHERE requester_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, requesterID, historyWindow)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	samples := []HistorySample{}
	for rows.Next() {
		var sample HistorySample
		var analysisJSON []byte
		if err := rows.Scan(&sample.Status, &sample.FraudFlag, &analysisJSON); err != nil {
			return nil, err
		}
		if len(analysisJSON) > 0 {
			var analysis struct {
				Match      bool    `json:"match"`
				Confidence float64 `json:"confidence"`
			}
			if err := json.Unmarshal(analysisJSON, &analysis); err == nil {
				sample.Match = analysis.Match
				sample.Confidence = analysis.Confidence
				sample.HasAnalysis = true
			}
		}
		samples = append(samples, sample)
	}

	return samples, rows.Err()
}
