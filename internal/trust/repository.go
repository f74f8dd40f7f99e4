package trust

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is reported when a requester does not exist
var ErrNotFound = errors.New("requester not found")

// Repository handles trust score data operations
type Repository struct {
	db *pgxpool.Pool
}

// Ensure the concrete repository satisfies the service's requirements.
var _ RepositoryInterface = (*Repository)(nil)

// NewRepository creates a new trust repository
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// GetProfile retrieves the trust-relevant fields of a requester account
func (r *Repository) GetProfile(ctx context.Context, requesterID uuid.UUID) (*RequesterProfile, error) {
	query := `
		SELECT id, created_at, trust_score, risk_level, trust_score_updated_at
		FROM users
		WHERE id = $1
	`

	var profile RequesterProfile
	var updatedAt sql.NullTime
	err := r.db.QueryRow(ctx, query, requesterID).Scan(
		&profile.ID,
		&profile.CreatedAt,
		&profile.TrustScore,
		&profile.RiskLevel,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if updatedAt.Valid {
		profile.TrustScoreUpdatedAt = &updatedAt.Time
	}
	return &profile, nil
}

// GetReturnSamples retrieves a requester's returns for scoring, newest first
func (r *Repository) GetReturnSamples(ctx context.Context, requesterID uuid.UUID) ([]ReturnSample, error) {
	query := `
		SELECT price, status, fraud_flag, created_at
		FROM returns
		WHERE requester_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(ctx, query, requesterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	samples := []ReturnSample{}
	for rows.Next() {
		var sample ReturnSample
		if err := rows.Scan(&sample.Price, &sample.Status, &sample.FraudFlag, &sample.CreatedAt); err != nil {
			return nil, err
		}
		samples = append(samples, sample)
	}

	return samples, rows.Err()
}

// CountOrders counts a requester's orders
func (r *Repository) CountOrders(ctx context.Context, requesterID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx,
		"SELECT COUNT(*) FROM orders WHERE user_id = $1", requesterID,
	).Scan(&count)
	return count, err
}

// UpdateTrustFields persists a computed trust score onto the account
func (r *Repository) UpdateTrustFields(ctx context.Context, requesterID uuid.UUID, score int, riskLevel RiskLevel, factors Factors) error {
	factorsJSON, err := json.Marshal(factors)
	if err != nil {
		return err
	}

	query := `
		UPDATE users
		SET trust_score = $2, risk_level = $3, trust_factors = $4, trust_score_updated_at = $5
		WHERE id = $1
	`

	tag, err := r.db.Exec(ctx, query, requesterID, score, riskLevel, factorsJSON, time.Now())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListRequesterIDs lists every requester account for batch recomputation
func (r *Repository) ListRequesterIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx, "SELECT id FROM users ORDER BY created_at")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []uuid.UUID{}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}
