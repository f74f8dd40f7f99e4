package returns

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrStatusConflict is reported when a compare-and-set status update finds
// the return no longer in the expected status.
var ErrStatusConflict = errors.New("return status changed concurrently")

// ErrNotFound is reported when a return does not exist
var ErrNotFound = errors.New("return not found")

const returnColumns = `
	id, order_id, requester_id, product_id, reason, description, image_url,
	price, ai_analysis, fraud_flag, validation_status, status, return_method,
	qr_code_data, dropbox_location, created_at, updated_at
`

// Repository handles return request data operations
type Repository struct {
	db *pgxpool.Pool
}

// Ensure the concrete repository satisfies the service's requirements.
var _ RepositoryInterface = (*Repository)(nil)

// NewRepository creates a new returns repository
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Create inserts a new return request
func (r *Repository) Create(ctx context.Context, record *ReturnRecord) error {
	query := `
		INSERT INTO returns (
			id, order_id, requester_id, product_id, reason, description,
			image_url, price, fraud_flag, validation_status, status,
			return_method, dropbox_location, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := r.db.Exec(ctx, query,
		record.ID,
		record.OrderID,
		record.RequesterID,
		record.ProductID,
		record.Reason,
		record.Description,
		record.ImageURL,
		record.Price,
		record.FraudFlag,
		record.ValidationStatus,
		record.Status,
		record.ReturnMethod,
		record.DropboxLocation,
		record.CreatedAt,
		record.UpdatedAt,
	)

	return err
}

// GetByID retrieves a return by ID
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*ReturnRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM returns WHERE id = $1", returnColumns)

	record, err := scanReturn(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return record, nil
}

// ListByRequester retrieves a requester's returns, newest first
func (r *Repository) ListByRequester(ctx context.Context, requesterID uuid.UUID, limit, offset int) ([]*ReturnRecord, int64, error) {
	var total int64
	if err := r.db.QueryRow(ctx,
		"SELECT COUNT(*) FROM returns WHERE requester_id = $1", requesterID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT %s FROM returns
		WHERE requester_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, returnColumns)

	rows, err := r.db.Query(ctx, query, requesterID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	records, err := scanReturns(rows)
	return records, total, err
}

// ListAll retrieves returns across all requesters, optionally filtered
func (r *Repository) ListAll(ctx context.Context, status Status, validationStatus ValidationStatus, limit, offset int) ([]*ReturnRecord, int64, error) {
	conditions := []string{}
	args := []interface{}{}
	argIdx := 1

	if status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, status)
		argIdx++
	}
	if validationStatus != "" {
		conditions = append(conditions, fmt.Sprintf("validation_status = $%d", argIdx))
		args = append(args, validationStatus)
		argIdx++
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int64
	if err := r.db.QueryRow(ctx,
		fmt.Sprintf("SELECT COUNT(*) FROM returns %s", where), args...,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT %s FROM returns
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, returnColumns, where, argIdx, argIdx+1)
	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	records, err := scanReturns(rows)
	return records, total, err
}

// UpdateStatusCAS performs a compare-and-set status transition
func (r *Repository) UpdateStatusCAS(ctx context.Context, id uuid.UUID, from, to Status, qrCodeData *string) (*ReturnRecord, error) {
	query := fmt.Sprintf(`
		UPDATE returns
		SET status = $3,
		    qr_code_data = COALESCE($4, qr_code_data),
		    updated_at = $5
		WHERE id = $1 AND status = $2
		RETURNING %s
	`, returnColumns)

	record, err := scanReturn(r.db.QueryRow(ctx, query, id, from, to, qrCodeData, time.Now()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Distinguish a lost race from a missing row.
			if _, getErr := r.GetByID(ctx, id); getErr != nil {
				return nil, getErr
			}
			return nil, ErrStatusConflict
		}
		return nil, err
	}
	return record, nil
}

// UpdateValidation persists the fraud decision engine's verdict
func (r *Repository) UpdateValidation(ctx context.Context, id uuid.UUID, analysis *AIAnalysis, fraudFlag bool, validationStatus ValidationStatus) error {
	analysisJSON, err := json.Marshal(analysis)
	if err != nil {
		return err
	}

	query := `
		UPDATE returns
		SET ai_analysis = $2, fraud_flag = $3, validation_status = $4, updated_at = $5
		WHERE id = $1
	`

	tag, err := r.db.Exec(ctx, query, id, analysisJSON, fraudFlag, validationStatus, time.Now())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetOrderLine retrieves the order line a return refers to
func (r *Repository) GetOrderLine(ctx context.Context, orderID uuid.UUID, productID string) (*OrderLine, error) {
	query := `
		SELECT order_id, product_id, price, quantity
		FROM order_items
		WHERE order_id = $1 AND product_id = $2
	`

	var line OrderLine
	err := r.db.QueryRow(ctx, query, orderID, productID).Scan(
		&line.OrderID,
		&line.ProductID,
		&line.Price,
		&line.Quantity,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("order line not found")
		}
		return nil, err
	}
	return &line, nil
}

func scanReturn(row pgx.Row) (*ReturnRecord, error) {
	var record ReturnRecord
	var analysisJSON []byte
	var imageURL, qrCodeData, dropboxLocation sql.NullString

	err := row.Scan(
		&record.ID,
		&record.OrderID,
		&record.RequesterID,
		&record.ProductID,
		&record.Reason,
		&record.Description,
		&imageURL,
		&record.Price,
		&analysisJSON,
		&record.FraudFlag,
		&record.ValidationStatus,
		&record.Status,
		&record.ReturnMethod,
		&qrCodeData,
		&dropboxLocation,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if imageURL.Valid {
		record.ImageURL = imageURL.String
	}
	if qrCodeData.Valid {
		record.QRCodeData = qrCodeData.String
	}
	if dropboxLocation.Valid {
		record.DropboxLocation = dropboxLocation.String
	}
	if len(analysisJSON) > 0 {
		var analysis AIAnalysis
		if err := json.Unmarshal(analysisJSON, &analysis); err == nil {
			record.AIAnalysis = &analysis
		}
	}

	return &record, nil
}

func scanReturns(rows pgx.Rows) ([]*ReturnRecord, error) {
	records := []*ReturnRecord{}
	for rows.Next() {
		record, err := scanReturn(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}
