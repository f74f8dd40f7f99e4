package audit

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository handles audit trail data operations
type Repository struct {
	db *pgxpool.Pool
}

// Ensure the concrete repository satisfies the service's requirements.
var _ RepositoryInterface = (*Repository)(nil)

// NewRepository creates a new audit repository
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Insert appends an event to the audit trail
func (r *Repository) Insert(ctx context.Context, event *Event) error {
	query := `
		INSERT INTO automation_logs (
			id, workflow_id, return_id, action, status, details, timestamp
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.Exec(ctx, query,
		event.ID,
		event.WorkflowID,
		event.ReturnID,
		event.Action,
		event.Status,
		event.Details,
		event.Timestamp,
	)

	return err
}

// List retrieves audit events matching the filter, newest first
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]*Event, int64, error) {
	conditions := []string{}
	args := []interface{}{}
	argIdx := 1

	if filter.ReturnID != nil {
		conditions = append(conditions, fmt.Sprintf("return_id = $%d", argIdx))
		args = append(args, *filter.ReturnID)
		argIdx++
	}
	if filter.WorkflowID != "" {
		conditions = append(conditions, fmt.Sprintf("workflow_id = $%d", argIdx))
		args = append(args, filter.WorkflowID)
		argIdx++
	}
	if filter.Action != "" {
		conditions = append(conditions, fmt.Sprintf("action = $%d", argIdx))
		args = append(args, filter.Action)
		argIdx++
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM automation_logs %s", where)
	var total int64
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT id, workflow_id, return_id, action, status, details, timestamp
		FROM automation_logs
		%s
		ORDER BY timestamp DESC
		LIMIT $%d OFFSET $%d
	`, where, argIdx, argIdx+1)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	events := []*Event{}
	for rows.Next() {
		var event Event
		if err := rows.Scan(
			&event.ID,
			&event.WorkflowID,
			&event.ReturnID,
			&event.Action,
			&event.Status,
			&event.Details,
			&event.Timestamp,
		); err != nil {
			return nil, 0, err
		}
		events = append(events, &event)
	}

	return events, total, rows.Err()
}
