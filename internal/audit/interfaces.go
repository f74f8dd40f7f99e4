package audit

import "context"

// RepositoryInterface persists audit events
type RepositoryInterface interface {
	Insert(ctx context.Context, event *Event) error
	List(ctx context.Context, filter ListFilter) ([]*Event, int64, error)
}
