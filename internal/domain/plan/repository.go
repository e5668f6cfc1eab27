package plan

import "context"

// Repository defines operations over plan entries.
type Repository interface {
	// BulkCreate inserts a batch of entries all-or-nothing, so a failed
	// upload never leaves a partially imported plan.
	BulkCreate(ctx context.Context, entries []*Entry) error

	// LatestByKey returns the most recently planned entry for a canonical
	// key, regardless of owner.
	LatestByKey(ctx context.Context, key string) (*Entry, error)

	// RegisterQuery marks the entry revised and records the new query
	// count after a request against it has been accepted.
	RegisterQuery(ctx context.Context, id int64, queryCount int) error
}
