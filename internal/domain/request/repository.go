package request

import (
	"context"
	"time"
)

// Repository defines the queue store. All state lives here; the processor
// keeps nothing between polling cycles, which makes it restart-safe.
type Repository interface {
	Create(ctx context.Context, r *Request) error

	// ListPending returns rows with claimed = false and delivered = false
	// submitted at or after the given instant (a bounded scan window).
	ListPending(ctx context.Context, since time.Time) ([]*Request, error)

	// Claim atomically flips claimed to true for the row. It reports false
	// when the row was already claimed by a concurrent execution, in which
	// case the caller must skip the row.
	Claim(ctx context.Context, id int64) (bool, error)

	// MarkDelivered records a confirmed send.
	MarkDelivered(ctx context.Context, id int64) error

	// RequeueStale resets claimed-but-undelivered rows claimed before the
	// given instant back to unclaimed. It exists as an opt-in remediation
	// hook; the processor never calls it unless configured to.
	RequeueStale(ctx context.Context, before time.Time) (int64, error)
}
