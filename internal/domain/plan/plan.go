// Package plan holds the pre-authorization records that gate supervisor
// lookups: a dated binding between a user and a canonical meter key.
package plan

import (
	"time"

	"github.com/EdwarHercules/bots-telegram/internal/domain/meter"
)

// Entry is one planned meter. Entries are never deleted; serving a request
// against one sets Revised and bumps QueryCount, leaving an audit trail.
type Entry struct {
	ID         int64
	OwnerID    int64
	OwnerName  string
	Key        string
	Brand      meter.Brand
	PlannedAt  time.Time
	Revised    bool
	QueryCount int
}

// ActiveWithin reports whether the entry still authorizes lookups at the
// given instant, under the configured recency window.
func (e *Entry) ActiveWithin(window time.Duration, now time.Time) bool {
	return now.Sub(e.PlannedAt) <= window
}
