package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/EdwarHercules/bots-telegram/internal/domain/plan"
)

// Custom errors
var ErrPlanNotFound = fmt.Errorf("plan entry not found")

type PostgresPlanRepository struct {
	db *sql.DB
}

func NewPostgresPlanRepository(db *sql.DB) *PostgresPlanRepository {
	return &PostgresPlanRepository{db: db}
}

// BulkCreate inserts a batch of plan entries inside one transaction so a
// failed upload never leaves a partially imported plan.
func (r *PostgresPlanRepository) BulkCreate(ctx context.Context, entries []*plan.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	txn, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for bulk plan create: %w", err)
	}
	defer txn.Rollback() // Rollback if not committed

	stmt, err := txn.PrepareContext(ctx, `INSERT INTO plan_entries (owner_telegram_id, owner_name, meter_key, brand, planned_at, revised, query_count)
                                         VALUES ($1, $2, $3, $4, $5, FALSE, 0)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement for bulk plan create: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, e.OwnerID, e.OwnerName, e.Key, e.Brand, e.PlannedAt); err != nil {
			return fmt.Errorf("error inserting plan entry (key %s): %w", e.Key, err)
		}
	}

	return txn.Commit()
}

func (r *PostgresPlanRepository) LatestByKey(ctx context.Context, key string) (*plan.Entry, error) {
	query := `SELECT id, owner_telegram_id, owner_name, meter_key, brand, planned_at, revised, query_count
               FROM plan_entries WHERE meter_key = $1
               ORDER BY planned_at DESC LIMIT 1`
	e := plan.Entry{}
	err := r.db.QueryRowContext(ctx, query, key).Scan(
		&e.ID, &e.OwnerID, &e.OwnerName, &e.Key, &e.Brand, &e.PlannedAt, &e.Revised, &e.QueryCount,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrPlanNotFound
		}
		return nil, fmt.Errorf("error getting latest plan entry by key: %w", err)
	}
	return &e, nil
}

func (r *PostgresPlanRepository) RegisterQuery(ctx context.Context, id int64, queryCount int) error {
	query := `UPDATE plan_entries SET revised = TRUE, query_count = $1 WHERE id = $2`
	res, err := r.db.ExecContext(ctx, query, queryCount, id)
	if err != nil {
		return fmt.Errorf("error registering plan query: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading register query result: %w", err)
	}
	if n == 0 {
		return ErrPlanNotFound
	}
	return nil
}
