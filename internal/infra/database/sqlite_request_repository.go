package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "embed"

	"github.com/EdwarHercules/bots-telegram/internal/domain/request"
)

//go:embed queue_sqlite.sql
var queueSchema string

// SQLiteRequestRepository backs the request queue with a local SQLite file,
// for deployments where the warehouse is remote and the bot keeps its
// durable queue state next to the process. Same contract as the Postgres
// repository, including the atomic claim.
type SQLiteRequestRepository struct {
	db *sql.DB
}

func NewSQLiteRequestRepository(db *sql.DB) (*SQLiteRequestRepository, error) {
	if _, err := db.Exec(queueSchema); err != nil {
		return nil, fmt.Errorf("error applying queue schema: %w", err)
	}
	return &SQLiteRequestRepository{db: db}, nil
}

func (r *SQLiteRequestRepository) Create(ctx context.Context, req *request.Request) error {
	query := `INSERT INTO queue_requests (requester_id, requester_name, report_type, identifier, brand, submitted_at, claimed, delivered)
               VALUES (?, ?, ?, ?, ?, ?, 0, 0)`
	res, err := r.db.ExecContext(ctx, query,
		req.RequesterID, req.RequesterName, int(req.ReportType), req.Meter, string(req.Brand), req.SubmittedAt,
	)
	if err != nil {
		return fmt.Errorf("error creating queue request: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("error reading created request id: %w", err)
	}
	req.ID = id
	return nil
}

func (r *SQLiteRequestRepository) ListPending(ctx context.Context, since time.Time) ([]*request.Request, error) {
	query := `SELECT id, requester_id, requester_name, report_type, identifier, brand, submitted_at, claimed, claimed_at, delivered
               FROM queue_requests
               WHERE claimed = 0 AND delivered = 0 AND submitted_at >= ?
               ORDER BY submitted_at ASC`
	rows, err := r.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("error querying pending requests: %w", err)
	}
	defer rows.Close()
	return scanRequests(rows)
}

func (r *SQLiteRequestRepository) Claim(ctx context.Context, id int64) (bool, error) {
	query := `UPDATE queue_requests SET claimed = 1, claimed_at = ?
               WHERE id = ? AND claimed = 0`
	res, err := r.db.ExecContext(ctx, query, time.Now(), id)
	if err != nil {
		return false, fmt.Errorf("error claiming request %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("error reading claim result for request %d: %w", id, err)
	}
	return n == 1, nil
}

func (r *SQLiteRequestRepository) MarkDelivered(ctx context.Context, id int64) error {
	query := `UPDATE queue_requests SET delivered = 1 WHERE id = ? AND claimed = 1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("error marking request %d delivered: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading delivery result for request %d: %w", id, err)
	}
	if n == 0 {
		return ErrRequestNotFound
	}
	return nil
}

func (r *SQLiteRequestRepository) RequeueStale(ctx context.Context, before time.Time) (int64, error) {
	query := `UPDATE queue_requests SET claimed = 0, claimed_at = NULL
               WHERE claimed = 1 AND delivered = 0 AND claimed_at < ?`
	res, err := r.db.ExecContext(ctx, query, before)
	if err != nil {
		return 0, fmt.Errorf("error requeueing stale requests: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("error reading requeue result: %w", err)
	}
	return n, nil
}
