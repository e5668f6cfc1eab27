package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/EdwarHercules/bots-telegram/internal/domain/request"
)

// Custom errors
var ErrRequestNotFound = fmt.Errorf("queue request not found")

type PostgresRequestRepository struct {
	db *sql.DB
}

func NewPostgresRequestRepository(db *sql.DB) *PostgresRequestRepository {
	return &PostgresRequestRepository{db: db}
}

func (r *PostgresRequestRepository) Create(ctx context.Context, req *request.Request) error {
	query := `INSERT INTO queue_requests (requester_id, requester_name, report_type, identifier, brand, submitted_at, claimed, delivered)
               VALUES ($1, $2, $3, $4, $5, $6, FALSE, FALSE)
               RETURNING id`
	err := r.db.QueryRowContext(ctx, query,
		req.RequesterID, req.RequesterName, int(req.ReportType), req.Meter, req.Brand, req.SubmittedAt,
	).Scan(&req.ID)
	if err != nil {
		return fmt.Errorf("error creating queue request: %w", err)
	}
	return nil
}

func (r *PostgresRequestRepository) ListPending(ctx context.Context, since time.Time) ([]*request.Request, error) {
	query := `SELECT id, requester_id, requester_name, report_type, identifier, brand, submitted_at, claimed, claimed_at, delivered
               FROM queue_requests
               WHERE claimed = FALSE AND delivered = FALSE AND submitted_at >= $1
               ORDER BY submitted_at ASC`
	rows, err := r.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("error querying pending requests: %w", err)
	}
	defer rows.Close()
	return scanRequests(rows)
}

// Claim flips claimed to true only when the row is still unclaimed. The
// single-statement update is the concurrency boundary: of two overlapping
// executions exactly one sees RowsAffected == 1.
func (r *PostgresRequestRepository) Claim(ctx context.Context, id int64) (bool, error) {
	query := `UPDATE queue_requests SET claimed = TRUE, claimed_at = $1
               WHERE id = $2 AND claimed = FALSE`
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

func (r *PostgresRequestRepository) MarkDelivered(ctx context.Context, id int64) error {
	query := `UPDATE queue_requests SET delivered = TRUE WHERE id = $1 AND claimed = TRUE`
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

func (r *PostgresRequestRepository) RequeueStale(ctx context.Context, before time.Time) (int64, error) {
	query := `UPDATE queue_requests SET claimed = FALSE, claimed_at = NULL
               WHERE claimed = TRUE AND delivered = FALSE AND claimed_at < $1`
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

func scanRequests(rows *sql.Rows) ([]*request.Request, error) {
	requests := make([]*request.Request, 0)
	for rows.Next() {
		req := request.Request{}
		var reportType int
		if err := rows.Scan(
			&req.ID, &req.RequesterID, &req.RequesterName, &reportType, &req.Meter,
			&req.Brand, &req.SubmittedAt, &req.Claimed, &req.ClaimedAt, &req.Delivered,
		); err != nil {
			return nil, fmt.Errorf("error scanning request row: %w", err)
		}
		req.ReportType = request.ReportType(reportType)
		requests = append(requests, &req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating request rows: %w", err)
	}
	return requests, nil
}
