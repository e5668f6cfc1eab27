package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/EdwarHercules/bots-telegram/internal/domain/user"
)

// Custom errors
var ErrUserNotFound = fmt.Errorf("user not found")

type PostgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUserRepository(db *sql.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

func (r *PostgresUserRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*user.User, error) {
	query := `SELECT id, telegram_id, full_name, telegram_name, telegram_handle, role, created_at
               FROM bot_users WHERE telegram_id = $1`
	u := &user.User{}
	err := r.db.QueryRowContext(ctx, query, telegramID).Scan(
		&u.ID, &u.TelegramID, &u.FullName, &u.TelegramName, &u.TelegramHandle, &u.Role, &u.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("error getting user by Telegram ID: %w", err)
	}
	return u, nil
}

// BindTelegram attaches the Telegram identity to a pre-provisioned
// allow-list row. Matching mirrors the provisioning sheet: full name,
// Telegram first name or Telegram username, whichever the admin captured.
func (r *PostgresUserRepository) BindTelegram(ctx context.Context, telegramID int64, fullName, telegramName, telegramHandle string) (int64, error) {
	query := `UPDATE bot_users
               SET telegram_id = $1, role = $2
               WHERE telegram_id IS NULL
                 AND (full_name = $3 OR telegram_name = $4 OR telegram_handle = $5)`
	res, err := r.db.ExecContext(ctx, query, telegramID, user.RoleSupervisor, fullName, telegramName, telegramHandle)
	if err != nil {
		return 0, fmt.Errorf("error binding telegram identity: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("error reading bind result: %w", err)
	}
	return n, nil
}
