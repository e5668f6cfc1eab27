package user

import "context"

// Repository defines lookups over the allow-list. Provisioning of new rows
// happens out of band; the only mutation the bot performs is binding a
// Telegram identity to a pre-provisioned row at registration time.
type Repository interface {
	GetByTelegramID(ctx context.Context, telegramID int64) (*User, error)

	// BindTelegram attaches the Telegram identity to the allow-list row
	// whose full name, Telegram first name or Telegram username matches,
	// and assigns the default SUPERVISOR role. Returns the number of rows
	// bound (zero when no allow-list row matched).
	BindTelegram(ctx context.Context, telegramID int64, fullName, telegramName, telegramHandle string) (int64, error)
}
