package user

import (
	"database/sql"
	"time"
)

// Role is the authorization level of an allow-listed user.
type Role string

const (
	RoleSupervisor    Role = "SUPERVISOR"
	RolePlanificador  Role = "PLANIFICADOR"
	RoleAnalista      Role = "ANALISTA"
	RoleAdministrador Role = "ADMINISTRADOR"
)

// CanPlan reports whether the role may register meter plans.
func (r Role) CanPlan() bool {
	return r == RolePlanificador || r == RoleAdministrador
}

// RequiresPlan reports whether the role may only query meters that are under
// an active plan.
func (r Role) RequiresPlan() bool {
	return r == RoleSupervisor
}

// User is one allow-listed user. Rows are provisioned out of band with the
// full name filled in; registration binds the Telegram ID once.
type User struct {
	ID             int64
	TelegramID     sql.NullInt64
	FullName       string
	TelegramName   sql.NullString
	TelegramHandle sql.NullString
	Role           Role
	CreatedAt      time.Time
}

// DisplayName is the name reports address the user by: the provisioned full
// name when present, otherwise the Telegram first name.
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	if u.TelegramName.Valid {
		return u.TelegramName.String
	}
	return ""
}
