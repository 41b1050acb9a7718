package users

import (
	"time"

	"github.com/google/uuid"
)

// User is a PlayVault account holder. An account is either local
// (Email set, SteamID nil) or Steam-federated (SteamID set); the
// profile snapshot fields belong to federated accounts and are
// overwritten wholesale on every successful Steam login.
type User struct {
	ID           uuid.UUID  `json:"id"           db:"id"`
	Username     string     `json:"username"     db:"username"`
	Email        *string    `json:"email"        db:"email"`
	Birthday     *time.Time `json:"birthday"     db:"birthday"`
	PasswordHash string     `json:"-"            db:"password_hash"`
	SteamID      *string    `json:"steam_id"     db:"steam_id"`
	ProfileURL   *string    `json:"profile_url"  db:"profile_url"`
	AvatarURL    *string    `json:"avatar_url"   db:"avatar_url"`
	CurrentGame  *string    `json:"current_game" db:"current_game"`
	RoleID       *int64     `json:"role_id"      db:"role_id"`
	CreatedAt    time.Time  `json:"created_at"   db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"   db:"updated_at"`
}

// IsFederated reports whether the account is anchored to a Steam identity.
func (u *User) IsFederated() bool {
	return u.SteamID != nil && *u.SteamID != ""
}
