package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a user lookup finds no matching record.
var ErrNotFound = errors.New("user not found")

// ErrDuplicateEmail is returned when a registration attempts to reuse an email.
var ErrDuplicateEmail = errors.New("email already registered")

// ErrDuplicateSteamID is returned when a create would reuse a Steam identity.
var ErrDuplicateSteamID = errors.New("steam id already linked")

const userColumns = `id, username, email, birthday, password_hash, steam_id,
	profile_url, avatar_url, current_game, role_id, created_at, updated_at`

// UserRepository provides CRUD operations for users against PostgreSQL.
type UserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user record. Sets ID, CreatedAt, UpdatedAt on the user.
// Unique-constraint violations are mapped onto ErrDuplicateEmail and
// ErrDuplicateSteamID so callers can treat the constraint as the signal.
func (r *UserRepository) Create(ctx context.Context, u *User) error {
	u.ID = uuid.New()
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	q := `
		INSERT INTO users (id, username, email, birthday, password_hash, steam_id,
			profile_url, avatar_url, current_game, role_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.db.Exec(ctx, q,
		u.ID, u.Username, u.Email, u.Birthday, u.PasswordHash, u.SteamID,
		u.ProfileURL, u.AvatarURL, u.CurrentGame, u.RoleID, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			if pgErr.ConstraintName == "users_steam_id_key" {
				return ErrDuplicateSteamID
			}
			return ErrDuplicateEmail
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by their internal UUID.
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return r.scanOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// GetByEmail retrieves a user by their email address. Lookups are
// exact-match against the stored value; callers normalize case.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.scanOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

// GetBySteamID retrieves a user by their 64-bit Steam identity.
func (r *UserRepository) GetBySteamID(ctx context.Context, steamID string) (*User, error) {
	return r.scanOne(ctx, `SELECT `+userColumns+` FROM users WHERE steam_id = $1`, steamID)
}

// UpsertBySteamID creates the Steam-federated account on first login and
// refreshes the profile snapshot on every subsequent one, in a single
// statement so concurrent logins for the same Steam id cannot race.
// Username and password hash are written only on first insert; a player's
// persona rename does not overwrite the stored display name.
func (r *UserRepository) UpsertBySteamID(ctx context.Context, u *User) (*User, error) {
	if u.SteamID == nil || *u.SteamID == "" {
		return nil, fmt.Errorf("upsert user: steam id is required")
	}
	now := time.Now().UTC()

	q := `
		INSERT INTO users (id, username, email, birthday, password_hash, steam_id,
			profile_url, avatar_url, current_game, role_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (steam_id) WHERE steam_id IS NOT NULL DO UPDATE SET
			profile_url  = EXCLUDED.profile_url,
			avatar_url   = EXCLUDED.avatar_url,
			current_game = EXCLUDED.current_game,
			updated_at   = EXCLUDED.updated_at
		RETURNING ` + userColumns
	return r.scanOne(ctx, q,
		uuid.New(), u.Username, u.Email, u.Birthday, u.PasswordHash, u.SteamID,
		u.ProfileURL, u.AvatarURL, u.CurrentGame, u.RoleID, now, now,
	)
}

// scanOne executes a single-row query and scans the result into a User.
func (r *UserRepository) scanOne(ctx context.Context, q string, args ...any) (*User, error) {
	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, ErrNotFound
	}

	var u User
	if err := rows.Scan(
		&u.ID, &u.Username, &u.Email, &u.Birthday, &u.PasswordHash, &u.SteamID,
		&u.ProfileURL, &u.AvatarURL, &u.CurrentGame, &u.RoleID,
		&u.CreatedAt, &u.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, rows.Err()
}
