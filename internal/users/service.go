package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// ErrValidation is returned when required input is missing or malformed.
var ErrValidation = errors.New("validation failed")

// ErrInvalidCredentials is returned on a password mismatch. It is
// deliberately generic so callers cannot tell which of email/password
// was wrong.
var ErrInvalidCredentials = errors.New("invalid credentials")

// userRepo is the storage interface consumed by Service.
type userRepo interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetBySteamID(ctx context.Context, steamID string) (*User, error)
	UpsertBySteamID(ctx context.Context, u *User) (*User, error)
}

// RegisterInput carries the fields required to create a local account.
type RegisterInput struct {
	Username string
	Email    string
	Birthday time.Time
	Password string
}

// SteamLogin carries the identity claims extracted from a verified
// Steam OpenID handshake.
type SteamLogin struct {
	SteamID     string
	PersonaName string
	ProfileURL  string
	AvatarURL   string
	CurrentGame string
}

// Service implements account management for both credential paths:
// local email/password accounts and Steam-federated identities.
type Service struct {
	repo   userRepo
	logger *zap.Logger
}

// NewService creates a Service.
func NewService(repo userRepo, logger *zap.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Register creates a local password account. Every field is required.
// A reused email surfaces as ErrDuplicateEmail; the unique constraint in
// storage is the authority, there is no separate existence pre-check.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	if in.Username == "" || in.Email == "" || in.Password == "" || in.Birthday.IsZero() {
		return nil, fmt.Errorf("%w: username, email, birthday and password are required", ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	email := normalizeEmail(in.Email)
	birthday := in.Birthday

	u := &User{
		Username:     in.Username,
		Email:        &email,
		Birthday:     &birthday,
		PasswordHash: string(hash),
	}
	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("user registered", zap.String("user_id", u.ID.String()))
	return u, nil
}

// Login verifies email/password credentials and returns the account on
// success. No mutation occurs on either outcome.
func (s *Service) Login(ctx context.Context, email, password string) (*User, error) {
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", ErrValidation)
	}

	u, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return u, nil
}

// ResolveSteam maps a verified Steam identity onto exactly one account:
// the first login creates it, every later one refreshes the profile
// snapshot. The whole create-or-update runs as a single storage upsert,
// so concurrent logins for the same Steam id cannot produce duplicates.
// The stored username is never refreshed from the persona name.
func (s *Service) ResolveSteam(ctx context.Context, login SteamLogin) (*User, error) {
	if login.SteamID == "" || login.PersonaName == "" {
		return nil, fmt.Errorf("%w: steam id and persona name are required", ErrValidation)
	}

	// Placeholder credential: federated accounts are never authenticated
	// through the password path.
	hash, err := bcrypt.GenerateFromPassword([]byte(login.SteamID), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash placeholder credential: %w", err)
	}

	steamID := login.SteamID
	profileURL := login.ProfileURL
	avatarURL := login.AvatarURL
	currentGame := login.CurrentGame

	u, err := s.repo.UpsertBySteamID(ctx, &User{
		Username:     login.PersonaName,
		PasswordHash: string(hash),
		SteamID:      &steamID,
		ProfileURL:   &profileURL,
		AvatarURL:    &avatarURL,
		CurrentGame:  &currentGame,
	})
	if err != nil {
		return nil, fmt.Errorf("upsert steam user: %w", err)
	}

	s.logger.Info("steam identity resolved",
		zap.String("user_id", u.ID.String()),
		zap.String("steam_id", steamID),
	)
	return u, nil
}

// GetByID retrieves a user by ID.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// GetBySteamID retrieves a user by their Steam identity.
func (s *Service) GetBySteamID(ctx context.Context, steamID string) (*User, error) {
	return s.repo.GetBySteamID(ctx, steamID)
}

// normalizeEmail lowercases the address so uniqueness holds across
// mixed-case input.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
