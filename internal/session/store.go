// Package session holds the server-side session state that lets a later
// request resolve "who is calling" without re-presenting a token. The
// store is an explicit dependency of the HTTP layer, keyed by a session
// id carried in a cookie, and deliberately knows nothing about how the
// session was authenticated.
package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CookieName is the session cookie issued to browsers.
const CookieName = "playvault_session"

// Session maps an opaque session id onto an account id.
type Session struct {
	ID        string    `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Store defines how sessions are kept and retrieved. Get returns
// (nil, nil) for an unknown or expired id; absence is not an error
// at this layer.
type Store interface {
	Set(ctx context.Context, s Session) error
	Get(ctx context.Context, id string) (*Session, error)
	Destroy(ctx context.Context, id string) error
}

// GenerateID returns a cryptographically random session id
// (256 bits, URL-safe base64).
func GenerateID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate session id: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
