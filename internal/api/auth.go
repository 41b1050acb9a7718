// Package api contains the Gin handlers and HTTP middleware for the
// PlayVault service.
package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/playvault/playvault/internal/identity"
	"github.com/playvault/playvault/internal/session"
	"github.com/playvault/playvault/internal/steam"
	"github.com/playvault/playvault/internal/users"
	"go.uber.org/zap"
)

// userSvc is the interface expected by AuthHandler, satisfied by *users.Service.
type userSvc interface {
	Register(ctx context.Context, in users.RegisterInput) (*users.User, error)
	Login(ctx context.Context, email, password string) (*users.User, error)
	ResolveSteam(ctx context.Context, login users.SteamLogin) (*users.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*users.User, error)
}

// steamAuth is the handshake surface expected by AuthHandler,
// satisfied by *steam.Authenticator.
type steamAuth interface {
	RedirectURL() string
	Authenticate(ctx context.Context, params url.Values) (*steam.Identity, error)
}

// AuthHandler handles account registration, both login paths, and
// session teardown.
type AuthHandler struct {
	users         userSvc
	steam         steamAuth
	tokens        *identity.TokenIssuer
	sessions      session.Store
	frontendURL   string
	secureCookies bool
	logger        *zap.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(
	userSvc userSvc,
	steamAuth steamAuth,
	tokens *identity.TokenIssuer,
	sessions session.Store,
	logger *zap.Logger,
) *AuthHandler {
	return &AuthHandler{
		users:         userSvc,
		steam:         steamAuth,
		tokens:        tokens,
		sessions:      sessions,
		frontendURL:   "http://localhost:3000",
		secureCookies: true,
		logger:        logger,
	}
}

// SetFrontendURL sets the base URL the Steam callback points clients at.
func (h *AuthHandler) SetFrontendURL(url string) {
	h.frontendURL = url
}

// SetSecureCookies toggles the Secure flag on session cookies.
// Disable only for plain-HTTP development setups.
func (h *AuthHandler) SetSecureCookies(secure bool) {
	h.secureCookies = secure
}

// Register mounts the auth routes on the provided router group.
func (h *AuthHandler) Register(rg *gin.RouterGroup) {
	auth := rg.Group("/auth")
	{
		auth.POST("/register", h.RegisterUser)
		auth.POST("/login", h.Login)
		auth.POST("/logout", h.Logout)
		auth.GET("/steam", h.SteamRedirect)
		auth.GET("/steam/callback", h.SteamCallback)
	}
}

// RegisterProtected mounts the routes that need an authenticated caller.
func (h *AuthHandler) RegisterProtected(rg *gin.RouterGroup) {
	rg.GET("/users/me", h.Me)
}

type registerRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email"    binding:"required,email"`
	Birthday string `json:"birthday" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email"    binding:"required"`
	Password string `json:"password" binding:"required"`
}

// userResponse is the success shape shared by both credential paths.
type userResponse struct {
	ID       uuid.UUID  `json:"id"`
	Username string     `json:"username"`
	Email    *string    `json:"email"`
	Birthday *time.Time `json:"birthday,omitempty"`
	Token    string     `json:"token"`
}

// RegisterUser handles POST /auth/register, creating a local account.
func (h *AuthHandler) RegisterUser(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username, email, birthday and password are required"})
		return
	}

	birthday, err := time.Parse("2006-01-02", req.Birthday)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "birthday must be YYYY-MM-DD"})
		return
	}

	u, err := h.users.Register(c.Request.Context(), users.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Birthday: birthday,
		Password: req.Password,
	})
	if err != nil {
		if errors.Is(err, users.ErrDuplicateEmail) {
			RecordRegistration(false)
			c.JSON(http.StatusConflict, gin.H{"error": "account already exists"})
			return
		}
		if errors.Is(err, users.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("register", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		return
	}

	tok, err := h.establishSession(c, u)
	if err != nil {
		return
	}

	RecordRegistration(true)
	c.JSON(http.StatusCreated, userResponse{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Birthday: u.Birthday,
		Token:    tok,
	})
}

// Login handles POST /auth/login for local accounts.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	u, err := h.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		RecordLogin("password", false)
		switch {
		case errors.Is(err, users.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, users.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		case errors.Is(err, users.ErrInvalidCredentials):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		default:
			h.logger.Error("login", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		}
		return
	}

	tok, err := h.establishSession(c, u)
	if err != nil {
		return
	}

	RecordLogin("password", true)
	c.JSON(http.StatusOK, userResponse{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Birthday: u.Birthday,
		Token:    tok,
	})
}

// SteamRedirect handles GET /auth/steam, sending the browser to the
// Steam OpenID endpoint.
func (h *AuthHandler) SteamRedirect(c *gin.Context) {
	c.Redirect(http.StatusFound, h.steam.RedirectURL())
}

// SteamCallback handles GET /auth/steam/callback. It verifies the
// provider response and resolves the Steam identity onto an account.
func (h *AuthHandler) SteamCallback(c *gin.Context) {
	id, err := h.steam.Authenticate(c.Request.Context(), c.Request.URL.Query())
	if err != nil {
		RecordLogin("steam", false)
		switch {
		case errors.Is(err, steam.ErrProviderUnavailable):
			h.logger.Error("steam handshake", zap.Error(err))
			c.JSON(http.StatusBadGateway, gin.H{"error": "steam is unavailable, try again later"})
		case errors.Is(err, steam.ErrInvalidAssertion):
			h.logger.Warn("steam handshake rejected", zap.Error(err))
			c.JSON(http.StatusBadRequest, gin.H{"error": "steam authentication failed"})
		default:
			h.logger.Error("steam handshake", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "steam authentication failed"})
		}
		return
	}

	u, err := h.users.ResolveSteam(c.Request.Context(), users.SteamLogin{
		SteamID:     id.SteamID,
		PersonaName: id.PersonaName,
		ProfileURL:  id.ProfileURL,
		AvatarURL:   id.AvatarURL,
		CurrentGame: id.CurrentGame,
	})
	if err != nil {
		RecordLogin("steam", false)
		h.logger.Error("resolve steam identity", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "steam authentication failed"})
		return
	}

	tok, err := h.establishSession(c, u)
	if err != nil {
		return
	}

	RecordLogin("steam", true)
	c.JSON(http.StatusOK, gin.H{
		"message": "authentication successful",
		"user": gin.H{
			"id":           u.ID,
			"username":     u.Username,
			"steam_id":     u.SteamID,
			"profile_url":  u.ProfileURL,
			"avatar_url":   u.AvatarURL,
			"current_game": u.CurrentGame,
			"token":        tok,
			"redirect_url": h.frontendURL + "/dashboard",
		},
	})
}

// Logout handles POST /auth/logout. It destroys the server-side session
// and clears the cookie. Idempotent: a missing session is not an error.
func (h *AuthHandler) Logout(c *gin.Context) {
	if cookie, err := c.Request.Cookie(session.CookieName); err == nil && cookie.Value != "" {
		if err := h.sessions.Destroy(c.Request.Context(), cookie.Value); err != nil {
			h.logger.Warn("destroy session", zap.Error(err))
		}
	}
	session.ClearCookie(c.Writer, h.secureCookies)
	c.Status(http.StatusNoContent)
}

// Me handles GET /users/me, returning the account behind the current
// session marker.
func (h *AuthHandler) Me(c *gin.Context) {
	uid, ok := identity.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	u, err := h.users.GetByID(c.Request.Context(), uid)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		h.logger.Error("load current user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}

	c.JSON(http.StatusOK, u)
}

// establishSession mints the bearer token and the server-side session
// for an authenticated account, and sets the session cookie. On failure
// it has already written the error response.
func (h *AuthHandler) establishSession(c *gin.Context, u *users.User) (string, error) {
	tok, err := h.tokens.Issue(u.ID, u.Username)
	if err != nil {
		h.logger.Error("issue session token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return "", err
	}

	sid, err := session.GenerateID()
	if err != nil {
		h.logger.Error("generate session id", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "session error"})
		return "", err
	}

	expiresAt := time.Now().Add(h.tokens.TTL())
	if err := h.sessions.Set(c.Request.Context(), session.Session{
		ID:        sid,
		UserID:    u.ID,
		ExpiresAt: expiresAt,
	}); err != nil {
		h.logger.Error("persist session", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "session error"})
		return "", err
	}

	session.SetCookie(c.Writer, sid, expiresAt, h.secureCookies)
	return tok, nil
}
