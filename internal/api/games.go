package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/playvault/playvault/internal/games"
	"github.com/playvault/playvault/internal/identity"
	"github.com/playvault/playvault/internal/steam"
	"github.com/playvault/playvault/internal/users"
	"go.uber.org/zap"
)

// gameIngester is the interface expected by GamesHandler, satisfied by
// *games.Ingester.
type gameIngester interface {
	Refresh(ctx context.Context, steamID string) ([]games.Game, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]games.Game, error)
}

// accountLookup resolves the Steam identity of the calling account.
type accountLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*users.User, error)
}

// GamesHandler serves the recently-played-games surface.
type GamesHandler struct {
	ingester gameIngester
	accounts accountLookup
	logger   *zap.Logger
}

// NewGamesHandler creates a GamesHandler.
func NewGamesHandler(ingester gameIngester, accounts accountLookup, logger *zap.Logger) *GamesHandler {
	return &GamesHandler{ingester: ingester, accounts: accounts, logger: logger}
}

// Register mounts the games routes on a group that already enforces a
// session.
func (h *GamesHandler) Register(rg *gin.RouterGroup) {
	rg.POST("/games/refresh", h.Refresh)
	rg.GET("/games", h.ListMine)
	rg.GET("/users/:id/games", h.ListForUser)
}

// Refresh handles POST /games/refresh. It pulls the caller's recent
// games from Steam, persists the allowed ones, and returns them.
func (h *GamesHandler) Refresh(c *gin.Context) {
	uid, ok := identity.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	u, err := h.accounts.GetByID(c.Request.Context(), uid)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		h.logger.Error("load account", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	if !u.IsFederated() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "account has no linked steam identity"})
		return
	}

	list, err := h.ingester.Refresh(c.Request.Context(), *u.SteamID)
	if err != nil {
		switch {
		case errors.Is(err, games.ErrNoGames):
			c.JSON(http.StatusNotFound, gin.H{"error": "no recently played games found"})
		case errors.Is(err, games.ErrNoAllowedGames):
			c.JSON(http.StatusNotFound, gin.H{"error": "no supported games in recent activity"})
		case errors.Is(err, users.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		case errors.Is(err, steam.ErrProviderUnavailable):
			h.logger.Error("refresh games", zap.Error(err))
			c.JSON(http.StatusBadGateway, gin.H{"error": "steam is unavailable, try again later"})
		default:
			h.logger.Error("refresh games", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "refresh failed"})
		}
		return
	}

	RecordIngest(len(list))
	c.JSON(http.StatusOK, gin.H{"games": list, "count": len(list)})
}

// ListMine handles GET /games, returning the caller's stored games.
func (h *GamesHandler) ListMine(c *gin.Context) {
	uid, ok := identity.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}
	h.list(c, uid)
}

// ListForUser handles GET /users/:id/games for any account id.
func (h *GamesHandler) ListForUser(c *gin.Context) {
	uid, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	h.list(c, uid)
}

func (h *GamesHandler) list(c *gin.Context, uid uuid.UUID) {
	list, err := h.ingester.ListForUser(c.Request.Context(), uid)
	if err != nil {
		h.logger.Error("list games", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"games": list, "count": len(list)})
}
