package games

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/playvault/playvault/internal/steam"
	"github.com/playvault/playvault/internal/users"
	"go.uber.org/zap"
)

// ErrNoGames is returned when Steam reports no recently-played titles
// at all for the requested identity.
var ErrNoGames = errors.New("no recently played games")

// ErrNoAllowedGames is returned when titles were reported but none of
// them is in the tracked catalog. Distinct from ErrNoGames so callers
// can tell an idle player from an untracked one.
var ErrNoAllowedGames = errors.New("no tracked games in recently played list")

// DefaultAllowedApps is the catalog tracked out of the box:
// CS2, Dota 2, Team Fortress 2.
var DefaultAllowedApps = []int64{730, 570, 440}

// recentFetcher is the slice of the Steam client the ingester consumes.
type recentFetcher interface {
	RecentlyPlayed(ctx context.Context, steamID string) (*steam.RecentlyPlayed, error)
}

// ownerResolver resolves the account a Steam identity belongs to.
type ownerResolver interface {
	GetBySteamID(ctx context.Context, steamID string) (*users.User, error)
}

// gameStore is the storage interface consumed by Ingester.
type gameStore interface {
	InsertBatch(ctx context.Context, list []*Game) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Game, error)
}

// Ingester pulls recently-played data from Steam for an established
// identity, filters it to the tracked catalog, and persists it.
type Ingester struct {
	steam   recentFetcher
	owners  ownerResolver
	repo    gameStore
	allowed map[int64]struct{}
	logger  *zap.Logger
}

// NewIngester creates an Ingester. An empty allowlist falls back to
// DefaultAllowedApps.
func NewIngester(fetcher recentFetcher, owners ownerResolver, repo gameStore, allowed []int64, logger *zap.Logger) *Ingester {
	if len(allowed) == 0 {
		allowed = DefaultAllowedApps
	}
	set := make(map[int64]struct{}, len(allowed))
	for _, id := range allowed {
		set[id] = struct{}{}
	}
	return &Ingester{
		steam:   fetcher,
		owners:  owners,
		repo:    repo,
		allowed: set,
		logger:  logger,
	}
}

// Refresh fetches the recently-played list for steamID, keeps the
// tracked titles in provider order, persists them for the owning
// account, and returns the filtered list. Persistence silently skips
// rows already present, so the returned list reflects what Steam
// reported even when storage inserted nothing new. The returned list
// carries no storage ids; persisted rows are read back through
// ListForUser. The identity must have been established through a
// Steam login first.
func (i *Ingester) Refresh(ctx context.Context, steamID string) ([]Game, error) {
	recent, err := i.steam.RecentlyPlayed(ctx, steamID)
	if err != nil {
		return nil, err
	}
	if recent.TotalCount == 0 || len(recent.Games) == 0 {
		return nil, ErrNoGames
	}

	owner, err := i.owners.GetBySteamID(ctx, steamID)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return nil, users.ErrNotFound
		}
		return nil, fmt.Errorf("resolve owner: %w", err)
	}

	var filtered []Game
	for _, g := range recent.Games {
		if _, ok := i.allowed[g.AppID]; !ok {
			continue
		}
		filtered = append(filtered, Game{
			UserID:          owner.ID,
			AppID:           g.AppID,
			Name:            g.Name,
			Playtime2Weeks:  g.Playtime2Weeks,
			PlaytimeForever: g.PlaytimeForever,
			IconURL:         g.ImgIconURL,
			LogoURL:         g.ImgLogoURL,
		})
	}
	if len(filtered) == 0 {
		return nil, ErrNoAllowedGames
	}

	// Insert copies so the id stamping stays off the provider view:
	// a conflict-skipped row would otherwise carry an id that exists
	// nowhere in storage.
	batch := make([]*Game, len(filtered))
	for idx := range filtered {
		row := filtered[idx]
		batch[idx] = &row
	}
	if err := i.repo.InsertBatch(ctx, batch); err != nil {
		return nil, fmt.Errorf("persist games: %w", err)
	}

	i.logger.Info("games refreshed",
		zap.String("steam_id", steamID),
		zap.String("user_id", owner.ID.String()),
		zap.Int("reported", len(recent.Games)),
		zap.Int("tracked", len(filtered)),
	)
	return filtered, nil
}

// ListForUser returns the persisted records for one account.
func (i *Ingester) ListForUser(ctx context.Context, userID uuid.UUID) ([]Game, error) {
	return i.repo.ListByUser(ctx, userID)
}
