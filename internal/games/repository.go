package games

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// GameRepository persists play-activity records against PostgreSQL.
type GameRepository struct {
	db *pgxpool.Pool
}

// NewGameRepository creates a new GameRepository.
func NewGameRepository(db *pgxpool.Pool) *GameRepository {
	return &GameRepository{db: db}
}

// InsertBatch inserts the given records in one round trip, silently
// skipping any row whose (user_id, app_id) pair already exists. The
// unique constraint does the deduplication; an already-seen title is
// not an error. Sets ID and CreatedAt on every element, including
// rows the conflict clause skips, so callers must not treat those as
// stored values.
func (r *GameRepository) InsertBatch(ctx context.Context, list []*Game) error {
	if len(list) == 0 {
		return nil
	}

	q := `
		INSERT INTO games (id, user_id, app_id, name, playtime_2weeks,
			playtime_forever, icon_url, logo_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id, app_id) DO NOTHING`

	now := time.Now().UTC()
	batch := &pgx.Batch{}
	for _, g := range list {
		g.ID = uuid.New()
		g.CreatedAt = now
		batch.Queue(q,
			g.ID, g.UserID, g.AppID, g.Name, g.Playtime2Weeks,
			g.PlaytimeForever, g.IconURL, g.LogoURL, g.CreatedAt,
		)
	}

	br := r.db.SendBatch(ctx, batch)
	defer br.Close() //nolint:errcheck

	for range list {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("insert game batch: %w", err)
		}
	}
	return nil
}

// ListByUser returns the persisted records for one account, oldest first.
func (r *GameRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]Game, error) {
	q := `
		SELECT id, user_id, app_id, name, playtime_2weeks, playtime_forever,
			icon_url, logo_url, created_at
		FROM games
		WHERE user_id = $1
		ORDER BY created_at, app_id`

	rows, err := r.db.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Game
	for rows.Next() {
		var g Game
		if err := rows.Scan(
			&g.ID, &g.UserID, &g.AppID, &g.Name, &g.Playtime2Weeks,
			&g.PlaytimeForever, &g.IconURL, &g.LogoURL, &g.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}
