package games

import (
	"time"

	"github.com/google/uuid"
)

// Game is one persisted play-activity record: a tracked title reported
// by Steam for a federated account. The (UserID, AppID) pair is unique;
// rows are inserted once and never mutated.
type Game struct {
	ID              uuid.UUID `json:"id"               db:"id"`
	UserID          uuid.UUID `json:"user_id"          db:"user_id"`
	AppID           int64     `json:"appid"            db:"app_id"`
	Name            string    `json:"name"             db:"name"`
	Playtime2Weeks  *int64    `json:"playtime_2weeks"  db:"playtime_2weeks"`
	PlaytimeForever int64     `json:"playtime_forever" db:"playtime_forever"`
	IconURL         string    `json:"img_icon_url"     db:"icon_url"`
	LogoURL         string    `json:"img_logo_url"     db:"logo_url"`
	CreatedAt       time.Time `json:"created_at"       db:"created_at"`
}
