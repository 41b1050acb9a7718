// Package steam drives the two outbound surfaces of the Steam platform:
// the OpenID 2.0 login endpoint and the Steam Web API.
package steam

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// ErrProviderUnavailable is returned when Steam cannot be reached or
// answers with a server error. Callers report it as retriable; nothing
// in this package retries on its own.
var ErrProviderUnavailable = errors.New("steam unavailable")

const defaultAPIBaseURL = "https://api.steampowered.com"

// PlayerSummary is the profile subset of ISteamUser/GetPlayerSummaries
// that PlayVault consumes.
type PlayerSummary struct {
	SteamID       string `json:"steamid"`
	PersonaName   string `json:"personaname"`
	ProfileURL    string `json:"profileurl"`
	AvatarFull    string `json:"avatarfull"`
	GameExtraInfo string `json:"gameextrainfo"`
}

// RecentlyPlayedGame is one entry of IPlayerService/GetRecentlyPlayedGames.
// Playtime2Weeks is omitted by Steam when the title was not played in the
// current reporting window.
type RecentlyPlayedGame struct {
	AppID           int64  `json:"appid"`
	Name            string `json:"name"`
	Playtime2Weeks  *int64 `json:"playtime_2weeks,omitempty"`
	PlaytimeForever int64  `json:"playtime_forever"`
	ImgIconURL      string `json:"img_icon_url"`
	ImgLogoURL      string `json:"img_logo_url"`
}

// RecentlyPlayed is the payload of a recently-played query.
type RecentlyPlayed struct {
	TotalCount int                  `json:"total_count"`
	Games      []RecentlyPlayedGame `json:"games"`
}

// Client is a lightweight HTTP client for the Steam Web API.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a Client using the given Web API key.
func NewClient(apiKey string, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: defaultAPIBaseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// SetBaseURL overrides the Web API base URL. Used by tests to point the
// client at a stub server.
func (c *Client) SetBaseURL(u string) {
	c.baseURL = u
}

// PlayerSummary fetches the public profile for one Steam id.
func (c *Client) PlayerSummary(ctx context.Context, steamID string) (*PlayerSummary, error) {
	q := url.Values{}
	q.Set("key", c.apiKey)
	q.Set("steamids", steamID)

	var out struct {
		Response struct {
			Players []PlayerSummary `json:"players"`
		} `json:"response"`
	}
	if err := c.apiGet(ctx, "/ISteamUser/GetPlayerSummaries/v0002/", q, &out); err != nil {
		return nil, err
	}
	if len(out.Response.Players) == 0 {
		return nil, fmt.Errorf("player summary for %s: empty response", steamID)
	}
	return &out.Response.Players[0], nil
}

// RecentlyPlayed fetches the recently-played list for one Steam id.
func (c *Client) RecentlyPlayed(ctx context.Context, steamID string) (*RecentlyPlayed, error) {
	q := url.Values{}
	q.Set("key", c.apiKey)
	q.Set("steamid", steamID)
	q.Set("format", "json")

	var out struct {
		Response RecentlyPlayed `json:"response"`
	}
	if err := c.apiGet(ctx, "/IPlayerService/GetRecentlyPlayedGames/v0001/", q, &out); err != nil {
		return nil, err
	}
	return &out.Response, nil
}

// Ping probes Web API reachability via the unauthenticated server-info
// endpoint. Used by the provider watchdog only.
func (c *Client) Ping(ctx context.Context) error {
	var out json.RawMessage
	return c.apiGet(ctx, "/ISteamWebAPIUtil/GetServerInfo/v1/", nil, &out)
}

// apiGet issues a GET against the Web API and decodes the JSON response.
// Transport failures and 5xx answers are reported as ErrProviderUnavailable;
// the raw provider payload never travels past this point.
func (c *Client) apiGet(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrProviderUnavailable, path, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response %s: %w", path, err)
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%w: %s returned status %d", ErrProviderUnavailable, path, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("steam api %s returned status %d", path, resp.StatusCode)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response %s: %w", path, err)
	}
	return nil
}
