// Package client provides the PlayVault Go SDK for the HTTP API:
// account registration, login, and the recently-played-games surface.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

// ErrNotFound is returned for 404 responses.
var ErrNotFound = errors.New("not found")

// ErrUnauthorized is returned for 401 responses.
var ErrUnauthorized = errors.New("unauthorized")

// User is the account record returned by the API.
type User struct {
	ID          string     `json:"id"`
	Username    string     `json:"username"`
	Email       *string    `json:"email"`
	Birthday    *time.Time `json:"birthday,omitempty"`
	SteamID     *string    `json:"steam_id,omitempty"`
	ProfileURL  *string    `json:"profile_url,omitempty"`
	AvatarURL   *string    `json:"avatar_url,omitempty"`
	CurrentGame *string    `json:"current_game,omitempty"`
	Token       string     `json:"token,omitempty"`
}

// Game is one stored play-activity record.
type Game struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	AppID           int64     `json:"appid"`
	Name            string    `json:"name"`
	Playtime2Weeks  *int64    `json:"playtime_2weeks"`
	PlaytimeForever int64     `json:"playtime_forever"`
	IconURL         string    `json:"img_icon_url"`
	LogoURL         string    `json:"img_logo_url"`
	CreatedAt       time.Time `json:"created_at"`
}

// RegisterRequest is the payload for Register.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Birthday string `json:"birthday"`
	Password string `json:"password"`
}

// Client is the PlayVault SDK entry point.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu          sync.Mutex
	bearerToken string
}

// Option is a functional option for configuring a Client.
type Option func(*Client)

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithBearerToken attaches a pre-obtained session token to every request.
func WithBearerToken(token string) Option {
	return func(c *Client) { c.bearerToken = token }
}

// New creates a Client talking to baseURL, e.g. "http://localhost:8080".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Token returns the session token currently attached to requests.
func (c *Client) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bearerToken
}

// SetToken replaces the session token attached to requests.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.bearerToken = token
	c.mu.Unlock()
}

// Register creates a local account and keeps the returned session token
// for subsequent calls.
func (c *Client) Register(ctx context.Context, reg RegisterRequest) (*User, error) {
	u, err := c.postUser(ctx, "/api/auth/register", reg)
	if err != nil {
		return nil, err
	}
	c.SetToken(u.Token)
	return u, nil
}

// Login authenticates a local account and keeps the returned session
// token for subsequent calls.
func (c *Client) Login(ctx context.Context, email, password string) (*User, error) {
	u, err := c.postUser(ctx, "/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, err
	}
	c.SetToken(u.Token)
	return u, nil
}

// Logout tears down the server-side session and drops the local token.
func (c *Client) Logout(ctx context.Context) error {
	req, err := c.newRequest(ctx, http.MethodPost, "/api/auth/logout", nil)
	if err != nil {
		return err
	}
	if _, err := c.do(req); err != nil {
		return err
	}
	c.SetToken("")
	return nil
}

// Me fetches the account behind the current session token.
func (c *Client) Me(ctx context.Context) (*User, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/users/me", nil)
	if err != nil {
		return nil, err
	}
	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var u User
	if err := json.Unmarshal(body, &u); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	return &u, nil
}

// RefreshGames asks the server to pull the caller's recent games from
// Steam and returns the stored result.
func (c *Client) RefreshGames(ctx context.Context) ([]Game, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/api/games/refresh", nil)
	if err != nil {
		return nil, err
	}
	return c.gameList(req)
}

// Games returns the caller's stored games.
func (c *Client) Games(ctx context.Context) ([]Game, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/games", nil)
	if err != nil {
		return nil, err
	}
	return c.gameList(req)
}

// GamesForUser returns the stored games for any account id.
func (c *Client) GamesForUser(ctx context.Context, userID string) ([]Game, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/users/"+userID+"/games", nil)
	if err != nil {
		return nil, err
	}
	return c.gameList(req)
}

func (c *Client) postUser(ctx context.Context, path string, payload any) (*User, error) {
	req, err := c.newRequest(ctx, http.MethodPost, path, payload)
	if err != nil {
		return nil, err
	}
	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var u User
	if err := json.Unmarshal(body, &u); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	return &u, nil
}

func (c *Client) gameList(req *http.Request) ([]Game, error) {
	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var wrapper struct {
		Games []Game `json:"games"`
	}
	if err := json.Unmarshal(body, &wrapper); err != nil {
		return nil, fmt.Errorf("decode games: %w", err)
	}
	return wrapper.Games, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, payload any) (*http.Request, error) {
	var bodyReader io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// do executes an HTTP request, attaching the session token if present.
func (c *Client) do(req *http.Request) ([]byte, error) {
	if tok := c.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, string(body))
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, fmt.Errorf("%w: %s", ErrUnauthorized, string(body))
	case resp.StatusCode >= 300:
		return nil, fmt.Errorf("server error %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}
