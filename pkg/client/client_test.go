package client_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/playvault/playvault/pkg/client"
)

func TestLogin_storesToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/auth/login" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["email"] != "alice@example.com" {
			t.Errorf("email mismatch: %s", body["email"])
		}
		w.Write([]byte(`{"id":"u1","username":"alice","token":"tok-123"}`))
	}))
	defer srv.Close()

	c := client.New(srv.URL)
	u, err := c.Login(context.Background(), "alice@example.com", "password123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if u.Username != "alice" {
		t.Errorf("username mismatch: %s", u.Username)
	}
	if c.Token() != "tok-123" {
		t.Errorf("token not stored: %q", c.Token())
	}
}

func TestMe_sendsBearerToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok-123" {
			t.Errorf("authorization mismatch: %q", got)
		}
		w.Write([]byte(`{"id":"u1","username":"alice"}`))
	}))
	defer srv.Close()

	c := client.New(srv.URL, client.WithBearerToken("tok-123"))
	u, err := c.Me(context.Background())
	if err != nil {
		t.Fatalf("Me: %v", err)
	}
	if u.ID != "u1" {
		t.Errorf("id mismatch: %s", u.ID)
	}
}

func TestMe_unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"not authenticated"}`))
	}))
	defer srv.Close()

	c := client.New(srv.URL)
	_, err := c.Me(context.Background())
	if !errors.Is(err, client.ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
}

func TestRefreshGames_decodesList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/games/refresh" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		w.Write([]byte(`{"games":[
			{"appid":730,"name":"Counter-Strike 2","playtime_forever":3000},
			{"appid":570,"name":"Dota 2","playtime_forever":900}
		],"count":2}`))
	}))
	defer srv.Close()

	c := client.New(srv.URL, client.WithBearerToken("tok"))
	list, err := c.RefreshGames(context.Background())
	if err != nil {
		t.Fatalf("RefreshGames: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 games, got %d", len(list))
	}
	if list[0].AppID != 730 {
		t.Errorf("appid mismatch: %d", list[0].AppID)
	}
}

func TestGamesForUser_notFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"user not found"}`))
	}))
	defer srv.Close()

	c := client.New(srv.URL)
	_, err := c.GamesForUser(context.Background(), "u-missing")
	if !errors.Is(err, client.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestLogout_clearsToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := client.New(srv.URL, client.WithBearerToken("tok"))
	if err := c.Logout(context.Background()); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if c.Token() != "" {
		t.Errorf("token should be cleared, got %q", c.Token())
	}
}
