package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/playvault/playvault/internal/api"
	"github.com/playvault/playvault/internal/games"
	"github.com/playvault/playvault/internal/identity"
	"github.com/playvault/playvault/internal/session"
	"github.com/playvault/playvault/internal/steam"
	"github.com/playvault/playvault/internal/users"
	"go.uber.org/zap"
)

// ── Stub ingester ─────────────────────────────────────────────────────────

type stubIngester struct {
	refreshList []games.Game
	refreshErr  error
	listResult  []games.Game
	listErr     error
}

func (s *stubIngester) Refresh(_ context.Context, _ string) ([]games.Game, error) {
	return s.refreshList, s.refreshErr
}

func (s *stubIngester) ListForUser(_ context.Context, _ uuid.UUID) ([]games.Game, error) {
	return s.listResult, s.listErr
}

type stubAccounts struct {
	user *users.User
	err  error
}

func (s *stubAccounts) GetByID(_ context.Context, id uuid.UUID) (*users.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.user != nil {
		return s.user, nil
	}
	sid := "76561198000000001"
	return &users.User{ID: id, Username: "GamerTag", SteamID: &sid}, nil
}

// ── Test setup ────────────────────────────────────────────────────────────

func setupGamesRouter(t *testing.T, ing *stubIngester, accounts *stubAccounts) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	sessions := session.NewMemoryStore()
	t.Cleanup(sessions.Stop)
	tokens := identity.NewTokenIssuer([]byte("test-secret"), "http://test", time.Hour)

	h := api.NewGamesHandler(ing, accounts, zap.NewNop())

	r := gin.New()
	protected := r.Group("/api")
	protected.Use(identity.RequireSession(sessions, tokens))
	h.Register(protected)

	tok, err := tokens.Issue(uuid.New(), "GamerTag")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	return r, tok
}

func doAuthed(router *gin.Engine, token, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func sampleGames() []games.Game {
	return []games.Game{
		{ID: uuid.New(), UserID: uuid.New(), AppID: 730, Name: "Counter-Strike 2", PlaytimeForever: 3000},
		{ID: uuid.New(), UserID: uuid.New(), AppID: 570, Name: "Dota 2", PlaytimeForever: 900},
	}
}

// ── Tests ─────────────────────────────────────────────────────────────────

func TestRefresh_200(t *testing.T) {
	router, tok := setupGamesRouter(t, &stubIngester{refreshList: sampleGames()}, &stubAccounts{})

	w := doAuthed(router, tok, http.MethodPost, "/api/games/refresh")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Games []games.Game `json:"games"`
		Count int          `json:"count"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Count != 2 || len(resp.Games) != 2 {
		t.Errorf("expected 2 games, got count=%d len=%d", resp.Count, len(resp.Games))
	}
}

func TestRefresh_unauthenticated401(t *testing.T) {
	router, _ := setupGamesRouter(t, &stubIngester{}, &stubAccounts{})

	req := httptest.NewRequest(http.MethodPost, "/api/games/refresh", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestRefresh_localAccount400(t *testing.T) {
	router, tok := setupGamesRouter(t, &stubIngester{},
		&stubAccounts{user: &users.User{ID: uuid.New(), Username: "alice"}})

	w := doAuthed(router, tok, http.MethodPost, "/api/games/refresh")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for account without steam id, got %d", w.Code)
	}
}

func TestRefresh_noGames404(t *testing.T) {
	router, tok := setupGamesRouter(t, &stubIngester{refreshErr: games.ErrNoGames}, &stubAccounts{})

	w := doAuthed(router, tok, http.MethodPost, "/api/games/refresh")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestRefresh_noTrackedGames404(t *testing.T) {
	router, tok := setupGamesRouter(t, &stubIngester{refreshErr: games.ErrNoAllowedGames}, &stubAccounts{})

	w := doAuthed(router, tok, http.MethodPost, "/api/games/refresh")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestRefresh_providerDown502(t *testing.T) {
	router, tok := setupGamesRouter(t, &stubIngester{refreshErr: steam.ErrProviderUnavailable}, &stubAccounts{})

	w := doAuthed(router, tok, http.MethodPost, "/api/games/refresh")
	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", w.Code)
	}
}

func TestListMine_200(t *testing.T) {
	router, tok := setupGamesRouter(t, &stubIngester{listResult: sampleGames()}, &stubAccounts{})

	w := doAuthed(router, tok, http.MethodGet, "/api/games")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestListForUser_200(t *testing.T) {
	router, tok := setupGamesRouter(t, &stubIngester{listResult: sampleGames()}, &stubAccounts{})

	w := doAuthed(router, tok, http.MethodGet, "/api/users/"+uuid.NewString()+"/games")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestListForUser_badID400(t *testing.T) {
	router, tok := setupGamesRouter(t, &stubIngester{}, &stubAccounts{})

	w := doAuthed(router, tok, http.MethodGet, "/api/users/not-a-uuid/games")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}
