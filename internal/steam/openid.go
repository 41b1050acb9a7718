package steam

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

// ErrInvalidAssertion is returned when the OpenID callback is malformed,
// fails provider verification, or is missing required identity claims.
// It is reported to the caller and never retried.
var ErrInvalidAssertion = errors.New("invalid openid assertion")

const (
	defaultLoginURL  = "https://steamcommunity.com/openid/login"
	openidNS         = "http://specs.openid.net/auth/2.0"
	identifierSelect = "http://specs.openid.net/auth/2.0/identifier_select"

	// Shown as the current activity when the player is idle; matches
	// what the dashboard renders.
	noGamePlaceholder = "No game currently playing"
)

var claimedIDPattern = regexp.MustCompile(`^https?://steamcommunity\.com/openid/id/(\d+)$`)

// Identity is the set of claims established by a verified handshake.
type Identity struct {
	SteamID     string
	PersonaName string
	ProfileURL  string
	AvatarURL   string
	CurrentGame string
}

// AuthConfig configures an Authenticator. Realm and ReturnURL are
// required; LoginURL defaults to the Steam community endpoint and is
// overridable for tests.
type AuthConfig struct {
	Realm     string
	ReturnURL string
	LoginURL  string
	Timeout   time.Duration
}

// profileFetcher is the slice of the Web API client the authenticator
// needs after a verified assertion.
type profileFetcher interface {
	PlayerSummary(ctx context.Context, steamID string) (*PlayerSummary, error)
}

// Authenticator drives the Steam OpenID 2.0 handshake in stateless mode.
// It is constructed from explicit configuration, not a package-level
// client, so each environment and each test wires its own.
type Authenticator struct {
	realm     string
	returnURL string
	loginURL  string
	http      *http.Client
	profiles  profileFetcher
}

// NewAuthenticator creates an Authenticator.
func NewAuthenticator(cfg AuthConfig, profiles profileFetcher) (*Authenticator, error) {
	if cfg.Realm == "" || cfg.ReturnURL == "" {
		return nil, fmt.Errorf("steam openid config missing realm or return url")
	}
	loginURL := cfg.LoginURL
	if loginURL == "" {
		loginURL = defaultLoginURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Authenticator{
		realm:     cfg.Realm,
		returnURL: cfg.ReturnURL,
		loginURL:  loginURL,
		http:      &http.Client{Timeout: timeout},
		profiles:  profiles,
	}, nil
}

// RedirectURL builds the checkid_setup URL the browser is sent to.
// Steam's stateless mode needs no association handshake, so this is
// pure URL construction and cannot fail once the config validated.
func (a *Authenticator) RedirectURL() string {
	q := url.Values{}
	q.Set("openid.ns", openidNS)
	q.Set("openid.mode", "checkid_setup")
	q.Set("openid.return_to", a.returnURL)
	q.Set("openid.realm", a.realm)
	q.Set("openid.identity", identifierSelect)
	q.Set("openid.claimed_id", identifierSelect)
	return a.loginURL + "?" + q.Encode()
}

// Authenticate verifies the provider's callback parameters and returns
// the established identity claims. Verification round-trips the signed
// assertion back to Steam (check_authentication); a transport failure
// there is ErrProviderUnavailable, every malformed or rejected assertion
// is ErrInvalidAssertion.
func (a *Authenticator) Authenticate(ctx context.Context, params url.Values) (*Identity, error) {
	if params.Get("openid.mode") != "id_res" {
		return nil, fmt.Errorf("%w: unexpected mode %q", ErrInvalidAssertion, params.Get("openid.mode"))
	}
	if !strings.HasPrefix(params.Get("openid.return_to"), a.returnURL) {
		return nil, fmt.Errorf("%w: return_to mismatch", ErrInvalidAssertion)
	}

	m := claimedIDPattern.FindStringSubmatch(params.Get("openid.claimed_id"))
	if m == nil {
		return nil, fmt.Errorf("%w: missing steam id in claimed_id", ErrInvalidAssertion)
	}
	steamID := m[1]

	if err := a.verifyAssertion(ctx, params); err != nil {
		return nil, err
	}

	summary, err := a.profiles.PlayerSummary(ctx, steamID)
	if err != nil {
		return nil, err
	}
	if summary.PersonaName == "" {
		return nil, fmt.Errorf("%w: missing personaname in player summary", ErrInvalidAssertion)
	}

	currentGame := summary.GameExtraInfo
	if currentGame == "" {
		currentGame = noGamePlaceholder
	}

	return &Identity{
		SteamID:     steamID,
		PersonaName: summary.PersonaName,
		ProfileURL:  summary.ProfileURL,
		AvatarURL:   summary.AvatarFull,
		CurrentGame: currentGame,
	}, nil
}

// verifyAssertion replays the callback to Steam with
// mode=check_authentication and accepts only an is_valid:true answer.
func (a *Authenticator) verifyAssertion(ctx context.Context, params url.Values) error {
	form := url.Values{}
	for k, vs := range params {
		if len(vs) > 0 {
			form.Set(k, vs[0])
		}
	}
	form.Set("openid.mode", "check_authentication")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.loginURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build verification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: check_authentication: %v", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: check_authentication returned status %d", ErrProviderUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<12))
	if err != nil {
		return fmt.Errorf("read verification response: %w", err)
	}

	for _, line := range strings.Split(string(body), "\n") {
		if strings.TrimSpace(line) == "is_valid:true" {
			return nil
		}
	}
	return fmt.Errorf("%w: assertion rejected by provider", ErrInvalidAssertion)
}
