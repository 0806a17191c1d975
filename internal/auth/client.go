package auth

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/arungupta/strava-stats-proxy/internal/config"
	"github.com/arungupta/strava-stats-proxy/internal/store"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

// TokenPair is the result of a code exchange or a refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    *time.Time
	// Raw holds the provider payload fields worth handing back to callers
	// (token_type, expires_at, expires_in, athlete).
	Raw map[string]any
}

// Client exchanges codes and refreshes tokens for the single configured
// athlete, rotating the stored refresh token on every refresh.
type Client struct {
	Config     *oauth2.Config
	Store      store.TokenStore
	StoreKey   string
	SeedToken  string
	HTTPClient *http.Client
	// RefreshTimeout bounds a shared refresh, which does not follow any one
	// caller's cancellation. Zero means no limit beyond the HTTP client's.
	RefreshTimeout time.Duration

	refreshes singleflight.Group
}

// NewClient creates a Client backed by the given token store.
func NewClient(cfg *config.Config, tokens store.TokenStore, httpClient *http.Client) *Client {
	return &Client{
		Config:     NewOAuthConfig(cfg),
		Store:      tokens,
		StoreKey:   store.RefreshTokenKey,
		SeedToken:  cfg.SeedRefreshToken,
		HTTPClient: httpClient,
		// resolve, refresh and persist each make at most one request
		RefreshTimeout: 3 * cfg.HTTPTimeout,
	}
}

// ExchangeCode trades a one-shot authorization code for an initial token pair.
// Nothing is persisted.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*TokenPair, error) {
	if err := c.checkCredentials(); err != nil {
		return nil, err
	}
	tok, err := c.Config.Exchange(c.context(ctx), code)
	if err != nil {
		return nil, newAuthError("exchange", err)
	}
	return newTokenPair(tok), nil
}

// Refresh obtains a new token pair from refreshToken. Strava invalidates
// refreshToken once this succeeds.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if err := c.checkCredentials(); err != nil {
		return nil, err
	}
	src := c.Config.TokenSource(c.context(ctx), &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		return nil, newAuthError("refresh", err)
	}
	return newTokenPair(tok), nil
}

// ResolveRefreshToken returns the persisted refresh token, falling back to the
// configured seed.
func (c *Client) ResolveRefreshToken(ctx context.Context) (string, error) {
	v, ok, err := c.Store.Get(ctx, c.StoreKey)
	if err != nil {
		return "", fmt.Errorf("failed to read refresh token: %w", err)
	}
	if ok && v != "" {
		return v, nil
	}
	if c.SeedToken != "" {
		return c.SeedToken, nil
	}
	return "", &ConfigError{Message: "No refresh token configured"}
}

// AccessToken resolves the current refresh token, refreshes it and persists the
// rotated refresh token before returning. Concurrent callers in this process
// share one refresh.
//
// Once Strava rotates the token the old one is dead, so the refresh and the
// store write run detached from ctx: a caller hanging up must neither lose the
// rotated token nor fail the other callers waiting on the same refresh.
func (c *Client) AccessToken(ctx context.Context) (*TokenPair, error) {
	if err := c.checkCredentials(); err != nil {
		return nil, err
	}

	v, err, shared := c.refreshes.Do(c.StoreKey, func() (any, error) {
		ctx := context.WithoutCancel(ctx)
		if c.RefreshTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, c.RefreshTimeout)
			defer cancel()
		}

		refreshToken, err := c.ResolveRefreshToken(ctx)
		if err != nil {
			return nil, err
		}

		pair, err := c.Refresh(ctx, refreshToken)
		if err != nil {
			return nil, err
		}

		if err := c.Store.Set(ctx, c.StoreKey, pair.RefreshToken); err != nil {
			return nil, fmt.Errorf("failed to persist rotated refresh token: %w", err)
		}
		return pair, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		log.Printf("Shared in-flight token refresh for %s", c.StoreKey)
	}
	return v.(*TokenPair), nil
}

// Seed stores refreshToken as the current refresh token.
func (c *Client) Seed(ctx context.Context, refreshToken string) error {
	if err := c.Store.Set(ctx, c.StoreKey, refreshToken); err != nil {
		return fmt.Errorf("failed to store refresh token: %w", err)
	}
	return nil
}

func (c *Client) checkCredentials() error {
	if c.Config.ClientSecret == "" {
		return &ConfigError{Message: "STRAVA_CLIENT_SECRET is not configured"}
	}
	return nil
}

// context makes oauth2 use our HTTP client for token requests.
func (c *Client) context(ctx context.Context) context.Context {
	if c.HTTPClient == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, c.HTTPClient)
}

func newTokenPair(tok *oauth2.Token) *TokenPair {
	pair := &TokenPair{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		Raw: map[string]any{
			"access_token":  tok.AccessToken,
			"refresh_token": tok.RefreshToken,
			"token_type":    tok.TokenType,
		},
	}
	if !tok.Expiry.IsZero() {
		expiry := tok.Expiry
		pair.ExpiresAt = &expiry
	}
	for _, key := range []string{"expires_at", "expires_in", "athlete"} {
		if v := tok.Extra(key); v != nil {
			pair.Raw[key] = v
		}
	}
	return pair
}
