package spotify

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"

	"curator/internal/shared"
)

const callbackTimeout = 2 * time.Minute

// Authenticator runs the OAuth2 authorization-code flow with a one-shot
// local callback server and caches the resulting token on disk.
type Authenticator struct {
	auth        *spotifyauth.Authenticator
	cache       *TokenCache
	redirectURI string
	logger      *log.Logger
}

// NewAuthenticator builds an Authenticator from configured credentials.
func NewAuthenticator(cfg *shared.Config, logger *log.Logger) (*Authenticator, error) {
	creds := cfg.Credentials.Spotify
	if creds.ClientID == "" || creds.ClientSecret == "" {
		return nil, fmt.Errorf("%w: spotify client_id and client_secret are required", shared.ErrInvalidConfig)
	}
	redirectURI := creds.RedirectURI
	if redirectURI == "" {
		redirectURI = "http://127.0.0.1:8080/callback"
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	cache, err := DefaultTokenCache()
	if err != nil {
		return nil, err
	}

	auth := spotifyauth.New(
		spotifyauth.WithClientID(creds.ClientID),
		spotifyauth.WithClientSecret(creds.ClientSecret),
		spotifyauth.WithRedirectURL(redirectURI),
		spotifyauth.WithScopes(
			spotifyauth.ScopeUserLibraryRead,
			spotifyauth.ScopePlaylistReadPrivate,
			spotifyauth.ScopePlaylistModifyPublic,
			spotifyauth.ScopePlaylistModifyPrivate,
		),
	)

	return &Authenticator{auth: auth, cache: cache, redirectURI: redirectURI, logger: logger}, nil
}

// Authenticate returns an authenticated API client, reusing the cached
// token when possible and falling back to the full browser flow.
func (a *Authenticator) Authenticate(ctx context.Context) (*spotify.Client, error) {
	token, err := a.cache.Load()
	if err != nil {
		return nil, err
	}

	if token != nil {
		client := spotify.New(a.auth.Client(ctx, token), spotify.WithRetry(true))
		if _, err := client.CurrentUser(ctx); err == nil {
			if refreshed, tokenErr := client.Token(); tokenErr == nil && refreshed.AccessToken != token.AccessToken {
				_ = a.cache.Save(refreshed)
			}
			return client, nil
		}
		a.logger.Warn("cached token rejected, starting new authorization")
	}

	return a.runFlow(ctx)
}

// runFlow serves the callback, opens the browser, and waits for the code
// exchange or a timeout.
func (a *Authenticator) runFlow(ctx context.Context) (*spotify.Client, error) {
	state, err := generateState()
	if err != nil {
		return nil, fmt.Errorf("%w: generating state: %v", shared.ErrAuthFailed, err)
	}

	redirect, err := url.Parse(a.redirectURI)
	if err != nil {
		return nil, fmt.Errorf("%w: bad redirect URI: %v", shared.ErrInvalidConfig, err)
	}

	tokenCh := make(chan *oauth2.Token, 1)
	errCh := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc(redirect.Path, func(w http.ResponseWriter, r *http.Request) {
		token, err := a.auth.Token(r.Context(), state, r)
		if err != nil {
			http.Error(w, "authorization failed", http.StatusForbidden)
			errCh <- fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
			return
		}
		fmt.Fprintln(w, "Authorized. You can close this window.")
		tokenCh <- token
	})

	server := &http.Server{Addr: redirect.Host, Handler: mux}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("%w: callback server: %v", shared.ErrAuthFailed, err)
		}
	}()
	defer server.Shutdown(context.Background())

	authURL := a.auth.AuthURL(state)
	if err := shared.OpenBrowser(authURL); err != nil {
		a.logger.Warn("could not open browser", "err", err)
		fmt.Printf("Open this URL to authorize:\n%s\n", authURL)
	}

	select {
	case token := <-tokenCh:
		if err := a.cache.Save(token); err != nil {
			a.logger.Warn("failed to cache token", "err", err)
		}
		return spotify.New(a.auth.Client(ctx, token), spotify.WithRetry(true)), nil
	case err := <-errCh:
		return nil, err
	case <-time.After(callbackTimeout):
		return nil, fmt.Errorf("%w: timed out waiting for callback", shared.ErrAuthFailed)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func generateState() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// TokenCache persists OAuth tokens under the user config directory.
type TokenCache struct {
	path string
}

// DefaultTokenCache returns the cache at ~/.config/curator/token.json.
func DefaultTokenCache() (*TokenCache, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("getting user config dir: %w", err)
	}
	return &TokenCache{path: filepath.Join(configDir, "curator", "token.json")}, nil
}

// NewTokenCache creates a TokenCache at a custom path.
func NewTokenCache(path string) *TokenCache {
	return &TokenCache{path: path}
}

// Path returns the token file location.
func (c *TokenCache) Path() string {
	return c.path
}

// Load reads the cached token. Returns (nil, nil) when no token exists.
func (c *TokenCache) Load() (*oauth2.Token, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading token file: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("parsing token file: %w", err)
	}
	return &token, nil
}

// Save writes the token, creating the parent directory if needed.
func (c *TokenCache) Save(token *oauth2.Token) error {
	if token == nil {
		return errors.New("cannot save nil token")
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0700); err != nil {
		return fmt.Errorf("creating token directory: %w", err)
	}
	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("encoding token: %w", err)
	}
	if err := os.WriteFile(c.path, data, 0600); err != nil {
		return fmt.Errorf("writing token file: %w", err)
	}
	return nil
}
