package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"curator/internal/shared"
	"curator/internal/spotify"
)

// AuthLogin runs the browser OAuth flow and caches the token on disk.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	authenticator, err := spotify.NewAuthenticator(r.config, r.logger)
	if err != nil {
		return err
	}

	r.logger.Info("starting Spotify authorization")

	api, err := authenticator.Authenticate(ctx)
	if err != nil {
		return err
	}

	user, err := api.CurrentUser(ctx)
	if err != nil {
		return fmt.Errorf("%w: could not fetch profile after login: %v", shared.ErrAuthFailed, err)
	}

	r.logger.Info("authentication successful", "user", user.ID)
	return r.writePlain("✓ Authenticated as %s\n", user.ID)
}

// AuthStatus checks whether the cached token still grants API access.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	cache, err := spotify.DefaultTokenCache()
	if err != nil {
		return err
	}

	token, err := cache.Load()
	if err != nil {
		return err
	}
	if token == nil {
		r.writePlain("✗ Not authenticated\n")
		return r.writePlain("Run 'curator auth login' to authorize\n")
	}

	authenticator, err := spotify.NewAuthenticator(r.config, r.logger)
	if err != nil {
		return err
	}

	api, err := authenticator.Authenticate(ctx)
	if err != nil {
		return fmt.Errorf("%w: cached token rejected: %v", shared.ErrNotAuthenticated, err)
	}

	user, err := api.CurrentUser(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrNotAuthenticated, err)
	}

	r.writePlain("✓ Authenticated as %s\n", user.ID)
	return r.writePlain("Token cache: %s\n", cache.Path())
}
