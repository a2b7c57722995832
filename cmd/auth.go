package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/desertthunder/sptx/internal/server"
	"github.com/desertthunder/sptx/internal/services"
	"github.com/desertthunder/sptx/internal/shared"
	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"
)

const defaultLoginTimeout = 2 * time.Minute

// AuthLogin runs the authorization code flow with a local callback server and
// stores the resulting token.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	svc, err := r.spotify()
	if err != nil {
		return err
	}
	repo, err := r.tokens()
	if err != nil {
		return err
	}

	state, err := shared.GenerateState()
	if err != nil {
		return fmt.Errorf("failed to generate state token: %w", err)
	}

	path := "/callback"
	if u, err := url.Parse(r.cfg().Credentials.Spotify.RedirectURI); err == nil && u.Path != "" {
		path = u.Path
	}

	handler := server.NewOAuthHandler(svc, state, path)
	router := server.NewBasicRouter()
	router.Use(server.RequestLogger(r.logger))
	router.Handler(handler)

	c := r.cfg().Server
	srv, err := server.Start(net.JoinHostPort(c.Host, strconv.Itoa(c.Port)), router, r.logger)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			r.logger.Warn("error shutting down server", "error", err)
		}
	}()

	authURL := svc.GetAuthURL(state)
	r.writePlain("→ Opening browser for Spotify authorization...\n")
	if err := r.openBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlain("\n⚠ Could not open browser automatically.\n")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	timeout := cmd.Duration("timeout")
	if timeout <= 0 {
		timeout = defaultLoginTimeout
	}
	r.writePlain("→ Waiting for authorization (%s timeout)...\n", timeout)

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	tokenCh := make(chan error, 1)
	go func() {
		token, err := handler.Wait(waitCtx)
		if err == nil {
			err = repo.Save(provider, token, services.SpotifyScopes)
		}
		tokenCh <- err
	}()

	select {
	case err := <-tokenCh:
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: authorization timed out after %s", shared.ErrTimeout, timeout)
		}
		if err != nil {
			return fmt.Errorf("%w: %w", shared.ErrAuthFailed, err)
		}
	case err, ok := <-srv.Errors():
		if ok {
			return fmt.Errorf("server error: %w", err)
		}
		return fmt.Errorf("callback server stopped")
	}

	r.logger.Info("authorization successful")
	r.writePlain("\n✓ Authorization successful\n")
	return r.writePlain("Run sptx to start.\n")
}

// AuthStatus reports whether a credential is stored and when it expires.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	repo, err := r.tokens()
	if err != nil {
		return err
	}

	stored, err := repo.Load(provider)
	if errors.Is(err, shared.ErrNotAuthenticated) {
		return r.writePlain("✗ Not signed in\n")
	}
	if err != nil {
		return err
	}

	r.writePlain("✓ Signed in to Spotify\n")
	r.writePlain("Updated: %s\n", humanize.Time(stored.UpdatedAt))
	switch expiry := stored.Token.Expiry; {
	case expiry.IsZero():
		r.writePlain("Access token: no expiry recorded\n")
	case time.Now().After(expiry):
		r.writePlain("Access token: expired %s, refreshed on next use\n", humanize.Time(expiry))
	default:
		r.writePlain("Access token: expires %s\n", humanize.Time(expiry))
	}
	if stored.Token.RefreshToken == "" {
		r.writePlain("⚠ No refresh token, sign in again when the access token expires\n")
	}
	if len(stored.Scopes) > 0 {
		r.writePlain("Scopes: %d granted\n", len(stored.Scopes))
	}
	return nil
}

// AuthLogout removes the stored credential.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	repo, err := r.tokens()
	if err != nil {
		return err
	}
	if err := repo.Delete(provider); err != nil {
		return err
	}
	r.logger.Info("credential removed")
	return r.writePlain("✓ Signed out\n")
}
