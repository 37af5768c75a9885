package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/desertthunder/plconv/internal/models"
	"github.com/desertthunder/plconv/internal/server"
	"github.com/desertthunder/plconv/internal/services"
	"github.com/desertthunder/plconv/internal/shared"
	"github.com/urfave/cli/v3"
)

const authTimeout = 2 * time.Minute

// AuthYouTube performs the OAuth2 authorization code flow for YouTube.
//
// Starts a local HTTP server on the configured redirect URI, opens the browser for user
// authorization, and saves the exchanged access token to the config file.
func (r *Runner) AuthYouTube(ctx context.Context, cmd *cli.Command) error {
	auth, err := services.NewYouTubeAuth(r.config.Credentials.YouTube)
	if err != nil {
		return fmt.Errorf("%w (set credentials.youtube.client_id, client_secret and redirect_uri in %s)", err, r.configPath)
	}

	creds, err := r.doOAuth(ctx, auth, cmd.Duration("timeout"))
	if err != nil {
		return err
	}

	if cmd.Bool("no-save") {
		r.writePlainln("✓ Authorization successful")
		return r.writePlain("%s\n", creds.AccessToken)
	}

	r.config.Credentials.YouTube.AccessToken = creds.AccessToken
	if err := shared.SaveConfig(r.configPath, r.config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	r.writePlainln("✓ Authorization successful")
	r.writePlain("✓ Access token saved to %s\n\n", r.configPath)
	r.writePlain("You can now use: plconv convert --source <spotify playlist>\n")
	return nil
}

// doOAuth executes the OAuth2 authorization flow with a local HTTP server
func (r *Runner) doOAuth(ctx context.Context, auth *services.YouTubeAuth, timeout time.Duration) (models.Credentials, error) {
	redirect, err := url.Parse(r.config.Credentials.YouTube.RedirectURI)
	if err != nil || redirect.Host == "" {
		return models.Credentials{}, fmt.Errorf("%w: redirect_uri %q must be an absolute URL", shared.ErrInvalidConfig, r.config.Credentials.YouTube.RedirectURI)
	}

	state := shared.GenerateID()
	oauthHandler := server.NewOAuthHandler(auth, state, redirect.Path)
	router := server.NewBasicRouter()
	router.Handler(oauthHandler)

	ln, err := net.Listen("tcp", redirect.Host)
	if err != nil {
		return models.Credentials{}, fmt.Errorf("failed to listen on %s: %w", redirect.Host, err)
	}

	httpServer := &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting OAuth server at %v", redirect.Host)
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			r.logger.Warn("error shutting down server", "error", err)
		}
	}()

	authURL := auth.AuthURL(state)
	r.writePlain("→ Opening browser for YouTube authorization...\n")
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	if timeout <= 0 {
		timeout = authTimeout
	}
	r.writePlain("→ Waiting for authorization (%v timeout)...\n", timeout)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var result server.OAuthResult
	select {
	case result = <-oauthHandler.Result():
	case err := <-serverErrors:
		return models.Credentials{}, fmt.Errorf("server error: %w", err)
	case <-timer.C:
		return models.Credentials{}, fmt.Errorf("%w: authorization timed out after %v", shared.ErrAuthFailed, timeout)
	case <-ctx.Done():
		return models.Credentials{}, ctx.Err()
	}

	if result.Error() != nil {
		return models.Credentials{}, fmt.Errorf("authorization failed: %w", result.Error())
	}
	if result.Credentials.Empty() {
		return models.Credentials{}, fmt.Errorf("%w: no token received", shared.ErrAuthFailed)
	}
	return result.Credentials, nil
}
