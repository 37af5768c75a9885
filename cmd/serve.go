package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/plconv/internal/server"
	"github.com/desertthunder/plconv/internal/services"
	"github.com/desertthunder/plconv/internal/shared"
	"github.com/urfave/cli/v3"
)

// Serve runs the HTTP API until the context is cancelled.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if err := r.ready(); err != nil {
		return err
	}

	cfg := r.config.Server
	if cmd.IsSet("host") {
		cfg.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		cfg.Port = cmd.Int("port")
	}

	api := &server.API{
		Engine: r.engine,
		Source: r.catalog,
		Target: r.target,
		Tokens: r.tokens,
		Delay:  r.config.Sync.Delay.Duration,
		Logger: r.logger,
	}

	auth, err := services.NewYouTubeAuth(r.config.Credentials.YouTube)
	switch {
	case err == nil:
		api.Auth = auth
	case errors.Is(err, shared.ErrMissingCredentials):
		r.logger.Warn("youtube oauth not configured, /api/youtube endpoints disabled")
	default:
		return fmt.Errorf("failed to configure youtube oauth: %w", err)
	}

	r.writePlain("→ Listening on http://%s\n", cfg.Addr())
	return server.New(cfg, api, r.metrics, r.logger).Run(ctx)
}
